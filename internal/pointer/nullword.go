package pointer

import (
	"fmt"

	"github.com/born-ml/bioqa/internal/nn"
	"github.com/born-ml/bioqa/internal/tensor"
)

// NullWord appends a learned "no answer" sentinel to encoded sequences.
type NullWord[B tensor.Backend] struct {
	vector *nn.Parameter[B] // [H], zero-initialized
}

// NewNullWord creates a zero sentinel of width size.
func NewNullWord[B tensor.Backend](size int, backend B) *NullWord[B] {
	return &NullWord[B]{
		vector: nn.NewParameter("NULL_WORD", tensor.Zeros(tensor.Shape{size}, backend)),
	}
}

// Append inserts the sentinel right after the last real token of every
// example.
//
// For x [N, T, H] it returns [N, T+1, H] ordered per example as
// [tokens in order][sentinel][zero padding], and the lengths plus one.
func (w *NullWord[B]) Append(x *tensor.Tensor[B], lengths []int) (*tensor.Tensor[B], []int) {
	shape := x.Shape()
	size := w.vector.Tensor().NumElements()
	if len(shape) != 3 || shape[2] != size {
		panic(fmt.Sprintf("NullWord.Append: expected [batch, time, %d], got shape %v", size, shape))
	}

	sentinel := w.vector.Tensor().Reshape(1, 1, size).Expand(tensor.Shape{shape[0], 1, size})

	reversed := tensor.ReverseSequence(x, lengths)
	prepended := tensor.Cat([]*tensor.Tensor[B]{sentinel, reversed}, 1)

	augmented := make([]int, len(lengths))
	for i, l := range lengths {
		augmented[i] = l + 1
	}
	return tensor.ReverseSequence(prepended, augmented), augmented
}

// Parameters returns the sentinel vector.
func (w *NullWord[B]) Parameters() []*nn.Parameter[B] {
	return []*nn.Parameter[B]{w.vector}
}
