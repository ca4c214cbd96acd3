package pointer

import (
	"fmt"

	"github.com/born-ml/bioqa/internal/nn"
	"github.com/born-ml/bioqa/internal/tensor"
)

// Encoder contextualizes question and context word vectors.
//
// One bidirectional RNN is shared by both sequences. Each sequence gets its
// own projection from 2H back to H with tanh, initialized so that
// proj([fw; bw]) = tanh(fw + bw). The question is also pooled into a single
// vector by attention over its valid positions.
type Encoder[B tensor.Backend] struct {
	size         int
	rnn          *nn.BiRNN[B]
	questionProj *nn.Sequential[B]
	contextProj  *nn.Sequential[B]
	attention    *nn.Linear[B] // [H] -> [1], no bias
}

// NewEncoder creates an encoder for word vectors of width inputSize.
func NewEncoder[B tensor.Backend](composition nn.Composition, inputSize, size int, backend B) (*Encoder[B], error) {
	rnn, err := nn.NewBiRNN(composition, inputSize, size, backend)
	if err != nil {
		return nil, err
	}

	return &Encoder[B]{
		size:         size,
		rnn:          rnn,
		questionProj: newProjection(size, backend),
		contextProj:  newProjection(size, backend),
		attention:    nn.NewLinearNoBias(size, 1, backend),
	}, nil
}

func newProjection[B tensor.Backend](size int, backend B) *nn.Sequential[B] {
	return nn.NewSequential[B](
		nn.NewLinearWithWeight(nn.StackedIdentity(size, 2, backend), tensor.Zeros(tensor.Shape{size}, backend)),
		nn.NewTanh[B](),
	)
}

// EncodeQuestion returns the encoded question [N, T, H] and its pooled
// representation [N, H].
func (e *Encoder[B]) EncodeQuestion(x *tensor.Tensor[B], lengths []int) (*tensor.Tensor[B], *tensor.Tensor[B]) {
	encoded := e.encode(e.questionProj, x, lengths)
	return encoded, e.pool(encoded, lengths)
}

// EncodeContext returns the encoded context [N, T, H].
func (e *Encoder[B]) EncodeContext(x *tensor.Tensor[B], lengths []int) *tensor.Tensor[B] {
	return e.encode(e.contextProj, x, lengths)
}

func (e *Encoder[B]) encode(proj *nn.Sequential[B], x *tensor.Tensor[B], lengths []int) *tensor.Tensor[B] {
	for i, l := range lengths {
		if l < 1 {
			panic(fmt.Sprintf("Encoder: length of example %d is %d, expected >= 1", i, l))
		}
	}
	return tensor.ZeroPadding(proj.Forward(e.rnn.Forward(x, lengths)), lengths)
}

// pool computes softmax(w · h_t) over valid positions and the weighted sum
// of the encoded positions.
func (e *Encoder[B]) pool(encoded *tensor.Tensor[B], lengths []int) *tensor.Tensor[B] {
	shape := encoded.Shape()
	n, steps := shape[0], shape[1]

	scores := e.attention.Forward(encoded).Reshape(n, steps)
	mask := tensor.MaskForLengths(lengths, steps, true, encoded.Backend())
	weights := scores.Add(mask).Softmax(1).Reshape(n, 1, steps)

	return weights.BatchMatMul(encoded).Reshape(n, e.size)
}

// Parameters returns the encoder weights.
func (e *Encoder[B]) Parameters() []*nn.Parameter[B] {
	params := nn.WithPrefix("rnn", e.rnn.Parameters())
	params = append(params, nn.WithPrefix("question_proj", e.questionProj.Parameters())...)
	params = append(params, nn.WithPrefix("context_proj", e.contextProj.Parameters())...)
	return append(params, nn.WithPrefix("attention", e.attention.Parameters())...)
}
