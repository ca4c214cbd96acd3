package pointer

import (
	"github.com/born-ml/bioqa/internal/attention"
	"github.com/born-ml/bioqa/internal/nn"
	"github.com/born-ml/bioqa/internal/tensor"
)

// Matcher builds the question-aware context representation.
//
// Dot co-attention yields [C; C2Q; Co] per context position, which a second
// bidirectional RNN (with its own weights) turns into [N, T, 2H].
type Matcher[B tensor.Backend] struct {
	rnn *nn.BiRNN[B]
}

// NewMatcher creates a matcher for encodings of width size.
func NewMatcher[B tensor.Backend](composition nn.Composition, size int, backend B) (*Matcher[B], error) {
	rnn, err := nn.NewBiRNN(composition, 3*size, size, backend)
	if err != nil {
		return nil, err
	}
	return &Matcher[B]{rnn: rnn}, nil
}

// Forward returns the matched context representation [N, Tc, 2H].
func (m *Matcher[B]) Forward(ctx *tensor.Tensor[B], ctxLengths []int, question *tensor.Tensor[B], questionLengths []int) *tensor.Tensor[B] {
	fused := attention.DotCoAttention(ctx, ctxLengths, question, questionLengths)
	return m.rnn.Forward(fused, ctxLengths)
}

// Parameters returns the matcher weights.
func (m *Matcher[B]) Parameters() []*nn.Parameter[B] {
	return nn.WithPrefix("rnn", m.rnn.Parameters())
}
