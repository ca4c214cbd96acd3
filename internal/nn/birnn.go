package nn

import (
	"fmt"

	"github.com/born-ml/bioqa/internal/tensor"
)

// BiRNN runs a forward and a backward cell over a padded batch.
//
// Each example is processed only up to its length: outputs at padding
// positions are zero and the state is carried through unchanged. The
// backward direction reads every example from its last valid token, so
// padding never leaks into either direction.
//
// Example:
//
//	rnn, _ := nn.NewBiRNN(nn.GRU, 300, 128, backend)
//	out := rnn.Forward(x, lengths) // [N, T, 300] -> [N, T, 256]
type BiRNN[B tensor.Backend] struct {
	fw Cell[B]
	bw Cell[B]
}

// NewBiRNN creates a bidirectional RNN whose cells have the given composition.
func NewBiRNN[B tensor.Backend](c Composition, inputSize, hiddenSize int, backend B) (*BiRNN[B], error) {
	fw, err := NewCell(c, inputSize, hiddenSize, backend)
	if err != nil {
		return nil, err
	}
	bw, err := NewCell(c, inputSize, hiddenSize, backend)
	if err != nil {
		return nil, err
	}
	return &BiRNN[B]{fw: fw, bw: bw}, nil
}

// Forward returns [N, T, 2*hidden]: forward outputs followed by backward
// outputs on the last axis.
func (r *BiRNN[B]) Forward(x *tensor.Tensor[B], lengths []int) *tensor.Tensor[B] {
	shape := x.Shape()
	if len(shape) != 3 || shape[2] != r.fw.InputSize() {
		panic(fmt.Sprintf("BiRNN.Forward: expected input [batch, time, %d], got shape %v", r.fw.InputSize(), shape))
	}

	fw := Unroll(r.fw, x, lengths, r.fw.ZeroState(shape[0]))
	bw := Unroll(r.bw, tensor.ReverseSequence(x, lengths), lengths, r.bw.ZeroState(shape[0]))
	bw = tensor.ReverseSequence(bw, lengths)

	return tensor.Cat([]*tensor.Tensor[B]{fw, bw}, 2)
}

// OutputSize returns the width of Forward's last axis.
func (r *BiRNN[B]) OutputSize() int {
	return r.fw.HiddenSize() + r.bw.HiddenSize()
}

// Parameters returns the weights of both directions.
func (r *BiRNN[B]) Parameters() []*Parameter[B] {
	params := WithPrefix("fw", r.fw.Parameters())
	return append(params, WithPrefix("bw", r.bw.Parameters())...)
}

// Unroll runs cell over x [N, T, in] from state and returns the outputs
// [N, T, hidden]. Steps at or beyond lengths[n] produce zero output and keep
// the state of example n.
func Unroll[B tensor.Backend](cell Cell[B], x *tensor.Tensor[B], lengths []int, state State[B]) *tensor.Tensor[B] {
	shape := x.Shape()
	if len(lengths) != shape[0] {
		panic(fmt.Sprintf("Unroll: expected %d lengths, got %d", shape[0], len(lengths)))
	}

	zeros := tensor.Zeros(tensor.Shape{shape[0], cell.HiddenSize()}, x.Backend())
	keep := make([]bool, shape[0])
	outputs := make([]*tensor.Tensor[B], shape[1])
	for t := range outputs {
		for n, l := range lengths {
			keep[n] = t < l
		}

		out, next := cell.Step(tensor.TimeStep(x, t), state)
		state = next.Where(keep, state)
		outputs[t] = tensor.WhereRows(keep, out, zeros)
	}
	return tensor.StackSteps(outputs)
}
