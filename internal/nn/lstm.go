package nn

import (
	"github.com/born-ml/bioqa/internal/tensor"
)

// forgetBias is added to the forget gate pre-activation.
const forgetBias = 1.0

// LSTMCell is a long short-term memory cell.
//
//	i, j, f, o = W [x; h] + b
//	c' = c*sigmoid(f + 1) + sigmoid(i)*tanh(j)
//	h' = tanh(c')*sigmoid(o)
type LSTMCell[B tensor.Backend] struct {
	inputSize  int
	hiddenSize int
	linear     *Linear[B] // [in+hidden] -> [4*hidden]
	backend    B
}

// NewLSTMCell creates an LSTM cell.
func NewLSTMCell[B tensor.Backend](inputSize, hiddenSize int, backend B) *LSTMCell[B] {
	return &LSTMCell[B]{
		inputSize:  inputSize,
		hiddenSize: hiddenSize,
		linear:     NewLinear(inputSize+hiddenSize, 4*hiddenSize, backend),
		backend:    backend,
	}
}

// Step advances the cell by one time step.
func (c *LSTMCell[B]) Step(input *tensor.Tensor[B], state State[B]) (*tensor.Tensor[B], State[B]) {
	checkStep("LSTMCell.Step", input, state, c.inputSize, c.hiddenSize)

	z := c.linear.Forward(tensor.Cat([]*tensor.Tensor[B]{input, state.H}, 1))
	parts := z.Chunk(4, 1)
	i, j, f, o := parts[0], parts[1], parts[2], parts[3]

	memory := state.C.Mul(f.AddScalar(forgetBias).Sigmoid()).Add(i.Sigmoid().Mul(j.Tanh()))
	next := memory.Tanh().Mul(o.Sigmoid())
	return next, State[B]{H: next, C: memory}
}

// ZeroState returns the all-zero state for a batch of n.
func (c *LSTMCell[B]) ZeroState(n int) State[B] {
	shape := tensor.Shape{n, c.hiddenSize}
	return State[B]{
		H: tensor.Zeros(shape, c.backend),
		C: tensor.Zeros(shape, c.backend),
	}
}

// InitialState uses h as the output part and a zero memory.
func (c *LSTMCell[B]) InitialState(h *tensor.Tensor[B]) State[B] {
	return State[B]{H: h, C: tensor.Zeros(h.Shape(), c.backend)}
}

// InputSize returns the input width.
func (c *LSTMCell[B]) InputSize() int { return c.inputSize }

// HiddenSize returns the state width.
func (c *LSTMCell[B]) HiddenSize() int { return c.hiddenSize }

// Parameters returns the cell weights.
func (c *LSTMCell[B]) Parameters() []*Parameter[B] {
	return WithPrefix("linear", c.linear.Parameters())
}
