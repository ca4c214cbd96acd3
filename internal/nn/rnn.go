package nn

import (
	"github.com/born-ml/bioqa/internal/tensor"
)

// RNNCell is the basic Elman cell: h' = tanh(W [x; h] + b).
type RNNCell[B tensor.Backend] struct {
	inputSize  int
	hiddenSize int
	linear     *Linear[B]
	backend    B
}

// NewRNNCell creates a basic RNN cell.
func NewRNNCell[B tensor.Backend](inputSize, hiddenSize int, backend B) *RNNCell[B] {
	return &RNNCell[B]{
		inputSize:  inputSize,
		hiddenSize: hiddenSize,
		linear:     NewLinear(inputSize+hiddenSize, hiddenSize, backend),
		backend:    backend,
	}
}

// Step advances the cell by one time step.
func (c *RNNCell[B]) Step(input *tensor.Tensor[B], state State[B]) (*tensor.Tensor[B], State[B]) {
	checkStep("RNNCell.Step", input, state, c.inputSize, c.hiddenSize)

	next := c.linear.Forward(tensor.Cat([]*tensor.Tensor[B]{input, state.H}, 1)).Tanh()
	return next, State[B]{H: next}
}

// ZeroState returns the all-zero state for a batch of n.
func (c *RNNCell[B]) ZeroState(n int) State[B] {
	return State[B]{H: tensor.Zeros(tensor.Shape{n, c.hiddenSize}, c.backend)}
}

// InitialState uses h as the state.
func (c *RNNCell[B]) InitialState(h *tensor.Tensor[B]) State[B] {
	return State[B]{H: h}
}

// InputSize returns the input width.
func (c *RNNCell[B]) InputSize() int { return c.inputSize }

// HiddenSize returns the state width.
func (c *RNNCell[B]) HiddenSize() int { return c.hiddenSize }

// Parameters returns the cell weights.
func (c *RNNCell[B]) Parameters() []*Parameter[B] {
	return WithPrefix("linear", c.linear.Parameters())
}
