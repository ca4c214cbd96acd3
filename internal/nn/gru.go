package nn

import (
	"github.com/born-ml/bioqa/internal/tensor"
)

// GRUCell is a gated recurrent unit.
//
//	r, u = sigmoid(W_g [x; h] + b_g)
//	c    = tanh(W_c [x; r*h] + b_c)
//	h'   = u*h + (1-u)*c
//
// Gate biases start at 1 so the cell initially carries its state through.
type GRUCell[B tensor.Backend] struct {
	inputSize  int
	hiddenSize int
	gates      *Linear[B] // [in+hidden] -> [2*hidden]
	candidate  *Linear[B] // [in+hidden] -> [hidden]
	backend    B
}

// NewGRUCell creates a GRU cell.
func NewGRUCell[B tensor.Backend](inputSize, hiddenSize int, backend B) *GRUCell[B] {
	fanIn := inputSize + hiddenSize
	gateWeight := Xavier(fanIn, 2*hiddenSize, tensor.Shape{2 * hiddenSize, fanIn}, backend)
	gateBias := tensor.Ones(tensor.Shape{2 * hiddenSize}, backend)

	return &GRUCell[B]{
		inputSize:  inputSize,
		hiddenSize: hiddenSize,
		gates:      NewLinearWithWeight(gateWeight, gateBias),
		candidate:  NewLinear(fanIn, hiddenSize, backend),
		backend:    backend,
	}
}

// Step advances the cell by one time step.
func (c *GRUCell[B]) Step(input *tensor.Tensor[B], state State[B]) (*tensor.Tensor[B], State[B]) {
	checkStep("GRUCell.Step", input, state, c.inputSize, c.hiddenSize)

	h := state.H
	gates := c.gates.Forward(tensor.Cat([]*tensor.Tensor[B]{input, h}, 1)).Sigmoid()
	ru := gates.Chunk(2, 1)
	r, u := ru[0], ru[1]

	cand := c.candidate.Forward(tensor.Cat([]*tensor.Tensor[B]{input, r.Mul(h)}, 1)).Tanh()

	// h' = u*h + (1-u)*c = c + u*(h-c)
	next := cand.Add(u.Mul(h.Sub(cand)))
	return next, State[B]{H: next}
}

// ZeroState returns the all-zero state for a batch of n.
func (c *GRUCell[B]) ZeroState(n int) State[B] {
	return State[B]{H: tensor.Zeros(tensor.Shape{n, c.hiddenSize}, c.backend)}
}

// InitialState uses h as the state.
func (c *GRUCell[B]) InitialState(h *tensor.Tensor[B]) State[B] {
	return State[B]{H: h}
}

// InputSize returns the input width.
func (c *GRUCell[B]) InputSize() int { return c.inputSize }

// HiddenSize returns the state width.
func (c *GRUCell[B]) HiddenSize() int { return c.hiddenSize }

// Parameters returns gate and candidate weights.
func (c *GRUCell[B]) Parameters() []*Parameter[B] {
	params := WithPrefix("gates", c.gates.Parameters())
	return append(params, WithPrefix("candidate", c.candidate.Parameters())...)
}
