// Package highway implements the highway-maxout scoring network.
//
// The network maps a query vector and a sequence of per-position features to
// one score per position:
//
//	r   = tanh(W_r · query)
//	m_0 = max_p(W_0 [U_t; r] + b_0)
//	m_k = max_p(W_k m_{k-1} + b_k)           for 0 < k < depth
//	s_t = max_p(W_o [m_0; ...; m_{depth-1}] + b_o)
//
// where max_p takes the maximum over p consecutive linear units. The final
// layer sees every intermediate layer (the highway), so a deep network can
// still score from the first maxout layer directly.
package highway

import (
	"errors"
	"fmt"

	"github.com/born-ml/bioqa/internal/nn"
	"github.com/born-ml/bioqa/internal/tensor"
)

// Construction errors.
var (
	ErrInvalidDepth    = errors.New("highway: depth must be at least 1")
	ErrInvalidPoolSize = errors.New("highway: pool size must be at least 1")
	ErrInvalidSize     = errors.New("highway: sizes must be positive")
)

// Network is a highway-maxout scorer.
type Network[B tensor.Backend] struct {
	depth     int
	poolSize  int
	inputSize int
	stateSize int
	hidden    int

	r      *nn.Linear[B]   // [inputSize] -> [hidden], no bias
	layers []*nn.Linear[B] // maxout layers, each producing hidden*poolSize units
	out    *nn.Linear[B]   // [depth*hidden] -> [poolSize]
}

// NewNetwork creates a highway-maxout network.
//
// Parameters:
//   - depth: Number of maxout layers (>= 1)
//   - poolSize: Number of linear units each maxout unit takes the maximum over (>= 1)
//   - inputSize: Width of the query vector
//   - stateSize: Width of the per-position features
//   - hidden: Width of every maxout layer
//   - backend: Computation backend
func NewNetwork[B tensor.Backend](depth, poolSize, inputSize, stateSize, hidden int, backend B) (*Network[B], error) {
	if depth < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidDepth, depth)
	}
	if poolSize < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidPoolSize, poolSize)
	}
	if inputSize < 1 || stateSize < 1 || hidden < 1 {
		return nil, fmt.Errorf("%w: input=%d state=%d hidden=%d", ErrInvalidSize, inputSize, stateSize, hidden)
	}

	layers := make([]*nn.Linear[B], depth)
	layers[0] = nn.NewLinear(stateSize+hidden, hidden*poolSize, backend)
	for k := 1; k < depth; k++ {
		layers[k] = nn.NewLinear(hidden, hidden*poolSize, backend)
	}

	return &Network[B]{
		depth:     depth,
		poolSize:  poolSize,
		inputSize: inputSize,
		stateSize: stateSize,
		hidden:    hidden,
		r:         nn.NewLinearNoBias(inputSize, hidden, backend),
		layers:    layers,
		out:       nn.NewLinear(depth*hidden, poolSize, backend),
	}, nil
}

// Forward scores every position of states.
//
// Parameters:
//   - input: Query vectors [N, inputSize]
//   - states: Per-position features [N, T, stateSize]
//   - lengths: Number of positions to score per example
//
// Returns raw scores [N, T]. Positions at or beyond lengths[n] are 0; callers
// turn them into -Inf with tensor.MaskForLengths before any argmax or softmax.
func (h *Network[B]) Forward(input, states *tensor.Tensor[B], lengths []int) *tensor.Tensor[B] {
	inShape, stShape := input.Shape(), states.Shape()
	if len(inShape) != 2 || inShape[1] != h.inputSize {
		panic(fmt.Sprintf("highway.Forward: expected input [batch, %d], got shape %v", h.inputSize, inShape))
	}
	if len(stShape) != 3 || stShape[0] != inShape[0] || stShape[2] != h.stateSize {
		panic(fmt.Sprintf("highway.Forward: expected states [%d, time, %d], got shape %v", inShape[0], h.stateSize, stShape))
	}

	n, steps := stShape[0], stShape[1]

	r := h.r.Forward(input).Tanh()
	r = r.Reshape(n, 1, h.hidden).Expand(tensor.Shape{n, steps, h.hidden})

	x := tensor.Cat([]*tensor.Tensor[B]{states, r}, 2)
	maxouts := make([]*tensor.Tensor[B], h.depth)
	for k, layer := range h.layers {
		x = layer.Forward(x).MaxPool(h.poolSize)
		maxouts[k] = x
	}

	highway := maxouts[0]
	if h.depth > 1 {
		highway = tensor.Cat(maxouts, 2)
	}

	scores := h.out.Forward(highway).MaxPool(h.poolSize) // [N, T, 1]
	return tensor.ZeroPadding(scores, lengths).Reshape(n, steps)
}

// Depth returns the number of maxout layers.
func (h *Network[B]) Depth() int { return h.depth }

// PoolSize returns the maxout pool size.
func (h *Network[B]) PoolSize() int { return h.poolSize }

// InputSize returns the query width.
func (h *Network[B]) InputSize() int { return h.inputSize }

// Parameters returns all weights, named "r", "layer<k>" and "out".
func (h *Network[B]) Parameters() []*nn.Parameter[B] {
	params := nn.WithPrefix("r", h.r.Parameters())
	for k, layer := range h.layers {
		params = append(params, nn.WithPrefix(fmt.Sprintf("layer%d", k), layer.Parameters())...)
	}
	return append(params, nn.WithPrefix("out", h.out.Parameters())...)
}
