package nn

import (
	"fmt"
	"strings"

	"github.com/born-ml/bioqa/internal/tensor"
)

// Composition selects the recurrent cell type.
type Composition int

// Supported compositions.
const (
	GRU Composition = iota
	RNN
	LSTM
)

// String returns the configuration name of the composition.
func (c Composition) String() string {
	switch c {
	case GRU:
		return "GRU"
	case RNN:
		return "RNN"
	case LSTM:
		return "LSTM"
	default:
		return fmt.Sprintf("Composition(%d)", int(c))
	}
}

// ParseComposition parses a configuration name such as "GRU" (case-insensitive).
func ParseComposition(s string) (Composition, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GRU":
		return GRU, nil
	case "RNN":
		return RNN, nil
	case "LSTM":
		return LSTM, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownComposition, s)
	}
}

// State is the recurrent state of a batch. C is nil except for LSTM cells.
type State[B tensor.Backend] struct {
	H *tensor.Tensor[B] // [N, hidden]
	C *tensor.Tensor[B] // [N, hidden], LSTM only
}

// Where returns a state with rows from s where keep[n] and from other elsewhere.
func (s State[B]) Where(keep []bool, other State[B]) State[B] {
	out := State[B]{H: tensor.WhereRows(keep, s.H, other.H)}
	if s.C != nil {
		out.C = tensor.WhereRows(keep, s.C, other.C)
	}
	return out
}

// Cell is a single recurrent step.
type Cell[B tensor.Backend] interface {
	// Step consumes input [N, in] and returns the output [N, hidden] and the
	// next state.
	Step(input *tensor.Tensor[B], state State[B]) (*tensor.Tensor[B], State[B])

	// ZeroState returns the all-zero state for a batch of n.
	ZeroState(n int) State[B]

	// InitialState builds a state whose output part is h. LSTM cells start
	// with a zero memory.
	InitialState(h *tensor.Tensor[B]) State[B]

	InputSize() int
	HiddenSize() int
	Parameters() []*Parameter[B]
}

// NewCell creates a cell of the given composition.
func NewCell[B tensor.Backend](c Composition, inputSize, hiddenSize int, backend B) (Cell[B], error) {
	switch c {
	case GRU:
		return NewGRUCell(inputSize, hiddenSize, backend), nil
	case RNN:
		return NewRNNCell(inputSize, hiddenSize, backend), nil
	case LSTM:
		return NewLSTMCell(inputSize, hiddenSize, backend), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownComposition, c)
	}
}

func checkStep[B tensor.Backend](op string, input *tensor.Tensor[B], state State[B], inputSize, hiddenSize int) {
	in := input.Shape()
	if len(in) != 2 || in[1] != inputSize {
		panic(fmt.Sprintf("%s: expected input [batch, %d], got shape %v", op, inputSize, in))
	}
	h := state.H.Shape()
	if len(h) != 2 || h[0] != in[0] || h[1] != hiddenSize {
		panic(fmt.Sprintf("%s: expected state [%d, %d], got shape %v", op, in[0], hiddenSize, h))
	}
}
