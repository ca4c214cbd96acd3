package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/bioqa/internal/tensor"
)

// Dropout zeroes elements with probability rate and scales the survivors
// by 1/(1-rate) (inverted dropout).
//
// Dropout carries no mode flag: callers apply it only while training and
// pass their own random source, so concurrent forward passes never share one.
type Dropout[B tensor.Backend] struct {
	rate float64
}

// NewDropout creates a Dropout module.
// Panics if rate is outside [0, 1).
func NewDropout[B tensor.Backend](rate float64) *Dropout[B] {
	if rate < 0 || rate >= 1 {
		panic(fmt.Sprintf("NewDropout: rate must be in [0, 1), got %v", rate))
	}
	return &Dropout[B]{rate: rate}
}

// Rate returns the drop probability.
func (d *Dropout[B]) Rate() float64 {
	return d.rate
}

// Forward applies dropout using rng. A zero rate or nil rng returns input unchanged.
func (d *Dropout[B]) Forward(input *tensor.Tensor[B], rng *rand.Rand) *tensor.Tensor[B] {
	if d.rate == 0 || rng == nil {
		return input
	}

	out := input.Clone()
	data := out.Data()
	scale := float32(1 / (1 - d.rate))
	for i := range data {
		if rng.Float64() < d.rate {
			data[i] = 0
		} else {
			data[i] *= scale
		}
	}
	return out
}

// Parameters returns nil (Dropout has no trainable parameters).
func (d *Dropout[B]) Parameters() []*Parameter[B] {
	return nil
}
