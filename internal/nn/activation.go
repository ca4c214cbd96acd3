package nn

import (
	"github.com/born-ml/bioqa/internal/tensor"
)

// Tanh is a hyperbolic tangent activation module.
//
// Example:
//
//	tanh := nn.NewTanh[B]()
//	output := tanh.Forward(input) // Values in range (-1, 1)
type Tanh[B tensor.Backend] struct{}

// NewTanh creates a new Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{}
}

// Forward applies Tanh activation.
func (t *Tanh[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	return input.Tanh()
}

// Parameters returns nil (Tanh has no trainable parameters).
func (t *Tanh[B]) Parameters() []*Parameter[B] {
	return nil
}
