package nn

import (
	"fmt"

	"github.com/born-ml/bioqa/internal/tensor"
)

// Sequential is a container module that chains multiple modules together.
//
// Each module's output becomes the next module's input.
//
// Example:
//
//	proj := nn.NewSequential[B](
//	    nn.NewLinearWithWeight(nn.StackedIdentity(h, 2, backend), bias),
//	    nn.NewTanh[B](),
//	)
//	output := proj.Forward(input)
//
// Parameters of the i-th module are named "<i>.<name>" in state dicts.
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential creates a new Sequential container.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{
		modules: modules,
	}
}

// Forward applies all modules in sequence.
func (s *Sequential[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	output := input
	for _, module := range s.modules {
		output = module.Forward(output)
	}
	return output
}

// Parameters returns all trainable parameters from all modules.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for i, module := range s.modules {
		params = append(params, WithPrefix(fmt.Sprint(i), module.Parameters())...)
	}
	return params
}

// Len returns the number of modules in the sequence.
func (s *Sequential[B]) Len() int {
	return len(s.modules)
}

// Module returns the i-th module.
func (s *Sequential[B]) Module(i int) Module[B] {
	return s.modules[i]
}
