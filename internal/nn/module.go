// Package nn implements the neural network modules the pointer model is
// assembled from.
//
// This package provides:
//   - Module interface: Base interface for components with a single input
//   - Parameter: Named weight tensors with state dict helpers
//   - Linear, Embedding, Dropout
//   - Recurrent cells (GRU, basic RNN, LSTM) behind the Cell interface
//   - BiRNN: length-aware bidirectional recurrence
//   - Sequential: Container for stacking layers
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"github.com/born-ml/bioqa/internal/tensor"
)

// Module is the base interface for neural network components with a single
// tensor input.
//
// Every Module must implement:
//   - Forward: Compute output from input
//   - Parameters: Return all trainable parameters
//
// Modules can be composed:
//
//	proj := nn.NewSequential[B](
//	    nn.NewLinear(2*h, h, backend),
//	    nn.NewTanh[B](),
//	)
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[B]) *tensor.Tensor[B]

	// Parameters returns all trainable parameters of this module.
	// Returns an empty slice for modules without trainable parameters.
	Parameters() []*Parameter[B]
}
