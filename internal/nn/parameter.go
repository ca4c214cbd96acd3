package nn

import (
	"fmt"

	"github.com/born-ml/bioqa/internal/tensor"
)

// Parameter represents a named weight tensor of a module.
//
// Names are local to the module that owns the parameter ("weight", "bias").
// Containers qualify them with WithPrefix, so the parameters of a whole model
// form a flat state dict such as "encoder.question_proj.weight".
//
// Example:
//
//	weight := nn.NewParameter("weight", weightTensor)
//	w := weight.Tensor()
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[B]
}

// NewParameter creates a new parameter.
//
// Parameters:
//   - name: Descriptive name for this parameter (e.g., "weight")
//   - t: The initialized parameter tensor
//
// Returns a new Parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[B] {
	return p.tensor
}

// WithPrefix returns views of params whose names are qualified with prefix.
// The views share tensors with the originals, so loading into a view loads
// into the module.
func WithPrefix[B tensor.Backend](prefix string, params []*Parameter[B]) []*Parameter[B] {
	out := make([]*Parameter[B], len(params))
	for i, p := range params {
		out[i] = &Parameter[B]{
			name:   prefix + "." + p.name,
			tensor: p.tensor,
		}
	}
	return out
}

// StateDict returns a map of parameter names to raw tensors.
// The raw tensors share memory with the parameters.
func StateDict[B tensor.Backend](params []*Parameter[B]) map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor, len(params))
	for _, p := range params {
		stateDict[p.name] = p.tensor.Raw()
	}
	return stateDict
}

// LoadStateDict copies tensors from stateDict into params.
//
// Every parameter must be present with exactly its shape. Entries in
// stateDict that match no parameter are reported as an error too, since they
// usually mean the weights belong to a differently configured model.
func LoadStateDict[B tensor.Backend](params []*Parameter[B], stateDict map[string]*tensor.RawTensor) error {
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		raw, ok := stateDict[p.name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingParameter, p.name)
		}
		if !raw.Shape().Equal(p.tensor.Shape()) {
			return fmt.Errorf("%w: %s: expected %v, got %v",
				ErrParameterShape, p.name, p.tensor.Shape(), raw.Shape())
		}
		copy(p.tensor.Data(), raw.Data())
		seen[p.name] = true
	}

	for name := range stateDict {
		if !seen[name] {
			return fmt.Errorf("%w: %s", ErrUnexpectedParameter, name)
		}
	}
	return nil
}
