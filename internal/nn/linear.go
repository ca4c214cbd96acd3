package nn

import (
	"fmt"

	"github.com/born-ml/bioqa/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//     (or [batch_size, time, in_features])
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the optional bias vector with shape [out_features]
//
// Weights are initialized using Xavier/Glorot initialization.
// Biases are initialized to zeros.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(300, 128, backend)
//	output := layer.Forward(input) // [N, 300] -> [N, 128]
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B] // [out_features, in_features]
	bias        *Parameter[B] // [out_features], nil without bias
}

// NewLinear creates a new Linear layer with bias.
//
// Parameters:
//   - inFeatures: Number of input features
//   - outFeatures: Number of output features
//   - backend: Backend to use for tensor operations
//
// Returns a new Linear layer.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	weight := Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, backend)
	return NewLinearWithWeight(weight, tensor.Zeros(tensor.Shape{outFeatures}, backend))
}

// NewLinearNoBias creates a Linear layer without a bias term.
func NewLinearNoBias[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	weight := Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, backend)
	return NewLinearWithWeight(weight, nil)
}

// NewLinearWithWeight creates a Linear layer from pre-initialized tensors.
// bias may be nil.
//
// Panics if the weight is not 2D or the bias does not match it.
func NewLinearWithWeight[B tensor.Backend](weight, bias *tensor.Tensor[B]) *Linear[B] {
	shape := weight.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("NewLinearWithWeight: expected 2D weight, got shape %v", shape))
	}

	l := &Linear[B]{
		inFeatures:  shape[1],
		outFeatures: shape[0],
		weight:      NewParameter("weight", weight),
	}
	if bias != nil {
		if !bias.Shape().Equal(tensor.Shape{shape[0]}) {
			panic(fmt.Sprintf("NewLinearWithWeight: expected bias shape [%d], got %v", shape[0], bias.Shape()))
		}
		l.bias = NewParameter("bias", bias)
	}
	return l
}

// Forward computes the output of the linear layer.
//
// Input shape: [batch_size, in_features] or [batch_size, time, in_features]
// Output shape: same leading dimensions with out_features last.
func (l *Linear[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	inputShape := input.Shape()
	if len(inputShape) != 2 && len(inputShape) != 3 {
		panic(fmt.Sprintf("Linear.Forward: expected 2D or 3D input, got shape %v", inputShape))
	}
	if inputShape.Last() != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input with %d features, got %d", l.inFeatures, inputShape.Last()))
	}

	// Flatten [N, T, F] to [N*T, F] for the matmul.
	flat := input
	if len(inputShape) == 3 {
		flat = input.Reshape(inputShape[0]*inputShape[1], l.inFeatures)
	}

	output := flat.MatMul(l.weight.Tensor().Transpose())
	if l.bias != nil {
		output = output.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
	}

	if len(inputShape) == 3 {
		output = output.Reshape(inputShape[0], inputShape[1], l.outFeatures)
	}
	return output
}

// Parameters returns the trainable parameters of this layer.
//
// Returns [weight, bias] if bias is present, otherwise [weight].
func (l *Linear[B]) Parameters() []*Parameter[B] {
	if l.bias != nil {
		return []*Parameter[B]{l.weight, l.bias}
	}
	return []*Parameter[B]{l.weight}
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] {
	return l.weight
}

// Bias returns the bias parameter, or nil.
func (l *Linear[B]) Bias() *Parameter[B] {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear[B]) OutFeatures() int {
	return l.outFeatures
}

// StateDict returns a map of parameter names to raw tensors.
func (l *Linear[B]) StateDict() map[string]*tensor.RawTensor {
	return StateDict(l.Parameters())
}

// LoadStateDict loads parameters from a state dictionary.
func (l *Linear[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return LoadStateDict(l.Parameters(), stateDict)
}
