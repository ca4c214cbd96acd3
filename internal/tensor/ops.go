package tensor

// Add performs element-wise addition with broadcasting.
//
// Example:
//
//	a := tensor.Ones(Shape{3, 1}, backend)
//	b := tensor.Ones(Shape{3, 5}, backend)
//	c := a.Add(b) // Shape: [3, 5] (broadcasted)
func (t *Tensor[B]) Add(other *Tensor[B]) *Tensor[B] {
	return New(t.backend.Add(t.raw, other.raw), t.backend)
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor[B]) Sub(other *Tensor[B]) *Tensor[B] {
	return New(t.backend.Sub(t.raw, other.raw), t.backend)
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor[B]) Mul(other *Tensor[B]) *Tensor[B] {
	return New(t.backend.Mul(t.raw, other.raw), t.backend)
}

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) → (M, N).
func (t *Tensor[B]) MatMul(other *Tensor[B]) *Tensor[B] {
	return New(t.backend.MatMul(t.raw, other.raw), t.backend)
}

// BatchMatMul performs batched multiplication: (B, M, K) @ (B, K, N) → (B, M, N).
func (t *Tensor[B]) BatchMatMul(other *Tensor[B]) *Tensor[B] {
	return New(t.backend.BatchMatMul(t.raw, other.raw), t.backend)
}

// Transpose permutes the axes; with no arguments it swaps the last two.
func (t *Tensor[B]) Transpose(axes ...int) *Tensor[B] {
	return New(t.backend.Transpose(t.raw, axes...), t.backend)
}

// Reshape returns a tensor with the same data but a different shape.
func (t *Tensor[B]) Reshape(newShape ...int) *Tensor[B] {
	return New(t.raw.Reshape(Shape(newShape)), t.backend)
}

// MulScalar multiplies every element by scalar.
func (t *Tensor[B]) MulScalar(scalar float32) *Tensor[B] {
	return New(t.backend.MulScalar(t.raw, scalar), t.backend)
}

// AddScalar adds scalar to every element.
func (t *Tensor[B]) AddScalar(scalar float32) *Tensor[B] {
	return New(t.backend.AddScalar(t.raw, scalar), t.backend)
}

// Exp computes e^x element-wise.
func (t *Tensor[B]) Exp() *Tensor[B] {
	return New(t.backend.Exp(t.raw), t.backend)
}

// Tanh computes tanh element-wise.
func (t *Tensor[B]) Tanh() *Tensor[B] {
	return New(t.backend.Tanh(t.raw), t.backend)
}

// Sigmoid computes the logistic function element-wise.
func (t *Tensor[B]) Sigmoid() *Tensor[B] {
	return New(t.backend.Sigmoid(t.raw), t.backend)
}

// Softmax normalizes along dim. Masked (-Inf) entries get probability 0.
func (t *Tensor[B]) Softmax(dim int) *Tensor[B] {
	return New(t.backend.Softmax(t.raw, dim), t.backend)
}

// Argmax returns the index of the maximum along the last dimension for
// every leading position. Ties resolve to the lowest index.
func (t *Tensor[B]) Argmax() []int {
	return t.backend.Argmax(t.raw)
}

// MaxPool reduces consecutive groups of size elements along the last dimension.
func (t *Tensor[B]) MaxPool(size int) *Tensor[B] {
	return New(t.backend.MaxPool(t.raw, size), t.backend)
}

// Chunk splits the tensor into n equal parts along dim.
func (t *Tensor[B]) Chunk(n, dim int) []*Tensor[B] {
	raws := t.backend.Chunk(t.raw, n, dim)
	parts := make([]*Tensor[B], len(raws))
	for i, r := range raws {
		parts[i] = New(r, t.backend)
	}
	return parts
}

// Expand broadcasts the tensor to shape, materializing the copies.
func (t *Tensor[B]) Expand(shape Shape) *Tensor[B] {
	return New(t.backend.Expand(t.raw, shape), t.backend)
}

// Cat concatenates tensors along dim. All tensors must share a backend.
//
// Example:
//
//	a := tensor.Zeros(Shape{2, 3}, backend)
//	b := tensor.Ones(Shape{2, 5}, backend)
//	c := tensor.Cat([]*tensor.Tensor[B]{a, b}, 1) // Shape: [2, 8]
func Cat[B Backend](tensors []*Tensor[B], dim int) *Tensor[B] {
	if len(tensors) == 0 {
		panic("Cat: no tensors")
	}

	raws := make([]*RawTensor, len(tensors))
	for i, t := range tensors {
		raws[i] = t.raw
	}
	b := tensors[0].backend
	return New(b.Cat(raws, dim), b)
}
