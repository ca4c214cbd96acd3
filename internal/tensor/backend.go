package tensor

// Backend defines the interface compute backends implement.
// Backends handle the actual arithmetic for tensor operations; index
// plumbing over sequences (see sequence.go) works on host memory directly.
//
// Implementations:
//   - CPU: pure Go, row-parallel matmul (internal/backend/cpu)
type Backend interface {
	// Element-wise binary operations with NumPy broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor

	// MatMul multiplies 2D tensors: [M, K] @ [K, N] -> [M, N].
	MatMul(a, b *RawTensor) *RawTensor

	// BatchMatMul multiplies 3D tensors: [B, M, K] @ [B, K, N] -> [B, M, N].
	BatchMatMul(a, b *RawTensor) *RawTensor

	// Transpose permutes axes. With no axes the last two are swapped.
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Scalar operations.
	MulScalar(x *RawTensor, scalar float32) *RawTensor
	AddScalar(x *RawTensor, scalar float32) *RawTensor

	// Element-wise math.
	Exp(x *RawTensor) *RawTensor
	Tanh(x *RawTensor) *RawTensor
	Sigmoid(x *RawTensor) *RawTensor

	// Softmax along a dimension. Entries at -Inf get probability 0; a slice
	// that is entirely -Inf yields all zeros.
	Softmax(x *RawTensor, dim int) *RawTensor

	// Argmax over the last dimension. Ties resolve to the lowest index.
	Argmax(x *RawTensor) []int

	// MaxPool reduces consecutive groups of size elements along the last
	// dimension: [..., n*size] -> [..., n].
	MaxPool(x *RawTensor, size int) *RawTensor

	// Manipulation.
	Cat(tensors []*RawTensor, dim int) *RawTensor
	Chunk(x *RawTensor, n, dim int) []*RawTensor
	Expand(x *RawTensor, shape Shape) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
