package cpu

import (
	"fmt"

	"github.com/born-ml/bioqa/internal/tensor"
)

// Transpose permutes the axes of x.
// With no axes the last two dimensions are swapped.
func (cpu *CPUBackend) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		if ndim < 2 {
			panic(fmt.Sprintf("transpose: expected at least 2D tensor, got shape %v", shape))
		}
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = i
		}
		axes[ndim-1], axes[ndim-2] = axes[ndim-2], axes[ndim-1]
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: expected %d axes, got %d", ndim, len(axes)))
	}

	seen := make([]bool, ndim)
	perm := make([]int, ndim)
	outShape := make(tensor.Shape, ndim)
	for i, a := range axes {
		a = shape.Axis(a)
		if seen[a] {
			panic(fmt.Sprintf("transpose: repeated axis %d in %v", a, axes))
		}
		seen[a] = true
		perm[i] = a
		outShape[i] = shape[a]
	}

	result := tensor.MustRaw(outShape, cpu.device)
	src, dst := x.Data(), result.Data()
	inStrides := x.Strides()

	// srcStrides[i] is the input stride of output axis i.
	srcStrides := make([]int, ndim)
	for i, a := range perm {
		srcStrides[i] = inStrides[a]
	}

	index := make([]int, ndim)
	for i := range dst {
		offset := 0
		for d, v := range index {
			offset += v * srcStrides[d]
		}
		dst[i] = src[offset]

		for d := ndim - 1; d >= 0; d-- {
			index[d]++
			if index[d] < outShape[d] {
				break
			}
			index[d] = 0
		}
	}
	return result
}

// Cat concatenates tensors along dim. All other dimensions must match.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: no tensors")
	}

	first := tensors[0].Shape()
	dim = first.Axis(dim)

	outShape := first.Clone()
	outShape[dim] = 0
	for i, t := range tensors {
		s := t.Shape()
		if len(s) != len(first) {
			panic(fmt.Sprintf("cat: tensor %d has rank %d, expected %d", i, len(s), len(first)))
		}
		for d := range s {
			if d != dim && s[d] != first[d] {
				panic(fmt.Sprintf("cat: tensor %d has shape %v, incompatible with %v on dim %d", i, s, first, dim))
			}
		}
		outShape[dim] += s[dim]
	}

	result := tensor.MustRaw(outShape, cpu.device)
	dst := result.Data()

	// Each tensor contributes a contiguous block of shape[dim]*inner
	// elements per outer index.
	inner := 1
	for _, d := range first[dim+1:] {
		inner *= d
	}
	outer := first[:dim].NumElements()
	outBlock := outShape[dim] * inner

	offset := 0
	for _, t := range tensors {
		block := t.Shape()[dim] * inner
		src := t.Data()
		for o := 0; o < outer; o++ {
			copy(dst[o*outBlock+offset:o*outBlock+offset+block], src[o*block:(o+1)*block])
		}
		offset += block
	}
	return result
}

// Chunk splits x into n equal parts along dim.
func (cpu *CPUBackend) Chunk(x *tensor.RawTensor, n, dim int) []*tensor.RawTensor {
	shape := x.Shape()
	dim = shape.Axis(dim)
	if n < 1 || shape[dim]%n != 0 {
		panic(fmt.Sprintf("chunk: dimension %d of %v is not divisible into %d parts", dim, shape, n))
	}

	inner := 1
	for _, d := range shape[dim+1:] {
		inner *= d
	}
	outer := shape[:dim].NumElements()
	part := shape[dim] / n
	partShape := shape.Clone()
	partShape[dim] = part

	src := x.Data()
	block := part * inner
	parts := make([]*tensor.RawTensor, n)
	for p := range parts {
		r := tensor.MustRaw(partShape, cpu.device)
		dst := r.Data()
		for o := 0; o < outer; o++ {
			from := o*shape[dim]*inner + p*block
			copy(dst[o*block:(o+1)*block], src[from:from+block])
		}
		parts[p] = r
	}
	return parts
}

// Expand broadcasts x to shape, materializing the copies.
func (cpu *CPUBackend) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	outShape, _, err := tensor.BroadcastShapes(x.Shape(), shape)
	if err != nil || !outShape.Equal(shape) {
		panic(fmt.Sprintf("expand: cannot expand %v to %v", x.Shape(), shape))
	}

	result := tensor.MustRaw(shape, cpu.device)
	src, dst := x.Data(), result.Data()
	strides := broadcastStrides(x.Shape(), shape)
	index := make([]int, len(shape))
	for i := range dst {
		offset := 0
		for d, v := range index {
			offset += v * strides[d]
		}
		dst[i] = src[offset]

		for d := len(index) - 1; d >= 0; d-- {
			index[d]++
			if index[d] < shape[d] {
				break
			}
			index[d] = 0
		}
	}
	return result
}
