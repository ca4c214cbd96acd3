package cpu

import (
	"fmt"

	"github.com/born-ml/bioqa/internal/tensor"
)

// Argmax returns the index of the maximum along the last dimension for every
// leading position. Ties resolve to the lowest index.
func (cpu *CPUBackend) Argmax(x *tensor.RawTensor) []int {
	shape := x.Shape()
	if len(shape) == 0 {
		panic("argmax: expected at least 1D tensor, got scalar")
	}

	width := shape.Last()
	data := x.Data()
	rows := len(data) / width
	out := make([]int, rows)
	for r := 0; r < rows; r++ {
		row := data[r*width : (r+1)*width]
		best := 0
		for i := 1; i < width; i++ {
			if row[i] > row[best] {
				best = i
			}
		}
		out[r] = best
	}
	return out
}

// MaxPool reduces consecutive groups of size elements along the last
// dimension: [..., n*size] -> [..., n].
func (cpu *CPUBackend) MaxPool(x *tensor.RawTensor, size int) *tensor.RawTensor {
	shape := x.Shape()
	if size < 1 {
		panic(fmt.Sprintf("maxpool: expected pool size >= 1, got %d", size))
	}
	if len(shape) == 0 || shape.Last()%size != 0 {
		panic(fmt.Sprintf("maxpool: last dimension of %v is not divisible by %d", shape, size))
	}

	outShape := shape.Clone()
	outShape[len(outShape)-1] = shape.Last() / size
	result := tensor.MustRaw(outShape, cpu.device)

	src, dst := x.Data(), result.Data()
	for i := range dst {
		group := src[i*size : (i+1)*size]
		m := group[0]
		for _, v := range group[1:] {
			if v > m {
				m = v
			}
		}
		dst[i] = m
	}
	return result
}
