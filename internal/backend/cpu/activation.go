package cpu

import (
	"math"

	"github.com/born-ml/bioqa/internal/tensor"
)

// Softmax computes softmax along the specified dimension.
// Softmax(x_i) = exp(x_i - max) / sum(exp(x_j - max)) for all j in dimension.
//
// Entries at -Inf contribute nothing and come out as 0. A slice that is
// entirely -Inf has no valid entry and comes out as all zeros.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim = shape.Axis(dim)

	result := tensor.MustRaw(shape, cpu.device)
	src, dst := x.Data(), result.Data()

	dimSize := shape[dim]
	inner := x.Strides()[dim]
	outer := len(src) / (dimSize * inner)

	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*dimSize*inner + in

			// Find max for numerical stability.
			maxVal := float32(math.Inf(-1))
			for i := 0; i < dimSize; i++ {
				if v := src[base+i*inner]; v > maxVal {
					maxVal = v
				}
			}
			if math.IsInf(float64(maxVal), -1) {
				continue
			}

			var sum float64
			for i := 0; i < dimSize; i++ {
				idx := base + i*inner
				e := math.Exp(float64(src[idx] - maxVal))
				dst[idx] = float32(e)
				sum += e
			}
			for i := 0; i < dimSize; i++ {
				dst[base+i*inner] = float32(float64(dst[base+i*inner]) / sum)
			}
		}
	}

	return result
}
