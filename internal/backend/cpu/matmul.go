package cpu

import (
	"fmt"

	"github.com/born-ml/bioqa/internal/parallel"
	"github.com/born-ml/bioqa/internal/tensor"
)

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
// Rows of the result are computed in parallel.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}

	m, k := aShape[0], aShape[1]
	kAlt, n := bShape[0], bShape[1]
	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}

	result := tensor.MustRaw(tensor.Shape{m, n}, cpu.device)
	c, x, y := result.Data(), a.Data(), b.Data()
	parallel.For(m, func(i int) {
		matmulRow(c[i*n:(i+1)*n], x[i*k:(i+1)*k], y, k, n)
	}, cpu.parallel)

	return result
}

// BatchMatMul performs batched multiplication: (B, M, K) @ (B, K, N) -> (B, M, N).
func (cpu *CPUBackend) BatchMatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 3 || len(bShape) != 3 {
		panic(fmt.Sprintf("batchmatmul: expected 3D tensors, got %v and %v", aShape, bShape))
	}
	if aShape[0] != bShape[0] || aShape[2] != bShape[1] {
		panic(fmt.Sprintf("batchmatmul: shape mismatch %v @ %v", aShape, bShape))
	}

	batch, m, k, n := aShape[0], aShape[1], aShape[2], bShape[2]
	result := tensor.MustRaw(tensor.Shape{batch, m, n}, cpu.device)
	c, x, y := result.Data(), a.Data(), b.Data()
	parallel.ForBatch(batch, m, func(bi, i int) {
		r := bi*m + i
		matmulRow(c[r*n:(r+1)*n], x[r*k:(r+1)*k], y[bi*k*n:(bi+1)*k*n], k, n)
	}, cpu.parallel)

	return result
}

// matmulRow computes one output row: c = a @ b where a is [K] and b is [K, N].
func matmulRow(c, a, b []float32, k, n int) {
	clear(c)
	for kIdx := 0; kIdx < k; kIdx++ {
		av := a[kIdx]
		if av == 0 {
			continue
		}
		row := b[kIdx*n : (kIdx+1)*n]
		for j, bv := range row {
			c[j] += av * bv
		}
	}
}
