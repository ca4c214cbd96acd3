package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/bioqa/internal/tensor"
)

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// Parameters:
//   - fanIn: Number of input units
//   - fanOut: Number of output units
//   - shape: Shape of the weight tensor
//   - backend: Backend to use for tensor creation
//
// Returns a tensor initialized with Xavier distribution.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[B] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	t := tensor.Zeros(shape, backend)
	data := t.Data()
	for i := range data {
		//nolint:gosec // Using math/rand for weight initialization (not security-critical)
		data[i] = float32((rand.Float64()*2.0 - 1.0) * bound)
	}
	return t
}

// StackedIdentity returns the [rows, k*rows] matrix [I I ... I].
//
// Used as a Linear weight it sums k consecutive rows-wide slices of the
// input: W @ [a; b] = a + b for k = 2.
func StackedIdentity[B tensor.Backend](rows, k int, backend B) *tensor.Tensor[B] {
	cols := rows * k
	t := tensor.Zeros(tensor.Shape{rows, cols}, backend)
	data := t.Data()
	for r := 0; r < rows; r++ {
		for j := 0; j < k; j++ {
			data[r*cols+j*rows+r] = 1
		}
	}
	return t
}
