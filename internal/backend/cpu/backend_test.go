package cpu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/bioqa/internal/parallel"
	"github.com/born-ml/bioqa/internal/tensor"
)

func raw(t *testing.T, data []float32, shape ...int) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.RawFromSlice(data, tensor.Shape(shape), tensor.CPU)
	require.NoError(t, err)
	return r
}

func seq(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i + 1)
	}
	return out
}

func TestCPUBackend_New(t *testing.T) {
	backend := New()
	assert.Equal(t, "CPU", backend.Name())
	assert.Equal(t, tensor.CPU, backend.Device())
}

func TestCPUBackend_Add(t *testing.T) {
	backend := New()

	t.Run("SameShape", func(t *testing.T) {
		a := raw(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
		b := raw(t, []float32{10, 11, 12, 13, 14, 15}, 2, 3)
		out := backend.Add(a, b)
		assert.Equal(t, tensor.Shape{2, 3}, out.Shape())
		assert.Equal(t, []float32{11, 13, 15, 17, 19, 21}, out.Data())
	})

	t.Run("BroadcastColumn", func(t *testing.T) {
		a := raw(t, []float32{1, 2}, 2, 1)
		b := raw(t, []float32{10, 20, 30, 40, 50, 60}, 2, 3)
		out := backend.Add(a, b)
		assert.Equal(t, []float32{11, 21, 31, 42, 52, 62}, out.Data())
	})

	t.Run("BroadcastRank", func(t *testing.T) {
		a := raw(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, 2, 2, 3)
		b := raw(t, []float32{100, 200, 300}, 3)
		out := backend.Add(a, b)
		assert.Equal(t, tensor.Shape{2, 2, 3}, out.Shape())
		assert.Equal(t, []float32{101, 202, 303, 104, 205, 306, 107, 208, 309, 110, 211, 312}, out.Data())
	})

	t.Run("Incompatible", func(t *testing.T) {
		a := raw(t, seq(6), 2, 3)
		b := raw(t, seq(4), 2, 2)
		assert.Panics(t, func() { backend.Add(a, b) })
	})
}

func TestCPUBackend_SubMul(t *testing.T) {
	backend := New()
	a := raw(t, []float32{5, 6, 7, 8}, 2, 2)
	b := raw(t, []float32{1, 2}, 1, 2)

	assert.Equal(t, []float32{4, 4, 6, 6}, backend.Sub(a, b).Data())
	assert.Equal(t, []float32{5, 12, 7, 16}, backend.Mul(a, b).Data())
}

func TestCPUBackend_MatMul(t *testing.T) {
	for _, cfg := range []parallel.Config{parallel.Sequential(), {Enabled: true, NumWorkers: 4, MinChunkSize: 1}} {
		backend := NewWithConfig(cfg)

		// [2,3] @ [3,2]
		a := raw(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
		b := raw(t, []float32{7, 8, 9, 10, 11, 12}, 3, 2)
		out := backend.MatMul(a, b)
		assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
		assert.Equal(t, []float32{58, 64, 139, 154}, out.Data())
	}

	backend := New()
	assert.Panics(t, func() {
		backend.MatMul(raw(t, seq(6), 2, 3), raw(t, seq(4), 2, 2))
	})
	assert.Panics(t, func() {
		backend.MatMul(raw(t, seq(6), 1, 2, 3), raw(t, seq(6), 3, 2))
	})
}

func TestCPUBackend_BatchMatMul(t *testing.T) {
	backend := NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 2, MinChunkSize: 1})

	// Batch 0 multiplies by identity, batch 1 by 2*identity.
	a := raw(t, []float32{1, 2, 3, 4, 5, 6, 7, 8}, 2, 2, 2)
	b := raw(t, []float32{1, 0, 0, 1, 2, 0, 0, 2}, 2, 2, 2)
	out := backend.BatchMatMul(a, b)
	assert.Equal(t, tensor.Shape{2, 2, 2}, out.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4, 10, 12, 14, 16}, out.Data())

	assert.Panics(t, func() {
		backend.BatchMatMul(raw(t, seq(8), 2, 2, 2), raw(t, seq(6), 1, 2, 3))
	})
}

func TestCPUBackend_Scalar(t *testing.T) {
	backend := New()
	x := raw(t, []float32{1, -2, 3}, 3)

	assert.Equal(t, []float32{2, -4, 6}, backend.MulScalar(x, 2).Data())
	assert.Equal(t, []float32{1.5, -1.5, 3.5}, backend.AddScalar(x, 0.5).Data())
	assert.Equal(t, []float32{1, -2, 3}, x.Data(), "input must not be modified")
}

func TestCPUBackend_Math(t *testing.T) {
	backend := New()
	x := raw(t, []float32{0, 1, -1}, 3)

	exp := backend.Exp(x).Data()
	assert.InDelta(t, 1.0, exp[0], 1e-6)
	assert.InDelta(t, math.E, exp[1], 1e-5)

	tanh := backend.Tanh(x).Data()
	assert.InDelta(t, 0.0, tanh[0], 1e-6)
	assert.InDelta(t, math.Tanh(1), tanh[1], 1e-6)
	assert.InDelta(t, -math.Tanh(1), tanh[2], 1e-6)

	sig := backend.Sigmoid(x).Data()
	assert.InDelta(t, 0.5, sig[0], 1e-6)
	assert.InDelta(t, 1-float64(sig[2]), sig[1], 1e-6)
}

func TestCPUBackend_Softmax(t *testing.T) {
	backend := New()
	negInf := float32(math.Inf(-1))

	t.Run("LastDim", func(t *testing.T) {
		x := raw(t, []float32{1, 1, 1, 1, 0, 0, 0, 0}, 2, 4)
		out := backend.Softmax(x, -1).Data()
		for _, v := range out {
			assert.InDelta(t, 0.25, v, 1e-6)
		}
	})

	t.Run("FirstDim", func(t *testing.T) {
		x := raw(t, []float32{0, 0, 0, 100}, 2, 2)
		out := backend.Softmax(x, 0).Data()
		assert.InDelta(t, 0.5, out[0], 1e-6)
		assert.InDelta(t, 0.5, out[2], 1e-6)
		assert.InDelta(t, 0.0, out[1], 1e-6)
		assert.InDelta(t, 1.0, out[3], 1e-6)
	})

	t.Run("Masked", func(t *testing.T) {
		x := raw(t, []float32{2, negInf, 2, negInf}, 1, 4)
		out := backend.Softmax(x, 1).Data()
		assert.Equal(t, []float32{0.5, 0, 0.5, 0}, out)
	})

	t.Run("FullyMasked", func(t *testing.T) {
		x := raw(t, []float32{negInf, negInf, 3, 3}, 2, 2)
		out := backend.Softmax(x, 1).Data()
		assert.Equal(t, []float32{0, 0, 0.5, 0.5}, out)
	})

	t.Run("LargeValues", func(t *testing.T) {
		x := raw(t, []float32{1000, 1000}, 2)
		out := backend.Softmax(x, 0).Data()
		assert.InDelta(t, 0.5, out[0], 1e-6)
		assert.False(t, math.IsNaN(float64(out[1])))
	})
}

func TestCPUBackend_Argmax(t *testing.T) {
	backend := New()
	negInf := float32(math.Inf(-1))

	x := raw(t, []float32{
		1, 3, 3, 0,
		negInf, negInf, negInf, negInf,
		-1, -5, -0.5, -2,
	}, 3, 4)
	assert.Equal(t, []int{1, 0, 2}, backend.Argmax(x))
}

func TestCPUBackend_MaxPool(t *testing.T) {
	backend := New()

	x := raw(t, []float32{1, 5, 2, 4, -1, -3, 0, 0}, 2, 4)
	out := backend.MaxPool(x, 2)
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.Equal(t, []float32{5, 4, -1, 0}, out.Data())

	assert.Equal(t, x.Data(), backend.MaxPool(x, 1).Data())
	assert.Panics(t, func() { backend.MaxPool(x, 3) })
	assert.Panics(t, func() { backend.MaxPool(x, 0) })
}

func TestCPUBackend_Transpose(t *testing.T) {
	backend := New()

	x := raw(t, seq(6), 2, 3)
	out := backend.Transpose(x)
	assert.Equal(t, tensor.Shape{3, 2}, out.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, out.Data())

	// [2,1,3] -> [3,2,1]
	y := raw(t, seq(6), 2, 1, 3)
	out = backend.Transpose(y, 2, 0, 1)
	assert.Equal(t, tensor.Shape{3, 2, 1}, out.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, out.Data())

	assert.Panics(t, func() { backend.Transpose(y, 0, 0, 1) })
}

func TestCPUBackend_CatChunk(t *testing.T) {
	backend := New()

	a := raw(t, []float32{1, 2, 3, 4}, 2, 2)
	b := raw(t, []float32{5, 6}, 2, 1)

	out := backend.Cat([]*tensor.RawTensor{a, b}, -1)
	assert.Equal(t, tensor.Shape{2, 3}, out.Shape())
	assert.Equal(t, []float32{1, 2, 5, 3, 4, 6}, out.Data())

	rows := backend.Cat([]*tensor.RawTensor{a, raw(t, []float32{7, 8}, 1, 2)}, 0)
	assert.Equal(t, tensor.Shape{3, 2}, rows.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4, 7, 8}, rows.Data())

	parts := backend.Chunk(raw(t, seq(8), 2, 4), 2, 1)
	require.Len(t, parts, 2)
	assert.Equal(t, []float32{1, 2, 5, 6}, parts[0].Data())
	assert.Equal(t, []float32{3, 4, 7, 8}, parts[1].Data())

	assert.Panics(t, func() { backend.Cat([]*tensor.RawTensor{a, raw(t, seq(3), 3, 1)}, 1) })
	assert.Panics(t, func() { backend.Chunk(a, 3, 1) })
}

func TestCPUBackend_Expand(t *testing.T) {
	backend := New()

	x := raw(t, []float32{1, 2}, 2, 1)
	out := backend.Expand(x, tensor.Shape{2, 3})
	assert.Equal(t, []float32{1, 1, 1, 2, 2, 2}, out.Data())

	v := raw(t, []float32{1, 2, 3}, 3)
	out = backend.Expand(v, tensor.Shape{2, 3})
	assert.Equal(t, []float32{1, 2, 3, 1, 2, 3}, out.Data())

	assert.Panics(t, func() { backend.Expand(v, tensor.Shape{2, 4}) })
	assert.Panics(t, func() { backend.Expand(raw(t, seq(6), 2, 3), tensor.Shape{3}) })
}
