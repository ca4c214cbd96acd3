package nn_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/bioqa/internal/backend/cpu"
	"github.com/born-ml/bioqa/internal/nn"
	"github.com/born-ml/bioqa/internal/tensor"
)

func TestParameter(t *testing.T) {
	backend := cpu.New()
	data := tensor.MustFromSlice([]float32{1, 2, 3}, tensor.Shape{3}, backend)
	param := nn.NewParameter("weight", data)

	assert.Equal(t, "weight", param.Name())
	assert.Same(t, data, param.Tensor())

	scoped := nn.WithPrefix("encoder.proj", []*nn.Parameter[*cpu.CPUBackend]{param})
	require.Len(t, scoped, 1)
	assert.Equal(t, "encoder.proj.weight", scoped[0].Name())
	assert.Same(t, data, scoped[0].Tensor())
	assert.Equal(t, "weight", param.Name(), "original name must not change")
}

func TestLinear_Creation(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewLinear(10, 5, backend)

	assert.Equal(t, 10, layer.InFeatures())
	assert.Equal(t, 5, layer.OutFeatures())
	assert.Equal(t, tensor.Shape{5, 10}, layer.Weight().Tensor().Shape())
	assert.Equal(t, tensor.Shape{5}, layer.Bias().Tensor().Shape())
	assert.Len(t, layer.Parameters(), 2)

	bound := float32(math.Sqrt(6.0 / 15.0))
	for _, v := range layer.Weight().Tensor().Data() {
		assert.LessOrEqual(t, v, bound)
		assert.GreaterOrEqual(t, v, -bound)
	}
	for _, v := range layer.Bias().Tensor().Data() {
		assert.Zero(t, v)
	}

	noBias := nn.NewLinearNoBias(4, 1, backend)
	assert.Nil(t, noBias.Bias())
	assert.Len(t, noBias.Parameters(), 1)
}

func TestLinear_Forward(t *testing.T) {
	backend := cpu.New()
	weight := tensor.MustFromSlice([]float32{1, 0, 0, 1, 1, 1}, tensor.Shape{3, 2}, backend)
	bias := tensor.MustFromSlice([]float32{0, 0, 10}, tensor.Shape{3}, backend)
	layer := nn.NewLinearWithWeight(weight, bias)

	x := tensor.MustFromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	out := layer.Forward(x)
	assert.Equal(t, tensor.Shape{2, 3}, out.Shape())
	assert.Equal(t, []float32{1, 2, 13, 3, 4, 17}, out.Data())

	seq := x.Reshape(1, 2, 2)
	out3 := layer.Forward(seq)
	assert.Equal(t, tensor.Shape{1, 2, 3}, out3.Shape())
	assert.Equal(t, out.Data(), out3.Data())

	assert.Panics(t, func() { layer.Forward(tensor.Zeros(tensor.Shape{2, 3}, backend)) })
}

func TestStackedIdentity(t *testing.T) {
	backend := cpu.New()
	w := nn.StackedIdentity(2, 2, backend)
	assert.Equal(t, []float32{1, 0, 1, 0, 0, 1, 0, 1}, w.Data())

	proj := nn.NewSequential[*cpu.CPUBackend](
		nn.NewLinearWithWeight(w, tensor.Zeros(tensor.Shape{2}, backend)),
		nn.NewTanh[*cpu.CPUBackend](),
	)
	x := tensor.MustFromSlice([]float32{0.1, 0.2, 0.3, -0.4}, tensor.Shape{1, 4}, backend)
	out := proj.Forward(x).Data()
	assert.InDelta(t, math.Tanh(0.4), out[0], 1e-6)
	assert.InDelta(t, math.Tanh(-0.2), out[1], 1e-6)

	names := []string{}
	for _, p := range proj.Parameters() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"0.weight", "0.bias"}, names)
}

func TestStateDict_RoundTrip(t *testing.T) {
	backend := cpu.New()
	src := nn.NewLinear(3, 2, backend)
	dst := nn.NewLinear(3, 2, backend)

	require.NoError(t, dst.LoadStateDict(src.StateDict()))
	assert.Equal(t, src.Weight().Tensor().Data(), dst.Weight().Tensor().Data())

	// Loading copies; later changes to the source do not leak.
	src.Weight().Tensor().Data()[0] = 42
	assert.NotEqual(t, float32(42), dst.Weight().Tensor().Data()[0])
}

func TestStateDict_Errors(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewLinear(3, 2, backend)

	sd := layer.StateDict()
	delete(sd, "bias")
	assert.ErrorIs(t, layer.LoadStateDict(sd), nn.ErrMissingParameter)

	sd = layer.StateDict()
	sd["weight"] = tensor.MustRaw(tensor.Shape{3, 2}, tensor.CPU)
	assert.ErrorIs(t, layer.LoadStateDict(sd), nn.ErrParameterShape)

	sd = layer.StateDict()
	sd["extra"] = tensor.MustRaw(tensor.Shape{1}, tensor.CPU)
	assert.ErrorIs(t, layer.LoadStateDict(sd), nn.ErrUnexpectedParameter)
}

func TestDropout(t *testing.T) {
	backend := cpu.New()
	x := tensor.Ones(tensor.Shape{100, 10}, backend)

	assert.Same(t, x, nn.NewDropout[*cpu.CPUBackend](0).Forward(x, rand.New(rand.NewSource(1))))
	assert.Same(t, x, nn.NewDropout[*cpu.CPUBackend](0.5).Forward(x, nil))

	out := nn.NewDropout[*cpu.CPUBackend](0.5).Forward(x, rand.New(rand.NewSource(1)))
	zeros := 0
	for _, v := range out.Data() {
		if v == 0 {
			zeros++
		} else {
			assert.InDelta(t, 2.0, v, 1e-6)
		}
	}
	assert.InDelta(t, 500, zeros, 100)
	assert.Panics(t, func() { nn.NewDropout[*cpu.CPUBackend](1) })
}

func TestEmbedding(t *testing.T) {
	backend := cpu.New()
	weight := tensor.MustFromSlice([]float32{0, 0, 1, 1, 2, 2}, tensor.Shape{3, 2}, backend)
	embed := nn.NewEmbeddingWithWeight(weight)

	out := embed.Forward([][]int{{2, 1}, {1}})
	assert.Equal(t, tensor.Shape{2, 2, 2}, out.Shape())
	assert.Equal(t, []float32{2, 2, 1, 1, 1, 1, 0, 0}, out.Data())

	assert.Panics(t, func() { embed.Forward([][]int{{3}}) })
	assert.Equal(t, tensor.Shape{5, 4}, nn.NewEmbedding(5, 4, backend).Weight.Tensor().Shape())
}

func TestParseComposition(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want nn.Composition
		name string
	}{
		{"GRU", nn.GRU, "GRU"},
		{"gru", nn.GRU, "GRU"},
		{"RNN", nn.RNN, "RNN"},
		{" LSTM ", nn.LSTM, "LSTM"},
	} {
		got, err := nn.ParseComposition(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.name, got.String())
	}

	_, err := nn.ParseComposition("Transformer")
	assert.ErrorIs(t, err, nn.ErrUnknownComposition)
}

func TestCells_Step(t *testing.T) {
	backend := cpu.New()
	for _, c := range []nn.Composition{nn.GRU, nn.RNN, nn.LSTM} {
		t.Run(c.String(), func(t *testing.T) {
			cell, err := nn.NewCell(c, 3, 4, backend)
			require.NoError(t, err)
			assert.Equal(t, 3, cell.InputSize())
			assert.Equal(t, 4, cell.HiddenSize())
			assert.NotEmpty(t, cell.Parameters())

			x := tensor.Randn(tensor.Shape{2, 3}, rand.New(rand.NewSource(7)), backend)
			out, state := cell.Step(x, cell.ZeroState(2))
			assert.Equal(t, tensor.Shape{2, 4}, out.Shape())
			assert.Equal(t, out.Data(), state.H.Data())
			for _, v := range out.Data() {
				assert.Less(t, math.Abs(float64(v)), 1.0)
			}
			if c == nn.LSTM {
				require.NotNil(t, state.C)
			}

			h := tensor.Ones(tensor.Shape{2, 4}, backend)
			init := cell.InitialState(h)
			assert.Same(t, h, init.H)

			assert.Panics(t, func() { cell.Step(tensor.Zeros(tensor.Shape{2, 5}, backend), cell.ZeroState(2)) })
		})
	}
}

func TestBiRNN_Forward(t *testing.T) {
	backend := cpu.New()
	rnn, err := nn.NewBiRNN(nn.GRU, 3, 4, backend)
	require.NoError(t, err)
	assert.Equal(t, 8, rnn.OutputSize())

	rng := rand.New(rand.NewSource(3))
	x := tensor.Randn(tensor.Shape{2, 5, 3}, rng, backend)
	lengths := []int{5, 2}

	out := rnn.Forward(x, lengths)
	assert.Equal(t, tensor.Shape{2, 5, 8}, out.Shape())

	// Padding steps are zero in both directions.
	for step := 2; step < 5; step++ {
		for d := 0; d < 8; d++ {
			assert.Zero(t, out.At(1, step, d))
		}
	}

	// The second example's outputs do not depend on its padding.
	y := x.Clone()
	for step := 2; step < 5; step++ {
		for d := 0; d < 3; d++ {
			y.Set(100, 1, step, d)
		}
	}
	assert.Equal(t, out.Data(), rnn.Forward(y, lengths).Data())

	// Running a single example alone gives the same rows as in the batch.
	alone := rnn.Forward(tensor.GatherRows(x, []int{1}), []int{2})
	for step := 0; step < 2; step++ {
		for d := 0; d < 8; d++ {
			assert.InDelta(t, out.At(1, step, d), alone.At(0, step, d), 1e-6)
		}
	}
}

func TestUnroll_KeepsStateOverPadding(t *testing.T) {
	backend := cpu.New()
	cell := nn.NewRNNCell(2, 3, backend)

	x := tensor.Randn(tensor.Shape{1, 4, 2}, rand.New(rand.NewSource(5)), backend)
	full := nn.Unroll[*cpu.CPUBackend](cell, x, []int{4}, cell.ZeroState(1))
	short := nn.Unroll[*cpu.CPUBackend](cell, x, []int{2}, cell.ZeroState(1))

	for d := 0; d < 3; d++ {
		assert.Equal(t, full.At(0, 1, d), short.At(0, 1, d))
		assert.Zero(t, short.At(0, 3, d))
	}
}
