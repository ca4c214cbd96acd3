package pointer

import (
	"math"
	"math/rand"
	"testing"

	"github.com/born-ml/bioqa/internal/backend/cpu"
	"github.com/born-ml/bioqa/internal/embed"
	"github.com/born-ml/bioqa/internal/highway"
	"github.com/born-ml/bioqa/internal/nn"
	"github.com/born-ml/bioqa/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(layer AnswerLayerType) Config {
	cfg := DefaultConfig()
	cfg.Size = 4
	cfg.AnswerLayerType = layer.String()
	cfg.AnswerLayerPoolSize = 2
	cfg.TransferModel = embed.Config{Type: embed.ModelType, VocabSize: 97, EmbeddingSize: 6}
	return cfg
}

func randomIDs(rng *rand.Rand, lengths ...int) [][]int {
	ids := make([][]int, len(lengths))
	for i, l := range lengths {
		ids[i] = make([]int, l)
		for t := range ids[i] {
			ids[i][t] = rng.Intn(1000)
		}
	}
	return ids
}

func TestNullWordAppend(t *testing.T) {
	backend := cpu.New()
	w := NewNullWord(2, backend)
	copy(w.vector.Tensor().Data(), []float32{9, 9})

	x := tensor.MustFromSlice([]float32{
		1, 1, 2, 2, 0, 0,
		3, 3, 4, 4, 5, 5,
	}, tensor.Shape{2, 3, 2}, backend)

	out, lengths := w.Append(x, []int{2, 3})

	assert.Equal(t, []int{3, 4}, lengths)
	assert.Equal(t, tensor.Shape{2, 4, 2}, out.Shape())
	assert.Equal(t, []float32{
		1, 1, 2, 2, 9, 9, 0, 0,
		3, 3, 4, 4, 5, 5, 9, 9,
	}, out.Data())
}

func TestNullWordAppendPanicsOnWidth(t *testing.T) {
	backend := cpu.New()
	w := NewNullWord(3, backend)
	assert.Panics(t, func() {
		w.Append(tensor.Zeros(tensor.Shape{1, 2, 2}, backend), []int{1})
	})
}

// scoreFirstFeature sets the weights of net so that the score of position t
// is feature 0 of its state and nothing else contributes.
func scoreFirstFeature(t *testing.T, net *highway.Network[*cpu.CPUBackend], stateSize, hidden, poolSize int) {
	t.Helper()
	for _, p := range net.Parameters() {
		data := p.Tensor().Data()
		clear(data)

		switch p.Name() {
		case "layer0.weight":
			in := p.Tensor().Shape()[1]
			require.Equal(t, stateSize+hidden, in)
			for unit := 0; unit < poolSize; unit++ {
				data[unit*in] = 1
			}
		case "out.weight":
			for unit := 0; unit < poolSize; unit++ {
				data[unit*hidden] = 1
			}
		}
	}
}

func TestDynamicPointerConvergesToSentinel(t *testing.T) {
	backend := cpu.New()
	const size, poolSize = 3, 2
	dpn, err := NewDynamicPointer(nn.GRU, size, 1, poolSize, 1, backend)
	require.NoError(t, err)
	scoreFirstFeature(t, dpn.start, 2*size, size, poolSize)
	scoreFirstFeature(t, dpn.end, 2*size, size, poolSize)

	// Context lengths [5, 3] become [6, 4] with the sentinel; only the
	// sentinel rows are non-zero.
	lengths := []int{6, 4}
	matched := tensor.Zeros(tensor.Shape{2, 6, 2 * size}, backend)
	for n, l := range lengths {
		for d := 0; d < 2*size; d++ {
			matched.Set(1, n, l-1, d)
		}
	}
	question := tensor.Randn(tensor.Shape{2, size}, rand.New(rand.NewSource(3)), backend)
	batch := &Batch[*cpu.CPUBackend]{QuestionLengths: []int{2, 2}, ContextLengths: []int{5, 3}}

	pred := dpn.decode(EvalSession(1), question, matched, lengths, batch)

	assert.Equal(t, []int{5, 3}, pred.Starts)
	assert.Equal(t, []int{5, 3}, pred.Ends)
	require.Len(t, pred.StartScores, dpnIterations)
	for i := 0; i < dpnIterations; i++ {
		assert.Equal(t, []int{5, 3}, pred.StartScores[i].Argmax(), "iteration %d", i)
		assert.Equal(t, []int{5, 3}, pred.EndScores[i].Argmax(), "iteration %d", i)

		rows := pred.StartScores[i].Rows()
		assert.Equal(t, float32(1), rows[0][5])
		assert.Zero(t, rows[0][0])
		assert.True(t, math.IsInf(float64(rows[1][4]), -1), "padding is masked")
	}
	for slot := range lengths {
		start, end := latched(pred, slot)
		assert.Equal(t, lengths[slot]-1, start)
		assert.Equal(t, lengths[slot]-1, end)
	}
}

func TestDynamicPointerSentinelOnlyContext(t *testing.T) {
	backend := cpu.New()
	const size = 3
	dpn, err := NewDynamicPointer(nn.GRU, size, 2, 2, 1, backend)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(3))
	matched := tensor.Randn(tensor.Shape{1, 1, 2 * size}, rng, backend)
	question := tensor.Randn(tensor.Shape{1, size}, rng, backend)
	batch := &Batch[*cpu.CPUBackend]{QuestionLengths: []int{1}, ContextLengths: []int{0}}

	pred := dpn.decode(EvalSession(1), question, matched, []int{1}, batch)

	assert.Equal(t, []int{0}, pred.Starts)
	assert.Equal(t, []int{0}, pred.Ends)
}

// latched replays the DPN pointer updates from the returned scores.
func latched(pred *Prediction[*cpu.CPUBackend], slot int) (int, int) {
	var start, end int
	stable := false
	for i := range pred.StartScores {
		s := pred.StartScores[i].Rows()[slot]
		e := pred.EndScores[i].Rows()[slot]

		ns := 0
		for p := range s {
			if s[p] > s[ns] {
				ns = p
			}
		}
		ne := ns
		for p := ns; p < len(e); p++ {
			if e[p] > e[ne] {
				ne = p
			}
		}

		switch {
		case i == 0:
			start, end = ns, ne
		case stable:
		case ns == start && ne == end:
			stable = true
		default:
			start, end = ns, ne
		}
	}
	return start, end
}

func TestDynamicPointerLatch(t *testing.T) {
	backend := cpu.New()
	for seed := int64(0); seed < 5; seed++ {
		m, err := New[*cpu.CPUBackend](testConfig(DPN), nil, backend)
		require.NoError(t, err)

		rng := rand.New(rand.NewSource(seed))
		batch := m.NewBatch(randomIDs(rng, 3, 5, 2), randomIDs(rng, 7, 12, 4))
		pred, err := m.EncodeWith(EvalSession(1), batch)
		require.NoError(t, err)

		for slot := range pred.Starts {
			start, end := latched(pred, slot)
			assert.Equal(t, start, pred.Starts[slot], "seed %d slot %d", seed, slot)
			assert.Equal(t, end, pred.Ends[slot], "seed %d slot %d", seed, slot)
		}
	}
}

func TestTwoExampleScenario(t *testing.T) {
	backend := cpu.New()
	for _, layer := range []AnswerLayerType{DPN, SPN} {
		t.Run(layer.String(), func(t *testing.T) {
			m, err := New[*cpu.CPUBackend](testConfig(layer), nil, backend)
			require.NoError(t, err)

			rng := rand.New(rand.NewSource(11))
			batch := m.NewBatch(randomIDs(rng, 4, 2), randomIDs(rng, 5, 3))

			question, qLengths, context, cLengths, pooled := m.encode(batch)
			assert.Equal(t, []int{5, 3}, qLengths)
			assert.Equal(t, []int{6, 4}, cLengths)
			assert.Equal(t, tensor.Shape{2, 5, 4}, question.Shape())
			assert.Equal(t, tensor.Shape{2, 6, 4}, context.Shape())
			assert.Equal(t, tensor.Shape{2, 4}, pooled.Shape())

			m.SetEval()
			pred, err := m.Encode(batch)
			require.NoError(t, err)

			for _, scores := range pred.StartScores {
				require.Equal(t, tensor.Shape{2, 6}, scores.Shape())
				row := scores.Rows()[1]
				assert.True(t, math.IsInf(float64(row[4]), -1))
				assert.True(t, math.IsInf(float64(row[5]), -1))
			}
			for n, l := range cLengths {
				assert.GreaterOrEqual(t, pred.Starts[n], 0)
				assert.Less(t, pred.Starts[n], l)
				assert.GreaterOrEqual(t, pred.Ends[n], pred.Starts[n])
				assert.Less(t, pred.Ends[n], l)
			}
			assert.Equal(t, pred.Starts, m.PredictedAnswerStarts())
			assert.Equal(t, pred.Ends, m.PredictedAnswerEnds())
		})
	}
}

func TestEndMask(t *testing.T) {
	backend := cpu.New()
	inf := tensor.NegInf

	// Augmented length 5: tokens 0..3, sentinel 4, padding 5.
	mask := endMask([]int{1, 4, 0}, []int{5, 5, 5}, 6, true, backend)
	assert.Equal(t, [][]float32{
		{inf, 0, 0, 0, inf, inf},
		{inf, inf, inf, inf, 0, inf},
		{0, 0, 0, 0, inf, inf},
	}, mask.Rows())

	noWindow := endMask([]int{2}, []int{5}, 5, false, backend)
	assert.Equal(t, [][]float32{{0, 0, 0, 0, inf}}, noWindow.Rows())

	long := endMask([]int{3}, []int{30}, 30, true, backend).Rows()[0]
	for p, v := range long {
		if p >= 3 && p <= 3+MaxAnswerLengthHeuristic {
			assert.Equal(t, float32(0), v, "position %d", p)
		} else {
			assert.Equal(t, inf, v, "position %d", p)
		}
	}
}
