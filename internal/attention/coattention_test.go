package attention_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/born-ml/bioqa/internal/attention"
	"github.com/born-ml/bioqa/internal/backend/cpu"
	"github.com/born-ml/bioqa/internal/tensor"
)

func TestDotCoAttention_Shape(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))

	ctx := tensor.Randn(tensor.Shape{2, 5, 3}, rng, backend)
	q := tensor.Randn(tensor.Shape{2, 4, 3}, rng, backend)

	out := attention.DotCoAttention(ctx, []int{5, 2}, q, []int{4, 1})
	assert.Equal(t, tensor.Shape{2, 5, 9}, out.Shape())

	// Context padding rows are zero.
	for step := 2; step < 5; step++ {
		for d := 0; d < 9; d++ {
			assert.Zero(t, out.At(1, step, d))
		}
	}
	// The first H features are the context itself.
	for d := 0; d < 3; d++ {
		assert.Equal(t, ctx.At(0, 1, d), out.At(0, 1, d))
	}
}

func TestDotCoAttention_SingleQuestionToken(t *testing.T) {
	backend := cpu.New()

	// With one valid question token, every context position attends to it
	// fully, so C2Q equals that token.
	ctx := tensor.MustFromSlice([]float32{1, 0, 0, 1, 2, 2}, tensor.Shape{1, 3, 2}, backend)
	q := tensor.MustFromSlice([]float32{0.5, -1, 100, 100}, tensor.Shape{1, 2, 2}, backend)

	out := attention.DotCoAttention(ctx, []int{3}, q, []int{1})
	for step := 0; step < 3; step++ {
		assert.InDelta(t, 0.5, out.At(0, step, 2), 1e-6)
		assert.InDelta(t, -1.0, out.At(0, step, 3), 1e-6)
	}

	// Co = Aq·(Ac·C) = Ac·C for the single token: a convex mix of context rows.
	co0, co1 := out.At(0, 0, 4), out.At(0, 0, 5)
	for step := 1; step < 3; step++ {
		assert.InDelta(t, co0, out.At(0, step, 4), 1e-6)
		assert.InDelta(t, co1, out.At(0, step, 5), 1e-6)
	}
	assert.GreaterOrEqual(t, co0, float32(0))
	assert.LessOrEqual(t, co0, float32(2))
}

func TestDotCoAttention_IgnoresQuestionPadding(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(2))

	ctx := tensor.Randn(tensor.Shape{1, 3, 2}, rng, backend)
	q := tensor.Randn(tensor.Shape{1, 3, 2}, rng, backend)
	out := attention.DotCoAttention(ctx, []int{3}, q, []int{2})

	q2 := q.Clone()
	q2.Set(50, 0, 2, 0)
	q2.Set(-50, 0, 2, 1)
	assert.Equal(t, out.Data(), attention.DotCoAttention(ctx, []int{3}, q2, []int{2}).Data())

	assert.Panics(t, func() { attention.DotCoAttention(ctx, []int{0}, q, []int{2}) })
}
