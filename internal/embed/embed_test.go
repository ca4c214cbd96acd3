package embed_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/bioqa/internal/backend/cpu"
	"github.com/born-ml/bioqa/internal/embed"
	"github.com/born-ml/bioqa/internal/tensor"
)

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, embed.DefaultConfig().Validate())

	cfg := embed.DefaultConfig()
	cfg.Type = "word2vec"
	assert.ErrorIs(t, cfg.Validate(), embed.ErrUnknownType)

	cfg = embed.DefaultConfig()
	cfg.EmbeddingSize = 0
	assert.ErrorIs(t, cfg.Validate(), embed.ErrInvalidSize)
}

func TestModel_Embed(t *testing.T) {
	cfg := embed.Config{Type: embed.ModelType, VocabSize: 4, EmbeddingSize: 3, MaxLength: 3}
	m, err := embed.New(cfg, cpu.New())
	require.NoError(t, err)
	assert.Equal(t, 3, m.EmbeddingSize())

	x, lengths := m.Embed([][]int{{1, 5, 2, 3}, {}, {-3}})
	assert.Equal(t, []int{3, 1, 1}, lengths)
	assert.Equal(t, tensor.Shape{3, 3, 3}, x.Shape())

	// Id 5 folds onto bucket 1, -3 onto bucket 1 as well.
	for d := 0; d < 3; d++ {
		assert.Equal(t, x.At(0, 0, d), x.At(0, 1, d))
		assert.Equal(t, x.At(0, 0, d), x.At(2, 0, d))
		assert.Zero(t, x.At(1, 1, d))
	}

	params := m.Parameters()
	require.Len(t, params, 1)
	assert.Equal(t, "embedding.weight", params[0].Name())
}
