// Package embed implements the transfer model that turns token ids into the
// word vectors the pointer model consumes.
package embed

import (
	"errors"
	"fmt"

	"github.com/born-ml/bioqa/internal/nn"
	"github.com/born-ml/bioqa/internal/tensor"
)

// ModelType is the config "type" of the transfer model.
const ModelType = "embedder"

// Errors returned by configuration validation.
var (
	ErrUnknownType = errors.New("embed: unknown transfer model type")
	ErrInvalidSize = errors.New("embed: invalid size")
)

// Config describes the transfer model.
type Config struct {
	Type          string `json:"type" jsonschema:"transfer model type, always embedder"`
	Name          string `json:"name,omitempty"`
	VocabSize     int    `json:"vocab_size" jsonschema:"number of embedding buckets; token ids are folded modulo this size"`
	EmbeddingSize int    `json:"embedding_size" jsonschema:"width of each word vector"`
	MaxLength     int    `json:"max_length,omitempty" jsonschema:"maximum tokens per sequence, 0 for unlimited"`
}

// DefaultConfig returns a small embedder configuration.
func DefaultConfig() Config {
	return Config{
		Type:          ModelType,
		Name:          "embedder",
		VocabSize:     32768,
		EmbeddingSize: 64,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Type != ModelType {
		return fmt.Errorf("%w: %q", ErrUnknownType, c.Type)
	}
	if c.VocabSize < 1 || c.EmbeddingSize < 1 || c.MaxLength < 0 {
		return fmt.Errorf("%w: vocab_size=%d embedding_size=%d max_length=%d",
			ErrInvalidSize, c.VocabSize, c.EmbeddingSize, c.MaxLength)
	}
	return nil
}

// Model is an embedding table over hashed token ids.
type Model[B tensor.Backend] struct {
	cfg       Config
	embedding *nn.Embedding[B]
}

// New creates a transfer model with N(0, 1) initialized vectors.
func New[B tensor.Backend](cfg Config, backend B) (*Model[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Model[B]{
		cfg:       cfg,
		embedding: nn.NewEmbedding(cfg.VocabSize, cfg.EmbeddingSize, backend),
	}, nil
}

// Config returns the model configuration.
func (m *Model[B]) Config() Config {
	return m.cfg
}

// EmbeddingSize returns the width of the word vectors.
func (m *Model[B]) EmbeddingSize() int {
	return m.cfg.EmbeddingSize
}

// Embed looks up a ragged batch of token sequences.
//
// Sequences longer than MaxLength are truncated. Empty sequences are
// embedded as a single zero-id token so every example has length >= 1.
//
// Returns the padded embeddings [N, T, EmbeddingSize] and the lengths.
func (m *Model[B]) Embed(ids [][]int) (*tensor.Tensor[B], []int) {
	folded := make([][]int, len(ids))
	lengths := make([]int, len(ids))
	for n, row := range ids {
		if m.cfg.MaxLength > 0 && len(row) > m.cfg.MaxLength {
			row = row[:m.cfg.MaxLength]
		}
		if len(row) == 0 {
			row = []int{0}
		}

		folded[n] = make([]int, len(row))
		for t, id := range row {
			folded[n][t] = fold(id, m.cfg.VocabSize)
		}
		lengths[n] = len(row)
	}
	return m.embedding.Forward(folded), lengths
}

// Parameters returns the embedding table.
func (m *Model[B]) Parameters() []*nn.Parameter[B] {
	return nn.WithPrefix("embedding", m.embedding.Parameters())
}

func fold(id, buckets int) int {
	id %= buckets
	if id < 0 {
		id += buckets
	}
	return id
}
