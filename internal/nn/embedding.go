package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/bioqa/internal/tensor"
)

// Embedding is a lookup table that maps token ids to dense vectors.
//
// Architecture:
//   - Weight: [NumEmbed, EmbedDim]
//   - Forward: ragged ids [batch][len] -> zero-padded embeddings [batch, maxLen, EmbedDim]
//
// Example:
//
//	embed := nn.NewEmbedding(10000, 256, backend)
//	embeddings := embed.Forward([][]int{{1, 2, 3}, {4}}) // Shape: [2, 3, 256]
type Embedding[B tensor.Backend] struct {
	Weight   *Parameter[B] // Embedding weight matrix [NumEmbed, EmbedDim]
	NumEmbed int           // Number of embeddings (vocabulary size)
	EmbedDim int           // Embedding dimension (vector size)
}

// NewEmbedding creates a new Embedding layer.
//
// The embedding weights are initialized from N(0, 1). Use
// NewEmbeddingWithWeight for pretrained vectors.
//
// Parameters:
//   - numEmbeddings: Size of the embedding dictionary (e.g., vocabulary size)
//   - embeddingDim: Dimension of each embedding vector
//   - backend: Computation backend
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, backend B) *Embedding[B] {
	weightData := make([]float32, numEmbeddings*embeddingDim)
	//nolint:gosec // math/rand is appropriate for ML weight initialization
	for i := range weightData {
		weightData[i] = float32(rand.NormFloat64())
	}

	weight, err := tensor.FromSlice(weightData, tensor.Shape{numEmbeddings, embeddingDim}, backend)
	if err != nil {
		panic(fmt.Sprintf("failed to create embedding weight: %v", err))
	}
	return NewEmbeddingWithWeight(weight)
}

// NewEmbeddingWithWeight creates an Embedding layer with pre-initialized weights.
//
// Panics if weight is not 2D.
func NewEmbeddingWithWeight[B tensor.Backend](weight *tensor.Tensor[B]) *Embedding[B] {
	shape := weight.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("embedding weight must be 2D, got shape %v", shape))
	}

	return &Embedding[B]{
		Weight:   NewParameter("weight", weight),
		NumEmbed: shape[0],
		EmbedDim: shape[1],
	}
}

// Forward performs embedding lookup for a ragged batch of id sequences.
//
// The result is padded with zero vectors up to the longest sequence (at
// least one step). Panics if any id is out of bounds [0, NumEmbed).
func (e *Embedding[B]) Forward(ids [][]int) *tensor.Tensor[B] {
	if len(ids) == 0 {
		panic("Embedding.Forward: empty batch")
	}

	maxLen := 1
	for _, row := range ids {
		maxLen = max(maxLen, len(row))
	}

	w := e.Weight.Tensor()
	table := w.Data()
	out := tensor.Zeros(tensor.Shape{len(ids), maxLen, e.EmbedDim}, w.Backend())
	dst := out.Data()
	for n, row := range ids {
		for t, id := range row {
			if id < 0 || id >= e.NumEmbed {
				panic(fmt.Sprintf("Embedding.Forward: id %d out of range [0, %d)", id, e.NumEmbed))
			}
			to := (n*maxLen + t) * e.EmbedDim
			copy(dst[to:to+e.EmbedDim], table[id*e.EmbedDim:(id+1)*e.EmbedDim])
		}
	}
	return out
}

// Parameters returns the list of trainable parameters.
func (e *Embedding[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{e.Weight}
}
