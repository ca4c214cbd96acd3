package pointer

import (
	"fmt"

	"github.com/born-ml/bioqa/internal/beam"
	"github.com/born-ml/bioqa/internal/tensor"
)

// Batch is one forward pass worth of embedded examples.
type Batch[B tensor.Backend] struct {
	// Questions and Contexts hold word vectors [N, T, E], zero-padded.
	Questions *tensor.Tensor[B]
	Contexts  *tensor.Tensor[B]

	// QuestionLengths and ContextLengths count the real tokens (>= 1).
	QuestionLengths []int
	ContextLengths  []int

	// AnswerPartition maps each answer slot to its example. Nil means one
	// slot per example.
	AnswerPartition []int

	// CorrectStarts holds the gold start of every answer slot. The SPN
	// forces them in Train mode; they index the null-augmented context, so
	// ContextLengths[n] selects the "no answer" sentinel.
	CorrectStarts []int
}

// Size returns the number of examples.
func (b *Batch[B]) Size() int {
	return len(b.QuestionLengths)
}

// partition returns the answer partition, defaulting to the identity.
func (b *Batch[B]) partition() []int {
	if b.AnswerPartition != nil {
		return b.AnswerPartition
	}
	return identity(b.Size())
}

func (b *Batch[B]) validate(embeddingSize int) error {
	if b.Questions == nil || b.Contexts == nil {
		return fmt.Errorf("%w: missing questions or contexts", ErrInvalidBatch)
	}

	n := b.Size()
	qs, cs := b.Questions.Shape(), b.Contexts.Shape()
	if n == 0 {
		return fmt.Errorf("%w: empty batch", ErrInvalidBatch)
	}
	if len(qs) != 3 || len(cs) != 3 || qs[0] != n || cs[0] != n {
		return fmt.Errorf("%w: expected questions and contexts [%d, T, E], got %v and %v", ErrInvalidBatch, n, qs, cs)
	}
	if qs[2] != embeddingSize || cs[2] != embeddingSize {
		return fmt.Errorf("%w: expected embedding size %d, got %d and %d", ErrInvalidBatch, embeddingSize, qs[2], cs[2])
	}
	if len(b.ContextLengths) != n {
		return fmt.Errorf("%w: %d context lengths for %d examples", ErrInvalidBatch, len(b.ContextLengths), n)
	}
	if err := checkLengths("question", b.QuestionLengths, qs[1]); err != nil {
		return err
	}
	if err := checkLengths("context", b.ContextLengths, cs[1]); err != nil {
		return err
	}

	partition := b.partition()
	for slot, ex := range partition {
		if ex < 0 || ex >= n {
			return fmt.Errorf("%w: answer slot %d refers to example %d of %d", ErrInvalidBatch, slot, ex, n)
		}
	}
	if b.CorrectStarts != nil {
		if len(b.CorrectStarts) != len(partition) {
			return fmt.Errorf("%w: %d correct starts for %d answer slots", ErrInvalidBatch, len(b.CorrectStarts), len(partition))
		}
		for slot, s := range b.CorrectStarts {
			if l := b.ContextLengths[partition[slot]]; s < 0 || s > l {
				return fmt.Errorf("%w: correct start %d of slot %d outside [0, %d]", ErrInvalidBatch, s, slot, l)
			}
		}
	}
	return nil
}

func checkLengths(name string, lengths []int, maxLen int) error {
	for i, l := range lengths {
		if l < 1 || l > maxLen {
			return fmt.Errorf("%w: %s length %d of example %d outside [1, %d]", ErrInvalidBatch, name, l, i, maxLen)
		}
	}
	return nil
}

func identity(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func gatherInts(v, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = v[j]
	}
	return out
}

// Prediction is the output of one forward pass. Rows are answer slots.
type Prediction[B tensor.Backend] struct {
	// StartScores and EndScores hold [slots, T+1] scores over the
	// null-augmented context, one entry per DPN iteration or a single entry
	// for the SPN. Disallowed positions are -Inf.
	StartScores []*tensor.Tensor[B]
	EndScores   []*tensor.Tensor[B]

	// Starts and Ends are the predicted pointers. A pointer equal to the
	// example's context length selects the "no answer" sentinel.
	Starts []int
	Ends   []int

	// TopSpans holds the ranked beam spans of every slot (SPN only).
	TopSpans [][]beam.Span
}
