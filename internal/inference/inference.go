// Package inference runs a pointer model over question/context pairs and
// turns the ranked spans into answer strings.
//
// Questions are tokenized, grouped into batches and decoded concurrently on
// a worker pool. Every batch runs with its own evaluation session, so the
// model's default session is never touched.
package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/born-ml/bioqa/internal/beam"
	"github.com/born-ml/bioqa/internal/pointer"
	"github.com/born-ml/bioqa/internal/tensor"
	"github.com/born-ml/bioqa/internal/tokenizer"
)

// ErrInvalidOptions is returned by New for unusable options.
var ErrInvalidOptions = errors.New("inference: invalid options")

// Question is one question with the passage its answer is extracted from.
type Question struct {
	ID       string
	Question string
	Context  string
}

// Answer is a candidate answer string with its probability mass.
type Answer struct {
	Text string
	Prob float32
}

// Result holds the answers to one question, most probable first.
type Result struct {
	ID      string
	Answers []Answer
}

// Strings returns the answer texts in rank order.
func (r Result) Strings() []string {
	out := make([]string, len(r.Answers))
	for i, a := range r.Answers {
		out[i] = a.Text
	}
	return out
}

// Options configures an Inferrer.
type Options struct {
	// BatchSize is the number of questions per forward pass.
	BatchSize int
	// BeamSize is the number of spans decoded per question.
	BeamSize int
	// Workers bounds the number of concurrent forward passes.
	Workers int
	// Logger receives progress records. Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns batch size 32, beam size 5 and 4 workers.
func DefaultOptions() Options {
	return Options{BatchSize: 32, BeamSize: 5, Workers: 4}
}

// Inferrer extracts answers with a pointer model.
type Inferrer[B tensor.Backend] struct {
	model  *pointer.Model[B]
	tok    tokenizer.Tokenizer
	opts   Options
	pool   *ants.Pool
	logger *slog.Logger
}

// New creates an Inferrer and its worker pool. Call Close to release it.
func New[B tensor.Backend](model *pointer.Model[B], tok tokenizer.Tokenizer, opts Options) (*Inferrer[B], error) {
	if opts.BatchSize < 1 || opts.BeamSize < 1 || opts.Workers < 1 {
		return nil, fmt.Errorf("%w: batch size %d, beam size %d, workers %d",
			ErrInvalidOptions, opts.BatchSize, opts.BeamSize, opts.Workers)
	}

	pool, err := ants.NewPool(opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Inferrer[B]{
		model:  model,
		tok:    tok,
		opts:   opts,
		pool:   pool,
		logger: logger,
	}, nil
}

// Close releases the worker pool.
func (i *Inferrer[B]) Close() {
	i.pool.Release()
}

// encoded is a tokenized question.
type encoded struct {
	id       string
	question []int32
	context  []int32
}

// Predict answers every question. Questions whose spans all select the
// "no answer" sentinel are left out of the result.
func (i *Inferrer[B]) Predict(ctx context.Context, questions []Question) (map[string]Result, error) {
	runID := uuid.New()
	logger := i.logger.With("run_id", runID.String())
	started := time.Now()

	items, err := i.tokenize(questions)
	if err != nil {
		return nil, err
	}
	if skipped := len(questions) - len(items); skipped > 0 {
		logger.Warn("skipped questions without tokens", "count", skipped)
	}

	batches := (len(items) + i.opts.BatchSize - 1) / i.opts.BatchSize
	logger.Info("inference started", "questions", len(items), "batches", batches,
		"beam_size", i.opts.BeamSize, "workers", i.opts.Workers)

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
		results  = make(map[string]Result, len(items))
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	for b := 0; b < batches; b++ {
		lo := b * i.opts.BatchSize
		chunk := items[lo:min(lo+i.opts.BatchSize, len(items))]

		wg.Add(1)
		task := func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				fail(err)
				return
			}

			answered, err := i.predictBatch(chunk)
			if err != nil {
				fail(fmt.Errorf("batch %d: %w", b, err))
				return
			}
			logger.Debug("batch done", "batch", b, "size", len(chunk), "answered", len(answered))

			mu.Lock()
			defer mu.Unlock()
			for _, r := range answered {
				results[r.ID] = r
			}
		}
		if err := i.pool.Submit(task); err != nil {
			wg.Done()
			fail(fmt.Errorf("submit batch %d: %w", b, err))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		logger.Error("inference failed", "error", firstErr)
		return nil, firstErr
	}

	logger.Info("inference finished", "answered", len(results), "elapsed", time.Since(started))
	return results, nil
}

// tokenize encodes every question. Questions whose question or context
// has no tokens are dropped.
func (i *Inferrer[B]) tokenize(questions []Question) ([]encoded, error) {
	items := make([]encoded, 0, len(questions))
	for _, q := range questions {
		question, err := i.tok.Encode(q.Question)
		if err != nil {
			return nil, fmt.Errorf("tokenize question %s: %w", q.ID, err)
		}
		passage, err := i.tok.Encode(q.Context)
		if err != nil {
			return nil, fmt.Errorf("tokenize context %s: %w", q.ID, err)
		}
		if len(question) == 0 || len(passage) == 0 {
			continue
		}
		items = append(items, encoded{id: q.ID, question: question, context: passage})
	}
	return items, nil
}

func (i *Inferrer[B]) predictBatch(chunk []encoded) ([]Result, error) {
	questionIDs := make([][]int, len(chunk))
	contextIDs := make([][]int, len(chunk))
	for n, item := range chunk {
		questionIDs[n] = tokenizer.IDs(item.question)
		contextIDs[n] = tokenizer.IDs(item.context)
	}

	batch := i.model.NewBatch(questionIDs, contextIDs)
	pred, err := i.model.EncodeWith(pointer.EvalSession(i.opts.BeamSize), batch)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(chunk))
	for n, item := range chunk {
		spans := pred.TopSpans
		var candidates []Answer
		if spans != nil {
			candidates, err = i.spanAnswers(item.context, batch.ContextLengths[n], spans[n])
		} else {
			candidates, err = i.pointerAnswer(item.context, batch.ContextLengths[n], pred.Starts[n], pred.Ends[n])
		}
		if err != nil {
			return nil, fmt.Errorf("decode answers of %s: %w", item.id, err)
		}

		if answers := MergeAnswers(candidates); len(answers) > 0 {
			results = append(results, Result{ID: item.id, Answers: answers})
		}
	}
	return results, nil
}

// spanAnswers turns ranked beam spans into answer strings.
func (i *Inferrer[B]) spanAnswers(passage []int32, length int, spans []beam.Span) ([]Answer, error) {
	answers := make([]Answer, 0, len(spans))
	for _, s := range spans {
		text, ok, err := i.spanText(passage, length, s.Start, s.End)
		if err != nil {
			return nil, err
		}
		if ok {
			answers = append(answers, Answer{Text: text, Prob: s.Prob})
		}
	}
	return answers, nil
}

// pointerAnswer turns a single DPN prediction into an answer of probability 1.
func (i *Inferrer[B]) pointerAnswer(passage []int32, length, start, end int) ([]Answer, error) {
	text, ok, err := i.spanText(passage, length, start, end)
	if err != nil || !ok {
		return nil, err
	}
	return []Answer{{Text: text, Prob: 1}}, nil
}

// spanText decodes tokens [start, end]. Spans on the sentinel or outside the
// tokenized context yield ok == false.
func (i *Inferrer[B]) spanText(passage []int32, length, start, end int) (string, bool, error) {
	if start >= length || end >= length || end >= len(passage) || start > end {
		return "", false, nil
	}

	text, err := i.tok.Decode(passage[start : end+1])
	if err != nil {
		return "", false, err
	}
	text = strings.TrimSpace(text)
	return text, text != "", nil
}

// MergeAnswers merges answers whose texts are equal up to case and
// surrounding whitespace. Probabilities are summed and the spelling of the
// first occurrence is kept. The result is sorted by descending
// probability; equal probabilities keep their first-seen order.
func MergeAnswers(answers []Answer) []Answer {
	index := make(map[string]int, len(answers))
	var merged []Answer
	for _, a := range answers {
		key := strings.ToLower(strings.TrimSpace(a.Text))
		if key == "" {
			continue
		}
		if j, ok := index[key]; ok {
			merged[j].Prob += a.Prob
			continue
		}
		index[key] = len(merged)
		merged = append(merged, Answer{Text: strings.TrimSpace(a.Text), Prob: a.Prob})
	}

	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].Prob > merged[b].Prob
	})
	return merged
}
