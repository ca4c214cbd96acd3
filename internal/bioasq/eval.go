package bioasq

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/born-ml/bioqa/internal/inference"
)

// ErrInvalidStep is returned by FindOptimalThreshold for a step outside (0, 1].
var ErrInvalidStep = errors.New("bioasq: threshold step must be in (0, 1]")

// ErrInvalidCount is returned by FindOptimalAnswerCount for a maximum below 1.
var ErrInvalidCount = errors.New("bioasq: answer count must be positive")

// FactoidMetrics are the BioASQ measures for factoid questions.
type FactoidMetrics struct {
	Questions       int
	StrictAccuracy  float64
	LenientAccuracy float64
	MRR             float64
}

// ListMetrics are the BioASQ measures for list questions, averaged over
// questions.
type ListMetrics struct {
	Questions int
	Precision float64
	Recall    float64
	F1        float64
}

// Metrics holds the evaluation of one answered dataset.
type Metrics struct {
	Factoid FactoidMetrics
	List    ListMetrics
}

// GoldAnswers decodes a question's exact_answer into answer groups. Each
// group lists the accepted synonyms of one answer. A flat array is read as
// one group for factoid questions and one group per entry otherwise.
func (q *Question) GoldAnswers() ([][]string, error) {
	if len(q.ExactAnswer) == 0 {
		return nil, nil
	}

	var groups [][]string
	if err := json.Unmarshal(q.ExactAnswer, &groups); err == nil {
		return groups, nil
	}

	var flat []string
	if err := json.Unmarshal(q.ExactAnswer, &flat); err == nil {
		if q.Type == TypeFactoid {
			return [][]string{flat}, nil
		}
		groups = groups[:0]
		for _, s := range flat {
			groups = append(groups, []string{s})
		}
		return groups, nil
	}

	var single string
	if err := json.Unmarshal(q.ExactAnswer, &single); err == nil {
		return [][]string{{single}}, nil
	}
	return nil, fmt.Errorf("%w: exact_answer of %s", ErrInvalidDataset, q.ID)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func matches(answer string, synonyms []string) bool {
	a := normalize(answer)
	for _, s := range synonyms {
		if normalize(s) == a {
			return true
		}
	}
	return false
}

// Evaluate scores results against the gold exact answers of d. Factoid
// questions are ranked on the first Count answers. List questions use
// SelectAnswers with opts. Questions without gold answers are skipped;
// questions without a result score zero.
func Evaluate(d *Dataset, results map[string]inference.Result, opts AnswerOptions) (Metrics, error) {
	var m Metrics
	for i := range d.Questions {
		q := &d.Questions[i]
		if q.Type != TypeFactoid && q.Type != TypeList {
			continue
		}

		gold, err := q.GoldAnswers()
		if err != nil {
			return Metrics{}, err
		}
		if len(gold) == 0 {
			continue
		}

		r := results[q.ID]
		if q.Type == TypeFactoid {
			scoreFactoid(&m.Factoid, gold, r, opts.Count)
		} else {
			scoreList(&m.List, gold, SelectAnswers(q.Type, r, opts))
		}
	}

	if n := float64(m.Factoid.Questions); n > 0 {
		m.Factoid.StrictAccuracy /= n
		m.Factoid.LenientAccuracy /= n
		m.Factoid.MRR /= n
	}
	if n := float64(m.List.Questions); n > 0 {
		m.List.Precision /= n
		m.List.Recall /= n
		m.List.F1 /= n
	}
	return m, nil
}

// scoreFactoid adds one question's unnormalized factoid scores.
func scoreFactoid(m *FactoidMetrics, gold [][]string, r inference.Result, count int) {
	m.Questions++

	var synonyms []string
	for _, g := range gold {
		synonyms = append(synonyms, g...)
	}

	ranked := r.Strings()
	ranked = ranked[:min(count, len(ranked))]
	for rank, a := range ranked {
		if matches(a, synonyms) {
			if rank == 0 {
				m.StrictAccuracy++
			}
			m.LenientAccuracy++
			m.MRR += 1 / float64(rank+1)
			return
		}
	}
}

// scoreList adds one question's unnormalized list scores.
func scoreList(m *ListMetrics, gold [][]string, predicted []string) {
	m.Questions++
	if len(predicted) == 0 {
		return
	}

	correct := 0
	for _, p := range predicted {
		for _, g := range gold {
			if matches(p, g) {
				correct++
				break
			}
		}
	}

	found := 0
	for _, g := range gold {
		for _, p := range predicted {
			if matches(p, g) {
				found++
				break
			}
		}
	}

	precision := float64(correct) / float64(len(predicted))
	recall := float64(found) / float64(len(gold))
	m.Precision += precision
	m.Recall += recall
	if precision+recall > 0 {
		m.F1 += 2 * precision * recall / (precision + recall)
	}
}

// FindOptimalThreshold searches list thresholds 0, step, 2*step, ... up to 1
// and returns the one with the highest mean list F1. The lowest threshold
// wins ties.
func FindOptimalThreshold(d *Dataset, results map[string]inference.Result, step float32) (float32, ListMetrics, error) {
	if step <= 0 || step > 1 {
		return 0, ListMetrics{}, fmt.Errorf("%w: got %v", ErrInvalidStep, step)
	}

	var (
		best    float32
		bestM   ListMetrics
		started bool
	)
	opts := DefaultAnswerOptions()
	for i := 0; float32(i)*step <= 1; i++ {
		opts.ListThreshold = float32(i) * step
		m, err := Evaluate(d, results, opts)
		if err != nil {
			return 0, ListMetrics{}, err
		}
		if !started || m.List.F1 > bestM.F1 {
			best, bestM, started = opts.ListThreshold, m.List, true
		}
	}
	return best, bestM, nil
}

// FindOptimalAnswerCount searches list answer counts 1..maxCount and returns
// the one with the highest mean list F1. The lowest count wins ties.
func FindOptimalAnswerCount(d *Dataset, results map[string]inference.Result, maxCount int) (int, ListMetrics, error) {
	if maxCount < 1 {
		return 0, ListMetrics{}, fmt.Errorf("%w: got %d", ErrInvalidCount, maxCount)
	}

	var (
		best  int
		bestM ListMetrics
	)
	opts := DefaultAnswerOptions()
	for count := 1; count <= maxCount; count++ {
		opts.ListCount = count
		m, err := Evaluate(d, results, opts)
		if err != nil {
			return 0, ListMetrics{}, err
		}
		if best == 0 || m.List.F1 > bestM.F1 {
			best, bestM = count, m.List
		}
	}
	return best, bestM, nil
}
