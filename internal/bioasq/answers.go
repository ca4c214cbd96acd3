package bioasq

import (
	"encoding/json"
	"fmt"

	"github.com/born-ml/bioqa/internal/inference"
)

// AnswerOptions controls how many ranked answers are kept per question.
type AnswerOptions struct {
	// ListThreshold is the probability a list answer must exceed.
	ListThreshold float32
	// ListCount, when positive, keeps the first ListCount list answers
	// instead of applying ListThreshold.
	ListCount int
	// Count is the number of answers kept for other question types.
	Count int
}

// DefaultAnswerOptions returns a list threshold of 0.04 and five answers
// for every other question type.
func DefaultAnswerOptions() AnswerOptions {
	return AnswerOptions{ListThreshold: 0.04, Count: 5}
}

// SelectAnswers picks the answer strings reported for a question of type
// qType. List questions keep the answers above the threshold, or the first
// ListCount when it is set. Other types keep the first Count answers. The
// result is never empty when r has at least one answer: the best answer is
// the fallback.
func SelectAnswers(qType string, r inference.Result, opts AnswerOptions) []string {
	if len(r.Answers) == 0 {
		return nil
	}

	var out []string
	switch {
	case qType == TypeList && opts.ListCount > 0:
		out = r.Strings()[:min(opts.ListCount, len(r.Answers))]
	case qType == TypeList:
		for _, a := range r.Answers {
			if a.Prob > opts.ListThreshold {
				out = append(out, a.Text)
			}
		}
	default:
		out = r.Strings()[:min(opts.Count, len(r.Answers))]
	}

	if len(out) == 0 {
		out = []string{r.Answers[0].Text}
	}
	return out
}

// InsertAnswers returns a dataset holding the questions of d that have a
// result. Each one gets exact_answer [[a1], [a2], ...] and an empty
// ideal_answer. d is not modified.
func InsertAnswers(d *Dataset, results map[string]inference.Result, opts AnswerOptions) (*Dataset, error) {
	out := &Dataset{Questions: make([]Question, 0, len(results))}
	for _, q := range d.Questions {
		r, ok := results[q.ID]
		if !ok || len(r.Answers) == 0 {
			continue
		}

		answers := SelectAnswers(q.Type, r, opts)
		exact := make([][]string, len(answers))
		for i, a := range answers {
			exact[i] = []string{a}
		}

		raw, err := json.Marshal(exact)
		if err != nil {
			return nil, fmt.Errorf("encode answers of %s: %w", q.ID, err)
		}
		q.ExactAnswer = raw
		q.IdealAnswer = json.RawMessage(`""`)
		out.Questions = append(out.Questions, q)
	}
	return out, nil
}
