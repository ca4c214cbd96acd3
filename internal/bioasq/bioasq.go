// Package bioasq reads and writes BioASQ question files and inserts the
// answers produced by the inference harness.
//
// A BioASQ file is a JSON object with a "questions" array. Each question has
// an id, a body, a type (factoid, list, yesno or summary) and the snippets
// retrieved for it. Fields this package does not model are preserved when a
// file is written back.
package bioasq

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/born-ml/bioqa/internal/inference"
)

// Question types.
const (
	TypeFactoid = "factoid"
	TypeList    = "list"
	TypeYesNo   = "yesno"
	TypeSummary = "summary"
)

var (
	// ErrInvalidDataset is returned for files that are not BioASQ JSON.
	ErrInvalidDataset = errors.New("bioasq: invalid dataset")

	// ErrDuplicateID is returned when two questions share an id.
	ErrDuplicateID = errors.New("bioasq: duplicate question id")
)

// Dataset is a BioASQ question file.
type Dataset struct {
	Questions []Question `json:"questions"`
}

// Snippet is a passage retrieved for a question.
type Snippet struct {
	Text                 string `json:"text"`
	Document             string `json:"document,omitempty"`
	BeginSection         string `json:"beginSection,omitempty"`
	EndSection           string `json:"endSection,omitempty"`
	OffsetInBeginSection int    `json:"offsetInBeginSection,omitempty"`
	OffsetInEndSection   int    `json:"offsetInEndSection,omitempty"`
}

// Question is one BioASQ question. ExactAnswer and IdealAnswer are kept as
// raw JSON because their layout depends on the question type.
type Question struct {
	ID          string          `json:"id"`
	Body        string          `json:"body"`
	Type        string          `json:"type"`
	Documents   []string        `json:"documents,omitempty"`
	Snippets    []Snippet       `json:"snippets,omitempty"`
	ExactAnswer json.RawMessage `json:"exact_answer,omitempty"`
	IdealAnswer json.RawMessage `json:"ideal_answer,omitempty"`

	extra map[string]json.RawMessage
}

// plainQuestion has Question's fields without its JSON methods.
type plainQuestion Question

var knownFields = []string{"id", "body", "type", "documents", "snippets", "exact_answer", "ideal_answer"}

// UnmarshalJSON decodes the modeled fields and keeps every other field.
func (q *Question) UnmarshalJSON(data []byte) error {
	var plain plainQuestion
	if err := json.Unmarshal(data, &plain); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for _, k := range knownFields {
		delete(fields, k)
	}
	if len(fields) > 0 {
		plain.extra = fields
	}

	*q = Question(plain)
	return nil
}

// MarshalJSON encodes the question with its preserved fields. Keys are
// written in sorted order.
func (q Question) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(plainQuestion(q))
	if err != nil {
		return nil, err
	}
	if len(q.extra) == 0 {
		return data, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for k, v := range q.extra {
		if _, ok := fields[k]; !ok {
			fields[k] = v
		}
	}
	return json.Marshal(fields)
}

// Context joins the snippet texts into the passage answers are extracted
// from. Snippets are separated by a newline.
func (q *Question) Context() string {
	texts := make([]string, 0, len(q.Snippets))
	for _, s := range q.Snippets {
		if text := strings.TrimSpace(s.Text); text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, "\n")
}

// Parse decodes a BioASQ file.
func Parse(r io.Reader) (*Dataset, error) {
	var d Dataset
	dec := json.NewDecoder(r)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDataset, err)
	}
	if d.Questions == nil {
		return nil, fmt.Errorf("%w: missing questions array", ErrInvalidDataset)
	}
	return &d, nil
}

// Load reads a BioASQ file from disk.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	d, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Encode writes the dataset as JSON indented by two spaces.
func (d *Dataset) Encode(w io.Writer) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Write writes the dataset to path, creating parent directories.
func (d *Dataset) Write(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := d.Encode(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}

// AssignIDs gives every question without an id a random UUID and returns
// the number of ids assigned. It fails if two questions share an id.
func (d *Dataset) AssignIDs() (int, error) {
	seen := make(map[string]bool, len(d.Questions))
	assigned := 0
	for i := range d.Questions {
		q := &d.Questions[i]
		if q.ID == "" {
			q.ID = uuid.NewString()
			assigned++
		}
		if seen[q.ID] {
			return assigned, fmt.Errorf("%w: %s", ErrDuplicateID, q.ID)
		}
		seen[q.ID] = true
	}
	return assigned, nil
}

// InferenceQuestions converts the questions that have at least one snippet
// into inference inputs.
func (d *Dataset) InferenceQuestions() []inference.Question {
	out := make([]inference.Question, 0, len(d.Questions))
	for i := range d.Questions {
		q := &d.Questions[i]
		passage := q.Context()
		if passage == "" {
			continue
		}
		out = append(out, inference.Question{ID: q.ID, Question: q.Body, Context: passage})
	}
	return out
}
