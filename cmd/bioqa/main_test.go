package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/bioqa/internal/bioasq"
)

const modelConfig = `{
  "size": 4,
  "answer_layer_type": "spn",
  "answer_layer_poolsize": 2,
  "transfer_model": {"type": "embedder", "vocab_size": 64, "embedding_size": 5}
}`

const questions = `{
  "questions": [
    {
      "id": "q1",
      "body": "which gene is mutated in cystic fibrosis?",
      "type": "factoid",
      "snippets": [{"text": "cystic fibrosis is caused by mutations in the cftr gene."}],
      "exact_answer": [["cftr"]]
    },
    {
      "id": "q2",
      "body": "which drugs inhibit bcr-abl?",
      "type": "list",
      "snippets": [{"text": "imatinib and dasatinib inhibit bcr-abl."}],
      "exact_answer": [["imatinib"], ["dasatinib"]]
    }
  ]
}`

// charTokenizer returns a tokenizer.json with one token per character.
func charTokenizer() string {
	vocab := map[string]int{"<unk>": 0, "Ġ": 1}
	for _, r := range "abcdefghijklmnopqrstuvwxyz0123456789.,-?" {
		vocab[string(r)] = len(vocab)
	}
	data, _ := json.Marshal(vocab)
	return fmt.Sprintf(`{"model": {"type": "BPE", "vocab": %s, "merges": []},
		"added_tokens": [{"id": 0, "content": "<unk>", "special": true}]}`, data)
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"version"}, &out))
	assert.Equal(t, "bioqa "+version+"\n", out.String())
}

func TestSchema(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"schema"}, &out))

	var schema struct {
		Properties map[string]json.RawMessage `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &schema))
	assert.Contains(t, schema.Properties, "answer_layer_type")
	assert.Contains(t, schema.Properties, "transfer_model")
}

func TestUsageErrors(t *testing.T) {
	ctx := context.Background()
	for _, args := range [][]string{
		nil,
		{"train"},
		{"init"},
		{"infer", "-in", "questions.json"},
		{"eval"},
	} {
		err := run(ctx, args, &bytes.Buffer{})
		assert.ErrorIs(t, err, errUsage, strings.Join(args, " "))
	}
}

func TestInitInferEval(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	weights := filepath.Join(dir, "model.safetensors")
	configPath := writeFile(t, filepath.Join(dir, "model.json"), modelConfig)
	require.NoError(t, run(ctx, []string{"init", "-config", configPath, "-out", weights}, &bytes.Buffer{}))
	require.FileExists(t, weights)

	tokPath := writeFile(t, filepath.Join(dir, "tokenizer.json"), charTokenizer())
	cacheDir := filepath.Join(dir, "token-cache")
	runConfig := writeFile(t, filepath.Join(dir, "run.yaml"), fmt.Sprintf(`
model_weights: %s
tokenizer: %s
token_cache: %s
token_cache_bytes: 1048576
batch_size: 1
workers: 2
log_level: error
`, weights, tokPath, cacheDir))
	in := writeFile(t, filepath.Join(dir, "questions.json"), questions)

	out := filepath.Join(dir, "answers", "answers.json")
	require.NoError(t, run(ctx, []string{"infer", "-c", runConfig, "-in", in, "-out", out, "-beam-size", "3"}, &bytes.Buffer{}))

	answered, err := bioasq.Load(out)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(answered.Questions), 2)
	for _, q := range answered.Questions {
		var exact [][]string
		require.NoError(t, json.Unmarshal(q.ExactAnswer, &exact))
		assert.NotEmpty(t, exact)
		for _, group := range exact {
			assert.Len(t, group, 1)
		}
		assert.Equal(t, `""`, string(q.IdealAnswer))
	}
	assert.DirExists(t, cacheDir)

	var report bytes.Buffer
	require.NoError(t, run(ctx, []string{"eval", "-c", runConfig, "-in", in, "-find-threshold", "0.25"}, &report))
	assert.Contains(t, report.String(), "factoid questions: 1")
	assert.Contains(t, report.String(), "list questions: 1 (threshold")

	report.Reset()
	require.NoError(t, run(ctx, []string{"eval", "-c", runConfig, "-in", in, "-find-answer-count", "3"}, &report))
	assert.Regexp(t, `list questions: 1 \(count [123]\)`, report.String())
}
