package tokenizer

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// HFTokenizerType identifies the tokenizer implementation type.
type HFTokenizerType string

const (
	// HFTypeBPE indicates Byte-Pair Encoding tokenizer.
	HFTypeBPE HFTokenizerType = "BPE"

	// HFTypeWordPiece indicates WordPiece tokenizer (BERT-style).
	HFTypeWordPiece HFTokenizerType = "WordPiece"

	// HFTypeUnigram indicates Unigram tokenizer (SentencePiece-style).
	HFTypeUnigram HFTokenizerType = "Unigram"
)

// huggingFaceTokenizerConfig represents the subset of tokenizer.json we read.
type huggingFaceTokenizerConfig struct {
	Model struct {
		Type   HFTokenizerType `json:"type"`
		Vocab  map[string]int  `json:"vocab"`
		Merges []string        `json:"merges"`
	} `json:"model"`
	AddedTokens []struct {
		ID      int    `json:"id"`
		Content string `json:"content"`
		Special bool   `json:"special"`
	} `json:"added_tokens"`
}

// LoadFromHuggingFace loads a BPE tokenizer from a tokenizer.json file.
//
// WordPiece and Unigram vocabularies are rejected with ErrUnsupportedTokenizer.
// A model without a type but with merges is taken as BPE.
func LoadFromHuggingFace(path string) (*BPETokenizer, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path comes from trusted caller
	if err != nil {
		return nil, fmt.Errorf("failed to read tokenizer.json: %w", err)
	}

	var config huggingFaceTokenizerConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse tokenizer.json: %w", err)
	}

	switch config.Model.Type {
	case HFTypeBPE:
	case "":
		if len(config.Model.Merges) == 0 {
			return nil, fmt.Errorf("%w: %s has no model type", ErrUnsupportedTokenizer, path)
		}
	default:
		return nil, fmt.Errorf("%w: %s model in %s", ErrUnsupportedTokenizer, config.Model.Type, path)
	}

	vocab := make(map[string]int32, len(config.Model.Vocab))
	for token, id := range config.Model.Vocab {
		vocab[token] = int32(id) //nolint:gosec // G115: vocabulary ids fit in int32
	}

	merges := make([]pair, 0, len(config.Model.Merges))
	for _, m := range config.Model.Merges {
		if parts := strings.Fields(m); len(parts) == 2 {
			merges = append(merges, pair{parts[0], parts[1]})
		}
	}

	tok := NewBPETokenizer(vocab, merges)
	tok.name = path
	for _, added := range config.AddedTokens {
		if !added.Special {
			continue
		}
		switch strings.ToLower(added.Content) {
		case "<unk>", "[unk]":
			tok.SetUnkToken(int32(added.ID)) //nolint:gosec // G115: vocabulary ids fit in int32
		}
	}
	return tok, nil
}
