package tokenizer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedTokenizer is returned for tokenizer files of an unknown kind.
var ErrUnsupportedTokenizer = errors.New("unsupported tokenizer")

// Tokenizer is the core interface for text tokenization.
//
// Decode of a contiguous slice of Encode's output returns the matching piece
// of the text (possibly with surrounding whitespace).
type Tokenizer interface {
	// Encode converts text to token IDs.
	Encode(text string) ([]int32, error)

	// Decode converts token IDs back to text.
	Decode(tokens []int32) (string, error)

	// VocabSize returns the total vocabulary size.
	VocabSize() int

	// Name identifies the vocabulary; equal names mean equal token ids.
	Name() string
}

// Load creates a tokenizer from a tiktoken encoding name, a tokenizer.json
// file or a directory containing one.
func Load(nameOrPath string) (Tokenizer, error) {
	info, err := os.Stat(nameOrPath)
	if err != nil {
		tok, err := NewTikToken(nameOrPath)
		if err != nil {
			return nil, err
		}
		return tok, nil
	}

	path := nameOrPath
	if info.IsDir() {
		path = filepath.Join(nameOrPath, "tokenizer.json")
	}
	if !strings.HasSuffix(path, ".json") {
		return nil, fmt.Errorf("%w: %s is not a tokenizer.json", ErrUnsupportedTokenizer, nameOrPath)
	}
	tok, err := LoadFromHuggingFace(path)
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// IDs converts token ids to the int ids the transfer model takes.
func IDs(tokens []int32) []int {
	ids := make([]int, len(tokens))
	for i, tok := range tokens {
		ids[i] = int(tok)
	}
	return ids
}
