package tokenizer

import (
	"regexp"
	"strings"
)

// byteLevelSpace is the space marker of byte-level BPE vocabularies (GPT-2 style).
const byteLevelSpace = "Ġ"

// pieceRE splits text into words that carry their leading whitespace.
var pieceRE = regexp.MustCompile(`\s*\S+`)

// BPETokenizer implements Byte-Pair Encoding tokenization.
//
// Whitespace before a word is kept as a single space at the start of the
// word's first symbol, so decoding a token span restores the spacing between
// words. Vocabularies that spell the space as "Ġ" are detected.
type BPETokenizer struct {
	vocab        map[string]int32 // token -> ID
	ranks        map[pair]int     // merge rule -> priority, lower first
	reverseVocab map[int32]string // ID -> token
	unkToken     int32
	space        string
	name         string
}

type pair struct {
	first  string
	second string
}

// NewBPETokenizer creates a new BPE tokenizer from vocab and merges.
func NewBPETokenizer(vocab map[string]int32, merges []pair) *BPETokenizer {
	reverseVocab := make(map[int32]string, len(vocab))
	space := " "
	for token, id := range vocab {
		reverseVocab[id] = token
		if strings.HasPrefix(token, byteLevelSpace) {
			space = byteLevelSpace
		}
	}

	ranks := make(map[pair]int, len(merges))
	for i, m := range merges {
		if _, ok := ranks[m]; !ok {
			ranks[m] = i
		}
	}

	return &BPETokenizer{
		vocab:        vocab,
		ranks:        ranks,
		reverseVocab: reverseVocab,
		unkToken:     -1,
		space:        space,
		name:         "bpe",
	}
}

// SetUnkToken sets the id emitted for symbols missing from the vocabulary.
// With -1 (the default) such symbols are dropped.
func (b *BPETokenizer) SetUnkToken(unk int32) {
	b.unkToken = unk
}

// Encode converts text to token IDs using BPE.
func (b *BPETokenizer) Encode(text string) ([]int32, error) {
	var tokens []int32
	for _, piece := range pieceRE.FindAllString(text, -1) {
		word := strings.TrimLeft(piece, " \t\r\n")
		if len(word) < len(piece) {
			word = b.space + word
		}

		for _, symbol := range b.merge(word) {
			if id, ok := b.vocab[symbol]; ok {
				tokens = append(tokens, id)
			} else if b.unkToken >= 0 {
				tokens = append(tokens, b.unkToken)
			}
		}
	}
	return tokens, nil
}

// merge applies merge rules to the characters of word, best rank first.
func (b *BPETokenizer) merge(word string) []string {
	symbols := make([]string, 0, len(word))
	for _, r := range word {
		symbols = append(symbols, string(r))
	}

	for len(symbols) > 1 {
		best, bestRank := -1, len(b.ranks)
		for i := 0; i < len(symbols)-1; i++ {
			if rank, ok := b.ranks[pair{symbols[i], symbols[i+1]}]; ok && rank < bestRank {
				best, bestRank = i, rank
			}
		}
		if best < 0 {
			break
		}

		symbols[best] += symbols[best+1]
		symbols = append(symbols[:best+1], symbols[best+2:]...)
	}
	return symbols
}

// Decode converts token IDs back to text. Unknown IDs decode to U+FFFD.
func (b *BPETokenizer) Decode(tokens []int32) (string, error) {
	var sb strings.Builder
	for _, token := range tokens {
		text, ok := b.reverseVocab[token]
		if !ok {
			text = "�"
		}
		sb.WriteString(text)
	}

	text := sb.String()
	if b.space != " " {
		text = strings.ReplaceAll(text, b.space, " ")
	}
	return text, nil
}

// VocabSize returns the total vocabulary size.
func (b *BPETokenizer) VocabSize() int {
	return len(b.vocab)
}

// Name returns "bpe" or the file the vocabulary was loaded from.
func (b *BPETokenizer) Name() string {
	return b.name
}
