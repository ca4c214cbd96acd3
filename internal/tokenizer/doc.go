// Package tokenizer turns question and passage text into the token ids the
// transfer model embeds, and token spans back into answer text.
//
// Implementations:
//   - tiktoken: OpenAI BPE encodings (cl100k_base, p50k_base, r50k_base)
//   - BPE: Byte-Pair Encoding from a HuggingFace tokenizer.json
//
// Cache wraps any Tokenizer with a fastcache-backed store of encoded texts,
// since BioASQ snippets repeat across questions.
//
// Example usage:
//
//	tok, err := tokenizer.Load("cl100k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cached := tokenizer.NewCache(tok, 32<<20)
//
//	tokens, err := cached.Encode("Which gene is mutated in cystic fibrosis?")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	text, err := cached.Decode(tokens[2:4])
package tokenizer
