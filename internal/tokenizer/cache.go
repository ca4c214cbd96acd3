package tokenizer

import (
	"encoding/binary"
	"fmt"

	"github.com/VictoriaMetrics/fastcache"
)

// Cache memoizes Encode of an underlying tokenizer in a fastcache store.
//
// Keys are the tokenizer name plus the text, values the little-endian token
// ids. Cache is safe for concurrent use when the underlying tokenizer is.
type Cache struct {
	Tokenizer
	store *fastcache.Cache
}

// NewCache wraps tok with an in-memory cache of at most maxBytes.
func NewCache(tok Tokenizer, maxBytes int) *Cache {
	return &Cache{Tokenizer: tok, store: fastcache.New(maxBytes)}
}

// LoadCache wraps tok with a cache restored from path, or an empty one if
// path does not hold a saved cache.
func LoadCache(tok Tokenizer, path string, maxBytes int) *Cache {
	return &Cache{Tokenizer: tok, store: fastcache.LoadFromFileOrNew(path, maxBytes)}
}

// Encode returns the cached tokens of text, encoding it on a miss.
func (c *Cache) Encode(text string) ([]int32, error) {
	if text == "" {
		return c.Tokenizer.Encode(text)
	}

	key := c.key(text)
	if buf := c.store.GetBig(nil, key); len(buf) > 0 {
		return decodeTokens(buf), nil
	}

	tokens, err := c.Tokenizer.Encode(text)
	if err != nil {
		return nil, err
	}
	if len(tokens) > 0 {
		c.store.SetBig(key, encodeTokens(tokens))
	}
	return tokens, nil
}

// Stats returns the cache counters.
func (c *Cache) Stats() fastcache.Stats {
	var s fastcache.Stats
	c.store.UpdateStats(&s)
	return s
}

// SaveToFile persists the cache for LoadCache.
func (c *Cache) SaveToFile(path string) error {
	if err := c.store.SaveToFile(path); err != nil {
		return fmt.Errorf("save token cache: %w", err)
	}
	return nil
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.store.Reset()
}

func (c *Cache) key(text string) []byte {
	name := c.Tokenizer.Name()
	key := make([]byte, 0, len(name)+1+len(text))
	key = append(key, name...)
	key = append(key, 0)
	return append(key, text...)
}

func encodeTokens(tokens []int32) []byte {
	buf := make([]byte, 4*len(tokens))
	for i, tok := range tokens {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(tok)) //nolint:gosec // G115: bit-preserving round trip
	}
	return buf
}

func decodeTokens(buf []byte) []int32 {
	tokens := make([]int32, len(buf)/4)
	for i := range tokens {
		tokens[i] = int32(binary.LittleEndian.Uint32(buf[4*i:])) //nolint:gosec // G115: bit-preserving round trip
	}
	return tokens
}
