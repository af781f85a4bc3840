// Package tokens counts tokens in plain text with tiktoken encodings.
package tokens

import (
	"fmt"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// DefaultEncoding matches the encoding used by GPT-4 and GPT-3.5 models.
const DefaultEncoding = tokenizer.Cl100kBase

// Counter counts tokens for a fixed encoding. The codec is loaded on first
// use and shared by all callers.
type Counter struct {
	encoding tokenizer.Encoding

	mu    sync.RWMutex
	codec tokenizer.Codec
}

// NewCounter creates a counter for the named encoding, e.g. "cl100k_base".
// An empty name selects DefaultEncoding.
func NewCounter(encoding string) *Counter {
	enc := tokenizer.Encoding(encoding)
	if encoding == "" {
		enc = DefaultEncoding
	}
	return &Counter{encoding: enc}
}

// Encoding returns the encoding name.
func (c *Counter) Encoding() string {
	return string(c.encoding)
}

func (c *Counter) getCodec() (tokenizer.Codec, error) {
	c.mu.RLock()
	codec := c.codec
	c.mu.RUnlock()
	if codec != nil {
		return codec, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.codec != nil {
		return c.codec, nil
	}

	codec, err := tokenizer.Get(c.encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokenizer encoding %q: %w", c.encoding, err)
	}
	c.codec = codec
	return codec, nil
}

// Count returns the number of tokens text encodes to.
func (c *Counter) Count(text string) (int, error) {
	codec, err := c.getCodec()
	if err != nil {
		return 0, err
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}
