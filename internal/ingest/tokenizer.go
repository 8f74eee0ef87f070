package ingest

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer abstracts subword tokenization so the chunker stays
// tokenizer-agnostic. Production code uses the BPE encoding the indexing
// pipeline was tuned for; tests inject a deterministic word tokenizer.
type Tokenizer interface {
	Count(text string) int
	Encode(text string) []int
	Decode(tokens []int) string
}

// BPETokenizer wraps a tiktoken encoding.
type BPETokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewBPETokenizer loads the named encoding (e.g. "cl100k_base").
func NewBPETokenizer(encoding string) (*BPETokenizer, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %q: %w", encoding, err)
	}
	return &BPETokenizer{enc: enc}, nil
}

func (t *BPETokenizer) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

func (t *BPETokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *BPETokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}
