package ingest

import (
	"fmt"
	"io"
	"log"
	"strings"
	"testing"
)

// wordTokenizer treats every whitespace-separated word as one token, which
// makes token math exact and easy to reason about in tests.
type wordTokenizer struct {
	vocab   []string
	indexOf map[string]int
}

func newWordTokenizer() *wordTokenizer {
	return &wordTokenizer{indexOf: map[string]int{}}
}

func (w *wordTokenizer) Count(text string) int { return len(strings.Fields(text)) }

func (w *wordTokenizer) Encode(text string) []int {
	words := strings.Fields(text)
	tokens := make([]int, len(words))
	for i, word := range words {
		id, ok := w.indexOf[word]
		if !ok {
			id = len(w.vocab)
			w.vocab = append(w.vocab, word)
			w.indexOf[word] = id
		}
		tokens[i] = id
	}
	return tokens
}

func (w *wordTokenizer) Decode(tokens []int) string {
	words := make([]string, len(tokens))
	for i, id := range tokens {
		words[i] = w.vocab[id]
	}
	return strings.Join(words, " ")
}

func testLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func wordsOf(n int, seed string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("%s%d", seed, i)
	}
	return strings.Join(parts, " ")
}

func element(id, text string, page int) TextElement {
	return TextElement{ID: id, Type: "NarrativeText", Text: text, PageNumber: page, SourceFile: "gdpr.pdf"}
}

func mustChunker(t *testing.T, target, overlap int) *Chunker {
	t.Helper()
	c, err := NewChunker(newWordTokenizer(), target, overlap, testLogger())
	if err != nil {
		t.Fatalf("NewChunker: %v", err)
	}
	return c
}

func TestChunkEmptyInput(t *testing.T) {
	c := mustChunker(t, 512, 50)
	if got := c.Chunk(nil, "GDPR"); len(got) != 0 {
		t.Fatalf("expected no chunks for empty input, got %d", len(got))
	}
}

func TestChunkScenarioThreeElements(t *testing.T) {
	c := mustChunker(t, 512, 50)
	elements := []TextElement{
		element("el_1", wordsOf(300, "a"), 1),
		element("el_2", wordsOf(300, "b"), 2),
		element("el_3", wordsOf(300, "c"), 3),
	}

	chunks := c.Chunk(elements, "GDPR")
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if ch.TokenCount != 300 {
			t.Errorf("chunk %d: token count %d, want 300", i, ch.TokenCount)
		}
		if len(ch.ElementIDs) != 1 || ch.ElementIDs[0] != elements[i].ID {
			t.Errorf("chunk %d: element ids %v, want [%s]", i, ch.ElementIDs, elements[i].ID)
		}
		wantID := fmt.Sprintf("GDPR_chunk_%04d", i)
		if ch.ChunkID != wantID {
			t.Errorf("chunk %d: id %q, want %q", i, ch.ChunkID, wantID)
		}
		if ch.Metadata.ChunkIndex != i {
			t.Errorf("chunk %d: metadata index %d", i, ch.Metadata.ChunkIndex)
		}
	}
}

func TestChunkTokenBound(t *testing.T) {
	c := mustChunker(t, 100, 30)
	var elements []TextElement
	sizes := []int{40, 40, 40, 10, 90, 5, 5, 60, 250, 40}
	for i, n := range sizes {
		elements = append(elements, element(fmt.Sprintf("el_%d", i), wordsOf(n, fmt.Sprintf("w%d_", i)), i/3+1))
	}

	chunks := c.Chunk(elements, "CCPA")
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, ch := range chunks {
		if ch.TokenCount > 100 {
			t.Errorf("chunk %d exceeds token bound: %d", i, ch.TokenCount)
		}
		if ch.TokenCount == 0 {
			t.Errorf("chunk %d is empty", i)
		}
	}
}

func TestChunkCoversEveryElement(t *testing.T) {
	c := mustChunker(t, 120, 20)
	var elements []TextElement
	for i := 0; i < 12; i++ {
		elements = append(elements, element(fmt.Sprintf("el_%d", i), wordsOf(30+i*7, fmt.Sprintf("t%d_", i)), i+1))
	}

	chunks := c.Chunk(elements, "GDPR")
	seen := map[string]bool{}
	for _, ch := range chunks {
		for _, id := range ch.ElementIDs {
			seen[strings.SplitN(id, "_split_", 2)[0]] = true
		}
	}
	for _, e := range elements {
		if !seen[e.ID] {
			t.Errorf("element %s appears in no chunk", e.ID)
		}
	}
}

func TestChunkOverlapCarriesTrailingElement(t *testing.T) {
	c := mustChunker(t, 100, 30)
	elements := []TextElement{
		element("el_1", wordsOf(60, "a"), 1),
		element("el_2", wordsOf(25, "b"), 1),
		element("el_3", wordsOf(40, "c"), 2),
	}

	chunks := c.Chunk(elements, "GDPR")
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	// el_2 (25 tokens) fits the 30 token overlap and is carried forward
	if got := chunks[1].ElementIDs; len(got) != 2 || got[0] != "el_2" || got[1] != "el_3" {
		t.Fatalf("second chunk element ids %v, want [el_2 el_3]", got)
	}
	if chunks[1].TokenCount != 65 {
		t.Fatalf("second chunk token count %d, want 65", chunks[1].TokenCount)
	}
}

func TestChunkSplitsOversizedElement(t *testing.T) {
	c := mustChunker(t, 100, 20)
	elements := []TextElement{
		element("el_1", wordsOf(30, "pre"), 1),
		element("el_big", wordsOf(250, "big"), 2),
		element("el_2", wordsOf(30, "post"), 3),
	}

	chunks := c.Chunk(elements, "PCI-DSS")
	var split []Chunk
	for _, ch := range chunks {
		if ch.Metadata.IsSplit {
			split = append(split, ch)
		}
	}
	// 250 tokens, windows of 100 stepping 80: [0:100] [80:180] [160:250]
	if len(split) != 3 {
		t.Fatalf("expected 3 split chunks, got %d", len(split))
	}
	for i, ch := range split {
		wantElem := fmt.Sprintf("el_big_split_%d", i)
		if len(ch.ElementIDs) != 1 || ch.ElementIDs[0] != wantElem {
			t.Errorf("split %d: element ids %v, want [%s]", i, ch.ElementIDs, wantElem)
		}
		if ch.TokenCount > 100 {
			t.Errorf("split %d exceeds token bound: %d", i, ch.TokenCount)
		}
		if len(ch.PageNumbers) != 1 || ch.PageNumbers[0] != 2 {
			t.Errorf("split %d: pages %v, want [2]", i, ch.PageNumbers)
		}
	}
	if split[2].TokenCount != 90 {
		t.Errorf("last split token count %d, want 90", split[2].TokenCount)
	}
	// ids keep counting across regular and split chunks
	for i, ch := range chunks {
		wantID := fmt.Sprintf("PCI-DSS_chunk_%04d", i)
		if ch.ChunkID != wantID {
			t.Errorf("chunk %d: id %q, want %q", i, ch.ChunkID, wantID)
		}
	}
}

func TestChunkPageNumbersSortedDistinct(t *testing.T) {
	c := mustChunker(t, 200, 0)
	elements := []TextElement{
		element("el_1", wordsOf(20, "a"), 3),
		element("el_2", wordsOf(20, "b"), 1),
		element("el_3", wordsOf(20, "c"), 3),
	}

	chunks := c.Chunk(elements, "GDPR")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	got := chunks[0].PageNumbers
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("pages %v, want [1 3]", got)
	}
}

func TestNewChunkerRejectsBadBounds(t *testing.T) {
	if _, err := NewChunker(newWordTokenizer(), 0, 0, testLogger()); err == nil {
		t.Error("expected error for zero target")
	}
	if _, err := NewChunker(newWordTokenizer(), 100, 100, testLogger()); err == nil {
		t.Error("expected error for overlap >= target")
	}
	if _, err := NewChunker(newWordTokenizer(), 100, -1, testLogger()); err == nil {
		t.Error("expected error for negative overlap")
	}
}
