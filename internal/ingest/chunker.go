package ingest

import (
	"fmt"
	"log"
	"sort"
)

const chunkSeparator = "\n\n"

// Chunker splits ordered text elements into token-bounded chunks with a
// configurable overlap carried across consecutive chunk boundaries.
type Chunker struct {
	tokenizer Tokenizer
	target    int
	overlap   int
	logger    *log.Logger
}

// NewChunker builds a chunker. target is the token budget per chunk and
// overlap the number of trailing tokens re-seeded into the next chunk.
func NewChunker(tokenizer Tokenizer, target, overlap int, logger *log.Logger) (*Chunker, error) {
	if tokenizer == nil {
		return nil, fmt.Errorf("chunker requires a tokenizer")
	}
	if target <= 0 {
		return nil, fmt.Errorf("chunker target tokens must be positive, got %d", target)
	}
	if overlap < 0 || overlap >= target {
		return nil, fmt.Errorf("chunker overlap must be in [0, target), got %d", overlap)
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[CHUNKER] ", log.LstdFlags)
	}
	return &Chunker{tokenizer: tokenizer, target: target, overlap: overlap, logger: logger}, nil
}

type pending struct {
	texts    []string
	elements []TextElement
	tokens   []int // per-element token counts, parallel to elements
}

func (p *pending) total(sep int) int {
	if len(p.tokens) == 0 {
		return 0
	}
	sum := sep * (len(p.tokens) - 1)
	for _, n := range p.tokens {
		sum += n
	}
	return sum
}

func (p *pending) reset() {
	p.texts = p.texts[:0]
	p.elements = p.elements[:0]
	p.tokens = p.tokens[:0]
}

// Chunk walks elements in order and emits token-bounded chunks. Elements
// whose own token count exceeds the target are split into fixed token
// windows and flagged is_split. Zero elements yield zero chunks.
func (c *Chunker) Chunk(elements []TextElement, regulation string) []Chunk {
	c.logger.Printf("chunking %d elements (target=%d overlap=%d)", len(elements), c.target, c.overlap)

	sepTokens := c.tokenizer.Count(chunkSeparator)
	var chunks []Chunk
	var buf pending

	for _, element := range elements {
		elementTokens := c.tokenizer.Count(element.Text)

		if elementTokens > c.target {
			if len(buf.texts) > 0 {
				chunks = append(chunks, c.buildChunk(&buf, regulation, len(chunks)))
				buf.reset()
			}
			chunks = append(chunks, c.splitOversized(element, regulation, len(chunks))...)
			continue
		}

		if len(buf.texts) > 0 && buf.total(sepTokens)+sepTokens+elementTokens > c.target {
			flushed := buf
			chunks = append(chunks, c.buildChunk(&buf, regulation, len(chunks)))
			buf = c.carryOverlap(flushed)
			// shed oldest carried elements until the incoming element fits
			for len(buf.texts) > 0 && buf.total(sepTokens)+sepTokens+elementTokens > c.target {
				buf.texts = buf.texts[1:]
				buf.elements = buf.elements[1:]
				buf.tokens = buf.tokens[1:]
			}
		}

		buf.texts = append(buf.texts, element.Text)
		buf.elements = append(buf.elements, element)
		buf.tokens = append(buf.tokens, elementTokens)
	}

	if len(buf.texts) > 0 {
		chunks = append(chunks, c.buildChunk(&buf, regulation, len(chunks)))
	}

	c.logger.Printf("created %d chunks from %d elements", len(chunks), len(elements))
	return chunks
}

func (c *Chunker) buildChunk(buf *pending, regulation string, index int) Chunk {
	text := joinTexts(buf.texts)
	sourceFile := "unknown"
	if len(buf.elements) > 0 {
		sourceFile = buf.elements[0].SourceFile
	}

	ids := make([]string, len(buf.elements))
	pageSet := map[int]struct{}{}
	typeSet := map[string]struct{}{}
	for i, e := range buf.elements {
		ids[i] = e.ID
		pageSet[e.PageNumber] = struct{}{}
		typeSet[e.Type] = struct{}{}
	}

	return Chunk{
		ChunkID:     chunkID(regulation, index),
		Text:        text,
		SourceFile:  sourceFile,
		PageNumbers: sortedPages(pageSet),
		ElementIDs:  ids,
		TokenCount:  c.tokenizer.Count(text),
		Metadata: ChunkMetadata{
			Regulation:   regulation,
			ElementTypes: sortedTypes(typeSet),
			ChunkIndex:   index,
		},
	}
}

// carryOverlap seeds a new buffer with trailing elements of the flushed
// buffer, walking backward until the next element would exceed the overlap
// budget, preserving original order.
func (c *Chunker) carryOverlap(flushed pending) pending {
	var carried pending
	carriedTokens := 0
	for i := len(flushed.elements) - 1; i >= 0; i-- {
		if carriedTokens+flushed.tokens[i] > c.overlap {
			break
		}
		carriedTokens += flushed.tokens[i]
		carried.texts = append([]string{flushed.texts[i]}, carried.texts...)
		carried.elements = append([]TextElement{flushed.elements[i]}, carried.elements...)
		carried.tokens = append([]int{flushed.tokens[i]}, carried.tokens...)
	}
	return carried
}

// splitOversized cuts a single too-large element into token windows of the
// target size stepping target-overlap, the final window possibly shorter.
func (c *Chunker) splitOversized(element TextElement, regulation string, startIndex int) []Chunk {
	tokens := c.tokenizer.Encode(element.Text)
	step := c.target - c.overlap

	var chunks []Chunk
	part := 0
	for start := 0; start < len(tokens); start += step {
		end := start + c.target
		if end > len(tokens) {
			end = len(tokens)
		}
		window := tokens[start:end]
		index := startIndex + part
		chunks = append(chunks, Chunk{
			ChunkID:     chunkID(regulation, index),
			Text:        c.tokenizer.Decode(window),
			SourceFile:  element.SourceFile,
			PageNumbers: []int{element.PageNumber},
			ElementIDs:  []string{fmt.Sprintf("%s_split_%d", element.ID, part)},
			TokenCount:  len(window),
			Metadata: ChunkMetadata{
				Regulation:   regulation,
				ElementTypes: []string{element.Type},
				ChunkIndex:   index,
				IsSplit:      true,
			},
		})
		part++
		if end == len(tokens) {
			break
		}
	}
	return chunks
}

func chunkID(regulation string, index int) string {
	return fmt.Sprintf("%s_chunk_%04d", regulation, index)
}

func joinTexts(texts []string) string {
	switch len(texts) {
	case 0:
		return ""
	case 1:
		return texts[0]
	}
	out := texts[0]
	for _, t := range texts[1:] {
		out += chunkSeparator + t
	}
	return out
}

func sortedPages(set map[int]struct{}) []int {
	pages := make([]int, 0, len(set))
	for p := range set {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages
}

func sortedTypes(set map[string]struct{}) []string {
	types := make([]string, 0, len(set))
	for t := range set {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
