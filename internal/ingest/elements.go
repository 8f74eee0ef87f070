package ingest

// TextElement is one parsed unit of document text (a paragraph, heading,
// list item or linearized table) with its page provenance. Elements are
// produced by an extraction adapter and consumed in order by the chunker;
// they are never mutated.
type TextElement struct {
	ID         string            `json:"element_id"`
	Type       string            `json:"element_type"`
	Text       string            `json:"text"`
	PageNumber int               `json:"page_number"`
	SourceFile string            `json:"source_file"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ChunkMetadata carries the regulation label and position of a chunk.
type ChunkMetadata struct {
	Regulation   string   `json:"regulation"`
	ElementTypes []string `json:"element_types"`
	ChunkIndex   int      `json:"chunk_index"`
	IsSplit      bool     `json:"is_split,omitempty"`
}

// Chunk is a token-bounded span of document text prepared for indexing.
// Chunks are created once by the chunker and never mutated; a new ingestion
// run produces a new chunk-set.
type Chunk struct {
	ChunkID     string        `json:"chunk_id"`
	Text        string        `json:"text"`
	SourceFile  string        `json:"source_file"`
	PageNumbers []int         `json:"page_numbers"`
	ElementIDs  []string      `json:"element_ids"`
	TokenCount  int           `json:"token_count"`
	Metadata    ChunkMetadata `json:"metadata"`
}
