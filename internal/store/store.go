package store

import (
	"context"
)

// Document is a unit of indexed regulation text.
type Document struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Regulation string    `json:"regulation"`
	SourceFile string    `json:"source_file"`
	Pages      []int     `json:"pages"`
	ChunkIndex int       `json:"chunk_index"`
	Vector     []float32 `json:"-"`
}

// SearchOptions shape a single retrieval call.
type SearchOptions struct {
	Limit      int
	Regulation string  // restrict hits to one regulation when non-empty
	Alpha      float64 // semantic weight in [0,1]; 0 is pure keyword
	Vector     []float32
}

// Hit is a scored search result.
type Hit struct {
	ID       string
	Score    float64
	Document Document
}

// DocumentStore indexes regulation chunks and serves hybrid search.
type DocumentStore interface {
	Upsert(ctx context.Context, docs []Document) error
	Search(ctx context.Context, query string, opts SearchOptions) ([]Hit, error)
	Count() (uint64, error)
	DeleteRegulation(ctx context.Context, regulation string) error
	Close() error
}
