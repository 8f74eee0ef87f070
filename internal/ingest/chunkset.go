package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ChunkSet is the on-disk form of a chunked regulation document.
type ChunkSet struct {
	Regulation  string  `json:"regulation"`
	TotalChunks int     `json:"total_chunks"`
	Chunks      []Chunk `json:"chunks"`
}

// DataFormatError reports a chunk file that exists but cannot be decoded
// or fails basic consistency checks.
type DataFormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *DataFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("chunk file %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("chunk file %s: %s", e.Path, e.Reason)
}

func (e *DataFormatError) Unwrap() error { return e.Err }

// SaveChunkSet writes chunks for a regulation under dir as
// <regulation>_chunks.json, creating dir if needed.
func SaveChunkSet(dir, regulation string, chunks []Chunk) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating chunk dir: %w", err)
	}
	set := ChunkSet{Regulation: regulation, TotalChunks: len(chunks), Chunks: chunks}
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding chunks for %s: %w", regulation, err)
	}
	path := ChunkFilePath(dir, regulation)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// LoadChunkSet reads a chunk file written by SaveChunkSet.
func LoadChunkSet(path string) (*ChunkSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var set ChunkSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, &DataFormatError{Path: path, Reason: "invalid JSON", Err: err}
	}
	if set.Regulation == "" {
		return nil, &DataFormatError{Path: path, Reason: "missing regulation name"}
	}
	if set.TotalChunks != len(set.Chunks) {
		return nil, &DataFormatError{
			Path:   path,
			Reason: fmt.Sprintf("total_chunks %d does not match %d chunks", set.TotalChunks, len(set.Chunks)),
		}
	}
	return &set, nil
}

// ChunkFilePath returns the canonical chunk file location for a regulation.
func ChunkFilePath(dir, regulation string) string {
	name := strings.ToUpper(strings.TrimSpace(regulation))
	return filepath.Join(dir, fmt.Sprintf("%s_chunks.json", name))
}

// ListChunkFiles returns every chunk file under dir, sorted by name.
func ListChunkFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*_chunks.json"))
	if err != nil {
		return nil, fmt.Errorf("listing chunk files in %s: %w", dir, err)
	}
	return matches, nil
}
