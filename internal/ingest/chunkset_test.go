package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestChunkSetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	chunks := []Chunk{
		{
			ChunkID:     "GDPR_chunk_0000",
			Text:        "Article 33 requires notification within 72 hours.",
			SourceFile:  "gdpr.pdf",
			PageNumbers: []int{12},
			ElementIDs:  []string{"el_1"},
			TokenCount:  9,
			Metadata:    ChunkMetadata{Regulation: "GDPR", ElementTypes: []string{"NarrativeText"}, ChunkIndex: 0},
		},
	}

	path, err := SaveChunkSet(dir, "GDPR", chunks)
	if err != nil {
		t.Fatalf("SaveChunkSet: %v", err)
	}
	if path != filepath.Join(dir, "GDPR_chunks.json") {
		t.Fatalf("unexpected path %s", path)
	}

	set, err := LoadChunkSet(path)
	if err != nil {
		t.Fatalf("LoadChunkSet: %v", err)
	}
	if set.Regulation != "GDPR" || set.TotalChunks != 1 {
		t.Fatalf("set header %q/%d", set.Regulation, set.TotalChunks)
	}
	if set.Chunks[0].ChunkID != "GDPR_chunk_0000" || set.Chunks[0].TokenCount != 9 {
		t.Fatalf("chunk did not survive round trip: %+v", set.Chunks[0])
	}
}

func TestLoadChunkSetRejectsMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "BAD_chunks.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadChunkSet(path)
	var dfe *DataFormatError
	if !errors.As(err, &dfe) {
		t.Fatalf("expected DataFormatError, got %v", err)
	}
	if dfe.Path != path {
		t.Fatalf("error path %s, want %s", dfe.Path, path)
	}
}

func TestLoadChunkSetRejectsCountMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "GDPR_chunks.json")
	payload := `{"regulation":"GDPR","total_chunks":3,"chunks":[]}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadChunkSet(path)
	var dfe *DataFormatError
	if !errors.As(err, &dfe) {
		t.Fatalf("expected DataFormatError, got %v", err)
	}
}

func TestListChunkFiles(t *testing.T) {
	dir := t.TempDir()
	for _, reg := range []string{"GDPR", "CCPA"} {
		if _, err := SaveChunkSet(dir, reg, nil); err != nil {
			t.Fatal(err)
		}
	}
	files, err := ListChunkFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 chunk files, got %v", files)
	}
}
