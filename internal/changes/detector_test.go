package changes

import (
	"io"
	"log"
	"path/filepath"
	"testing"

	"github.com/regulatech/compliancegpt/internal/ingest"
)

func chunk(index int, text string, page int) ingest.Chunk {
	return ingest.Chunk{
		ChunkID:     "GDPR_chunk_0000",
		Text:        text,
		PageNumbers: []int{page},
		Metadata:    ingest.ChunkMetadata{Regulation: "GDPR", ChunkIndex: index},
	}
}

func newTestDetector() *Detector {
	return NewDetector(0.8, log.New(io.Discard, "", 0))
}

func TestCompareIdenticalVersions(t *testing.T) {
	d := newTestDetector()
	chunks := []ingest.Chunk{
		chunk(0, "Controllers shall notify the supervisory authority within 72 hours.", 52),
		chunk(1, "Data subjects have the right to erasure.", 55),
	}

	report := d.Compare("GDPR", chunks, chunks)
	if report.TotalChanges != 0 {
		t.Errorf("identical versions produced %d changes: %+v", report.TotalChanges, report.Changes)
	}
	if report.SimilarityScore != 1.0 {
		t.Errorf("identical versions similarity %f, want 1.0", report.SimilarityScore)
	}
}

func TestCompareDetectsAdditionAndRemoval(t *testing.T) {
	d := newTestDetector()
	oldChunks := []ingest.Chunk{
		chunk(0, "Controllers shall notify the supervisory authority within 72 hours.", 52),
		chunk(1, "Transfers to third countries require adequacy decisions.", 60),
	}
	newChunks := []ingest.Chunk{
		chunk(0, "Controllers shall notify the supervisory authority within 72 hours.", 52),
		chunk(1, "Biometric templates are special categories of personal data.", 61),
	}

	report := d.Compare("GDPR", oldChunks, newChunks)
	if report.Summary.Additions != 1 || report.Summary.Removals != 1 {
		t.Fatalf("summary %+v, want 1 addition and 1 removal", report.Summary)
	}
	if report.TotalChanges != 2 {
		t.Errorf("total %d, want 2", report.TotalChanges)
	}
}

func TestCompareDetectsModification(t *testing.T) {
	d := newTestDetector()
	oldChunks := []ingest.Chunk{
		chunk(0, "Controllers shall notify the supervisory authority within 72 hours of becoming aware of a personal data breach.", 52),
	}
	newChunks := []ingest.Chunk{
		chunk(0, "Controllers shall notify the supervisory authority within 48 hours of becoming aware of a personal data breach.", 52),
	}

	report := d.Compare("GDPR", oldChunks, newChunks)
	if report.Summary.Modifications != 1 {
		t.Fatalf("summary %+v, want 1 modification", report.Summary)
	}
	change := report.Changes[0]
	if change.ChangeType != "modified" {
		t.Errorf("change type %s", change.ChangeType)
	}
	if change.Similarity < 0.8 {
		t.Errorf("near-identical text similarity %f, want >= 0.8", change.Similarity)
	}
	if change.OldText == "" || change.NewText == "" {
		t.Error("modification must carry both versions of the text")
	}
	if change.PageNumber != 52 {
		t.Errorf("page %d, want 52", change.PageNumber)
	}
}

func TestCompareCaseAndWhitespaceInsensitive(t *testing.T) {
	d := newTestDetector()
	oldChunks := []ingest.Chunk{chunk(0, "The Right To  Erasure.", 10)}
	newChunks := []ingest.Chunk{chunk(0, "the right to erasure.", 10)}

	report := d.Compare("GDPR", oldChunks, newChunks)
	if report.TotalChanges != 0 {
		t.Errorf("normalization should hide case and spacing changes, got %+v", report.Changes)
	}
}

func TestRatio(t *testing.T) {
	d := newTestDetector()
	if got := d.Ratio("", ""); got != 1.0 {
		t.Errorf("two empty strings ratio %f, want 1.0", got)
	}
	if got := d.Ratio("abcdef", "abcdef"); got != 1.0 {
		t.Errorf("identical ratio %f, want 1.0", got)
	}
	if got := d.Ratio("abc", "xyz"); got != 0.0 {
		t.Errorf("disjoint ratio %f, want 0.0", got)
	}
	mid := d.Ratio("notification within 72 hours", "notification within 48 hours")
	if mid <= 0.5 || mid >= 1.0 {
		t.Errorf("partial overlap ratio %f out of expected range", mid)
	}
}

func TestCompareFilesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	oldChunks := []ingest.Chunk{chunk(0, "Original obligation text.", 1)}
	newChunks := []ingest.Chunk{chunk(0, "Original obligation text.", 1), chunk(1, "A brand new obligation.", 2)}

	oldPath, err := ingest.SaveChunkSet(filepath.Join(dir, "old"), "GDPR", oldChunks)
	if err != nil {
		t.Fatal(err)
	}
	newPath, err := ingest.SaveChunkSet(filepath.Join(dir, "new"), "GDPR", newChunks)
	if err != nil {
		t.Fatal(err)
	}

	d := newTestDetector()
	report, err := d.CompareFiles(oldPath, newPath)
	if err != nil {
		t.Fatalf("CompareFiles: %v", err)
	}
	if report.Regulation != "GDPR" {
		t.Errorf("regulation %s", report.Regulation)
	}
	if report.Summary.Additions != 1 || report.TotalChanges != 1 {
		t.Errorf("summary %+v", report.Summary)
	}
	if report.OldVersion != oldPath || report.NewVersion != newPath {
		t.Errorf("version paths not recorded: %s / %s", report.OldVersion, report.NewVersion)
	}

	out := filepath.Join(dir, "report.json")
	if err := report.Save(out); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestGenerateDiffNonEmpty(t *testing.T) {
	d := newTestDetector()
	diff := d.GenerateDiff("within 72 hours", "within 48 hours")
	if diff == "" {
		t.Error("expected a non-empty diff for differing texts")
	}
	if d.GenerateDiff("same", "same") != "" {
		t.Error("identical texts should produce an empty diff")
	}
}
