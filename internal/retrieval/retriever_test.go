package retrieval

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/regulatech/compliancegpt/internal/store"
)

// recordingStore captures the query and options the retriever issues.
type recordingStore struct {
	lastQuery string
	lastOpts  store.SearchOptions
	hits      []store.Hit
	err       error
}

func (r *recordingStore) Upsert(ctx context.Context, docs []store.Document) error { return nil }

func (r *recordingStore) Search(ctx context.Context, query string, opts store.SearchOptions) ([]store.Hit, error) {
	r.lastQuery = query
	r.lastOpts = opts
	return r.hits, r.err
}

func (r *recordingStore) Count() (uint64, error)                                     { return 0, nil }
func (r *recordingStore) DeleteRegulation(ctx context.Context, regulation string) error { return nil }
func (r *recordingStore) Close() error                                               { return nil }

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestExpandQueryBreachSynonyms(t *testing.T) {
	got := ExpandQuery("What about breach?")
	if !strings.Contains(got, "Article 33") {
		t.Errorf("expanded query missing Article 33: %q", got)
	}
	if !strings.HasPrefix(got, "What about breach?") {
		t.Errorf("expansion must keep the original query first: %q", got)
	}
	if !strings.HasSuffix(got, "GDPR") {
		t.Errorf("breach query should gain a GDPR marker: %q", got)
	}
}

func TestExpandQueryNoGDPRDuplication(t *testing.T) {
	got := ExpandQuery("GDPR consent requirements")
	if strings.HasSuffix(got, " GDPR") {
		t.Errorf("query already naming GDPR must not gain the marker: %q", got)
	}
	if !strings.Contains(got, "Article 7") {
		t.Errorf("consent synonym missing: %q", got)
	}
}

func TestExpandQueryUnmatchedPassthrough(t *testing.T) {
	q := "what is the scope of this law"
	if got := ExpandQuery(q); got != q {
		t.Errorf("unmatched query must pass through unchanged, got %q", got)
	}
}

func TestExpandQueryDeterministicOrder(t *testing.T) {
	first := ExpandQuery("breach notification and consent")
	for i := 0; i < 10; i++ {
		if got := ExpandQuery("breach notification and consent"); got != first {
			t.Fatalf("expansion not deterministic: %q vs %q", got, first)
		}
	}
}

func TestSearchPassesExpandedQueryAndOptions(t *testing.T) {
	rec := &recordingStore{hits: []store.Hit{
		{ID: "GDPR_chunk_0003", Score: 1.5, Document: store.Document{
			Text: "Article 33 text", Regulation: "GDPR", SourceFile: "gdpr.pdf", Pages: []int{12}, ChunkIndex: 3,
		}},
	}}
	r := NewHybridRetriever(rec, nil, 5, 0, quietLogger())

	results, err := r.Search(context.Background(), "What about breach?", Options{TopK: 2, RegulationFilter: "GDPR"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !strings.Contains(rec.lastQuery, "Article 33") {
		t.Errorf("store received unexpanded query: %q", rec.lastQuery)
	}
	if rec.lastOpts.Limit != 2 || rec.lastOpts.Regulation != "GDPR" {
		t.Errorf("options not forwarded: %+v", rec.lastOpts)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	got := results[0]
	if got.ChunkID != "GDPR_chunk_0003" || got.Score != 1.5 || got.ChunkIndex != 3 {
		t.Errorf("result mapping wrong: %+v", got)
	}
	if len(got.PageNumbers) != 1 || got.PageNumbers[0] != 12 {
		t.Errorf("page numbers lost: %v", got.PageNumbers)
	}
}

func TestSearchDefaultsTopK(t *testing.T) {
	rec := &recordingStore{}
	r := NewHybridRetriever(rec, nil, 7, 0, quietLogger())
	if _, err := r.Search(context.Background(), "scope", Options{}); err != nil {
		t.Fatal(err)
	}
	if rec.lastOpts.Limit != 7 {
		t.Errorf("default top_k not applied: %d", rec.lastOpts.Limit)
	}
}

func TestSearchWrapsStoreFailure(t *testing.T) {
	rec := &recordingStore{err: errors.New("index unreachable")}
	r := NewHybridRetriever(rec, nil, 5, 0, quietLogger())

	_, err := r.Search(context.Background(), "breach notification", Options{})
	if err == nil {
		t.Fatal("expected error from failing store")
	}
	var re *RetrievalError
	if !errors.As(err, &re) {
		t.Fatalf("expected RetrievalError, got %T", err)
	}
	if re.Query != "breach notification" {
		t.Errorf("error should carry the original query: %q", re.Query)
	}
	if !strings.Contains(err.Error(), "index unreachable") {
		t.Errorf("cause not surfaced: %v", err)
	}
}

type stubEmbedder struct {
	lastTexts []string
	vec       []float32
	err       error
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	s.lastTexts = texts
	if s.err != nil {
		return nil, s.err
	}
	return [][]float32{s.vec}, nil
}

func TestSearchEmbedsQueryForHybrid(t *testing.T) {
	rec := &recordingStore{}
	emb := &stubEmbedder{vec: []float32{0.1, 0.9}}
	r := NewHybridRetriever(rec, emb, 5, 0.5, quietLogger())

	if _, err := r.Search(context.Background(), "breach notification", Options{}); err != nil {
		t.Fatal(err)
	}
	if len(emb.lastTexts) != 1 || emb.lastTexts[0] != "breach notification" {
		t.Errorf("embedder should receive the raw query, got %v", emb.lastTexts)
	}
	if len(rec.lastOpts.Vector) != 2 || rec.lastOpts.Vector[1] != 0.9 {
		t.Errorf("query vector not forwarded to store: %v", rec.lastOpts.Vector)
	}
	if rec.lastOpts.Alpha != 0.5 {
		t.Errorf("alpha not forwarded: %v", rec.lastOpts.Alpha)
	}
}

func TestSearchWithoutEmbedderDegradesToKeyword(t *testing.T) {
	rec := &recordingStore{}
	r := NewHybridRetriever(rec, nil, 5, 0.5, quietLogger())

	if _, err := r.Search(context.Background(), "consent", Options{}); err != nil {
		t.Fatal(err)
	}
	if rec.lastOpts.Vector != nil {
		t.Errorf("no embedder configured, vector should be empty: %v", rec.lastOpts.Vector)
	}
}

func TestSearchEmbeddingFailureDegradesToKeyword(t *testing.T) {
	rec := &recordingStore{}
	emb := &stubEmbedder{err: errors.New("quota exceeded")}
	r := NewHybridRetriever(rec, emb, 5, 0.5, quietLogger())

	if _, err := r.Search(context.Background(), "consent", Options{}); err != nil {
		t.Fatalf("embedding failure must not fail the search: %v", err)
	}
	if rec.lastOpts.Vector != nil {
		t.Errorf("failed embedding should leave the vector empty: %v", rec.lastOpts.Vector)
	}
}

func TestSearchKeepsCallerVector(t *testing.T) {
	rec := &recordingStore{}
	emb := &stubEmbedder{vec: []float32{1, 0}}
	r := NewHybridRetriever(rec, emb, 5, 0.5, quietLogger())

	if _, err := r.Search(context.Background(), "consent", Options{Vector: []float32{0, 1}}); err != nil {
		t.Fatal(err)
	}
	if emb.lastTexts != nil {
		t.Error("caller-supplied vector must skip the embedder")
	}
	if len(rec.lastOpts.Vector) != 2 || rec.lastOpts.Vector[1] != 1 {
		t.Errorf("caller vector not forwarded: %v", rec.lastOpts.Vector)
	}
}
