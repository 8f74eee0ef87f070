package retrieval

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/regulatech/compliancegpt/internal/store"
)

// RetrievalResult is one retrieved chunk with its relevance score.
type RetrievalResult struct {
	ChunkID     string  `json:"chunk_id"`
	Text        string  `json:"text"`
	SourceFile  string  `json:"source_file"`
	PageNumbers []int   `json:"page_numbers"`
	Regulation  string  `json:"regulation"`
	Score       float64 `json:"score"`
	ChunkIndex  int     `json:"chunk_index"`
}

// expansion maps a trigger term to the synonym text appended to the query.
// Kept as an ordered slice so expansion output is deterministic.
type expansion struct {
	term     string
	synonyms string
}

var complianceSynonyms = []expansion{
	{"unauthorized access", "personal data breach security incident"},
	{"breach", "personal data breach security incident notification Article 33 Article 34"},
	{"employee access", "controller processor internal security breach"},
	{"data breach", "personal data breach notification 72 hours supervisory authority"},
	{"erasure", "right to erasure right to be forgotten Article 17 deletion"},
	{"deletion", "erasure right to be forgotten Article 17"},
	{"consent", "data subject consent lawful basis Article 7 freely given"},
	{"fines", "penalties administrative fines Article 83 sanctions"},
	{"penalties", "fines administrative fines Article 83 sanctions infringement"},
	{"rights", "data subject rights access rectification erasure portability"},
	{"security", "technical measures organizational measures Article 32 encryption"},
	{"ml model", "automated decision profiling Article 22 machine learning"},
	{"machine learning", "automated decision profiling Article 22 algorithmic"},
	{"ai", "automated decision profiling Article 22 artificial intelligence"},
	{"notification", "notify supervisory authority 72 hours Article 33"},
	{"dpia", "data protection impact assessment Article 35 high risk"},
	{"transfer", "international transfer third country adequacy Article 44"},
	{"biometric", "special categories sensitive data Article 9"},
}

// terms whose presence suggests the query is about the GDPR even when the
// regulation is not named
var gdprHints = []string{"article", "breach", "consent", "erasure", "data"}

// Options tune a single retrieval call. Zero values fall back to the
// retriever defaults.
type Options struct {
	TopK             int
	Alpha            float64
	RegulationFilter string
	Vector           []float32
}

// Embedder turns texts into vectors for the semantic half of hybrid search.
// Providers that support embeddings satisfy this.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// HybridRetriever expands compliance queries with domain synonyms and runs
// them against the document store. With a nonzero alpha and an embedder it
// also embeds the query so the store can fuse keyword and vector rankings.
type HybridRetriever struct {
	store    store.DocumentStore
	embedder Embedder
	topK     int
	alpha    float64
	logger   *log.Logger
}

// NewHybridRetriever builds a retriever. embedder may be nil, in which case
// a nonzero alpha degrades to keyword-only search with a warning.
func NewHybridRetriever(st store.DocumentStore, embedder Embedder, topK int, alpha float64, logger *log.Logger) *HybridRetriever {
	if topK <= 0 {
		topK = 5
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[RETRIEVER] ", log.LstdFlags)
	}
	return &HybridRetriever{store: st, embedder: embedder, topK: topK, alpha: alpha, logger: logger}
}

// ExpandQuery appends synonym text for every matched trigger term, then a
// bare GDPR marker when the query hints at it without naming it.
func ExpandQuery(query string) string {
	lower := strings.ToLower(query)
	expanded := query
	for _, e := range complianceSynonyms {
		if strings.Contains(lower, e.term) {
			expanded = expanded + " " + e.synonyms
		}
	}
	if !strings.Contains(lower, "gdpr") {
		for _, hint := range gdprHints {
			if strings.Contains(lower, hint) {
				expanded = expanded + " GDPR"
				break
			}
		}
	}
	return expanded
}

// RetrievalError reports a store search failure. Searches are not retried
// here; retry policy belongs to the store client.
type RetrievalError struct {
	Query string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed for %q: %v", truncate(e.Query, 50), e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// Search runs an expanded hybrid query and maps store hits to results.
func (r *HybridRetriever) Search(ctx context.Context, query string, opts Options) ([]RetrievalResult, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = r.topK
	}
	alpha := opts.Alpha
	if alpha <= 0 {
		alpha = r.alpha
	}

	expanded := ExpandQuery(query)
	r.logger.Printf("searching %q (top_k=%d, alpha=%.2f)", truncate(query, 50), topK, alpha)
	r.logger.Printf("expanded query: %q", truncate(expanded, 100))

	vector := opts.Vector
	if alpha > 0 && len(vector) == 0 {
		if r.embedder == nil {
			r.logger.Printf("warning: alpha=%.2f but no embedder configured, keyword search only", alpha)
		} else if vecs, err := r.embedder.Embed(ctx, []string{query}); err != nil {
			r.logger.Printf("warning: query embedding failed, keyword search only: %v", err)
		} else if len(vecs) > 0 {
			vector = vecs[0]
		}
	}

	hits, err := r.store.Search(ctx, expanded, store.SearchOptions{
		Limit:      topK,
		Regulation: opts.RegulationFilter,
		Alpha:      alpha,
		Vector:     vector,
	})
	if err != nil {
		return nil, &RetrievalError{Query: query, Err: err}
	}

	results := make([]RetrievalResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, RetrievalResult{
			ChunkID:     h.ID,
			Text:        h.Document.Text,
			SourceFile:  h.Document.SourceFile,
			PageNumbers: h.Document.Pages,
			Regulation:  h.Document.Regulation,
			Score:       h.Score,
			ChunkIndex:  h.Document.ChunkIndex,
		})
	}
	r.logger.Printf("found %d results", len(results))
	return results, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
