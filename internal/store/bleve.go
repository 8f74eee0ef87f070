package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/mapping"
	bquery "github.com/blevesearch/bleve/search/query"
)

const rrfK = 60

// indexedDoc is the shape handed to bleve for analysis.
type indexedDoc struct {
	Text       string `json:"text"`
	Regulation string `json:"regulation"`
	SourceFile string `json:"source_file"`
}

// BleveStore is a DocumentStore backed by a bleve index for keyword search
// with a document sidecar holding full payloads and vectors for semantic
// scoring. Hybrid queries are fused by reciprocal rank. For on-disk indexes
// the sidecar is persisted next to the index and reloaded on open, so a
// store survives process restarts.
type BleveStore struct {
	index       bleve.Index
	mu          sync.RWMutex
	docs        map[string]Document
	sidecarPath string
	logger      *log.Logger
}

// sidecarRecord is the persisted form of one document. Vector lives outside
// Document because its json tag excludes it from API payloads.
type sidecarRecord struct {
	Doc    Document  `json:"doc"`
	Vector []float32 `json:"vector,omitempty"`
}

// NewBleveStore opens (or creates) a persistent index at path. An empty
// path yields a memory-only index.
func NewBleveStore(path string, logger *log.Logger) (*BleveStore, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[STORE] ", log.LstdFlags)
	}

	var index bleve.Index
	var err error
	if path == "" {
		index, err = bleve.NewMemOnly(indexMapping())
	} else if _, statErr := os.Stat(path); statErr == nil {
		index, err = bleve.Open(path)
	} else {
		index, err = bleve.New(path, indexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}

	s := &BleveStore{index: index, docs: map[string]Document{}, logger: logger}
	if path != "" {
		s.sidecarPath = path + "_docs.json"
		if err := s.loadSidecar(); err != nil {
			index.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *BleveStore) loadSidecar() error {
	data, err := os.ReadFile(s.sidecarPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading document sidecar: %w", err)
	}
	var records []sidecarRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("decoding document sidecar %s: %w", s.sidecarPath, err)
	}
	for _, rec := range records {
		doc := rec.Doc
		doc.Vector = rec.Vector
		s.docs[doc.ID] = doc
	}
	s.logger.Printf("loaded %d documents from sidecar", len(records))
	return nil
}

// saveSidecarLocked persists the document map; callers hold s.mu.
func (s *BleveStore) saveSidecarLocked() error {
	if s.sidecarPath == "" {
		return nil
	}
	records := make([]sidecarRecord, 0, len(s.docs))
	for _, doc := range s.docs {
		rec := sidecarRecord{Doc: doc, Vector: doc.Vector}
		rec.Doc.Vector = nil
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Doc.ID < records[j].Doc.ID })
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding document sidecar: %w", err)
	}
	tmp := s.sidecarPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing document sidecar: %w", err)
	}
	return os.Rename(tmp, s.sidecarPath)
}

func indexMapping() *mapping.IndexMappingImpl {
	m := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	textField := bleve.NewTextFieldMapping()
	docMapping.AddFieldMappingsAt("text", textField)

	regField := bleve.NewTextFieldMapping()
	regField.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("regulation", regField)
	docMapping.AddFieldMappingsAt("source_file", regField)

	m.DefaultMapping = docMapping
	return m
}

func (s *BleveStore) Upsert(ctx context.Context, docs []Document) error {
	batch := s.index.NewBatch()
	for _, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("document with empty id (regulation %s)", doc.Regulation)
		}
		if err := batch.Index(doc.ID, indexedDoc{
			Text:       doc.Text,
			Regulation: doc.Regulation,
			SourceFile: doc.SourceFile,
		}); err != nil {
			return fmt.Errorf("indexing %s: %w", doc.ID, err)
		}
	}
	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		s.docs[doc.ID] = doc
	}
	if err := s.saveSidecarLocked(); err != nil {
		return err
	}

	s.logger.Printf("indexed %d documents", len(docs))
	return nil
}

// Search runs keyword search, optionally fused with cosine similarity over
// the vector sidecar when opts.Alpha > 0 and a query vector is supplied.
func (s *BleveStore) Search(ctx context.Context, query string, opts SearchOptions) ([]Hit, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 5
	}

	keywordHits, err := s.keywordSearch(query, opts.Regulation, limit)
	if err != nil {
		return nil, err
	}

	if opts.Alpha <= 0 || len(opts.Vector) == 0 {
		return keywordHits, nil
	}

	vectorHits := s.vectorSearch(opts.Vector, opts.Regulation, limit)
	return s.fuseRRF(keywordHits, vectorHits, limit), nil
}

func (s *BleveStore) keywordSearch(query, regulation string, limit int) ([]Hit, error) {
	var searchQuery bquery.Query = bleve.NewQueryStringQuery(query)
	if regulation != "" {
		term := bleve.NewTermQuery(regulation)
		term.SetField("regulation")
		searchQuery = bleve.NewConjunctionQuery(searchQuery, term)
	}
	req := bleve.NewSearchRequestOptions(searchQuery, limit*3, 0, false)

	res, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Hit
	for _, hit := range res.Hits {
		doc, ok := s.docs[hit.ID]
		if !ok {
			continue
		}
		out = append(out, Hit{ID: hit.ID, Score: hit.Score, Document: doc})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *BleveStore) vectorSearch(vec []float32, regulation string, limit int) []Hit {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		id    string
		score float64
	}
	var scoreds []scored
	for id, doc := range s.docs {
		if len(doc.Vector) == 0 {
			continue
		}
		if regulation != "" && doc.Regulation != regulation {
			continue
		}
		sim := cosine(vec, doc.Vector)
		if sim <= 0 {
			continue
		}
		scoreds = append(scoreds, scored{id: id, score: sim})
	}
	sort.Slice(scoreds, func(i, j int) bool {
		if scoreds[i].score != scoreds[j].score {
			return scoreds[i].score > scoreds[j].score
		}
		return scoreds[i].id < scoreds[j].id
	})

	var out []Hit
	for _, sc := range scoreds {
		out = append(out, Hit{ID: sc.id, Score: sc.score, Document: s.docs[sc.id]})
		if len(out) >= limit {
			break
		}
	}
	return out
}

func (s *BleveStore) fuseRRF(a, b []Hit, limit int) []Hit {
	type agg struct {
		hit   Hit
		score float64
	}
	m := map[string]*agg{}
	add := func(list []Hit) {
		for rank, h := range list {
			x, ok := m[h.ID]
			if !ok {
				x = &agg{hit: h}
				m[h.ID] = x
			}
			x.score += 1.0 / float64(rrfK+rank+1)
		}
	}
	add(a)
	add(b)

	fused := make([]*agg, 0, len(m))
	for _, v := range m {
		fused = append(fused, v)
	}
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].score != fused[j].score {
			return fused[i].score > fused[j].score
		}
		return fused[i].hit.ID < fused[j].hit.ID
	})

	out := make([]Hit, 0, limit)
	for _, v := range fused {
		h := v.hit
		h.Score = v.score
		out = append(out, h)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func (s *BleveStore) Count() (uint64, error) {
	return s.index.DocCount()
}

func (s *BleveStore) DeleteRegulation(ctx context.Context, regulation string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.index.NewBatch()
	removed := 0
	for id, doc := range s.docs {
		if doc.Regulation != regulation {
			continue
		}
		batch.Delete(id)
		delete(s.docs, id)
		removed++
	}
	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("deleting %s documents: %w", regulation, err)
	}
	if err := s.saveSidecarLocked(); err != nil {
		return err
	}
	s.logger.Printf("removed %d documents for %s", removed, regulation)
	return nil
}

func (s *BleveStore) Close() error { return s.index.Close() }

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
