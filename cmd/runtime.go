package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/regulatech/compliancegpt/config"
	"github.com/regulatech/compliancegpt/internal/citation"
	"github.com/regulatech/compliancegpt/internal/ingest"
	"github.com/regulatech/compliancegpt/internal/retrieval"
	"github.com/regulatech/compliancegpt/internal/session"
	"github.com/regulatech/compliancegpt/internal/store"
	"github.com/regulatech/compliancegpt/internal/websearch"
	"github.com/regulatech/compliancegpt/provider"
)

func openStore(cfg *config.Config, logger *log.Logger) (*store.BleveStore, error) {
	path := cfg.Storage.Index.Path
	if cfg.Storage.Index.InMemory {
		path = ""
	}
	return store.NewBleveStore(path, logger)
}

func newEnricher(cfg *config.Config, logger *log.Logger) *websearch.Enricher {
	if !cfg.WebSearch.Enabled {
		return nil
	}
	var client *websearch.Client
	if cfg.WebSearch.APIKey != "" {
		client = websearch.NewClient(cfg.WebSearch.APIKey, logger)
	}
	return websearch.NewEnricher(client, logger)
}

func buildEngine(ctx context.Context, cfg *config.Config, st store.DocumentStore) (*citation.Engine, error) {
	llm, err := provider.NewProvider(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	retriever := retrieval.NewHybridRetriever(st, queryEmbedder(cfg, llm, nil), cfg.Retrieval.TopK, cfg.Retrieval.Alpha, nil)
	return citation.NewEngine(retriever, llm, newEnricher(cfg, nil), nil)
}

// queryEmbedder returns the provider's embedder when hybrid search is on.
// A provider without embedding support yields nil plus a warning, so search
// degrades to keyword-only instead of failing.
func queryEmbedder(cfg *config.Config, llm provider.Provider, logger *log.Logger) retrieval.Embedder {
	if cfg.Retrieval.Alpha <= 0 {
		return nil
	}
	emb, ok := llm.(provider.Embedder)
	if !ok {
		if logger != nil {
			logger.Printf("warning: retrieval.alpha=%.2f but the %s provider cannot embed, keyword search only", cfg.Retrieval.Alpha, cfg.LLM.Provider)
		}
		return nil
	}
	return emb
}

// embedDocuments fills document vectors before indexing when hybrid search
// is enabled. Chunks are embedded in batches to respect provider limits.
func embedDocuments(ctx context.Context, cfg *config.Config, logger *log.Logger, docs []store.Document) error {
	if cfg.Retrieval.Alpha <= 0 || len(docs) == 0 {
		return nil
	}
	llm, err := provider.NewProvider(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	emb := queryEmbedder(cfg, llm, logger)
	if emb == nil {
		return nil
	}

	const batchSize = 64
	for start := 0; start < len(docs); start += batchSize {
		end := start + batchSize
		if end > len(docs) {
			end = len(docs)
		}
		texts := make([]string, 0, end-start)
		for _, d := range docs[start:end] {
			texts = append(texts, d.Text)
		}
		vecs, err := emb.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding chunks: %w", err)
		}
		if len(vecs) != len(texts) {
			return fmt.Errorf("embedding returned %d vectors for %d chunks", len(vecs), len(texts))
		}
		for i, v := range vecs {
			docs[start+i].Vector = v
		}
	}
	logger.Printf("embedded %d chunks for hybrid search", len(docs))
	return nil
}

func newSessionStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	switch cfg.Server.SessionBackend {
	case "postgres":
		if err := cfg.Storage.Postgres.Validate(); err != nil {
			return nil, err
		}
		return session.NewPostgresStore(ctx, cfg.Storage.Postgres.DSN())
	case "redis":
		return session.NewRedisStore(ctx, cfg.Storage.Redis.Addr(), cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, 0)
	case "", "memory":
		return session.NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Server.SessionBackend)
	}
}

// regulationFromFilename derives a regulation name from a document path,
// e.g. data/docs/gdpr.pdf -> GDPR.
func regulationFromFilename(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ToUpper(name)
}

// chunksToDocuments maps persisted chunks to index documents.
func chunksToDocuments(chunks []ingest.Chunk) []store.Document {
	docs := make([]store.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = store.Document{
			ID:         c.ChunkID,
			Text:       c.Text,
			Regulation: c.Metadata.Regulation,
			SourceFile: c.SourceFile,
			Pages:      c.PageNumbers,
			ChunkIndex: c.Metadata.ChunkIndex,
		}
	}
	return docs
}
