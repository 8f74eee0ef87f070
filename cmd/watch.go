package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/regulatech/compliancegpt/config"
	"github.com/regulatech/compliancegpt/internal/ingest"
)

func watchCMD() *cobra.Command {
	var cfgPath string
	var watch = &cobra.Command{
		Use:   "watch",
		Short: "Watch the document directory and re-index on changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			logger := log.New(os.Stderr, "[WATCH] ", log.LstdFlags)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			tokenizer, err := ingest.NewBPETokenizer(cfg.Chunking.Encoding)
			if err != nil {
				return err
			}
			chunker, err := ingest.NewChunker(tokenizer, cfg.Chunking.TargetTokens, cfg.Chunking.OverlapTokens, logger)
			if err != nil {
				return err
			}
			extractor := ingest.NewPDFExtractor(logger)

			st, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			watcher, err := ingest.NewWatcher(logger)
			if err != nil {
				return err
			}
			defer watcher.Close()
			if err := watcher.Watch(cfg.Storage.DocDir); err != nil {
				return err
			}

			go func() {
				if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
					logger.Printf("watcher stopped: %v", err)
				}
			}()

			logger.Printf("watching %s for document changes", cfg.Storage.DocDir)
			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-watcher.Events():
					if !ok {
						return nil
					}
					reg := regulationFromFilename(ev.Path)
					if ev.Op == "remove" {
						logger.Printf("%s removed, dropping %s from index", ev.Path, reg)
						if err := st.DeleteRegulation(ctx, reg); err != nil {
							logger.Printf("error dropping %s: %v", reg, err)
						}
						continue
					}

					logger.Printf("%s %s, re-ingesting %s", ev.Path, ev.Op, reg)
					elements, err := extractor.Extract(ev.Path)
					if err != nil {
						logger.Printf("error extracting %s: %v", ev.Path, err)
						continue
					}
					chunks := chunker.Chunk(elements, reg)
					if _, err := ingest.SaveChunkSet(cfg.Storage.ChunkDir, reg, chunks); err != nil {
						logger.Printf("error saving chunks for %s: %v", reg, err)
						continue
					}
					docs := chunksToDocuments(chunks)
					if err := embedDocuments(ctx, cfg, logger, docs); err != nil {
						logger.Printf("error embedding %s: %v", reg, err)
						continue
					}
					if err := st.DeleteRegulation(ctx, reg); err != nil {
						logger.Printf("error clearing %s: %v", reg, err)
						continue
					}
					if err := st.Upsert(ctx, docs); err != nil {
						logger.Printf("error indexing %s: %v", reg, err)
						continue
					}
					logger.Printf("%s re-indexed (%d chunks)", reg, len(chunks))
				}
			}
		},
	}
	watch.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	return watch
}
