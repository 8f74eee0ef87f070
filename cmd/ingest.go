package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/regulatech/compliancegpt/config"
	"github.com/regulatech/compliancegpt/internal/ingest"
)

func ingestCMD() *cobra.Command {
	var cfgPath string
	var regulation string
	var ingestCmd = &cobra.Command{
		Use:   "ingest [pdf...]",
		Short: "Extract and chunk regulation PDFs into chunk files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			logger := log.New(os.Stderr, "[INGEST] ", log.LstdFlags)

			paths := args
			if len(paths) == 0 {
				matches, err := filepath.Glob(filepath.Join(cfg.Storage.DocDir, "*.pdf"))
				if err != nil {
					return err
				}
				paths = matches
			}
			if len(paths) == 0 {
				return fmt.Errorf("no PDF documents found under %s", cfg.Storage.DocDir)
			}

			tokenizer, err := ingest.NewBPETokenizer(cfg.Chunking.Encoding)
			if err != nil {
				return err
			}
			chunker, err := ingest.NewChunker(tokenizer, cfg.Chunking.TargetTokens, cfg.Chunking.OverlapTokens, logger)
			if err != nil {
				return err
			}
			extractor := ingest.NewPDFExtractor(logger)

			for _, path := range paths {
				reg := regulation
				if reg == "" {
					reg = regulationFromFilename(path)
				}
				elements, err := extractor.Extract(path)
				if err != nil {
					return fmt.Errorf("extracting %s: %w", path, err)
				}
				chunks := chunker.Chunk(elements, reg)
				out, err := ingest.SaveChunkSet(cfg.Storage.ChunkDir, reg, chunks)
				if err != nil {
					return err
				}
				fmt.Printf("%s: %d chunks -> %s\n", strings.ToUpper(reg), len(chunks), out)
			}
			return nil
		},
	}
	ingestCmd.Flags().StringVar(&regulation, "regulation", "", "regulation name (default derived from filename)")
	ingestCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	return ingestCmd
}
