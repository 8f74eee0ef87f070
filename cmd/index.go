package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/regulatech/compliancegpt/config"
	"github.com/regulatech/compliancegpt/internal/ingest"
)

func indexCMD() *cobra.Command {
	var cfgPath string
	var rebuild bool
	var index = &cobra.Command{
		Use:   "index [chunk-file...]",
		Short: "Index chunk files into the document store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			logger := log.New(os.Stderr, "[INDEX] ", log.LstdFlags)
			ctx := context.Background()

			paths := args
			if len(paths) == 0 {
				found, err := ingest.ListChunkFiles(cfg.Storage.ChunkDir)
				if err != nil {
					return err
				}
				paths = found
			}
			if len(paths) == 0 {
				return fmt.Errorf("no chunk files found under %s; run ingest first", cfg.Storage.ChunkDir)
			}

			st, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			total := 0
			for _, path := range paths {
				set, err := ingest.LoadChunkSet(path)
				if err != nil {
					return err
				}
				if rebuild {
					if err := st.DeleteRegulation(ctx, set.Regulation); err != nil {
						return fmt.Errorf("clearing %s: %w", set.Regulation, err)
					}
				}
				docs := chunksToDocuments(set.Chunks)
				if err := embedDocuments(ctx, cfg, logger, docs); err != nil {
					return err
				}
				if err := st.Upsert(ctx, docs); err != nil {
					return fmt.Errorf("indexing %s: %w", path, err)
				}
				total += len(set.Chunks)
				fmt.Printf("%s: indexed %d chunks\n", set.Regulation, len(set.Chunks))
			}

			count, err := st.Count()
			if err != nil {
				return err
			}
			fmt.Printf("indexed %d chunks, store now holds %d documents\n", total, count)
			return nil
		},
	}
	index.Flags().BoolVar(&rebuild, "rebuild", false, "delete existing documents for each regulation before indexing")
	index.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	return index
}
