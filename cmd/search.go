package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/regulatech/compliancegpt/config"
	"github.com/regulatech/compliancegpt/internal/retrieval"
	"github.com/regulatech/compliancegpt/provider"
)

func searchCMD() *cobra.Command {
	var cfgPath string
	var regulation string
	var topK int
	var search = &cobra.Command{
		Use:   "search <query>",
		Short: "Run hybrid retrieval without answer generation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			logger := log.New(os.Stderr, "[SEARCH] ", log.LstdFlags)
			ctx := context.Background()

			st, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			var emb retrieval.Embedder
			if cfg.Retrieval.Alpha > 0 {
				llm, err := provider.NewProvider(ctx, cfg.LLM)
				if err != nil {
					return err
				}
				emb = queryEmbedder(cfg, llm, logger)
			}
			retriever := retrieval.NewHybridRetriever(st, emb, cfg.Retrieval.TopK, cfg.Retrieval.Alpha, logger)
			results, err := retriever.Search(ctx, strings.Join(args, " "), retrieval.Options{
				TopK:             topK,
				RegulationFilter: regulation,
			})
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("no results")
				return nil
			}
			for i, r := range results {
				fmt.Printf("[%d] %s (%s, score %.4f)\n", i+1, r.ChunkID, r.Regulation, r.Score)
				fmt.Printf("    %s\n", clipLine(r.Text, 200))
			}
			return nil
		},
	}
	search.Flags().StringVar(&regulation, "regulation", "", "restrict retrieval to one regulation")
	search.Flags().IntVar(&topK, "top-k", 0, "number of chunks to retrieve (default from config)")
	search.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	return search
}

func clipLine(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
