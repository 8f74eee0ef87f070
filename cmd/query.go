package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/regulatech/compliancegpt/config"
	"github.com/regulatech/compliancegpt/internal/citation"
)

func queryCMD() *cobra.Command {
	var cfgPath string
	var regulation string
	var topK int
	var query = &cobra.Command{
		Use:   "query <question>",
		Short: "Answer a compliance question with citations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			logger := log.New(os.Stderr, "[QUERY] ", log.LstdFlags)
			ctx := context.Background()

			st, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			engine, err := buildEngine(ctx, cfg, st)
			if err != nil {
				return err
			}

			question := strings.Join(args, " ")
			resp, err := engine.Query(ctx, question, citation.QueryOptions{
				RegulationFilter: regulation,
				TopK:             topK,
			})
			if err != nil {
				return err
			}
			fmt.Println(resp.FormatFullResponse())
			return nil
		},
	}
	query.Flags().StringVar(&regulation, "regulation", "", "restrict retrieval to one regulation")
	query.Flags().IntVar(&topK, "top-k", 0, "number of chunks to retrieve (default from config)")
	query.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	return query
}
