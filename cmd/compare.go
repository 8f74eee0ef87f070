package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/regulatech/compliancegpt/config"
)

func compareCMD() *cobra.Command {
	var cfgPath string
	var regulations []string
	var topK int
	var compare = &cobra.Command{
		Use:   "compare <question>",
		Short: "Answer a question across multiple regulations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(regulations) < 2 {
				return fmt.Errorf("comparison requires at least two --regulation values")
			}
			cfg := config.LoadConfig(cfgPath)
			logger := log.New(os.Stderr, "[COMPARE] ", log.LstdFlags)
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

			resp, err := engine.Compare(ctx, strings.Join(args, " "), regulations, topK)
			if err != nil {
				return err
			}
			fmt.Println(resp.FormatFullResponse())
			return nil
		},
	}
	compare.Flags().StringSliceVar(&regulations, "regulation", nil, "regulation to compare (repeat, at least two)")
	compare.Flags().IntVar(&topK, "top-k", 3, "chunks to retrieve per regulation")
	compare.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	return compare
}
