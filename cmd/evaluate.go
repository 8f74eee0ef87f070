package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/regulatech/compliancegpt/config"
	"github.com/regulatech/compliancegpt/internal/eval"
)

func evaluateCMD() *cobra.Command {
	var cfgPath string
	var questionsPath string
	var regulation string
	var outPath string
	var evaluate = &cobra.Command{
		Use:   "evaluate",
		Short: "Score the pipeline against a golden question set",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			logger := log.New(os.Stderr, "[EVAL] ", log.LstdFlags)
			ctx := context.Background()

			questions, err := eval.LoadGoldenQuestions(questionsPath)
			if err != nil {
				return err
			}

			st, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			engine, err := buildEngine(ctx, cfg, st)
			if err != nil {
				return err
			}

			report, err := eval.NewEvaluator(engine, logger).Run(ctx, regulation, questions)
			if err != nil {
				return err
			}
			fmt.Println(report.FormatSummary())
			if outPath != "" {
				if err := report.Save(outPath); err != nil {
					return err
				}
				fmt.Printf("report written to %s\n", outPath)
			}
			return nil
		},
	}
	evaluate.Flags().StringVar(&questionsPath, "questions", "data/golden_questions.json", "golden question file")
	evaluate.Flags().StringVar(&regulation, "regulation", "GDPR", "regulation under evaluation")
	evaluate.Flags().StringVar(&outPath, "out", "", "write the full JSON report to this path")
	evaluate.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	return evaluate
}
