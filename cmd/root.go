package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env is optional; real deployments configure through the environment
	if err := godotenv.Load(); err == nil {
		log.Printf("loaded environment from .env")
	}

	var root = &cobra.Command{Use: "compliancegpt"}

	root.AddCommand(
		serveCMD(),
		ingestCMD(),
		indexCMD(),
		queryCMD(),
		searchCMD(),
		compareCMD(),
		evaluateCMD(),
		migrateCMD(),
		watchCMD(),
	)
	_ = root.Execute()
}
