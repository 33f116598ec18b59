package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/devrihan/xeno-shopify/cmd/worker"
)

var (
	cfgPath string
	rootCmd = &cobra.Command{
		Use:   "xeno-shopify",
		Short: "Multi-tenant Shopify ingestion pipeline",
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(producerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(worker.NewWorkerCmd())
}
