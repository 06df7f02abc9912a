package main

import (
	"firefly/internal/config"

	"github.com/spf13/cobra"
)

// newRootCmd firefly-docgen：独立文档服务与本地盖章工具
func newRootCmd() *cobra.Command {
	cfg := config.Load()

	root := &cobra.Command{
		Use:           "firefly-docgen",
		Short:         "Fill fire-safety report templates from placeholder values",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfg.Document.PositionsFile, "positions", cfg.Document.PositionsFile, "position table YAML (default: embedded table)")
	root.PersistentFlags().StringVar(&cfg.Document.Font, "font", cfg.Document.Font, "standard font: Helvetica, Times or Courier")

	root.AddCommand(
		newServeCmd(cfg),
		newStampCmd(cfg),
		newPositionsCmd(cfg),
	)
	return root
}
