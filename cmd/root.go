package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/county-atlas/internal/classify"
	"github.com/sells-group/county-atlas/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "county-atlas",
	Short: "County health indicator choropleth engine",
	Long:  "Classifies county-level health indicators into natural or quantile breaks, joins them to county geometry, and renders choropleth maps with collision-avoiding callout labels.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		if cfg.Classify.PaletteFile != "" {
			if err := classify.LoadPaletteFile(cfg.Classify.PaletteFile); err != nil {
				return fmt.Errorf("load palette file: %w", err)
			}
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
