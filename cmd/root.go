package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/beehive-research/foundation-scout/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "foundation-scout",
	Short: "Foundation funding opportunity pipeline",
	Long:  "Discovers foundation web pages via search, extracts funding opportunities with Claude, then dedupes, filters, and classifies them into a clean opportunity table.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		// Tag every log line from this invocation so interleaved stage runs
		// can be told apart.
		zap.ReplaceGlobals(zap.L().With(zap.String("run_id", uuid.NewString())))

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
