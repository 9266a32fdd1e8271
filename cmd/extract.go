package main

import (
	"github.com/spf13/cobra"

	"github.com/beehive-research/foundation-scout/internal/checkpoint"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract structured opportunities from selected pages with Claude",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		processed, err := checkpoint.OpenFileSet(cfg.Paths.ProgressLog)
		if err != nil {
			return err
		}
		defer processed.Close()

		return newPipeline(st).Extract(ctx, processed)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
