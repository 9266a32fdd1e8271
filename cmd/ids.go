package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/beehive-research/foundation-scout/internal/export"
	"github.com/beehive-research/foundation-scout/internal/fetcher"
)

var (
	idsInput  string
	idsOutput string
)

var idsCmd = &cobra.Command{
	Use:   "ids",
	Short: "Assign stable foundation IDs from the raw foundations spreadsheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		foundations, err := fetcher.ReadFoundations(idsInput)
		if err != nil {
			return err
		}

		if err := st.ReplaceFoundations(ctx, foundations); err != nil {
			return err
		}

		out := idsOutput
		if out == "" {
			out = dataPath("foundations_with_ids.xlsx")
		}
		if err := export.WriteFoundations(out, foundations); err != nil {
			return err
		}

		zap.L().Info("ids: done",
			zap.Int("foundations", len(foundations)),
			zap.String("output", out),
		)
		return nil
	},
}

func init() {
	idsCmd.Flags().StringVar(&idsInput, "input", "", "raw foundations XLSX file (required)")
	idsCmd.Flags().StringVar(&idsOutput, "output", "", "ID-assigned XLSX output path")
	_ = idsCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(idsCmd)
}
