package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/beehive-research/foundation-scout/internal/export"
)

var resolveOutput string

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Dedupe opportunities and resolve state eligibility",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := newPipeline(st).Resolve(ctx); err != nil {
			return err
		}

		foundations, err := st.ListFoundations(ctx)
		if err != nil {
			return err
		}
		resolved, err := st.ListResolved(ctx)
		if err != nil {
			return err
		}

		out := resolveOutput
		if out == "" {
			out = dataPath("foundations_and_opportunities.xlsx")
		}
		if err := export.WriteResolved(out, foundations, resolved); err != nil {
			return err
		}

		zap.L().Info("resolve: exported", zap.String("output", out))
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveOutput, "output", "", "two-tab XLSX output path")
	rootCmd.AddCommand(resolveCmd)
}
