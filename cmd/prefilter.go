package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/beehive-research/foundation-scout/internal/export"
)

var prefilterOutput string

var prefilterCmd = &cobra.Command{
	Use:   "prefilter",
	Short: "Drop obvious non-funding rows before classification",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := newPipeline(st).Prefilter(ctx); err != nil {
			return err
		}

		results, err := st.ListPrefiltered(ctx, false)
		if err != nil {
			return err
		}

		out := prefilterOutput
		if out == "" {
			out = dataPath("foundations_and_opportunities_PREFILTERED.xlsx")
		}
		if err := export.WritePrefiltered(out, results); err != nil {
			return err
		}

		zap.L().Info("prefilter: exported", zap.String("output", out))
		return nil
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify rows as real prospective funding with Claude",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		return newPipeline(st).Classify(ctx)
	},
}

var demoteCmd = &cobra.Command{
	Use:   "demote",
	Short: "Demote unclear rows that match retrospective-content rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		return newPipeline(st).Demote(ctx)
	},
}

func init() {
	prefilterCmd.Flags().StringVar(&prefilterOutput, "output", "", "prefiltered XLSX output path")
	rootCmd.AddCommand(prefilterCmd, classifyCmd, demoteCmd)
}
