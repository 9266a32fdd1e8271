package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/beehive-research/foundation-scout/internal/export"
	"github.com/beehive-research/foundation-scout/internal/model"
	"github.com/beehive-research/foundation-scout/internal/store"
)

var (
	exportStage  string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export classified or demoted rows to XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		var (
			records []model.ClassificationRecord
			defName string
		)
		switch exportStage {
		case "classified":
			records, err = st.ListClassified(ctx)
			defName = "classified_opportunities.xlsx"
		case "demoted":
			records, err = st.ListDemoted(ctx)
			defName = "classified_opportunities_rule_demoted.xlsx"
		default:
			return eris.Errorf("unknown export stage %q (want classified or demoted)", exportStage)
		}
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return eris.Errorf("no %s rows to export", exportStage)
		}

		out := exportOutput
		if out == "" {
			out = dataPath(defName)
		}
		if err := export.WriteClassified(out, records); err != nil {
			return err
		}

		zap.L().Info("export: done",
			zap.String("stage", exportStage),
			zap.Int("rows", len(records)),
			zap.String("output", out),
		)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-stage row counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		counts, err := newPipeline(st).StageCounts(ctx)
		if err != nil {
			return err
		}

		for _, stage := range store.Stages() {
			cmd.Printf("%-28s %d\n", stage, counts[stage])
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportStage, "stage", "classified", "which table to export: classified or demoted")
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "XLSX output path")
	rootCmd.AddCommand(exportCmd, statusCmd)
}
