package main

import (
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch candidate pages and extract their text",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		return newPipeline(st).FetchPages(ctx)
	},
}

var triageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Classify fetched pages as likely-funding or noise",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		return newPipeline(st).Triage(ctx)
	},
}

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Cap the likely-funding pages per foundation for extraction",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		return newPipeline(st).SelectPages(ctx)
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd, triageCmd, selectCmd)
}
