package main

import (
	"github.com/spf13/cobra"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Search each foundation's domain for candidate funding pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		return newPipeline(st).Discover(ctx)
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}
