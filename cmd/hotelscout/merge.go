package main

import (
	"context"

	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Rebuild the portfolio and metadata files from existing source results",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		// Merge only reads already-persisted files; no credential needed.
		return a.svc.RunMerge(context.Background())
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
