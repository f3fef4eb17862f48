package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var flagSource string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Run the batch fetch pipeline and rebuild the portfolio",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		// No credential, nothing to fetch: abort before any network call.
		if err := a.cfg.ValidateCredentials(); err != nil {
			return err
		}

		ctx := context.Background()
		switch flagSource {
		case "":
			return a.svc.RunBatch(ctx)
		case "google", "tripadvisor":
			if _, err := a.svc.RunSourceByName(ctx, flagSource); err != nil {
				return err
			}
			return a.svc.RunMerge(ctx)
		default:
			return fmt.Errorf("unknown source %q (want google or tripadvisor)", flagSource)
		}
	},
}

func init() {
	fetchCmd.Flags().StringVar(&flagSource, "source", "", "Fetch only one source (google or tripadvisor)")
	rootCmd.AddCommand(fetchCmd)
}
