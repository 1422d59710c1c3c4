package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Retry failed documents whose backoff has elapsed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *runtime) error {
				summary, err := rt.sweeper.Sweep(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, summary)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Processed:          %d\n", summary.Processed)
				fmt.Fprintf(out, "Succeeded:          %d\n", summary.Succeeded)
				fmt.Fprintf(out, "Failed:             %d\n", summary.Failed)
				fmt.Fprintf(out, "Permanently failed: %d\n", summary.PermanentlyFailed)
				if summary.Reclaimed > 0 {
					fmt.Fprintf(out, "Reclaimed:          %d\n", summary.Reclaimed)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum records to process (0 uses the configured batch limit)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the summary as JSON")

	return cmd
}
