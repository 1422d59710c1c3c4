package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"intake/internal/docstore"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show record counts and database health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *runtime) error {
				summary, err := rt.store.Health(cmd.Context())
				if err != nil {
					return err
				}
				dbHealth, dbErr := rt.store.CheckHealth(cmd.Context())

				if asJSON {
					return writeJSON(cmd, struct {
						Records  docstore.HealthSummary  `json:"records"`
						Database docstore.DatabaseHealth `json:"database"`
					}{Records: summary, Database: dbHealth})
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				fmt.Fprintln(out, "Documents")
				fmt.Fprintf(out, "  %-18s %d\n", "Total:", summary.Total)
				fmt.Fprintf(out, "  %-18s %d\n", "Pending:", summary.Pending)
				fmt.Fprintf(out, "  %-18s %d\n", "Processing:", summary.Processing)
				fmt.Fprintf(out, "  %-18s %d\n", "Completed:", summary.Completed)
				fmt.Fprintf(out, "  %-18s %d\n", "Failed:", summary.Failed)
				fmt.Fprintf(out, "  %-18s %d\n", "Exhausted:", summary.Exhausted)
				fmt.Fprintln(out)

				fmt.Fprintln(out, "Database")
				fmt.Fprintf(out, "  %-18s %s\n", "Path:", dbHealth.DBPath)
				if dbErr != nil {
					fmt.Fprintln(out, renderCheckLine("Health", checkFail, dbErr.Error(), colorize))
					return nil
				}
				fmt.Fprintln(out, renderCheckLine("Readable", stateFor(dbHealth.DatabaseReadable), "", colorize))
				fmt.Fprintln(out, renderCheckLine("Schema", stateFor(dbHealth.TableExists && len(dbHealth.MissingColumns) == 0), schemaDetail(dbHealth), colorize))
				fmt.Fprintln(out, renderCheckLine("Integrity", stateFor(dbHealth.IntegrityCheck), "", colorize))

				fmt.Fprintln(out)
				fmt.Fprintln(out, "Storage")
				fmt.Fprintf(out, "  %-18s %s\n", "Backend:", rt.cfg.Storage.Backend)
				fmt.Fprintf(out, "  %-18s %s\n", "Bucket:", rt.blobs.Bucket())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit status as JSON")

	return cmd
}

func stateFor(ok bool) checkState {
	if ok {
		return checkOK
	}
	return checkFail
}

func schemaDetail(health docstore.DatabaseHealth) string {
	if !health.TableExists {
		return "document_records table missing"
	}
	if len(health.MissingColumns) > 0 {
		return "missing columns: " + strings.Join(health.MissingColumns, ", ")
	}
	return ""
}
