package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"intake/internal/docstore"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var (
		ownerID        string
		kind           string
		sourceType     string
		sourceField    string
		associatedWith string
		associatedID   string
		asJSON         bool
	)

	cmd := &cobra.Command{
		Use:   "ingest <source-url>",
		Short: "Fetch a remote document and store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *runtime) error {
				record, err := rt.orch.Ingest(cmd.Context(), docstore.CreateParams{
					OwnerID:        ownerID,
					DocumentKind:   docstore.DocumentKind(kind),
					SourceURL:      args[0],
					SourceType:     sourceType,
					SourceField:    sourceField,
					AssociatedWith: associatedWith,
					AssociatedID:   associatedID,
				})
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, record)
				}
				printRecordSummary(cmd, record)
				if record.Status == docstore.StatusFailed {
					return fmt.Errorf("ingestion failed: %s", record.ErrorCode)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "Owner the document belongs to (required)")
	cmd.Flags().StringVar(&kind, "kind", string(docstore.KindOther), "Document kind (license_photo, vehicle_photo, map_screenshot, damage_photo, other)")
	cmd.Flags().StringVar(&sourceType, "source-type", "url", "How the source was provided")
	cmd.Flags().StringVar(&sourceField, "source-field", "", "Upstream form field the URL came from")
	cmd.Flags().StringVar(&associatedWith, "associated-with", "", "Entity type the document attaches to")
	cmd.Flags().StringVar(&associatedID, "associated-id", "", "Entity id the document attaches to")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the full record as JSON")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

func printRecordSummary(cmd *cobra.Command, record *docstore.Record) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Document:  %s\n", record.ID)
	fmt.Fprintf(out, "Status:    %s\n", record.Status)
	if record.StoragePath != "" {
		fmt.Fprintf(out, "Stored at: %s\n", record.StoragePath)
	}
	if record.SignedURL != "" {
		fmt.Fprintf(out, "URL:       %s\n", record.SignedURL)
	}
	if record.ErrorCode != "" {
		fmt.Fprintf(out, "Error:     %s (%s)\n", record.ErrorCode, record.ErrorMessage)
		if record.NextRetryAt != nil {
			fmt.Fprintf(out, "Retry at:  %s\n", record.NextRetryAt.Local().Format("2006-01-02 15:04:05"))
		}
	}
}
