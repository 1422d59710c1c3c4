package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"intake/internal/docstore"
)

func newDocumentsCommand(ctx *commandContext) *cobra.Command {
	documentsCmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "Inspect and manage document records",
	}

	documentsCmd.AddCommand(newDocumentsListCommand(ctx))
	documentsCmd.AddCommand(newDocumentsShowCommand(ctx))
	documentsCmd.AddCommand(newDocumentsRetryCommand(ctx))
	documentsCmd.AddCommand(newDocumentsDeleteCommand(ctx))

	return documentsCmd
}

func newDocumentsListCommand(ctx *commandContext) *cobra.Command {
	var (
		owner      string
		statusList []string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List document records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]docstore.Status, 0, len(statusList))
			for _, value := range statusList {
				status, ok := docstore.ParseStatus(value)
				if !ok {
					return fmt.Errorf("unknown status %q", value)
				}
				statuses = append(statuses, status)
			}

			return ctx.withRuntime(cmd, func(rt *runtime) error {
				var (
					records []*docstore.Record
					err     error
				)
				if owner != "" {
					records, err = rt.store.ListByOwner(cmd.Context(), owner, statuses...)
				} else {
					records, err = rt.store.List(cmd.Context(), statuses...)
				}
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, records)
				}

				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No documents found.")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, record := range records {
					rows = append(rows, []string{
						record.ID,
						record.OwnerID,
						string(record.DocumentKind),
						string(record.Status),
						strconv.Itoa(record.RetryCount),
						string(record.ErrorCode),
						record.CreatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "OWNER", "KIND", "STATUS", "RETRIES", "ERROR", "CREATED"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Only list documents for this owner")
	cmd.Flags().StringSliceVar(&statusList, "status", nil, "Filter by status (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit full records as JSON")

	return cmd
}

func newDocumentsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <document-id>",
		Short: "Show one document record in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *runtime) error {
				record, err := rt.store.GetByID(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if record == nil {
					return fmt.Errorf("document %s not found", args[0])
				}
				if asJSON {
					return writeJSON(cmd, record)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:             %s\n", record.ID)
				fmt.Fprintf(out, "Owner:          %s\n", record.OwnerID)
				fmt.Fprintf(out, "Kind:           %s (%s)\n", record.DocumentKind, record.DocumentCategory)
				fmt.Fprintf(out, "Status:         %s\n", record.Status)
				fmt.Fprintf(out, "Source:         %s\n", record.SourceURL)
				if record.AssociatedID != "" {
					fmt.Fprintf(out, "Attached to:    %s/%s\n", record.AssociatedWith, record.AssociatedID)
				}
				if record.StoragePath != "" {
					fmt.Fprintf(out, "Storage:        %s (%s)\n", record.StoragePath, record.StorageBucket)
					fmt.Fprintf(out, "Size:           %d bytes (%s)\n", record.FileSize, record.MimeType)
					fmt.Fprintf(out, "Checksum:       %s\n", record.CurrentChecksum)
				}
				if record.SignedURL != "" {
					fmt.Fprintf(out, "Signed URL:     %s\n", record.SignedURL)
					if record.SignedURLExpiresAt != nil {
						fmt.Fprintf(out, "URL expires:    %s\n", formatTime(*record.SignedURLExpiresAt))
					}
				}
				fmt.Fprintf(out, "Retries:        %d of %d\n", record.RetryCount, record.MaxRetries)
				if record.ErrorCode != "" {
					fmt.Fprintf(out, "Error:          %s\n", record.ErrorCode)
					fmt.Fprintf(out, "Error message:  %s\n", record.ErrorMessage)
				}
				if record.NextRetryAt != nil {
					fmt.Fprintf(out, "Next retry:     %s\n", formatTime(*record.NextRetryAt))
				}
				if record.LastRetryAt != nil {
					fmt.Fprintf(out, "Last retry:     %s\n", formatTime(*record.LastRetryAt))
				}
				fmt.Fprintf(out, "Created:        %s\n", formatTime(record.CreatedAt))
				fmt.Fprintf(out, "Updated:        %s\n", formatTime(record.UpdatedAt))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the full record as JSON")

	return cmd
}

func newDocumentsRetryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retry <document-id>",
		Short: "Re-run ingestion for a failed document now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *runtime) error {
				record, err := rt.sweeper.SweepOne(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printRecordSummary(cmd, record)
				if record.Status == docstore.StatusFailed {
					return fmt.Errorf("retry failed: %s", record.ErrorCode)
				}
				return nil
			})
		},
	}
	return cmd
}

func newDocumentsDeleteCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Soft-delete a document record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *runtime) error {
				deleted, err := rt.store.SoftDelete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !deleted {
					return fmt.Errorf("document %s not found", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
	return cmd
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}
