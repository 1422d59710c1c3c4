package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"intake/internal/docstore"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var (
		ownerID string
		kind    string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "batch [url ...]",
		Short: "Ingest several documents concurrently",
		Long:  "Ingest several documents concurrently. URLs come from arguments, or from stdin (one per line) when no arguments are given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := args
			if len(urls) == 0 {
				scanned, err := readLines(os.Stdin)
				if err != nil {
					return fmt.Errorf("read urls from stdin: %w", err)
				}
				urls = scanned
			}
			if len(urls) == 0 {
				return fmt.Errorf("no source urls provided")
			}

			return ctx.withRuntime(cmd, func(rt *runtime) error {
				requests := make([]docstore.CreateParams, len(urls))
				for i, url := range urls {
					requests[i] = docstore.CreateParams{
						OwnerID:      ownerID,
						DocumentKind: docstore.DocumentKind(kind),
						SourceURL:    url,
						SourceType:   "url",
					}
				}

				results := rt.orch.IngestBatch(cmd.Context(), requests)
				if asJSON {
					records := make([]*docstore.Record, 0, len(results))
					for _, result := range results {
						if result.Err != nil {
							return result.Err
						}
						records = append(records, result.Record)
					}
					return writeJSON(cmd, records)
				}

				rows := make([][]string, 0, len(results))
				failures := 0
				for _, result := range results {
					if result.Err != nil {
						return result.Err
					}
					record := result.Record
					errCol := ""
					if record.ErrorCode != "" {
						errCol = string(record.ErrorCode)
						failures++
					}
					rows = append(rows, []string{
						record.ID,
						string(record.Status),
						errCol,
						record.SourceURL,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "STATUS", "ERROR", "SOURCE"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				))
				fmt.Fprintf(cmd.OutOrStdout(), "%d of %d completed\n", len(results)-failures, len(results))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "Owner the documents belong to (required)")
	cmd.Flags().StringVar(&kind, "kind", string(docstore.KindOther), "Document kind applied to every url")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit full records as JSON")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

func readLines(file *os.File) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
