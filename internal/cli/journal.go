package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"calm/internal/storage"
)

// JournalReader is the read side of the duration journal.
type JournalReader interface {
	ListByTask(ctx context.Context, taskID string) ([]storage.JournalEntry, error)
	TotalsByTask(ctx context.Context) ([]storage.TaskTotal, error)
}

// NewJournalCommand builds the journal inspection CLI.
func NewJournalCommand(journal JournalReader) *cobra.Command {
	var asJSON bool

	root := &cobra.Command{
		Use:           "calm-journal",
		Short:         "Inspect the journal of time written back to tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	root.AddCommand(&cobra.Command{
		Use:   "totals",
		Short: "Hours added per task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			totals, err := journal.TotalsByTask(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), totals)
			}
			return writeTotals(cmd.OutOrStdout(), totals)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "list TASK_ID",
		Short: "Write-backs recorded for one task, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := journal.ListByTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			return writeEntries(cmd.OutOrStdout(), entries)
		},
	})

	return root
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTotals(w io.Writer, totals []storage.TaskTotal) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tENTRIES\tADDED\tTOTAL\tLAST SAVED")
	for _, t := range totals {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%s\n", t.TaskID, t.Entries, t.AddedHours, t.LastTotal, t.LastSaved.Format(time.RFC3339))
	}
	return tw.Flush()
}

func writeEntries(w io.Writer, entries []storage.JournalEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SAVED\tADDED\tTOTAL\tEVENT")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%s\n", e.SavedAt.Format(time.RFC3339), e.AddedHours, e.TotalHours, e.EventID)
	}
	return tw.Flush()
}
