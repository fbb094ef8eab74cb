package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/huntwise/drawcore/internal/airlock"
	"github.com/huntwise/drawcore/internal/capture"
	"github.com/huntwise/drawcore/internal/queue"
	"github.com/huntwise/drawcore/internal/store"
)

// NewQueueCommand creates the queue command group.
func NewQueueCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Manage the airlock review queue",
	}

	cmd.AddCommand(newQueueListCommand(rootOpts))
	cmd.AddCommand(newQueueShowCommand(rootOpts))
	cmd.AddCommand(newQueueApproveCommand(rootOpts))
	cmd.AddCommand(newQueueRejectCommand(rootOpts))
	cmd.AddCommand(newQueueHistoryCommand(rootOpts))

	return cmd
}

func newQueueListCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dbPath string
		status string
	)

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List review queue entries",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			svc, closeStore, err := openService(formatter, dbPath)
			if err != nil {
				return err
			}
			defer closeStore()

			entries, err := svc.List(airlock.QueueStatus(status))
			if err != nil {
				return outputCommandError(formatter, ErrCodeStore, err.Error())
			}

			if formatter.Format == "json" {
				return formatter.Success(entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(formatter.Writer, "Queue is empty.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(formatter.Writer, "%s  %-13s %s  %s\n", e.ID, e.Status, e.StateID, e.Summary)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "review queue database (required)")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (quarantined|approved|rejected|auto_approved)")
	cmd.MarkFlagRequired("db")

	return cmd
}

func newQueueShowCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:           "show <entry-id>",
		Short:         "Show one review queue entry with its diffs",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			svc, closeStore, err := openService(formatter, dbPath)
			if err != nil {
				return err
			}
			defer closeStore()

			entry, err := svc.Get(args[0])
			if err != nil {
				return queueError(formatter, err)
			}

			if formatter.Format == "json" {
				return formatter.Success(entry)
			}
			fmt.Fprintf(formatter.Writer, "%s (%s) %s\n%s\n", entry.ID, entry.Status, entry.StateID, entry.Summary)
			for _, d := range entry.Diffs {
				fmt.Fprintf(formatter.Writer, "  %-5s %-8s %s\n", d.Severity, d.Category, d.ChangeDescription)
			}
			if entry.ResolvedAt != nil {
				fmt.Fprintf(formatter.Writer, "Resolved by %s at %s: %s\n", entry.ResolvedBy, entry.ResolvedAt.Format("2006-01-02 15:04"), entry.ResolutionNotes)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "review queue database (required)")
	cmd.MarkFlagRequired("db")

	return cmd
}

func newQueueApproveCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dbPath      string
		by          string
		notes       string
		stagingPath string
		livePath    string
	)

	cmd := &cobra.Command{
		Use:   "approve <entry-id>",
		Short: "Approve a quarantined entry and promote its snapshot",
		Long: `Approve a quarantined entry and promote its snapshot.

The staging and live files must be the same pair the entry was evaluated
against. Approval is recorded with the reviewer identity for the audit trail.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			staging, err := capture.LoadStagingSnapshot(stagingPath)
			if err != nil {
				return outputCommandError(formatter, ErrCodeLoadFailed, err.Error())
			}
			live, err := capture.LoadLiveRecord(livePath)
			if err != nil {
				return outputCommandError(formatter, ErrCodeLoadFailed, err.Error())
			}

			svc, closeStore, err := openService(formatter, dbPath)
			if err != nil {
				return err
			}
			defer closeStore()

			promoted, err := svc.Approve(args[0], by, notes, staging, live)
			if err != nil {
				return queueError(formatter, err)
			}

			if formatter.Format == "json" {
				return formatter.Success(promoted)
			}
			fmt.Fprintf(formatter.Writer, "Approved %s; %s promoted to version %s.\n", args[0], promoted.StateID, promoted.DataVersion)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "review queue database (required)")
	cmd.Flags().StringVar(&by, "by", "", "reviewer identity (required)")
	cmd.Flags().StringVar(&notes, "notes", "", "resolution notes")
	cmd.Flags().StringVar(&stagingPath, "staging", "", "staging snapshot YAML file (required)")
	cmd.Flags().StringVar(&livePath, "live", "", "live record YAML file (required)")
	cmd.MarkFlagRequired("db")
	cmd.MarkFlagRequired("by")
	cmd.MarkFlagRequired("staging")
	cmd.MarkFlagRequired("live")

	return cmd
}

func newQueueRejectCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dbPath string
		by     string
		notes  string
	)

	cmd := &cobra.Command{
		Use:           "reject <entry-id>",
		Short:         "Reject a quarantined entry and discard its snapshot",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			svc, closeStore, err := openService(formatter, dbPath)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := svc.Reject(args[0], by, notes); err != nil {
				return queueError(formatter, err)
			}

			if formatter.Format == "json" {
				return formatter.Success(map[string]string{"id": args[0], "status": string(airlock.StatusRejected)})
			}
			fmt.Fprintf(formatter.Writer, "Rejected %s; live record unchanged.\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "review queue database (required)")
	cmd.Flags().StringVar(&by, "by", "", "reviewer identity (required)")
	cmd.Flags().StringVar(&notes, "notes", "", "resolution notes")
	cmd.MarkFlagRequired("db")
	cmd.MarkFlagRequired("by")

	return cmd
}

func newQueueHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dbPath  string
		stateID string
	)

	cmd := &cobra.Command{
		Use:           "history",
		Short:         "Show the promotion audit trail for a state",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			svc, closeStore, err := openService(formatter, dbPath)
			if err != nil {
				return err
			}
			defer closeStore()

			history, err := svc.History(stateID)
			if err != nil {
				return outputCommandError(formatter, ErrCodeStore, err.Error())
			}

			if formatter.Format == "json" {
				return formatter.Success(history)
			}
			if len(history) == 0 {
				fmt.Fprintf(formatter.Writer, "No promotions recorded for %s.\n", stateID)
				return nil
			}
			for _, p := range history {
				fmt.Fprintf(formatter.Writer, "%s  %s %s -> %s (entry %s)\n",
					p.PromotedAt.Format("2006-01-02 15:04"), p.StateID, p.FromVersion, p.ToVersion, p.QueueEntryID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "review queue database (required)")
	cmd.Flags().StringVar(&stateID, "state", "", "state to list (required)")
	cmd.MarkFlagRequired("db")
	cmd.MarkFlagRequired("state")

	return cmd
}

// openService opens the store and wraps it in a queue service. The returned
// func closes the store.
func openService(f *OutputFormatter, dbPath string) (*queue.Service, func(), error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, outputCommandError(f, ErrCodeStore, err.Error())
	}
	return queue.NewService(st), func() { st.Close() }, nil
}

// queueError maps store errors to exit codes: missing entries are command
// errors, already-resolved entries are domain failures.
func queueError(f *OutputFormatter, err error) error {
	switch {
	case store.IsNotFound(err):
		return outputCommandError(f, ErrCodeNotFound, err.Error())
	case store.IsTerminalStatus(err):
		_ = f.Error(ErrCodeInvalid, err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	default:
		return outputCommandError(f, ErrCodeStore, err.Error())
	}
}
