package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/huntwise/drawcore/internal/airlock"
	"github.com/huntwise/drawcore/internal/capture"
	"github.com/huntwise/drawcore/internal/queue"
	"github.com/huntwise/drawcore/internal/store"
)

// NewEvaluateCommand creates the evaluate command.
func NewEvaluateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		stagingPath    string
		livePath       string
		tolerancesPath string
		dbPath         string
		batchID        string
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a captured snapshot against the live record",
		Long: `Evaluate a captured snapshot against the current live record.

Classifies every detected change as pass, warn, or block per the configured
tolerances. With --db, the result is also submitted to the review queue:
clean snapshots promote immediately, anything else is quarantined.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(rootOpts, cmd, stagingPath, livePath, tolerancesPath, dbPath, batchID)
		},
	}

	cmd.Flags().StringVar(&stagingPath, "staging", "", "staging snapshot YAML file (required)")
	cmd.Flags().StringVar(&livePath, "live", "", "live record YAML file (required)")
	cmd.Flags().StringVar(&tolerancesPath, "tolerances", "", "tolerance overrides YAML file")
	cmd.Flags().StringVar(&dbPath, "db", "", "review queue database; submit the verdict when set")
	cmd.Flags().StringVar(&batchID, "batch", "", "scrape batch ID (defaults to the snapshot ID)")
	cmd.MarkFlagRequired("staging")
	cmd.MarkFlagRequired("live")

	return cmd
}

func runEvaluate(opts *RootOptions, cmd *cobra.Command, stagingPath, livePath, tolerancesPath, dbPath, batchID string) error {
	formatter := newFormatter(opts, cmd)

	staging, err := capture.LoadStagingSnapshot(stagingPath)
	if err != nil {
		return outputCommandError(formatter, ErrCodeLoadFailed, err.Error())
	}
	live, err := capture.LoadLiveRecord(livePath)
	if err != nil {
		return outputCommandError(formatter, ErrCodeLoadFailed, err.Error())
	}

	tol := airlock.DefaultTolerances
	if tolerancesPath != "" {
		tol, err = capture.LoadTolerances(tolerancesPath)
		if err != nil {
			return outputCommandError(formatter, ErrCodeLoadFailed, err.Error())
		}
	}

	if verrs := capture.ValidateSnapshot(staging); len(verrs) > 0 {
		_ = formatter.Error(ErrCodeInvalid, fmt.Sprintf("snapshot failed validation with %d error(s)", len(verrs)), verrs)
		return NewExitError(ExitFailure, "snapshot failed validation")
	}

	var verdict airlock.Verdict
	if dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			return outputCommandError(formatter, ErrCodeStore, err.Error())
		}
		defer st.Close()

		if batchID == "" {
			batchID = staging.ID
		}
		svc := queue.NewService(st, queue.WithTolerances(tol))
		dec, err := svc.Submit(batchID, staging, live)
		if err != nil {
			return outputCommandError(formatter, ErrCodeStore, err.Error())
		}
		verdict = dec.Verdict
		formatter.VerboseLog("queue entry %s recorded with status %s", dec.Entry.ID, dec.Entry.Status)
	} else {
		verdict = airlock.EvaluateSnapshot(staging, live, tol)
	}

	if formatter.Format == "json" {
		if err := formatter.Success(verdict); err != nil {
			return err
		}
	} else {
		renderVerdict(formatter, verdict)
	}

	if verdict.Overall == airlock.SeverityBlock {
		return NewExitError(ExitFailure, verdict.Summary)
	}
	return nil
}

func renderVerdict(f *OutputFormatter, v airlock.Verdict) {
	fmt.Fprintln(f.Writer, v.Summary)
	if len(v.Diffs) == 0 {
		return
	}

	fmt.Fprintln(f.Writer)
	for _, d := range v.Diffs {
		fmt.Fprintf(f.Writer, "  %-5s %-8s %s\n", strings.ToUpper(string(d.Severity)), d.Category, d.ChangeDescription)
		if f.Verbose {
			fmt.Fprintf(f.Writer, "        %s\n", d.ToleranceRule)
		}
	}

	fmt.Fprintln(f.Writer)
	if v.CanAutoPromote {
		fmt.Fprintln(f.Writer, "Eligible for automatic promotion.")
	} else {
		fmt.Fprintln(f.Writer, "Manual review required.")
	}
}

// outputCommandError emits the error in the configured format and returns an
// ExitError with the command-error exit code.
func outputCommandError(f *OutputFormatter, code, message string) error {
	_ = f.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
