package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/huntwise/drawcore/internal/grandfather"
	"github.com/huntwise/drawcore/internal/points"
)

// NewPointsCommand creates the points command.
func NewPointsCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		historyPath string
		stateID     string
		speciesID   string
		year        int
		impact      bool
	)

	cmd := &cobra.Command{
		Use:   "points",
		Short: "Value a point holding under the applicable grandfather clause",
		Long: `Value a point holding under the applicable grandfather clause.

Reads a JSON acquisition history, splits it at the applicable epoch cutoff,
and reports effective points with the conversion ratio applied to legacy
points. With --impact, reports grandfather status for every (state, species)
pair in the history instead.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPoints(rootOpts, cmd, historyPath, stateID, speciesID, year, impact)
		},
	}

	cmd.Flags().StringVar(&historyPath, "history", "", "acquisition history JSON file (required)")
	cmd.Flags().StringVar(&stateID, "state", "", "state to value (required unless --impact)")
	cmd.Flags().StringVar(&speciesID, "species", "", "species to value (required unless --impact)")
	cmd.Flags().IntVar(&year, "year", 0, "evaluation year (defaults to the current year)")
	cmd.Flags().BoolVar(&impact, "impact", false, "report transition impact for the whole history")
	cmd.MarkFlagRequired("history")

	return cmd
}

// pointsReport pairs the valuation with the cap decision for one holding.
type pointsReport struct {
	Valuation grandfather.EffectiveResult `json:"valuation"`
	Cap       grandfather.CapResult       `json:"cap"`
}

func runPoints(opts *RootOptions, cmd *cobra.Command, historyPath, stateID, speciesID string, year int, impact bool) error {
	formatter := newFormatter(opts, cmd)

	data, err := os.ReadFile(historyPath)
	if err != nil {
		return outputCommandError(formatter, ErrCodeLoadFailed, err.Error())
	}

	var history []points.AcquisitionRecord
	if err := json.Unmarshal(data, &history); err != nil {
		return outputCommandError(formatter, ErrCodeLoadFailed, fmt.Sprintf("parse %s: %v", historyPath, err))
	}
	for i, rec := range history {
		if !points.ValidMethods[rec.Method] {
			return outputCommandError(formatter, ErrCodeInvalid, fmt.Sprintf("record %d: unknown acquisition method %q", i, rec.Method))
		}
	}

	if year == 0 {
		year = time.Now().Year()
	}
	registry := grandfather.DefaultRegistry()

	if impact {
		entries := registry.AnalyzeTransitionImpact(history, year)
		if formatter.Format == "json" {
			return formatter.Success(entries)
		}
		for _, e := range entries {
			fmt.Fprintln(formatter.Writer, e.Advisory)
		}
		return nil
	}

	if stateID == "" || speciesID == "" {
		return outputCommandError(formatter, ErrCodeInvalid, "--state and --species are required unless --impact is set")
	}

	pts := grandfather.BuildTimestampedPoints(history, stateID, speciesID)
	report := pointsReport{
		Valuation: registry.ComputeEffectivePoints(pts, stateID, speciesID, year),
		Cap:       registry.EnforcePointCap(pts, stateID, speciesID),
	}

	if formatter.Format == "json" {
		return formatter.Success(report)
	}
	renderPointsReport(formatter, report)
	return nil
}

func renderPointsReport(f *OutputFormatter, r pointsReport) {
	v := r.Valuation
	fmt.Fprintf(f.Writer, "%s/%s at %d: %.1f effective points (%d legacy, %d modern)\n",
		v.StateID, v.SpeciesID, v.EvaluationYear, v.EffectivePoints, v.LegacyCount, v.ModernCount)
	fmt.Fprintln(f.Writer, v.Explanation)
	fmt.Fprintln(f.Writer, r.Cap.Reason)
}
