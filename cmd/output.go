package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/okian/courtside/internal/domain/lineup"
	"github.com/okian/courtside/internal/domain/model"
)

type runOutput struct {
	RunID string          `json:"run_id"`
	Games []model.Summary `json:"games"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func writeSummaries(w io.Writer, format, runID string, summaries []model.Summary) error {
	if format == formatJSON {
		return writeJSON(w, runOutput{RunID: runID, Games: summaries})
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "GAME\tSTATUS\tPOSSESSIONS\tLINEUPS\tVIOLATIONS\tDETAIL\n")
	for _, s := range summaries {
		detail := s.Err
		if detail == "" && len(s.Digest) >= 12 {
			detail = s.Digest[:12]
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n", s.GameID, s.Status, s.Possessions, s.Lineups, s.Violations, detail)
	}
	fmt.Fprintf(tw, "\nrun %s: %d games\n", runID, len(summaries))
	return tw.Flush()
}

func writeReports(w io.Writer, format string, results []model.Result) error {
	if format == formatJSON {
		reports := make([]model.Report, len(results))
		for i := range results {
			reports[i] = results[i].Report
		}
		return writeJSON(w, reports)
	}

	for i := range results {
		r := &results[i].Report
		fmt.Fprintf(w, "%s: %s (quality_flag=%t)\n", r.GameID, r.Status, r.QualityFlag)
		for _, c := range r.Checks {
			mark := "PASS"
			if !c.Passed {
				mark = "FAIL"
			}
			fmt.Fprintf(w, "  %s %s\n", mark, c.Check)
			for _, v := range c.Violations {
				fmt.Fprintf(w, "       %s%s: %s\n", v.Severity, span(&v), v.Message)
			}
		}
	}
	return nil
}

// writeLineupsAt prints the lineup of every team of every game at order.
// Games without a lineup covering order are skipped.
func writeLineupsAt(w io.Writer, format string, games []model.Game, results []model.Result, order int64) error {
	var states []model.LineupState
	for i := range results {
		for _, team := range games[i].Teams() {
			if s, ok := lineup.At(results[i].Lineups, team, order); ok {
				states = append(states, s)
			}
		}
	}
	if format == formatJSON {
		if states == nil {
			states = []model.LineupState{}
		}
		return writeJSON(w, states)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "GAME\tTEAM\tPERIOD\tRANGE\tPLAYERS\n")
	for i := range states {
		s := &states[i]
		fmt.Fprintf(tw, "%s\t%s\t%d\t[%d-%d)\t%s\n", s.GameID, s.TeamID, s.Period, s.StartOrder, s.EndOrder, strings.Join(s.Players, ","))
	}
	return tw.Flush()
}

func span(v *model.Violation) string {
	switch {
	case v.StartOrder == 0 && v.EndOrder == 0:
		return ""
	case v.TeamID != "":
		return fmt.Sprintf(" %s [%d-%d]", v.TeamID, v.StartOrder, v.EndOrder)
	default:
		return fmt.Sprintf(" [%d-%d]", v.StartOrder, v.EndOrder)
	}
}
