// Package quality checks the reconstructed state of a game against its
// invariants and grades the result.
package quality

import (
	"errors"

	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/validate"
)

// Input is everything derived for one game.
type Input struct {
	Log         *validate.ValidatedLog
	Teams       []string
	FinalScore  map[string]int
	Lineups     []model.LineupState
	Possessions []model.PossessionEvent
	Links       []model.PlayPossessionLink
	// Unlinked are the orders the linker found outside every possession.
	Unlinked []int64
	// Warnings are the findings the trackers made while replaying.
	Warnings []model.Violation
}

type checker func(in *Input) []model.Violation

var checks = []struct {
	check model.Check
	run   checker
}{
	{model.CheckStructure, func(*Input) []model.Violation { return nil }},
	{model.CheckResolution, resolution},
	{model.CheckLineupCardinality, lineupCardinality},
	{model.CheckLineupContiguity, lineupContiguity},
	{model.CheckPossessionPartition, possessionPartition},
	{model.CheckScoreReconciliation, scoreReconciliation},
	{model.CheckLinkCoverage, linkCoverage},
	{model.CheckEventSequence, eventSequence},
}

// Check runs every invariant check over in. Checks are independent: one
// failing never hides another.
func Check(in Input) model.Report {
	r := model.Report{GameID: in.Log.GameID(), Checks: make([]model.CheckResult, 0, len(checks))}
	for _, c := range checks {
		vs := c.run(&in)
		r.Checks = append(r.Checks, model.CheckResult{Check: c.check, Passed: passed(vs), Violations: vs})
	}
	r.Status = grade(&r)
	r.QualityFlag = r.Status != model.StatusSuccess
	return r
}

// Unprocessable returns the report of a game that could not be
// reconstructed at all.
func Unprocessable(gameID string, err error) model.Report {
	v := model.Violation{Check: model.CheckStructure, Severity: model.SeverityError, Message: err.Error()}
	var verr *validate.ValidationError
	if errors.As(err, &verr) && verr.Index >= 0 {
		v.StartOrder, v.EndOrder = verr.Order, verr.Order
	}
	return model.Report{
		GameID:      gameID,
		Status:      model.StatusFailed,
		QualityFlag: true,
		Checks: []model.CheckResult{
			{Check: model.CheckStructure, Passed: false, Violations: []model.Violation{v}},
		},
	}
}

func passed(vs []model.Violation) bool {
	for _, v := range vs {
		if v.Severity != model.SeverityInfo {
			return false
		}
	}
	return true
}

func grade(r *model.Report) model.Status {
	for _, c := range r.Checks {
		if c.Check == model.CheckStructure && !c.Passed {
			return model.StatusFailed
		}
	}
	for _, c := range r.Checks {
		if !c.Passed {
			return model.StatusSuccessWithWarnings
		}
	}
	return model.StatusSuccess
}
