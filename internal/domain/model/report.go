package model

// Status is the operator-visible outcome of processing one game.
type Status string

// Game processing statuses.
const (
	StatusSuccess             Status = "success"
	StatusSuccessWithWarnings Status = "success_with_warnings"
	StatusFailed              Status = "failed"
)

// Severity grades a violation.
type Severity string

// Violation severities.
const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Check names one invariant class of the quality report.
type Check string

// Quality checks, in report order.
const (
	CheckStructure           Check = "structure"
	CheckResolution          Check = "resolution"
	CheckLineupCardinality   Check = "lineup_cardinality"
	CheckLineupContiguity    Check = "lineup_contiguity"
	CheckPossessionPartition Check = "possession_partition"
	CheckScoreReconciliation Check = "score_reconciliation"
	CheckLinkCoverage        Check = "link_coverage"
	CheckEventSequence       Check = "event_sequence"
)

// Violation is one finding of a check. Orders are zero when not applicable.
type Violation struct {
	Check      Check    `json:"check"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	TeamID     string   `json:"team_id,omitempty"`
	StartOrder int64    `json:"start_order,omitempty"`
	EndOrder   int64    `json:"end_order,omitempty"`
}

// CheckResult is the pass/fail outcome of one check.
type CheckResult struct {
	Check      Check       `json:"check"`
	Passed     bool        `json:"passed"`
	Violations []Violation `json:"violations,omitempty"`
}

// Report is the per-game quality report.
type Report struct {
	GameID      string        `json:"game_id"`
	Status      Status        `json:"status"`
	QualityFlag bool          `json:"quality_flag"`
	Checks      []CheckResult `json:"checks"`
}

// Violations flattens the violations of every check.
func (r *Report) Violations() []Violation {
	var out []Violation
	for _, c := range r.Checks {
		out = append(out, c.Violations...)
	}
	return out
}

// Result is everything produced for one game.
type Result struct {
	GameID        string               `json:"game_id"`
	RunID         string               `json:"run_id,omitempty"`
	Status        Status               `json:"status"`
	Lineups       []LineupState        `json:"lineups"`
	Substitutions []SubstitutionEvent  `json:"substitutions"`
	Possessions   []PossessionEvent    `json:"possessions"`
	Links         []PlayPossessionLink `json:"links"`
	Report        Report               `json:"report"`
	Digest        string               `json:"digest,omitempty"`
	Err           string               `json:"error,omitempty"`
}

// Summary is a compact per-game line for operators.
type Summary struct {
	GameID      string `json:"game_id"`
	Status      Status `json:"status"`
	Possessions int    `json:"possessions"`
	Lineups     int    `json:"lineups"`
	Violations  int    `json:"violations"`
	Digest      string `json:"digest,omitempty"`
	Err         string `json:"error,omitempty"`
}

// Summarize builds the operator summary of r.
func (r *Result) Summarize() Summary {
	return Summary{
		GameID:      r.GameID,
		Status:      r.Status,
		Possessions: len(r.Possessions),
		Lineups:     len(r.Lineups),
		Violations:  len(r.Report.Violations()),
		Digest:      r.Digest,
		Err:         r.Err,
	}
}
