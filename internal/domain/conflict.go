package domain

import "errors"

// ErrScheduleConflict is returned by Assign/Reassign when the target persona
// already holds an active assignment too close in time and force was not set.
// It is a reported business condition, not a system fault; the caller decides
// whether to retry with force.
var ErrScheduleConflict = errors.New("schedule conflict")

// Conflict severity levels, strictly ordered none < tight < hard.
const (
	SeverityNone  = "none"
	SeverityTight = "tight"
	SeverityHard  = "hard"
)

// severityRank orders severities for max-aggregation across candidates.
var severityRank = map[string]int{
	SeverityNone:  0,
	SeverityTight: 1,
	SeverityHard:  2,
}

// MaxSeverity returns the higher of two severity levels.
func MaxSeverity(a, b string) string {
	if severityRank[b] > severityRank[a] {
		return b
	}
	return a
}

// ConflictSummary describes one competing active assignment, formatted for
// direct display.
type ConflictSummary struct {
	ID       int64  `json:"id"`
	Evento   string `json:"evento"`
	FechaFmt string `json:"fecha_fmt"`
	HoraFmt  string `json:"hora_fmt"`
	Estatus  string `json:"estatus"`
	Lugar    string `json:"lugar"`
}

// ConflictReport is the detector's verdict: the maximum severity across all
// competing assignments plus the list of those that contributed one, in
// evaluation order.
type ConflictReport struct {
	Level     string            `json:"level"`
	Conflicts []ConflictSummary `json:"conflicts"`
}

// HasConflict reports whether the report carries any non-none severity.
func (r *ConflictReport) HasConflict() bool {
	return r != nil && r.Level != SeverityNone
}

type CheckConflictRequest struct {
	PersonaID int64  `json:"persona_id"`
	Fecha     string `json:"fecha"`
	Hora      string `json:"hora"`
	ExcludeID int64  `json:"exclude_id"`
}
