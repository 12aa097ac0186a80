package models

import (
	"time"

	"annual-plan/internal/diag"
)

// RunResponse describes a completed run.
type RunResponse struct {
	ID        string     `json:"id"`
	Scenario  string     `json:"scenario"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	Summary   RunSummary `json:"summary"`
}

type RunSummary struct {
	Periods      []int          `json:"periods"`
	Projects     int            `json:"projects"`
	PowerGroups  []string       `json:"power_groups"`
	EnergyGroups []string       `json:"energy_groups"`
	Moves        int            `json:"moves"`
	Warnings     map[string]int `json:"warnings"`
	Files        []string       `json:"files,omitempty"`
}

// TargetSeries is one group's targets before and after interpolation,
// indexed like Years.
type TargetSeries struct {
	Kind   string    `json:"kind"`
	Group  string    `json:"tech_group"`
	Raw    []float64 `json:"raw"`
	Target []float64 `json:"target"`
	Online []float64 `json:"online"`
}

type TargetsResponse struct {
	ID     string         `json:"id"`
	Years  []int          `json:"years"`
	Series []TargetSeries `json:"series"`
}

type LedgerEntry struct {
	Kind    string  `json:"kind"`
	Group   string  `json:"tech_group"`
	Project string  `json:"project"`
	Year    int     `json:"build_year"`
	Amount  float64 `json:"amount"`
}

type LedgerResponse struct {
	ID      string        `json:"id"`
	Entries []LedgerEntry `json:"entries"`
}

type DiagnosticsResponse struct {
	ID       string         `json:"id"`
	Warnings []diag.Warning `json:"warnings"`
	Moves    []diag.Move    `json:"moves"`
}

// AdditionsRow is one year of the capacity additions table, keyed by column
// title.
type AdditionsRow struct {
	Year  int               `json:"year"`
	Cells map[string]string `json:"cells"`
}

type AdditionsResponse struct {
	ID      string         `json:"id"`
	Columns []string       `json:"columns"`
	Rows    []AdditionsRow `json:"rows"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
