package models

// RunRequest is the body of POST /api/v1/runs.
type RunRequest struct {
	// Scenario is a configured scenario name; empty means "default".
	Scenario string `json:"scenario"`
	// Write saves the adjusted tables to the scenario's annual directories.
	Write bool `json:"write"`
}
