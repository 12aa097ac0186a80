// Package diag collects the non-fatal findings of a run so callers and tests
// can inspect them without parsing log output.
package diag

import (
	"fmt"

	"annual-plan/internal/model"

	"go.uber.org/zap"
)

type Code string

const (
	// Online capacity exceeds the group target before any shifting.
	CodeTargetOvershoot Code = "target_overshoot"
	// Online capacity differs from the group target after shifting.
	CodeTargetMissed Code = "target_missed"
	// A project's online capacity was slightly above its limit and was trimmed.
	CodeCapacityTrimmed Code = "capacity_trimmed"
	CodeOnshoreWindLimit Code = "onshore_wind_limit"
	CodeNewThermalBuild  Code = "new_thermal_build"
)

// Warning is one non-fatal finding. Fields that do not apply are left zero.
type Warning struct {
	Code    Code       `json:"code"`
	Kind    model.Kind `json:"kind,omitempty"`
	Group   string     `json:"group,omitempty"`
	Project string     `json:"project,omitempty"`
	Year    int        `json:"year,omitempty"`
	Value   float64    `json:"value"`
	Limit   float64    `json:"limit"`
	Message string     `json:"message"`
}

// Move records capacity slid from one build year to an earlier one.
type Move struct {
	Kind    model.Kind `json:"kind"`
	Group   string     `json:"group"`
	Project string     `json:"project"`
	Amount  float64    `json:"amount"`
	From    int        `json:"from"`
	To      int        `json:"to"`
	Reason  string     `json:"reason"`
}

func (m Move) String() string {
	return fmt.Sprintf("moved %g %s of %s from %d to %d (%s)", m.Amount, m.Kind.Unit(), m.Project, m.From, m.To, m.Reason)
}

// Collector accumulates warnings and moves in the order they occur.
// A nil *Collector discards everything.
type Collector struct {
	logger   *zap.Logger
	warnings []Warning
	moves    []Move
}

func NewCollector(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{logger: logger}
}

func (c *Collector) Warn(w Warning) {
	if c == nil {
		return
	}
	c.warnings = append(c.warnings, w)
	c.logger.Warn(w.Message,
		zap.String("code", string(w.Code)),
		zap.String("kind", string(w.Kind)),
		zap.String("group", w.Group),
		zap.String("project", w.Project),
		zap.Int("year", w.Year),
		zap.Float64("value", w.Value),
		zap.Float64("limit", w.Limit),
	)
}

func (c *Collector) RecordMove(m Move) {
	if c == nil {
		return
	}
	c.moves = append(c.moves, m)
	c.logger.Debug("moved construction",
		zap.String("kind", string(m.Kind)),
		zap.String("project", m.Project),
		zap.Float64("amount", m.Amount),
		zap.Int("from", m.From),
		zap.Int("to", m.To),
		zap.String("reason", m.Reason),
	)
}

func (c *Collector) Warnings() []Warning {
	if c == nil {
		return nil
	}
	return append([]Warning(nil), c.warnings...)
}

func (c *Collector) Moves() []Move {
	if c == nil {
		return nil
	}
	return append([]Move(nil), c.moves...)
}

// Filter returns the warnings with the given code.
func (c *Collector) Filter(code Code) []Warning {
	var out []Warning
	for _, w := range c.Warnings() {
		if w.Code == code {
			out = append(out, w)
		}
	}
	return out
}

func (c *Collector) Has(code Code) bool { return len(c.Filter(code)) > 0 }
