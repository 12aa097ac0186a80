package targets

import (
	"fmt"
	"math"

	"annual-plan/internal/model"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// NonMonotonicError reports a target that falls from one year to the next by
// more than the configured tolerance in a group that is being smoothed.
type NonMonotonicError struct {
	Kind  model.Kind
	Group string
	Year  int
	Drop  float64
}

func (e *NonMonotonicError) Error() string {
	return fmt.Sprintf("%s targets for %s must not decrease year to year, but fall by %g %s in %d",
		e.Kind, e.Group, e.Drop, e.Kind.Unit(), e.Year)
}

// Interpolator replaces the step between two investment periods with a linear
// ramp for the configured groups.
type Interpolator struct {
	Groups       []string
	Periods      model.Periods
	LastDefinite map[string]int
	MinIncrement map[string]float64
	// Tolerance is the largest year-over-year drop accepted before smoothing.
	Tolerance float64
	Logger    *zap.Logger
}

// Apply returns a smoothed copy of t. Groups not present in t are skipped.
func (ip *Interpolator) Apply(t *model.TargetTable) (*model.TargetTable, error) {
	out := t.Clone()
	for _, g := range ip.Groups {
		if !out.Has(g) {
			continue
		}
		if err := ip.checkMonotonic(out, g); err != nil {
			return nil, err
		}
		for _, pair := range ip.Periods.Pairs() {
			ip.ramp(out, g, pair[0], pair[1])
		}
	}
	return out, nil
}

func (ip *Interpolator) checkMonotonic(t *model.TargetTable, g string) error {
	row := t.Row(g)
	for i := 1; i < len(row); i++ {
		if drop := row[i-1] - row[i]; drop > ip.Tolerance {
			return &NonMonotonicError{Kind: t.Kind, Group: g, Year: t.Start + i, Drop: drop}
		}
	}
	return nil
}

// ramp smooths g between period starts prev and cur. The ramp starts no
// earlier than the group's last definite target and never needs more annual
// steps than the minimum increment allows.
func (ip *Interpolator) ramp(t *model.TargetTable, g string, prev, cur int) {
	if anchor, ok := ip.LastDefinite[g]; ok {
		prev = max(prev, anchor)
	}
	prev = min(cur-1, prev)
	if !t.InHorizon(prev) || !t.InHorizon(cur) {
		return
	}
	if inc, ok := ip.MinIncrement[g]; ok && inc > 0 {
		steps := math.Floor((t.Get(g, cur) - t.Get(g, prev)) / inc)
		prev = max(cur-int(steps), prev)
	}
	if cur-prev < 2 {
		return
	}

	row := t.Row(g)
	span := row[prev-t.Start : cur-t.Start+1]
	floats.Span(span, span[0], span[len(span)-1])
	t.SetRow(g, row)

	if ip.Logger != nil {
		ip.Logger.Debug("interpolated targets",
			zap.String("kind", string(t.Kind)), zap.String("group", g),
			zap.Int("from", prev), zap.Int("to", cur))
	}
}
