// Package shift rearranges a build ledger so annual online capacity follows
// the capacity targets. Construction only ever moves to earlier years.
package shift

import (
	"fmt"
	"math"
	"sort"

	"annual-plan/internal/diag"
	"annual-plan/internal/ledger"
	"annual-plan/internal/model"

	"github.com/pkg/errors"
)

const (
	ReasonMidPeriod = "mid-period retirement"
	ReasonTarget    = "target"
	ReasonCascade   = "cascade"
	ReasonRebuild   = "rebuild"
)

// CapacityLimitError reports a project scheduled above its nameplate limit
// by more than the trim tolerance.
type CapacityLimitError struct {
	Project string
	Year    int
	Online  float64
	Limit   float64
}

func (e *CapacityLimitError) Error() string {
	return fmt.Sprintf("excess capacity scheduled for %s in %d: %g > %g", e.Project, e.Year, e.Online, e.Limit)
}

type Tolerances struct {
	// Target is the largest online/target mismatch left unreported.
	Target float64
	// CapacityLimit is the largest excess over a project limit that is trimmed
	// rather than treated as fatal.
	CapacityLimit float64
	// Overshoot is how far online capacity may exceed a target before it is
	// reported.
	Overshoot float64
}

type Shifter struct {
	Periods    model.Periods
	Tolerances Tolerances
	Diag       *diag.Collector
}

// Run applies mid-period correction and target fulfillment to l, then checks
// the result against t. Capacity limits are enforced on power ledgers only.
func (s *Shifter) Run(l *ledger.Ledger, t *model.TargetTable) error {
	if err := s.CorrectMidPeriod(l, t); err != nil {
		return errors.Wrapf(err, "%s mid-period correction", l.Kind)
	}
	if err := s.FulfillTargets(l, t); err != nil {
		return errors.Wrapf(err, "%s target fulfillment", l.Kind)
	}
	s.CheckTargets(l, t)
	if l.Kind == model.KindPower {
		return s.EnforceLimits(l)
	}
	return nil
}

type fix struct {
	project string
	amount  float64
	from    int
	to      int
}

// CorrectMidPeriod re-attributes rebuilds the multi-year model placed at a
// period start. A build in year y whose service ends inside the previous
// period was kept online until that period start, so the rebuild found there
// belongs at y + max age. Only the part of the old build not already rebuilt
// at y + max age is re-attributed, and the on-time rebuild of a build made
// exactly max age earlier is never taken. Fixes are applied latest first so a
// rebuild moved later in the chain is already in place when an earlier move
// cascades into it.
//
// With a target table, a fix never lifts online capacity above the target in
// the years it fills, so a ledger that already meets its targets is left as
// is. t may be nil.
func (s *Shifter) CorrectMidPeriod(l *ledger.Ledger, t *model.TargetTable) error {
	reg := l.Registry()
	var fixes []fix
	for _, pair := range s.Periods.Pairs() {
		prev, cur := pair[0], pair[1]
		for _, name := range reg.Names() {
			p, _ := reg.Project(name)
			shiftable := l.Amount(name, cur) - l.Amount(name, cur-p.MaxAge)
			for y := prev - p.MaxAge + 1; y < cur-p.MaxAge && shiftable > 0; y++ {
				extended := l.Amount(name, y) - l.Amount(name, y+p.MaxAge)
				amt := math.Min(extended, shiftable)
				if amt > 0 {
					fixes = append(fixes, fix{project: name, amount: amt, from: cur, to: y + p.MaxAge})
					shiftable -= amt
				}
			}
		}
	}
	l.Prune()

	sort.SliceStable(fixes, func(i, j int) bool { return fixes[i].from > fixes[j].from })
	for _, f := range fixes {
		// an earlier cascade may already have pulled some of this forward
		amt := math.Min(f.amount, l.Amount(f.project, f.from))
		if t != nil {
			p, _ := reg.Project(f.project)
			amt = math.Min(amt, s.headroom(l, t, p.Group, f.to, f.from))
		}
		if amt <= s.Tolerances.Overshoot {
			continue
		}
		steps, err := l.Move(f.project, amt, f.from, f.to)
		if err != nil {
			return err
		}
		s.record(l, steps, ReasonMidPeriod)
	}
	l.Prune()
	return nil
}

// headroom is the smallest target minus online capacity of group g over
// [first, last) within the target horizon. It is +Inf for groups without
// targets and when no year of the range is in the horizon.
func (s *Shifter) headroom(l *ledger.Ledger, t *model.TargetTable, g string, first, last int) float64 {
	room := math.Inf(1)
	if !t.Has(g) {
		return room
	}
	for y := first; y < last; y++ {
		if t.InHorizon(y) {
			room = math.Min(room, t.Get(g, y)-l.Online(g, y))
		}
	}
	return room
}

// FulfillTargets raises online capacity to the target in every deficit year
// by pulling new construction (additions beyond the like-for-like rebuild of
// retiring capacity) back from later years. Groups are visited in table
// order and deficit years ascending; candidates are taken nearest year first,
// then by project name.
func (s *Shifter) FulfillTargets(l *ledger.Ledger, t *model.TargetTable) error {
	reg := l.Registry()
	for _, g := range t.Groups() {
		if _, ok := reg.Group(g); !ok {
			continue
		}
		for _, year := range t.Years() {
			target := t.Get(g, year)
			actual := l.Online(g, year)
			if actual > target+s.Tolerances.Overshoot {
				s.Diag.Warn(diag.Warning{
					Code: diag.CodeTargetOvershoot, Kind: l.Kind, Group: g, Year: year,
					Value: actual, Limit: target,
					Message: fmt.Sprintf("installed %s %s in %d is %g, above target of %g", g, l.Kind, year, actual, target),
				})
			}
			short := func() bool { return target-actual > s.Tolerances.Overshoot }
			for y := year + 1; y <= t.End && short(); y++ {
				for _, name := range l.Projects(g, y) {
					if !short() {
						break
					}
					p, _ := reg.Project(name)
					added := l.Amount(name, y) - l.Amount(name, y-p.MaxAge)
					if added <= s.Tolerances.Overshoot {
						continue
					}
					amt := math.Min(added, target-actual)
					steps, err := l.Move(name, amt, y, year)
					if err != nil {
						return err
					}
					s.record(l, steps, ReasonTarget)
					actual += amt
				}
			}
		}
	}
	l.Prune()
	return nil
}

// CheckTargets reports, per group, the year where online capacity is furthest
// from target when that gap exceeds the target tolerance.
func (s *Shifter) CheckTargets(l *ledger.Ledger, t *model.TargetTable) {
	for _, g := range t.Groups() {
		worstYear, worst := 0, 0.0
		for _, year := range t.Years() {
			if gap := math.Abs(l.Online(g, year) - t.Get(g, year)); gap > worst {
				worstYear, worst = year, gap
			}
		}
		if worst > s.Tolerances.Target {
			s.Diag.Warn(diag.Warning{
				Code: diag.CodeTargetMissed, Kind: l.Kind, Group: g, Year: worstYear,
				Value: l.Online(g, worstYear), Limit: t.Get(g, worstYear),
				Message: fmt.Sprintf("some %s targets were missed for %s", l.Kind, g),
			})
		}
	}
}

// EnforceLimits checks every project with a capacity limit at each of its
// build years. Excess up to the tolerance is trimmed from that year's build;
// anything larger is fatal.
func (s *Shifter) EnforceLimits(l *ledger.Ledger) error {
	reg := l.Registry()
	for _, name := range reg.Names() {
		p, _ := reg.Project(name)
		if !p.HasCapacityLimit() {
			continue
		}
		for _, year := range l.Years(p.Group) {
			built := l.Amount(name, year)
			if built <= 0 {
				continue
			}
			online := l.ProjectOnline(name, year)
			excess := online - p.CapacityLimitMW
			switch {
			case excess > s.Tolerances.CapacityLimit:
				return &CapacityLimitError{Project: name, Year: year, Online: online, Limit: p.CapacityLimitMW}
			case excess > 0:
				trim := math.Min(excess, built)
				if err := l.Remove(name, year, trim); err != nil {
					return err
				}
				s.Diag.Warn(diag.Warning{
					Code: diag.CodeCapacityTrimmed, Kind: l.Kind, Group: p.Group, Project: name, Year: year,
					Value: trim, Limit: p.CapacityLimitMW,
					Message: fmt.Sprintf("reduced construction of %s in %d from %g to %g", name, year, built, built-trim),
				})
			}
		}
	}
	l.Prune()
	return nil
}

func (s *Shifter) record(l *ledger.Ledger, steps []ledger.Step, reason string) {
	for i, st := range steps {
		r := reason
		switch {
		case st.Rebuild:
			r = ReasonRebuild
		case i > 0:
			r = ReasonCascade
		}
		p, _ := l.Registry().Project(st.Project)
		s.Diag.RecordMove(diag.Move{
			Kind: l.Kind, Group: p.Group, Project: st.Project,
			Amount: st.Amount, From: st.From, To: st.To, Reason: r,
		})
	}
}
