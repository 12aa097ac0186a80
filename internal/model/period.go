package model

import (
	"errors"
	"sort"
)

// Periods holds the start years of the optimization model's investment periods,
// sorted ascending. Period labels are required to equal their start year.
type Periods []int

func NewPeriods(starts []int) (Periods, error) {
	if len(starts) == 0 {
		return nil, errors.New("no investment periods")
	}
	p := append(Periods(nil), starts...)
	sort.Ints(p)
	for i := 1; i < len(p); i++ {
		if p[i] == p[i-1] {
			return nil, errors.New("duplicate investment period")
		}
	}
	return p, nil
}

func (p Periods) First() int { return p[0] }
func (p Periods) Last() int  { return p[len(p)-1] }

// Pairs returns consecutive (previous, current) period starts.
func (p Periods) Pairs() [][2]int {
	out := make([][2]int, 0, len(p))
	for i := 1; i < len(p); i++ {
		out = append(out, [2]int{p[i-1], p[i]})
	}
	return out
}

// StartAtOrAfter returns the first period start >= year.
func (p Periods) StartAtOrAfter(year int) (int, bool) {
	i := sort.SearchInts(p, year)
	if i == len(p) {
		return 0, false
	}
	return p[i], true
}

// Contains reports whether year is a period start.
func (p Periods) Contains(year int) bool {
	i := sort.SearchInts(p, year)
	return i < len(p) && p[i] == year
}

// ServiceEnd returns the last year a build made in buildYear stays online in the
// multi-year model. That model only retires capacity at period boundaries, so a
// retirement falling inside a period is extended to the year before the next
// period starts. Builds that outlive the last period run to studyEnd.
func (p Periods) ServiceEnd(buildYear, maxAge, studyEnd int) int {
	last := buildYear + maxAge - 1
	if last >= p.Last() {
		return studyEnd
	}
	next, _ := p.StartAtOrAfter(last + 1)
	return next - 1
}
