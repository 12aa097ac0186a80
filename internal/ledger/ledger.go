// Package ledger holds the per-project build schedule that the plan shifter
// rearranges: for each (tech group, build year), the capacity each project adds.
package ledger

import (
	"math"
	"sort"

	"annual-plan/internal/model"

	"github.com/pkg/errors"
)

// slack absorbs floating-point residue when removing capacity.
const slack = 1e-9

type groupYear struct {
	group string
	year  int
}

// Entry is one non-empty ledger cell.
type Entry struct {
	Group   string
	Project string
	Year    int
	Amount  float64
}

// Ledger maps (tech group, build year) to {project: capacity added}. A build
// stays online for the project's max age starting in its build year. Amounts
// are never negative.
type Ledger struct {
	Kind model.Kind

	reg   *model.Registry
	end   int
	cells map[groupYear]map[string]float64
	years map[string]map[int]struct{}
}

// New returns an empty ledger for registry projects. end is the last study
// year; cascades never write past it.
func New(kind model.Kind, reg *model.Registry, end int) *Ledger {
	return &Ledger{
		Kind:  kind,
		reg:   reg,
		end:   end,
		cells: map[groupYear]map[string]float64{},
		years: map[string]map[int]struct{}{},
	}
}

// FromEvents seeds a ledger with the positive build events of registry
// projects; other projects are ignored.
func FromEvents(kind model.Kind, reg *model.Registry, end int, events []model.BuildEvent) (*Ledger, error) {
	l := New(kind, reg, end)
	for _, ev := range events {
		if _, ok := reg.Project(ev.Project); !ok || ev.Amount <= 0 {
			continue
		}
		if err := l.Add(ev.Project, ev.Year, ev.Amount); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *Ledger) End() int { return l.end }

func (l *Ledger) Registry() *model.Registry { return l.reg }

func (l *Ledger) project(name string) (model.Project, error) {
	p, ok := l.reg.Project(name)
	if !ok {
		return model.Project{}, errors.Errorf("project %s is not in the registry", name)
	}
	return p, nil
}

func (l *Ledger) cell(group string, year int) map[string]float64 {
	k := groupYear{group, year}
	c, ok := l.cells[k]
	if !ok {
		c = map[string]float64{}
		l.cells[k] = c
		ys, ok := l.years[group]
		if !ok {
			ys = map[int]struct{}{}
			l.years[group] = ys
		}
		ys[year] = struct{}{}
	}
	return c
}

// Amount returns the capacity project adds in year.
func (l *Ledger) Amount(project string, year int) float64 {
	p, ok := l.reg.Project(project)
	if !ok {
		return 0
	}
	return l.cells[groupYear{p.Group, year}][project]
}

// Add increases project's build in year by amount (>= 0).
func (l *Ledger) Add(project string, year int, amount float64) error {
	if amount < 0 || math.IsNaN(amount) {
		return errors.Errorf("cannot add %v to %s in %d", amount, project, year)
	}
	p, err := l.project(project)
	if err != nil {
		return err
	}
	l.cell(p.Group, year)[project] += amount
	return nil
}

// Remove decreases project's build in year by amount. Removing more than is
// there (beyond floating-point slack) is an error.
func (l *Ledger) Remove(project string, year int, amount float64) error {
	if amount < 0 || math.IsNaN(amount) {
		return errors.Errorf("cannot remove %v from %s in %d", amount, project, year)
	}
	p, err := l.project(project)
	if err != nil {
		return err
	}
	c := l.cell(p.Group, year)
	left := c[project] - amount
	if left < -slack {
		return errors.Errorf("cannot remove %g from %s in %d: only %g scheduled", amount, project, year, c[project])
	}
	if left < 0 {
		left = 0
	}
	c[project] = left
	return nil
}

// Years returns the build years with any entry for group, ascending.
func (l *Ledger) Years(group string) []int {
	out := make([]int, 0, len(l.years[group]))
	for y := range l.years[group] {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

// Projects returns the projects with an entry in (group, year), by name.
func (l *Ledger) Projects(group string, year int) []string {
	c := l.cells[groupYear{group, year}]
	out := make([]string, 0, len(c))
	for name := range c {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Online returns group capacity in service in year: every build whose
// [build year, build year + max age) window covers year.
func (l *Ledger) Online(group string, year int) float64 {
	total := 0.0
	for y := range l.years[group] {
		if y > year {
			continue
		}
		for name, amt := range l.cells[groupYear{group, y}] {
			p, _ := l.reg.Project(name)
			if year < y+p.MaxAge {
				total += amt
			}
		}
	}
	return total
}

// ProjectOnline returns project capacity in service in year.
func (l *Ledger) ProjectOnline(project string, year int) float64 {
	p, ok := l.reg.Project(project)
	if !ok {
		return 0
	}
	total := 0.0
	for y := year - p.MaxAge + 1; y <= year; y++ {
		total += l.cells[groupYear{p.Group, y}][project]
	}
	return total
}

// Total returns the sum of all builds of project.
func (l *Ledger) Total(project string) float64 {
	p, ok := l.reg.Project(project)
	if !ok {
		return 0
	}
	total := 0.0
	for y := range l.years[p.Group] {
		total += l.cells[groupYear{p.Group, y}][project]
	}
	return total
}

// Prune drops entries that are exactly zero and cells left empty.
func (l *Ledger) Prune() {
	for k, c := range l.cells {
		for name, amt := range c {
			if amt == 0 {
				delete(c, name)
			}
		}
		if len(c) == 0 {
			delete(l.cells, k)
			delete(l.years[k.group], k.year)
		}
	}
}

// Entries lists every non-zero entry ordered by group, project, year.
func (l *Ledger) Entries() []Entry {
	var out []Entry
	for k, c := range l.cells {
		for name, amt := range c {
			if amt != 0 {
				out = append(out, Entry{Group: k.group, Project: name, Year: k.year, Amount: amt})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		if a.Project != b.Project {
			return a.Project < b.Project
		}
		return a.Year < b.Year
	})
	return out
}

func (l *Ledger) Clone() *Ledger {
	c := New(l.Kind, l.reg, l.end)
	for k, cell := range l.cells {
		dst := c.cell(k.group, k.year)
		for name, amt := range cell {
			dst[name] = amt
		}
	}
	return c
}
