package ledger

import (
	"math"

	"github.com/pkg/errors"
)

// Step is one unit of work done by Move. A Rebuild step adds capacity at To
// instead of moving it: it refills the end of the study after a move pulled a
// retirement that used to fall beyond the horizon back inside it.
type Step struct {
	Project string
	Amount  float64
	From    int
	To      int
	Rebuild bool
}

// Move slides amount of project's construction from one build year to an
// earlier one. The moved capacity now retires (to - from) years earlier, so
// up to the same amount of rebuild scheduled at the old retirement year is
// moved to the new one, and so on down the chain until no rebuild is found or
// the chain leaves the study horizon. The chain is processed as a queue rather
// than by recursion. Steps are returned in the order applied.
func (l *Ledger) Move(project string, amount float64, from, to int) ([]Step, error) {
	if to >= from {
		return nil, errors.Errorf("move of %s from %d to %d: construction can only move earlier", project, from, to)
	}
	p, err := l.project(project)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, nil
	}

	var steps []Step
	queue := []Step{{Project: project, Amount: amount, From: from, To: to}}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]

		if err := l.Remove(project, s.From, s.Amount); err != nil {
			return steps, errors.Wrap(err, "move")
		}
		l.cell(p.Group, s.To)[project] += s.Amount
		steps = append(steps, s)

		retire := s.From + p.MaxAge
		newRetire := s.To + p.MaxAge
		switch {
		case retire <= l.end:
			if c := math.Min(s.Amount, l.Amount(project, retire)); c > 0 {
				queue = append(queue, Step{Project: project, Amount: c, From: retire, To: newRetire})
			}
		case newRetire <= l.end:
			l.cell(p.Group, newRetire)[project] += s.Amount
			steps = append(steps, Step{Project: project, Amount: s.Amount, From: retire, To: newRetire, Rebuild: true})
		}
	}
	return steps, nil
}
