// Package constraints audits a solved multi-year plan against the two extra
// limits the optimization model is run with: a cap on operational onshore
// wind, and no new fuel-burning capacity.
package constraints

import (
	"fmt"

	"annual-plan/internal/config"
	"annual-plan/internal/diag"
	"annual-plan/internal/model"

	"github.com/samber/lo"
)

type Checker struct {
	Periods model.Periods
	End     int
	Config  config.ConstraintsConfig
	Diag    *diag.Collector
}

// PeriodCapacity is the capacity of a technology operating in one period.
type PeriodCapacity struct {
	Period   int
	Capacity float64
}

// Run applies every enabled check to the plan.
func (c *Checker) Run(reg *model.Registry, sources map[string]string, plan *model.BuildPlan) {
	if c.Config.OnshoreWindTech != "" && c.Config.OnshoreWindLimitMW > 0 {
		c.CheckOnshoreWind(reg, plan.Power)
	}
	if c.Config.NoNewThermal {
		c.CheckNoNewThermal(sources, plan.Power)
	}
}

// OnshoreWind returns onshore wind capacity operating in each period. A build
// operates in a period when it was built by the period start and, with its
// retirement rounded to a period boundary, is still online then.
func (c *Checker) OnshoreWind(reg *model.Registry, events []model.BuildEvent) []PeriodCapacity {
	out := lo.Map(c.Periods, func(p int, _ int) PeriodCapacity { return PeriodCapacity{Period: p} })
	for _, ev := range events {
		p, ok := reg.Project(ev.Project)
		if !ok || p.Tech != c.Config.OnshoreWindTech {
			continue
		}
		last := c.Periods.ServiceEnd(ev.Year, p.MaxAge, c.End)
		for i := range out {
			if ev.Year <= out[i].Period && out[i].Period <= last {
				out[i].Capacity += ev.Amount
			}
		}
	}
	return out
}

func (c *Checker) CheckOnshoreWind(reg *model.Registry, events []model.BuildEvent) {
	limit := c.Config.OnshoreWindLimitMW
	for _, pc := range c.OnshoreWind(reg, events) {
		if pc.Capacity <= limit {
			continue
		}
		c.Diag.Warn(diag.Warning{
			Code: diag.CodeOnshoreWindLimit, Kind: model.KindPower, Group: c.Config.OnshoreWindTech,
			Year: pc.Period, Value: pc.Capacity, Limit: limit,
			Message: fmt.Sprintf("onshore wind operating in %d is %g MW, above the %g MW limit", pc.Period, pc.Capacity, limit),
		})
	}
}

// CheckNoNewThermal flags positive builds of fuel-based projects in any
// investment period. Projects with no known energy source are not checked.
func (c *Checker) CheckNoNewThermal(sources map[string]string, events []model.BuildEvent) {
	for _, ev := range events {
		src, ok := sources[ev.Project]
		if !ok || src == "" || src == "." || lo.Contains(c.Config.NonFuelEnergySources, src) {
			continue
		}
		if ev.Amount <= 0 || !c.Periods.Contains(ev.Year) {
			continue
		}
		c.Diag.Warn(diag.Warning{
			Code: diag.CodeNewThermalBuild, Kind: model.KindPower, Project: ev.Project,
			Year: ev.Year, Value: ev.Amount,
			Message: fmt.Sprintf("fuel-based project %s (%s) builds %g MW in %d", ev.Project, src, ev.Amount, ev.Year),
		})
	}
}
