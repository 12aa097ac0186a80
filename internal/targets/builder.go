// Package targets derives the annual capacity targets the plan shifter must
// meet: the larger of the utility outlook and the solved multi-year plan,
// optionally smoothed between investment periods.
package targets

import (
	"math"
	"sort"

	"annual-plan/internal/data"
	"annual-plan/internal/model"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Tables holds the power (MW) and energy (MWh) targets of one run.
type Tables struct {
	Power  *model.TargetTable
	Energy *model.TargetTable
}

func (t *Tables) Get(k model.Kind) *model.TargetTable {
	if k == model.KindEnergy {
		return t.Energy
	}
	return t.Power
}

// Builder turns outlook commitments and plan builds into constant-height
// shelves summed per tech group and year.
type Builder struct {
	Registry *model.Registry
	Periods  model.Periods
	Start    int
	End      int
	Logger   *zap.Logger
}

func (b *Builder) logger() *zap.Logger {
	if b.Logger == nil {
		return zap.NewNop()
	}
	return b.Logger
}

// ExistingEntries sums pre-existing capacity per (build year, tech group) for
// registry projects and returns it as outlook entries labelled "existing".
// Energy entries are only produced where the summed energy is positive.
func (b *Builder) ExistingEntries(existing []data.Predetermined) (power, energy []model.OutlookEntry) {
	type key struct {
		year  int
		group string
	}
	mw := map[key]float64{}
	mwh := map[key]float64{}
	for _, row := range existing {
		p, ok := b.Registry.Project(row.Project)
		if !ok {
			continue
		}
		k := key{row.Year, p.Group}
		c := row.CapacityMW
		if math.IsNaN(c) {
			c = 0
		}
		mw[k] += c
		if !math.IsNaN(row.EnergyMWh) {
			mwh[k] += row.EnergyMWh
		}
	}
	keys := lo.Keys(mw)
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].group < keys[j].group
	})
	for _, k := range keys {
		power = append(power, model.OutlookEntry{Year: k.year, Group: k.group, Capacity: mw[k], Label: model.LabelExisting})
		if mwh[k] > 0 {
			energy = append(energy, model.OutlookEntry{Year: k.year, Group: k.group, Capacity: mwh[k], Label: model.LabelExisting})
		}
	}
	return power, energy
}

// OutlookTable adds a shelf for every entry, from its year (or study start)
// through the end of its group's service life (or study end). Entries for
// groups without registry projects are dropped.
func (b *Builder) OutlookTable(kind model.Kind, groups []string, entries []model.OutlookEntry) *model.TargetTable {
	t := model.NewTargetTable(kind, groups, b.Start, b.End)
	for _, e := range entries {
		g, ok := b.Registry.Group(e.Group)
		if !ok || !t.Has(e.Group) {
			b.logger().Debug("dropping outlook entry for unknown tech group",
				zap.String("kind", string(kind)), zap.String("group", e.Group), zap.Int("year", e.Year))
			continue
		}
		t.AddRange(e.Group, max(e.Year, b.Start), e.Year+g.MaxAge-1, e.Capacity)
	}
	return t
}

// PlanTable adds a shelf for every registry build in the solved plan. The
// multi-year model keeps a build online until the period boundary after its
// retirement, so shelves run to Periods.ServiceEnd.
func (b *Builder) PlanTable(kind model.Kind, groups []string, events []model.BuildEvent) *model.TargetTable {
	t := model.NewTargetTable(kind, groups, b.Start, b.End)
	for _, ev := range events {
		p, ok := b.Registry.Project(ev.Project)
		if !ok || !t.Has(p.Group) {
			continue
		}
		last := b.Periods.ServiceEnd(ev.Year, p.MaxAge, b.End)
		t.AddRange(p.Group, max(ev.Year, b.Start), last, ev.Amount)
	}
	return t
}

// Build returns the element-wise maximum of the plan and outlook tables.
// Power targets are limited to powerGroups (in that order); energy targets
// cover every storage group in the outlook.
func (b *Builder) Build(outlook *model.Outlook, existing []data.Predetermined, plan *model.BuildPlan, powerGroups []string) *Tables {
	all := lo.Keys(outlook.TechsForTechGroup)
	sort.Strings(all)
	storage := lo.Filter(all, func(g string, _ int) bool { return model.IsStorageGroup(g) })

	exPower, exEnergy := b.ExistingEntries(existing)
	powerEntries := append(exPower, outlook.PowerTargets...)
	energyEntries := append(exEnergy, outlook.EnergyTargets...)

	power := model.MaxTable(
		b.PlanTable(model.KindPower, all, plan.Power),
		b.OutlookTable(model.KindPower, all, powerEntries),
	)
	energy := model.MaxTable(
		b.PlanTable(model.KindEnergy, storage, plan.Energy),
		b.OutlookTable(model.KindEnergy, storage, energyEntries),
	)
	b.logger().Info("built capacity targets",
		zap.Int("power_groups", len(powerGroups)),
		zap.Int("energy_groups", len(storage)),
		zap.Int("outlook_power_entries", len(powerEntries)),
		zap.Int("outlook_energy_entries", len(energyEntries)),
	)
	return &Tables{Power: power.Restrict(powerGroups), Energy: energy}
}
