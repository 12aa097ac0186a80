package data

import (
	"math"

	"annual-plan/internal/model"

	"github.com/pkg/errors"
)

// Key identifies one (project, build year) row of the model's build tables.
type Key struct {
	Project string
	Year    int
}

// Predetermined is one row of gen_build_predetermined.csv. EnergyMWh is NaN
// when the row has no storage energy.
type Predetermined struct {
	Key
	CapacityMW float64
	EnergyMWh  float64
}

// ReadPeriods reads periods.csv. Period labels must equal their start year.
func ReadPeriods(path string) (model.Periods, error) {
	t, err := ReadCSV(path)
	if err != nil {
		return nil, err
	}
	label, err := t.Col("INVESTMENT_PERIOD")
	if err != nil {
		return nil, err
	}
	start := -1
	if t.HasCol("period_start") {
		start, _ = t.Col("period_start")
	}
	starts := make([]int, 0, len(t.Rows))
	for i := range t.Rows {
		p, err := t.Int(i, label)
		if err != nil {
			return nil, err
		}
		if start >= 0 {
			s, err := t.Int(i, start)
			if err != nil {
				return nil, err
			}
			if s != p {
				return nil, errors.Errorf("%s: period %d starts in %d; period labels must equal period_start", path, p, s)
			}
		}
		starts = append(starts, p)
	}
	periods, err := model.NewPeriods(starts)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return periods, nil
}

// ReadProjects reads generation_projects_info.csv and keeps only projects whose
// technology maps to a tech group.
func ReadProjects(path string, techGroup map[string]string) ([]model.Project, error) {
	t, err := ReadCSV(path)
	if err != nil {
		return nil, err
	}
	cols, err := t.Cols("GENERATION_PROJECT", "gen_tech", "gen_max_age")
	if err != nil {
		return nil, err
	}
	optional := func(name string) int {
		if c, err := t.Col(name); err == nil {
			return c
		}
		return -1
	}
	minBuild := optional("gen_min_build_capacity")
	limit := optional("gen_capacity_limit_mw")
	source := optional("gen_energy_source")

	var out []model.Project
	for i := range t.Rows {
		tech := t.Cell(i, cols[1])
		group, ok := techGroup[tech]
		if !ok {
			continue
		}
		age, err := t.Int(i, cols[2])
		if err != nil {
			return nil, err
		}
		p := model.Project{
			Name:             t.Cell(i, cols[0]),
			Tech:             tech,
			Group:            group,
			MaxAge:           age,
			MinBuildCapacity: math.NaN(),
			CapacityLimitMW:  math.NaN(),
		}
		if minBuild >= 0 {
			if p.MinBuildCapacity, err = t.Float(i, minBuild); err != nil {
				return nil, err
			}
		}
		if limit >= 0 {
			if p.CapacityLimitMW, err = t.Float(i, limit); err != nil {
				return nil, err
			}
		}
		if source >= 0 {
			p.EnergySource = t.Cell(i, source)
		}
		out = append(out, p)
	}
	return out, nil
}

// ReadEnergySources maps every project in generation_projects_info.csv to its
// gen_energy_source, including projects outside any tech group.
func ReadEnergySources(path string) (map[string]string, error) {
	t, err := ReadCSV(path)
	if err != nil {
		return nil, err
	}
	cols, err := t.Cols("GENERATION_PROJECT", "gen_energy_source")
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(t.Rows))
	for i := range t.Rows {
		out[t.Cell(i, cols[0])] = t.Cell(i, cols[1])
	}
	return out, nil
}

// ReadBuildGen reads the solved plan's BuildGen.csv.
func ReadBuildGen(path string) ([]model.BuildEvent, error) {
	return readBuildEvents(path, "GEN_BLD_YRS_1", "GEN_BLD_YRS_2", "BuildGen")
}

// ReadBuildStorageEnergy reads the solved plan's BuildStorageEnergy.csv.
func ReadBuildStorageEnergy(path string) ([]model.BuildEvent, error) {
	return readBuildEvents(path, "STORAGE_GEN_BLD_YRS_1", "STORAGE_GEN_BLD_YRS_2", "BuildStorageEnergy")
}

func readBuildEvents(path, projCol, yearCol, valCol string) ([]model.BuildEvent, error) {
	t, err := ReadCSV(path)
	if err != nil {
		return nil, err
	}
	cols, err := t.Cols(projCol, yearCol, valCol)
	if err != nil {
		return nil, err
	}
	out := make([]model.BuildEvent, 0, len(t.Rows))
	for i := range t.Rows {
		y, err := t.Int(i, cols[1])
		if err != nil {
			return nil, err
		}
		v, err := t.Float(i, cols[2])
		if err != nil {
			return nil, err
		}
		if math.IsNaN(v) {
			v = 0
		}
		out = append(out, model.BuildEvent{Project: t.Cell(i, cols[0]), Year: y, Amount: v})
	}
	return out, nil
}

// ReadPredetermined reads gen_build_predetermined.csv.
func ReadPredetermined(path string) ([]Predetermined, error) {
	t, err := ReadCSV(path)
	if err != nil {
		return nil, err
	}
	cols, err := t.Cols("GENERATION_PROJECT", "build_year", "gen_predetermined_cap")
	if err != nil {
		return nil, err
	}
	energy := -1
	if t.HasCol("gen_predetermined_storage_energy_mwh") {
		energy, _ = t.Col("gen_predetermined_storage_energy_mwh")
	}
	out := make([]Predetermined, 0, len(t.Rows))
	for i := range t.Rows {
		y, err := t.Int(i, cols[1])
		if err != nil {
			return nil, err
		}
		c, err := t.Float(i, cols[2])
		if err != nil {
			return nil, err
		}
		e := math.NaN()
		if energy >= 0 {
			if e, err = t.Float(i, energy); err != nil {
				return nil, err
			}
		}
		out = append(out, Predetermined{Key: Key{Project: t.Cell(i, cols[0]), Year: y}, CapacityMW: c, EnergyMWh: e})
	}
	return out, nil
}

// ReadBuildKeys reads the (project, build year) keys of gen_build_costs.csv,
// i.e. every build the annual model allows.
func ReadBuildKeys(path string) ([]Key, error) {
	t, err := ReadCSV(path)
	if err != nil {
		return nil, err
	}
	cols, err := t.Cols("GENERATION_PROJECT", "build_year")
	if err != nil {
		return nil, err
	}
	out := make([]Key, 0, len(t.Rows))
	for i := range t.Rows {
		y, err := t.Int(i, cols[1])
		if err != nil {
			return nil, err
		}
		out = append(out, Key{Project: t.Cell(i, cols[0]), Year: y})
	}
	return out, nil
}
