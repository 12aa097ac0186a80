// Package export writes the shifted construction plan back out in the annual
// model's input formats, plus the tables analysts review.
package export

import (
	"math"
	"path/filepath"
	"strconv"

	"annual-plan/internal/data"
	"annual-plan/internal/ledger"
	"annual-plan/internal/model"

	"github.com/pkg/errors"
)

const (
	PredeterminedFile = "gen_build_predetermined_adjusted.csv"
	RegistryFile      = "generation_projects_info_adjusted.csv"
)

// Row is one (project, build year) line of the predetermined table. NaN
// means the cell is written as missing.
type Row struct {
	data.Key
	CapacityMW float64
	EnergyMWh  float64
}

// Predetermined is the annual model's gen_build_predetermined table, with
// rows kept in the order they were first written.
type Predetermined struct {
	rows  []Row
	index map[data.Key]int
}

func newPredetermined() *Predetermined {
	return &Predetermined{index: map[data.Key]int{}}
}

func (p *Predetermined) row(k data.Key) *Row {
	i, ok := p.index[k]
	if !ok {
		i = len(p.rows)
		p.index[k] = i
		p.rows = append(p.rows, Row{Key: k, CapacityMW: math.NaN(), EnergyMWh: math.NaN()})
	}
	return &p.rows[i]
}

func (p *Predetermined) Rows() []Row { return append([]Row(nil), p.rows...) }

func (p *Predetermined) Get(project string, year int) (Row, bool) {
	i, ok := p.index[data.Key{Project: project, Year: year}]
	if !ok {
		return Row{}, false
	}
	return p.rows[i], true
}

// PredeterminedInputs is everything the predetermined table is assembled from.
type PredeterminedInputs struct {
	// BuildKeys are the (project, year) rows of the annual gen_build_costs.csv.
	BuildKeys []data.Key
	// Annual is the annual model's own gen_build_predetermined.csv.
	Annual   []data.Predetermined
	Plan     *model.BuildPlan
	Power    *ledger.Ledger
	Energy   *ledger.Ledger
	Registry *model.Registry
	Start    int
	End      int
}

// BuildPredetermined lays the layers down in order: every allowed build
// year (capacity from the annual predetermined table or 0, energy missing),
// then the solved plan, then the shifted ledgers for every registry project
// and study year.
func BuildPredetermined(in PredeterminedInputs) *Predetermined {
	p := newPredetermined()

	annual := make(map[data.Key]float64, len(in.Annual))
	for _, a := range in.Annual {
		annual[a.Key] = a.CapacityMW
	}
	for _, k := range in.BuildKeys {
		c, ok := annual[k]
		if !ok || math.IsNaN(c) {
			c = 0
		}
		r := p.row(k)
		r.CapacityMW = c
	}

	for _, ev := range in.Plan.Power {
		p.row(data.Key{Project: ev.Project, Year: ev.Year}).CapacityMW = ev.Amount
	}
	for _, ev := range in.Plan.Energy {
		p.row(data.Key{Project: ev.Project, Year: ev.Year}).EnergyMWh = ev.Amount
	}

	for _, name := range in.Registry.Names() {
		proj, _ := in.Registry.Project(name)
		storage := model.IsStorageGroup(proj.Group)
		for y := in.Start; y <= in.End; y++ {
			r := p.row(data.Key{Project: name, Year: y})
			r.CapacityMW = in.Power.Amount(name, y)
			if storage {
				r.EnergyMWh = in.Energy.Amount(name, y)
			}
		}
	}
	return p
}

// Zero sets values smaller than tol in magnitude to exactly 0.
func (p *Predetermined) Zero(tol float64) {
	for i := range p.rows {
		r := &p.rows[i]
		if math.Abs(r.CapacityMW) < tol {
			r.CapacityMW = 0
		}
		if math.Abs(r.EnergyMWh) < tol {
			r.EnergyMWh = 0
		}
	}
}

// Table renders rows with build_year <= lastYear.
func (p *Predetermined) Table(lastYear int) *data.Table {
	t := data.NewTable([]string{
		"GENERATION_PROJECT",
		"build_year",
		"gen_predetermined_cap",
		"gen_predetermined_storage_energy_mwh",
	})
	for _, r := range p.rows {
		if r.Year > lastYear {
			continue
		}
		t.Append([]string{
			r.Project,
			strconv.Itoa(r.Year),
			data.FormatFloat(r.CapacityMW),
			data.FormatFloat(r.EnergyMWh),
		})
	}
	return t
}

// WritePredetermined writes gen_build_predetermined_adjusted.csv into dir.
func WritePredetermined(dir string, p *Predetermined, lastYear int) (string, error) {
	path := filepath.Join(dir, PredeterminedFile)
	if err := data.WriteCSV(path, p.Table(lastYear)); err != nil {
		return "", errors.Wrap(err, "write predetermined builds")
	}
	return path, nil
}
