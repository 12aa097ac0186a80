package export

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"annual-plan/internal/config"
	"annual-plan/internal/data"
	"annual-plan/internal/model"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

const AdditionsFile = "capacity_additions_table.csv"

// Addition is capacity (and storage energy, NaN when not applicable) added
// to a group in a year, attributed to one source label.
type Addition struct {
	Year   int     `json:"year"`
	Group  string  `json:"tech_group"`
	Label  string  `json:"label"`
	Power  float64 `json:"power_mw"`
	Energy float64 `json:"energy_mwh"`
}

// Text is the cell text for one addition, e.g. "50.0 MW/200.0 MWh\n(RFP Stage 1)".
func (a Addition) Text() string {
	s := fmt.Sprintf("%.1f", a.Power)
	if !math.IsNaN(a.Energy) {
		s += fmt.Sprintf(" MW/%.1f MWh", a.Energy)
	}
	return s + "\n(" + a.Label + ")"
}

// AdditionsTable is the year by tech group summary of new construction.
type AdditionsTable struct {
	Columns   []config.ColumnConfig `json:"columns"`
	Years     []int                 `json:"years"`
	Additions []Addition            `json:"additions"`

	cells map[int]map[string]string
}

// Cell returns the joined text for (year, group), or "".
func (t *AdditionsTable) Cell(year int, group string) string {
	return t.cells[year][group]
}

type yearGroup struct {
	year  int
	group string
}

type yearGroupLabel struct {
	yearGroup
	label string
}

// AdditionsInputs holds the final predetermined table, the outlook entries
// (existing capacity included) and the reporting options.
type AdditionsInputs struct {
	Predetermined *Predetermined
	Registry      *model.Registry
	PowerEntries  []model.OutlookEntry
	EnergyEntries []model.OutlookEntry
	Start         int
	PlanLabel     string
	Columns       []config.ColumnConfig
	Zero          float64
}

// BuildAdditions attributes construction in the predetermined table to the
// outlook labels that call for it; whatever is left over is credited to the
// plan label. Rows before the study, empty rows and rebuilds are dropped.
func BuildAdditions(in AdditionsInputs) *AdditionsTable {
	builtPower := map[yearGroup]float64{}
	builtEnergy := map[yearGroup]float64{}
	var order []yearGroup
	for _, r := range in.Predetermined.rows {
		k := yearGroup{r.Year, groupOf(in.Registry, r.Project)}
		if _, ok := builtPower[k]; !ok {
			order = append(order, k)
		}
		// NaN energy marks the whole cell as having no storage energy.
		builtPower[k] += r.CapacityMW
		builtEnergy[k] += r.EnergyMWh
	}

	powerPlan, powerLabels := sumByLabel(in.PowerEntries)
	energyPlan, _ := sumByLabel(in.EnergyEntries)

	var rows []Addition
	for _, k := range powerLabels {
		e, ok := energyPlan[k]
		if !ok {
			e = math.NaN()
		}
		rows = append(rows, Addition{Year: k.year, Group: k.group, Label: k.label, Power: powerPlan[k], Energy: e})
	}
	planned := func(m map[yearGroupLabel]float64, k yearGroup) float64 {
		total := 0.0
		for l, v := range m {
			if l.yearGroup == k {
				total += v
			}
		}
		return total
	}
	for _, k := range order {
		rows = append(rows, Addition{
			Year:   k.year,
			Group:  k.group,
			Label:  in.PlanLabel,
			Power:  zeroSmall(builtPower[k]-planned(powerPlan, k), in.Zero),
			Energy: zeroSmall(builtEnergy[k]-planned(energyPlan, k), in.Zero),
		})
	}

	rows = lo.Filter(rows, func(a Addition, _ int) bool {
		return a.Year >= in.Start && (a.Power > 0 || a.Energy > 0) && !strings.HasPrefix(a.Label, "rebuild")
	})

	t := &AdditionsTable{Columns: in.Columns, Additions: rows, cells: map[int]map[string]string{}}
	for _, a := range rows {
		if t.cells[a.Year] == nil {
			t.cells[a.Year] = map[string]string{}
		}
		if prev := t.cells[a.Year][a.Group]; prev != "" {
			t.cells[a.Year][a.Group] = prev + "\n" + a.Text()
		} else {
			t.cells[a.Year][a.Group] = a.Text()
		}
	}
	t.Years = lo.Keys(t.cells)
	sort.Ints(t.Years)
	return t
}

// groupOf returns the project's tech group; projects outside the registry are
// reported under their own name without the island prefix.
func groupOf(reg *model.Registry, project string) string {
	if p, ok := reg.Project(project); ok {
		return p.Group
	}
	return strings.TrimPrefix(project, "Oahu_")
}

// sumByLabel totals entries per (year, group, label) and returns the keys
// sorted by year, group and label.
func sumByLabel(entries []model.OutlookEntry) (map[yearGroupLabel]float64, []yearGroupLabel) {
	out := map[yearGroupLabel]float64{}
	for _, e := range entries {
		out[yearGroupLabel{yearGroup{e.Year, e.Group}, e.Label}] += e.Capacity
	}
	keys := lo.Keys(out)
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.year != b.year {
			return a.year < b.year
		}
		if a.group != b.group {
			return a.group < b.group
		}
		return a.label < b.label
	})
	return out, keys
}

func zeroSmall(v, tol float64) float64 {
	if math.Abs(v) < tol {
		return 0
	}
	return v
}

func (t *AdditionsTable) header() []string {
	h := []string{"year"}
	for _, c := range t.Columns {
		h = append(h, c.Title)
	}
	return h
}

func (t *AdditionsTable) records() [][]string {
	out := make([][]string, 0, len(t.Years))
	for _, y := range t.Years {
		rec := []string{strconv.Itoa(y)}
		for _, c := range t.Columns {
			rec = append(rec, t.Cell(y, c.Group))
		}
		out = append(out, rec)
	}
	return out
}

// Table returns the pivot as a CSV table: one row per year, one column per
// configured group under its display title.
func (t *AdditionsTable) Table() *data.Table {
	tbl := data.NewTable(t.header())
	for _, rec := range t.records() {
		tbl.Append(rec)
	}
	return tbl
}

// WriteAdditions writes capacity_additions_table.csv into dir.
func WriteAdditions(dir string, t *AdditionsTable) (string, error) {
	path := filepath.Join(dir, AdditionsFile)
	if err := data.WriteCSV(path, t.Table()); err != nil {
		return "", errors.Wrap(err, "write capacity additions")
	}
	return path, nil
}

// Render prints the pivot for a terminal.
func (t *AdditionsTable) Render(w io.Writer) error {
	opt := tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
	})
	table := tablewriter.NewTable(w, opt)
	table.Header(t.header())
	for _, rec := range t.records() {
		if err := table.Append(rec); err != nil {
			return err
		}
	}
	return table.Render()
}
