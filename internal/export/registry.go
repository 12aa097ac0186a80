package export

import (
	"path/filepath"
	"strconv"

	"annual-plan/internal/data"

	"github.com/pkg/errors"
)

// RegistryAdjustment describes the edits made to generation_projects_info.csv
// for the annual model.
type RegistryAdjustment struct {
	// MinIncrement sets gen_min_build_capacity for every technology of a group
	// so the annual model can build that group in smaller chunks.
	MinIncrement  map[string]float64
	TechsForGroup map[string][]string
	// LifeOverrides sets gen_max_age by gen_tech. The multi-year model rounds
	// retirements to period boundaries, so a plant it expects to last until
	// the next period start needs that longer life in the annual model.
	LifeOverrides map[string]int
}

// AdjustRegistry edits t in place and returns the number of cells changed.
// All other columns are left untouched.
func AdjustRegistry(t *data.Table, adj RegistryAdjustment) (int, error) {
	techCol, err := t.Col("gen_tech")
	if err != nil {
		return 0, err
	}
	minSize := map[string]string{}
	for g, inc := range adj.MinIncrement {
		for _, tech := range adj.TechsForGroup[g] {
			minSize[tech] = data.FormatFloat(inc)
		}
	}

	changed := 0
	if len(minSize) > 0 {
		col := t.AddCol("gen_min_build_capacity", data.Missing)
		for i := range t.Rows {
			if v, ok := minSize[t.Cell(i, techCol)]; ok {
				t.SetCell(i, col, v)
				changed++
			}
		}
	}
	if len(adj.LifeOverrides) > 0 {
		col, err := t.Col("gen_max_age")
		if err != nil {
			return changed, err
		}
		for i := range t.Rows {
			if age, ok := adj.LifeOverrides[t.Cell(i, techCol)]; ok {
				t.SetCell(i, col, strconv.Itoa(age))
				changed++
			}
		}
	}
	return changed, nil
}

// WriteRegistry writes generation_projects_info_adjusted.csv into dir.
func WriteRegistry(dir string, t *data.Table) (string, error) {
	path := filepath.Join(dir, RegistryFile)
	if err := data.WriteCSV(path, t); err != nil {
		return "", errors.Wrap(err, "write adjusted project registry")
	}
	return path, nil
}
