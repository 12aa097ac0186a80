package model

// TargetTable holds one value per (tech group, study year): the capacity (MW)
// or energy (MWh) that must be online. Groups keep insertion order.
type TargetTable struct {
	Kind  Kind
	Start int
	End   int

	groups []string
	rows   map[string][]float64
}

func NewTargetTable(kind Kind, groups []string, start, end int) *TargetTable {
	t := &TargetTable{Kind: kind, Start: start, End: end, rows: map[string][]float64{}}
	for _, g := range groups {
		t.ensure(g)
	}
	return t
}

func (t *TargetTable) ensure(g string) []float64 {
	row, ok := t.rows[g]
	if !ok {
		row = make([]float64, t.End-t.Start+1)
		t.rows[g] = row
		t.groups = append(t.groups, g)
	}
	return row
}

func (t *TargetTable) Groups() []string { return append([]string(nil), t.groups...) }

func (t *TargetTable) Has(g string) bool {
	_, ok := t.rows[g]
	return ok
}

func (t *TargetTable) Years() []int {
	out := make([]int, 0, t.End-t.Start+1)
	for y := t.Start; y <= t.End; y++ {
		out = append(out, y)
	}
	return out
}

func (t *TargetTable) InHorizon(year int) bool { return year >= t.Start && year <= t.End }

// Get returns 0 for unknown groups or years outside the horizon.
func (t *TargetTable) Get(g string, year int) float64 {
	row, ok := t.rows[g]
	if !ok || !t.InHorizon(year) {
		return 0
	}
	return row[year-t.Start]
}

// Set adds the group if needed; years outside the horizon are ignored.
func (t *TargetTable) Set(g string, year int, v float64) {
	row := t.ensure(g)
	if t.InHorizon(year) {
		row[year-t.Start] = v
	}
}

// AddRange adds v to every year in [first, last], clipped to the horizon.
func (t *TargetTable) AddRange(g string, first, last int, v float64) {
	row := t.ensure(g)
	if first < t.Start {
		first = t.Start
	}
	if last > t.End {
		last = t.End
	}
	for y := first; y <= last; y++ {
		row[y-t.Start] += v
	}
}

// Row returns a copy of the group's values indexed from Start.
func (t *TargetTable) Row(g string) []float64 {
	return append([]float64(nil), t.rows[g]...)
}

func (t *TargetTable) SetRow(g string, vals []float64) {
	copy(t.ensure(g), vals)
}

func (t *TargetTable) Clone() *TargetTable {
	c := NewTargetTable(t.Kind, nil, t.Start, t.End)
	for _, g := range t.groups {
		c.SetRow(g, t.rows[g])
	}
	return c
}

// Restrict returns a table with only the listed groups that exist in t, in the
// listed order.
func (t *TargetTable) Restrict(groups []string) *TargetTable {
	c := NewTargetTable(t.Kind, nil, t.Start, t.End)
	for _, g := range groups {
		if row, ok := t.rows[g]; ok {
			c.SetRow(g, row)
		}
	}
	return c
}

// MaxTable returns the element-wise maximum of a and b over the union of their
// groups (a's order first). Both tables must share a horizon.
func MaxTable(a, b *TargetTable) *TargetTable {
	out := a.Clone()
	for _, g := range b.groups {
		row := out.ensure(g)
		if !a.Has(g) {
			copy(row, b.rows[g])
			continue
		}
		for i, v := range b.rows[g] {
			if v > row[i] {
				row[i] = v
			}
		}
	}
	return out
}
