package data

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Missing is the sentinel the model's input tables use for an empty cell.
const Missing = "."

// Table is a CSV file held as strings so that columns this tool does not
// interpret survive a read/modify/write round trip unchanged.
type Table struct {
	Path   string
	Header []string
	Rows   [][]string

	index map[string]int
}

func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open table")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	recs, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if len(recs) == 0 {
		return nil, errors.Errorf("%s: empty table", path)
	}
	t := NewTable(recs[0])
	t.Path = path
	for i, rec := range recs[1:] {
		if len(rec) != len(t.Header) {
			return nil, errors.Errorf("%s line %d: %d fields, header has %d", path, i+2, len(rec), len(t.Header))
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

func NewTable(header []string) *Table {
	t := &Table{Header: append([]string(nil), header...), index: map[string]int{}}
	for i, h := range t.Header {
		t.index[strings.TrimSpace(h)] = i
	}
	return t
}

// Col returns the index of a named column.
func (t *Table) Col(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return 0, errors.Errorf("%s: missing column %q", t.Path, name)
	}
	return i, nil
}

func (t *Table) HasCol(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Cols resolves several columns at once.
func (t *Table) Cols(names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, n := range names {
		c, err := t.Col(n)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// Float parses a cell; blank and "." cells read as NaN.
func (t *Table) Float(row, col int) (float64, error) {
	s := strings.TrimSpace(t.Rows[row][col])
	if s == "" || s == Missing {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Errorf("%s row %d column %s: %q is not a number", t.Path, row+2, t.Header[col], s)
	}
	return v, nil
}

// Int parses a cell holding a whole number (written either as 2020 or 2020.0).
func (t *Table) Int(row, col int) (int, error) {
	v, err := t.Float(row, col)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || v != math.Trunc(v) {
		return 0, errors.Errorf("%s row %d column %s: %q is not a whole number", t.Path, row+2, t.Header[col], t.Rows[row][col])
	}
	return int(v), nil
}

func (t *Table) Cell(row, col int) string {
	return strings.TrimSpace(t.Rows[row][col])
}

func (t *Table) SetCell(row, col int, v string) {
	t.Rows[row][col] = v
}

func (t *Table) Append(row []string) {
	t.Rows = append(t.Rows, row)
}

// AddCol appends a column filled with fill and returns its index. An existing
// column is left as is.
func (t *Table) AddCol(name, fill string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	t.Header = append(t.Header, name)
	t.index[name] = len(t.Header) - 1
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], fill)
	}
	return len(t.Header) - 1
}

// WriteCSV writes the table, creating the parent directory if needed.
func WriteCSV(path string, t *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create output dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create table")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

// FormatFloat renders a value for a model input table; NaN becomes Missing.
func FormatFloat(x float64) string {
	if math.IsNaN(x) {
		return Missing
	}
	return strconv.FormatFloat(x, 'f', -1, 64)
}
