package export

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"annual-plan/internal/diag"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
)

const DiagnosticsFile = "annualize_diagnostics.csv"

var diagnosticsHeader = []string{
	"code",
	"kind",
	"group",
	"project",
	"year",
	"value",
	"limit",
	"message",
}

func diagnosticRecord(w diag.Warning) []string {
	year := ""
	if w.Year != 0 {
		year = strconv.Itoa(w.Year)
	}
	return []string{
		string(w.Code),
		string(w.Kind),
		w.Group,
		w.Project,
		year,
		fmtFloat(w.Value),
		fmtFloat(w.Limit),
		w.Message,
	}
}

// WriteDiagnostics writes annualize_diagnostics.csv into dir. The file is
// written even when there are no warnings.
func WriteDiagnostics(dir string, warnings []diag.Warning) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create output dir")
	}
	path := filepath.Join(dir, DiagnosticsFile)
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "create diagnostics")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(diagnosticsHeader); err != nil {
		return "", err
	}
	for _, d := range warnings {
		if err := w.Write(diagnosticRecord(d)); err != nil {
			return "", err
		}
	}
	w.Flush()
	return path, w.Error()
}

// RenderDiagnostics prints warnings for a terminal.
func RenderDiagnostics(out io.Writer, warnings []diag.Warning) error {
	table := tablewriter.NewTable(out)
	table.Header(diagnosticsHeader)
	for _, d := range warnings {
		if err := table.Append(diagnosticRecord(d)); err != nil {
			return err
		}
	}
	return table.Render()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
