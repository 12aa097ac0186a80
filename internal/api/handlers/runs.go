package handlers

import (
	"net/http"
	"sort"
	"time"

	"annual-plan/internal/api/models"
	"annual-plan/internal/config"
	"annual-plan/internal/data"
	"annual-plan/internal/diag"
	"annual-plan/internal/ledger"
	"annual-plan/internal/model"
	"annual-plan/internal/pipeline"
	"annual-plan/internal/shift"
	"annual-plan/internal/targets"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// DefaultRunTTL is how long a finished run stays reviewable.
const DefaultRunTTL = 30 * time.Minute

type run struct {
	id        string
	createdAt time.Time
	result    *pipeline.Result
}

// RunHandler runs scenarios on request and serves their results for review.
type RunHandler struct {
	cfg    *config.Config
	root   string
	logger *zap.Logger
	runs   *data.Cache[*run]
}

// NewRunHandler creates a handler that resolves scenario directories
// against root.
func NewRunHandler(cfg *config.Config, root string, logger *zap.Logger, ttl time.Duration) *RunHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultRunTTL
	}
	return &RunHandler{cfg: cfg, root: root, logger: logger, runs: data.NewCache[*run](ttl)}
}

func abort(c *gin.Context, status int, code, msg string, details map[string]interface{}) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{Code: code, Message: msg, Details: details},
	})
}

// CreateRun handles POST /api/v1/runs
func (h *RunHandler) CreateRun(c *gin.Context) {
	var req models.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	if req.Scenario == "" {
		req.Scenario = config.ScenarioDefault
	}
	if !lo.Contains(h.cfg.ScenarioNames(), req.Scenario) {
		abort(c, http.StatusBadRequest, "INVALID_SCENARIO", "unknown scenario "+req.Scenario,
			map[string]interface{}{"scenarios": h.cfg.ScenarioNames()})
		return
	}

	h.runs.Sweep()
	res, err := pipeline.New(h.cfg, h.logger).Run(pipeline.Options{
		Scenario: req.Scenario,
		Root:     h.root,
		Write:    req.Write,
	})
	if err != nil {
		h.runFailed(c, err)
		return
	}

	r := &run{id: uuid.NewString(), createdAt: time.Now().UTC(), result: res}
	h.runs.Set(r.id, r)
	c.JSON(http.StatusCreated, runResponse(r))
}

func (h *RunHandler) runFailed(c *gin.Context, err error) {
	var nm *targets.NonMonotonicError
	var cl *shift.CapacityLimitError
	switch {
	case errors.As(err, &nm):
		abort(c, http.StatusUnprocessableEntity, "NON_MONOTONIC_TARGET", err.Error(), map[string]interface{}{
			"kind": nm.Kind, "tech_group": nm.Group, "year": nm.Year, "drop": nm.Drop,
		})
	case errors.As(err, &cl):
		abort(c, http.StatusUnprocessableEntity, "CAPACITY_LIMIT_EXCEEDED", err.Error(), map[string]interface{}{
			"project": cl.Project, "year": cl.Year, "online": cl.Online, "limit": cl.Limit,
		})
	default:
		h.logger.Error("run failed", zap.Error(err))
		abort(c, http.StatusInternalServerError, "RUN_FAILED", err.Error(), nil)
	}
}

// lookup writes a 404 and returns nil when the run is unknown or expired.
func (h *RunHandler) lookup(c *gin.Context) *run {
	id := c.Param("id")
	r, ok := h.runs.Get(id)
	if !ok {
		abort(c, http.StatusNotFound, "RUN_NOT_FOUND", "run "+id+" not found or expired", nil)
		return nil
	}
	return r
}

func runResponse(r *run) models.RunResponse {
	res := r.result
	warnings := map[string]int{}
	for _, w := range res.Warnings {
		warnings[string(w.Code)]++
	}
	return models.RunResponse{
		ID:        r.id,
		Scenario:  res.Scenario,
		Status:    "completed",
		CreatedAt: r.createdAt,
		Summary: models.RunSummary{
			Periods:      res.Periods,
			Projects:     len(res.Registry.Names()),
			PowerGroups:  res.Targets.Power.Groups(),
			EnergyGroups: res.Targets.Energy.Groups(),
			Moves:        len(res.Moves),
			Warnings:     warnings,
			Files:        res.Files,
		},
	}
}

// GetRun handles GET /api/v1/runs/:id
func (h *RunHandler) GetRun(c *gin.Context) {
	if r := h.lookup(c); r != nil {
		c.JSON(http.StatusOK, runResponse(r))
	}
}

// GetTargets handles GET /api/v1/runs/:id/targets
func (h *RunHandler) GetTargets(c *gin.Context) {
	r := h.lookup(c)
	if r == nil {
		return
	}
	res := r.result
	resp := models.TargetsResponse{ID: r.id, Years: res.Targets.Power.Years()}
	for _, k := range model.Kinds {
		final := res.Targets.Get(k)
		raw := res.RawTargets.Get(k)
		l := ledgerOf(res, k)
		for _, g := range final.Groups() {
			s := models.TargetSeries{Kind: string(k), Group: g, Raw: raw.Row(g), Target: final.Row(g)}
			for _, y := range final.Years() {
				s.Online = append(s.Online, l.Online(g, y))
			}
			resp.Series = append(resp.Series, s)
		}
	}
	c.JSON(http.StatusOK, resp)
}

func ledgerOf(res *pipeline.Result, k model.Kind) *ledger.Ledger {
	if k == model.KindEnergy {
		return res.Energy
	}
	return res.Power
}

// GetLedger handles GET /api/v1/runs/:id/ledger
// Query params: kind (power|energy, default both), group
func (h *RunHandler) GetLedger(c *gin.Context) {
	r := h.lookup(c)
	if r == nil {
		return
	}
	kinds := model.Kinds
	if q := c.Query("kind"); q != "" {
		if !lo.Contains(model.Kinds, model.Kind(q)) {
			abort(c, http.StatusBadRequest, "INVALID_KIND", "kind must be power or energy", nil)
			return
		}
		kinds = []model.Kind{model.Kind(q)}
	}
	group := c.Query("group")

	resp := models.LedgerResponse{ID: r.id, Entries: []models.LedgerEntry{}}
	for _, k := range kinds {
		for _, e := range ledgerOf(r.result, k).Entries() {
			if group != "" && e.Group != group {
				continue
			}
			resp.Entries = append(resp.Entries, models.LedgerEntry{
				Kind: string(k), Group: e.Group, Project: e.Project, Year: e.Year, Amount: e.Amount,
			})
		}
	}
	c.JSON(http.StatusOK, resp)
}

// GetDiagnostics handles GET /api/v1/runs/:id/diagnostics
// Query params: code
func (h *RunHandler) GetDiagnostics(c *gin.Context) {
	r := h.lookup(c)
	if r == nil {
		return
	}
	warnings := r.result.Warnings
	if code := c.Query("code"); code != "" {
		warnings = lo.Filter(warnings, func(w diag.Warning, _ int) bool { return string(w.Code) == code })
	}
	c.JSON(http.StatusOK, models.DiagnosticsResponse{
		ID:       r.id,
		Warnings: append([]diag.Warning{}, warnings...),
		Moves:    append([]diag.Move{}, r.result.Moves...),
	})
}

// GetAdditions handles GET /api/v1/runs/:id/additions
func (h *RunHandler) GetAdditions(c *gin.Context) {
	r := h.lookup(c)
	if r == nil {
		return
	}
	t := r.result.Additions
	resp := models.AdditionsResponse{ID: r.id, Rows: []models.AdditionsRow{}}
	for _, col := range t.Columns {
		resp.Columns = append(resp.Columns, col.Title)
	}
	years := append([]int(nil), t.Years...)
	sort.Ints(years)
	for _, y := range years {
		row := models.AdditionsRow{Year: y, Cells: map[string]string{}}
		for _, col := range t.Columns {
			if s := t.Cell(y, col.Group); s != "" {
				row.Cells[col.Title] = s
			}
		}
		resp.Rows = append(resp.Rows, row)
	}
	c.JSON(http.StatusOK, resp)
}
