package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/obsidianstack/holecheck/pkg/compute"
	"github.com/obsidianstack/holecheck/pkg/types"
	"github.com/obsidianstack/holecheck/server/internal/auth"
	"github.com/obsidianstack/holecheck/server/internal/config"
	"github.com/obsidianstack/holecheck/server/internal/store"
)

// defaultDataset labels runs submitted without ?dataset=.
const defaultDataset = "api"

// Handler is the HTTP handler for /metrics and all /api/v1/* endpoints.
type Handler struct {
	store   *store.Store
	engine  *compute.Engine
	maxBody int64
	metrics *metrics
	router  chi.Router
}

// New creates a Handler wired to the given run store and registers all routes.
// Each Handler owns its own Prometheus registry.
func New(st *store.Store, cfg config.ServerConfig) http.Handler {
	reg := prometheus.NewRegistry()
	h := &Handler{
		store:   st,
		engine:  compute.NewEngine(cfg.Rules),
		maxBody: cfg.MaxBodyBytes,
		metrics: newMetrics(reg),
		router:  chi.NewRouter(),
	}
	if h.maxBody <= 0 {
		h.maxBody = config.DefaultMaxBodyBytes
	}

	r := h.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if origins := cfg.CORS.AllowedOrigins; len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", cfg.Auth.EffectiveHeader()},
			MaxAge:         int(cfg.CORS.MaxAge.Seconds()),
		}))
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonErr(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/api/v1/health", h.health)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	r.Group(func(r chi.Router) {
		r.Use(auth.APIKey(cfg.Auth.Mode, cfg.Auth.EffectiveHeader(), cfg.Auth.Key()))
		r.Post("/api/v1/evaluate", h.evaluate)
		r.Post("/api/v1/annotate", h.annotate)
		r.Post("/api/v1/summarize", h.summarize)
		r.Get("/api/v1/runs", h.listRuns)
		r.Post("/api/v1/runs", h.receiveRun)
		r.Get("/api/v1/runs/{id}", h.getRun)
	})

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health: status, live run count and active rules.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	cfg := h.engine.Config()
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		RunCount:   len(h.store.List()),
		Thresholds: cfg.Thresholds,
		Workers:    cfg.Workers,
	})
}

// evaluate returns POST /api/v1/evaluate: flags and diagnostics for one part.
func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if !h.decode(w, r, &req) {
		return
	}

	th := h.engine.Config().Thresholds
	a := compute.Assess(req.Holes, th)
	h.metrics.observe(1, boolInt(a.Warning), boolInt(a.Error))

	jsonResp(w, http.StatusOK, EvaluateResponse{
		Assessment: a,
		Hints:      computeHints(a, th),
	})
}

// annotate returns POST /api/v1/annotate: the table with both flag columns
// attached plus the stored run.
func (h *Handler) annotate(w http.ResponseWriter, r *http.Request) {
	var req TableRequest
	if !h.decode(w, r, &req) {
		return
	}

	dataset := r.URL.Query().Get("dataset")
	if dataset == "" {
		dataset = defaultDataset
	}
	run := types.NewRun(dataset, time.Now().UTC())

	cfg := h.engine.Config()
	annotated := h.engine.Annotate(req.table())
	rep, err := compute.Summarize(annotated, cfg)
	if err != nil {
		// Annotate always adds both columns.
		jsonErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	run.Finish(rep, time.Now().UTC())

	h.store.Put(run)
	h.metrics.runs.Inc()
	h.metrics.observe(rep.TotalParts, rep.PartsWithWarnings, rep.PartsWithErrors)
	slog.Info("api: run stored",
		"run", run.ID,
		"dataset", run.Dataset,
		"total_parts", rep.TotalParts,
		"parts_with_errors", rep.PartsWithErrors,
	)

	jsonResp(w, http.StatusOK, AnnotateResponse{
		Run:     run,
		Columns: annotated.Columns,
		Rows:    nonNilRows(annotated.Rows),
	})
}

// summarize returns POST /api/v1/summarize: the aggregate report for an
// already annotated table. 422 when a flag field is missing.
func (h *Handler) summarize(w http.ResponseWriter, r *http.Request) {
	var req TableRequest
	if !h.decode(w, r, &req) {
		return
	}

	rep, err := compute.Summarize(req.table(), h.engine.Config())
	if errors.Is(err, compute.ErrFlagsMissing) {
		jsonErr(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResp(w, http.StatusOK, rep)
}

// listRuns returns GET /api/v1/runs: all live runs, newest first.
func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, http.StatusOK, RunList(h.store))
}

// receiveRun handles POST /api/v1/runs: a run report pushed by an annotator.
func (h *Handler) receiveRun(w http.ResponseWriter, r *http.Request) {
	var run types.Run
	if !h.decode(w, r, &run) {
		return
	}
	if _, err := uuid.Parse(run.ID); err != nil {
		jsonErr(w, http.StatusBadRequest, "id must be a UUID")
		return
	}
	if run.Dataset == "" {
		jsonErr(w, http.StatusBadRequest, "dataset is required")
		return
	}

	h.store.Put(&run)
	h.metrics.runs.Inc()
	slog.Debug("api: run received",
		"run", run.ID,
		"dataset", run.Dataset,
		"total_parts", run.Report.TotalParts,
	)
	if e, ok := h.store.Get(run.ID); ok {
		jsonResp(w, http.StatusCreated, toRunResponse(e))
		return
	}
	jsonResp(w, http.StatusCreated, RunResponse{Run: run})
}

// getRun returns GET /api/v1/runs/{id}: a single live run.
func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	e, ok := h.store.Get(chi.URLParam(r, "id"))
	if !ok {
		jsonErr(w, http.StatusNotFound, "run not found")
		return
	}
	jsonResp(w, http.StatusOK, toRunResponse(e))
}

// --- helpers ----------------------------------------------------------------

// decode reads a JSON body of at most maxBody bytes into v. On failure it
// writes the error response and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonErr(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		jsonErr(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// table converts the request into a types.Table, deriving the column list
// from the row keys when none was sent.
func (req TableRequest) table() *types.Table {
	t := &types.Table{Columns: req.Columns, Rows: req.Rows}
	if len(t.Columns) > 0 {
		return t
	}
	seen := make(map[string]struct{})
	for _, row := range t.Rows {
		for k := range row {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				t.Columns = append(t.Columns, k)
			}
		}
	}
	sort.Strings(t.Columns)
	return t
}

// RunList returns every live run in st, newest first. It is shared with the
// WebSocket hub so both surfaces use one schema.
func RunList(st *store.Store) []RunResponse {
	entries := st.List()
	out := make([]RunResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toRunResponse(e))
	}
	return out
}

func toRunResponse(e *store.Entry) RunResponse {
	return RunResponse{
		Run:      *e.Run,
		StoredAt: e.StoredAt.UTC().Format(time.RFC3339),
	}
}

func nonNilRows(rows []types.Row) []types.Row {
	if rows == nil {
		return []types.Row{}
	}
	return rows
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// requestLogger logs one line per request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("api: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
