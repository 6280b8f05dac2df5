// Package api serves the aggregator over HTTP with echo.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"bizmetrics/internal/engine"
	"bizmetrics/internal/models"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// dataset is one loaded table with its precomputed dashboard.
type dataset struct {
	gen       uint64
	analyzer  *engine.Analyzer
	dashboard *models.DashboardData
	loadedAt  time.Time
}

type Handler struct {
	data   atomic.Pointer[dataset]
	gen    atomic.Uint64
	opts   engine.DashboardOptions
	cache  *resultCache
	logger *zap.Logger
}

// NewHandler returns a handler with no data. Every /api route answers 503
// until SetData is called.
func NewHandler(opts engine.DashboardOptions, cacheEntries int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		opts:   opts,
		cache:  newResultCache(cacheEntries),
		logger: logger,
	}
}

// SetData swaps in a new table and drops every cached response.
func (h *Handler) SetData(t *engine.Table) {
	a := engine.NewAnalyzer(t)
	ds := &dataset{
		gen:       h.gen.Add(1),
		analyzer:  a,
		dashboard: engine.BuildDashboard(a, h.opts),
		loadedAt:  time.Now(),
	}
	h.data.Store(ds)
	h.cache.clear()
	loadedRows.Set(float64(t.Len()))

	h.logger.Info("dataset ready",
		zap.Uint64("generation", ds.gen),
		zap.Int("rows", t.Len()),
		zap.Int("unavailable_sections", len(ds.dashboard.Unavailable)))
}

// Ready reports whether a table has been loaded.
func (h *Handler) Ready() bool {
	return h.data.Load() != nil
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	api := e.Group("/api", h.requireData)
	api.GET("/revenue", h.GetRevenue)
	api.GET("/customers", h.GetCustomers)
	api.GET("/growth", h.GetGrowth)
	api.GET("/segments/:column", h.GetSegments)
	api.GET("/top", h.GetTop)
	api.GET("/dashboard", h.GetDashboard)
	api.GET("/report", h.GetReport)
}

// --- MIDDLEWARE ---
func (h *Handler) requireData(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !h.Ready() {
			return c.JSON(http.StatusServiceUnavailable, errorBody("data loading"))
		}
		return next(c)
	}
}

// --- HANDLERS ---
func getPaginationParams(c echo.Context, defaultLimit int) (int, int, error) {
	limit, offset := defaultLimit, 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return 0, 0, fmt.Errorf("invalid limit %q: must be a positive integer", v)
		}
		limit = n
	}
	if v := c.QueryParam("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, fmt.Errorf("invalid offset %q: must be a non-negative integer", v)
		}
		offset = n
	}
	return limit, offset, nil
}

func (h *Handler) Health(c echo.Context) error {
	body := map[string]interface{}{"status": "ok", "ready": false}
	if ds := h.data.Load(); ds != nil {
		body["ready"] = true
		body["rows"] = ds.dashboard.Rows
		body["loaded_at"] = ds.loadedAt.UTC().Format(time.RFC3339)
	}
	return c.JSON(http.StatusOK, body)
}

func (h *Handler) GetRevenue(c echo.Context) error {
	return h.respond(c, "revenue", func(a *engine.Analyzer) (interface{}, error) {
		return a.RevenueMetrics()
	})
}

func (h *Handler) GetCustomers(c echo.Context) error {
	return h.respond(c, "customers", func(a *engine.Analyzer) (interface{}, error) {
		return a.CustomerMetrics()
	})
}

func (h *Handler) GetGrowth(c echo.Context) error {
	dateCol := queryOr(c, "date", h.opts.DateColumn)
	valueCol := queryOr(c, "value", h.opts.MetricColumn)
	period, err := engine.ParsePeriod(queryOr(c, "period", string(h.opts.Period)))
	if err != nil {
		return h.badRequest(c, "growth", err)
	}
	return h.respond(c, "growth", func(a *engine.Analyzer) (interface{}, error) {
		return a.GrowthRate(dateCol, valueCol, period)
	})
}

func (h *Handler) GetSegments(c echo.Context) error {
	column := c.Param("column")
	metric := queryOr(c, "metric", h.opts.MetricColumn)
	limit, offset, err := getPaginationParams(c, 0)
	if err != nil {
		return h.badRequest(c, "segments", err)
	}
	return h.respond(c, "segments", func(a *engine.Analyzer) (interface{}, error) {
		stats, err := a.SegmentAnalysis(column, metric)
		if err != nil {
			return nil, err
		}
		total := len(stats)
		if limit == 0 {
			limit = total
		}
		start, end := offset, offset+limit
		if start > total {
			start = total
		}
		if end > total {
			end = total
		}
		return map[string]interface{}{
			"column":   column,
			"metric":   metric,
			"segments": stats[start:end],
			"total":    total,
			"limit":    limit,
			"offset":   offset,
		}, nil
	})
}

func (h *Handler) GetTop(c echo.Context) error {
	metric := queryOr(c, "metric", h.opts.MetricColumn)
	limit, offset, err := getPaginationParams(c, h.opts.TopN)
	if err != nil {
		return h.badRequest(c, "top", err)
	}
	return h.respond(c, "top", func(a *engine.Analyzer) (interface{}, error) {
		top, err := a.TopPerformers(metric, offset+limit)
		if err != nil {
			return nil, err
		}
		rows := top.Records()
		if offset >= len(rows) {
			return []map[string]any{}, nil
		}
		return rows[offset:], nil
	})
}

// GetDashboard returns the dashboard precomputed by SetData.
func (h *Handler) GetDashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, h.data.Load().dashboard)
}

func (h *Handler) GetReport(c echo.Context) error {
	return h.respond(c, "report", func(a *engine.Analyzer) (interface{}, error) {
		return engine.SummaryReport(a), nil
	})
}

// respond serves a cached result for the request URI or computes, caches
// and serves a fresh one. Strings are written as text/plain.
func (h *Handler) respond(c echo.Context, endpoint string, compute func(*engine.Analyzer) (interface{}, error)) error {
	ds := h.data.Load()
	key := strconv.FormatUint(ds.gen, 10) + " " + c.Request().URL.RequestURI()

	v, ok := h.cache.get(key)
	if ok {
		cacheHits.WithLabelValues("hit").Inc()
	} else {
		cacheHits.WithLabelValues("miss").Inc()
		start := time.Now()
		var err error
		v, err = compute(ds.analyzer)
		analysisDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		if err != nil {
			return h.fail(c, endpoint, err)
		}
		h.cache.put(key, v)
	}

	if s, isText := v.(string); isText {
		return c.String(http.StatusOK, s)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) badRequest(c echo.Context, endpoint string, err error) error {
	analysisErrors.WithLabelValues(endpoint, "bad_request").Inc()
	return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
}

func (h *Handler) fail(c echo.Context, endpoint string, err error) error {
	status, kind := classify(err)
	analysisErrors.WithLabelValues(endpoint, kind).Inc()
	if status == http.StatusInternalServerError {
		h.logger.Error("analysis failed", zap.String("endpoint", endpoint), zap.Error(err))
	}
	return c.JSON(status, errorBody(err.Error()))
}

// classify maps aggregator errors to an HTTP status and a metrics label.
func classify(err error) (int, string) {
	var mc *engine.MissingColumnError
	var ct *engine.ColumnTypeError
	switch {
	case errors.As(err, &mc):
		return http.StatusBadRequest, "missing_column"
	case errors.As(err, &ct):
		return http.StatusBadRequest, "column_type"
	case errors.Is(err, engine.ErrNoData):
		return http.StatusUnprocessableEntity, "no_data"
	}
	return http.StatusInternalServerError, "internal"
}

func queryOr(c echo.Context, name, fallback string) string {
	if v := c.QueryParam(name); v != "" {
		return v
	}
	return fallback
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
