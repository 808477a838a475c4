package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"retaildash/internal/dataset"
	"retaildash/internal/models"
	"retaildash/internal/service"
	"retaildash/internal/state"
)

const (
	defaultMaxUploadBytes = 64 << 20
	defaultPreviewRows    = 20
	maxPreviewRows        = 200
	maxFilterPreview      = 100
	uploadSampleRows      = 5
)

// Handler binds the HTTP surface to the application state and the engines.
// Every route reads a consistent table/view snapshot; state is only replaced
// after the triggering operation has fully succeeded, so a failed upload or
// filter leaves the resident dataset untouched.
type Handler struct {
	state    *state.AppState
	profiler *service.ProfilingService
	filter   *service.FilterService
	charts   *service.ChartService
	insights *service.InsightService
	export   *service.ExportService

	// MaxUploadBytes caps multipart uploads; PreviewRows is the default
	// preview size. Both are set from config by the serve command.
	MaxUploadBytes int64
	PreviewRows    int

	source service.DataSource // active external database, nil until connected
}

func NewHandler(st *state.AppState, profiler *service.ProfilingService, filter *service.FilterService, charts *service.ChartService, insights *service.InsightService, export *service.ExportService) *Handler {
	return &Handler{
		state:          st,
		profiler:       profiler,
		filter:         filter,
		charts:         charts,
		insights:       insights,
		export:         export,
		MaxUploadBytes: defaultMaxUploadBytes,
		PreviewRows:    defaultPreviewRows,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)

	r.Post("/upload", h.Upload)
	r.Get("/status", h.Status)
	r.Get("/preview", h.Preview)
	r.Get("/columns", h.Columns)

	r.Get("/strategies", h.Strategies)
	r.Get("/profile", h.ProfileAll)
	r.Get("/profile/{strategy}", h.ProfileOne)

	r.Post("/filter", h.Filter)
	r.Post("/filter/reset", h.FilterReset)

	r.Post("/charts/{kind}", h.Chart)

	r.Get("/insights/top", h.TopPerformers)
	r.Get("/insights/anomalies", h.Anomalies)
	r.Get("/insights/trends", h.Trends)

	r.Get("/export", h.Export)

	r.Post("/source/connect", h.SourceConnect)
	r.Get("/source/tables", h.SourceTables)
	r.Post("/source/load", h.SourceLoad)
}

// ============================================================================
// Health
// ============================================================================

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ============================================================================
// Upload / status / preview / columns
// ============================================================================

// Upload parses a multipart file into a typed table and replaces the
// resident dataset. The format comes from the filename extension.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		writeErrorMsg(w, http.StatusBadRequest,
			fmt.Sprintf("upload exceeds the %d MB limit", h.MaxUploadBytes>>20))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "no file in upload")
		return
	}
	defer file.Close()

	format, err := dataset.DetectFormat(header.Filename)
	if err != nil {
		writeError(w, err)
		return
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, "reading upload failed")
		return
	}

	tbl, err := dataset.Load(raw, format)
	if err != nil {
		writeError(w, err)
		return
	}
	tbl.Source = header.Filename
	h.state.SetTable(tbl)

	log.WithFields(log.Fields{
		"dataset": tbl.ID,
		"source":  tbl.Source,
		"rows":    tbl.NumRows(),
		"columns": tbl.NumCols(),
	}).Info("dataset loaded")

	writeJSON(w, http.StatusOK, uploadResponse(tbl,
		fmt.Sprintf("loaded %q: %d rows, %d columns", header.Filename, tbl.NumRows(), tbl.NumCols())))
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	tbl, v := h.state.Snapshot()

	resp := models.StatusResponse{Loaded: tbl != nil}
	if tbl != nil {
		loadedAt := tbl.LoadedAt
		resp.DatasetID = tbl.ID
		resp.Source = tbl.Source
		resp.LoadedAt = &loadedAt
		resp.Rows = tbl.NumRows()
		resp.Columns = tbl.NumCols()
		resp.ViewRows = v.Len()
		resp.ActiveFilters = len(h.state.Filters())
	}
	writeJSON(w, http.StatusOK, resp)
}

// Preview returns the first rows of the current view as display text.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	tbl, v := h.state.Snapshot()
	if tbl == nil {
		writeError(w, dataset.ErrNoDataset)
		return
	}

	rows, err := intQuery(r, "rows", h.PreviewRows)
	if err != nil {
		writeError(w, err)
		return
	}
	if rows < 1 {
		rows = h.PreviewRows
	}
	if rows > maxPreviewRows {
		rows = maxPreviewRows
	}

	writeJSON(w, http.StatusOK, models.PreviewResponse{
		Columns: tbl.ColumnNames(),
		Rows:    rowMaps(tbl, v, rows),
		Total:   v.Len(),
	})
}

func (h *Handler) Columns(w http.ResponseWriter, r *http.Request) {
	tbl, _ := h.state.Snapshot()
	if tbl == nil {
		writeError(w, dataset.ErrNoDataset)
		return
	}

	infos := make([]models.ColumnInfo, 0, tbl.NumCols())
	for _, col := range tbl.Columns() {
		infos = append(infos, models.ColumnInfo{
			Name:      col.Name,
			Kind:      string(col.Kind),
			NullCount: col.NullCount(),
			FreeText:  col.FreeText,
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

// ============================================================================
// Profiling
// ============================================================================

func (h *Handler) Strategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.RegistryResponse{
		Profiling: h.profiler.Strategies(),
		Charts:    h.charts.Builders(),
	})
}

// ProfileAll runs every registered strategy against the current view. A
// failing strategy lands in the errors map without blocking the rest.
func (h *Handler) ProfileAll(w http.ResponseWriter, r *http.Request) {
	_, v := h.state.Snapshot()
	if v == nil {
		writeError(w, dataset.ErrNoDataset)
		return
	}
	writeJSON(w, http.StatusOK, h.profiler.RunAll(v))
}

func (h *Handler) ProfileOne(w http.ResponseWriter, r *http.Request) {
	_, v := h.state.Snapshot()
	if v == nil {
		writeError(w, dataset.ErrNoDataset)
		return
	}

	report, err := h.profiler.Run(chi.URLParam(r, "strategy"), v)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ============================================================================
// Filtering
// ============================================================================

// Filter validates and applies a predicate set against the original table
// and installs the result as the current view. A rejected set leaves the
// previous view in place.
func (h *Handler) Filter(w http.ResponseWriter, r *http.Request) {
	var set models.FilterSet
	if err := json.NewDecoder(r.Body).Decode(&set); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	tbl := h.state.Table()
	if tbl == nil {
		writeError(w, dataset.ErrNoDataset)
		return
	}

	v, err := h.filter.Apply(tbl, set)
	if err != nil {
		writeError(w, err)
		return
	}
	h.state.SetView(set.Predicates, v)

	writeJSON(w, http.StatusOK, models.FilterResponse{
		Rows:    v.Len(),
		Total:   tbl.NumRows(),
		Columns: tbl.ColumnNames(),
		Data:    rowMaps(tbl, v, maxFilterPreview),
	})
}

func (h *Handler) FilterReset(w http.ResponseWriter, r *http.Request) {
	tbl := h.state.Table()
	if tbl == nil {
		writeError(w, dataset.ErrNoDataset)
		return
	}
	h.state.ResetView()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "filters cleared",
		"rows":    tbl.NumRows(),
	})
}

// ============================================================================
// Charts
// ============================================================================

// Chart builds one chart kind from the current view. The options body is
// optional; an absent body means defaults.
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	var opts models.ChartOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		writeErrorMsg(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	_, v := h.state.Snapshot()
	if v == nil {
		writeError(w, dataset.ErrNoDataset)
		return
	}

	spec, err := h.charts.Build(chi.URLParam(r, "kind"), v, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, spec)
}

// ============================================================================
// Insights
// ============================================================================

func (h *Handler) TopPerformers(w http.ResponseWriter, r *http.Request) {
	_, v := h.state.Snapshot()
	if v == nil {
		writeError(w, dataset.ErrNoDataset)
		return
	}

	n, err := intQuery(r, "n", 0)
	if err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	result, err := h.insights.TopPerformers(v, q.Get("group"), q.Get("measure"), n)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) Anomalies(w http.ResponseWriter, r *http.Request) {
	_, v := h.state.Snapshot()
	if v == nil {
		writeError(w, dataset.ErrNoDataset)
		return
	}

	multiplier, err := floatQuery(r, "multiplier", 0)
	if err != nil {
		writeError(w, err)
		return
	}

	report, err := h.insights.DetectAnomalies(v, multiplier)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) Trends(w http.ResponseWriter, r *http.Request) {
	_, v := h.state.Snapshot()
	if v == nil {
		writeError(w, dataset.ErrNoDataset)
		return
	}

	report, err := h.insights.Trends(v, r.URL.Query().Get("time_column"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ============================================================================
// Export
// ============================================================================

// Export renders the current view as a download in the requested format
// (csv, json, or parquet; default csv).
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	_, v := h.state.Snapshot()
	if v == nil {
		writeError(w, dataset.ErrNoDataset)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = service.ExportCSV
	}

	data, err := h.export.Export(v, format)
	if err != nil {
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("export_%s.%s", time.Now().UTC().Format("20060102_150405"), format)
	w.Header().Set("Content-Type", service.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}

// ============================================================================
// SQL data source
// ============================================================================

func (h *Handler) SourceConnect(w http.ResponseWriter, r *http.Request) {
	var cfg service.DataSourceConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ds := service.NewPostgresDataSource()
	if err := ds.Connect(r.Context(), cfg); err != nil {
		writeErrorMsg(w, http.StatusBadGateway, fmt.Sprintf("database connection failed: %v", err))
		return
	}

	if h.source != nil {
		h.source.Close()
	}
	h.source = ds

	log.WithFields(log.Fields{"host": cfg.Host, "database": cfg.DBName}).Info("database connected")
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "connected",
		"database": cfg.DBName,
	})
}

func (h *Handler) SourceTables(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		writeErrorMsg(w, http.StatusBadRequest, "no database connection")
		return
	}

	tables, err := h.source.ListTables(r.Context())
	if err != nil {
		writeErrorMsg(w, http.StatusBadGateway, fmt.Sprintf("listing tables failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tables": tables})
}

// SourceLoad fetches a database table through the same inference path as an
// uploaded file, so SQL-loaded columns get the same kinds.
func (h *Handler) SourceLoad(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Table string `json:"table"`
		Limit int    `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if h.source == nil {
		writeErrorMsg(w, http.StatusBadRequest, "no database connection")
		return
	}

	headers, rows, err := h.source.FetchTable(r.Context(), req.Table, req.Limit)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, fmt.Sprintf("fetching table failed: %v", err))
		return
	}

	tbl, err := dataset.FromRecords(headers, rows)
	if err != nil {
		writeError(w, err)
		return
	}
	tbl.Source = "postgres:" + req.Table
	h.state.SetTable(tbl)

	log.WithFields(log.Fields{
		"dataset": tbl.ID,
		"source":  tbl.Source,
		"rows":    tbl.NumRows(),
	}).Info("dataset loaded from database")

	writeJSON(w, http.StatusOK, uploadResponse(tbl,
		fmt.Sprintf("loaded table %q: %d rows, %d columns", req.Table, tbl.NumRows(), tbl.NumCols())))
}

// ============================================================================
// Helpers
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("encoding response failed")
	}
}

// writeError maps a typed engine error to its HTTP status and a JSON payload
// carrying the message.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), models.ErrorResponse{Error: err.Error()})
}

func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

// statusFor keeps the error taxonomy in one place: client mistakes are 4xx,
// unknown names are 404, option and data-shape problems are 422.
func statusFor(err error) int {
	switch {
	case errors.Is(err, dataset.ErrNoDataset),
		errors.Is(err, dataset.ErrUnsupportedFormat),
		errors.Is(err, dataset.ErrEmptyDataset):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnknownStrategy),
		errors.Is(err, service.ErrUnknownChart):
		return http.StatusNotFound
	}

	var (
		parseErr *dataset.ParseError
		colErr   *dataset.UnknownColumnError
		predErr  *service.InvalidPredicateError
		optErr   *service.InvalidOptionError
		dataErr  *service.InsufficientDataError
	)
	switch {
	case errors.As(err, &parseErr), errors.As(err, &predErr):
		return http.StatusBadRequest
	case errors.As(err, &colErr):
		return http.StatusNotFound
	case errors.As(err, &optErr), errors.As(err, &dataErr):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// rowMaps renders up to limit view rows as column→text maps.
func rowMaps(tbl *dataset.Table, v *dataset.View, limit int) []map[string]string {
	if limit > v.Len() {
		limit = v.Len()
	}
	out := make([]map[string]string, limit)
	for i := 0; i < limit; i++ {
		row := v.Row(i)
		m := make(map[string]string, tbl.NumCols())
		for _, col := range tbl.Columns() {
			m[col.Name] = col.CellString(row)
		}
		out[i] = m
	}
	return out
}

func uploadResponse(tbl *dataset.Table, message string) models.UploadResponse {
	kinds := make(map[string]string, tbl.NumCols())
	for _, col := range tbl.Columns() {
		kinds[col.Name] = string(col.Kind)
	}
	return models.UploadResponse{
		Message:     message,
		DatasetID:   tbl.ID,
		Source:      tbl.Source,
		Rows:        tbl.NumRows(),
		Columns:     tbl.NumCols(),
		ColumnNames: tbl.ColumnNames(),
		ColumnKinds: kinds,
		Sample:      rowMaps(tbl, tbl.FullView(), uploadSampleRows),
	}
}

func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &service.InvalidOptionError{Option: name, Value: raw, Reason: "must be an integer"}
	}
	return n, nil
}

func floatQuery(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &service.InvalidOptionError{Option: name, Value: raw, Reason: "must be a number"}
	}
	return f, nil
}
