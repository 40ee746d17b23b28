package api

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starford/chartboard/internal/chartservice"
	"github.com/starford/chartboard/internal/render"
)

// Handler holds the route handlers.
type Handler struct {
	svc        *chartservice.Service
	renderer   *render.Renderer
	title      string
	liveReload bool
}

// NewHandler creates a new Handler.
func NewHandler(svc *chartservice.Service, renderer *render.Renderer, title string, liveReload bool) *Handler {
	return &Handler{svc: svc, renderer: renderer, title: title, liveReload: liveReload}
}

// Index handles GET /.
//
// The dataset is read, encoded and rendered on every request. The page is
// rendered into a buffer so that a template failure yields a clean 500.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	cd, err := h.svc.ChartJSON(r.Context())
	if err != nil {
		slog.Error("load dataset failed", slog.String("source", h.svc.Source()), slog.String("error", err.Error()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	err = h.renderer.Render(&buf, render.Page{
		Title:      h.title,
		ChartData:  template.JS(cd.JSON),
		Rows:       cd.Rows,
		Source:     h.svc.Source(),
		LiveReload: h.liveReload,
	})
	if err != nil {
		slog.Error("render page failed", slog.String("error", err.Error()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Dataset handles GET /api/dataset.
//
//	@Summary		Dataset records as an indented JSON array
//	@Tags			dataset
//	@Produce		json
//	@Param			If-None-Match	header	string	false	"ETag from a previous response"
//	@Success		200
//	@Success		304
//	@Security		BearerAuth
//	@Router			/dataset [get]
func (h *Handler) Dataset(w http.ResponseWriter, r *http.Request) {
	cd, err := h.svc.ChartJSON(r.Context())
	if err != nil {
		writeError(w, r, "dataset", err)
		return
	}

	etag := `"` + cd.Checksum + `"`
	w.Header().Set("ETag", etag)
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(cd.JSON)
}

// Columns handles GET /api/columns.
//
//	@Summary		Dataset column names in header order
//	@Tags			dataset
//	@Produce		json
//	@Success		200	{object}	ColumnsResponse
//	@Security		BearerAuth
//	@Router			/columns [get]
func (h *Handler) Columns(w http.ResponseWriter, r *http.Request) {
	cols, err := h.svc.Columns(r.Context())
	if err != nil {
		writeError(w, r, "columns", err)
		return
	}
	writeJSON(w, http.StatusOK, ColumnsResponse{Columns: cols})
}

// Counts handles GET /api/counts.
//
//	@Summary		Number of records per distinct value of a column
//	@Tags			dataset
//	@Produce		json
//	@Param			column	query		string	true	"Column name"
//	@Success		200		{object}	CountsResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/counts [get]
func (h *Handler) Counts(w http.ResponseWriter, r *http.Request) {
	column := r.URL.Query().Get("column")
	if column == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'column' is required"))
		return
	}
	counts, err := h.svc.Counts(r.Context(), column)
	if err != nil {
		writeError(w, r, "counts", err)
		return
	}
	writeJSON(w, http.StatusOK, CountsResponse{Column: column, Counts: counts})
}

// Live handles GET /health/live.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready handles GET /health/ready. It reports ready only when the dataset
// can be loaded.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ds, err := h.svc.Dataset(r.Context())
	if err != nil {
		slog.Warn("readiness check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
		return
	}
	rows := ds.Len()
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Rows: &rows})
}

// etagMatches reports whether an If-None-Match header value matches etag.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.TrimPrefix(candidate, "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
