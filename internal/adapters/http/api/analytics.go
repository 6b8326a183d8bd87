package api

import (
	"context"
	"net/http"

	"github.com/okian/bullseye/internal/analytics"
	"github.com/okian/bullseye/internal/domain/filter"
)

// AnalyticsHandler serves the analytics filter and views.
type AnalyticsHandler struct {
	svc      AnalyticsService
	dispatch Dispatcher
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(svc AnalyticsService, d Dispatcher) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc, dispatch: d}
}

type loadRequest struct {
	Query string `json:"query"`
}

// HandleView handles GET /analytics/view.
func (h *AnalyticsHandler) HandleView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Snapshot())
}

// HandleLoad handles POST /analytics/load. The query is the page's own
// address query; the reconciled filter is fetched straight away. Missing
// server defaults only add a warning to a successful response.
func (h *AnalyticsHandler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	var warn error
	err := h.dispatch.Submit(r.Context(), "analytics.load", func(ctx context.Context) error {
		s, err := h.svc.Load(ctx, req.Query)
		warn = err
		return h.svc.Apply(ctx, s)
	})
	if err == nil && warn != nil {
		writeJSON(w, http.StatusOK, analyticsResponse{
			Snapshot: h.svc.Snapshot(),
			Warning:  analytics.UserMessage(warn),
		})
		return
	}
	h.respond(w, http.StatusOK, err)
}

// HandleChange handles POST /analytics/filters. The fetch is debounced.
func (h *AnalyticsHandler) HandleChange(w http.ResponseWriter, r *http.Request) {
	var s filter.State
	if err := decodeBody(r, &s); err != nil {
		writeError(w, err)
		return
	}
	err := h.dispatch.Submit(r.Context(), "analytics.change", func(ctx context.Context) error {
		h.svc.Change(ctx, s)
		return nil
	})
	h.respond(w, http.StatusAccepted, err)
}

// HandleApply handles POST /analytics/apply. An empty body applies the
// current filter.
func (h *AnalyticsHandler) HandleApply(w http.ResponseWriter, r *http.Request) {
	var s *filter.State
	if err := decodeBody(r, &s); err != nil {
		writeError(w, err)
		return
	}
	err := h.dispatch.Submit(r.Context(), "analytics.apply", func(ctx context.Context) error {
		next := h.svc.Current()
		if s != nil {
			next = *s
		}
		return h.svc.Apply(ctx, next)
	})
	h.respond(w, http.StatusOK, err)
}

// HandleRetry handles POST /analytics/retry.
func (h *AnalyticsHandler) HandleRetry(w http.ResponseWriter, r *http.Request) {
	err := h.dispatch.Submit(r.Context(), "analytics.retry", h.svc.Retry)
	h.respond(w, http.StatusOK, err)
}

// HandleReset handles POST /analytics/reset.
func (h *AnalyticsHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	err := h.dispatch.Submit(r.Context(), "analytics.reset", h.svc.Reset)
	h.respond(w, http.StatusOK, err)
}

// respond writes the snapshot, or the error when nothing could be shown.
// A failed fetch still returns the snapshot so previous views stay visible.
func (h *AnalyticsHandler) respond(w http.ResponseWriter, status int, err error) {
	if err == nil {
		writeJSON(w, status, h.svc.Snapshot())
		return
	}
	code, body := classify(err)
	writeJSON(w, code, analyticsError{errorResponse: body, Snapshot: h.svc.Snapshot()})
}

type analyticsResponse struct {
	analytics.Snapshot
	Warning string `json:"warning,omitempty"`
}

type analyticsError struct {
	errorResponse
	Snapshot analytics.Snapshot `json:"snapshot"`
}
