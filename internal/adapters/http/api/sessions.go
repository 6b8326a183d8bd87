package api

import (
	"context"
	"net/http"

	"github.com/okian/bullseye/internal/training"
)

// BrowseHandler serves the past-session browser.
type BrowseHandler struct {
	svc      BrowserService
	dispatch Dispatcher
}

// NewBrowseHandler creates a new browse handler.
func NewBrowseHandler(svc BrowserService, d Dispatcher) *BrowseHandler {
	return &BrowseHandler{svc: svc, dispatch: d}
}

// HandleList handles GET /sessions?page=&status=&athlete_id=.
func (h *BrowseHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := optionalInt(q.Get("page"))
	if err != nil {
		writeError(w, err)
		return
	}
	athlete, err := optionalInt(q.Get("athlete_id"))
	if err != nil {
		writeError(w, err)
		return
	}

	query := training.BrowseQuery{Status: q.Get("status")}
	if page != nil {
		query.Page = *page
	}
	if athlete != nil {
		query.AthleteID = *athlete
	}
	out, err := h.svc.List(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleOpen handles POST /sessions/{id}/open, loading a listed session.
func (h *BrowseHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	err = h.dispatch.Submit(r.Context(), "sessions.open", func(ctx context.Context) error {
		return h.svc.Open(ctx, id)
	})
	if err != nil && !staleAfterMutation(err) {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"session_id": id})
}
