// Package api exposes the local JSON control surface the page drives.
//
// Reads are served straight from component snapshots. Every mutation is
// submitted to the dispatcher so that it runs on the app's single command
// loop.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/okian/bullseye/internal/analytics"
	"github.com/okian/bullseye/internal/domain/chart"
	"github.com/okian/bullseye/internal/domain/filter"
	"github.com/okian/bullseye/internal/domain/modal"
	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/internal/domain/notice"
	"github.com/okian/bullseye/internal/training"
)

const maxBodyBytes = 1 << 20

// maxUploadBytes bounds multipart image uploads.
const maxUploadBytes = 32 << 20

// AnalyticsService is the analytics orchestrator.
type AnalyticsService interface {
	Snapshot() analytics.Snapshot
	Current() filter.State
	Load(ctx context.Context, rawQuery string) (filter.State, error)
	Change(ctx context.Context, s filter.State)
	Apply(ctx context.Context, s filter.State) error
	Retry(ctx context.Context) error
	Reset(ctx context.Context) error
}

// SessionService is the training session manager.
type SessionService interface {
	Snapshot() training.View
	Start(ctx context.Context, name string, athleteIDs []int) (model.Session, error)
	Finish(ctx context.Context) error
	Upload(ctx context.Context, name string, image io.Reader, athleteID *int) (training.UploadResult, error)
	UploadSnapshot(ctx context.Context, dataURL string, athleteID *int) (training.UploadResult, error)
	CaptureAndUpload(ctx context.Context, athleteID *int) (training.UploadResult, error)
	Refresh(ctx context.Context) error
	SetGrouping(g chart.Grouping) chart.Chart
	EditShot(ctx context.Context, shotID int, finalScore float64, note string) (model.Shot, error)
	ImageDetail(ctx context.Context, imageID int) (training.ImageDetail, error)
	ShotDetail(ctx context.Context, shotID int) (training.ShotDetail, error)
}

// BrowserService lists past sessions.
type BrowserService interface {
	List(ctx context.Context, q training.BrowseQuery) (model.SessionPage, error)
	Open(ctx context.Context, id int) error
}

// ModalService is the modal controller.
type ModalService interface {
	State() modal.State
	Request(ctx context.Context, kind modal.Kind, targetID int, label string) (modal.Pending, error)
	Confirm(ctx context.Context, token string) (modal.Pending, error)
	Dismiss()
	Open(view modal.View, id int)
	Close()
}

// NoticeSource lists recent user-facing messages.
type NoticeSource interface {
	Recent() []notice.Notice
}

// Dispatcher runs fn on the command loop and waits for it.
type Dispatcher interface {
	Submit(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

// Dependencies required by HTTP handlers.
type Dependencies struct {
	Analytics  AnalyticsService
	Sessions   SessionService
	Browser    BrowserService
	Modal      ModalService
	Notices    NoticeSource
	Dispatcher Dispatcher
}

// Server wires HTTP routes for the control API.
type Server struct {
	healthHandler    *HealthHandler
	analyticsHandler *AnalyticsHandler
	sessionHandler   *SessionHandler
	browseHandler    *BrowseHandler
	modalHandler     *ModalHandler
	noticesHandler   *NoticesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	d := deps.Dispatcher
	if d == nil {
		d = inline{}
	}
	return &Server{
		healthHandler:    NewHealthHandler(),
		analyticsHandler: NewAnalyticsHandler(deps.Analytics, d),
		sessionHandler:   NewSessionHandler(deps.Sessions, d),
		browseHandler:    NewBrowseHandler(deps.Browser, d),
		modalHandler:     NewModalHandler(deps.Modal, d),
		noticesHandler:   NewNoticesHandler(deps.Notices),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(h, endpoint))
	}

	route("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)

	a := s.analyticsHandler
	route("GET /analytics/view", "analytics_view", a.HandleView)
	route("POST /analytics/load", "analytics_load", a.HandleLoad)
	route("POST /analytics/filters", "analytics_change", a.HandleChange)
	route("POST /analytics/apply", "analytics_apply", a.HandleApply)
	route("POST /analytics/retry", "analytics_retry", a.HandleRetry)
	route("POST /analytics/reset", "analytics_reset", a.HandleReset)

	ss := s.sessionHandler
	route("GET /session", "session_view", ss.HandleView)
	route("POST /session/start", "session_start", ss.HandleStart)
	route("POST /session/finish", "session_finish", ss.HandleFinish)
	route("POST /session/images", "session_upload", ss.HandleUpload)
	route("POST /session/snapshot", "session_snapshot", ss.HandleSnapshot)
	route("POST /session/capture", "session_capture", ss.HandleCapture)
	route("POST /session/refresh", "session_refresh", ss.HandleRefresh)
	route("PUT /session/grouping", "session_grouping", ss.HandleGrouping)
	route("GET /images/{id}", "image_detail", ss.HandleImage)
	route("GET /shots/{id}", "shot_detail", ss.HandleShot)
	route("POST /shots/{id}/edit", "shot_edit", ss.HandleEditShot)

	b := s.browseHandler
	route("GET /sessions", "sessions_list", b.HandleList)
	route("POST /sessions/{id}/open", "sessions_open", b.HandleOpen)

	m := s.modalHandler
	route("GET /modal", "modal_view", m.HandleView)
	route("POST /modal/request", "modal_request", m.HandleRequest)
	route("POST /modal/confirm", "modal_confirm", m.HandleConfirm)
	route("POST /modal/dismiss", "modal_dismiss", m.HandleDismiss)
	route("POST /modal/inspect", "modal_inspect", m.HandleInspect)
	route("DELETE /modal/inspect", "modal_close", m.HandleCloseInspect)

	route("GET /notices", "notices", s.noticesHandler.HandleList)
}

type inline struct{}

func (inline) Submit(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, body := classify(err)
	writeJSON(w, status, body)
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

func pathID(r *http.Request) (int, error) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", ErrBadRequest, raw)
	}
	return id, nil
}

// optionalInt parses an optional positive integer; empty means nil.
func optionalInt(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return nil, fmt.Errorf("%w: invalid integer %q", ErrBadRequest, raw)
	}
	return &v, nil
}
