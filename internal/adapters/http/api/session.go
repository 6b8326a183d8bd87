package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okian/bullseye/internal/domain/chart"
	"github.com/okian/bullseye/internal/training"
)

// SessionHandler serves the loaded training session.
type SessionHandler struct {
	svc      SessionService
	dispatch Dispatcher
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(svc SessionService, d Dispatcher) *SessionHandler {
	return &SessionHandler{svc: svc, dispatch: d}
}

type startRequest struct {
	Name       string `json:"name"`
	AthleteIDs []int  `json:"athlete_ids"`
}

type snapshotRequest struct {
	Image     string `json:"image"`
	AthleteID *int   `json:"athlete_id"`
}

type captureRequest struct {
	AthleteID *int `json:"athlete_id"`
}

type editRequest struct {
	FinalScore *float64 `json:"final_score"`
	Note       string   `json:"note"`
}

// sessionResponse is the session view plus the outcome of the request.
type sessionResponse struct {
	training.View
	Result  any    `json:"result,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// HandleView handles GET /session.
func (h *SessionHandler) HandleView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, sessionResponse{View: h.svc.Snapshot()})
}

// HandleStart handles POST /session/start.
func (h *SessionHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.mutate(w, r, "session.start", func(ctx context.Context) (any, error) {
		return h.svc.Start(ctx, req.Name, req.AthleteIDs)
	})
}

// HandleFinish handles POST /session/finish.
func (h *SessionHandler) HandleFinish(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "session.finish", func(ctx context.Context) (any, error) {
		return nil, h.svc.Finish(ctx)
	})
}

// HandleUpload handles POST /session/images with a multipart "image" file
// and an optional "athlete_id" field.
func (h *SessionHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		// A missing file is a validation failure, not a malformed request.
		if err != http.ErrNotMultipart {
			writeError(w, fmt.Errorf("%w: %w", ErrBadRequest, err))
			return
		}
	}
	athleteID, err := optionalInt(r.FormValue("athlete_id"))
	if err != nil {
		writeError(w, err)
		return
	}

	file, header, ferr := r.FormFile("image")
	if ferr == nil {
		defer file.Close()
	}
	h.mutate(w, r, "session.upload", func(ctx context.Context) (any, error) {
		if ferr != nil {
			return h.svc.Upload(ctx, "", nil, athleteID)
		}
		return h.svc.Upload(ctx, header.Filename, file, athleteID)
	})
}

// HandleSnapshot handles POST /session/snapshot with a data URL image.
func (h *SessionHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.mutate(w, r, "session.snapshot", func(ctx context.Context) (any, error) {
		return h.svc.UploadSnapshot(ctx, req.Image, req.AthleteID)
	})
}

// HandleCapture handles POST /session/capture using the configured camera.
func (h *SessionHandler) HandleCapture(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.mutate(w, r, "session.capture", func(ctx context.Context) (any, error) {
		return h.svc.CaptureAndUpload(ctx, req.AthleteID)
	})
}

// HandleRefresh handles POST /session/refresh.
func (h *SessionHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "session.refresh", func(ctx context.Context) (any, error) {
		return nil, h.svc.Refresh(ctx)
	})
}

// HandleGrouping handles PUT /session/grouping.
func (h *SessionHandler) HandleGrouping(w http.ResponseWriter, r *http.Request) {
	var g chart.Grouping
	if err := decodeBody(r, &g); err != nil {
		writeError(w, err)
		return
	}
	h.mutate(w, r, "session.grouping", func(context.Context) (any, error) {
		return h.svc.SetGrouping(g), nil
	})
}

// HandleImage handles GET /images/{id}.
func (h *SessionHandler) HandleImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	detail, err := h.svc.ImageDetail(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleShot handles GET /shots/{id}.
func (h *SessionHandler) HandleShot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	detail, err := h.svc.ShotDetail(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleEditShot handles POST /shots/{id}/edit.
func (h *SessionHandler) HandleEditShot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req editRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.FinalScore == nil {
		writeError(w, fmt.Errorf("%w: final_score is required", ErrBadRequest))
		return
	}
	h.mutate(w, r, "shot.edit", func(ctx context.Context) (any, error) {
		return h.svc.EditShot(ctx, id, *req.FinalScore, req.Note)
	})
}

// mutate runs fn on the command loop and answers with the fresh session view.
// A failure of only the follow-up refresh still answers 200 with a warning.
func (h *SessionHandler) mutate(w http.ResponseWriter, r *http.Request, name string, fn func(ctx context.Context) (any, error)) {
	var result any
	err := h.dispatch.Submit(r.Context(), name, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, sessionResponse{View: h.svc.Snapshot(), Result: result})
	case staleAfterMutation(err):
		writeJSON(w, http.StatusOK, sessionResponse{
			View:    h.svc.Snapshot(),
			Result:  result,
			Warning: training.UserMessage(err),
		})
	default:
		writeError(w, err)
	}
}
