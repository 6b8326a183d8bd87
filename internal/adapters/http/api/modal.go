package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okian/bullseye/internal/domain/modal"
	"github.com/okian/bullseye/internal/training"
)

// ModalHandler serves confirmations and inspection modals.
type ModalHandler struct {
	svc      ModalService
	dispatch Dispatcher
}

// NewModalHandler creates a new modal handler.
func NewModalHandler(svc ModalService, d Dispatcher) *ModalHandler {
	return &ModalHandler{svc: svc, dispatch: d}
}

type requestBody struct {
	Kind     modal.Kind `json:"kind"`
	TargetID int        `json:"target_id"`
	Label    string     `json:"label"`
}

type confirmBody struct {
	Token string `json:"token"`
}

type inspectBody struct {
	View modal.View `json:"view"`
	ID   int        `json:"id"`
}

type confirmResponse struct {
	Done    modal.Pending `json:"done"`
	Modal   modal.State   `json:"modal"`
	Warning string        `json:"warning,omitempty"`
}

// HandleView handles GET /modal.
func (h *ModalHandler) HandleView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.State())
}

// HandleRequest handles POST /modal/request, replacing any pending confirmation.
func (h *ModalHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	var req requestBody
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.TargetID <= 0 {
		writeError(w, fmt.Errorf("%w: target_id is required", ErrBadRequest))
		return
	}
	var p modal.Pending
	err := h.dispatch.Submit(r.Context(), "modal.request", func(ctx context.Context) error {
		var err error
		p, err = h.svc.Request(ctx, req.Kind, req.TargetID, req.Label)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleConfirm handles POST /modal/confirm. The modal is closed whatever
// the outcome.
func (h *ModalHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmBody
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	var done modal.Pending
	err := h.dispatch.Submit(r.Context(), "modal.confirm", func(ctx context.Context) error {
		var err error
		done, err = h.svc.Confirm(ctx, req.Token)
		return err
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, confirmResponse{Done: done, Modal: h.svc.State()})
	case staleAfterMutation(err):
		writeJSON(w, http.StatusOK, confirmResponse{Done: done, Modal: h.svc.State(), Warning: training.UserMessage(err)})
	default:
		writeError(w, err)
	}
}

// HandleDismiss handles POST /modal/dismiss.
func (h *ModalHandler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	err := h.dispatch.Submit(r.Context(), "modal.dismiss", func(context.Context) error {
		h.svc.Dismiss()
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.State())
}

// HandleInspect handles POST /modal/inspect.
func (h *ModalHandler) HandleInspect(w http.ResponseWriter, r *http.Request) {
	var req inspectBody
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if (req.View != modal.ImageView && req.View != modal.ShotView) || req.ID <= 0 {
		writeError(w, fmt.Errorf("%w: view must be image or shot with an id", ErrBadRequest))
		return
	}
	h.svc.Open(req.View, req.ID)
	writeJSON(w, http.StatusOK, h.svc.State())
}

// HandleCloseInspect handles DELETE /modal/inspect.
func (h *ModalHandler) HandleCloseInspect(w http.ResponseWriter, _ *http.Request) {
	h.svc.Close()
	writeJSON(w, http.StatusOK, h.svc.State())
}
