package api

import (
	"errors"
	"net/http"

	"github.com/okian/bullseye/internal/adapters/http/client"
	"github.com/okian/bullseye/internal/adapters/mq/queue"
	"github.com/okian/bullseye/internal/analytics"
	"github.com/okian/bullseye/internal/domain/modal"
	"github.com/okian/bullseye/internal/training"
)

// Sentinel kinds for API errors.
var (
	ErrServe      = errors.New("control api serve failed")
	ErrBadRequest = errors.New("bad request")
)

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// classify maps an error to a status and the body shown to the user.
func classify(err error) (int, errorResponse) {
	if msg, ok := client.ServerMessage(err); ok {
		return http.StatusBadGateway, errorResponse{Code: "server_error", Message: msg}
	}

	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, errorResponse{Code: "bad_request", Message: err.Error()}
	case errors.Is(err, queue.ErrBackpressure):
		return http.StatusTooManyRequests, errorResponse{Code: "backpressure", Message: "Busy, try again.", Retryable: true}
	case errors.Is(err, queue.ErrStopped):
		return http.StatusServiceUnavailable, errorResponse{Code: "stopped", Message: "Shutting down."}
	case errors.Is(err, modal.ErrUnknownKind):
		return http.StatusBadRequest, errorResponse{Code: "bad_request", Message: err.Error()}
	case errors.Is(err, modal.ErrNothingPending):
		return http.StatusConflict, errorResponse{Code: "nothing_pending", Message: err.Error()}
	case errors.Is(err, training.ErrUnknownImage), errors.Is(err, training.ErrUnknownShot):
		return http.StatusNotFound, errorResponse{Code: "not_found", Message: training.UserMessage(err)}
	case errors.Is(err, training.ErrNoSession), errors.Is(err, training.ErrSessionActive),
		errors.Is(err, training.ErrSessionFinished):
		return http.StatusConflict, errorResponse{Code: "conflict", Message: training.UserMessage(err)}
	case training.IsValidation(err):
		return http.StatusBadRequest, errorResponse{Code: "invalid", Message: training.UserMessage(err)}
	case errors.Is(err, analytics.ErrRender):
		return http.StatusBadGateway, errorResponse{Code: "bad_payload", Message: analytics.MsgFetchFailed, Retryable: true}
	case client.IsTransport(err):
		return http.StatusServiceUnavailable, errorResponse{Code: "transport", Message: training.MsgTransport, Retryable: true}
	case errors.Is(err, analytics.ErrFetch), errors.Is(err, analytics.ErrDefaults):
		return http.StatusBadGateway, errorResponse{Code: "server_error", Message: analytics.MsgFetchFailed, Retryable: true}
	default:
		return http.StatusInternalServerError, errorResponse{Code: "internal", Message: training.MsgGeneric}
	}
}

// staleAfterMutation reports whether err only means the follow-up refresh
// failed. The mutation itself went through.
func staleAfterMutation(err error) bool {
	step, ok := training.FailedStep(err)
	return ok && step == training.StepRefresh
}
