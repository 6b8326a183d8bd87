package training

import (
	"context"
	"io"
	"math"
	"net/http"

	"github.com/okian/bullseye/internal/adapters/http/client"
	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/internal/domain/notice"
	"github.com/okian/bullseye/pkg/logger"
	"github.com/okian/bullseye/pkg/metrics"
)

// UploadResult describes a saved image.
type UploadResult struct {
	Filename   string   `json:"filename"`
	ImageID    int      `json:"image_id"`
	ShotsCount int      `json:"shots_count"`
	TotalScore float64  `json:"total_score"`
	Messages   []string `json:"messages,omitempty"`
}

// Upload sends an image file through upload, process and save, then refreshes.
// Nothing is added locally unless save succeeds.
func (m *Manager) Upload(ctx context.Context, name string, image io.Reader, athleteID *int) (UploadResult, error) {
	if image == nil || name == "" {
		metrics.RecordSessionMutation("upload", metrics.OutcomeBlocked)
		return UploadResult{}, ErrNoFile
	}
	m.ops.Lock()
	defer m.ops.Unlock()

	sessionID, err := m.requireActive()
	if err != nil {
		metrics.RecordSessionMutation("upload", metrics.OutcomeBlocked)
		return UploadResult{}, err
	}
	up, err := m.backend.Upload(ctx, name, image)
	if err == nil && up.Filename == "" {
		err = rejected(client.EndpointUpload, "upload returned no filename")
	}
	if err != nil {
		return UploadResult{}, m.stepFailed(ctx, StepUpload, err)
	}
	return m.processAndPersist(ctx, sessionID, up.Filename, athleteID)
}

// UploadSnapshot is Upload for a camera frame given as a data URL.
func (m *Manager) UploadSnapshot(ctx context.Context, dataURL string, athleteID *int) (UploadResult, error) {
	if dataURL == "" {
		metrics.RecordSessionMutation("upload", metrics.OutcomeBlocked)
		return UploadResult{}, ErrNoFile
	}
	m.ops.Lock()
	defer m.ops.Unlock()

	sessionID, err := m.requireActive()
	if err != nil {
		metrics.RecordSessionMutation("upload", metrics.OutcomeBlocked)
		return UploadResult{}, err
	}
	return m.snapshot(ctx, sessionID, dataURL, athleteID)
}

// CaptureAndUpload grabs a frame from the configured camera and uploads it.
func (m *Manager) CaptureAndUpload(ctx context.Context, athleteID *int) (UploadResult, error) {
	if m.camera == nil {
		return UploadResult{}, ErrNoCamera
	}
	m.ops.Lock()
	defer m.ops.Unlock()

	sessionID, err := m.requireActive()
	if err != nil {
		metrics.RecordSessionMutation("upload", metrics.OutcomeBlocked)
		return UploadResult{}, err
	}
	dataURL, err := m.camera.Capture(ctx)
	if err != nil {
		return UploadResult{}, m.stepFailed(ctx, StepCapture, err)
	}
	if dataURL == "" {
		return UploadResult{}, ErrNoFile
	}
	return m.snapshot(ctx, sessionID, dataURL, athleteID)
}

func (m *Manager) snapshot(ctx context.Context, sessionID int, dataURL string, athleteID *int) (UploadResult, error) {
	up, err := m.backend.Snapshot(ctx, dataURL)
	if err == nil && up.Filename == "" {
		err = rejected(client.EndpointSnapshot, "snapshot returned no filename")
	}
	if err != nil {
		return UploadResult{}, m.stepFailed(ctx, StepSnapshot, err)
	}
	return m.processAndPersist(ctx, sessionID, up.Filename, athleteID)
}

// processAndPersist runs the steps after the file reached the backend. Caller holds ops.
func (m *Manager) processAndPersist(ctx context.Context, sessionID int, filename string, athleteID *int) (UploadResult, error) {
	processed, err := m.backend.Process(ctx, filename)
	if err != nil {
		return UploadResult{}, m.stepFailed(ctx, StepProcess, err)
	}

	saved, err := m.backend.Save(ctx, model.SaveRequest{
		SessionID: sessionID,
		Filename:  filename,
		Result:    processed.Result,
		AthleteID: athleteID,
	})
	if err == nil && !saved.OK {
		err = rejected(client.EndpointSave, "image was not saved")
	}
	if err != nil {
		return UploadResult{}, m.stepFailed(ctx, StepSave, err)
	}
	metrics.RecordSessionMutation("upload", metrics.OutcomeOK)

	for _, msg := range saved.Messages {
		m.board.Push(notice.Warning, msg)
	}
	res := UploadResult{
		Filename:   filename,
		ImageID:    saved.ImageID,
		ShotsCount: saved.ShotsCount,
		TotalScore: saved.TotalScore,
		Messages:   saved.Messages,
	}
	m.logger.Info(ctx, "image saved",
		logger.Int("session_id", sessionID),
		logger.Int("image_id", saved.ImageID),
		logger.Int("shots", saved.ShotsCount),
		logger.Float64("total_score", saved.TotalScore))
	m.board.Push(notice.Success, "Saved image "+filename)
	return res, m.refreshAfterMutation(ctx)
}

func (m *Manager) stepFailed(ctx context.Context, step Step, err error) error {
	metrics.RecordSessionMutation("upload", metrics.OutcomeError)
	m.logger.Warn(ctx, "upload step failed", logger.String("step", string(step)), logger.Error(err))
	se := &StepError{Step: step, Err: err}
	m.board.Push(notice.Danger, UserMessage(se))
	return se
}

// rejected is a 2xx reply the backend did not actually honor.
func rejected(endpoint, msg string) error {
	return &client.ServerError{Endpoint: endpoint, Status: http.StatusOK, Message: msg}
}

func validScore(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
