// Package training manages the loaded training session and its images and
// shots. Every mutation goes through the backend and local state only changes
// from confirmed replies.
package training

import (
	"context"
	"sync"

	"github.com/okian/bullseye/internal/adapters/http/client"
	"github.com/okian/bullseye/internal/domain/chart"
	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/internal/domain/notice"
	"github.com/okian/bullseye/pkg/logger"
	"github.com/okian/bullseye/pkg/metrics"
)

// Phase is the lifecycle position of the loaded session.
type Phase string

const (
	NoSession Phase = "none"
	Active    Phase = "active"
	Finished  Phase = "finished"
)

// DefaultSessionName is used when start is given a blank name.
const DefaultSessionName = "Training"

// Manager owns the single loaded session. Mutating calls are serialised;
// reads never wait on the network.
type Manager struct {
	ops sync.Mutex

	mu       sync.RWMutex
	session  *model.Session
	images   []model.TrainingImage
	grouping chart.Grouping
	chart    chart.Chart

	backend Backend
	camera  Camera
	board   *notice.Board
	logger  logger.Logger
}

// NewManager creates a manager with no session loaded.
func NewManager(backend Backend, opts ...Option) *Manager {
	m := &Manager{backend: backend}
	for _, opt := range opts {
		opt(m)
	}
	if m.board == nil {
		m.board = notice.NewBoard(notice.DefaultLimit)
	}
	if m.logger == nil {
		m.logger = logger.Get().Named("training")
	}
	m.chart = chart.Render(nil, m.grouping)
	return m
}

// Notices returns the board the manager reports to.
func (m *Manager) Notices() *notice.Board { return m.board }

// Phase returns the current lifecycle phase.
func (m *Manager) Phase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phaseLocked()
}

func (m *Manager) phaseLocked() Phase {
	switch {
	case m.session == nil:
		return NoSession
	case m.session.Finished:
		return Finished
	default:
		return Active
	}
}

// requireActive returns the loaded session id when mutations are allowed.
func (m *Manager) requireActive() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch m.phaseLocked() {
	case NoSession:
		return 0, ErrNoSession
	case Finished:
		return 0, ErrSessionFinished
	}
	return m.session.ID, nil
}

// Start creates a session. A finished session may be replaced; an active one may not.
func (m *Manager) Start(ctx context.Context, name string, athleteIDs []int) (model.Session, error) {
	m.ops.Lock()
	defer m.ops.Unlock()

	if m.Phase() == Active {
		metrics.RecordSessionMutation("start", metrics.OutcomeBlocked)
		return model.Session{}, ErrSessionActive
	}
	if name == "" {
		name = DefaultSessionName
	}
	ids := append([]int{}, athleteIDs...)

	s, err := m.backend.StartSession(ctx, name, ids)
	if err != nil {
		metrics.RecordSessionMutation("start", metrics.OutcomeError)
		m.logger.Warn(ctx, "start session failed", logger.Error(err))
		m.board.Push(notice.Danger, startMessage(err))
		return model.Session{}, err
	}
	s.Finished = false
	if s.AthleteIDs == nil {
		s.AthleteIDs = ids
	}
	if s.Name == "" {
		s.Name = name
	}

	m.mu.Lock()
	m.session = &s
	m.images = nil
	m.rechartLocked()
	m.mu.Unlock()

	metrics.RecordSessionMutation("start", metrics.OutcomeOK)
	m.logger.Info(ctx, "session started", logger.Int("session_id", s.ID), logger.Int("athletes", len(s.AthleteIDs)))
	m.board.Push(notice.Success, MsgStarted)
	return s, nil
}

func startMessage(err error) string {
	if msg, ok := client.ServerMessage(err); ok {
		return msg
	}
	return MsgStartFailed
}

// Resume loads an existing session, e.g. one picked in the browser. It is
// refused while a different session is active.
func (m *Manager) Resume(ctx context.Context, s model.Session) error {
	m.ops.Lock()
	defer m.ops.Unlock()

	m.mu.Lock()
	if m.phaseLocked() == Active && m.session.ID != s.ID {
		m.mu.Unlock()
		return ErrSessionActive
	}
	loaded := s
	m.session = &loaded
	m.images = nil
	m.rechartLocked()
	m.mu.Unlock()

	return m.refresh(ctx)
}

// Finish closes the active session. Its images stay loaded read-only.
func (m *Manager) Finish(ctx context.Context) error {
	m.ops.Lock()
	defer m.ops.Unlock()

	id, err := m.requireActive()
	if err != nil {
		metrics.RecordSessionMutation("finish", metrics.OutcomeBlocked)
		return err
	}
	if err := m.backend.FinishSession(ctx, id); err != nil {
		metrics.RecordSessionMutation("finish", metrics.OutcomeError)
		return err
	}

	m.mu.Lock()
	if m.session != nil && m.session.ID == id {
		m.session.Finished = true
	}
	m.mu.Unlock()

	metrics.RecordSessionMutation("finish", metrics.OutcomeOK)
	m.logger.Info(ctx, "session finished", logger.Int("session_id", id))
	m.board.Push(notice.Info, MsgFinished)
	return nil
}

// DeleteImage removes an image of the active session once the backend confirms.
func (m *Manager) DeleteImage(ctx context.Context, imageID int) error {
	m.ops.Lock()
	defer m.ops.Unlock()

	if _, err := m.requireActive(); err != nil {
		metrics.RecordSessionMutation("delete_image", metrics.OutcomeBlocked)
		return err
	}
	if _, ok := m.findImage(imageID); !ok {
		metrics.RecordSessionMutation("delete_image", metrics.OutcomeBlocked)
		return ErrUnknownImage
	}
	if err := m.backend.DeleteImage(ctx, imageID); err != nil {
		metrics.RecordSessionMutation("delete_image", metrics.OutcomeError)
		return err
	}

	m.mu.Lock()
	kept := make([]model.TrainingImage, 0, len(m.images))
	for _, img := range m.images {
		if img.ID != imageID {
			kept = append(kept, img)
		}
	}
	m.images = kept
	m.rechartLocked()
	m.mu.Unlock()

	metrics.RecordSessionMutation("delete_image", metrics.OutcomeOK)
	m.board.Push(notice.Success, MsgImageDeleted)
	return m.refreshAfterMutation(ctx)
}

// EditShot overrides a shot score. Local state takes the backend's record, not
// the submitted value.
func (m *Manager) EditShot(ctx context.Context, shotID int, finalScore float64, note string) (model.Shot, error) {
	m.ops.Lock()
	defer m.ops.Unlock()

	if _, err := m.requireActive(); err != nil {
		metrics.RecordSessionMutation("edit_shot", metrics.OutcomeBlocked)
		return model.Shot{}, err
	}
	if !validScore(finalScore) {
		metrics.RecordSessionMutation("edit_shot", metrics.OutcomeBlocked)
		return model.Shot{}, ErrInvalidScore
	}
	imageID, ok := m.findShot(shotID)
	if !ok {
		metrics.RecordSessionMutation("edit_shot", metrics.OutcomeBlocked)
		return model.Shot{}, ErrUnknownShot
	}

	shot, err := m.backend.EditShot(ctx, shotID, finalScore, note)
	if err != nil {
		metrics.RecordSessionMutation("edit_shot", metrics.OutcomeError)
		return model.Shot{}, err
	}
	if shot.ID == 0 {
		shot.ID = shotID
	}

	m.mu.Lock()
	for i := range m.images {
		if m.images[i].ID != imageID {
			continue
		}
		shots := append([]model.Shot(nil), m.images[i].Shots...)
		for j := range shots {
			if shots[j].ID == shotID {
				if shot.ImageID == 0 {
					shot.ImageID = shots[j].ImageID
				}
				shots[j] = shot
			}
		}
		m.images[i].Shots = shots
	}
	m.rechartLocked()
	m.mu.Unlock()

	metrics.RecordSessionMutation("edit_shot", metrics.OutcomeOK)
	m.board.Push(notice.Success, MsgShotUpdated)
	return shot, m.refreshAfterMutation(ctx)
}

// Refresh reloads the session's images and replaces local state wholesale.
func (m *Manager) Refresh(ctx context.Context) error {
	m.ops.Lock()
	defer m.ops.Unlock()
	return m.refresh(ctx)
}

func (m *Manager) refresh(ctx context.Context) error {
	m.mu.RLock()
	if m.session == nil {
		m.mu.RUnlock()
		return ErrNoSession
	}
	id := m.session.ID
	m.mu.RUnlock()

	images, err := m.backend.SessionImages(ctx, id)
	if err != nil {
		m.logger.Warn(ctx, "refresh failed", logger.Int("session_id", id), logger.Error(err))
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil || m.session.ID != id {
		return nil
	}
	m.images = images
	m.rechartLocked()
	metrics.UpdateSessionImages(len(images))
	return nil
}

// refreshAfterMutation reports a failed follow-up refresh without undoing the
// confirmed mutation.
func (m *Manager) refreshAfterMutation(ctx context.Context) error {
	if err := m.refresh(ctx); err != nil {
		m.board.Push(notice.Warning, MsgStaleView)
		return &StepError{Step: StepRefresh, Err: err}
	}
	return nil
}

// SetGrouping changes the chart grouping and returns the new chart.
func (m *Manager) SetGrouping(g chart.Grouping) chart.Chart {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grouping = chart.Grouping{
		AthleteIDs:        append([]int{}, g.AthleteIDs...),
		IncludeUnassigned: g.IncludeUnassigned,
	}
	m.rechartLocked()
	return m.chart
}

// rechartLocked recomputes the chart from scratch. Caller holds mu.
func (m *Manager) rechartLocked() {
	m.chart = chart.Render(m.images, m.grouping)
}

// Unload drops the loaded session. Only an unloaded or finished session can be dropped.
func (m *Manager) Unload() error {
	m.ops.Lock()
	defer m.ops.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phaseLocked() == Active {
		return ErrSessionActive
	}
	m.session = nil
	m.images = nil
	m.rechartLocked()
	metrics.UpdateSessionImages(0)
	return nil
}

func (m *Manager) findImage(id int) (model.TrainingImage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, img := range m.images {
		if img.ID == id {
			return img, true
		}
	}
	return model.TrainingImage{}, false
}

// findShot returns the owning image id of a loaded shot.
func (m *Manager) findShot(id int) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, img := range m.images {
		for _, s := range img.Shots {
			if s.ID == id {
				return img.ID, true
			}
		}
	}
	return 0, false
}
