package training

import (
	"context"
	"sync"

	"github.com/okian/bullseye/internal/adapters/http/client"
	"github.com/okian/bullseye/internal/domain/modal"
	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/pkg/metrics"
)

// PerPage is the session browser page size.
const PerPage = 10

// BrowseQuery selects a page of sessions.
type BrowseQuery struct {
	Page      int    `json:"page"`
	Status    string `json:"status"`
	AthleteID int    `json:"athlete_id"`
}

// Browser lists past sessions and acts on them. Actions touching the loaded
// session go through the Manager so local state stays in agreement.
type Browser struct {
	manager *Manager

	mu   sync.Mutex
	last model.SessionPage
}

// NewBrowser creates a browser bound to m.
func NewBrowser(m *Manager) *Browser {
	return &Browser{manager: m}
}

// List fetches one page.
func (b *Browser) List(ctx context.Context, q BrowseQuery) (model.SessionPage, error) {
	switch q.Status {
	case "", model.StatusActive, model.StatusFinished:
	default:
		return model.SessionPage{}, ErrInvalidStatus
	}
	if q.Page < 1 {
		q.Page = 1
	}
	page, err := b.manager.backend.ListSessions(ctx, client.SessionQuery{
		Page:      q.Page,
		PerPage:   PerPage,
		Status:    q.Status,
		AthleteID: q.AthleteID,
	})
	if err != nil {
		return model.SessionPage{}, err
	}
	if page.Items == nil {
		page.Items = []model.SessionSummary{}
	}
	b.mu.Lock()
	b.last = page
	b.mu.Unlock()
	return page, nil
}

// Open loads a session from the last listed page into the manager.
func (b *Browser) Open(ctx context.Context, id int) error {
	b.mu.Lock()
	var (
		row   model.SessionSummary
		found bool
	)
	for _, it := range b.last.Items {
		if it.ID == id {
			row, found = it, true
			break
		}
	}
	b.mu.Unlock()
	if !found {
		return ErrNoSession
	}
	return b.manager.Resume(ctx, row.AsSession())
}

// Execute implements modal.Executor for every confirmable action.
func (b *Browser) Execute(ctx context.Context, kind modal.Kind, targetID int) error {
	switch kind {
	case modal.DeleteImage:
		return b.manager.DeleteImage(ctx, targetID)
	case modal.FinishSession:
		if b.manager.loadedID() == targetID {
			return b.manager.Finish(ctx)
		}
		return b.remote("finish_session", func() error { return b.manager.backend.FinishSession(ctx, targetID) })
	case modal.DeleteSession:
		return b.manager.DeleteSession(ctx, targetID)
	}
	return modal.ErrUnknownKind
}

func (b *Browser) remote(op string, fn func() error) error {
	if err := fn(); err != nil {
		metrics.RecordSessionMutation(op, metrics.OutcomeError)
		return err
	}
	metrics.RecordSessionMutation(op, metrics.OutcomeOK)
	return nil
}

var _ modal.Executor = (*Browser)(nil)

// loadedID returns the loaded session id, or 0.
func (m *Manager) loadedID() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return 0
	}
	return m.session.ID
}

// DeleteSession removes a session. Deleting the loaded one also unloads it.
func (m *Manager) DeleteSession(ctx context.Context, id int) error {
	m.ops.Lock()
	defer m.ops.Unlock()

	if err := m.backend.DeleteSession(ctx, id); err != nil {
		metrics.RecordSessionMutation("delete_session", metrics.OutcomeError)
		return err
	}
	metrics.RecordSessionMutation("delete_session", metrics.OutcomeOK)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil && m.session.ID == id {
		m.session = nil
		m.images = nil
		m.rechartLocked()
		metrics.UpdateSessionImages(0)
	}
	return nil
}
