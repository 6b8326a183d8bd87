// Package service wires the control layer together: filter persistence, the
// scoring backend client, the command loop and the three interactive
// components exposed over the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/okian/bullseye/internal/adapters/http/api"
	"github.com/okian/bullseye/internal/adapters/http/client"
	"github.com/okian/bullseye/internal/adapters/http/swagger"
	eventqueue "github.com/okian/bullseye/internal/adapters/mq/queue"
	workerpool "github.com/okian/bullseye/internal/adapters/mq/worker"
	"github.com/okian/bullseye/internal/adapters/repository"
	"github.com/okian/bullseye/internal/adapters/urlstate"
	"github.com/okian/bullseye/internal/analytics"
	"github.com/okian/bullseye/internal/config"
	"github.com/okian/bullseye/internal/domain/modal"
	"github.com/okian/bullseye/internal/domain/notice"
	"github.com/okian/bullseye/internal/scheduler"
	"github.com/okian/bullseye/internal/training"
	"github.com/okian/bullseye/pkg/logger"
	"github.com/okian/bullseye/pkg/metrics"
)

// ErrNotStarted is returned by operations that need a running service.
var ErrNotStarted = errors.New("service not started")

// Backend is the full scoring server surface. *client.Client implements it.
type Backend interface {
	training.Backend
	analytics.Backend
}

var _ Backend = (*client.Client)(nil)

// Service owns every long-lived component of the control layer.
type Service struct {
	mu sync.RWMutex

	// Configuration and injected collaborators
	cfg          *config.Config
	backend      Backend
	storeBackend repository.Backend
	camera       training.Camera
	clock        scheduler.Clock

	// Core components
	store      *repository.FilterStore
	board      *notice.Board
	queue      *eventqueue.InMemoryQueue
	dispatcher *workerpool.Dispatcher
	manager    *training.Manager
	browser    *training.Browser
	modal      *modal.Controller
	location   *urlstate.MemoryLocation
	analytics  *analytics.Orchestrator
	handler    http.Handler

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig replaces the default configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithBackend replaces the HTTP scoring client built from BackendURL.
func WithBackend(b Backend) Option {
	return func(s *Service) {
		if b != nil {
			s.backend = b
		}
	}
}

// WithStoreBackend replaces the filter store backend chosen by FilterStore.
func WithStoreBackend(b repository.Backend) Option {
	return func(s *Service) {
		if b != nil {
			s.storeBackend = b
		}
	}
}

// WithCamera attaches a frame source for capture uploads.
func WithCamera(c training.Camera) Option {
	return func(s *Service) {
		if c != nil {
			s.camera = c
		}
	}
}

// WithClock sets the clock driving the analytics debounce.
func WithClock(c scheduler.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:   config.New(),
		clock: scheduler.RealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the components and starts the command loop. Calling Start on
// a running service is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	s.logger.Info(ctx, "starting control service...",
		logger.String("backend", s.cfg.BackendURL),
		logger.String("filterStore", s.cfg.FilterStore),
	)

	storeBackend, err := s.openStoreBackend(ctx)
	if err != nil {
		return err
	}
	s.store = repository.NewFilterStore(storeBackend,
		repository.WithKey(s.cfg.FilterKey),
		repository.WithLogger(s.logger.Named("filters")),
	)

	if s.backend == nil {
		s.backend = client.New(s.cfg.BackendURL,
			client.WithTimeout(s.cfg.HTTPTimeout()),
			client.WithLogger(s.logger.Named("client")),
		)
	}

	s.board = notice.NewBoard(s.cfg.NoticeLimit)
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.cfg.QueueSize))
	s.dispatcher = workerpool.NewDispatcher(s.queue,
		workerpool.WithName("control"),
		workerpool.WithLogger(s.logger.Named("dispatcher")),
	)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.dispatcher.Run(runCtx)

	managerOpts := []training.Option{
		training.WithLogger(s.logger.Named("training")),
		training.WithNotices(s.board),
	}
	if s.camera != nil {
		managerOpts = append(managerOpts, training.WithCamera(s.camera))
	}
	s.manager = training.NewManager(s.backend, managerOpts...)
	s.browser = training.NewBrowser(s.manager)
	s.modal = modal.NewController(s.browser, s.board,
		modal.WithMessage(training.UserMessage),
		modal.WithLogger(s.logger.Named("modal")),
	)

	s.location = urlstate.NewMemoryLocation(s.cfg.AnalyticsPath, "")
	s.analytics = analytics.NewOrchestrator(s.backend, s.store, s.location,
		analytics.WithClock(s.clock),
		analytics.WithDebounce(s.cfg.Debounce()),
		analytics.WithDispatcher(s.dispatcher),
		analytics.WithNotices(s.board),
		analytics.WithLogger(s.logger.Named("analytics")),
	)

	server := api.NewServer(api.Dependencies{
		Analytics:  s.analytics,
		Sessions:   s.manager,
		Browser:    s.browser,
		Modal:      s.modal,
		Notices:    s.board,
		Dispatcher: s.dispatcher,
	})
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	server.Register(mux)
	s.handler = mux

	s.started = true
	s.logger.Info(ctx, "control service started",
		logger.Int("queueSize", s.cfg.QueueSize),
		logger.Duration("debounce", s.cfg.Debounce()),
	)
	return nil
}

func (s *Service) openStoreBackend(ctx context.Context) (repository.Backend, error) {
	if s.storeBackend != nil {
		return s.storeBackend, nil
	}
	switch s.cfg.FilterStore {
	case config.StoreSQLite:
		b, err := repository.NewSQLiteBackend(ctx, s.cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite filter store: %w", err)
		}
		return b, nil
	case config.StorePostgres:
		b, err := repository.NewPostgresBackend(ctx, s.cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres filter store: %w", err)
		}
		return b, nil
	default:
		return repository.NewMemoryBackend(), nil
	}
}

// Stop drains the command loop and releases the filter store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping control service...")

	err := s.dispatcher.Shutdown(ctx)
	s.cancel()
	if cerr := s.store.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}

	s.started = false
	s.logger.Info(ctx, "control service stopped")
	return err
}

// Handler returns the HTTP API. It is nil until Start succeeds.
func (s *Service) Handler() http.Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handler
}

// Analytics returns the analytics orchestrator.
func (s *Service) Analytics() *analytics.Orchestrator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analytics
}

// Manager returns the training session manager.
func (s *Service) Manager() *training.Manager {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manager
}

// Notices returns the shared user-facing message board.
func (s *Service) Notices() *notice.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board
}

// Submit runs fn on the command loop and waits for it.
func (s *Service) Submit(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	s.mu.RLock()
	d := s.dispatcher
	started := s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}
	return d.Submit(ctx, name, fn)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"queueSize":   s.cfg.QueueSize,
		"filterStore": s.cfg.FilterStore,
	}
	if s.started {
		queueLen := s.queue.Len(context.Background())
		stats["queueLength"] = queueLen
		stats["phase"] = string(s.manager.Phase())
		stats["filtersPending"] = s.analytics.Pending()
		metrics.UpdateCommandQueueSize(queueLen)
	}
	return stats
}
