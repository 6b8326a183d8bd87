// Package analytics turns a canonical filter into one aggregate request and
// renders the response into every analytics view.
//
// Filter edits are debounced, apply fires at once, and reset rebuilds the
// filter from server defaults. Overlapping requests are allowed; only the
// response to the most recently started one is ever applied.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/bullseye/internal/adapters/http/client"
	"github.com/okian/bullseye/internal/adapters/repository"
	"github.com/okian/bullseye/internal/adapters/urlstate"
	"github.com/okian/bullseye/internal/domain/filter"
	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/internal/domain/notice"
	"github.com/okian/bullseye/internal/domain/reconcile"
	"github.com/okian/bullseye/internal/scheduler"
	"github.com/okian/bullseye/pkg/logger"
	"github.com/okian/bullseye/pkg/metrics"
)

// Backend is the part of the scoring server analytics depends on.
type Backend interface {
	Filters(ctx context.Context) (model.FilterOptions, error)
	AnalyticsData(ctx context.Context, query string) (model.AnalyticsData, error)
}

// Dispatcher queues work onto the app's single command loop.
type Dispatcher interface {
	Post(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

const fetchCommand = "analytics.fetch"

// Orchestrator owns the analytics filter and the rendered views.
type Orchestrator struct {
	backend    Backend
	store      repository.Store
	location   urlstate.Location
	clock      scheduler.Clock
	delay      time.Duration
	debouncer  *scheduler.Debouncer
	dispatcher Dispatcher
	board      *notice.Board
	onRender   func(Views)
	logger     logger.Logger

	group singleflight.Group

	mu          sync.RWMutex
	options     *model.FilterOptions
	current     filter.State
	seq         uint64
	views       *Views
	renderedFor filter.State
	renderedAt  time.Time
	lastErr     error
}

// NewOrchestrator wires an orchestrator to its collaborators.
func NewOrchestrator(backend Backend, store repository.Store, location urlstate.Location, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend:  backend,
		store:    store,
		location: location,
		clock:    scheduler.RealClock(),
		delay:    DefaultDebounce,
		board:    notice.NewBoard(notice.DefaultLimit),
		logger:   logger.Get().Named("analytics"),
		current:  filter.State{Modes: filter.DefaultModes}.Normalize(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.debouncer = scheduler.NewDebouncer(o.clock, o.delay)
	return o
}

// Notices returns the board failures are reported on.
func (o *Orchestrator) Notices() *notice.Board { return o.board }

// Options returns the server filter options, loading them once. Concurrent
// callers share a single request.
func (o *Orchestrator) Options(ctx context.Context) (model.FilterOptions, error) {
	o.mu.RLock()
	cached := o.options
	o.mu.RUnlock()
	if cached != nil {
		return *cached, nil
	}

	v, err, _ := o.group.Do("filters", func() (any, error) {
		opts, err := o.backend.Filters(ctx)
		if err != nil {
			return nil, err
		}
		o.mu.Lock()
		o.options = &opts
		o.mu.Unlock()
		return opts, nil
	})
	if err != nil {
		return model.FilterOptions{}, fmt.Errorf("%w: %w", ErrDefaults, err)
	}
	return v.(model.FilterOptions), nil
}

// Load reconciles the URL query, the stored filter and the server defaults
// into the current filter. When defaults cannot be loaded the filter is still
// built from the other two sources, a warning is posted and the error is
// returned alongside it.
func (o *Orchestrator) Load(ctx context.Context, rawQuery string) (filter.State, error) {
	opts, optsErr := o.Options(ctx)
	if optsErr != nil {
		o.logger.Warn(ctx, "filter defaults unavailable", logger.Error(optsErr))
		o.board.Push(notice.Warning, UserMessage(optsErr))
	}

	s := reconcile.Reconcile(urlstate.Decode(rawQuery), o.store.Load(ctx), reconcile.Defaults{
		DateMin: opts.DateRange.Min,
		DateMax: opts.DateRange.Max,
		Modes:   opts.Modes,
	})

	o.mu.Lock()
	o.current = s
	o.mu.Unlock()
	return s, optsErr
}

// Current returns the filter the next fetch will use.
func (o *Orchestrator) Current() filter.State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.current
}

// Change records an edited filter and schedules a fetch after the quiet
// period. Rapid edits collapse into one request for the last filter.
func (o *Orchestrator) Change(ctx context.Context, s filter.State) {
	s = s.Normalize()
	o.mu.Lock()
	o.current = s
	o.mu.Unlock()

	bg := context.WithoutCancel(ctx)
	o.debouncer.Trigger(func() { o.fetchLater(bg, s) })
}

// Pending reports whether a debounced fetch is waiting.
func (o *Orchestrator) Pending() bool { return o.debouncer.Pending() }

// Apply fetches s immediately, dropping any debounced fetch.
func (o *Orchestrator) Apply(ctx context.Context, s filter.State) error {
	o.debouncer.Cancel()
	s = s.Normalize()
	o.mu.Lock()
	o.current = s
	o.mu.Unlock()
	return o.FetchAndRender(ctx, s)
}

// Retry fetches the current filter again.
func (o *Orchestrator) Retry(ctx context.Context) error {
	return o.Apply(ctx, o.Current())
}

// Reset forgets the stored and URL filters, reloads the server defaults and
// fetches the resulting filter.
func (o *Orchestrator) Reset(ctx context.Context) error {
	o.debouncer.Cancel()
	if err := o.store.Clear(ctx); err != nil {
		o.logger.Warn(ctx, "clearing stored filters failed", logger.Error(err))
	}
	o.location.Replace(o.location.Path())

	o.mu.Lock()
	o.options = nil
	o.mu.Unlock()

	s, _ := o.Load(ctx, "")
	return o.FetchAndRender(ctx, s)
}

// FetchAndRender saves and publishes s, requests the aggregate data and
// replaces every view with the response. A failed request or an unrenderable
// response leaves the previous views in place. A response that arrives after
// a newer request was started is discarded.
func (o *Orchestrator) FetchAndRender(ctx context.Context, s filter.State) error {
	s = s.Normalize()

	if err := o.store.Save(ctx, s); err != nil {
		metrics.RecordErrorByComponent("analytics", "save_filters")
		o.logger.Warn(ctx, "saving filters failed", logger.Error(err))
	}
	urlstate.Publish(o.location, s)

	o.mu.Lock()
	o.seq++
	seq := o.seq
	o.mu.Unlock()

	data, err := o.backend.AnalyticsData(ctx, urlstate.Encode(s))
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrFetch, err)
	}

	var views Views
	var took time.Duration
	if err == nil {
		start := time.Now()
		views, err = Render(data)
		took = time.Since(start)
	}

	o.mu.Lock()
	if seq != o.seq {
		o.mu.Unlock()
		metrics.RecordAnalyticsFetch(metrics.OutcomeStale)
		o.logger.Debug(ctx, "discarding stale analytics response", logger.Int64("seq", int64(seq)))
		return nil
	}
	if err != nil {
		o.lastErr = err
		o.mu.Unlock()
		metrics.RecordAnalyticsFetch(metrics.OutcomeFailed)
		o.logger.Warn(ctx, "analytics fetch failed", logger.Error(err))
		o.board.Push(notice.Danger, UserMessage(err))
		return err
	}
	o.views = &views
	o.renderedFor = s
	o.renderedAt = o.clock.Now()
	o.lastErr = nil
	onRender := o.onRender
	o.mu.Unlock()

	metrics.RecordAnalyticsFetch(metrics.OutcomeApplied)
	metrics.RecordRenderDuration(float64(took.Microseconds()) / 1000)
	if onRender != nil {
		onRender(views)
	}
	return nil
}

func (o *Orchestrator) fetchLater(ctx context.Context, s filter.State) {
	run := func(ctx context.Context) error { return o.FetchAndRender(ctx, s) }
	if o.dispatcher == nil {
		_ = run(ctx)
		return
	}
	if err := o.dispatcher.Post(ctx, fetchCommand, run); err != nil {
		metrics.RecordErrorByComponent("analytics", "dispatch")
		o.logger.Warn(ctx, "could not queue analytics fetch", logger.Error(err))
		o.board.Push(notice.Warning, MsgFetchFailed)
	}
}

// Snapshot is a read-only copy of the orchestrator state.
type Snapshot struct {
	Filter      filter.State         `json:"filter"`
	Query       string               `json:"query"`
	URL         string               `json:"url"`
	Options     *model.FilterOptions `json:"options,omitempty"`
	Views       *Views               `json:"views,omitempty"`
	RenderedFor *filter.State        `json:"rendered_for,omitempty"`
	RenderedAt  *time.Time           `json:"rendered_at,omitempty"`
	Pending     bool                 `json:"pending"`
	Error       string               `json:"error,omitempty"`
	Retryable   bool                 `json:"retryable"`
}

// Snapshot returns the current state for display.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()

	snap := Snapshot{
		Filter:  o.current,
		Query:   urlstate.Encode(o.current),
		URL:     urlstate.URLFor(o.location.Path(), o.current),
		Pending: o.debouncer.Pending(),
	}
	if o.options != nil {
		opts := *o.options
		snap.Options = &opts
	}
	if o.views != nil {
		v := *o.views
		rf := o.renderedFor
		at := o.renderedAt
		snap.Views, snap.RenderedFor, snap.RenderedAt = &v, &rf, &at
	}
	if o.lastErr != nil {
		snap.Error = UserMessage(o.lastErr)
		snap.Retryable = true
	}
	return snap
}

// UserMessage is the text shown for an analytics failure.
func UserMessage(err error) string {
	if msg, ok := client.ServerMessage(err); ok {
		return msg
	}
	if errors.Is(err, ErrDefaults) {
		return MsgDefaultsFailed
	}
	return MsgFetchFailed
}
