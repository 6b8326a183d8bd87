package analytics

import (
	"time"

	"github.com/okian/bullseye/internal/domain/notice"
	"github.com/okian/bullseye/internal/scheduler"
	"github.com/okian/bullseye/pkg/logger"
)

// DefaultDebounce is the quiet period before a filter change is fetched.
const DefaultDebounce = 300 * time.Millisecond

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock sets the clock driving the debounce timer.
func WithClock(c scheduler.Clock) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithDebounce sets the quiet period for Change.
func WithDebounce(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.delay = d
		}
	}
}

// WithDispatcher runs debounced fetches on d instead of the timer goroutine.
func WithDispatcher(d Dispatcher) Option {
	return func(o *Orchestrator) {
		o.dispatcher = d
	}
}

// WithNotices sets the board failures are reported on.
func WithNotices(b *notice.Board) Option {
	return func(o *Orchestrator) {
		if b != nil {
			o.board = b
		}
	}
}

// WithOnRender registers a callback receiving every applied rendering.
func WithOnRender(fn func(Views)) Option {
	return func(o *Orchestrator) {
		o.onRender = fn
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}
