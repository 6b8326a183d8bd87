package modal

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/bullseye/internal/domain/notice"
	"github.com/okian/bullseye/pkg/logger"
)

// Errors returned by the controller.
var (
	ErrNothingPending = errors.New("no action awaiting confirmation")
	ErrUnknownKind    = errors.New("unknown confirmation kind")
)

// Executor performs a confirmed destructive action.
type Executor interface {
	Execute(ctx context.Context, kind Kind, targetID int) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, kind Kind, targetID int) error

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, kind Kind, targetID int) error {
	return f(ctx, kind, targetID)
}

// Controller holds modal state and executes confirmed actions.
type Controller struct {
	mu       sync.Mutex
	state    State
	exec     Executor
	board    *notice.Board
	message  func(error) string
	newToken func() string
	logger   logger.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithMessage sets how failures are phrased on the notice board.
func WithMessage(fn func(error) string) Option {
	return func(c *Controller) {
		if fn != nil {
			c.message = fn
		}
	}
}

// WithTokenSource overrides pending-token generation.
func WithTokenSource(fn func() string) Option {
	return func(c *Controller) {
		if fn != nil {
			c.newToken = fn
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewController creates a controller reporting failures to board.
func NewController(exec Executor, board *notice.Board, opts ...Option) *Controller {
	c := &Controller{
		exec:     exec,
		board:    board,
		message:  func(err error) string { return err.Error() },
		newToken: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("modal")
	}
	return c
}

// State returns a snapshot of the modal state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyState(c.state)
}

// Request opens a confirmation for kind on target, replacing any pending one.
func (c *Controller) Request(ctx context.Context, kind Kind, targetID int, label string) (Pending, error) {
	if !kind.Valid() {
		return Pending{}, ErrUnknownKind
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	next, effects := Reduce(c.state, Action{Type: Request, Kind: kind, TargetID: targetID, Label: label, Token: c.newToken()})
	c.state = next
	for _, e := range effects {
		if e.Type == Replaced {
			c.logger.Debug(ctx, "pending confirmation replaced",
				logger.String("kind", string(e.Pending.Kind)),
				logger.Int("target", e.Pending.TargetID))
		}
	}
	return *next.Pending, nil
}

// Confirm runs the pending action. An empty token confirms whatever is
// pending. The modal is dismissed on success and failure alike; a failure is
// also reported on the notice board.
func (c *Controller) Confirm(ctx context.Context, token string) (Pending, error) {
	c.mu.Lock()
	next, effects := Reduce(c.state, Action{Type: Confirm, Token: token})
	c.state = next
	c.mu.Unlock()

	if len(effects) == 0 {
		return Pending{}, ErrNothingPending
	}
	p := effects[0].Pending
	if err := c.exec.Execute(ctx, p.Kind, p.TargetID); err != nil {
		c.logger.Warn(ctx, "confirmed action failed",
			logger.String("kind", string(p.Kind)),
			logger.Int("target", p.TargetID),
			logger.Error(err))
		if c.board != nil {
			c.board.Push(notice.Danger, c.message(err))
		}
		return p, err
	}
	return p, nil
}

// Dismiss closes the confirmation without acting.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state, _ = Reduce(c.state, Action{Type: Dismiss})
}

// Open shows an inspection modal.
func (c *Controller) Open(view View, id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state, _ = Reduce(c.state, Action{Type: OpenInspect, View: view, TargetID: id})
}

// Close hides the inspection modal.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state, _ = Reduce(c.state, Action{Type: CloseInspect})
}

func copyState(s State) State {
	out := State{}
	if s.Pending != nil {
		p := *s.Pending
		out.Pending = &p
	}
	if s.Inspect != nil {
		i := *s.Inspect
		out.Inspect = &i
	}
	return out
}
