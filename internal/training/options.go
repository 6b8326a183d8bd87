package training

import (
	"github.com/okian/bullseye/internal/domain/notice"
	"github.com/okian/bullseye/pkg/logger"
)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithNotices sets the board user-facing messages go to.
func WithNotices(b *notice.Board) Option {
	return func(m *Manager) {
		if b != nil {
			m.board = b
		}
	}
}

// WithCamera enables CaptureAndUpload.
func WithCamera(c Camera) Option {
	return func(m *Manager) {
		m.camera = c
	}
}
