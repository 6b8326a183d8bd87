// Package notice is the user-facing message surface.
package notice

import (
	"sync"
	"time"
)

// Level is the severity of a notice.
type Level string

const (
	Success Level = "success"
	Info    Level = "info"
	Warning Level = "warning"
	Danger  Level = "danger"
)

// Notice is one message shown to the user.
type Notice struct {
	Level Level     `json:"level"`
	Text  string    `json:"text"`
	At    time.Time `json:"at"`
}

// DefaultLimit bounds a board when no limit is given.
const DefaultLimit = 20

// Board keeps the most recent notices, oldest dropped first.
type Board struct {
	mu    sync.Mutex
	limit int
	items []Notice
	now   func() time.Time
}

// NewBoard creates a board holding up to limit notices.
func NewBoard(limit int) *Board {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Board{limit: limit, now: time.Now}
}

// Push appends a notice. Empty text is ignored.
func (b *Board) Push(level Level, text string) {
	if text == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, Notice{Level: level, Text: text, At: b.now()})
	if over := len(b.items) - b.limit; over > 0 {
		b.items = append(b.items[:0], b.items[over:]...)
	}
}

// Recent returns a copy of the notices, oldest first.
func (b *Board) Recent() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Notice, len(b.items))
	copy(out, b.items)
	return out
}

// Last returns the newest notice.
func (b *Board) Last() (Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) == 0 {
		return Notice{}, false
	}
	return b.items[len(b.items)-1], true
}

// Clear drops every notice.
func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = nil
}
