package urlstate

import (
	"strings"
	"sync"

	"github.com/okian/bullseye/internal/domain/filter"
)

// Location is the navigable address the page is showing.
type Location interface {
	// Path is the page path without query.
	Path() string
	// Replace rewrites the current address in place. It must not add a history entry.
	Replace(rawURL string)
}

// Publish rewrites loc to carry s. An empty encoding leaves the bare path.
func Publish(loc Location, s filter.State) string {
	u := URLFor(loc.Path(), s)
	loc.Replace(u)
	return u
}

// URLFor builds path?query for s.
func URLFor(path string, s filter.State) string {
	if q := Encode(s); q != "" {
		return path + "?" + q
	}
	return path
}

// MemoryLocation is a process-local Location. It keeps a history stack so
// callers can verify that publishing never grows it.
type MemoryLocation struct {
	mu       sync.RWMutex
	path     string
	current  string
	history  []string
	replaced int
}

// NewMemoryLocation starts at path with an initial address.
func NewMemoryLocation(path, initial string) *MemoryLocation {
	if initial == "" {
		initial = path
	}
	return &MemoryLocation{path: path, current: initial, history: []string{initial}}
}

// Path implements Location.
func (l *MemoryLocation) Path() string { return l.path }

// Replace implements Location.
func (l *MemoryLocation) Replace(rawURL string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current = rawURL
	l.history[len(l.history)-1] = rawURL
	l.replaced++
}

// Navigate simulates a user navigation, pushing a new history entry.
func (l *MemoryLocation) Navigate(rawURL string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current = rawURL
	l.history = append(l.history, rawURL)
}

// Current returns the address currently shown.
func (l *MemoryLocation) Current() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Query returns the query part of the current address.
func (l *MemoryLocation) Query() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := strings.IndexByte(l.current, '?'); i >= 0 {
		return l.current[i+1:]
	}
	return ""
}

// HistoryLen returns the number of history entries.
func (l *MemoryLocation) HistoryLen() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.history)
}

// Replacements returns how many in-place rewrites happened.
func (l *MemoryLocation) Replacements() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.replaced
}
