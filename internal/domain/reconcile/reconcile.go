// Package reconcile merges the URL, stored and server-default filter sources
// into one canonical filter.State.
package reconcile

import (
	"github.com/okian/bullseye/internal/domain/filter"
)

// Defaults are the server-provided bounds used when neither the URL nor the
// store supplies a value.
type Defaults struct {
	DateMin string
	DateMax string
	Modes   []string
}

// Reconcile resolves every field independently: the URL value when provided,
// else the stored value when provided, else the default. A provided empty
// collection counts as a value and is never replaced by a lower source.
func Reconcile(url, stored filter.Partial, defaults Defaults) filter.State {
	modes := defaults.Modes
	if len(modes) == 0 {
		modes = filter.DefaultModes
	}

	s := filter.State{
		Start:             pick(url.Start, stored.Start, defaults.DateMin),
		End:               pick(url.End, stored.End, defaults.DateMax),
		AthleteIDs:        pick(url.AthleteIDs, stored.AthleteIDs, nil),
		Teams:             pick(url.Teams, stored.Teams, nil),
		RifleIDs:          pick(url.RifleIDs, stored.RifleIDs, nil),
		JacketIDs:         pick(url.JacketIDs, stored.JacketIDs, nil),
		ScopeIDs:          pick(url.ScopeIDs, stored.ScopeIDs, nil),
		Modes:             pick(url.Modes, stored.Modes, modes),
		IncludeUnassigned: pick(url.IncludeUnassigned, stored.IncludeUnassigned, false),
	}
	return s.Normalize()
}

func pick[T any](first, second filter.Opt[T], fallback T) T {
	if first.Set {
		return first.Value
	}
	if second.Set {
		return second.Value
	}
	return fallback
}
