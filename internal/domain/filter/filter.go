// Package filter holds the analytics filter model shared by the URL codec,
// the persisted store and the reconciler.
//
// An empty collection in a State means "no filter on this dimension". A Partial
// additionally records, per field, whether a source provided the value at all,
// so that an explicitly cleared selection can be told apart from an untouched one.
package filter

import (
	"slices"
)

// Default modes used when the backend reports none.
var DefaultModes = []string{"training", "competition"} //nolint:gochecknoglobals // read-only fallback

// State is the canonical, fully-resolved filter set driving one analytics fetch.
// Instances are treated as immutable: edits produce a new State.
type State struct {
	Start             string   `json:"start"`
	End               string   `json:"end"`
	AthleteIDs        []int    `json:"athletes"`
	Teams             []string `json:"teams"`
	RifleIDs          []int    `json:"rifles"`
	JacketIDs         []int    `json:"jackets"`
	ScopeIDs          []int    `json:"scopes"`
	Modes             []string `json:"modes"`
	IncludeUnassigned bool     `json:"include_unassigned"`
}

// Opt is a value plus whether a source explicitly provided it.
type Opt[T any] struct {
	Value T
	Set   bool
}

// Some returns a provided Opt.
func Some[T any](v T) Opt[T] { return Opt[T]{Value: v, Set: true} }

// Partial is one source's view of the filter: any subset of fields may be set.
type Partial struct {
	Start             Opt[string]
	End               Opt[string]
	AthleteIDs        Opt[[]int]
	Teams             Opt[[]string]
	RifleIDs          Opt[[]int]
	JacketIDs         Opt[[]int]
	ScopeIDs          Opt[[]int]
	Modes             Opt[[]string]
	IncludeUnassigned Opt[bool]
}

// IsZero reports whether no field is provided.
func (p Partial) IsZero() bool {
	return !p.Start.Set && !p.End.Set && !p.AthleteIDs.Set && !p.Teams.Set &&
		!p.RifleIDs.Set && !p.JacketIDs.Set && !p.ScopeIDs.Set && !p.Modes.Set &&
		!p.IncludeUnassigned.Set
}

// AsPartial marks every field of s as provided.
func (s State) AsPartial() Partial {
	return Partial{
		Start:             Opt[string]{Value: s.Start, Set: s.Start != ""},
		End:               Opt[string]{Value: s.End, Set: s.End != ""},
		AthleteIDs:        Some(UniqueInts(s.AthleteIDs)),
		Teams:             Some(UniqueStrings(s.Teams)),
		RifleIDs:          Some(UniqueInts(s.RifleIDs)),
		JacketIDs:         Some(UniqueInts(s.JacketIDs)),
		ScopeIDs:          Some(UniqueInts(s.ScopeIDs)),
		Modes:             Some(UniqueStrings(s.Modes)),
		IncludeUnassigned: Some(s.IncludeUnassigned),
	}
}

// Normalize returns a copy with every set deduplicated and nil collections
// replaced by empty ones.
func (s State) Normalize() State {
	return State{
		Start:             s.Start,
		End:               s.End,
		AthleteIDs:        UniqueInts(s.AthleteIDs),
		Teams:             UniqueStrings(s.Teams),
		RifleIDs:          UniqueInts(s.RifleIDs),
		JacketIDs:         UniqueInts(s.JacketIDs),
		ScopeIDs:          UniqueInts(s.ScopeIDs),
		Modes:             UniqueStrings(s.Modes),
		IncludeUnassigned: s.IncludeUnassigned,
	}
}

// Equal compares two states as sets; element order inside a collection is ignored.
func (s State) Equal(o State) bool {
	return s.Start == o.Start &&
		s.End == o.End &&
		s.IncludeUnassigned == o.IncludeUnassigned &&
		sameInts(s.AthleteIDs, o.AthleteIDs) &&
		sameStrings(s.Teams, o.Teams) &&
		sameInts(s.RifleIDs, o.RifleIDs) &&
		sameInts(s.JacketIDs, o.JacketIDs) &&
		sameInts(s.ScopeIDs, o.ScopeIDs) &&
		sameStrings(s.Modes, o.Modes)
}

// UniqueInts drops duplicates keeping first-seen order. Never returns nil.
func UniqueInts(in []int) []int {
	out := make([]int, 0, len(in))
	seen := make(map[int]struct{}, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// UniqueStrings drops empty and duplicate values keeping first-seen order. Never returns nil.
func UniqueStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func sameInts(a, b []int) bool {
	a, b = UniqueInts(a), UniqueInts(b)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}

func sameStrings(a, b []string) bool {
	a, b = UniqueStrings(a), UniqueStrings(b)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}
