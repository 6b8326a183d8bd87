// Package urlstate maps filter state to and from a query string and publishes
// the current state onto the navigable location without adding history.
package urlstate

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/bullseye/internal/domain/filter"
)

// Query parameter names.
const (
	ParamStart             = "start"
	ParamEnd               = "end"
	ParamAthletes          = "athlete_ids"
	ParamTeams             = "teams"
	ParamRifles            = "rifle_ids"
	ParamJackets           = "jacket_ids"
	ParamScopes            = "scope_ids"
	ParamModes             = "modes"
	ParamIncludeUnassigned = "include_unassigned"
)

// Encode renders s as a query string. A parameter is emitted only when its
// collection is non-empty, its date is non-empty or its boolean is true.
func Encode(s filter.State) string {
	v := url.Values{}
	if s.Start != "" {
		v.Set(ParamStart, s.Start)
	}
	if s.End != "" {
		v.Set(ParamEnd, s.End)
	}
	setInts(v, ParamAthletes, s.AthleteIDs)
	setStrings(v, ParamTeams, s.Teams)
	setInts(v, ParamRifles, s.RifleIDs)
	setInts(v, ParamJackets, s.JacketIDs)
	setInts(v, ParamScopes, s.ScopeIDs)
	setStrings(v, ParamModes, s.Modes)
	if s.IncludeUnassigned {
		v.Set(ParamIncludeUnassigned, "1")
	}
	return v.Encode()
}

// Decode parses a raw query string (with or without the leading '?').
//
// A collection parameter that is present, even with an empty value, is
// reported as explicitly set; "modes=" therefore means "no modes" rather than
// "not specified". Empty tokens and non-numeric ids are dropped. Date
// parameters with an empty value are treated as absent.
func Decode(rawQuery string) filter.Partial {
	// ParseQuery keeps every well-formed pair even when it reports an error.
	values, _ := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	var p filter.Partial
	if s := values.Get(ParamStart); s != "" {
		p.Start = filter.Some(s)
	}
	if s := values.Get(ParamEnd); s != "" {
		p.End = filter.Some(s)
	}
	p.AthleteIDs = intsParam(values, ParamAthletes)
	p.Teams = stringsParam(values, ParamTeams)
	p.RifleIDs = intsParam(values, ParamRifles)
	p.JacketIDs = intsParam(values, ParamJackets)
	p.ScopeIDs = intsParam(values, ParamScopes)
	p.Modes = stringsParam(values, ParamModes)
	if values.Has(ParamIncludeUnassigned) {
		p.IncludeUnassigned = filter.Some(parseBool(values.Get(ParamIncludeUnassigned)))
	}
	return p
}

// DecodeState is Decode with every unset field resolved to its zero value.
func DecodeState(rawQuery string) filter.State {
	p := Decode(rawQuery)
	return filter.State{
		Start:             p.Start.Value,
		End:               p.End.Value,
		AthleteIDs:        filter.UniqueInts(p.AthleteIDs.Value),
		Teams:             filter.UniqueStrings(p.Teams.Value),
		RifleIDs:          filter.UniqueInts(p.RifleIDs.Value),
		JacketIDs:         filter.UniqueInts(p.JacketIDs.Value),
		ScopeIDs:          filter.UniqueInts(p.ScopeIDs.Value),
		Modes:             filter.UniqueStrings(p.Modes.Value),
		IncludeUnassigned: p.IncludeUnassigned.Value,
	}
}

func setInts(v url.Values, key string, ids []int) {
	ids = filter.UniqueInts(ids)
	if len(ids) == 0 {
		return
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	v.Set(key, strings.Join(parts, ","))
}

func setStrings(v url.Values, key string, items []string) {
	items = filter.UniqueStrings(items)
	if len(items) == 0 {
		return
	}
	v.Set(key, strings.Join(items, ","))
}

func intsParam(values url.Values, key string) filter.Opt[[]int] {
	if !values.Has(key) {
		return filter.Opt[[]int]{}
	}
	out := make([]int, 0)
	for _, tok := range splitTokens(values.Get(key)) {
		n, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return filter.Some(filter.UniqueInts(out))
}

func stringsParam(values url.Values, key string) filter.Opt[[]string] {
	if !values.Has(key) {
		return filter.Opt[[]string]{}
	}
	return filter.Some(filter.UniqueStrings(splitTokens(values.Get(key))))
}

// splitTokens drops empty tokens and keeps the rest byte for byte.
func splitTokens(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
