package repository

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/okian/bullseye/internal/domain/filter"
)

// EncodeRecord serialises a full filter state. Every collection is written,
// so an empty selection is stored as [] and read back as explicitly empty.
func EncodeRecord(s filter.State) ([]byte, error) {
	payload, err := json.Marshal(s.Normalize())
	if err != nil {
		return nil, fmt.Errorf("encode filter record: %w", err)
	}
	return payload, nil
}

// DecodeRecord parses a stored record. A key that is present marks the field as
// provided; a missing key or JSON null leaves it unset. Any malformed content
// yields ErrCorruptRecord.
func DecodeRecord(raw []byte) (filter.Partial, error) {
	var p filter.Partial
	if len(bytes.TrimSpace(raw)) == 0 {
		return p, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return filter.Partial{}, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}

	var err error
	if p.Start, err = decodeDate(fields, "start"); err != nil {
		return filter.Partial{}, err
	}
	if p.End, err = decodeDate(fields, "end"); err != nil {
		return filter.Partial{}, err
	}
	if p.AthleteIDs, err = decodeInts(fields, "athletes"); err != nil {
		return filter.Partial{}, err
	}
	if p.Teams, err = decodeStrings(fields, "teams"); err != nil {
		return filter.Partial{}, err
	}
	if p.RifleIDs, err = decodeInts(fields, "rifles"); err != nil {
		return filter.Partial{}, err
	}
	if p.JacketIDs, err = decodeInts(fields, "jackets"); err != nil {
		return filter.Partial{}, err
	}
	if p.ScopeIDs, err = decodeInts(fields, "scopes"); err != nil {
		return filter.Partial{}, err
	}
	if p.Modes, err = decodeStrings(fields, "modes"); err != nil {
		return filter.Partial{}, err
	}
	if p.IncludeUnassigned, err = decodeField[bool](fields, "include_unassigned"); err != nil {
		return filter.Partial{}, err
	}
	return p, nil
}

func decodeField[T any](fields map[string]json.RawMessage, key string) (filter.Opt[T], error) {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return filter.Opt[T]{}, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return filter.Opt[T]{}, fmt.Errorf("%w: field %s: %w", ErrCorruptRecord, key, err)
	}
	return filter.Some(v), nil
}

func decodeDate(fields map[string]json.RawMessage, key string) (filter.Opt[string], error) {
	o, err := decodeField[string](fields, key)
	if err != nil || o.Value == "" {
		return filter.Opt[string]{}, err
	}
	return o, nil
}

func decodeInts(fields map[string]json.RawMessage, key string) (filter.Opt[[]int], error) {
	o, err := decodeField[[]int](fields, key)
	if err != nil || !o.Set {
		return o, err
	}
	return filter.Some(filter.UniqueInts(o.Value)), nil
}

func decodeStrings(fields map[string]json.RawMessage, key string) (filter.Opt[[]string], error) {
	o, err := decodeField[[]string](fields, key)
	if err != nil || !o.Set {
		return o, err
	}
	return filter.Some(filter.UniqueStrings(o.Value)), nil
}
