// Package repository persists the last-used analytics filter set.
//
// A single record, keyed by a fixed name, holds the JSON-encoded filter. Reads
// fail soft: a missing, unreadable or corrupted record is reported to callers
// as "no prior state" and never as an error.
package repository

import (
	"context"
	"errors"

	"github.com/okian/bullseye/internal/domain/filter"
	"github.com/okian/bullseye/pkg/logger"
	"github.com/okian/bullseye/pkg/metrics"
)

// DefaultKey is the record name used when none is configured.
const DefaultKey = "analyticsFilters"

// Store provides load/save access to the persisted filter set.
type Store interface {
	// Load returns the stored filter, or an empty Partial when there is none
	// or it cannot be read.
	Load(ctx context.Context) filter.Partial

	// Save overwrites the single stored record. Last write wins.
	Save(ctx context.Context, s filter.State) error

	// Clear removes the stored record.
	Clear(ctx context.Context) error
}

// Backend is the raw key/value persistence a FilterStore writes through.
type Backend interface {
	// Get returns ErrNotFound when key has no record.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, payload []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// FilterStore implements Store over a Backend.
type FilterStore struct {
	backend Backend
	key     string
	logger  logger.Logger
}

// NewFilterStore wraps backend.
func NewFilterStore(backend Backend, opts ...Option) *FilterStore {
	s := &FilterStore{
		backend: backend,
		key:     DefaultKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("filter-store")
	}
	return s
}

// Load implements Store.
func (s *FilterStore) Load(ctx context.Context) filter.Partial {
	raw, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			metrics.RecordFilterStoreSoftFailure()
			s.logger.Debug(ctx, "stored filters unreadable; treating as absent", logger.Error(err))
		}
		return filter.Partial{}
	}
	p, err := DecodeRecord(raw)
	if err != nil {
		metrics.RecordFilterStoreSoftFailure()
		s.logger.Debug(ctx, "stored filters corrupted; treating as absent",
			logger.String("key", s.key), logger.Error(err))
		return filter.Partial{}
	}
	return p
}

// Save implements Store.
func (s *FilterStore) Save(ctx context.Context, st filter.State) error {
	payload, err := EncodeRecord(st)
	if err != nil {
		return err
	}
	if err := s.backend.Put(ctx, s.key, payload); err != nil {
		metrics.RecordErrorByComponent("filter_store", "save")
		return errors.Join(ErrSave, err)
	}
	return nil
}

// Clear implements Store.
func (s *FilterStore) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, s.key); err != nil && !errors.Is(err, ErrNotFound) {
		metrics.RecordErrorByComponent("filter_store", "clear")
		return errors.Join(ErrClear, err)
	}
	return nil
}

// Close releases the backend.
func (s *FilterStore) Close() error {
	return s.backend.Close()
}
