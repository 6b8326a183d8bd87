package repository

import "github.com/okian/bullseye/pkg/logger"

// Option applies a configuration option to a FilterStore.
type Option func(*FilterStore)

// WithKey overrides the record name.
func WithKey(key string) Option {
	return func(s *FilterStore) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *FilterStore) {
		if l != nil {
			s.logger = l
		}
	}
}
