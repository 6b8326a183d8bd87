package repository

import "errors"

// Sentinel kinds for filter store errors.
var (
	ErrNotFound      = errors.New("filter record not found")
	ErrCorruptRecord = errors.New("filter record corrupted")
	ErrSave          = errors.New("save filter record failed")
	ErrClear         = errors.New("clear filter record failed")
	ErrClosed        = errors.New("filter store closed")
)
