package training

import (
	"errors"
	"fmt"
)

// Validation errors. They are raised before any backend call.
var (
	ErrNoSession       = errors.New("start a session first")
	ErrSessionActive   = errors.New("a session is already active")
	ErrSessionFinished = errors.New("this session is finished")
	ErrNoFile          = errors.New("choose a file first")
	ErrNoCamera        = errors.New("no camera available")
	ErrUnknownImage    = errors.New("image is not part of the loaded session")
	ErrUnknownShot     = errors.New("shot is not part of the loaded session")
	ErrInvalidScore    = errors.New("score must be a finite number, zero or more")
	ErrInvalidStatus   = errors.New("status must be active or finished")
)

// Step names a stage of a multi-step flow.
type Step string

const (
	StepCapture  Step = "capture"
	StepUpload   Step = "upload"
	StepSnapshot Step = "snapshot"
	StepProcess  Step = "process"
	StepSave     Step = "save"
	StepRefresh  Step = "refresh"
)

// StepError reports which step of a flow failed. Later steps were not run.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("%s failed: %v", e.Step, e.Err) }

func (e *StepError) Unwrap() error { return e.Err }

// FailedStep returns the failed step when err is a StepError.
func FailedStep(err error) (Step, bool) {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step, true
	}
	return "", false
}

var validationErrors = []error{ //nolint:gochecknoglobals // read-only
	ErrNoSession, ErrSessionActive, ErrSessionFinished, ErrNoFile, ErrNoCamera,
	ErrUnknownImage, ErrUnknownShot, ErrInvalidScore, ErrInvalidStatus,
}

// validationCause returns the validation sentinel err wraps.
func validationCause(err error) (error, bool) {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return v, true
		}
	}
	return nil, false
}

// IsValidation reports whether err was rejected before reaching the backend.
func IsValidation(err error) bool {
	_, ok := validationCause(err)
	return ok
}
