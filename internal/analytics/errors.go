package analytics

import "errors"

var (
	// ErrDefaults wraps a failure to load the server filter options.
	ErrDefaults = errors.New("load filter defaults")
	// ErrFetch wraps a failed aggregate request.
	ErrFetch = errors.New("fetch analytics")
	// ErrRender marks a payload one of the views could not render.
	ErrRender = errors.New("render analytics")
)

// MsgFetchFailed is shown when the backend offers no message of its own.
const MsgFetchFailed = "Could not load analytics. Adjust the filters or try again."

// MsgDefaultsFailed is shown when the filter options could not be loaded.
const MsgDefaultsFailed = "Could not load filter options. Showing saved filters."
