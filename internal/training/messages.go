package training

import (
	"github.com/okian/bullseye/internal/adapters/http/client"
)

// Messages shown when the backend gives nothing more specific.
const (
	MsgTransport    = "Could not reach the scoring server. Please try again."
	MsgStaleView    = "Saved, but reloading the session failed. Refresh to see the latest results."
	MsgGeneric      = "Something went wrong. Please try again."
	MsgStartFailed  = "Failed to start session"
	MsgStarted      = "Session started"
	MsgFinished     = "Session finished"
	MsgShotUpdated  = "Shot updated"
	MsgImageDeleted = "Image deleted"
)

// UserMessage phrases err for display: the backend message verbatim when there
// is one, a retry hint for transport failures, the validation text otherwise.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if step, ok := FailedStep(err); ok && step == StepRefresh {
		return MsgStaleView
	}
	if msg, ok := client.ServerMessage(err); ok {
		return msg
	}
	if client.IsTransport(err) {
		return MsgTransport
	}
	if cause, ok := validationCause(err); ok {
		return capitalize(cause.Error())
	}
	return MsgGeneric
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
