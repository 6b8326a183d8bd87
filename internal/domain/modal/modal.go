// Package modal coordinates confirmation-gated actions and read-only
// inspection views.
//
// Decisions are made by Reduce, a pure function of the current State and an
// Action. The Controller applies Reduce and carries out the resulting effects.
package modal

// Kind is a destructive action that needs confirmation.
type Kind string

const (
	DeleteImage   Kind = "delete_image"
	DeleteSession Kind = "delete_session"
	FinishSession Kind = "finish_session"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case DeleteImage, DeleteSession, FinishSession:
		return true
	}
	return false
}

// View is a read-only inspection modal.
type View string

const (
	ImageView View = "image"
	ShotView  View = "shot"
)

// Pending is the one destructive action awaiting confirmation.
type Pending struct {
	Token    string `json:"token"`
	Kind     Kind   `json:"kind"`
	TargetID int    `json:"target_id"`
	Label    string `json:"label,omitempty"`
}

// Inspection is the open inspection modal.
type Inspection struct {
	View View `json:"view"`
	ID   int  `json:"id"`
}

// State is everything the modal layer shows.
type State struct {
	Pending *Pending    `json:"pending"`
	Inspect *Inspection `json:"inspect"`
}

// ActionType enumerates reducer inputs.
type ActionType int

const (
	Request ActionType = iota
	Confirm
	Dismiss
	OpenInspect
	CloseInspect
)

// Action is a user intent.
type Action struct {
	Type     ActionType
	Kind     Kind
	TargetID int
	Label    string
	Token    string
	View     View
}

// EffectType enumerates what the controller must do after a transition.
type EffectType int

const (
	// Execute runs the confirmed action.
	Execute EffectType = iota
	// Replaced reports a pending action dropped in favour of a newer request.
	Replaced
)

// Effect is a side effect requested by Reduce.
type Effect struct {
	Type    EffectType
	Pending Pending
}

// Reduce returns the next state and the effects to perform. A new request
// dismisses any earlier one. A confirm clears the pending slot before its
// action runs, so the modal is closed whatever the outcome. A confirm whose
// token does not match the pending action does nothing.
func Reduce(s State, a Action) (State, []Effect) {
	switch a.Type {
	case Request:
		if !a.Kind.Valid() {
			return s, nil
		}
		var effects []Effect
		if s.Pending != nil {
			effects = append(effects, Effect{Type: Replaced, Pending: *s.Pending})
		}
		s.Pending = &Pending{Token: a.Token, Kind: a.Kind, TargetID: a.TargetID, Label: a.Label}
		return s, effects

	case Confirm:
		if s.Pending == nil || (a.Token != "" && a.Token != s.Pending.Token) {
			return s, nil
		}
		p := *s.Pending
		s.Pending = nil
		return s, []Effect{{Type: Execute, Pending: p}}

	case Dismiss:
		s.Pending = nil
		return s, nil

	case OpenInspect:
		if a.View != ImageView && a.View != ShotView {
			return s, nil
		}
		s.Inspect = &Inspection{View: a.View, ID: a.TargetID}
		return s, nil

	case CloseInspect:
		s.Inspect = nil
		return s, nil
	}
	return s, nil
}
