// Package model contains domain models passed between layers.
package model

import "strconv"

// Session is the training run currently held by the client.
type Session struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	AthleteIDs []int  `json:"athletes"`
	Finished   bool   `json:"finished"`
}

// Shot is one detected hit on a target image.
type Shot struct {
	ID         int      `json:"id"`
	ImageID    int      `json:"image_id,omitempty"`
	AutoScore  float64  `json:"auto_score"`
	FinalScore *float64 `json:"final_score"`
	Note       string   `json:"note,omitempty"`
}

// Score is the operator override when present, else the computed score.
func (s Shot) Score() float64 {
	if s.FinalScore != nil {
		return *s.FinalScore
	}
	return s.AutoScore
}

// AthleteRef names an athlete.
type AthleteRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// TrainingImage is a scored target photo owned by a session.
type TrainingImage struct {
	ID           int         `json:"id"`
	Filename     string      `json:"filename"`
	SessionID    int         `json:"session_id"`
	AthleteID    *int        `json:"athlete_id"`
	AthleteName  string      `json:"athlete_name,omitempty"`
	Athlete      *AthleteRef `json:"athlete,omitempty"`
	ShotsCount   int         `json:"shots_count"`
	TotalScore   float64     `json:"total_score"`
	OverlayPath  string      `json:"overlay_path,omitempty"`
	ScoredPath   string      `json:"scored_path,omitempty"`
	OriginalPath string      `json:"original_path,omitempty"`
	IdealPath    string      `json:"ideal_path,omitempty"`
	CreatedAt    string      `json:"created_at,omitempty"`
	Shots        []Shot      `json:"shots"`
}

// Label is the chart category for the image.
func (i TrainingImage) Label() string {
	if i.Filename != "" {
		return i.Filename
	}
	return "#" + strconv.Itoa(i.ID)
}

// View is one renderable variant of an image.
type View struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// View kinds in display preference order.
const (
	ViewOverlay  = "overlay"
	ViewScored   = "scored"
	ViewOriginal = "original"
	ViewIdeal    = "ideal"
)

// Views lists the available variants in the order overlay, scored, original, ideal.
func (i TrainingImage) Views() []View {
	candidates := []View{
		{Kind: ViewOverlay, Path: i.OverlayPath},
		{Kind: ViewScored, Path: i.ScoredPath},
		{Kind: ViewOriginal, Path: i.OriginalPath},
		{Kind: ViewIdeal, Path: i.IdealPath},
	}
	out := make([]View, 0, len(candidates))
	for _, v := range candidates {
		if v.Path != "" {
			out = append(out, v)
		}
	}
	return out
}

// Viewable reports whether at least one variant exists.
func (i TrainingImage) Viewable() bool { return len(i.Views()) > 0 }

// ShotRecord is the detail returned for a single shot.
type ShotRecord struct {
	Shot
	Image *ImageRef `json:"image,omitempty"`
}

// ImageRef is the owning image summary attached to a shot record.
type ImageRef struct {
	ID          int    `json:"id"`
	Filename    string `json:"filename"`
	OverlayPath string `json:"overlay_path,omitempty"`
}

// SessionSummary is one row of the session browser.
type SessionSummary struct {
	ID         int          `json:"id"`
	Name       string       `json:"name"`
	StartedAt  string       `json:"started_at"`
	FinishedAt *string      `json:"finished_at"`
	Status     string       `json:"status"`
	Athletes   []AthleteRef `json:"athletes"`
	TotalShots int          `json:"total_shots"`
	TotalScore float64      `json:"total_score"`
}

// Session status values.
const (
	StatusActive   = "active"
	StatusFinished = "finished"
)

// Finished reports whether the listed session is closed.
func (s SessionSummary) Finished() bool {
	return s.Status == StatusFinished || s.FinishedAt != nil
}

// AsSession converts a browser row to the loadable session shape.
func (s SessionSummary) AsSession() Session {
	ids := make([]int, 0, len(s.Athletes))
	for _, a := range s.Athletes {
		ids = append(ids, a.ID)
	}
	return Session{ID: s.ID, Name: s.Name, AthleteIDs: ids, Finished: s.Finished()}
}

// SessionPage is one page of the session browser.
type SessionPage struct {
	Total   int              `json:"total"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
	Items   []SessionSummary `json:"items"`
}

// Pages returns the page count for the listing.
func (p SessionPage) Pages() int {
	if p.PerPage <= 0 {
		return 0
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}
