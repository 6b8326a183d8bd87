package model

import "encoding/json"

// Upload is the backend reply to an image upload or snapshot.
type Upload struct {
	Filename string `json:"filename"`
	ImageURL string `json:"image_url"`
}

// ProcessStats summarises a scoring run.
type ProcessStats struct {
	Shots      int     `json:"shots"`
	TotalScore float64 `json:"total_score"`
}

// ProcessResult is the backend reply to a scoring request. Result holds the
// raw scoring document forwarded unchanged to the save step.
type ProcessResult struct {
	Stats  ProcessStats      `json:"stats"`
	Images map[string]string `json:"images"`
	Result json.RawMessage   `json:"-"`
}

// SaveRequest persists a processing result under a session.
type SaveRequest struct {
	SessionID int             `json:"session_id"`
	Filename  string          `json:"filename"`
	Result    json.RawMessage `json:"result"`
	AthleteID *int            `json:"athlete_id,omitempty"`
}

// SaveResult is the backend reply to a save.
type SaveResult struct {
	OK         bool     `json:"ok"`
	ImageID    int      `json:"image_id"`
	ShotsCount int      `json:"shots_count"`
	TotalScore float64  `json:"total_score"`
	Messages   []string `json:"messages"`
}

// Option is a selectable filter value.
type Option struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// DateRange bounds the available analytics data.
type DateRange struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// FilterOptions is the backend catalogue used to build filter controls and defaults.
type FilterOptions struct {
	Athletes  []Option  `json:"athletes"`
	Teams     []string  `json:"teams"`
	Rifles    []Option  `json:"rifles"`
	Jackets   []Option  `json:"jackets"`
	Scopes    []Option  `json:"scopes"`
	Modes     []string  `json:"modes"`
	DateRange DateRange `json:"date_range"`
}
