// Package chart derives the training session chart from the loaded images.
package chart

import (
	"strconv"

	"github.com/okian/bullseye/internal/domain/model"
)

// Mode is how images are grouped into series.
type Mode string

const (
	ModeAggregate  Mode = "aggregate"
	ModePerAthlete Mode = "per_athlete"
)

// UnassignedKey identifies images without an athlete.
const UnassignedKey = "unassigned"

// NoShots is the tooltip line for an image without detected shots.
const NoShots = "No shots detected"

// Grouping is the user's athlete selection for the chart. No selection means
// all images as one series.
type Grouping struct {
	AthleteIDs        []int `json:"athlete_ids"`
	IncludeUnassigned bool  `json:"include_unassigned"`
}

// Mode reports the grouping mode.
func (g Grouping) Mode() Mode {
	if len(g.AthleteIDs) == 0 && !g.IncludeUnassigned {
		return ModeAggregate
	}
	return ModePerAthlete
}

// Series is one line of the chart.
type Series struct {
	Name       string    `json:"name"`
	Key        string    `json:"key"`
	Data       []float64 `json:"data"`
	Categories []string  `json:"categories"`
}

// Tooltip describes one point of the aggregate series.
type Tooltip struct {
	Label string   `json:"label"`
	Score float64  `json:"score"`
	Lines []string `json:"lines"`
}

// Chart is a complete rendering. Each Render returns a fresh value.
type Chart struct {
	Mode       Mode      `json:"mode"`
	Series     []Series  `json:"series"`
	Categories []string  `json:"categories"`
	Tooltips   []Tooltip `json:"tooltips,omitempty"`
	Empty      bool      `json:"empty"`
}

// Render groups images per g. The result depends only on its inputs.
func Render(images []model.TrainingImage, g Grouping) Chart {
	if g.Mode() == ModeAggregate {
		return aggregate(images)
	}
	return perAthlete(images, g)
}

func aggregate(images []model.TrainingImage) Chart {
	c := Chart{Mode: ModeAggregate, Series: []Series{}, Categories: []string{}}
	if len(images) == 0 {
		c.Empty = true
		return c
	}
	s := Series{Name: "Total score", Key: "all", Data: make([]float64, 0, len(images)), Categories: make([]string, 0, len(images))}
	c.Tooltips = make([]Tooltip, 0, len(images))
	for _, img := range images {
		label := img.Label()
		s.Data = append(s.Data, img.TotalScore)
		s.Categories = append(s.Categories, label)
		c.Tooltips = append(c.Tooltips, Tooltip{Label: label, Score: img.TotalScore, Lines: shotLines(img.Shots)})
	}
	c.Series = append(c.Series, s)
	c.Categories = s.Categories
	return c
}

func perAthlete(images []model.TrainingImage, g Grouping) Chart {
	c := Chart{Mode: ModePerAthlete, Series: []Series{}, Categories: []string{}}

	groups := make(map[string]*Series)
	for _, img := range images {
		key, name := athleteKey(img)
		s, ok := groups[key]
		if !ok {
			s = &Series{Name: name, Key: key, Data: []float64{}, Categories: []string{}}
			groups[key] = s
		}
		s.Data = append(s.Data, img.TotalScore)
		s.Categories = append(s.Categories, img.Label())
	}

	keys := make([]string, 0, len(g.AthleteIDs)+1)
	seen := make(map[string]struct{})
	for _, id := range g.AthleteIDs {
		k := strconv.Itoa(id)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	if g.IncludeUnassigned {
		keys = append(keys, UnassignedKey)
	}
	for _, k := range keys {
		if s, ok := groups[k]; ok {
			c.Series = append(c.Series, *s)
		}
	}

	if len(c.Series) == 0 {
		c.Empty = true
		return c
	}
	c.Categories = c.Series[0].Categories
	return c
}

func athleteKey(img model.TrainingImage) (key, name string) {
	if img.AthleteID == nil {
		name = img.AthleteName
		if name == "" {
			name = "Unassigned"
		}
		return UnassignedKey, name
	}
	key = strconv.Itoa(*img.AthleteID)
	switch {
	case img.AthleteName != "":
		name = img.AthleteName
	case img.Athlete != nil && img.Athlete.Name != "":
		name = img.Athlete.Name
	default:
		name = "Athlete " + key
	}
	return key, name
}

func shotLines(shots []model.Shot) []string {
	if len(shots) == 0 {
		return []string{NoShots}
	}
	out := make([]string, 0, len(shots))
	for _, s := range shots {
		final := ""
		if s.FinalScore != nil {
			final = formatScore(*s.FinalScore)
		}
		out = append(out, "#"+strconv.Itoa(s.ID)+": auto "+formatScore(s.AutoScore)+" final "+final)
	}
	return out
}

func formatScore(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
