package training

import (
	"context"

	"github.com/okian/bullseye/internal/domain/chart"
	"github.com/okian/bullseye/internal/domain/model"
)

// View is a read-only snapshot of the training screen.
type View struct {
	Phase      Phase                 `json:"phase"`
	Session    *model.Session        `json:"session"`
	Images     []model.TrainingImage `json:"images"`
	TotalShots int                   `json:"total_shots"`
	TotalScore float64               `json:"total_score"`
	CanMutate  bool                  `json:"can_mutate"`
	Grouping   chart.Grouping        `json:"grouping"`
	Chart      chart.Chart           `json:"chart"`
}

// Snapshot returns the current view. The returned value shares nothing with
// the manager.
func (m *Manager) Snapshot() View {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v := View{
		Phase:    m.phaseLocked(),
		Images:   make([]model.TrainingImage, len(m.images)),
		Grouping: m.grouping,
		Chart:    m.chart,
	}
	copy(v.Images, m.images)
	if m.session != nil {
		s := *m.session
		s.AthleteIDs = append([]int{}, m.session.AthleteIDs...)
		v.Session = &s
	}
	for _, img := range m.images {
		v.TotalShots += img.ShotsCount
		v.TotalScore += img.TotalScore
	}
	v.CanMutate = v.Phase == Active
	return v
}

// ImageDetail is the inspection view of one image.
type ImageDetail struct {
	Image    model.TrainingImage `json:"image"`
	Views    []model.View        `json:"views"`
	Main     *model.View         `json:"main"`
	Editable bool                `json:"editable"`
}

// ImageDetail loads an image of the current session for inspection.
func (m *Manager) ImageDetail(ctx context.Context, imageID int) (ImageDetail, error) {
	if m.Phase() == NoSession {
		return ImageDetail{}, ErrNoSession
	}
	if _, ok := m.findImage(imageID); !ok {
		return ImageDetail{}, ErrUnknownImage
	}
	img, err := m.backend.Image(ctx, imageID)
	if err != nil {
		return ImageDetail{}, err
	}
	d := ImageDetail{Image: img, Views: img.Views(), Editable: m.Phase() == Active}
	if len(d.Views) > 0 {
		main := d.Views[0]
		d.Main = &main
	}
	return d, nil
}

// ShotDetail is the inspection view of one shot with the editor prefill.
type ShotDetail struct {
	Shot     model.ShotRecord `json:"shot"`
	Prefill  float64          `json:"prefill"`
	Editable bool             `json:"editable"`
}

// ShotDetail loads a shot of the current session. The editor starts from the
// final score, falling back to the automatic one.
func (m *Manager) ShotDetail(ctx context.Context, shotID int) (ShotDetail, error) {
	if m.Phase() == NoSession {
		return ShotDetail{}, ErrNoSession
	}
	if _, ok := m.findShot(shotID); !ok {
		return ShotDetail{}, ErrUnknownShot
	}
	rec, err := m.backend.Shot(ctx, shotID)
	if err != nil {
		return ShotDetail{}, err
	}
	return ShotDetail{Shot: rec, Prefill: rec.Score(), Editable: m.Phase() == Active}, nil
}
