package training

import (
	"context"
	"io"

	"github.com/okian/bullseye/internal/adapters/http/client"
	"github.com/okian/bullseye/internal/domain/model"
)

// Backend is the scoring server surface the training workflow needs.
// *client.Client implements it.
type Backend interface {
	StartSession(ctx context.Context, name string, athleteIDs []int) (model.Session, error)
	FinishSession(ctx context.Context, id int) error
	DeleteSession(ctx context.Context, id int) error
	SessionImages(ctx context.Context, sessionID int) ([]model.TrainingImage, error)
	Image(ctx context.Context, id int) (model.TrainingImage, error)
	DeleteImage(ctx context.Context, id int) error
	Upload(ctx context.Context, name string, image io.Reader) (model.Upload, error)
	Snapshot(ctx context.Context, dataURL string) (model.Upload, error)
	Process(ctx context.Context, filename string) (model.ProcessResult, error)
	Save(ctx context.Context, req model.SaveRequest) (model.SaveResult, error)
	Shot(ctx context.Context, id int) (model.ShotRecord, error)
	EditShot(ctx context.Context, id int, finalScore float64, note string) (model.Shot, error)
	ListSessions(ctx context.Context, q client.SessionQuery) (model.SessionPage, error)
}

// Camera yields a captured frame as a data URL.
type Camera interface {
	Capture(ctx context.Context) (string, error)
}

// CameraFunc adapts a function to Camera.
type CameraFunc func(ctx context.Context) (string, error)

// Capture implements Camera.
func (f CameraFunc) Capture(ctx context.Context) (string, error) { return f(ctx) }

var _ Backend = (*client.Client)(nil)
