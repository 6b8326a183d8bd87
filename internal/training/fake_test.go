package training

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/okian/bullseye/internal/adapters/http/client"
	"github.com/okian/bullseye/internal/domain/model"
)

// fakeBackend is an in-memory scoring server.
type fakeBackend struct {
	mu     sync.Mutex
	calls  []string
	fail   map[string]error
	nextID int

	sessions map[int]*model.Session
	images   map[int][]model.TrainingImage
	pending  map[string]model.ProcessStats
	messages []string
	noName   bool
	unsaved  bool
	page     model.SessionPage
	lastPage client.SessionQuery
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		fail:     map[string]error{},
		nextID:   100,
		sessions: map[int]*model.Session{},
		images:   map[int][]model.TrainingImage{},
		pending:  map[string]model.ProcessStats{},
	}
}

var errDown = errors.New("connection refused")

func (f *fakeBackend) enter(op string) error {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	err := f.fail[op]
	f.mu.Unlock()
	return err
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeBackend) id() int {
	f.nextID++
	return f.nextID
}

func (f *fakeBackend) StartSession(_ context.Context, name string, ids []int) (model.Session, error) {
	if err := f.enter("start"); err != nil {
		return model.Session{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &model.Session{ID: f.id(), Name: name, AthleteIDs: ids}
	f.sessions[s.ID] = s
	return *s, nil
}

func (f *fakeBackend) FinishSession(_ context.Context, id int) error {
	if err := f.enter("finish"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[id]; ok {
		s.Finished = true
	}
	return nil
}

func (f *fakeBackend) DeleteSession(_ context.Context, id int) error {
	if err := f.enter("delete_session"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	delete(f.images, id)
	return nil
}

func (f *fakeBackend) SessionImages(_ context.Context, id int) ([]model.TrainingImage, error) {
	if err := f.enter("images"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.TrainingImage, len(f.images[id]))
	copy(out, f.images[id])
	return out, nil
}

func (f *fakeBackend) Image(_ context.Context, id int) (model.TrainingImage, error) {
	if err := f.enter("image"); err != nil {
		return model.TrainingImage{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, imgs := range f.images {
		for _, img := range imgs {
			if img.ID == id {
				img.OverlayPath = "/static/out/" + img.Filename + ".overlay.png"
				img.OriginalPath = "/static/uploads/" + img.Filename
				return img, nil
			}
		}
	}
	return model.TrainingImage{}, &client.ServerError{Endpoint: client.EndpointImage, Status: 404, Message: "Not Found"}
}

func (f *fakeBackend) DeleteImage(_ context.Context, id int) error {
	if err := f.enter("delete_image"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for sid, imgs := range f.images {
		kept := imgs[:0]
		for _, img := range imgs {
			if img.ID != id {
				kept = append(kept, img)
			}
		}
		f.images[sid] = kept
	}
	return nil
}

func (f *fakeBackend) Upload(_ context.Context, name string, r io.Reader) (model.Upload, error) {
	if err := f.enter("upload"); err != nil {
		return model.Upload{}, err
	}
	_, _ = io.ReadAll(r)
	if f.noName {
		return model.Upload{ImageURL: "/x"}, nil
	}
	return model.Upload{Filename: name, ImageURL: "/static/uploads/" + name}, nil
}

func (f *fakeBackend) Snapshot(_ context.Context, _ string) (model.Upload, error) {
	if err := f.enter("snapshot"); err != nil {
		return model.Upload{}, err
	}
	return model.Upload{Filename: "snap.jpg"}, nil
}

func (f *fakeBackend) Process(_ context.Context, filename string) (model.ProcessResult, error) {
	if err := f.enter("process"); err != nil {
		return model.ProcessResult{}, err
	}
	stats := model.ProcessStats{Shots: 5, TotalScore: 47}
	f.mu.Lock()
	f.pending[filename] = stats
	f.mu.Unlock()
	raw, _ := json.Marshal(map[string]any{"shots": []map[string]any{{"id": 1, "score": 10}}})
	return model.ProcessResult{Stats: stats, Result: raw}, nil
}

func (f *fakeBackend) Save(_ context.Context, req model.SaveRequest) (model.SaveResult, error) {
	if err := f.enter("save"); err != nil {
		return model.SaveResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unsaved {
		return model.SaveResult{OK: false}, nil
	}
	stats := f.pending[req.Filename]
	img := model.TrainingImage{
		ID: f.id(), Filename: req.Filename, SessionID: req.SessionID, AthleteID: req.AthleteID,
		ShotsCount: stats.Shots, TotalScore: stats.TotalScore,
	}
	for i := 0; i < stats.Shots; i++ {
		final := 9.0
		img.Shots = append(img.Shots, model.Shot{ID: f.id(), ImageID: img.ID, AutoScore: 9, FinalScore: &final})
	}
	f.images[req.SessionID] = append(f.images[req.SessionID], img)
	return model.SaveResult{OK: true, ImageID: img.ID, ShotsCount: stats.Shots, TotalScore: stats.TotalScore, Messages: f.messages}, nil
}

func (f *fakeBackend) Shot(_ context.Context, id int) (model.ShotRecord, error) {
	if err := f.enter("shot"); err != nil {
		return model.ShotRecord{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, imgs := range f.images {
		for _, img := range imgs {
			for _, s := range img.Shots {
				if s.ID == id {
					return model.ShotRecord{Shot: s, Image: &model.ImageRef{ID: img.ID, Filename: img.Filename}}, nil
				}
			}
		}
	}
	return model.ShotRecord{}, &client.ServerError{Status: 404, Message: "Not Found"}
}

// EditShot clamps scores above 10.9 the way a real server might.
func (f *fakeBackend) EditShot(_ context.Context, id int, final float64, note string) (model.Shot, error) {
	if err := f.enter("edit_shot"); err != nil {
		return model.Shot{}, err
	}
	if final > 10.9 {
		final = 10.9
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for sid, imgs := range f.images {
		for i := range imgs {
			for j := range imgs[i].Shots {
				if imgs[i].Shots[j].ID == id {
					v := final
					imgs[i].Shots[j].FinalScore = &v
					imgs[i].Shots[j].Note = note
					f.images[sid] = imgs
					return imgs[i].Shots[j], nil
				}
			}
		}
	}
	return model.Shot{}, &client.ServerError{Status: 404, Message: "Not Found"}
}

func (f *fakeBackend) ListSessions(_ context.Context, q client.SessionQuery) (model.SessionPage, error) {
	if err := f.enter("list"); err != nil {
		return model.SessionPage{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPage = q
	return f.page, nil
}
