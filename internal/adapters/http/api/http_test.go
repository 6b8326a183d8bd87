package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/bullseye/internal/adapters/http/api"
	"github.com/okian/bullseye/internal/adapters/http/client"
	"github.com/okian/bullseye/internal/adapters/mq/queue"
	"github.com/okian/bullseye/internal/analytics"
	"github.com/okian/bullseye/internal/domain/chart"
	"github.com/okian/bullseye/internal/domain/filter"
	"github.com/okian/bullseye/internal/domain/modal"
	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/internal/domain/notice"
	"github.com/okian/bullseye/internal/training"
	"github.com/okian/bullseye/pkg/logger"
)

type mockAnalytics struct {
	current  filter.State
	loaded   string
	changed  []filter.State
	applied  []filter.State
	resets   int
	applyErr error
	loadErr  error
}

func (m *mockAnalytics) Snapshot() analytics.Snapshot {
	return analytics.Snapshot{Filter: m.current}
}
func (m *mockAnalytics) Current() filter.State { return m.current }
func (m *mockAnalytics) Load(_ context.Context, q string) (filter.State, error) {
	m.loaded = q
	return m.current, m.loadErr
}
func (m *mockAnalytics) Change(_ context.Context, s filter.State) {
	m.current = s
	m.changed = append(m.changed, s)
}
func (m *mockAnalytics) Apply(_ context.Context, s filter.State) error {
	m.current = s
	m.applied = append(m.applied, s)
	return m.applyErr
}
func (m *mockAnalytics) Retry(ctx context.Context) error { return m.Apply(ctx, m.current) }
func (m *mockAnalytics) Reset(context.Context) error {
	m.resets++
	return m.applyErr
}

type mockSessions struct {
	view      training.View
	startErr  error
	finishErr error
	uploads   []string
	grouping  chart.Grouping
	edited    map[int]float64
	detailErr error
}

func (m *mockSessions) Snapshot() training.View { return m.view }
func (m *mockSessions) Start(_ context.Context, name string, ids []int) (model.Session, error) {
	if m.startErr != nil {
		return model.Session{}, m.startErr
	}
	s := model.Session{ID: 11, Name: name, AthleteIDs: ids}
	m.view = training.View{Phase: training.Active, Session: &s, CanMutate: true}
	return s, nil
}
func (m *mockSessions) Finish(context.Context) error { return m.finishErr }
func (m *mockSessions) Upload(_ context.Context, name string, r io.Reader, _ *int) (training.UploadResult, error) {
	if r == nil || name == "" {
		return training.UploadResult{}, training.ErrNoFile
	}
	body, _ := io.ReadAll(r)
	m.uploads = append(m.uploads, name+":"+string(body))
	return training.UploadResult{Filename: name, ImageID: 1, ShotsCount: 5, TotalScore: 47}, nil
}
func (m *mockSessions) UploadSnapshot(_ context.Context, dataURL string, _ *int) (training.UploadResult, error) {
	if dataURL == "" {
		return training.UploadResult{}, training.ErrNoFile
	}
	return training.UploadResult{Filename: "snap.png"}, nil
}
func (m *mockSessions) CaptureAndUpload(context.Context, *int) (training.UploadResult, error) {
	return training.UploadResult{}, training.ErrNoCamera
}
func (m *mockSessions) Refresh(context.Context) error {
	return &training.StepError{Step: training.StepRefresh, Err: client.ErrTransport}
}
func (m *mockSessions) SetGrouping(g chart.Grouping) chart.Chart {
	m.grouping = g
	return chart.Chart{Mode: g.Mode()}
}
func (m *mockSessions) EditShot(_ context.Context, id int, final float64, note string) (model.Shot, error) {
	if m.edited == nil {
		m.edited = map[int]float64{}
	}
	m.edited[id] = final
	return model.Shot{ID: id, FinalScore: &final, Note: note}, nil
}
func (m *mockSessions) ImageDetail(_ context.Context, id int) (training.ImageDetail, error) {
	if m.detailErr != nil {
		return training.ImageDetail{}, m.detailErr
	}
	return training.ImageDetail{Image: model.TrainingImage{ID: id}}, nil
}
func (m *mockSessions) ShotDetail(_ context.Context, id int) (training.ShotDetail, error) {
	if m.detailErr != nil {
		return training.ShotDetail{}, m.detailErr
	}
	return training.ShotDetail{Prefill: 9.5}, nil
}

type mockBrowser struct {
	query  training.BrowseQuery
	opened int
}

func (m *mockBrowser) List(_ context.Context, q training.BrowseQuery) (model.SessionPage, error) {
	if q.Status == "bogus" {
		return model.SessionPage{}, training.ErrInvalidStatus
	}
	m.query = q
	return model.SessionPage{Total: 1, Page: 1, PerPage: 10, Items: []model.SessionSummary{{ID: 4, Name: "Morning"}}}, nil
}
func (m *mockBrowser) Open(_ context.Context, id int) error {
	if id == 99 {
		return training.ErrNoSession
	}
	m.opened = id
	return nil
}

type countingDispatcher struct {
	names []string
	err   error
}

func (d *countingDispatcher) Submit(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if d.err != nil {
		return d.err
	}
	d.names = append(d.names, name)
	return fn(ctx)
}

type fixture struct {
	mux       *http.ServeMux
	analytics *mockAnalytics
	sessions  *mockSessions
	browser   *mockBrowser
	modal     *modal.Controller
	board     *notice.Board
	executed  []int
	dispatch  *countingDispatcher
}

func newFixture() *fixture {
	_ = logger.Init(logger.WithOutput(io.Discard))
	f := &fixture{
		analytics: &mockAnalytics{current: filter.State{Modes: []string{"training"}}},
		sessions:  &mockSessions{},
		browser:   &mockBrowser{},
		board:     notice.NewBoard(10),
		dispatch:  &countingDispatcher{},
	}
	exec := modal.ExecutorFunc(func(_ context.Context, kind modal.Kind, id int) error {
		if id == 13 {
			return &client.ServerError{Endpoint: "image_delete", Status: 400, Message: "image locked"}
		}
		f.executed = append(f.executed, id)
		return nil
	})
	f.modal = modal.NewController(exec, f.board, modal.WithMessage(training.UserMessage))

	f.mux = http.NewServeMux()
	api.NewServer(api.Dependencies{
		Analytics:  f.analytics,
		Sessions:   f.sessions,
		Browser:    f.browser,
		Modal:      f.modal,
		Notices:    f.board,
		Dispatcher: f.dispatch,
	}).Register(f.mux)
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	Convey("Given a registered server", t, func() {
		f := newFixture()

		Convey("healthz reports ok", func() {
			w := f.do("GET", "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["status"], ShouldEqual, "ok")
		})

		Convey("metrics are exposed in the Prometheus format", func() {
			f.do("GET", "/healthz", "")
			w := f.do("GET", "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "bullseye_")
		})

		Convey("unknown methods are rejected", func() {
			w := f.do("DELETE", "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestAnalyticsRoutes(t *testing.T) {
	Convey("Given the analytics routes", t, func() {
		f := newFixture()

		Convey("load reconciles the page query and fetches", func() {
			w := f.do("POST", "/analytics/load", `{"query":"athlete_ids=3"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(f.analytics.loaded, ShouldEqual, "athlete_ids=3")
			So(f.analytics.applied, ShouldHaveLength, 1)
			So(f.dispatch.names, ShouldResemble, []string{"analytics.load"})
		})

		Convey("missing server defaults still answer 200 with a warning", func() {
			f.analytics.loadErr = errors.Join(analytics.ErrDefaults, client.ErrTransport)
			w := f.do("POST", "/analytics/load", `{"query":"athlete_ids=2"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["warning"], ShouldEqual, analytics.MsgDefaultsFailed)
			So(body["filter"], ShouldNotBeNil)
			So(body["code"], ShouldBeNil)
			So(f.analytics.applied, ShouldHaveLength, 1)
		})

		Convey("a failed fetch after missing defaults reports the fetch failure", func() {
			f.analytics.loadErr = errors.Join(analytics.ErrDefaults, client.ErrTransport)
			f.analytics.applyErr = &client.ServerError{Endpoint: "analytics_data", Status: 400, Message: "bad range"}
			w := f.do("POST", "/analytics/load", `{"query":"athlete_ids=2"}`)
			So(w.Code, ShouldEqual, http.StatusBadGateway)
			So(decode(w)["message"], ShouldEqual, "bad range")
		})

		Convey("a filter change is accepted and debounced", func() {
			w := f.do("POST", "/analytics/filters", `{"athletes":[3,7],"modes":[]}`)
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(f.analytics.changed, ShouldHaveLength, 1)
			So(f.analytics.changed[0].AthleteIDs, ShouldResemble, []int{3, 7})
			So(f.analytics.applied, ShouldBeEmpty)
		})

		Convey("apply with no body applies the current filter", func() {
			w := f.do("POST", "/analytics/apply", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(f.analytics.applied[0].Modes, ShouldResemble, []string{"training"})
		})

		Convey("a transport failure is retryable and still carries the snapshot", func() {
			f.analytics.applyErr = client.ErrTransport
			w := f.do("POST", "/analytics/retry", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			body := decode(w)
			So(body["retryable"], ShouldEqual, true)
			So(body["snapshot"], ShouldNotBeNil)
		})

		Convey("a server message is passed through verbatim", func() {
			f.analytics.applyErr = &client.ServerError{Endpoint: "analytics_data", Status: 400, Message: "bad range"}
			w := f.do("POST", "/analytics/reset", "")
			So(w.Code, ShouldEqual, http.StatusBadGateway)
			So(decode(w)["message"], ShouldEqual, "bad range")
			So(f.analytics.resets, ShouldEqual, 1)
		})

		Convey("malformed JSON is a bad request", func() {
			w := f.do("POST", "/analytics/filters", `{"athletes":`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("a full command queue answers 429", func() {
			f.dispatch.err = queue.ErrBackpressure
			w := f.do("POST", "/analytics/apply", "")
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
		})
	})
}

func TestSessionRoutes(t *testing.T) {
	Convey("Given the session routes", t, func() {
		f := newFixture()

		Convey("start returns the active session view", func() {
			w := f.do("POST", "/session/start", `{"name":"Morning","athlete_ids":[3,7]}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["phase"], ShouldEqual, string(training.Active))
			So(body["can_mutate"], ShouldEqual, true)
		})

		Convey("a server refusal to start is shown verbatim", func() {
			f.sessions.startErr = &client.ServerError{Endpoint: "training_start", Status: 400, Message: "name taken"}
			w := f.do("POST", "/session/start", `{"name":"x"}`)
			So(w.Code, ShouldEqual, http.StatusBadGateway)
			So(decode(w)["message"], ShouldEqual, "name taken")
		})

		Convey("finishing a finished session conflicts", func() {
			f.sessions.finishErr = training.ErrSessionFinished
			w := f.do("POST", "/session/finish", "")
			So(w.Code, ShouldEqual, http.StatusConflict)
		})

		Convey("a multipart upload reaches the manager", func() {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			fw, _ := mw.CreateFormFile("image", "target.jpg")
			_, _ = fw.Write([]byte("jpeg"))
			_ = mw.WriteField("athlete_id", "3")
			_ = mw.Close()

			req := httptest.NewRequest("POST", "/session/images", &buf)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			w := httptest.NewRecorder()
			f.mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(f.sessions.uploads, ShouldResemble, []string{"target.jpg:jpeg"})
			result := decode(w)["result"].(map[string]any)
			So(result["shots_count"], ShouldEqual, float64(5))
		})

		Convey("an upload without a file is a validation error", func() {
			w := f.do("POST", "/session/images", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["message"], ShouldEqual, "Choose a file first")
		})

		Convey("capture without a camera is a validation error", func() {
			w := f.do("POST", "/session/capture", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("a refresh failure after a mutation answers with a warning", func() {
			w := f.do("POST", "/session/refresh", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["warning"], ShouldEqual, training.MsgStaleView)
		})

		Convey("grouping is applied", func() {
			w := f.do("PUT", "/session/grouping", `{"athlete_ids":[3],"include_unassigned":true}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(f.sessions.grouping.AthleteIDs, ShouldResemble, []int{3})
			So(decode(w)["result"].(map[string]any)["mode"], ShouldEqual, string(chart.ModePerAthlete))
		})

		Convey("shot edits require a score", func() {
			w := f.do("POST", "/shots/5/edit", `{"note":"x"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)

			w = f.do("POST", "/shots/5/edit", `{"final_score":9.8,"note":"x"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(f.sessions.edited[5], ShouldEqual, 9.8)
		})

		Convey("detail routes validate ids and map unknown items to 404", func() {
			So(f.do("GET", "/images/abc", "").Code, ShouldEqual, http.StatusBadRequest)
			So(f.do("GET", "/shots/3", "").Code, ShouldEqual, http.StatusOK)

			f.sessions.detailErr = training.ErrUnknownImage
			So(f.do("GET", "/images/3", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestBrowseRoutes(t *testing.T) {
	Convey("Given the session browser routes", t, func() {
		f := newFixture()

		Convey("list passes the query through", func() {
			w := f.do("GET", "/sessions?page=2&status=finished&athlete_id=3", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(f.browser.query, ShouldResemble, training.BrowseQuery{Page: 2, Status: "finished", AthleteID: 3})
		})

		Convey("an unknown status is rejected", func() {
			So(f.do("GET", "/sessions?status=bogus", "").Code, ShouldEqual, http.StatusBadRequest)
			So(f.do("GET", "/sessions?page=x", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("open loads a listed session", func() {
			So(f.do("POST", "/sessions/4/open", "").Code, ShouldEqual, http.StatusOK)
			So(f.browser.opened, ShouldEqual, 4)
			So(f.do("POST", "/sessions/99/open", "").Code, ShouldEqual, http.StatusConflict)
		})
	})
}

func TestModalRoutes(t *testing.T) {
	Convey("Given the modal routes", t, func() {
		f := newFixture()

		request := func(id int) string {
			w := f.do("POST", "/modal/request", `{"kind":"delete_image","target_id":`+itoa(id)+`}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			return decode(w)["token"].(string)
		}

		Convey("a second request replaces the first and confirm acts on it only", func() {
			first := request(1)
			second := request(2)
			So(first, ShouldNotEqual, second)

			w := f.do("POST", "/modal/confirm", `{"token":"`+first+`"}`)
			So(w.Code, ShouldEqual, http.StatusConflict)
			So(f.executed, ShouldBeEmpty)

			w = f.do("POST", "/modal/confirm", `{"token":"`+second+`"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(f.executed, ShouldResemble, []int{2})
			So(f.modal.State().Pending, ShouldBeNil)
		})

		Convey("a failed confirmation still closes the modal and posts a notice", func() {
			request(13)
			w := f.do("POST", "/modal/confirm", `{}`)
			So(w.Code, ShouldEqual, http.StatusBadGateway)
			So(f.modal.State().Pending, ShouldBeNil)

			n := f.do("GET", "/notices", "")
			var items []notice.Notice
			So(json.Unmarshal(n.Body.Bytes(), &items), ShouldBeNil)
			So(items, ShouldHaveLength, 1)
			So(items[0].Text, ShouldEqual, "image locked")
		})

		Convey("unknown kinds and missing targets are rejected", func() {
			So(f.do("POST", "/modal/request", `{"kind":"explode","target_id":1}`).Code, ShouldEqual, http.StatusBadRequest)
			So(f.do("POST", "/modal/request", `{"kind":"delete_image"}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("dismiss clears the pending confirmation", func() {
			request(1)
			So(f.do("POST", "/modal/dismiss", "").Code, ShouldEqual, http.StatusOK)
			So(f.modal.State().Pending, ShouldBeNil)
		})

		Convey("inspection opens and closes", func() {
			So(f.do("POST", "/modal/inspect", `{"view":"shot","id":5}`).Code, ShouldEqual, http.StatusOK)
			So(f.modal.State().Inspect.ID, ShouldEqual, 5)
			So(f.do("POST", "/modal/inspect", `{"view":"map","id":5}`).Code, ShouldEqual, http.StatusBadRequest)
			So(f.do("DELETE", "/modal/inspect", "").Code, ShouldEqual, http.StatusOK)
			So(f.modal.State().Inspect, ShouldBeNil)
		})
	})
}

func TestErrorClassification(t *testing.T) {
	Convey("Unclassified failures are internal errors", t, func() {
		f := newFixture()
		f.dispatch.err = errors.New("boom")
		w := f.do("POST", "/session/finish", "")
		So(w.Code, ShouldEqual, http.StatusInternalServerError)
		So(decode(w)["message"], ShouldEqual, training.MsgGeneric)
	})
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
