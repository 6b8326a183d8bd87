package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/okian/bullseye/internal/domain/model"
)

// Endpoint labels used for metrics and errors.
const (
	EndpointFilters       = "analytics_filters"
	EndpointAnalytics     = "analytics_data"
	EndpointUpload        = "upload"
	EndpointSnapshot      = "snapshot"
	EndpointProcess       = "process"
	EndpointStart         = "training_start"
	EndpointFinish        = "session_finish"
	EndpointSessionDelete = "session_delete"
	EndpointImages        = "session_images"
	EndpointImage         = "image_detail"
	EndpointImageDelete   = "image_delete"
	EndpointSave          = "training_save"
	EndpointShot          = "shot_detail"
	EndpointShotEdit      = "shot_edit"
	EndpointSessions      = "session_list"
)

// Filters fetches the option catalogue and date bounds.
func (c *Client) Filters(ctx context.Context) (model.FilterOptions, error) {
	var out model.FilterOptions
	err := c.getJSON(ctx, EndpointFilters, "/analytics/filters", &out)
	return out, err
}

// AnalyticsData fetches the aggregate payload for an encoded filter query.
func (c *Client) AnalyticsData(ctx context.Context, query string) (model.AnalyticsData, error) {
	path := "/analytics/data"
	if query != "" {
		path += "?" + query
	}
	var out model.AnalyticsData
	err := c.getJSON(ctx, EndpointAnalytics, path, &out)
	return out, err
}

// Upload sends raw image bytes as the multipart "image" field.
func (c *Client) Upload(ctx context.Context, name string, image io.Reader) (model.Upload, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", name)
	if err != nil {
		return model.Upload{}, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return model.Upload{}, fmt.Errorf("failed to read image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return model.Upload{}, fmt.Errorf("failed to close form: %w", err)
	}

	var out model.Upload
	err = c.do(ctx, call{
		endpoint:    EndpointUpload,
		method:      http.MethodPost,
		path:        "/upload",
		body:        &buf,
		contentType: mw.FormDataContentType(),
	}, &out)
	return out, err
}

// Snapshot uploads a camera frame given as a data URL.
func (c *Client) Snapshot(ctx context.Context, dataURL string) (model.Upload, error) {
	var out model.Upload
	err := c.postJSON(ctx, EndpointSnapshot, "/snapshot", map[string]string{"image": dataURL}, &out)
	return out, err
}

// Process asks the backend to score an uploaded file. The scoring document is
// the reply's "json" member when present, else the whole reply.
func (c *Client) Process(ctx context.Context, filename string) (model.ProcessResult, error) {
	var raw json.RawMessage
	if err := c.postJSON(ctx, EndpointProcess, "/process", map[string]string{"filename": filename}, &raw); err != nil {
		return model.ProcessResult{}, err
	}
	var envelope struct {
		model.ProcessResult
		JSON json.RawMessage `json:"json"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return model.ProcessResult{}, fmt.Errorf("%w: decode /process: %w", ErrTransport, err)
	}
	out := envelope.ProcessResult
	out.Result = raw
	if len(envelope.JSON) > 0 && !bytes.Equal(bytes.TrimSpace(envelope.JSON), []byte("null")) {
		out.Result = envelope.JSON
	}
	return out, nil
}

// StartSession creates a training session.
func (c *Client) StartSession(ctx context.Context, name string, athleteIDs []int) (model.Session, error) {
	if athleteIDs == nil {
		athleteIDs = []int{}
	}
	body := struct {
		Name       string `json:"name"`
		AthleteIDs []int  `json:"athlete_ids"`
	}{name, athleteIDs}
	var out model.Session
	err := c.postJSON(ctx, EndpointStart, "/training/start", body, &out)
	return out, err
}

// FinishSession closes a session.
func (c *Client) FinishSession(ctx context.Context, id int) error {
	return c.postJSON(ctx, EndpointFinish, "/training/session/"+strconv.Itoa(id)+"/finish", nil, nil)
}

// DeleteSession removes a session and everything under it.
func (c *Client) DeleteSession(ctx context.Context, id int) error {
	return c.postJSON(ctx, EndpointSessionDelete, "/training/session/"+strconv.Itoa(id)+"/delete", nil, nil)
}

// SessionImages lists a session's images with their shots.
func (c *Client) SessionImages(ctx context.Context, sessionID int) ([]model.TrainingImage, error) {
	var out []model.TrainingImage
	err := c.getJSON(ctx, EndpointImages, "/training/session/"+strconv.Itoa(sessionID)+"/images", &out)
	if out == nil && err == nil {
		out = []model.TrainingImage{}
	}
	return out, err
}

// Image fetches one image with full shot detail.
func (c *Client) Image(ctx context.Context, id int) (model.TrainingImage, error) {
	var out model.TrainingImage
	err := c.getJSON(ctx, EndpointImage, "/training/image/"+strconv.Itoa(id), &out)
	return out, err
}

// DeleteImage removes an image.
func (c *Client) DeleteImage(ctx context.Context, id int) error {
	return c.postJSON(ctx, EndpointImageDelete, "/training/image/"+strconv.Itoa(id)+"/delete", nil, nil)
}

// Save persists a processing result under a session.
func (c *Client) Save(ctx context.Context, req model.SaveRequest) (model.SaveResult, error) {
	var out model.SaveResult
	err := c.postJSON(ctx, EndpointSave, "/training/save", req, &out)
	return out, err
}

// Shot fetches one shot.
func (c *Client) Shot(ctx context.Context, id int) (model.ShotRecord, error) {
	var out model.ShotRecord
	err := c.getJSON(ctx, EndpointShot, "/training/shot/"+strconv.Itoa(id), &out)
	return out, err
}

// EditShot overrides a shot score and returns the stored record.
func (c *Client) EditShot(ctx context.Context, id int, finalScore float64, note string) (model.Shot, error) {
	body := struct {
		FinalScore float64 `json:"final_score"`
		Note       string  `json:"note"`
	}{finalScore, note}
	var out struct {
		OK   bool       `json:"ok"`
		Shot model.Shot `json:"shot"`
	}
	if err := c.postJSON(ctx, EndpointShotEdit, "/training/shot/"+strconv.Itoa(id)+"/edit", body, &out); err != nil {
		return model.Shot{}, err
	}
	if !out.OK {
		return model.Shot{}, &ServerError{Endpoint: EndpointShotEdit, Status: http.StatusOK, Message: "shot edit was not accepted"}
	}
	return out.Shot, nil
}

// SessionQuery filters the session browser.
type SessionQuery struct {
	Page      int
	PerPage   int
	Status    string
	AthleteID int
}

// ListSessions returns one page of the session browser.
func (c *Client) ListSessions(ctx context.Context, q SessionQuery) (model.SessionPage, error) {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.AthleteID > 0 {
		v.Set("athlete_id", strconv.Itoa(q.AthleteID))
	}
	path := "/training/api/sessions"
	if enc := v.Encode(); enc != "" {
		path += "?" + enc
	}
	var out model.SessionPage
	err := c.getJSON(ctx, EndpointSessions, path, &out)
	return out, err
}
