package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/bullseye/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func fakeScoringBackend() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /analytics/filters", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"athletes":[{"id":1,"name":"Ana"}],"teams":[],"rifles":[],"jackets":[],
			"scopes":[],"modes":["training"],"date_range":{"min":"2024-01-01","max":"2024-01-31"}}`)
	})
	mux.HandleFunc("GET /analytics/data", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"summary":{"attempts":2,"shots":20,"avg_score":91.25,"min_score":90,"max_score":92}}`)
	})
	return httptest.NewServer(mux)
}

func runApp(ctx context.Context, out io.Writer, args ...string) error {
	a := newApp()
	a.Writer = out
	a.ErrWriter = io.Discard
	return a.RunContext(ctx, append([]string{"bullseye"}, args...))
}

func TestNewApp(t *testing.T) {
	convey.Convey("Given the command line application", t, func() {
		a := newApp()

		convey.Convey("Then it exposes the serve and analytics commands", func() {
			convey.So(a.Name, convey.ShouldEqual, "bullseye")
			convey.So(a.Command("serve"), convey.ShouldNotBeNil)
			convey.So(a.Command("analytics"), convey.ShouldNotBeNil)
			convey.So(a.Command("leaderboard"), convey.ShouldBeNil)
		})
	})
}

func TestAnalyticsCommand(t *testing.T) {
	convey.Convey("Given a scoring backend", t, func() {
		backend := fakeScoringBackend()
		defer backend.Close()
		t.Setenv("BULLSEYE_CONFIG", "")
		t.Setenv("BULLSEYE_BACKEND_URL", backend.URL)

		convey.Convey("When the analytics command runs with a query", func() {
			var buf bytes.Buffer
			err := runApp(context.Background(), &buf, "analytics", "--query", "athlete_ids=1")

			convey.Convey("Then it prints the reconciled query and summary", func() {
				convey.So(err, convey.ShouldBeNil)
				var out struct {
					URL     string         `json:"url"`
					Query   string         `json:"query"`
					Summary map[string]any `json:"summary"`
				}
				convey.So(json.Unmarshal(buf.Bytes(), &out), convey.ShouldBeNil)
				convey.So(out.Query, convey.ShouldContainSubstring, "athlete_ids=1")
				convey.So(out.Query, convey.ShouldContainSubstring, "start=2024-01-01")
				convey.So(out.URL, convey.ShouldStartWith, "/analytics?")
				convey.So(out.Summary["avg_score"], convey.ShouldEqual, "91.25")
				convey.So(out.Summary["range"], convey.ShouldEqual, "90 - 92")
			})
		})
	})
}

func TestCommandErrors(t *testing.T) {
	convey.Convey("Given an invalid environment configuration", t, func() {
		t.Setenv("BULLSEYE_CONFIG", "")
		t.Setenv("BULLSEYE_FILTER_STORE", "redis")

		convey.Convey("Then commands fail before starting anything", func() {
			err := runApp(context.Background(), io.Discard, "analytics")
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "failed to load config")
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given an unreachable scoring backend", t, func() {
		t.Setenv("BULLSEYE_CONFIG", "")
		t.Setenv("BULLSEYE_BACKEND_URL", "http://127.0.0.1:1")
		t.Setenv("BULLSEYE_HTTP_TIMEOUT_MS", "500")

		convey.Convey("Then the analytics command reports the failure", func() {
			err := runApp(context.Background(), io.Discard, "analytics")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestServeCommand(t *testing.T) {
	convey.Convey("Given the serve command on an ephemeral port", t, func() {
		t.Setenv("BULLSEYE_CONFIG", "")
		t.Setenv("BULLSEYE_BACKEND_URL", "http://127.0.0.1:1")

		convey.Convey("When the root context is cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
			defer cancel()
			start := time.Now()
			err := runApp(ctx, io.Discard, "serve", "--addr", "127.0.0.1:0")

			convey.Convey("Then it shuts down cleanly", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(time.Since(start) < shutdownTimeout, convey.ShouldBeTrue)
			})
		})
	})
}
