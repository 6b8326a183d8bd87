package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithOutput(&buf), WithJSON(true)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Named("analytics").Info(context.Background(), "fetch applied", String("query", "modes=training"), Int("seq", 3))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected a JSON line, got %q: %v", buf.String(), err)
	}
	if line["msg"] != "fetch applied" {
		t.Errorf("unexpected msg: %v", line["msg"])
	}
	group, ok := line["analytics"].(map[string]any)
	if !ok {
		t.Fatalf("expected named group in %v", line)
	}
	if group["query"] != "modes=training" {
		t.Errorf("unexpected query field: %v", group["query"])
	}
	if src, _ := group["source"].(string); !strings.Contains(src, "logger_test.go") {
		t.Errorf("expected caller source to point at the test, got %q", src)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithOutput(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	if err := SetLevelString("warn"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer SetLevelString("info") //nolint:errcheck // restoring default

	ctx := context.Background()
	Get().Info(ctx, "hidden")
	Get().With(Bool("retryable", true)).Warn(ctx, "visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "visible") || !strings.Contains(out, "retryable=true") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestSetLevelStringRejectsUnknown(t *testing.T) {
	if err := SetLevelString("chatty"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
