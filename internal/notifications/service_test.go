package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"mixdown/internal/config"
	"mixdown/internal/notifications"
)

type capturedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T, status int) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []capturedRequest
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, capturedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte("topic says no"))
	}))
	t.Cleanup(server.Close)
	return server, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), reqs...)
	}
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyJobFailed(context.Background(), notifications.Job{ID: "j"}, errors.New("boom")); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("nil config should yield noop, got %v", err)
	}
}

func TestNotifyJobFailedFormatsPayload(t *testing.T) {
	server, captured := newCaptureServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	job := notifications.Job{
		ID:        "job-42",
		SourceA:   "https://cdn.example.com/audio/voice.mp3?sig=abc",
		SourceB:   "/tmp/music.wav",
		ErrorKind: "fetch",
	}
	if err := svc.NotifyJobFailed(context.Background(), job, errors.New("server responded 404 Not Found")); err != nil {
		t.Fatalf("NotifyJobFailed: %v", err)
	}

	reqs := captured()
	if len(reqs) != 1 {
		t.Fatalf("expected one request, got %d", len(reqs))
	}
	got := reqs[0]
	want := "Mix failed: voice.mp3 + music.wav (fetch)\nserver responded 404 Not Found\nJob job-42"
	if got.body != want {
		t.Fatalf("unexpected body:\n%q\nwant\n%q", got.body, want)
	}
	if got.title != "mixdown - Error" || got.tags != "mixdown,error,alert" || got.priority != "high" {
		t.Fatalf("unexpected headers: %+v", got)
	}
}

func TestNotifyJobCompletedRespectsNotifySuccess(t *testing.T) {
	server, captured := newCaptureServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	job := notifications.Job{ID: "job-1", SourceA: "a.mp3", SourceB: "b.mp3", Duration: 12.34, OutputBytes: 2048, Elapsed: 1500 * time.Millisecond}
	if err := notifications.NewService(&cfg).NotifyJobCompleted(context.Background(), job); err != nil {
		t.Fatalf("NotifyJobCompleted: %v", err)
	}
	if n := len(captured()); n != 0 {
		t.Fatalf("success should be silent by default, got %d requests", n)
	}

	cfg.Notifications.NotifySuccess = true
	if err := notifications.NewService(&cfg).NotifyJobCompleted(context.Background(), job); err != nil {
		t.Fatalf("NotifyJobCompleted: %v", err)
	}
	reqs := captured()
	if len(reqs) != 1 {
		t.Fatalf("expected one request, got %d", len(reqs))
	}
	if !strings.Contains(reqs[0].body, "Mixed a.mp3 + b.mp3") || !strings.Contains(reqs[0].body, "12.3s, 2048 bytes in 1.5s") {
		t.Fatalf("unexpected body %q", reqs[0].body)
	}
	if reqs[0].priority != "" {
		t.Fatalf("default priority should be omitted, got %q", reqs[0].priority)
	}
}

func TestSendReportsHTTPErrors(t *testing.T) {
	server, _ := newCaptureServer(t, http.StatusForbidden)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	err := notifications.NewService(&cfg).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "ntfy returned 403: topic says no") {
		t.Fatalf("expected status error, got %v", err)
	}
}
