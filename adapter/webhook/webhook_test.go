package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/justapithecus/prospect/adapter"
	"github.com/justapithecus/prospect/iox"
	"github.com/justapithecus/prospect/types"
)

func sampleEvent() *adapter.RunCompletedEvent {
	return &adapter.RunCompletedEvent{
		EventType:  adapter.EventType,
		RunID:      "run-123",
		Timestamp:  "2026-08-27T12:00:00Z",
		DurationMs: 1500,
		Jobs: map[string]types.JobSummary{
			"fetch": {Status: types.JobSuccess, Artifact: "aapl.csv"},
		},
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for empty URL")
	}
	if _, err := New(Config{URL: "http://example.com", Retries: -1}); err == nil {
		t.Error("expected error for negative retries")
	}
}

func TestPublish(t *testing.T) {
	var received atomic.Pointer[adapter.RunCompletedEvent]
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type %q, want application/json", ct)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer token" {
			t.Errorf("authorization %q, want Bearer token", auth)
		}
		body, _ := io.ReadAll(r.Body)
		var event adapter.RunCompletedEvent
		if err := json.Unmarshal(body, &event); err != nil {
			t.Errorf("body is not valid JSON: %v", err)
		}
		received.Store(&event)
	}))
	defer srv.Close()

	a, err := New(Config{
		URL:     srv.URL,
		Headers: map[string]string{"Authorization": "Bearer token"},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(iox.CloseFunc(a))

	if err := a.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	event := received.Load()
	if event == nil {
		t.Fatal("server received no event")
	}
	if event.RunID != "run-123" {
		t.Errorf("run id %q, want run-123", event.RunID)
	}
	if event.Jobs["fetch"].Status != types.JobSuccess {
		t.Errorf("fetch status %s, want success", event.Jobs["fetch"].Status)
	}
}

func TestPublish_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	a, err := New(Config{URL: srv.URL, Retries: 3})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(iox.CloseFunc(a))

	if err := a.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("publish should recover from 5xx: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 requests, got %d", calls.Load())
	}
}

func TestPublish_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	a, err := New(Config{URL: srv.URL, Retries: 5})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(iox.CloseFunc(a))

	err = a.Publish(context.Background(), sampleEvent())
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", statusErr.Code)
	}
	if calls.Load() != 1 {
		t.Errorf("4xx must not be retried, got %d requests", calls.Load())
	}
}

func TestPublish_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a, err := New(Config{URL: srv.URL, Retries: 2})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(iox.CloseFunc(a))

	err = a.Publish(context.Background(), sampleEvent())
	var exhausted *adapter.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 1+retries=3 requests, got %d", calls.Load())
	}
}

func TestRetriable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "network error", err: errors.New("connection refused"), want: true},
		{name: "500", err: &StatusError{Code: 500}, want: true},
		{name: "503", err: &StatusError{Code: 503}, want: true},
		{name: "400", err: &StatusError{Code: 400}, want: false},
		{name: "404", err: &StatusError{Code: 404}, want: false},
		{name: "429", err: &StatusError{Code: 429}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retriable(tt.err); got != tt.want {
				t.Errorf("retriable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	a, err := New(Config{URL: "http://example.com"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(iox.CloseFunc(a))

	if a.config.Timeout != DefaultTimeout {
		t.Errorf("timeout %v, want %v", a.config.Timeout, DefaultTimeout)
	}
	if a.client.Timeout != 10*time.Second {
		t.Errorf("client timeout %v, want 10s", a.client.Timeout)
	}
}
