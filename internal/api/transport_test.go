package api

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finboss/internal/credentials"
	"finboss/internal/credentials/memory"
	applog "finboss/internal/log"
	"finboss/internal/trace"
)

func TestLoggingTransport_LogsRequestWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := applog.New(applog.Config{Output: &buf, Level: slog.LevelDebug})

	store := memory.New()
	if err := store.Save(context.Background(), credentials.AccessTokenKey, "secret-token"); err != nil {
		t.Fatal(err)
	}
	c, err := New(Config{BaseURL: srv.URL, Store: store, Logger: logger})
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.Profile(context.Background())
	if StatusCode(err) != http.StatusNotFound {
		t.Fatalf("expected 404 http error, got %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "API request completed") {
		t.Errorf("expected request log line, got %q", out)
	}
	if !strings.Contains(out, "request_id=") {
		t.Errorf("expected request id in log, got %q", out)
	}
	if !strings.Contains(out, "status_code=404") {
		t.Errorf("expected status code in log, got %q", out)
	}
	if !strings.Contains(out, "component=api") {
		t.Errorf("expected api component in log, got %q", out)
	}
	if strings.Contains(out, "secret-token") {
		t.Errorf("token leaked into log: %q", out)
	}
}

func TestLoggingTransport_LogsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	var buf bytes.Buffer
	logger := applog.New(applog.Config{Output: &buf, Level: slog.LevelDebug})
	c, err := New(Config{BaseURL: url, Store: memory.New(), Logger: logger})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.ListTransactions(context.Background()); err == nil {
		t.Fatal("expected transport error")
	}
	if !strings.Contains(buf.String(), "API request failed") {
		t.Errorf("expected failure log line, got %q", buf.String())
	}
}

func TestLoggingTransport_PropagatesRequestID(t *testing.T) {
	seen := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get(trace.HeaderRequestID)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	transport := NewLoggingTransport(nil, nil)
	c, err := New(Config{
		BaseURL:    srv.URL,
		Store:      memory.New(),
		HTTPClient: &http.Client{Transport: transport},
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx := trace.WithRequestID(context.Background(), "req_fixed")
	_, _ = c.ListTransactions(ctx)
	if got := <-seen; got != "req_fixed" {
		t.Errorf("X-Request-ID = %q, want req_fixed", got)
	}

	_, _ = c.ListTransactions(context.Background())
	if got := <-seen; !strings.HasPrefix(got, "req_") || got == "req_fixed" {
		t.Errorf("expected a generated request id, got %q", got)
	}

	m := transport.Metrics()
	if m.TotalRequests != 2 || m.FailedRequests != 2 {
		t.Errorf("metrics = %+v, want 2 total and 2 failed", m)
	}
}
