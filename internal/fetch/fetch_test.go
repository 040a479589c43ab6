package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetch_ReturnsBody(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(5*time.Second, "test")
	body, err := c.Fetch(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Errorf("body = %q", body)
	}
}

func TestFetch_SetsDefaultUserAgent(t *testing.T) {
	t.Parallel()
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	t.Cleanup(srv.Close)

	c := NewClient(5*time.Second, "1.2.3")
	if _, err := c.Fetch(context.Background(), srv.URL, nil); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.HasPrefix(gotUA, "pulse/1.2.3") {
		t.Errorf("User-Agent = %q, want pulse/1.2.3 prefix", gotUA)
	}
}

func TestFetch_TargetHeadersApplied(t *testing.T) {
	t.Parallel()
	var gotAuth, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
	}))
	t.Cleanup(srv.Close)

	c := NewClient(5*time.Second, "test")
	headers := map[string]string{
		"Authorization": "Bearer token",
		"User-Agent":    "custom-agent",
	}
	if _, err := c.Fetch(context.Background(), srv.URL, headers); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotAuth != "Bearer token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotUA != "custom-agent" {
		t.Errorf("User-Agent = %q, target headers must override the default", gotUA)
	}
}

func TestFetch_NonSuccessStatusIsError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(5*time.Second, "test")
	if _, err := c.Fetch(context.Background(), srv.URL, nil); err == nil {
		t.Error("Fetch should fail on a 503 response")
	}
}

func TestFetch_OversizedBodyIsError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 100))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(5*time.Second, "test")
	c.maxBody = 64
	if _, err := c.Fetch(context.Background(), srv.URL, nil); err == nil {
		t.Error("Fetch should fail rather than truncate a body over the cap")
	}
}

func TestFetch_BodyAtLimitIsAccepted(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 64))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(5*time.Second, "test")
	c.maxBody = 64
	body, err := c.Fetch(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(body) != 64 {
		t.Errorf("body length = %d, want 64", len(body))
	}
}

func TestFetch_ContextCancellation(t *testing.T) {
	t.Parallel()
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	t.Cleanup(func() { close(block); srv.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewClient(5*time.Second, "test")
	if _, err := c.Fetch(ctx, srv.URL, nil); err == nil {
		t.Error("Fetch should fail when the context deadline passes")
	}
}
