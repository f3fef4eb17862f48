package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestClientMissingCredential(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 0, 0, srv.Client())
	_, err := c.Get(context.Background(), url.Values{})
	if err == nil {
		t.Fatal("expected error for missing api key")
	}
	if KindOf(err) != KindMissingCredential {
		t.Fatalf("kind = %q, want %q", KindOf(err), KindMissingCredential)
	}
	if calls != 0 {
		t.Fatalf("expected no network call, got %d", calls)
	}
}

func TestClientAttachesAPIKey(t *testing.T) {
	var gotKey, gotQ string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("api_key")
		gotQ = r.URL.Query().Get("q")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret123", 0, 0, srv.Client())
	params := url.Values{}
	params.Set("q", "hotel query")
	body, err := c.Get(context.Background(), params)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(body) != `{}` {
		t.Fatalf("body = %q", body)
	}
	if gotKey != "secret123" {
		t.Fatalf("api_key = %q, want secret123", gotKey)
	}
	if gotQ != "hotel query" {
		t.Fatalf("q = %q", gotQ)
	}
}

func TestClientErrorNormalization(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   Kind
	}{
		{"rate limited", http.StatusTooManyRequests, "slow down", KindRateLimited},
		{"server error", http.StatusInternalServerError, "boom", KindTransport},
		{"not found status", http.StatusNotFound, "missing", KindTransport},
		{"empty body", http.StatusOK, "", KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "k", 0, 0, srv.Client())
			_, err := c.Get(context.Background(), url.Values{})
			if err == nil {
				t.Fatal("expected error")
			}
			if KindOf(err) != tt.kind {
				t.Fatalf("kind = %q, want %q", KindOf(err), tt.kind)
			}
		})
	}
}

func TestClientDelayAfterEveryCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	delay := 30 * time.Millisecond
	c := NewClient(srv.URL, "k", delay, time.Second, srv.Client())

	start := time.Now()
	if _, err := c.Get(context.Background(), url.Values{}); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if elapsed := time.Since(start); elapsed < delay {
		t.Fatalf("call returned after %v, want at least the %v delay", elapsed, delay)
	}
}

func TestClientCooldownOn429(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cooldown := 50 * time.Millisecond
	c := NewClient(srv.URL, "k", time.Millisecond, cooldown, srv.Client())

	start := time.Now()
	_, err := c.Get(context.Background(), url.Values{})
	if KindOf(err) != KindRateLimited {
		t.Fatalf("kind = %q, want %q", KindOf(err), KindRateLimited)
	}
	if elapsed := time.Since(start); elapsed < cooldown {
		t.Fatalf("429 surfaced after %v, want at least the %v cool-down", elapsed, cooldown)
	}
}

func TestClientSleepRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", 10*time.Second, 10*time.Second, srv.Client())
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	c.Get(ctx, url.Values{})
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("cancelled sleep took %v", elapsed)
	}
}
