package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	svcerrors "github.com/R3E-Network/agentsvc/internal/errors"
	"github.com/R3E-Network/agentsvc/internal/resilience"
)

type pingResponse struct {
	Status string `json:"status"`
}

func TestClient_GetUnwrapsSuccessEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    pingResponse{Status: "ok"},
		})
	}))
	defer server.Close()

	c, err := New(Config{BaseURL: server.URL, APIVersion: "v1"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var out pingResponse
	if err := c.Get(context.Background(), "/ping", &out); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if out.Status != "ok" {
		t.Fatalf("expected status ok, got %q", out.Status)
	}
}

func TestClient_SuccessFalseSurfacesBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "boom",
		})
	}))
	defer server.Close()

	c, _ := New(Config{BaseURL: server.URL})
	var out pingResponse
	err := c.Get(context.Background(), "/ping", &out)
	if err == nil {
		t.Fatal("expected an error")
	}
	if svcerrors.KindOf(err) != svcerrors.KindBackend {
		t.Fatalf("expected KindBackend, got %v", svcerrors.KindOf(err))
	}
}

func TestClient_MissingDataIsInvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))
	defer server.Close()

	c, _ := New(Config{BaseURL: server.URL})
	var out pingResponse
	err := c.Get(context.Background(), "/ping", &out)
	if err == nil {
		t.Fatal("expected an error for missing data")
	}
}

func TestClient_NonSuccessHTTPStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("not found"))
	}))
	defer server.Close()

	c, _ := New(Config{BaseURL: server.URL})
	var out pingResponse
	err := c.Get(context.Background(), "/missing", &out)
	if err == nil {
		t.Fatal("expected an error for 404 status")
	}
}

func TestClient_RetriesOnTransientUnavailable(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    pingResponse{Status: "ok"},
		})
	}))
	defer server.Close()

	c, _ := New(Config{BaseURL: server.URL, MaxRetries: 3, RetryDelay: 5 * time.Millisecond})
	var out pingResponse
	if err := c.Get(context.Background(), "/ping", &out); err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if atomic.LoadInt32(&attempts) != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestClient_DoesNotRetryPermanentErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad request"))
	}))
	defer server.Close()

	c, _ := New(Config{BaseURL: server.URL, MaxRetries: 3, RetryDelay: 5 * time.Millisecond})
	var out pingResponse
	err := c.Get(context.Background(), "/ping", &out)
	if err == nil {
		t.Fatal("expected an error")
	}
	if atomic.LoadInt32(&attempts) != 1 {
		t.Fatalf("expected no retries for a permanent error, got %d attempts", attempts)
	}
}

func TestClient_CircuitBreakerOpensAfterRepeatedFailures(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c, _ := New(Config{
		BaseURL:    server.URL,
		MaxRetries: 0,
		RetryDelay: time.Millisecond,
		Breaker:    resilience.Config{MaxFailures: 2, Timeout: time.Hour},
	})

	var out pingResponse
	for i := 0; i < 2; i++ {
		if err := c.Get(context.Background(), "/ping", &out); err == nil {
			t.Fatalf("expected failure on attempt %d", i)
		}
	}
	if got := c.BreakerState(); got != resilience.StateOpen {
		t.Fatalf("expected breaker open after repeated failures, got %v", got)
	}

	before := atomic.LoadInt32(&attempts)
	err := c.Get(context.Background(), "/ping", &out)
	if err == nil {
		t.Fatal("expected an error while the circuit is open")
	}
	if svcerrors.KindOf(err) != svcerrors.KindBackend {
		t.Fatalf("expected KindBackend for an open circuit, got %v", svcerrors.KindOf(err))
	}
	if atomic.LoadInt32(&attempts) != before {
		t.Fatalf("expected no network call while circuit is open, attempts went from %d to %d", before, attempts)
	}
}

func TestClient_PostSendsJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["name"] != "widget" {
			t.Errorf("expected body to carry name=widget, got %v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    pingResponse{Status: "created"},
		})
	}))
	defer server.Close()

	c, _ := New(Config{BaseURL: server.URL})
	var out pingResponse
	if err := c.Post(context.Background(), "/items", map[string]string{"name": "widget"}, &out); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if out.Status != "created" {
		t.Fatalf("expected created, got %q", out.Status)
	}
}
