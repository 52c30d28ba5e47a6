package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChat_SendsAuthAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["message"] != "what changed?" {
			t.Errorf("unexpected message %v", body["message"])
		}
		if body["topK"] != float64(5) {
			t.Errorf("unexpected topK %v", body["topK"])
		}

		_ = json.NewEncoder(w).Encode(ChatResponse{
			Answer:     "Rates changed.",
			References: []Reference{{Title: "GST Rates", Score: 0.9}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, WithAPIKey("secret"))
	resp, err := c.Chat(context.Background(), "what changed?", &ChatOptions{TopK: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Answer != "Rates changed." || len(resp.References) != 1 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestTriggerIngest_Conflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"status":"already running"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.TriggerIngest(context.Background())
	if !errors.Is(err, ErrRunInProgress) {
		t.Errorf("expected ErrRunInProgress, got %v", err)
	}
}

func TestChat_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid API key"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithAPIKey("wrong"))
	_, err := c.Chat(context.Background(), "q?", nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestChat_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to generate answer"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Chat(context.Background(), "q?", nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusInternalServerError || apiErr.Message != "failed to generate answer" {
		t.Errorf("unexpected APIError %+v", apiErr)
	}
}

func TestHealth_DegradedStillDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(HealthReport{
			Status:   "degraded",
			Checks:   map[string]string{"database": "error"},
			Articles: -1,
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	report, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Status != "degraded" || report.Checks["database"] != "error" {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestTriggerReindex_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/reindex" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(ReindexResult{Message: "reindex complete", Count: 7})
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.TriggerReindex(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count != 7 {
		t.Errorf("unexpected count %d", res.Count)
	}
}
