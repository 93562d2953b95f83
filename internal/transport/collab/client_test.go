package collab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/unilink/scholarmatch/internal/usecase/recommend"
)

func TestCanonicalText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if in["profile_id"] != "u1" {
			t.Errorf("profile_id = %q, want u1", in["profile_id"])
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "  research interests in NLP  "})
	}))
	defer srv.Close()

	c := NewClient(Config{TextURL: srv.URL}, zap.NewNop())
	got, err := c.CanonicalText(context.Background(), "u1")
	if err != nil {
		t.Fatalf("CanonicalText: %v", err)
	}
	if got != "research interests in NLP" {
		t.Errorf("text = %q", got)
	}
}

func TestCanonicalText_FailureSoftensToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Config{TextURL: srv.URL}, zap.NewNop())
	got, err := c.CanonicalText(context.Background(), "u1")
	if err != nil {
		t.Fatalf("soft failure must not return an error, got %v", err)
	}
	if got != "" {
		t.Errorf("expected empty text, got %q", got)
	}
}

func TestCanonicalText_Unconfigured(t *testing.T) {
	c := NewClient(Config{}, zap.NewNop())
	got, err := c.CanonicalText(context.Background(), "u1")
	if err != nil || got != "" {
		t.Fatalf("unconfigured collaborator should no-op, got %q, %v", got, err)
	}
}

func TestJustify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if in["entity_id"] != "a1" {
			t.Errorf("entity_id = %v, want a1", in["entity_id"])
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer k3y" {
			t.Errorf("Authorization = %q", auth)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"justification": "shared focus on distributed systems"})
	}))
	defer srv.Close()

	c := NewClient(Config{JustifyURL: srv.URL, APIKey: "k3y"}, zap.NewNop())
	got, err := c.Justify(context.Background(), recommend.JustificationContext{
		RequesterText: "cv text",
		EntityID:      "a1",
		Score:         0.9,
	})
	if err != nil {
		t.Fatalf("Justify: %v", err)
	}
	if got != "shared focus on distributed systems" {
		t.Errorf("justification = %q", got)
	}
}

func TestJustify_FailureSoftensToEmpty(t *testing.T) {
	c := NewClient(Config{JustifyURL: "http://127.0.0.1:1"}, zap.NewNop())
	got, err := c.Justify(context.Background(), recommend.JustificationContext{EntityID: "a1"})
	if err != nil || got != "" {
		t.Fatalf("expected soft empty, got %q, %v", got, err)
	}
}
