package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rcliao/site-assistant/internal/config"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Vector
		expected float64
		delta    float64
	}{
		{"identical", Vector{1, 0, 0}, Vector{1, 0, 0}, 1.0, 0.001},
		{"orthogonal", Vector{1, 0, 0}, Vector{0, 1, 0}, 0.0, 0.001},
		{"opposite", Vector{1, 0, 0}, Vector{-1, 0, 0}, -1.0, 0.001},
		{"similar", Vector{1, 1, 0}, Vector{1, 0, 0}, 0.707, 0.01},
		{"empty", Vector{}, Vector{}, 0.0, 0.001},
		{"different lengths", Vector{1, 0}, Vector{1, 0, 0}, 0.0, 0.001},
		{"zero vector", Vector{0, 0, 0}, Vector{1, 0, 0}, 0.0, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.expected) > tt.delta {
				t.Errorf("CosineSimilarity(%v, %v) = %f, want %f (±%f)", tt.a, tt.b, got, tt.expected, tt.delta)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{"", "*embedding.HashEmbedder"},
		{"hash", "*embedding.HashEmbedder"},
		{"ollama", "*embedding.OllamaEmbedder"},
		{"openai", "*embedding.OpenAIEmbedder"},
	}
	for _, tt := range tests {
		e, err := New(config.EmbeddingConfig{Provider: tt.provider, APIKey: "k"})
		if err != nil {
			t.Fatalf("New(%q): %v", tt.provider, err)
		}
		if got := fmt.Sprintf("%T", e); got != tt.want {
			t.Errorf("New(%q) = %s, want %s", tt.provider, got, tt.want)
		}
	}

	if _, err := New(config.EmbeddingConfig{Provider: "cohere"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestHashEmbedder_SharedWordsScoreHigher(t *testing.T) {
	ctx := context.Background()
	e := NewHashEmbedder(128)

	q, _ := e.Embed(ctx, "concrete pour schedule")
	near, _ := e.Embed(ctx, "The concrete pour is scheduled for Monday")
	far, _ := e.Embed(ctx, "Invoice from the electrical vendor")

	if CosineSimilarity(q, near) <= CosineSimilarity(q, far) {
		t.Errorf("expected related text to score higher: near=%f far=%f",
			CosineSimilarity(q, near), CosineSimilarity(q, far))
	}

	again, _ := e.Embed(ctx, "concrete pour schedule")
	if CosineSimilarity(q, again) < 0.999 {
		t.Error("expected deterministic embeddings")
	}
}

func TestHashEmbedder_EmptyTextIsUnitVector(t *testing.T) {
	v, err := NewHashEmbedder(8).Embed(context.Background(), "  ")
	if err != nil {
		t.Fatal(err)
	}
	if v[0] != 1 {
		t.Errorf("expected fixed unit vector, got %v", v)
	}
}

func TestOllamaEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			http.NotFound(w, r)
			return
		}
		var req ollamaRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "all-minilm" {
			t.Errorf("unexpected model %q", req.Model)
		}
		json.NewEncoder(w).Encode(ollamaResponse{Embedding: []float32{0.5, 0.5}})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "all-minilm")
	if e.Dims() != 384 {
		t.Errorf("expected 384 dims, got %d", e.Dims())
	}
	v, err := e.Embed(context.Background(), "rebar delivery")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(v) != 2 {
		t.Errorf("expected 2 values, got %d", len(v))
	}
}

func TestOllamaEmbedder_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewOllamaEmbedder(srv.URL, "").Embed(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestOpenAIEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"object":"list","model":"text-embedding-3-small",
			"data":[{"object":"embedding","index":0,"embedding":[0.25,-0.5,1]}],
			"usage":{"prompt_tokens":2,"total_tokens":2}}`)
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(srv.URL+"/", "sk-test", "", 3)
	v, err := e.Embed(context.Background(), "site survey")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(v) != 3 || v[1] != -0.5 {
		t.Errorf("unexpected vector %v", v)
	}
}
