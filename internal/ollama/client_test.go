package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGenerate_Success(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, expected POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"response": "OK\nLooks fine\n"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/api/generate", 5*time.Second)
	res, err := client.Generate(context.Background(), "llama3", "analyze this")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if res.Text != "OK\nLooks fine" {
		t.Errorf("Text = %q", res.Text)
	}
	if len(res.Raw) == 0 {
		t.Error("Raw response body must be preserved")
	}
	if got.Model != "llama3" || got.Prompt != "analyze this" {
		t.Errorf("request = %+v", got)
	}
	if got.Stream {
		t.Error("stream must be false")
	}
}

func TestGenerate_MissingResponseField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"unexpected": "shape"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/api/generate", 5*time.Second)
	_, err := client.Generate(context.Background(), "m", "p")

	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected FormatError, got %T: %v", err, err)
	}
	if !strings.Contains(formatErr.Error(), "response") {
		t.Errorf("error should name the missing field: %v", formatErr)
	}
}

func TestGenerate_UndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/api/generate", 5*time.Second)
	_, err := client.Generate(context.Background(), "m", "p")

	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected FormatError, got %T: %v", err, err)
	}
}

func TestGenerate_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/api/generate", 5*time.Second)
	_, err := client.Generate(context.Background(), "m", "p")

	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected FormatError, got %T: %v", err, err)
	}
	if !strings.Contains(formatErr.Error(), "404") {
		t.Errorf("error should carry the status: %v", formatErr)
	}
}

func TestGenerate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/api/generate", 50*time.Millisecond)
	_, err := client.Generate(context.Background(), "m", "p")

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if !transportErr.Timeout {
		t.Error("Timeout flag must be set")
	}
	if !strings.Contains(transportErr.Error(), "timed out") {
		t.Errorf("error should mention the timeout: %v", transportErr)
	}
}

func TestGenerate_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	client := NewClient(srv.URL+"/api/generate", time.Second)
	_, err := client.Generate(context.Background(), "m", "p")

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if transportErr.Timeout {
		t.Error("connection refusal is not a timeout")
	}
}

func TestModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %s, expected /api/tags", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"models": []map[string]interface{}{
				{"name": "llama3", "size": int64(4 << 30), "modified_at": "2025-01-01T00:00:00Z"},
				{"name": "phi3", "size": int64(2 << 20), "modified_at": "2025-02-01T00:00:00Z"},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/api/generate", 5*time.Second)
	models, err := client.Models(context.Background())
	if err != nil {
		t.Fatalf("Models: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("got %d models, expected 2", len(models))
	}
	if models[0].Name != "llama3" {
		t.Errorf("Name = %q", models[0].Name)
	}
}

func TestModelInfo_HumanSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{4 << 30, "4.0 GB"},
		{512 << 20, "512.0 MB"},
		{10 << 10, "10.0 KB"},
		{0, "unknown size"},
	}
	for _, tt := range tests {
		m := ModelInfo{Size: tt.size}
		if got := m.HumanSize(); got != tt.want {
			t.Errorf("HumanSize(%d) = %q, expected %q", tt.size, got, tt.want)
		}
	}
}

func TestTagsURLDerivation(t *testing.T) {
	tests := []struct {
		generate string
		want     string
	}{
		{"http://localhost:11434/api/generate", "http://localhost:11434/api/tags"},
		{"http://host:8080/api/generate", "http://host:8080/api/tags"},
		{"http://host:8080", "http://host:8080/api/tags"},
	}
	for _, tt := range tests {
		c := NewClient(tt.generate, time.Second)
		if got := c.tagsURL(); got != tt.want {
			t.Errorf("tagsURL(%q) = %q, expected %q", tt.generate, got, tt.want)
		}
	}
}
