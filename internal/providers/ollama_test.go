package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllama_Review(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify no Authorization header when no API key is set
		if r.Header.Get("Authorization") != "" {
			t.Error("Expected no Authorization header for keyless Ollama")
		}

		resp := openaiResponse{
			Choices: []openaiChoice{
				{Message: openaiMessage{Role: "assistant", Content: "fine"}},
			},
			Usage: openaiUsage{TotalTokens: 100},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	o := &Ollama{
		model:   "codellama",
		baseURL: server.URL,
		client:  server.Client(),
	}

	resp, err := o.Review(context.Background(), ReviewRequest{
		SystemPrompt: "test",
		UserPrompt:   "test",
		MaxTokens:    10,
	})
	if err != nil {
		t.Fatalf("Review error: %v", err)
	}
	if resp.Content != "fine" {
		t.Errorf("Content = %q, want %q", resp.Content, "fine")
	}
	if resp.TokensUsed != 100 {
		t.Errorf("TokensUsed = %d, want 100", resp.TokensUsed)
	}
}

func TestOllama_ServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(500)
		w.Write([]byte(`{"error":"internal server error"}`))
	}))
	defer server.Close()

	o := &Ollama{
		model:   "codellama",
		baseURL: server.URL,
		client:  server.Client(),
	}

	_, err := o.Review(context.Background(), ReviewRequest{
		SystemPrompt: "test",
		UserPrompt:   "test",
	})
	if err == nil {
		t.Fatal("Expected error for server error response")
	}
	// Should retry: 1 initial + 3 retries = 4 attempts
	if attempts != 4 {
		t.Errorf("Expected 4 attempts, got %d", attempts)
	}
}

func TestNewOllama_URLNormalization(t *testing.T) {
	tests := []struct {
		name    string
		host    string
		wantURL string
	}{
		{"default", "", "http://localhost:11434/v1/chat/completions"},
		{"trailing slash", "http://localhost:11434/", "http://localhost:11434/v1/chat/completions"},
		{"with v1", "http://localhost:11434/v1", "http://localhost:11434/v1/chat/completions"},
		{"with full path", "http://localhost:11434/v1/chat/completions", "http://localhost:11434/v1/chat/completions"},
		{"custom host", "http://192.168.1.100:11434", "http://192.168.1.100:11434/v1/chat/completions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := NewOllama(Settings{Model: "codellama", BaseURL: tt.host})
			if err != nil {
				t.Fatalf("NewOllama error: %v", err)
			}
			if o.baseURL != tt.wantURL {
				t.Errorf("baseURL = %q, want %q", o.baseURL, tt.wantURL)
			}
		})
	}
}
