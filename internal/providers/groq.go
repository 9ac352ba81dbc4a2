package providers

import (
	"context"
	"net/http"
)

const defaultGroqURL = "https://api.groq.com/openai/v1/chat/completions"

// Groq implements the Reviewer interface for Groq's OpenAI-compatible API.
type Groq struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGroq creates a new Groq provider.
func NewGroq(s Settings) (*Groq, error) {
	if s.APIKey == "" {
		return nil, missingKey("groq", "GROQ_API_KEY")
	}
	baseURL := s.BaseURL
	if baseURL == "" {
		baseURL = defaultGroqURL
	}
	return &Groq{
		apiKey:  s.APIKey,
		model:   s.Model,
		baseURL: baseURL,
		client:  newHTTPClient(s.Timeout),
	}, nil
}

func (g *Groq) Name() string { return "groq" }

func (g *Groq) Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error) {
	return chatCompletion(ctx, g.client, g.baseURL, g.apiKey, g.model, req)
}
