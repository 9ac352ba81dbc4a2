package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single provider HTTP call when Settings.Timeout is zero.
const DefaultTimeout = 120 * time.Second

// Defaults shared by every provider request.
const (
	defaultMaxTokens   = 2000
	defaultTemperature = 0.3
)

// ErrMissingCredential is returned by constructors when a provider that needs
// an API key was configured without one.
var ErrMissingCredential = errors.New("missing credential")

// ReviewRequest contains the data sent to an LLM for review.
type ReviewRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// ReviewResponse contains the raw response from an LLM.
type ReviewResponse struct {
	Content    string
	TokensUsed int
}

// Reviewer is the provider abstraction interface.
type Reviewer interface {
	Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error)
	Name() string
}

// Settings carries the per-provider credentials and endpoint overrides.
type Settings struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// ProviderError reports a failed review call and which provider produced it.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	if e == nil || e.Err == nil {
		return "provider error"
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// DefaultModels maps each provider to the model used when none is configured.
var DefaultModels = map[string]string{
	"gemini":    "gemini-2.5-flash",
	"groq":      "llama-3.1-70b-versatile",
	"ollama":    "codellama",
	"anthropic": "claude-sonnet-4-20250514",
	"openai":    "gpt-4o-mini",
}

// Names returns the canonical provider names in display order.
func Names() []string {
	return []string{"gemini", "groq", "ollama", "anthropic", "openai"}
}

// Canonical resolves aliases to a canonical provider name. It returns "" for
// unknown names.
func Canonical(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gemini", "google":
		return "gemini"
	case "groq":
		return "groq"
	case "ollama", "lmstudio":
		return "ollama"
	case "anthropic":
		return "anthropic"
	case "openai":
		return "openai"
	default:
		return ""
	}
}

// New creates a provider by name.
func New(provider string, s Settings) (Reviewer, error) {
	name := Canonical(provider)
	if s.Model == "" {
		s.Model = DefaultModels[name]
	}
	switch name {
	case "gemini":
		return NewGemini(s)
	case "groq":
		return NewGroq(s)
	case "ollama":
		return NewOllama(s)
	case "anthropic":
		return NewAnthropic(s)
	case "openai":
		return NewOpenAI(s)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func missingKey(provider, envVar string) error {
	return fmt.Errorf("%s: %s is not set: %w", provider, envVar, ErrMissingCredential)
}

func requestDefaults(req ReviewRequest) (maxTokens int, temperature float64) {
	maxTokens = req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	temperature = req.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}
	return maxTokens, temperature
}
