// Package providers implements the Reviewer interface for each supported
// remote review backend.
//
// Supported providers: Google Gemini, Groq, Ollama / LM Studio for local
// models, Anthropic (Claude) and OpenAI (GPT). Groq, Ollama and OpenAI share
// the OpenAI-compatible chat completions transport.
//
// Credentials and endpoints are passed in through [Settings]; no provider
// reads the environment itself. A provider configured without its required
// API key fails construction with [ErrMissingCredential].
//
// All providers share a common retry helper with exponential back-off for
// rate-limit and 5xx responses. HTTP clients are injected via a struct field
// so that tests can redirect calls to local httptest servers without making
// live API requests.
//
// Use [New] to obtain a Reviewer by provider name.
package providers
