// Package redact removes secrets from code before it is sent to a remote
// review provider.
//
// Detection uses regex heuristics covering common secret shapes: API keys,
// JWTs, private keys, AWS access key IDs and secret access keys, bearer
// tokens, connection strings with inline passwords, and provider-specific
// tokens (Google, Groq, Anthropic, OpenAI, GitHub, Slack).
package redact
