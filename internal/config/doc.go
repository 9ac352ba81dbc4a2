// Package config loads and merges acra configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (ACRA_PROVIDER, REDIS_URL, DATABASE_URL,
//     GEMINI_API_KEY, GROQ_API_KEY, OLLAMA_URL, etc.)
//  3. Config file ($XDG_CONFIG_HOME/acra/config.yaml, or $ACRA_CONFIG)
//  4. Built-in defaults
//
// The resulting [Config] is passed explicitly to the review chain, the queue,
// the store and the HTTP server; nothing below the cli package reads the
// environment. Use [Load] to obtain a merged Config, [Save] to write one and
// [SetField] to update a single dotted key.
package config
