// Package cache provides a file-based cache for remote review text.
//
// Entries are keyed by a SHA-256 hash of the provider name, model, language
// and code. Each entry stores the review text with a creation timestamp and
// a TTL in seconds. Expired entries are skipped on read and removed by
// [Cache.Prune]. Rule engine output is never cached; it is cheaper to
// recompute than to read from disk.
//
// The default directory is $XDG_CACHE_HOME/acra (or the OS-appropriate
// equivalent).
package cache
