// Package review turns a code snippet into review text.
//
// The rule engine ([Evaluate], [Render]) is a deterministic set of
// heuristics: empty and very short snippets, TODO markers, a small denylist
// of dangerous calls, and a few language-specific checks for JavaScript,
// Python and Java.
//
// A [Chain] wraps the remote providers from the providers package and the
// rule engine. Remote providers are tried in configured order; secrets are
// redacted and the shared prompt is built before each call. The rule engine
// is always last, so [Chain.GenerateReview] always returns text.
package review
