// Acra is an automated code review service.
//
// It accepts code submissions over HTTP, reviews them with an LLM provider
// chain that falls back to a deterministic rule engine, and pushes live
// rule-engine feedback over a websocket.
//
// Usage:
//
//	acra serve                        # HTTP API and live channel on :8000
//	acra serve --workers 4            # API plus in-process queue consumers
//	acra worker                       # queue consumers only (needs REDIS_URL)
//	acra reprocess                    # review every pending submission once
//	acra review snippet < main.py     # review code from stdin
//	acra events tail                  # follow review outcomes
package main
