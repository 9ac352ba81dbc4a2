// Package pipeline moves a submission from pending to a terminal state.
//
// A [Runner] executes one review: it marks the submission processing, runs
// the review chain and stores the result, or marks the submission error if
// anything after the initial read fails. The [Dispatcher] persists new
// submissions and hands them to an [Executor]; when the queue cannot accept
// a job it reviews the submission inline instead, so a broker outage never
// leaves a submission stuck in pending. A [Worker] drains the queue with a
// fixed pool of goroutines.
package pipeline
