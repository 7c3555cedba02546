// Package operations runs a batch of treasury reports.
//
// A Retrier wraps one extraction with bounded retries, writing a diagnostic
// file per failed attempt. A Runner executes that retry loop either on the
// calling goroutine (InProcessRunner) or in a re-executed worker process
// (SubprocessRunner), which keeps a crashing or hanging document confined to
// its own file. The Coordinator fans files out to a bounded set of workers and
// concatenates their tables in submission order.
//
// ProgressTracker counts finished files so the health endpoint can report how
// far a batch has come.
package operations
