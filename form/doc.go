// Package form provides single-use runners that bind an input payload to an
// ordered list of steps and expose one entry point returning a
// *pipeline.Future.
//
// A Runner moves through Idle → Running → Succeeded or Failed and never leaves
// a final state. Calling Run a second time does not start another run: it
// returns a Future already rejected with ErrAlreadyStarted. Construct a new
// Runner for every payload.
//
// On failure the runner calls its feedback hook (WithFeedback) before the Future
// rejects, so user feedback is dispatched even when the caller ignores the
// rejection.
package form
