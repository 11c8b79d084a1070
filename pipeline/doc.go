// Package pipeline provides a staged pipeline: an ordered list of steps run one at
// a time against a shared context value, stopping at the first failure. A
// Pipeline reports its outcome either synchronously (Run) or as a Future (Start)
// that settles exactly once. A Sequence runs several pipelines over the same
// context value with the same stop-on-first-error semantics.
//
// Steps are plain functions:
//
//	p := &pipeline.Pipeline[*Signup]{
//	    Name: "signup",
//	    Steps: []pipeline.Step[*Signup]{
//	        pipeline.Check(func(s *Signup) bool { return s.Email != "" }, "email required"),
//	        persistSignup,
//	    },
//	}
//	err := p.Start(ctx, signup, nil).
//	    OnFailure(func(err error) { log.Print(err) }).
//	    Wait(ctx)
//
// The error of the failing step is returned unchanged; the engine never wraps,
// classifies or aggregates step errors. Use Fail to attach an opaque payload and
// PayloadOf to read it back.
//
// Callback-style steps can be adapted with Async: the step receives a Done
// function, the pipeline waits for the first call and ignores any later ones.
//
// Optional hooks (Observer) let you log, persist or publish each run:
// BeforePipeline, BeforeStep/AfterStep (with duration), AfterPipeline. Pass
// RunOptions{Observer: myObserver}. Every run has a RunID (generated if not
// supplied); steps can read it with RunIDFromContext.
//
// # Timeouts and cancellation
//
// There is no built-in timeout: a step that never returns stalls its run. Wrap
// such steps with WithTimeout. The run's ctx is checked between steps, so
// cancelling it stops the run before the next step starts; a step already running
// is not interrupted unless it honours ctx itself.
//
// For steps that call flaky collaborators, wrap them with Retry and mark transient
// failures with RetryableErr.
package pipeline
