// Package observer provides pipeline.Observer implementations for form runs.
//
//   - DBObserver: persists each run and its steps to Postgres (form_run,
//     form_run_step) for monitoring. Call Migrate once to create the tables.
//   - LogObserver: structured zap logging of run and step lifecycle with
//     run_id, pipeline, step and elapsed fields.
//   - EventObserver: publishes a JSON RunCompleted message per finished run to
//     Kafka, keyed by run ID.
//   - Multi: fans one run out to several observers.
//
// Observer errors surface through the pipeline as "before pipeline: ..." etc.;
// they never replace a step's own error.
package observer
