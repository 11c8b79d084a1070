// Package config provides a named step registry and human-readable runner
// configuration, plus the process settings of the formpipe CLI.
//
// Register steps by name, then define runners in YAML (or structs) that reference
// those names and optional modifiers (retry, timeout):
//
//	runners:
//	  new-student-form:
//	    steps:
//	      - validate
//	      - name: persist
//	        retry: exponential
//	        timeout: 5s
//	        initial: 100ms
//	        max_attempts: 5
//
// Build a pipeline with BuildPipeline(registry, runnerConfig). Retries are
// in-process and only re-run errors marked with pipeline.RetryableErr.
package config
