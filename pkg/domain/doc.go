// Package domain contains the pure types of the tutoring pipeline: student
// profiles, the session state threaded through the pipeline, the artifacts
// each step produces, and the events emitted while a session runs.
//
// The package has no dependencies on adapters or the pipeline itself, so it
// can be imported freely by hosts, adapters and tests.
package domain
