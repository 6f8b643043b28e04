// Package pipeline wires the capture components into the two host-facing
// handlers: one per inbound user turn (sentiment capture) and one per
// completed assistant turn (task-state update and insight capture).
//
// The pipeline is best-effort instrumentation, not part of the critical
// path: every handler swallows its own errors after logging, and a failure
// only ever manifests as a missing signal or record, never as a failed
// assistant turn.
package pipeline
