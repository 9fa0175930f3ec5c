// Package supervisor owns the external process pipeline behind the remote
// desktop: a virtual display server, a desktop-protocol (VNC) server bound to
// that display, and a websocket bridge in front of the VNC port. It is
// structured into small files by concern:
//
//   - supervisor.go: Supervisor type, Start/Stop transitions (one at a time).
//   - config.go: Config and package defaults; New applies defaults.
//   - types.go: lifecycle states, roles, transition results.
//   - process.go: ManagedProcess, one spawned program with an exit watcher.
//   - launch.go: command-line contracts for each role, secret redaction.
//   - probe.go: readiness probes run between dependent stages.
//   - sidecar.go: best-effort helper processes (window manager, terminal).
//   - status_report.go: pure aggregation of liveness into the stack view.
//   - events.go / eventpub_memory.go: lifecycle event publishing.
//   - keepalive.go, sanity.go, metrics.go: periodic status log, binary
//     discovery, Prometheus instrumentation.
//
// Stages are started in dependency order and each stage must pass its
// readiness probe before the next one is spawned. Stop runs in reverse order.
// Unexpected exits are pushed by the per-process watcher, so Status never
// reports a dead process as running.
package supervisor
