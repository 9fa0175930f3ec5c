package supervisor

// Event represents a supervisor lifecycle event.
// Minimal and stable: name + role and optional fields via key/values.
type Event struct {
	Name   string
	Role   Role
	Fields map[string]any
}

// Event names published by the supervisor.
const (
	EventSpawnStart   = "spawn_start"
	EventSpawnReady   = "spawn_ready"
	EventSpawnError   = "spawn_error"
	EventExit         = "exit"
	EventStop         = "stop"
	EventStackStarted = "stack_started"
	EventStackStopped = "stack_stopped"
)

// EventPublisher receives events from the supervisor. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
