package events

// Record is the generic attribute-bag form of a portal event, the shape
// consumed by log sinks and indexers.
type Record struct {
	Type       string
	Attributes map[string]string
}

// Event represents a structured state change emitted by the portal.
type Event interface {
	EventType() string
	Record() *Record
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events. It
// is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}
