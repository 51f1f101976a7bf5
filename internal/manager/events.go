package manager

// Event is a model lifecycle notification (load_start, load_ready,
// unload_done, infer_done, ...) with free-form fields for details like
// durations or error text.
type Event struct {
	Name    string
	ModelID string
	Fields  map[string]any
}

// EventPublisher consumes lifecycle events. Publish is called on the
// manager's hot path, so implementations must be cheap, must not block and
// must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default when no publisher is configured.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
