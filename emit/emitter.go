package emit

import "context"

// Emitter receives observability events from the document and workflow
// engines. Implementations must be non-blocking and must not panic;
// failures should be handled internally (logged and dropped), never
// propagated into the caller's command-handling path (spec §7: chain
// verification and command handlers never throw on observability faults).
type Emitter interface {
	// Emit sends a single event to the configured backend.
	Emit(event Event)

	// EmitBatch sends multiple events, preserving order. Returns an error
	// only on catastrophic (e.g. configuration) failures; individual event
	// delivery failures are logged and swallowed.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until all buffered events are delivered or ctx expires.
	// Safe to call multiple times.
	Flush(ctx context.Context) error
}
