// Package emit provides observability event emission for the document and
// workflow engines, adapted from the teacher's graph/emit package: the same
// Event/Emitter shape, now carrying document-chain and workflow-instance
// fields instead of generic graph step fields.
package emit

// Event is one observability event emitted by the chain service or the
// workflow engine.
type Event struct {
	// InstanceID identifies the workflow instance or document chain that
	// emitted this event. Empty for process-level events.
	InstanceID string

	// DocumentID identifies the document the event concerns, when
	// applicable (chain events, DocumentUploaded, SetState actions).
	DocumentID string

	// NodeID identifies the workflow node involved, empty for
	// document-chain events.
	NodeID string

	// Kind is the event type, e.g. "WorkflowStarted", "NodeEntered",
	// "chain.verify", "chain.add_successor".
	Kind string

	// Meta carries additional structured data specific to this event.
	// Common keys: "duration_ms", "error", "issues", "severity".
	Meta map[string]interface{}
}
