package emit

import "context"

// NullEmitter discards every event. It is the default when no observability
// backend is configured.
type NullEmitter struct{}

// NewNullEmitter returns an Emitter that does nothing.
func NewNullEmitter() *NullEmitter { return &NullEmitter{} }

func (n *NullEmitter) Emit(Event) {}

func (n *NullEmitter) EmitBatch(ctx context.Context, events []Event) error { return nil }

func (n *NullEmitter) Flush(ctx context.Context) error { return nil }
