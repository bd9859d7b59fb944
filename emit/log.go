package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LogEmitter writes structured log output to a writer, in either
// human-readable text (key=value pairs) or one-JSON-object-per-line mode.
type LogEmitter struct {
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter builds a LogEmitter. A nil writer defaults to os.Stdout.
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{writer: writer, jsonMode: jsonMode}
}

func (l *LogEmitter) Emit(event Event) {
	if l.jsonMode {
		l.emitJSON(event)
	} else {
		l.emitText(event)
	}
}

func (l *LogEmitter) emitJSON(event Event) {
	data, err := json.Marshal(struct {
		InstanceID string                 `json:"instance_id,omitempty"`
		DocumentID string                 `json:"document_id,omitempty"`
		NodeID     string                 `json:"node_id,omitempty"`
		Kind       string                 `json:"kind"`
		Meta       map[string]interface{} `json:"meta,omitempty"`
	}{event.InstanceID, event.DocumentID, event.NodeID, event.Kind, event.Meta})
	if err != nil {
		fmt.Fprintf(l.writer, "{\"kind\":%q,\"emit_error\":%q}\n", event.Kind, err.Error())
		return
	}
	fmt.Fprintln(l.writer, string(data))
}

func (l *LogEmitter) emitText(event Event) {
	fmt.Fprintf(l.writer, "[%s]", event.Kind)
	if event.InstanceID != "" {
		fmt.Fprintf(l.writer, " instance=%s", event.InstanceID)
	}
	if event.DocumentID != "" {
		fmt.Fprintf(l.writer, " document=%s", event.DocumentID)
	}
	if event.NodeID != "" {
		fmt.Fprintf(l.writer, " node=%s", event.NodeID)
	}
	if len(event.Meta) > 0 {
		if data, err := json.Marshal(event.Meta); err == nil {
			fmt.Fprintf(l.writer, " meta=%s", data)
		}
	}
	fmt.Fprintln(l.writer)
}

func (l *LogEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, e := range events {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		l.Emit(e)
	}
	return nil
}

func (l *LogEmitter) Flush(ctx context.Context) error {
	if f, ok := l.writer.(interface{ Sync() error }); ok {
		return f.Sync()
	}
	return nil
}
