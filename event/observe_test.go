package event

import (
	"testing"
	"time"

	"github.com/contentgraph/docengine/emit"
	"github.com/contentgraph/docengine/message"
	"github.com/contentgraph/docengine/metrics"
)

func TestObserverAppendAndVerify(t *testing.T) {
	c := NewChain()
	buf := emit.NewBufferedEmitter()
	obs := &Observer{Emitter: buf, Metrics: metrics.New(nil)}
	now := time.Now().UTC()

	if err := obs.Append(c, "inst-1", "WorkflowStarted", "", map[string]interface{}{"a": 1}, message.SystemActor("engine"), c.Head, now); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := obs.Append(c, "inst-1", "NodeEntered", "n1", map[string]interface{}{"b": 2}, message.SystemActor("engine"), c.Head, now); err != nil {
		t.Fatalf("append: %v", err)
	}

	report := obs.VerifyChain("inst-1", c)
	if !report.Valid {
		t.Fatalf("expected valid chain, got issues: %+v", report.Issues)
	}

	hist := buf.GetHistory("inst-1")
	if len(hist) != 3 {
		t.Fatalf("expected 3 emitted events (2 appends + 1 verify), got %d", len(hist))
	}
}
