package event

import (
	"time"

	"github.com/contentgraph/docengine/cid"
	"github.com/contentgraph/docengine/emit"
	"github.com/contentgraph/docengine/message"
	"github.com/contentgraph/docengine/metrics"
)

// Observer wraps Chain.Append and VerifyChain with metrics and emitted
// events, the event-chain counterpart of cid.Observer.
type Observer struct {
	Emitter emit.Emitter
	Metrics *metrics.Collector
}

// Append extends c from predecessor (the caller's expected current head)
// and records the chain's new length and an "event_chain.append"
// observability event.
func (o *Observer) Append(c *Chain, instanceID, kind, nodeID string, payload interface{}, actor message.Actor, predecessor cid.CID, now time.Time) error {
	err := c.Append(kind, nodeID, payload, actor, predecessor, now)
	if o.Metrics != nil {
		o.Metrics.SetChainLength(instanceID, c.Length())
	}
	if o.Emitter != nil {
		meta := map[string]interface{}{"kind": kind, "length": c.Length()}
		if err != nil {
			meta["error"] = err.Error()
		}
		o.Emitter.Emit(emit.Event{InstanceID: instanceID, NodeID: nodeID, Kind: "event_chain.append", Meta: meta})
	}
	return err
}

// VerifyChain runs VerifyChain, recording its duration and per-severity
// issue counts under the "event" chain-kind label (distinct from cid.Observer's
// "cid" label, since the two chains use different severity scales).
func (o *Observer) VerifyChain(instanceID string, c *Chain) VerifyReport {
	start := time.Now()
	report := VerifyChain(c)
	duration := time.Since(start)

	if o.Metrics != nil {
		o.Metrics.RecordVerifyDuration("event", duration)
		for _, issue := range report.Issues {
			o.Metrics.IncrementVerifyIssue("event", string(issue.Severity))
		}
	}
	if o.Emitter != nil {
		o.Emitter.Emit(emit.Event{InstanceID: instanceID, Kind: "event_chain.verify", Meta: map[string]interface{}{
			"valid": report.Valid, "issues": len(report.Issues), "duration_ms": duration.Milliseconds(),
		}})
	}
	return report
}
