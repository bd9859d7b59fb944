package cid

import (
	"context"
	"time"

	"github.com/contentgraph/docengine/emit"
	"github.com/contentgraph/docengine/metrics"
)

// Observer wraps the pure chain-build and chain-verify functions with
// observability: Prometheus metrics and emitted events. Both fields are
// optional and nil-safe, so a zero-value Observer behaves exactly like
// calling the package functions directly — verification itself never
// gains a dependency on either.
type Observer struct {
	Emitter emit.Emitter
	Metrics *metrics.Collector
}

// AddSuccessor extends c the same as (*CidChain).AddSuccessor, additionally
// recording the chain's new length on success and emitting a
// "chain.add_successor" event either way (carrying the error on failure).
func (o *Observer) AddSuccessor(c *CidChain, predecessor, successor CID, kind EditKind, meta EditMetadata, now time.Time) error {
	err := c.AddSuccessor(predecessor, successor, kind, meta, now)
	if err != nil {
		o.emit(c.DocumentID, "chain.add_successor", map[string]interface{}{"error": err.Error()})
		return err
	}
	if o.Metrics != nil {
		o.Metrics.SetChainLength(c.DocumentID, c.Length())
	}
	o.emit(c.DocumentID, "chain.add_successor", map[string]interface{}{
		"successor": string(successor), "kind": string(kind), "length": c.Length(),
	})
	return nil
}

// VerifyChain runs VerifyChain and records its duration, issue counts by
// severity, and an observability event, matching the way the teacher's
// engine times and emits around checkpoint/replay verification.
func (o *Observer) VerifyChain(ctx context.Context, c *CidChain, store BlobStore) VerifyReport {
	start := time.Now()
	report := VerifyChain(ctx, c, store)
	duration := time.Since(start)

	if o.Metrics != nil {
		o.Metrics.RecordVerifyDuration("cid", duration)
		o.Metrics.SetChainLength(c.DocumentID, c.Length())
		for _, issue := range report.Issues {
			o.Metrics.IncrementVerifyIssue("cid", string(issue.Severity))
		}
	}
	o.emit(c.DocumentID, "chain.verify", map[string]interface{}{
		"valid": report.Valid, "issues": len(report.Issues), "duration_ms": duration.Milliseconds(),
	})
	return report
}

func (o *Observer) emit(documentID, kind string, meta map[string]interface{}) {
	if o.Emitter == nil {
		return
	}
	o.Emitter.Emit(emit.Event{DocumentID: documentID, Kind: kind, Meta: meta})
}
