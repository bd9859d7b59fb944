package event

import (
	"testing"
	"time"

	"github.com/contentgraph/docengine/message"
)

func TestAppendExtendsChainAndSequence(t *testing.T) {
	c := NewChain()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := c.Append("WorkflowStarted", "", map[string]interface{}{"a": 1}, message.SystemActor("engine"), c.Head, now); err != nil {
		t.Fatalf("append root: %v", err)
	}
	if c.Links[0].Integrity.Sequence != 0 {
		t.Fatalf("first link sequence = %d, want 0", c.Links[0].Integrity.Sequence)
	}

	if err := c.Append("NodeEntered", "n1", map[string]interface{}{"b": 2}, message.SystemActor("engine"), c.Head, now); err != nil {
		t.Fatalf("append second: %v", err)
	}
	if c.Links[1].Integrity.Sequence != 1 {
		t.Fatalf("second link sequence = %d, want 1", c.Links[1].Integrity.Sequence)
	}
	if c.Links[1].Integrity.PredecessorCID != c.Links[0].Integrity.EventCID {
		t.Fatal("second link predecessor must equal first link's event cid")
	}

	report := VerifyChain(c)
	if !report.Valid {
		t.Fatalf("expected valid chain, got issues: %+v", report.Issues)
	}
}

func TestAppendRejectsPredecessorMismatch(t *testing.T) {
	c := NewChain()
	now := time.Now().UTC()

	if err := c.Append("WorkflowStarted", "", map[string]interface{}{"a": 1}, message.SystemActor("engine"), "sha256:wrong", now); err == nil {
		t.Fatal("expected InvalidPredecessor when predecessor does not match head")
	}
	if c.Length() != 0 {
		t.Fatalf("expected no link appended on rejection, length = %d", c.Length())
	}
}

func TestVerifyChainDetectsSequenceViolation(t *testing.T) {
	c := NewChain()
	now := time.Now().UTC()
	c.Append("WorkflowStarted", "", map[string]interface{}{"a": 1}, message.SystemActor("engine"), c.Head, now)
	c.Append("NodeEntered", "n1", map[string]interface{}{"b": 2}, message.SystemActor("engine"), c.Head, now)

	c.Links[1].Integrity.Sequence = 5

	report := VerifyChain(c)
	if report.Valid {
		t.Fatal("expected invalid chain after corrupting sequence")
	}
	found := false
	for _, issue := range report.Issues {
		if issue.Kind == IssueInvalidSequence {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected InvalidSequence issue, got %+v", report.Issues)
	}
}

func TestVerifyChainDetectsContentMismatch(t *testing.T) {
	c := NewChain()
	now := time.Now().UTC()
	c.Append("WorkflowStarted", "", map[string]interface{}{"a": 1}, message.SystemActor("engine"), c.Head, now)

	c.Links[0].Payload = map[string]interface{}{"a": 999}

	report := VerifyChain(c)
	if report.Valid {
		t.Fatal("expected invalid chain after tampering with payload")
	}
	if report.Issues[0].Kind != IssueContentMismatch {
		t.Fatalf("expected ContentMismatch, got %+v", report.Issues[0])
	}
}

func TestVerifyChainDetectsBrokenHeadLink(t *testing.T) {
	c := NewChain()
	now := time.Now().UTC()
	c.Append("WorkflowStarted", "", map[string]interface{}{"a": 1}, message.SystemActor("engine"), c.Head, now)
	c.Head = "sha256:wrong"

	report := VerifyChain(c)
	if report.Valid {
		t.Fatal("expected invalid chain when head diverges from last event")
	}
}
