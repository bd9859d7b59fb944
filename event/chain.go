// Package event implements the workflow event integrity chain of spec
// §4.6: content-addressed, causation-ordered events whose chain mirrors
// the CidChain invariants (package cid) applied to events instead of
// document content.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/contentgraph/docengine/cid"
	"github.com/contentgraph/docengine/docerr"
	"github.com/contentgraph/docengine/message"
)

// Integrity is the per-event record spec §4.6 requires: its own CID, an
// optional predecessor CID, the chain sequence number, chain length at
// creation, the hash algorithm name, the content hash, and the actor.
type Integrity struct {
	EventCID              cid.CID
	PredecessorCID        cid.CID
	Sequence              int
	ChainLengthAtCreation int
	Algorithm             string
	ContentHash           string
	Actor                 message.Actor
	// Signature is always empty: signing is unspecified (see DESIGN.md
	// Open Questions). Present so a future signer has a field to fill.
	Signature string
}

// Link is one node in a WorkflowEventChain.
type Link struct {
	Integrity Integrity
	NodeID    string
	Kind      string
	CreatedAt time.Time
	Payload   interface{}
}

// Chain is the per-instance sequence of event-integrity links (spec §3
// WorkflowEventChain). Invariants mirror CidChain's L1-L4 applied to
// events: links chain by EventCID, the head always matches the last
// link's EventCID, length matches link count, and event CIDs do not
// repeat.
type Chain struct {
	Head  cid.CID
	Links []Link
}

// NewChain starts an empty event chain.
func NewChain() *Chain { return &Chain{} }

// Length returns the number of links in the chain.
func (c *Chain) Length() int { return len(c.Links) }

// canonicalize produces a stable byte serialization of payload: encoding/json
// marshals map keys in sorted order and struct fields in declaration order,
// satisfying spec §4.6 step 1 and §6's canonical serialization rules.
func canonicalize(payload interface{}) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("event: canonicalize: %w", err)
	}
	return b, nil
}

// enrich appends node id and event kind to the canonical bytes so that
// otherwise-identical payloads occurring at different points in the chain
// still hash to distinct CIDs (spec §4.6 step 2).
func enrich(canonical []byte, nodeID, kind string) []byte {
	return append(canonical, []byte("\x00"+nodeID+"\x00"+kind)...)
}

// Append creates integrity for a new event and extends the chain from
// predecessor, the caller's expected current head (spec §4.6 steps 1-4,
// and "extending a chain enforces predecessor == head; otherwise
// InvalidPredecessor{expected: head, actual: given}").
func (c *Chain) Append(kind, nodeID string, payload interface{}, actor message.Actor, predecessor cid.CID, now time.Time) error {
	if predecessor != c.Head {
		return docerr.InvalidPredecessor(string(c.Head), string(predecessor))
	}

	canonical, err := canonicalize(payload)
	if err != nil {
		return docerr.CidComputationFailed(err.Error())
	}
	bytes := enrich(canonical, nodeID, kind)
	eventCID := cid.ComputeBytes(bytes)

	sequence := 0
	if predecessor != "" {
		sequence = c.Length()
	}

	c.Links = append(c.Links, Link{
		Integrity: Integrity{
			EventCID:              eventCID,
			PredecessorCID:        predecessor,
			Sequence:              sequence,
			ChainLengthAtCreation: c.Length(),
			Algorithm:             eventCID.Algorithm(),
			ContentHash:           string(eventCID),
			Actor:                 actor,
		},
		NodeID:    nodeID,
		Kind:      kind,
		CreatedAt: now,
		Payload:   payload,
	})
	c.Head = eventCID
	return nil
}
