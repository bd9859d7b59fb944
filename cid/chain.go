package cid

import (
	"fmt"
	"time"

	"github.com/contentgraph/docengine/docerr"
)

// EditKind tags the way one document revision was derived from its
// predecessor (spec §3 DocumentSuccessor).
type EditKind string

const (
	EditDirectReplacement      EditKind = "direct_replacement"
	EditDifferentialPatch      EditKind = "differential_patch"
	EditStructuredEdit         EditKind = "structured_edit"
	EditAutomatedTransformation EditKind = "automated_transformation"
)

// EditMetadata carries the supplemental detail original_source attaches to
// an edit beyond the bare predecessor/successor pair: a human description
// and the content size delta, both optional.
type EditMetadata struct {
	Description string `json:"description,omitempty"`
	SizeDelta   int64  `json:"size_delta,omitempty"`
}

// DocumentSuccessor links one content version to the next in a document's
// chain (spec §3).
type DocumentSuccessor struct {
	Predecessor CID          `json:"predecessor"`
	Successor   CID          `json:"successor"`
	Kind        EditKind     `json:"kind"`
	Metadata    EditMetadata `json:"metadata,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// CidChain is the ordered hash chain of content revisions belonging to one
// document (spec §3 CidChain, §4.3).
type CidChain struct {
	DocumentID string              `json:"document_id"`
	Root       CID                 `json:"root"`
	Head       CID                 `json:"head"`
	Links      []DocumentSuccessor `json:"links"`
}

// NewChain starts a chain at root, the document's first content CID.
func NewChain(documentID string, root CID) *CidChain {
	return &CidChain{DocumentID: documentID, Root: root, Head: root}
}

// Length returns the number of nodes in the chain, including the root.
func (c *CidChain) Length() int { return len(c.Links) + 1 }

// AddSuccessor appends a new head to the chain. The only build-time
// failure is a predecessor mismatch (invariant L2 — the chain only grows
// from its current tip); duplicate content (invariant L4) is not rejected
// here; it surfaces as a Medium DuplicateContent issue from VerifyChain.
func (c *CidChain) AddSuccessor(predecessor, successor CID, kind EditKind, meta EditMetadata, now time.Time) error {
	if predecessor != c.Head {
		return docerr.InvalidPredecessor(string(c.Head), string(predecessor))
	}
	c.Links = append(c.Links, DocumentSuccessor{
		Predecessor: c.Head,
		Successor:   successor,
		Kind:        kind,
		Metadata:    meta,
		CreatedAt:   now,
	})
	c.Head = successor
	return nil
}

// allCids returns every CID in the chain, root first, in order.
func (c *CidChain) allCids() []CID {
	ids := make([]CID, 0, len(c.Links)+1)
	ids = append(ids, c.Root)
	for _, l := range c.Links {
		ids = append(ids, l.Successor)
	}
	return ids
}

// GetCidAtPosition returns the CID at the given zero-based position, where
// position 0 is the root.
func (c *CidChain) GetCidAtPosition(position int) (CID, error) {
	ids := c.allCids()
	if position < 0 || position >= len(ids) {
		return "", fmt.Errorf("cid: position %d out of range [0,%d)", position, len(ids))
	}
	return ids[position], nil
}

// FindCidPosition returns the zero-based position of id in the chain, or
// -1 if absent.
func (c *CidChain) FindCidPosition(id CID) int {
	for i, existing := range c.allCids() {
		if existing == id {
			return i
		}
	}
	return -1
}
