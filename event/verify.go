package event

import (
	"fmt"

	"github.com/contentgraph/docengine/cid"
)

// Severity ranks an event-chain Issue (spec §4.6) — a distinct scale from
// the CID chain's {Low,Medium,High,Critical} (package cid), matching the
// four-level taxonomy spec.md gives event verification specifically.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// IssueKind enumerates the defects VerifyChain looks for (spec §4.6).
type IssueKind string

const (
	IssueContentMismatch  IssueKind = "content_mismatch"
	IssueBrokenLink       IssueKind = "broken_link"
	IssueMissingEvent     IssueKind = "missing_event"
	IssueDuplicateEvent   IssueKind = "duplicate_event"
	IssueInvalidSequence  IssueKind = "invalid_sequence"
	IssueSignatureFailure IssueKind = "signature_failure"
	IssueTemporalViolation IssueKind = "temporal_violation"
)

// Issue describes one defect found while verifying an event chain.
type Issue struct {
	Kind     IssueKind
	Severity Severity
	Position int
	Detail   string
}

// VerifyReport is the outcome of VerifyChain.
type VerifyReport struct {
	Valid  bool
	Issues []Issue
}

// VerifyChain walks the chain once, checking for each link (spec §4.6):
// (a) predecessor equals the previous link's event CID (or none at 0),
// (b) sequence number equals its index,
// (c) the stored content hash recomputes from the event payload, if available,
// (d) the CID recomputes likewise.
// Links are also checked for strictly non-decreasing creation time
// (TemporalViolation) and for duplicate event CIDs (DuplicateEvent).
func VerifyChain(c *Chain) VerifyReport {
	var issues []Issue
	seen := make(map[string]int, len(c.Links))
	var prevCID string
	var prevTime *int64

	for i, link := range c.Links {
		if string(link.Integrity.PredecessorCID) != prevCID {
			issues = append(issues, Issue{
				Kind: IssueBrokenLink, Severity: SeverityCritical, Position: i,
				Detail: fmt.Sprintf("link %d predecessor %s does not match prior event %s", i, link.Integrity.PredecessorCID, prevCID),
			})
		}

		if link.Integrity.Sequence != i {
			issues = append(issues, Issue{
				Kind: IssueInvalidSequence, Severity: SeverityMajor, Position: i,
				Detail: fmt.Sprintf("link %d has sequence %d, want %d", i, link.Integrity.Sequence, i),
			})
		}

		if link.Payload != nil {
			canonical, err := canonicalize(link.Payload)
			if err != nil {
				issues = append(issues, Issue{
					Kind: IssueContentMismatch, Severity: SeverityCritical, Position: i,
					Detail: fmt.Sprintf("link %d payload failed to canonicalize: %v", i, err),
				})
			} else {
				recomputed := enrich(canonical, link.NodeID, link.Kind)
				recomputedCID := cid.ComputeBytes(recomputed)
				if recomputedCID != link.Integrity.EventCID {
					issues = append(issues, Issue{
						Kind: IssueContentMismatch, Severity: SeverityCritical, Position: i,
						Detail: fmt.Sprintf("link %d content hash does not recompute to its recorded CID", i),
					})
				}
			}
		}

		if key := string(link.Integrity.EventCID); key != "" {
			if first, ok := seen[key]; ok {
				issues = append(issues, Issue{
					Kind: IssueDuplicateEvent, Severity: SeverityMinor, Position: i,
					Detail: fmt.Sprintf("event cid %s duplicates link at position %d", key, first),
				})
			} else {
				seen[key] = i
			}
		}

		createdAtUnix := link.CreatedAt.Unix()
		if prevTime != nil && createdAtUnix < *prevTime {
			issues = append(issues, Issue{
				Kind: IssueTemporalViolation, Severity: SeverityWarning, Position: i,
				Detail: fmt.Sprintf("link %d created before its predecessor", i),
			})
		}
		prevTime = &createdAtUnix

		prevCID = string(link.Integrity.EventCID)
	}

	if string(c.Head) != prevCID {
		issues = append(issues, Issue{
			Kind: IssueBrokenLink, Severity: SeverityCritical, Position: len(c.Links),
			Detail: fmt.Sprintf("chain head %s does not match last event %s", c.Head, prevCID),
		})
	}

	valid := true
	for _, issue := range issues {
		if issue.Severity == SeverityCritical || issue.Severity == SeverityMajor {
			valid = false
			break
		}
	}
	return VerifyReport{Valid: valid, Issues: issues}
}
