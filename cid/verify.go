package cid

import (
	"context"
	"fmt"
)

// Severity ranks how serious a chain Issue is, from informational to
// blocking (spec §4.3).
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// IssueKind enumerates the defects VerifyChain looks for (spec §4.3).
type IssueKind string

const (
	IssueMissingContent       IssueKind = "missing_content"
	IssueBrokenLink           IssueKind = "broken_link"
	IssueDuplicateContent     IssueKind = "duplicate_content"
	IssueHashMismatch         IssueKind = "hash_mismatch"
	IssueMetadataInconsistent IssueKind = "metadata_inconsistent"
)

// Issue describes one defect found while verifying a chain.
type Issue struct {
	Kind     IssueKind `json:"kind"`
	Severity Severity  `json:"severity"`
	CID      CID       `json:"cid,omitempty"`
	Position int       `json:"position"`
	Detail   string    `json:"detail"`
}

// VerifyReport is the outcome of VerifyChain. Valid is true iff no
// Critical or High issue was found (Low/Medium issues do not block).
type VerifyReport struct {
	Valid         bool    `json:"valid"`
	Issues        []Issue `json:"issues"`
	LinksVerified int     `json:"links_verified"`
}

// VerifyChain walks the chain once and reports every issue found,
// following the four-step procedure of spec §4.3. It never short-circuits
// on a corrupted chain and returns no Go error: any error from the blob
// store's Exists or Get is reported as a MissingContent issue. The root is
// checked for existence only; hash integrity is checked for link successors.
func VerifyChain(ctx context.Context, c *CidChain, store BlobStore) VerifyReport {
	var issues []Issue

	// Step 1: root existence.
	if ok, _ := store.Exists(ctx, c.Root); !ok {
		issues = append(issues, Issue{
			Kind: IssueMissingContent, Severity: SeverityCritical,
			CID: c.Root, Position: 0,
			Detail: fmt.Sprintf("root content %s not found in blob store", c.Root),
		})
	}

	// Step 2: walk each link, checking predecessor continuity, content
	// uniqueness, existence, and hash integrity.
	seen := map[CID]int{c.Root: 0}
	prev := c.Root
	verified := 0
	for i, link := range c.Links {
		position := i + 1

		// 2a: predecessor continuity.
		if link.Predecessor != prev {
			issues = append(issues, Issue{
				Kind: IssueBrokenLink, Severity: SeverityCritical,
				CID: link.Successor, Position: position,
				Detail: fmt.Sprintf("link at position %d predecessor %s does not match prior node %s", position, link.Predecessor, prev),
			})
		}

		// 2b: successor must be unique in the chain so far.
		if first, ok := seen[link.Successor]; ok {
			issues = append(issues, Issue{
				Kind: IssueDuplicateContent, Severity: SeverityMedium,
				CID: link.Successor, Position: position,
				Detail: fmt.Sprintf("cid %s duplicates node at position %d", link.Successor, first),
			})
		} else {
			seen[link.Successor] = position
		}

		// 2c: blob store has successor.
		content, err := store.Get(ctx, link.Successor)
		if err != nil {
			issues = append(issues, Issue{
				Kind: IssueMissingContent, Severity: SeverityCritical,
				CID: link.Successor, Position: position,
				Detail: fmt.Sprintf("content for %s not found in blob store", link.Successor),
			})
			prev = link.Successor
			continue
		}

		// 2d: hash integrity.
		if recomputed := ComputeBytes(content); recomputed != link.Successor {
			issues = append(issues, Issue{
				Kind: IssueHashMismatch, Severity: SeverityHigh,
				CID: link.Successor, Position: position,
				Detail: fmt.Sprintf("stored content for %s actually hashes to %s", link.Successor, recomputed),
			})
		} else {
			verified++
		}

		prev = link.Successor
	}

	// Step 3: head check.
	if prev != c.Head {
		issues = append(issues, Issue{
			Kind: IssueMetadataInconsistent, Severity: SeverityHigh,
			CID: c.Head, Position: len(c.Links),
			Detail: fmt.Sprintf("chain head %s does not match last link successor %s", c.Head, prev),
		})
	}

	// Step 4: length check.
	if c.Length() != len(c.Links)+1 {
		issues = append(issues, Issue{
			Kind: IssueMetadataInconsistent, Severity: SeverityMedium,
			Position: len(c.Links),
			Detail:   fmt.Sprintf("chain length %d does not match links+1 (%d)", c.Length(), len(c.Links)+1),
		})
	}

	valid := true
	for _, issue := range issues {
		if issue.Severity == SeverityCritical || issue.Severity == SeverityHigh {
			valid = false
			break
		}
	}
	return VerifyReport{Valid: valid, Issues: issues, LinksVerified: verified}
}

// RepairChain performs only the safe, local fixes spec §4.3 allows: a
// Critical BrokenLink at position p drops links[p-1] (the link whose
// predecessor pointer is wrong), after which length and head are
// recomputed from the surviving chain. It never fabricates content, so
// MissingContent and HashMismatch issues are always left for operator
// intervention.
func RepairChain(c *CidChain, report VerifyReport) (repaired int, remaining []Issue) {
	drop := make(map[int]bool)
	for _, issue := range report.Issues {
		if issue.Kind == IssueBrokenLink && issue.Severity == SeverityCritical && issue.Position > 0 {
			drop[issue.Position-1] = true
			continue
		}
		remaining = append(remaining, issue)
	}
	if len(drop) == 0 {
		return 0, remaining
	}

	kept := c.Links[:0:0]
	for i, link := range c.Links {
		if drop[i] {
			repaired++
			continue
		}
		kept = append(kept, link)
	}
	c.Links = kept
	if len(c.Links) == 0 {
		c.Head = c.Root
	} else {
		c.Head = c.Links[len(c.Links)-1].Successor
	}
	return repaired, remaining
}
