package document

import (
	"testing"
	"time"

	"github.com/contentgraph/docengine/cid"
)

func fixedNow() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

func TestNewSeedsInfoAndContentAddress(t *testing.T) {
	c, _ := cid.Compute("hello world")
	d := New("doc-1", DocumentInfo{Title: "Hello"}, c, fixedNow())

	if !d.HasComponent(TypeDocumentInfo) || !d.HasComponent(TypeContentAddress) {
		t.Fatal("expected DocumentInfo and ContentAddress after New")
	}
	if d.Version != 1 {
		t.Fatalf("version = %d, want 1", d.Version)
	}
}

func TestUploadPublishesDocument(t *testing.T) {
	c, _ := cid.Compute("hello world")
	d := New("doc-1", DocumentInfo{Title: "Draft"}, c, fixedNow())

	revised, _ := cid.Compute("revised content")
	d.Upload(DocumentInfo{Title: "Final"}, revised, Classification{Confidentiality: ConfidentialityInternal}, "report", "reviewer-1", fixedNow())

	lc, ok := d.store.lifecycle()
	if !ok {
		t.Fatal("expected Lifecycle component after upload")
	}
	if lc.Status != StatusPublished {
		t.Fatalf("status = %s, want published", lc.Status)
	}
}

func TestUploadPublishesOverExistingLifecycle(t *testing.T) {
	c, _ := cid.Compute("content")
	d := New("doc-1", DocumentInfo{}, c, fixedNow())
	d.AddComponent(Lifecycle{Status: StatusUnderReview, CreatedAt: fixedNow()}, "system", "seed", fixedNow())

	d.Upload(DocumentInfo{Title: "Final"}, c, Classification{}, "report", "reviewer-1", fixedNow())

	lc, _ := d.store.lifecycle()
	if lc.Status != StatusPublished {
		t.Fatalf("status = %s, want published", lc.Status)
	}
}

func TestAddComponentRejectsDuplicate(t *testing.T) {
	c, _ := cid.Compute("content")
	d := New("doc-1", DocumentInfo{}, c, fixedNow())

	err := d.AddComponent(Ownership{OwnerID: "u1"}, "u1", "seed", fixedNow())
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	err = d.AddComponent(Ownership{OwnerID: "u2"}, "u1", "retry", fixedNow())
	if err == nil {
		t.Fatal("expected ComponentDuplicate on second add")
	}
}

func TestRemoveThenAddRestoresInvariant(t *testing.T) {
	c, _ := cid.Compute("content")
	d := New("doc-1", DocumentInfo{}, c, fixedNow())
	d.AddComponent(Ownership{OwnerID: "u1"}, "u1", "seed", fixedNow())

	if err := d.RemoveComponent(TypeOwnership, fixedNow()); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := d.AddComponent(Ownership{OwnerID: "u2"}, "u1", "replace", fixedNow()); err != nil {
		t.Fatalf("re-add after remove: %v", err)
	}
	got, _ := d.Component(TypeOwnership)
	if got.(Ownership).OwnerID != "u2" {
		t.Fatalf("expected re-added owner u2, got %+v", got)
	}
}

func TestVersionStrictlyIncreasesOnMutation(t *testing.T) {
	c, _ := cid.Compute("content")
	d := New("doc-1", DocumentInfo{}, c, fixedNow())
	before := d.Version

	d.AddComponent(Ownership{OwnerID: "u1"}, "u1", "seed", fixedNow())
	if d.Version <= before {
		t.Fatalf("version did not increase: before=%d after=%d", before, d.Version)
	}
}

func TestUpdateMetadataPreservesUnsetFields(t *testing.T) {
	c, _ := cid.Compute("content")
	d := New("doc-1", DocumentInfo{Title: "Original", MimeType: "text/plain"}, c, fixedNow())

	err := d.UpdateMetadata(DocumentInfo{Title: "Renamed"}, "u1", fixedNow())
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	info, _ := d.Component(TypeDocumentInfo)
	di := info.(DocumentInfo)
	if di.Title != "Renamed" {
		t.Fatalf("title = %q, want Renamed", di.Title)
	}
	if di.MimeType != "text/plain" {
		t.Fatalf("MimeType was not preserved: %q", di.MimeType)
	}
}

func TestShareDeduplicatesAndCoercesInvalidIDs(t *testing.T) {
	c, _ := cid.Compute("content")
	d := New("doc-1", DocumentInfo{}, c, fixedNow())

	d.Share([]string{"not-a-uuid", "not-a-uuid"}, []Permission{PermissionRead}, "owner", fixedNow())
	ac, _ := d.store.accessControl()
	if len(ac.ReadIDs) != 1 {
		t.Fatalf("expected deduplication to 1 read id, got %v", ac.ReadIDs)
	}

	d.Share([]string{"not-a-uuid"}, []Permission{PermissionRead}, "owner", fixedNow())
	ac, _ = d.store.accessControl()
	if len(ac.ReadIDs) != 1 {
		t.Fatalf("expected coercion to remain idempotent across calls, got %v", ac.ReadIDs)
	}
}

func TestArchiveFailsWithoutLifecycle(t *testing.T) {
	c, _ := cid.Compute("content")
	d := New("doc-1", DocumentInfo{}, c, fixedNow())

	if err := d.Archive("retention expired", "admin", fixedNow()); err == nil {
		t.Fatal("expected ComponentNotFound without a Lifecycle component")
	}
}

func TestArchiveSetsStatus(t *testing.T) {
	c, _ := cid.Compute("content")
	d := New("doc-1", DocumentInfo{}, c, fixedNow())
	d.AddComponent(Lifecycle{Status: StatusDraft, CreatedAt: fixedNow()}, "system", "seed", fixedNow())

	if err := d.Archive("done", "admin", fixedNow()); err != nil {
		t.Fatalf("archive: %v", err)
	}
	lc, _ := d.store.lifecycle()
	if lc.Status != StatusArchived {
		t.Fatalf("status = %s, want archived", lc.Status)
	}
}

func TestApplySuccessorUpdatesContentAddress(t *testing.T) {
	root, _ := cid.Compute("v1")
	d := New("doc-1", DocumentInfo{}, root, fixedNow())
	successor, _ := cid.Compute("v2")

	if err := d.ApplySuccessor(successor, fixedNow()); err != nil {
		t.Fatalf("apply successor: %v", err)
	}
	ca, _ := d.store.contentAddress()
	if ca.ContentCID != string(successor) {
		t.Fatalf("content cid = %s, want %s", ca.ContentCID, successor)
	}
}
