package document

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/contentgraph/docengine/cid"
	"github.com/contentgraph/docengine/docerr"
	"github.com/google/uuid"
)

// Document is the event-sourced aggregate of spec §3: an id, a
// monotonically increasing version, and a typed component store. All
// mutating operations are synchronous, deterministic, and free of I/O
// (spec §4.2).
type Document struct {
	ID        string
	Version   uint64
	store     componentStore
}

// New seeds a document with DocumentInfo and ContentAddress components
// (spec §4.2 new).
func New(id string, info DocumentInfo, contentCID cid.CID, now time.Time) *Document {
	d := &Document{ID: id, store: newComponentStore()}
	d.store.put(info, "system", "initial upload", now)
	d.store.put(ContentAddress{
		ContentCID: string(contentCID),
		Algorithm:  contentCID.Algorithm(),
		Encoding:   "identity",
	}, "system", "initial upload", now)
	d.Version = 1
	return d
}

// NewChunked seeds a document whose content is split across chunks (spec
// §4.2 new_chunked): the ContentAddress is marked chunked, uses the
// "dag-pb" encoding, and its content_cid points at the metadata CID rather
// than a single blob.
func NewChunked(id string, info DocumentInfo, chunkCIDs []cid.CID, metadataCID cid.CID, now time.Time) *Document {
	d := &Document{ID: id, store: newComponentStore()}
	d.store.put(info, "system", "initial chunked upload", now)
	chunks := make([]string, len(chunkCIDs))
	for i, c := range chunkCIDs {
		chunks[i] = string(c)
	}
	d.store.put(ContentAddress{
		ContentCID:  string(metadataCID),
		MetadataCID: string(metadataCID),
		Algorithm:   metadataCID.Algorithm(),
		Encoding:    "dag-pb",
		Chunked:     true,
		ChunkCIDs:   chunks,
	}, "system", "initial chunked upload", now)
	d.Version = 1
	return d
}

// bump advances the version counter. Every mutating operation calls this
// exactly once (spec §4.2:
// version strictly increases on every successful mutation).
func (d *Document) bump() {
	d.Version++
}

// AddComponent inserts c, failing ComponentDuplicate if that type is
// already present (spec §4.1, §4.2 add_component).
func (d *Document) AddComponent(c Component, addedBy, reason string, now time.Time) error {
	if err := d.store.add(c, addedBy, reason, now); err != nil {
		return err
	}
	d.bump()
	d.touchModified(now)
	return nil
}

// RemoveComponent deletes the component of type t, failing
// ComponentNotFound if absent (spec §4.2 remove_component).
func (d *Document) RemoveComponent(t TypeName, now time.Time) error {
	if err := d.store.remove(t); err != nil {
		return err
	}
	d.bump()
	d.touchModified(now)
	return nil
}

// Component returns the component of type t, or ok=false if absent.
func (d *Document) Component(t TypeName) (Component, bool) {
	return d.store.get(t)
}

// HasComponent reports whether a component of type t is present.
func (d *Document) HasComponent(t TypeName) bool { return d.store.has(t) }

// ComponentTypes lists every component type currently present.
func (d *Document) ComponentTypes() []TypeName { return d.store.types() }

// Upload reseats DocumentInfo, ContentAddress, Classification, and
// Lifecycle in one operation (spec §4.2 upload). Callers are responsible
// for emitting the resulting DocumentUploaded event; this aggregate method
// performs only the state change.
func (d *Document) Upload(info DocumentInfo, contentCID cid.CID, classification Classification, docType string, uploadedBy string, now time.Time) {
	classification.DocType = docType
	d.store.put(info, uploadedBy, "upload", now)
	d.store.put(ContentAddress{
		ContentCID: string(contentCID),
		Algorithm:  contentCID.Algorithm(),
		Encoding:   "identity",
	}, uploadedBy, "upload", now)
	d.store.put(classification, uploadedBy, "upload", now)

	lc, existed := d.store.lifecycle()
	if !existed {
		lc = Lifecycle{CreatedAt: now}
	}
	lc.Status = StatusPublished
	lc.ModifiedAt = now
	d.store.put(lc, uploadedBy, "upload", now)

	d.bump()
}

// UpdateMetadata replaces DocumentInfo, preserving any field left zero in
// the incoming value (spec §4.2 update_metadata). Fails ComponentNotFound
// if no DocumentInfo is present yet.
func (d *Document) UpdateMetadata(incoming DocumentInfo, updatedBy string, now time.Time) error {
	existing, ok := d.store.documentInfo()
	if !ok {
		return docerr.ComponentNotFound(string(TypeDocumentInfo))
	}
	merged := mergeDocumentInfo(existing, incoming)
	d.store.put(merged, updatedBy, "metadata update", now)
	d.touchModified(now)
	d.bump()
	return nil
}

// mergeDocumentInfo implements the "replace if present, else keep prior"
// reducer for DocumentInfo fields.
func mergeDocumentInfo(prev, delta DocumentInfo) DocumentInfo {
	if delta.Title != "" {
		prev.Title = delta.Title
	}
	if delta.Description != "" {
		prev.Description = delta.Description
	}
	if delta.MimeType != "" {
		prev.MimeType = delta.MimeType
	}
	if delta.Filename != "" {
		prev.Filename = delta.Filename
	}
	if delta.SizeBytes != 0 {
		prev.SizeBytes = delta.SizeBytes
	}
	if delta.Language != "" {
		prev.Language = delta.Language
	}
	return prev
}

// Permission is one of the three grants Share can upsert.
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
	PermissionShare Permission = "share"
)

// Share upserts AccessControl, deduplicating user ids per permission list
// (spec §4.2 share). Strings that do not parse as a uuid are coerced to a
// deterministic opaque id derived from their SHA-256 hash rather than
// rejected, so repeated calls with the same malformed input remain
// idempotent (spec §9 design note).
func (d *Document) Share(users []string, permissions []Permission, sharedBy string, now time.Time) {
	ac, _ := d.store.accessControl()
	resolved := make([]string, len(users))
	for i, u := range users {
		resolved[i] = resolveUserID(u)
	}

	for _, p := range permissions {
		switch p {
		case PermissionRead:
			ac.ReadIDs = dedupAppend(ac.ReadIDs, resolved)
		case PermissionWrite:
			ac.WriteIDs = dedupAppend(ac.WriteIDs, resolved)
		case PermissionShare:
			ac.ShareIDs = dedupAppend(ac.ShareIDs, resolved)
		}
	}

	d.store.put(ac, sharedBy, "share", now)
	d.touchModified(now)
	d.bump()
}

// resolveUserID returns u unchanged if it parses as a uuid, else a
// deterministic opaque id derived from its hash.
func resolveUserID(u string) string {
	if _, err := uuid.Parse(u); err == nil {
		return u
	}
	sum := sha256.Sum256([]byte(u))
	return "opaque:" + hex.EncodeToString(sum[:16])
}

func dedupAppend(existing []string, add []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, id := range existing {
		seen[id] = true
	}
	out := existing
	for _, id := range add {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Archive sets Lifecycle.status=Archived (spec §4.2 archive). Fails
// ComponentNotFound if Lifecycle is absent.
func (d *Document) Archive(reason, archivedBy string, now time.Time) error {
	lc, ok := d.store.lifecycle()
	if !ok {
		return docerr.ComponentNotFound(string(TypeLifecycle))
	}
	lc.Status = StatusArchived
	lc.ModifiedAt = now
	d.store.put(lc, archivedBy, reason, now)
	d.bump()
	return nil
}

// ApplySuccessor updates ContentAddress.ContentCID to point at the new
// content and touches Lifecycle (spec §4.2 apply_successor). It does not
// itself extend a CidChain — that is the chain service's responsibility
// (package cid).
func (d *Document) ApplySuccessor(successor cid.CID, now time.Time) error {
	ca, ok := d.store.contentAddress()
	if !ok {
		return docerr.ComponentNotFound(string(TypeContentAddress))
	}
	ca.ContentCID = string(successor)
	d.store.put(ca, "system", "successor applied", now)
	d.touchModified(now)
	d.bump()
	return nil
}

// touchModified bumps Lifecycle.ModifiedAt if a Lifecycle component is
// present; a document created via New/NewChunked has none until Upload or
// AddComponent seats one, so this is a no-op until then.
func (d *Document) touchModified(now time.Time) {
	if lc, ok := d.store.lifecycle(); ok {
		lc.ModifiedAt = now
		d.store.components[TypeLifecycle] = lc
	}
}
