// Package document implements the typed-component document aggregate and
// its successor-chain integration (spec §3 Document aggregate, §4.1-4.2).
package document

import "time"

// TypeName identifies a component's type for the heterogeneous store. Go
// lacks the reflection-free typed map the original system assumes, so
// every component type declares a stable string key (spec §4.1) used as
// the store key, in metadata, audit logs, and event envelopes.
type TypeName string

const (
	TypeDocumentInfo    TypeName = "document_info"
	TypeContentAddress  TypeName = "content_address"
	TypeClassification  TypeName = "classification"
	TypeOwnership       TypeName = "ownership"
	TypeLifecycle       TypeName = "lifecycle"
	TypeAccessControl   TypeName = "access_control"
	TypeRelationships   TypeName = "relationships"
	TypeProcessing      TypeName = "processing"
)

// Component is implemented by every typed component value so the store can
// key it without reflection.
type Component interface {
	TypeName() TypeName
}

// DocumentInfo is the closed-set component holding basic file metadata
// (spec §3).
type DocumentInfo struct {
	Title       string
	Description string
	MimeType    string
	Filename    string
	SizeBytes   int64
	Language    string
}

func (DocumentInfo) TypeName() TypeName { return TypeDocumentInfo }

// ContentAddress locates a document's current content (spec §3).
type ContentAddress struct {
	ContentCID string
	MetadataCID string
	Algorithm   string
	Encoding    string
	Chunked     bool
	ChunkCIDs   []string
}

func (ContentAddress) TypeName() TypeName { return TypeContentAddress }

// Confidentiality is the closed set of classification sensitivity levels.
type Confidentiality string

const (
	ConfidentialityPublic             Confidentiality = "public"
	ConfidentialityInternal           Confidentiality = "internal"
	ConfidentialityConfidential       Confidentiality = "confidential"
	ConfidentialityHighlyConfidential Confidentiality = "highly_confidential"
	ConfidentialityRestricted         Confidentiality = "restricted"
)

// Classification tags a document's type and sensitivity (spec §3).
type Classification struct {
	DocType         string
	Category        string
	Subcategories   []string
	Tags            []string
	Confidentiality Confidentiality
}

func (Classification) TypeName() TypeName { return TypeClassification }

// Ownership records who owns and authored a document (spec §3).
type Ownership struct {
	OwnerID    string
	AuthorIDs  []string
	Department string
	Project    string
	Copyright  string
}

func (Ownership) TypeName() TypeName { return TypeOwnership }

// Status is the closed set of document lifecycle states.
type Status string

const (
	StatusDraft              Status = "draft"
	StatusUnderReview        Status = "under_review"
	StatusPublished          Status = "published"
	StatusArchived           Status = "archived"
	StatusMarkedForDeletion  Status = "marked_for_deletion"
	StatusSuperseded         Status = "superseded"
)

// Lifecycle tracks a document's status and time-based fields (spec §3).
type Lifecycle struct {
	Status          Status
	CreatedAt       time.Time
	ModifiedAt      time.Time
	VersionLabel    string
	PreviousVersion string
	ExpiresAt       *time.Time
	RetentionPolicy string
}

func (Lifecycle) TypeName() TypeName { return TypeLifecycle }

// AccessControl lists which users may read, write, or share (spec §3).
type AccessControl struct {
	ReadIDs       []string
	WriteIDs      []string
	ShareIDs      []string
	Audit         bool
	EncryptionKey string
}

func (AccessControl) TypeName() TypeName { return TypeAccessControl }

// Relation is one typed link from this document to another entity.
type Relation struct {
	Kind       string
	TargetID   string
}

// Relationships records structural links to other documents (spec §3).
type Relationships struct {
	ParentID            string
	Relations           []Relation
	ExternalReferences  []string
}

func (Relationships) TypeName() TypeName { return TypeRelationships }

// Thumbnail is one derived preview rendition.
type Thumbnail struct {
	CID    string
	Width  int
	Height int
}

// Processing tracks derived-artifact state (spec §3).
type Processing struct {
	TextExtracted    bool
	ExtractedTextCID string
	OCRApplied       bool
	Thumbnails       []Thumbnail
	Indexed          bool
	Errors           []string
}

func (Processing) TypeName() TypeName { return TypeProcessing }
