// Package repository provides persistence for workflow instances,
// definitions, and their audit trail (spec §6 External Interfaces).
package repository

import (
	"context"
	"time"

	"github.com/contentgraph/docengine/workflow"
)

// AuditEntry records one repository-observed mutation, independent of the
// instance's own event chain — this is an operational trail (who called
// what, when), not a content-addressed integrity chain.
type AuditEntry struct {
	ID         string
	InstanceID string
	Action     string
	Actor      string
	At         time.Time
	Detail     string
}

// Repository is the full persistence contract: instances, definitions, the
// audit trail, and crash-recovery enumeration. The engine only depends on
// the narrower workflow.Store (SaveInstance/LoadInstance/LoadDefinition),
// which every implementation here satisfies structurally.
type Repository interface {
	SaveInstance(ctx context.Context, inst *workflow.Instance) error
	LoadInstance(ctx context.Context, id string) (*workflow.Instance, error)
	FindInstancesByDocument(ctx context.Context, documentID string) ([]*workflow.Instance, error)
	FindInstancesByStatus(ctx context.Context, status workflow.Status) ([]*workflow.Instance, error)
	UpdateInstanceStatus(ctx context.Context, id string, status workflow.Status) error
	DeleteInstance(ctx context.Context, id string) error

	SaveDefinition(ctx context.Context, def *workflow.Definition) error
	LoadDefinition(ctx context.Context, id string) (*workflow.Definition, error)
	ListDefinitions(ctx context.Context) ([]*workflow.Definition, error)

	AppendAudit(ctx context.Context, entry AuditEntry) error
	ListAudit(ctx context.Context, instanceID string) ([]AuditEntry, error)

	// RecoverRunning enumerates every instance left in StatusRunning, for a
	// process restart to re-register their deadlines with workflow.Clock.
	RecoverRunning(ctx context.Context) ([]*workflow.Instance, error)
}
