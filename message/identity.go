// Package message provides the correlation/causation message-identity
// discipline and the subject algebra shared by every command, event, and
// query in the system (spec §3 MessageIdentity, §4.7 envelope & subjects).
package message

import (
	"github.com/google/uuid"

	"github.com/contentgraph/docengine/docerr"
)

// Identity is the correlation/causation triple every message carries.
//
// Rule M1 (root): MessageID == CorrelationID == CausationID.
// Rule M2 (caused): CorrelationID copies the parent's, CausationID is the
// parent's MessageID, and MessageID is fresh.
type Identity struct {
	MessageID     string
	CorrelationID string
	CausationID   string
}

// NewRootIdentity creates a root identity: a message that starts a new
// correlation. Satisfies rule M1 by construction.
func NewRootIdentity() Identity {
	id := uuid.NewString()
	return Identity{MessageID: id, CorrelationID: id, CausationID: id}
}

// NewCausedIdentity creates an identity for a message caused by parent.
// Satisfies rule M2 by construction: the correlation id is inherited and
// the causation id points at the parent's message id.
func NewCausedIdentity(parent Identity) Identity {
	return Identity{
		MessageID:     uuid.NewString(),
		CorrelationID: parent.CorrelationID,
		CausationID:   parent.MessageID,
	}
}

// Validate checks identity against rules M1/M2. isRoot distinguishes which
// rule applies; for a caused message, parent must be supplied so causation
// can be checked against it.
func (id Identity) Validate(isRoot bool, parent *Identity) error {
	if id.CorrelationID == "" {
		return docerr.MissingCorrelation()
	}
	if id.CausationID == "" {
		return docerr.MissingCausation()
	}
	if isRoot {
		if id.MessageID != id.CorrelationID || id.CorrelationID != id.CausationID {
			return docerr.MalformedRoot(id.MessageID, id.CorrelationID, id.CausationID)
		}
		return nil
	}
	if parent == nil {
		return docerr.MalformedCaused(id.CorrelationID, "", id.CausationID, "")
	}
	if id.CorrelationID != parent.CorrelationID || id.CausationID != parent.MessageID {
		return docerr.MalformedCaused(id.CorrelationID, parent.CorrelationID, id.CausationID, parent.MessageID)
	}
	return nil
}

// Actor identifies who or what originated a message: a human user or a
// system process acting autonomously (e.g. the timer tick, an automation).
type Actor struct {
	// Kind is either "user" or "system".
	Kind string
	// ID is the user's uuid for Kind=="user", or a stable system/process
	// name for Kind=="system".
	ID string
}

// UserActor constructs a user Actor.
func UserActor(userID string) Actor { return Actor{Kind: "user", ID: userID} }

// SystemActor constructs a system Actor.
func SystemActor(name string) Actor { return Actor{Kind: "system", ID: name} }

// Envelope wraps a payload with its message identity and originating
// actor (spec §4.7).
type Envelope struct {
	Identity Identity
	Actor    Actor
	Payload  interface{}
}

// CreateRoot constructs a root envelope, starting a new correlation.
func CreateRoot(payload interface{}, actor Actor) Envelope {
	return Envelope{Identity: NewRootIdentity(), Actor: actor, Payload: payload}
}

// CreateCausedBy constructs an envelope caused by parent's identity.
func CreateCausedBy(payload interface{}, parent Identity, actor Actor) Envelope {
	return Envelope{Identity: NewCausedIdentity(parent), Actor: actor, Payload: payload}
}
