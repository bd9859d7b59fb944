package message

import (
	"fmt"
	"strings"
)

// Subject is a dot-separated routing key following the grammar in spec
// §4.7: <namespace>.<domain>.<scope>.<operation>[.<entity-id>].
//
// namespace is one of {domain, events, commands, queries, integration};
// domain is always the literal "document"; scope names an aggregate,
// optionally scoped to a user and/or a cid; operation is a snake_case
// verb.
type Subject string

// Namespace values (spec §4.7).
const (
	NamespaceDomain      = "domain"
	NamespaceEvents      = "events"
	NamespaceCommands    = "commands"
	NamespaceQueries     = "queries"
	NamespaceIntegration = "integration"
)

// Aggregate values (spec §4.7).
const (
	AggregateDocument     = "document"
	AggregateVersion      = "version"
	AggregateMetadata     = "metadata"
	AggregateContent      = "content"
	AggregateTemplate     = "template"
	AggregateCollection   = "collection"
	AggregateWorkflow     = "workflow"
	AggregateSearch       = "search"
	AggregateClassif      = "classification"
	AggregateRelationship = "relationship"
	AggregateComment      = "comment"
)

// New builds a subject of the form
// <namespace>.document.<scope>.<operation>[.<entityID>].
func New(namespace, scope, operation string, entityID ...string) Subject {
	parts := []string{namespace, "document", scope, operation}
	parts = append(parts, entityID...)
	return Subject(strings.Join(parts, "."))
}

// ForAggregate builds a subject scoped to a bare aggregate, e.g.
// "events.document.workflow.workflow_started".
func ForAggregate(namespace, aggregate, operation string, entityID ...string) Subject {
	return New(namespace, aggregate, operation, entityID...)
}

// ForUser builds a subject scoped to "user.<uid>[.<aggregate>]".
func ForUser(namespace, userID, aggregate, operation string, entityID ...string) Subject {
	scope := "user." + userID
	if aggregate != "" {
		scope += "." + aggregate
	}
	return New(namespace, scope, operation, entityID...)
}

// ForCid builds a subject scoped to "cid.<cid>[.<aggregate>]".
func ForCid(namespace, cid, aggregate, operation string, entityID ...string) Subject {
	scope := "cid." + cid
	if aggregate != "" {
		scope += "." + aggregate
	}
	return New(namespace, scope, operation, entityID...)
}

// ForUserDocument builds "user.<uid>.document.<docid>" scoped subjects.
func ForUserDocument(namespace, userID, docID, operation string) Subject {
	scope := fmt.Sprintf("user.%s.document.%s", userID, docID)
	return New(namespace, scope, operation)
}

// ForCidUser builds "cid.<cid>.user.<uid>" scoped subjects.
func ForCidUser(namespace, cid, userID, operation string) Subject {
	scope := fmt.Sprintf("cid.%s.user.%s", cid, userID)
	return New(namespace, scope, operation)
}

// Predefined wildcard patterns (spec §4.7).
const (
	// PatternAllDocumentEvents matches every document domain event.
	PatternAllDocumentEvents Subject = "events.document.>"
	// PatternAllWorkflowEvents matches every workflow event.
	PatternAllWorkflowEvents Subject = "events.document.workflow.>"
	// PatternAllCommands matches every command regardless of aggregate.
	PatternAllCommands Subject = "commands.document.>"
	// PatternAllQueries matches every query regardless of aggregate.
	PatternAllQueries Subject = "queries.document.>"
)

// PatternCidEvents matches all events scoped to a specific cid.
func PatternCidEvents(cid string) Subject {
	return Subject(fmt.Sprintf("events.document.cid.%s.>", cid))
}

// PatternUserEvents matches all events scoped to a specific user.
func PatternUserEvents(userID string) Subject {
	return Subject(fmt.Sprintf("events.document.user.%s.>", userID))
}

// PatternUserDocumentEvents matches events for one user acting on one
// document.
func PatternUserDocumentEvents(userID, docID string) Subject {
	return Subject(fmt.Sprintf("events.document.user.%s.document.%s.>", userID, docID))
}

// Matches reports whether the subject matches pattern using NATS-style
// wildcards: "*" matches exactly one token, ">" matches one-or-more
// trailing tokens and must be the final token of the pattern.
func Matches(pattern, subject Subject) bool {
	pTokens := strings.Split(string(pattern), ".")
	sTokens := strings.Split(string(subject), ".")

	for i, pt := range pTokens {
		if pt == ">" {
			// ">" must be the last pattern token and matches the rest,
			// so it requires at least one remaining subject token.
			return i < len(sTokens)
		}
		if i >= len(sTokens) {
			return false
		}
		if pt == "*" {
			continue
		}
		if pt != sTokens[i] {
			return false
		}
	}
	// No trailing ">" — token counts must match exactly.
	return len(pTokens) == len(sTokens)
}

// Validate checks the subject against the grammar's minimal shape: at
// least namespace.document.scope.operation (4 tokens), with a known
// namespace as the first token.
func (s Subject) Validate() error {
	tokens := strings.Split(string(s), ".")
	if len(tokens) < 4 {
		return fmt.Errorf("subject %q has fewer than 4 tokens", s)
	}
	switch tokens[0] {
	case NamespaceDomain, NamespaceEvents, NamespaceCommands, NamespaceQueries, NamespaceIntegration:
	default:
		return fmt.Errorf("subject %q has unknown namespace %q", s, tokens[0])
	}
	if tokens[1] != "document" {
		return fmt.Errorf("subject %q has domain %q, want %q", s, tokens[1], "document")
	}
	return nil
}

// Router matches published subjects against a set of subscriber patterns.
// It is a local in-process implementation of the algebra; the NATS-style
// bus itself is an external collaborator (spec §1) not implemented here.
type Router struct {
	subs map[string][]func(Subject, interface{})
}

// NewRouter constructs an empty Router.
func NewRouter() *Router {
	return &Router{subs: make(map[string][]func(Subject, interface{}))}
}

// Subscribe registers handler to receive every publish whose subject
// matches pattern.
func (r *Router) Subscribe(pattern Subject, handler func(Subject, interface{})) {
	r.subs[string(pattern)] = append(r.subs[string(pattern)], handler)
}

// Publish delivers payload on subject to every matching subscriber.
// Handlers registered under the same pattern run in subscription order;
// the order across different patterns is not defined.
func (r *Router) Publish(subject Subject, payload interface{}) {
	for pattern, handlers := range r.subs {
		if Matches(Subject(pattern), subject) {
			for _, h := range handlers {
				h(subject, payload)
			}
		}
	}
}
