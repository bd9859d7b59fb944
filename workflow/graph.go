// Package workflow implements the graph-structured workflow engine of
// spec §4.4-4.5: typed nodes, guarded edges, parallel/join semantics, SLA
// timers, and the small expression language used for edge conditions.
package workflow

import (
	"fmt"
	"regexp"
	"sort"
)

// NodeKind is the tagged-union discriminant for WorkflowNode (spec §3).
// Go has no native sum type, so Node carries a Kind plus exactly one
// populated variant field (a struct of pointers, one per variant).
type NodeKind string

const (
	NodeStart    NodeKind = "start"
	NodeTask     NodeKind = "task"
	NodeDecision NodeKind = "decision"
	NodeParallel NodeKind = "parallel"
	NodeJoin     NodeKind = "join"
	NodeTimer    NodeKind = "timer"
	NodeEnd      NodeKind = "end"
)

// TaskType enumerates Task node execution modes (spec §3).
type TaskType string

const (
	TaskManual       TaskType = "manual"
	TaskAutomatic    TaskType = "automatic"
	TaskReview       TaskType = "review"
	TaskNotification TaskType = "notification"
	TaskIntegration  TaskType = "integration"
)

// StartNode runs actions before the workflow's initial nodes become active.
type StartNode struct {
	Actions []Action
}

// TaskNode is work assigned to a person, process, or integration.
type TaskNode struct {
	Type        TaskType
	Assignees   []string
	DurationSLA *DurationSLA
	Guards      []Guard
	Actions     []Action
}

// DurationSLA names the node's time budget, used to schedule a deadline at
// entry (spec §4.5 Timers and SLA).
type DurationSLA struct {
	Seconds int64
}

// NamedCondition is one of a DecisionNode's labeled branches; the actual
// routing decision is still made by evaluating the outgoing Edge's own
// Condition (spec §4.5.1) — branches exist so validation and tooling can
// enumerate a decision's possible outcomes by name.
type NamedCondition struct {
	Name      string
	Condition Condition
}

// DecisionNode fans out along named condition branches.
type DecisionNode struct {
	Branches []NamedCondition
	Actions  []Action
}

// ParallelNode enables all outgoing edges at once (spec §4.5 Parallel/Join
// semantics).
type ParallelNode struct {
	MinBranches int
	Actions     []Action
}

// JoinKind enumerates the ways a Join node's incoming branches can satisfy
// it (spec §3).
type JoinKind string

const (
	JoinWaitAll      JoinKind = "wait_all"
	JoinWaitAny      JoinKind = "wait_any"
	JoinWaitCount    JoinKind = "wait_count"
	JoinWaitSpecific JoinKind = "wait_specific"
)

// JoinStrategy configures when a Join node is satisfied.
type JoinStrategy struct {
	Kind    JoinKind
	Count   int      // JoinWaitCount
	NodeIDs []string // JoinWaitSpecific
}

// JoinNode synchronizes multiple parallel branches.
type JoinNode struct {
	Strategy JoinStrategy
	Actions  []Action
}

// TimerKind enumerates Timer node behaviors (spec §3).
type TimerKind string

const (
	TimerDeadline TimerKind = "deadline"
	TimerSLA      TimerKind = "sla"
	TimerReminder TimerKind = "reminder"
	TimerCleanup  TimerKind = "cleanup"
	TimerDelay    TimerKind = "delay"
)

// EscalationRule names an action set run after a duration elapses without
// resolution (spec §3 Timer escalation rules).
type EscalationRule struct {
	AfterSeconds int64
	Actions      []Action
}

// TimerNode fires on a schedule computed at entry time.
type TimerNode struct {
	Kind        TimerKind
	Seconds     int64
	OnTimeout   []Action
	Escalations []EscalationRule
}

// CompletionStatus is the closed set of terminal outcomes for an End node.
type CompletionStatus string

const (
	CompletionSuccess   CompletionStatus = "success"
	CompletionWarning   CompletionStatus = "warning"
	CompletionError     CompletionStatus = "error"
	CompletionCancelled CompletionStatus = "cancelled"
)

// EndNode terminates a branch of execution.
type EndNode struct {
	Actions    []Action
	Completion CompletionStatus
}

// Node is a workflow graph vertex: exactly one of the variant fields
// matching Kind is populated.
type Node struct {
	ID       string
	Kind     NodeKind
	Start    *StartNode
	Task     *TaskNode
	Decision *DecisionNode
	Parallel *ParallelNode
	Join     *JoinNode
	Timer    *TimerNode
	End      *EndNode
}

// Edge connects two nodes, optionally guarded by a Condition (spec §3).
type Edge struct {
	ID        string
	From      string
	To        string
	Condition *Condition
	Weight    int
	Metadata  map[string]string
}

// Definition is a complete workflow graph: nodes, edges, declared
// variables with defaults, and descriptive metadata (spec §3
// WorkflowDefinition).
type Definition struct {
	ID              string
	Name            string
	Category        string
	Tags            []string
	Active          bool
	DefaultVariables map[string]interface{}
	Nodes           map[string]Node
	Edges           []Edge
}

// StartNodeIDs returns the ids of every Start node.
func (d *Definition) StartNodeIDs() []string { return d.nodeIDsOfKind(NodeStart) }

// EndNodeIDs returns the ids of every End node.
func (d *Definition) EndNodeIDs() []string { return d.nodeIDsOfKind(NodeEnd) }

func (d *Definition) nodeIDsOfKind(k NodeKind) []string {
	var ids []string
	for id, n := range d.Nodes {
		if n.Kind == k {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (d *Definition) outgoing(nodeID string) []Edge {
	var out []Edge
	for _, e := range d.Edges {
		if e.From == nodeID {
			out = append(out, e)
		}
	}
	return out
}

func (d *Definition) incoming(nodeID string) []Edge {
	var out []Edge
	for _, e := range d.Edges {
		if e.To == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// EdgeBetween returns the unique edge from->to, or ok=false if none exists
// (spec §4.5 execute_transition step 2).
func (d *Definition) EdgeBetween(from, to string) (Edge, bool) {
	for _, e := range d.Edges {
		if e.From == from && e.To == to {
			return e, true
		}
	}
	return Edge{}, false
}

// ValidationResult reports hard errors and soft warnings from Validate.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// Validate checks the structural rules of spec §4.4.
func (d *Definition) Validate() ValidationResult {
	var errs []string

	starts := d.StartNodeIDs()
	ends := d.EndNodeIDs()
	if len(starts) == 0 {
		errs = append(errs, "definition has no Start node")
	}
	if len(ends) == 0 {
		errs = append(errs, "definition has no End node")
	}

	for _, e := range d.Edges {
		if _, ok := d.Nodes[e.From]; !ok {
			errs = append(errs, fmt.Sprintf("edge %s references unknown from-node %s", e.ID, e.From))
		}
		if _, ok := d.Nodes[e.To]; !ok {
			errs = append(errs, fmt.Sprintf("edge %s references unknown to-node %s", e.ID, e.To))
		}
	}

	for _, id := range starts {
		if len(d.outgoing(id)) == 0 {
			errs = append(errs, fmt.Sprintf("start node %s has no outgoing edge", id))
		}
	}
	for _, id := range ends {
		if len(d.incoming(id)) == 0 {
			errs = append(errs, fmt.Sprintf("end node %s has no incoming edge", id))
		}
	}

	for id, n := range d.Nodes {
		if n.Kind == NodeStart || n.Kind == NodeEnd {
			continue
		}
		if len(d.incoming(id)) == 0 {
			errs = append(errs, fmt.Sprintf("node %s has no incoming edge", id))
		}
		if len(d.outgoing(id)) == 0 {
			errs = append(errs, fmt.Sprintf("node %s has no outgoing edge", id))
		}
	}

	return ValidationResult{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: d.Warnings(),
	}
}

// Warnings computes reachability by forward BFS from the start nodes and
// reports every node the graph never reaches. Unreachable nodes are
// allowed to exist (spec §4.4) but a complete implementation SHOULD
// surface them (original_source definitions.rs computes this as a
// validation warning distinct from hard errors).
func (d *Definition) Warnings() []string {
	reached := make(map[string]bool)
	queue := d.StartNodeIDs()
	for _, id := range queue {
		reached[id] = true
	}
	for i := 0; i < len(queue); i++ {
		for _, e := range d.outgoing(queue[i]) {
			if !reached[e.To] {
				reached[e.To] = true
				queue = append(queue, e.To)
			}
		}
	}

	var warnings []string
	var unreachable []string
	for id := range d.Nodes {
		if !reached[id] {
			unreachable = append(unreachable, id)
		}
	}
	sort.Strings(unreachable)
	for _, id := range unreachable {
		warnings = append(warnings, fmt.Sprintf("node %s is unreachable from any start node", id))
	}
	return warnings
}

var variablePattern = regexp.MustCompile(`\$\{([a-zA-Z_][\w.]*)\}|\b([a-zA-Z_]\w*(?:\.[a-zA-Z_]\w*)+)\b`)

// DiscoverVariables extracts variable references from a condition
// expression using the syntactic rule of spec §3: look for `${name}` and
// `obj.field` patterns.
func DiscoverVariables(expr string) []string {
	matches := variablePattern.FindAllStringSubmatch(expr, -1)
	seen := make(map[string]bool)
	var out []string
	for _, m := range matches {
		name := m[1]
		if name == "" {
			name = m[2]
		}
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
