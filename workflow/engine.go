package workflow

import (
	"context"
	"time"

	"github.com/contentgraph/docengine/docerr"
	"github.com/contentgraph/docengine/emit"
	"github.com/contentgraph/docengine/event"
	"github.com/contentgraph/docengine/message"
	"github.com/contentgraph/docengine/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Status is the closed set of WorkflowInstance states (spec §3).
type Status string

const (
	StatusRunning   Status = "running"
	StatusSuspended Status = "suspended"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusEscalated Status = "escalated"
)

// Transition is one recorded history entry (spec §3 WorkflowInstance).
type Transition struct {
	From        string
	To          string
	At          time.Time
	TriggeredBy string
}

// Instance is a running (or finished) execution of a Definition (spec §3
// WorkflowInstance). Invariant W1: CompletedAt is set iff Status is one of
// {Completed, Cancelled, Failed}. Invariant W2: every id in CurrentNodes
// exists in the parent Definition's graph.
type Instance struct {
	ID             string
	DefinitionID   string
	DocumentID     string
	CurrentNodes   map[string]bool
	Status         Status
	FailureMessage string
	Variables      map[string]interface{}
	Permissions    map[string][]string // user id -> granted permissions
	Deadlines      map[string]time.Time
	JoinVisited    map[string]map[string]bool // join node id -> visited predecessor ids since last exit
	History        []Transition
	StartedAt      time.Time
	CompletedAt    *time.Time
	InitiatorID    string

	EventChain *event.Chain
}

// Store is the subset of the repository contract the engine needs (spec
// §6 Repository interface, instances+definitions concerns). The full
// four-concern Repository (package repository) satisfies this interface
// structurally, mirroring the way the teacher's engine depends only on
// store.Store rather than a concrete backend.
type Store interface {
	SaveInstance(ctx context.Context, inst *Instance) error
	LoadInstance(ctx context.Context, id string) (*Instance, error)
	LoadDefinition(ctx context.Context, id string) (*Definition, error)
}

// Engine executes workflow transitions. It holds no per-instance state of
// its own beyond the executor's custom-action registry (spec §4.5: "the
// engine is otherwise stateless beyond caches"). Emitter and Metrics are
// both optional and nil-safe, matching the way the teacher injects
// emit.Emitter into its own engine.
type Engine struct {
	Store    Store
	Executor *Executor
	Emitter  emit.Emitter
	Metrics  *metrics.Collector

	// Logger is optional and nil-safe; when unset the engine stays silent.
	Logger *zap.SugaredLogger
}

// NewEngine builds an Engine backed by store, with observability disabled
// until WithEmitter/WithMetrics are applied.
func NewEngine(store Store) *Engine {
	return &Engine{Store: store, Executor: NewExecutor(), Emitter: emit.NewNullEmitter()}
}

// WithEmitter attaches an observability event sink.
func (e *Engine) WithEmitter(em emit.Emitter) *Engine {
	e.Emitter = em
	return e
}

// WithMetrics attaches a Prometheus collector.
func (e *Engine) WithMetrics(m *metrics.Collector) *Engine {
	e.Metrics = m
	return e
}

// WithLogger attaches a structured logger.
func (e *Engine) WithLogger(l *zap.SugaredLogger) *Engine {
	e.Logger = l
	return e
}

func (e *Engine) emit(instanceID, documentID, nodeID, kind string, meta map[string]interface{}) {
	if e.Emitter == nil {
		return
	}
	e.Emitter.Emit(emit.Event{
		InstanceID: instanceID, DocumentID: documentID, NodeID: nodeID, Kind: kind, Meta: meta,
	})
}

// StartWorkflow implements spec §4.5 start_workflow.
func (e *Engine) StartWorkflow(ctx context.Context, workflowID, documentID, initiatedBy string, initialContext map[string]interface{}) (*Instance, error) {
	def, err := e.Store.LoadDefinition(ctx, workflowID)
	if err != nil {
		return nil, docerr.WorkflowNotFound(workflowID)
	}
	if !def.Active {
		return nil, docerr.EngineError("definition " + workflowID + " is inactive")
	}

	now := time.Now().UTC()
	vars := make(map[string]interface{})
	for k, v := range def.DefaultVariables {
		vars[k] = v
	}
	for k, v := range initialContext {
		vars[k] = v
	}

	inst := &Instance{
		ID:           uuid.New().String(),
		DefinitionID: workflowID,
		DocumentID:   documentID,
		CurrentNodes: make(map[string]bool),
		Status:       StatusRunning,
		Variables:    vars,
		Permissions:  make(map[string][]string),
		Deadlines:    make(map[string]time.Time),
		JoinVisited:  make(map[string]map[string]bool),
		StartedAt:    now,
		InitiatorID:  initiatedBy,
		EventChain:   event.NewChain(),
	}
	for _, id := range def.StartNodeIDs() {
		inst.CurrentNodes[id] = true
	}

	if err := e.Store.SaveInstance(ctx, inst); err != nil {
		return nil, docerr.RepositoryError(err.Error())
	}

	root := message.NewRootIdentity()
	e.appendEvent(inst, "WorkflowStarted", "", root, now)
	for _, id := range def.StartNodeIDs() {
		e.appendEvent(inst, "NodeEntered", id, message.NewCausedIdentity(root), now)
		e.scheduleDeadline(inst, def, id, now)
	}

	if err := e.Store.SaveInstance(ctx, inst); err != nil {
		return nil, docerr.RepositoryError(err.Error())
	}
	e.bumpActiveInstances(ctx)
	return inst, nil
}

// bumpActiveInstances is a best-effort metrics update; it never blocks or
// fails a command on a recovery-enumeration error. Counting via
// RecoverRunning mirrors spec §6's crash-restart reconciliation query
// rather than adding a metrics-only repository method.
func (e *Engine) bumpActiveInstances(ctx context.Context) {
	if e.Metrics == nil {
		return
	}
	if r, ok := e.Store.(interface {
		RecoverRunning(context.Context) ([]*Instance, error)
	}); ok {
		if running, err := r.RecoverRunning(ctx); err == nil {
			e.Metrics.SetActiveInstances(len(running))
		}
	}
}

// appendEvent extends the instance's event chain with a content-addressed,
// causation-carrying link (spec §4.6).
func (e *Engine) appendEvent(inst *Instance, kind, nodeID string, identity message.Identity, now time.Time) {
	payload := map[string]interface{}{
		"kind":    kind,
		"node_id": nodeID,
		"message": identity,
	}
	_ = inst.EventChain.Append(kind, nodeID, payload, message.SystemActor("workflow-engine"), inst.EventChain.Head, now)
	e.emit(inst.ID, inst.DocumentID, nodeID, kind, payload)
}

func (e *Engine) scheduleDeadline(inst *Instance, def *Definition, nodeID string, now time.Time) {
	n, ok := def.Nodes[nodeID]
	if !ok {
		return
	}
	switch {
	case n.Kind == NodeTask && n.Task != nil && n.Task.DurationSLA != nil:
		inst.Deadlines[nodeID] = now.Add(time.Duration(n.Task.DurationSLA.Seconds) * time.Second)
	case n.Kind == NodeTimer && n.Timer != nil:
		inst.Deadlines[nodeID] = now.Add(time.Duration(n.Timer.Seconds) * time.Second)
	}
}

// ExecuteTransition implements spec §4.5 execute_transition.
func (e *Engine) ExecuteTransition(ctx context.Context, instanceID, fromNode, toNode, triggeredBy string, userRoles, userPermissions []string, documentSize int64, documentState string, transitionData map[string]interface{}) (*Instance, error) {
	inst, err := e.Store.LoadInstance(ctx, instanceID)
	if err != nil {
		return nil, docerr.WorkflowNotFound(instanceID)
	}
	def, err := e.Store.LoadDefinition(ctx, inst.DefinitionID)
	if err != nil {
		return nil, docerr.WorkflowNotFound(inst.DefinitionID)
	}

	if !inst.CurrentNodes[fromNode] {
		return nil, docerr.InvalidTransition(fromNode, toNode, "from-node is not current")
	}
	edge, ok := def.EdgeBetween(fromNode, toNode)
	if !ok {
		return nil, docerr.InvalidTransition(fromNode, toNode, "no such edge")
	}

	if edge.Condition != nil {
		ok, err := Evaluate(*edge.Condition, EvalContext{Variables: inst.Variables, NodeID: toNode})
		if err != nil {
			return nil, docerr.InvalidTransition(fromNode, toNode, err.Error())
		}
		if !ok {
			return nil, docerr.InvalidTransition(fromNode, toNode, "condition")
		}
	}

	target := def.Nodes[toNode]
	if target.Kind == NodeTask && target.Task != nil {
		gctx := GuardContext{
			UserRoles: userRoles, UserPermissions: userPermissions,
			DocumentSize: documentSize, DocumentState: documentState,
			Now: time.Now().UTC(),
		}
		for _, g := range target.Task.Guards {
			result := EvaluateGuard(g, gctx)
			switch result.Kind {
			case GuardDeny:
				if e.Metrics != nil {
					e.Metrics.IncrementGuardDenial(string(g.Kind))
				}
				return nil, docerr.GuardFailed(string(g.Kind), result.Reason)
			case GuardRequireAdditional:
				if e.Metrics != nil {
					e.Metrics.IncrementGuardDenial(string(g.Kind))
				}
				return nil, docerr.GuardFailed(string(g.Kind), "additional requirements needed", result.Requirements...)
			}
		}
	}

	for k, v := range transitionData {
		inst.Variables[k] = v
	}

	delete(inst.CurrentNodes, fromNode)
	inst.CurrentNodes[toNode] = true

	now := time.Now().UTC()
	inst.History = append(inst.History, Transition{From: fromNode, To: toNode, At: now, TriggeredBy: triggeredBy})

	actx := &ActionContext{Variables: inst.Variables, DocumentID: inst.DocumentID, UserID: triggeredBy, CurrentNodeID: fromNode, TargetNodeID: toNode}
	actions := nodeActions(target)
	result, _ := e.Executor.ExecuteAll(ctx, actions, actx)
	if result.Kind == ActionError {
		e.incrementTransitionOutcome("action_failed")
		if e.Logger != nil {
			e.Logger.Errorw("node action failed", "instance_id", instanceID, "node_id", toNode, "reason", result.Message)
		}
		return nil, docerr.ActionFailed("node:"+toNode, result.Message)
	}
	if result.Kind == ActionRequiresIntervention {
		inst.Status = StatusSuspended
		if err := e.Store.SaveInstance(ctx, inst); err != nil {
			return nil, docerr.RepositoryError(err.Error())
		}
		e.incrementTransitionOutcome("suspended")
		return inst, nil
	}

	if target.Kind == NodeEnd && len(inst.CurrentNodes) == 1 {
		inst.Status = StatusCompleted
		completedAt := now
		inst.CompletedAt = &completedAt
		e.appendEvent(inst, "WorkflowCompleted", toNode, message.NewRootIdentity(), now)
	} else {
		root := message.NewRootIdentity()
		e.appendEvent(inst, "NodeExited", fromNode, root, now)
		e.appendEvent(inst, "WorkflowTransitioned", fromNode+"->"+toNode, message.NewCausedIdentity(root), now)
		e.appendEvent(inst, "NodeEntered", toNode, message.NewCausedIdentity(root), now)
		e.scheduleDeadline(inst, def, toNode, now)
	}

	if err := e.Store.SaveInstance(ctx, inst); err != nil {
		return nil, docerr.RepositoryError(err.Error())
	}
	e.incrementTransitionOutcome("success")
	e.bumpActiveInstances(ctx)
	return inst, nil
}

func (e *Engine) incrementTransitionOutcome(outcome string) {
	if e.Metrics != nil {
		e.Metrics.IncrementTransition(outcome)
	}
}

func nodeActions(n Node) []Action {
	switch n.Kind {
	case NodeStart:
		if n.Start != nil {
			return n.Start.Actions
		}
	case NodeTask:
		if n.Task != nil {
			return n.Task.Actions
		}
	case NodeDecision:
		if n.Decision != nil {
			return n.Decision.Actions
		}
	case NodeParallel:
		if n.Parallel != nil {
			return n.Parallel.Actions
		}
	case NodeJoin:
		if n.Join != nil {
			return n.Join.Actions
		}
	case NodeTimer:
		if n.Timer != nil {
			return n.Timer.OnTimeout
		}
	case NodeEnd:
		if n.End != nil {
			return n.End.Actions
		}
	}
	return nil
}

// EnableParallel adds every successor of a Parallel node to current_nodes
// (spec §4.5 Parallel/Join semantics).
func EnableParallel(def *Definition, inst *Instance, parallelNodeID string) {
	for _, e := range def.outgoing(parallelNodeID) {
		inst.CurrentNodes[e.To] = true
	}
}

// JoinSatisfied reports whether a Join node's strategy is met given the
// predecessors that have reached it (spec §4.5 Parallel/Join semantics).
func JoinSatisfied(def *Definition, inst *Instance, joinNodeID string, strategy JoinStrategy) bool {
	visited := inst.JoinVisited[joinNodeID]
	predecessors := def.incoming(joinNodeID)

	switch strategy.Kind {
	case JoinWaitAll:
		for _, e := range predecessors {
			if !visited[e.From] {
				return false
			}
		}
		return len(predecessors) > 0
	case JoinWaitAny:
		return len(visited) > 0
	case JoinWaitCount:
		return len(visited) >= strategy.Count
	case JoinWaitSpecific:
		for _, id := range strategy.NodeIDs {
			if !visited[id] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// AdvanceJoin removes the matched predecessors from current_nodes, clears
// the join's visited set, and adds the join node transiently (caller then
// runs its actions and advances the single outgoing edge, per spec §4.5).
func AdvanceJoin(def *Definition, inst *Instance, joinNodeID string) {
	for _, e := range def.incoming(joinNodeID) {
		delete(inst.CurrentNodes, e.From)
	}
	delete(inst.JoinVisited, joinNodeID)
	inst.CurrentNodes[joinNodeID] = true
}

// VisitJoin records that a predecessor has reached a Join node.
func VisitJoin(inst *Instance, joinNodeID, predecessorID string) {
	if inst.JoinVisited[joinNodeID] == nil {
		inst.JoinVisited[joinNodeID] = make(map[string]bool)
	}
	inst.JoinVisited[joinNodeID][predecessorID] = true
}

// Cancel is a terminal status transition (spec §5 Cancellation/timeout):
// it aborts pending Wait/StartChildWorkflow actions by clearing the
// instance's pending markers and releases its scheduled timers.
func (e *Engine) Cancel(ctx context.Context, instanceID, reason string) (*Instance, error) {
	inst, err := e.Store.LoadInstance(ctx, instanceID)
	if err != nil {
		return nil, docerr.WorkflowNotFound(instanceID)
	}
	inst.Status = StatusCancelled
	inst.FailureMessage = reason
	now := time.Now().UTC()
	inst.CompletedAt = &now
	inst.Deadlines = make(map[string]time.Time)
	delete(inst.Variables, "wait.resume_at")
	delete(inst.Variables, "child_workflow.id")
	delete(inst.Variables, "child_workflow.status")

	if err := e.Store.SaveInstance(ctx, inst); err != nil {
		return nil, docerr.RepositoryError(err.Error())
	}
	return inst, nil
}
