package workflow

import (
	"context"
	"time"
)

// ActionKind is the tagged-union discriminant for Action (spec §4.5.3).
type ActionKind string

const (
	ActionSetState            ActionKind = "set_state"
	ActionAssignTask          ActionKind = "assign_task"
	ActionSendNotification    ActionKind = "send_notification"
	ActionSetDeadline         ActionKind = "set_deadline"
	ActionEscalateToManager   ActionKind = "escalate_to_manager"
	ActionIntegrateWithSystem ActionKind = "integrate_with_system"
	ActionUpdateContext       ActionKind = "update_context"
	ActionLogEvent            ActionKind = "log_event"
	ActionWait                ActionKind = "wait"
	ActionCancelWorkflow      ActionKind = "cancel_workflow"
	ActionCompleteWorkflow    ActionKind = "complete_workflow"
	ActionStartChildWorkflow  ActionKind = "start_child_workflow"
	ActionCustom              ActionKind = "custom"
)

// Action is a tagged union of node-entry/exit effects (spec §4.5.3).
type Action struct {
	Kind ActionKind

	State string // SetState: new value written to variables["document.state"]

	Assignees []string // AssignTask

	Message string // SendNotification, LogEvent

	Deadline time.Duration // SetDeadline: relative to now

	Manager string // EscalateToManager

	System string // IntegrateWithSystem

	Updates map[string]interface{} // UpdateContext

	WaitFor time.Duration // Wait

	CancelReason string // CancelWorkflow

	CompletionStatus  CompletionStatus // CompleteWorkflow
	CompletionMessage string

	ChildWorkflowID string // StartChildWorkflow

	CustomName   string // Custom
	CustomParams map[string]interface{}
}

// ActionResultKind is the closed set of action outcomes (spec §4.5.3).
type ActionResultKind string

const (
	ActionSuccess             ActionResultKind = "success"
	ActionWarning             ActionResultKind = "warning"
	ActionError               ActionResultKind = "error"
	ActionRequiresIntervention ActionResultKind = "requires_intervention"
	ActionPending             ActionResultKind = "pending"
)

// ActionResult is the outcome of executing one Action.
type ActionResult struct {
	Kind    ActionResultKind
	Message string
}

// ActionContext is the only state an action executor can see: the
// instance's variable map and a handful of identifiers — never the
// document aggregate directly (spec §4.5.3).
type ActionContext struct {
	Variables     map[string]interface{}
	DocumentID    string
	UserID        string
	CurrentNodeID string
	TargetNodeID  string
}

// CustomActionFunc executes a Custom action, given its params.
type CustomActionFunc func(ctx context.Context, actx *ActionContext, params map[string]interface{}) ActionResult

// Executor runs Actions against an ActionContext. Custom actions dispatch
// through a registry so the engine can stay closed over the tagged union
// while callers extend behavior (e.g. the optional ai.ChatModel-backed
// "classify_document" custom action).
type Executor struct {
	Custom map[string]CustomActionFunc
}

// NewExecutor builds an Executor with an empty custom-action registry.
func NewExecutor() *Executor {
	return &Executor{Custom: make(map[string]CustomActionFunc)}
}

// Execute runs a single action. SetDeadline and Wait record their target
// instant in Variables rather than blocking. Clock (timer.go) processes
// only Instance.Deadlines and does not read these variables.
func (ex *Executor) Execute(ctx context.Context, action Action, actx *ActionContext) ActionResult {
	switch action.Kind {
	case ActionSetState:
		actx.Variables["document.state"] = action.State
		return ActionResult{Kind: ActionSuccess}

	case ActionAssignTask:
		actx.Variables["task.assignees"] = action.Assignees
		return ActionResult{Kind: ActionSuccess}

	case ActionSendNotification:
		return ActionResult{Kind: ActionSuccess, Message: action.Message}

	case ActionSetDeadline:
		actx.Variables["node."+actx.TargetNodeID+".deadline"] = time.Now().Add(action.Deadline)
		return ActionResult{Kind: ActionSuccess}

	case ActionEscalateToManager:
		actx.Variables["escalated_to"] = action.Manager
		return ActionResult{Kind: ActionWarning, Message: "escalated to " + action.Manager}

	case ActionIntegrateWithSystem:
		return ActionResult{Kind: ActionSuccess, Message: "dispatched to " + action.System}

	case ActionUpdateContext:
		for k, v := range action.Updates {
			actx.Variables[k] = v
		}
		return ActionResult{Kind: ActionSuccess}

	case ActionLogEvent:
		return ActionResult{Kind: ActionSuccess, Message: action.Message}

	case ActionWait:
		actx.Variables["wait.resume_at"] = time.Now().Add(action.WaitFor)
		return ActionResult{Kind: ActionPending}

	case ActionCancelWorkflow:
		actx.Variables["cancel_reason"] = action.CancelReason
		return ActionResult{Kind: ActionSuccess}

	case ActionCompleteWorkflow:
		actx.Variables["completion.status"] = action.CompletionStatus
		actx.Variables["completion.message"] = action.CompletionMessage
		return ActionResult{Kind: ActionSuccess}

	case ActionStartChildWorkflow:
		// Decided open question: only the bookkeeping fields are written;
		// actual child dispatch is out of scope here (see DESIGN.md).
		actx.Variables["child_workflow.id"] = action.ChildWorkflowID
		actx.Variables["child_workflow.status"] = "pending"
		return ActionResult{Kind: ActionPending}

	case ActionCustom:
		if fn, ok := ex.Custom[action.CustomName]; ok {
			return fn(ctx, actx, action.CustomParams)
		}
		return ActionResult{Kind: ActionError, Message: "custom action " + action.CustomName + " not registered"}

	default:
		return ActionResult{Kind: ActionError, Message: "unknown action kind " + string(action.Kind)}
	}
}

// ExecuteAll runs actions in declaration order (spec §4.5 step 7). It
// stops at the first Error or RequiresIntervention result and returns it
// alongside the index reached.
func (ex *Executor) ExecuteAll(ctx context.Context, actions []Action, actx *ActionContext) (ActionResult, int) {
	for i, action := range actions {
		result := ex.Execute(ctx, action, actx)
		if result.Kind == ActionError || result.Kind == ActionRequiresIntervention {
			return result, i
		}
	}
	return ActionResult{Kind: ActionSuccess}, len(actions)
}
