package workflow

import (
	"context"
	"testing"
	"time"
)

func newActionContext() *ActionContext {
	return &ActionContext{Variables: make(map[string]interface{}), TargetNodeID: "n1"}
}

func TestExecuteSetStateWritesDocumentState(t *testing.T) {
	ex := NewExecutor()
	actx := newActionContext()
	result := ex.Execute(context.Background(), Action{Kind: ActionSetState, State: "approved"}, actx)
	if result.Kind != ActionSuccess {
		t.Fatalf("expected success, got %+v", result)
	}
	if actx.Variables["document.state"] != "approved" {
		t.Fatalf("expected document.state to be set, got %v", actx.Variables["document.state"])
	}
}

func TestExecuteEscalateToManagerReturnsWarning(t *testing.T) {
	ex := NewExecutor()
	actx := newActionContext()
	result := ex.Execute(context.Background(), Action{Kind: ActionEscalateToManager, Manager: "alice"}, actx)
	if result.Kind != ActionWarning {
		t.Fatalf("expected warning, got %+v", result)
	}
	if actx.Variables["escalated_to"] != "alice" {
		t.Fatal("expected escalated_to to be recorded")
	}
}

func TestExecuteWaitReturnsPendingAndSchedulesResume(t *testing.T) {
	ex := NewExecutor()
	actx := newActionContext()
	result := ex.Execute(context.Background(), Action{Kind: ActionWait, WaitFor: time.Minute}, actx)
	if result.Kind != ActionPending {
		t.Fatalf("expected pending, got %+v", result)
	}
	if _, ok := actx.Variables["wait.resume_at"]; !ok {
		t.Fatal("expected wait.resume_at to be set")
	}
}

func TestExecuteCustomActionDispatchesToRegistry(t *testing.T) {
	ex := NewExecutor()
	ex.Custom["classify_document"] = func(ctx context.Context, actx *ActionContext, params map[string]interface{}) ActionResult {
		return ActionResult{Kind: ActionSuccess, Message: "classified"}
	}
	actx := newActionContext()
	result := ex.Execute(context.Background(), Action{Kind: ActionCustom, CustomName: "classify_document"}, actx)
	if result.Kind != ActionSuccess || result.Message != "classified" {
		t.Fatalf("expected dispatched custom action result, got %+v", result)
	}
}

func TestExecuteUnregisteredCustomActionErrors(t *testing.T) {
	ex := NewExecutor()
	actx := newActionContext()
	result := ex.Execute(context.Background(), Action{Kind: ActionCustom, CustomName: "missing"}, actx)
	if result.Kind != ActionError {
		t.Fatalf("expected error for unregistered custom action, got %+v", result)
	}
}

func TestExecuteAllStopsAtFirstError(t *testing.T) {
	ex := NewExecutor()
	actx := newActionContext()
	actions := []Action{
		{Kind: ActionSetState, State: "pending"},
		{Kind: ActionCustom, CustomName: "missing"},
		{Kind: ActionSetState, State: "should_not_run"},
	}
	result, stoppedAt := ex.ExecuteAll(context.Background(), actions, actx)
	if result.Kind != ActionError {
		t.Fatalf("expected error result, got %+v", result)
	}
	if stoppedAt != 1 {
		t.Fatalf("expected to stop at index 1, got %d", stoppedAt)
	}
	if actx.Variables["document.state"] != "pending" {
		t.Fatal("expected the first action to have run before the error")
	}
}

func TestExecuteAllRunsEveryActionOnSuccess(t *testing.T) {
	ex := NewExecutor()
	actx := newActionContext()
	actions := []Action{
		{Kind: ActionSetState, State: "pending"},
		{Kind: ActionUpdateContext, Updates: map[string]interface{}{"reviewed": true}},
	}
	result, stoppedAt := ex.ExecuteAll(context.Background(), actions, actx)
	if result.Kind != ActionSuccess {
		t.Fatalf("expected success, got %+v", result)
	}
	if stoppedAt != len(actions) {
		t.Fatalf("expected stoppedAt == len(actions), got %d", stoppedAt)
	}
	if actx.Variables["reviewed"] != true {
		t.Fatal("expected reviewed to be set by update_context")
	}
}
