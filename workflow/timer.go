package workflow

import (
	"context"
	"time"

	"github.com/contentgraph/docengine/docerr"
)

// Clock drives the cooperative timer tick of spec §4.5/§5: "one tick
// processes all due tasks then sleeps", grounded on the teacher's
// Frontier cooperative-dequeue loop (graph/scheduler.go), adapted from a
// generic work-item queue to a due-timer queue keyed by instance+node
// deadline rather than OrderKey.
type Clock struct {
	Engine *Engine
}

// NewClock builds a Clock bound to engine.
func NewClock(engine *Engine) *Clock {
	return &Clock{Engine: engine}
}

// ProcessScheduledTasks processes every deadline in inst that is due at or
// before now, dispatching by the node's TimerKind (spec §4.5 Timers):
// Deadline fails the workflow, SLA runs escalation actions and continues,
// Reminder fires notifications without a state change, Delay transitions
// automatically along the timer node's single outgoing edge. A Task
// node's duration_sla breach (no TimerKind of its own) records an SLABreach
// error message in FailureMessage and suspends the instance for operator
// attention; it is not returned as an error.
func (c *Clock) ProcessScheduledTasks(ctx context.Context, inst *Instance, def *Definition, now time.Time) error {
	if inst.Status != StatusRunning {
		return nil
	}

	var due []string
	for nodeID, deadline := range inst.Deadlines {
		if !deadline.After(now) {
			due = append(due, nodeID)
		}
	}

	for _, nodeID := range due {
		n, ok := def.Nodes[nodeID]
		if !ok {
			delete(inst.Deadlines, nodeID)
			continue
		}

		switch n.Kind {
		case NodeTimer:
			if err := c.processTimer(ctx, inst, def, nodeID, n, now); err != nil {
				return err
			}
		case NodeTask:
			inst.Status = StatusSuspended
			inst.FailureMessage = docerr.SLABreach(nodeID, inst.Deadlines[nodeID].String()).Error()
			delete(inst.Deadlines, nodeID)
			if c.Engine.Metrics != nil {
				c.Engine.Metrics.IncrementTimerEscalation("task_sla")
			}
		}
	}
	return nil
}

func (c *Clock) processTimer(ctx context.Context, inst *Instance, def *Definition, nodeID string, n Node, now time.Time) error {
	if n.Timer == nil {
		delete(inst.Deadlines, nodeID)
		return nil
	}
	actx := &ActionContext{Variables: inst.Variables, DocumentID: inst.DocumentID, CurrentNodeID: nodeID, TargetNodeID: nodeID}

	switch n.Timer.Kind {
	case TimerDeadline:
		inst.Status = StatusFailed
		inst.FailureMessage = "timer " + nodeID + " deadline exceeded"
		completed := now
		inst.CompletedAt = &completed
		delete(inst.Deadlines, nodeID)
		c.recordEscalation("deadline")

	case TimerSLA:
		for _, esc := range n.Timer.Escalations {
			c.Engine.Executor.ExecuteAll(ctx, esc.Actions, actx)
		}
		delete(inst.Deadlines, nodeID)
		c.recordEscalation("sla")

	case TimerReminder:
		c.Engine.Executor.ExecuteAll(ctx, n.Timer.OnTimeout, actx)
		delete(inst.Deadlines, nodeID)

	case TimerCleanup:
		c.Engine.Executor.ExecuteAll(ctx, n.Timer.OnTimeout, actx)
		delete(inst.Deadlines, nodeID)

	case TimerDelay:
		delete(inst.Deadlines, nodeID)
		for _, e := range def.outgoing(nodeID) {
			_, err := c.Engine.ExecuteTransition(ctx, inst.ID, nodeID, e.To, "clock", nil, nil, 0, "", nil)
			return err
		}
	}
	return nil
}

func (c *Clock) recordEscalation(timerKind string) {
	if c.Engine.Metrics != nil {
		c.Engine.Metrics.IncrementTimerEscalation(timerKind)
	}
}
