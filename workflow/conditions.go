package workflow

import (
	"fmt"
	"strconv"
	"strings"
)

// ConditionKind selects how Condition.Expression is interpreted (spec §3,
// §4.5.1).
type ConditionKind string

const (
	ConditionBoolean    ConditionKind = "boolean"
	ConditionExpression ConditionKind = "expression"
	ConditionGuard      ConditionKind = "guard"
	ConditionTimer      ConditionKind = "timer"
)

// Condition gates an Edge or names a DecisionNode branch (spec §3).
type Condition struct {
	Kind       ConditionKind
	Expression string
	Variables  []string
}

// NewCondition builds a Condition with Variables discovered syntactically
// from Expression, per spec §3.
func NewCondition(kind ConditionKind, expression string) Condition {
	return Condition{Kind: kind, Expression: expression, Variables: DiscoverVariables(expression)}
}

// EvalContext supplies everything Evaluate needs to resolve a Condition.
type EvalContext struct {
	Variables     map[string]interface{}
	CustomGuards  map[string]func(map[string]interface{}) bool
	TimerDeadline func(nodeID string) (deadline interface{}, passed bool)
	NodeID        string
}

// Evaluate resolves a Condition to a boolean, implementing spec §4.5.1.
func Evaluate(cond Condition, ctx EvalContext) (bool, error) {
	switch cond.Kind {
	case ConditionBoolean:
		switch strings.TrimSpace(cond.Expression) {
		case "true":
			return true, nil
		default:
			return false, nil
		}

	case ConditionExpression:
		return evalExpression(cond.Expression, ctx.Variables)

	case ConditionGuard:
		if fn, ok := ctx.CustomGuards[cond.Expression]; ok {
			return fn(ctx.Variables), nil
		}
		return false, fmt.Errorf("workflow: guard %q not registered", cond.Expression)

	case ConditionTimer:
		if ctx.TimerDeadline == nil {
			return false, nil
		}
		_, passed := ctx.TimerDeadline(ctx.NodeID)
		return passed, nil

	default:
		return false, fmt.Errorf("workflow: unknown condition kind %q", cond.Kind)
	}
}

// evalExpression implements the small comparison language of spec §4.5.1:
// ==, !=, &&, ||, <, <=, >, >=, and quoted string literals. Precedence,
// lowest to highest: || , && , comparison. Unknown variables resolve to
// nil; any comparison against nil is false.
func evalExpression(expr string, vars map[string]interface{}) (bool, error) {
	return evalOr(expr, vars)
}

func evalOr(expr string, vars map[string]interface{}) (bool, error) {
	parts := splitTopLevel(expr, "||")
	if len(parts) == 1 {
		return evalAnd(parts[0], vars)
	}
	for _, p := range parts {
		ok, err := evalAnd(p, vars)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func evalAnd(expr string, vars map[string]interface{}) (bool, error) {
	parts := splitTopLevel(expr, "&&")
	if len(parts) == 1 {
		return evalComparison(parts[0], vars)
	}
	for _, p := range parts {
		ok, err := evalComparison(p, vars)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

var comparisonOps = []string{"==", "!=", "<=", ">=", "<", ">"}

func evalComparison(expr string, vars map[string]interface{}) (bool, error) {
	expr = strings.TrimSpace(expr)
	for _, op := range comparisonOps {
		if idx := strings.Index(expr, op); idx >= 0 {
			left := resolveOperand(strings.TrimSpace(expr[:idx]), vars)
			right := resolveOperand(strings.TrimSpace(expr[idx+len(op):]), vars)
			return compare(left, right, op)
		}
	}
	// Bare expression: true iff the resolved value is a non-empty,
	// non-zero, non-false value.
	v := resolveOperand(expr, vars)
	return truthy(v), nil
}

func splitTopLevel(expr string, op string) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 && strings.HasPrefix(expr[i:], op) {
			parts = append(parts, expr[last:i])
			i += len(op) - 1
			last = i + 1
		}
	}
	parts = append(parts, expr[last:])
	return parts
}

// resolveOperand resolves a literal or a variable path (${name} or
// obj.field) to a Go value; unknown variables resolve to nil.
func resolveOperand(token string, vars map[string]interface{}) interface{} {
	token = strings.TrimSpace(token)
	if len(token) >= 2 {
		if (token[0] == '\'' && token[len(token)-1] == '\'') || (token[0] == '"' && token[len(token)-1] == '"') {
			return token[1 : len(token)-1]
		}
	}
	if n, err := strconv.ParseFloat(token, 64); err == nil {
		return n
	}
	if token == "true" {
		return true
	}
	if token == "false" {
		return false
	}
	name := token
	if strings.HasPrefix(name, "${") && strings.HasSuffix(name, "}") {
		name = name[2 : len(name)-1]
	}
	return lookupPath(name, vars)
}

func lookupPath(path string, vars map[string]interface{}) interface{} {
	segments := strings.Split(path, ".")
	var cur interface{} = vars
	for _, seg := range segments {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		v, ok := m[seg]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func compare(left, right interface{}, op string) (bool, error) {
	if left == nil || right == nil {
		return false, nil
	}
	switch op {
	case "==":
		return fmt.Sprint(left) == fmt.Sprint(right), nil
	case "!=":
		return fmt.Sprint(left) != fmt.Sprint(right), nil
	}

	lf, lok := toFloat(left)
	rf, rok := toFloat(right)
	if !lok || !rok {
		return false, nil
	}
	switch op {
	case "<":
		return lf < rf, nil
	case "<=":
		return lf <= rf, nil
	case ">":
		return lf > rf, nil
	case ">=":
		return lf >= rf, nil
	default:
		return false, fmt.Errorf("workflow: unsupported operator %q", op)
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}
