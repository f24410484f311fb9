package policy

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/blossom-labs/blossom/core/pkg/session"
	"github.com/blossom-labs/blossom/core/pkg/spend"
)

// Guard evaluates operator-supplied CEL predicates over a plan after the
// core checks pass. A rule that evaluates to false denies the plan; so
// does any compile or evaluation failure. Rules let deployments add
// declarative bounds (action-count ceilings, instrument restrictions,
// per-plan spend ceilings) without code changes.
type Guard struct {
	rules    []string
	programs []cel.Program
}

// NewGuard compiles the rule set. Each rule sees:
//
//	actions:     list of {"type": string, "adapter": string}
//	action_count: int
//	instrument:  string ("" when unclassified)
//	total_spend: string (decimal, settlement base units)
//	session:     {"id", "owner", "executor", "status": string}
func NewGuard(rules []string) (*Guard, error) {
	env, err := cel.NewEnv(
		cel.Variable("actions", cel.ListType(cel.DynType)),
		cel.Variable("action_count", cel.IntType),
		cel.Variable("instrument", cel.StringType),
		cel.Variable("total_spend", cel.StringType),
		cel.Variable("session", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("policy: guard env failed: %w", err)
	}

	g := &Guard{rules: rules}
	for i, rule := range rules {
		ast, issues := env.Compile(rule)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("policy: guard rule %d compile failed: %w", i, issues.Err())
		}
		prg, err := env.Program(ast,
			cel.InterruptCheckFrequency(100),
			cel.CostLimit(10000),
		)
		if err != nil {
			return nil, fmt.Errorf("policy: guard rule %d program failed: %w", i, err)
		}
		g.programs = append(g.programs, prg)
	}
	return g, nil
}

// Check runs every rule. It returns nil when all rules hold, or a deny
// Result naming the violated rule. Evaluation faults deny as well:
// a guard that cannot be evaluated must not wave the plan through.
func (g *Guard) Check(req Request, est spend.Estimate, sess *session.Session) *Result {
	actions := make([]map[string]any, len(req.Plan.Actions))
	for i, a := range req.Plan.Actions {
		actions[i] = map[string]any{
			"type":    a.Type.String(),
			"adapter": a.Adapter,
		}
	}
	input := map[string]any{
		"actions":      actions,
		"action_count": len(req.Plan.Actions),
		"instrument":   string(est.Instrument),
		"total_spend":  est.TotalSpend.String(),
		"session": map[string]any{
			"id":       sess.ID,
			"owner":    sess.Owner,
			"executor": sess.Executor,
			"status":   string(sess.Status),
		},
	}

	for i, prg := range g.programs {
		out, _, err := prg.Eval(input)
		if err != nil {
			return denyResult(CodeGuardRejected,
				fmt.Sprintf("guard rule %d evaluation failed: %v", i, err),
				map[string]any{"rule": g.rules[i]})
		}
		ok, isBool := out.Value().(bool)
		if !isBool || !ok {
			return denyResult(CodeGuardRejected,
				fmt.Sprintf("guard rule %d rejected the plan", i),
				map[string]any{"rule": g.rules[i]})
		}
	}
	return nil
}
