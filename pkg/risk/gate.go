package risk

import (
	"context"
	"math/big"

	"github.com/blossom-labs/blossom/core/pkg/decode"
	"github.com/blossom-labs/blossom/core/pkg/plan"
	"github.com/blossom-labs/blossom/core/pkg/policy"
	"github.com/blossom-labs/blossom/core/pkg/spend"
)

// SymbolResolver maps a market address to its asset symbol. Markets the
// resolver does not know default to "" and therefore to the altcoin class.
type SymbolResolver func(market string) string

// PlanGate adapts the leveraged-market policy to the evaluator's domain
// gate slot. It reconstructs position operations from perp actions'
// calldata and checks them against the session's risk-state snapshot.
type PlanGate struct {
	limits  Limits
	store   StateStore
	resolve SymbolResolver
}

// NewPlanGate creates a gate over the given limits table and state store.
func NewPlanGate(limits Limits, store StateStore, resolve SymbolResolver) *PlanGate {
	if resolve == nil {
		resolve = func(string) string { return "" }
	}
	return &PlanGate{limits: limits, store: store, resolve: resolve}
}

// Applies reports whether the gate should run for the plan's instrument.
func (g *PlanGate) Applies(instrument plan.Instrument) bool {
	return instrument == plan.InstrumentPerp
}

// Evaluate checks every reconstructable position in the plan. Proposed
// deltas accumulate across the plan's actions so two opens in one plan
// are both counted before either executes.
func (g *PlanGate) Evaluate(ctx context.Context, sessionID string, p plan.Plan, est spend.Estimate) (*policy.Result, error) {
	state, err := g.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	for _, a := range p.Actions {
		details, ok := decode.PerpAction(a)
		if !ok {
			continue
		}
		op := Operation{
			Kind:     OpOpenPosition,
			MarketID: details.Market,
			Symbol:   g.resolve(details.Market),
			Size:     unitsToQuote(details.Size, g.limits.UnitScale),
			Leverage: bigToFloat(details.Leverage),
		}
		if details.IsLong {
			op.Side = "long"
		} else {
			op.Side = "short"
		}

		decision := Evaluate(g.limits, state, op)
		if !decision.Allowed {
			return &policy.Result{
				Allowed: false,
				Code:    decision.Code,
				Message: decision.Message,
				Details: decision.Details,
			}, nil
		}

		leverage := op.Leverage
		if leverage <= 0 {
			leverage = 1
		}
		state.OpenInterest += op.Size * leverage
		state.OpenPositions++
	}

	return &policy.Result{Allowed: true}, nil
}

func unitsToQuote(units *big.Int, scale float64) float64 {
	if scale <= 0 {
		scale = 1
	}
	f, _ := new(big.Float).SetInt(units).Float64()
	return f / scale
}

func bigToFloat(v *big.Int) float64 {
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
