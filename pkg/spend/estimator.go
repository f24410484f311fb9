// Package spend folds a plan's actions into a single spend estimate.
package spend

import (
	"math/big"

	"github.com/blossom-labs/blossom/core/pkg/decode"
	"github.com/blossom-labs/blossom/core/pkg/plan"
)

// Estimate is the aggregate spend view of one plan.
//
// Determinable is the AND across all actions: a single undecodable action
// poisons the whole plan, because a partial total would let an undercounted
// but actually larger spend through.
type Estimate struct {
	TotalSpend   *big.Int
	Determinable bool
	Instrument   plan.Instrument
}

// Plan estimates the total spend of a plan. Pure function: no I/O, no
// mutation, identical output for identical input.
//
// The total is seeded with the plan's top-level native value. The
// instrument hint is last-write-wins across actions; plans are expected to
// be single-instrument in practice.
func Plan(p plan.Plan) Estimate {
	total := new(big.Int)
	determinable := true
	instrument := plan.InstrumentNone

	if v, err := p.NativeValue(); err != nil {
		determinable = false
	} else {
		total.Add(total, v)
	}

	for _, a := range p.Actions {
		out := decode.Action(a)
		if !out.Determinable {
			determinable = false
			continue
		}
		total.Add(total, out.Spend)
		if out.Instrument != plan.InstrumentNone {
			instrument = out.Instrument
		}
	}

	return Estimate{
		TotalSpend:   total,
		Determinable: determinable,
		Instrument:   instrument,
	}
}
