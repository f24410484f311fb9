// Package decode converts one action's (type, calldata) pair into a spend
// contribution. Each action type carries an ordered list of candidate
// layouts; the first layout that parses wins. If no layout parses, the
// action is either non-determinable or, for leveraged-market types, falls
// back to a fixed conservative contribution.
package decode

import (
	"errors"
	"math/big"

	"github.com/blossom-labs/blossom/core/pkg/abi"
	"github.com/blossom-labs/blossom/core/pkg/plan"
)

// ConservativeFallbackSpend is charged for allow-listed leveraged-market
// actions whose payload matches no known layout. It bounds the worst case
// instead of blocking the plan or hiding the risk as zero.
var ConservativeFallbackSpend = big.NewInt(1_000_000)

// Outcome is the result of decoding one action.
//
// Determinable=false means no known layout parsed the payload. It is a
// normal outcome, not an error, and must never be read as "zero spend".
type Outcome struct {
	Determinable bool
	Spend        *big.Int
	Instrument   plan.Instrument
}

func undecodable() Outcome {
	return Outcome{Determinable: false}
}

func decoded(spend *big.Int, instr plan.Instrument) Outcome {
	return Outcome{Determinable: true, Spend: spend, Instrument: instr}
}

// A layout attempts to extract a spend amount from a payload. It returns
// abi.ErrMismatch (wrapped) when the payload is shaped for a different
// layout.
type layout func(data []byte) (*big.Int, error)

// Direct layouts, most specific first. The session-wrapped layout
// (spendCapUnits, innerPayload) is shared across types: the cap is taken as
// the spend because the realized amount is unknown until execution.

// (tokenIn, tokenOut, fee, amountIn, amountOutMin, recipient, deadline)
func exchangeDirect(data []byte) (*big.Int, error) {
	vals, err := abi.DecodeTuple(data, []abi.Kind{
		abi.KindAddress, abi.KindAddress, abi.KindUint256,
		abi.KindUint256, abi.KindUint256, abi.KindAddress, abi.KindUint256,
	})
	if err != nil {
		return nil, err
	}
	return vals[3].Int, nil
}

// (from, to, amount)
func transferDirect(data []byte) (*big.Int, error) {
	vals, err := abi.DecodeTuple(data, []abi.Kind{
		abi.KindAddress, abi.KindAddress, abi.KindUint256,
	})
	if err != nil {
		return nil, err
	}
	return vals[2].Int, nil
}

// (asset, vault, amount, onBehalfOf)
func lendingSupplyDirect(data []byte) (*big.Int, error) {
	vals, err := abi.DecodeTuple(data, []abi.Kind{
		abi.KindAddress, abi.KindAddress, abi.KindUint256, abi.KindAddress,
	})
	if err != nil {
		return nil, err
	}
	return vals[2].Int, nil
}

// (spendCapUnits, innerPayload)
func sessionWrapped(data []byte) (*big.Int, error) {
	vals, err := abi.DecodeTuple(data, []abi.Kind{
		abi.KindUint256, abi.KindBytes,
	})
	if err != nil {
		return nil, err
	}
	return vals[0].Int, nil
}

// (marketId, outcomeIndex, amount)
func eventRaw(data []byte) (*big.Int, error) {
	vals, err := abi.DecodeTuple(data, []abi.Kind{
		abi.KindUint256, abi.KindUint8, abi.KindUint256,
	})
	if err != nil {
		return nil, err
	}
	return vals[2].Int, nil
}

// (market, isLong, size, leverage)
func perpRaw(data []byte) (*big.Int, error) {
	vals, err := abi.DecodeTuple(data, []abi.Kind{
		abi.KindAddress, abi.KindBool, abi.KindUint256, abi.KindUint256,
	})
	if err != nil {
		return nil, err
	}
	return vals[2].Int, nil
}

// (stakeToken, amount, adapterData)
func eventRouterRaw(data []byte) (*big.Int, error) {
	vals, err := abi.DecodeTuple(data, []abi.Kind{
		abi.KindAddress, abi.KindUint256, abi.KindBytes,
	})
	if err != nil {
		return nil, err
	}
	return vals[1].Int, nil
}

type typeSpec struct {
	layouts    []layout
	instrument plan.Instrument
	// fallbackSpend, when set, is charged if every layout fails instead of
	// marking the action non-determinable.
	fallbackSpend *big.Int
}

var typeSpecs = map[plan.ActionType]typeSpec{
	plan.ActionExchange: {
		layouts:    []layout{exchangeDirect, sessionWrapped},
		instrument: plan.InstrumentSwap,
	},
	plan.ActionTransfer: {
		layouts:    []layout{transferDirect, sessionWrapped},
		instrument: plan.InstrumentSwap,
	},
	plan.ActionLendingSupply: {
		layouts:    []layout{lendingSupplyDirect, sessionWrapped},
		instrument: plan.InstrumentLending,
	},
	plan.ActionProof: {
		layouts:       []layout{sessionWrapped},
		instrument:    plan.InstrumentPerp,
		fallbackSpend: ConservativeFallbackSpend,
	},
	plan.ActionPerp: {
		layouts:       []layout{sessionWrapped, perpRaw},
		instrument:    plan.InstrumentPerp,
		fallbackSpend: ConservativeFallbackSpend,
	},
	plan.ActionEvent: {
		layouts:       []layout{sessionWrapped, eventRaw},
		instrument:    plan.InstrumentEvent,
		fallbackSpend: ConservativeFallbackSpend,
	},
	plan.ActionEventRouter: {
		layouts:       []layout{sessionWrapped, eventRouterRaw},
		instrument:    plan.InstrumentEvent,
		fallbackSpend: ConservativeFallbackSpend,
	},
}

// Action decodes one action into its spend contribution.
//
// Wrap actions contribute zero: the plan's top-level native value already
// funds them. Unknown action types are always non-determinable; an
// unrecognized type must never be silently assigned zero spend.
func Action(a plan.Action) Outcome {
	if a.Type == plan.ActionWrap {
		return decoded(new(big.Int), plan.InstrumentNone)
	}

	spec, known := typeSpecs[a.Type]
	if !known {
		return undecodable()
	}

	data, err := a.Payload()
	if err != nil {
		// Unparseable hex cannot match any layout.
		if spec.fallbackSpend != nil {
			return decoded(new(big.Int).Set(spec.fallbackSpend), spec.instrument)
		}
		return undecodable()
	}

	for _, try := range spec.layouts {
		amount, err := try(data)
		if err == nil {
			return decoded(amount, spec.instrument)
		}
		if !errors.Is(err, abi.ErrMismatch) {
			return undecodable()
		}
	}

	if spec.fallbackSpend != nil {
		return decoded(new(big.Int).Set(spec.fallbackSpend), spec.instrument)
	}
	return undecodable()
}
