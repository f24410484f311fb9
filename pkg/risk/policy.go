package risk

import "fmt"

// Operation kinds.
const (
	OpCreateMarket  = "create_market"
	OpOpenPosition  = "open_position"
	OpClosePosition = "close_position"
)

// Deny codes. Stable: clients branch on these.
const (
	CodeMaxMarketCreations = "HL_MAX_MARKET_CREATIONS"
	CodeMaxBondSpend       = "HL_MAX_BOND_SPEND"
	CodeMaxPositions       = "HL_MAX_POSITIONS"
	CodeLeverageExceeded   = "HL_LEVERAGE_EXCEEDED"
	CodeMaxOIExceeded      = "HL_MAX_OI_EXCEEDED"
	CodeUnknownOperation   = "HL_UNKNOWN_OPERATION"
)

// Operation is one discrete leveraged-market operation under evaluation.
type Operation struct {
	Kind     string  `json:"kind"`
	MarketID string  `json:"market_id,omitempty"`
	Symbol   string  `json:"symbol,omitempty"`
	Side     string  `json:"side,omitempty"`
	Bond     float64 `json:"bond,omitempty"`
	Size     float64 `json:"size,omitempty"`
	// Leverage 0 means unspecified; the leverage bound is then skipped and
	// open interest is computed at 1x.
	Leverage float64 `json:"leverage,omitempty"`
	// MarketMaxLeverage is the market's own cap; 0 means the market
	// imposes none.
	MarketMaxLeverage float64 `json:"market_max_leverage,omitempty"`
}

// Decision is the gate's verdict. Every deny carries the numeric inputs
// and the computed limit so a client can explain the rejection without
// re-deriving it.
type Decision struct {
	Allowed bool           `json:"allowed"`
	Code    string         `json:"code,omitempty"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(code, message string, details map[string]any) Decision {
	return Decision{Allowed: false, Code: code, Message: message, Details: details}
}

// Evaluate checks one operation against a state snapshot and a limits
// table. Pure: the snapshot is never mutated here.
func Evaluate(limits Limits, state State, op Operation) Decision {
	switch op.Kind {
	case OpCreateMarket:
		return evaluateCreateMarket(limits, state, op)
	case OpOpenPosition:
		return evaluateOpenPosition(limits, state, op)
	case OpClosePosition:
		// Closing risk is never gated.
		return allow()
	default:
		return deny(CodeUnknownOperation,
			fmt.Sprintf("unknown leveraged-market operation %q", op.Kind),
			map[string]any{"kind": op.Kind})
	}
}

func evaluateCreateMarket(limits Limits, state State, op Operation) Decision {
	if state.MarketCreations >= limits.MaxMarketCreations {
		return deny(CodeMaxMarketCreations,
			fmt.Sprintf("session already created %d markets (limit %d)",
				state.MarketCreations, limits.MaxMarketCreations),
			map[string]any{
				"created": state.MarketCreations,
				"limit":   limits.MaxMarketCreations,
			})
	}
	newBond := state.BondSpend + op.Bond
	if newBond > limits.MaxBondSpend {
		return deny(CodeMaxBondSpend,
			fmt.Sprintf("bond spend %.2f would exceed cap %.2f", newBond, limits.MaxBondSpend),
			map[string]any{
				"current":  state.BondSpend,
				"proposed": op.Bond,
				"total":    newBond,
				"limit":    limits.MaxBondSpend,
			})
	}
	return allow()
}

func evaluateOpenPosition(limits Limits, state State, op Operation) Decision {
	if state.OpenPositions >= limits.MaxPositions {
		return deny(CodeMaxPositions,
			fmt.Sprintf("session already holds %d open positions (limit %d)",
				state.OpenPositions, limits.MaxPositions),
			map[string]any{
				"open":  state.OpenPositions,
				"limit": limits.MaxPositions,
			})
	}

	leverage := op.Leverage
	if leverage > 0 {
		effective := effectiveMaxLeverage(limits, op)
		if leverage > effective {
			return deny(CodeLeverageExceeded,
				fmt.Sprintf("leverage %.1fx exceeds effective cap %.1fx for %s",
					leverage, effective, op.Symbol),
				map[string]any{
					"requested":   leverage,
					"allowed":     effective,
					"asset_class": string(limits.ClassifyAsset(op.Symbol)),
				})
		}
	} else {
		leverage = 1
	}

	proposedOI := op.Size * leverage
	newOI := state.OpenInterest + proposedOI
	if newOI > limits.MaxOpenInterest {
		return deny(CodeMaxOIExceeded,
			fmt.Sprintf("open interest %.2f would exceed cap %.2f", newOI, limits.MaxOpenInterest),
			map[string]any{
				"current":  state.OpenInterest,
				"proposed": proposedOI,
				"total":    newOI,
				"limit":    limits.MaxOpenInterest,
			})
	}
	return allow()
}

// effectiveMaxLeverage is the minimum of the market's own cap, the global
// per-position cap, and the asset-class cap, ignoring unset (zero) caps.
func effectiveMaxLeverage(limits Limits, op Operation) float64 {
	effective := limits.MaxLeverage
	if op.MarketMaxLeverage > 0 && (effective == 0 || op.MarketMaxLeverage < effective) {
		effective = op.MarketMaxLeverage
	}
	classCap := limits.classLeverageCap(limits.ClassifyAsset(op.Symbol))
	if classCap > 0 && (effective == 0 || classCap < effective) {
		effective = classCap
	}
	return effective
}
