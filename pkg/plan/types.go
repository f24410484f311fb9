// Package plan defines the authorization request data model: a Plan is an
// ordered batch of on-chain actions submitted for a single allow/deny
// decision. Plans carry no persistent identity; they live for one
// evaluation and are discarded.
package plan

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// ActionType tags an action with the family of adapter calldata layouts
// that may be attempted when estimating its spend.
type ActionType int

const (
	ActionUnknown       ActionType = 0
	ActionExchange      ActionType = 1 // swap-like exchange call
	ActionTransfer      ActionType = 2 // asset pull / transfer
	ActionWrap          ActionType = 3 // native -> wrapped, value-funded
	ActionLendingSupply ActionType = 4
	ActionProof         ActionType = 5 // leveraged-market proof submission
	ActionPerp          ActionType = 6 // leveraged position
	ActionEvent         ActionType = 7 // event-market order
	ActionEventRouter   ActionType = 8 // event-market router stake
)

// String returns the wire name of the action type.
func (t ActionType) String() string {
	switch t {
	case ActionExchange:
		return "exchange"
	case ActionTransfer:
		return "transfer"
	case ActionWrap:
		return "wrap"
	case ActionLendingSupply:
		return "lending_supply"
	case ActionProof:
		return "proof"
	case ActionPerp:
		return "perp"
	case ActionEvent:
		return "event"
	case ActionEventRouter:
		return "event_router"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Instrument classifies the dominant instrument a plan trades.
type Instrument string

const (
	InstrumentNone    Instrument = ""
	InstrumentSwap    Instrument = "swap"
	InstrumentPerp    Instrument = "perp"
	InstrumentLending Instrument = "lending"
	InstrumentEvent   Instrument = "event"
)

// Action is one proposed on-chain operation: a type tag, the adapter it is
// routed through, and the opaque calldata payload as hex.
type Action struct {
	Type    ActionType `json:"actionType"`
	Adapter string     `json:"adapter"`
	Data    string     `json:"data"`
}

// Payload decodes the action's hex calldata. An empty string is a valid
// empty payload.
func (a Action) Payload() ([]byte, error) {
	return decodeHex(a.Data)
}

// Plan is an ordered, non-empty batch of actions plus an optional top-level
// native-asset value (hex-encoded integer).
type Plan struct {
	Actions []Action `json:"actions"`
	Value   string   `json:"value,omitempty"`
}

// NativeValue parses the plan's top-level value. Absent value means zero.
func (p Plan) NativeValue() (*big.Int, error) {
	if p.Value == "" {
		return new(big.Int), nil
	}
	s := strings.TrimPrefix(strings.ToLower(p.Value), "0x")
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("plan: invalid native value %q", p.Value)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("plan: negative native value %q", p.Value)
	}
	return v, nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("plan: odd-length hex payload")
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("plan: invalid hex payload: %w", err)
	}
	return b, nil
}
