package decode

import (
	"math/big"

	"github.com/blossom-labs/blossom/core/pkg/abi"
	"github.com/blossom-labs/blossom/core/pkg/plan"
)

// PerpDetails is the raw-layout view of a leveraged position action, used
// by the leveraged-market risk gate to reconstruct the proposed operation.
type PerpDetails struct {
	Market   string
	IsLong   bool
	Size     *big.Int
	Leverage *big.Int
}

// PerpAction decodes a perp action's raw (market, isLong, size, leverage)
// layout. ok is false when the payload is shaped differently (for example
// session-wrapped), in which case the gate has no position to inspect.
func PerpAction(a plan.Action) (PerpDetails, bool) {
	if a.Type != plan.ActionPerp {
		return PerpDetails{}, false
	}
	data, err := a.Payload()
	if err != nil {
		return PerpDetails{}, false
	}
	vals, err := abi.DecodeTuple(data, []abi.Kind{
		abi.KindAddress, abi.KindBool, abi.KindUint256, abi.KindUint256,
	})
	if err != nil {
		return PerpDetails{}, false
	}
	return PerpDetails{
		Market:   vals[0].Addr,
		IsLong:   vals[1].Bool,
		Size:     vals[2].Int,
		Leverage: vals[3].Int,
	}, true
}
