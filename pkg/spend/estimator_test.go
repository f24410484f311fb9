package spend_test

import (
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blossom-labs/blossom/core/pkg/plan"
	"github.com/blossom-labs/blossom/core/pkg/spend"
)

const adapter = "0xeeee000000000000000000000000000000000005"

func word(v uint64) string {
	return fmt.Sprintf("%064x", v)
}

func addrWord(addr string) string {
	return strings.Repeat("0", 24) + strings.TrimPrefix(addr, "0x")
}

func transferAction(amount uint64) plan.Action {
	data := addrWord("1111000000000000000000000000000000000001") +
		addrWord("2222000000000000000000000000000000000002") +
		word(amount)
	return plan.Action{Type: plan.ActionTransfer, Adapter: adapter, Data: data}
}

func TestEstimateSumsActionsAndValue(t *testing.T) {
	p := plan.Plan{
		Actions: []plan.Action{transferAction(100), transferAction(250)},
		Value:   "0x64", // 100
	}

	est := spend.Plan(p)
	require.True(t, est.Determinable)
	assert.Equal(t, big.NewInt(450), est.TotalSpend)
}

func TestEstimateUnknownTypePoisonsPlan(t *testing.T) {
	p := plan.Plan{
		Actions: []plan.Action{
			transferAction(100),
			{Type: plan.ActionType(42), Adapter: adapter, Data: word(5)},
		},
	}

	est := spend.Plan(p)
	assert.False(t, est.Determinable)
}

func TestEstimateEmptyValueIsZero(t *testing.T) {
	est := spend.Plan(plan.Plan{Actions: []plan.Action{transferAction(7)}})
	require.True(t, est.Determinable)
	assert.Equal(t, big.NewInt(7), est.TotalSpend)
}

func TestEstimateBadValuePoisonsPlan(t *testing.T) {
	p := plan.Plan{
		Actions: []plan.Action{transferAction(7)},
		Value:   "0xnothex",
	}
	est := spend.Plan(p)
	assert.False(t, est.Determinable)
}

func TestEstimateInstrumentLastWriteWins(t *testing.T) {
	lending := plan.Action{
		Type:    plan.ActionLendingSupply,
		Adapter: adapter,
		Data: addrWord("1111000000000000000000000000000000000001") +
			addrWord("2222000000000000000000000000000000000002") +
			word(300) +
			addrWord("3333000000000000000000000000000000000003"),
	}
	p := plan.Plan{Actions: []plan.Action{transferAction(10), lending}}

	est := spend.Plan(p)
	require.True(t, est.Determinable)
	assert.Equal(t, plan.InstrumentLending, est.Instrument)
}

func TestEstimateWrapKeepsPriorInstrument(t *testing.T) {
	p := plan.Plan{
		Actions: []plan.Action{
			transferAction(10),
			{Type: plan.ActionWrap, Adapter: adapter, Data: ""},
		},
	}

	est := spend.Plan(p)
	require.True(t, est.Determinable)
	assert.Equal(t, plan.InstrumentSwap, est.Instrument)
}

func TestEstimateIsPure(t *testing.T) {
	p := plan.Plan{Actions: []plan.Action{transferAction(123)}, Value: "0x0a"}

	first := spend.Plan(p)
	second := spend.Plan(p)
	assert.Equal(t, first, second)
}
