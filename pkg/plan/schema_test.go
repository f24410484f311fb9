package plan_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blossom-labs/blossom/core/pkg/plan"
)

const docAdapter = "0xcccc000000000000000000000000000000000003"

func TestParseDocument(t *testing.T) {
	raw := fmt.Sprintf(`{
		"actions": [
			{"actionType": 2, "adapter": %q, "data": "0x%064x"}
		],
		"value": "0x64"
	}`, docAdapter, 1)

	p, err := plan.ParseDocument([]byte(raw))
	require.NoError(t, err)
	require.Len(t, p.Actions, 1)
	assert.Equal(t, plan.ActionTransfer, p.Actions[0].Type)
	assert.Equal(t, docAdapter, p.Actions[0].Adapter)
	assert.Equal(t, "0x64", p.Value)
}

func TestParseDocumentRejects(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `{"actions": [`},
		{"missing actions", `{}`},
		{"empty actions", `{"actions": []}`},
		{"missing adapter", `{"actions": [{"actionType": 2, "data": "0x"}]}`},
		{"short adapter", `{"actions": [{"actionType": 2, "adapter": "0x1234", "data": "0x"}]}`},
		{"odd-length data", fmt.Sprintf(`{"actions": [{"actionType": 2, "adapter": %q, "data": "0xabc"}]}`, docAdapter)},
		{"non-hex value", fmt.Sprintf(`{"actions": [{"actionType": 2, "adapter": %q, "data": "0x"}], "value": "100 wei"}`, docAdapter)},
		{"negative action type", fmt.Sprintf(`{"actions": [{"actionType": -1, "adapter": %q, "data": "0x"}]}`, docAdapter)},
		{"unknown top-level field", fmt.Sprintf(`{"actions": [{"actionType": 2, "adapter": %q, "data": "0x"}], "gas": 21000}`, docAdapter)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := plan.ParseDocument([]byte(tc.raw))
			require.Error(t, err)
		})
	}
}

func TestParseDocumentEmptyData(t *testing.T) {
	// Empty calldata is a valid payload (a bare value transfer through an
	// adapter), both with and without the 0x prefix.
	for _, data := range []string{"0x", ""} {
		raw := fmt.Sprintf(`{"actions": [{"actionType": 3, "adapter": %q, "data": %q}]}`, docAdapter, data)
		p, err := plan.ParseDocument([]byte(raw))
		require.NoError(t, err, "data=%q", data)
		assert.Equal(t, plan.ActionWrap, p.Actions[0].Type)
	}
}

func TestParseDocumentPreservesActionOrder(t *testing.T) {
	var actions []string
	for i := 1; i <= 4; i++ {
		actions = append(actions, fmt.Sprintf(`{"actionType": %d, "adapter": %q, "data": "0x"}`, i, docAdapter))
	}
	raw := fmt.Sprintf(`{"actions": [%s]}`, strings.Join(actions, ","))

	p, err := plan.ParseDocument([]byte(raw))
	require.NoError(t, err)
	require.Len(t, p.Actions, 4)
	for i, a := range p.Actions {
		assert.Equal(t, plan.ActionType(i+1), a.Type)
	}
}
