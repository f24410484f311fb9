package policy_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blossom-labs/blossom/core/pkg/plan"
	"github.com/blossom-labs/blossom/core/pkg/policy"
)

func TestGuardRejectsOnRuleViolation(t *testing.T) {
	g, err := policy.NewGuard([]string{"action_count <= 1"})
	require.NoError(t, err)

	e := policy.New(ledgerWith(activeSession("s1", 1000, 0)), policy.WithGuard(g))

	res, err := e.Evaluate(context.Background(), policy.Request{
		SessionID:       "s1",
		UserAddress:     user,
		Plan:            plan.Plan{Actions: []plan.Action{transferAction(adapterA, 1), transferAction(adapterA, 2)}},
		AllowedAdapters: allow(adapterA),
	})
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, policy.CodeGuardRejected, res.Code)
	assert.Equal(t, "action_count <= 1", res.Details["rule"])
}

func TestGuardPassesWhenRulesHold(t *testing.T) {
	g, err := policy.NewGuard([]string{
		"action_count <= 5",
		`instrument != "perp" || session.status == "active"`,
	})
	require.NoError(t, err)

	e := policy.New(ledgerWith(activeSession("s1", 1000, 0)), policy.WithGuard(g))

	res, err := e.Evaluate(context.Background(), policy.Request{
		SessionID:       "s1",
		UserAddress:     user,
		Plan:            plan.Plan{Actions: []plan.Action{transferAction(adapterA, 1)}},
		AllowedAdapters: allow(adapterA),
	})
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestGuardCompileErrorSurfacesAtConstruction(t *testing.T) {
	_, err := policy.NewGuard([]string{"this is not CEL ((("})
	require.Error(t, err)
}

func TestGuardNonBooleanRuleRejects(t *testing.T) {
	g, err := policy.NewGuard([]string{"action_count"})
	require.NoError(t, err)

	e := policy.New(ledgerWith(activeSession("s1", 1000, 0)), policy.WithGuard(g))

	res, err := e.Evaluate(context.Background(), policy.Request{
		SessionID:       "s1",
		UserAddress:     user,
		Plan:            plan.Plan{Actions: []plan.Action{transferAction(adapterA, 1)}},
		AllowedAdapters: allow(adapterA),
	})
	require.NoError(t, err)
	assert.Equal(t, policy.CodeGuardRejected, res.Code)
}
