package session_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blossom-labs/blossom/core/pkg/session"
)

func sample(id string) *session.Session {
	return &session.Session{
		ID:        id,
		Owner:     "0xaaaa000000000000000000000000000000000001",
		Executor:  "0xbbbb000000000000000000000000000000000002",
		ExpiresAt: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
		MaxSpend:  big.NewInt(1_000_000),
		Spent:     big.NewInt(250_000),
		Status:    session.StatusActive,
	}
}

func TestMemoryLedgerRoundTrip(t *testing.T) {
	l := session.NewMemoryLedger()
	l.Put(sample("s1"))

	got, err := l.GetSessionStatus(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, big.NewInt(1_000_000), got.MaxSpend)
	assert.Equal(t, session.StatusActive, got.Status)
}

func TestMemoryLedgerMissingSession(t *testing.T) {
	l := session.NewMemoryLedger()

	got, err := l.GetSessionStatus(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryLedgerReturnsCopies(t *testing.T) {
	l := session.NewMemoryLedger()
	l.Put(sample("s1"))

	first, err := l.GetSessionStatus(context.Background(), "s1")
	require.NoError(t, err)
	first.Spent.Add(first.Spent, big.NewInt(999))

	second, err := l.GetSessionStatus(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(250_000), second.Spent)
}

func TestRemainingFloorsAtZero(t *testing.T) {
	s := sample("s1")
	assert.Equal(t, big.NewInt(750_000), s.Remaining())

	s.Spent = big.NewInt(2_000_000)
	assert.Zero(t, s.Remaining().Sign())
}

func TestLedgerFunc(t *testing.T) {
	l := session.LedgerFunc(func(ctx context.Context, id string) (*session.Session, error) {
		return sample(id), nil
	})

	got, err := l.GetSessionStatus(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.ID)
}
