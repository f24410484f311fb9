// Package session models the delegated spend session as read by the
// authorization engine. The authoritative ledger is external (on-chain);
// this package defines the read-only lookup contract plus the mirror
// stores the surrounding service keeps warm.
package session

import (
	"context"
	"math/big"
	"sync"
	"time"
)

// Status is the session lifecycle state as reported by the ledger.
type Status string

const (
	StatusActive     Status = "active"
	StatusExpired    Status = "expired"
	StatusRevoked    Status = "revoked"
	StatusNotCreated Status = "not_created"
)

// Session is a snapshot of one delegated session. Spend accounting is in
// fixed-point settlement-asset base units, not the chain's gas unit.
type Session struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Executor  string    `json:"executor"`
	ExpiresAt time.Time `json:"expires_at"`
	MaxSpend  *big.Int  `json:"-"`
	Spent     *big.Int  `json:"-"`
	Status    Status    `json:"status"`
}

// Remaining returns maxSpend - spent, floored at zero.
func (s *Session) Remaining() *big.Int {
	r := new(big.Int).Sub(s.MaxSpend, s.Spent)
	if r.Sign() < 0 {
		return new(big.Int)
	}
	return r
}

// Ledger resolves a session snapshot. A nil session with nil error means
// the session does not exist. Lookups may block on I/O; callers apply
// their own timeout via ctx.
type Ledger interface {
	GetSessionStatus(ctx context.Context, sessionID string) (*Session, error)
}

// LedgerFunc adapts a plain lookup function to the Ledger interface.
type LedgerFunc func(ctx context.Context, sessionID string) (*Session, error)

func (f LedgerFunc) GetSessionStatus(ctx context.Context, sessionID string) (*Session, error) {
	return f(ctx, sessionID)
}

// MemoryLedger is an in-process mirror, used in tests and single-node
// deployments.
type MemoryLedger struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{sessions: make(map[string]*Session)}
}

// Put stores a snapshot, replacing any previous one for the same ID.
func (m *MemoryLedger) Put(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.MaxSpend = new(big.Int).Set(s.MaxSpend)
	cp.Spent = new(big.Int).Set(s.Spent)
	m.sessions[s.ID] = &cp
}

func (m *MemoryLedger) GetSessionStatus(ctx context.Context, sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *s
	cp.MaxSpend = new(big.Int).Set(s.MaxSpend)
	cp.Spent = new(big.Int).Set(s.Spent)
	return &cp, nil
}
