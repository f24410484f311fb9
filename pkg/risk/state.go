package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Position is one open leveraged position.
type Position struct {
	Side     string  `json:"side"`
	Size     float64 `json:"size"`
	Leverage float64 `json:"leverage"`
	Entry    float64 `json:"entry"`
}

// State is the per-session running risk state, accumulated across prior
// approved operations. The policy only reads it; the caller mutates and
// persists it after an approved operation executes.
type State struct {
	OpenInterest    float64             `json:"open_interest"`
	OpenPositions   int                 `json:"open_positions"`
	BondSpend       float64             `json:"bond_spend"`
	MarketCreations int                 `json:"market_creations"`
	Positions       map[string]Position `json:"positions,omitempty"`
}

// StateStore persists per-session risk state. Load returns a zero state
// for sessions with no history.
type StateStore interface {
	Load(ctx context.Context, sessionID string) (State, error)
	Save(ctx context.Context, sessionID string, state State) error
}

// MemoryStateStore keeps risk state in-process.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[string]State
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]State)}
}

func (m *MemoryStateStore) Load(ctx context.Context, sessionID string) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.states[sessionID], nil
}

func (m *MemoryStateStore) Save(ctx context.Context, sessionID string, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[sessionID] = state
	return nil
}

// RedisStateStore shares risk state across relay instances.
type RedisStateStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client, prefix: "risk_state:"}
}

func (r *RedisStateStore) Load(ctx context.Context, sessionID string) (State, error) {
	raw, err := r.client.Get(ctx, r.prefix+sessionID).Bytes()
	if err == redis.Nil {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("risk: state load failed: %w", err)
	}
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, fmt.Errorf("risk: state unmarshal failed: %w", err)
	}
	return s, nil
}

func (r *RedisStateStore) Save(ctx context.Context, sessionID string, state State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("risk: state marshal failed: %w", err)
	}
	if err := r.client.Set(ctx, r.prefix+sessionID, raw, 0).Err(); err != nil {
		return fmt.Errorf("risk: state save failed: %w", err)
	}
	return nil
}
