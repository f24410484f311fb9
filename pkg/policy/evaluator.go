package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/blossom-labs/blossom/core/pkg/audit"
	"github.com/blossom-labs/blossom/core/pkg/observability"
	"github.com/blossom-labs/blossom/core/pkg/plan"
	"github.com/blossom-labs/blossom/core/pkg/session"
	"github.com/blossom-labs/blossom/core/pkg/spend"
)

// ErrOverridesNotPermitted is returned when a request carries test
// overrides but the evaluator was not built with AllowTestOverrides. This
// is a hard configuration error: the override path is the most
// security-sensitive branch in the engine and must never be silently
// ignored.
var ErrOverridesNotPermitted = errors.New("policy: test overrides used without the override capability")

// Overrides substitutes session state for non-production harnesses. Inert
// unless the evaluator was explicitly constructed with the capability.
type Overrides struct {
	// MaxSpendUnits, when non-empty, replaces the session's cap
	// (decimal string, settlement-asset base units).
	MaxSpendUnits string `json:"maxSpendUnits,omitempty"`
	// SkipSessionCheck substitutes a synthetic always-active session.
	SkipSessionCheck bool `json:"skipSessionCheck,omitempty"`
}

// Request is one authorization request.
type Request struct {
	SessionID       string
	UserAddress     string
	Plan            plan.Plan
	AllowedAdapters map[string]bool // lower-cased adapter addresses
	Overrides       *Overrides
}

// DomainGate is an instrument-specific secondary policy consulted after
// the core checks pass.
type DomainGate interface {
	Applies(instrument plan.Instrument) bool
	Evaluate(ctx context.Context, sessionID string, p plan.Plan, est spend.Estimate) (*Result, error)
}

// Evaluator sequences the authorization checks. It is stateless per call
// and safe for concurrent use.
type Evaluator struct {
	ledger             session.Ledger
	guard              *Guard
	gate               DomainGate
	auditor            *audit.Recorder
	metrics            *observability.Metrics
	logger             *slog.Logger
	clock              func() time.Time
	allowTestOverrides bool
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithGuard installs operator-supplied CEL deny rules.
func WithGuard(g *Guard) Option { return func(e *Evaluator) { e.guard = g } }

// WithDomainGate installs an instrument-specific secondary policy.
func WithDomainGate(g DomainGate) Option { return func(e *Evaluator) { e.gate = g } }

// WithAuditor records every verdict to the audit trail.
func WithAuditor(a *audit.Recorder) Option { return func(e *Evaluator) { e.auditor = a } }

// WithMetrics records decision counters and latency.
func WithMetrics(m *observability.Metrics) Option { return func(e *Evaluator) { e.metrics = m } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Evaluator) { e.logger = l } }

// WithClock overrides the clock for testing.
func WithClock(clock func() time.Time) Option { return func(e *Evaluator) { e.clock = clock } }

// AllowTestOverrides enables the override path. Only test harnesses pass
// this; a production build that never calls it cannot reach the bypass by
// construction.
func AllowTestOverrides() Option { return func(e *Evaluator) { e.allowTestOverrides = true } }

// New creates an Evaluator reading session state from ledger.
func New(ledger session.Ledger, opts ...Option) *Evaluator {
	e := &Evaluator{
		ledger: ledger,
		logger: slog.Default().With("component", "policy"),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs the full check sequence and returns a single verdict.
//
// A (*Result, nil) return is a policy outcome, allow or deny. A non-nil
// error is an upstream fault ("could not determine the answer") and must
// not be treated as an implicit allow by the caller.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (*Result, error) {
	start := e.clock()

	res, err := e.evaluate(ctx, req)
	if err != nil {
		return nil, err
	}

	e.observe(ctx, req, res, e.clock().Sub(start))
	return res, nil
}

func (e *Evaluator) evaluate(ctx context.Context, req Request) (*Result, error) {
	if req.SessionID == "" {
		return nil, fmt.Errorf("policy: session id required")
	}
	if req.UserAddress == "" {
		return nil, fmt.Errorf("policy: user address required")
	}
	if len(req.Plan.Actions) == 0 {
		return denyResult(CodePlanInvalid, "plan has no actions", nil), nil
	}
	if req.Overrides != nil && !e.allowTestOverrides {
		return nil, ErrOverridesNotPermitted
	}

	// 1. Session validity.
	sess, err := e.resolveSession(ctx, req)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return denyResult(CodeSessionNotActive,
			fmt.Sprintf("no session found for id %s", req.SessionID),
			map[string]any{"session_id": req.SessionID}), nil
	}
	if sess.Status != session.StatusActive {
		return denyResult(CodeSessionExpiredOrRevoked,
			fmt.Sprintf("session %s is %s", req.SessionID, sess.Status),
			map[string]any{
				"session_id": req.SessionID,
				"status":     string(sess.Status),
				"expires_at": sess.ExpiresAt.UTC().Format(time.RFC3339),
			}), nil
	}

	// 2. Adapter allow-list, before any spend decoding: unauthorized
	// adapters are never even decoded.
	for _, a := range req.Plan.Actions {
		if !req.AllowedAdapters[strings.ToLower(a.Adapter)] {
			return denyResult(CodeAdapterNotAllowed,
				fmt.Sprintf("adapter %s is not allow-listed", a.Adapter),
				map[string]any{
					"adapter":          a.Adapter,
					"allowed_adapters": sortedKeys(req.AllowedAdapters),
				}), nil
		}
	}

	// 3. Spend determinability.
	est := spend.Plan(req.Plan)
	if !est.Determinable {
		return denyResult(CodeUndeterminedSpend,
			"spend could not be determined for every action",
			map[string]any{
				"action_count": len(req.Plan.Actions),
				"action_types": actionTypeNames(req.Plan.Actions),
			}), nil
	}

	// 4. Spend cap.
	maxSpend, spent := e.effectiveSpendBounds(sess, req.Overrides)
	remaining := new(big.Int).Sub(maxSpend, spent)
	if remaining.Sign() < 0 {
		remaining = new(big.Int)
	}
	if est.TotalSpend.Cmp(remaining) > 0 {
		return denyResult(CodeExceeded,
			fmt.Sprintf("estimated spend %s exceeds remaining allowance %s",
				est.TotalSpend, remaining),
			map[string]any{
				"attempted": est.TotalSpend.String(),
				"cap":       maxSpend.String(),
				"spent":     spent.String(),
				"remaining": remaining.String(),
			}), nil
	}

	// 5. Operator guard rules, fail-closed.
	if e.guard != nil {
		if res := e.guard.Check(req, est, sess); res != nil {
			return res, nil
		}
	}

	// 6. Instrument-specific domain gate.
	if e.gate != nil && e.gate.Applies(est.Instrument) {
		res, err := e.gate.Evaluate(ctx, req.SessionID, req.Plan, est)
		if err != nil {
			return nil, fmt.Errorf("policy: domain gate fault: %w", err)
		}
		if !res.Allowed {
			return res, nil
		}
	}

	return allowResult(), nil
}

func (e *Evaluator) resolveSession(ctx context.Context, req Request) (*session.Session, error) {
	if req.Overrides != nil && req.Overrides.SkipSessionCheck {
		// Synthetic always-active session for non-production harnesses.
		// The cap is effectively unbounded unless MaxSpendUnits narrows it.
		return &session.Session{
			ID:       req.SessionID,
			Owner:    req.UserAddress,
			Executor: req.UserAddress,
			MaxSpend: new(big.Int).Lsh(big.NewInt(1), 128),
			Spent:    new(big.Int),
			Status:   session.StatusActive,
		}, nil
	}
	sess, err := e.ledger.GetSessionStatus(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("policy: session lookup failed: %w", err)
	}
	return sess, nil
}

func (e *Evaluator) effectiveSpendBounds(sess *session.Session, ov *Overrides) (maxSpend, spent *big.Int) {
	maxSpend = sess.MaxSpend
	spent = sess.Spent
	if ov != nil && ov.MaxSpendUnits != "" {
		if v, ok := new(big.Int).SetString(ov.MaxSpendUnits, 10); ok {
			maxSpend = v
			spent = new(big.Int)
		}
	}
	return maxSpend, spent
}

func (e *Evaluator) observe(ctx context.Context, req Request, res *Result, elapsed time.Duration) {
	if res.Allowed {
		e.logger.InfoContext(ctx, "plan authorized",
			"session_id", req.SessionID, "actions", len(req.Plan.Actions))
	} else {
		e.logger.InfoContext(ctx, "plan denied",
			"session_id", req.SessionID, "code", res.Code, "message", res.Message)
	}

	if e.metrics != nil {
		e.metrics.RecordDecision(ctx, res.Allowed, res.Code, elapsed)
	}

	if e.auditor != nil {
		hash, err := ResultHash(res)
		if err != nil {
			e.logger.ErrorContext(ctx, "decision hash failed", "error", err)
			hash = "sha256:unknown"
		}
		if err := e.auditor.Record(ctx, audit.Event{
			SessionID:    req.SessionID,
			UserAddress:  req.UserAddress,
			Allowed:      res.Allowed,
			Code:         res.Code,
			DecisionHash: hash,
			ActionCount:  len(req.Plan.Actions),
		}); err != nil {
			e.logger.ErrorContext(ctx, "audit record failed", "error", err)
		}
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func actionTypeNames(actions []plan.Action) []string {
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = a.Type.String()
	}
	return names
}

