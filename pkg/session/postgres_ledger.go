package session

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"

	_ "github.com/lib/pq"
)

// PostgresLedger mirrors session snapshots in PostgreSQL, shared across
// relay instances. Same TEXT decimal convention as the SQLite mirror.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) GetSessionStatus(ctx context.Context, sessionID string) (*Session, error) {
	row := l.db.QueryRowContext(ctx,
		"SELECT session_id, owner, executor, expires_at, max_spend, spent, status FROM sessions WHERE session_id = $1",
		sessionID)

	var (
		s        Session
		maxSpend string
		spent    string
		status   string
	)
	err := row.Scan(&s.ID, &s.Owner, &s.Executor, &s.ExpiresAt, &maxSpend, &spent, &status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: postgres scan failed: %w", err)
	}
	var ok bool
	if s.MaxSpend, ok = new(big.Int).SetString(maxSpend, 10); !ok {
		return nil, fmt.Errorf("session: bad max_spend %q", maxSpend)
	}
	if s.Spent, ok = new(big.Int).SetString(spent, 10); !ok {
		return nil, fmt.Errorf("session: bad spent %q", spent)
	}
	s.Status = Status(status)
	return &s, nil
}

// Put upserts a session snapshot.
func (l *PostgresLedger) Put(ctx context.Context, s *Session) error {
	query := `
    INSERT INTO sessions (session_id, owner, executor, expires_at, max_spend, spent, status)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    ON CONFLICT (session_id) DO UPDATE SET
        expires_at = EXCLUDED.expires_at,
        max_spend = EXCLUDED.max_spend,
        spent = EXCLUDED.spent,
        status = EXCLUDED.status`
	_, err := l.db.ExecContext(ctx, query,
		s.ID, s.Owner, s.Executor, s.ExpiresAt.UTC(),
		s.MaxSpend.String(), s.Spent.String(), string(s.Status))
	if err != nil {
		return fmt.Errorf("session: postgres upsert failed: %w", err)
	}
	return nil
}
