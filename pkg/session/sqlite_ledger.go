package session

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteLedger mirrors session snapshots in a local SQLite database.
// Amounts are stored as decimal TEXT to keep full integer precision.
type SQLiteLedger struct {
	db *sql.DB
}

func NewSQLiteLedger(db *sql.DB) (*SQLiteLedger, error) {
	l := &SQLiteLedger{db: db}
	if err := l.migrate(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *SQLiteLedger) migrate() error {
	query := `
    CREATE TABLE IF NOT EXISTS sessions (
        session_id TEXT PRIMARY KEY,
        owner TEXT NOT NULL,
        executor TEXT NOT NULL,
        expires_at DATETIME NOT NULL,
        max_spend TEXT NOT NULL,
        spent TEXT NOT NULL DEFAULT '0',
        status TEXT NOT NULL
    );`
	_, err := l.db.ExecContext(context.Background(), query)
	return err
}

func (l *SQLiteLedger) GetSessionStatus(ctx context.Context, sessionID string) (*Session, error) {
	row := l.db.QueryRowContext(ctx,
		"SELECT session_id, owner, executor, expires_at, max_spend, spent, status FROM sessions WHERE session_id = ?",
		sessionID)
	return scanSession(row)
}

// Put upserts a session snapshot.
func (l *SQLiteLedger) Put(ctx context.Context, s *Session) error {
	query := `
    INSERT INTO sessions (session_id, owner, executor, expires_at, max_spend, spent, status)
    VALUES (?, ?, ?, ?, ?, ?, ?)
    ON CONFLICT (session_id) DO UPDATE SET
        expires_at = excluded.expires_at,
        max_spend = excluded.max_spend,
        spent = excluded.spent,
        status = excluded.status`
	_, err := l.db.ExecContext(ctx, query,
		s.ID, s.Owner, s.Executor, s.ExpiresAt.UTC().Format(time.RFC3339Nano),
		s.MaxSpend.String(), s.Spent.String(), string(s.Status))
	if err != nil {
		return fmt.Errorf("session: sqlite upsert failed: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		s         Session
		expiresAt string
		maxSpend  string
		spent     string
		status    string
	)
	err := row.Scan(&s.ID, &s.Owner, &s.Executor, &expiresAt, &maxSpend, &spent, &status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: scan failed: %w", err)
	}
	s.ExpiresAt, err = time.Parse(time.RFC3339Nano, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("session: bad expires_at %q: %w", expiresAt, err)
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
