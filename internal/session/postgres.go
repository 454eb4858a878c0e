package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore keeps sessions in the sessions table (see store.Migrate).
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Session, error) {
	var s Session
	err := p.db.QueryRowContext(ctx, `
		SELECT id, token, user_id, username, role, created_at, expires_at
		FROM sessions WHERE id = $1 AND expires_at > now()`, id).
		Scan(&s.ID, &s.APIToken, &s.User.ID, &s.User.Username, &s.User.Role, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	return &s, nil
}

func (p *PostgresStore) Put(ctx context.Context, s *Session) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO sessions (id, token, user_id, username, role, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET token = EXCLUDED.token, user_id = EXCLUDED.user_id,
			username = EXCLUDED.username, role = EXCLUDED.role, expires_at = EXCLUDED.expires_at`,
		s.ID, s.APIToken, s.User.ID, s.User.Username, s.User.Role, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Purge removes expired sessions and returns how many were deleted.
func (p *PostgresStore) Purge(ctx context.Context) (int64, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return res.RowsAffected()
}

// Healthy verifies the database answers.
func (p *PostgresStore) Healthy(ctx context.Context) bool {
	return p.db.PingContext(ctx) == nil
}
