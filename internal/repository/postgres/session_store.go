package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"attractions-web/internal/domain"
)

const upsertKeyQuery = `
		INSERT INTO client_storage (profile_id, key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (profile_id, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

// SessionRepository owns the prepared statements for the client_storage table.
// Use ForProfile to obtain a domain.SessionStore scoped to one browser profile.
type SessionRepository struct {
	db              *sql.DB
	tx              *TxManager
	readStmt        *sql.Stmt
	deleteStmt      *sql.Stmt
	deleteStaleStmt *sql.Stmt
}

// NewSessionRepository creates a new SessionRepository with prepared statements.
// Returns an error if statement preparation fails.
func NewSessionRepository(db *sql.DB) (*SessionRepository, error) {
	repo := &SessionRepository{db: db, tx: NewTxManager(db)}

	var err error
	repo.readStmt, err = db.Prepare(`
		SELECT key, value
		FROM client_storage
		WHERE profile_id = $1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare read statement: %w", err)
	}

	repo.deleteStmt, err = db.Prepare(`DELETE FROM client_storage WHERE profile_id = $1`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	repo.deleteStaleStmt, err = db.Prepare(`DELETE FROM client_storage WHERE updated_at <= $1`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare deleteStale statement: %w", err)
	}

	return repo, nil
}

// ForProfile returns the session store of a single profile.
func (r *SessionRepository) ForProfile(profileID string) *SessionStore {
	return &SessionStore{repo: r, profileID: profileID}
}

// DeleteStale removes every stored key not written since before.
func (r *SessionRepository) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.deleteStaleStmt.ExecContext(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale sessions: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return count, nil
}

// SessionStore implements domain.SessionStore on client_storage rows.
type SessionStore struct {
	repo      *SessionRepository
	profileID string
}

// Save writes all three session keys in one transaction.
func (s *SessionStore) Save(ctx context.Context, session domain.Session) error {
	if !session.Valid() {
		return domain.ErrIncompleteSession
	}

	now := time.Now()
	values := session.Values()
	err := s.repo.tx.WithTx(ctx, func(tx *sql.Tx) error {
		for _, key := range domain.SessionKeys {
			if _, err := tx.ExecContext(ctx, upsertKeyQuery, s.profileID, key, values[key], now); err != nil {
				return fmt.Errorf("failed to store %s: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Read returns the stored session. Partially stored sessions are deleted and read as absent.
func (s *SessionStore) Read(ctx context.Context) (domain.Session, error) {
	rows, err := s.repo.readStmt.QueryContext(ctx, s.profileID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to read session: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string, len(domain.SessionKeys))
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return domain.Session{}, fmt.Errorf("failed to scan session key: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return domain.Session{}, fmt.Errorf("failed to iterate session keys: %w", err)
	}

	if len(values) == 0 {
		return domain.Session{}, nil
	}

	session, ok := domain.SessionFromValues(values)
	if !ok {
		return domain.Session{}, s.Clear(ctx)
	}
	return session, nil
}

// Clear deletes all keys of the profile.
func (s *SessionStore) Clear(ctx context.Context) error {
	if _, err := s.repo.deleteStmt.ExecContext(ctx, s.profileID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
