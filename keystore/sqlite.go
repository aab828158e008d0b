package keystore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	goMFA "github.com/MrEthical07/goMFA"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS mfa_keys (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	method     TEXT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	secret     TEXT NOT NULL,
	last_code  TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_mfa_keys_user ON mfa_keys (user_id, method);
`

// SQLite defines a public type used by goMFA APIs.
//
// SQLite instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite describes the opensqlite operation and its observable behavior.
//
// OpenSQLite may return an error when input validation, dependency calls, or security checks fail.
// OpenSQLite does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc's driver serializes writes internally but a single connection
	// avoids SQLITE_BUSY on concurrent write attempts.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// List describes the list operation and its observable behavior.
//
// List may return an error when input validation, dependency calls, or security checks fail.
// List does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *SQLite) List(ctx context.Context, userID, method string) ([]goMFA.Key, error) {
	query := `SELECT id, user_id, method, name, secret, last_code, created_at
		FROM mfa_keys WHERE user_id = ?`
	args := []any{userID}
	if method != "" {
		query += ` AND method = ?`
		args = append(args, method)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var out []goMFA.Key
	for rows.Next() {
		var key goMFA.Key
		if err := rows.Scan(&key.ID, &key.UserID, &key.Method, &key.Name, &key.Secret, &key.LastCode, &key.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		out = append(out, key)
	}
	return out, rows.Err()
}

// Create describes the create operation and its observable behavior.
//
// Create may return an error when input validation, dependency calls, or security checks fail.
// Create does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *SQLite) Create(ctx context.Context, key goMFA.Key) (goMFA.Key, error) {
	if key.ID == "" {
		key.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mfa_keys (id, user_id, method, name, secret, last_code, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		key.ID, key.UserID, key.Method, key.Name, key.Secret, key.LastCode, key.CreatedAt,
	)
	if err != nil {
		return goMFA.Key{}, fmt.Errorf("create key: %w", err)
	}
	return key, nil
}

// Delete describes the delete operation and its observable behavior.
//
// Delete may return an error when input validation, dependency calls, or security checks fail.
// Delete does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *SQLite) Delete(ctx context.Context, userID, keyID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM mfa_keys WHERE id = ? AND user_id = ?`, keyID, userID)
	if err != nil {
		return fmt.Errorf("delete key: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete key: %w", err)
	}
	if affected == 0 {
		return goMFA.ErrKeyNotFound
	}
	return nil
}

// UpdateLastCode describes the updatelastcode operation and its observable behavior.
//
// UpdateLastCode may return an error when input validation, dependency calls, or security checks fail.
// UpdateLastCode does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *SQLite) UpdateLastCode(ctx context.Context, keyID, code string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE mfa_keys SET last_code = ? WHERE id = ?`, code, keyID)
	if err != nil {
		return fmt.Errorf("update last code: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update last code: %w", err)
	}
	if affected == 0 {
		return goMFA.ErrKeyNotFound
	}
	return nil
}
