package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLStore keeps sessions in a MySQL table with one row per session value:
//
//	CREATE TABLE session_values (
//	  id         CHAR(64)     NOT NULL,
//	  field      VARCHAR(64)  NOT NULL,
//	  value      TEXT         NOT NULL,
//	  expires_at DATETIME     NOT NULL,
//	  PRIMARY KEY (id, field),
//	  INDEX idx_session_values_expires (expires_at)
//	);
//
// Every row of a session carries the same expires_at; Set moves it forward
// for all of them.
type SQLStore struct {
	DB  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{DB: db, now: time.Now} }

// EnsureSchema creates the session_values table when it does not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS session_values (
		id CHAR(64) NOT NULL,
		field VARCHAR(64) NOT NULL,
		value TEXT NOT NULL,
		expires_at DATETIME NOT NULL,
		PRIMARY KEY (id, field),
		INDEX idx_session_values_expires (expires_at)
	)`)
	return err
}

func (s *SQLStore) Load(ctx context.Context, key string) (map[string]string, error) {
	rows, err := s.DB.QueryContext(ctx,
		"SELECT field, value FROM session_values WHERE id=? AND expires_at > ?",
		key, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	defer rows.Close()
	values := map[string]string{}
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		values[field] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	if len(values) == 0 {
		return nil, ErrNotFound
	}
	return values, nil
}

func (s *SQLStore) Set(ctx context.Context, key, field, value string, ttl time.Duration) (err error) {
	exp := s.now().UTC().Add(ttl)
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx,
		"INSERT INTO session_values (id, field, value, expires_at) VALUES (?,?,?,?) ON DUPLICATE KEY UPDATE value=VALUES(value), expires_at=VALUES(expires_at)",
		key, field, value, exp); err != nil {
		return fmt.Errorf("upsert session value: %w", err)
	}
	if _, err = tx.ExecContext(ctx,
		"UPDATE session_values SET expires_at=? WHERE id=?", exp, key); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLStore) Unset(ctx context.Context, key, field string) error {
	if _, err := s.DB.ExecContext(ctx,
		"DELETE FROM session_values WHERE id=? AND field=?", key, field); err != nil {
		return fmt.Errorf("delete session value: %w", err)
	}
	return nil
}

// Take locks the row, reads it and deletes it inside one transaction.  A
// concurrent Take of the same field blocks on the lock and then finds no row.
func (s *SQLStore) Take(ctx context.Context, key, field string) (value string, ok bool, err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil || !ok {
			_ = tx.Rollback()
		}
	}()
	err = tx.QueryRowContext(ctx,
		"SELECT value FROM session_values WHERE id=? AND field=? AND expires_at > ? FOR UPDATE",
		key, field, s.now().UTC()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select session value: %w", err)
	}
	if _, err = tx.ExecContext(ctx,
		"DELETE FROM session_values WHERE id=? AND field=?", key, field); err != nil {
		return "", false, fmt.Errorf("delete session value: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return "", false, fmt.Errorf("commit: %w", err)
	}
	return value, true, nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.DB.ExecContext(ctx, "DELETE FROM session_values WHERE id=?", key); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes rows whose lifetime has ended and returns how many
// were removed.
func (s *SQLStore) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM session_values WHERE expires_at <= ?", s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLStore) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }
