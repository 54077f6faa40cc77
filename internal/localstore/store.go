// Package localstore is the shopper's durable on-disk state: one cart per
// scope and the current bearer credential.
package localstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"storefront/internal/cart"
	"storefront/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

const credentialName = "session"

// Store is a SQLite-backed cart.Persister and session.CredentialStore.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect local store: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load returns the cart saved for scope, or an empty cart.
func (s *Store) Load(ctx context.Context, scope cart.Scope) ([]domain.CartLine, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT lines FROM cart_scopes WHERE scope = ?`, string(scope)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []domain.CartLine{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", scope, err)
	}
	lines := []domain.CartLine{}
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", scope, err)
	}
	return lines, nil
}

// Save replaces the cart stored for scope.
func (s *Store) Save(ctx context.Context, scope cart.Scope, lines []domain.CartLine) error {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart %s: %w", scope, err)
	}
	const q = `
INSERT INTO cart_scopes (scope, lines, updated_at) VALUES (?, ?, ?)
ON CONFLICT (scope) DO UPDATE SET lines = excluded.lines, updated_at = excluded.updated_at
`
	if _, err := s.db.ExecContext(ctx, q, string(scope), string(raw), s.now().UTC().UnixMilli()); err != nil {
		return fmt.Errorf("save cart %s: %w", scope, err)
	}
	return nil
}

// Credential returns the stored bearer credential, or "" when none is stored.
func (s *Store) Credential(ctx context.Context) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM credentials WHERE name = ?`, credentialName).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load credential: %w", err)
	}
	return v, nil
}

func (s *Store) SetCredential(ctx context.Context, token string) error {
	const q = `
INSERT INTO credentials (name, value) VALUES (?, ?)
ON CONFLICT (name) DO UPDATE SET value = excluded.value
`
	if _, err := s.db.ExecContext(ctx, q, credentialName, token); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

func (s *Store) ClearCredential(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE name = ?`, credentialName); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}
