// Package storage is the local persistence layer: a small SQLite
// database holding the current session and a best-effort snapshot of the
// last fetched expense list. The remote service stays the source of
// truth; nothing here is ever synced back.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"pennywise/internal/core"
	applog "pennywise/internal/log"
)

// sessionKey is the single row id of the session table: at most one user
// is signed in at a time.
const sessionKey = 1

// Vault is the SQLite-backed local store.
type Vault struct {
	db     *sql.DB
	logger *applog.Logger
}

// NewVault opens (or creates) the vault database at dbPath and applies
// pending migrations.
func NewVault(dbPath string, logger *applog.Logger) (*Vault, error) {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Vault{
		db:     db,
		logger: logger.WithComponent(applog.ComponentStorage),
	}, nil
}

func (v *Vault) Close() error {
	if v.db != nil {
		return v.db.Close()
	}
	return nil
}

// SaveSession persists u as the current session, replacing any prior
// one. The password hash is stripped before serialization.
func (v *Vault) SaveSession(ctx context.Context, u core.User) error {
	payload, err := json.Marshal(u.Sanitized())
	if err != nil {
		return fmt.Errorf("%w: marshal session: %v", core.ErrStorage, err)
	}

	_, err = v.db.ExecContext(ctx,
		`INSERT INTO session (id, payload, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		sessionKey, string(payload), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("%w: save session: %v", core.ErrStorage, err)
	}

	v.logger.DebugContext(ctx, "Session persisted", applog.FieldUserID, u.ID)
	return nil
}

// LoadSession returns the persisted user, or nil when no session exists.
// A stored value that fails to parse counts as "no session", not as an
// error; the corrupt row is logged and ignored.
func (v *Vault) LoadSession(ctx context.Context) (*core.User, error) {
	var payload string
	err := v.db.QueryRowContext(ctx,
		`SELECT payload FROM session WHERE id = ?`, sessionKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load session: %v", core.ErrStorage, err)
	}

	var u core.User
	if err := json.Unmarshal([]byte(payload), &u); err != nil {
		v.logger.WarnContext(ctx, "Stored session unreadable, treating as signed out",
			applog.FieldError, err)
		return nil, nil
	}
	return &u, nil
}

// ClearSession removes the persisted session. Clearing an empty vault is
// not an error.
func (v *Vault) ClearSession(ctx context.Context) error {
	if _, err := v.db.ExecContext(ctx, `DELETE FROM session WHERE id = ?`, sessionKey); err != nil {
		return fmt.Errorf("%w: clear session: %v", core.ErrStorage, err)
	}
	return nil
}

// SaveSnapshot replaces the cached expense list for ownerID with items.
func (v *Vault) SaveSnapshot(ctx context.Context, ownerID string, items []core.Expense) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: marshal snapshot: %v", core.ErrStorage, err)
	}

	_, err = v.db.ExecContext(ctx,
		`INSERT INTO expense_snapshot (owner_id, payload, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(owner_id) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		ownerID, string(payload), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("%w: save snapshot: %v", core.ErrStorage, err)
	}

	v.logger.DebugContext(ctx, "Expense snapshot persisted",
		applog.FieldOwnerID, ownerID,
		applog.FieldCount, len(items))
	return nil
}

// LoadSnapshot returns the cached expense list for ownerID and the time
// it was taken. No snapshot yields an empty list and a zero time.
func (v *Vault) LoadSnapshot(ctx context.Context, ownerID string) ([]core.Expense, time.Time, error) {
	var payload string
	var savedAt int64
	err := v.db.QueryRowContext(ctx,
		`SELECT payload, saved_at FROM expense_snapshot WHERE owner_id = ?`, ownerID).
		Scan(&payload, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: load snapshot: %v", core.ErrStorage, err)
	}

	var items []core.Expense
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		v.logger.WarnContext(ctx, "Stored snapshot unreadable, treating as empty",
			applog.FieldError, err)
		return nil, time.Time{}, nil
	}
	return items, time.UnixMilli(savedAt), nil
}
