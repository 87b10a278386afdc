package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// PreferenceKey is the fixed key the enabled flag lives under
const PreferenceKey = "trip-notifications-enabled"

// SQLitePreferences is the agent's local key/value store
type SQLitePreferences struct {
	db *sqlx.DB
}

// OpenSQLitePreferences opens (and creates) the store at path
func OpenSQLitePreferences(path string) (*SQLitePreferences, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences store: %w", err)
	}
	// One connection keeps ":memory:" databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS preferences (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate preferences store: %w", err)
	}
	return &SQLitePreferences{db: db}, nil
}

func (p *SQLitePreferences) LoadEnabled(ctx context.Context) (bool, error) {
	var value string
	err := p.db.GetContext(ctx, &value, `SELECT value FROM preferences WHERE key = ?`, PreferenceKey)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read preference: %w", err)
	}
	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("corrupt preference value %q: %w", value, err)
	}
	return enabled, nil
}

func (p *SQLitePreferences) SaveEnabled(ctx context.Context, enabled bool) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, PreferenceKey, strconv.FormatBool(enabled), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save preference: %w", err)
	}
	return nil
}

func (p *SQLitePreferences) Close() error {
	return p.db.Close()
}
