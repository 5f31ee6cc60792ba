// Package store persists local player data (settings, campaign progress,
// lifetime statistics) in a sqlite database under the data directory. The
// authority never reads this; it only survives restarts on this machine.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const fileName = "rollcube.db"

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

const (
	keySettings   = "settings"
	keyProgress   = "progress"
	keyStatistics = "statistics"
)

// Store is a small JSON-over-sqlite key/value layer.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database under dir and applies the schema.
func Open(ctx context.Context, dir string) (*Store, error) {
	path := filepath.Join(dir, fileName)
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores a value under key, replacing any previous record.
func (s *Store) Put(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encode %q: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("store: put %q: %w", key, err)
	}
	return nil
}

// Get loads the value under key into out. It reports false when the key has
// never been written.
func (s *Store) Get(ctx context.Context, key string, out any) (bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: get %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return false, fmt.Errorf("store: decode %q: %w", key, err)
	}
	return true, nil
}

// Delete removes the record under key, if any.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("store: delete %q: %w", key, err)
	}
	return nil
}

// Settings is what the player configured locally.
type Settings struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Color      string `json:"color,omitempty"`
}

// Progress tracks how far the local player has come.
type Progress struct {
	HighestLevel    int   `json:"highestLevel"`
	BestScore       int   `json:"bestScore"`
	CompletedLevels []int `json:"completedLevels,omitempty"`
}

// Statistics accumulates lifetime counters.
type Statistics struct {
	SessionsPlayed  int `json:"sessionsPlayed"`
	ItemsCollected  int `json:"itemsCollected"`
	GravityShifts   int `json:"gravityShifts"`
	LevelsCompleted int `json:"levelsCompleted"`
}

func (s *Store) SaveSettings(ctx context.Context, v Settings) error {
	return s.Put(ctx, keySettings, v)
}

func (s *Store) LoadSettings(ctx context.Context) (Settings, bool, error) {
	var v Settings
	ok, err := s.Get(ctx, keySettings, &v)
	return v, ok, err
}

func (s *Store) SaveProgress(ctx context.Context, v Progress) error {
	return s.Put(ctx, keyProgress, v)
}

func (s *Store) LoadProgress(ctx context.Context) (Progress, bool, error) {
	var v Progress
	ok, err := s.Get(ctx, keyProgress, &v)
	return v, ok, err
}

func (s *Store) SaveStatistics(ctx context.Context, v Statistics) error {
	return s.Put(ctx, keyStatistics, v)
}

func (s *Store) LoadStatistics(ctx context.Context) (Statistics, bool, error) {
	var v Statistics
	ok, err := s.Get(ctx, keyStatistics, &v)
	return v, ok, err
}
