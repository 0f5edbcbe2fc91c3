// Package library persists published episodes in SQLite.
//
// The daemon's job map is intentionally in-memory; the library is the durable
// record the RSS feed and the episodes API are rebuilt from.
package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"podforge/internal/config"
	"podforge/internal/services"
)

// Episode is one published episode row.
type Episode struct {
	ID          int64     `json:"id"`
	Number      int       `json:"episodeNumber"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AudioPath   string    `json:"audioPath"`
	AudioURL    string    `json:"audioUrl"`
	SizeBytes   int64     `json:"sizeBytes"`
	Duration    float64   `json:"durationSeconds"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Store manages episode persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the episode database under the output
// directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.OutputDir, "library.db"))
}

// OpenPath opens the episode database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS episodes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    number INTEGER NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    audio_path TEXT NOT NULL,
    audio_url TEXT NOT NULL DEFAULT '',
    size_bytes INTEGER NOT NULL DEFAULT 0,
    duration_seconds REAL NOT NULL DEFAULT 0,
    published_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_episodes_published ON episodes(published_at DESC);
`
	return s.execWithoutResultRetry(ctx, schema)
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Add inserts a published episode and returns it with its assigned id and
// number. The episode number continues from the highest stored one.
func (s *Store) Add(ctx context.Context, episode Episode) (Episode, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(episode.Title) == "" {
		return Episode{}, services.Wrap(services.ErrValidation, "library", "add", "title required", nil)
	}
	if episode.PublishedAt.IsZero() {
		episode.PublishedAt = time.Now().UTC()
	}
	if episode.Number <= 0 {
		next, err := s.NextNumber(ctx)
		if err != nil {
			return Episode{}, err
		}
		episode.Number = next
	}

	res, err := s.execWithRetry(ctx,
		`INSERT INTO episodes (number, title, description, audio_path, audio_url, size_bytes, duration_seconds, published_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		episode.Number, episode.Title, episode.Description, episode.AudioPath,
		episode.AudioURL, episode.SizeBytes, episode.Duration, episode.PublishedAt.UTC())
	if err != nil {
		return Episode{}, fmt.Errorf("insert episode: %w", err)
	}
	episode.ID, err = res.LastInsertId()
	if err != nil {
		return Episode{}, fmt.Errorf("episode id: %w", err)
	}
	return episode, nil
}

// NextNumber returns one past the highest stored episode number.
func (s *Store) NextNumber(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var max sql.NullInt64
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, `SELECT MAX(number) FROM episodes`).Scan(&max)
	})
	if err != nil {
		return 0, fmt.Errorf("max episode number: %w", err)
	}
	return int(max.Int64) + 1, nil
}

// List returns all episodes, newest first.
func (s *Store) List(ctx context.Context) ([]Episode, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, number, title, description, audio_path, audio_url, size_bytes, duration_seconds, published_at
		 FROM episodes ORDER BY published_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		var ep Episode
		if err := rows.Scan(&ep.ID, &ep.Number, &ep.Title, &ep.Description, &ep.AudioPath,
			&ep.AudioURL, &ep.SizeBytes, &ep.Duration, &ep.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		episodes = append(episodes, ep)
	}
	return episodes, rows.Err()
}

// Get returns one episode by id.
func (s *Store) Get(ctx context.Context, id int64) (Episode, error) {
	ctx = ensureContext(ctx)
	var ep Episode
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT id, number, title, description, audio_path, audio_url, size_bytes, duration_seconds, published_at
			 FROM episodes WHERE id = ?`, id).
			Scan(&ep.ID, &ep.Number, &ep.Title, &ep.Description, &ep.AudioPath,
				&ep.AudioURL, &ep.SizeBytes, &ep.Duration, &ep.PublishedAt)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Episode{}, services.Wrap(services.ErrNotFound, "library", "get", fmt.Sprintf("episode %d", id), nil)
	}
	if err != nil {
		return Episode{}, fmt.Errorf("get episode: %w", err)
	}
	return ep, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ensureContext(ctx), func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) execWithoutResultRetry(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ensureContext(ctx), func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}
