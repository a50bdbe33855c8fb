// Package index caches parsed beatmap summaries in a SQLite database.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/Faultbox/beatmap/internal/scan"
	"github.com/Faultbox/beatmap/pkg/beatmap"
)

// ErrNotFound is returned when no beatmap is indexed under a path.
var ErrNotFound = errors.New("beatmap not indexed")

const schema = `
CREATE TABLE IF NOT EXISTS beatmaps (
	path               TEXT PRIMARY KEY,
	artist             TEXT NOT NULL,
	title              TEXT NOT NULL,
	creator            TEXT NOT NULL,
	version            TEXT NOT NULL,
	beatmap_id         INTEGER NOT NULL,
	beatmap_set_id     INTEGER NOT NULL,
	format_version     INTEGER NOT NULL,
	audio_filename     TEXT NOT NULL,
	approach_rate      REAL NOT NULL,
	circle_size        REAL NOT NULL,
	hp_drain           REAL NOT NULL,
	overall_difficulty REAL NOT NULL,
	slider_multiplier  REAL NOT NULL,
	slider_tick_rate   REAL NOT NULL,
	circles            INTEGER NOT NULL,
	sliders            INTEGER NOT NULL,
	spinners           INTEGER NOT NULL,
	length_ms          INTEGER NOT NULL,
	warnings           INTEGER NOT NULL,
	indexed_at         INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS beatmaps_set ON beatmaps (beatmap_set_id);
`

const columns = `path, artist, title, creator, version, beatmap_id, beatmap_set_id,
	format_version, audio_filename, approach_rate, circle_size, hp_drain,
	overall_difficulty, slider_multiplier, slider_tick_rate, circles, sliders,
	spinners, length_ms, warnings, indexed_at`

const upsertQuery = `INSERT INTO beatmaps (` + columns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
	artist = excluded.artist,
	title = excluded.title,
	creator = excluded.creator,
	version = excluded.version,
	beatmap_id = excluded.beatmap_id,
	beatmap_set_id = excluded.beatmap_set_id,
	format_version = excluded.format_version,
	audio_filename = excluded.audio_filename,
	approach_rate = excluded.approach_rate,
	circle_size = excluded.circle_size,
	hp_drain = excluded.hp_drain,
	overall_difficulty = excluded.overall_difficulty,
	slider_multiplier = excluded.slider_multiplier,
	slider_tick_rate = excluded.slider_tick_rate,
	circles = excluded.circles,
	sliders = excluded.sliders,
	spinners = excluded.spinners,
	length_ms = excluded.length_ms,
	warnings = excluded.warnings,
	indexed_at = excluded.indexed_at`

// Entry is one indexed beatmap.
type Entry struct {
	Path      string
	Summary   beatmap.Summary
	IndexedAt time.Time
}

// Index is an open beatmap index.
type Index struct {
	db  *sql.DB
	log *zap.Logger
	now func() time.Time
}

// Open opens or creates the index database at path.
func Open(path string, log *zap.Logger) (*Index, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	log.Debug("index opened", zap.String("path", path))
	return &Index{db: db, log: log, now: time.Now}, nil
}

// Close closes the database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Upsert stores the summary of the beatmap at path, replacing any
// previous entry.
func (ix *Index) Upsert(ctx context.Context, path string, s beatmap.Summary) error {
	if _, err := ix.db.ExecContext(ctx, upsertQuery, upsertArgs(path, s, ix.now())...); err != nil {
		return fmt.Errorf("upserting %s: %w", path, err)
	}
	return nil
}

// AddResults stores every successful scan result in one transaction and
// returns how many were written. Failed and skipped results are not stored.
func (ix *Index) AddResults(ctx context.Context, results []scan.Result) (int, error) {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertQuery)
	if err != nil {
		return 0, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := ix.now()
	n := 0
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		if _, err := stmt.ExecContext(ctx, upsertArgs(r.Path, r.Beatmap.Summary(), now)...); err != nil {
			return 0, fmt.Errorf("upserting %s: %w", r.Path, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	ix.log.Info("index updated", zap.Int("beatmaps", n))
	return n, nil
}

// Get returns the entry stored for path.
func (ix *Index) Get(ctx context.Context, path string) (Entry, error) {
	row := ix.db.QueryRowContext(ctx, `SELECT `+columns+` FROM beatmaps WHERE path = ?`, path)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return e, nil
}

// List returns all entries ordered by path.
func (ix *Index) List(ctx context.Context) ([]Entry, error) {
	return ix.query(ctx, `SELECT `+columns+` FROM beatmaps ORDER BY path`)
}

// Search returns entries whose artist, title, creator or difficulty name
// contains term, ignoring ASCII case.
func (ix *Index) Search(ctx context.Context, term string) ([]Entry, error) {
	like := "%" + term + "%"
	return ix.query(ctx, `SELECT `+columns+` FROM beatmaps
		WHERE artist LIKE ?1 OR title LIKE ?1 OR creator LIKE ?1 OR version LIKE ?1
		ORDER BY path`, like)
}

// Remove deletes the entry for path. Removing a missing entry is not an
// error.
func (ix *Index) Remove(ctx context.Context, path string) error {
	if _, err := ix.db.ExecContext(ctx, `DELETE FROM beatmaps WHERE path = ?`, path); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

func (ix *Index) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := ix.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func upsertArgs(path string, s beatmap.Summary, now time.Time) []any {
	return []any{
		path, s.Artist, s.Title, s.Creator, s.Version, s.BeatmapID, s.BeatmapSetID,
		s.FormatVersion, s.AudioFilename, s.ApproachRate, s.CircleSize, s.HPDrain,
		s.OverallDifficulty, s.SliderMultiplier, s.SliderTickRate, s.CircleCount,
		s.SliderCount, s.SpinnerCount, s.LengthMs, s.Warnings, now.Unix(),
	}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (Entry, error) {
	var e Entry
	var indexedAt int64
	s := &e.Summary
	err := r.Scan(
		&e.Path, &s.Artist, &s.Title, &s.Creator, &s.Version, &s.BeatmapID, &s.BeatmapSetID,
		&s.FormatVersion, &s.AudioFilename, &s.ApproachRate, &s.CircleSize, &s.HPDrain,
		&s.OverallDifficulty, &s.SliderMultiplier, &s.SliderTickRate, &s.CircleCount,
		&s.SliderCount, &s.SpinnerCount, &s.LengthMs, &s.Warnings, &indexedAt,
	)
	if err != nil {
		return Entry{}, err
	}
	e.IndexedAt = time.Unix(indexedAt, 0)
	return e, nil
}
