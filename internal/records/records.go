// Package records persists finished runs and the best score of every game
// mode in a SQLite database.
package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a mode has no best score or a run id is unknown.
var ErrNotFound = errors.New("record not found")

// TurnRecord is one resolved turn as stored in a run's history.
type TurnRecord struct {
	Turn    int  `msgpack:"t"`
	Hits    int  `msgpack:"h"`
	Misses  int  `msgpack:"m"`
	Success bool `msgpack:"s"`
}

// Run is one finished session.
type Run struct {
	ID        string
	Mode      string
	Player    string
	Score     int
	Turns     int
	Failed    int
	CreatedAt time.Time
	History   []TurnRecord
}

// Best is the highest score reached in a mode.
type Best struct {
	Mode      string
	Player    string
	Score     int
	RunID     string
	UpdatedAt time.Time
}

// SubmitResult tells the caller what a submitted run changed.
type SubmitResult struct {
	RunID    string
	NewBest  bool
	Previous int  // Best score before this run
	HadBest  bool // Whether the mode had a best score before this run
}

// Store wraps the SQLite connection.
type Store struct {
	conn *sql.DB
	now  func() time.Time
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("records: open %s: %w", path, err)
	}
	// One writer at a time; SSH sessions submit concurrently
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("records: enable WAL: %w", err)
	}

	s := &Store{conn: conn, now: time.Now}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		player TEXT NOT NULL DEFAULT '',
		score INTEGER NOT NULL DEFAULT 0,
		turns INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		history BLOB
	);

	CREATE TABLE IF NOT EXISTS best_scores (
		mode TEXT PRIMARY KEY,
		score INTEGER NOT NULL,
		run_id TEXT NOT NULL REFERENCES runs(id),
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_mode ON runs(mode, created_at);
	`
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("records: migrate: %w", err)
	}
	return nil
}

// Submit stores a finished run and raises the mode's best score if the run
// beat it. A mode's first run always sets its best, even at zero. Ties keep
// the older record.
func (s *Store) Submit(ctx context.Context, mode, player string, score int, history []TurnRecord) (SubmitResult, error) {
	blob, err := msgpack.Marshal(history)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("records: encode history: %w", err)
	}

	failed := 0
	for _, t := range history {
		if !t.Success {
			failed++
		}
	}

	res := SubmitResult{RunID: uuid.NewString()}
	now := s.now().UnixMilli()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("records: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (id, mode, player, score, turns, failed, created_at, history) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		res.RunID, mode, player, score, len(history), failed, now, blob,
	)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("records: insert run: %w", err)
	}

	err = tx.QueryRowContext(ctx, "SELECT score FROM best_scores WHERE mode = ?", mode).Scan(&res.Previous)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return SubmitResult{}, fmt.Errorf("records: read best: %w", err)
	default:
		res.HadBest = true
	}

	if !res.HadBest || score > res.Previous {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO best_scores (mode, score, run_id, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(mode) DO UPDATE SET score = excluded.score, run_id = excluded.run_id, updated_at = excluded.updated_at`,
			mode, score, res.RunID, now,
		)
		if err != nil {
			return SubmitResult{}, fmt.Errorf("records: update best: %w", err)
		}
		res.NewBest = true
	}

	if err := tx.Commit(); err != nil {
		return SubmitResult{}, fmt.Errorf("records: commit: %w", err)
	}
	return res, nil
}

// Best returns the best score of mode.
func (s *Store) Best(ctx context.Context, mode string) (Best, error) {
	var b Best
	var updated int64
	err := s.conn.QueryRowContext(ctx,
		`SELECT b.mode, r.player, b.score, b.run_id, b.updated_at
		FROM best_scores b JOIN runs r ON r.id = b.run_id WHERE b.mode = ?`, mode,
	).Scan(&b.Mode, &b.Player, &b.Score, &b.RunID, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Best{}, fmt.Errorf("records: best for %q: %w", mode, ErrNotFound)
	}
	if err != nil {
		return Best{}, fmt.Errorf("records: best for %q: %w", mode, err)
	}
	b.UpdatedAt = time.UnixMilli(updated)
	return b, nil
}

// Bests returns the best score of every mode that has one, by mode name.
func (s *Store) Bests(ctx context.Context) ([]Best, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT b.mode, r.player, b.score, b.run_id, b.updated_at
		FROM best_scores b JOIN runs r ON r.id = b.run_id ORDER BY b.mode`)
	if err != nil {
		return nil, fmt.Errorf("records: list bests: %w", err)
	}
	defer rows.Close()

	var out []Best
	for rows.Next() {
		var b Best
		var updated int64
		if err := rows.Scan(&b.Mode, &b.Player, &b.Score, &b.RunID, &updated); err != nil {
			return nil, fmt.Errorf("records: scan best: %w", err)
		}
		b.UpdatedAt = time.UnixMilli(updated)
		out = append(out, b)
	}
	return out, rows.Err()
}

// Run loads a stored run with its decoded history.
func (s *Store) Run(ctx context.Context, id string) (Run, error) {
	row := s.conn.QueryRowContext(ctx,
		"SELECT id, mode, player, score, turns, failed, created_at, history FROM runs WHERE id = ?", id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("records: run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("records: run %s: %w", id, err)
	}
	return r, nil
}

// RecentRuns returns up to limit runs of mode, newest first.
func (s *Store) RecentRuns(ctx context.Context, mode string, limit int) ([]Run, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, mode, player, score, turns, failed, created_at, history FROM runs
		WHERE mode = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, mode, limit)
	if err != nil {
		return nil, fmt.Errorf("records: recent runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("records: scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var r Run
	var created int64
	var blob []byte
	if err := row.Scan(&r.ID, &r.Mode, &r.Player, &r.Score, &r.Turns, &r.Failed, &created, &blob); err != nil {
		return Run{}, err
	}
	r.CreatedAt = time.UnixMilli(created)
	if len(blob) > 0 {
		if err := msgpack.Unmarshal(blob, &r.History); err != nil {
			return Run{}, fmt.Errorf("decode history: %w", err)
		}
	}
	return r, nil
}
