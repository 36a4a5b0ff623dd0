// Package history records every rendered figure in a per-project SQLite
// database. Nothing reads it back while rendering.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nvandessel/neurofig/internal/constants"
	"github.com/nvandessel/neurofig/internal/figures"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("render not found")

// Entry is one recorded render.
type Entry struct {
	ID       int64              `json:"id"`
	Figure   string             `json:"figure"`
	Group    string             `json:"group,omitempty"`
	Format   string             `json:"format"`
	Path     string             `json:"path"`
	Input    string             `json:"input,omitempty"`
	Bytes    int64              `json:"bytes"`
	Checksum string             `json:"checksum"`
	Params   map[string]float64 `json:"params,omitempty"`
	Options  map[string]string  `json:"options,omitempty"`
	Summary  []figures.Stat     `json:"summary,omitempty"`
	Duration time.Duration      `json:"duration"`
	Created  time.Time          `json:"created"`
}

// Filter narrows List.
type Filter struct {
	// Figure limits results to one figure name when set.
	Figure string
	// Limit caps the number of rows. Zero means no limit.
	Limit int
}

// Store is the render history database.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens or creates <projectRoot>/.neurofig/history.db.
func Open(projectRoot string) (*Store, error) {
	dir := filepath.Join(projectRoot, constants.StateDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", constants.StateDirName, err)
	}
	return OpenPath(filepath.Join(dir, constants.HistoryDBName))
}

// OpenPath opens or creates the database at path.
func OpenPath(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &Store{db: db, path: path, now: time.Now}, nil
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

// Record inserts e and returns its id. A zero Created is set to now.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if e.Created.IsZero() {
		e.Created = s.now()
	}
	params, err := marshalJSON(e.Params)
	if err != nil {
		return 0, fmt.Errorf("encoding params: %w", err)
	}
	options, err := marshalJSON(e.Options)
	if err != nil {
		return 0, fmt.Errorf("encoding options: %w", err)
	}
	summary, err := marshalJSON(e.Summary)
	if err != nil {
		return 0, fmt.Errorf("encoding summary: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO renders (figure, figure_group, format, path, input, bytes, checksum,
			params, options, summary, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Figure, nullString(e.Group), e.Format, e.Path, nullString(e.Input), e.Bytes, e.Checksum,
		params, options, summary, e.Duration.Milliseconds(), e.Created.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("failed to record render: %w", err)
	}
	return res.LastInsertId()
}

const selectColumns = `SELECT id, figure, figure_group, format, path, input, bytes, checksum,
	params, options, summary, duration_ms, created_at FROM renders`

// List returns matching renders, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	query := selectColumns
	var args []any
	if f.Figure != "" {
		query += ` WHERE figure = ?`
		args = append(args, f.Figure)
	}
	query += ` ORDER BY id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list renders: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Get returns the render with id.
func (s *Store) Get(ctx context.Context, id int64) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := scanEntry(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("render %d: %w", id, ErrNotFound)
	}
	return e, err
}

// Prune deletes all but the newest keep renders and reports how many went.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		return 0, fmt.Errorf("prune keep must be non-negative, got %d", keep)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM renders WHERE id NOT IN (SELECT id FROM renders ORDER BY id DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		e                        Entry
		group, input             sql.NullString
		params, options, summary sql.NullString
		durationMS               sql.NullInt64
		created                  string
	)
	if err := row.Scan(&e.ID, &e.Figure, &group, &e.Format, &e.Path, &input, &e.Bytes, &e.Checksum,
		&params, &options, &summary, &durationMS, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan render: %w", err)
	}
	e.Group = group.String
	e.Input = input.String
	e.Duration = time.Duration(durationMS.Int64) * time.Millisecond

	var err error
	if e.Created, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("render %d has bad timestamp %q: %w", e.ID, created, err)
	}
	for _, field := range []struct {
		raw sql.NullString
		dst any
	}{
		{params, &e.Params},
		{options, &e.Options},
		{summary, &e.Summary},
	} {
		if !field.raw.Valid || field.raw.String == "" {
			continue
		}
		if err := json.Unmarshal([]byte(field.raw.String), field.dst); err != nil {
			return nil, fmt.Errorf("render %d: decoding stored JSON: %w", e.ID, err)
		}
	}
	return &e, nil
}

func marshalJSON(v any) (sql.NullString, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	if string(data) == "null" {
		return sql.NullString{}, nil
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
