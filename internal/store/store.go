// Package store keeps a library of saved circuits in SQLite.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFound is returned when no circuit has the requested id.
var ErrNotFound = errors.New("store: circuit not found")

// Entry describes a stored circuit.
type Entry struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Components int       `json:"components"`
	Wires      int       `json:"wires"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Store is a circuit library backed by a SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the library at path and applies
// migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	names, err := migrations.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("store: migrations: %w", err)
	}
	sort.Slice(names, func(i, j int) bool { return names[i].Name() < names[j].Name() })

	for _, entry := range names {
		data, err := migrations.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("store: read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("store: apply migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// Save stores doc under name and returns the new entry.
func (s *Store) Save(ctx context.Context, name string, doc *circuit.Document) (Entry, error) {
	if name == "" {
		return Entry{}, fmt.Errorf("store: empty circuit name")
	}
	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return Entry{}, fmt.Errorf("store: encode: %w", err)
	}

	comps, wires := doc.Len()
	now := s.now().UTC()
	e := Entry{
		ID:         uuid.NewString(),
		Name:       name,
		Components: comps,
		Wires:      wires,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO circuits (id, name, components, wires, document, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `, e.ID, e.Name, e.Components, e.Wires, buf.String(), formatTime(now), formatTime(now))
	if err != nil {
		return Entry{}, fmt.Errorf("store: insert: %w", err)
	}
	return e, nil
}

// Update replaces the document stored under id.
func (s *Store) Update(ctx context.Context, id string, doc *circuit.Document) error {
	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}
	comps, wires := doc.Len()

	res, err := s.db.ExecContext(ctx, `
        UPDATE circuits SET components = ?, wires = ?, document = ?, updated_at = ?
        WHERE id = ?
    `, comps, wires, buf.String(), formatTime(s.now().UTC()), id)
	if err != nil {
		return fmt.Errorf("store: update: %w", err)
	}
	return expectOne(res, id)
}

// List returns all entries, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, name, components, wires, created_at, updated_at
        FROM circuits
        ORDER BY updated_at DESC, name
    `)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns the entry with the given id.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, name, components, wires, created_at, updated_at
        FROM circuits
        WHERE id = ?
    `, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, err
}

// Document loads the circuit stored under id.
func (s *Store) Document(ctx context.Context, id string) (*circuit.Document, error) {
	var text string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM circuits WHERE id = ?`, id).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get: %w", err)
	}

	doc := circuit.NewDocument()
	if err := doc.Load(bytes.NewReader([]byte(text))); err != nil {
		return nil, fmt.Errorf("store: circuit %s: %w", id, err)
	}
	return doc, nil
}

// Delete removes the circuit with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM circuits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete: %w", err)
	}
	return expectOne(res, id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	var created, updated string
	if err := row.Scan(&e.ID, &e.Name, &e.Components, &e.Wires, &created, &updated); err != nil {
		return Entry{}, err
	}
	var err error
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return Entry{}, fmt.Errorf("store: %s created_at: %w", e.ID, err)
	}
	if e.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return Entry{}, fmt.Errorf("store: %s updated_at: %w", e.ID, err)
	}
	return e, nil
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
