package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tendant/refenti-content/pkg/sitecontent"
)

// Repository implements sitecontent.Repository on a SQLite file
type Repository struct {
	db        *sql.DB
	projects  *documents[sitecontent.Project]
	events    *eventDocuments
	news      *documents[sitecontent.NewsItem]
	inquiries *documents[sitecontent.Inquiry]
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Repository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}

	r := New(db)
	if err := r.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return r, nil
}

// New wraps an open database handle
func New(db *sql.DB) *Repository {
	return &Repository{
		db:        db,
		projects:  &documents[sitecontent.Project]{db: db, table: "projects", idOf: func(p *sitecontent.Project) string { return p.ID }},
		events:    &eventDocuments{&documents[sitecontent.EventItem]{db: db, table: "events", idOf: func(e *sitecontent.EventItem) string { return e.ID }}},
		news:      &documents[sitecontent.NewsItem]{db: db, table: "news", idOf: func(n *sitecontent.NewsItem) string { return n.ID }},
		inquiries: &documents[sitecontent.Inquiry]{db: db, table: "inquiries", idOf: func(i *sitecontent.Inquiry) string { return i.ID }},
	}
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Projects() sitecontent.RecordStore[sitecontent.Project] { return r.projects }
func (r *Repository) Events() sitecontent.EventStore                         { return r.events }
func (r *Repository) News() sitecontent.RecordStore[sitecontent.NewsItem]    { return r.news }
func (r *Repository) Inquiries() sitecontent.InquiryStore                    { return r.inquiries }

// EnsureSchema creates the document tables if they don't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, table := range []string{"projects", "events", "news", "inquiries"} {
		_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				data TEXT NOT NULL,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`, table))
		if err != nil {
			return err
		}
	}
	return nil
}

func mapError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sitecontent.ErrNotFound
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return sitecontent.ErrAlreadyExists
	}
	return fmt.Errorf("%s: %w", op, err)
}

type documents[T any] struct {
	db    *sql.DB
	table string
	idOf  func(*T) string
}

func decode[T any](data string) (*T, error) {
	var record T
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &record, nil
}

func (d *documents[T]) List(ctx context.Context) ([]*T, error) {
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(`SELECT data FROM %s ORDER BY rowid`, d.table))
	if err != nil {
		return nil, mapError("list "+d.table, err)
	}
	defer rows.Close()

	result := []*T{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, mapError("list "+d.table, err)
		}
		record, err := decode[T](data)
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

func (d *documents[T]) Get(ctx context.Context, id string) (*T, error) {
	var data string
	err := d.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT data FROM %s WHERE id = ?`, d.table), id).Scan(&data)
	if err != nil {
		return nil, mapError("get "+d.table, err)
	}
	return decode[T](data)
}

func (d *documents[T]) Create(ctx context.Context, record *T) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	_, err = d.db.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s (id, data) VALUES (?, ?)`, d.table), d.idOf(record), string(data))
	if err != nil {
		return mapError("create "+d.table, err)
	}
	return nil
}

func (d *documents[T]) Update(ctx context.Context, record *T) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	res, err := d.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET data = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, d.table),
		string(data), d.idOf(record))
	if err != nil {
		return mapError("update "+d.table, err)
	}
	return requireRow(res)
}

func (d *documents[T]) Delete(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, d.table), id)
	if err != nil {
		return mapError("delete "+d.table, err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sitecontent.ErrNotFound
	}
	return nil
}

type eventDocuments struct {
	*documents[sitecontent.EventItem]
}

// SetFeatured reads, flips and writes the event inside one transaction
func (d *eventDocuments) SetFeatured(ctx context.Context, id string, featured bool) (*sitecontent.EventItem, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var data string
	if err := tx.QueryRowContext(ctx, `SELECT data FROM events WHERE id = ?`, id).Scan(&data); err != nil {
		return nil, mapError("set featured", err)
	}
	event, err := decode[sitecontent.EventItem](data)
	if err != nil {
		return nil, err
	}
	event.IsFeatured = featured

	updated, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE events SET data = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, string(updated), id); err != nil {
		return nil, mapError("set featured", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return event, nil
}
