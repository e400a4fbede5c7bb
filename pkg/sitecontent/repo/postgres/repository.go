package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/refenti-content/pkg/sitecontent"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Table names, one JSONB document table per content kind
const (
	ProjectsTable  = "sitecontent_projects"
	EventsTable    = "sitecontent_events"
	NewsTable      = "sitecontent_news"
	InquiriesTable = "sitecontent_inquiries"
)

// Repository implements sitecontent.Repository using PostgreSQL
type Repository struct {
	db        DBTX
	projects  *documents[sitecontent.Project]
	events    *eventDocuments
	news      *documents[sitecontent.NewsItem]
	inquiries *documents[sitecontent.Inquiry]
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{
		db:        db,
		projects:  &documents[sitecontent.Project]{db: db, table: ProjectsTable, idOf: func(p *sitecontent.Project) string { return p.ID }},
		events:    &eventDocuments{&documents[sitecontent.EventItem]{db: db, table: EventsTable, idOf: func(e *sitecontent.EventItem) string { return e.ID }}},
		news:      &documents[sitecontent.NewsItem]{db: db, table: NewsTable, idOf: func(n *sitecontent.NewsItem) string { return n.ID }},
		inquiries: &documents[sitecontent.Inquiry]{db: db, table: InquiriesTable, idOf: func(i *sitecontent.Inquiry) string { return i.ID }},
	}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return New(pool)
}

func (r *Repository) Projects() sitecontent.RecordStore[sitecontent.Project] { return r.projects }
func (r *Repository) Events() sitecontent.EventStore                         { return r.events }
func (r *Repository) News() sitecontent.RecordStore[sitecontent.NewsItem]    { return r.news }
func (r *Repository) Inquiries() sitecontent.InquiryStore                    { return r.inquiries }

// EnsureSchema creates the document tables if they don't exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, table := range []string{ProjectsTable, EventsTable, NewsTable, InquiriesTable} {
		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				position BIGSERIAL,
				data JSONB NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, table)
		if _, err := r.db.Exec(ctx, query); err != nil {
			return handlePostgresError("ensure schema", err)
		}
	}
	return nil
}

// Error handling helper
func handlePostgresError(operation string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sitecontent.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return sitecontent.ErrAlreadyExists
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required: %w", err)
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// documents stores one kind as JSON documents keyed by id
type documents[T any] struct {
	db    DBTX
	table string
	idOf  func(*T) string
}

func decode[T any](data []byte) (*T, error) {
	var record T
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return &record, nil
}

func (d *documents[T]) List(ctx context.Context) ([]*T, error) {
	rows, err := d.db.Query(ctx, fmt.Sprintf(`SELECT data FROM %s ORDER BY position`, d.table))
	if err != nil {
		return nil, handlePostgresError("list "+d.table, err)
	}
	defer rows.Close()

	result := []*T{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, handlePostgresError("list "+d.table, err)
		}
		record, err := decode[T](data)
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("list "+d.table, err)
	}
	return result, nil
}

func (d *documents[T]) Get(ctx context.Context, id string) (*T, error) {
	var data []byte
	err := d.db.QueryRow(ctx, fmt.Sprintf(`SELECT data FROM %s WHERE id = $1`, d.table), id).Scan(&data)
	if err != nil {
		return nil, handlePostgresError("get "+d.table, err)
	}
	return decode[T](data)
}

func (d *documents[T]) Create(ctx context.Context, record *T) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, data) VALUES ($1, $2)`, d.table)
	if _, err := d.db.Exec(ctx, query, d.idOf(record), data); err != nil {
		return handlePostgresError("create "+d.table, err)
	}
	return nil
}

func (d *documents[T]) Update(ctx context.Context, record *T) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	query := fmt.Sprintf(`UPDATE %s SET data = $2, updated_at = now() WHERE id = $1`, d.table)
	tag, err := d.db.Exec(ctx, query, d.idOf(record), data)
	if err != nil {
		return handlePostgresError("update "+d.table, err)
	}
	if tag.RowsAffected() == 0 {
		return sitecontent.ErrNotFound
	}
	return nil
}

func (d *documents[T]) Delete(ctx context.Context, id string) error {
	tag, err := d.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, d.table), id)
	if err != nil {
		return handlePostgresError("delete "+d.table, err)
	}
	if tag.RowsAffected() == 0 {
		return sitecontent.ErrNotFound
	}
	return nil
}

type eventDocuments struct {
	*documents[sitecontent.EventItem]
}

// SetFeatured rewrites only the isFeatured key of the stored document
func (d *eventDocuments) SetFeatured(ctx context.Context, id string, featured bool) (*sitecontent.EventItem, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET data = jsonb_set(data, '{isFeatured}', to_jsonb($2::boolean)), updated_at = now()
		WHERE id = $1
		RETURNING data`, d.table)

	var data []byte
	if err := d.db.QueryRow(ctx, query, id, featured).Scan(&data); err != nil {
		return nil, handlePostgresError("set featured", err)
	}
	return decode[sitecontent.EventItem](data)
}
