package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keisan-drill/backend/internal/domain/question"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS uploads (
    id TEXT PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL,
    question_type TEXT NOT NULL,
    payload JSONB NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    attempts INTEGER NOT NULL DEFAULT 0,
    last_error TEXT NOT NULL DEFAULT '',
    summary_page_id TEXT NOT NULL DEFAULT '',
    detail_database_id TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_uploads_status ON uploads(status, created_at);

CREATE TABLE IF NOT EXISTS upload_details (
    upload_id TEXT NOT NULL REFERENCES uploads(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    PRIMARY KEY (upload_id, position)
);
`

// PostgresStore keeps the outbox in PostgreSQL, for deployments that run
// more than one server process.
type PostgresStore struct {
	db *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &PostgresStore{db: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

func (s *PostgresStore) SaveUpload(ctx context.Context, u *Upload) error {
	payload, err := json.Marshal(u.Results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if u.Status == "" {
		u.Status = StatusPending
	}

	query := `
		INSERT INTO uploads (` + uploadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.Exec(ctx, query,
		u.ID, u.CreatedAt, string(u.QuestionType), string(payload),
		string(u.Status), u.Attempts, u.LastError, u.SummaryPageID, u.DetailDatabaseID,
	)
	if err != nil {
		return fmt.Errorf("save upload: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUpload(ctx context.Context, id string) (*Upload, error) {
	row := s.db.QueryRow(ctx, "SELECT "+uploadColumns+" FROM uploads WHERE id = $1", id)
	u, err := scanPostgresUpload(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get upload: %w", err)
	}
	if err := s.loadDetails(ctx, []*Upload{u}); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *PostgresStore) ListUploads(ctx context.Context, status UploadStatus) ([]*Upload, error) {
	if status == "" {
		return s.queryUploads(ctx, "SELECT "+uploadColumns+" FROM uploads ORDER BY created_at DESC")
	}
	return s.queryUploads(ctx,
		"SELECT "+uploadColumns+" FROM uploads WHERE status = $1 ORDER BY created_at DESC",
		string(status))
}

func (s *PostgresStore) ListPending(ctx context.Context, maxAttempts, limit int) ([]*Upload, error) {
	return s.queryUploads(ctx,
		"SELECT "+uploadColumns+" FROM uploads WHERE status IN ($1, $2) AND attempts < $3 ORDER BY created_at LIMIT $4",
		string(StatusPending), string(StatusFailed), maxAttempts, limit)
}

func (s *PostgresStore) queryUploads(ctx context.Context, query string, args ...any) ([]*Upload, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	var uploads []*Upload
	for rows.Next() {
		u, err := scanPostgresUpload(rows)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}

	if err := s.loadDetails(ctx, uploads); err != nil {
		return nil, err
	}
	return uploads, nil
}

func (s *PostgresStore) loadDetails(ctx context.Context, uploads []*Upload) error {
	if len(uploads) == 0 {
		return nil
	}

	byID := make(map[string]*Upload, len(uploads))
	ids := make([]string, 0, len(uploads))
	for _, u := range uploads {
		u.UploadedDetails = make(map[int]bool)
		byID[u.ID] = u
		ids = append(ids, u.ID)
	}

	rows, err := s.db.Query(ctx,
		"SELECT upload_id, position FROM upload_details WHERE upload_id = ANY($1)", ids)
	if err != nil {
		return fmt.Errorf("load upload details: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  string
			pos int
		)
		if err := rows.Scan(&id, &pos); err != nil {
			return fmt.Errorf("scan upload detail: %w", err)
		}
		byID[id].UploadedDetails[pos] = true
	}
	return rows.Err()
}

func scanPostgresUpload(row pgx.Row) (*Upload, error) {
	var (
		u       Upload
		qt      string
		payload []byte
		status  string
	)
	if err := row.Scan(&u.ID, &u.CreatedAt, &qt, &payload, &status, &u.Attempts, &u.LastError, &u.SummaryPageID, &u.DetailDatabaseID); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &u.Results); err != nil {
		return nil, fmt.Errorf("upload %s: payload: %w", u.ID, err)
	}
	u.QuestionType = question.Type(qt)
	u.Status = UploadStatus(status)
	return &u, nil
}

func (s *PostgresStore) SetSummaryPage(ctx context.Context, id, pageID string) error {
	return s.update(ctx, "UPDATE uploads SET summary_page_id = $1 WHERE id = $2", pageID, id)
}

func (s *PostgresStore) SetDetailDatabase(ctx context.Context, id, databaseID string) error {
	return s.update(ctx, "UPDATE uploads SET detail_database_id = $1 WHERE id = $2", databaseID, id)
}

func (s *PostgresStore) MarkDetailUploaded(ctx context.Context, id string, position int) error {
	_, err := s.db.Exec(ctx,
		"INSERT INTO upload_details (upload_id, position) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		id, position)
	if err != nil {
		return fmt.Errorf("mark detail uploaded: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkUploadDone(ctx context.Context, id string) error {
	return s.update(ctx,
		"UPDATE uploads SET status = $1, attempts = attempts + 1, last_error = '' WHERE id = $2",
		string(StatusDone), id)
}

func (s *PostgresStore) MarkUploadFailed(ctx context.Context, id string, cause error) error {
	return s.markFinishedAttempt(ctx, id, StatusFailed, cause)
}

func (s *PostgresStore) MarkUploadRejected(ctx context.Context, id string, cause error) error {
	return s.markFinishedAttempt(ctx, id, StatusRejected, cause)
}

func (s *PostgresStore) markFinishedAttempt(ctx context.Context, id string, status UploadStatus, cause error) error {
	return s.update(ctx,
		"UPDATE uploads SET status = $1, attempts = attempts + 1, last_error = $2 WHERE id = $3",
		string(status), errorText(cause), id)
}

func (s *PostgresStore) update(ctx context.Context, query string, args ...any) error {
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
