// internal/store/sqlite.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/keisan-drill/backend/internal/domain/question"
)

const schema = `
CREATE TABLE IF NOT EXISTS uploads (
    id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    question_type TEXT NOT NULL,
    payload TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    attempts INTEGER NOT NULL DEFAULT 0,
    last_error TEXT NOT NULL DEFAULT '',
    summary_page_id TEXT NOT NULL DEFAULT '',
    detail_database_id TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_uploads_status ON uploads(status, created_at);

CREATE TABLE IF NOT EXISTS upload_details (
    upload_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (upload_id, position),
    FOREIGN KEY (upload_id) REFERENCES uploads(id) ON DELETE CASCADE
);
`

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// One writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const uploadColumns = `id, created_at, question_type, payload, status, attempts, last_error, summary_page_id, detail_database_id`

func (s *SQLiteStore) SaveUpload(ctx context.Context, u *Upload) error {
	payload, err := json.Marshal(u.Results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if u.Status == "" {
		u.Status = StatusPending
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO uploads ("+uploadColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		u.ID, formatTime(u.CreatedAt), string(u.QuestionType), string(payload),
		string(u.Status), u.Attempts, u.LastError, u.SummaryPageID, u.DetailDatabaseID,
	)
	return err
}

func (s *SQLiteStore) GetUpload(ctx context.Context, id string) (*Upload, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+uploadColumns+" FROM uploads WHERE id = ?", id)
	u, err := scanUpload(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadDetails(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *SQLiteStore) ListUploads(ctx context.Context, status UploadStatus) ([]*Upload, error) {
	query := "SELECT " + uploadColumns + " FROM uploads"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC"
	return s.queryUploads(ctx, query, args...)
}

func (s *SQLiteStore) ListPending(ctx context.Context, maxAttempts, limit int) ([]*Upload, error) {
	return s.queryUploads(ctx,
		"SELECT "+uploadColumns+" FROM uploads WHERE status IN (?, ?) AND attempts < ? ORDER BY created_at LIMIT ?",
		string(StatusPending), string(StatusFailed), maxAttempts, limit,
	)
}

func (s *SQLiteStore) queryUploads(ctx context.Context, query string, args ...any) ([]*Upload, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uploads []*Upload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, u := range uploads {
		if err := s.loadDetails(ctx, u); err != nil {
			return nil, err
		}
	}
	return uploads, nil
}

func (s *SQLiteStore) loadDetails(ctx context.Context, u *Upload) error {
	rows, err := s.db.QueryContext(ctx, "SELECT position FROM upload_details WHERE upload_id = ?", u.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	u.UploadedDetails = make(map[int]bool)
	for rows.Next() {
		var pos int
		if err := rows.Scan(&pos); err != nil {
			return err
		}
		u.UploadedDetails[pos] = true
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUpload(row scanner) (*Upload, error) {
	var (
		u         Upload
		createdAt string
		qt        string
		payload   string
		status    string
	)
	if err := row.Scan(&u.ID, &createdAt, &qt, &payload, &status, &u.Attempts, &u.LastError, &u.SummaryPageID, &u.DetailDatabaseID); err != nil {
		return nil, err
	}

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("upload %s: created_at: %w", u.ID, err)
	}
	if err := json.Unmarshal([]byte(payload), &u.Results); err != nil {
		return nil, fmt.Errorf("upload %s: payload: %w", u.ID, err)
	}
	u.CreatedAt = t
	u.QuestionType = question.Type(qt)
	u.Status = UploadStatus(status)
	return &u, nil
}

func (s *SQLiteStore) SetSummaryPage(ctx context.Context, id, pageID string) error {
	return s.update(ctx, "UPDATE uploads SET summary_page_id = ? WHERE id = ?", pageID, id)
}

func (s *SQLiteStore) SetDetailDatabase(ctx context.Context, id, databaseID string) error {
	return s.update(ctx, "UPDATE uploads SET detail_database_id = ? WHERE id = ?", databaseID, id)
}

func (s *SQLiteStore) MarkDetailUploaded(ctx context.Context, id string, position int) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO upload_details (upload_id, position) VALUES (?, ?)", id, position)
	return err
}

func (s *SQLiteStore) MarkUploadDone(ctx context.Context, id string) error {
	return s.update(ctx,
		"UPDATE uploads SET status = ?, attempts = attempts + 1, last_error = '' WHERE id = ?",
		string(StatusDone), id)
}

func (s *SQLiteStore) MarkUploadFailed(ctx context.Context, id string, cause error) error {
	return s.markFinishedAttempt(ctx, id, StatusFailed, cause)
}

func (s *SQLiteStore) MarkUploadRejected(ctx context.Context, id string, cause error) error {
	return s.markFinishedAttempt(ctx, id, StatusRejected, cause)
}

func (s *SQLiteStore) markFinishedAttempt(ctx context.Context, id string, status UploadStatus, cause error) error {
	return s.update(ctx,
		"UPDATE uploads SET status = ?, attempts = attempts + 1, last_error = ? WHERE id = ?",
		string(status), errorText(cause), id)
}

func (s *SQLiteStore) update(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
