package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	practicesession "github.com/keisan-drill/backend/internal/domain/practice_session"
	"github.com/keisan-drill/backend/internal/domain/question"
)

var (
	ErrNotFound = errors.New("not found")
)

type UploadStatus string

const (
	StatusPending UploadStatus = "pending"
	StatusDone    UploadStatus = "done"
	StatusFailed  UploadStatus = "failed"
	// StatusRejected is terminal: Notion refused the upload in a way a
	// retry cannot fix (bad request, credentials, missing database).
	StatusRejected UploadStatus = "rejected"
)

func (s UploadStatus) Valid() bool {
	switch s {
	case StatusPending, StatusDone, StatusFailed, StatusRejected:
		return true
	}
	return false
}

// Upload is one submitted session waiting for, or done with, its Notion
// upload. The progress fields let a retry resume where the last attempt
// stopped.
type Upload struct {
	ID           string
	CreatedAt    time.Time
	QuestionType question.Type
	Results      []practicesession.Result

	Status    UploadStatus
	Attempts  int
	LastError string

	SummaryPageID    string
	DetailDatabaseID string
	UploadedDetails  map[int]bool // positions into Results
}

// Store is the outbox of submitted sessions.
type Store interface {
	SaveUpload(ctx context.Context, u *Upload) error
	GetUpload(ctx context.Context, id string) (*Upload, error)
	// ListUploads returns uploads newest first; an empty status lists all.
	ListUploads(ctx context.Context, status UploadStatus) ([]*Upload, error)
	// ListPending returns pending and failed uploads with fewer than
	// maxAttempts attempts, oldest first.
	ListPending(ctx context.Context, maxAttempts, limit int) ([]*Upload, error)

	SetSummaryPage(ctx context.Context, id, pageID string) error
	SetDetailDatabase(ctx context.Context, id, databaseID string) error
	MarkDetailUploaded(ctx context.Context, id string, position int) error
	MarkUploadDone(ctx context.Context, id string) error
	MarkUploadFailed(ctx context.Context, id string, cause error) error
	MarkUploadRejected(ctx context.Context, id string, cause error) error

	Close() error
}

// Open returns the store for driver ("sqlite" or "postgres").
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "", "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn)
	}
	return nil, fmt.Errorf("unknown database driver %q", driver)
}

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
