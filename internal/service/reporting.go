// internal/service/reporting.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	practicesession "github.com/keisan-drill/backend/internal/domain/practice_session"
	"github.com/keisan-drill/backend/internal/domain/question"
	"github.com/keisan-drill/backend/internal/metrics"
	"github.com/keisan-drill/backend/internal/notion"
	"github.com/keisan-drill/backend/internal/report"
	"github.com/keisan-drill/backend/internal/store"
	"github.com/keisan-drill/backend/internal/worker"
)

var ErrInvalidSubmission = errors.New("invalid submission")

const detailDatabaseTitle = "個別の問題"

// Uploader is the part of the Notion client the service needs.
type Uploader interface {
	CreatePage(ctx context.Context, req notion.PageRequest) (notion.Page, error)
	CreateDatabase(ctx context.Context, req notion.DatabaseRequest) (notion.Database, error)
}

type ReportOptions struct {
	DatabaseID  string // Notion database receiving one summary page per session
	MaxAttempts int
	Workers     int
	Location    *time.Location // for page titles; defaults to time.Local
}

// RetryStats is the outcome of one RetryPending pass.
type RetryStats struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// ReportService stores submitted sessions and uploads them to Notion in
// the background. A session that fails to upload stays in the store and
// is retried until it succeeds or runs out of attempts.
type ReportService struct {
	store    store.Store
	uploader Uploader // nil when upload is disabled
	opts     ReportOptions
	logger   *slog.Logger
	now      func() time.Time

	pool    *worker.Pool[error]
	batch   int
	retryMu sync.Mutex

	mu       sync.RWMutex
	pending  map[string]*sync.WaitGroup // uploadID → WaitGroup
	inflight map[string]bool
}

// NewReportService creates a ReportService. A nil uploader disables the
// upload; submissions are still stored.
func NewReportService(s store.Store, up Uploader, opts ReportOptions, logger *slog.Logger) *ReportService {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 5
	}
	if opts.Workers < 1 {
		opts.Workers = 2
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	batch := opts.Workers * 8

	return &ReportService{
		store:    s,
		uploader: up,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		pool:     worker.NewPool[error](opts.Workers, batch),
		batch:    batch,
		pending:  make(map[string]*sync.WaitGroup),
		inflight: make(map[string]bool),
	}
}

func (rs *ReportService) Enabled() bool {
	return rs.uploader != nil
}

// Submit persists the session as pending and schedules its upload.
func (rs *ReportService) Submit(ctx context.Context, p report.Payload) (*store.Upload, error) {
	if !p.QuestionType.Valid() {
		return nil, fmt.Errorf("%w: unknown question_type %q", ErrInvalidSubmission, p.QuestionType)
	}
	if len(p.Questions) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrInvalidSubmission)
	}

	u := &store.Upload{
		ID:           uuid.NewString(),
		CreatedAt:    rs.now(),
		QuestionType: p.QuestionType,
		Results:      p.Questions,
		Status:       store.StatusPending,
	}
	if err := rs.store.SaveUpload(ctx, u); err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}
	metrics.SessionsSubmitted.WithLabelValues(string(p.QuestionType)).Inc()

	if !rs.Enabled() {
		rs.logger.Warn("notion upload disabled, session kept pending", "upload_id", u.ID)
		return u, nil
	}

	wg := &sync.WaitGroup{}
	rs.mu.Lock()
	rs.pending[u.ID] = wg
	rs.inflight[u.ID] = true
	rs.mu.Unlock()

	wg.Add(1)
	go func() {
		defer rs.finish(u.ID, wg)
		// Detached from the request: the upload outlives it.
		_ = rs.upload(context.Background(), u)
	}()
	return u, nil
}

// finish forgets a Submit upload before waking its waiters.
func (rs *ReportService) finish(id string, wg *sync.WaitGroup) {
	rs.mu.Lock()
	delete(rs.pending, id)
	delete(rs.inflight, id)
	rs.mu.Unlock()
	wg.Done()
}

// Pending is the number of Submit uploads still running.
func (rs *ReportService) Pending() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.pending)
}

// WaitFor blocks until the upload started by Submit has finished. It
// returns at once for an upload that is not running.
func (rs *ReportService) WaitFor(uploadID string) {
	rs.mu.RLock()
	wg, ok := rs.pending[uploadID]
	rs.mu.RUnlock()

	if ok {
		wg.Wait()
	}
}

// RetryPending uploads stored sessions that have not finished, on the
// worker pool. Sessions already being uploaded are skipped.
func (rs *ReportService) RetryPending(ctx context.Context) (RetryStats, error) {
	var stats RetryStats
	if !rs.Enabled() {
		return stats, nil
	}

	rs.retryMu.Lock()
	defer rs.retryMu.Unlock()

	uploads, err := rs.store.ListPending(ctx, rs.opts.MaxAttempts, rs.batch)
	if err != nil {
		return stats, fmt.Errorf("list pending uploads: %w", err)
	}

	for _, u := range uploads {
		if !rs.claim(u.ID) {
			continue
		}
		u := u
		stats.Attempted++
		rs.pool.Submit(u.ID, func() error {
			defer rs.release(u.ID)
			return rs.upload(context.Background(), u)
		})
	}

	for i := 0; i < stats.Attempted; i++ {
		res := <-rs.pool.Results()
		if res.Output != nil {
			stats.Failed++
			continue
		}
		stats.Succeeded++
	}

	if stats.Attempted > 0 {
		rs.logger.Info("retried pending uploads",
			"attempted", stats.Attempted,
			"succeeded", stats.Succeeded,
			"failed", stats.Failed,
		)
	}
	return stats, nil
}

// Run retries pending uploads every interval until ctx is done.
func (rs *ReportService) Run(ctx context.Context, interval time.Duration) error {
	if !rs.Enabled() {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := rs.RetryPending(ctx); err != nil {
			rs.logger.Error("retry pending uploads", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Close waits for running uploads and stops the worker pool.
func (rs *ReportService) Close() {
	rs.retryMu.Lock()
	defer rs.retryMu.Unlock()

	rs.mu.RLock()
	groups := make([]*sync.WaitGroup, 0, len(rs.pending))
	for _, wg := range rs.pending {
		groups = append(groups, wg)
	}
	rs.mu.RUnlock()

	for _, wg := range groups {
		wg.Wait()
	}
	rs.pool.Close()
}

func (rs *ReportService) claim(id string) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.inflight[id] {
		return false
	}
	rs.inflight[id] = true
	return true
}

func (rs *ReportService) release(id string) {
	rs.mu.Lock()
	delete(rs.inflight, id)
	rs.mu.Unlock()
}

// upload creates the summary page, the per-question database and one
// page per question, skipping whatever a previous attempt already made.
// A failed question page does not stop the rest. An error Notion marks
// as permanent ends the upload as rejected instead of failed.
func (rs *ReportService) upload(ctx context.Context, u *store.Upload) error {
	err := rs.uploadParts(ctx, u)
	var apiErr *notion.APIError
	if errors.As(err, &apiErr) && !apiErr.Retryable() {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		rs.logger.Error("notion rejected upload, not retrying",
			"upload_id", u.ID,
			"status", apiErr.Status,
			"code", apiErr.Code,
			"error", err,
		)
		if saveErr := rs.store.MarkUploadRejected(ctx, u.ID, err); saveErr != nil {
			rs.logger.Error("failed to save upload rejection", "upload_id", u.ID, "error", saveErr)
		}
		return err
	}
	if err != nil {
		metrics.Uploads.WithLabelValues("failed").Inc()
		rs.logger.Error("notion upload failed",
			"upload_id", u.ID,
			"attempt", u.Attempts+1,
			"error", err,
		)
		if saveErr := rs.store.MarkUploadFailed(ctx, u.ID, err); saveErr != nil {
			rs.logger.Error("failed to save upload failure", "upload_id", u.ID, "error", saveErr)
		}
		return err
	}

	metrics.Uploads.WithLabelValues("done").Inc()
	rs.logger.Info("notion upload done", "upload_id", u.ID, "questions", len(u.Results))
	if err := rs.store.MarkUploadDone(ctx, u.ID); err != nil {
		rs.logger.Error("failed to save upload success", "upload_id", u.ID, "error", err)
		return err
	}
	return nil
}

func (rs *ReportService) uploadParts(ctx context.Context, u *store.Upload) error {
	if u.SummaryPageID == "" {
		req, err := rs.summaryPage(u)
		if err != nil {
			return err
		}
		page, err := rs.uploader.CreatePage(ctx, req)
		if err != nil {
			return fmt.Errorf("create summary page: %w", err)
		}
		if err := rs.store.SetSummaryPage(ctx, u.ID, page.ID); err != nil {
			return fmt.Errorf("save summary page: %w", err)
		}
		u.SummaryPageID = page.ID
	}

	if u.DetailDatabaseID == "" {
		db, err := rs.uploader.CreateDatabase(ctx, detailDatabase(u.SummaryPageID, u.QuestionType))
		if err != nil {
			return fmt.Errorf("create question database: %w", err)
		}
		if err := rs.store.SetDetailDatabase(ctx, u.ID, db.ID); err != nil {
			return fmt.Errorf("save question database: %w", err)
		}
		u.DetailDatabaseID = db.ID
	}

	if u.UploadedDetails == nil {
		u.UploadedDetails = make(map[int]bool)
	}

	var lastErr error
	failed := 0
	for i, r := range u.Results {
		if u.UploadedDetails[i] {
			continue
		}
		req := detailPage(u.DetailDatabaseID, u.QuestionType, r, i)
		if _, err := rs.uploader.CreatePage(ctx, req); err != nil {
			failed++
			lastErr = err
			rs.logger.Warn("question page upload failed",
				"upload_id", u.ID,
				"question_number", r.QuestionNumber,
				"error", err,
			)
			continue
		}
		if err := rs.store.MarkDetailUploaded(ctx, u.ID, i); err != nil {
			failed++
			lastErr = err
			continue
		}
		u.UploadedDetails[i] = true
	}

	if lastErr != nil {
		return fmt.Errorf("%d of %d question pages failed: %w", failed, len(u.Results), lastErr)
	}
	return nil
}

func (rs *ReportService) summaryPage(u *store.Upload) (notion.PageRequest, error) {
	summary, err := report.Summarize(u.Results)
	if err != nil {
		return notion.PageRequest{}, err
	}
	return notion.PageRequest{
		Parent: notion.Parent{DatabaseID: rs.opts.DatabaseID},
		Properties: map[string]any{
			"名前":   notion.Title(u.CreatedAt.In(rs.opts.Location).Format(time.DateTime)),
			"経過時間": notion.Number(summary.AverageTime), // seconds per question
			"正答率":  notion.Number(summary.Accuracy / 100),
			"問題数":  notion.Number(summary.Total),
			"問題種":  notion.Select(u.QuestionType.Label()),
		},
	}, nil
}

func detailDatabase(parentPageID string, qt question.Type) notion.DatabaseRequest {
	props := map[string]any{
		"問題番号": notion.TitleSchema(),
		"問題":   notion.RichTextSchema(),
		"正答":   notion.NumberSchema(),
		"回答":   notion.NumberSchema(),
		"時間":   notion.NumberSchema(),
		"正誤判定": notion.SelectSchema(
			notion.SelectOption{Name: "正解", Color: "green"},
			notion.SelectOption{Name: "誤解", Color: "red"},
		),
	}
	if qt == question.Division {
		props["余り正答"] = notion.NumberSchema()
		props["余り回答"] = notion.NumberSchema()
	}
	return notion.DatabaseRequest{
		Parent:     notion.Parent{PageID: parentPageID},
		Title:      []notion.RichText{{Type: "text", Text: notion.Text{Content: detailDatabaseTitle}}},
		Properties: props,
	}
}

func detailPage(databaseID string, qt question.Type, r practicesession.Result, position int) notion.PageRequest {
	number := r.QuestionNumber
	if number == 0 {
		number = position + 1
	}

	props := map[string]any{
		"問題番号": notion.Title(strconv.Itoa(number)),
		"問題":   notion.RichTextValue(r.Prompt),
		"時間":   notion.Number(r.Time),
		"正誤判定": notion.Select(r.Judge.Label()),
	}
	if qt == question.Division {
		props["正答"] = notion.Number(r.CorrectQuotient)
		props["回答"] = notion.Number(r.UserQuotient)
		props["余り正答"] = notion.Number(r.CorrectRemainder)
		props["余り回答"] = notion.Number(r.UserRemainder)
	} else {
		props["正答"] = notion.Number(r.CorrectAnswer)
		props["回答"] = notion.Number(r.UserAnswer)
	}

	return notion.PageRequest{
		Parent:     notion.Parent{DatabaseID: databaseID},
		Properties: props,
	}
}
