package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/quizgen/constants"
	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/entity"
)

const extractJobTable = "extract_job"

var extractJobColumns = []string{
	"id", "content_hash", "filename", "params_key", "source", "status",
	"page_count", "ocr_pages", "empty_pages", "error_message", "result_json",
	"started_at", "finished_at",
}

type StartParams struct {
	ContentHash string
	Filename    string
	ParamsKey   string
	Source      string
}

// Outcome is what a successful run stores alongside the job.
type Outcome struct {
	PageCount  int
	OCRPages   int
	EmptyPages int
	ResultJSON []byte
	// Partial marks a result with recovered page failures; it is stored but
	// FindCompleted skips it.
	Partial bool
}

type ExtractJobRepository interface {
	Start(ctx context.Context, p StartParams) (*entity.ExtractJob, error)
	FinishSuccess(ctx context.Context, jobID uuid.UUID, out Outcome) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
	GetByID(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error)
	// FindCompleted returns the newest OK job for the content and params, or ErrNotFound.
	FindCompleted(ctx context.Context, contentHash, paramsKey string) (*entity.ExtractJob, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.ExtractJob, error)
}

type extractJobRepo struct {
	db  *DB
	now func() time.Time
	log *slog.Logger
}

func NewExtractJobRepository(db *DB, log *slog.Logger) ExtractJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractJobRepo{db: db, now: time.Now, log: log}
}

func (r *extractJobRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.dialect)
}

func (r *extractJobRepo) Start(ctx context.Context, p StartParams) (*entity.ExtractJob, error) {
	if p.Source == "" {
		p.Source = constants.JobSourceUpload
	}
	job := &entity.ExtractJob{
		ID:          uuid.New(),
		ContentHash: p.ContentHash,
		Filename:    p.Filename,
		ParamsKey:   p.ParamsKey,
		Source:      p.Source,
		Status:      string(constants.JobStatusRunning),
		StartedAt:   r.now().UTC().Truncate(time.Millisecond),
	}
	q, args := r.builder().Insert(extractJobTable).
		Columns("id", "content_hash", "filename", "params_key", "source", "status", "started_at").
		Values(job.ID.String(), job.ContentHash, job.Filename, job.ParamsKey, job.Source, job.Status, job.StartedAt.UnixMilli()).
		Query()
	if err := r.db.drv.Exec(ctx, q, args, nil); err != nil {
		r.log.Error("extract_job start failed", "filename", p.Filename, "err", err)
		return nil, fmt.Errorf("%w: start job: %v", common.ErrDatabase, err)
	}
	r.log.Info("extract_job started", "job_id", job.ID, "filename", p.Filename, "source", p.Source)
	return job, nil
}

func (r *extractJobRepo) FinishSuccess(ctx context.Context, jobID uuid.UUID, out Outcome) error {
	status := constants.JobStatusOK
	if out.Partial {
		status = constants.JobStatusPartial
	}
	q, args := r.builder().Update(extractJobTable).
		Set("status", string(status)).
		Set("page_count", out.PageCount).
		Set("ocr_pages", out.OCRPages).
		Set("empty_pages", out.EmptyPages).
		Set("result_json", string(out.ResultJSON)).
		Set("finished_at", r.now().UnixMilli()).
		Where(entsql.EQ("id", jobID.String())).
		Query()
	if err := r.exec1(ctx, q, args, jobID); err != nil {
		r.log.Error("extract_job finish failed", "job_id", jobID, "status", status, "err", err)
		return err
	}
	r.log.Info("extract_job finished", "job_id", jobID, "status", status, "pages", out.PageCount, "ocr_pages", out.OCRPages)
	return nil
}

func (r *extractJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	q, args := r.builder().Update(extractJobTable).
		Set("status", string(constants.JobStatusFailed)).
		Set("error_message", message).
		Set("finished_at", r.now().UnixMilli()).
		Where(entsql.EQ("id", jobID.String())).
		Query()
	if err := r.exec1(ctx, q, args, jobID); err != nil {
		r.log.Error("extract_job finish(FAILED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Warn("extract_job finished (FAILED)", "job_id", jobID, "error", message)
	return nil
}

// exec1 runs an update that must touch exactly one row.
func (r *extractJobRepo) exec1(ctx context.Context, q string, args []any, jobID uuid.UUID) error {
	var res sql.Result
	if err := r.db.drv.Exec(ctx, q, args, &res); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	if n == 0 {
		return fmt.Errorf("extract job %s: %w", jobID, common.ErrNotFound)
	}
	return nil
}

func (r *extractJobRepo) GetByID(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error) {
	sel := r.builder().Select(extractJobColumns...).
		From(entsql.Table(extractJobTable)).
		Where(entsql.EQ("id", jobID.String()))
	jobs, err := r.query(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("extract job %s: %w", jobID, common.ErrNotFound)
	}
	return jobs[0], nil
}

func (r *extractJobRepo) FindCompleted(ctx context.Context, contentHash, paramsKey string) (*entity.ExtractJob, error) {
	sel := r.builder().Select(extractJobColumns...).
		From(entsql.Table(extractJobTable)).
		Where(entsql.And(
			entsql.EQ("content_hash", contentHash),
			entsql.EQ("params_key", paramsKey),
			entsql.EQ("status", string(constants.JobStatusOK)),
		)).
		OrderExpr(entsql.Expr("finished_at DESC")).
		Limit(1)
	jobs, err := r.query(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, common.ErrNotFound
	}
	return jobs[0], nil
}

func (r *extractJobRepo) ListRecent(ctx context.Context, limit int) ([]*entity.ExtractJob, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	sel := r.builder().Select(extractJobColumns...).
		From(entsql.Table(extractJobTable)).
		OrderExpr(entsql.Expr("started_at DESC")).
		Limit(limit)
	return r.query(ctx, sel)
}

func (r *extractJobRepo) query(ctx context.Context, sel *entsql.Selector) ([]*entity.ExtractJob, error) {
	q, args := sel.Query()
	rows := &entsql.Rows{}
	if err := r.db.drv.Query(ctx, q, args, rows); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.ExtractJob
	for rows.Next() {
		job, err := scanExtractJob(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan extract_job: %v", common.ErrDatabase, err)
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func scanExtractJob(rows *entsql.Rows) (*entity.ExtractJob, error) {
	var (
		id, errMsg, result sql.NullString
		started            int64
		finished           sql.NullInt64
		job                entity.ExtractJob
	)
	if err := rows.Scan(
		&id, &job.ContentHash, &job.Filename, &job.ParamsKey, &job.Source, &job.Status,
		&job.PageCount, &job.OCRPages, &job.EmptyPages, &errMsg, &result,
		&started, &finished,
	); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id.String)
	if err != nil {
		return nil, err
	}
	job.ID = parsed
	if errMsg.Valid {
		job.ErrorMessage = &errMsg.String
	}
	if result.Valid && result.String != "" {
		job.Result = []byte(result.String)
	}
	job.StartedAt = time.UnixMilli(started).UTC()
	if finished.Valid {
		t := time.UnixMilli(finished.Int64).UTC()
		job.FinishedAt = &t
	}
	return &job, nil
}

// IsNotFound reports whether err means no such job.
func IsNotFound(err error) bool { return errors.Is(err, common.ErrNotFound) }
