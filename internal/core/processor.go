package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/quizgen/constants"
	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/entity"
	"github.com/joseph-ayodele/quizgen/internal/ingest"
	"github.com/joseph-ayodele/quizgen/internal/llm"
	"github.com/joseph-ayodele/quizgen/internal/pipeline"
	"github.com/joseph-ayodele/quizgen/internal/repository"
)

// Outcome is the result of processing one document.
type Outcome struct {
	Result *pipeline.Result
	// JobID is uuid.Nil when no job store is configured or recording failed.
	JobID      uuid.UUID
	Cached     bool
	ArchiveURI string
}

// Processor coordinates staging, the extraction pipeline, the job store and
// question generation.
type Processor struct {
	logger    *slog.Logger
	extractor pipeline.Extractor
	generator llm.QuestionGenerator
	stager    *ingest.Stager
	jobs      repository.ExtractJobRepository
	archiver  ingest.Archiver
	paramsKey string
}

type Option func(*Processor)

// WithJobStore records runs and reuses completed results for identical content.
func WithJobStore(jobs repository.ExtractJobRepository, paramsKey string) Option {
	return func(p *Processor) {
		p.jobs = jobs
		p.paramsKey = paramsKey
	}
}

func WithArchiver(a ingest.Archiver) Option {
	return func(p *Processor) { p.archiver = a }
}

func NewProcessor(
	logger *slog.Logger,
	extractor pipeline.Extractor,
	generator llm.QuestionGenerator,
	stager *ingest.Stager,
	opts ...Option,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if generator == nil {
		generator = llm.NewStaticGenerator()
	}
	p := &Processor{
		logger:    logger,
		extractor: extractor,
		generator: generator,
		stager:    stager,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ProcessUpload stages r, extracts it (or reuses a cached result) and releases
// the staged file on every exit path.
func (p *Processor) ProcessUpload(ctx context.Context, filename string, r io.Reader) (*Outcome, error) {
	if p.stager == nil {
		return nil, common.NewAppError("NOT_CONFIGURED", "upload staging is not configured", common.ErrInternal)
	}
	staged, err := p.stager.Stage(ctx, filename, r)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := staged.Release(); err != nil {
			p.logger.Warn("processor.release.failed", "path", staged.Path, "err", err)
		}
	}()

	out, err := p.process(ctx, staged.Path, staged.Filename, staged.SHA256, constants.JobSourceUpload)
	if err != nil {
		return nil, err
	}

	if p.archiver != nil && !out.Cached {
		uri, err := p.archiver.Archive(ctx, staged)
		if err != nil {
			p.logger.Error("processor.archive.failed", "filename", staged.Filename, "err", err)
		} else {
			out.ArchiveURI = uri
		}
	}
	return out, nil
}

// ProcessFile extracts a file already on disk. The file is never removed.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*Outcome, error) {
	hash := ""
	if p.jobs != nil {
		var err error
		hash, _, err = ingest.HashFile(path)
		if err != nil {
			return nil, &common.DocumentOpenError{Path: path, Err: err}
		}
	}
	return p.process(ctx, path, filepath.Base(path), hash, constants.JobSourceWatch)
}

func (p *Processor) process(ctx context.Context, path, filename, hash, source string) (*Outcome, error) {
	logger := p.logger.With("filename", filename)

	if cached := p.lookupCached(ctx, hash, filename, logger); cached != nil {
		return cached, nil
	}

	jobID := uuid.Nil
	if p.jobs != nil {
		job, err := p.jobs.Start(ctx, repository.StartParams{
			ContentHash: hash,
			Filename:    filename,
			ParamsKey:   p.paramsKey,
			Source:      source,
		})
		if err != nil {
			logger.Error("processor.job.start_failed", "err", err)
		} else {
			jobID = job.ID
			ctx = common.WithJobID(ctx, jobID.String())
		}
	}

	res, err := p.extractor.Run(ctx, path, pipeline.WithFilename(filename))
	if err != nil {
		if jobID != uuid.Nil {
			// the request may be gone; the job row should still be closed
			if ferr := p.jobs.FinishFailure(context.WithoutCancel(ctx), jobID, err.Error()); ferr != nil {
				logger.Error("processor.job.finish_failed", "job_id", jobID, "err", ferr)
			}
		}
		logger.Error("processor.extract.failed", "job_id", jobID, "err", err)
		return nil, err
	}

	if jobID != uuid.Nil {
		raw, mErr := json.Marshal(res)
		if mErr != nil {
			logger.Error("processor.result.encode_failed", "err", mErr)
		}
		if ferr := p.jobs.FinishSuccess(context.WithoutCancel(ctx), jobID, repository.Outcome{
			PageCount:  len(res.Pages),
			OCRPages:   res.OCRPages,
			EmptyPages: res.EmptyPages,
			ResultJSON: raw,
			Partial:    res.Degraded(),
		}); ferr != nil {
			logger.Error("processor.job.finish_failed", "job_id", jobID, "err", ferr)
		}
	}

	logger.Info("processor.extract.ok",
		"job_id", jobID,
		"pages", len(res.Pages),
		"ocr_pages", res.OCRPages,
		"empty_pages", res.EmptyPages,
	)
	return &Outcome{Result: res, JobID: jobID}, nil
}

// lookupCached returns a completed job's result relabelled with filename, or
// nil on a miss or any store problem.
func (p *Processor) lookupCached(ctx context.Context, hash, filename string, logger *slog.Logger) *Outcome {
	if p.jobs == nil || hash == "" {
		return nil
	}
	job, err := p.jobs.FindCompleted(ctx, hash, p.paramsKey)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			logger.Warn("processor.cache.lookup_failed", "err", err)
		}
		return nil
	}
	var res pipeline.Result
	if err := json.Unmarshal(job.Result, &res); err != nil {
		logger.Warn("processor.cache.decode_failed", "job_id", job.ID, "err", err)
		return nil
	}
	res.Filename = filename
	logger.Info("processor.cache.hit", "job_id", job.ID)
	return &Outcome{Result: &res, JobID: job.ID, Cached: true}
}

// GenerateQuiz validates the request and delegates to the configured generator.
func (p *Processor) GenerateQuiz(ctx context.Context, text string, n int, filename string) ([]llm.Question, error) {
	v := common.NewValidator().
		Field("text", text, common.Required).
		Field("num_questions", n, common.IntRange(1, llm.MaxNumQuestions))
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}

	qs, err := p.generator.Generate(ctx, llm.GenerateRequest{Text: text, NumQuestions: n, FilenameHint: filename})
	if err != nil {
		p.logger.Error("processor.quiz.failed", "generator", p.generator.Name(), "err", err)
		if errors.Is(err, common.ErrLLM) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", common.ErrLLM, err)
	}
	return qs, nil
}

// Job fetches one job record.
func (p *Processor) Job(ctx context.Context, id uuid.UUID) (*entity.ExtractJob, error) {
	if p.jobs == nil {
		return nil, fmt.Errorf("job %s: %w", id, common.ErrNotFound)
	}
	return p.jobs.GetByID(ctx, id)
}

// RecentJobs lists the newest job records first.
func (p *Processor) RecentJobs(ctx context.Context, limit int) ([]*entity.ExtractJob, error) {
	if p.jobs == nil {
		return nil, nil
	}
	return p.jobs.ListRecent(ctx, limit)
}
