package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/document"
	fsingest "github.com/joseph-ayodele/quizgen/internal/ingest"
)

// Enqueuer is satisfied by *async.ProcessorQueue.
type Enqueuer interface {
	Enqueue(ctx context.Context, path string) error
}

// Service queues server-side PDFs for background extraction. Every path must
// resolve inside root.
type Service struct {
	queue  Enqueuer
	root   string
	logger *slog.Logger
}

// NewService creates a new ingest service rooted at root, which must be an existing directory.
func NewService(q Enqueuer, root string, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("ingest root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("ingest root %s is not a directory", abs)
	}
	return &Service{queue: q, root: abs, logger: logger}, nil
}

func (s *Service) Root() string { return s.root }

// PathRequest names a file or directory, relative to the root or absolute inside it.
type PathRequest struct {
	Path string
	// SkipHidden defaults to true when nil.
	SkipHidden *bool
}

// Result summarizes one ingest request.
type Result struct {
	Path       string                `json:"path"`
	Statistics fsingest.DirStats     `json:"statistics"`
	Results    []fsingest.FileResult `json:"results"`
}

// IngestPath queues a single PDF, or every PDF under a directory. Files the
// queue rejects are reported as failed results rather than failing the request.
func (s *Service) IngestPath(ctx context.Context, req PathRequest) (*Result, error) {
	path, err := s.resolve(req.Path)
	if err != nil {
		s.logger.Warn("ingest request rejected", "path", req.Path, "error", err)
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", req.Path, common.ErrNotFound)
		}
		return nil, err
	}

	if !info.IsDir() {
		if err := document.CheckExtension(path); err != nil {
			return nil, err
		}
		res := &Result{Path: path, Statistics: fsingest.DirStats{Scanned: 1, Matched: 1}}
		if err := s.queue.Enqueue(ctx, path); err != nil {
			s.logger.Error("enqueue failed for file", "path", path, "error", err)
			res.Statistics.Failed++
			res.Results = append(res.Results, fsingest.FileResult{Path: path, Err: err.Error()})
			return res, nil
		}
		res.Statistics.Succeeded++
		res.Results = append(res.Results, fsingest.FileResult{Path: path})
		s.logger.Info("file ingest queued", "path", path)
		return res, nil
	}

	skipHidden := true
	if req.SkipHidden != nil {
		skipHidden = *req.SkipHidden
	}
	s.logger.Info("starting directory ingest", "root", path, "skip_hidden", skipHidden)
	results, stats, err := fsingest.WalkPDFs(ctx, path, skipHidden, s.queue.Enqueue)
	if err != nil {
		return nil, err
	}
	s.logger.Info("directory ingest completed", "root", path, "scanned", stats.Scanned, "matched", stats.Matched, "succeeded", stats.Succeeded, "failed", stats.Failed)
	return &Result{Path: path, Statistics: stats, Results: results}, nil
}

func (s *Service) resolve(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", common.NewAppError("INVALID_INPUT", "path is required", common.ErrInvalidInput)
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.root, p)
	}
	p = filepath.Clean(p)
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", common.NewAppError("INVALID_INPUT", "path must be inside the ingest root", common.ErrInvalidInput)
	}
	return p, nil
}
