package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/quizgen/constants"
	"github.com/joseph-ayodele/quizgen/internal/document"
)

// Stager writes uploads to a private staging directory.
type Stager struct {
	dir       string
	retention string
	logger    *slog.Logger
}

// StagedFile is an upload on disk. Release applies the retention policy and is
// safe to call more than once.
type StagedFile struct {
	Path     string
	Filename string
	SHA256   string
	Size     int64

	retention string
	logger    *slog.Logger
	once      sync.Once
	err       error
}

func NewStager(dir, retention string, logger *slog.Logger) (*Stager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		return nil, errors.New("staging dir is required")
	}
	switch retention {
	case "":
		retention = constants.RetentionDelete
	case constants.RetentionDelete, constants.RetentionRetain:
	default:
		return nil, fmt.Errorf("unknown retention policy %q", retention)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Stager{dir: dir, retention: retention, logger: logger}, nil
}

func (s *Stager) Dir() string { return s.dir }

// Stage copies r to <dir>/<uuid>.pdf, hashing while it writes. Names without a
// .pdf extension are rejected before anything touches the disk.
func (s *Stager) Stage(ctx context.Context, filename string, r io.Reader) (*StagedFile, error) {
	if err := document.CheckExtension(filename); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, uuid.NewString()+"."+constants.PDFExtension)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create staged file: %w", err)
	}

	h := sha256.New()
	n, copyErr := io.Copy(io.MultiWriter(f, h), &ctxReader{ctx: ctx, r: r})
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			s.logger.Warn("failed to remove partial upload", "path", path, "error", rmErr)
		}
		return nil, fmt.Errorf("write staged file: %w", err)
	}

	sf := &StagedFile{
		Path:      path,
		Filename:  filepath.Base(filename),
		SHA256:    hex.EncodeToString(h.Sum(nil)),
		Size:      n,
		retention: s.retention,
		logger:    s.logger,
	}
	s.logger.Debug("upload staged", "filename", sf.Filename, "path", path, "bytes", n, "sha256", sf.SHA256)
	return sf, nil
}

// Release deletes the file under the delete policy and keeps it for the
// sweeper under the retain policy.
func (f *StagedFile) Release() error {
	f.once.Do(func() {
		if f.retention != constants.RetentionDelete {
			return
		}
		if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			f.logger.Warn("failed to delete staged upload", "path", f.Path, "error", err)
			f.err = err
			return
		}
		f.logger.Debug("staged upload deleted", "path", f.Path)
	})
	return f.err
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// HashFile returns the hex sha256 and size of the file at path.
func HashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
