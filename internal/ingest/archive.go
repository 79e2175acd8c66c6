package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// Archiver copies a staged upload to long-term storage.
type Archiver interface {
	Archive(ctx context.Context, f *StagedFile) (string, error)
}

// GCSArchiver stores uploads content-addressed under uploads/<sha256>.pdf.
type GCSArchiver struct {
	client *storage.Client
	bucket *storage.BucketHandle
	name   string
	logger *slog.Logger
}

func NewGCSArchiver(ctx context.Context, bucket string, logger *slog.Logger) (*GCSArchiver, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if bucket == "" {
		return nil, errors.New("archive bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &GCSArchiver{client: client, bucket: client.Bucket(bucket), name: bucket, logger: logger}, nil
}

// ObjectName is the archive key for a file hash.
func ObjectName(sha256Hex string) string {
	return path.Join("uploads", sha256Hex+".pdf")
}

// Archive writes the object only if it does not exist yet. An existing object
// with the same hash is the same content, so a failed precondition is success.
func (a *GCSArchiver) Archive(ctx context.Context, f *StagedFile) (string, error) {
	obj := ObjectName(f.SHA256)
	uri := "gs://" + a.name + "/" + obj

	src, err := os.Open(f.Path)
	if err != nil {
		return "", fmt.Errorf("open staged file: %w", err)
	}
	defer func() { _ = src.Close() }()

	w := a.bucket.Object(obj).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = "application/pdf"
	w.Metadata = map[string]string{"filename": f.Filename}

	if _, err := io.Copy(w, src); err != nil {
		_ = w.Close()
		if isPreconditionFailed(err) {
			a.logger.Debug("archive: object exists", "object", uri)
			return uri, nil
		}
		return "", fmt.Errorf("write %s: %w", uri, err)
	}
	if err := w.Close(); err != nil {
		if isPreconditionFailed(err) {
			a.logger.Debug("archive: object exists", "object", uri)
			return uri, nil
		}
		return "", fmt.Errorf("finalize %s: %w", uri, err)
	}
	a.logger.Info("archive: upload stored", "object", uri, "bytes", f.Size)
	return uri, nil
}

func (a *GCSArchiver) Close() error { return a.client.Close() }

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}
