package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/quizgen/internal/common"
)

type recordingQueue struct {
	mu     sync.Mutex
	paths  []string
	reject map[string]bool
}

func (q *recordingQueue) Enqueue(_ context.Context, path string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.reject[filepath.Base(path)] {
		return errors.New("queue full")
	}
	q.paths = append(q.paths, path)
	return nil
}

func setup(t *testing.T) (string, *recordingQueue, *Service) {
	t.Helper()
	root := t.TempDir()
	for _, name := range []string{"a.pdf", "docs/b.pdf", "docs/c.PDF", "docs/notes.txt", ".cache/d.pdf"} {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("%PDF-1.4"), 0o644))
	}
	q := &recordingQueue{reject: map[string]bool{}}
	svc, err := NewService(q, root, nil)
	require.NoError(t, err)
	return root, q, svc
}

func TestNewService_RootMustBeDir(t *testing.T) {
	_, err := NewService(&recordingQueue{}, filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)

	f := filepath.Join(t.TempDir(), "file.pdf")
	require.NoError(t, os.WriteFile(f, nil, 0o644))
	_, err = NewService(&recordingQueue{}, f, nil)
	assert.Error(t, err)
}

func TestIngestPath_SingleFile(t *testing.T) {
	root, q, svc := setup(t)

	res, err := svc.IngestPath(context.Background(), PathRequest{Path: "a.pdf"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Statistics.Succeeded)
	assert.Equal(t, []string{filepath.Join(root, "a.pdf")}, q.paths)
}

func TestIngestPath_Directory(t *testing.T) {
	root, q, svc := setup(t)

	res, err := svc.IngestPath(context.Background(), PathRequest{Path: root})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Statistics.Matched)
	assert.EqualValues(t, 3, res.Statistics.Succeeded)
	assert.Len(t, q.paths, 3)
	assert.NotContains(t, q.paths, filepath.Join(root, ".cache", "d.pdf"))

	show := false
	q.paths = nil
	res, err = svc.IngestPath(context.Background(), PathRequest{Path: ".", SkipHidden: &show})
	require.NoError(t, err)
	assert.EqualValues(t, 4, res.Statistics.Succeeded)
}

func TestIngestPath_QueueRejection(t *testing.T) {
	_, q, svc := setup(t)
	q.reject["b.pdf"] = true

	res, err := svc.IngestPath(context.Background(), PathRequest{Path: "docs"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Statistics.Succeeded)
	assert.EqualValues(t, 1, res.Statistics.Failed)

	res, err = svc.IngestPath(context.Background(), PathRequest{Path: "docs/b.pdf"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Statistics.Failed)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "queue full", res.Results[0].Err)
}

func TestIngestPath_Rejects(t *testing.T) {
	_, q, svc := setup(t)
	ctx := context.Background()

	_, err := svc.IngestPath(ctx, PathRequest{Path: "  "})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = svc.IngestPath(ctx, PathRequest{Path: "../outside.pdf"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = svc.IngestPath(ctx, PathRequest{Path: "/etc/passwd"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = svc.IngestPath(ctx, PathRequest{Path: "missing.pdf"})
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = svc.IngestPath(ctx, PathRequest{Path: "docs/notes.txt"})
	var ufe *common.UnsupportedFormatError
	assert.ErrorAs(t, err, &ufe)

	assert.Empty(t, q.paths)
}
