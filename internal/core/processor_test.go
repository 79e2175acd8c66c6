package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/quizgen/constants"
	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/ingest"
	"github.com/joseph-ayodele/quizgen/internal/llm"
	"github.com/joseph-ayodele/quizgen/internal/pipeline"
	"github.com/joseph-ayodele/quizgen/internal/repository"
)

type fakeExtractor struct {
	mu    sync.Mutex
	calls []string
	err   error
	// existed records whether the path was present while Run executed.
	existed []bool
	// script, when set, supplies the pages of each successive call.
	script [][]pipeline.PageResult
}

func (f *fakeExtractor) Run(_ context.Context, path string, opts ...pipeline.RunOption) (*pipeline.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, path)
	_, statErr := os.Stat(path)
	f.existed = append(f.existed, statErr == nil)
	if f.err != nil {
		return nil, f.err
	}
	pages := []pipeline.PageResult{
		{PageIndex: 0, Method: pipeline.MethodDigital, Text: "Hello World"},
		{PageIndex: 1, Method: pipeline.MethodOCR, Text: "Scanned Text"},
	}
	if n := len(f.calls) - 1; n < len(f.script) {
		pages = f.script[n]
	}
	return pipeline.Assemble(pipeline.ReportedFilename(path, opts...), pages), nil
}

type fakeArchiver struct{ calls int }

func (a *fakeArchiver) Archive(_ context.Context, f *ingest.StagedFile) (string, error) {
	a.calls++
	return "gs://bucket/" + ingest.ObjectName(f.SHA256), nil
}

func newTestProcessor(t *testing.T, ex pipeline.Extractor, opts ...Option) (*Processor, string) {
	t.Helper()
	dir := t.TempDir()
	stager, err := ingest.NewStager(filepath.Join(dir, "uploads"), constants.RetentionDelete, nil)
	require.NoError(t, err)
	return NewProcessor(nil, ex, nil, stager, opts...), stager.Dir()
}

func newJobStore(t *testing.T) repository.ExtractJobRepository {
	t.Helper()
	db, err := repository.Open(context.Background(), repository.Config{URL: filepath.Join(t.TempDir(), "jobs.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return repository.NewExtractJobRepository(db, nil)
}

func TestProcessUpload_ExtractsAndDeletesStagedFile(t *testing.T) {
	ex := &fakeExtractor{}
	p, dir := newTestProcessor(t, ex)

	out, err := p.ProcessUpload(context.Background(), "lecture.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "lecture.pdf", out.Result.Filename)
	assert.Equal(t, "Hello World\n\nScanned Text", out.Result.FullText)
	assert.Equal(t, uuid.Nil, out.JobID)
	assert.False(t, out.Cached)

	require.Len(t, ex.existed, 1)
	assert.True(t, ex.existed[0])
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcessUpload_RejectsNonPDFBeforeExtraction(t *testing.T) {
	ex := &fakeExtractor{}
	p, _ := newTestProcessor(t, ex)

	_, err := p.ProcessUpload(context.Background(), "notes.docx", strings.NewReader("x"))
	var ufe *common.UnsupportedFormatError
	require.ErrorAs(t, err, &ufe)
	assert.Empty(t, ex.calls)
}

func TestProcessUpload_FailureStillReleases(t *testing.T) {
	ex := &fakeExtractor{err: &common.DocumentOpenError{Path: "x", Err: errors.New("corrupt")}}
	jobs := newJobStore(t)
	p, dir := newTestProcessor(t, ex, WithJobStore(jobs, "k"))

	_, err := p.ProcessUpload(context.Background(), "broken.pdf", strings.NewReader("junk"))
	var doe *common.DocumentOpenError
	require.ErrorAs(t, err, &doe)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	recent, err := p.RecentJobs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, string(constants.JobStatusFailed), recent[0].Status)
}

func TestProcessUpload_CachesByContentAndParams(t *testing.T) {
	ex := &fakeExtractor{}
	jobs := newJobStore(t)
	archiver := &fakeArchiver{}
	p, _ := newTestProcessor(t, ex, WithJobStore(jobs, "k"), WithArchiver(archiver))

	first, err := p.ProcessUpload(context.Background(), "one.pdf", strings.NewReader("%PDF-same"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, first.JobID)
	assert.False(t, first.Cached)
	assert.True(t, strings.HasPrefix(first.ArchiveURI, "gs://bucket/uploads/"))

	second, err := p.ProcessUpload(context.Background(), "two.pdf", strings.NewReader("%PDF-same"))
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.JobID, second.JobID)
	assert.Equal(t, "two.pdf", second.Result.Filename)
	assert.Equal(t, first.Result.Pages, second.Result.Pages)
	assert.Equal(t, first.Result.FullText, second.Result.FullText)

	assert.Len(t, ex.calls, 1)
	assert.Equal(t, 1, archiver.calls)

	job, err := p.Job(context.Background(), first.JobID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.JobStatusOK), job.Status)
	assert.Equal(t, 2, job.PageCount)
	assert.Equal(t, 1, job.OCRPages)
}

func TestProcessUpload_DegradedResultIsNotCached(t *testing.T) {
	ex := &fakeExtractor{script: [][]pipeline.PageResult{
		{{PageIndex: 0, Method: pipeline.MethodEmpty, Note: "ocr engine tesseract unavailable"}},
		{{PageIndex: 0, Method: pipeline.MethodOCR, Text: "Scanned Text"}},
	}}
	jobs := newJobStore(t)
	p, _ := newTestProcessor(t, ex, WithJobStore(jobs, "k"))

	first, err := p.ProcessUpload(context.Background(), "scan.pdf", strings.NewReader("%PDF-scan"))
	require.NoError(t, err)
	assert.Equal(t, "", first.Result.FullText)

	job, err := p.Job(context.Background(), first.JobID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.JobStatusPartial), job.Status)

	second, err := p.ProcessUpload(context.Background(), "scan.pdf", strings.NewReader("%PDF-scan"))
	require.NoError(t, err)
	assert.False(t, second.Cached)
	assert.Equal(t, "Scanned Text", second.Result.FullText)
	assert.Len(t, ex.calls, 2)

	// the clean rerun is now the cached answer
	third, err := p.ProcessUpload(context.Background(), "scan.pdf", strings.NewReader("%PDF-scan"))
	require.NoError(t, err)
	assert.True(t, third.Cached)
	assert.Equal(t, second.JobID, third.JobID)
	assert.Len(t, ex.calls, 2)
}

func TestProcessFile_KeepsSource(t *testing.T) {
	ex := &fakeExtractor{}
	jobs := newJobStore(t)
	p, _ := newTestProcessor(t, ex, WithJobStore(jobs, "k"))

	src := filepath.Join(t.TempDir(), "watched.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.4"), 0o600))

	out, err := p.ProcessFile(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "watched.pdf", out.Result.Filename)
	assert.FileExists(t, src)

	job, err := p.Job(context.Background(), out.JobID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobSourceWatch, job.Source)

	_, err = p.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	var doe *common.DocumentOpenError
	assert.ErrorAs(t, err, &doe)
}

func TestJob_WithoutStore(t *testing.T) {
	p, _ := newTestProcessor(t, &fakeExtractor{})
	_, err := p.Job(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

type failingGenerator struct{}

func (failingGenerator) Name() string { return "failing" }
func (failingGenerator) Generate(context.Context, llm.GenerateRequest) ([]llm.Question, error) {
	return nil, errors.New("upstream down")
}

func TestGenerateQuiz(t *testing.T) {
	p, _ := newTestProcessor(t, &fakeExtractor{})

	qs, err := p.GenerateQuiz(context.Background(), "some text", 3, "")
	require.NoError(t, err)
	assert.Len(t, qs, 3)

	_, err = p.GenerateQuiz(context.Background(), "   ", 3, "")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INVALID_INPUT", appErr.Code)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = p.GenerateQuiz(context.Background(), "text", 0, "")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = p.GenerateQuiz(context.Background(), "text", llm.MaxNumQuestions+1, "")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	failing := NewProcessor(nil, &fakeExtractor{}, failingGenerator{}, nil)
	_, err = failing.GenerateQuiz(context.Background(), "text", 2, "")
	assert.ErrorIs(t, err, common.ErrLLM)

	_, err = failing.ProcessUpload(context.Background(), "a.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, common.ErrInternal)
}
