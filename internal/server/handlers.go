package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/document"
	"github.com/joseph-ayodele/quizgen/internal/entity"
	"github.com/joseph-ayodele/quizgen/internal/llm"
	"github.com/joseph-ayodele/quizgen/internal/pipeline"
	"github.com/joseph-ayodele/quizgen/internal/services/ingest"
)

type uploadResponse struct {
	Filename string `json:"filename"`
	// Content duplicates FullText under the key the web client reads.
	Content    string                `json:"content"`
	Pages      []pipeline.PageResult `json:"pages"`
	FullText   string                `json:"full_text"`
	OCRPages   int                   `json:"ocr_pages"`
	EmptyPages int                   `json:"empty_pages"`
	JobID      string                `json:"job_id,omitempty"`
	Cached     bool                  `json:"cached"`
	ArchiveURI string                `json:"archive_uri,omitempty"`
}

// handleUpload streams the multipart "file" part into the processor.
// POST /api/upload
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	mr, err := r.MultipartReader()
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "expected multipart/form-data with a file field")
		return
	}

	part, err := nextFilePart(mr)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	defer func() { _ = part.Close() }()

	filename := part.FileName()
	if err := document.CheckExtension(filename); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	out, err := s.proc.ProcessUpload(r.Context(), filename, part)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	resp := uploadResponse{
		Filename:   out.Result.Filename,
		Content:    out.Result.FullText,
		Pages:      out.Result.Pages,
		FullText:   out.Result.FullText,
		OCRPages:   out.Result.OCRPages,
		EmptyPages: out.Result.EmptyPages,
		Cached:     out.Cached,
		ArchiveURI: out.ArchiveURI,
	}
	if out.JobID != uuid.Nil {
		resp.JobID = out.JobID.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func nextFilePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, common.NewAppError("INVALID_INPUT", "missing file field", common.ErrInvalidInput)
		}
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				return nil, err
			}
			return nil, common.NewAppError("INVALID_INPUT", "malformed multipart body", common.ErrInvalidInput)
		}
		if part.FormName() == "file" {
			return part, nil
		}
		_ = part.Close()
	}
}

type generateQuizRequest struct {
	Text         string `json:"text"`
	NumQuestions *int   `json:"num_questions"`
	Filename     string `json:"filename,omitempty"`
}

type quizResponse struct {
	Questions []llm.Question `json:"questions"`
}

// POST /api/generate-quiz
func (s *Server) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	var req generateQuizRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	n := llm.DefaultNumQuestions
	if req.NumQuestions != nil {
		n = *req.NumQuestions
	}
	qs, err := s.proc.GenerateQuiz(r.Context(), req.Text, n, req.Filename)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, quizResponse{Questions: qs})
}

// POST /api/quiz/export
func (s *Server) handleExportQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizResponse
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if len(req.Questions) == 0 {
		writeDetail(w, http.StatusBadRequest, "questions are required")
		return
	}
	b, err := s.export.QuizXLSX(r.Context(), req.Questions)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="quiz.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// GET /api/jobs/{id}
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "id must be a UUID")
		return
	}
	job, err := s.proc.Job(r.Context(), id)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// GET /api/jobs?limit=N
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeDetail(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	jobs, err := s.proc.RecentJobs(r.Context(), limit)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if jobs == nil {
		jobs = []*entity.ExtractJob{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

type ingestRequest struct {
	Path       string `json:"path"`
	SkipHidden *bool  `json:"skip_hidden,omitempty"`
}

// POST /api/ingest
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	res, err := s.ingest.IngestPath(r.Context(), ingest.PathRequest{Path: req.Path, SkipHidden: req.SkipHidden})
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, r, s.logger, err)
			return false
		}
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
