package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/joseph-ayodele/quizgen/internal/llm"
	"github.com/joseph-ayodele/quizgen/internal/pipeline"
)

type ExtractInput struct {
	Path string `json:"path" jsonschema:"absolute path of a local PDF file"`
	// TextOnly drops the per-page breakdown from the output.
	TextOnly bool `json:"text_only,omitempty" jsonschema:"return only the full text without per-page results"`
}

type ExtractOutput struct {
	Filename   string                `json:"filename"`
	Pages      []pipeline.PageResult `json:"pages,omitempty"`
	FullText   string                `json:"full_text"`
	PageCount  int                   `json:"page_count"`
	OCRPages   int                   `json:"ocr_pages"`
	EmptyPages int                   `json:"empty_pages"`
}

type QuizInput struct {
	Text         string `json:"text,omitempty" jsonschema:"document text to write questions about"`
	Path         string `json:"path,omitempty" jsonschema:"local PDF to extract text from when text is empty"`
	NumQuestions int    `json:"num_questions,omitempty" jsonschema:"number of questions (default 5)"`
}

type QuizOutput struct {
	Questions []llm.Question `json:"questions"`
	Count     int            `json:"count"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "extract_pdf",
		Description: "Extract the text of a PDF page by page, using OCR for pages without embedded text",
	}, s.handleExtract)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_quiz",
		Description: "Generate multiple-choice questions from text or from a PDF",
	}, s.handleQuiz)
}

func (s *Server) handleExtract(ctx context.Context, _ *mcp.CallToolRequest, input ExtractInput) (*mcp.CallToolResult, ExtractOutput, error) {
	if input.Path == "" {
		return nil, ExtractOutput{}, errors.New("path is required")
	}
	res, err := s.extractor.Run(ctx, input.Path)
	if err != nil {
		s.logger.Warn("mcp.extract.failed", "path", input.Path, "error", err)
		return nil, ExtractOutput{}, err
	}
	out := ExtractOutput{
		Filename:   res.Filename,
		Pages:      res.Pages,
		FullText:   res.FullText,
		PageCount:  len(res.Pages),
		OCRPages:   res.OCRPages,
		EmptyPages: res.EmptyPages,
	}
	if input.TextOnly {
		out.Pages = nil
	}
	return nil, out, nil
}

func (s *Server) handleQuiz(ctx context.Context, _ *mcp.CallToolRequest, input QuizInput) (*mcp.CallToolResult, QuizOutput, error) {
	n := input.NumQuestions
	if n <= 0 {
		n = llm.DefaultNumQuestions
	}
	text, filename := input.Text, ""
	if text == "" {
		if input.Path == "" {
			return nil, QuizOutput{}, errors.New("text or path is required")
		}
		res, err := s.extractor.Run(ctx, input.Path)
		if err != nil {
			return nil, QuizOutput{}, err
		}
		text, filename = res.FullText, res.Filename
	}
	qs, err := s.quiz.GenerateQuiz(ctx, text, n, filename)
	if err != nil {
		s.logger.Warn("mcp.quiz.failed", "error", err)
		return nil, QuizOutput{}, err
	}
	return nil, QuizOutput{Questions: qs, Count: len(qs)}, nil
}
