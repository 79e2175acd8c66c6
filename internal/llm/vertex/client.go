// Package vertex generates quiz questions with Gemini models on Vertex AI.
package vertex

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/llm"
)

type Config struct {
	ProjectID   string
	Region      string
	Model       string
	Temperature float32
}

// contentGenerator is the slice of *genai.GenerativeModel the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type Client struct {
	cfg    Config
	client *genai.Client
	model  contentGenerator
	log    *slog.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("vertex: project id is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-central1"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("vertex: new client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(llm.BuildSystemPrompt())},
	}
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(cfg.Temperature),
	}

	return &Client{cfg: cfg, client: client, model: model, log: logger}, nil
}

func (c *Client) Name() string { return "vertex" }

func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) ([]llm.Question, error) {
	rid := uuid.New().String()
	start := time.Now()
	n := req.NumQuestions
	if n <= 0 {
		n = llm.DefaultNumQuestions
	}
	c.log.Info("llm.quiz.start", "req_id", rid, "provider", c.Name(), "model", c.cfg.Model, "num_questions", n)

	schema := llm.BuildQuizJSONSchema(n)
	prompt := llm.BuildUserPrompt(req.Text, n, req.FilenameHint) +
		"\n\nReturn ONLY JSON that matches this JSON Schema:\n" + schemaString(schema)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.log.Error("llm.quiz.generate_error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("%w: vertex generate: %v", common.ErrLLM, err)
	}

	content := responseText(resp)
	if content == "" {
		return nil, fmt.Errorf("%w: empty vertex response", common.ErrLLM)
	}

	qs, lenient, err := llm.ParseQuiz([]byte(content), n, c.log)
	if err != nil {
		c.log.Error("llm.quiz.schema_validation_failed", "req_id", rid, "error", err, "content", content)
		return nil, fmt.Errorf("%w: %v", common.ErrLLM, err)
	}
	if lenient {
		c.log.Warn("llm.quiz.lenient_sanitize_applied", "req_id", rid)
	}
	c.log.Info("llm.quiz.ok", "req_id", rid, "questions", len(qs), "elapsed_ms", time.Since(start).Milliseconds())
	return qs, nil
}

func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}

func schemaString(schema map[string]any) string {
	b, _ := json.Marshal(schema)
	return string(b)
}
