package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/llm"
)

// Config for the OpenAI client.
type Config struct {
	APIKey            string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL           string        // default https://api.openai.com/v1
	Model             string        // e.g., "gpt-4o-mini"
	Temperature       float32       // 0..2
	Timeout           time.Duration // http client timeout
	RequestsPerMinute int           // 0 disables client-side throttling
}

// Client generates quiz questions through the chat/completions endpoint.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger,
	}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return c
}

func (c *Client) Name() string { return "openai" }

// Generate implements llm.QuestionGenerator.
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) ([]llm.Question, error) {
	rid := uuid.New().String()
	start := time.Now()
	n := req.NumQuestions
	if n <= 0 {
		n = llm.DefaultNumQuestions
	}

	c.log.Info("llm.quiz.start",
		"req_id", rid,
		"provider", c.Name(),
		"model", c.cfg.Model,
		"text_len", len(req.Text),
		"num_questions", n,
	)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limit wait: %v", common.ErrLLM, err)
		}
	}

	schema := llm.BuildQuizJSONSchema(n)
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt()},
			{"role": "user", "content": llm.BuildUserPrompt(req.Text, n, req.FilenameHint) + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.log)
	if err != nil {
		c.log.Error("llm.quiz.http_error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("%w: %w", common.ErrLLM, err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.quiz.decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return nil, fmt.Errorf("%w: decode openai response: %v", common.ErrLLM, err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.quiz.no_choices", "req_id", rid, "raw", string(raw))
		return nil, fmt.Errorf("%w: no choices in openai response", common.ErrLLM)
	}

	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))
	qs, lenient, err := llm.ParseQuiz(content, n, c.log)
	if err != nil {
		c.log.Error("llm.quiz.schema_validation_failed",
			"req_id", rid, "error", err, "content", string(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("%w: %v", common.ErrLLM, err)
	}
	if lenient {
		c.log.Warn("llm.quiz.lenient_sanitize_applied", "req_id", rid)
	}

	c.log.Info("llm.quiz.ok",
		"req_id", rid,
		"questions", len(qs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return qs, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
