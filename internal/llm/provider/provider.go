// Package provider selects the QuestionGenerator configured for the process.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/quizgen/constants"
	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/llm"
	"github.com/joseph-ayodele/quizgen/internal/llm/openai"
	"github.com/joseph-ayodele/quizgen/internal/llm/vertex"
)

// New builds the generator named by cfg.Provider. The returned close func is
// never nil.
func New(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.QuestionGenerator, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Provider {
	case "", constants.LLMProviderMock:
		return llm.NewStaticGenerator(), noop, nil
	case constants.LLMProviderOpenAI:
		return openai.NewClient(openai.Config{
			APIKey:            cfg.APIKey,
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			Temperature:       cfg.Temperature,
			Timeout:           cfg.Timeout,
			RequestsPerMinute: cfg.RequestsPerMinute,
		}, logger), noop, nil
	case constants.LLMProviderVertex:
		model := cfg.Model
		if strings.HasPrefix(model, "gpt-") {
			// the shared default names an OpenAI model
			model = ""
		}
		c, err := vertex.NewClient(ctx, vertex.Config{
			ProjectID:   cfg.VertexProject,
			Region:      cfg.VertexRegion,
			Model:       model,
			Temperature: cfg.Temperature,
		}, logger)
		if err != nil {
			return nil, noop, err
		}
		return c, c.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
