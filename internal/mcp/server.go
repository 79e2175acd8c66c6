// Package mcp exposes extraction and quiz generation as MCP tools.
package mcp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/joseph-ayodele/quizgen/internal/llm"
	"github.com/joseph-ayodele/quizgen/internal/pipeline"
)

// Version is the MCP server version.
const Version = "0.1.0"

// QuizGenerator is satisfied by *core.Processor.
type QuizGenerator interface {
	GenerateQuiz(ctx context.Context, text string, n int, filename string) ([]llm.Question, error)
}

type Server struct {
	extractor pipeline.Extractor
	quiz      QuizGenerator
	server    *mcp.Server
	logger    *slog.Logger
}

func NewServer(extractor pipeline.Extractor, quiz QuizGenerator, logger *slog.Logger) (*Server, error) {
	if extractor == nil {
		return nil, errors.New("extractor is required")
	}
	if quiz == nil {
		return nil, errors.New("quiz generator is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		extractor: extractor,
		quiz:      quiz,
		server:    mcp.NewServer(&mcp.Implementation{Name: "quizgen", Version: Version}, nil),
		logger:    logger,
	}
	s.registerTools()
	return s, nil
}

// MCP returns the underlying server, for callers that pick their own transport.
func (s *Server) MCP() *mcp.Server { return s.server }

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
