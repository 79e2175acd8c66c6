package main

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/quizgen/internal/core"
	"github.com/joseph-ayodele/quizgen/internal/llm/provider"
	"github.com/joseph-ayodele/quizgen/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve extract_pdf and generate_quiz over MCP (stdio)",
	Long: `Starts a Model Context Protocol server on stdin/stdout.

Example client configuration:
  {
    "mcpServers": {
      "quizgen": {
        "command": "/path/to/pdfextract",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// stdout carries the protocol; logs go to stderr
	logger := newLogger(cmd)

	extractor, closeFn, err := buildExtractor(cfg.Extraction, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	generator, closeLLM, err := provider.New(ctx, cfg.LLM, logger)
	if err != nil {
		return err
	}
	defer closeLLM()

	srv, err := mcp.NewServer(extractor, core.NewProcessor(logger, extractor, generator, nil), logger)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
