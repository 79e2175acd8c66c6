package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/quizgen/internal/core"
	"github.com/joseph-ayodele/quizgen/internal/export"
	"github.com/joseph-ayodele/quizgen/internal/llm"
	"github.com/joseph-ayodele/quizgen/internal/llm/provider"
)

var (
	quizCount int
	quizXLSX  string
)

var quizCmd = &cobra.Command{
	Use:   "quiz <file.pdf>",
	Short: "Generate multiple-choice questions from a PDF",
	Long: `Extracts the PDF and asks the configured generator (LLM_PROVIDER) for a
quiz. The mock provider returns a fixed set of questions.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuiz,
}

func init() {
	quizCmd.Flags().IntVarP(&quizCount, "num", "n", llm.DefaultNumQuestions, "number of questions")
	quizCmd.Flags().StringVar(&quizXLSX, "xlsx", "", "also write the quiz to this .xlsx file")
	rootCmd.AddCommand(quizCmd)
}

func runQuiz(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
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

	res, err := extractor.Run(ctx, args[0])
	if err != nil {
		return err
	}
	proc := core.NewProcessor(logger, extractor, generator, nil)
	questions, err := proc.GenerateQuiz(ctx, res.FullText, quizCount, res.Filename)
	if err != nil {
		return err
	}

	if quizXLSX != "" {
		data, err := export.NewService(logger).QuizXLSX(ctx, questions)
		if err != nil {
			return err
		}
		if err := os.WriteFile(quizXLSX, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", quizXLSX, err)
		}
		cmd.PrintErrf("wrote %s\n", quizXLSX)
	}
	return writeJSON(cmd.OutOrStdout(), map[string]any{"questions": questions})
}
