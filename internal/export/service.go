package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/quizgen/internal/llm"
)

const (
	QuizSheet      = "Quiz"
	AnswerKeySheet = "Answer Key"
)

// Service produces XLSX bytes for quiz exports.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// QuizXLSX returns a workbook with the questions on one sheet and the answer
// key on a second.
func (s *Service) QuizXLSX(ctx context.Context, questions []llm.Question) ([]byte, error) {
	start := time.Now()
	if len(questions) == 0 {
		return nil, errors.New("no questions to export")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_error", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", QuizSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(AnswerKeySheet); err != nil {
		return nil, err
	}
	quizIndex, _ := f.GetSheetIndex(QuizSheet)
	f.SetActiveSheet(quizIndex)

	writeRow(f, QuizSheet, 1, "#", "Question", "Option A", "Option B", "Option C", "Option D", "Answer")
	writeRow(f, AnswerKeySheet, 1, "#", "Letter", "Answer")

	for i, q := range questions {
		row := i + 2
		vals := []any{q.ID, q.Question}
		for j := 0; j < llm.OptionsPerQuestion; j++ {
			opt := ""
			if j < len(q.Options) {
				opt = q.Options[j]
			}
			vals = append(vals, opt)
		}
		vals = append(vals, q.Answer)
		writeRow(f, QuizSheet, row, vals...)
		writeRow(f, AnswerKeySheet, row, q.ID, answerLetter(q), q.Answer)
	}

	// Widen a few columns
	_ = f.SetColWidth(QuizSheet, "A", "A", 5)  // id
	_ = f.SetColWidth(QuizSheet, "B", "B", 60) // question
	_ = f.SetColWidth(QuizSheet, "C", "G", 24) // options + answer
	_ = f.SetColWidth(AnswerKeySheet, "C", "C", 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(questions),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, vals ...any) {
	for i, v := range vals {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

// answerLetter is A-D for the option matching the answer, or "" if none does.
func answerLetter(q llm.Question) string {
	for i, o := range q.Options {
		if o == q.Answer {
			return string(rune('A' + i))
		}
	}
	return ""
}
