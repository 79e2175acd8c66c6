package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/quizgen/internal/llm"
)

func TestQuizXLSX(t *testing.T) {
	qs, err := llm.NewStaticGenerator().Generate(context.Background(), llm.GenerateRequest{NumQuestions: 4})
	require.NoError(t, err)

	b, err := NewService(nil).QuizXLSX(context.Background(), qs)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{QuizSheet, AnswerKeySheet}, f.GetSheetList())

	rows, err := f.GetRows(QuizSheet)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"#", "Question", "Option A", "Option B", "Option C", "Option D", "Answer"}, rows[0])
	assert.Equal(t, "What is the primary purpose of the document?", rows[1][1])
	assert.Equal(t, "To inform", rows[1][6])

	key, err := f.GetRows(AnswerKeySheet)
	require.NoError(t, err)
	require.Len(t, key, 5)
	assert.Equal(t, []string{"1", "A", "To inform"}, key[1])
}

func TestQuizXLSX_Empty(t *testing.T) {
	_, err := NewService(nil).QuizXLSX(context.Background(), nil)
	assert.Error(t, err)
}

func TestAnswerLetter(t *testing.T) {
	q := llm.Question{Options: []string{"a", "b", "c", "d"}, Answer: "d"}
	assert.Equal(t, "D", answerLetter(q))
	q.Answer = "z"
	assert.Equal(t, "", answerLetter(q))
}
