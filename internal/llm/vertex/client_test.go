package vertex

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"cloud.google.com/go/vertexai/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/llm"
)

type fakeModel struct {
	resp    *genai.GenerateContentResponse
	err     error
	prompts []string
}

func (f *fakeModel) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	for _, p := range parts {
		if t, ok := p.(genai.Text); ok {
			f.prompts = append(f.prompts, string(t))
		}
	}
	return f.resp, f.err
}

func textResponse(chunks ...string) *genai.GenerateContentResponse {
	parts := make([]genai.Part, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, genai.Text(c))
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func newTestClient(m contentGenerator) *Client {
	return &Client{cfg: Config{Model: "test"}, model: m, log: slog.Default()}
}

func TestGenerate_JoinsParts(t *testing.T) {
	fm := &fakeModel{resp: textResponse(
		`{"questions":[{"id":1,"question":"Q?",`,
		`"options":["a","b","c","d"],"answer":"b"}]}`,
	)}
	c := newTestClient(fm)

	qs, err := c.Generate(context.Background(), llm.GenerateRequest{Text: "doc text", NumQuestions: 1})
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "b", qs[0].Answer)

	require.Len(t, fm.prompts, 1)
	assert.Contains(t, fm.prompts[0], "doc text")
	assert.Contains(t, fm.prompts[0], "JSON Schema")
}

func TestGenerate_Errors(t *testing.T) {
	c := newTestClient(&fakeModel{err: errors.New("quota")})
	_, err := c.Generate(context.Background(), llm.GenerateRequest{Text: "x"})
	assert.ErrorIs(t, err, common.ErrLLM)

	c = newTestClient(&fakeModel{resp: &genai.GenerateContentResponse{}})
	_, err = c.Generate(context.Background(), llm.GenerateRequest{Text: "x"})
	assert.ErrorContains(t, err, "empty vertex response")
}

func TestClose_NilClient(t *testing.T) {
	assert.NoError(t, newTestClient(&fakeModel{}).Close())
	assert.Equal(t, "vertex", newTestClient(&fakeModel{}).Name())
}
