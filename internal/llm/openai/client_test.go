package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/llm"
)

func chatResponse(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
}

func newTestServer(t *testing.T, status int, resp any, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerate_OK(t *testing.T) {
	content := `{"questions":[{"id":1,"question":"What is Go?","options":["A language","A game","A verb","A car"],"answer":"A language"}]}`
	var seen map[string]any
	srv := newTestServer(t, http.StatusOK, chatResponse(content), &seen)

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "test-model"}, nil)
	qs, err := c.Generate(context.Background(), llm.GenerateRequest{Text: "Go is a language.", NumQuestions: 1})
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "A language", qs[0].Answer)

	assert.Equal(t, "test-model", seen["model"])
	rf := seen["response_format"].(map[string]any)
	assert.Equal(t, "json_object", rf["type"])
}

func TestGenerate_LenientRepair(t *testing.T) {
	content := `{"quiz":[{"question":"Q?","choices":["a","b","c","d"],"correct_answer":"D"}]}`
	srv := newTestServer(t, http.StatusOK, chatResponse(content), nil)

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, nil)
	qs, err := c.Generate(context.Background(), llm.GenerateRequest{Text: "x", NumQuestions: 3})
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "d", qs[0].Answer)
	assert.Equal(t, 1, qs[0].ID)
}

func TestGenerate_ProviderError(t *testing.T) {
	srv := newTestServer(t, http.StatusTooManyRequests, map[string]any{"error": "slow down"}, nil)

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, nil)
	_, err := c.Generate(context.Background(), llm.GenerateRequest{Text: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrLLM)

	var se *llm.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.Status)
}

func TestGenerate_NoChoices(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, map[string]any{"choices": []any{}}, nil)

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, nil)
	_, err := c.Generate(context.Background(), llm.GenerateRequest{Text: "x"})
	assert.ErrorIs(t, err, common.ErrLLM)
	assert.ErrorContains(t, err, "no choices")
}

func TestGenerate_InvalidContent(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, chatResponse(`{"questions":"none"}`), nil)

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, nil)
	_, err := c.Generate(context.Background(), llm.GenerateRequest{Text: "x"})
	assert.ErrorIs(t, err, common.ErrLLM)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{APIKey: "k", RequestsPerMinute: 60}, nil)
	assert.Equal(t, "https://api.openai.com/v1", c.cfg.BaseURL)
	assert.Equal(t, "gpt-4o-mini", c.cfg.Model)
	assert.NotNil(t, c.limiter)
	assert.Equal(t, "openai", c.Name())

	assert.Nil(t, NewClient(Config{APIKey: "k"}, nil).limiter)
}
