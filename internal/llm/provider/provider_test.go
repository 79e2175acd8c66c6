package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/quizgen/internal/common"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	g, closeFn, err := New(ctx, common.LLMConfig{Provider: "mock"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", g.Name())
	assert.NoError(t, closeFn())

	g, _, err = New(ctx, common.LLMConfig{Provider: "openai", APIKey: "k"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", g.Name())

	_, closeFn, err = New(ctx, common.LLMConfig{Provider: "bard"}, nil)
	assert.ErrorContains(t, err, "unknown llm provider")
	assert.NotNil(t, closeFn)

	_, _, err = New(ctx, common.LLMConfig{Provider: "vertex"}, nil)
	assert.ErrorContains(t, err, "project id is required")
}
