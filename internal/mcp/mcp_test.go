package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/quizgen/internal/llm"
	"github.com/joseph-ayodele/quizgen/internal/pipeline"
)

type fakeExtractor struct {
	calls int
}

func (f *fakeExtractor) Run(_ context.Context, path string, opts ...pipeline.RunOption) (*pipeline.Result, error) {
	f.calls++
	if filepath.Ext(path) != ".pdf" {
		return nil, errors.New("not a pdf")
	}
	return pipeline.Assemble(pipeline.ReportedFilename(path, opts...), []pipeline.PageResult{
		{PageIndex: 0, Method: pipeline.MethodDigital, Text: "Hello World"},
		{PageIndex: 1, Method: pipeline.MethodEmpty},
	}), nil
}

type staticQuiz struct {
	lastText string
}

func (s *staticQuiz) GenerateQuiz(ctx context.Context, text string, n int, _ string) ([]llm.Question, error) {
	s.lastText = text
	return llm.NewStaticGenerator().Generate(ctx, llm.GenerateRequest{Text: text, NumQuestions: n})
}

func session(t *testing.T, ex *fakeExtractor, quiz *staticQuiz) *mcp.ClientSession {
	t.Helper()
	srv, err := NewServer(ex, quiz, nil)
	require.NoError(t, err)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.MCP().Run(ctx, serverT) }()

	client := mcp.NewClient(&mcp.Implementation{Name: "quizgen-test", Version: "0.1.0"}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func callTool(t *testing.T, cs *mcp.ClientSession, name string, args any) *mcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return res
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestNewServer_RequiresDeps(t *testing.T) {
	_, err := NewServer(nil, &staticQuiz{}, nil)
	assert.Error(t, err)
	_, err = NewServer(&fakeExtractor{}, nil, nil)
	assert.Error(t, err)
}

func TestTools_Listed(t *testing.T) {
	cs := session(t, &fakeExtractor{}, &staticQuiz{})
	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"extract_pdf", "generate_quiz"}, names)
}

func TestExtractPDF(t *testing.T) {
	cs := session(t, &fakeExtractor{}, &staticQuiz{})

	res := callTool(t, cs, "extract_pdf", map[string]any{"path": "/docs/notes.pdf"})
	require.False(t, res.IsError)

	var out ExtractOutput
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &out))
	assert.Equal(t, "notes.pdf", out.Filename)
	assert.Equal(t, "Hello World", out.FullText)
	assert.Equal(t, 2, out.PageCount)
	assert.Equal(t, 1, out.EmptyPages)
	assert.Len(t, out.Pages, 2)

	res = callTool(t, cs, "extract_pdf", map[string]any{"path": "/docs/notes.pdf", "text_only": true})
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &out))
	assert.Empty(t, out.Pages)
}

func TestExtractPDF_Errors(t *testing.T) {
	cs := session(t, &fakeExtractor{}, &staticQuiz{})

	res := callTool(t, cs, "extract_pdf", map[string]any{"path": "/docs/notes.txt"})
	assert.True(t, res.IsError)

	// a missing required argument may be rejected before the handler runs
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "extract_pdf", Arguments: map[string]any{}})
	assert.True(t, err != nil || res.IsError)
}

func TestGenerateQuiz(t *testing.T) {
	ex := &fakeExtractor{}
	quiz := &staticQuiz{}
	cs := session(t, ex, quiz)

	res := callTool(t, cs, "generate_quiz", map[string]any{"text": "Some text", "num_questions": 2})
	require.False(t, res.IsError)
	var out QuizOutput
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &out))
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, 0, ex.calls)

	res = callTool(t, cs, "generate_quiz", map[string]any{"path": "/docs/notes.pdf"})
	require.False(t, res.IsError)
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &out))
	assert.Equal(t, 4, out.Count)
	assert.Equal(t, 1, ex.calls)
	assert.Equal(t, "Hello World", quiz.lastText)

	res = callTool(t, cs, "generate_quiz", map[string]any{})
	assert.True(t, res.IsError)
}
