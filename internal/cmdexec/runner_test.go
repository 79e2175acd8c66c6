package cmdexec

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunner_Stdin(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	out, _, err := New(nil).Run(context.Background(), strings.NewReader("hello"), "cat")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))
}

func TestExecRunner_MissingBinary(t *testing.T) {
	_, _, err := New(nil).Run(context.Background(), nil, "definitely-not-a-real-binary-quizgen")
	assert.Error(t, err)
}

func TestStub(t *testing.T) {
	s := &Stub{Respond: func(c Call) ([]byte, []byte, error) {
		if c.Name == "bad" {
			return nil, []byte("nope"), errors.New("exit 1")
		}
		return []byte(c.Joined()), nil, nil
	}}

	out, _, err := s.Run(context.Background(), strings.NewReader("in"), "tool", "-a", "b")
	require.NoError(t, err)
	assert.Equal(t, "-a b", string(out))

	_, errb, err := s.Run(context.Background(), nil, "bad")
	assert.Error(t, err)
	assert.Equal(t, "nope", string(errb))

	calls := s.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []byte("in"), calls[0].Stdin)
	assert.Equal(t, 1, s.CallsTo("tool"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab...(truncated)", Truncate("abcdef", 2))
}
