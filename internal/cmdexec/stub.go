package cmdexec

import (
	"context"
	"io"
	"strings"
	"sync"
)

// Call records one invocation seen by a Stub.
type Call struct {
	Name  string
	Args  []string
	Stdin []byte
}

// Stub is an in-memory Runner for tests. Respond decides the output per call.
type Stub struct {
	Respond func(call Call) (stdout, stderr []byte, err error)

	mu    sync.Mutex
	calls []Call
}

func (s *Stub) Run(_ context.Context, stdin io.Reader, name string, args ...string) ([]byte, []byte, error) {
	call := Call{Name: name, Args: append([]string(nil), args...)}
	if stdin != nil {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, nil, err
		}
		call.Stdin = b
	}
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
	if s.Respond == nil {
		return nil, nil, nil
	}
	return s.Respond(call)
}

// Calls returns a copy of the recorded invocations.
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo counts invocations of the named binary.
func (s *Stub) CallsTo(name string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Name == name {
			n++
		}
	}
	return n
}

// Joined returns the args of a call joined with spaces.
func (c Call) Joined() string { return strings.Join(c.Args, " ") }
