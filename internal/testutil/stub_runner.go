package testutil

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/zpdzap/spinoff/internal/execx"
)

// HandlerFunc scripts a response for a command. It may block on ctx.
type HandlerFunc func(ctx context.Context, cmd execx.Cmd) (string, error)

// StubRunner is an execx.Runner that answers from scripted responses keyed by
// the full command line ("git rev-parse --show-toplevel") and records every call.
type StubRunner struct {
	mu       sync.Mutex
	stubs    map[string][]HandlerFunc
	defaults map[string]HandlerFunc
	prefixes []prefixHandler
	calls    []execx.Cmd
}

type prefixHandler struct {
	prefix string
	fn     HandlerFunc
}

func NewStubRunner() *StubRunner {
	return &StubRunner{
		stubs:    make(map[string][]HandlerFunc),
		defaults: make(map[string]HandlerFunc),
	}
}

func respond(out string, err error) HandlerFunc {
	return func(context.Context, execx.Cmd) (string, error) { return out, err }
}

// Stub queues a one-shot response for the command line.
func (s *StubRunner) Stub(cmdline string, out string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubs[cmdline] = append(s.stubs[cmdline], respond(out, err))
}

// StubDefault sets the response used once queued stubs are exhausted.
func (s *StubRunner) StubDefault(cmdline string, out string, err error) {
	s.Handle(cmdline, respond(out, err))
}

// Handle sets a handler used for every call of the command line.
func (s *StubRunner) Handle(cmdline string, fn HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults[cmdline] = fn
}

// HandlePrefix sets a handler for any command line starting with prefix.
// Exact stubs win over prefix handlers.
func (s *StubRunner) HandlePrefix(prefix string, fn HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefixes = append(s.prefixes, prefixHandler{prefix: prefix, fn: fn})
}

func (s *StubRunner) resolve(cmd execx.Cmd) (HandlerFunc, error) {
	key := cmd.String()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, cmd)

	if queue := s.stubs[key]; len(queue) > 0 {
		s.stubs[key] = queue[1:]
		return queue[0], nil
	}
	if fn, ok := s.defaults[key]; ok {
		return fn, nil
	}
	for _, p := range s.prefixes {
		if strings.HasPrefix(key, p.prefix) {
			return p.fn, nil
		}
	}
	return nil, fmt.Errorf("unexpected call: %s", key)
}

func (s *StubRunner) Run(ctx context.Context, cmd execx.Cmd) error {
	fn, err := s.resolve(cmd)
	if err != nil {
		return err
	}
	out, err := fn(ctx, cmd)
	if out != "" && cmd.Stdout != nil {
		_, _ = io.WriteString(cmd.Stdout, out)
	}
	return err
}

func (s *StubRunner) Output(ctx context.Context, cmd execx.Cmd) (string, error) {
	fn, err := s.resolve(cmd)
	if err != nil {
		return "", err
	}
	return fn(ctx, cmd)
}

// Calls returns the command lines seen so far, in order.
func (s *StubRunner) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.String()
	}
	return out
}

// CallsFor counts calls of the exact command line.
func (s *StubRunner) CallsFor(cmdline string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, c := range s.calls {
		if c.String() == cmdline {
			count++
		}
	}
	return count
}

// LastCall returns the most recent call whose command line starts with prefix.
func (s *StubRunner) LastCall(prefix string) (execx.Cmd, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.calls) - 1; i >= 0; i-- {
		if strings.HasPrefix(s.calls[i].String(), prefix) {
			return s.calls[i], true
		}
	}
	return execx.Cmd{}, false
}
