// Package commandtest provides a scriptable command.Runner for tests.
package commandtest

import (
	"context"
	"sync"

	"isoburn/internal/command"
)

// Handler produces the result for one command. Returning a non-zero ExitCode
// makes the runner fail with a ToolExecutionError.
type Handler func(cmd command.Command) command.Result

// Runner records every command and answers from per-tool handlers. Tools
// without a handler succeed with empty output.
type Runner struct {
	mu       sync.Mutex
	handlers map[string]Handler
	calls    []command.Command
}

func NewRunner() *Runner {
	return &Runner{handlers: make(map[string]Handler)}
}

// Handle registers the handler used for every invocation of tool name.
func (r *Runner) Handle(name string, h Handler) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
	return r
}

// Stdout makes tool name succeed with the given output.
func (r *Runner) Stdout(name, out string) *Runner {
	return r.Handle(name, func(command.Command) command.Result {
		return command.Result{Stdout: out}
	})
}

// Fail makes tool name exit with code and stderr.
func (r *Runner) Fail(name string, code int, stderr string) *Runner {
	return r.Handle(name, func(command.Command) command.Result {
		return command.Result{ExitCode: code, Stderr: stderr}
	})
}

func (r *Runner) Run(ctx context.Context, cmd command.Command) (command.Result, error) {
	if err := ctx.Err(); err != nil {
		return command.Result{}, err
	}

	r.mu.Lock()
	r.calls = append(r.calls, cmd)
	h, ok := r.handlers[cmd.Name]
	r.mu.Unlock()

	if !ok {
		return command.Result{}, nil
	}
	res := h(cmd)
	if res.ExitCode != 0 {
		return res, &command.ToolExecutionError{
			Command:  cmd.String(),
			Stderr:   res.Stderr,
			ExitCode: res.ExitCode,
		}
	}
	return res, nil
}

// Calls returns the rendered command lines in invocation order.
func (r *Runner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c.String())
	}
	return out
}

// Called reports how many times tool name was invoked.
func (r *Runner) Called(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Name == name {
			n++
		}
	}
	return n
}

var _ command.Runner = (*Runner)(nil)
