package command

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// exitCommandNotFound mirrors what a shell returns for a missing binary.
const exitCommandNotFound = 127

// Command is one external tool invocation. Arguments are passed to the
// process as-is, never through a shell.
type Command struct {
	Name string
	Args []string
}

// New builds a Command from a tool name and its arguments.
func New(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Result is the captured outcome of a finished command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// ToolExecutionError is returned when an external tool exits non-zero or
// cannot be started at all.
type ToolExecutionError struct {
	Command  string
	Stderr   string
	ExitCode int
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("'%s' returned the following error:\n'%s'", e.Command, e.Stderr)
}

// Runner runs external commands. Implementations must not interrupt a command
// once it started; ctx is only consulted before launching.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner runs commands as child processes.
type ExecRunner struct{}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	log.Ctx(ctx).Debug().Str("command", cmd.String()).Msg("running external command")

	// exec.Command rather than CommandContext: a format or mount that has
	// started is allowed to finish.
	c := exec.Command(cmd.Name, cmd.Args...)
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	res := Result{
		Stdout: strings.TrimRight(stdout.String(), "\n"),
		Stderr: strings.TrimRight(stderr.String(), "\n"),
	}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	} else {
		res.ExitCode = exitCommandNotFound
		if res.Stderr == "" {
			res.Stderr = err.Error()
		}
	}

	log.Ctx(ctx).Debug().
		Str("command", cmd.String()).
		Int("exit_code", res.ExitCode).
		Str("stderr", res.Stderr).
		Msg("external command failed")

	return res, &ToolExecutionError{
		Command:  cmd.String(),
		Stderr:   res.Stderr,
		ExitCode: res.ExitCode,
	}
}

// compile-time check that ExecRunner implements Runner
var _ Runner = (*ExecRunner)(nil)
