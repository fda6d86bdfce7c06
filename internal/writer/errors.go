package writer

import (
	"context"

	"github.com/pkg/errors"

	"isoburn/internal/command"
	"isoburn/internal/validate"
)

// ErrBusy is returned when a write is requested while another is running.
var ErrBusy = errors.New("a write is already in progress")

// ExitCode maps the result of a run to a process exit status: 0 for success
// and for a declined confirmation, the tool's own status for tool failures,
// 1 for everything else.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, validate.ErrDeclined) {
		return 0
	}
	var toolErr *command.ToolExecutionError
	if errors.As(err, &toolErr) && toolErr.ExitCode > 0 {
		return toolErr.ExitCode
	}
	return 1
}

// IsToolFailure reports whether err came from an external command.
func IsToolFailure(err error) bool {
	var toolErr *command.ToolExecutionError
	return errors.As(err, &toolErr)
}

func checkCanceled(ctx context.Context, phase string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(err, "canceled before %s", phase)
	}
	return nil
}
