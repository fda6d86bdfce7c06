package desktop

import (
	"github.com/pkg/errors"

	"isoburn/internal/report"
	"isoburn/internal/validate"
)

// Status is what the progress view shows for a run.
type Status struct {
	Fraction float64
	Text     string
	Finished bool
	Err      error
	ExitCode int
}

// Apply folds one event into the status. Confirmation requests are left to
// the caller.
func (s *Status) Apply(e report.Event) {
	switch e.Kind {
	case report.EventStepStarted, report.EventStepFinished, report.EventLog, report.EventComplete:
		s.Text = e.Line()
	case report.EventProgress:
		s.Fraction = e.Percent() / 100
		s.Text = e.Line()
	case report.EventFinished:
		s.Finished = true
		s.Err = e.Err
		s.ExitCode = e.ExitCode
		s.Text = finishedText(e.Err)
		if e.Err == nil {
			s.Fraction = 1
		}
	}
}

func finishedText(err error) string {
	switch {
	case err == nil:
		return "Done! Your install media is ready 🔥"
	case errors.Is(err, validate.ErrDeclined):
		return "Canceled, nothing was written"
	default:
		return "Error: " + err.Error()
	}
}

// ProgressFilter passes progress events only when the whole percentage
// changes, so a multi-gigabyte copy does not flood the main loop.
type ProgressFilter struct {
	last    int
	started bool
}

// Keep reports whether e should reach the UI. Everything except progress is
// kept, as is the final 100%.
func (f *ProgressFilter) Keep(e report.Event) bool {
	if e.Kind != report.EventProgress {
		return true
	}
	pct := int(e.Percent())
	if f.started && pct == f.last && e.Written < e.Total {
		return false
	}
	f.started = true
	f.last = pct
	return true
}
