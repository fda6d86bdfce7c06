package report

import (
	"fmt"
	"strings"
)

type EventKind int

const (
	EventStepStarted EventKind = iota
	EventStepFinished
	EventLog
	EventProgress
	EventComplete
	// EventConfirm asks the front end a yes/no question; the answer goes to Reply.
	EventConfirm
	// EventFinished is the last event of a run.
	EventFinished
)

func (k EventKind) String() string {
	switch k {
	case EventStepStarted:
		return "step-started"
	case EventStepFinished:
		return "step-finished"
	case EventLog:
		return "log"
	case EventProgress:
		return "progress"
	case EventComplete:
		return "complete"
	case EventConfirm:
		return "confirm"
	case EventFinished:
		return "finished"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one unit of output from a write run.
type Event struct {
	Kind    EventKind
	Message string
	Err     error
	Written int64
	Total   int64
	// ExitCode is set on EventFinished.
	ExitCode int
	Reply    chan<- bool
}

// Percent of an EventProgress.
func (e Event) Percent() float64 {
	return Percent(e.Written, e.Total)
}

// Line renders the event as the console would print it, without the
// carriage-return tricks.
func (e Event) Line() string {
	switch e.Kind {
	case EventStepStarted:
		return e.Message + "..."
	case EventStepFinished:
		if e.Err != nil {
			return e.Message + "...fail"
		}
		return e.Message + "...done"
	case EventProgress:
		return progressLine(e.Written, e.Total)
	case EventFinished:
		if e.Err != nil {
			return "Error: " + e.Err.Error()
		}
		return ""
	default:
		return e.Message
	}
}

func progressLine(written, total int64) string {
	return fmt.Sprintf("copying image... %.2f%%", Percent(written, total))
}

func sprintf(format string, args ...interface{}) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
