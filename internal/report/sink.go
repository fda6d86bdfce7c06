package report

import "sync"

// Sink receives everything a write run wants to tell the user. The core only
// talks to a Sink; front ends decide how to render it.
type Sink interface {
	// StepStarted announces an external step, e.g. "mounting image".
	StepStarted(description string)
	// StepFinished closes the step opened by StepStarted; err is nil on success.
	StepFinished(description string, err error)
	Logf(format string, args ...interface{})
	// Progress reports the running copy total.
	Progress(written, total int64)
	// Complete replaces the progress display with a final message.
	Complete(message string)
}

// Percent is written/total as a percentage; an empty total counts as done.
func Percent(written, total int64) float64 {
	if total <= 0 {
		return 100
	}
	return float64(written) / float64(total) * 100
}

// Nop discards everything. It backs silent mode.
type Nop struct{}

func (Nop) StepStarted(string) {}
func (Nop) StepFinished(string, error) {}
func (Nop) Logf(string, ...interface{}) {}
func (Nop) Progress(int64, int64) {}
func (Nop) Complete(string) {}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) StepStarted(description string) {
	r.add(Event{Kind: EventStepStarted, Message: description})
}

func (r *Recorder) StepFinished(description string, err error) {
	r.add(Event{Kind: EventStepFinished, Message: description, Err: err})
}

func (r *Recorder) Logf(format string, args ...interface{}) {
	r.add(Event{Kind: EventLog, Message: sprintf(format, args...)})
}

func (r *Recorder) Progress(written, total int64) {
	r.add(Event{Kind: EventProgress, Written: written, Total: total})
}

func (r *Recorder) Complete(message string) {
	r.add(Event{Kind: EventComplete, Message: message})
}

// Events returns a copy of what has been recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

var (
	_ Sink = Nop{}
	_ Sink = (*Recorder)(nil)
)
