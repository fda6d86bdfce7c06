package writer

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"isoburn/internal/prompt"
	"isoburn/internal/report"
)

// DefaultEventBuffer bounds the channel between a run and its front end.
const DefaultEventBuffer = 64

// Worker runs writes in the background for interactive front ends. It owns
// the at-most-one-run rule: Start fails with ErrBusy while a run is active.
type Worker struct {
	deps    Deps
	buffer  int
	running atomic.Bool
}

// NewWorker returns a Worker building each run from deps. Sink and Prompter
// in deps are replaced by the event channel.
func NewWorker(deps Deps, buffer int) *Worker {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	return &Worker{deps: deps, buffer: buffer}
}

// Running reports whether a write is in progress.
func (w *Worker) Running() bool {
	return w.running.Load()
}

// Start launches req on a new goroutine. The returned channel carries the
// run's events, ends with exactly one EventFinished and is then closed.
// Confirmation requests arrive as EventConfirm and block the run until
// answered or ctx is canceled.
func (w *Worker) Start(ctx context.Context, req Request) (<-chan report.Event, error) {
	if !w.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	events := make(chan report.Event, w.buffer)
	sink := report.NewChannel(events, ctx.Done())

	d := w.deps
	d.Sink = sink
	d.Prompter = prompt.NewChannel(sink)
	mw := New(d)

	go func() {
		defer close(events)

		err := mw.Run(ctx, req)
		if err != nil {
			log.Ctx(ctx).Debug().Err(err).Msg("write finished with error")
		}
		// released before the final event so a front end reacting to it can
		// start the next write straight away
		w.running.Store(false)

		final := report.Event{Kind: report.EventFinished, Err: err, ExitCode: ExitCode(err)}
		select {
		case events <- final:
		case <-ctx.Done():
			select {
			case events <- final:
			default:
			}
		}
	}()
	return events, nil
}
