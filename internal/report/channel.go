package report

// Channel forwards events to a front end over a bounded channel. Sends block
// while the buffer is full, except progress updates which are dropped: the
// next one supersedes them anyway. Once done is closed every send is
// abandoned so a vanished reader cannot wedge the worker.
type Channel struct {
	events chan<- Event
	done   <-chan struct{}
}

func NewChannel(events chan<- Event, done <-chan struct{}) *Channel {
	return &Channel{events: events, done: done}
}

// Send delivers e, giving up when done is closed.
func (c *Channel) Send(e Event) bool {
	select {
	case c.events <- e:
		return true
	case <-c.done:
		return false
	}
}

func (c *Channel) StepStarted(description string) {
	c.Send(Event{Kind: EventStepStarted, Message: description})
}

func (c *Channel) StepFinished(description string, err error) {
	c.Send(Event{Kind: EventStepFinished, Message: description, Err: err})
}

func (c *Channel) Logf(format string, args ...interface{}) {
	c.Send(Event{Kind: EventLog, Message: sprintf(format, args...)})
}

func (c *Channel) Progress(written, total int64) {
	e := Event{Kind: EventProgress, Written: written, Total: total}
	if written >= total {
		c.Send(e)
		return
	}
	select {
	case c.events <- e:
	default:
	}
}

func (c *Channel) Complete(message string) {
	c.Send(Event{Kind: EventComplete, Message: message})
}

var _ Sink = (*Channel)(nil)
