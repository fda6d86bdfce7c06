package report

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

const clearLine = "\x1b[2K"

// Console prints steps and progress the way a terminal user expects:
// "mounting image...done", a single overwritten percentage line while
// copying, and failure detail on the error stream.
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	errOut   io.Writer
	terminal bool
	// last whole percent printed when out is not a terminal
	lastPercent int
}

func NewConsole(out, errOut io.Writer) *Console {
	terminal := false
	if f, ok := out.(*os.File); ok {
		terminal = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Console{out: out, errOut: errOut, terminal: terminal, lastPercent: -1}
}

func (c *Console) StepStarted(description string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, description+"...")
}

func (c *Console) StepFinished(_ string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		fmt.Fprintln(c.out, "fail")
		fmt.Fprintln(c.errOut, err.Error())
		return
	}
	fmt.Fprintln(c.out, "done")
}

func (c *Console) Logf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, sprintf(format, args...))
}

func (c *Console) Progress(written, total int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminal {
		fmt.Fprint(c.out, progressLine(written, total)+"\r")
		return
	}
	// Pipes and log files get one line per whole percent instead of a
	// carriage-return stream.
	p := int(Percent(written, total))
	if p == c.lastPercent {
		return
	}
	c.lastPercent = p
	fmt.Fprintln(c.out, progressLine(written, total))
}

func (c *Console) Complete(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminal {
		fmt.Fprint(c.out, clearLine)
	}
	fmt.Fprintln(c.out, message)
	c.lastPercent = -1
}

var _ Sink = (*Console)(nil)
