package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"isoburn/internal/report"
)

// Prompter asks the user a yes/no question.
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

const reprompt = "Unrecognized choice. Please type 'yes' to continue or 'no' to exit. [yes/No]"

// Console asks on a terminal. Only "yes" and "no" (any case) are accepted;
// end of input counts as "no".
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

func (c *Console) Confirm(ctx context.Context, question string) (bool, error) {
	fmt.Fprint(c.out, question+" [yes/No] ")
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		line, err := c.in.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "yes":
			return true, nil
		case "no":
			return false, nil
		}
		if err == io.EOF {
			fmt.Fprintln(c.out)
			return false, nil
		}
		if err != nil {
			return false, err
		}
		fmt.Fprint(c.out, reprompt+" ")
	}
}

// Channel asks a front end by sending an EventConfirm and waiting for the
// reply.
type Channel struct {
	sink *report.Channel
}

func NewChannel(sink *report.Channel) *Channel {
	return &Channel{sink: sink}
}

func (c *Channel) Confirm(ctx context.Context, question string) (bool, error) {
	reply := make(chan bool, 1)
	if !c.sink.Send(report.Event{Kind: report.EventConfirm, Message: question, Reply: reply}) {
		return false, context.Canceled
	}
	select {
	case answer := <-reply:
		return answer, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Static always gives the same answer, for unattended runs.
type Static bool

func (s Static) Confirm(context.Context, string) (bool, error) {
	return bool(s), nil
}

var (
	_ Prompter = (*Console)(nil)
	_ Prompter = (*Channel)(nil)
	_ Prompter = Static(false)
)
