package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Console prints messages to a terminal. None messages clear nothing and
// print nothing.
type Console struct {
	mu sync.Mutex
	W  io.Writer
}

func NewConsole(w io.Writer) *Console { return &Console{W: w} }

func (c *Console) Report(_ context.Context, m Message) {
	if c == nil || c.W == nil || m.Type == None || m.Text == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	switch m.Type {
	case Error:
		fmt.Fprintf(c.W, "error: %s\n", m.Text)
	case Spinner:
		fmt.Fprintf(c.W, "... %s\n", m.Text)
	default:
		fmt.Fprintln(c.W, m.Text)
	}
}

// LogReporter writes messages to a structured logger.
type LogReporter struct {
	Logger *zap.SugaredLogger
}

func (r LogReporter) Report(_ context.Context, m Message) {
	if r.Logger == nil || m.Type == None {
		return
	}
	if m.Type == Error {
		r.Logger.Warnw("status", "type", m.Type, "text", m.Text)
		return
	}
	r.Logger.Debugw("status", "type", m.Type, "text", m.Text)
}
