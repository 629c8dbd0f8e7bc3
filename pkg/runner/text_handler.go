package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// TextHandler reads one event per line and prints a line per step.
type TextHandler struct {
	Reader *bufio.Reader
	Writer io.Writer

	// Interactive shows a prompt before every read. NewTextHandler enables
	// it when the source is a terminal.
	Interactive bool

	lines     chan lineResult
	startOnce sync.Once
}

type lineResult struct {
	text string
	err  error
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &TextHandler{
		Reader:      bufio.NewReader(r),
		Writer:      w,
		Interactive: isTerminal(r),
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// pump moves blocking reads off the caller's goroutine so Input can honor
// context cancellation.
func pump(r *bufio.Reader, out chan<- lineResult) {
	for {
		text, err := r.ReadString('\n')
		if text != "" {
			out <- lineResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				out <- lineResult{err: err}
			}
			close(out)
			return
		}
	}
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.lines = make(chan lineResult)
		go pump(h.Reader, h.lines)
	})
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	if h.Interactive {
		fmt.Fprint(h.Writer, "> ")
	}
	return nextLine(ctx, h.lines)
}

func nextLine(ctx context.Context, lines <-chan lineResult) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-lines:
		if !ok {
			return "", io.EOF
		}
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimSpace(res.text), nil
	}
}

func (h *TextHandler) Output(ctx context.Context, step Step) error {
	if step.Error != "" {
		_, err := fmt.Fprintf(h.Writer, "! %s\n", step.Error)
		return err
	}
	line := fmt.Sprintf("%s --%s--> %s", step.From, step.Event, step.State)
	if step.Action != "" {
		line += " [" + step.Action + "]"
	}
	_, err := fmt.Fprintln(h.Writer, line)
	return err
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "[System] %s\n", msg)
	return err
}
