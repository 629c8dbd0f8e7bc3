package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
)

// JSONHandler implements IOHandler for JSON Lines. Each input line is either
// an object {"event": "..."}, a JSON string or raw text; each step is emitted
// as one JSON object.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder

	lines     chan lineResult
	startOnce sync.Once
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

type eventMessage struct {
	Event string `json:"event"`
}

func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	h.startOnce.Do(func() {
		h.lines = make(chan lineResult)
		go pump(h.Reader, h.lines)
	})

	text, err := nextLine(ctx, h.lines)
	if err != nil {
		return "", err
	}

	if strings.HasPrefix(text, "{") {
		var msg eventMessage
		if err := json.Unmarshal([]byte(text), &msg); err == nil {
			return msg.Event, nil
		}
	}

	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		return val, nil
	}

	// Fallback: plain text
	return text, nil
}

func (h *JSONHandler) Output(ctx context.Context, step Step) error {
	return h.Encoder.Encode(step)
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(map[string]string{"system": msg})
}
