package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxEventSize is 4KB (conservative default)
	DefaultMaxEventSize = 4096
	// EnvMaxEventSize is the environment variable to override the default
	EnvMaxEventSize = "AUTOMATON_MAX_EVENT_SIZE"
)

var (
	ErrEventTooLarge = errors.New("event exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("event contains invalid UTF-8 sequences")
)

// SanitizeEvent enforces the size limit, validates UTF-8 and strips control
// characters from a raw event label. Oversized input is rejected rather than
// truncated so that a truncated label never matches a real event.
func SanitizeEvent(input string) (string, error) {
	limit := maxEventSize()
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrEventTooLarge, len(input), limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	// Fast path: if no control chars, return as is.
	clean := true
	for _, r := range input {
		if unicode.IsControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func maxEventSize() int {
	if val := os.Getenv(EnvMaxEventSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxEventSize
}
