package fsm

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultLoggerIsSilent(t *testing.T) {
	a := New()
	require.NotNil(t, a.logger)

	a.StartFrom("s").When("e").GoIn("s")
	_, err := a.Fire("e")
	require.NoError(t, err)

	var buf bytes.Buffer
	logged := New(WithLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	logged.StartFrom("s").When("e").GoIn("s")
	_, err = logged.Fire("e")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "msg=Transition")
}
