package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/multiverse-fugitive/internal/config"
)

func TestSetup_Production(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	l := Setup(&config.Config{Environment: "production", LogLevel: slog.LevelInfo}, &buf)
	l.Debug("hidden")
	l.Info("shown", "k", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "shown", rec["msg"])
}

func TestSetup_Development(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	Setup(&config.Config{Environment: "development", LogLevel: slog.LevelDebug}, &buf)
	slog.Debug("via default")
	assert.Contains(t, buf.String(), "msg=\"via default\"")
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))

	LogError(l, "plain failed", errors.New("boom"))
	assert.Contains(t, buf.String(), "error=boom")

	buf.Reset()
	err := oops.Code("NO_CHARGES").With("universe", "mcu").Errorf("key is spent")
	LogError(l, "enter failed", err)
	out := buf.String()
	assert.Contains(t, out, "code=NO_CHARGES")
	assert.Contains(t, out, "mcu")
}

func TestWithHelpers(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))
	WithError(WithSession(l, "abc"), errors.New("bad")).Info("x")
	assert.Contains(t, buf.String(), "session_id=abc")
	assert.Contains(t, buf.String(), "error=bad")
}
