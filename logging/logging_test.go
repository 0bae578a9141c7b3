package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"":        InfoLevel,
		"warning": WarnLevel,
		"warn":    WarnLevel,
		"error":   ErrorLevel,
		" fatal ": FatalLevel,
	}
	for name, want := range cases {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestDefaultLoggerRoutesByLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := NewDefaultLoggerWithWriters(&out, &errOut)

	logger.Info("peak found", Fields{"bin": 12})
	logger.Warn("threshold rejected")
	logger.Error(errors.New("lock failed"), "source unavailable")

	assert.Contains(t, out.String(), "[INFO] peak found bin=12")
	assert.Contains(t, errOut.String(), "[WARN] threshold rejected")
	assert.Contains(t, errOut.String(), "[ERROR] source unavailable: lock failed")
}

func TestDefaultLoggerLevelIsSharedWithChildren(t *testing.T) {
	var out bytes.Buffer
	logger := NewDefaultLoggerWithWriters(&out, &out)
	child := logger.WithFields(Fields{"component": "peak_detector"})

	logger.SetLevel(WarnLevel)
	child.Info("hidden")
	child.Debug("hidden")
	assert.Empty(t, out.String())

	child.Warn("shown")
	assert.Contains(t, out.String(), "component=peak_detector")
}

func TestFatalUsesExitHook(t *testing.T) {
	var out bytes.Buffer
	logger := NewDefaultLoggerWithWriters(&out, &out)
	code := -1
	logger.exit = func(c int) { code = c }

	logger.Fatal(errors.New("boom"), "giving up")
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "[FATAL] giving up: boom")
}

func TestContextFields(t *testing.T) {
	ctx := ContextWithFields(context.Background(), Fields{"cursor": 10})
	ctx = ContextWithFields(ctx, Fields{"point": 2})

	fields := FieldsFromContext(ctx)
	assert.Equal(t, Fields{"cursor": 10, "point": 2}, fields)

	var out bytes.Buffer
	logger := NewDefaultLoggerWithWriters(&out, &out)
	logger.WithContext(ctx).Info("analyzing")
	assert.Contains(t, out.String(), "cursor=10 point=2")

	assert.Nil(t, FieldsFromContext(context.Background()))
}

func TestSetGlobalLoggerNil(t *testing.T) {
	previous := GetGlobalLogger()
	defer SetGlobalLogger(previous)

	SetGlobalLogger(nil)
	_, ok := GetGlobalLogger().(*NoOpLogger)
	assert.True(t, ok)
}
