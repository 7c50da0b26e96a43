package log

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCapturedLogger(level logrus.Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	ll := logrus.New()
	ll.SetOutput(&buf)
	ll.SetLevel(level)
	return New(ll, false, nil), &buf
}

func TestLoggerCarriesCategory(t *testing.T) {
	t.Parallel()

	logger, buf := newCapturedLogger(logrus.DebugLevel)
	logger.Debugf("Connection:dispatch", "dropping response for unknown call id %d", 7)

	out := buf.String()
	assert.Contains(t, out, "Connection:dispatch")
	assert.Contains(t, out, "dropping response for unknown call id 7")
	assert.Contains(t, out, "goroutine")
}

func TestLoggerCategoryFilter(t *testing.T) {
	t.Parallel()

	logger, buf := newCapturedLogger(logrus.DebugLevel)
	require.NoError(t, logger.SetCategoryFilter("^Page:"))

	logger.Debugf("Connection:dispatch", "filtered out")
	logger.Debugf("Page:goto", "kept")

	out := buf.String()
	assert.NotContains(t, out, "filtered out")
	assert.Contains(t, out, "kept")
}

func TestLoggerInvalidCategoryFilter(t *testing.T) {
	t.Parallel()

	logger, _ := newCapturedLogger(logrus.DebugLevel)
	assert.Error(t, logger.SetCategoryFilter("["))
}

func TestLoggerLevelGating(t *testing.T) {
	t.Parallel()

	logger, buf := newCapturedLogger(logrus.InfoLevel)
	logger.Debugf("Page:goto", "too detailed")
	assert.Empty(t, buf.String())
	assert.False(t, logger.DebugMode())
}

func TestDebugOverrideBypassesLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ll := logrus.New()
	ll.SetOutput(&buf)
	ll.SetLevel(logrus.InfoLevel)
	logger := New(ll, true, nil)

	logger.Debugf("Page:goto", "forced through")
	assert.Contains(t, buf.String(), "forced through")
	assert.True(t, logger.DebugMode())
}

func TestSetLevel(t *testing.T) {
	t.Parallel()

	logger := NewNullLogger()
	require.NoError(t, logger.SetLevel("debug"))
	assert.True(t, logger.DebugMode())
	assert.Error(t, logger.SetLevel("verbose"))
}
