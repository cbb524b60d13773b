package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewLoggerWithWriters(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriters(false, &buf)

	l.Info("portal resolved", zap.String("portal_id", "p1"))
	l.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "portal resolved")
	assert.Contains(t, out, "p1")
	assert.NotContains(t, out, "hidden")
}

func TestNewLoggerWithWriters_Debug(t *testing.T) {
	var a, b bytes.Buffer
	l := NewLoggerWithWriters(true, &a, &b)

	l.Debug("schema upgraded")

	assert.Contains(t, a.String(), "schema upgraded")
	assert.Contains(t, b.String(), "schema upgraded")
}
