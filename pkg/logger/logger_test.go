package logger

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestKVEncoderLine(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	Info("bundle resolved",
		zap.String("bundleId", "AUTOMATION_RUN:FIX_MISSING_METADATA"),
		zap.Int("count", 3),
		zap.Bool("missingScope", false),
		zap.Duration("took", 1500*time.Millisecond),
		zap.Float64("ratio", 0.5))

	line := buf.String()
	assert.Contains(t, line, "INFO    bundle resolved  ")
	assert.Contains(t, line, "bundleId=AUTOMATION_RUN:FIX_MISSING_METADATA count=3 missingScope=false took=1.5s ratio=0.5")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestKVEncoderWithContext(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	GetLogger().With(zap.String("channel", "apply_bundle")).Warn("retrying")
	assert.Contains(t, buf.String(), "WARN    retrying  channel=apply_bundle")
}

func TestErrorField(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	Error(errors.New("boom"), zap.String("bundleId", "b1"))
	assert.Contains(t, buf.String(), "error=boom bundleId=b1")
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer func() {
		SetOutput(os.Stdout)
		SetLevel("info")
	}()

	SetLevel("warn")
	Info("hidden")
	assert.Empty(t, buf.String())

	SetLevel("not-a-level")
	Info("still hidden")
	assert.Empty(t, buf.String())

	SetLevel("DEBUG")
	Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}
