package utils

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestTimer(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	d := NewTimer("fast", log).Stop()
	assert.GreaterOrEqual(t, d, time.Duration(0))
	assert.Contains(t, buf.String(), `"operation":"fast"`)
	assert.NotContains(t, buf.String(), "Slow operation")

	buf.Reset()
	timer := NewTimer("slow", log).WithSlowThreshold(time.Nanosecond)
	time.Sleep(time.Millisecond)
	timer.Stop()
	assert.Contains(t, buf.String(), "Slow operation detected")
}

func TestOperationTimer(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	func() {
		defer OperationTimer("deferred", log)()
	}()
	assert.Contains(t, buf.String(), `"operation":"deferred"`)
}
