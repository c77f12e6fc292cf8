// File: internal/notify/notify_test.go
package notify

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAlert_WritesOneBellPerPulse(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var slept []time.Duration
	b := NewWithOutput(&buf, func(d time.Duration) { slept = append(slept, d) })

	b.Alert(3, 250*time.Millisecond)

	assert.Equal(t, strings.Repeat("\a", 3), buf.String())
	// Spacing separates pulses, so n pulses need n-1 sleeps.
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 250 * time.Millisecond}, slept)
}

func TestAlert_ZeroPulsesIsSilent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	b := NewWithOutput(&buf, func(time.Duration) {})
	b.Alert(0, time.Second)

	assert.Empty(t, buf.String())
}

func TestBeep_SinglePulseNoSleep(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	slept := 0
	b := NewWithOutput(&buf, func(time.Duration) { slept++ })
	b.Beep()

	assert.Equal(t, "\a", buf.String())
	assert.Zero(t, slept)
}
