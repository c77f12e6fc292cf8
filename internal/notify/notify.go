// File: internal/notify/notify.go

// Package notify provides the audible alert used when seats open up or the
// watch loop aborts. It rings the terminal bell rather than a platform audio
// API so the alert works over SSH and inside containers.
package notify

import (
	"io"
	"os"
	"time"
)

const (
	// DefaultPulses is the number of bell pulses in a seats-found alert.
	DefaultPulses = 5
	// DefaultSpacing is the gap between pulses.
	DefaultSpacing = 1500 * time.Millisecond
)

// Beeper emits audible terminal-bell pulses. The output writer and sleep
// function are injectable for tests.
type Beeper struct {
	out   io.Writer
	sleep func(time.Duration)
}

// New returns a Beeper ringing the bell on stdout.
func New() *Beeper {
	return &Beeper{out: os.Stdout, sleep: time.Sleep}
}

// NewWithOutput returns a Beeper with an explicit writer and clock.
func NewWithOutput(out io.Writer, sleep func(time.Duration)) *Beeper {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Beeper{out: out, sleep: sleep}
}

// Alert emits pulses bell rings separated by spacing. Blocks until the last
// pulse has been written; the watch loop is deliberately synchronous.
func (b *Beeper) Alert(pulses int, spacing time.Duration) {
	for i := 0; i < pulses; i++ {
		if i > 0 {
			b.sleep(spacing)
		}
		io.WriteString(b.out, "\a")
	}
}

// Beep emits a single bell ring.
func (b *Beeper) Beep() {
	b.Alert(1, 0)
}
