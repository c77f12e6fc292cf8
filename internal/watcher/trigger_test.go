// File: internal/watcher/trigger_test.go
package watcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/campuscat/seatwatch/internal/notify"
	"github.com/campuscat/seatwatch/internal/portal"
)

func TestDefaultTrigger_OpenSeatsWarnAndAlert(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	alerter := &recordingAlerter{}
	trigger := DefaultTrigger(testTarget(t), alerter)

	trigger([]portal.CourseStatus{
		{ReferenceNumber: "31375", SeatsAvailable: 0},
		{ReferenceNumber: "31376", SeatsAvailable: 2},
	}, logger)

	warns := logs.FilterMessage("Course has open seats!").All()
	require.Len(t, warns, 1)
	assert.Equal(t, zapcore.WarnLevel, warns[0].Level)
	fields := warns[0].ContextMap()
	assert.Equal(t, "CS421", fields["course"])
	assert.Equal(t, map[string]int{"31375": 0, "31376": 2}, fields["seats"])

	assert.Equal(t, []int{notify.DefaultPulses}, alerter.alerts)
}

func TestDefaultTrigger_NoOpenSeatsStaysQuiet(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	alerter := &recordingAlerter{}
	trigger := DefaultTrigger(testTarget(t), alerter)

	trigger([]portal.CourseStatus{
		{ReferenceNumber: "31375", SeatsAvailable: 0},
	}, logger)

	assert.Empty(t, alerter.alerts)
	assert.Empty(t, logs.FilterLevelExact(zapcore.WarnLevel).All())
	assert.Len(t, logs.FilterMessage("No open seats.").All(), 1)
}

func TestDefaultTrigger_EmptyResultsStaysQuiet(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	alerter := &recordingAlerter{}
	DefaultTrigger(testTarget(t), alerter)(nil, zap.New(core))

	assert.Empty(t, alerter.alerts)
	assert.Len(t, logs.FilterMessage("No open seats.").All(), 1)
}
