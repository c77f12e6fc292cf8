// File: internal/watcher/trigger.go
package watcher

import (
	"go.uber.org/zap"

	"github.com/campuscat/seatwatch/internal/notify"
	"github.com/campuscat/seatwatch/internal/portal"
)

// Trigger is the pluggable reaction applied to each successful poll's
// results. A custom trigger replaces the default entirely.
type Trigger func(results []portal.CourseStatus, logger *zap.Logger)

// DefaultTrigger groups results by reference number and, when any section
// has open seats, logs a warning and fires a repeated audible alert;
// otherwise it logs at debug level.
func DefaultTrigger(target portal.CourseTarget, alerter Alerter) Trigger {
	return func(results []portal.CourseStatus, logger *zap.Logger) {
		seats := make(map[string]int, len(results))
		open := false
		for _, cs := range results {
			seats[cs.ReferenceNumber] = cs.SeatsAvailable
			if cs.SeatsAvailable > 0 {
				open = true
			}
		}

		if open {
			logger.Warn("Course has open seats!",
				zap.String("course", target.Course()),
				zap.Any("seats", seats))
			alerter.Alert(notify.DefaultPulses, notify.DefaultSpacing)
			return
		}
		logger.Debug("No open seats.",
			zap.String("course", target.Course()),
			zap.Any("seats", seats))
	}
}
