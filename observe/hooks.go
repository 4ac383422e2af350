package observe

import (
	"context"

	"github.com/jonwraymond/depshield/resilience"
)

// StateChangeHook returns a function suitable for
// resilience.WithStateChangeHook that logs every breaker transition.
// Transitions into open log at warn level; everything else at info.
func StateChangeHook(logger Logger) func(dependency string, from, to resilience.State) {
	return func(dependency string, from, to resilience.State) {
		// Transitions fire outside any single call; no caller context exists.
		ctx := context.Background()
		fields := []Field{
			{Key: "dep.name", Value: dependency},
			{Key: "from", Value: from.String()},
			{Key: "to", Value: to.String()},
		}

		if to == resilience.StateOpen {
			logger.Warn(ctx, "circuit opened", fields...)
			return
		}
		logger.Info(ctx, "circuit state changed", fields...)
	}
}
