package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/depshield/resilience"
)

// RegistryChecker reports the health of a resilience registry based on its
// circuit breaker states. An open breaker means a dependency is down, so the
// check reports unhealthy; a half-open breaker means a dependency is being
// probed, which reports degraded.
type RegistryChecker struct {
	registry *resilience.Registry
}

// NewRegistryChecker creates a checker over the given registry.
func NewRegistryChecker(registry *resilience.Registry) *RegistryChecker {
	return &RegistryChecker{registry: registry}
}

// Name returns the name of this checker.
func (c *RegistryChecker) Name() string {
	return "dependencies"
}

// Check inspects every breaker in the registry.
func (c *RegistryChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	states := c.registry.States()
	if len(states) == 0 {
		return Healthy("no dependencies registered")
	}

	details := make(map[string]any, len(states))
	open := 0
	halfOpen := 0

	for name, stats := range states {
		details[name] = map[string]any{
			"state":       stats.State.String(),
			"failures":    stats.Failures,
			"successes":   stats.Successes,
			"total_calls": stats.TotalCalls,
		}
		switch stats.State {
		case resilience.StateOpen:
			open++
		case resilience.StateHalfOpen:
			halfOpen++
		}
	}

	switch {
	case open > 0:
		return Unhealthy(
			fmt.Sprintf("%d of %d dependencies down", open, len(states)),
			ErrCheckFailed,
		).WithDetails(details)
	case halfOpen > 0:
		return Degraded(
			fmt.Sprintf("%d of %d dependencies recovering", halfOpen, len(states)),
		).WithDetails(details)
	default:
		return Healthy(
			fmt.Sprintf("all %d dependencies up", len(states)),
		).WithDetails(details)
	}
}
