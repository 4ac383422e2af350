package health

import "context"

// PingChecker adapts a Pinger into a health checker. A failed ping reports
// unhealthy; there is no degraded state for a plain reachability probe.
type PingChecker struct {
	name   string
	pinger Pinger
}

// NewPingChecker creates a checker that probes the given component.
func NewPingChecker(name string, pinger Pinger) *PingChecker {
	return &PingChecker{name: name, pinger: pinger}
}

// Name returns the name of this checker.
func (p *PingChecker) Name() string {
	return p.name
}

// Check pings the component.
func (p *PingChecker) Check(ctx context.Context) Result {
	if err := p.pinger.Ping(ctx); err != nil {
		return Unhealthy(p.name+" unreachable", err)
	}
	return Healthy(p.name + " reachable")
}
