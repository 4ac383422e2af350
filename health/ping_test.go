package health

import (
	"context"
	"errors"
	"testing"
)

type stubPinger struct {
	err error
}

func (p *stubPinger) Ping(_ context.Context) error {
	return p.err
}

func TestPingChecker_Reachable(t *testing.T) {
	checker := NewPingChecker("redis", &stubPinger{})

	if checker.Name() != "redis" {
		t.Errorf("Name() = %v, want 'redis'", checker.Name())
	}

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want StatusHealthy", result.Status)
	}
	if result.Message != "redis reachable" {
		t.Errorf("Message = %v, want 'redis reachable'", result.Message)
	}
}

func TestPingChecker_Unreachable(t *testing.T) {
	pingErr := errors.New("connection refused")
	checker := NewPingChecker("redis", &stubPinger{err: pingErr})

	result := checker.Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want StatusUnhealthy", result.Status)
	}
	if !errors.Is(result.Error, pingErr) {
		t.Errorf("Error = %v, want %v", result.Error, pingErr)
	}
}
