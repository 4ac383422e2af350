// Package control exposes operational endpoints for the resilience registry.
//
// It provides HTTP handlers for inspecting circuit breaker states and for
// manually resetting a breaker, plus bearer-token middleware to guard the
// mutating endpoints.
package control
