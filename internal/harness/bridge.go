// Package harness implements the assertion, matching, and lifecycle
// verification core driven against a middleware command bridge.
package harness

import (
	"context"
	"errors"
)

// ErrBridgeUnavailable marks transport-level failures where no further
// commands can be executed. Scenario runners abort on it instead of
// recording an assertion failure.
var ErrBridgeUnavailable = errors.New("command bridge unavailable")

// Result is the outcome of a single middleware operation. Success reflects
// the backend's implicit success signal; Value carries the structured
// payload when the operation returned one.
type Result struct {
	Success bool
	Value   any
}

// Resource is one entry of a backend enumeration.
type Resource struct {
	Name  string
	Attrs map[string]any
}

// Bridge executes management operations against the backend. Execute runs
// a single operation on a resource kind; Query returns the live enumeration
// of a kind, optionally scoped by args for nested addressing (container ->
// child). Implementations must not cache enumeration results.
type Bridge interface {
	Execute(ctx context.Context, kind, operation string, args map[string]any) (*Result, error)
	Query(ctx context.Context, kind string, args map[string]any) ([]Resource, error)
}
