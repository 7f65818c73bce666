package harness

import (
	"context"
	"errors"
	"fmt"
)

// ErrHandleDeleted is returned for operations on a handle whose resource
// was already deleted through it.
var ErrHandleDeleted = errors.New("handle refers to a deleted resource")

// Handle is an opaque reference to a backend resource created by a
// scenario. It is owned by that scenario until Delete succeeds.
type Handle struct {
	bridge  Bridge
	kind    string
	name    string
	deleted bool
}

// NewHandle wraps an existing backend resource of the given kind.
func NewHandle(bridge Bridge, kind, name string) *Handle {
	return &Handle{
		bridge: bridge,
		kind:   kind,
		name:   name,
	}
}

// Name returns the resource name the handle was created with.
func (h *Handle) Name() string {
	return h.name
}

// Get reads a single attribute of the resource.
func (h *Handle) Get(ctx context.Context, attribute string) (any, error) {
	if h.deleted {
		return nil, fmt.Errorf("%w: %s", ErrHandleDeleted, h.name)
	}

	res, err := h.bridge.Execute(ctx, h.kind, "get", map[string]any{
		"name":      h.name,
		"attribute": attribute,
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s of %s: %w", attribute, h.name, err)
	}
	if !res.Success {
		return nil, fmt.Errorf("%w: reading %s of %s: %v", ErrBackendQuery, attribute, h.name, res.Value)
	}

	return res.Value, nil
}

// Set applies a single attribute mutation to the resource.
func (h *Handle) Set(ctx context.Context, attribute string, value any) error {
	if h.deleted {
		return fmt.Errorf("%w: %s", ErrHandleDeleted, h.name)
	}

	res, err := h.bridge.Execute(ctx, h.kind, "update", map[string]any{
		"name":    h.name,
		"updates": map[string]any{attribute: value},
	})
	if err != nil {
		return fmt.Errorf("updating %s of %s: %w", attribute, h.name, err)
	}
	if !res.Success {
		return fmt.Errorf("update %s of %s rejected: %v", attribute, h.name, res.Value) //nolint:err113 // Backend message carries the reason
	}

	return nil
}

// Delete destroys the resource. After a successful delete the handle is
// invalid and every further operation on it fails.
func (h *Handle) Delete(ctx context.Context) error {
	if h.deleted {
		return fmt.Errorf("%w: %s", ErrHandleDeleted, h.name)
	}

	res, err := h.bridge.Execute(ctx, h.kind, "delete", map[string]any{"name": h.name})
	if err != nil {
		return fmt.Errorf("deleting %s: %w", h.name, err)
	}
	if !res.Success {
		return fmt.Errorf("delete of %s rejected: %v", h.name, res.Value) //nolint:err113 // Backend message carries the reason
	}

	h.deleted = true

	return nil
}
