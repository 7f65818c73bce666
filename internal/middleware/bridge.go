package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/storageops/nascheck/internal/harness"
)

var errMalformedEnumeration = errors.New("malformed enumeration")

// Execute runs a single management operation as "<kind>.<operation>".
// An application-level rejection becomes an unsuccessful Result carrying
// the middleware's message; only transport failures are returned as
// errors.
func (c *Client) Execute(ctx context.Context, kind, operation string, args map[string]any) (*harness.Result, error) {
	method := kind + "." + operation

	call := make([]any, 0, 1)
	if args != nil {
		call = append(call, args)
	}

	value, err := c.Call(ctx, method, call...)
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return &harness.Result{Success: false, Value: rpcErr.Message}, nil
		}
		return nil, err
	}

	return &harness.Result{Success: true, Value: value}, nil
}

// Query returns the live enumeration of a kind. args scope nested child
// queries; nil enumerates the kind itself.
func (c *Client) Query(ctx context.Context, kind string, args map[string]any) ([]harness.Resource, error) {
	res, err := c.Execute(ctx, kind, "query", args)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, fmt.Errorf("query %s rejected: %v", kind, res.Value) //nolint:err113 // Backend message carries the reason
	}

	return decodeResources(res.Value)
}

func decodeResources(value any) ([]harness.Resource, error) {
	if value == nil {
		return nil, nil
	}

	entries, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T, want a list", errMalformedEnumeration, value)
	}

	resources := make([]harness.Resource, 0, len(entries))
	for _, entry := range entries {
		attrs, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: entry is %T, want an object", errMalformedEnumeration, entry)
		}

		resources = append(resources, harness.Resource{
			Name:  resourceName(attrs),
			Attrs: attrs,
		})
	}

	return resources, nil
}

// resourceName picks the name attribute of an enumeration entry. Boot
// environments key on "id", disks on "path", most other kinds on "name".
func resourceName(attrs map[string]any) string {
	for _, key := range []string{"name", "id", "path"} {
		if v, ok := attrs[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
