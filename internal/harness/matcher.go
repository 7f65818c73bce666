package harness

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/sirupsen/logrus"
)

var (
	// ErrBackendQuery marks a failed backend enumeration or read.
	ErrBackendQuery = errors.New("backend query failed")

	errInvalidPattern = errors.New("invalid name pattern")
)

// Matcher selects backend resources by name. Every call re-queries the
// live enumeration; results are never cached, so repeated calls observe
// backend mutations made in between.
type Matcher struct {
	bridge Bridge
	log    logrus.FieldLogger
}

// NewMatcher creates a matcher over the given bridge.
func NewMatcher(log logrus.FieldLogger, bridge Bridge) *Matcher {
	return &Matcher{
		bridge: bridge,
		log:    log.WithField("component", "matcher"),
	}
}

// ListMatching returns the resources of kind whose name the pattern
// matches anywhere (regexp search, not a full-name match). An empty
// pattern selects every resource.
func (m *Matcher) ListMatching(ctx context.Context, kind, pattern string) ([]Resource, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", errInvalidPattern, pattern, err)
	}

	resources, err := m.bridge.Query(ctx, kind, nil)
	if err != nil {
		if errors.Is(err, ErrBridgeUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: enumerating %s: %v", ErrBackendQuery, kind, err)
	}

	matched := make([]Resource, 0, len(resources))
	for _, res := range resources {
		if re.MatchString(res.Name) {
			matched = append(matched, res)
		}
	}

	m.log.WithFields(logrus.Fields{
		"kind":    kind,
		"pattern": pattern,
		"total":   len(resources),
		"matched": len(matched),
	}).Debug("enumeration filtered")

	return matched, nil
}

// CountMatching returns the number of resources ListMatching would return.
func (m *Matcher) CountMatching(ctx context.Context, kind, pattern string) (int, error) {
	matched, err := m.ListMatching(ctx, kind, pattern)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}
