package harness

import (
	"context"
	"fmt"
	"regexp"

	"github.com/sirupsen/logrus"
)

// Sweep applies a best-effort bulk mutation over a two-level resource
// hierarchy: containers of one kind, children of another, children
// filtered by a name pattern. It touches no run counters; individual
// mutation failures are logged and the sweep moves on.
type Sweep struct {
	bridge Bridge
	log    logrus.FieldLogger
}

// NewSweep creates a sweep over the given bridge.
func NewSweep(log logrus.FieldLogger, bridge Bridge) *Sweep {
	return &Sweep{
		bridge: bridge,
		log:    log.WithField("component", "sweep"),
	}
}

// Apply sets the given attribute updates on every child of every container
// whose name the pattern matches. An error is returned only when the
// container enumeration itself fails; everything past that point is
// best-effort.
func (s *Sweep) Apply(ctx context.Context, containerKind, childKind, pattern string, updates map[string]any) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", errInvalidPattern, pattern, err)
	}

	containers, err := s.bridge.Query(ctx, containerKind, nil)
	if err != nil {
		return fmt.Errorf("enumerating %s: %w", containerKind, err)
	}

	mutated := 0
	for _, container := range containers {
		children, err := s.bridge.Query(ctx, childKind, map[string]any{"parent": container.Name})
		if err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"container": container.Name,
				"child":     childKind,
			}).Warn("skipping container, child enumeration failed")
			continue
		}

		for _, child := range children {
			if !re.MatchString(child.Name) {
				continue
			}

			res, err := s.bridge.Execute(ctx, childKind, "update", map[string]any{
				"name":    child.Name,
				"parent":  container.Name,
				"updates": updates,
			})
			if err != nil || !res.Success {
				s.log.WithFields(logrus.Fields{
					"container": container.Name,
					"child":     child.Name,
					"error":     err,
				}).Warn("mutation failed, continuing sweep")
				continue
			}

			mutated++
			s.log.WithFields(logrus.Fields{
				"container": container.Name,
				"child":     child.Name,
			}).Debug("attributes updated")
		}
	}

	s.log.WithFields(logrus.Fields{
		"containers": len(containers),
		"pattern":    pattern,
		"mutated":    mutated,
	}).Info("sweep completed")

	return nil
}
