package harness

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Outcome records a single labeled assertion result.
type Outcome struct {
	ID      string
	Passed  bool
	Message string
}

// Run holds the pass/fail counters and recorded outcomes for one harness
// run. It is created once per run and never reset; the final failure count
// decides the process exit status.
type Run struct {
	log      logrus.FieldLogger
	passed   int
	failed   int
	outcomes []Outcome
}

// NewRun creates the run context for a single harness invocation.
func NewRun(log logrus.FieldLogger) *Run {
	return &Run{
		log: log.WithField("component", "run"),
	}
}

// Assert records a labeled outcome. A true condition leaves the failure
// counter untouched; a false condition increments it exactly once and
// records the message. The condition is returned unchanged so call sites
// can branch on it, e.g. to skip tracking a handle whose create failed.
func (r *Run) Assert(condition bool, id, message string) bool {
	if condition {
		r.passed++
		r.outcomes = append(r.outcomes, Outcome{ID: id, Passed: true})
		r.log.WithField("id", id).Debug("assertion passed")
		return true
	}

	r.failed++
	r.outcomes = append(r.outcomes, Outcome{ID: id, Passed: false, Message: message})
	r.log.WithFields(logrus.Fields{
		"id":      id,
		"message": message,
	}).Error("assertion failed")

	return false
}

// Passed returns the number of assertions that held.
func (r *Run) Passed() int {
	return r.passed
}

// Failed returns the number of assertions that did not hold.
func (r *Run) Failed() int {
	return r.failed
}

// Outcomes returns every recorded outcome in assertion order.
func (r *Run) Outcomes() []Outcome {
	return r.outcomes
}

// Err returns a non-nil error when any assertion failed, for use as the
// command's exit condition.
func (r *Run) Err() error {
	if r.failed > 0 {
		return fmt.Errorf("%d assertions failed", r.failed) //nolint:err113 // Count carries the run verdict
	}
	return nil
}
