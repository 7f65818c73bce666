package harness

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Resource kinds addressed by the built-in scenarios. They mirror the
// middleware's dispatcher namespaces.
const (
	KindBootEnvironment = "boot.environment"
	KindBootDisk        = "boot.disk"
	KindPool            = "zfs.pool"
)

// Runner executes lifecycle scenarios against the bridge, recording every
// stage outcome in the run. Scenarios are fail-soft: a failed stage is
// recorded and the remaining stages still execute, so one run surfaces as
// many diagnostics as possible. Only a dead bridge aborts a scenario.
type Runner struct {
	log      logrus.FieldLogger
	bridge   Bridge
	run      *Run
	matcher  *Matcher
	bootPool string
}

// NewRunner creates a scenario runner. bootPool names the pool scrubbed
// during the single-resource scenario's verify stage.
func NewRunner(log logrus.FieldLogger, bridge Bridge, run *Run, bootPool string) *Runner {
	return &Runner{
		log:      log.WithField("component", "scenario_runner"),
		bridge:   bridge,
		run:      run,
		matcher:  NewMatcher(log, bridge),
		bootPool: bootPool,
	}
}

// RunSingle drives one resource of the given kind through its full
// lifecycle: create with keep=off, flip keep on, read it back, scrub the
// boot pool, check the boot disk enumeration is non-empty, delete. Every
// stage is asserted under "<label>#<stage>".
func (r *Runner) RunSingle(ctx context.Context, label, kind, name string) error {
	if kind == "" {
		kind = KindBootEnvironment
	}
	if name == "" {
		name = fmt.Sprintf("%s-%s", label, uuid.NewString()[:8])
	}

	log := r.log.WithFields(logrus.Fields{
		"scenario": label,
		"resource": name,
	})
	log.Info("running single-resource scenario")

	res, err := r.bridge.Execute(ctx, kind, "create", map[string]any{
		"name": name,
		"keep": false,
	})
	if errors.Is(err, ErrBridgeUnavailable) {
		return err
	}
	r.run.Assert(err == nil && res.Success, stageID(label, "create"), callMessage("create "+name, res, err))

	// The handle is built regardless of the create outcome: later stages
	// run either way and record their own failures.
	handle := NewHandle(r.bridge, kind, name)

	err = handle.Set(ctx, "keep", true)
	if errors.Is(err, ErrBridgeUnavailable) {
		return err
	}
	r.run.Assert(err == nil, stageID(label, "keep"), errMessage("set keep=on", err))

	value, err := handle.Get(ctx, "keep")
	if errors.Is(err, ErrBridgeUnavailable) {
		return err
	}
	r.run.Assert(err == nil && value == true, stageID(label, "verify"),
		errMessage(fmt.Sprintf("keep read back as %v, want true", value), err))

	res, err = r.bridge.Execute(ctx, KindPool, "scrub", map[string]any{"name": r.bootPool})
	if errors.Is(err, ErrBridgeUnavailable) {
		return err
	}
	r.run.Assert(err == nil && res.Success, stageID(label, "scrub"), callMessage("scrub "+r.bootPool, res, err))

	disks, err := r.matcher.ListMatching(ctx, KindBootDisk, "")
	if errors.Is(err, ErrBridgeUnavailable) {
		return err
	}
	r.run.Assert(err == nil && len(disks) > 0, stageID(label, "disks"),
		errMessage("boot pool has no member disks", err))

	err = handle.Delete(ctx)
	if errors.Is(err, ErrBridgeUnavailable) {
		return err
	}
	r.run.Assert(err == nil, stageID(label, "delete"), errMessage("delete "+name, err))

	return nil
}

// RunBulk creates count resources named prefix+index, tracks the handle of
// each successful create, checks the backend enumeration agrees with the
// number of successful creates, deletes every tracked handle, and checks
// the enumeration is empty afterwards. count == 0 runs both cardinality
// checks against an empty tracking collection.
func (r *Runner) RunBulk(ctx context.Context, label, kind, prefix string, count int) error {
	if kind == "" {
		kind = KindBootEnvironment
	}

	log := r.log.WithFields(logrus.Fields{
		"scenario": label,
		"prefix":   prefix,
		"count":    count,
	})
	log.Info("running bulk scenario")

	handles := make([]*Handle, 0, count)
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("%s%d", prefix, i)

		res, err := r.bridge.Execute(ctx, kind, "create", map[string]any{
			"name": name,
			"keep": false,
		})
		if errors.Is(err, ErrBridgeUnavailable) {
			return err
		}

		// Only a successfully created resource gets a tracked handle;
		// nothing here ever hands a failed create to delete.
		if r.run.Assert(err == nil && res.Success,
			stageID(label, fmt.Sprintf("create:%d", i)),
			callMessage("create "+name, res, err)) {
			handles = append(handles, NewHandle(r.bridge, kind, name))
		}
	}

	pattern := regexp.QuoteMeta(prefix) + "[0-9]+"

	matched, err := r.matcher.CountMatching(ctx, kind, pattern)
	if errors.Is(err, ErrBridgeUnavailable) {
		return err
	}
	r.run.Assert(err == nil && matched == len(handles), stageID(label, "count"),
		errMessage(fmt.Sprintf("backend lists %d resources matching %q, want %d", matched, pattern, len(handles)), err))

	for _, handle := range handles {
		name := handle.Name()
		err := handle.Delete(ctx)
		if errors.Is(err, ErrBridgeUnavailable) {
			return err
		}
		r.run.Assert(err == nil, stageID(label, "delete:"+name), errMessage("delete "+name, err))
	}

	// Authoritative leak check: the backend enumeration decides, not the
	// per-handle delete outcomes.
	matched, err = r.matcher.CountMatching(ctx, kind, pattern)
	if errors.Is(err, ErrBridgeUnavailable) {
		return err
	}
	r.run.Assert(err == nil && matched == 0, stageID(label, "leak"),
		errMessage(fmt.Sprintf("%d resources matching %q leaked after destroy", matched, pattern), err))

	return nil
}

func stageID(label, stage string) string {
	return label + "#" + stage
}

// callMessage builds the failure message for an asserted bridge call.
func callMessage(op string, res *Result, err error) string {
	if err != nil {
		return fmt.Sprintf("%s: %v", op, err)
	}
	if res != nil && !res.Success {
		return fmt.Sprintf("%s rejected: %v", op, res.Value)
	}
	return op
}

func errMessage(msg string, err error) string {
	if err != nil {
		return fmt.Sprintf("%s: %v", msg, err)
	}
	return msg
}
