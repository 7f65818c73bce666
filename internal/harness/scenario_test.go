package harness

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBridge is an in-memory backend. Creates, updates, and deletes
// mutate a per-kind name->attributes map; Query re-reads it live.
type fakeBridge struct {
	kinds       map[string]map[string]map[string]any
	rejectNames map[string]bool
	leakNames   map[string]bool
	execErr     map[string]error
	deleteCalls []string
	queryCalls  int
	queryErr    error
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{
		kinds:       make(map[string]map[string]map[string]any),
		rejectNames: make(map[string]bool),
		leakNames:   make(map[string]bool),
	}
}

func (b *fakeBridge) seed(kind, name string, attrs map[string]any) {
	if b.kinds[kind] == nil {
		b.kinds[kind] = make(map[string]map[string]any)
	}
	if attrs == nil {
		attrs = map[string]any{}
	}
	attrs["name"] = name
	b.kinds[kind][name] = attrs
}

func (b *fakeBridge) Execute(_ context.Context, kind, operation string, args map[string]any) (*Result, error) {
	if err := b.execErr[operation]; err != nil {
		return nil, err
	}

	name, _ := args["name"].(string)

	switch operation {
	case "create":
		if b.rejectNames[name] {
			return &Result{Success: false, Value: "create rejected"}, nil
		}
		b.seed(kind, name, map[string]any{"keep": args["keep"]})
		return &Result{Success: true}, nil

	case "update":
		attrs, ok := b.kinds[kind][name]
		if !ok {
			return &Result{Success: false, Value: "no such resource"}, nil
		}
		updates, _ := args["updates"].(map[string]any)
		for key, value := range updates {
			attrs[key] = value
		}
		return &Result{Success: true}, nil

	case "get":
		attrs, ok := b.kinds[kind][name]
		if !ok {
			return &Result{Success: false, Value: "no such resource"}, nil
		}
		attribute, _ := args["attribute"].(string)
		return &Result{Success: true, Value: attrs[attribute]}, nil

	case "delete":
		b.deleteCalls = append(b.deleteCalls, name)
		if _, ok := b.kinds[kind][name]; !ok {
			return &Result{Success: false, Value: "no such resource"}, nil
		}
		if !b.leakNames[name] {
			delete(b.kinds[kind], name)
		}
		return &Result{Success: true}, nil

	case "scrub":
		return &Result{Success: true}, nil
	}

	return &Result{Success: false, Value: "unknown operation " + operation}, nil
}

func (b *fakeBridge) Query(_ context.Context, kind string, args map[string]any) ([]Resource, error) {
	b.queryCalls++

	if b.queryErr != nil {
		return nil, b.queryErr
	}

	if args != nil {
		return nil, nil
	}

	resources := make([]Resource, 0, len(b.kinds[kind]))
	for name, attrs := range b.kinds[kind] {
		resources = append(resources, Resource{Name: name, Attrs: attrs})
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].Name < resources[j].Name })

	return resources, nil
}

func TestRunSingleLifecycle(t *testing.T) {
	bridge := newFakeBridge()
	bridge.seed(KindBootDisk, "ada0", nil)

	run := NewRun(newTestLogger())
	runner := NewRunner(newTestLogger(), bridge, run, "freenas-boot")

	require.NoError(t, runner.RunSingle(context.Background(), "bootenv", "", "myenv"))

	assert.Equal(t, 6, run.Passed(), "create, keep, verify, scrub, disks, delete")
	assert.Equal(t, 0, run.Failed())
	require.NoError(t, run.Err())

	// The resource must be gone afterwards.
	matcher := NewMatcher(newTestLogger(), bridge)
	count, err := matcher.CountMatching(context.Background(), KindBootEnvironment, "^myenv$")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRunSingleGeneratesUniqueName(t *testing.T) {
	bridge := newFakeBridge()
	bridge.seed(KindBootDisk, "ada0", nil)

	run := NewRun(newTestLogger())
	runner := NewRunner(newTestLogger(), bridge, run, "freenas-boot")

	require.NoError(t, runner.RunSingle(context.Background(), "bootenv", "", ""))
	require.NoError(t, runner.RunSingle(context.Background(), "bootenv", "", ""))

	// Two runs with generated names must not collide on create.
	assert.Equal(t, 0, run.Failed())
}

func TestRunSingleFailedCreateStillRunsAllStages(t *testing.T) {
	bridge := newFakeBridge()
	bridge.seed(KindBootDisk, "ada0", nil)
	bridge.rejectNames["dup"] = true

	run := NewRun(newTestLogger())
	runner := NewRunner(newTestLogger(), bridge, run, "freenas-boot")

	require.NoError(t, runner.RunSingle(context.Background(), "bootenv", "", "dup"))

	// Fail-soft: every stage recorded an outcome even though create failed.
	require.Len(t, run.Outcomes(), 6)
	// create, keep, verify, and delete fail; scrub and disks still pass.
	assert.Equal(t, 4, run.Failed())
	assert.Equal(t, 2, run.Passed())
}

func TestRunBulkLifecycle(t *testing.T) {
	bridge := newFakeBridge()

	run := NewRun(newTestLogger())
	runner := NewRunner(newTestLogger(), bridge, run, "freenas-boot")

	require.NoError(t, runner.RunBulk(context.Background(), "stress", "", "stress", 5))

	// 5 creates + count + 5 deletes + leak check.
	assert.Equal(t, 12, run.Passed())
	assert.Equal(t, 0, run.Failed())
	assert.Empty(t, bridge.kinds[KindBootEnvironment])
}

func TestRunBulkZeroResources(t *testing.T) {
	bridge := newFakeBridge()

	run := NewRun(newTestLogger())
	runner := NewRunner(newTestLogger(), bridge, run, "freenas-boot")

	require.NoError(t, runner.RunBulk(context.Background(), "stress", "", "stress", 0))

	// Both cardinality checks hold trivially.
	assert.Equal(t, 2, run.Passed())
	assert.Equal(t, 0, run.Failed())
	assert.Empty(t, bridge.deleteCalls)
}

func TestRunBulkFailedCreateNeverTracked(t *testing.T) {
	bridge := newFakeBridge()
	bridge.rejectNames["stress2"] = true

	run := NewRun(newTestLogger())
	runner := NewRunner(newTestLogger(), bridge, run, "freenas-boot")

	require.NoError(t, runner.RunBulk(context.Background(), "stress", "", "stress", 5))

	// Only the rejected create fails; the cardinality check compares
	// against successful creates, so it still holds.
	assert.Equal(t, 1, run.Failed())

	// The failed create must never reach delete.
	assert.NotContains(t, bridge.deleteCalls, "stress2")
	assert.Len(t, bridge.deleteCalls, 4)
}

func TestRunBulkDetectsLeak(t *testing.T) {
	bridge := newFakeBridge()
	// Delete reports success but the backend keeps the resource.
	bridge.leakNames["stress1"] = true

	run := NewRun(newTestLogger())
	runner := NewRunner(newTestLogger(), bridge, run, "freenas-boot")

	require.NoError(t, runner.RunBulk(context.Background(), "stress", "", "stress", 3))

	// Every per-handle delete passed; only the final cardinality check
	// catches the leak.
	require.Equal(t, 1, run.Failed())
	outcomes := run.Outcomes()
	last := outcomes[len(outcomes)-1]
	assert.Equal(t, "stress#leak", last.ID)
	assert.Contains(t, last.Message, "leaked")
}

func TestRunSingleAbortsWhenBridgeGone(t *testing.T) {
	bridge := newFakeBridge()
	bridge.seed(KindBootDisk, "ada0", nil)
	bridge.execErr = map[string]error{"update": fmt.Errorf("write: %w", ErrBridgeUnavailable)}

	run := NewRun(newTestLogger())
	runner := NewRunner(newTestLogger(), bridge, run, "freenas-boot")

	err := runner.RunSingle(context.Background(), "bootenv", "", "myenv")
	require.ErrorIs(t, err, ErrBridgeUnavailable)

	// Only the create stage ran before the abort; nothing is recorded
	// for the skipped stages.
	require.Len(t, run.Outcomes(), 1)
	assert.Equal(t, "bootenv#create", run.Outcomes()[0].ID)
	assert.Equal(t, 0, run.Failed())
}

func TestRunBulkAbortsWhenBridgeGone(t *testing.T) {
	bridge := newFakeBridge()
	// The enumeration after the create phase finds the bridge gone.
	bridge.queryErr = fmt.Errorf("read: %w", ErrBridgeUnavailable)

	run := NewRun(newTestLogger())
	runner := NewRunner(newTestLogger(), bridge, run, "freenas-boot")

	err := runner.RunBulk(context.Background(), "stress", "", "stress", 3)
	require.ErrorIs(t, err, ErrBridgeUnavailable)

	// The three creates are recorded; the cardinality check, deletes,
	// and leak check never ran.
	require.Len(t, run.Outcomes(), 3)
	assert.Equal(t, 3, run.Passed())
	assert.Empty(t, bridge.deleteCalls)
}

func TestRunBulkNamesDerivedFromPrefix(t *testing.T) {
	bridge := newFakeBridge()

	run := NewRun(newTestLogger())
	runner := NewRunner(newTestLogger(), bridge, run, "freenas-boot")

	// Seed an unrelated resource; the bulk pattern must not match it.
	bridge.seed(KindBootEnvironment, "default", nil)

	require.NoError(t, runner.RunBulk(context.Background(), "stress", "", "stress", 2))

	assert.Equal(t, 0, run.Failed())

	// The unrelated resource survives the destroy phase.
	_, ok := bridge.kinds[KindBootEnvironment]["default"]
	assert.True(t, ok)

	for i := 0; i < 2; i++ {
		assert.Contains(t, bridge.deleteCalls, fmt.Sprintf("stress%d", i))
	}
}
