package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleLifecycle(t *testing.T) {
	bridge := newFakeBridge()
	bridge.seed(KindBootEnvironment, "env0", map[string]any{"keep": false})

	handle := NewHandle(bridge, KindBootEnvironment, "env0")
	assert.Equal(t, "env0", handle.Name())

	require.NoError(t, handle.Set(context.Background(), "keep", true))

	value, err := handle.Get(context.Background(), "keep")
	require.NoError(t, err)
	assert.Equal(t, true, value)

	require.NoError(t, handle.Delete(context.Background()))
	assert.Empty(t, bridge.kinds[KindBootEnvironment])
}

func TestHandleInvalidAfterDelete(t *testing.T) {
	bridge := newFakeBridge()
	bridge.seed(KindBootEnvironment, "env0", nil)

	handle := NewHandle(bridge, KindBootEnvironment, "env0")
	require.NoError(t, handle.Delete(context.Background()))

	_, err := handle.Get(context.Background(), "keep")
	require.ErrorIs(t, err, ErrHandleDeleted)

	err = handle.Set(context.Background(), "keep", true)
	require.ErrorIs(t, err, ErrHandleDeleted)

	err = handle.Delete(context.Background())
	require.ErrorIs(t, err, ErrHandleDeleted)
}

func TestHandleFailedDeleteStaysValid(t *testing.T) {
	bridge := newFakeBridge()

	// The resource never existed, so delete is rejected by the backend.
	handle := NewHandle(bridge, KindBootEnvironment, "ghost")

	err := handle.Delete(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrHandleDeleted)

	// A rejected delete does not invalidate the handle.
	err = handle.Delete(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrHandleDeleted)
}

func TestHandleGetRejectedWrapsBackendQuery(t *testing.T) {
	bridge := newFakeBridge()

	handle := NewHandle(bridge, KindBootEnvironment, "ghost")

	_, err := handle.Get(context.Background(), "keep")
	require.ErrorIs(t, err, ErrBackendQuery)
}
