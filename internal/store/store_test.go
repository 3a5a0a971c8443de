package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpen_CreatesSchemaOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spindle.db")

	st, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	// Reopening an existing database is a no-op migration.
	st, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())
}

func TestKV_RoundTripPreservesStructure(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	stored := map[string]any{
		"name":  "cursor",
		"count": float64(3),
		"tags":  []any{"a", "b"},
		"meta":  map[string]any{"nested": true},
	}
	require.NoError(t, st.SetValue(ctx, "inst-1", "state", stored))

	got, ok, err := st.GetValue(ctx, "inst-1", "state")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, stored, got)
}

func TestKV_AbsentKeyIsNotFound(t *testing.T) {
	st := openTestStore(t)

	_, ok, err := st.GetValue(context.Background(), "inst-1", "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKV_SetReplaces(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetValue(ctx, "inst-1", "k", "v1"))
	require.NoError(t, st.SetValue(ctx, "inst-1", "k", "v2"))

	got, ok, err := st.GetValue(ctx, "inst-1", "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", got)
}

func TestKV_ValuesAreDetachedCopies(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	original := map[string]any{"n": float64(1)}
	require.NoError(t, st.SetValue(ctx, "inst-1", "k", original))

	first, _, err := st.GetValue(ctx, "inst-1", "k")
	require.NoError(t, err)
	first.(map[string]any)["n"] = float64(99)

	second, _, err := st.GetValue(ctx, "inst-1", "k")
	require.NoError(t, err)
	assert.Equal(t, float64(1), second.(map[string]any)["n"])
}

func TestKV_InstancesAreIsolated(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetValue(ctx, "inst-1", "k", "one"))
	require.NoError(t, st.SetValue(ctx, "inst-2", "k", "two"))

	got, _, err := st.GetValue(ctx, "inst-1", "k")
	require.NoError(t, err)
	assert.Equal(t, "one", got)

	got, _, err = st.GetValue(ctx, "inst-2", "k")
	require.NoError(t, err)
	assert.Equal(t, "two", got)
}

func TestKV_DeleteAndKeys(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetValue(ctx, "inst-1", "b", 1))
	require.NoError(t, st.SetValue(ctx, "inst-1", "a", 2))

	keys, err := st.Keys(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	require.NoError(t, st.DeleteValue(ctx, "inst-1", "a"))
	require.NoError(t, st.DeleteValue(ctx, "inst-1", "never-set"))

	keys, err = st.Keys(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, keys)
}

func TestKV_UnserializableValueFails(t *testing.T) {
	st := openTestStore(t)

	err := st.SetValue(context.Background(), "inst-1", "fn", func() {})
	require.Error(t, err)
	assert.True(t, IsSerializationError(err))

	// The failed write must not leave a row behind.
	_, ok, getErr := st.GetValue(context.Background(), "inst-1", "fn")
	require.NoError(t, getErr)
	assert.False(t, ok)
}

func TestEnsureInstance_IdempotentKeepsEndpoint(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.EnsureInstance(ctx, "inst-1", "poller"))
	require.NoError(t, st.SetEndpointID(ctx, "inst-1", "ep-abc"))

	// Redeploy.
	require.NoError(t, st.EnsureInstance(ctx, "inst-1", "poller"))

	endpoint, err := st.EndpointID(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "ep-abc", endpoint)
}

func TestEndpointID_UnknownInstanceIsEmpty(t *testing.T) {
	st := openTestStore(t)

	endpoint, err := st.EndpointID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Equal(t, "", endpoint)
}

func TestDedupeState_RoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_, _, ok, err := st.ReadDedupeState(ctx, "inst-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.WriteDedupeState(ctx, "inst-1", "greatest", []byte(`{"max":9}`)))

	strategy, state, ok, err := st.ReadDedupeState(ctx, "inst-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "greatest", strategy)
	assert.JSONEq(t, `{"max":9}`, string(state))

	// Overwrite replaces in place.
	require.NoError(t, st.WriteDedupeState(ctx, "inst-1", "greatest", []byte(`{"max":12}`)))
	_, state, _, err = st.ReadDedupeState(ctx, "inst-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"max":12}`, string(state))
}

func TestInvocations_LogLifecycle(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.EnsureInstance(ctx, "inst-1", "poller"))
	require.NoError(t, st.WriteInvocation(ctx, InvocationRecord{
		ID: "inv-1", InstanceID: "inst-1", Kind: "timer", Seq: 1, Status: InvocationRunning,
	}))
	require.NoError(t, st.WriteInvocation(ctx, InvocationRecord{
		ID: "inv-2", InstanceID: "inst-1", Kind: "http", Seq: 2, Status: InvocationRunning,
	}))

	// Idempotent insert.
	require.NoError(t, st.WriteInvocation(ctx, InvocationRecord{
		ID: "inv-1", InstanceID: "inst-1", Kind: "timer", Seq: 1, Status: InvocationRunning,
	}))

	require.NoError(t, st.MarkInvocation(ctx, "inv-1", InvocationOK, ""))
	require.NoError(t, st.MarkInvocation(ctx, "inv-2", InvocationFailed, "boom"))

	recs, err := st.Invocations(ctx, "inst-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, InvocationOK, recs[0].Status)
	assert.Equal(t, InvocationFailed, recs[1].Status)
	assert.Equal(t, "boom", recs[1].Error)
}

func TestDeleteInstance_RemovesAllScopedState(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.EnsureInstance(ctx, "inst-1", "poller"))
	require.NoError(t, st.SetValue(ctx, "inst-1", "k", "v"))
	require.NoError(t, st.WriteDedupeState(ctx, "inst-1", "unique", []byte(`{}`)))
	require.NoError(t, st.WriteInvocation(ctx, InvocationRecord{
		ID: "inv-1", InstanceID: "inst-1", Kind: "manual", Seq: 1, Status: InvocationOK,
	}))

	require.NoError(t, st.DeleteInstance(ctx, "inst-1"))

	_, ok, err := st.GetValue(ctx, "inst-1", "k")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, ok, err = st.ReadDedupeState(ctx, "inst-1")
	require.NoError(t, err)
	assert.False(t, ok)

	recs, err := st.Invocations(ctx, "inst-1")
	require.NoError(t, err)
	assert.Empty(t, recs)
}
