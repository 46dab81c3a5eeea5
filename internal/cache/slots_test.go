package cache

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tribunal/internal/store"
)

func newManager(t *testing.T, maxSlots int) *Manager {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewManager(s, maxSlots, 24*time.Hour, logrus.New())
}

func TestRoundRobinServing(t *testing.T) {
	m := newManager(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, m.StoreResult(ctx, "ds", "model", "case", "run-src"))
	}

	// Serve all three: each pick rotates to the next never/oldest-served.
	seen := make(map[int]bool)
	for i := 0; i < 3; i++ {
		slot, err := m.GetNextSlotToServe(ctx, "ds", "model", "case")
		require.NoError(t, err)
		require.NotNil(t, slot)
		assert.False(t, seen[slot.SlotNumber])
		seen[slot.SlotNumber] = true
		require.NoError(t, m.MarkServed(ctx, slot))
	}

	// Fourth pick wraps to the slot served longest ago.
	slot, err := m.GetNextSlotToServe(ctx, "ds", "model", "case")
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.Equal(t, 1, slot.SlotNumber)
}

func TestGetNextSlotToServePrefersOldest(t *testing.T) {
	m := newManager(t, 3)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, m.StoreResult(ctx, "ds", "model", "case", "run-src"))
	}

	first, err := m.GetNextSlotToServe(ctx, "ds", "model", "case")
	require.NoError(t, err)
	require.NoError(t, m.MarkServed(ctx, first))

	// The never-served slot must win over the just-served one.
	next, err := m.GetNextSlotToServe(ctx, "ds", "model", "case")
	require.NoError(t, err)
	assert.NotEqual(t, first.SlotNumber, next.SlotNumber)
	assert.Nil(t, next.LastServedAt)
}

func TestGetNextSlotToServeEmpty(t *testing.T) {
	m := newManager(t, 3)
	slot, err := m.GetNextSlotToServe(context.Background(), "ds", "model", "case")
	require.NoError(t, err)
	assert.Nil(t, slot)
}

func TestGetNextEmptySlot(t *testing.T) {
	m := newManager(t, 2)
	ctx := context.Background()

	n, ok, err := m.GetNextEmptySlot(ctx, "ds", "model", "case")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, n)

	require.NoError(t, m.StoreResult(ctx, "ds", "model", "case", "run-src"))
	n, ok, err = m.GetNextEmptySlot(ctx, "ds", "model", "case")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, n)

	require.NoError(t, m.StoreResult(ctx, "ds", "model", "case", "run-src"))
	_, ok, err = m.GetNextEmptySlot(ctx, "ds", "model", "case")
	require.NoError(t, err)
	assert.False(t, ok)

	// Full slots: storing another result is a silent no-op.
	require.NoError(t, m.StoreResult(ctx, "ds", "model", "case", "run-src"))
}

func TestPurgeAll(t *testing.T) {
	m := newManager(t, 3)
	ctx := context.Background()

	require.NoError(t, m.StoreResult(ctx, "ds", "model", "case", "run-src"))
	require.NoError(t, m.PurgeAll(ctx))

	slot, err := m.GetNextSlotToServe(ctx, "ds", "model", "case")
	require.NoError(t, err)
	assert.Nil(t, slot)
}

func TestSweepExpired(t *testing.T) {
	m := newManager(t, 3)
	ctx := context.Background()

	require.NoError(t, m.StoreResult(ctx, "ds", "model", "case", "run-src"))

	// Jump the clock past the TTL.
	m.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	n, err := m.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
