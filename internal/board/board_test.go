package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkazm04/goat/internal/domain"
)

func item(id string) domain.Item {
	return domain.Item{ID: id, Title: "item " + id}
}

func TestGridAssignRemoveMove(t *testing.T) {
	g := NewGrid(5)
	require.Equal(t, 5, g.MaxGridSize())

	require.NoError(t, g.AssignItemToGrid(item("a"), 2))
	got, ok := g.ItemAt(2)
	require.True(t, ok)
	assert.Equal(t, "a", got.ID)

	// Assign overwrites; swap relies on this.
	require.NoError(t, g.AssignItemToGrid(item("b"), 2))
	got, _ = g.ItemAt(2)
	assert.Equal(t, "b", got.ID)

	require.NoError(t, g.MoveGridItem(2, 4))
	_, ok = g.ItemAt(2)
	assert.False(t, ok)
	got, _ = g.ItemAt(4)
	assert.Equal(t, "b", got.ID)

	// Move needs an occupied source and an empty destination.
	assert.Error(t, g.MoveGridItem(2, 0))
	require.NoError(t, g.AssignItemToGrid(item("c"), 0))
	assert.Error(t, g.MoveGridItem(0, 4))

	removed, err := g.RemoveItemFromGrid(4)
	require.NoError(t, err)
	assert.Equal(t, "b", removed.ID)
	_, err = g.RemoveItemFromGrid(4)
	assert.Error(t, err)
}

func TestGridSnapshotIsACopy(t *testing.T) {
	g := NewGrid(3)
	require.NoError(t, g.AssignItemToGrid(item("a"), 1))
	snap := g.Snapshot()
	snap[1].Matched = false
	snap[1].Item = nil

	_, ok := g.ItemAt(1)
	assert.True(t, ok, "mutating a snapshot must not touch the grid")
}

func TestBacklogUsageAndLocks(t *testing.T) {
	b := NewBacklog()
	b.Add(item("a"), item("b"))

	_, ok := b.GetItemByID("a")
	require.True(t, ok)
	assert.False(t, b.IsItemUsed("a"))

	b.MarkItemUsed("a", true)
	assert.True(t, b.IsItemUsed("a"))
	assert.Len(t, b.Available(), 1)
	assert.Len(t, b.Items(), 2)

	b.LockItem("b")
	assert.True(t, b.IsItemLocked("b"))
	b.UnlockItem("b")
	assert.False(t, b.IsItemLocked("b"))
}

func TestTiersOrderingAndPool(t *testing.T) {
	tr := NewTiers("S", "A")
	require.True(t, tr.HasTier("S"))
	require.False(t, tr.HasTier("X"))

	// Negative index appends.
	require.NoError(t, tr.AssignToTier(item("a"), "S", -1))
	require.NoError(t, tr.AssignToTier(item("b"), "S", -1))
	require.NoError(t, tr.AssignToTier(item("c"), "S", 1))
	ids := func(items []domain.Item) []string {
		out := make([]string, 0, len(items))
		for _, it := range items {
			out = append(out, it.ID)
		}
		return out
	}
	assert.Equal(t, []string{"a", "c", "b"}, ids(tr.ItemsInTier("S")))

	// No duplicate residents within a tier; cross-tier exclusivity is the
	// handlers' job.
	assert.Error(t, tr.AssignToTier(item("a"), "S", -1))

	require.NoError(t, tr.MoveWithinTier("S", "b", 0))
	assert.Equal(t, []string{"b", "a", "c"}, ids(tr.ItemsInTier("S")))

	require.NoError(t, tr.MoveBetweenTiers("c", "S", "A", -1))
	assert.Equal(t, []string{"c"}, ids(tr.ItemsInTier("A")))
	assert.Equal(t, 0, tr.IndexInTier("A", "c"))
	assert.Equal(t, -1, tr.IndexInTier("S", "c"))

	moved, err := tr.RemoveFromTier("A", "c")
	require.NoError(t, err)
	require.NoError(t, tr.AddToUnranked(moved))
	assert.True(t, tr.InPool("c"))
	assert.Equal(t, []string{"c"}, ids(tr.Pool()))

	back, err := tr.RemoveFromUnranked("c")
	require.NoError(t, err)
	assert.Equal(t, "c", back.ID)
	assert.False(t, tr.InPool("c"))
}

func TestBoardRestoreState(t *testing.T) {
	b := New("s1", 4, "S", "A")
	b.AddItems(item("a"), item("b"), item("c"), item("d"))

	slots := make([]domain.Slot, 4)
	for i := range slots {
		slots[i].Position = i
	}
	it := item("a")
	slots[2] = domain.Slot{Position: 2, Matched: true, Item: &it}

	require.NoError(t, b.RestoreState(slots,
		map[string][]domain.Item{"S": {item("b")}},
		[]domain.Item{item("c")}))

	grid := b.GridSnapshot()
	require.True(t, grid[2].Matched)
	assert.Equal(t, "a", grid[2].Item.ID)
	assert.Equal(t, "b", b.TierItems("S")[0].ID)
	assert.Equal(t, "c", b.PoolItems()[0].ID)

	// Everything placed somewhere counts as used; only d is free.
	avail := b.AvailableItems()
	require.Len(t, avail, 1)
	assert.Equal(t, "d", avail[0].ID)
}
