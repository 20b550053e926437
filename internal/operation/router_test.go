package operation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkazm04/goat/internal/board"
	"github.com/xkazm04/goat/internal/domain"
	"github.com/xkazm04/goat/internal/drag"
	"github.com/xkazm04/goat/internal/operation"
	"github.com/xkazm04/goat/internal/rules"
)

func newEnv(t *testing.T, r rules.Rules) (*board.Board, *operation.Router) {
	t.Helper()
	bd := board.New("test", 10, "S", "A", "B")
	bd.AddItems(
		domain.Item{ID: "x1", Title: "First"},
		domain.Item{ID: "x2", Title: "Second"},
		domain.Item{ID: "x3", Title: "Third"},
	)
	router := operation.NewDefaultRouter(rules.NewAuthority(r), zap.NewNop())
	return bd, router
}

func backlogDrop(itemID string, pos int, occupied bool) drag.EndEvent {
	return drag.EndEvent{
		Active: &drag.ElementRef{ID: itemID, Data: &drag.ElementData{Type: "backlog", ItemID: itemID}},
		Over: &drag.ElementRef{
			ID:   "grid-slot-0",
			Data: &drag.ElementData{Type: "grid-slot", Position: domain.Ptr(pos), IsOccupied: occupied},
		},
	}
}

func gridDrop(itemID string, from, to int, occupied bool) drag.EndEvent {
	return drag.EndEvent{
		Active: &drag.ElementRef{ID: itemID, Data: &drag.ElementData{Type: "grid", ItemID: itemID, GridPosition: domain.Ptr(from)}},
		Over: &drag.ElementRef{
			ID:   "grid-slot-0",
			Data: &drag.ElementData{Type: "grid-slot", Position: domain.Ptr(to), IsOccupied: occupied},
		},
	}
}

func tierDrop(itemID, fromTier, toTier string) drag.EndEvent {
	return drag.EndEvent{
		Active: &drag.ElementRef{ID: itemID, Data: &drag.ElementData{Type: "tier", ItemID: itemID, TierID: fromTier}},
		Over:   &drag.ElementRef{ID: "tier-" + toTier, Data: &drag.ElementData{Type: "tier-row", TierID: toTier}},
	}
}

func itemAt(t *testing.T, bd *board.Board, pos int) string {
	t.Helper()
	slot := bd.GridSnapshot()[pos]
	if !slot.Matched {
		return ""
	}
	return slot.Item.ID
}

func TestAssignToEmptySlot(t *testing.T) {
	bd, router := newEnv(t, rules.Default())

	res := bd.HandleDragEnd(router, backlogDrop("x1", 3, false))
	require.True(t, res.Success)
	assert.Equal(t, domain.OpAssign, res.OperationType)
	assert.Equal(t, domain.ActionApplied, res.Action)
	require.NotNil(t, res.Metadata)
	assert.Equal(t, 3, *res.Metadata.ToPosition)
	assert.Equal(t, "x1", itemAt(t, bd, 3))
	assert.Len(t, bd.AvailableItems(), 2)
}

func TestAssignRejectionsLeaveStateUntouched(t *testing.T) {
	tests := []struct {
		name string
		ev   drag.EndEvent
		code domain.ErrorCode
	}{
		{"unknown item", backlogDrop("ghost", 3, false), domain.ErrSourceNotFound},
		{"out of bounds", backlogDrop("x1", 15, false), domain.ErrTargetOutOfBounds},
		{"negative position", backlogDrop("x1", -1, false), domain.ErrTargetOutOfBounds},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bd, router := newEnv(t, rules.Default())
			before := bd.GridSnapshot()

			res := bd.HandleDragEnd(router, tc.ev)
			require.False(t, res.Success)
			assert.Equal(t, domain.ActionRejected, res.Action)
			assert.Equal(t, tc.code, res.Code)
			assert.Equal(t, before, bd.GridSnapshot())
			assert.Len(t, bd.AvailableItems(), 3)
		})
	}
}

func TestAlreadyPlacedItemIsRejected(t *testing.T) {
	bd, router := newEnv(t, rules.Default())
	require.True(t, bd.HandleDragEnd(router, backlogDrop("x1", 0, false)).Success)

	res := bd.HandleDragEnd(router, backlogDrop("x1", 5, false))
	require.False(t, res.Success)
	assert.Equal(t, domain.ErrSourceAlreadyUsed, res.Code)
	assert.Equal(t, "", itemAt(t, bd, 5))
}

func TestLockedItemIsRejected(t *testing.T) {
	bd, router := newEnv(t, rules.Default())
	bd.LockItem("x1")

	res := bd.HandleDragEnd(router, backlogDrop("x1", 0, false))
	require.False(t, res.Success)
	assert.Equal(t, domain.ErrItemLocked, res.Code)

	bd.UnlockItem("x1")
	assert.True(t, bd.HandleDragEnd(router, backlogDrop("x1", 0, false)).Success)
}

func TestMoveToEmptySlot(t *testing.T) {
	bd, router := newEnv(t, rules.Default())
	require.True(t, bd.HandleDragEnd(router, backlogDrop("x1", 2, false)).Success)

	res := bd.HandleDragEnd(router, gridDrop("x1", 2, 7, false))
	require.True(t, res.Success)
	assert.Equal(t, domain.OpMove, res.OperationType)
	assert.Equal(t, "", itemAt(t, bd, 2))
	assert.Equal(t, "x1", itemAt(t, bd, 7))
}

func TestOccupiedTargetSwapPolicy(t *testing.T) {
	t.Run("swaps enabled", func(t *testing.T) {
		bd, router := newEnv(t, rules.Default())
		require.True(t, bd.HandleDragEnd(router, backlogDrop("x1", 1, false)).Success)
		require.True(t, bd.HandleDragEnd(router, backlogDrop("x2", 4, false)).Success)

		res := bd.HandleDragEnd(router, gridDrop("x1", 1, 4, true))
		require.True(t, res.Success)
		assert.Equal(t, domain.OpSwap, res.OperationType)
		require.NotNil(t, res.Metadata)
		assert.True(t, res.Metadata.WasSwap)
		assert.Equal(t, "x2", res.Metadata.DisplacedItem.ID)
		assert.Equal(t, "x2", itemAt(t, bd, 1))
		assert.Equal(t, "x1", itemAt(t, bd, 4))
	})

	t.Run("swaps disabled", func(t *testing.T) {
		r := rules.Default()
		r.AllowSwap = false
		bd, router := newEnv(t, r)
		require.True(t, bd.HandleDragEnd(router, backlogDrop("x1", 1, false)).Success)
		require.True(t, bd.HandleDragEnd(router, backlogDrop("x2", 4, false)).Success)

		// Classifies as move, which fails on occupancy.
		res := bd.HandleDragEnd(router, gridDrop("x1", 1, 4, true))
		require.False(t, res.Success)
		assert.Equal(t, domain.OpMove, res.OperationType)
		assert.Equal(t, domain.ErrTargetPositionOccupied, res.Code)
		assert.Equal(t, "x1", itemAt(t, bd, 1))
		assert.Equal(t, "x2", itemAt(t, bd, 4))
	})
}

func TestDoubleSwapRestoresOriginalState(t *testing.T) {
	bd, router := newEnv(t, rules.Default())
	require.True(t, bd.HandleDragEnd(router, backlogDrop("x1", 0, false)).Success)
	require.True(t, bd.HandleDragEnd(router, backlogDrop("x2", 9, false)).Success)

	require.True(t, bd.HandleDragEnd(router, gridDrop("x1", 0, 9, true)).Success)
	require.True(t, bd.HandleDragEnd(router, gridDrop("x1", 9, 0, true)).Success)

	assert.Equal(t, "x1", itemAt(t, bd, 0))
	assert.Equal(t, "x2", itemAt(t, bd, 9))
}

func TestSamePositionDropIsSilentNoop(t *testing.T) {
	bd, router := newEnv(t, rules.Default())
	require.True(t, bd.HandleDragEnd(router, backlogDrop("x1", 4, false)).Success)
	before := bd.GridSnapshot()

	res := bd.HandleDragEnd(router, gridDrop("x1", 4, 4, true))
	assert.True(t, res.Success)
	assert.Equal(t, domain.OpNoop, res.OperationType)
	assert.Equal(t, domain.ActionRejected, res.Action)
	assert.Empty(t, res.Code)
	assert.Equal(t, before, bd.GridSnapshot())

	// Repeating it changes nothing either.
	bd.HandleDragEnd(router, gridDrop("x1", 4, 4, true))
	assert.Equal(t, before, bd.GridSnapshot())
}

func TestCancelledDropIsSilentNoop(t *testing.T) {
	bd, router := newEnv(t, rules.Default())
	ev := drag.EndEvent{
		Active: &drag.ElementRef{ID: "x1", Data: &drag.ElementData{Type: "backlog", ItemID: "x1"}},
	}
	res := bd.HandleDragEnd(router, ev)
	assert.True(t, res.Success)
	assert.Equal(t, domain.OpNoop, res.OperationType)
}

func TestUnparseableEventIsUnknownError(t *testing.T) {
	bd, router := newEnv(t, rules.Default())
	res := bd.HandleDragEnd(router, drag.EndEvent{})
	require.False(t, res.Success)
	assert.Equal(t, domain.ErrUnknown, res.Code)
}

func TestTierLifecycle(t *testing.T) {
	bd, router := newEnv(t, rules.Default())

	// backlog -> tier S
	ev := drag.EndEvent{
		Active: &drag.ElementRef{ID: "x1", Data: &drag.ElementData{Type: "backlog", ItemID: "x1"}},
		Over:   &drag.ElementRef{ID: "tier-S", Data: &drag.ElementData{Type: "tier-row", TierID: "S"}},
	}
	res := bd.HandleDragEnd(router, ev)
	require.True(t, res.Success)
	assert.Equal(t, domain.OpTierAssign, res.OperationType)
	assert.Equal(t, "S", res.Metadata.ToTierID)
	require.Len(t, bd.TierItems("S"), 1)

	// S -> A
	res = bd.HandleDragEnd(router, tierDrop("x1", "S", "A"))
	require.True(t, res.Success)
	assert.Equal(t, domain.OpTierTransfer, res.OperationType)
	assert.Empty(t, bd.TierItems("S"))
	require.Len(t, bd.TierItems("A"), 1)

	// A -> unranked pool
	ev = drag.EndEvent{
		Active: &drag.ElementRef{ID: "x1", Data: &drag.ElementData{Type: "tier", ItemID: "x1", TierID: "A"}},
		Over:   &drag.ElementRef{ID: "unranked-pool", Data: &drag.ElementData{Type: "unranked-pool"}},
	}
	res = bd.HandleDragEnd(router, ev)
	require.True(t, res.Success)
	assert.Equal(t, domain.OpUnrank, res.OperationType)
	require.Len(t, bd.PoolItems(), 1)

	// pool -> tier B
	ev = drag.EndEvent{
		Active: &drag.ElementRef{ID: "x1", Data: &drag.ElementData{Type: "unranked-pool", ItemID: "x1"}},
		Over:   &drag.ElementRef{ID: "tier-B", Data: &drag.ElementData{Type: "tier-row", TierID: "B"}},
	}
	res = bd.HandleDragEnd(router, ev)
	require.True(t, res.Success)
	assert.Equal(t, domain.OpRankFromPool, res.OperationType)
	require.Len(t, bd.TierItems("B"), 1)

	// tier B -> grid slot 0
	ev = drag.EndEvent{
		Active: &drag.ElementRef{ID: "x1", Data: &drag.ElementData{Type: "tier", ItemID: "x1", TierID: "B"}},
		Over:   &drag.ElementRef{ID: "grid-slot-0", Data: &drag.ElementData{Type: "grid-slot", Position: domain.Ptr(0)}},
	}
	res = bd.HandleDragEnd(router, ev)
	require.True(t, res.Success)
	assert.Equal(t, domain.OpTierToGrid, res.OperationType)
	assert.Empty(t, bd.TierItems("B"))
	assert.Equal(t, "x1", itemAt(t, bd, 0))

	// grid -> tier S
	ev = drag.EndEvent{
		Active: &drag.ElementRef{ID: "x1", Data: &drag.ElementData{Type: "grid", ItemID: "x1", GridPosition: domain.Ptr(0)}},
		Over:   &drag.ElementRef{ID: "tier-S", Data: &drag.ElementData{Type: "tier-row", TierID: "S"}},
	}
	res = bd.HandleDragEnd(router, ev)
	require.True(t, res.Success)
	assert.Equal(t, domain.OpGridToTier, res.OperationType)
	assert.Equal(t, "", itemAt(t, bd, 0))
	require.Len(t, bd.TierItems("S"), 1)
}

func TestTierItemDropInsertsAtOccupantIndex(t *testing.T) {
	bd, router := newEnv(t, rules.Default())
	for _, id := range []string{"x1", "x2"} {
		ev := drag.EndEvent{
			Active: &drag.ElementRef{ID: id, Data: &drag.ElementData{Type: "backlog", ItemID: id}},
			Over:   &drag.ElementRef{ID: "tier-S", Data: &drag.ElementData{Type: "tier-row", TierID: "S"}},
		}
		require.True(t, bd.HandleDragEnd(router, ev).Success)
	}

	// Dropping x3 onto x1 (index 0) inserts before it.
	ev := drag.EndEvent{
		Active: &drag.ElementRef{ID: "x3", Data: &drag.ElementData{Type: "backlog", ItemID: "x3"}},
		Over:   &drag.ElementRef{ID: "x1", Data: &drag.ElementData{Type: "tier-item", TierID: "S", Position: domain.Ptr(0)}},
	}
	require.True(t, bd.HandleDragEnd(router, ev).Success)

	items := bd.TierItems("S")
	require.Len(t, items, 3)
	assert.Equal(t, "x3", items[0].ID)
	assert.Equal(t, "x1", items[1].ID)
	assert.Equal(t, "x2", items[2].ID)
}

func TestTierMoveReorders(t *testing.T) {
	bd, router := newEnv(t, rules.Default())
	for _, id := range []string{"x1", "x2", "x3"} {
		ev := drag.EndEvent{
			Active: &drag.ElementRef{ID: id, Data: &drag.ElementData{Type: "backlog", ItemID: id}},
			Over:   &drag.ElementRef{ID: "tier-S", Data: &drag.ElementData{Type: "tier-row", TierID: "S"}},
		}
		require.True(t, bd.HandleDragEnd(router, ev).Success)
	}

	// Drag x3 onto x1 within the same tier.
	ev := drag.EndEvent{
		Active: &drag.ElementRef{ID: "x3", Data: &drag.ElementData{Type: "tier", ItemID: "x3", TierID: "S"}},
		Over:   &drag.ElementRef{ID: "x1", Data: &drag.ElementData{Type: "tier-item", TierID: "S", Position: domain.Ptr(0)}},
	}
	res := bd.HandleDragEnd(router, ev)
	require.True(t, res.Success)
	assert.Equal(t, domain.OpTierMove, res.OperationType)

	items := bd.TierItems("S")
	assert.Equal(t, "x3", items[0].ID)
	assert.Equal(t, "x1", items[1].ID)
	assert.Equal(t, "x2", items[2].ID)
}

func TestTierAssignToMissingTier(t *testing.T) {
	bd, router := newEnv(t, rules.Default())
	ev := drag.EndEvent{
		Active: &drag.ElementRef{ID: "x1", Data: &drag.ElementData{Type: "backlog", ItemID: "x1"}},
		Over:   &drag.ElementRef{ID: "tier-Z", Data: &drag.ElementData{Type: "tier-row", TierID: "Z"}},
	}
	res := bd.HandleDragEnd(router, ev)
	require.False(t, res.Success)
	assert.Equal(t, domain.ErrTargetPositionInvalid, res.Code)
	assert.Len(t, bd.AvailableItems(), 3)
}

func TestRemoveViaDispatch(t *testing.T) {
	bd, router := newEnv(t, rules.Default())
	require.True(t, bd.HandleDragEnd(router, backlogDrop("x1", 6, false)).Success)

	dc := &domain.DragContext{
		Source:        domain.DragSource{Type: domain.SourceGrid, ItemID: "x1", GridPosition: domain.Ptr(6)},
		Target:        domain.DragTarget{Type: domain.TargetUnknown},
		OperationType: domain.OpRemove,
	}
	res := bd.Dispatch(router, dc)
	require.True(t, res.Success)
	assert.Equal(t, domain.OpRemove, res.OperationType)
	assert.Equal(t, "", itemAt(t, bd, 6))
	// The removed item is placeable again.
	assert.Len(t, bd.AvailableItems(), 3)

	// Removing an empty slot fails.
	res = bd.Dispatch(router, dc)
	require.False(t, res.Success)
	assert.Equal(t, domain.ErrSourceNotFound, res.Code)
}

func TestUnregisteredOperationIsUnknownError(t *testing.T) {
	bd, _ := newEnv(t, rules.Default())
	router := operation.NewRouter(rules.NewAuthority(rules.Default()), zap.NewNop())

	res := bd.Dispatch(router, &domain.DragContext{
		Source:        domain.DragSource{Type: domain.SourceBacklog, ItemID: "x1"},
		Target:        domain.DragTarget{Type: domain.TargetGridSlot, Position: domain.Ptr(0)},
		OperationType: domain.OpAssign,
	})
	require.False(t, res.Success)
	assert.Equal(t, domain.ErrUnknown, res.Code)
}

func TestResultAndValidationCallbacks(t *testing.T) {
	bd, router := newEnv(t, rules.Default())

	var results []domain.OperationResult
	var codes []domain.ErrorCode
	router.SetResultHandler(func(res domain.OperationResult, _ *domain.DragContext) {
		results = append(results, res)
	})
	router.SetValidationErrorHandler(func(code domain.ErrorCode, _ *domain.DragContext) {
		codes = append(codes, code)
	})

	bd.HandleDragEnd(router, backlogDrop("x1", 0, false))
	bd.HandleDragEnd(router, backlogDrop("ghost", 1, false))

	require.Len(t, results, 1)
	assert.Equal(t, domain.OpAssign, results[0].OperationType)
	require.Len(t, codes, 1)
	assert.Equal(t, domain.ErrSourceNotFound, codes[0])
}

func TestRulesChangeAppliesToNextGesture(t *testing.T) {
	bd, router := newEnv(t, rules.Default())
	require.True(t, bd.HandleDragEnd(router, backlogDrop("x1", 1, false)).Success)
	require.True(t, bd.HandleDragEnd(router, backlogDrop("x2", 4, false)).Success)

	r := router.Authority().Rules()
	r.AllowSwap = false
	router.Authority().SetRules(r)

	res := bd.HandleDragEnd(router, gridDrop("x1", 1, 4, true))
	require.False(t, res.Success)
	assert.Equal(t, domain.OpMove, res.OperationType)
	assert.Equal(t, domain.ErrTargetPositionOccupied, res.Code)
}
