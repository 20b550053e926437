package operation

import (
	"fmt"

	"github.com/xkazm04/goat/internal/domain"
	"github.com/xkazm04/goat/internal/rules"
)

// AssignHandler places a backlog or collection item into an empty grid slot.
type AssignHandler struct {
	Auth *rules.Authority
}

func (AssignHandler) Type() domain.OperationType { return domain.OpAssign }

func (h AssignHandler) Validate(dc *domain.DragContext, s Stores) domain.ValidationResult {
	if _, vr := h.Auth.IsItemAvailable(dc.Source.ItemID, s.Backlog); !vr.Valid {
		return vr
	}
	if dc.Target.Position == nil {
		return domain.Invalid(domain.ErrTargetPositionInvalid, "grid-slot target without a position")
	}
	// Occupied is a genuine error here: the classifier only yields assign
	// for items arriving from outside the grid.
	return h.Auth.IsValidPosition(*dc.Target.Position, s.Grid.Snapshot())
}

func (h AssignHandler) Execute(dc *domain.DragContext, s Stores, j *Journal) (domain.OperationResult, error) {
	item, ok := s.Backlog.GetItemByID(dc.Source.ItemID)
	if !ok {
		return domain.OperationResult{}, fmt.Errorf("assign: item %s vanished between validate and execute", dc.Source.ItemID)
	}
	pos := *dc.Target.Position
	if err := s.Grid.AssignItemToGrid(item, pos); err != nil {
		return domain.OperationResult{}, err
	}
	j.Record(func() error {
		_, err := s.Grid.RemoveItemFromGrid(pos)
		return err
	})
	s.Backlog.MarkItemUsed(item.ID, true)
	j.Record(func() error {
		s.Backlog.MarkItemUsed(item.ID, false)
		return nil
	})
	return domain.OperationResult{
		Success:       true,
		OperationType: domain.OpAssign,
		Action:        domain.ActionApplied,
		Item:          &item,
		Metadata:      &domain.OperationMetadata{ToPosition: domain.Ptr(pos)},
	}, nil
}

// MoveHandler relocates a grid occupant to an empty slot.
type MoveHandler struct {
	Auth *rules.Authority
}

func (MoveHandler) Type() domain.OperationType { return domain.OpMove }

func (h MoveHandler) Validate(dc *domain.DragContext, s Stores) domain.ValidationResult {
	// An occupied target only reaches move when swaps are disabled; CanTransfer
	// rejects it with TARGET_POSITION_OCCUPIED.
	return h.Auth.CanTransfer(rules.Transfer{
		ItemID: dc.Source.ItemID,
		From:   rules.Location{Kind: rules.LocGrid, Position: dc.Source.GridPosition},
		To:     rules.Location{Kind: rules.LocGrid, Position: dc.Target.Position},
	}, s.Grid.Snapshot(), s.Backlog)
}

func (h MoveHandler) Execute(dc *domain.DragContext, s Stores, j *Journal) (domain.OperationResult, error) {
	from, to := *dc.Source.GridPosition, *dc.Target.Position
	item, _ := s.Grid.ItemAt(from)
	if err := s.Grid.MoveGridItem(from, to); err != nil {
		return domain.OperationResult{}, err
	}
	j.Record(func() error { return s.Grid.MoveGridItem(to, from) })
	return domain.OperationResult{
		Success:       true,
		OperationType: domain.OpMove,
		Action:        domain.ActionApplied,
		Item:          item,
		Metadata: &domain.OperationMetadata{
			FromPosition: domain.Ptr(from),
			ToPosition:   domain.Ptr(to),
		},
	}, nil
}

// SwapHandler exchanges the occupants of two occupied slots atomically.
type SwapHandler struct {
	Auth *rules.Authority
}

func (SwapHandler) Type() domain.OperationType { return domain.OpSwap }

func (h SwapHandler) Validate(dc *domain.DragContext, s Stores) domain.ValidationResult {
	if !h.Auth.Rules().AllowSwap {
		return domain.Invalid(domain.ErrTargetPositionOccupied, "swaps are disabled by policy")
	}
	if dc.Source.GridPosition == nil || dc.Target.Position == nil {
		return domain.Invalid(domain.ErrTargetPositionInvalid, "swap requires two grid positions")
	}
	grid := s.Grid.Snapshot()
	from, to := *dc.Source.GridPosition, *dc.Target.Position
	if from < 0 || from >= len(grid) || to < 0 || to >= len(grid) {
		return domain.Invalid(domain.ErrTargetOutOfBounds, fmt.Sprintf("swap positions %d,%d outside [0,%d)", from, to, len(grid)))
	}
	if from == to {
		return domain.Invalid(domain.ErrSamePosition, "cannot swap a slot with itself")
	}
	if !grid[from].Matched {
		return domain.Invalid(domain.ErrSourceNotFound, fmt.Sprintf("source slot %d is empty", from))
	}
	if !grid[to].Matched {
		// An empty target should have classified as move.
		return domain.Invalid(domain.ErrTargetPositionInvalid, fmt.Sprintf("target slot %d is empty; not a swap", to))
	}
	return domain.ValidOK()
}

func (h SwapHandler) Execute(dc *domain.DragContext, s Stores, j *Journal) (domain.OperationResult, error) {
	from, to := *dc.Source.GridPosition, *dc.Target.Position
	a, okA := s.Grid.ItemAt(from)
	b, okB := s.Grid.ItemAt(to)
	if !okA || !okB {
		return domain.OperationResult{}, fmt.Errorf("swap: slots %d,%d no longer both occupied", from, to)
	}
	srcItem, dstItem := *a, *b
	if err := s.Grid.AssignItemToGrid(dstItem, from); err != nil {
		return domain.OperationResult{}, err
	}
	j.Record(func() error { return s.Grid.AssignItemToGrid(srcItem, from) })
	if err := s.Grid.AssignItemToGrid(srcItem, to); err != nil {
		return domain.OperationResult{}, err
	}
	j.Record(func() error { return s.Grid.AssignItemToGrid(dstItem, to) })
	return domain.OperationResult{
		Success:       true,
		OperationType: domain.OpSwap,
		Action:        domain.ActionApplied,
		Item:          &srcItem,
		Metadata: &domain.OperationMetadata{
			FromPosition:  domain.Ptr(from),
			ToPosition:    domain.Ptr(to),
			WasSwap:       true,
			DisplacedItem: &dstItem,
		},
	}, nil
}

// RemoveHandler clears a grid slot and returns its occupant to the backlog.
// The classifier never produces remove; it is dispatched programmatically.
type RemoveHandler struct {
	Auth *rules.Authority
}

func (RemoveHandler) Type() domain.OperationType { return domain.OpRemove }

func (h RemoveHandler) Validate(dc *domain.DragContext, s Stores) domain.ValidationResult {
	if dc.Source.GridPosition == nil {
		return domain.Invalid(domain.ErrTargetPositionInvalid, "remove requires a grid position")
	}
	grid := s.Grid.Snapshot()
	pos := *dc.Source.GridPosition
	if len(grid) == 0 {
		return domain.Invalid(domain.ErrGridNotInitialized, "grid is not initialized")
	}
	if pos < 0 || pos >= len(grid) {
		return domain.Invalid(domain.ErrTargetOutOfBounds, fmt.Sprintf("position %d outside [0,%d)", pos, len(grid)))
	}
	if !grid[pos].Matched {
		return domain.Invalid(domain.ErrSourceNotFound, fmt.Sprintf("slot %d is empty", pos))
	}
	return domain.ValidOK()
}

func (h RemoveHandler) Execute(dc *domain.DragContext, s Stores, j *Journal) (domain.OperationResult, error) {
	pos := *dc.Source.GridPosition
	item, err := s.Grid.RemoveItemFromGrid(pos)
	if err != nil {
		return domain.OperationResult{}, err
	}
	removed := *item
	j.Record(func() error { return s.Grid.AssignItemToGrid(removed, pos) })
	s.Backlog.MarkItemUsed(removed.ID, false)
	j.Record(func() error {
		s.Backlog.MarkItemUsed(removed.ID, true)
		return nil
	})
	return domain.OperationResult{
		Success:       true,
		OperationType: domain.OpRemove,
		Action:        domain.ActionApplied,
		Item:          &removed,
		Metadata:      &domain.OperationMetadata{FromPosition: domain.Ptr(pos)},
	}, nil
}
