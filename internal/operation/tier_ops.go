package operation

import (
	"fmt"

	"github.com/xkazm04/goat/internal/domain"
	"github.com/xkazm04/goat/internal/rules"
)

// insertIndex resolves where a tier drop lands: on a tier-item, at that
// occupant's index; on a tier-row, append.
func insertIndex(t domain.DragTarget) int {
	if t.Type == domain.TargetTierItem && t.Position != nil {
		return *t.Position
	}
	return -1
}

func requireTiers(s Stores) (domain.ValidationResult, bool) {
	if s.Tiers == nil {
		return domain.Invalid(domain.ErrTargetPositionInvalid, "tier subsystem is not enabled"), false
	}
	return domain.ValidOK(), true
}

// lockCheck guards items already consumed elsewhere (tier/grid residents)
// against a bounced duplicate gesture; availability does not apply to them.
func lockCheck(itemID string, s Stores) domain.ValidationResult {
	if s.Backlog != nil && s.Backlog.IsItemLocked(itemID) {
		return domain.Invalid(domain.ErrItemLocked, fmt.Sprintf("item %s is locked by an in-flight operation", itemID))
	}
	return domain.ValidOK()
}

// TierAssignHandler places a backlog or collection item into a tier.
type TierAssignHandler struct {
	Auth *rules.Authority
}

func (TierAssignHandler) Type() domain.OperationType { return domain.OpTierAssign }

func (h TierAssignHandler) Validate(dc *domain.DragContext, s Stores) domain.ValidationResult {
	if vr, ok := requireTiers(s); !ok {
		return vr
	}
	if _, vr := h.Auth.IsItemAvailable(dc.Source.ItemID, s.Backlog); !vr.Valid {
		return vr
	}
	if !s.Tiers.HasTier(dc.Target.TierID) {
		return domain.Invalid(domain.ErrTargetPositionInvalid, fmt.Sprintf("tier %s does not exist", dc.Target.TierID))
	}
	return domain.ValidOK()
}

func (h TierAssignHandler) Execute(dc *domain.DragContext, s Stores, j *Journal) (domain.OperationResult, error) {
	item, ok := s.Backlog.GetItemByID(dc.Source.ItemID)
	if !ok {
		return domain.OperationResult{}, fmt.Errorf("tier-assign: item %s vanished between validate and execute", dc.Source.ItemID)
	}
	tierID := dc.Target.TierID
	if err := s.Tiers.AssignToTier(item, tierID, insertIndex(dc.Target)); err != nil {
		return domain.OperationResult{}, err
	}
	j.Record(func() error {
		_, err := s.Tiers.RemoveFromTier(tierID, item.ID)
		return err
	})
	s.Backlog.MarkItemUsed(item.ID, true)
	j.Record(func() error {
		s.Backlog.MarkItemUsed(item.ID, false)
		return nil
	})
	return domain.OperationResult{
		Success:       true,
		OperationType: domain.OpTierAssign,
		Action:        domain.ActionApplied,
		Item:          &item,
		Metadata:      &domain.OperationMetadata{ToTierID: tierID},
	}, nil
}

// TierMoveHandler reorders an item inside its tier.
type TierMoveHandler struct {
	Auth *rules.Authority
}

func (TierMoveHandler) Type() domain.OperationType { return domain.OpTierMove }

func (h TierMoveHandler) Validate(dc *domain.DragContext, s Stores) domain.ValidationResult {
	if vr, ok := requireTiers(s); !ok {
		return vr
	}
	if vr := lockCheck(dc.Source.ItemID, s); !vr.Valid {
		return vr
	}
	if s.Tiers.IndexInTier(dc.Source.TierID, dc.Source.ItemID) < 0 {
		return domain.Invalid(domain.ErrSourceNotFound, fmt.Sprintf("item %s not in tier %s", dc.Source.ItemID, dc.Source.TierID))
	}
	return domain.ValidOK()
}

func (h TierMoveHandler) Execute(dc *domain.DragContext, s Stores, j *Journal) (domain.OperationResult, error) {
	tierID, itemID := dc.Source.TierID, dc.Source.ItemID
	fromIdx := s.Tiers.IndexInTier(tierID, itemID)
	toIdx := insertIndex(dc.Target)
	if err := s.Tiers.MoveWithinTier(tierID, itemID, toIdx); err != nil {
		return domain.OperationResult{}, err
	}
	j.Record(func() error { return s.Tiers.MoveWithinTier(tierID, itemID, fromIdx) })
	newIdx := s.Tiers.IndexInTier(tierID, itemID)
	return domain.OperationResult{
		Success:       true,
		OperationType: domain.OpTierMove,
		Action:        domain.ActionApplied,
		Metadata: &domain.OperationMetadata{
			FromTierID:   tierID,
			ToTierID:     tierID,
			FromPosition: domain.Ptr(fromIdx),
			ToPosition:   domain.Ptr(newIdx),
		},
	}, nil
}

// TierTransferHandler moves an item from one tier to another.
type TierTransferHandler struct {
	Auth *rules.Authority
}

func (TierTransferHandler) Type() domain.OperationType { return domain.OpTierTransfer }

func (h TierTransferHandler) Validate(dc *domain.DragContext, s Stores) domain.ValidationResult {
	if vr, ok := requireTiers(s); !ok {
		return vr
	}
	if vr := lockCheck(dc.Source.ItemID, s); !vr.Valid {
		return vr
	}
	if s.Tiers.IndexInTier(dc.Source.TierID, dc.Source.ItemID) < 0 {
		return domain.Invalid(domain.ErrSourceNotFound, fmt.Sprintf("item %s not in tier %s", dc.Source.ItemID, dc.Source.TierID))
	}
	if !s.Tiers.HasTier(dc.Target.TierID) {
		return domain.Invalid(domain.ErrTargetPositionInvalid, fmt.Sprintf("tier %s does not exist", dc.Target.TierID))
	}
	return domain.ValidOK()
}

func (h TierTransferHandler) Execute(dc *domain.DragContext, s Stores, j *Journal) (domain.OperationResult, error) {
	itemID := dc.Source.ItemID
	fromTier, toTier := dc.Source.TierID, dc.Target.TierID
	fromIdx := s.Tiers.IndexInTier(fromTier, itemID)
	if err := s.Tiers.MoveBetweenTiers(itemID, fromTier, toTier, insertIndex(dc.Target)); err != nil {
		return domain.OperationResult{}, err
	}
	j.Record(func() error { return s.Tiers.MoveBetweenTiers(itemID, toTier, fromTier, fromIdx) })
	return domain.OperationResult{
		Success:       true,
		OperationType: domain.OpTierTransfer,
		Action:        domain.ActionApplied,
		Metadata:      &domain.OperationMetadata{FromTierID: fromTier, ToTierID: toTier},
	}, nil
}

// TierToGridHandler promotes a tier or pool resident into an empty grid
// slot.
type TierToGridHandler struct {
	Auth *rules.Authority
}

func (TierToGridHandler) Type() domain.OperationType { return domain.OpTierToGrid }

func (h TierToGridHandler) Validate(dc *domain.DragContext, s Stores) domain.ValidationResult {
	if vr, ok := requireTiers(s); !ok {
		return vr
	}
	if vr := lockCheck(dc.Source.ItemID, s); !vr.Valid {
		return vr
	}
	switch dc.Source.Type {
	case domain.SourceTier:
		if s.Tiers.IndexInTier(dc.Source.TierID, dc.Source.ItemID) < 0 {
			return domain.Invalid(domain.ErrSourceNotFound, fmt.Sprintf("item %s not in tier %s", dc.Source.ItemID, dc.Source.TierID))
		}
	case domain.SourceUnrankedPool:
		if !s.Tiers.InPool(dc.Source.ItemID) {
			return domain.Invalid(domain.ErrSourceNotFound, fmt.Sprintf("item %s not in unranked pool", dc.Source.ItemID))
		}
	}
	if dc.Target.Position == nil {
		return domain.Invalid(domain.ErrTargetPositionInvalid, "grid-slot target without a position")
	}
	return h.Auth.IsValidPosition(*dc.Target.Position, s.Grid.Snapshot())
}

func (h TierToGridHandler) Execute(dc *domain.DragContext, s Stores, j *Journal) (domain.OperationResult, error) {
	pos := *dc.Target.Position
	var (
		item domain.Item
		err  error
	)
	if dc.Source.Type == domain.SourceUnrankedPool {
		item, err = s.Tiers.RemoveFromUnranked(dc.Source.ItemID)
		if err != nil {
			return domain.OperationResult{}, err
		}
		it := item
		j.Record(func() error { return s.Tiers.AddToUnranked(it) })
	} else {
		tierID := dc.Source.TierID
		fromIdx := s.Tiers.IndexInTier(tierID, dc.Source.ItemID)
		item, err = s.Tiers.RemoveFromTier(tierID, dc.Source.ItemID)
		if err != nil {
			return domain.OperationResult{}, err
		}
		it := item
		j.Record(func() error { return s.Tiers.AssignToTier(it, tierID, fromIdx) })
	}
	if err := s.Grid.AssignItemToGrid(item, pos); err != nil {
		return domain.OperationResult{}, err
	}
	j.Record(func() error {
		_, err := s.Grid.RemoveItemFromGrid(pos)
		return err
	})
	return domain.OperationResult{
		Success:       true,
		OperationType: domain.OpTierToGrid,
		Action:        domain.ActionApplied,
		Item:          &item,
		Metadata: &domain.OperationMetadata{
			FromTierID: dc.Source.TierID,
			ToPosition: domain.Ptr(pos),
		},
	}, nil
}

// GridToTierHandler demotes a grid occupant into a tier.
type GridToTierHandler struct {
	Auth *rules.Authority
}

func (GridToTierHandler) Type() domain.OperationType { return domain.OpGridToTier }

func (h GridToTierHandler) Validate(dc *domain.DragContext, s Stores) domain.ValidationResult {
	if vr, ok := requireTiers(s); !ok {
		return vr
	}
	if dc.Source.GridPosition == nil {
		return domain.Invalid(domain.ErrTargetPositionInvalid, "grid source without a position")
	}
	grid := s.Grid.Snapshot()
	pos := *dc.Source.GridPosition
	if pos < 0 || pos >= len(grid) {
		return domain.Invalid(domain.ErrTargetOutOfBounds, fmt.Sprintf("source position %d outside [0,%d)", pos, len(grid)))
	}
	if !grid[pos].Matched {
		return domain.Invalid(domain.ErrSourceNotFound, fmt.Sprintf("source slot %d is empty", pos))
	}
	if !s.Tiers.HasTier(dc.Target.TierID) {
		return domain.Invalid(domain.ErrTargetPositionInvalid, fmt.Sprintf("tier %s does not exist", dc.Target.TierID))
	}
	return domain.ValidOK()
}

func (h GridToTierHandler) Execute(dc *domain.DragContext, s Stores, j *Journal) (domain.OperationResult, error) {
	pos := *dc.Source.GridPosition
	tierID := dc.Target.TierID
	item, err := s.Grid.RemoveItemFromGrid(pos)
	if err != nil {
		return domain.OperationResult{}, err
	}
	moved := *item
	j.Record(func() error { return s.Grid.AssignItemToGrid(moved, pos) })
	if err := s.Tiers.AssignToTier(moved, tierID, insertIndex(dc.Target)); err != nil {
		return domain.OperationResult{}, err
	}
	j.Record(func() error {
		_, err := s.Tiers.RemoveFromTier(tierID, moved.ID)
		return err
	})
	return domain.OperationResult{
		Success:       true,
		OperationType: domain.OpGridToTier,
		Action:        domain.ActionApplied,
		Item:          &moved,
		Metadata: &domain.OperationMetadata{
			FromPosition: domain.Ptr(pos),
			ToTierID:     tierID,
		},
	}, nil
}

// UnrankHandler drops a tier resident back into the unranked pool.
type UnrankHandler struct {
	Auth *rules.Authority
}

func (UnrankHandler) Type() domain.OperationType { return domain.OpUnrank }

func (h UnrankHandler) Validate(dc *domain.DragContext, s Stores) domain.ValidationResult {
	if vr, ok := requireTiers(s); !ok {
		return vr
	}
	if vr := lockCheck(dc.Source.ItemID, s); !vr.Valid {
		return vr
	}
	if s.Tiers.IndexInTier(dc.Source.TierID, dc.Source.ItemID) < 0 {
		return domain.Invalid(domain.ErrSourceNotFound, fmt.Sprintf("item %s not in tier %s", dc.Source.ItemID, dc.Source.TierID))
	}
	return domain.ValidOK()
}

func (h UnrankHandler) Execute(dc *domain.DragContext, s Stores, j *Journal) (domain.OperationResult, error) {
	tierID, itemID := dc.Source.TierID, dc.Source.ItemID
	fromIdx := s.Tiers.IndexInTier(tierID, itemID)
	item, err := s.Tiers.RemoveFromTier(tierID, itemID)
	if err != nil {
		return domain.OperationResult{}, err
	}
	j.Record(func() error { return s.Tiers.AssignToTier(item, tierID, fromIdx) })
	if err := s.Tiers.AddToUnranked(item); err != nil {
		return domain.OperationResult{}, err
	}
	j.Record(func() error {
		_, err := s.Tiers.RemoveFromUnranked(item.ID)
		return err
	})
	return domain.OperationResult{
		Success:       true,
		OperationType: domain.OpUnrank,
		Action:        domain.ActionApplied,
		Item:          &item,
		Metadata:      &domain.OperationMetadata{FromTierID: tierID},
	}, nil
}

// RankFromPoolHandler lifts an unranked-pool item into a tier.
type RankFromPoolHandler struct {
	Auth *rules.Authority
}

func (RankFromPoolHandler) Type() domain.OperationType { return domain.OpRankFromPool }

func (h RankFromPoolHandler) Validate(dc *domain.DragContext, s Stores) domain.ValidationResult {
	if vr, ok := requireTiers(s); !ok {
		return vr
	}
	if vr := lockCheck(dc.Source.ItemID, s); !vr.Valid {
		return vr
	}
	if !s.Tiers.InPool(dc.Source.ItemID) {
		return domain.Invalid(domain.ErrSourceNotFound, fmt.Sprintf("item %s not in unranked pool", dc.Source.ItemID))
	}
	if !s.Tiers.HasTier(dc.Target.TierID) {
		return domain.Invalid(domain.ErrTargetPositionInvalid, fmt.Sprintf("tier %s does not exist", dc.Target.TierID))
	}
	return domain.ValidOK()
}

func (h RankFromPoolHandler) Execute(dc *domain.DragContext, s Stores, j *Journal) (domain.OperationResult, error) {
	tierID := dc.Target.TierID
	item, err := s.Tiers.RemoveFromUnranked(dc.Source.ItemID)
	if err != nil {
		return domain.OperationResult{}, err
	}
	j.Record(func() error { return s.Tiers.AddToUnranked(item) })
	if err := s.Tiers.AssignToTier(item, tierID, insertIndex(dc.Target)); err != nil {
		return domain.OperationResult{}, err
	}
	j.Record(func() error {
		_, err := s.Tiers.RemoveFromTier(tierID, item.ID)
		return err
	})
	return domain.OperationResult{
		Success:       true,
		OperationType: domain.OpRankFromPool,
		Action:        domain.ActionApplied,
		Item:          &item,
		Metadata:      &domain.OperationMetadata{ToTierID: tierID},
	}, nil
}
