package drag

import (
	"github.com/xkazm04/goat/internal/domain"
	"github.com/xkazm04/goat/internal/rules"
)

// Classify is the single authority for "what did the user mean". It is a
// pure decision table over the parsed source/target plus the swap policy in
// force at gesture-end; rows are evaluated top to bottom and the
// same-position check runs before the occupancy check.
func Classify(source domain.DragSource, target domain.DragTarget, r rules.Rules) domain.OperationType {
	switch target.Type {
	case domain.TargetUnknown:
		return domain.OpNoop

	case domain.TargetGridSlot:
		switch source.Type {
		case domain.SourceBacklog, domain.SourceCollection:
			return domain.OpAssign
		case domain.SourceGrid:
			if source.GridPosition != nil && target.Position != nil && *source.GridPosition == *target.Position {
				return domain.OpNoop
			}
			if target.IsOccupied && r.AllowSwap {
				return domain.OpSwap
			}
			return domain.OpMove
		case domain.SourceTier, domain.SourceUnrankedPool:
			return domain.OpTierToGrid
		}

	case domain.TargetTierRow, domain.TargetTierItem:
		switch source.Type {
		case domain.SourceBacklog, domain.SourceCollection:
			return domain.OpTierAssign
		case domain.SourceGrid:
			return domain.OpGridToTier
		case domain.SourceTier:
			if source.TierID == target.TierID {
				return domain.OpTierMove
			}
			return domain.OpTierTransfer
		case domain.SourceUnrankedPool:
			return domain.OpRankFromPool
		}

	case domain.TargetUnrankedPool:
		if source.Type == domain.SourceTier {
			return domain.OpUnrank
		}
	}
	return domain.OpNoop
}
