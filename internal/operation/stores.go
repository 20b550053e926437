package operation

import "github.com/xkazm04/goat/internal/domain"

// GridStore is the contract over the fixed-length ranked grid.
// AssignItemToGrid overwrites the slot's occupant; MoveGridItem requires an
// empty destination.
type GridStore interface {
	Snapshot() []domain.Slot
	MaxGridSize() int
	AssignItemToGrid(item domain.Item, pos int) error
	RemoveItemFromGrid(pos int) (*domain.Item, error)
	MoveGridItem(from, to int) error
	ItemAt(pos int) (*domain.Item, bool)
}

// BacklogStore resolves items and tracks consumption and locks. It embeds
// the authority's lookup contract so validation and execution read the same
// state.
type BacklogStore interface {
	GetItemByID(id string) (domain.Item, bool)
	IsItemUsed(id string) bool
	IsItemLocked(id string) bool
	MarkItemUsed(id string, used bool)
}

// TierStore is the optional labeled-tier subsystem. A nil TierStore makes
// every tier operation fail validation.
type TierStore interface {
	HasTier(id string) bool
	IndexInTier(tierID, itemID string) int
	InPool(itemID string) bool
	AssignToTier(item domain.Item, tierID string, index int) error
	MoveWithinTier(tierID, itemID string, toIndex int) error
	MoveBetweenTiers(itemID, fromTier, toTier string, index int) error
	RemoveFromTier(tierID, itemID string) (domain.Item, error)
	AddToUnranked(item domain.Item) error
	RemoveFromUnranked(itemID string) (domain.Item, error)
}

// Stores bundles the externally-owned containers one gesture operates on.
// Handlers never retain a Stores value past the call.
type Stores struct {
	Grid    GridStore
	Backlog BacklogStore
	Tiers   TierStore
}
