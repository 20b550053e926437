package board

import (
	"sync"

	"github.com/xkazm04/goat/internal/domain"
	"github.com/xkazm04/goat/internal/drag"
	"github.com/xkazm04/goat/internal/operation"
)

// Board is one drag-and-drop session: the grid, the backlog, and the
// optional tier subsystem, plus the lock that replays the host UI's
// single-event-loop discipline when the server handles requests from many
// goroutines. All mutation goes through HandleDragEnd or Dispatch; reads
// take copies under the same lock.
type Board struct {
	mu sync.Mutex

	ID      string
	Name    string
	grid    *Grid
	backlog *Backlog
	tiers   *Tiers
}

// New builds an empty board. Tier ids are optional; with none, every tier
// operation fails validation.
func New(id string, gridSize int, tierIDs ...string) *Board {
	return &Board{
		ID:      id,
		grid:    NewGrid(gridSize),
		backlog: NewBacklog(),
		tiers:   NewTiers(tierIDs...),
	}
}

// stores bundles this board's containers for the operation layer. Callers
// must hold b.mu.
func (b *Board) stores() operation.Stores {
	return operation.Stores{Grid: b.grid, Backlog: b.backlog, Tiers: b.tiers}
}

// HandleDragEnd routes one gesture-end event through the router, serialized
// against every other mutation of this board.
func (b *Board) HandleDragEnd(r *operation.Router, ev drag.EndEvent) domain.OperationResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	return r.HandleDragEnd(ev, b.stores())
}

// Dispatch runs a programmatic operation (e.g. remove) under the board lock.
func (b *Board) Dispatch(r *operation.Router, dc *domain.DragContext) domain.OperationResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	return r.Dispatch(dc, b.stores())
}

// AddItems registers backlog items.
func (b *Board) AddItems(items ...domain.Item) {
	b.mu.Lock()
	b.backlog.Add(items...)
	b.mu.Unlock()
}

// AddTier registers a tier.
func (b *Board) AddTier(id string) {
	b.mu.Lock()
	b.tiers.AddTier(id)
	b.mu.Unlock()
}

// LockItem marks an item as having an in-flight gesture; a second gesture
// for the same item fails validation with ITEM_LOCKED until unlocked.
func (b *Board) LockItem(id string) {
	b.mu.Lock()
	b.backlog.LockItem(id)
	b.mu.Unlock()
}

// UnlockItem releases an item lock.
func (b *Board) UnlockItem(id string) {
	b.mu.Lock()
	b.backlog.UnlockItem(id)
	b.mu.Unlock()
}

// GridSnapshot returns a copy of the slot array.
func (b *Board) GridSnapshot() []domain.Slot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.grid.Snapshot()
}

// GridSize returns the fixed slot count.
func (b *Board) GridSize() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.grid.MaxGridSize()
}

// BacklogItems lists all registered items.
func (b *Board) BacklogItems() []domain.Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.backlog.Items()
}

// AvailableItems lists backlog items not consumed by a placement.
func (b *Board) AvailableItems() []domain.Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.backlog.Available()
}

// TierIDs lists registered tiers.
func (b *Board) TierIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tiers.TierIDs()
}

// TierItems returns a tier's contents.
func (b *Board) TierItems(tierID string) []domain.Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tiers.ItemsInTier(tierID)
}

// PoolItems returns the unranked pool.
func (b *Board) PoolItems() []domain.Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tiers.Pool()
}

// RestoreState replaces grid, tier, and pool contents plus usage marks from
// a persisted snapshot.
func (b *Board) RestoreState(slots []domain.Slot, tierItems map[string][]domain.Item, pool []domain.Item) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.grid.Restore(slots); err != nil {
		return err
	}
	for _, s := range slots {
		if s.Matched && s.Item != nil {
			b.backlog.MarkItemUsed(s.Item.ID, true)
		}
	}
	for tierID, items := range tierItems {
		b.tiers.AddTier(tierID)
		for _, it := range items {
			if err := b.tiers.AssignToTier(it, tierID, -1); err != nil {
				return err
			}
			b.backlog.MarkItemUsed(it.ID, true)
		}
	}
	for _, it := range pool {
		if err := b.tiers.AddToUnranked(it); err != nil {
			return err
		}
		b.backlog.MarkItemUsed(it.ID, true)
	}
	return nil
}
