package board

import "github.com/xkazm04/goat/internal/domain"

// Backlog is the pool of not-yet-placed items plus their usage and lock
// state. Usage marks an item as consumed somewhere on the board; locks
// guard against a bounced duplicate gesture for the same item.
type Backlog struct {
	order  []string
	items  map[string]domain.Item
	used   map[string]bool
	locked map[string]bool
}

func NewBacklog() *Backlog {
	return &Backlog{
		items:  map[string]domain.Item{},
		used:   map[string]bool{},
		locked: map[string]bool{},
	}
}

// Add registers items, keeping insertion order for listings. Re-adding an
// existing id refreshes display fields without touching usage state.
func (b *Backlog) Add(items ...domain.Item) {
	for _, it := range items {
		if _, ok := b.items[it.ID]; !ok {
			b.order = append(b.order, it.ID)
		}
		b.items[it.ID] = it
	}
}

func (b *Backlog) GetItemByID(id string) (domain.Item, bool) {
	it, ok := b.items[id]
	return it, ok
}

func (b *Backlog) IsItemUsed(id string) bool { return b.used[id] }

func (b *Backlog) MarkItemUsed(id string, used bool) {
	if used {
		b.used[id] = true
		return
	}
	delete(b.used, id)
}

func (b *Backlog) IsItemLocked(id string) bool { return b.locked[id] }

func (b *Backlog) LockItem(id string)   { b.locked[id] = true }
func (b *Backlog) UnlockItem(id string) { delete(b.locked, id) }

// Items lists all registered items in insertion order.
func (b *Backlog) Items() []domain.Item {
	out := make([]domain.Item, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.items[id])
	}
	return out
}

// Available lists items not yet consumed by a placement.
func (b *Backlog) Available() []domain.Item {
	out := make([]domain.Item, 0, len(b.order))
	for _, id := range b.order {
		if !b.used[id] {
			out = append(out, b.items[id])
		}
	}
	return out
}
