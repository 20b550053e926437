package board

import (
	"fmt"

	"github.com/xkazm04/goat/internal/domain"
)

// Tiers is the optional labeled-tier subsystem plus the unranked pool.
// Tiers are ordered lists, not positional grids: inserting shifts
// neighbors instead of occupying a fixed slot.
type Tiers struct {
	order []string
	byID  map[string][]domain.Item
	pool  []domain.Item
}

func NewTiers(tierIDs ...string) *Tiers {
	t := &Tiers{byID: map[string][]domain.Item{}}
	for _, id := range tierIDs {
		t.AddTier(id)
	}
	return t
}

// AddTier registers an empty tier; adding an existing id is a no-op.
func (t *Tiers) AddTier(id string) {
	if _, ok := t.byID[id]; ok {
		return
	}
	t.order = append(t.order, id)
	t.byID[id] = nil
}

func (t *Tiers) HasTier(id string) bool {
	_, ok := t.byID[id]
	return ok
}

// TierIDs lists tiers in registration order.
func (t *Tiers) TierIDs() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// ItemsInTier returns a copy of a tier's contents.
func (t *Tiers) ItemsInTier(tierID string) []domain.Item {
	src := t.byID[tierID]
	out := make([]domain.Item, len(src))
	copy(out, src)
	return out
}

// Pool returns a copy of the unranked pool.
func (t *Tiers) Pool() []domain.Item {
	out := make([]domain.Item, len(t.pool))
	copy(out, t.pool)
	return out
}

// IndexInTier reports an item's index within a tier, or -1.
func (t *Tiers) IndexInTier(tierID, itemID string) int {
	for i, it := range t.byID[tierID] {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

// InPool reports pool membership.
func (t *Tiers) InPool(itemID string) bool {
	for _, it := range t.pool {
		if it.ID == itemID {
			return true
		}
	}
	return false
}

// AssignToTier inserts an item at index; a negative index appends.
func (t *Tiers) AssignToTier(item domain.Item, tierID string, index int) error {
	items, ok := t.byID[tierID]
	if !ok {
		return fmt.Errorf("tier %s does not exist", tierID)
	}
	if idx := t.IndexInTier(tierID, item.ID); idx >= 0 {
		return fmt.Errorf("item %s already in tier %s", item.ID, tierID)
	}
	t.byID[tierID] = insertAt(items, item, index)
	return nil
}

// MoveWithinTier reorders one item inside its tier.
func (t *Tiers) MoveWithinTier(tierID, itemID string, toIndex int) error {
	items, ok := t.byID[tierID]
	if !ok {
		return fmt.Errorf("tier %s does not exist", tierID)
	}
	from := t.IndexInTier(tierID, itemID)
	if from < 0 {
		return fmt.Errorf("item %s not in tier %s", itemID, tierID)
	}
	item := items[from]
	items = append(items[:from], items[from+1:]...)
	t.byID[tierID] = insertAt(items, item, toIndex)
	return nil
}

// MoveBetweenTiers removes an item from one tier and inserts it into
// another at index (negative appends).
func (t *Tiers) MoveBetweenTiers(itemID, fromTier, toTier string, index int) error {
	if !t.HasTier(toTier) {
		return fmt.Errorf("tier %s does not exist", toTier)
	}
	item, err := t.RemoveFromTier(fromTier, itemID)
	if err != nil {
		return err
	}
	return t.AssignToTier(item, toTier, index)
}

// RemoveFromTier pulls an item out of a tier and returns it.
func (t *Tiers) RemoveFromTier(tierID, itemID string) (domain.Item, error) {
	items, ok := t.byID[tierID]
	if !ok {
		return domain.Item{}, fmt.Errorf("tier %s does not exist", tierID)
	}
	idx := t.IndexInTier(tierID, itemID)
	if idx < 0 {
		return domain.Item{}, fmt.Errorf("item %s not in tier %s", itemID, tierID)
	}
	item := items[idx]
	t.byID[tierID] = append(items[:idx], items[idx+1:]...)
	return item, nil
}

// AddToUnranked appends an item to the pool.
func (t *Tiers) AddToUnranked(item domain.Item) error {
	for _, it := range t.pool {
		if it.ID == item.ID {
			return fmt.Errorf("item %s already in unranked pool", item.ID)
		}
	}
	t.pool = append(t.pool, item)
	return nil
}

// RemoveFromUnranked pulls an item out of the pool and returns it.
func (t *Tiers) RemoveFromUnranked(itemID string) (domain.Item, error) {
	for i, it := range t.pool {
		if it.ID == itemID {
			t.pool = append(t.pool[:i], t.pool[i+1:]...)
			return it, nil
		}
	}
	return domain.Item{}, fmt.Errorf("item %s not in unranked pool", itemID)
}

func insertAt(items []domain.Item, item domain.Item, index int) []domain.Item {
	if index < 0 || index >= len(items) {
		return append(items, item)
	}
	items = append(items, domain.Item{})
	copy(items[index+1:], items[index:])
	items[index] = item
	return items
}
