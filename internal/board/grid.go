package board

import (
	"fmt"

	"github.com/xkazm04/goat/internal/domain"
)

// Grid is the fixed-length ranked slot array. The sequence is never
// resized; clearing occupancy is the only form of removal. Not safe for
// concurrent use on its own; Board serializes access.
type Grid struct {
	slots []domain.Slot
}

// NewGrid allocates an empty grid of the given size.
func NewGrid(size int) *Grid {
	slots := make([]domain.Slot, size)
	for i := range slots {
		slots[i].Position = i
	}
	return &Grid{slots: slots}
}

// MaxGridSize returns the fixed slot count.
func (g *Grid) MaxGridSize() int { return len(g.slots) }

// Snapshot returns a copy of the slot array; callers never see live state.
func (g *Grid) Snapshot() []domain.Slot {
	out := make([]domain.Slot, len(g.slots))
	copy(out, g.slots)
	return out
}

// ItemAt reports the occupant of a position, if any.
func (g *Grid) ItemAt(pos int) (*domain.Item, bool) {
	if pos < 0 || pos >= len(g.slots) || !g.slots[pos].Matched {
		return nil, false
	}
	return g.slots[pos].Item, true
}

// AssignItemToGrid sets the occupant of a slot, overwriting any previous
// occupant. Swap relies on the overwrite semantics.
func (g *Grid) AssignItemToGrid(item domain.Item, pos int) error {
	if pos < 0 || pos >= len(g.slots) {
		return fmt.Errorf("assign: position %d outside [0,%d)", pos, len(g.slots))
	}
	it := item
	g.slots[pos].Matched = true
	g.slots[pos].Item = &it
	return nil
}

// RemoveItemFromGrid clears a slot's occupancy and returns the removed item.
func (g *Grid) RemoveItemFromGrid(pos int) (*domain.Item, error) {
	if pos < 0 || pos >= len(g.slots) {
		return nil, fmt.Errorf("remove: position %d outside [0,%d)", pos, len(g.slots))
	}
	if !g.slots[pos].Matched {
		return nil, fmt.Errorf("remove: slot %d is empty", pos)
	}
	item := g.slots[pos].Item
	g.slots[pos].Matched = false
	g.slots[pos].Item = nil
	return item, nil
}

// MoveGridItem relocates an occupant to an empty slot.
func (g *Grid) MoveGridItem(from, to int) error {
	if from < 0 || from >= len(g.slots) || to < 0 || to >= len(g.slots) {
		return fmt.Errorf("move: positions %d->%d outside [0,%d)", from, to, len(g.slots))
	}
	if !g.slots[from].Matched {
		return fmt.Errorf("move: slot %d is empty", from)
	}
	if g.slots[to].Matched {
		return fmt.Errorf("move: slot %d is occupied", to)
	}
	g.slots[to].Matched = true
	g.slots[to].Item = g.slots[from].Item
	g.slots[from].Matched = false
	g.slots[from].Item = nil
	return nil
}

// Restore replaces the grid contents from a snapshot of equal length. Used
// when loading a persisted session.
func (g *Grid) Restore(slots []domain.Slot) error {
	if len(slots) != len(g.slots) {
		return fmt.Errorf("restore: snapshot length %d != grid length %d", len(slots), len(g.slots))
	}
	copy(g.slots, slots)
	for i := range g.slots {
		g.slots[i].Position = i
	}
	return nil
}
