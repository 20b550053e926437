package rules

import (
	"fmt"
	"sync"

	"github.com/xkazm04/goat/internal/domain"
)

// Rules is the runtime validation policy. It is configuration, not state:
// the authority re-reads it on every call, so a change takes effect on the
// next validation.
type Rules struct {
	AllowSwap            bool `json:"allow_swap" yaml:"allow_swap"`
	RequireAvailableItem bool `json:"require_available_item" yaml:"require_available_item"`
	AllowSamePosition    bool `json:"allow_same_position" yaml:"allow_same_position"`
}

// Default matches the shipped product behavior: swaps on, double-placement
// off, same-position drops rejected.
func Default() Rules {
	return Rules{AllowSwap: true, RequireAvailableItem: true, AllowSamePosition: false}
}

// ItemLookup resolves items and their usage/lock state. Implementations
// must be cheap and side-effect free; the authority never retains one past
// the call.
type ItemLookup interface {
	GetItemByID(id string) (domain.Item, bool)
	IsItemUsed(id string) bool
	IsItemLocked(id string) bool
}

// Authority is the centralized rule checker every operation handler consults.
// It holds no mutable state beyond the rules object and is safe to construct
// fresh for tests. It is injected into the router and handlers rather than
// exposed as a package singleton.
type Authority struct {
	mu    sync.RWMutex
	rules Rules
}

func NewAuthority(r Rules) *Authority {
	return &Authority{rules: r}
}

// Rules returns the current policy snapshot.
func (a *Authority) Rules() Rules {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.rules
}

// SetRules replaces the policy. Takes effect on the very next call.
func (a *Authority) SetRules(r Rules) {
	a.mu.Lock()
	a.rules = r
	a.mu.Unlock()
}

// IsItemAvailable resolves the item and checks it can be consumed. On
// success the resolved item is returned alongside a valid result.
func (a *Authority) IsItemAvailable(itemID string, items ItemLookup) (domain.Item, domain.ValidationResult) {
	if items == nil {
		return domain.Item{}, domain.Invalid(domain.ErrSourceNotFound, "no item lookup supplied")
	}
	item, ok := items.GetItemByID(itemID)
	if !ok {
		res := domain.Invalid(domain.ErrSourceNotFound, fmt.Sprintf("item %s not found", itemID))
		res.DebugInfo = map[string]any{"item_id": itemID}
		return domain.Item{}, res
	}
	if items.IsItemLocked(itemID) {
		return domain.Item{}, domain.Invalid(domain.ErrItemLocked, fmt.Sprintf("item %s is locked by an in-flight operation", itemID))
	}
	if a.Rules().RequireAvailableItem && items.IsItemUsed(itemID) {
		return domain.Item{}, domain.Invalid(domain.ErrSourceAlreadyUsed, fmt.Sprintf("item %s is already placed", itemID))
	}
	return item, domain.ValidOK()
}

// IsValidPosition checks a grid destination. TARGET_POSITION_OCCUPIED is a
// soft failure: the caller may reinterpret it as a swap when AllowSwap is
// set.
func (a *Authority) IsValidPosition(position int, grid []domain.Slot) domain.ValidationResult {
	if len(grid) == 0 {
		return domain.Invalid(domain.ErrGridNotInitialized, "grid is not initialized")
	}
	if position < 0 || position >= len(grid) {
		res := domain.Invalid(domain.ErrTargetOutOfBounds, fmt.Sprintf("position %d outside [0,%d)", position, len(grid)))
		res.DebugInfo = map[string]any{"position": position, "grid_len": len(grid)}
		return res
	}
	if grid[position].Matched {
		return domain.Invalid(domain.ErrTargetPositionOccupied, fmt.Sprintf("position %d is occupied", position))
	}
	return domain.ValidOK()
}

// LocationKind names one of the item containers.
type LocationKind string

const (
	LocBacklog    LocationKind = "backlog"
	LocCollection LocationKind = "collection"
	LocGrid       LocationKind = "grid"
	LocTier       LocationKind = "tier"
	LocPool       LocationKind = "pool"
)

// Location pins down one end of a transfer.
type Location struct {
	Kind     LocationKind
	Position *int
	TierID   string
}

// Transfer describes a requested item movement between two locations.
type Transfer struct {
	ItemID string
	From   Location
	To     Location
}

// CanTransfer is the composite entry point handlers use. It routes to the
// item and position primitives based on the (from, to) pair.
func (a *Authority) CanTransfer(t Transfer, grid []domain.Slot, items ItemLookup) domain.ValidationResult {
	if t.From.Kind == LocGrid {
		if t.From.Position == nil {
			return domain.Invalid(domain.ErrTargetPositionInvalid, "grid source without a position")
		}
		from := *t.From.Position
		if from < 0 || from >= len(grid) {
			return domain.Invalid(domain.ErrTargetOutOfBounds, fmt.Sprintf("source position %d outside [0,%d)", from, len(grid)))
		}
		if !grid[from].Matched {
			return domain.Invalid(domain.ErrSourceNotFound, fmt.Sprintf("source slot %d is empty", from))
		}
	} else {
		if _, res := a.IsItemAvailable(t.ItemID, items); !res.Valid {
			return res
		}
	}

	switch t.To.Kind {
	case LocGrid:
		if t.To.Position == nil {
			return domain.Invalid(domain.ErrTargetPositionInvalid, "grid target without a position")
		}
		if t.From.Kind == LocGrid && *t.From.Position == *t.To.Position && !a.Rules().AllowSamePosition {
			return domain.Invalid(domain.ErrSamePosition, "source and target positions are identical")
		}
		return a.IsValidPosition(*t.To.Position, grid)
	case LocTier, LocPool:
		if t.To.Kind == LocTier && t.To.TierID == "" {
			return domain.Invalid(domain.ErrTargetPositionInvalid, "tier target without a tier id")
		}
		return domain.ValidOK()
	case LocBacklog, LocCollection:
		return domain.ValidOK()
	default:
		return domain.Invalid(domain.ErrTargetPositionInvalid, fmt.Sprintf("unsupported target location %q", t.To.Kind))
	}
}
