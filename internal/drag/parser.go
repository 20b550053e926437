package drag

import (
	"errors"
	"regexp"
	"strconv"

	"github.com/xkazm04/goat/internal/domain"
	"github.com/xkazm04/goat/internal/rules"
)

// ElementData is the metadata a UI attaches to a draggable or droppable
// element. The explicit Type tag is the contract; everything else on the
// id-pattern path is a compatibility shim.
type ElementData struct {
	Type         string       `json:"type,omitempty"`
	ItemID       string       `json:"item_id,omitempty"`
	Item         *domain.Item `json:"item,omitempty"`
	GridPosition *int         `json:"grid_position,omitempty"`
	Position     *int         `json:"position,omitempty"`
	TierID       string       `json:"tier_id,omitempty"`
	OrderInTier  *int         `json:"order_in_tier,omitempty"`
	CollectionID string       `json:"collection_id,omitempty"`
	IsOccupied   bool         `json:"is_occupied,omitempty"`
	Occupant     *domain.Item `json:"occupant,omitempty"`
}

// ElementRef identifies one element involved in the gesture.
type ElementRef struct {
	ID   string       `json:"id"`
	Data *ElementData `json:"data,omitempty"`
}

// EndEvent is the gesture-end signal delivered by the input layer: the
// dragged element and whatever was under the pointer at release, or nil.
type EndEvent struct {
	Active *ElementRef `json:"active"`
	Over   *ElementRef `json:"over"`
}

// ErrUnparseable signals the event could not be resolved into a context at
// all; the router maps it to UNKNOWN_ERROR.
var ErrUnparseable = errors.New("drag event cannot be parsed")

// Deprecated id-pattern shims, kept until every drag source attaches an
// explicit type tag.
var (
	gridSlotPattern = regexp.MustCompile(`^grid-slot-(\d+)$`)
	tierRowPattern  = regexp.MustCompile(`^tier-([A-Za-z0-9_-]+)$`)
	poolPattern     = regexp.MustCompile(`^(unranked-pool|pool)$`)
)

// ParseContext converts a raw gesture-end event into a typed DragContext,
// classification included. A nil Over still parses (target type unknown);
// a missing or unresolvable Active does not.
func ParseContext(ev EndEvent, r rules.Rules) (*domain.DragContext, error) {
	if ev.Active == nil {
		return nil, ErrUnparseable
	}
	source, ok := parseSource(*ev.Active)
	if !ok {
		return nil, ErrUnparseable
	}
	target := parseTarget(ev.Over)
	return &domain.DragContext{
		Source:        source,
		Target:        target,
		OperationType: Classify(source, target, r),
	}, nil
}

func parseSource(ref ElementRef) (domain.DragSource, bool) {
	src := domain.DragSource{ItemID: ref.ID}
	if ref.Data != nil {
		if ref.Data.ItemID != "" {
			src.ItemID = ref.Data.ItemID
		}
		src.Item = ref.Data.Item
		src.GridPosition = ref.Data.GridPosition
		src.TierID = ref.Data.TierID
		src.OrderInTier = ref.Data.OrderInTier
		src.CollectionID = ref.Data.CollectionID

		switch domain.SourceType(ref.Data.Type) {
		case domain.SourceBacklog, domain.SourceCollection, domain.SourceGrid,
			domain.SourceTier, domain.SourceUnrankedPool:
			src.Type = domain.SourceType(ref.Data.Type)
			return src, src.ItemID != ""
		}
	}
	if m := gridSlotPattern.FindStringSubmatch(ref.ID); m != nil {
		pos, err := strconv.Atoi(m[1])
		if err != nil {
			return src, false
		}
		src.Type = domain.SourceGrid
		src.GridPosition = &pos
		return src, true
	}
	// Most external drags originate from the backlog.
	src.Type = domain.SourceBacklog
	return src, src.ItemID != ""
}

func parseTarget(ref *ElementRef) domain.DragTarget {
	if ref == nil {
		return domain.DragTarget{Type: domain.TargetUnknown}
	}
	tgt := domain.DragTarget{Type: domain.TargetUnknown}
	if ref.Data != nil {
		tgt.TierID = ref.Data.TierID
		tgt.IsOccupied = ref.Data.IsOccupied
		tgt.Occupant = ref.Data.Occupant
		if ref.Data.Position != nil {
			tgt.Position = ref.Data.Position
		} else if ref.Data.GridPosition != nil {
			tgt.Position = ref.Data.GridPosition
		}
		switch domain.TargetType(ref.Data.Type) {
		case domain.TargetGridSlot, domain.TargetTierRow, domain.TargetTierItem,
			domain.TargetUnrankedPool:
			tgt.Type = domain.TargetType(ref.Data.Type)
			return tgt
		}
	}
	switch {
	case gridSlotPattern.MatchString(ref.ID):
		m := gridSlotPattern.FindStringSubmatch(ref.ID)
		if pos, err := strconv.Atoi(m[1]); err == nil {
			tgt.Type = domain.TargetGridSlot
			tgt.Position = &pos
		}
	case tierRowPattern.MatchString(ref.ID):
		m := tierRowPattern.FindStringSubmatch(ref.ID)
		tgt.Type = domain.TargetTierRow
		tgt.TierID = m[1]
	case poolPattern.MatchString(ref.ID):
		tgt.Type = domain.TargetUnrankedPool
	}
	return tgt
}
