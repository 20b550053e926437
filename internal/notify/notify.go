package notify

import (
	"fmt"
	"time"

	"github.com/xkazm04/goat/internal/domain"
)

// Sink receives user-facing notifications (a toast channel, a websocket
// broadcast, a test recorder).
type Sink func(domain.Notification)

// ValidationErrorSink receives the raw error code of every failed result,
// independent of whether a notification is shown.
type ValidationErrorSink func(domain.ErrorCode, *domain.DragContext)

type errorMessage struct {
	Title       string
	Description string
	Severity    domain.NotificationType
}

// errorTable is the only source of user-visible failure text. DebugInfo
// never leaves the logs.
var errorTable = map[domain.ErrorCode]errorMessage{
	domain.ErrSourceNotFound: {
		Title:       "Item Not Found",
		Description: "The dragged item could not be found.",
		Severity:    domain.NotifyError,
	},
	domain.ErrSourceAlreadyUsed: {
		Title:       "Already Placed",
		Description: "This item is already placed on the board.",
		Severity:    domain.NotifyWarning,
	},
	domain.ErrTargetPositionInvalid: {
		Title:       "Invalid Target",
		Description: "That is not a valid place to drop this item.",
		Severity:    domain.NotifyError,
	},
	domain.ErrTargetPositionOccupied: {
		Title:       "Position Occupied",
		Description: "That position is already taken.",
		Severity:    domain.NotifyWarning,
	},
	domain.ErrTargetOutOfBounds: {
		Title:       "Out of Bounds",
		Description: "That position is outside the grid.",
		Severity:    domain.NotifyError,
	},
	domain.ErrGridNotInitialized: {
		Title:       "Grid Not Ready",
		Description: "The grid is not ready yet. Try again in a moment.",
		Severity:    domain.NotifyError,
	},
	domain.ErrItemLocked: {
		Title:       "Item Busy",
		Description: "This item is still being placed.",
		Severity:    domain.NotifyWarning,
	},
	domain.ErrSamePosition: {
		Title:       "Same Position",
		Description: "The item is already at that position.",
		Severity:    domain.NotifyInfo,
	},
	domain.ErrUnknown: {
		Title:       "Something Went Wrong",
		Description: "The operation could not be completed.",
		Severity:    domain.NotifyError,
	},
}

const (
	errorDuration   = 4 * time.Second
	successDuration = 3 * time.Second
)

// Handler translates operation results into notifications and validation
// error signals. Success notifications are off by default; error
// notifications are on.
type Handler struct {
	NotifySuccess bool
	NotifyErrors  bool

	sink    Sink
	errSink ValidationErrorSink
}

func NewHandler(sink Sink) *Handler {
	return &Handler{NotifyErrors: true, sink: sink}
}

// SetSink replaces the notification channel.
func (h *Handler) SetSink(s Sink) { h.sink = s }

// SetValidationErrorSink plugs the error-emission channel.
func (h *Handler) SetValidationErrorSink(s ValidationErrorSink) { h.errSink = s }

// HandleValidationError consumes a rejected validation before any execute
// ran: emits the raw code and, when enabled, the user-facing notification.
func (h *Handler) HandleValidationError(code domain.ErrorCode, dc *domain.DragContext) {
	if h.errSink != nil {
		h.errSink(code, dc)
	}
	if h.NotifyErrors && h.sink != nil {
		h.sink(ErrorNotification(code))
	}
}

// Handle consumes one result with its originating context.
func (h *Handler) Handle(res domain.OperationResult, dc *domain.DragContext) {
	if res.Success {
		if h.NotifySuccess && h.sink != nil {
			if n, ok := successNotification(res); ok {
				h.sink(n)
			}
		}
		return
	}
	if res.Code != "" && h.errSink != nil {
		h.errSink(res.Code, dc)
	}
	if h.NotifyErrors && h.sink != nil {
		h.sink(ErrorNotification(res.Code))
	}
}

// ErrorNotification renders the fixed message for a code. Unknown codes
// fall back to the UNKNOWN_ERROR entry.
func ErrorNotification(code domain.ErrorCode) domain.Notification {
	msg, ok := errorTable[code]
	if !ok {
		msg = errorTable[domain.ErrUnknown]
	}
	return domain.Notification{
		Type:        msg.Severity,
		Title:       msg.Title,
		Description: msg.Description,
		Duration:    errorDuration,
	}
}

// successNotification builds the per-operation success message. Positions
// are 1-indexed for display.
func successNotification(res domain.OperationResult) (domain.Notification, bool) {
	title, desc := "", ""
	md := res.Metadata
	switch res.OperationType {
	case domain.OpAssign:
		title = "Item Placed"
		if md != nil && md.ToPosition != nil {
			desc = fmt.Sprintf("Placed at position %d.", *md.ToPosition+1)
		}
	case domain.OpMove:
		title = "Item Moved"
		if md != nil && md.FromPosition != nil && md.ToPosition != nil {
			desc = fmt.Sprintf("Moved from position %d to %d.", *md.FromPosition+1, *md.ToPosition+1)
		}
	case domain.OpSwap:
		title = "Items Swapped"
		if md != nil && md.FromPosition != nil && md.ToPosition != nil {
			desc = fmt.Sprintf("Swapped positions %d and %d.", *md.FromPosition+1, *md.ToPosition+1)
		}
	case domain.OpTierAssign, domain.OpRankFromPool:
		title = "Item Ranked"
		if md != nil && md.ToTierID != "" {
			desc = fmt.Sprintf("Added to tier %s.", md.ToTierID)
		}
	case domain.OpTierMove:
		title = "Tier Reordered"
	case domain.OpTierTransfer:
		title = "Item Re-Tiered"
		if md != nil {
			desc = fmt.Sprintf("Moved from tier %s to %s.", md.FromTierID, md.ToTierID)
		}
	case domain.OpTierToGrid:
		title = "Item Promoted"
		if md != nil && md.ToPosition != nil {
			desc = fmt.Sprintf("Placed at position %d.", *md.ToPosition+1)
		}
	case domain.OpGridToTier:
		title = "Item Demoted"
		if md != nil && md.ToTierID != "" {
			desc = fmt.Sprintf("Moved to tier %s.", md.ToTierID)
		}
	case domain.OpUnrank:
		title = "Item Unranked"
		desc = "Moved to the unranked pool."
	case domain.OpRemove:
		title = "Item Removed"
		if md != nil && md.FromPosition != nil {
			desc = fmt.Sprintf("Removed from position %d.", *md.FromPosition+1)
		}
	default:
		return domain.Notification{}, false
	}
	return domain.Notification{
		Type:        domain.NotifySuccess,
		Title:       title,
		Description: desc,
		Duration:    successDuration,
	}, true
}
