package domain

import "time"

// Item is a rankable entry. Its location is exclusive: it lives in the
// backlog, one grid slot, or one tier at a time.
type Item struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Slot is one cell of the fixed-length grid. Position always equals the
// slot's array index; removing an item clears Matched rather than shrinking
// the array.
type Slot struct {
	Position int   `json:"position"`
	Matched  bool  `json:"matched"`
	Item     *Item `json:"item,omitempty"`
}

// SourceType discriminates where a drag started.
type SourceType string

const (
	SourceBacklog      SourceType = "backlog"
	SourceCollection   SourceType = "collection"
	SourceGrid         SourceType = "grid"
	SourceTier         SourceType = "tier"
	SourceUnrankedPool SourceType = "unranked-pool"
)

// TargetType discriminates what the pointer was released over.
type TargetType string

const (
	TargetGridSlot     TargetType = "grid-slot"
	TargetTierRow      TargetType = "tier-row"
	TargetTierItem     TargetType = "tier-item"
	TargetUnrankedPool TargetType = "unranked-pool"
	TargetUnknown      TargetType = "unknown"
)

// DragSource is a tagged union; only the fields relevant to Type are set.
type DragSource struct {
	Type         SourceType `json:"type"`
	ItemID       string     `json:"item_id"`
	Item         *Item      `json:"item,omitempty"`
	GridPosition *int       `json:"grid_position,omitempty"`
	TierID       string     `json:"tier_id,omitempty"`
	OrderInTier  *int       `json:"order_in_tier,omitempty"`
	CollectionID string     `json:"collection_id,omitempty"`
}

// DragTarget is the tagged union for the drop destination.
type DragTarget struct {
	Type       TargetType `json:"type"`
	Position   *int       `json:"position,omitempty"`
	TierID     string     `json:"tier_id,omitempty"`
	IsOccupied bool       `json:"is_occupied,omitempty"`
	Occupant   *Item      `json:"occupant,omitempty"`
}

// OperationType is the classified intent of a drop.
type OperationType string

const (
	OpAssign       OperationType = "assign"
	OpMove         OperationType = "move"
	OpSwap         OperationType = "swap"
	OpTierAssign   OperationType = "tier-assign"
	OpTierMove     OperationType = "tier-move"
	OpTierTransfer OperationType = "tier-transfer"
	OpTierToGrid   OperationType = "tier-to-grid"
	OpGridToTier   OperationType = "grid-to-tier"
	OpUnrank       OperationType = "unrank"
	OpRankFromPool OperationType = "rank-from-pool"
	OpRemove       OperationType = "remove"
	OpNoop         OperationType = "noop"
)

// DragContext is built once per gesture-end event and never outlives the
// handling call.
type DragContext struct {
	Source        DragSource    `json:"source"`
	Target        DragTarget    `json:"target"`
	OperationType OperationType `json:"operation_type"`
}

// ErrorCode is the closed validation/execution error taxonomy.
type ErrorCode string

const (
	ErrSourceNotFound         ErrorCode = "SOURCE_NOT_FOUND"
	ErrSourceAlreadyUsed      ErrorCode = "SOURCE_ALREADY_USED"
	ErrTargetPositionInvalid  ErrorCode = "TARGET_POSITION_INVALID"
	ErrTargetPositionOccupied ErrorCode = "TARGET_POSITION_OCCUPIED"
	ErrTargetOutOfBounds      ErrorCode = "TARGET_OUT_OF_BOUNDS"
	ErrGridNotInitialized     ErrorCode = "GRID_NOT_INITIALIZED"
	ErrItemLocked             ErrorCode = "ITEM_LOCKED"
	ErrSamePosition           ErrorCode = "SAME_POSITION"
	ErrUnknown                ErrorCode = "UNKNOWN_ERROR"
)

// ValidationResult is returned as data, never thrown. DebugInfo is for logs
// only and must not reach user-facing notifications.
type ValidationResult struct {
	Valid     bool           `json:"valid"`
	Code      ErrorCode      `json:"code,omitempty"`
	Message   string         `json:"message,omitempty"`
	DebugInfo map[string]any `json:"debug_info,omitempty"`
}

// Invalid builds a failed result.
func Invalid(code ErrorCode, message string) ValidationResult {
	return ValidationResult{Valid: false, Code: code, Message: message}
}

// ValidOK is the canonical success result.
func ValidOK() ValidationResult { return ValidationResult{Valid: true} }

// ResultAction describes what the router did with the gesture.
type ResultAction string

const (
	ActionApplied  ResultAction = "applied"
	ActionRejected ResultAction = "rejected"
)

// OperationMetadata carries the positional deltas of a successful mutation.
type OperationMetadata struct {
	FromPosition  *int   `json:"from_position,omitempty"`
	ToPosition    *int   `json:"to_position,omitempty"`
	FromTierID    string `json:"from_tier_id,omitempty"`
	ToTierID      string `json:"to_tier_id,omitempty"`
	WasSwap       bool   `json:"was_swap,omitempty"`
	DisplacedItem *Item  `json:"displaced_item,omitempty"`
}

// OperationResult is the outcome of one handled gesture.
type OperationResult struct {
	Success       bool               `json:"success"`
	OperationType OperationType      `json:"operation_type"`
	Action        ResultAction       `json:"action"`
	Code          ErrorCode          `json:"code,omitempty"`
	Message       string             `json:"message,omitempty"`
	Item          *Item              `json:"item,omitempty"`
	Metadata      *OperationMetadata `json:"metadata,omitempty"`
}

// NotificationType matches the UI toast levels.
type NotificationType string

const (
	NotifySuccess NotificationType = "success"
	NotifyError   NotificationType = "error"
	NotifyWarning NotificationType = "warning"
	NotifyInfo    NotificationType = "info"
)

// Notification is the user-facing message shape. Duration zero means
// persist until dismissed.
type Notification struct {
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Duration    time.Duration    `json:"duration"`
}

// Session summarizes one board session for listings and the API.
type Session struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	GridSize  int    `json:"grid_size"`
	CreatedAt string `json:"created_at" format:"date-time"`
	UpdatedAt string `json:"updated_at" format:"date-time"`
}

// Event is one entry of the persisted operation log.
type Event struct {
	ID        int64  `json:"id"`
	TS        string `json:"ts" format:"date-time"`
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	ItemID    string `json:"item_id,omitempty"`
	ActorID   string `json:"actor_id"`
	Payload   string `json:"payload_json"`
}

// APIKey is a stored server credential (hash only).
type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// Ptr is a convenience for optional position fields.
func Ptr(v int) *int { return &v }
