package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkazm04/goat/internal/domain"
)

type recorder struct {
	notifications []domain.Notification
	codes         []domain.ErrorCode
}

func (r *recorder) sink(n domain.Notification)                       { r.notifications = append(r.notifications, n) }
func (r *recorder) errSink(c domain.ErrorCode, _ *domain.DragContext) { r.codes = append(r.codes, c) }

func TestErrorNotificationTable(t *testing.T) {
	tests := []struct {
		code     domain.ErrorCode
		title    string
		severity domain.NotificationType
	}{
		{domain.ErrSourceNotFound, "Item Not Found", domain.NotifyError},
		{domain.ErrSourceAlreadyUsed, "Already Placed", domain.NotifyWarning},
		{domain.ErrTargetPositionInvalid, "Invalid Target", domain.NotifyError},
		{domain.ErrTargetPositionOccupied, "Position Occupied", domain.NotifyWarning},
		{domain.ErrTargetOutOfBounds, "Out of Bounds", domain.NotifyError},
		{domain.ErrGridNotInitialized, "Grid Not Ready", domain.NotifyError},
		{domain.ErrItemLocked, "Item Busy", domain.NotifyWarning},
		{domain.ErrSamePosition, "Same Position", domain.NotifyInfo},
		{domain.ErrUnknown, "Something Went Wrong", domain.NotifyError},
	}
	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			n := ErrorNotification(tc.code)
			assert.Equal(t, tc.title, n.Title)
			assert.Equal(t, tc.severity, n.Type)
			assert.NotEmpty(t, n.Description)
			assert.Equal(t, 4*time.Second, n.Duration)
		})
	}
}

func TestErrorNotificationUnknownCodeFallsBack(t *testing.T) {
	n := ErrorNotification("NOT_A_REAL_CODE")
	assert.Equal(t, "Something Went Wrong", n.Title)
}

func TestHandleFailureEmitsCodeAndNotification(t *testing.T) {
	rec := &recorder{}
	h := NewHandler(rec.sink)
	h.SetValidationErrorSink(rec.errSink)

	h.Handle(domain.OperationResult{
		Success:       false,
		OperationType: domain.OpAssign,
		Action:        domain.ActionRejected,
		Code:          domain.ErrTargetOutOfBounds,
	}, nil)

	require.Len(t, rec.codes, 1)
	assert.Equal(t, domain.ErrTargetOutOfBounds, rec.codes[0])
	require.Len(t, rec.notifications, 1)
	assert.Equal(t, "Out of Bounds", rec.notifications[0].Title)
}

func TestHandleValidationError(t *testing.T) {
	rec := &recorder{}
	h := NewHandler(rec.sink)
	h.SetValidationErrorSink(rec.errSink)

	h.HandleValidationError(domain.ErrItemLocked, nil)

	require.Len(t, rec.codes, 1)
	assert.Equal(t, domain.ErrItemLocked, rec.codes[0])
	require.Len(t, rec.notifications, 1)
	assert.Equal(t, "Item Busy", rec.notifications[0].Title)
}

func TestErrorCodeEmittedEvenWhenToastsAreOff(t *testing.T) {
	rec := &recorder{}
	h := NewHandler(rec.sink)
	h.NotifyErrors = false
	h.SetValidationErrorSink(rec.errSink)

	h.HandleValidationError(domain.ErrSamePosition, nil)

	assert.Len(t, rec.codes, 1)
	assert.Empty(t, rec.notifications)
}

func TestSuccessNotificationsOffByDefault(t *testing.T) {
	rec := &recorder{}
	h := NewHandler(rec.sink)

	h.Handle(domain.OperationResult{
		Success:       true,
		OperationType: domain.OpAssign,
		Action:        domain.ActionApplied,
		Metadata:      &domain.OperationMetadata{ToPosition: domain.Ptr(2)},
	}, nil)
	assert.Empty(t, rec.notifications)
}

func TestSuccessNotificationsWhenEnabled(t *testing.T) {
	rec := &recorder{}
	h := NewHandler(rec.sink)
	h.NotifySuccess = true

	tests := []struct {
		name  string
		res   domain.OperationResult
		title string
		desc  string
	}{
		{
			name: "assign shows 1-indexed position",
			res: domain.OperationResult{
				Success:       true,
				OperationType: domain.OpAssign,
				Metadata:      &domain.OperationMetadata{ToPosition: domain.Ptr(2)},
			},
			title: "Item Placed",
			desc:  "Placed at position 3.",
		},
		{
			name: "swap",
			res: domain.OperationResult{
				Success:       true,
				OperationType: domain.OpSwap,
				Metadata: &domain.OperationMetadata{
					FromPosition: domain.Ptr(0),
					ToPosition:   domain.Ptr(4),
					WasSwap:      true,
				},
			},
			title: "Items Swapped",
			desc:  "Swapped positions 1 and 5.",
		},
		{
			name: "tier transfer",
			res: domain.OperationResult{
				Success:       true,
				OperationType: domain.OpTierTransfer,
				Metadata:      &domain.OperationMetadata{FromTierID: "S", ToTierID: "A"},
			},
			title: "Item Re-Tiered",
			desc:  "Moved from tier S to A.",
		},
		{
			name: "unrank",
			res: domain.OperationResult{
				Success:       true,
				OperationType: domain.OpUnrank,
			},
			title: "Item Unranked",
			desc:  "Moved to the unranked pool.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec.notifications = nil
			h.Handle(tc.res, nil)
			require.Len(t, rec.notifications, 1)
			assert.Equal(t, domain.NotifySuccess, rec.notifications[0].Type)
			assert.Equal(t, tc.title, rec.notifications[0].Title)
			assert.Equal(t, tc.desc, rec.notifications[0].Description)
		})
	}
}

func TestNoopProducesNoNotification(t *testing.T) {
	rec := &recorder{}
	h := NewHandler(rec.sink)
	h.NotifySuccess = true

	h.Handle(domain.OperationResult{
		Success:       true,
		OperationType: domain.OpNoop,
		Action:        domain.ActionRejected,
	}, nil)
	assert.Empty(t, rec.notifications)
}

func TestNilSinkIsSafe(t *testing.T) {
	h := NewHandler(nil)
	h.NotifySuccess = true
	h.Handle(domain.OperationResult{Success: false, Code: domain.ErrUnknown}, nil)
	h.HandleValidationError(domain.ErrUnknown, nil)
}
