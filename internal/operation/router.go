package operation

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/xkazm04/goat/internal/domain"
	"github.com/xkazm04/goat/internal/drag"
	"github.com/xkazm04/goat/internal/rules"
)

// Handler turns one classified operation into validated mutations. Validate
// must be read-only; Execute records the inverse of every mutation in the
// journal so the router can unwind a partial application.
type Handler interface {
	Type() domain.OperationType
	Validate(dc *domain.DragContext, s Stores) domain.ValidationResult
	Execute(dc *domain.DragContext, s Stores, j *Journal) (domain.OperationResult, error)
}

// ResultFunc receives every executed OperationResult with its context.
type ResultFunc func(domain.OperationResult, *domain.DragContext)

// ValidationErrorFunc receives the code of every failed validation.
type ValidationErrorFunc func(domain.ErrorCode, *domain.DragContext)

// Router is the single orchestration point: parse, classify, look up the
// handler, validate, execute, notify. It holds no grid or item state.
type Router struct {
	mu       sync.RWMutex
	handlers map[domain.OperationType]Handler

	auth *rules.Authority
	log  *zap.Logger

	onResult          ResultFunc
	onValidationError ValidationErrorFunc
}

// NewRouter builds an empty router around the injected authority.
func NewRouter(auth *rules.Authority, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		handlers: map[domain.OperationType]Handler{},
		auth:     auth,
		log:      log,
	}
}

// NewDefaultRouter registers the full built-in handler set.
func NewDefaultRouter(auth *rules.Authority, log *zap.Logger) *Router {
	r := NewRouter(auth, log)
	for _, h := range []Handler{
		AssignHandler{Auth: auth},
		MoveHandler{Auth: auth},
		SwapHandler{Auth: auth},
		RemoveHandler{Auth: auth},
		TierAssignHandler{Auth: auth},
		TierMoveHandler{Auth: auth},
		TierTransferHandler{Auth: auth},
		TierToGridHandler{Auth: auth},
		GridToTierHandler{Auth: auth},
		UnrankHandler{Auth: auth},
		RankFromPoolHandler{Auth: auth},
	} {
		r.RegisterOperation(h)
	}
	return r
}

// Authority exposes the injected rule engine, e.g. for live policy updates.
func (r *Router) Authority() *rules.Authority { return r.auth }

// RegisterOperation adds or replaces the handler for its operation type.
func (r *Router) RegisterOperation(h Handler) {
	r.mu.Lock()
	r.handlers[h.Type()] = h
	r.mu.Unlock()
}

// UnregisterOperation removes a handler; subsequent gestures of that type
// fail with UNKNOWN_ERROR.
func (r *Router) UnregisterOperation(t domain.OperationType) {
	r.mu.Lock()
	delete(r.handlers, t)
	r.mu.Unlock()
}

// SetResultHandler registers the callback invoked after every execute.
func (r *Router) SetResultHandler(cb ResultFunc) {
	r.mu.Lock()
	r.onResult = cb
	r.mu.Unlock()
}

// SetValidationErrorHandler registers the callback invoked on every failed
// validation.
func (r *Router) SetValidationErrorHandler(cb ValidationErrorFunc) {
	r.mu.Lock()
	r.onValidationError = cb
	r.mu.Unlock()
}

// HandleDragEnd is the sole public mutation entry point for a gesture-end
// event. The rules snapshot is taken once here, so a single gesture sees one
// consistent policy.
func (r *Router) HandleDragEnd(ev drag.EndEvent, s Stores) domain.OperationResult {
	dc, err := drag.ParseContext(ev, r.auth.Rules())
	if err != nil {
		r.log.Warn("drag event unparseable", zap.Error(err))
		return domain.OperationResult{
			Success:       false,
			OperationType: domain.OpNoop,
			Action:        domain.ActionRejected,
			Code:          domain.ErrUnknown,
			Message:       "drag event could not be parsed",
		}
	}
	if dc.OperationType == domain.OpNoop {
		// Cancelled or meaningless drop: silent, zero mutation.
		return domain.OperationResult{
			Success:       true,
			OperationType: domain.OpNoop,
			Action:        domain.ActionRejected,
		}
	}
	return r.Dispatch(dc, s)
}

// Dispatch runs validate/execute for an already-built context. It also
// serves programmatic operations the classifier cannot produce, such as
// remove.
func (r *Router) Dispatch(dc *domain.DragContext, s Stores) domain.OperationResult {
	r.mu.RLock()
	h, ok := r.handlers[dc.OperationType]
	onResult := r.onResult
	onValidationError := r.onValidationError
	r.mu.RUnlock()

	if !ok {
		r.log.Error("no handler for operation type", zap.String("operation", string(dc.OperationType)))
		return domain.OperationResult{
			Success:       false,
			OperationType: dc.OperationType,
			Action:        domain.ActionRejected,
			Code:          domain.ErrUnknown,
			Message:       fmt.Sprintf("no handler for operation type %s", dc.OperationType),
		}
	}

	if vr := h.Validate(dc, s); !vr.Valid {
		if vr.DebugInfo != nil {
			r.log.Debug("validation failed",
				zap.String("operation", string(dc.OperationType)),
				zap.String("code", string(vr.Code)),
				zap.Any("debug", vr.DebugInfo))
		}
		if onValidationError != nil {
			onValidationError(vr.Code, dc)
		}
		return domain.OperationResult{
			Success:       false,
			OperationType: dc.OperationType,
			Action:        domain.ActionRejected,
			Code:          vr.Code,
			Message:       vr.Message,
		}
	}

	j := &Journal{}
	res, err := r.execute(h, dc, s, j)
	if err != nil {
		if uerr := j.Unwind(); uerr != nil {
			r.log.Error("journal unwind failed", zap.Error(uerr))
		}
		r.log.Error("execute failed",
			zap.String("operation", string(dc.OperationType)),
			zap.Error(err))
		res = domain.OperationResult{
			Success:       false,
			OperationType: dc.OperationType,
			Action:        domain.ActionRejected,
			Code:          domain.ErrUnknown,
			Message:       "operation failed",
		}
	}
	if onResult != nil {
		onResult(res, dc)
	}
	return res
}

// execute isolates the handler boundary: runtime panics become errors so
// the caller can unwind the journal.
func (r *Router) execute(h Handler, dc *domain.DragContext, s Stores, j *Journal) (res domain.OperationResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panic: %v", p)
		}
	}()
	return h.Execute(dc, s, j)
}
