package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkazm04/goat/internal/board"
	"github.com/xkazm04/goat/internal/config"
	"github.com/xkazm04/goat/internal/domain"
	"github.com/xkazm04/goat/internal/drag"
	"github.com/xkazm04/goat/internal/events"
	"github.com/xkazm04/goat/internal/notify"
	"github.com/xkazm04/goat/internal/operation"
	"github.com/xkazm04/goat/internal/repo"
	"github.com/xkazm04/goat/internal/rules"
)

// App wires the decision layer to its collaborators: per-session boards in
// memory, sqlite persistence as a fire-and-forget side channel, the event
// log, and the notification pipeline.
type App struct {
	DB       *sql.DB
	Repo     repo.Repo
	Events   events.Writer
	Config   *config.Config
	Router   *operation.Router
	Notifier *notify.Handler
	Log      *zap.Logger
	Now      func() time.Time

	mu     sync.Mutex
	boards map[string]*board.Board
	saves  sync.WaitGroup
}

// New assembles the application around an open database.
func New(db *sql.DB, cfg *config.Config, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	auth := rules.NewAuthority(cfg.Rules)
	router := operation.NewDefaultRouter(auth, log)
	notifier := notify.NewHandler(nil)
	notifier.NotifySuccess = cfg.Notifications.Success
	notifier.NotifyErrors = cfg.Notifications.Errors
	router.SetResultHandler(notifier.Handle)
	router.SetValidationErrorHandler(notifier.HandleValidationError)

	return &App{
		DB:       db,
		Repo:     repo.Repo{DB: db},
		Events:   events.Writer{DB: db},
		Config:   cfg,
		Router:   router,
		Notifier: notifier,
		Log:      log,
		Now:      time.Now,
		boards:   map[string]*board.Board{},
	}
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// Rules returns the live validation policy.
func (a *App) Rules() rules.Rules { return a.Router.Authority().Rules() }

// SetRules replaces the validation policy; the next gesture sees it.
func (a *App) SetRules(r rules.Rules) { a.Router.Authority().SetRules(r) }

// CreateSessionOptions are parameters for a new ranking session.
type CreateSessionOptions struct {
	Name     string
	GridSize int
	Tiers    []string
	Items    []domain.Item
	ActorID  string
}

// CreateSession persists a new session and brings its board into memory.
func (a *App) CreateSession(ctx context.Context, opts CreateSessionOptions) (domain.Session, error) {
	if opts.GridSize <= 0 {
		opts.GridSize = a.Config.Session.GridSize
	}
	if opts.GridSize > config.MaxGridSize {
		return domain.Session{}, fmt.Errorf("grid size %d exceeds cap %d", opts.GridSize, config.MaxGridSize)
	}
	if opts.Tiers == nil {
		opts.Tiers = a.Config.Session.Tiers
	}
	now := a.now().UTC().Format(time.RFC3339)
	s := domain.Session{
		ID:        uuid.New().String(),
		Name:      opts.Name,
		GridSize:  opts.GridSize,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.Repo.InsertSession(ctx, s, opts.Tiers); err != nil {
		return domain.Session{}, fmt.Errorf("insert session: %w", err)
	}

	bd := board.New(s.ID, opts.GridSize, opts.Tiers...)
	bd.Name = opts.Name
	bd.AddItems(opts.Items...)
	a.mu.Lock()
	a.boards[s.ID] = bd
	a.mu.Unlock()

	a.logEvent(ctx, "session.created", s.ID, "", opts.ActorID, events.EventPayload{
		"grid_size": opts.GridSize,
		"items":     len(opts.Items),
	})
	a.saveAsync(s.ID)
	return s, nil
}

// Board returns the in-memory board for a session, loading it from the
// database on first access.
func (a *App) Board(ctx context.Context, sessionID string) (*board.Board, error) {
	a.mu.Lock()
	if bd, ok := a.boards[sessionID]; ok {
		a.mu.Unlock()
		return bd, nil
	}
	a.mu.Unlock()

	rec, err := a.Repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	items, st, err := a.Repo.LoadBoard(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	bd := board.New(rec.ID, rec.GridSize, rec.Tiers...)
	bd.Name = rec.Name
	bd.AddItems(items...)
	if err := bd.RestoreState(st.Slots, st.TierItems, st.Pool); err != nil {
		return nil, fmt.Errorf("restore session %s: %w", sessionID, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if existing, ok := a.boards[sessionID]; ok {
		return existing, nil
	}
	a.boards[sessionID] = bd
	return bd, nil
}

// ListSessions lists persisted sessions.
func (a *App) ListSessions(ctx context.Context) ([]domain.Session, error) {
	return a.Repo.ListSessions(ctx)
}

// DeleteSession drops a session from memory and storage.
func (a *App) DeleteSession(ctx context.Context, sessionID, actorID string) error {
	if err := a.Repo.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	a.mu.Lock()
	delete(a.boards, sessionID)
	a.mu.Unlock()
	a.logEvent(ctx, "session.deleted", sessionID, "", actorID, nil)
	return nil
}

// AddItems registers backlog items on a session.
func (a *App) AddItems(ctx context.Context, sessionID string, items []domain.Item, actorID string) error {
	bd, err := a.Board(ctx, sessionID)
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.New().String()
		}
	}
	bd.AddItems(items...)
	a.logEvent(ctx, "items.added", sessionID, "", actorID, events.EventPayload{"count": len(items)})
	a.saveAsync(sessionID)
	return nil
}

// HandleDragEnd routes one gesture-end event for a session. A successful
// result is logged and persisted off the critical path.
func (a *App) HandleDragEnd(ctx context.Context, sessionID string, ev drag.EndEvent, actorID string) (domain.OperationResult, error) {
	bd, err := a.Board(ctx, sessionID)
	if err != nil {
		return domain.OperationResult{}, err
	}
	res := bd.HandleDragEnd(a.Router, ev)
	a.afterOperation(ctx, sessionID, actorID, res)
	return res, nil
}

// RemoveFromGrid dispatches the programmatic remove operation for a slot.
func (a *App) RemoveFromGrid(ctx context.Context, sessionID string, position int, actorID string) (domain.OperationResult, error) {
	bd, err := a.Board(ctx, sessionID)
	if err != nil {
		return domain.OperationResult{}, err
	}
	var itemID string
	for _, s := range bd.GridSnapshot() {
		if s.Position == position && s.Matched && s.Item != nil {
			itemID = s.Item.ID
		}
	}
	dc := &domain.DragContext{
		Source: domain.DragSource{
			Type:         domain.SourceGrid,
			ItemID:       itemID,
			GridPosition: domain.Ptr(position),
		},
		Target:        domain.DragTarget{Type: domain.TargetUnknown},
		OperationType: domain.OpRemove,
	}
	res := bd.Dispatch(a.Router, dc)
	a.afterOperation(ctx, sessionID, actorID, res)
	return res, nil
}

func (a *App) afterOperation(ctx context.Context, sessionID, actorID string, res domain.OperationResult) {
	if !res.Success || res.OperationType == domain.OpNoop {
		return
	}
	itemID := ""
	if res.Item != nil {
		itemID = res.Item.ID
	}
	payload := events.EventPayload{"action": string(res.Action)}
	if md := res.Metadata; md != nil {
		if md.FromPosition != nil {
			payload["from_position"] = *md.FromPosition
		}
		if md.ToPosition != nil {
			payload["to_position"] = *md.ToPosition
		}
		if md.FromTierID != "" {
			payload["from_tier"] = md.FromTierID
		}
		if md.ToTierID != "" {
			payload["to_tier"] = md.ToTierID
		}
		if md.WasSwap {
			payload["was_swap"] = true
		}
	}
	a.logEvent(ctx, "op."+string(res.OperationType), sessionID, itemID, actorID, payload)
	a.saveAsync(sessionID)
}

// logEvent writes one event in its own transaction. Failures are logged,
// never surfaced: the event log is an audit channel, not a gate.
func (a *App) logEvent(ctx context.Context, evtType, sessionID, itemID, actorID string, payload events.EventPayload) {
	if actorID == "" {
		actorID = "local-user"
	}
	tx, err := a.DB.BeginTx(ctx, nil)
	if err != nil {
		a.Log.Warn("event log: begin tx failed", zap.Error(err))
		return
	}
	defer tx.Rollback()
	if err := a.Events.Append(ctx, tx, evtType, sessionID, itemID, actorID, payload); err != nil {
		a.Log.Warn("event log: append failed", zap.String("type", evtType), zap.Error(err))
		return
	}
	if err := tx.Commit(); err != nil {
		a.Log.Warn("event log: commit failed", zap.Error(err))
	}
}

// saveAsync persists the session snapshot on a background goroutine; the
// gesture never waits for storage.
func (a *App) saveAsync(sessionID string) {
	a.mu.Lock()
	bd, ok := a.boards[sessionID]
	a.mu.Unlock()
	if !ok {
		return
	}
	a.saves.Add(1)
	go func() {
		defer a.saves.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Save(ctx, sessionID, bd); err != nil {
			a.Log.Warn("session save failed", zap.String("session", sessionID), zap.Error(err))
		}
	}()
}

// Flush blocks until in-flight background saves finish. Call before
// closing the database.
func (a *App) Flush() { a.saves.Wait() }

// Save writes the current board snapshot for a session.
func (a *App) Save(ctx context.Context, sessionID string, bd *board.Board) error {
	if bd == nil {
		return errors.New("nil board")
	}
	st := repo.BoardState{
		Slots:     bd.GridSnapshot(),
		TierItems: map[string][]domain.Item{},
		Pool:      bd.PoolItems(),
	}
	for _, tierID := range bd.TierIDs() {
		st.TierItems[tierID] = bd.TierItems(tierID)
	}
	return a.Repo.SaveBoard(ctx, sessionID, bd.BacklogItems(), st)
}
