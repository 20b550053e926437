package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/xkazm04/goat/internal/app"
	"github.com/xkazm04/goat/internal/domain"
	"github.com/xkazm04/goat/internal/drag"
	"github.com/xkazm04/goat/internal/rules"
)

func registerSessions(api huma.API, a *app.App) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-session",
		Method:        http.MethodPost,
		Path:          "/sessions",
		Summary:       "Create a ranking session",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body CreateSessionRequest `json:"body"`
	}) (*struct {
		Body domain.Session `json:"body"`
	}, error) {
		s, err := a.CreateSession(ctx, app.CreateSessionOptions{
			Name:     input.Body.Name,
			GridSize: input.Body.GridSize,
			Tiers:    input.Body.Tiers,
			Items:    itemsFromRequests(input.Body.Items),
			ActorID:  actorID(ctx),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Session `json:"body"`
		}{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-sessions",
		Method:      http.MethodGet,
		Path:        "/sessions",
		Summary:     "List sessions",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Session `json:"body"`
	}, error) {
		sessions, err := a.ListSessions(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Session `json:"body"`
		}{Body: sessions}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/sessions/{session_id}",
		Summary:     "Full board state for a session",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SessionID string `path:"session_id"`
	}) (*struct {
		Body BoardResponse `json:"body"`
	}, error) {
		rec, err := a.Repo.GetSession(ctx, input.SessionID)
		if err != nil {
			return nil, handleError(err)
		}
		bd, err := a.Board(ctx, input.SessionID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body BoardResponse `json:"body"`
		}{Body: boardResponse(rec.Session, bd)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-session",
		Method:      http.MethodDelete,
		Path:        "/sessions/{session_id}",
		Summary:     "Delete a session",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SessionID string `path:"session_id"`
	}) (*struct{}, error) {
		if err := a.DeleteSession(ctx, input.SessionID, actorID(ctx)); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-items",
		Method:      http.MethodPost,
		Path:        "/sessions/{session_id}/items",
		Summary:     "Add backlog items",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SessionID string          `path:"session_id"`
		Body      AddItemsRequest `json:"body"`
	}) (*struct {
		Body []domain.Item `json:"body"`
	}, error) {
		if err := a.AddItems(ctx, input.SessionID, itemsFromRequests(input.Body.Items), actorID(ctx)); err != nil {
			return nil, handleError(err)
		}
		bd, err := a.Board(ctx, input.SessionID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Item `json:"body"`
		}{Body: bd.BacklogItems()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-grid",
		Method:      http.MethodGet,
		Path:        "/sessions/{session_id}/grid",
		Summary:     "Grid snapshot",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SessionID string `path:"session_id"`
	}) (*struct {
		Body []domain.Slot `json:"body"`
	}, error) {
		bd, err := a.Board(ctx, input.SessionID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Slot `json:"body"`
		}{Body: bd.GridSnapshot()}, nil
	})
}

func registerDragEnd(api huma.API, a *app.App) {
	huma.Register(api, huma.Operation{
		OperationID: "drag-end",
		Method:      http.MethodPost,
		Path:        "/sessions/{session_id}/drag-end",
		Summary:     "Handle a gesture-end event",
		Description: "The sole mutation entry point: classifies, validates and executes the drop described by the event.",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SessionID string        `path:"session_id"`
		Body      drag.EndEvent `json:"body"`
	}) (*struct {
		Body domain.OperationResult `json:"body"`
	}, error) {
		res, err := a.HandleDragEnd(ctx, input.SessionID, input.Body, actorID(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.OperationResult `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "remove-from-grid",
		Method:      http.MethodDelete,
		Path:        "/sessions/{session_id}/grid/{position}",
		Summary:     "Remove the occupant of a grid slot",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SessionID string `path:"session_id"`
		Position  int    `path:"position"`
	}) (*struct {
		Body domain.OperationResult `json:"body"`
	}, error) {
		res, err := a.RemoveFromGrid(ctx, input.SessionID, input.Position, actorID(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.OperationResult `json:"body"`
		}{Body: res}, nil
	})
}

func registerRules(api huma.API, a *app.App) {
	huma.Register(api, huma.Operation{
		OperationID: "get-rules",
		Method:      http.MethodGet,
		Path:        "/rules",
		Summary:     "Current validation policy",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body rules.Rules `json:"body"`
	}, error) {
		return &struct {
			Body rules.Rules `json:"body"`
		}{Body: a.Rules()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-rules",
		Method:      http.MethodPut,
		Path:        "/rules",
		Summary:     "Replace the validation policy",
		Description: "The change applies to the next gesture; an in-flight gesture keeps the policy snapshot it started with.",
	}, func(ctx context.Context, input *struct {
		Body rules.Rules `json:"body"`
	}) (*struct {
		Body rules.Rules `json:"body"`
	}, error) {
		a.SetRules(input.Body)
		return &struct {
			Body rules.Rules `json:"body"`
		}{Body: a.Rules()}, nil
	})
}

func registerEvents(api huma.API, a *app.App) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Operation log tail",
	}, func(ctx context.Context, input *struct {
		SessionID string `query:"session_id"`
		Limit     int    `query:"limit" minimum:"0" maximum:"500"`
	}) (*struct {
		Body []domain.Event `json:"body"`
	}, error) {
		evts, err := a.Repo.ListEvents(ctx, input.SessionID, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Event `json:"body"`
		}{Body: evts}, nil
	})
}
