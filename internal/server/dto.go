package server

import (
	"github.com/xkazm04/goat/internal/board"
	"github.com/xkazm04/goat/internal/domain"
)

// Request payloads

type ItemRequest struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func (r ItemRequest) item() domain.Item {
	return domain.Item{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		Tags:        r.Tags,
	}
}

type CreateSessionRequest struct {
	Name     string        `json:"name,omitempty"`
	GridSize int           `json:"grid_size,omitempty" minimum:"0" maximum:"50"`
	Tiers    []string      `json:"tiers,omitempty"`
	Items    []ItemRequest `json:"items,omitempty"`
}

type AddItemsRequest struct {
	Items []ItemRequest `json:"items"`
}

// Responses

type BoardResponse struct {
	Session domain.Session           `json:"session"`
	Grid    []domain.Slot            `json:"grid"`
	Backlog []domain.Item            `json:"backlog"`
	Tiers   map[string][]domain.Item `json:"tiers,omitempty"`
	Pool    []domain.Item            `json:"pool,omitempty"`
}

func boardResponse(s domain.Session, bd *board.Board) BoardResponse {
	resp := BoardResponse{
		Session: s,
		Grid:    bd.GridSnapshot(),
		Backlog: bd.BacklogItems(),
		Tiers:   map[string][]domain.Item{},
		Pool:    bd.PoolItems(),
	}
	for _, tierID := range bd.TierIDs() {
		resp.Tiers[tierID] = bd.TierItems(tierID)
	}
	return resp
}

func itemsFromRequests(reqs []ItemRequest) []domain.Item {
	out := make([]domain.Item, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.item())
	}
	return out
}
