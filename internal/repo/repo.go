package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xkazm04/goat/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// poolTierID is the reserved tier id under which unranked-pool membership
// is persisted.
const poolTierID = "_pool"

// SessionRecord is a persisted session plus its tier layout.
type SessionRecord struct {
	domain.Session
	Tiers []string
}

func (r Repo) InsertSession(ctx context.Context, s domain.Session, tiers []string) error {
	tiersJSON, err := json.Marshal(tiers)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `INSERT INTO sessions(id,name,grid_size,tiers_json,created_at,updated_at) VALUES (?,?,?,?,?,?)`,
		s.ID, nullable(s.Name), s.GridSize, string(tiersJSON), s.CreatedAt, s.UpdatedAt)
	return err
}

func scanSession(row *sql.Row) (SessionRecord, error) {
	var rec SessionRecord
	var name, tiersJSON sql.NullString
	err := row.Scan(&rec.ID, &name, &rec.GridSize, &tiersJSON, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, err
	}
	if name.Valid {
		rec.Name = name.String
	}
	if tiersJSON.Valid && tiersJSON.String != "" {
		if err := json.Unmarshal([]byte(tiersJSON.String), &rec.Tiers); err != nil {
			return rec, fmt.Errorf("parse tiers for session %s: %w", rec.ID, err)
		}
	}
	return rec, nil
}

func (r Repo) GetSession(ctx context.Context, id string) (SessionRecord, error) {
	return scanSession(r.DB.QueryRowContext(ctx,
		`SELECT id,name,grid_size,tiers_json,created_at,updated_at FROM sessions WHERE id=?`, id))
}

func (r Repo) ListSessions(ctx context.Context) ([]domain.Session, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,grid_size,created_at,updated_at FROM sessions ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Session
	for rows.Next() {
		var s domain.Session
		var name sql.NullString
		if err := rows.Scan(&s.ID, &name, &s.GridSize, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if name.Valid {
			s.Name = name.String
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r Repo) DeleteSession(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// BoardState is the persisted placement snapshot of one session.
type BoardState struct {
	Slots     []domain.Slot
	TierItems map[string][]domain.Item
	Pool      []domain.Item
}

// SaveBoard replaces a session's item catalog and placements in one
// transaction. Callers invoke it fire-and-forget after a successful
// operation; it never sits on the gesture's critical path.
func (r Repo) SaveBoard(ctx context.Context, sessionID string, items []domain.Item, st BoardState) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	used := map[string]bool{}
	for _, s := range st.Slots {
		if s.Matched && s.Item != nil {
			used[s.Item.ID] = true
		}
	}
	for _, tier := range st.TierItems {
		for _, it := range tier {
			used[it.ID] = true
		}
	}
	for _, it := range st.Pool {
		used[it.ID] = true
	}

	for _, it := range items {
		tagsJSON, err := json.Marshal(it.Tags)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO session_items(session_id,item_id,title,description,image_url,tags_json,used)
			VALUES (?,?,?,?,?,?,?)
			ON CONFLICT(session_id,item_id) DO UPDATE SET title=excluded.title,description=excluded.description,
				image_url=excluded.image_url,tags_json=excluded.tags_json,used=excluded.used`,
			sessionID, it.ID, it.Title, nullable(it.Description), nullable(it.ImageURL), string(tagsJSON), boolToInt(used[it.ID])); err != nil {
			return fmt.Errorf("upsert item %s: %w", it.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM grid_slots WHERE session_id=?`, sessionID); err != nil {
		return err
	}
	for _, s := range st.Slots {
		if !s.Matched || s.Item == nil {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO grid_slots(session_id,position,item_id) VALUES (?,?,?)`,
			sessionID, s.Position, s.Item.ID); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tier_items WHERE session_id=?`, sessionID); err != nil {
		return err
	}
	for tierID, tierItems := range st.TierItems {
		for ord, it := range tierItems {
			if _, err := tx.ExecContext(ctx, `INSERT INTO tier_items(session_id,tier_id,item_id,ord) VALUES (?,?,?,?)`,
				sessionID, tierID, it.ID, ord); err != nil {
				return err
			}
		}
	}
	for ord, it := range st.Pool {
		if _, err := tx.ExecContext(ctx, `INSERT INTO tier_items(session_id,tier_id,item_id,ord) VALUES (?,?,?,?)`,
			sessionID, poolTierID, it.ID, ord); err != nil {
			return err
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `UPDATE sessions SET updated_at=? WHERE id=?`, now, sessionID); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadBoard reads a session's item catalog and placements.
func (r Repo) LoadBoard(ctx context.Context, sessionID string) ([]domain.Item, BoardState, error) {
	st := BoardState{TierItems: map[string][]domain.Item{}}

	rec, err := r.GetSession(ctx, sessionID)
	if err != nil {
		return nil, st, err
	}

	rows, err := r.DB.QueryContext(ctx, `SELECT item_id,title,COALESCE(description,''),COALESCE(image_url,''),COALESCE(tags_json,'')
		FROM session_items WHERE session_id=? ORDER BY rowid`, sessionID)
	if err != nil {
		return nil, st, err
	}
	defer rows.Close()
	items := []domain.Item{}
	byID := map[string]domain.Item{}
	for rows.Next() {
		var it domain.Item
		var tagsJSON string
		if err := rows.Scan(&it.ID, &it.Title, &it.Description, &it.ImageURL, &tagsJSON); err != nil {
			return nil, st, err
		}
		if tagsJSON != "" {
			_ = json.Unmarshal([]byte(tagsJSON), &it.Tags)
		}
		items = append(items, it)
		byID[it.ID] = it
	}
	if err := rows.Err(); err != nil {
		return nil, st, err
	}

	st.Slots = make([]domain.Slot, rec.GridSize)
	for i := range st.Slots {
		st.Slots[i].Position = i
	}
	slotRows, err := r.DB.QueryContext(ctx, `SELECT position,item_id FROM grid_slots WHERE session_id=?`, sessionID)
	if err != nil {
		return nil, st, err
	}
	defer slotRows.Close()
	for slotRows.Next() {
		var pos int
		var itemID string
		if err := slotRows.Scan(&pos, &itemID); err != nil {
			return nil, st, err
		}
		if pos < 0 || pos >= len(st.Slots) {
			continue
		}
		if it, ok := byID[itemID]; ok {
			item := it
			st.Slots[pos].Matched = true
			st.Slots[pos].Item = &item
		}
	}
	if err := slotRows.Err(); err != nil {
		return nil, st, err
	}

	tierRows, err := r.DB.QueryContext(ctx, `SELECT tier_id,item_id FROM tier_items WHERE session_id=? ORDER BY tier_id,ord`, sessionID)
	if err != nil {
		return nil, st, err
	}
	defer tierRows.Close()
	for tierRows.Next() {
		var tierID, itemID string
		if err := tierRows.Scan(&tierID, &itemID); err != nil {
			return nil, st, err
		}
		it, ok := byID[itemID]
		if !ok {
			continue
		}
		if tierID == poolTierID {
			st.Pool = append(st.Pool, it)
			continue
		}
		st.TierItems[tierID] = append(st.TierItems[tierID], it)
	}
	return items, st, tierRows.Err()
}

// ListEvents returns the newest events, optionally scoped to a session.
func (r Repo) ListEvents(ctx context.Context, sessionID string, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id,ts,type,COALESCE(session_id,''),COALESCE(item_id,''),actor_id,payload_json FROM events`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id=?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.SessionID, &e.ItemID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
