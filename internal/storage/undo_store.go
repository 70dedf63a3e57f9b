package storage

import (
	"context"
	"fmt"
	"time"
)

// UndoEntry is one persisted editor snapshot.
type UndoEntry struct {
	Seq          int       `json:"seq"`
	Label        string    `json:"label"`
	SnapshotJSON string    `json:"snapshotJson"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UndoHistory is the linear history of one page plus the current position
// (an index into Entries).
type UndoHistory struct {
	PageID  string      `json:"pageId"`
	Entries []UndoEntry `json:"entries"`
	Current int         `json:"current"`
}

// UndoStore persists editor undo/redo history per page.
type UndoStore struct {
	db       *DB
	maxNodes int
}

func NewUndoStore(db *DB, maxNodes int) *UndoStore {
	if maxNodes <= 0 {
		maxNodes = 40
	}
	return &UndoStore{db: db, maxNodes: maxNodes}
}

// Load returns the history of a page, or nil when none was saved.
func (s *UndoStore) Load(ctx context.Context, pageID string) (*UndoHistory, error) {
	r := s.db.run()
	rows, err := r.query(ctx,
		`SELECT seq, label, snapshot_json, created_at FROM editor_history WHERE page_id = ? ORDER BY seq ASC`, pageID,
	)
	if err != nil {
		return nil, fmt.Errorf("load undo entries: %w", err)
	}
	defer rows.Close()

	var entries []UndoEntry
	for rows.Next() {
		var e UndoEntry
		if err := rows.Scan(&e.Seq, &e.Label, &e.SnapshotJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan undo entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if len(entries) == 0 {
		return nil, nil // No history yet
	}

	h := &UndoHistory{PageID: pageID, Entries: entries, Current: len(entries) - 1}
	var seq int
	if err := r.queryRow(ctx, `SELECT current_seq FROM editor_history_state WHERE page_id = ?`, pageID).Scan(&seq); err == nil {
		for i, e := range entries {
			if e.Seq == seq {
				h.Current = i
				break
			}
		}
	}
	return h, nil
}

// Save replaces the stored history of a page. Only the newest maxNodes
// entries are kept; the current position follows the pruning.
func (s *UndoStore) Save(ctx context.Context, h *UndoHistory) error {
	entries := h.Entries
	current := h.Current
	if over := len(entries) - s.maxNodes; over > 0 {
		entries = entries[over:]
		current -= over
	}
	if current < 0 {
		current = 0
	}
	if current >= len(entries) {
		current = len(entries) - 1
	}

	state := s.db.dialect.Upsert("editor_history_state",
		[]string{"page_id", "current_seq"}, []string{"page_id"}, []string{"current_seq"})

	return s.db.inTx(ctx, func(r runner) error {
		if _, err := r.exec(ctx, `DELETE FROM editor_history WHERE page_id = ?`, h.PageID); err != nil {
			return fmt.Errorf("clear undo entries: %w", err)
		}
		if len(entries) == 0 {
			_, err := r.exec(ctx, `DELETE FROM editor_history_state WHERE page_id = ?`, h.PageID)
			return err
		}
		t := now()
		for i, e := range entries {
			created := e.CreatedAt
			if created.IsZero() {
				created = t
			}
			if _, err := r.exec(ctx,
				`INSERT INTO editor_history (page_id, seq, label, snapshot_json, created_at) VALUES (?, ?, ?, ?, ?)`,
				h.PageID, i, e.Label, e.SnapshotJSON, created.UTC(),
			); err != nil {
				return fmt.Errorf("insert undo entry: %w", err)
			}
		}
		if _, err := r.exec(ctx, state, h.PageID, current); err != nil {
			return fmt.Errorf("update undo state: %w", err)
		}
		return nil
	})
}

// Clear removes all undo data for a page.
func (s *UndoStore) Clear(ctx context.Context, pageID string) error {
	return s.db.inTx(ctx, func(r runner) error {
		if _, err := r.exec(ctx, `DELETE FROM editor_history_state WHERE page_id = ?`, pageID); err != nil {
			return err
		}
		_, err := r.exec(ctx, `DELETE FROM editor_history WHERE page_id = ?`, pageID)
		return err
	})
}
