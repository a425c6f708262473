package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/duty-bot/internal/persistence"
)

const anchorRowID = 0

// repositories implements persistence.Tx on an open transaction.
type repositories struct {
	tx *sql.Tx
}

var _ persistence.Tx = (*repositories)(nil)

// ListRooms returns the active rooms in ascending order.
func (r *repositories) ListRooms(ctx context.Context) ([]int, error) {
	rows, err := r.tx.QueryContext(ctx, `SELECT room FROM duty_rooms ORDER BY room ASC`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", mapError(err))
	}
	defer rows.Close()

	rooms := []int{}
	for rows.Next() {
		var room int
		if err := rows.Scan(&room); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}
	return rooms, nil
}

func (r *repositories) InsertRooms(ctx context.Context, rooms []int) error {
	for _, room := range rooms {
		if _, err := r.tx.ExecContext(ctx, `INSERT OR IGNORE INTO duty_rooms (room) VALUES (?)`, room); err != nil {
			return fmt.Errorf("insert room %d: %w", room, mapError(err))
		}
	}
	return nil
}

func (r *repositories) DeleteRooms(ctx context.Context, rooms []int) error {
	for _, room := range rooms {
		if _, err := r.tx.ExecContext(ctx, `DELETE FROM duty_rooms WHERE room = ?`, room); err != nil {
			return fmt.Errorf("delete room %d: %w", room, mapError(err))
		}
	}
	return nil
}

func (r *repositories) GetAnchor(ctx context.Context) (persistence.Anchor, error) {
	var (
		anchor persistence.Anchor
		date   string
	)
	err := r.tx.QueryRowContext(ctx,
		`SELECT sync_date, left_room, right_room FROM sync_anchor WHERE id = ?`, anchorRowID,
	).Scan(&date, &anchor.LeftRoom, &anchor.RightRoom)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Anchor{}, persistence.ErrNotFound
		}
		return persistence.Anchor{}, fmt.Errorf("get anchor: %w", mapError(err))
	}

	anchor.Date, err = time.Parse(time.DateOnly, date)
	if err != nil {
		return persistence.Anchor{}, fmt.Errorf("parse anchor date %q: %w", date, err)
	}
	return anchor, nil
}

// ReplaceAnchor overwrites the single anchor row.
func (r *repositories) ReplaceAnchor(ctx context.Context, anchor persistence.Anchor) error {
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO sync_anchor (id, sync_date, left_room, right_room)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sync_date = excluded.sync_date,
			left_room = excluded.left_room,
			right_room = excluded.right_room`,
		anchorRowID, anchor.Date.Format(time.DateOnly), anchor.LeftRoom, anchor.RightRoom,
	)
	if err != nil {
		return fmt.Errorf("replace anchor: %w", mapError(err))
	}
	return nil
}

func (r *repositories) ListAdmins(ctx context.Context) ([]int64, error) {
	rows, err := r.tx.QueryContext(ctx, `SELECT admin_id FROM admins ORDER BY admin_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", mapError(err))
	}
	defer rows.Close()

	admins := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		admins = append(admins, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admins: %w", err)
	}
	return admins, nil
}

func (r *repositories) AddAdmin(ctx context.Context, userID int64) error {
	if _, err := r.tx.ExecContext(ctx, `INSERT INTO admins (admin_id) VALUES (?)`, userID); err != nil {
		return fmt.Errorf("add admin %d: %w", userID, mapError(err))
	}
	return nil
}

func (r *repositories) DeleteAdmin(ctx context.Context, userID int64) error {
	result, err := r.tx.ExecContext(ctx, `DELETE FROM admins WHERE admin_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete admin %d: %w", userID, mapError(err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *repositories) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var exists int
	err := r.tx.QueryRowContext(ctx, `SELECT 1 FROM admins WHERE admin_id = ?`, userID).Scan(&exists)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("check admin %d: %w", userID, mapError(err))
	}
	return true, nil
}

func (r *repositories) GetLastRequest(ctx context.Context, peerID int64) (time.Time, error) {
	var at string
	err := r.tx.QueryRowContext(ctx, `SELECT requested_at FROM last_requests WHERE peer_id = ?`, peerID).Scan(&at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, persistence.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("get last request %d: %w", peerID, mapError(err))
	}
	parsed, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last request %q: %w", at, err)
	}
	return parsed, nil
}

func (r *repositories) PutLastRequest(ctx context.Context, peerID int64, at time.Time) error {
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO last_requests (peer_id, requested_at) VALUES (?, ?)
		ON CONFLICT(peer_id) DO UPDATE SET requested_at = excluded.requested_at`,
		peerID, at.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put last request %d: %w", peerID, mapError(err))
	}
	return nil
}

func (r *repositories) DeleteLastRequest(ctx context.Context, peerID int64) error {
	if _, err := r.tx.ExecContext(ctx, `DELETE FROM last_requests WHERE peer_id = ?`, peerID); err != nil {
		return fmt.Errorf("delete last request %d: %w", peerID, mapError(err))
	}
	return nil
}
