package persistence

import (
	"context"
	"time"
)

// RoomRepository stores the set of active duty rooms.
type RoomRepository interface {
	// ListRooms returns the active rooms in ascending order.
	ListRooms(ctx context.Context) ([]int, error)
	// InsertRooms adds rooms, ignoring ones already present.
	InsertRooms(ctx context.Context, rooms []int) error
	// DeleteRooms removes rooms, ignoring ones not present.
	DeleteRooms(ctx context.Context, rooms []int) error
}

// AnchorRepository stores the rotation anchor.
type AnchorRepository interface {
	// GetAnchor returns ErrNotFound before the first ReplaceAnchor.
	GetAnchor(ctx context.Context) (Anchor, error)
	ReplaceAnchor(ctx context.Context, anchor Anchor) error
}

// AdminRepository stores administrator user ids.
type AdminRepository interface {
	ListAdmins(ctx context.Context) ([]int64, error)
	// AddAdmin returns ErrDuplicate when the user already is an administrator.
	AddAdmin(ctx context.Context, userID int64) error
	// DeleteAdmin returns ErrNotFound when the user is not an administrator.
	DeleteAdmin(ctx context.Context, userID int64) error
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// LastRequestRepository stores when each conversation last received the
// "on duty today" announcement.
type LastRequestRepository interface {
	// GetLastRequest returns ErrNotFound when nothing is recorded for peerID.
	GetLastRequest(ctx context.Context, peerID int64) (time.Time, error)
	PutLastRequest(ctx context.Context, peerID int64, at time.Time) error
	DeleteLastRequest(ctx context.Context, peerID int64) error
}

// Tx is the repository surface available inside a transaction.
type Tx interface {
	RoomRepository
	AnchorRepository
	AdminRepository
	LastRequestRepository
}

// Store runs units of work in exclusive transactions. fn's changes are
// committed when it returns nil and rolled back otherwise, including on panic.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
