package application

import (
	"errors"

	"github.com/example/duty-bot/internal/rotation"
)

var (
	// ErrRoomNotFound is returned when an operation targets a room outside the active rotation.
	ErrRoomNotFound = rotation.ErrRoomNotFound
	// ErrStoreNotConfigured is returned by services built without a store.
	ErrStoreNotConfigured = errors.New("application: store not configured")
)
