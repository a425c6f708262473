package rotation

import (
	"errors"
	"fmt"
)

var (
	// ErrRoomNotFound is returned when an operation targets a room outside the active rotation.
	ErrRoomNotFound = errors.New("rotation: room not found")
	// ErrInconsistentAnchor matches every *InconsistentAnchorError.
	ErrInconsistentAnchor = errors.New("rotation: inconsistent anchor")
)

// InconsistentAnchorError reports an anchor that references a room missing
// from its side's sequence. Correct add/remove handling never produces one.
type InconsistentAnchorError struct {
	Side Side
	Room int
}

func (e *InconsistentAnchorError) Error() string {
	return fmt.Sprintf("rotation: anchored %s room %d is not in the %s sequence", e.Side, e.Room, e.Side)
}

// Is lets errors.Is match the ErrInconsistentAnchor sentinel.
func (e *InconsistentAnchorError) Is(target error) bool {
	return target == ErrInconsistentAnchor
}
