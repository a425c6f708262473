package persistence

import "time"

// Anchor is the single synchronisation record of the rotation: the rooms on
// duty on Date, one per side. A zero room means the side had no rooms.
type Anchor struct {
	Date      time.Time
	LeftRoom  int
	RightRoom int
}
