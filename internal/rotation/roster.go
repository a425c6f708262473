package rotation

import (
	"slices"
	"time"
)

// Roster holds the active rooms of each side in rotation order.
type Roster struct {
	Left  []int
	Right []int
}

// Side returns the ordered sequence of side.
func (r Roster) Side(side Side) []int {
	if side == Right {
		return r.Right
	}
	return r.Left
}

// Len returns the number of active rooms on both sides.
func (r Roster) Len() int {
	return len(r.Left) + len(r.Right)
}

// Locate returns the side holding room and its index in that side's sequence.
func (r Roster) Locate(room int) (Side, int, bool) {
	for _, side := range Sides {
		if idx := slices.Index(r.Side(side), room); idx >= 0 {
			return side, idx, true
		}
	}
	return Left, -1, false
}

// Without returns a copy of the roster with rooms removed.
func (r Roster) Without(rooms []int) Roster {
	drop := func(seq []int) []int {
		out := make([]int, 0, len(seq))
		for _, room := range seq {
			if !slices.Contains(rooms, room) {
				out = append(out, room)
			}
		}
		return out
	}
	return Roster{Left: drop(r.Left), Right: drop(r.Right)}
}

// Anchor is the single persisted record every duty date is derived from.
type Anchor struct {
	Date  time.Time
	Left  int
	Right int
}

// Room returns the anchored room of side.
func (a Anchor) Room(side Side) int {
	if side == Right {
		return a.Right
	}
	return a.Left
}

func (a Anchor) withRoom(side Side, room int) Anchor {
	if side == Right {
		a.Right = room
	} else {
		a.Left = room
	}
	return a
}

// Pair is the duty room of each side on one date. NoRoom marks an empty side.
type Pair struct {
	Left  int
	Right int
}

// Room returns the duty room of side.
func (p Pair) Room(side Side) int {
	if side == Right {
		return p.Right
	}
	return p.Left
}

// AnchorAt converts the pair into an anchor pinned to date.
func (p Pair) AnchorAt(date time.Time) Anchor {
	return Anchor{Date: Day(date), Left: p.Left, Right: p.Right}
}

// Day returns the calendar date of t, in t's location, as UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed number of calendar days from one date to another.
func DaysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)) / (24 * time.Hour))
}

// mod is the mathematical modulo; the result is never negative.
func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
