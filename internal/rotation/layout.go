// Package rotation derives duty rooms from a single anchor record.
//
// A floor is split into two sides, each with its own statically configured
// universe of room numbers. Active rooms of a side rotate in ascending order,
// one room per day. The anchor pins the duty room of each side on one date;
// every other date is computed from it by a day offset taken modulo the
// length of the side's sequence.
package rotation

import (
	"fmt"
	"slices"
)

// Side identifies one of the two independent room sequences of a floor.
type Side int

const (
	// Left is the side holding the lower universe, 601-619 by default.
	Left Side = iota
	// Right is the side holding the upper universe, 620-638 by default.
	Right
)

// Sides lists both sides in a stable order.
var Sides = [...]Side{Left, Right}

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("side(%d)", int(s))
}

// NoRoom marks a side that had no active rooms when the anchor was written.
const NoRoom = 0

// Universe is an inclusive range of room numbers that may belong to a side.
type Universe struct {
	First int `yaml:"first"`
	Last  int `yaml:"last"`
}

// Contains reports whether room falls inside the universe.
func (u Universe) Contains(room int) bool {
	return room >= u.First && room <= u.Last
}

// Rooms returns every room of the universe in ascending order.
func (u Universe) Rooms() []int {
	if u.Last < u.First {
		return nil
	}
	rooms := make([]int, 0, u.Last-u.First+1)
	for room := u.First; room <= u.Last; room++ {
		rooms = append(rooms, room)
	}
	return rooms
}

// Layout describes the two universes of a floor.
type Layout struct {
	Left  Universe `yaml:"left"`
	Right Universe `yaml:"right"`
}

// DefaultLayout is the sixth-floor layout the bot was built for.
func DefaultLayout() Layout {
	return Layout{
		Left:  Universe{First: 601, Last: 619},
		Right: Universe{First: 620, Last: 638},
	}
}

// Validate checks that both universes are non-empty, positive and disjoint.
func (l Layout) Validate() error {
	for _, side := range Sides {
		u := l.Universe(side)
		if u.First <= NoRoom {
			return fmt.Errorf("rotation: %s universe must start above %d, got %d", side, NoRoom, u.First)
		}
		if u.Last < u.First {
			return fmt.Errorf("rotation: %s universe is empty (%d-%d)", side, u.First, u.Last)
		}
	}
	if l.Left.First <= l.Right.Last && l.Right.First <= l.Left.Last {
		return fmt.Errorf("rotation: universes %d-%d and %d-%d overlap",
			l.Left.First, l.Left.Last, l.Right.First, l.Right.Last)
	}
	return nil
}

// Universe returns the universe configured for side.
func (l Layout) Universe(side Side) Universe {
	if side == Right {
		return l.Right
	}
	return l.Left
}

// SideOf returns the side whose universe contains room.
func (l Layout) SideOf(room int) (Side, bool) {
	switch {
	case l.Left.Contains(room):
		return Left, true
	case l.Right.Contains(room):
		return Right, true
	}
	return Left, false
}

// Contains reports whether room belongs to either universe.
func (l Layout) Contains(room int) bool {
	_, ok := l.SideOf(room)
	return ok
}

// AllRooms returns every room of both universes in ascending order.
func (l Layout) AllRooms() []int {
	rooms := append(l.Left.Rooms(), l.Right.Rooms()...)
	slices.Sort(rooms)
	return rooms
}

// Split filters rooms by universe membership into per-side ascending
// sequences. Rooms outside both universes and duplicates are dropped.
func (l Layout) Split(rooms []int) Roster {
	var roster Roster
	for _, room := range rooms {
		side, ok := l.SideOf(room)
		if !ok {
			continue
		}
		if side == Left {
			roster.Left = append(roster.Left, room)
		} else {
			roster.Right = append(roster.Right, room)
		}
	}
	slices.Sort(roster.Left)
	slices.Sort(roster.Right)
	roster.Left = slices.Compact(roster.Left)
	roster.Right = slices.Compact(roster.Right)
	return roster
}
