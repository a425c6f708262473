package rotation

import (
	"slices"
	"time"
)

// Initial returns the anchor written on first use: today and the first room of each side.
func Initial(roster Roster, today time.Time) Anchor {
	anchor := Anchor{Date: Day(today)}
	for _, side := range Sides {
		if seq := roster.Side(side); len(seq) > 0 {
			anchor = anchor.withRoom(side, seq[0])
		}
	}
	return anchor
}

// DutyOn computes the duty pair on date from anchor.
func (r Roster) DutyOn(anchor Anchor, date time.Time) (Pair, error) {
	offset := DaysBetween(anchor.Date, date)

	var pair Pair
	for _, side := range Sides {
		room, err := r.dutyRoom(side, anchor, offset)
		if err != nil {
			return Pair{}, err
		}
		if side == Left {
			pair.Left = room
		} else {
			pair.Right = room
		}
	}
	return pair, nil
}

func (r Roster) dutyRoom(side Side, anchor Anchor, offset int) (int, error) {
	seq := r.Side(side)
	if len(seq) == 0 {
		return NoRoom, nil
	}

	base := 0
	if anchored := anchor.Room(side); anchored != NoRoom {
		base = slices.Index(seq, anchored)
		if base < 0 {
			return NoRoom, &InconsistentAnchorError{Side: side, Room: anchored}
		}
	}
	return seq[mod(base+offset, len(seq))], nil
}

// Rebase re-pins the anchor to date keeping every duty room unchanged.
func (r Roster) Rebase(anchor Anchor, date time.Time) (Anchor, error) {
	pair, err := r.DutyOn(anchor, date)
	if err != nil {
		return Anchor{}, err
	}
	return pair.AnchorAt(date), nil
}

// SetRoom makes room the duty room of its side on date. The other side keeps
// the room the previous anchor assigns to date.
func (r Roster) SetRoom(anchor Anchor, room int, date time.Time) (Anchor, error) {
	side, _, ok := r.Locate(room)
	if !ok {
		return Anchor{}, ErrRoomNotFound
	}
	rebased, err := r.Rebase(anchor, date)
	if err != nil {
		return Anchor{}, err
	}
	return rebased.withRoom(side, room), nil
}

// NextDutyDate returns the first date on or after today when room is on duty.
func (r Roster) NextDutyDate(anchor Anchor, room int, today time.Time) (time.Time, error) {
	side, idx, ok := r.Locate(room)
	if !ok {
		return time.Time{}, ErrRoomNotFound
	}
	current, err := r.DutyOn(anchor, today)
	if err != nil {
		return time.Time{}, err
	}

	seq := r.Side(side)
	currentIdx := slices.Index(seq, current.Room(side))
	offset := mod(idx-currentIdx, len(seq))
	return Day(today).AddDate(0, 0, offset), nil
}

// AfterRemoval returns the anchor to write on today when removed rooms leave
// the roster. A side whose duty room is removed moves forward to the smallest
// remaining room above it, wrapping to the smallest remaining room; the other
// side keeps today's duty room.
func (r Roster) AfterRemoval(anchor Anchor, removed []int, today time.Time) (Anchor, error) {
	current, err := r.DutyOn(anchor, today)
	if err != nil {
		return Anchor{}, err
	}
	remaining := r.Without(removed)

	next := Anchor{Date: Day(today)}
	for _, side := range Sides {
		room := current.Room(side)
		if slices.Contains(removed, room) {
			room = nextAtOrAfter(remaining.Side(side), room)
		}
		next = next.withRoom(side, room)
	}
	return next, nil
}

func nextAtOrAfter(seq []int, room int) int {
	if len(seq) == 0 {
		return NoRoom
	}
	for _, candidate := range seq {
		if candidate >= room {
			return candidate
		}
	}
	return seq[0]
}
