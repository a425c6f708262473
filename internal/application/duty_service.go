package application

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/example/duty-bot/internal/persistence"
	"github.com/example/duty-bot/internal/rotation"
)

// DutyService owns the rotation state of one floor. Every operation runs in a
// single store transaction.
type DutyService struct {
	store    persistence.Store
	layout   rotation.Layout
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// NewDutyService constructs a duty service with the provided dependencies.
func NewDutyService(store persistence.Store, layout rotation.Layout, location *time.Location, now func() time.Time) *DutyService {
	return NewDutyServiceWithLogger(store, layout, location, now, nil)
}

// NewDutyServiceWithLogger constructs a duty service with a specified logger.
func NewDutyServiceWithLogger(store persistence.Store, layout rotation.Layout, location *time.Location, now func() time.Time, logger *slog.Logger) *DutyService {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &DutyService{store: store, layout: layout, location: location, now: now, logger: defaultLogger(logger)}
}

func (s *DutyService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DutyService", operation, attrs...)
}

// Layout returns the floor layout the service was built with.
func (s *DutyService) Layout() rotation.Layout {
	return s.layout
}

// Today returns the current civil date of the floor.
func (s *DutyService) Today() time.Time {
	return rotation.Day(s.now().In(s.location))
}

func (s *DutyService) withTx(ctx context.Context, fn func(ctx context.Context, tx persistence.Tx) error) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	return s.store.WithTx(ctx, fn)
}

// loadState reads the roster and the anchor. A missing anchor is initialised
// to today and the first room of each side.
func (s *DutyService) loadState(ctx context.Context, tx persistence.Tx) (rotation.Roster, rotation.Anchor, error) {
	rooms, err := tx.ListRooms(ctx)
	if err != nil {
		return rotation.Roster{}, rotation.Anchor{}, err
	}
	roster := s.layout.Split(rooms)

	stored, err := tx.GetAnchor(ctx)
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		anchor := rotation.Initial(roster, s.Today())
		if err := tx.ReplaceAnchor(ctx, toPersistenceAnchor(anchor)); err != nil {
			return rotation.Roster{}, rotation.Anchor{}, err
		}
		return roster, anchor, nil
	case err != nil:
		return rotation.Roster{}, rotation.Anchor{}, err
	}
	return roster, fromPersistenceAnchor(stored), nil
}

// Bootstrap fills an empty room set with every room of the layout and makes
// sure the anchor exists.
func (s *DutyService) Bootstrap(ctx context.Context) (err error) {
	logger := s.loggerWith(ctx, "Bootstrap")
	seeded := false
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to bootstrap rotation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "rotation ready", "seeded", seeded)
	}()

	err = s.withTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		rooms, err := tx.ListRooms(ctx)
		if err != nil {
			return err
		}
		if len(rooms) == 0 {
			if err := tx.InsertRooms(ctx, s.layout.AllRooms()); err != nil {
				return err
			}
			seeded = true
		}
		_, _, err = s.loadState(ctx, tx)
		return err
	})
	return err
}

// Rooms returns every active room in ascending order.
func (s *DutyService) Rooms(ctx context.Context) (rooms []int, err error) {
	err = s.withTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		rooms, err = tx.ListRooms(ctx)
		return err
	})
	if err != nil {
		s.loggerWith(ctx, "Rooms").ErrorContext(ctx, "failed to list rooms", "error", err, "error_kind", ErrorKind(err))
	}
	return rooms, err
}

// Roster returns the active rooms split by side.
func (s *DutyService) Roster(ctx context.Context) (rotation.Roster, error) {
	rooms, err := s.Rooms(ctx)
	if err != nil {
		return rotation.Roster{}, err
	}
	return s.layout.Split(rooms), nil
}

// DutyRoomsForDate returns the duty room of each side on date.
func (s *DutyService) DutyRoomsForDate(ctx context.Context, date time.Time) (pair rotation.Pair, err error) {
	err = s.withTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		roster, anchor, err := s.loadState(ctx, tx)
		if err != nil {
			return err
		}
		pair, err = roster.DutyOn(anchor, date)
		return err
	})
	if err != nil {
		s.loggerWith(ctx, "DutyRoomsForDate", "date", date.Format(time.DateOnly)).
			ErrorContext(ctx, "failed to compute duty rooms", "error", err, "error_kind", ErrorKind(err))
	}
	return pair, err
}

// SetRoom makes room the duty room of its side on date.
func (s *DutyService) SetRoom(ctx context.Context, room int, date time.Time) error {
	_, missing, err := s.SetRooms(ctx, []int{room}, date)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return ErrRoomNotFound
	}
	return nil
}

// SetRooms makes each active room of rooms, in ascending order, the duty room
// of its side on date, so the largest room of a side wins. Rooms outside the
// rotation are returned as missing. All changes commit in one transaction.
func (s *DutyService) SetRooms(ctx context.Context, rooms []int, date time.Time) (set, missing []int, err error) {
	logger := s.loggerWith(ctx, "SetRooms", "requested", len(rooms), "date", date.Format(time.DateOnly))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to set duty rooms", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "duty rooms set", "set", set, "missing", len(missing))
	}()

	err = s.withTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		set, missing = nil, nil
		roster, anchor, err := s.loadState(ctx, tx)
		if err != nil {
			return err
		}
		for _, room := range normalizeRooms(rooms) {
			next, err := roster.SetRoom(anchor, room, date)
			switch {
			case errors.Is(err, ErrRoomNotFound):
				missing = append(missing, room)
				continue
			case err != nil:
				return err
			}
			anchor = next
			set = append(set, room)
		}
		if len(set) == 0 {
			return nil
		}
		return tx.ReplaceAnchor(ctx, toPersistenceAnchor(anchor))
	})
	if err != nil {
		return nil, nil, err
	}
	return set, missing, nil
}

// AddRooms adds the rooms of the layout that are not active yet and returns
// them. Today's duty rooms are unaffected.
func (s *DutyService) AddRooms(ctx context.Context, rooms []int) (added []int, err error) {
	logger := s.loggerWith(ctx, "AddRooms", "requested", rooms)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to add rooms", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "rooms added", "added", added)
	}()

	err = s.withTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		roster, anchor, err := s.loadState(ctx, tx)
		if err != nil {
			return err
		}
		added = nil
		for _, room := range normalizeRooms(rooms) {
			if _, _, present := roster.Locate(room); !present && s.layout.Contains(room) {
				added = append(added, room)
			}
		}
		if len(added) == 0 {
			return nil
		}

		today := s.Today()
		current, err := roster.DutyOn(anchor, today)
		if err != nil {
			return err
		}
		if err := tx.InsertRooms(ctx, added); err != nil {
			return err
		}
		return tx.ReplaceAnchor(ctx, toPersistenceAnchor(current.AnchorAt(today)))
	})
	if err != nil {
		added = nil
	}
	return added, err
}

// RemoveRooms removes the given active rooms and returns them. A side whose
// duty room is removed moves on to the next remaining room.
func (s *DutyService) RemoveRooms(ctx context.Context, rooms []int) (removed []int, err error) {
	logger := s.loggerWith(ctx, "RemoveRooms", "requested", rooms)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to remove rooms", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "rooms removed", "removed", removed)
	}()

	err = s.withTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		roster, anchor, err := s.loadState(ctx, tx)
		if err != nil {
			return err
		}
		removed = nil
		for _, room := range normalizeRooms(rooms) {
			if _, _, present := roster.Locate(room); present {
				removed = append(removed, room)
			}
		}
		if len(removed) == 0 {
			return nil
		}

		next, err := roster.AfterRemoval(anchor, removed, s.Today())
		if err != nil {
			return err
		}
		if err := tx.ReplaceAnchor(ctx, toPersistenceAnchor(next)); err != nil {
			return err
		}
		return tx.DeleteRooms(ctx, removed)
	})
	if err != nil {
		removed = nil
	}
	return removed, err
}

// NextDutyDate returns the first date from today on which room is on duty.
func (s *DutyService) NextDutyDate(ctx context.Context, room int) (date time.Time, err error) {
	err = s.withTx(ctx, func(ctx context.Context, tx persistence.Tx) error {
		roster, anchor, err := s.loadState(ctx, tx)
		if err != nil {
			return err
		}
		date, err = roster.NextDutyDate(anchor, room, s.Today())
		return err
	})
	if err != nil && !errors.Is(err, ErrRoomNotFound) {
		s.loggerWith(ctx, "NextDutyDate", "room", room).
			ErrorContext(ctx, "failed to compute duty date", "error", err, "error_kind", ErrorKind(err))
	}
	return date, err
}

func normalizeRooms(rooms []int) []int {
	out := slices.Clone(rooms)
	slices.Sort(out)
	return slices.Compact(out)
}

func toPersistenceAnchor(a rotation.Anchor) persistence.Anchor {
	return persistence.Anchor{Date: a.Date, LeftRoom: a.Left, RightRoom: a.Right}
}

func fromPersistenceAnchor(a persistence.Anchor) rotation.Anchor {
	return rotation.Anchor{Date: rotation.Day(a.Date), Left: a.LeftRoom, Right: a.RightRoom}
}
