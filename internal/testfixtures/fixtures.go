package testfixtures

import (
	"context"
	"testing"
	"time"

	"github.com/example/duty-bot/internal/persistence"
	"github.com/example/duty-bot/internal/rotation"
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDay returns the civil date of ReferenceTime.
func ReferenceDay() time.Time {
	return rotation.Day(referenceTime)
}

// SmallLayout is a two-side floor with five rooms per side, 1-5 and 11-15,
// which keeps rotation arithmetic readable in tests.
func SmallLayout() rotation.Layout {
	return rotation.Layout{
		Left:  rotation.Universe{First: 1, Last: 5},
		Right: rotation.Universe{First: 11, Last: 15},
	}
}

// FloorState is the persisted state a test starts from.
type FloorState struct {
	Rooms  []int
	Anchor *persistence.Anchor
	Admins []int64
}

// Seed writes state into the harness store.
func (h *SQLiteHarness) Seed(tb testing.TB, state FloorState) {
	tb.Helper()
	h.InTx(tb, func(ctx context.Context, tx persistence.Tx) error {
		if len(state.Rooms) > 0 {
			if err := tx.InsertRooms(ctx, state.Rooms); err != nil {
				return err
			}
		}
		if state.Anchor != nil {
			if err := tx.ReplaceAnchor(ctx, *state.Anchor); err != nil {
				return err
			}
		}
		for _, id := range state.Admins {
			if err := tx.AddAdmin(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// Anchor reads the stored anchor and fails the test when it is missing.
func (h *SQLiteHarness) Anchor(tb testing.TB) persistence.Anchor {
	tb.Helper()
	var anchor persistence.Anchor
	h.InTx(tb, func(ctx context.Context, tx persistence.Tx) error {
		var err error
		anchor, err = tx.GetAnchor(ctx)
		return err
	})
	return anchor
}

// Rooms reads the stored room set.
func (h *SQLiteHarness) Rooms(tb testing.TB) []int {
	tb.Helper()
	var rooms []int
	h.InTx(tb, func(ctx context.Context, tx persistence.Tx) error {
		var err error
		rooms, err = tx.ListRooms(ctx)
		return err
	})
	return rooms
}

// AnchorOn builds an anchor on day.
func AnchorOn(day time.Time, left, right int) *persistence.Anchor {
	return &persistence.Anchor{Date: rotation.Day(day), LeftRoom: left, RightRoom: right}
}
