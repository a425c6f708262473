package application_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/example/duty-bot/internal/application"
	"github.com/example/duty-bot/internal/persistence"
	"github.com/example/duty-bot/internal/persistence/sqlite"
	"github.com/example/duty-bot/internal/rotation"
	"github.com/example/duty-bot/internal/testfixtures"
)

func newDutyFixture(t *testing.T, state testfixtures.FloorState) (*application.DutyService, *testfixtures.SQLiteHarness, *testfixtures.ServiceFactory) {
	t.Helper()
	factory := testfixtures.NewServiceFactory()
	harness := testfixtures.NewSQLiteHarness(t)
	harness.Seed(t, state)
	return factory.NewDutyService(harness.Store), harness, factory
}

func allSmallRooms() []int {
	return testfixtures.SmallLayout().AllRooms()
}

func TestDutyServiceBootstrap(t *testing.T) {
	t.Parallel()

	svc, harness, _ := newDutyFixture(t, testfixtures.FloorState{})
	ctx := context.Background()

	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if diff := cmp.Diff(allSmallRooms(), harness.Rooms(t)); diff != "" {
		t.Fatalf("rooms mismatch (-want +got):\n%s", diff)
	}
	want := *testfixtures.AnchorOn(testfixtures.ReferenceDay(), 1, 11)
	if diff := cmp.Diff(want, harness.Anchor(t)); diff != "" {
		t.Fatalf("anchor mismatch (-want +got):\n%s", diff)
	}

	if _, err := svc.RemoveRooms(ctx, []int{2}); err != nil {
		t.Fatalf("RemoveRooms failed: %v", err)
	}
	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("second Bootstrap failed: %v", err)
	}
	if got := harness.Rooms(t); len(got) != 9 {
		t.Fatalf("expected bootstrap to keep a non-empty room set, got %v", got)
	}
}

func TestDutyServiceDutyRoomsForDate(t *testing.T) {
	t.Parallel()

	today := testfixtures.ReferenceDay()
	svc, _, _ := newDutyFixture(t, testfixtures.FloorState{
		Rooms:  allSmallRooms(),
		Anchor: testfixtures.AnchorOn(today, 1, 11),
	})

	tests := []struct {
		offset int
		want   rotation.Pair
	}{
		{offset: 0, want: rotation.Pair{Left: 1, Right: 11}},
		{offset: 2, want: rotation.Pair{Left: 3, Right: 13}},
		{offset: -1, want: rotation.Pair{Left: 5, Right: 15}},
		{offset: 12, want: rotation.Pair{Left: 3, Right: 13}},
	}
	for _, tt := range tests {
		got, err := svc.DutyRoomsForDate(context.Background(), today.AddDate(0, 0, tt.offset))
		if err != nil {
			t.Fatalf("offset %d: %v", tt.offset, err)
		}
		if got != tt.want {
			t.Fatalf("offset %d: got %+v, want %+v", tt.offset, got, tt.want)
		}
	}
}

func TestDutyServiceInitialisesMissingAnchor(t *testing.T) {
	t.Parallel()

	svc, harness, _ := newDutyFixture(t, testfixtures.FloorState{Rooms: []int{2, 4, 13}})
	got, err := svc.DutyRoomsForDate(context.Background(), svc.Today())
	if err != nil {
		t.Fatalf("DutyRoomsForDate failed: %v", err)
	}
	if got != (rotation.Pair{Left: 2, Right: 13}) {
		t.Fatalf("unexpected pair %+v", got)
	}
	if a := harness.Anchor(t); a.LeftRoom != 2 || a.RightRoom != 13 {
		t.Fatalf("expected anchor to be persisted, got %+v", a)
	}
}

func TestDutyServiceSetRoom(t *testing.T) {
	t.Parallel()

	today := testfixtures.ReferenceDay()

	t.Run("today", func(t *testing.T) {
		t.Parallel()
		svc, harness, _ := newDutyFixture(t, testfixtures.FloorState{
			Rooms:  allSmallRooms(),
			Anchor: testfixtures.AnchorOn(today.AddDate(0, 0, -3), 1, 11),
		})
		if err := svc.SetRoom(context.Background(), 2, today); err != nil {
			t.Fatalf("SetRoom failed: %v", err)
		}
		want := *testfixtures.AnchorOn(today, 2, 14)
		if diff := cmp.Diff(want, harness.Anchor(t)); diff != "" {
			t.Fatalf("anchor mismatch (-want +got):\n%s", diff)
		}
		pair, err := svc.DutyRoomsForDate(context.Background(), today)
		if err != nil || pair != (rotation.Pair{Left: 2, Right: 14}) {
			t.Fatalf("DutyRoomsForDate = %+v, %v", pair, err)
		}
	})

	t.Run("future date recomputes the other side", func(t *testing.T) {
		t.Parallel()
		svc, harness, _ := newDutyFixture(t, testfixtures.FloorState{
			Rooms:  allSmallRooms(),
			Anchor: testfixtures.AnchorOn(today, 1, 11),
		})
		if err := svc.SetRoom(context.Background(), 15, today.AddDate(0, 0, 2)); err != nil {
			t.Fatalf("SetRoom failed: %v", err)
		}
		want := *testfixtures.AnchorOn(today.AddDate(0, 0, 2), 3, 15)
		if diff := cmp.Diff(want, harness.Anchor(t)); diff != "" {
			t.Fatalf("anchor mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unknown room leaves state untouched", func(t *testing.T) {
		t.Parallel()
		before := testfixtures.AnchorOn(today, 1, 11)
		svc, harness, _ := newDutyFixture(t, testfixtures.FloorState{
			Rooms:  []int{1, 2, 11},
			Anchor: before,
		})
		err := svc.SetRoom(context.Background(), 3, today)
		if !errors.Is(err, application.ErrRoomNotFound) {
			t.Fatalf("expected ErrRoomNotFound, got %v", err)
		}
		if diff := cmp.Diff(*before, harness.Anchor(t)); diff != "" {
			t.Fatalf("anchor changed (-want +got):\n%s", diff)
		}
	})
}

func TestDutyServiceSetRooms(t *testing.T) {
	t.Parallel()

	today := testfixtures.ReferenceDay()
	svc, harness, _ := newDutyFixture(t, testfixtures.FloorState{
		Rooms:  []int{1, 2, 11, 12},
		Anchor: testfixtures.AnchorOn(today, 1, 12),
	})

	set, missing, err := svc.SetRooms(context.Background(), []int{99, 11, 3, 2, 11}, today)
	if err != nil {
		t.Fatalf("SetRooms failed: %v", err)
	}
	if diff := cmp.Diff([]int{2, 11}, set); diff != "" {
		t.Fatalf("set mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{3, 99}, missing); diff != "" {
		t.Fatalf("missing mismatch (-want +got):\n%s", diff)
	}
	want := *testfixtures.AnchorOn(today, 2, 11)
	if diff := cmp.Diff(want, harness.Anchor(t)); diff != "" {
		t.Fatalf("anchor mismatch (-want +got):\n%s", diff)
	}

	set, missing, err = svc.SetRooms(context.Background(), []int{4, 5}, today)
	if err != nil || len(set) != 0 || len(missing) != 2 {
		t.Fatalf("SetRooms of inactive rooms = %v, %v, %v", set, missing, err)
	}
	if diff := cmp.Diff(want, harness.Anchor(t)); diff != "" {
		t.Fatalf("anchor changed (-want +got):\n%s", diff)
	}
}

func TestDutyServiceAddRooms(t *testing.T) {
	t.Parallel()

	today := testfixtures.ReferenceDay()

	t.Run("adds new rooms of the layout only", func(t *testing.T) {
		t.Parallel()
		svc, harness, _ := newDutyFixture(t, testfixtures.FloorState{
			Rooms:  []int{1, 3, 11},
			Anchor: testfixtures.AnchorOn(today.AddDate(0, 0, -1), 1, 11),
		})
		added, err := svc.AddRooms(context.Background(), []int{4, 2, 3, 99, 11, 2})
		if err != nil {
			t.Fatalf("AddRooms failed: %v", err)
		}
		if diff := cmp.Diff([]int{2, 4}, added); diff != "" {
			t.Fatalf("added mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]int{1, 2, 3, 4, 11}, harness.Rooms(t)); diff != "" {
			t.Fatalf("rooms mismatch (-want +got):\n%s", diff)
		}
		want := *testfixtures.AnchorOn(today, 3, 11)
		if diff := cmp.Diff(want, harness.Anchor(t)); diff != "" {
			t.Fatalf("today's duty pair changed (-want +got):\n%s", diff)
		}
		tomorrow, err := svc.DutyRoomsForDate(context.Background(), today.AddDate(0, 0, 1))
		if err != nil || tomorrow.Left != 4 {
			t.Fatalf("expected room 4 after 3 tomorrow, got %+v (%v)", tomorrow, err)
		}
	})

	t.Run("nothing new is a no-op", func(t *testing.T) {
		t.Parallel()
		before := testfixtures.AnchorOn(today.AddDate(0, 0, -4), 1, 11)
		svc, harness, _ := newDutyFixture(t, testfixtures.FloorState{Rooms: []int{1, 11}, Anchor: before})
		added, err := svc.AddRooms(context.Background(), []int{1, 42})
		if err != nil || len(added) != 0 {
			t.Fatalf("AddRooms = %v, %v", added, err)
		}
		if diff := cmp.Diff(*before, harness.Anchor(t)); diff != "" {
			t.Fatalf("anchor changed (-want +got):\n%s", diff)
		}
	})

	t.Run("fills an empty side", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newDutyFixture(t, testfixtures.FloorState{
			Rooms:  []int{1, 2},
			Anchor: testfixtures.AnchorOn(today, 1, rotation.NoRoom),
		})
		if _, err := svc.AddRooms(context.Background(), []int{12, 14}); err != nil {
			t.Fatalf("AddRooms failed: %v", err)
		}
		pair, err := svc.DutyRoomsForDate(context.Background(), today)
		if err != nil || pair != (rotation.Pair{Left: 1, Right: 12}) {
			t.Fatalf("DutyRoomsForDate = %+v, %v", pair, err)
		}
	})
}

func TestDutyServiceRemoveRooms(t *testing.T) {
	t.Parallel()

	today := testfixtures.ReferenceDay()
	tests := []struct {
		name        string
		anchor      *persistence.Anchor
		remove      []int
		wantRemoved []int
		wantAnchor  persistence.Anchor
	}{
		{
			name:        "moves to next remaining room",
			anchor:      testfixtures.AnchorOn(today, 3, 12),
			remove:      []int{3, 12, 14, 7},
			wantRemoved: []int{3, 12, 14},
			wantAnchor:  *testfixtures.AnchorOn(today, 4, 13),
		},
		{
			name:        "wraps to smallest",
			anchor:      testfixtures.AnchorOn(today, 5, 15),
			remove:      []int{5, 15},
			wantRemoved: []int{5, 15},
			wantAnchor:  *testfixtures.AnchorOn(today, 1, 11),
		},
		{
			name:        "other side keeps today's room",
			anchor:      testfixtures.AnchorOn(today.AddDate(0, 0, -2), 1, 11),
			remove:      []int{3},
			wantRemoved: []int{3},
			wantAnchor:  *testfixtures.AnchorOn(today, 4, 13),
		},
		{
			name:        "emptying a side",
			anchor:      testfixtures.AnchorOn(today, 2, 11),
			remove:      []int{1, 2, 3, 4, 5},
			wantRemoved: []int{1, 2, 3, 4, 5},
			wantAnchor:  *testfixtures.AnchorOn(today, rotation.NoRoom, 11),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, harness, _ := newDutyFixture(t, testfixtures.FloorState{Rooms: allSmallRooms(), Anchor: tt.anchor})
			removed, err := svc.RemoveRooms(context.Background(), tt.remove)
			if err != nil {
				t.Fatalf("RemoveRooms failed: %v", err)
			}
			if diff := cmp.Diff(tt.wantRemoved, removed); diff != "" {
				t.Fatalf("removed mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantAnchor, harness.Anchor(t)); diff != "" {
				t.Fatalf("anchor mismatch (-want +got):\n%s", diff)
			}
			for _, room := range tt.wantRemoved {
				for _, left := range harness.Rooms(t) {
					if left == room {
						t.Fatalf("room %d still present", room)
					}
				}
			}
			if _, err := svc.DutyRoomsForDate(context.Background(), today.AddDate(0, 0, 3)); err != nil {
				t.Fatalf("anchor inconsistent after removal: %v", err)
			}
		})
	}

	t.Run("absent rooms are a no-op", func(t *testing.T) {
		t.Parallel()
		before := testfixtures.AnchorOn(today.AddDate(0, 0, -1), 1, 11)
		svc, harness, _ := newDutyFixture(t, testfixtures.FloorState{Rooms: []int{1, 11}, Anchor: before})
		removed, err := svc.RemoveRooms(context.Background(), []int{2, 12})
		if err != nil || len(removed) != 0 {
			t.Fatalf("RemoveRooms = %v, %v", removed, err)
		}
		if diff := cmp.Diff(*before, harness.Anchor(t)); diff != "" {
			t.Fatalf("anchor changed (-want +got):\n%s", diff)
		}
	})
}

func TestDutyServiceNextDutyDate(t *testing.T) {
	t.Parallel()

	today := testfixtures.ReferenceDay()
	svc, _, _ := newDutyFixture(t, testfixtures.FloorState{
		Rooms:  allSmallRooms(),
		Anchor: testfixtures.AnchorOn(today.AddDate(0, 0, -1), 5, 11),
	})

	tests := map[int]int{1: 0, 3: 2, 5: 4, 12: 0, 11: 4}
	for room, offset := range tests {
		got, err := svc.NextDutyDate(context.Background(), room)
		if err != nil {
			t.Fatalf("room %d: %v", room, err)
		}
		if want := today.AddDate(0, 0, offset); !got.Equal(want) {
			t.Fatalf("room %d: got %v, want %v", room, got, want)
		}
	}

	if _, err := svc.NextDutyDate(context.Background(), 9); !errors.Is(err, application.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestDutyServiceInconsistentAnchor(t *testing.T) {
	t.Parallel()

	svc, _, _ := newDutyFixture(t, testfixtures.FloorState{
		Rooms:  []int{1, 2},
		Anchor: testfixtures.AnchorOn(testfixtures.ReferenceDay(), 3, rotation.NoRoom),
	})
	_, err := svc.DutyRoomsForDate(context.Background(), svc.Today())
	if !errors.Is(err, rotation.ErrInconsistentAnchor) {
		t.Fatalf("expected ErrInconsistentAnchor, got %v", err)
	}
}

func TestDutyServiceTodayUsesFloorTimeZone(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Date(2024, time.January, 2, 20, 0, 0, 0, time.UTC))
	factory := testfixtures.NewServiceFactory(
		testfixtures.WithClock(clock),
		testfixtures.WithLocation(time.FixedZone("+07", 7*60*60)),
	)
	svc := factory.NewDutyService(nil)

	want := time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC)
	if got := svc.Today(); !got.Equal(want) {
		t.Fatalf("Today() = %v, want %v", got, want)
	}
	if _, err := svc.Rooms(context.Background()); !errors.Is(err, application.ErrStoreNotConfigured) {
		t.Fatalf("expected ErrStoreNotConfigured, got %v", err)
	}
}

func TestDutyServiceConcurrentUpdatesAcrossStores(t *testing.T) {
	t.Parallel()

	factory := testfixtures.NewServiceFactory()
	harness := testfixtures.NewSQLiteHarness(t)
	harness.Seed(t, testfixtures.FloorState{
		Rooms:  allSmallRooms(),
		Anchor: testfixtures.AnchorOn(testfixtures.ReferenceDay(), 1, 11),
	})

	second, err := sqlite.Open(context.Background(), sqlite.Config{Path: harness.Path, BusyTimeout: 30 * time.Second}, factory.Logger)
	if err != nil {
		t.Fatalf("failed to open second store: %v", err)
	}
	t.Cleanup(func() { _ = second.Close() })

	services := []*application.DutyService{
		factory.NewDutyService(harness.Store),
		factory.NewDutyService(second),
	}
	today := testfixtures.ReferenceDay()

	const (
		workers    = 8
		iterations = 40
	)
	var wg sync.WaitGroup
	errs := make(chan error, workers*iterations)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			svc := services[w%len(services)]
			ctx := context.Background()
			for i := 0; i < iterations; i++ {
				room := 1 + (w+i)%5
				if i%2 == 1 {
					room += 10
				}
				var err error
				switch i % 3 {
				case 0:
					_, err = svc.RemoveRooms(ctx, []int{room})
				case 1:
					_, err = svc.AddRooms(ctx, []int{room})
				default:
					_, _, err = svc.SetRooms(ctx, []int{room}, today)
				}
				if err != nil {
					errs <- fmt.Errorf("worker %d step %d: %w", w, i, err)
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	if _, err := services[0].DutyRoomsForDate(context.Background(), today); err != nil {
		t.Fatalf("DutyRoomsForDate after concurrent updates: %v", err)
	}
	rooms := harness.Rooms(t)
	anchor := harness.Anchor(t)
	for _, room := range []int{anchor.LeftRoom, anchor.RightRoom} {
		if room != rotation.NoRoom && !slices.Contains(rooms, room) {
			t.Fatalf("anchor %+v names a room outside %v", anchor, rooms)
		}
	}
}
