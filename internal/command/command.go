// Package command turns chat text into typed bot commands.
//
// Commands form a closed set of kinds. Each kind knows which single operation
// of the Facade it invokes; privileged kinds require the sender to be an
// administrator, which the caller checks before calling Perform.
package command

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// Kind tags a command variant.
type Kind int

const (
	KindGetDutyDate Kind = iota + 1
	KindSetRooms
	KindAddRooms
	KindRemoveRooms
	KindShowList
	KindNotifyToday
	KindHelp
	KindAddAdmins
	KindRemoveAdmins
)

var kindNames = map[Kind]string{
	KindGetDutyDate:  "get_duty_date",
	KindSetRooms:     "set_rooms",
	KindAddRooms:     "add_rooms",
	KindRemoveRooms:  "remove_rooms",
	KindShowList:     "show_list",
	KindNotifyToday:  "notify_today",
	KindHelp:         "help",
	KindAddAdmins:    "add_admins",
	KindRemoveAdmins: "remove_admins",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Command is an immutable parsed command.
type Command struct {
	Kind    Kind
	Rooms   []int
	UserIDs []int64
}

// GetDutyDate asks when room is next on duty.
func GetDutyDate(room int) Command {
	return Command{Kind: KindGetDutyDate, Rooms: []int{room}}
}

// SetRooms marks the rooms as on duty today. Rooms of one side overwrite each
// other, the largest winning.
func SetRooms(rooms ...int) Command {
	return Command{Kind: KindSetRooms, Rooms: sortedRooms(rooms)}
}

// AddRooms adds rooms to the rotation.
func AddRooms(rooms ...int) Command {
	return Command{Kind: KindAddRooms, Rooms: sortedRooms(rooms)}
}

// RemoveRooms removes rooms from the rotation.
func RemoveRooms(rooms ...int) Command {
	return Command{Kind: KindRemoveRooms, Rooms: sortedRooms(rooms)}
}

// ShowList lists the active rooms of both sides.
func ShowList() Command { return Command{Kind: KindShowList} }

// NotifyToday announces today's duty rooms.
func NotifyToday() Command { return Command{Kind: KindNotifyToday} }

// Help describes the command surface.
func Help() Command { return Command{Kind: KindHelp} }

// AddAdmins grants administrator rights.
func AddAdmins(userIDs ...int64) Command {
	return Command{Kind: KindAddAdmins, UserIDs: slices.Clone(userIDs)}
}

// RemoveAdmins revokes administrator rights.
func RemoveAdmins(userIDs ...int64) Command {
	return Command{Kind: KindRemoveAdmins, UserIDs: slices.Clone(userIDs)}
}

// Privileged reports whether only administrators may issue the command.
func (c Command) Privileged() bool {
	switch c.Kind {
	case KindSetRooms, KindAddRooms, KindRemoveRooms, KindAddAdmins, KindRemoveAdmins:
		return true
	}
	return false
}

func (c Command) String() string {
	switch {
	case len(c.Rooms) > 0:
		return fmt.Sprintf("%s%v", c.Kind, c.Rooms)
	case len(c.UserIDs) > 0:
		return fmt.Sprintf("%s%v", c.Kind, c.UserIDs)
	}
	return c.Kind.String()
}

// Facade is the narrow surface commands operate on.
type Facade interface {
	Today() time.Time
	NotifyDutyDate(ctx context.Context, peerID int64, room int) error
	SetRooms(ctx context.Context, peerID int64, rooms []int, date time.Time) error
	AddRooms(ctx context.Context, peerID int64, rooms []int) error
	RemoveRooms(ctx context.Context, peerID int64, rooms []int) error
	ShowList(ctx context.Context, peerID int64) error
	ShowToday(ctx context.Context, peerID int64) error
	Help(ctx context.Context, peerID int64) error
	AddAdmin(ctx context.Context, peerID, userID int64) error
	RemoveAdmin(ctx context.Context, peerID, userID int64) error
}

// Perform invokes the operation the command stands for.
func (c Command) Perform(ctx context.Context, f Facade, peerID int64) error {
	switch c.Kind {
	case KindGetDutyDate:
		if len(c.Rooms) == 0 {
			return fmt.Errorf("command: %s without a room", c.Kind)
		}
		return f.NotifyDutyDate(ctx, peerID, c.Rooms[0])
	case KindSetRooms:
		return f.SetRooms(ctx, peerID, c.Rooms, f.Today())
	case KindAddRooms:
		return f.AddRooms(ctx, peerID, c.Rooms)
	case KindRemoveRooms:
		return f.RemoveRooms(ctx, peerID, c.Rooms)
	case KindShowList:
		return f.ShowList(ctx, peerID)
	case KindNotifyToday:
		return f.ShowToday(ctx, peerID)
	case KindHelp:
		return f.Help(ctx, peerID)
	case KindAddAdmins:
		for _, id := range c.UserIDs {
			if err := f.AddAdmin(ctx, peerID, id); err != nil {
				return err
			}
		}
		return nil
	case KindRemoveAdmins:
		for _, id := range c.UserIDs {
			if err := f.RemoveAdmin(ctx, peerID, id); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("command: unknown kind %s", c.Kind)
}

func sortedRooms(rooms []int) []int {
	out := slices.Clone(rooms)
	slices.Sort(out)
	return slices.Compact(out)
}
