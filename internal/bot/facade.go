package bot

import (
	"context"
	"errors"
	"time"

	"github.com/example/duty-bot/internal/application"
)

// Today returns the current civil date of the floor.
func (b *Bot) Today() time.Time {
	return b.duty.Today()
}

// NotifyDutyDate replies with the next date room is on duty.
func (b *Bot) NotifyDutyDate(ctx context.Context, peerID int64, room int) error {
	date, err := b.duty.NextDutyDate(ctx, room)
	switch {
	case errors.Is(err, application.ErrRoomNotFound):
		b.reply(ctx, peerID, roomMissingText(room))
		return nil
	case err != nil:
		return err
	}
	b.reply(ctx, peerID, dutyDateText(room, date, b.Today()))
	return nil
}

// SetRooms makes the active rooms of rooms today's duty rooms. Rooms outside
// the rotation get one combined reply.
func (b *Bot) SetRooms(ctx context.Context, peerID int64, rooms []int, date time.Time) error {
	set, missing, err := b.duty.SetRooms(ctx, rooms, date)
	if err != nil {
		return err
	}
	if len(set) > 0 {
		if err := b.throttle.Reset(ctx, peerID); err != nil {
			return err
		}
	}
	for _, room := range set {
		b.reply(ctx, peerID, roomSetText(room))
	}
	if len(missing) > 0 {
		b.reply(ctx, peerID, roomsMissingText(missing))
	}
	return nil
}

// AddRooms adds rooms and lists the ones actually added.
func (b *Bot) AddRooms(ctx context.Context, peerID int64, rooms []int) error {
	added, err := b.duty.AddRooms(ctx, rooms)
	if err != nil || len(added) == 0 {
		return err
	}
	if err := b.throttle.Reset(ctx, peerID); err != nil {
		return err
	}
	b.reply(ctx, peerID, roomsAddedText(added))
	return nil
}

// RemoveRooms removes rooms and lists the ones actually removed.
func (b *Bot) RemoveRooms(ctx context.Context, peerID int64, rooms []int) error {
	removed, err := b.duty.RemoveRooms(ctx, rooms)
	if err != nil || len(removed) == 0 {
		return err
	}
	if err := b.throttle.Reset(ctx, peerID); err != nil {
		return err
	}
	b.reply(ctx, peerID, roomsRemovedText(removed))
	return nil
}

// ShowList replies with the active rooms of both sides.
func (b *Bot) ShowList(ctx context.Context, peerID int64) error {
	roster, err := b.duty.Roster(ctx)
	if err != nil {
		return err
	}
	b.reply(ctx, peerID, roomListText(roster))
	return nil
}

// ShowToday announces today's duty rooms unless the conversation got the
// announcement within the throttle window. A failed lookup releases the window.
func (b *Bot) ShowToday(ctx context.Context, peerID int64) error {
	ok, err := b.throttle.ShouldNotify(ctx, peerID)
	if err != nil {
		return err
	}
	if !ok {
		b.loggerWith(ctx, "ShowToday", "peer_id", peerID).DebugContext(ctx, "announcement throttled")
		return nil
	}
	pair, err := b.duty.DutyRoomsForDate(ctx, b.Today())
	if err != nil {
		if resetErr := b.throttle.Reset(ctx, peerID); resetErr != nil {
			return errors.Join(err, resetErr)
		}
		return err
	}
	b.reply(ctx, peerID, todayText(pair))
	return nil
}

// Help replies with the command reference and the current administrators.
func (b *Bot) Help(ctx context.Context, peerID int64) error {
	ids, err := b.admins.ListAdmins(ctx)
	if err != nil {
		return err
	}
	b.reply(ctx, peerID, helpText(b.lookupProfiles(ctx, ids), b.revision))
	return nil
}

// AddAdmin grants userID administrator rights.
func (b *Bot) AddAdmin(ctx context.Context, peerID, userID int64) error {
	added, err := b.admins.AddAdmin(ctx, userID)
	if err != nil {
		return err
	}
	profile := b.lookupProfile(ctx, userID)
	if added {
		b.reply(ctx, peerID, adminAddedText(profile))
	} else {
		b.reply(ctx, peerID, alreadyAdminText(profile))
	}
	return nil
}

// RemoveAdmin revokes userID's administrator rights.
func (b *Bot) RemoveAdmin(ctx context.Context, peerID, userID int64) error {
	removed, err := b.admins.RemoveAdmin(ctx, userID)
	if err != nil {
		return err
	}
	profile := b.lookupProfile(ctx, userID)
	if removed {
		b.reply(ctx, peerID, adminRemovedText(profile))
	} else {
		b.reply(ctx, peerID, notAdminText(profile))
	}
	return nil
}

// lookupProfiles resolves display names in ids order. A failed lookup falls
// back to bare ids so the reply is still sent.
func (b *Bot) lookupProfiles(ctx context.Context, ids []int64) []application.Profile {
	found, err := b.profiles.Lookup(ctx, ids)
	if err != nil {
		found = nil
	}
	profiles := make([]application.Profile, 0, len(ids))
	for _, id := range ids {
		profile, ok := found[id]
		if !ok {
			profile = application.Profile{ID: id}
		}
		profiles = append(profiles, profile)
	}
	return profiles
}

func (b *Bot) lookupProfile(ctx context.Context, id int64) application.Profile {
	return b.lookupProfiles(ctx, []int64{id})[0]
}
