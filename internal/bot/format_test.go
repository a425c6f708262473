package bot

import (
	"testing"
	"time"

	"github.com/example/duty-bot/internal/application"
	"github.com/example/duty-bot/internal/rotation"
)

func TestCenter(t *testing.T) {
	cases := map[string]string{
		"1":      "  1  ",
		"11":     " 11  ",
		"601":    " 601 ",
		"___":    " ___ ",
		"1234":   "1234 ",
		"123456": "123456",
	}
	for in, want := range cases {
		if got := center(in, 5); got != want {
			t.Errorf("center(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDutyDateText(t *testing.T) {
	today := time.Date(2024, time.December, 30, 0, 0, 0, 0, time.UTC)

	if got, want := dutyDateText(610, today, today), "610 комната дежурит сегодня"; got != want {
		t.Errorf("today: got %q, want %q", got, want)
	}
	sunday := today.AddDate(0, 0, 6)
	if got, want := dutyDateText(610, sunday, today), "610 комната дежурит ориентировочно 5 января (Воскресенье)"; got != want {
		t.Errorf("sunday: got %q, want %q", got, want)
	}
}

func TestTodayText(t *testing.T) {
	cases := []struct {
		pair rotation.Pair
		want string
	}{
		{rotation.Pair{Left: 601, Right: 620}, "‼ Сегодня дежурят 601 и 620"},
		{rotation.Pair{Left: 601}, "‼ Сегодня дежурит 601"},
		{rotation.Pair{Right: 620}, "‼ Сегодня дежурит 620"},
		{rotation.Pair{}, "‼ Сегодня никто не дежурит"},
	}
	for _, tc := range cases {
		if got := todayText(tc.pair); got != tc.want {
			t.Errorf("todayText(%+v) = %q, want %q", tc.pair, got, tc.want)
		}
	}
}

func TestRoomListTextEmpty(t *testing.T) {
	if got, want := roomListText(rotation.Roster{}), "📋 Дежурящие комнаты:"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestHelpTextWithoutAdmins(t *testing.T) {
	got := helpText(nil, "unknown")
	want := helpCommands + "\n\nrevision: unknown"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got := mention(application.Profile{ID: 7}); got != "[id7|id7]" {
		t.Fatalf("mention = %q", got)
	}
}
