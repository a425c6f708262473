package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/duty-bot/internal/application"
	"github.com/example/duty-bot/internal/rotation"
)

const greetingText = "Привет!"

var monthsGenitive = [...]string{
	time.January:   "января",
	time.February:  "февраля",
	time.March:     "марта",
	time.April:     "апреля",
	time.May:       "мая",
	time.June:      "июня",
	time.July:      "июля",
	time.August:    "августа",
	time.September: "сентября",
	time.October:   "октября",
	time.November:  "ноября",
	time.December:  "декабря",
}

var weekdays = [...]string{
	time.Monday:    "Понедельник",
	time.Tuesday:   "Вторник",
	time.Wednesday: "Среда",
	time.Thursday:  "Четверг",
	time.Friday:    "Пятница",
	time.Saturday:  "Суббота",
	time.Sunday:    "Воскресенье",
}

// emptyCell pads the shorter column of the room list.
const emptyCell = "___"

func dutyDateText(room int, date, today time.Time) string {
	if rotation.Day(date).Equal(rotation.Day(today)) {
		return fmt.Sprintf("%d комната дежурит сегодня", room)
	}
	return fmt.Sprintf("%d комната дежурит ориентировочно %d %s (%s)",
		room, date.Day(), monthsGenitive[date.Month()], weekdays[date.Weekday()])
}

func roomMissingText(room int) string {
	return fmt.Sprintf("%d комнаты нет среди дежурящих на 6-ом этаже", room)
}

// maxListedMissing caps how many rejected rooms one reply names.
const maxListedMissing = 20

func roomsMissingText(rooms []int) string {
	if len(rooms) == 1 {
		return roomMissingText(rooms[0])
	}
	listed := joinRooms(rooms[:min(len(rooms), maxListedMissing)])
	if len(rooms) > maxListedMissing {
		listed += fmt.Sprintf(" и ещё %d", len(rooms)-maxListedMissing)
	}
	return fmt.Sprintf("Комнат %s нет среди дежурящих на 6-ом этаже", listed)
}

func roomSetText(room int) string {
	return fmt.Sprintf("✔ %d комната установлена дежурящей сегодня", room)
}

func roomsAddedText(rooms []int) string {
	return "➕ Добавлены комнаты: " + joinRooms(rooms)
}

func roomsRemovedText(rooms []int) string {
	return "➖ Убраны комнаты: " + joinRooms(rooms)
}

func joinRooms(rooms []int) string {
	parts := make([]string, len(rooms))
	for i, room := range rooms {
		parts[i] = strconv.Itoa(room)
	}
	return strings.Join(parts, ", ")
}

// todayText announces the pair. A side without rooms is left out.
func todayText(pair rotation.Pair) string {
	switch {
	case pair.Left != rotation.NoRoom && pair.Right != rotation.NoRoom:
		return fmt.Sprintf("‼ Сегодня дежурят %d и %d", pair.Left, pair.Right)
	case pair.Left != rotation.NoRoom:
		return fmt.Sprintf("‼ Сегодня дежурит %d", pair.Left)
	case pair.Right != rotation.NoRoom:
		return fmt.Sprintf("‼ Сегодня дежурит %d", pair.Right)
	}
	return "‼ Сегодня никто не дежурит"
}

// roomListText renders both sides as two centred columns.
func roomListText(roster rotation.Roster) string {
	var sb strings.Builder
	sb.WriteString("📋 Дежурящие комнаты:")
	rows := max(len(roster.Left), len(roster.Right))
	for i := 0; i < rows; i++ {
		sb.WriteString("\n|")
		sb.WriteString(center(cell(roster.Left, i), 5))
		sb.WriteString("|")
		sb.WriteString(center(cell(roster.Right, i), 5))
		sb.WriteString("|")
	}
	return sb.String()
}

func cell(rooms []int, i int) string {
	if i < len(rooms) {
		return strconv.Itoa(rooms[i])
	}
	return emptyCell
}

// center pads s to width, putting the odd space on the right.
func center(s string, width int) string {
	pad := width - len([]rune(s))
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}

// mention renders a clickable user reference.
func mention(profile application.Profile) string {
	label := strings.TrimSpace(profile.FullName())
	if label == "" {
		label = fmt.Sprintf("id%d", profile.ID)
	}
	return fmt.Sprintf("[id%d|%s]", profile.ID, label)
}

func adminAddedText(profile application.Profile) string {
	return "➕ Добавлен администратор: " + mention(profile)
}

func adminRemovedText(profile application.Profile) string {
	return "➖ Убран администратор: " + mention(profile)
}

func alreadyAdminText(profile application.Profile) string {
	return mention(profile) + " уже является администратором"
}

func notAdminText(profile application.Profile) string {
	return mention(profile) + " не является администратором"
}

const helpCommands = "❓ Команды:\n" +
	"🔸 Когда <комната> -- получить примерную дату, когда дежурит определённая комната\n" +
	"🔸 <комнаты> -- установить, что комнаты дежурят сегодня\n" +
	"Если комнат несколько, то разделяются пробелом\n" +
	"🔸 +<комнаты> -- добавить комнаты в список дежурящих\n" +
	"🔸 -<комнаты> -- убрать комнаты из списка дежурящих\n" +
	"Комнаты могут быть заданы как по одиночке, так и диапазоном. Например:\n" +
	"+601 603-606  -  добавит комнаты: 601, 603, 604, 605, 606\n" +
	"🔸 +<упоминание человека> -- добавить администратора\n" +
	"🔸 -<упоминание человека> -- убрать администратора\n" +
	"🔸 Список -- вывести дежурящие комнаты\n" +
	"🔸 Помощь -- вывод этого сообщения\n" +
	"🔸 Кнопка \"Кто дежурит сегодня\" -- вывод дежурящих сегодня комнат\n" +
	"\n" +
	"🌟 Администраторы (могут менять комнаты):\n"

func helpText(admins []application.Profile, revision string) string {
	var sb strings.Builder
	sb.WriteString(helpCommands)
	for i, admin := range admins {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(mention(admin))
	}
	sb.WriteString("\n\nrevision: ")
	sb.WriteString(revision)
	return sb.String()
}
