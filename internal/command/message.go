package command

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Mention is a "[<type><id>|label]" reference embedded in chat text.
type Mention struct {
	Type string
	ID   int64
}

func (m Mention) String() string {
	return fmt.Sprintf("%s%d", m.Type, m.ID)
}

// Message is a parsed chat message: a command and the optional mention it was addressed with.
type Message struct {
	Command Command
	Mention *Mention
}

// NotifyTodayPayload is the payload of the reply keyboard button.
const NotifyTodayPayload = `{"command":"main"}`

// FromPayload maps a keyboard button payload to its command.
func FromPayload(payload string) (Command, bool) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return Command{}, false
	}
	var body struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal([]byte(payload), &body); err != nil {
		return Command{}, false
	}
	if body.Command == "main" {
		return NotifyToday(), true
	}
	return Command{}, false
}
