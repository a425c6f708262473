package vk

import (
	"encoding/json"
	"fmt"

	"github.com/example/duty-bot/internal/command"
)

// TodayButtonLabel is the caption of the single reply keyboard button.
const TodayButtonLabel = "Кто дежурит сегодня"

// Keyboard is a bot reply keyboard.
type Keyboard struct {
	OneTime bool       `json:"one_time"`
	Buttons [][]Button `json:"buttons"`
}

// Button is a text button.
type Button struct {
	Action ButtonAction `json:"action"`
	Color  string       `json:"color"`
}

// ButtonAction carries the label and the payload echoed back on press.
type ButtonAction struct {
	Type    string `json:"type"`
	Label   string `json:"label"`
	Payload string `json:"payload,omitempty"`
}

// DefaultKeyboard is the persistent keyboard attached to every reply.
func DefaultKeyboard() Keyboard {
	return Keyboard{
		OneTime: false,
		Buttons: [][]Button{{{
			Action: ButtonAction{Type: "text", Label: TodayButtonLabel, Payload: command.NotifyTodayPayload},
			Color:  "positive",
		}}},
	}
}

// Encode renders the keyboard as the JSON string messages.send expects.
func (k Keyboard) Encode() (string, error) {
	data, err := json.Marshal(k)
	if err != nil {
		return "", fmt.Errorf("vk: encode keyboard: %w", err)
	}
	return string(data), nil
}
