package vk

import (
	"encoding/json"
	"fmt"
)

// Callback API event types the bot reacts to.
const (
	EventConfirmation = "confirmation"
	EventMessageNew   = "message_new"
)

// ActionChatInviteUser is the service action sent when someone is invited to a chat.
const ActionChatInviteUser = "chat_invite_user"

// Event is one Callback API delivery.
type Event struct {
	Type    string          `json:"type"`
	GroupID int64           `json:"group_id"`
	Secret  string          `json:"secret"`
	EventID string          `json:"event_id,omitempty"`
	Object  json.RawMessage `json:"object"`
}

// Message is an incoming chat message.
type Message struct {
	ID                    int64          `json:"id"`
	Date                  int64          `json:"date"`
	PeerID                int64          `json:"peer_id"`
	FromID                int64          `json:"from_id"`
	Text                  string         `json:"text"`
	ConversationMessageID int64          `json:"conversation_message_id"`
	Payload               string         `json:"payload,omitempty"`
	Action                *MessageAction `json:"action,omitempty"`
}

// MessageAction is the service action attached to a chat message.
type MessageAction struct {
	Type     string `json:"type"`
	MemberID int64  `json:"member_id,omitempty"`
}

// DecodeEvent parses a callback body.
func DecodeEvent(body []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return Event{}, fmt.Errorf("vk: decode event: %w", err)
	}
	if event.Type == "" {
		return Event{}, fmt.Errorf("vk: event without type")
	}
	return event, nil
}

// NewMessage extracts the message of a message_new event. Both the current
// {"message": {...}} object layout and the legacy flat layout are accepted.
func (e Event) NewMessage() (Message, error) {
	if e.Type != EventMessageNew {
		return Message{}, fmt.Errorf("vk: event %q is not %s", e.Type, EventMessageNew)
	}
	var wrapped struct {
		Message *Message `json:"message"`
	}
	if err := json.Unmarshal(e.Object, &wrapped); err != nil {
		return Message{}, fmt.Errorf("vk: decode message: %w", err)
	}
	if wrapped.Message != nil {
		return *wrapped.Message, nil
	}
	var flat Message
	if err := json.Unmarshal(e.Object, &flat); err != nil {
		return Message{}, fmt.Errorf("vk: decode message: %w", err)
	}
	return flat, nil
}
