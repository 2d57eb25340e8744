package domain

import (
	"fmt"
	"time"
)

// MonitoredChat is one chat feed the pipeline watches. The ID is the
// backend's native chat identifier (negative for supergroups/channels);
// DisplayName is resolved once per run and cached for logging and rows.
type MonitoredChat struct {
	ID          int64
	DisplayName string
}

// Label returns the chat's display name, falling back to the numeric ID
// when name resolution failed.
func (c MonitoredChat) Label() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return fmt.Sprintf("ID: %d", c.ID)
}

// RawMessage is one fetched message as delivered by the gateway.
// ID is unique within a chat and strictly increasing in chronological
// order, which is what makes watermark bookkeeping sound.
//
// SenderName arrives already normalized by the gateway (chat title, else
// @username, else first/last name); the pipeline never inspects
// backend-specific sender shapes.
type RawMessage struct {
	ID         int64     `json:"id"`
	ChatID     int64     `json:"chat_id"`
	SenderID   int64     `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Text       string    `json:"text"`
	MediaType  string    `json:"media_type"`
	Date       time.Time `json:"date"`
}

// HasText reports whether the message carries a textual body worth
// classifying.
func (m RawMessage) HasText() bool { return m.Text != "" }

// Message is the persisted form of a RawMessage. InternalID is the
// surrogate key assigned by the store and links the optional Promotion row.
type Message struct {
	InternalID    int64     `json:"internal_id" db:"internal_id"`
	MessageID     int64     `json:"message_id" db:"message_id"`
	ChatID        int64     `json:"chat_id" db:"chat_id"`
	ChatName      string    `json:"chat_name" db:"chat_name"`
	SenderID      int64     `json:"sender_id" db:"sender_id"`
	SenderName    string    `json:"sender_name" db:"sender_name"`
	Text          string    `json:"message_text" db:"message_text"`
	Date          time.Time `json:"message_date" db:"message_date"`
	MediaType     string    `json:"media_type" db:"media_type"`
	ExtractedURLs []string  `json:"extracted_urls" db:"extracted_urls"`
	ProcessedAt   time.Time `json:"processed_at" db:"processed_at"`
}
