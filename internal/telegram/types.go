package telegram

import (
	"strings"
	"time"
)

// connectRequest bootstraps (or resumes) the gateway's MTProto session.
type connectRequest struct {
	APIID   int    `json:"api_id"`
	APIHash string `json:"api_hash"`
	Phone   string `json:"phone"`
}

// connectResponse reports session state after a connect call.
type connectResponse struct {
	Authorized bool   `json:"authorized"`
	Session    string `json:"session,omitempty"`
}

// wireMessage is one message as the gateway serializes it. Pages arrive
// newest first.
type wireMessage struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Text       string    `json:"text"`
	MediaType  string    `json:"media_type"`
	Date       time.Time `json:"date"`
}

type messagesResponse struct {
	Messages []wireMessage `json:"messages"`
}

// chatInfo is the gateway's chat metadata payload.
type chatInfo struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DisplayName picks the human label for a chat: group title first, then
// @username, then the contact's name. Empty when the gateway knows nothing.
func (c chatInfo) DisplayName() string {
	if c.Title != "" {
		return c.Title
	}
	if c.Username != "" {
		return "@" + c.Username
	}
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
