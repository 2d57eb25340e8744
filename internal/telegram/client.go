// Package telegram talks to the MTProto gateway sidecar over its HTTP API.
// The monitor never links a Telegram client library; session handling lives
// in the gateway and this package only does authenticated HTTP against it.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dealradar/promo-monitor/internal/config"
	"github.com/dealradar/promo-monitor/internal/domain"
	"github.com/dealradar/promo-monitor/internal/pkg/httpretry"
)

// unknownSender labels messages whose sender the gateway could not name.
const unknownSender = "Unknown/Hidden Sender"

// ErrNotAuthorized is returned by Connect when the gateway answered but the
// session is not authorized for the configured account.
var ErrNotAuthorized = errors.New("telegram: gateway session not authorized")

// APIError is a non-2xx gateway reply. 429 and 5xx are retried by the
// transport before one of these surfaces.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway error (status %d): %s", e.StatusCode, e.Body)
}

// Client is an MTProto gateway API client.
type Client struct {
	baseURL    string
	token      string
	apiID      int
	apiHash    string
	phone      string
	httpClient httpretry.HTTPDoer
}

// NewClient creates a gateway client from the telegram configuration.
func NewClient(cfg config.TelegramConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.GatewayURL, "/"),
		token:   cfg.GatewayToken,
		apiID:   cfg.APIID,
		apiHash: cfg.APIHash,
		phone:   cfg.Phone,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout(),
		}, 3),
	}
}

// doRequest makes an HTTP request to the gateway API.
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, payload any) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return body, nil
}

// Connect opens or resumes the gateway's Telegram session. A failure here is
// fatal to a run; callers must not poll an unauthenticated gateway.
func (c *Client) Connect(ctx context.Context) error {
	payload := connectRequest{APIID: c.apiID, APIHash: c.apiHash, Phone: c.phone}

	body, err := c.doRequest(ctx, http.MethodPost, "/api/v1/session/connect", nil, payload)
	if err != nil {
		return fmt.Errorf("connecting session: %w", err)
	}

	var resp connectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("parsing connect response: %w", err)
	}
	if !resp.Authorized {
		return ErrNotAuthorized
	}
	return nil
}

// FetchSince returns messages with id > minID for one chat, oldest first.
// The gateway serves newest-first pages; the page is reversed here so
// callers always see chronological order. limit caps the page size.
func (c *Client) FetchSince(ctx context.Context, chatID, minID int64, limit int) ([]domain.RawMessage, error) {
	params := url.Values{}
	params.Set("min_id", strconv.FormatInt(minID, 10))
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	path := fmt.Sprintf("/api/v1/chats/%d/messages", chatID)
	body, err := c.doRequest(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching messages for chat %d: %w", chatID, err)
	}

	var resp messagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing messages for chat %d: %w", chatID, err)
	}

	out := make([]domain.RawMessage, 0, len(resp.Messages))
	for i := len(resp.Messages) - 1; i >= 0; i-- {
		m := resp.Messages[i]
		name := m.SenderName
		if name == "" {
			name = unknownSender
		}
		out = append(out, domain.RawMessage{
			ID:         m.ID,
			ChatID:     chatID,
			SenderID:   m.SenderID,
			SenderName: name,
			Text:       m.Text,
			MediaType:  m.MediaType,
			Date:       m.Date,
		})
	}
	return out, nil
}

// ResolveName fetches the chat's display name. Callers fall back to an
// id-based label when this fails; a naming failure never stops a run.
func (c *Client) ResolveName(ctx context.Context, chatID int64) (string, error) {
	body, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/v1/chats/%d", chatID), nil, nil)
	if err != nil {
		return "", fmt.Errorf("fetching chat %d: %w", chatID, err)
	}

	var info chatInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return "", fmt.Errorf("parsing chat %d: %w", chatID, err)
	}
	return info.DisplayName(), nil
}

// Disconnect closes the gateway session. Best-effort at run end.
func (c *Client) Disconnect(ctx context.Context) error {
	if _, err := c.doRequest(ctx, http.MethodPost, "/api/v1/session/disconnect", nil, nil); err != nil {
		return fmt.Errorf("disconnecting session: %w", err)
	}
	return nil
}
