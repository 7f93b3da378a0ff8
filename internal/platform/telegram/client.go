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
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"contest-bot-backend/internal/metrics"
)

const DefaultAPIBaseURL = "https://api.telegram.org"

// HTTPDoer is the subset of *http.Client used by Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the Telegram Bot API. It holds no per-chat state and is safe
// for concurrent use.
type Client struct {
	httpClient HTTPDoer
	baseURL    string
	token      string
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithBaseURL points the client at a different Bot API server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    DefaultAPIBaseURL,
		token:      token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response is the Bot API envelope together with the HTTP status it came with.
type Response struct {
	Ok          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`

	StatusCode int `json:"-"`
}

// APIError is returned when Telegram answers with ok=false.
type APIError struct {
	Method      string
	StatusCode  int
	ErrorCode   int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s failed (status %d): %s", e.Method, e.StatusCode, e.Description)
}

// AsAPIError extracts an *APIError from err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// SendMessageParams are the sendMessage fields this service uses.
type SendMessageParams struct {
	ChatID      string      `json:"chat_id"`
	Text        string      `json:"text"`
	ParseMode   string      `json:"parse_mode,omitempty"`
	ReplyMarkup interface{} `json:"reply_markup,omitempty"`
}

// SendPhotoParams are the sendPhoto fields this service uses.
type SendPhotoParams struct {
	ChatID      string      `json:"chat_id"`
	Photo       string      `json:"photo"`
	Caption     string      `json:"caption,omitempty"`
	ParseMode   string      `json:"parse_mode,omitempty"`
	ReplyMarkup interface{} `json:"reply_markup,omitempty"`
}

// EditReplyMarkupParams are the editMessageReplyMarkup fields this service uses.
type EditReplyMarkupParams struct {
	ChatID      string                        `json:"chat_id"`
	MessageID   int64                         `json:"message_id"`
	ReplyMarkup tgbotapi.InlineKeyboardMarkup `json:"reply_markup"`
}

func (c *Client) SendMessage(ctx context.Context, params SendMessageParams) (*Response, error) {
	return c.call(ctx, "sendMessage", params)
}

func (c *Client) SendPhoto(ctx context.Context, params SendPhotoParams) (*Response, error) {
	return c.call(ctx, "sendPhoto", params)
}

func (c *Client) EditMessageReplyMarkup(ctx context.Context, params EditReplyMarkupParams) (*Response, error) {
	return c.call(ctx, "editMessageReplyMarkup", params)
}

// GetChatMember looks up userID's membership in chatID (an @username or a numeric id).
func (c *Client) GetChatMember(ctx context.Context, chatID string, userID int64) (*tgbotapi.ChatMember, error) {
	resp, err := c.call(ctx, "getChatMember", map[string]interface{}{
		"chat_id": chatID,
		"user_id": userID,
	})
	if err != nil {
		return nil, err
	}

	var member tgbotapi.ChatMember
	if err := json.Unmarshal(resp.Result, &member); err != nil {
		return nil, fmt.Errorf("decode chat member: %w", err)
	}
	return &member, nil
}

// DecodeMessage decodes the message returned by a send call.
func DecodeMessage(resp *Response) (*tgbotapi.Message, error) {
	if resp == nil || len(resp.Result) == 0 {
		return nil, errors.New("empty telegram result")
	}
	var msg tgbotapi.Message
	if err := json.Unmarshal(resp.Result, &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if msg.Chat == nil || msg.MessageID == 0 {
		return nil, errors.New("telegram result has no message coordinates")
	}
	return &msg, nil
}

func (c *Client) call(ctx context.Context, method string, payload interface{}) (*Response, error) {
	resp, err := c.makeRequest(ctx, method, payload)
	metrics.ObserveTelegramCall(method, err)
	return resp, err
}

func (c *Client) makeRequest(ctx context.Context, method string, payload interface{}) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", method, err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		// the URL carries the token; keep it out of the error text
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("send %s request: %w", method, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", method, err)
	}

	var result Response
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &APIError{
			Method:      method,
			StatusCode:  httpResp.StatusCode,
			Description: fmt.Sprintf("unparseable response: %s", truncate(string(raw), 200)),
		}
	}
	result.StatusCode = httpResp.StatusCode

	if !result.Ok {
		status := httpResp.StatusCode
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		return &result, &APIError{
			Method:      method,
			StatusCode:  status,
			ErrorCode:   result.ErrorCode,
			Description: result.Description,
		}
	}
	return &result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
