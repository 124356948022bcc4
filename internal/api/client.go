// Package api implements the CrewLink REST client used by the messaging
// engine. Every method returns either a decoded value or a typed *Error;
// nothing here retries or touches client-side state.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/crewlink/crewlink/internal/identity"
	"github.com/crewlink/crewlink/internal/logging"
	"github.com/crewlink/crewlink/internal/models"
)

const defaultTimeout = 15 * time.Second

// TokenSource supplies the bearer credential attached to every request.
// Session management lives outside the messenger; the client only asks
// for the current token.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource wrapping a fixed credential.
type StaticToken string

func (t StaticToken) Token() (string, error) { return string(t), nil }

// Config holds client construction options.
type Config struct {
	// BaseURL is the API root, e.g. https://api.crewlink.example/v1.
	BaseURL string

	// Tokens supplies the bearer credential.
	Tokens TokenSource

	// Timeout bounds each request. Default 15s.
	Timeout time.Duration

	// HTTPClient overrides the transport, used by tests.
	HTTPClient *http.Client

	// OnUnauthorized is invoked once per 401 response so the auth layer
	// can react (re-login, surface a prompt). May be nil.
	OnUnauthorized func()
}

// Client talks to the CrewLink messaging endpoints.
type Client struct {
	baseURL        string
	http           *http.Client
	tokens         TokenSource
	onUnauthorized func()
	logger         zerolog.Logger
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("api: base URL required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("api: invalid base URL: %w", err)
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("api: token source required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:        base,
		http:           httpClient,
		tokens:         cfg.Tokens,
		onUnauthorized: cfg.OnUnauthorized,
		logger:         logging.Component("api"),
	}, nil
}

// Me fetches the session user's identity. The payload's populated field
// depends on how the session was established; resolve it through
// identity.SelfID.
func (c *Client) Me(ctx context.Context) (identity.Session, error) {
	var out identity.Session
	if err := c.do(ctx, http.MethodGet, "/me", nil, &out); err != nil {
		return identity.Session{}, err
	}
	return out, nil
}

// Conversations fetches the session user's conversation list.
func (c *Client) Conversations(ctx context.Context) ([]models.Conversation, error) {
	var out []models.Conversation
	if err := c.do(ctx, http.MethodGet, "/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead marks every message in the conversation read for the session
// user. Callers refresh the unread counter afterwards.
func (c *Client) MarkRead(ctx context.Context, conversationID string) error {
	path := "/conversations/" + url.PathEscape(conversationID) + "/read"
	return c.do(ctx, http.MethodPut, path, nil, nil)
}

// Messages fetches one page of a conversation's messages, newest
// inclusive. Page is 1-based.
func (c *Client) Messages(ctx context.Context, conversationID string, page, limit int) ([]models.Message, error) {
	path := "/conversations/" + url.PathEscape(conversationID) + "/messages"
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}

	var out []models.Message
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type sendMessageRequest struct {
	Content string             `json:"content"`
	Type    models.MessageType `json:"type,omitempty"`
}

// SendMessage creates a message in the conversation and returns the
// server-confirmed entity.
func (c *Client) SendMessage(ctx context.Context, conversationID, content string, typ models.MessageType) (models.Message, error) {
	path := "/conversations/" + url.PathEscape(conversationID) + "/messages"
	var out models.Message
	if err := c.do(ctx, http.MethodPost, path, sendMessageRequest{Content: content, Type: typ}, &out); err != nil {
		return models.Message{}, err
	}
	return out, nil
}

// UnreadCount fetches the aggregate unread count for the session user.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var out models.UnreadSummary
	if err := c.do(ctx, http.MethodGet, "/messages/unread-count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

type startConversationRequest struct {
	ParticipantID string                      `json:"participantId"`
	Context       *models.ConversationContext `json:"context,omitempty"`
}

// StartConversation returns the existing conversation with the
// participant, creating one if none exists. Idempotent on the
// participant pair.
func (c *Client) StartConversation(ctx context.Context, participantID string, convCtx *models.ConversationContext) (models.Conversation, error) {
	var out models.Conversation
	req := startConversationRequest{ParticipantID: participantID, Context: convCtx}
	if err := c.do(ctx, http.MethodPost, "/conversations", req, &out); err != nil {
		return models.Conversation{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindRejected, Message: "encode request", Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Kind: KindNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Token()
	if err != nil {
		return &Error{Kind: KindUnauthorized, Message: "no credential", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.classify(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindServer, Status: resp.StatusCode, Message: "decode response", Err: err}
	}
	return nil
}

type wireError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) classify(resp *http.Response) error {
	var we wireError
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&we)
	msg := we.Message
	if msg == "" {
		msg = we.Error
	}

	kind := KindRejected
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		kind = KindUnauthorized
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	case resp.StatusCode == http.StatusNotFound:
		kind = KindNotFound
	case resp.StatusCode >= 500:
		kind = KindServer
	}

	c.logger.Debug().Int("status", resp.StatusCode).Str("kind", string(kind)).Msg("request failed")
	return &Error{Kind: kind, Status: resp.StatusCode, Message: msg}
}
