// Package discord implements the Discord REST API wrapper used by the bot.
// It covers the small surface WOSSIB needs: channel messages and embeds,
// direct messages, guild role assignment for focus-session capabilities, and
// member lookups for the admin gate.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/B-Eddie/WOSSIB/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the Discord client.
type ClientConfig struct {
	// Token is the bot token.
	Token string

	// BaseURL is the Discord API base URL (default: https://discord.com/api/v10).
	BaseURL string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RetryAttempts is the number of retry attempts for failed requests.
	RetryAttempts int

	// RetryDelay is the initial delay between retries.
	RetryDelay time.Duration

	// Logger for structured logging.
	Logger *slog.Logger

	// Debug enables per-call debug logging.
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(token string) ClientConfig {
	return ClientConfig{
		Token:         token,
		BaseURL:       "https://discord.com/api/v10",
		Timeout:       30 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    1 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// API TYPES
// ══════════════════════════════════════════════════════════════════════════════

// User represents a Discord user.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bot      bool   `json:"bot,omitempty"`
}

// Member represents a guild member.
type Member struct {
	User  *User    `json:"user,omitempty"`
	Nick  string   `json:"nick,omitempty"`
	Roles []string `json:"roles"`
}

// HasRole reports whether the member carries the given role ID.
func (m *Member) HasRole(roleID string) bool {
	for _, r := range m.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// Channel represents a Discord channel. Only the fields the bot reads.
type Channel struct {
	ID   string `json:"id"`
	Type int    `json:"type"`
}

// Message represents a sent message.
type Message struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Content   string `json:"content,omitempty"`
}

// Embed is a rich message embed.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
}

// EmbedField is one name/value pair inside an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// EmbedFooter is the small text line under an embed.
type EmbedFooter struct {
	Text string `json:"text"`
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the Discord REST client. All calls go through a circuit breaker
// so a dead platform API fails fast instead of tying up handler goroutines.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	logger     *slog.Logger

	// DM channels are cached per recipient; Discord keeps them stable.
	dmMu       sync.Mutex
	dmChannels map[string]string
}

// NewClient creates a new Discord client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://discord.com/api/v10"
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		breaker: circuitbreaker.New("discord",
			circuitbreaker.WithFailureThreshold(5),
			circuitbreaker.WithTimeout(30*time.Second),
			// 4xx responses are caller mistakes, not platform outages.
			circuitbreaker.WithIsFailure(func(err error) bool {
				var apiErr *APIError
				if errors.As(err, &apiErr) {
					return apiErr.Status >= 500 || apiErr.Status == http.StatusTooManyRequests
				}
				return err != nil
			}),
		),
		logger:     config.Logger,
		dmChannels: make(map[string]string),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MESSAGES
// ══════════════════════════════════════════════════════════════════════════════

// CreateMessage sends a plain text message to a channel.
func (c *Client) CreateMessage(ctx context.Context, channelID, content string) (*Message, error) {
	body := map[string]interface{}{
		"content": content,
	}

	var message Message
	path := fmt.Sprintf("/channels/%s/messages", channelID)
	if err := c.callAPI(ctx, http.MethodPost, path, body, &message); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return &message, nil
}

// CreateEmbedMessage sends a single embed to a channel.
func (c *Client) CreateEmbedMessage(ctx context.Context, channelID string, embed Embed) (*Message, error) {
	body := map[string]interface{}{
		"embeds": []Embed{embed},
	}

	var message Message
	path := fmt.Sprintf("/channels/%s/messages", channelID)
	if err := c.callAPI(ctx, http.MethodPost, path, body, &message); err != nil {
		return nil, fmt.Errorf("create embed message: %w", err)
	}
	return &message, nil
}

// SendDirectMessage opens (or reuses) a DM channel with the user and sends
// text into it.
func (c *Client) SendDirectMessage(ctx context.Context, userID, content string) error {
	channelID, err := c.dmChannelFor(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := c.CreateMessage(ctx, channelID, content); err != nil {
		return fmt.Errorf("send dm: %w", err)
	}
	return nil
}

func (c *Client) dmChannelFor(ctx context.Context, userID string) (string, error) {
	c.dmMu.Lock()
	cached, ok := c.dmChannels[userID]
	c.dmMu.Unlock()
	if ok {
		return cached, nil
	}

	var channel Channel
	body := map[string]interface{}{"recipient_id": userID}
	if err := c.callAPI(ctx, http.MethodPost, "/users/@me/channels", body, &channel); err != nil {
		return "", fmt.Errorf("open dm channel: %w", err)
	}

	c.dmMu.Lock()
	c.dmChannels[userID] = channel.ID
	c.dmMu.Unlock()
	return channel.ID, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GUILD ROLES AND MEMBERS
// ══════════════════════════════════════════════════════════════════════════════

// AddMemberRole assigns a role to a guild member.
func (c *Client) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	path := fmt.Sprintf("/guilds/%s/members/%s/roles/%s", guildID, userID, roleID)
	if err := c.callAPI(ctx, http.MethodPut, path, nil, nil); err != nil {
		return fmt.Errorf("add member role: %w", err)
	}
	return nil
}

// RemoveMemberRole removes a role from a guild member.
func (c *Client) RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	path := fmt.Sprintf("/guilds/%s/members/%s/roles/%s", guildID, userID, roleID)
	if err := c.callAPI(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("remove member role: %w", err)
	}
	return nil
}

// GetGuildMember fetches a guild member, including their role IDs.
func (c *Client) GetGuildMember(ctx context.Context, guildID, userID string) (*Member, error) {
	var member Member
	path := fmt.Sprintf("/guilds/%s/members/%s", guildID, userID)
	if err := c.callAPI(ctx, http.MethodGet, path, nil, &member); err != nil {
		return nil, fmt.Errorf("get guild member: %w", err)
	}
	return &member, nil
}

// GetMe returns the bot's own user, useful as a startup credential check.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var user User
	if err := c.callAPI(ctx, http.MethodGet, "/users/@me", nil, &user); err != nil {
		return nil, fmt.Errorf("get me: %w", err)
	}
	return &user, nil
}

// IsHealthy reports whether the API answers with valid credentials.
func (c *Client) IsHealthy(ctx context.Context) bool {
	_, err := c.GetMe(ctx)
	return err == nil
}

// ══════════════════════════════════════════════════════════════════════════════
// API CALL HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// callAPI performs an API call with retries and rate-limit handling.
func (c *Client) callAPI(ctx context.Context, method, path string, body map[string]interface{}, result interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= c.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			delay := c.config.RetryDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := c.breaker.Execute(ctx, func(ctx context.Context) error {
			return c.doAPICall(ctx, method, path, body, result)
		})
		if err == nil {
			return nil
		}
		lastErr = err

		if !c.isRetryableError(err) {
			return err
		}

		// Rate limited: honor the server's retry_after before the next attempt.
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(apiErr.RetryAfter * float64(time.Second))):
			}
		}
	}

	return fmt.Errorf("api call failed after %d retries: %w", c.config.RetryAttempts, lastErr)
}

// doAPICall performs a single API call.
func (c *Client) doAPICall(ctx context.Context, method, path string, body map[string]interface{}, result interface{}) error {
	url := c.config.BaseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.config.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.config.Debug {
		c.logger.Debug("discord api call", "method", method, "path", path)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		// Error payloads are JSON but may be absent on some statuses.
		_ = json.Unmarshal(respBody, apiErr)
		return apiErr
	}

	if result != nil && resp.StatusCode != http.StatusNoContent && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// APIError represents a Discord API error response.
type APIError struct {
	Status     int     `json:"-"`
	Code       int     `json:"code,omitempty"`
	Message    string  `json:"message,omitempty"`
	RetryAfter float64 `json:"retry_after,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("discord api error %d (code %d): %s", e.Status, e.Code, e.Message)
}

// isRetryableError checks if an error is worth retrying.
func (c *Client) isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	// A tripped breaker means the platform is already known to be down.
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == http.StatusTooManyRequests {
			return true
		}
		if apiErr.Status >= 500 {
			return true
		}
		return false
	}

	errStr := err.Error()
	for _, sub := range []string{"timeout", "connection refused", "temporary", "reset"} {
		if strings.Contains(errStr, sub) {
			return true
		}
	}
	return false
}
