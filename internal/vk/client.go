// Package vk is a minimal client for the VK community bot API: sending
// messages, resolving user names and the community id, and decoding
// Callback API events.
package vk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultAPIURL     = "https://api.vk.com/method"
	DefaultAPIVersion = "5.103"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// Token is the community access token.
	Token string
	// APIURL is the method endpoint base. Defaults to DefaultAPIURL.
	APIURL string
	// Version is sent as the v parameter. Defaults to DefaultAPIVersion.
	Version string
	// HTTPClient is used for all requests. If nil, a client with a 15s timeout is used.
	HTTPClient *http.Client
	// RandomID generates messages.send deduplication ids.
	RandomID func() int64
	Logger   *slog.Logger
}

// Client calls VK API methods on behalf of one community.
type Client struct {
	token      string
	baseURL    string
	version    string
	httpClient *http.Client
	randomID   func() int64
	keyboard   string
	logger     *slog.Logger
}

// NewClient validates cfg and returns a client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("vk: token is required")
	}
	base := cfg.APIURL
	if base == "" {
		base = DefaultAPIURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("vk: invalid api url %q: %w", base, err)
	}
	version := cfg.Version
	if version == "" {
		version = DefaultAPIVersion
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	randomID := cfg.RandomID
	if randomID == nil {
		randomID = func() int64 { return int64(rand.Int32()) }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	keyboard, err := DefaultKeyboard().Encode()
	if err != nil {
		return nil, err
	}
	return &Client{
		token:      cfg.Token,
		baseURL:    strings.TrimRight(base, "/"),
		version:    version,
		httpClient: httpClient,
		randomID:   randomID,
		keyboard:   keyboard,
		logger:     logger,
	}, nil
}

// CloseIdleConnections releases pooled connections of the underlying transport.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// SendText posts text to peerID with the reply keyboard attached.
func (c *Client) SendText(ctx context.Context, peerID int64, text string) error {
	params := url.Values{}
	params.Set("peer_id", strconv.FormatInt(peerID, 10))
	params.Set("message", text)
	params.Set("random_id", strconv.FormatInt(c.randomID(), 10))
	params.Set("keyboard", c.keyboard)

	if err := c.Call(ctx, "messages.send", params, nil); err != nil {
		return fmt.Errorf("vk: send to %d: %w", peerID, err)
	}
	c.logger.DebugContext(ctx, "message sent", "peer_id", peerID)
	return nil
}

// User is the subset of a users.get entry the bot uses.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Users resolves the names of ids.
func (c *Client) Users(ctx context.Context, ids []int64) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	params := url.Values{}
	params.Set("user_ids", strings.Join(parts, ","))

	var users []User
	if err := c.Call(ctx, "users.get", params, &users); err != nil {
		return nil, fmt.Errorf("vk: users.get: %w", err)
	}
	return users, nil
}

// GroupID returns the id of the community the token belongs to.
func (c *Client) GroupID(ctx context.Context) (int64, error) {
	var groups []struct {
		ID int64 `json:"id"`
	}
	if err := c.Call(ctx, "groups.getById", url.Values{}, &groups); err != nil {
		return 0, fmt.Errorf("vk: groups.getById: %w", err)
	}
	if len(groups) == 0 {
		return 0, fmt.Errorf("vk: groups.getById returned no groups")
	}
	return groups[0].ID, nil
}

type envelope struct {
	Response json.RawMessage `json:"response"`
	Error    *APIError       `json:"error"`
}

// Call invokes method with params and decodes the response field into out
// when out is non-nil.
func (c *Client) Call(ctx context.Context, method string, params url.Values, out any) error {
	form := url.Values{}
	for key, values := range params {
		form[key] = values
	}
	form.Set("access_token", c.token)
	form.Set("v", c.version)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s: read body: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return &HTTPError{Method: method, StatusCode: resp.StatusCode}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	if env.Error != nil {
		return env.Error
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Response, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	return nil
}
