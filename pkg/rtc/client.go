package rtc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultAPIURL    = "https://api.huddle01.com/api/v2/sdk"
	defaultSignalURL = "wss://apira.huddle01.media/ws"
	defaultTimeout   = 30 * time.Second
)

// Client is a Huddle01 dRTC client scoped to a project.
type Client struct {
	projectID string
	apiKey    string

	apiURL     string
	signalURL  string
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithAPIURL overrides the platform API base URL.
func WithAPIURL(url string) Option {
	return func(c *Client) { c.apiURL = url }
}

// WithSignalURL overrides the signaling websocket URL.
func WithSignalURL(url string) Option {
	return func(c *Client) { c.signalURL = url }
}

// WithHTTPClient sets a custom HTTP client for platform API requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the given project.
//
// The project ID and API key are issued per project on the Huddle01
// dashboard; both are required.
func NewClient(projectID, apiKey string, opts ...Option) *Client {
	if projectID == "" || apiKey == "" {
		panic("rtc: project ID and API key are required")
	}
	c := &Client{
		projectID:  projectID,
		apiKey:     apiKey,
		apiURL:     defaultAPIURL,
		signalURL:  defaultSignalURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateRoomOptions configures CreateRoom.
type CreateRoomOptions struct {
	// Title is a human-readable room title.
	Title string `json:"title,omitempty"`

	// RoomLocked requires host admission for guests.
	RoomLocked bool `json:"roomLocked,omitempty"`
}

// CreateRoom creates a new room in the project and returns its info.
func (c *Client) CreateRoom(ctx context.Context, opts *CreateRoomOptions) (*RoomInfo, error) {
	if opts == nil {
		opts = &CreateRoomOptions{}
	}
	var out struct {
		Data RoomInfo `json:"data"`
	}
	if err := c.post(ctx, "/rooms/create-room", opts, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// tokenRequest is the body of the token endpoint.
type tokenRequest struct {
	RoomID   string            `json:"roomId"`
	Role     Role              `json:"role"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// RoomToken obtains a join token for the given room and role.
//
// The token is a short-lived credential bound to the project; it is what
// the signaling server actually authenticates.
func (c *Client) RoomToken(ctx context.Context, roomID string, role Role, metadata map[string]string) (string, error) {
	if role == "" {
		role = RoleGuest
	}
	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	req := tokenRequest{RoomID: roomID, Role: role, Metadata: metadata}
	if err := c.post(ctx, "/rooms/token", req, &out); err != nil {
		return "", err
	}
	return out.Data.Token, nil
}

// Join obtains a token and connects to the room in one step.
func (c *Client) Join(ctx context.Context, roomID string, opts *JoinOptions) (*Room, error) {
	if opts == nil {
		opts = &JoinOptions{}
	}
	token, err := c.RoomToken(ctx, roomID, opts.Role, opts.Metadata)
	if err != nil {
		return nil, fmt.Errorf("rtc: obtain token: %w", err)
	}
	return c.JoinWithToken(ctx, roomID, token, opts)
}

// post sends a JSON request to the platform API and decodes the response.
func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("x-project-id", c.projectID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{HTTPStatus: resp.StatusCode}
		if json.Unmarshal(data, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("rtc: decode response: %w", err)
		}
	}
	return nil
}
