package openairt

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultURL is the Realtime API websocket endpoint.
const DefaultURL = "wss://api.openai.com/v1/realtime"

// Client holds credentials and connection settings for the Realtime API.
type Client struct {
	apiKey       string
	organization string
	project      string
	url          string
	dialTimeout  time.Duration
}

// Option configures the Client.
type Option func(*Client)

// WithOrganization sets the OpenAI organization header.
func WithOrganization(orgID string) Option {
	return func(c *Client) { c.organization = orgID }
}

// WithProject sets the OpenAI project header.
func WithProject(projectID string) Option {
	return func(c *Client) { c.project = projectID }
}

// WithURL overrides the websocket endpoint.
func WithURL(url string) Option {
	return func(c *Client) { c.url = url }
}

// WithDialTimeout sets the websocket handshake timeout.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) { c.dialTimeout = d }
}

// NewClient creates a Realtime API client. The API key is required.
func NewClient(apiKey string, opts ...Option) *Client {
	if apiKey == "" {
		panic("openairt: API key is required")
	}
	c := &Client{
		apiKey:      apiKey,
		url:         DefaultURL,
		dialTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ConnectConfig selects the model for a session.
type ConnectConfig struct {
	// Model is the realtime model ID. Default: gpt-4o-realtime-preview.
	Model string
}

// Connect opens a realtime session over websocket.
func (c *Client) Connect(ctx context.Context, config *ConnectConfig) (*Session, error) {
	if config == nil {
		config = &ConnectConfig{}
	}
	model := config.Model
	if model == "" {
		model = ModelGPT4oRealtimePreview
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+c.apiKey)
	headers.Set("OpenAI-Beta", "realtime=v1")
	if c.organization != "" {
		headers.Set("OpenAI-Organization", c.organization)
	}
	if c.project != "" {
		headers.Set("OpenAI-Project", c.project)
	}

	dialer := websocket.Dialer{HandshakeTimeout: c.dialTimeout}
	conn, resp, err := dialer.DialContext(ctx, c.url+"?model="+model, headers)
	if err != nil {
		if resp != nil {
			return nil, &Error{
				Code:       "connection_failed",
				Message:    fmt.Sprintf("failed to connect: %v", err),
				HTTPStatus: resp.StatusCode,
			}
		}
		return nil, fmt.Errorf("openairt: connect: %w", err)
	}

	session := &Session{
		conn:     conn,
		model:    model,
		closeCh:  make(chan struct{}),
		eventsCh: make(chan eventOrError, 100),
	}
	go session.readLoop()
	return session, nil
}
