package rtc

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors.
var (
	// ErrRoomClosed is returned by operations on a closed room.
	ErrRoomClosed = errors.New("rtc: room closed")

	// ErrNotConnected is returned when the signaling connection is gone.
	ErrNotConnected = errors.New("rtc: not connected")

	// ErrTrackEnded is returned when reading from an ended track.
	ErrTrackEnded = errors.New("rtc: track ended")
)

// APIError is an error returned by the Huddle01 platform API.
type APIError struct {
	// Code is the platform error code.
	Code string `json:"code,omitempty"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// HTTPStatus is the HTTP status code of the response.
	HTTPStatus int `json:"-"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("rtc: %s: %s (http_status=%d)", e.Code, e.Message, e.HTTPStatus)
	}
	return fmt.Sprintf("rtc: %s (http_status=%d)", e.Message, e.HTTPStatus)
}

// IsAuthError reports whether the error is an authentication failure.
func (e *APIError) IsAuthError() bool {
	return e.HTTPStatus == http.StatusUnauthorized || e.HTTPStatus == http.StatusForbidden
}

// IsRateLimit reports whether the request was rate limited.
func (e *APIError) IsRateLimit() bool {
	return e.HTTPStatus == http.StatusTooManyRequests
}

// SignalError is an error frame returned by the signaling server in
// response to a request.
type SignalError struct {
	Op      string `json:"-"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e *SignalError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("rtc: signal %s: %s: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("rtc: signal %s: %s", e.Op, e.Message)
}
