package rtc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Signaling operations.
const (
	opConnectRoom = "connect-room"
	opNegotiate   = "negotiate"
	opProduce     = "produce"
	opCloseProd   = "close-producer"
	opConsume     = "consume"
	opData        = "data"
	opLeave       = "leave"
)

// Signaling events (server initiated, no request ID).
const (
	evtPeerJoined     = "peer-joined"
	evtPeerLeft       = "peer-left"
	evtNewProducer    = "new-producer"
	evtProducerClosed = "producer-closed"
	evtRoomClosed     = "room-closed"
	evtNegotiate      = "negotiate"
	evtData           = "data"
)

// signalFrame is the wire format of the signaling channel. Requests carry an
// ID which the server echoes in its response; events have no ID.
type signalFrame struct {
	ID   string          `json:"id,omitempty"`
	Op   string          `json:"op"`
	Data json.RawMessage `json:"d,omitempty"`
	Err  *SignalError    `json:"error,omitempty"`
}

// signaler owns the signaling websocket. It correlates request/response
// pairs by frame ID and hands server events to the onEvent callback.
type signaler struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan *signalFrame
	closed  bool

	onEvent func(op string, data json.RawMessage)
	closeCh chan struct{}
}

// dialSignal connects the signaling websocket, authenticating with the
// room token.
func dialSignal(ctx context.Context, url, token string) (*signaler, error) {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, headers)
	if err != nil {
		if resp != nil {
			return nil, &APIError{
				Message:    fmt.Sprintf("signaling dial failed: %v", err),
				HTTPStatus: resp.StatusCode,
			}
		}
		return nil, fmt.Errorf("rtc: signaling dial: %w", err)
	}

	s := &signaler{
		conn:    conn,
		pending: make(map[string]chan *signalFrame),
		closeCh: make(chan struct{}),
	}
	return s, nil
}

// start begins the read loop. Must be called once after the event callback
// is installed.
func (s *signaler) start() {
	go s.readLoop()
}

// request sends a frame and waits for the matching response.
func (s *signaler) request(ctx context.Context, op string, data any) (json.RawMessage, error) {
	id := uuid.NewString()

	ch := make(chan *signalFrame, 1)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrNotConnected
	}
	s.pending[id] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}()

	if err := s.send(&signalFrame{ID: id, Op: op, Data: marshalRaw(data)}); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.closeCh:
		return nil, ErrNotConnected
	case frame := <-ch:
		if frame.Err != nil {
			frame.Err.Op = op
			return nil, frame.Err
		}
		return frame.Data, nil
	}
}

// notify sends a fire-and-forget frame (no response expected).
func (s *signaler) notify(op string, data any) error {
	return s.send(&signalFrame{Op: op, Data: marshalRaw(data)})
}

func (s *signaler) send(frame *signalFrame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	select {
	case <-s.closeCh:
		return ErrNotConnected
	default:
	}
	return s.conn.WriteJSON(frame)
}

func (s *signaler) readLoop() {
	defer s.close()

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.closeCh:
			default:
				slog.Debug("signaling read loop ended", "error", err)
			}
			return
		}

		var frame signalFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			slog.Warn("signaling: malformed frame", "error", err)
			continue
		}

		if frame.ID != "" {
			s.mu.Lock()
			ch := s.pending[frame.ID]
			s.mu.Unlock()
			if ch != nil {
				ch <- &frame
			}
			continue
		}

		if s.onEvent != nil {
			s.onEvent(frame.Op, frame.Data)
		}
	}
}

func (s *signaler) close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.closeCh)
	s.mu.Unlock()
	return s.conn.Close()
}

func marshalRaw(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		// Payloads are internal structs; a marshal failure is a bug.
		panic(fmt.Sprintf("rtc: marshal signal payload: %v", err))
	}
	return b
}
