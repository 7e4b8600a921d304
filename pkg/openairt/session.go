package openairt

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Session is an open realtime conversation over websocket.
//
// Send methods are safe for concurrent use. Events must be consumed by a
// single reader.
type Session struct {
	conn  *websocket.Conn
	model string

	closeCh   chan struct{}
	eventsCh  chan eventOrError
	closeOnce sync.Once

	mu        sync.Mutex
	sessionID string
}

type eventOrError struct {
	event *ServerEvent
	err   error
}

// generateEventID returns a client event ID.
func generateEventID() string {
	return "evt_" + uuid.NewString()[:12]
}

// Model returns the model the session was opened with.
func (s *Session) Model() string { return s.model }

// SessionID returns the server-assigned session ID, or "" before
// session.created is received.
func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// UpdateSession updates the session configuration. Call after receiving
// session.created.
func (s *Session) UpdateSession(config *SessionConfig) error {
	return s.sendEvent(map[string]any{
		"event_id": generateEventID(),
		"type":     EventTypeSessionUpdate,
		"session":  config,
	})
}

// AppendAudio appends PCM audio (16-bit LE, 24kHz, mono) to the input
// buffer. The audio is base64-encoded on the wire.
func (s *Session) AppendAudio(audio []byte) error {
	return s.AppendAudioBase64(base64.StdEncoding.EncodeToString(audio))
}

// AppendAudioBase64 appends already-encoded audio to the input buffer.
func (s *Session) AppendAudioBase64(audioBase64 string) error {
	return s.sendEvent(map[string]any{
		"event_id": generateEventID(),
		"type":     EventTypeInputAudioBufferAppend,
		"audio":    audioBase64,
	})
}

// CommitInput commits the audio buffer into a user message. Only needed in
// manual mode; server VAD commits automatically.
func (s *Session) CommitInput() error {
	return s.sendEvent(map[string]any{
		"event_id": generateEventID(),
		"type":     EventTypeInputAudioBufferCommit,
	})
}

// ClearInput drops the uncommitted audio buffer.
func (s *Session) ClearInput() error {
	return s.sendEvent(map[string]any{
		"event_id": generateEventID(),
		"type":     EventTypeInputAudioBufferClear,
	})
}

// AddUserMessage adds a user text message to the conversation.
func (s *Session) AddUserMessage(text string) error {
	return s.addItem(&ConversationItem{
		Type:    "message",
		Role:    "user",
		Content: []ContentPart{{Type: "input_text", Text: text}},
	})
}

// AddUserAudio adds a user audio message. The transcript is optional.
func (s *Session) AddUserAudio(audioBase64, transcript string) error {
	return s.addItem(&ConversationItem{
		Type:    "message",
		Role:    "user",
		Content: []ContentPart{{Type: "input_audio", Audio: audioBase64, Transcript: transcript}},
	})
}

// AddAssistantMessage adds an assistant text message.
func (s *Session) AddAssistantMessage(text string) error {
	return s.addItem(&ConversationItem{
		Type:    "message",
		Role:    "assistant",
		Content: []ContentPart{{Type: "text", Text: text}},
	})
}

// AddFunctionCallOutput returns a tool result to the model.
func (s *Session) AddFunctionCallOutput(callID, output string) error {
	return s.addItem(&ConversationItem{
		Type:   "function_call_output",
		CallID: callID,
		Output: output,
	})
}

func (s *Session) addItem(item *ConversationItem) error {
	return s.sendEvent(map[string]any{
		"event_id": generateEventID(),
		"type":     EventTypeConversationItemCreate,
		"item":     item,
	})
}

// TruncateItem cuts an assistant audio item at audioEndMs. Used after a
// user interruption so the model does not believe it said the unplayed
// remainder.
func (s *Session) TruncateItem(itemID string, contentIndex, audioEndMs int) error {
	return s.sendEvent(map[string]any{
		"event_id":      generateEventID(),
		"type":          EventTypeConversationItemTruncate,
		"item_id":       itemID,
		"content_index": contentIndex,
		"audio_end_ms":  audioEndMs,
	})
}

// DeleteItem removes a conversation item.
func (s *Session) DeleteItem(itemID string) error {
	return s.sendEvent(map[string]any{
		"event_id": generateEventID(),
		"type":     EventTypeConversationItemDelete,
		"item_id":  itemID,
	})
}

// CreateResponse asks the model to respond. Pass nil for defaults. Server
// VAD creates responses automatically; call this in manual mode or after a
// function call output.
func (s *Session) CreateResponse(opts *ResponseCreateOptions) error {
	event := map[string]any{
		"event_id": generateEventID(),
		"type":     EventTypeResponseCreate,
	}
	if opts != nil {
		event["response"] = opts
	}
	return s.sendEvent(event)
}

// CancelResponse cancels the in-progress response.
func (s *Session) CancelResponse() error {
	return s.sendEvent(map[string]any{
		"event_id": generateEventID(),
		"type":     EventTypeResponseCancel,
	})
}

// SendRaw sends a raw event for operations without a helper.
func (s *Session) SendRaw(event map[string]any) error {
	return s.sendEvent(event)
}

// Events iterates over server events until the session closes or a read
// error occurs. Iteration stops after yielding an error.
func (s *Session) Events() iter.Seq2[*ServerEvent, error] {
	return func(yield func(*ServerEvent, error) bool) {
		for {
			select {
			case <-s.closeCh:
				return
			case item, ok := <-s.eventsCh:
				if !ok {
					return
				}
				if !yield(item.event, item.err) {
					return
				}
				if item.err != nil {
					return
				}
			}
		}
	}
}

// Close closes the session.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closeCh)
		err = s.conn.Close()
	})
	return err
}

func (s *Session) sendEvent(event map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		if b, err := json.Marshal(event); err == nil {
			str := string(b)
			if len(str) > 500 {
				str = str[:500] + "..."
			}
			slog.Debug("openairt send", "event", str)
		}
	}
	return s.conn.WriteJSON(event)
}

func (s *Session) readLoop() {
	defer close(s.eventsCh)

	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		_, message, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.closeCh:
			case s.eventsCh <- eventOrError{err: fmt.Errorf("openairt: read: %w", err)}:
			}
			return
		}

		event, err := parseEvent(message)
		if err != nil {
			select {
			case <-s.closeCh:
				return
			case s.eventsCh <- eventOrError{err: err}:
			}
			continue
		}

		if event.Type == EventTypeSessionCreated && event.Session != nil {
			s.mu.Lock()
			s.sessionID = event.Session.ID
			s.mu.Unlock()
		}

		if event.Type == EventTypeError && event.TranscriptionError != nil {
			select {
			case <-s.closeCh:
				return
			case s.eventsCh <- eventOrError{err: event.TranscriptionError.ToError()}:
			}
			continue
		}

		select {
		case <-s.closeCh:
			return
		case s.eventsCh <- eventOrError{event: event}:
		}
	}
}

// parseEvent decodes a server message. Audio deltas arrive base64-encoded
// in the "delta" field and are decoded into Audio.
func parseEvent(message []byte) (*ServerEvent, error) {
	var event ServerEvent
	if err := json.Unmarshal(message, &event); err != nil {
		return nil, fmt.Errorf("openairt: parse event: %w", err)
	}
	event.Raw = message

	if event.Type == EventTypeResponseAudioDelta && event.Delta != "" {
		if decoded, err := base64.StdEncoding.DecodeString(event.Delta); err == nil {
			event.Audio = decoded
		}
	}
	return &event, nil
}
