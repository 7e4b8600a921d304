package gemini

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"google.golang.org/genai"
)

// DefaultLiveURL is the Live API websocket endpoint. The API key is passed
// as a query parameter.
const DefaultLiveURL = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1alpha.GenerativeService.BidiGenerateContent"

// LiveConfig configures a Live session.
type LiveConfig struct {
	// Model is the Live model ID. Default: ModelFlashLive.
	Model string

	// Voice names the prebuilt voice, e.g. "Puck", "Charon", "Kore".
	Voice string

	// Instructions is the system prompt.
	Instructions string

	// Temperature, when set, overrides the model default.
	Temperature *float64

	// MaxOutputTokens limits each model turn.
	MaxOutputTokens int

	// Tools are Gemini function declarations available to the model.
	Tools []*genai.FunctionDeclaration

	// ResponseModalities selects the model's output kinds, e.g.
	// []string{"TEXT", "AUDIO"}. Default: AUDIO only.
	ResponseModalities []string

	// URL overrides the websocket endpoint.
	URL string

	// DialTimeout bounds the websocket handshake. Default: 30s.
	DialTimeout time.Duration
}

// Live is an open Live API session.
//
// Send methods are safe for concurrent use. Messages must be consumed by a
// single reader.
type Live struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	closeCh    chan struct{}
	messagesCh chan messageOrError
	closeOnce  sync.Once
}

type messageOrError struct {
	msg *ServerMessage
	err error
}

// DialLive opens a Live session and completes the setup handshake.
func DialLive(ctx context.Context, apiKey string, cfg *LiveConfig) (*Live, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg == nil {
		cfg = &LiveConfig{}
	}
	model := cfg.Model
	if model == "" {
		model = ModelFlashLive
	}
	url := cfg.URL
	if url == "" {
		url = DefaultLiveURL
	}
	timeout := cfg.DialTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, resp, err := dialer.DialContext(ctx, url+"?key="+apiKey, nil)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return nil, fmt.Errorf("gemini: live dial failed (http_status=%d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("gemini: live dial: %w", err)
	}

	live := &Live{
		conn:       conn,
		closeCh:    make(chan struct{}),
		messagesCh: make(chan messageOrError, 100),
	}

	modalities := cfg.ResponseModalities
	if len(modalities) == 0 {
		modalities = []string{"AUDIO"}
	}
	setup := &setupPayload{Model: "models/" + model}
	gc := &generationConfig{
		ResponseModalities: modalities,
		Temperature:        cfg.Temperature,
		MaxOutputTokens:    cfg.MaxOutputTokens,
	}
	if cfg.Voice != "" {
		gc.SpeechConfig = &speechConfig{
			VoiceConfig: &voiceConfig{
				PrebuiltVoiceConfig: &prebuiltVoiceConfig{VoiceName: cfg.Voice},
			},
		}
	}
	setup.GenerationConfig = gc
	if cfg.Instructions != "" {
		setup.SystemInstruction = &content{Parts: []part{{Text: cfg.Instructions}}}
	}
	if len(cfg.Tools) > 0 {
		setup.Tools = []*genai.Tool{{FunctionDeclarations: cfg.Tools}}
	}

	if err := live.send(&clientMessage{Setup: setup}); err != nil {
		conn.Close()
		return nil, err
	}

	// The server acknowledges setup before any content flows.
	var first ServerMessage
	if err := conn.ReadJSON(&first); err != nil {
		conn.Close()
		return nil, fmt.Errorf("gemini: live setup: %w", err)
	}
	if first.SetupComplete == nil {
		conn.Close()
		return nil, fmt.Errorf("gemini: live setup rejected")
	}

	go live.readLoop()
	return live, nil
}

// SendAudio streams one chunk of user audio (16-bit LE PCM, 16kHz, mono).
func (l *Live) SendAudio(audio []byte) error {
	return l.send(&clientMessage{
		RealtimeInput: &realtimeInput{
			MediaChunks: []mediaChunk{{MIMEType: mimePCM16K, Data: audio}},
		},
	})
}

// SendText injects a user text turn and asks the model to respond.
func (l *Live) SendText(text string) error {
	return l.send(&clientMessage{
		ClientContent: &clientContent{
			Turns:        []content{{Role: "user", Parts: []part{{Text: text}}}},
			TurnComplete: true,
		},
	})
}

// SendToolResponse returns function results to the model.
func (l *Live) SendToolResponse(responses ...FunctionResponse) error {
	return l.send(&clientMessage{
		ToolResponse: &toolResponsePayload{FunctionResponses: responses},
	})
}

// Messages iterates over server messages until the session closes or a
// read error occurs. Iteration stops after yielding an error.
func (l *Live) Messages() iter.Seq2[*ServerMessage, error] {
	return func(yield func(*ServerMessage, error) bool) {
		for {
			select {
			case <-l.closeCh:
				return
			case item, ok := <-l.messagesCh:
				if !ok {
					return
				}
				if !yield(item.msg, item.err) {
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
func (l *Live) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.closeCh)
		err = l.conn.Close()
	})
	return err
}

func (l *Live) send(msg *clientMessage) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	select {
	case <-l.closeCh:
		return fmt.Errorf("gemini: live session closed")
	default:
	}
	return l.conn.WriteJSON(msg)
}

func (l *Live) readLoop() {
	defer close(l.messagesCh)

	for {
		select {
		case <-l.closeCh:
			return
		default:
		}

		var msg ServerMessage
		if err := l.conn.ReadJSON(&msg); err != nil {
			select {
			case <-l.closeCh:
			case l.messagesCh <- messageOrError{err: fmt.Errorf("gemini: live read: %w", err)}:
			}
			return
		}

		select {
		case <-l.closeCh:
			return
		case l.messagesCh <- messageOrError{msg: &msg}:
		}
	}
}
