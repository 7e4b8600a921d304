package gemini

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/huddle01/ai01-go/pkg/agent"
	"github.com/huddle01/ai01-go/pkg/audio/pcm"
	"github.com/huddle01/ai01-go/pkg/tools"
)

// newFakeLive runs a fake Live endpoint that completes the setup handshake
// and then hands the connection to handle.
func newFakeLive(t *testing.T, handle func(conn *websocket.Conn, setup *clientMessage)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var setup clientMessage
		if err := conn.ReadJSON(&setup); err != nil {
			t.Errorf("read setup: %v", err)
			return
		}
		if setup.Setup == nil {
			t.Error("first message is not setup")
			return
		}
		conn.WriteJSON(map[string]any{"setupComplete": map[string]any{}})
		handle(conn, &setup)
	}))
}

func liveURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDialLiveHandshake(t *testing.T) {
	srv := newFakeLive(t, func(conn *websocket.Conn, setup *clientMessage) {
		if setup.Setup.Model != "models/"+ModelFlashLive {
			t.Errorf("model = %q", setup.Setup.Model)
		}
		if setup.Setup.SystemInstruction == nil {
			t.Error("system instruction missing")
		}
		gc := setup.Setup.GenerationConfig
		if gc == nil || len(gc.ResponseModalities) != 1 || gc.ResponseModalities[0] != "AUDIO" {
			t.Errorf("generationConfig = %+v", gc)
		}
		if gc.SpeechConfig == nil || gc.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName != "Puck" {
			t.Error("voice config missing")
		}
		conn.ReadMessage()
	})
	defer srv.Close()

	live, err := DialLive(context.Background(), "key", &LiveConfig{
		Voice:        "Puck",
		Instructions: "Be brief.",
		URL:          liveURL(srv),
	})
	if err != nil {
		t.Fatalf("DialLive: %v", err)
	}
	live.Close()
}

func TestSendAudioChunk(t *testing.T) {
	got := make(chan clientMessage, 1)
	srv := newFakeLive(t, func(conn *websocket.Conn, setup *clientMessage) {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err == nil {
			got <- msg
		}
		conn.ReadMessage()
	})
	defer srv.Close()

	live, err := DialLive(context.Background(), "key", &LiveConfig{URL: liveURL(srv)})
	if err != nil {
		t.Fatalf("DialLive: %v", err)
	}
	defer live.Close()

	audio := []byte{1, 2, 3, 4}
	if err := live.SendAudio(audio); err != nil {
		t.Fatalf("SendAudio: %v", err)
	}

	select {
	case msg := <-got:
		if msg.RealtimeInput == nil || len(msg.RealtimeInput.MediaChunks) != 1 {
			t.Fatalf("msg = %+v", msg)
		}
		chunk := msg.RealtimeInput.MediaChunks[0]
		if chunk.MIMEType != mimePCM16K {
			t.Errorf("mimeType = %q", chunk.MIMEType)
		}
		if string(chunk.Data) != string(audio) {
			t.Errorf("data = %v, want %v", chunk.Data, audio)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server never received audio")
	}
}

type fakeOutput struct {
	mu      sync.Mutex
	written int
	flushes int
}

func (o *fakeOutput) Write(c pcm.Chunk) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.written += int(c.Len())
	return nil
}

func (o *fakeOutput) Flush() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.flushes++
	return 0
}

type blockedReader struct{}

func (blockedReader) Read(p []byte) (int, error) {
	select {}
}

func TestLiveModelPlaysAudioAndHandlesInterrupt(t *testing.T) {
	audio := base64.StdEncoding.EncodeToString(make([]byte, 960))

	srv := newFakeLive(t, func(conn *websocket.Conn, setup *clientMessage) {
		conn.WriteJSON(map[string]any{
			"serverContent": map[string]any{
				"modelTurn": map[string]any{
					"parts": []map[string]any{
						{"inlineData": map[string]any{"mimeType": "audio/pcm;rate=24000", "data": audio}},
					},
				},
			},
		})
		conn.WriteJSON(map[string]any{
			"serverContent": map[string]any{"interrupted": true},
		})
		conn.ReadMessage()
	})
	defer srv.Close()

	out := &fakeOutput{}
	interrupted := make(chan struct{}, 1)
	session := &agent.Session{
		In:  blockedReader{},
		Out: out,
		Hooks: &agent.Hooks{
			OnInterrupted: func() { interrupted <- struct{}{} },
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	model := NewLiveModel("key", &LiveConfig{URL: liveURL(srv)}, nil)
	done := make(chan error, 1)
	go func() { done <- model.Run(ctx, session) }()

	select {
	case <-interrupted:
	case <-time.After(5 * time.Second):
		t.Fatal("interrupt never surfaced")
	}

	cancel()
	<-done

	out.mu.Lock()
	defer out.mu.Unlock()
	if out.written != 960 {
		t.Errorf("written = %d, want 960", out.written)
	}
	if out.flushes != 1 {
		t.Errorf("flushes = %d, want 1", out.flushes)
	}
	if session.State() != agent.StateListening {
		t.Errorf("State = %v, want listening", session.State())
	}
}

func TestLiveModelDispatchesToolCalls(t *testing.T) {
	reg := tools.NewRegistry(tools.Must("ping", "Ping.",
		func(ctx context.Context, arg struct{}) (any, error) {
			return map[string]string{"pong": "ok"}, nil
		}))

	srv := newFakeLive(t, func(conn *websocket.Conn, setup *clientMessage) {
		if len(setup.Setup.Tools) != 1 || setup.Setup.Tools[0].FunctionDeclarations[0].Name != "ping" {
			t.Errorf("tools = %+v", setup.Setup.Tools)
		}

		conn.WriteJSON(map[string]any{
			"toolCall": map[string]any{
				"functionCalls": []map[string]any{
					{"id": "fc_1", "name": "ping", "args": map[string]any{}},
				},
			},
		})

		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Errorf("read tool response: %v", err)
			return
		}
		if msg.ToolResponse == nil || len(msg.ToolResponse.FunctionResponses) != 1 {
			t.Errorf("msg = %+v", msg)
			return
		}
		fr := msg.ToolResponse.FunctionResponses[0]
		if fr.ID != "fc_1" || fr.Name != "ping" {
			t.Errorf("response = %+v", fr)
		}
		conn.ReadMessage()
	})
	defer srv.Close()

	called := make(chan string, 1)
	session := &agent.Session{
		In:  blockedReader{},
		Out: &fakeOutput{},
		Hooks: &agent.Hooks{
			OnToolCall: func(name, args string) { called <- name },
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	model := NewLiveModel("key", &LiveConfig{URL: liveURL(srv)}, reg)
	done := make(chan error, 1)
	go func() { done <- model.Run(ctx, session) }()

	select {
	case name := <-called:
		if name != "ping" {
			t.Errorf("tool = %q", name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tool never called")
	}

	cancel()
	<-done
}
