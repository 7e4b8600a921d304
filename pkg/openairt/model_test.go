package openairt

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/huddle01/ai01-go/pkg/agent"
	"github.com/huddle01/ai01-go/pkg/audio/pcm"
	"github.com/huddle01/ai01-go/pkg/tools"
)

// blockedReader blocks until closed, like a mixer of a quiet room.
type blockedReader struct{ ch chan struct{} }

func newBlockedReader() *blockedReader { return &blockedReader{ch: make(chan struct{})} }

func (r *blockedReader) Read(p []byte) (int, error) {
	<-r.ch
	return 0, context.Canceled
}

// fakeOutput records writes and reports a fixed played duration on Flush.
type fakeOutput struct {
	mu      sync.Mutex
	chunks  int
	played  time.Duration
	flushes int
}

func (o *fakeOutput) Write(pcm.Chunk) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.chunks++
	return nil
}

func (o *fakeOutput) Flush() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.flushes++
	return o.played
}

// readUntil reads server-bound events until one matches type want.
func readUntil(t *testing.T, conn *websocket.Conn, want string) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var event map[string]any
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatalf("waiting for %q: %v", want, err)
		}
		if event["type"] == want {
			return event
		}
	}
}

func TestModelTruncatesOnBargeIn(t *testing.T) {
	out := &fakeOutput{played: 1234 * time.Millisecond}

	srv := newFakeRealtime(t, func(conn *websocket.Conn) {
		readUntil(t, conn, EventTypeSessionUpdate)

		conn.WriteJSON(map[string]any{
			"type":    EventTypeSessionCreated,
			"session": map[string]any{"id": "sess_1"},
		})
		conn.WriteJSON(map[string]any{
			"type": EventTypeResponseOutputItemAdded,
			"item": map[string]any{"id": "item_1", "type": "message"},
		})
		conn.WriteJSON(map[string]any{
			"type":  EventTypeResponseAudioDelta,
			"delta": "AAAA", // 3 zero bytes
		})
		conn.WriteJSON(map[string]any{
			"type":           EventTypeInputAudioBufferSpeechStarted,
			"audio_start_ms": 100,
		})

		event := readUntil(t, conn, EventTypeConversationItemTruncate)
		if event["item_id"] != "item_1" {
			t.Errorf("item_id = %v", event["item_id"])
		}
		if ms, _ := event["audio_end_ms"].(float64); int(ms) != 1234 {
			t.Errorf("audio_end_ms = %v, want 1234", event["audio_end_ms"])
		}
	})
	defer srv.Close()

	var interrupted bool
	session := &agent.Session{
		In:  newBlockedReader(),
		Out: out,
		Hooks: &agent.Hooks{
			OnInterrupted: func() { interrupted = true },
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	model := NewModel("sk-test", nil, WithURL(wsURL(srv)))
	done := make(chan error, 1)
	go func() { done <- model.Run(ctx, session) }()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		out.mu.Lock()
		f := out.flushes
		out.mu.Unlock()
		if f > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	<-done

	out.mu.Lock()
	defer out.mu.Unlock()
	if out.chunks != 1 {
		t.Errorf("chunks written = %d, want 1", out.chunks)
	}
	if out.flushes == 0 {
		t.Fatal("Flush never called on speech_started")
	}
	if !interrupted {
		t.Error("OnInterrupted not fired")
	}
	if session.State() != agent.StateListening {
		t.Errorf("State = %v, want listening", session.State())
	}
}

func TestModelDispatchesToolCalls(t *testing.T) {
	reg := tools.NewRegistry(tools.Must("lookup", "Look something up.",
		func(ctx context.Context, arg struct {
			Query string `json:"query"`
		}) (any, error) {
			return map[string]string{"answer": "42:" + arg.Query}, nil
		}))

	srv := newFakeRealtime(t, func(conn *websocket.Conn) {
		update := readUntil(t, conn, EventTypeSessionUpdate)
		b, _ := json.Marshal(update["session"])
		var sc struct {
			Tools []Tool `json:"tools"`
		}
		json.Unmarshal(b, &sc)
		if len(sc.Tools) != 1 || sc.Tools[0].Name != "lookup" {
			t.Errorf("session tools = %+v", sc.Tools)
		}

		conn.WriteJSON(map[string]any{
			"type":      EventTypeResponseFunctionCallArgumentsDone,
			"call_id":   "call_1",
			"name":      "lookup",
			"arguments": `{"query":"life"}`,
		})

		event := readUntil(t, conn, EventTypeConversationItemCreate)
		b, _ = json.Marshal(event["item"])
		var item ConversationItem
		json.Unmarshal(b, &item)
		if item.Type != "function_call_output" || item.CallID != "call_1" {
			t.Errorf("item = %+v", item)
		}
		var result map[string]string
		json.Unmarshal([]byte(item.Output), &result)
		if result["answer"] != "42:life" {
			t.Errorf("output = %q", item.Output)
		}

		readUntil(t, conn, EventTypeResponseCreate)
	})
	defer srv.Close()

	calls := make(chan string, 1)
	session := &agent.Session{
		In:  newBlockedReader(),
		Out: &fakeOutput{},
		Hooks: &agent.Hooks{
			OnToolCall: func(name, args string) { calls <- name },
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	model := NewModel("sk-test", &ModelConfig{Tools: reg}, WithURL(wsURL(srv)))
	done := make(chan error, 1)
	go func() { done <- model.Run(ctx, session) }()

	select {
	case name := <-calls:
		if name != "lookup" {
			t.Errorf("tool call = %q", name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tool never called")
	}

	cancel()
	<-done
}
