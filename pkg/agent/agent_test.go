package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huddle01/ai01-go/pkg/audio/pcm"
)

type fakeModel struct{}

func (fakeModel) InputFormat() pcm.Format  { return pcm.L16Mono24K }
func (fakeModel) OutputFormat() pcm.Format { return pcm.L16Mono24K }
func (fakeModel) Run(ctx context.Context, s *Session) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestNewRequiresModel(t *testing.T) {
	if _, err := New(Options{ProjectID: "p", APIKey: "k"}); err == nil {
		t.Error("expected error without model")
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(Options{Model: fakeModel{}}); err == nil {
		t.Error("expected error without credentials")
	}
}

func TestRunRequiresJoin(t *testing.T) {
	a, err := New(Options{ProjectID: "p", APIKey: "k", Model: fakeModel{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if err := a.Run(context.Background()); err == nil {
		t.Error("expected error before Join")
	}
}

func TestSessionStateChangeFiresHook(t *testing.T) {
	var transitions []State
	s := &Session{Hooks: &Hooks{
		OnStateChange: func(from, to State) {
			transitions = append(transitions, to)
		},
	}}

	s.SetState(StateListening)
	s.SetState(StateListening) // no-op, same state
	s.SetState(StateSpeaking)

	if s.State() != StateSpeaking {
		t.Errorf("State = %v", s.State())
	}
	want := []State{StateListening, StateSpeaking}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transitions[%d] = %v, want %v", i, transitions[i], want[i])
		}
	}
}

func TestHooksNilSafe(t *testing.T) {
	var h *Hooks
	h.EmitUserTranscript("hi")
	h.EmitAgentTranscript("hello")
	h.EmitToolCall("f", "{}")
	h.EmitInterrupted()
	h.EmitError(errors.New("x"))
	h.stateChange(StateIdle, StateListening)

	s := &Session{}
	s.SetState(StateThinking)
	if s.State() != StateThinking {
		t.Errorf("State = %v", s.State())
	}
}

type recordingWriter struct {
	chunks int
	err    error
}

func (w *recordingWriter) Write(pcm.Chunk) error {
	w.chunks++
	return w.err
}

func TestTeeWriterFanOut(t *testing.T) {
	primary := &recordingWriter{}
	sink := &recordingWriter{err: errors.New("sink down")}
	tee := teeWriter{primary, sink}

	chunk := pcm.L16Mono24K.SilenceChunk(20 * time.Millisecond)
	if err := tee.Write(chunk); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if primary.chunks != 1 || sink.chunks != 1 {
		t.Errorf("chunks = %d/%d, want 1/1", primary.chunks, sink.chunks)
	}

	// A primary failure must propagate.
	primary.err = errors.New("track gone")
	if err := tee.Write(chunk); err == nil {
		t.Error("expected primary error to propagate")
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		StateIdle:      "idle",
		StateListening: "listening",
		StateThinking:  "thinking",
		StateSpeaking:  "speaking",
		State(99):      "unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
