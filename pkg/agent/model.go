package agent

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/huddle01/ai01-go/pkg/audio/pcm"
)

// Output is where a model's audio replies go, normally the agent's
// published room track.
type Output interface {
	pcm.Writer

	// Flush drops unplayed audio and returns how much of the current
	// response was actually played.
	Flush() time.Duration
}

// Session is the conversation surface an Agent hands to its Model: user
// audio in, model audio out, plus lifecycle hooks and turn state.
type Session struct {
	// In yields the mixed audio of all remote participants. It blocks
	// while the room is quiet.
	In io.Reader

	// Out receives the model's audio.
	Out Output

	// Hooks receive lifecycle notifications.
	Hooks *Hooks

	state atomic.Int32
}

// State returns the current turn state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// SetState transitions the turn state, notifying OnStateChange.
func (s *Session) SetState(to State) {
	from := State(s.state.Swap(int32(to)))
	if from != to {
		s.Hooks.stateChange(from, to)
	}
}

// Model drives one side of a realtime conversation. Implementations connect
// to a model provider, stream session.In up, and write replies to
// session.Out until ctx is done or the provider session ends.
type Model interface {
	// InputFormat is the PCM format the model wants to hear.
	InputFormat() pcm.Format

	// OutputFormat is the PCM format the model emits.
	OutputFormat() pcm.Format

	Run(ctx context.Context, session *Session) error
}
