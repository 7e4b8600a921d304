package agent

// State is the agent's place in the conversation turn cycle.
type State int32

const (
	// StateIdle means no conversation activity.
	StateIdle State = iota
	// StateListening means a user is speaking.
	StateListening
	// StateThinking means the model is preparing a response.
	StateThinking
	// StateSpeaking means the agent is playing a model response.
	StateSpeaking
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateThinking:
		return "thinking"
	case StateSpeaking:
		return "speaking"
	default:
		return "unknown"
	}
}

// Hooks receive conversation lifecycle notifications from the model. All
// fields are optional. Hooks are invoked from the model's event loop and
// must not block.
type Hooks struct {
	// OnStateChange fires on turn cycle transitions.
	OnStateChange func(from, to State)

	// OnUserTranscript fires with the transcription of user speech.
	OnUserTranscript func(text string)

	// OnAgentTranscript fires with transcript deltas of the agent's own
	// speech.
	OnAgentTranscript func(text string)

	// OnToolCall fires when the model invokes a function tool.
	OnToolCall func(name, args string)

	// OnInterrupted fires when user speech cut off an agent response.
	OnInterrupted func()

	// OnError fires on non-fatal session errors.
	OnError func(err error)
}

// Nil-safe emitters for model implementations.

func (h *Hooks) stateChange(from, to State) {
	if h != nil && h.OnStateChange != nil {
		h.OnStateChange(from, to)
	}
}

// EmitUserTranscript invokes OnUserTranscript if set.
func (h *Hooks) EmitUserTranscript(text string) {
	if h != nil && h.OnUserTranscript != nil {
		h.OnUserTranscript(text)
	}
}

// EmitAgentTranscript invokes OnAgentTranscript if set.
func (h *Hooks) EmitAgentTranscript(text string) {
	if h != nil && h.OnAgentTranscript != nil {
		h.OnAgentTranscript(text)
	}
}

// EmitToolCall invokes OnToolCall if set.
func (h *Hooks) EmitToolCall(name, args string) {
	if h != nil && h.OnToolCall != nil {
		h.OnToolCall(name, args)
	}
}

// EmitInterrupted invokes OnInterrupted if set.
func (h *Hooks) EmitInterrupted() {
	if h != nil && h.OnInterrupted != nil {
		h.OnInterrupted()
	}
}

// EmitError invokes OnError if set.
func (h *Hooks) EmitError(err error) {
	if h != nil && h.OnError != nil {
		h.OnError(err)
	}
}
