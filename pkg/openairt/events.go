package openairt

// Client event types (sent to the server).
const (
	EventTypeSessionUpdate = "session.update"

	EventTypeInputAudioBufferAppend = "input_audio_buffer.append"
	EventTypeInputAudioBufferCommit = "input_audio_buffer.commit"
	EventTypeInputAudioBufferClear  = "input_audio_buffer.clear"

	EventTypeConversationItemCreate   = "conversation.item.create"
	EventTypeConversationItemTruncate = "conversation.item.truncate"
	EventTypeConversationItemDelete   = "conversation.item.delete"

	EventTypeResponseCreate = "response.create"
	EventTypeResponseCancel = "response.cancel"
)

// Server event types.
const (
	EventTypeError = "error"

	EventTypeSessionCreated = "session.created"
	EventTypeSessionUpdated = "session.updated"

	EventTypeConversationCreated                              = "conversation.created"
	EventTypeConversationItemCreated                          = "conversation.item.created"
	EventTypeConversationItemInputAudioTranscriptionCompleted = "conversation.item.input_audio_transcription.completed"
	EventTypeConversationItemInputAudioTranscriptionFailed    = "conversation.item.input_audio_transcription.failed"
	EventTypeConversationItemTruncated                        = "conversation.item.truncated"
	EventTypeConversationItemDeleted                          = "conversation.item.deleted"

	EventTypeInputAudioBufferCommitted     = "input_audio_buffer.committed"
	EventTypeInputAudioBufferCleared       = "input_audio_buffer.cleared"
	EventTypeInputAudioBufferSpeechStarted = "input_audio_buffer.speech_started"
	EventTypeInputAudioBufferSpeechStopped = "input_audio_buffer.speech_stopped"

	EventTypeResponseCreated          = "response.created"
	EventTypeResponseDone             = "response.done"
	EventTypeResponseOutputItemAdded  = "response.output_item.added"
	EventTypeResponseOutputItemDone   = "response.output_item.done"
	EventTypeResponseContentPartAdded = "response.content_part.added"
	EventTypeResponseContentPartDone  = "response.content_part.done"

	EventTypeResponseTextDelta = "response.text.delta"
	EventTypeResponseTextDone  = "response.text.done"

	EventTypeResponseAudioDelta = "response.audio.delta"
	EventTypeResponseAudioDone  = "response.audio.done"

	EventTypeResponseAudioTranscriptDelta = "response.audio_transcript.delta"
	EventTypeResponseAudioTranscriptDone  = "response.audio_transcript.done"

	EventTypeResponseFunctionCallArgumentsDelta = "response.function_call_arguments.delta"
	EventTypeResponseFunctionCallArgumentsDone  = "response.function_call_arguments.done"

	EventTypeRateLimitsUpdated = "rate_limits.updated"
)

// ServerEvent is one event received from the Realtime API. It is a union
// of all server event payloads; which fields are set depends on Type.
type ServerEvent struct {
	// Type is the event type.
	Type string `json:"type"`

	// EventID is the unique identifier for this event.
	EventID string `json:"event_id,omitzero"`

	// Session carries session.created / session.updated state.
	Session *SessionResource `json:"session,omitzero"`

	// Conversation carries conversation.created state.
	Conversation *ConversationResource `json:"conversation,omitzero"`

	// Item carries conversation.item.* items.
	Item *ConversationItem `json:"item,omitzero"`

	// PreviousItemID is set on input_audio_buffer.committed.
	PreviousItemID string `json:"previous_item_id,omitzero"`

	// ItemID identifies the item the event refers to.
	ItemID string `json:"item_id,omitzero"`

	// AudioStartMs is the speech start offset (speech_started).
	AudioStartMs int `json:"audio_start_ms,omitzero"`

	// AudioEndMs is the speech end offset (speech_stopped, truncated).
	AudioEndMs int `json:"audio_end_ms,omitzero"`

	// Transcript is transcription text.
	Transcript string `json:"transcript,omitzero"`

	// ContentIndex is the index of the content part.
	ContentIndex int `json:"content_index,omitzero"`

	// TranscriptionError carries error info for error events and
	// transcription failures.
	TranscriptionError *EventError `json:"error,omitzero"`

	// Response carries response.* state.
	Response *ResponseResource `json:"response,omitzero"`

	// ResponseID is the response identifier.
	ResponseID string `json:"response_id,omitzero"`

	// OutputIndex is the index of the output item.
	OutputIndex int `json:"output_index,omitzero"`

	// Part carries content part information.
	Part *ContentPart `json:"part,omitzero"`

	// Delta carries incremental text or arguments for *.delta events.
	// For response.audio.delta it is the base64 audio payload.
	Delta string `json:"delta,omitzero"`

	// Audio is the decoded audio of response.audio.delta events.
	Audio []byte `json:"-"`

	// CallID is the function call ID.
	CallID string `json:"call_id,omitzero"`

	// Name is the function name.
	Name string `json:"name,omitzero"`

	// Arguments is the complete function arguments (done event).
	Arguments string `json:"arguments,omitzero"`

	// RateLimits carries rate limit information.
	RateLimits []RateLimit `json:"rate_limits,omitzero"`

	// Raw is the original JSON message.
	Raw []byte `json:"-"`
}

// RateLimit is one entry of a rate_limits.updated event.
type RateLimit struct {
	Name         string  `json:"name"`
	Limit        int     `json:"limit"`
	Remaining    int     `json:"remaining"`
	ResetSeconds float64 `json:"reset_seconds"`
}
