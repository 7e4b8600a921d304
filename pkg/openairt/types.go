package openairt

import "encoding/json"

// Realtime model IDs.
const (
	// ModelGPT4oRealtimePreview is the GPT-4o realtime preview model.
	ModelGPT4oRealtimePreview = "gpt-4o-realtime-preview"
	// ModelGPT4oRealtimePreview20241217 is a pinned version.
	ModelGPT4oRealtimePreview20241217 = "gpt-4o-realtime-preview-2024-12-17"
	// ModelGPT4oMiniRealtimePreview is the GPT-4o mini realtime model.
	ModelGPT4oMiniRealtimePreview = "gpt-4o-mini-realtime-preview"
	// ModelGPT4oMiniRealtimePreview20241217 is a pinned version.
	ModelGPT4oMiniRealtimePreview20241217 = "gpt-4o-mini-realtime-preview-2024-12-17"
)

// Audio formats.
const (
	// AudioFormatPCM16 is 16-bit PCM at 24kHz, mono, little-endian.
	AudioFormatPCM16 = "pcm16"
	// AudioFormatG711ULaw is G.711 u-law at 8kHz.
	AudioFormatG711ULaw = "g711_ulaw"
	// AudioFormatG711ALaw is G.711 A-law at 8kHz.
	AudioFormatG711ALaw = "g711_alaw"
)

// Voices.
const (
	VoiceAlloy   = "alloy"
	VoiceAsh     = "ash"
	VoiceBallad  = "ballad"
	VoiceCoral   = "coral"
	VoiceEcho    = "echo"
	VoiceSage    = "sage"
	VoiceShimmer = "shimmer"
	VoiceVerse   = "verse"
)

// Turn detection modes.
const (
	// VADServerVAD enables server-side voice activity detection.
	VADServerVAD = "server_vad"
	// VADSemanticVAD enables semantic voice activity detection.
	VADSemanticVAD = "semantic_vad"
)

// Modalities.
const (
	ModalityText  = "text"
	ModalityAudio = "audio"
)

// Tool choice strings.
const (
	ToolChoiceAuto     = "auto"
	ToolChoiceNone     = "none"
	ToolChoiceRequired = "required"
)

// SessionConfig is the payload of session.update.
type SessionConfig struct {
	// Modalities are the output modalities. Default: ["text", "audio"].
	Modalities []string `json:"modalities,omitzero"`

	// Instructions is the system prompt.
	Instructions string `json:"instructions,omitzero"`

	// Voice selects the audio output voice.
	Voice string `json:"voice,omitzero"`

	// InputAudioFormat. Default: pcm16.
	InputAudioFormat string `json:"input_audio_format,omitzero"`

	// OutputAudioFormat. Default: pcm16.
	OutputAudioFormat string `json:"output_audio_format,omitzero"`

	// InputAudioTranscription enables transcription of user audio.
	InputAudioTranscription *TranscriptionConfig `json:"input_audio_transcription,omitzero"`

	// TurnDetection configures voice activity detection. nil keeps the
	// current setting; set TurnDetectionDisabled for manual mode.
	TurnDetection *TurnDetection `json:"turn_detection,omitzero"`

	// TurnDetectionDisabled sends "turn_detection": null explicitly,
	// switching the session to manual turn taking.
	TurnDetectionDisabled bool `json:"-"`

	// Tools are the functions available to the model.
	Tools []Tool `json:"tools,omitzero"`

	// ToolChoice is a string ("auto", "none", "required") or an object
	// {"type": "function", "name": "my_function"}.
	ToolChoice any `json:"tool_choice,omitzero"`

	// Temperature controls randomness (0.6-1.2). Default: 0.8.
	Temperature *float64 `json:"temperature,omitzero"`

	// MaxResponseOutputTokens limits output length.
	MaxResponseOutputTokens *int `json:"max_response_output_tokens,omitzero"`
}

// MarshalJSON emits "turn_detection": null when TurnDetectionDisabled is
// set; omitting the key would keep the server's current VAD mode.
func (s SessionConfig) MarshalJSON() ([]byte, error) {
	type alias SessionConfig
	b, err := json.Marshal(alias(s))
	if err != nil {
		return nil, err
	}
	if !s.TurnDetectionDisabled {
		return b, nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	m["turn_detection"] = nil
	return json.Marshal(m)
}

// TranscriptionConfig configures input audio transcription.
type TranscriptionConfig struct {
	// Model is the transcription model. Default: whisper-1.
	Model string `json:"model,omitzero"`
}

// TurnDetection configures voice activity detection.
type TurnDetection struct {
	// Type is "server_vad" or "semantic_vad".
	Type string `json:"type,omitzero"`

	// Threshold is the VAD sensitivity (0.0-1.0). Default: 0.5.
	Threshold float64 `json:"threshold,omitzero"`

	// PrefixPaddingMs is audio kept before detected speech. Default: 300.
	PrefixPaddingMs int `json:"prefix_padding_ms,omitzero"`

	// SilenceDurationMs ends the turn after this much silence.
	// Default: 500.
	SilenceDurationMs int `json:"silence_duration_ms,omitzero"`

	// CreateResponse auto-creates a response at end of speech.
	// Default: true.
	CreateResponse *bool `json:"create_response,omitzero"`

	// InterruptResponse interrupts the active response when the user
	// starts speaking. Default: true.
	InterruptResponse *bool `json:"interrupt_response,omitzero"`

	// Eagerness tunes semantic_vad response timing: "low", "medium",
	// "high". Default: "medium".
	Eagerness string `json:"eagerness,omitzero"`
}

// Tool is a function tool in the Realtime wire format.
type Tool struct {
	// Type is always "function".
	Type string `json:"type"`

	// Name is the function name.
	Name string `json:"name"`

	// Description describes what the function does.
	Description string `json:"description,omitzero"`

	// Parameters is the JSON schema of the arguments.
	Parameters any `json:"parameters,omitzero"`
}

// ResponseCreateOptions customizes a single response.create.
type ResponseCreateOptions struct {
	Modalities        []string `json:"modalities,omitzero"`
	Instructions      string   `json:"instructions,omitzero"`
	Voice             string   `json:"voice,omitzero"`
	OutputAudioFormat string   `json:"output_audio_format,omitzero"`
	Tools             []Tool   `json:"tools,omitzero"`
	ToolChoice        any      `json:"tool_choice,omitzero"`
	Temperature       *float64 `json:"temperature,omitzero"`
	MaxOutputTokens   *int     `json:"max_output_tokens,omitzero"`

	// Conversation is "auto" (default) or "none" for an out-of-band
	// response without conversation context.
	Conversation string `json:"conversation,omitzero"`

	// Input provides items directly instead of the audio buffer.
	Input []ConversationItem `json:"input,omitzero"`
}

// SessionResource is the session state echoed by the server.
type SessionResource struct {
	ID                      string               `json:"id,omitzero"`
	Object                  string               `json:"object,omitzero"`
	Model                   string               `json:"model,omitzero"`
	ExpiresAt               int64                `json:"expires_at,omitzero"`
	Modalities              []string             `json:"modalities,omitzero"`
	Instructions            string               `json:"instructions,omitzero"`
	Voice                   string               `json:"voice,omitzero"`
	InputAudioFormat        string               `json:"input_audio_format,omitzero"`
	OutputAudioFormat       string               `json:"output_audio_format,omitzero"`
	InputAudioTranscription *TranscriptionConfig `json:"input_audio_transcription,omitzero"`
	TurnDetection           *TurnDetection       `json:"turn_detection,omitzero"`
	Tools                   []Tool               `json:"tools,omitzero"`
	ToolChoice              any                  `json:"tool_choice,omitzero"`
	Temperature             float64              `json:"temperature,omitzero"`
	MaxResponseOutputTokens any                  `json:"max_response_output_tokens,omitzero"`
}

// ConversationResource identifies a conversation.
type ConversationResource struct {
	ID     string `json:"id,omitzero"`
	Object string `json:"object,omitzero"`
}

// ConversationItem is one item of the conversation.
type ConversationItem struct {
	ID        string        `json:"id,omitzero"`
	Object    string        `json:"object,omitzero"`
	Type      string        `json:"type,omitzero"` // "message", "function_call", "function_call_output"
	Status    string        `json:"status,omitzero"`
	Role      string        `json:"role,omitzero"` // "user", "assistant", "system"
	Content   []ContentPart `json:"content,omitzero"`
	CallID    string        `json:"call_id,omitzero"`
	Name      string        `json:"name,omitzero"`
	Arguments string        `json:"arguments,omitzero"`
	Output    string        `json:"output,omitzero"`
}

// ContentPart is a part of message content.
type ContentPart struct {
	Type       string `json:"type,omitzero"` // "input_text", "input_audio", "item_reference", "text", "audio"
	Text       string `json:"text,omitzero"`
	Audio      string `json:"audio,omitzero"` // base64
	Transcript string `json:"transcript,omitzero"`
	ID         string `json:"id,omitzero"` // for item_reference
}

// ResponseResource is the state of one model response.
type ResponseResource struct {
	ID            string             `json:"id,omitzero"`
	Object        string             `json:"object,omitzero"`
	Status        string             `json:"status,omitzero"` // "in_progress", "completed", "cancelled", "incomplete", "failed"
	StatusDetails *StatusDetails     `json:"status_details,omitzero"`
	Output        []ConversationItem `json:"output,omitzero"`
	Usage         *Usage             `json:"usage,omitzero"`
}

// StatusDetails explains a response status.
type StatusDetails struct {
	Type   string `json:"type,omitzero"`
	Reason string `json:"reason,omitzero"`
	Error  *Error `json:"error,omitzero"`
}

// Usage is token accounting for a response.
type Usage struct {
	TotalTokens        int           `json:"total_tokens,omitzero"`
	InputTokens        int           `json:"input_tokens,omitzero"`
	OutputTokens       int           `json:"output_tokens,omitzero"`
	InputTokenDetails  *TokenDetails `json:"input_token_details,omitzero"`
	OutputTokenDetails *TokenDetails `json:"output_token_details,omitzero"`
}

// TokenDetails breaks usage down by kind.
type TokenDetails struct {
	CachedTokens int `json:"cached_tokens,omitzero"`
	TextTokens   int `json:"text_tokens,omitzero"`
	AudioTokens  int `json:"audio_tokens,omitzero"`
}
