package gemini

import "google.golang.org/genai"

// Default Live API models.
const (
	// ModelFlashLive is the default realtime conversation model.
	ModelFlashLive = "gemini-2.0-flash-live-001"
	// ModelFlashExp is the experimental flash model with Live support.
	ModelFlashExp = "gemini-2.0-flash-exp"
)

// MIME types of the Live API audio streams.
const (
	mimePCM16K = "audio/pcm;rate=16000"
)

// clientMessage is the oneof envelope of client messages.
type clientMessage struct {
	Setup         *setupPayload        `json:"setup,omitempty"`
	ClientContent *clientContent       `json:"clientContent,omitempty"`
	RealtimeInput *realtimeInput       `json:"realtimeInput,omitempty"`
	ToolResponse  *toolResponsePayload `json:"toolResponse,omitempty"`
}

// setupPayload configures the session; must be the first client message.
type setupPayload struct {
	Model             string            `json:"model"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	Tools             []*genai.Tool     `json:"tools,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
	Temperature        *float64      `json:"temperature,omitempty"`
	MaxOutputTokens    int           `json:"maxOutputTokens,omitempty"`
}

type speechConfig struct {
	VoiceConfig *voiceConfig `json:"voiceConfig,omitempty"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig *prebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitempty"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"` // JSON base64
}

// clientContent injects turns into the conversation.
type clientContent struct {
	Turns        []content `json:"turns,omitempty"`
	TurnComplete bool      `json:"turnComplete"`
}

// realtimeInput streams media chunks; the server segments turns itself.
type realtimeInput struct {
	MediaChunks []mediaChunk `json:"mediaChunks"`
}

type mediaChunk struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

type toolResponsePayload struct {
	FunctionResponses []FunctionResponse `json:"functionResponses"`
}

// FunctionResponse is a tool result returned to the model.
type FunctionResponse struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// ServerMessage is one message received from the Live API. Exactly one of
// the payload fields is set.
type ServerMessage struct {
	// SetupComplete acknowledges the setup message.
	SetupComplete *struct{} `json:"setupComplete,omitempty"`

	// ServerContent carries model output and turn signals.
	ServerContent *ServerContent `json:"serverContent,omitempty"`

	// ToolCall requests function invocations.
	ToolCall *ToolCall `json:"toolCall,omitempty"`

	// ToolCallCancellation withdraws earlier tool calls after a barge-in.
	ToolCallCancellation *ToolCallCancellation `json:"toolCallCancellation,omitempty"`

	// UsageMetadata reports token accounting.
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`

	// GoAway warns that the server will soon drop the connection.
	GoAway *GoAway `json:"goAway,omitempty"`
}

// ServerContent is incremental model output.
type ServerContent struct {
	// ModelTurn holds the content parts generated so far.
	ModelTurn *ModelTurn `json:"modelTurn,omitempty"`

	// TurnComplete marks the end of the model's turn.
	TurnComplete bool `json:"turnComplete,omitempty"`

	// Interrupted means user speech cut the model off; discard queued
	// playback.
	Interrupted bool `json:"interrupted,omitempty"`

	// InputTranscription carries the transcript of user audio.
	InputTranscription *Transcription `json:"inputTranscription,omitempty"`

	// OutputTranscription carries the transcript of model audio.
	OutputTranscription *Transcription `json:"outputTranscription,omitempty"`
}

// ModelTurn is the model's content in progress.
type ModelTurn struct {
	Role  string       `json:"role,omitempty"`
	Parts []ServerPart `json:"parts,omitempty"`
}

// ServerPart is one part of model output.
type ServerPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *ServerBlob `json:"inlineData,omitempty"`
}

// ServerBlob is inline binary data; audio arrives as PCM at 24kHz.
type ServerBlob struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// Transcription is a speech transcript fragment.
type Transcription struct {
	Text     string `json:"text,omitempty"`
	Finished bool   `json:"finished,omitempty"`
}

// ToolCall asks the client to run functions.
type ToolCall struct {
	FunctionCalls []FunctionCall `json:"functionCalls"`
}

// FunctionCall is one requested invocation.
type FunctionCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolCallCancellation withdraws pending tool calls by ID.
type ToolCallCancellation struct {
	IDs []string `json:"ids"`
}

// UsageMetadata is token accounting for the session so far.
type UsageMetadata struct {
	PromptTokenCount        int `json:"promptTokenCount,omitempty"`
	ResponseTokenCount      int `json:"responseTokenCount,omitempty"`
	TotalTokenCount         int `json:"totalTokenCount,omitempty"`
	CachedContentTokenCount int `json:"cachedContentTokenCount,omitempty"`
}

// GoAway warns about imminent disconnection.
type GoAway struct {
	// TimeLeft is a duration string, e.g. "10s".
	TimeLeft string `json:"timeLeft,omitempty"`
}
