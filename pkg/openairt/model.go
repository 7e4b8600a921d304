package openairt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/huddle01/ai01-go/pkg/agent"
	"github.com/huddle01/ai01-go/pkg/audio/pcm"
	"github.com/huddle01/ai01-go/pkg/tools"
)

// ModelConfig configures the Realtime agent model.
type ModelConfig struct {
	// Model is the realtime model ID. Default: gpt-4o-realtime-preview.
	Model string

	// Voice for audio replies. Default: alloy.
	Voice string

	// Instructions is the system prompt.
	Instructions string

	// Temperature, when set, overrides the session default (0.8).
	Temperature *float64

	// Tools is the function tool registry, optional.
	Tools *tools.Registry

	// TurnDetection overrides the default server VAD settings.
	TurnDetection *TurnDetection

	// DisableTranscription turns off whisper transcription of user audio.
	// Without transcription OnUserTranscript never fires.
	DisableTranscription bool
}

// RealtimeModel is an agent.Model backed by the OpenAI Realtime API.
type RealtimeModel struct {
	client *Client
	cfg    ModelConfig
}

var _ agent.Model = (*RealtimeModel)(nil)

// NewModel creates a Realtime agent model.
func NewModel(apiKey string, cfg *ModelConfig, opts ...Option) *RealtimeModel {
	if cfg == nil {
		cfg = &ModelConfig{}
	}
	return &RealtimeModel{
		client: NewClient(apiKey, opts...),
		cfg:    *cfg,
	}
}

// InputFormat implements agent.Model. The Realtime API speaks pcm16 at
// 24kHz in both directions.
func (m *RealtimeModel) InputFormat() pcm.Format { return pcm.L16Mono24K }

// OutputFormat implements agent.Model.
func (m *RealtimeModel) OutputFormat() pcm.Format { return pcm.L16Mono24K }

// Run connects a realtime session and drives it until ctx is done or the
// session fails.
func (m *RealtimeModel) Run(ctx context.Context, session *agent.Session) error {
	rt, err := m.client.Connect(ctx, &ConnectConfig{Model: m.cfg.Model})
	if err != nil {
		return err
	}
	defer rt.Close()

	go func() {
		<-ctx.Done()
		rt.Close()
	}()

	if err := rt.UpdateSession(m.sessionConfig()); err != nil {
		return err
	}

	go m.uplink(ctx, rt, session)

	return m.eventLoop(ctx, rt, session)
}

// sessionConfig builds the session.update payload from the model config.
func (m *RealtimeModel) sessionConfig() *SessionConfig {
	voice := m.cfg.Voice
	if voice == "" {
		voice = VoiceAlloy
	}
	td := m.cfg.TurnDetection
	if td == nil {
		td = &TurnDetection{Type: VADServerVAD}
	}

	sc := &SessionConfig{
		Modalities:        []string{ModalityText, ModalityAudio},
		Instructions:      m.cfg.Instructions,
		Voice:             voice,
		InputAudioFormat:  AudioFormatPCM16,
		OutputAudioFormat: AudioFormatPCM16,
		TurnDetection:     td,
		Temperature:       m.cfg.Temperature,
	}
	if !m.cfg.DisableTranscription {
		sc.InputAudioTranscription = &TranscriptionConfig{Model: "whisper-1"}
	}
	if m.cfg.Tools != nil {
		for _, t := range m.cfg.Tools.All() {
			sc.Tools = append(sc.Tools, Tool{
				Type:        "function",
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			})
		}
	}
	return sc
}

// uplink streams room audio into the input buffer, one 20ms frame at a
// time. The mixer blocks while the room is quiet, so the loop is paced by
// incoming media.
func (m *RealtimeModel) uplink(ctx context.Context, rt *Session, session *agent.Session) {
	buf := make([]byte, pcm.L16Mono24K.BytesInDuration(20*time.Millisecond))
	for {
		if ctx.Err() != nil {
			return
		}
		if _, err := io.ReadFull(session.In, buf); err != nil {
			slog.Debug("uplink ended", "error", err)
			return
		}
		if err := rt.AppendAudio(buf); err != nil {
			slog.Debug("append audio failed", "error", err)
			return
		}
	}
}

func (m *RealtimeModel) eventLoop(ctx context.Context, rt *Session, session *agent.Session) error {
	hooks := session.Hooks

	// ID of the assistant item currently playing, for truncation.
	var currentItemID string

	for event, err := range rt.Events() {
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			hooks.EmitError(err)
			return err
		}

		switch event.Type {
		case EventTypeSessionCreated:
			slog.Info("realtime session created", "session", event.Session.ID, "model", rt.Model())

		case EventTypeInputAudioBufferSpeechStarted:
			// Barge-in: stop playback and tell the model where the
			// user actually cut it off.
			interrupted := session.State() == agent.StateSpeaking
			played := session.Out.Flush()
			if interrupted && currentItemID != "" {
				if err := rt.TruncateItem(currentItemID, 0, int(played/time.Millisecond)); err != nil {
					slog.Warn("truncate failed", "item", currentItemID, "error", err)
				}
				currentItemID = ""
				hooks.EmitInterrupted()
			}
			session.SetState(agent.StateListening)

		case EventTypeInputAudioBufferSpeechStopped:
			session.SetState(agent.StateThinking)

		case EventTypeConversationItemInputAudioTranscriptionCompleted:
			hooks.EmitUserTranscript(event.Transcript)

		case EventTypeResponseOutputItemAdded:
			if event.Item != nil && event.Item.Type == "message" {
				currentItemID = event.Item.ID
			}

		case EventTypeResponseAudioDelta:
			if len(event.Audio) == 0 {
				continue
			}
			session.SetState(agent.StateSpeaking)
			if err := session.Out.Write(pcm.L16Mono24K.DataChunk(event.Audio)); err != nil {
				return fmt.Errorf("openairt: write audio: %w", err)
			}

		case EventTypeResponseAudioTranscriptDelta:
			hooks.EmitAgentTranscript(event.Delta)

		case EventTypeResponseFunctionCallArgumentsDone:
			m.dispatchTool(ctx, rt, hooks, event)

		case EventTypeResponseDone:
			currentItemID = ""
			session.SetState(agent.StateIdle)

		case EventTypeRateLimitsUpdated:
			for _, rl := range event.RateLimits {
				if rl.Remaining < rl.Limit/10 {
					slog.Warn("rate limit low", "name", rl.Name, "remaining", rl.Remaining, "limit", rl.Limit)
				}
			}
		}
	}
	return ctx.Err()
}

// dispatchTool runs a function call and feeds the result back. Runs inline
// with the event loop: the model will not produce audio for this response
// until the output arrives anyway.
func (m *RealtimeModel) dispatchTool(ctx context.Context, rt *Session, hooks *agent.Hooks, event *ServerEvent) {
	hooks.EmitToolCall(event.Name, event.Arguments)

	output := ""
	if m.cfg.Tools == nil {
		output = errorOutput(fmt.Errorf("no tools registered"))
	} else {
		result, err := m.cfg.Tools.Dispatch(ctx, event.Name, event.Arguments)
		if err != nil {
			slog.Warn("tool dispatch failed", "tool", event.Name, "error", err)
			output = errorOutput(err)
		} else {
			output = result
		}
	}

	if err := rt.AddFunctionCallOutput(event.CallID, output); err != nil {
		slog.Warn("send tool output failed", "tool", event.Name, "error", err)
		return
	}
	if err := rt.CreateResponse(nil); err != nil {
		slog.Warn("response after tool failed", "tool", event.Name, "error", err)
	}
}

// errorOutput wraps a tool error so the model can relay the failure.
func errorOutput(err error) string {
	b, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(b)
}
