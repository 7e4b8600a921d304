package gemini

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/huddle01/ai01-go/pkg/agent"
	"github.com/huddle01/ai01-go/pkg/audio/pcm"
	"github.com/huddle01/ai01-go/pkg/tools"
)

// LiveModel is an agent.Model backed by the Gemini Live API.
type LiveModel struct {
	apiKey string
	cfg    LiveConfig
	reg    *tools.Registry
}

var _ agent.Model = (*LiveModel)(nil)

// NewLiveModel creates a Live agent model. Tools registered in reg are
// declared to the model; pass nil for none.
func NewLiveModel(apiKey string, cfg *LiveConfig, reg *tools.Registry) *LiveModel {
	if cfg == nil {
		cfg = &LiveConfig{}
	}
	m := &LiveModel{apiKey: apiKey, cfg: *cfg, reg: reg}
	if reg != nil {
		for _, t := range reg.All() {
			m.cfg.Tools = append(m.cfg.Tools, t.GeminiDeclaration())
		}
	}
	return m
}

// InputFormat implements agent.Model. The Live API hears 16kHz PCM.
func (m *LiveModel) InputFormat() pcm.Format { return pcm.L16Mono16K }

// OutputFormat implements agent.Model. The Live API speaks 24kHz PCM.
func (m *LiveModel) OutputFormat() pcm.Format { return pcm.L16Mono24K }

// Run connects a Live session and drives it until ctx is done or the
// session fails.
func (m *LiveModel) Run(ctx context.Context, session *agent.Session) error {
	live, err := DialLive(ctx, m.apiKey, &m.cfg)
	if err != nil {
		return err
	}
	defer live.Close()

	go func() {
		<-ctx.Done()
		live.Close()
	}()

	go m.uplink(ctx, live, session)

	return m.messageLoop(ctx, live, session)
}

// uplink streams room audio to the model in 20ms frames. Pacing follows
// incoming media; the mixer blocks while the room is quiet.
func (m *LiveModel) uplink(ctx context.Context, live *Live, session *agent.Session) {
	buf := make([]byte, pcm.L16Mono16K.BytesInDuration(20*time.Millisecond))
	for {
		if ctx.Err() != nil {
			return
		}
		if _, err := io.ReadFull(session.In, buf); err != nil {
			slog.Debug("uplink ended", "error", err)
			return
		}
		if err := live.SendAudio(buf); err != nil {
			slog.Debug("send audio failed", "error", err)
			return
		}
	}
}

func (m *LiveModel) messageLoop(ctx context.Context, live *Live, session *agent.Session) error {
	hooks := session.Hooks

	for msg, err := range live.Messages() {
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			hooks.EmitError(err)
			return err
		}

		switch {
		case msg.ServerContent != nil:
			m.handleContent(msg.ServerContent, session)

		case msg.ToolCall != nil:
			m.handleToolCall(ctx, live, hooks, msg.ToolCall)

		case msg.ToolCallCancellation != nil:
			slog.Debug("tool calls cancelled", "ids", msg.ToolCallCancellation.IDs)

		case msg.GoAway != nil:
			slog.Warn("live server disconnecting soon", "time_left", msg.GoAway.TimeLeft)
		}
	}
	return ctx.Err()
}

func (m *LiveModel) handleContent(sc *ServerContent, session *agent.Session) {
	hooks := session.Hooks

	if sc.Interrupted {
		// Server-side barge-in detection; drop queued playback. The Live
		// API rewinds its own conversation state, no truncate needed.
		session.Out.Flush()
		hooks.EmitInterrupted()
		session.SetState(agent.StateListening)
		return
	}

	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		hooks.EmitUserTranscript(sc.InputTranscription.Text)
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		hooks.EmitAgentTranscript(sc.OutputTranscription.Text)
	}

	if sc.ModelTurn != nil {
		for _, p := range sc.ModelTurn.Parts {
			switch {
			case p.InlineData != nil && len(p.InlineData.Data) > 0:
				session.SetState(agent.StateSpeaking)
				if err := session.Out.Write(pcm.L16Mono24K.DataChunk(p.InlineData.Data)); err != nil {
					slog.Warn("write model audio failed", "error", err)
				}
			case p.Text != "":
				hooks.EmitAgentTranscript(p.Text)
			}
		}
	}

	if sc.TurnComplete {
		session.SetState(agent.StateIdle)
	}
}

func (m *LiveModel) handleToolCall(ctx context.Context, live *Live, hooks *agent.Hooks, tc *ToolCall) {
	responses := make([]FunctionResponse, 0, len(tc.FunctionCalls))
	for _, call := range tc.FunctionCalls {
		args, _ := json.Marshal(call.Args)
		hooks.EmitToolCall(call.Name, string(args))

		var response map[string]any
		if m.reg == nil {
			response = map[string]any{"error": "no tools registered"}
		} else if out, err := m.reg.Dispatch(ctx, call.Name, string(args)); err != nil {
			slog.Warn("tool dispatch failed", "tool", call.Name, "error", err)
			response = map[string]any{"error": err.Error()}
		} else {
			var v any
			if json.Unmarshal([]byte(out), &v) == nil {
				response = map[string]any{"result": v}
			} else {
				response = map[string]any{"result": out}
			}
		}
		responses = append(responses, FunctionResponse{ID: call.ID, Name: call.Name, Response: response})
	}

	if err := live.SendToolResponse(responses...); err != nil {
		slog.Warn("send tool response failed", "error", err)
	}
}
