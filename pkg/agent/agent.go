package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/huddle01/ai01-go/pkg/audio/pcm"
	"github.com/huddle01/ai01-go/pkg/rtc"
)

// Options configures an Agent.
type Options struct {
	// ProjectID and APIKey are the Huddle01 project credentials. Ignored
	// when Client is set.
	ProjectID string
	APIKey    string

	// Client overrides ProjectID/APIKey with a preconfigured client.
	Client *rtc.Client

	// Model is the realtime model driving the conversation. Required.
	Model Model

	// Hooks receive conversation lifecycle notifications.
	Hooks *Hooks

	// DisplayName is shown to other participants. Default: "AI Agent".
	DisplayName string

	// Role requested when joining. Default: rtc.RoleHost.
	Role rtc.Role

	// Sinks receive a copy of everything the agent hears, e.g. a
	// conversation recorder.
	Sinks []pcm.Writer
}

// Agent is an AI participant in a Huddle01 room.
type Agent struct {
	client *rtc.Client
	model  Model
	hooks  *Hooks
	opts   Options

	mixer *pcm.Mixer
	track *rtc.LocalAudioTrack

	mu   sync.Mutex
	room *rtc.Room

	closeOnce sync.Once
	closeCh   chan struct{}
}

// New creates an agent. The agent is inert until Join.
func New(opts Options) (*Agent, error) {
	if opts.Model == nil {
		return nil, errors.New("agent: model is required")
	}
	client := opts.Client
	if client == nil {
		if opts.ProjectID == "" || opts.APIKey == "" {
			return nil, errors.New("agent: project ID and API key are required")
		}
		client = rtc.NewClient(opts.ProjectID, opts.APIKey)
	}
	if opts.DisplayName == "" {
		opts.DisplayName = "AI Agent"
	}
	if opts.Role == "" {
		opts.Role = rtc.RoleHost
	}

	track, err := rtc.NewLocalAudioTrack(opts.Model.OutputFormat())
	if err != nil {
		return nil, err
	}

	// A short silence gap lets the model hear pauses between utterances
	// without flooding it with unbounded silence.
	mixer := pcm.NewMixer(opts.Model.InputFormat(), pcm.WithSilenceGap(500*time.Millisecond))

	return &Agent{
		client:  client,
		model:   opts.Model,
		hooks:   opts.Hooks,
		opts:    opts,
		mixer:   mixer,
		track:   track,
		closeCh: make(chan struct{}),
	}, nil
}

// Join connects the agent to a room and publishes its audio track. Remote
// participants are consumed automatically and blended into the model's
// input stream.
func (a *Agent) Join(ctx context.Context, roomID string) error {
	// Handlers ride along with the join so the consumers negotiated for
	// peers already producing are delivered too, not just later ones.
	room, err := a.client.Join(ctx, roomID, &rtc.JoinOptions{
		Role:        a.opts.Role,
		Metadata:    map[string]string{"displayName": a.opts.DisplayName},
		AutoConsume: true,
		Handlers: &rtc.RoomHandlers{
			OnConsumerAdded: a.handleConsumer,
			OnPeerJoined: func(p rtc.PeerInfo) {
				slog.Info("peer joined", "room", roomID, "peer", p.PeerID, "role", p.Role)
			},
			OnPeerLeft: func(peerID string) {
				slog.Info("peer left", "room", roomID, "peer", peerID)
			},
			OnRoomClosed: func() {
				a.Close()
			},
		},
	})
	if err != nil {
		return err
	}

	if err := room.Produce(ctx, &rtc.ProduceOptions{Label: "audio", Track: a.track}); err != nil {
		room.Close()
		return fmt.Errorf("agent: produce: %w", err)
	}

	a.mu.Lock()
	a.room = room
	a.mu.Unlock()

	slog.Info("agent joined room", "room", roomID, "peer", room.PeerID())
	return nil
}

// handleConsumer pipes a new remote track into the mixer.
func (a *Agent) handleConsumer(c *rtc.Consumer) {
	mixTrack, _, err := a.mixer.CreateTrack(pcm.WithTrackLabel(c.PeerID))
	if err != nil {
		slog.Error("create mixer track failed", "peer", c.PeerID, "error", err)
		return
	}
	go func() {
		var w pcm.Writer = mixTrack
		if len(a.opts.Sinks) > 0 {
			w = teeWriter(append([]pcm.Writer{mixTrack}, a.opts.Sinks...))
		}
		if err := c.Track.Pipe(w, a.model.InputFormat()); err != nil {
			slog.Debug("remote track ended", "peer", c.PeerID, "error", err)
		}
	}()
}

// teeWriter fans a chunk out to several writers. Errors from secondary
// writers are dropped so a failing sink cannot stall the conversation.
type teeWriter []pcm.Writer

func (t teeWriter) Write(c pcm.Chunk) error {
	for i, w := range t {
		if err := w.Write(c); err != nil {
			if i == 0 {
				return err
			}
			slog.Debug("audio sink write failed", "error", err)
		}
	}
	return nil
}

// Run drives the model conversation until ctx is done, the room closes, or
// the model session fails. Call after Join.
func (a *Agent) Run(ctx context.Context) error {
	a.mu.Lock()
	room := a.room
	a.mu.Unlock()
	if room == nil {
		return errors.New("agent: not in a room, call Join first")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-room.Done():
			cancel()
		case <-a.closeCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	session := &Session{
		In:    a.mixer,
		Out:   a.track,
		Hooks: a.hooks,
	}
	err := a.model.Run(ctx, session)
	if err != nil && ctx.Err() != nil {
		// The room closed under the model; that is a normal shutdown.
		err = nil
	}
	return err
}

// Leave disconnects from the room without tearing the agent down.
func (a *Agent) Leave() error {
	a.mu.Lock()
	room := a.room
	a.room = nil
	a.mu.Unlock()
	if room == nil {
		return nil
	}
	return room.Close()
}

// Close leaves the room and releases the audio pipeline.
func (a *Agent) Close() error {
	a.closeOnce.Do(func() {
		close(a.closeCh)
		a.Leave()
		a.track.Close()
		a.mixer.Close()
	})
	return nil
}
