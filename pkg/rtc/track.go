package rtc

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pion/webrtc/v3"
	"github.com/pion/webrtc/v3/pkg/media"

	"github.com/huddle01/ai01-go/pkg/audio/opus"
	"github.com/huddle01/ai01-go/pkg/audio/pcm"
)

const frameDuration = 20 * time.Millisecond

// LocalAudioTrack publishes PCM audio into a room as Opus.
//
// Writes are buffered in a FIFO; a pacing loop drains one 20ms frame per
// tick and fills the remainder with silence, so the track keeps a steady
// packet cadence even when the producer is bursty (realtime models emit
// audio much faster than it plays).
//
// The track counts how much buffered audio has actually been sent since
// the last Flush. When the user interrupts, Flush drops the unplayed
// remainder and returns the played duration so the model's conversation
// state can be truncated to what the user actually heard.
type LocalAudioTrack struct {
	format pcm.Format
	track  *webrtc.TrackLocalStaticSample
	enc    *opus.Encoder

	mu          sync.Mutex
	fifo        []byte
	playedBytes int64

	startOnce sync.Once
	closeOnce sync.Once
	closeCh   chan struct{}
}

// NewLocalAudioTrack creates a track that accepts PCM in the given format.
// The Opus encoder runs at the same rate, so no resampling happens on the
// hot path.
func NewLocalAudioTrack(format pcm.Format) (*LocalAudioTrack, error) {
	enc, err := opus.NewVoIPEncoder(format.SampleRate(), format.Channels())
	if err != nil {
		return nil, fmt.Errorf("rtc: opus encoder: %w", err)
	}

	track, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{
		MimeType:  webrtc.MimeTypeOpus,
		ClockRate: 48000,
		Channels:  2,
	}, "audio", "ai01")
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("rtc: create local track: %w", err)
	}

	return &LocalAudioTrack{
		format:  format,
		track:   track,
		enc:     enc,
		closeCh: make(chan struct{}),
	}, nil
}

// Format returns the track's PCM input format.
func (t *LocalAudioTrack) Format() pcm.Format { return t.format }

// Write enqueues a chunk for playback. It implements pcm.Writer.
func (t *LocalAudioTrack) Write(c pcm.Chunk) error {
	if c.Format() != t.format {
		return fmt.Errorf("rtc: chunk format %v, track wants %v", c.Format(), t.format)
	}
	select {
	case <-t.closeCh:
		return ErrTrackEnded
	default:
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := c.WriteTo(fifoWriter{t})
	return err
}

// fifoWriter appends raw PCM to the track FIFO. Callers hold t.mu.
type fifoWriter struct{ t *LocalAudioTrack }

func (w fifoWriter) Write(p []byte) (int, error) {
	w.t.fifo = append(w.t.fifo, p...)
	return len(p), nil
}

// QueuedDuration returns how much audio is waiting to be played.
func (t *LocalAudioTrack) QueuedDuration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.format.Duration(int64(len(t.fifo)))
}

// PlayedDuration returns how much real audio has been sent since the last
// Flush. Silence fill is not counted.
func (t *LocalAudioTrack) PlayedDuration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.format.Duration(t.playedBytes)
}

// Flush drops all queued audio and returns the duration played since the
// last Flush. The returned value is the truncation point for interrupted
// model responses.
func (t *LocalAudioTrack) Flush() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	played := t.format.Duration(t.playedBytes)
	t.fifo = nil
	t.playedBytes = 0
	return played
}

// Close stops the pacing loop and releases the encoder.
func (t *LocalAudioTrack) Close() error {
	t.closeOnce.Do(func() {
		close(t.closeCh)
	})
	return nil
}

func (t *LocalAudioTrack) rtpTrack() *webrtc.TrackLocalStaticSample { return t.track }

// start launches the pacing loop. Called by Room.Produce.
func (t *LocalAudioTrack) start() {
	t.startOnce.Do(func() {
		go t.loop()
	})
}

func (t *LocalAudioTrack) loop() {
	defer t.enc.Close()

	frameBytes := int(t.format.BytesInDuration(frameDuration))
	frameSamples := int(t.format.SamplesInDuration(frameDuration))
	frame := make([]byte, frameBytes)

	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	for {
		select {
		case <-t.closeCh:
			return
		case <-ticker.C:
		}

		t.mu.Lock()
		n := len(t.fifo)
		if n > frameBytes {
			n = frameBytes
		}
		copy(frame, t.fifo[:n])
		t.fifo = t.fifo[n:]
		t.playedBytes += int64(n)
		t.mu.Unlock()

		// Pad a short tail with silence so the frame stays 20ms.
		for i := n; i < frameBytes; i++ {
			frame[i] = 0
		}

		f, err := t.enc.EncodeBytes(frame, frameSamples)
		if err != nil {
			slog.Error("opus encode failed", "error", err)
			continue
		}
		if err := t.track.WriteSample(media.Sample{Data: f, Duration: frameDuration}); err != nil {
			slog.Error("write sample failed", "error", err)
			return
		}
	}
}

// RemoteAudioTrack is incoming Opus audio from another peer.
type RemoteAudioTrack struct {
	track *webrtc.TrackRemote

	closeOnce sync.Once
	closeCh   chan struct{}
}

func newRemoteAudioTrack(track *webrtc.TrackRemote) *RemoteAudioTrack {
	return &RemoteAudioTrack{
		track:   track,
		closeCh: make(chan struct{}),
	}
}

// Pipe decodes the track into w in the given format until the track ends
// or the track is closed. It blocks and is meant to run on its own
// goroutine, typically writing into a mixer track.
func (t *RemoteAudioTrack) Pipe(w pcm.Writer, format pcm.Format) error {
	dec, err := opus.NewDecoder(format.SampleRate(), format.Channels())
	if err != nil {
		return fmt.Errorf("rtc: opus decoder: %w", err)
	}
	defer dec.Close()

	for {
		select {
		case <-t.closeCh:
			return nil
		default:
		}

		pkt, _, err := t.track.ReadRTP()
		if err != nil {
			select {
			case <-t.closeCh:
				return nil
			default:
			}
			return ErrTrackEnded
		}
		if len(pkt.Payload) == 0 {
			continue
		}

		data, err := dec.Decode(opus.Frame(pkt.Payload))
		if err != nil {
			slog.Warn("opus decode failed", "error", err)
			continue
		}
		if err := w.Write(format.DataChunk(data)); err != nil {
			return err
		}
	}
}

// Close stops any Pipe loop on this track.
func (t *RemoteAudioTrack) Close() error {
	t.closeOnce.Do(func() {
		close(t.closeCh)
	})
	return nil
}
