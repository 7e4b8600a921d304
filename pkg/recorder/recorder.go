// Package recorder persists conversation audio as Ogg Opus files in a
// storage backend.
//
// A Recorder is a pcm.Writer: hang it off an agent as an audio sink and
// everything the agent hears lands in one .ogg file. Recordings go through
// storage.FileStore, so the same code writes to local disk or S3.
package recorder

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3/pkg/media/oggwriter"

	"github.com/huddle01/ai01-go/pkg/audio/opus"
	"github.com/huddle01/ai01-go/pkg/audio/pcm"
	"github.com/huddle01/ai01-go/pkg/storage"
)

const frameDuration = 20 * time.Millisecond

// The RTP clock for Opus is 48kHz regardless of the encoder rate.
const rtpTicksPerFrame = 960

// Recorder encodes PCM to Opus frames and writes them as an Ogg stream.
// Safe for concurrent writers.
type Recorder struct {
	format       pcm.Format
	frameBytes   int
	frameSamples int

	mu     sync.Mutex
	enc    *opus.Encoder
	ogg    *oggwriter.OggWriter
	buf    []byte
	seq    uint16
	ts     uint32
	closed bool
}

// New opens a recording at path in the store. The format is the PCM format
// of the chunks that will be written.
func New(ctx context.Context, store storage.FileStore, path string, format pcm.Format) (*Recorder, error) {
	w, err := store.Write(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("recorder: open %s: %w", path, err)
	}

	ogg, err := oggwriter.NewWith(w, 48000, uint16(format.Channels()))
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("recorder: ogg writer: %w", err)
	}

	enc, err := opus.NewAudioEncoder(format.SampleRate(), format.Channels())
	if err != nil {
		ogg.Close()
		return nil, fmt.Errorf("recorder: opus encoder: %w", err)
	}

	return &Recorder{
		format:       format,
		frameBytes:   int(format.BytesInDuration(frameDuration)),
		frameSamples: int(format.SamplesInDuration(frameDuration)),
		enc:          enc,
		ogg:          ogg,
	}, nil
}

// Path builds a conventional recording path for a room session.
func Path(roomID string, start time.Time) string {
	return fmt.Sprintf("recordings/%s/%s.ogg", roomID, start.UTC().Format("20060102T150405Z"))
}

// Write implements pcm.Writer. Chunks are buffered and encoded in 20ms
// frames.
func (r *Recorder) Write(c pcm.Chunk) error {
	if c.Format() != r.format {
		return fmt.Errorf("recorder: chunk format %v, want %v", c.Format(), r.format)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("recorder: closed")
	}

	if _, err := c.WriteTo(bufWriter{r}); err != nil {
		return err
	}
	return r.drainLocked()
}

type bufWriter struct{ r *Recorder }

func (w bufWriter) Write(p []byte) (int, error) {
	w.r.buf = append(w.r.buf, p...)
	return len(p), nil
}

// drainLocked encodes all complete frames in the buffer.
func (r *Recorder) drainLocked() error {
	for len(r.buf) >= r.frameBytes {
		if err := r.encodeFrameLocked(r.buf[:r.frameBytes]); err != nil {
			return err
		}
		r.buf = r.buf[r.frameBytes:]
	}
	return nil
}

func (r *Recorder) encodeFrameLocked(frame []byte) error {
	f, err := r.enc.EncodeBytes(frame, r.frameSamples)
	if err != nil {
		return fmt.Errorf("recorder: encode: %w", err)
	}

	r.seq++
	r.ts += rtpTicksPerFrame
	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    111,
			SequenceNumber: r.seq,
			Timestamp:      r.ts,
			SSRC:           1,
		},
		Payload: f,
	}
	if err := r.ogg.WriteRTP(pkt); err != nil {
		return fmt.Errorf("recorder: write ogg: %w", err)
	}
	return nil
}

// Close pads the final partial frame with silence, flushes, and closes the
// underlying file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	if n := len(r.buf); n > 0 {
		frame := make([]byte, r.frameBytes)
		copy(frame, r.buf)
		err = r.encodeFrameLocked(frame)
		r.buf = nil
	}

	r.enc.Close()
	if cerr := r.ogg.Close(); err == nil {
		err = cerr
	}
	return err
}

var _ pcm.Writer = (*Recorder)(nil)
var _ io.Closer = (*Recorder)(nil)
