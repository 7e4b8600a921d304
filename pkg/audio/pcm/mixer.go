package pcm

import (
	"fmt"
	"io"
	"sync"
	"time"
	"unsafe"
)

// MixerOption configures a Mixer at construction time.
type MixerOption func(*Mixer)

// WithAutoClose makes the mixer seal its write side as soon as the last
// track is gone, so readers see EOF instead of silence. Off by default.
func WithAutoClose() MixerOption {
	return func(m *Mixer) {
		m.autoClose = true
	}
}

// WithSilenceGap bounds the silence emitted while no tracks exist:
// after gap worth of silence the mixer blocks until a track is created.
// Zero (the default) disables silence filling entirely.
func WithSilenceGap(gap time.Duration) MixerOption {
	return func(m *Mixer) {
		m.silenceGap = gap
		// Start the counter at the cap so a fresh mixer does not lead
		// with silence; it resets to 0 once real audio flows.
		m.quietFor = gap
	}
}

// WithOnTrackCreated registers a callback invoked whenever a track is
// added.
func WithOnTrackCreated(fn func()) MixerOption {
	return func(m *Mixer) {
		m.onTrackCreated = fn
	}
}

// WithOnTrackClosed registers a callback invoked whenever a track is
// removed.
func WithOnTrackClosed(fn func()) MixerOption {
	return func(m *Mixer) {
		m.onTrackClosed = fn
	}
}

// Mixer sums any number of audio tracks into one output stream read via
// io.Reader. Each track carries its own TrackCtrl for gain and
// lifecycle. All methods are safe for concurrent use.
type Mixer struct {
	output    Format
	readChunk int
	autoClose bool

	mu         sync.Mutex
	head       *TrackCtrl
	closeErr   error
	closeWrite bool

	silenceGap time.Duration
	quietFor   time.Duration

	trackAdded chan struct{}
	dataReady  chan struct{}

	mixBuf  []float32
	scratch []byte

	onTrackCreated func()
	onTrackClosed  func()
}

// NewMixer builds a mixer producing audio in the given output format.
func NewMixer(output Format, opts ...MixerOption) *Mixer {
	m := &Mixer{
		output:     output,
		readChunk:  int(output.BytesInDuration(60 * time.Millisecond)),
		trackAdded: make(chan struct{}, 1),
		dataReady:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Output reports the mixer's output format.
func (m *Mixer) Output() Format {
	return m.output
}

// TrackOption configures a track created by CreateTrack.
type TrackOption func(*TrackCtrl)

// WithTrackLabel names the track for debugging.
func WithTrackLabel(label string) TrackOption {
	return func(tc *TrackCtrl) {
		tc.label = label
	}
}

// CreateTrack adds a writable track. It fails once the mixer's write
// side is sealed or the mixer is closed.
func (m *Mixer) CreateTrack(opts ...TrackOption) (Track, *TrackCtrl, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closeErr != nil {
		return nil, nil, m.closeErr
	}
	if m.closeWrite {
		return nil, nil, fmt.Errorf("pcm/mixer: cannot create track after CloseWrite: %w", io.ErrClosedPipe)
	}

	tr, err := m.newTrack()
	if err != nil {
		return nil, nil, err
	}
	m.head = &TrackCtrl{
		track: tr,
		next:  m.head,
		gain:  NewAtomicFloat32(1),
	}
	for _, opt := range opts {
		opt(m.head)
	}
	select {
	case m.trackAdded <- struct{}{}:
	default:
	}
	if m.onTrackCreated != nil {
		m.onTrackCreated()
	}
	return tr, m.head, nil
}

// Read fills p with mixed audio. Reads are capped at the internal chunk
// size (60ms of output) and always return full buffers.
func (m *Mixer) Read(p []byte) (int, error) {
	if len(p) > m.readChunk {
		p = p[:m.readChunk]
	}
	if err := m.fill(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// CloseWrite seals the write side: no new tracks, and Read returns EOF
// once the existing tracks drain.
func (m *Mixer) CloseWrite() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeWriteLocked()
}

// Close tears the mixer down with io.ErrClosedPipe.
func (m *Mixer) Close() error {
	return m.CloseWithError(fmt.Errorf("pcm/mixer: close: %w", io.ErrClosedPipe))
}

// CloseWithError tears the mixer down, propagating err to every track.
// A nil err is replaced with io.ErrClosedPipe.
func (m *Mixer) CloseWithError(err error) error {
	if err == nil {
		err = fmt.Errorf("pcm/mixer: %w", io.ErrClosedPipe)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closeErr != nil {
		return nil
	}
	m.closeErr = err

	if !m.closeWrite {
		m.closeWrite = true
		close(m.trackAdded)
		close(m.dataReady)
	}

	for it := m.head; it != nil; it = it.next {
		it.CloseWithError(err)
	}
	return nil
}

func (m *Mixer) closeWriteLocked() error {
	if m.closeErr != nil || m.closeWrite {
		return nil
	}
	m.closeWrite = true
	close(m.trackAdded)
	close(m.dataReady)

	for it := m.head; it != nil; it = it.next {
		it.CloseWrite()
	}
	return nil
}

// fill mixes all live tracks into p as 16-bit PCM, blocking until data
// (or permitted silence) is available.
func (m *Mixer) fill(p []byte) error {
	i16 := unsafe.Slice((*int16)(unsafe.Pointer(&p[0])), len(p)/2)

	var (
		peak    float32
		read    bool
		silence bool
	)

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.mixBuf) < len(i16) {
		m.mixBuf = make([]float32, len(i16))
	}

	for {
		var err error
		peak, read, silence, err = m.mixLocked(p)
		if err != nil {
			return err
		}
		if read || silence {
			break
		}
		// Nothing buffered on any track; wait for a write.
		m.mu.Unlock()
		<-m.dataReady
		m.mu.Lock()
	}

	if read {
		m.quietFor = 0
	} else if silence {
		m.quietFor += m.output.Duration(int64(len(p)))
	}

	if peak == 0 {
		clear(i16)
		return nil
	}

	// Clip the float mix back into int16 range. Positive and negative
	// halves scale by their own full-scale value.
	for i := range i16 {
		t := m.mixBuf[i]
		if t > 1 {
			t = 1
		} else if t < -1 {
			t = -1
		}
		if t >= 0 {
			i16[i] = int16(t * 32767)
		} else {
			i16[i] = int16(t * 32768)
		}
	}
	return nil
}

// waitHeadLocked blocks until a track exists, silence is permitted, or
// the mixer ends.
func (m *Mixer) waitHeadLocked() (head *TrackCtrl, silence bool, err error) {
	for {
		if m.closeErr != nil {
			return nil, false, m.closeErr
		}
		if m.head != nil {
			return m.head, false, nil
		}
		if m.closeWrite {
			return nil, false, io.EOF
		}
		if m.autoClose {
			m.closeWriteLocked()
			return nil, false, io.EOF
		}
		if m.quietFor < m.silenceGap {
			return nil, true, nil
		}
		m.mu.Unlock()
		<-m.trackAdded
		m.mu.Lock()
	}
}

// mixLocked accumulates one buffer's worth of audio from every live
// track into mixBuf, pruning tracks that fail.
func (m *Mixer) mixLocked(p []byte) (peak float32, read, silence bool, err error) {
	it, silence, err := m.waitHeadLocked()
	if err != nil || silence {
		return
	}

	clear(m.mixBuf)

	if len(m.scratch) < len(p) {
		m.scratch = make([]byte, len(p))
	}
	scratch := m.scratch[:len(p)]
	samples := unsafe.Slice((*int16)(unsafe.Pointer(&scratch[0])), len(scratch)/2)

	var prev *TrackCtrl
	for it != nil {
		ok, rerr := it.readFull(scratch)
		if rerr != nil {
			// Failed track: close it and unlink it from the list.
			it.CloseWithError(rerr)
			it = it.next
			if prev == nil {
				m.head = it
			} else {
				prev.next = it
			}
			if m.onTrackClosed != nil {
				m.onTrackClosed()
			}
			continue
		}
		if ok {
			read = true
			gain := it.gain.Load()
			for i, v := range samples {
				if v == 0 {
					continue
				}
				s := float32(v)
				if s >= 0 {
					s /= 32767
				} else {
					s /= 32768
				}
				s *= gain
				if s > peak {
					peak = s
				} else if -s > peak {
					peak = -s
				}
				m.mixBuf[i] += s
			}
		}
		prev = it
		it = it.next
	}
	return
}

// notifyWrite wakes a blocked fill after a track receives data.
func (m *Mixer) notifyWrite() {
	go func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.closeErr != nil || m.closeWrite {
			return
		}
		select {
		case m.dataReady <- struct{}{}:
		default:
		}
	}()
}

func (m *Mixer) newTrack() (*track, error) {
	tr := &track{
		mx:     m,
		inputs: []*trackWriter{},
	}
	const defaultTrackInputFormat = L16Mono16K
	tw, err := tr.newWriter(defaultTrackInputFormat)
	if err != nil {
		return nil, err
	}
	tr.inputs = append(tr.inputs, tw)
	return tr, nil
}
