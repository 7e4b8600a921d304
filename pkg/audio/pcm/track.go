package pcm

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/huddle01/ai01-go/pkg/audio/resampler"
)

// Track is the write side of a mixer track.
type Track interface {
	Writer
}

// track accepts chunks in any supported format and presents them to the
// mixer in the mixer's output format. Writes in a new format open a
// fresh input stream; reads drain the input streams in order.
type track struct {
	mx *Mixer

	mu         sync.Mutex
	closeErr   error
	closeWrite bool

	inputs []*trackWriter
}

// Write appends a chunk. A format change closes the current input
// stream and starts a new one with the right resampling.
func (t *track) Write(chunk Chunk) error {
	input, err := t.input(chunk.Format())
	if err != nil {
		return err
	}
	_, err = chunk.WriteTo(input)
	return err
}

// Read drains the input streams in order, advancing past each one as it
// hits EOF. Returns io.EOF only when every input is exhausted.
func (t *track) Read(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closeErr != nil {
		return 0, t.closeErr
	}

	for len(t.inputs) > 0 {
		head := t.inputs[0]
		rn, err := readFull(head, p)
		switch {
		case err == nil:
			return n + rn, nil
		case errors.Is(err, io.EOF):
			head.Close()
			t.inputs = t.inputs[1:]
			p = p[rn:]
			n += rn
		default:
			return 0, err
		}
	}
	return n, io.EOF
}

// CloseWithError fails the track; every input stream gets the same
// error and later Write/Read calls return it. nil err becomes
// io.ErrClosedPipe.
func (t *track) CloseWithError(err error) error {
	if err == nil {
		err = fmt.Errorf("pcm/track: %w", io.ErrClosedPipe)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closeErr != nil {
		return nil
	}

	t.closeErr = err
	for _, input := range t.inputs {
		input.CloseWithError(err)
	}
	t.mx.notifyWrite()
	return nil
}

// CloseWrite seals the newest input stream. Buffered audio still
// drains; a later Write opens a new stream.
func (t *track) CloseWrite() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.inputs) == 0 {
		return nil
	}
	err := t.inputs[len(t.inputs)-1].CloseWrite()
	t.mx.notifyWrite()
	return err
}

// Close fails the track with io.ErrClosedPipe.
func (t *track) Close() error {
	return t.CloseWithError(fmt.Errorf("pcm/track: %w", io.ErrClosedPipe))
}

// input returns the stream accepting chunks in format, starting a new
// one if the format changed.
func (t *track) input(format Format) (*trackWriter, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closeErr != nil {
		return nil, t.closeErr
	}

	if n := len(t.inputs); n > 0 {
		last := t.inputs[n-1]
		if last.format == format {
			return last, nil
		}
		last.CloseWrite()
	}

	tw, err := t.newWriter(format)
	if err != nil {
		return nil, err
	}
	t.inputs = append(t.inputs, tw)
	return tw, nil
}

// newWriter builds an input stream for format. When the format differs
// from the mixer output a resampler sits between the buffer and the
// mixer; otherwise reads come straight off the buffer.
func (t *track) newWriter(format Format) (*trackWriter, error) {
	buf := &ringBuf{
		track:      t,
		readNotify: make(chan struct{}, 1),
		data:       make([]byte, format.BytesRate()*10), // 10s of audio
	}
	tw := &trackWriter{format: format, buf: buf, out: buf}

	if format != t.mx.output {
		rs, err := resampler.New(
			buf,
			resampler.Format{
				SampleRate: format.SampleRate(),
				Stereo:     format.Channels() == 2,
			},
			resampler.Format{
				SampleRate: t.mx.output.SampleRate(),
				Stereo:     t.mx.output.Channels() == 2,
			},
		)
		if err != nil {
			return nil, err
		}
		tw.rs = rs
		tw.out = rs
	}
	return tw, nil
}

// trackWriter is one input stream: a ring buffer plus an optional
// resampler between the buffer and the mixer.
type trackWriter struct {
	format Format
	buf    *ringBuf
	rs     resampler.Resampler // nil when format matches the mixer output
	out    io.Reader           // buf, or rs reading from buf
}

func (tw *trackWriter) Write(p []byte) (int, error) {
	return tw.buf.Write(p)
}

// Read pulls mixer-format audio.
func (tw *trackWriter) Read(p []byte) (int, error) {
	return tw.out.Read(p)
}

func (tw *trackWriter) Close() error {
	if tw.rs != nil {
		tw.rs.Close()
	}
	return tw.buf.Close()
}

func (tw *trackWriter) CloseWithError(err error) error {
	if tw.rs != nil {
		tw.rs.CloseWithError(err)
	}
	return tw.buf.CloseWithError(err)
}

func (tw *trackWriter) CloseWrite() error {
	return tw.buf.CloseWrite()
}

func (tw *trackWriter) Error() error {
	return tw.buf.Error()
}

// ringBuf is a blocking circular byte buffer. Writers block when it is
// full; readers get what is available without blocking.
type ringBuf struct {
	track      *track
	readNotify chan struct{}

	mu   sync.Mutex
	data []byte

	// head is the read index; n counts buffered bytes.
	head, n int

	closeWrite bool
	closeErr   error
}

// put copies as much of p as fits, returning the count.
func (b *ringBuf) put(p []byte) int {
	free := len(b.data) - b.n
	if free == 0 {
		return 0
	}
	if len(p) > free {
		p = p[:free]
	}
	w := (b.head + b.n) % len(b.data)
	c := copy(b.data[w:], p)
	c += copy(b.data, p[c:])
	b.n += c
	return c
}

// take copies buffered bytes into p, unwrapping the ring as needed.
func (b *ringBuf) take(p []byte) int {
	if len(p) > b.n {
		p = p[:b.n]
	}
	c := copy(p, b.data[b.head:min(b.head+b.n, len(b.data))])
	c += copy(p[c:], b.data[:b.n-c])
	b.head = (b.head + c) % len(b.data)
	b.n -= c
	return c
}

// Write blocks until all of p is buffered or the buffer is closed.
func (b *ringBuf) Write(p []byte) (int, error) {
	total := len(p)

	b.mu.Lock()
	defer b.mu.Unlock()

	for len(p) > 0 {
		if b.closeErr != nil {
			return 0, b.closeErr
		}
		if b.closeWrite {
			return 0, fmt.Errorf("pcm/ringbuf: write: %w", io.ErrClosedPipe)
		}
		if c := b.put(p); c > 0 {
			p = p[c:]
			b.track.mx.notifyWrite()
			continue
		}
		b.mu.Unlock()
		<-b.readNotify
		b.mu.Lock()
	}
	return total, nil
}

// Read returns whatever is buffered, zero-filling the rest of p first.
// An empty open buffer reads as (0, nil); EOF only after CloseWrite.
func (b *ringBuf) Read(p []byte) (int, error) {
	clear(p)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closeErr != nil {
		return 0, b.closeErr
	}
	if b.n == 0 {
		if b.closeWrite {
			return 0, io.EOF
		}
		return 0, nil
	}
	c := b.take(p)
	if !b.closeWrite {
		select {
		case b.readNotify <- struct{}{}:
		default:
		}
	}
	return c, nil
}

func (b *ringBuf) CloseWrite() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closeErr != nil {
		return b.closeErr
	}
	if !b.closeWrite {
		b.closeWrite = true
		close(b.readNotify)
	}
	return nil
}

func (b *ringBuf) CloseWithError(err error) error {
	if err == nil {
		err = io.ErrClosedPipe
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closeErr != nil {
		return b.closeErr
	}
	b.closeErr = err
	if !b.closeWrite {
		b.closeWrite = true
		close(b.readNotify)
	}
	return nil
}

func (b *ringBuf) Close() error {
	return b.CloseWithError(fmt.Errorf("pcm/ringbuf: %w", io.ErrClosedPipe))
}

func (b *ringBuf) Error() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closeErr
}

// readFull fills p from r, treating a short read ended by EOF as a full
// zero-padded buffer. Returns (0, err) only when nothing was read.
func readFull(r io.Reader, p []byte) (int, error) {
	var (
		total   int
		readErr error
	)
	for {
		n, err := r.Read(p[total:])
		if err != nil {
			readErr = err
			break
		}
		if n == 0 {
			break
		}
		total += n
	}
	if readErr != nil && !errors.Is(readErr, io.EOF) {
		return 0, readErr
	}
	if total == 0 {
		return 0, readErr
	}
	clear(p[total:])
	return len(p), nil
}
