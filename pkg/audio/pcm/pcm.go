package pcm

import (
	"io"
	"strconv"
	"time"
)

// Format identifies one of the linear PCM layouts the module moves
// around: 16-bit signed little-endian mono at a fixed sample rate.
// 16 kHz and 24 kHz are the provider uplink/downlink rates; 48 kHz is
// the WebRTC clock rate.
type Format int

const (
	// L16Mono16K is audio/L16; rate=16000; channels=1
	L16Mono16K Format = iota
	// L16Mono24K is audio/L16; rate=24000; channels=1
	L16Mono24K
	// L16Mono48K is audio/L16; rate=48000; channels=1
	L16Mono48K
)

// All formats share 16-bit mono framing; only the rate differs.
var formatRates = [...]int{
	L16Mono16K: 16000,
	L16Mono24K: 24000,
	L16Mono48K: 48000,
}

// SampleRate returns the sample rate in Hz.
func (f Format) SampleRate() int {
	if f < 0 || int(f) >= len(formatRates) {
		panic("pcm: invalid audio format")
	}
	return formatRates[f]
}

// Channels returns the channel count (always 1 for the known formats).
func (f Format) Channels() int {
	f.SampleRate() // validate
	return 1
}

// Depth returns the sample bit depth.
func (f Format) Depth() int {
	f.SampleRate() // validate
	return 16
}

// Samples converts a byte count to a sample count.
func (f Format) Samples(bytes int64) int64 {
	return bytes * 8 / int64(f.Channels()) / int64(f.Depth())
}

// SamplesInDuration returns how many samples cover d.
func (f Format) SamplesInDuration(d time.Duration) int64 {
	return int64(time.Duration(f.SampleRate()) * d / time.Second)
}

// BytesInDuration returns how many bytes cover d.
func (f Format) BytesInDuration(d time.Duration) int64 {
	return f.SamplesInDuration(d) * int64(f.Channels()) * int64(f.Depth()) / 8
}

// Duration returns the play time of the given number of bytes.
func (f Format) Duration(bytes int64) time.Duration {
	return time.Duration(f.Samples(bytes)) * time.Second / time.Duration(f.SampleRate())
}

// BitsRate returns bits per second of real-time audio.
func (f Format) BitsRate() int {
	return f.SampleRate() * f.Channels() * f.Depth()
}

// BytesRate returns bytes per second of real-time audio.
func (f Format) BytesRate() int {
	return f.BitsRate() / 8
}

func (f Format) String() string {
	return "audio/L16; rate=" + strconv.Itoa(f.SampleRate()) + "; channels=1"
}

// Chunk is a piece of audio in a known format. Implementations carry
// either real samples (DataChunk) or a run of silence (SilenceChunk).
type Chunk interface {
	Len() int64
	Format() Format
	WriteTo(w io.Writer) (int64, error)
}

// SilenceChunk builds a silence chunk covering duration.
func (f Format) SilenceChunk(duration time.Duration) Chunk {
	return &SilenceChunk{
		Duration: duration,
		len:      f.BytesInDuration(duration),
		fmt:      f,
	}
}

// DataChunk wraps raw sample bytes in a chunk.
func (f Format) DataChunk(data []byte) Chunk {
	return &DataChunk{Data: data, fmt: f}
}

// ReadChunk reads exactly duration worth of samples from r.
func (f Format) ReadChunk(r io.Reader, duration time.Duration) (Chunk, error) {
	buf := make([]byte, f.BytesInDuration(duration))
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return f.DataChunk(buf), nil
}

// DataChunk holds raw PCM sample bytes.
type DataChunk struct {
	Data []byte
	fmt  Format
}

func (c *DataChunk) Len() int64 {
	return int64(len(c.Data))
}

func (c *DataChunk) Format() Format {
	return c.fmt
}

// ReadFrom fills the chunk's buffer from r, shrinking Data to what was
// read.
func (c *DataChunk) ReadFrom(r io.Reader) (int64, error) {
	n, err := r.Read(c.Data[:cap(c.Data)])
	if err != nil {
		return 0, err
	}
	c.Data = c.Data[:n]
	return int64(n), nil
}

func (c *DataChunk) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.Data)
	return int64(n), err
}

// SilenceChunk represents a run of zero samples without allocating them.
type SilenceChunk struct {
	Duration time.Duration
	len      int64
	fmt      Format
}

func (c *SilenceChunk) Len() int64 {
	return c.len
}

func (c *SilenceChunk) Format() Format {
	return c.fmt
}

// zeroes is shared scratch for writing silence in bounded slices.
var zeroes [32 * 1024]byte

func (c *SilenceChunk) WriteTo(w io.Writer) (int64, error) {
	var written int64
	for remaining := c.len; remaining > 0; {
		chunk := zeroes[:]
		if remaining < int64(len(chunk)) {
			chunk = chunk[:remaining]
		}
		n, err := w.Write(chunk)
		if err != nil {
			return written, err
		}
		written += int64(n)
		remaining -= int64(n)
	}
	return written, nil
}
