//go:build !js
// +build !js

package resampler

import (
	"fmt"
	"io"
	"sync"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resampler reads audio converted from a source format to a destination
// format: sample rate conversion plus mono/stereo up- and downmixing.
// Close releases the underlying converter.
type Resampler interface {
	io.ReadCloser
	CloseWithError(error) error
}

// converter implements Resampler on top of a pure-Go rate converter.
// Samples are 16-bit signed little-endian throughout.
type converter struct {
	srcFmt Format
	src    io.Reader

	dstFmt  Format
	readBuf []byte

	mu       sync.Mutex
	closeErr error
	engine   resampling.Resampler
	leftover []byte
}

// New builds a Resampler from srcFmt to dstFmt around src. When the
// rates already match only channel conversion is performed.
func New(src io.Reader, srcFmt, dstFmt Format) (Resampler, error) {
	var engine resampling.Resampler
	if srcFmt.SampleRate != dstFmt.SampleRate {
		var err error
		engine, err = resampling.New(&resampling.Config{
			InputRate:  float64(srcFmt.SampleRate),
			OutputRate: float64(dstFmt.SampleRate),
			Channels:   dstFmt.channels(),
			Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create resampler: %w", err)
		}
	}

	return &converter{
		srcFmt: srcFmt,
		src:    newSampleReader(src, srcFmt.sampleBytes()),
		dstFmt: dstFmt,
		engine: engine,
	}, nil
}

// Read is not safe for concurrent use.
func (r *converter) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(p) < r.dstFmt.sampleBytes() {
		return 0, io.ErrShortBuffer
	}
	// Only hand out whole frames.
	p = p[:len(p)/r.dstFmt.sampleBytes()*r.dstFmt.sampleBytes()]

	r.mu.Lock()
	defer r.mu.Unlock()

	// Output the converter produced beyond the previous caller's buffer
	// goes first.
	if len(r.leftover) > 0 {
		n := copy(p, r.leftover)
		r.leftover = r.leftover[n:]
		return n, nil
	}

	if r.closeErr != nil {
		return 0, r.closeErr
	}

	if r.engine == nil {
		return r.readChannelsOnly(p)
	}
	return r.readResampled(p)
}

// readResampled pulls source audio, runs it through the rate converter,
// and fills p, stashing any surplus in leftover.
func (r *converter) readResampled(p []byte) (int, error) {
	// Overshoot the source estimate slightly so one read can fill p.
	ratio := float64(r.srcFmt.SampleRate) / float64(r.dstFmt.SampleRate)
	want := int(float64(len(p))*ratio) + r.srcFmt.sampleBytes()*4
	if cap(r.readBuf) < want {
		r.readBuf = make([]byte, want)
	}

	bytesRead, readErr := r.readSource(want)
	if bytesRead == 0 {
		if readErr != nil {
			return 0, readErr
		}
		return 0, io.EOF
	}

	// The engine works in normalized float64 frames.
	count := bytesRead / 2
	input := make([]float64, count)
	for i := 0; i < count; i++ {
		input[i] = float64(decodeSample(r.readBuf[i*2:])) / 32768.0
	}

	output, err := r.engine.Process(input)
	if err != nil {
		return 0, fmt.Errorf("resample error: %w", err)
	}
	if len(output) == 0 {
		if readErr != nil {
			return 0, readErr
		}
		return 0, nil
	}

	out := make([]byte, len(output)*2)
	for i, s := range output {
		var sample int16
		switch {
		case s > 1.0:
			sample = 32767
		case s < -1.0:
			sample = -32768
		default:
			sample = int16(s * 32767.0)
		}
		encodeSample(out[i*2:], sample)
	}
	// Trim to whole destination frames.
	out = out[:len(out)/r.dstFmt.sampleBytes()*r.dstFmt.sampleBytes()]

	n := copy(p, out)
	if len(out) > n {
		r.leftover = append(r.leftover, out[n:]...)
	}
	return n, readErr
}

// readChannelsOnly handles the matching-rate case.
func (r *converter) readChannelsOnly(p []byte) (int, error) {
	n, err := r.readSource(len(p))
	if n == 0 {
		return 0, err
	}
	copy(p, r.readBuf[:n])
	return n, err
}

// readSource reads up to dstLen post-conversion bytes into readBuf,
// applying mono/stereo conversion as needed.
func (r *converter) readSource(dstLen int) (int, error) {
	if cap(r.readBuf) < dstLen {
		r.readBuf = make([]byte, dstLen)
	}

	switch {
	case r.srcFmt.Stereo && !r.dstFmt.Stereo:
		// Downmix needs twice the source bytes per output byte.
		srcLen := dstLen * 2
		if cap(r.readBuf) < srcLen {
			r.readBuf = make([]byte, srcLen)
		}
		rn, err := r.src.Read(r.readBuf[:srcLen])
		if rn == 0 {
			return 0, err
		}
		return downmix(r.readBuf[:rn]), err

	case r.srcFmt.Stereo == r.dstFmt.Stereo:
		return r.src.Read(r.readBuf[:dstLen])

	default:
		// Upmix: read mono into the front half, then spread in place.
		rn, err := r.src.Read(r.readBuf[:dstLen/2])
		if rn == 0 {
			return 0, err
		}
		return upmix(r.readBuf[:rn*2]), err
	}
}

func (r *converter) Close() error {
	return r.CloseWithError(fmt.Errorf("resampler: %w", io.ErrClosedPipe))
}

// CloseWithError makes subsequent Reads return err (the first close
// wins).
func (r *converter) CloseWithError(err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closeErr == nil {
		r.closeErr = err
	}
	r.engine = nil
	return nil
}

func decodeSample(b []byte) int16 {
	return int16(b[0]) | int16(b[1])<<8
}

func encodeSample(b []byte, s int16) {
	b[0] = byte(s)
	b[1] = byte(s >> 8)
}

// downmix averages L/R pairs into mono in place, returning the mono
// byte count.
func downmix(b []byte) int {
	frames := len(b) / 4
	for i := range frames {
		l := decodeSample(b[i*4:])
		r := decodeSample(b[i*4+2:])
		encodeSample(b[i*2:], int16((int32(l)+int32(r))/2))
	}
	return frames * 2
}

// upmix duplicates each mono sample into an L/R pair in place. b must
// already have room for the stereo result; returns the stereo byte
// count.
func upmix(b []byte) int {
	samples := len(b) / 4
	for i := samples - 1; i >= 0; i-- {
		s0, s1 := b[i*2], b[i*2+1]
		b[i*4], b[i*4+1] = s0, s1
		b[i*4+2], b[i*4+3] = s0, s1
	}
	return samples * 4
}
