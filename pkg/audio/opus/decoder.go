package opus

/*
#cgo pkg-config: opus
#include <opus.h>
*/
import "C"
import (
	"errors"
	"unsafe"
)

var errDecoderClosed = errors.New("opus: decoder is closed")

// Decoder turns Opus frames back into little-endian int16 PCM.
// It is not safe for concurrent use.
type Decoder struct {
	rate     int
	channels int
	st       *C.OpusDecoder
}

// NewDecoder creates a decoder producing PCM at the given rate and
// channel count. Consumed remote tracks decode at the mixer's input
// format so no extra resample step is needed.
func NewDecoder(rate, channels int) (*Decoder, error) {
	var code C.int
	st := C.opus_decoder_create(C.opus_int32(rate), C.int(channels), &code)
	if code != C.OPUS_OK {
		return nil, opusErr("decoder create", code)
	}
	return &Decoder{rate: rate, channels: channels, st: st}, nil
}

// Decode decodes one frame. A nil frame asks libopus to conceal a lost
// packet. The returned bytes are little-endian int16 PCM.
func (d *Decoder) Decode(f Frame) ([]byte, error) {
	if d.st == nil {
		return nil, errDecoderClosed
	}
	// 5760 samples covers the longest legal frame, 120ms at 48kHz.
	buf := make([]int16, 5760*d.channels)

	var data *C.uchar
	if len(f) > 0 {
		data = (*C.uchar)(unsafe.Pointer(&f[0]))
	}
	n := C.opus_decode(d.st, data, C.opus_int32(len(f)),
		(*C.opus_int16)(unsafe.Pointer(&buf[0])), C.int(len(buf)/d.channels), 0)
	if n < 0 {
		return nil, opusErr("decode", n)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&buf[0])), 2*int(n)*d.channels), nil
}

// SampleRate returns the decoder's output sample rate.
func (d *Decoder) SampleRate() int { return d.rate }

// Channels returns the decoder's channel count.
func (d *Decoder) Channels() int { return d.channels }

// Close frees the underlying libopus state. Decode after Close fails.
func (d *Decoder) Close() {
	if d.st != nil {
		C.opus_decoder_destroy(d.st)
		d.st = nil
	}
}
