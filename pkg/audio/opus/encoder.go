package opus

/*
#cgo pkg-config: opus
#include <opus.h>

// opus_encoder_ctl is variadic and cannot be called from cgo directly.
static int ai01_opus_set_bitrate(OpusEncoder *enc, opus_int32 bitrate) {
    return opus_encoder_ctl(enc, OPUS_SET_BITRATE(bitrate));
}
*/
import "C"
import (
	"errors"
	"unsafe"
)

var errEncoderClosed = errors.New("opus: encoder is closed")

// Encoder turns little-endian int16 PCM into Opus frames.
// It is not safe for concurrent use.
type Encoder struct {
	rate     int
	channels int
	st       *C.OpusEncoder
}

func newEncoder(rate, channels int, application C.int) (*Encoder, error) {
	var code C.int
	st := C.opus_encoder_create(C.opus_int32(rate), C.int(channels), application, &code)
	if code != C.OPUS_OK {
		return nil, opusErr("encoder create", code)
	}
	return &Encoder{rate: rate, channels: channels, st: st}, nil
}

// NewVoIPEncoder creates an encoder tuned for speech. Published agent
// tracks use this.
func NewVoIPEncoder(rate, channels int) (*Encoder, error) {
	return newEncoder(rate, channels, C.OPUS_APPLICATION_VOIP)
}

// NewAudioEncoder creates an encoder tuned for general audio. Room
// recordings use this so non-speech content survives.
func NewAudioEncoder(rate, channels int) (*Encoder, error) {
	return newEncoder(rate, channels, C.OPUS_APPLICATION_AUDIO)
}

// Encode encodes frameSamples samples per channel from pcm.
func (e *Encoder) Encode(pcm []int16, frameSamples int) (Frame, error) {
	if e.st == nil {
		return nil, errEncoderClosed
	}
	// 4000 bytes is the libopus recommended maximum packet size.
	out := make([]byte, 4000)
	n := C.opus_encode(e.st,
		(*C.opus_int16)(unsafe.Pointer(&pcm[0])), C.int(frameSamples),
		(*C.uchar)(unsafe.Pointer(&out[0])), C.opus_int32(len(out)))
	if n < 0 {
		return nil, opusErr("encode", n)
	}
	return out[:n], nil
}

// EncodeBytes encodes raw little-endian int16 PCM bytes, the format the
// mixer and recorder pipelines produce.
func (e *Encoder) EncodeBytes(pcm []byte, frameSamples int) (Frame, error) {
	return e.Encode(unsafe.Slice((*int16)(unsafe.Pointer(&pcm[0])), len(pcm)/2), frameSamples)
}

// SetBitrate sets the target bitrate in bits per second.
func (e *Encoder) SetBitrate(bps int) error {
	if e.st == nil {
		return errEncoderClosed
	}
	if code := C.ai01_opus_set_bitrate(e.st, C.opus_int32(bps)); code != C.OPUS_OK {
		return opusErr("set bitrate", code)
	}
	return nil
}

// SampleRate returns the encoder's input sample rate.
func (e *Encoder) SampleRate() int { return e.rate }

// Channels returns the encoder's channel count.
func (e *Encoder) Channels() int { return e.channels }

// Close frees the underlying libopus state. Encode after Close fails.
func (e *Encoder) Close() {
	if e.st != nil {
		C.opus_encoder_destroy(e.st)
		e.st = nil
	}
}
