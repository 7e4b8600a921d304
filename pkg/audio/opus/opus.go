// Package opus is a thin cgo binding over libopus, covering the pieces
// the SDK needs to move voice between PCM pipelines and WebRTC tracks:
// encoding mixer output into 20ms frames for publishing and recording,
// and decoding remote participants' frames back to PCM.
package opus

// #cgo pkg-config: opus
// #include <opus.h>
import "C"
import "fmt"

// Frame is a single encoded Opus packet, as carried in an RTP payload
// or an Ogg page.
type Frame []byte

func opusErr(op string, code C.int) error {
	return fmt.Errorf("opus: %s: %s", op, C.GoString(C.opus_strerror(code)))
}
