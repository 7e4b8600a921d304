package opus

import (
	"math"
	"testing"
)

func sine(rate, ms int) []int16 {
	pcm := make([]int16, rate*ms/1000)
	for i := range pcm {
		pcm[i] = int16(16000 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
	}
	return pcm
}

func TestVoiceRoundtrip(t *testing.T) {
	const rate = 24000
	enc, err := NewVoIPEncoder(rate, 1)
	if err != nil {
		t.Fatalf("NewVoIPEncoder: %v", err)
	}
	defer enc.Close()
	dec, err := NewDecoder(rate, 1)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	defer dec.Close()

	pcm := sine(rate, 20)
	frame, err := enc.Encode(pcm, len(pcm))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(frame) == 0 || len(frame) >= 2*len(pcm) {
		t.Fatalf("frame is %d bytes for %d input bytes", len(frame), 2*len(pcm))
	}

	out, err := dec.Decode(frame)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got, want := len(out)/2, len(pcm); got != want {
		t.Fatalf("decoded %d samples, want %d", got, want)
	}
}

func TestEncodeBytes(t *testing.T) {
	const rate = 48000
	enc, err := NewAudioEncoder(rate, 1)
	if err != nil {
		t.Fatalf("NewAudioEncoder: %v", err)
	}
	defer enc.Close()

	pcm := sine(rate, 20)
	raw := make([]byte, 2*len(pcm))
	for i, s := range pcm {
		raw[2*i] = byte(s)
		raw[2*i+1] = byte(s >> 8)
	}

	a, err := enc.Encode(pcm, len(pcm))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(a) == 0 {
		t.Fatal("empty frame")
	}
	b, err := enc.EncodeBytes(raw, len(pcm))
	if err != nil {
		t.Fatalf("EncodeBytes: %v", err)
	}
	if len(b) == 0 {
		t.Fatal("empty frame from bytes")
	}
}

func TestDecodeConcealsLoss(t *testing.T) {
	dec, err := NewDecoder(16000, 1)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	defer dec.Close()

	out, err := dec.Decode(nil)
	if err != nil {
		t.Fatalf("Decode(nil): %v", err)
	}
	if len(out) == 0 {
		t.Fatal("loss concealment produced no samples")
	}
}

func TestClosedCodecFails(t *testing.T) {
	enc, err := NewVoIPEncoder(16000, 1)
	if err != nil {
		t.Fatalf("NewVoIPEncoder: %v", err)
	}
	enc.Close()
	enc.Close() // idempotent
	if _, err := enc.Encode(sine(16000, 20), 320); err == nil {
		t.Error("Encode on closed encoder succeeded")
	}
	if err := enc.SetBitrate(32000); err == nil {
		t.Error("SetBitrate on closed encoder succeeded")
	}

	dec, err := NewDecoder(16000, 1)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	dec.Close()
	if _, err := dec.Decode(Frame{0xf8}); err == nil {
		t.Error("Decode on closed decoder succeeded")
	}
}
