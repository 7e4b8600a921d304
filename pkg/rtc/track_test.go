package rtc

import (
	"testing"
	"time"

	"github.com/huddle01/ai01-go/pkg/audio/pcm"
)

func mustLocalTrack(t *testing.T, format pcm.Format) *LocalAudioTrack {
	t.Helper()
	track, err := NewLocalAudioTrack(format)
	if err != nil {
		t.Fatalf("NewLocalAudioTrack: %v", err)
	}
	t.Cleanup(func() { track.Close() })
	return track
}

// tone returns d of non-silent PCM in the given format.
func tone(format pcm.Format, d time.Duration) pcm.Chunk {
	data := make([]byte, format.BytesInDuration(d))
	for i := 0; i < len(data); i += 2 {
		data[i] = 0x00
		data[i+1] = 0x10
	}
	return format.DataChunk(data)
}

func TestLocalTrackQueueAndFlush(t *testing.T) {
	track := mustLocalTrack(t, pcm.L16Mono24K)

	if err := track.Write(tone(pcm.L16Mono24K, 100*time.Millisecond)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := track.QueuedDuration(); got != 100*time.Millisecond {
		t.Errorf("QueuedDuration = %v, want 100ms", got)
	}

	// Nothing played yet; the pacing loop has not started.
	if played := track.Flush(); played != 0 {
		t.Errorf("Flush played = %v, want 0", played)
	}
	if got := track.QueuedDuration(); got != 0 {
		t.Errorf("QueuedDuration after flush = %v, want 0", got)
	}
}

func TestLocalTrackRejectsWrongFormat(t *testing.T) {
	track := mustLocalTrack(t, pcm.L16Mono24K)

	if err := track.Write(tone(pcm.L16Mono16K, 20*time.Millisecond)); err == nil {
		t.Error("expected format mismatch error")
	}
}

func TestLocalTrackPacingCountsPlayed(t *testing.T) {
	track := mustLocalTrack(t, pcm.L16Mono16K)

	if err := track.Write(tone(pcm.L16Mono16K, 100*time.Millisecond)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	track.start()

	// Five 20ms ticks drain the queue; give the ticker slack.
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if track.QueuedDuration() == 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := track.QueuedDuration(); got != 0 {
		t.Fatalf("QueuedDuration = %v, queue never drained", got)
	}
	if got := track.PlayedDuration(); got != 100*time.Millisecond {
		t.Errorf("PlayedDuration = %v, want 100ms", got)
	}

	// Silence fill after the queue empties must not count as played.
	time.Sleep(60 * time.Millisecond)
	if got := track.PlayedDuration(); got != 100*time.Millisecond {
		t.Errorf("PlayedDuration after idle = %v, want 100ms", got)
	}

	if played := track.Flush(); played != 100*time.Millisecond {
		t.Errorf("Flush played = %v, want 100ms", played)
	}
	if got := track.PlayedDuration(); got != 0 {
		t.Errorf("PlayedDuration after flush = %v, want 0", got)
	}
}

func TestLocalTrackWriteAfterClose(t *testing.T) {
	track := mustLocalTrack(t, pcm.L16Mono24K)
	track.Close()

	if err := track.Write(tone(pcm.L16Mono24K, 20*time.Millisecond)); err != ErrTrackEnded {
		t.Errorf("err = %v, want ErrTrackEnded", err)
	}
}
