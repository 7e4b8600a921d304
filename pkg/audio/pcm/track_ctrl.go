package pcm

import (
	"sync/atomic"
	"time"
)

// TrackCtrl is the handle returned when a track is added to a mixer.
// It adjusts gain, configures fade-out, and ends the track.
type TrackCtrl struct {
	label string
	track *track
	next  *TrackCtrl

	gain            AtomicFloat32
	readn           atomic.Int64
	fadeOutDuration atomic.Int32
}

// Label returns the label the track was created with.
func (tc *TrackCtrl) Label() string {
	return tc.label
}

// SetGain sets the linear gain multiplier. 1.0 is unity, 0.0 mutes;
// values above 1.0 can clip.
func (tc *TrackCtrl) SetGain(volume float32) {
	tc.gain.Store(volume)
}

// SetGainLinearTo ramps the gain to the target over duration in 10ms
// steps, blocking until the ramp finishes.
func (tc *TrackCtrl) SetGainLinearTo(to float32, duration time.Duration) {
	from := tc.gain.Load()

	const interval = 10 * time.Millisecond
	steps := int(duration / interval)
	if steps == 0 {
		tc.gain.Store(to)
		return
	}
	for i := range steps {
		time.Sleep(interval)
		tc.gain.Store(from + (to-from)*float32(i+1)/float32(steps))
	}
}

// SetFadeOutDuration makes Close fade the track to silence over the
// given duration instead of cutting it. Zero restores the immediate cut.
func (tc *TrackCtrl) SetFadeOutDuration(duration time.Duration) {
	tc.fadeOutDuration.Store(int32(duration / time.Millisecond))
}

// ReadBytes reports how many bytes the mixer has consumed from this
// track.
func (tc *TrackCtrl) ReadBytes() int64 {
	return tc.readn.Load()
}

// Close ends the track, fading first when a fade-out duration is set.
func (tc *TrackCtrl) Close() error {
	if d := tc.fadeOutDuration.Load(); d > 0 {
		go func() {
			tc.SetGainLinearTo(0, time.Duration(d)*time.Millisecond)
			tc.track.Close()
		}()
		return tc.CloseWrite()
	}
	return tc.track.Close()
}

// CloseWithError is Close but surfaces err to the mixer side.
func (tc *TrackCtrl) CloseWithError(err error) error {
	if d := tc.fadeOutDuration.Load(); d > 0 {
		go func() {
			tc.SetGainLinearTo(0, time.Duration(d)*time.Millisecond)
			tc.track.CloseWithError(err)
		}()
		return tc.CloseWrite()
	}
	return tc.track.CloseWithError(err)
}

// CloseWrite seals the write side; the mixer drains what was buffered.
func (tc *TrackCtrl) CloseWrite() error {
	return tc.track.CloseWrite()
}

// CloseWriteWithSilence appends a silence tail before sealing the write
// side.
func (tc *TrackCtrl) CloseWriteWithSilence(silence time.Duration) error {
	if err := tc.track.Write(tc.track.mx.output.SilenceChunk(silence)); err != nil {
		return err
	}
	return tc.CloseWrite()
}

func (tc *TrackCtrl) readFull(p []byte) (bool, error) {
	n, err := readFull(tc.track, p)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	tc.readn.Add(int64(n))
	return true, nil
}
