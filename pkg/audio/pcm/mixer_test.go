package pcm

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"
)

// constPCM builds ms milliseconds of 16kHz mono samples all holding val.
func constPCM(val int16, ms int) []byte {
	n := 16000 * ms / 1000
	data := make([]byte, n*2)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(val))
	}
	return data
}

// toSamples decodes little-endian 16-bit output back into int16s.
func toSamples(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}

// drainMixed runs the writers concurrently, seals the mixer when they
// finish, and returns the decoded output.
func drainMixed(t *testing.T, mx *Mixer, writers ...func()) []int16 {
	t.Helper()
	var wg sync.WaitGroup
	for _, w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w()
		}()
	}
	go func() {
		wg.Wait()
		mx.CloseWrite()
	}()
	mixed, err := io.ReadAll(mx)
	if err != nil {
		t.Fatal(err)
	}
	return toSamples(mixed)
}

func stats(samples []int16) (peak int16, nonZero int) {
	for _, s := range samples {
		if s > peak {
			peak = s
		}
		if -s > peak {
			peak = -s
		}
		if s != 0 {
			nonZero++
		}
	}
	return peak, nonZero
}

func TestMixerSumsTwoTracks(t *testing.T) {
	format := L16Mono16K
	mx := NewMixer(format, WithAutoClose())

	trackA, ctrlA, err := mx.CreateTrack(WithTrackLabel("A"))
	if err != nil {
		t.Fatal(err)
	}
	trackB, ctrlB, err := mx.CreateTrack(WithTrackLabel("B"))
	if err != nil {
		t.Fatal(err)
	}

	samples := drainMixed(t, mx,
		func() {
			trackA.Write(format.DataChunk(constPCM(1000, 100)))
			ctrlA.CloseWrite()
		},
		func() {
			trackB.Write(format.DataChunk(constPCM(2000, 100)))
			ctrlB.CloseWrite()
		},
	)

	// Overlapping regions sum to 3000; timing may leave leading or
	// trailing stretches where only one track (or silence) was live.
	var summed, single int
	for _, s := range samples {
		switch s {
		case 3000:
			summed++
		case 1000, 2000:
			single++
		}
	}
	if summed == 0 && single == 0 {
		t.Fatal("no track audio made it into the mix")
	}

	peak, _ := stats(samples)
	if peak > 3000 {
		t.Errorf("peak %d exceeds the possible track sum", peak)
	}
}

func TestMixerManyTracks(t *testing.T) {
	format := L16Mono16K
	mx := NewMixer(format, WithAutoClose())

	var writers []func()
	for _, val := range []int16{1000, 2000, 3000, 4000} {
		track, ctrl, err := mx.CreateTrack(WithTrackLabel(fmt.Sprintf("t%d", val)))
		if err != nil {
			t.Fatal(err)
		}
		data := constPCM(val, 50)
		writers = append(writers, func() {
			track.Write(format.DataChunk(data))
			ctrl.CloseWrite()
		})
	}

	samples := drainMixed(t, mx, writers...)
	peak, nonZero := stats(samples)
	if nonZero == 0 {
		t.Fatal("four live tracks produced no audio")
	}
	if peak < 1000 {
		t.Errorf("peak %d below the quietest track", peak)
	}
}

func TestMixerTrackAddedMidStream(t *testing.T) {
	format := L16Mono16K
	mx := NewMixer(format)

	track1, ctrl1, _ := mx.CreateTrack(WithTrackLabel("first"))
	track2, ctrl2, _ := mx.CreateTrack(WithTrackLabel("second"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		track1.Write(format.DataChunk(constPCM(1000, 100)))
		track2.Write(format.DataChunk(constPCM(2000, 100)))

		track3, ctrl3, err := mx.CreateTrack(WithTrackLabel("late"))
		if err != nil {
			t.Error(err)
			return
		}
		track3.Write(format.DataChunk(constPCM(3000, 50)))

		ctrl1.CloseWrite()
		ctrl2.CloseWrite()
		ctrl3.CloseWrite()
		mx.CloseWrite()
	}()

	mixed, err := io.ReadAll(mx)
	if err != nil {
		t.Fatal(err)
	}
	<-done

	_, nonZero := stats(toSamples(mixed))
	if nonZero == 0 {
		t.Error("late-added track contributed nothing")
	}
}

func TestMixerClipsInsteadOfWrapping(t *testing.T) {
	format := L16Mono16K
	mx := NewMixer(format, WithAutoClose())

	// Four tracks of 10000 sum to 40000, past the int16 ceiling.
	var writers []func()
	for i := 0; i < 4; i++ {
		track, ctrl, _ := mx.CreateTrack(WithTrackLabel(fmt.Sprintf("loud%d", i)))
		data := constPCM(10000, 50)
		writers = append(writers, func() {
			track.Write(format.DataChunk(data))
			ctrl.CloseWrite()
		})
	}

	samples := drainMixed(t, mx, writers...)
	for _, s := range samples {
		// A wrapped sum of positive inputs shows up deeply negative.
		if s < -5000 {
			t.Fatalf("sample %d looks like integer wraparound", s)
		}
	}
	peak, _ := stats(samples)
	if peak < 10000 {
		t.Errorf("peak %d below a single track's level", peak)
	}
}

func TestMixerGain(t *testing.T) {
	format := L16Mono16K
	mx := NewMixer(format, WithAutoClose())

	trackA, ctrlA, _ := mx.CreateTrack(WithTrackLabel("unity"))
	trackB, ctrlB, _ := mx.CreateTrack(WithTrackLabel("quarter"))
	ctrlB.SetGain(0.25)

	samples := drainMixed(t, mx,
		func() {
			trackA.Write(format.DataChunk(constPCM(20000, 50)))
			ctrlA.CloseWrite()
		},
		func() {
			trackB.Write(format.DataChunk(constPCM(20000, 50)))
			ctrlB.CloseWrite()
		},
	)

	peak, nonZero := stats(samples)
	if nonZero == 0 {
		t.Fatal("no audio output")
	}
	// Unity + quarter-gain never reaches the 40000 a unity pair would
	// have (pre-clip); 25000 is the summed ceiling here.
	if peak > 26000 {
		t.Errorf("peak %d suggests gain was not applied", peak)
	}
}

func TestMixerFadeOut(t *testing.T) {
	format := L16Mono16K
	mx := NewMixer(format, WithAutoClose())

	track, ctrl, _ := mx.CreateTrack(WithTrackLabel("fade"))
	track.Write(format.DataChunk(constPCM(10000, 200)))

	ctrl.SetFadeOutDuration(100 * time.Millisecond)
	ctrl.Close()

	// Read at a realtime-ish pace so the fade ramp lands inside the
	// buffered audio.
	var all []int16
	buf := make([]byte, 640)
	for {
		time.Sleep(20 * time.Millisecond)
		n, err := mx.Read(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if n == 0 {
			break
		}
		all = append(all, toSamples(buf[:n])...)
	}

	_, nonZero := stats(all)
	if nonZero == 0 {
		t.Error("fade-out swallowed the whole track")
	}
}
