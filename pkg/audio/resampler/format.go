package resampler

// Format describes a 16-bit signed PCM stream for conversion.
type Format struct {
	// SampleRate in Hz, e.g. 16000 or 48000.
	SampleRate int

	// Stereo selects two channels; false means mono.
	Stereo bool
}

func (f Format) channels() int {
	if f.Stereo {
		return 2
	}
	return 1
}

// sampleBytes is the size of one frame: 2 bytes per channel.
func (f Format) sampleBytes() int {
	return 2 * f.channels()
}
