// Package resampler converts PCM audio between sample rates and channel
// layouts.
//
// Room audio arrives as 48kHz Opus; realtime models want 16kHz or 24kHz
// mono. The resampler bridges the two as a streaming io.Reader:
//
//	src := resampler.Format{SampleRate: 48000, Stereo: true}
//	dst := resampler.Format{SampleRate: 16000, Stereo: false}
//	rs, err := resampler.New(reader, src, dst)
//
// Samples are 16-bit signed little-endian. Rate conversion is done in pure
// Go; mono/stereo conversion averages or duplicates channels.
// The resampler must be closed to release resources.
package resampler
