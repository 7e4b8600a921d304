// Package pcm provides types and utilities for working with raw PCM audio.
//
// Agents deal exclusively in 16-bit mono PCM: remote peers' decoded audio is
// mixed into a single model input stream, and model output audio is paced
// back onto the room track. The package defines the audio formats used on
// both sides and the plumbing between them.
//
// Key types:
//   - Format: sample rate / channel / bit depth descriptor
//   - Chunk: a piece of audio data (DataChunk, SilenceChunk)
//   - Writer: chunk sink
//   - Mixer: mixes any number of live tracks into one output stream
//
// A Mixer is the heart of a conversation: each remote participant gets a
// Track, chunks written to a Track are resampled to the mixer's output
// format, and reading from the Mixer yields the blended stream a realtime
// model consumes.
//
//	mx := pcm.NewMixer(pcm.L16Mono16K)
//	tr, _, _ := mx.CreateTrack(pcm.WithTrackLabel(peerID))
//	tr.Write(pcm.L16Mono48K.DataChunk(decoded))
//	// io.Copy(modelInput, mx)
package pcm
