package resampler

import "io"

// sampleReader re-frames an arbitrary io.Reader so every Read hands
// back whole frames. A trailing partial frame is held until the next
// read completes it.
type sampleReader struct {
	r          io.Reader
	sampleSize int

	// carry holds up to sampleSize-1 bytes of an incomplete frame.
	carry    []byte
	carrying int
}

func newSampleReader(r io.Reader, sampleSize int) *sampleReader {
	return &sampleReader{
		r:          r,
		sampleSize: sampleSize,
		carry:      make([]byte, sampleSize-1),
	}
}

// Read returns 0 or a multiple of sampleSize bytes, except that a
// stream ending mid-frame yields the remainder with ErrUnexpectedEOF.
// Buffers smaller than one frame get io.ErrShortBuffer.
func (sr *sampleReader) Read(p []byte) (n int, err error) {
	if len(p) < sr.sampleSize {
		return 0, io.ErrShortBuffer
	}
	p = p[:len(p)/sr.sampleSize*sr.sampleSize]

	if sr.carrying > 0 {
		n = copy(p, sr.carry[:sr.carrying])
		sr.carrying = 0
	}

	rn, err := sr.r.Read(p[n:])
	n += rn
	if err != nil {
		if n%sr.sampleSize != 0 && err == io.EOF {
			return n, io.ErrUnexpectedEOF
		}
		return n, err
	}
	if mod := n % sr.sampleSize; mod != 0 {
		n -= mod
		copy(sr.carry[:mod], p[n:n+mod])
		sr.carrying = mod
	}
	return n, nil
}
