package pcm

import (
	"errors"
	"io"
	"time"
)

// Writer consumes audio chunks.
type Writer interface {
	Write(Chunk) error
}

// WriteFunc adapts a function to the Writer interface.
type WriteFunc func(Chunk) error

func (f WriteFunc) Write(c Chunk) error {
	return f(c)
}

var _ Writer = WriteFunc(nil)

// WriteCloser is a Writer that must be closed when the stream ends.
type WriteCloser interface {
	Writer
	io.Closer
}

// Discard accepts and drops every chunk.
var Discard Writer = discard{}

type discard struct{}

func (discard) Write(Chunk) error { return nil }

// IOWriter adapts a chunk Writer to io.Writer. Every byte slice written
// becomes a DataChunk in format f.
func IOWriter(w Writer, f Format) io.Writer {
	return &ioWriter{w: w, f: f}
}

type ioWriter struct {
	w Writer
	f Format
}

func (w *ioWriter) Write(b []byte) (int, error) {
	if err := w.w.Write(w.f.DataChunk(b)); err != nil {
		return 0, err
	}
	return len(b), nil
}

// ChunkWriter adapts an io.Writer to a chunk Writer; chunks are
// serialized with their WriteTo.
func ChunkWriter(w io.Writer) Writer {
	return &chunkWriter{w: w}
}

type chunkWriter struct {
	w io.Writer
}

func (w *chunkWriter) Write(c Chunk) error {
	_, err := c.WriteTo(w.w)
	return err
}

// Copy drains r into w as DataChunks of format, reading at least 20ms
// at a time. EOF (including a short final read) ends the copy with nil.
func Copy(w Writer, r io.Reader, format Format) error {
	frame := int(format.BytesInDuration(20 * time.Millisecond))
	buf := make([]byte, 10*frame)
	for {
		n, err := io.ReadAtLeast(r, buf, frame)
		if n > 0 {
			if werr := w.Write(format.DataChunk(buf[:n])); werr != nil {
				return werr
			}
		}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return nil
		default:
			return err
		}
	}
}
