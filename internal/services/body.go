package services

import (
	"errors"
	"io"
	"iter"
)

// Chunk is one piece of a push-based body. A non-nil Err ends the stream.
type Chunk struct {
	Data []byte
	Err  error
}

// Body is an object's content as handed back by a backend. It can wrap a
// pull stream, a chunk sequence or a push channel, and drains any of them
// into a writer one piece at a time.
type Body struct {
	reader io.Reader
	chunks iter.Seq2[[]byte, error]
	events <-chan Chunk
	closer io.Closer
}

// ReaderBody wraps a pull stream. If r is an io.Closer, Close closes it.
func ReaderBody(r io.Reader) *Body {
	b := &Body{reader: r}
	if c, ok := r.(io.Closer); ok {
		b.closer = c
	}
	return b
}

// ChunkBody wraps a chunk sequence.
func ChunkBody(seq iter.Seq2[[]byte, error]) *Body {
	return &Body{chunks: seq}
}

// EventBody wraps a push stream. The producer closes ch when done; closer,
// if given, is called on Close to stop the producer early.
func EventBody(ch <-chan Chunk, closer io.Closer) *Body {
	return &Body{events: ch, closer: closer}
}

// WriteTo drains the body into w.
func (b *Body) WriteTo(w io.Writer) (int64, error) {
	switch {
	case b == nil:
		return 0, nil
	case b.reader != nil:
		return io.Copy(w, b.reader)
	case b.chunks != nil:
		var total int64
		for data, err := range b.chunks {
			if err != nil {
				return total, err
			}
			n, werr := w.Write(data)
			total += int64(n)
			if werr != nil {
				return total, werr
			}
		}
		return total, nil
	case b.events != nil:
		var total int64
		for chunk := range b.events {
			if chunk.Err != nil {
				return total, chunk.Err
			}
			n, werr := w.Write(chunk.Data)
			total += int64(n)
			if werr != nil {
				return total, werr
			}
		}
		return total, nil
	}
	return 0, errors.New("body has no content source")
}

// Close releases the underlying stream, if any.
func (b *Body) Close() error {
	if b == nil || b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

var (
	_ io.WriterTo = (*Body)(nil)
	_ io.Closer   = (*Body)(nil)
)
