package stream

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// DefaultChunkSize is used when a non-positive chunk size is requested.
const DefaultChunkSize = 64 * 1024

// ErrTooLarge is returned when a stream exceeds the allowed size.
var ErrTooLarge = errors.New("stream exceeds maximum size")

// ChunkedReader provides chunked reading capability for large files
type ChunkedReader struct {
	reader    io.Reader
	chunkSize int
	buffer    *bytes.Buffer
	eof       bool
}

// NewChunkedReader creates a new chunked reader
func NewChunkedReader(reader io.Reader, chunkSize int) *ChunkedReader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ChunkedReader{
		reader:    reader,
		chunkSize: chunkSize,
		buffer:    bytes.NewBuffer(make([]byte, 0, chunkSize)),
	}
}

// NextChunk reads the next chunk from the reader. The returned slice is only
// valid until the next call.
func (cr *ChunkedReader) NextChunk() ([]byte, error) {
	cr.buffer.Reset()
	if cr.eof {
		return nil, io.EOF
	}

	temp := make([]byte, cr.chunkSize)
	for cr.buffer.Len() < cr.chunkSize {
		n, err := cr.reader.Read(temp[:cr.chunkSize-cr.buffer.Len()])
		if n > 0 {
			cr.buffer.Write(temp[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return nil, err
			}
			cr.eof = true
			if cr.buffer.Len() > 0 {
				return cr.buffer.Bytes(), nil
			}
			return nil, io.EOF
		}
	}

	return cr.buffer.Bytes(), nil
}

// ReadLimited reads r chunk by chunk into a single buffer and fails with
// ErrTooLarge as soon as more than maxBytes have been read. A non-positive
// maxBytes disables the limit.
func ReadLimited(r io.Reader, chunkSize int, maxBytes int64) ([]byte, error) {
	cr := NewChunkedReader(r, chunkSize)
	var out bytes.Buffer

	for {
		chunk, err := cr.NextChunk()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out.Bytes(), nil
			}
			return nil, err
		}
		if maxBytes > 0 && int64(out.Len()+len(chunk)) > maxBytes {
			return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, maxBytes)
		}
		out.Write(chunk)
	}
}
