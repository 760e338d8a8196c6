// Package bytestream implements the bounded byte FIFO the P10 reader pulls
// from (spec.md §4.1): writes accumulate, reads/peeks drain in order, and
// an optional raw-deflate inflate stage can be switched on mid-stream for
// the deflated transfer syntax. The buffered byte count never exceeds a
// configured ceiling, bounding memory regardless of how the caller feeds
// input.
package bytestream

import (
	"bytes"
	"compress/flate"
	"fmt"
	"io"

	"github.com/sanyexieai/dcmp10/pkg/p10error"
)

// DefaultMaxReadSize is used when a ByteStream is constructed with New
// rather than NewWithMaxReadSize.
const DefaultMaxReadSize = 64 * 1024 * 1024

// ByteStream is a bounded FIFO byte buffer with optional inflate.
//
// It is not safe for concurrent use; the reader that owns it drives it
// single-threaded, per spec.md §5.
type ByteStream struct {
	maxReadSize int

	pending []byte // bytes written but not yet consumed, pre-inflate
	done    bool   // write(_, done=true) has been called

	inflating  bool
	inflater   io.ReadCloser
	inflateIn  *bytes.Buffer // feeds the flate.Reader
	inflateEOF bool

	ready     []byte // decoded bytes available to read/peek
	readCount int64
}

// New creates a ByteStream bounded at DefaultMaxReadSize.
func New() *ByteStream {
	return NewWithMaxReadSize(DefaultMaxReadSize)
}

// NewWithMaxReadSize creates a ByteStream that never buffers more than
// maxReadSize bytes at once.
func NewWithMaxReadSize(maxReadSize int) *ByteStream {
	return &ByteStream{maxReadSize: maxReadSize}
}

// Write appends bytes to the stream. done marks the stream as finished:
// no more bytes will ever arrive, so Read/Peek calls that would otherwise
// return DataRequired instead return DataEnd once the buffered bytes are
// exhausted.
//
// Write fails with WriteAfterCompletion (reported as a DataInvalid error)
// if the stream was already marked done by a prior call.
func (b *ByteStream) Write(data []byte, done bool) error {
	if b.done {
		return p10error.New(p10error.DataInvalid, "write after stream completion")
	}
	if b.inflating {
		b.inflateIn.Write(data)
	} else {
		b.pending = append(b.pending, data...)
	}
	if done {
		b.done = true
	}
	if err := b.pump(); err != nil {
		return err
	}
	return nil
}

// pump moves bytes from the pre-inflate buffer into the ready buffer,
// running them through the inflater when active, while keeping the ready
// buffer within maxReadSize.
func (b *ByteStream) pump() error {
	if !b.inflating {
		if len(b.pending) > 0 {
			b.ready = append(b.ready, b.pending...)
			b.pending = nil
		}
		return b.checkBound()
	}
	if b.inflateEOF {
		return nil
	}
	// Inflate lazily, capped at maxReadSize, so a deflate bomb cannot grow
	// the ready buffer past the bound: read in chunks no larger than the
	// remaining headroom and stop once that headroom is used up, rather
	// than inflating everything the compressed stream still offers.
	for len(b.ready) < b.maxReadSize {
		remaining := b.maxReadSize - len(b.ready)
		chunkSize := 32 * 1024
		if remaining < chunkSize {
			chunkSize = remaining
		}
		chunk := make([]byte, chunkSize)
		n, err := b.inflater.Read(chunk)
		if n > 0 {
			b.ready = append(b.ready, chunk[:n]...)
		}
		if err == io.EOF {
			b.inflateEOF = true
			break
		}
		if err != nil {
			return p10error.Wrap(p10error.ZlibDataError, err)
		}
		if n == 0 {
			break
		}
	}
	return nil
}

func (b *ByteStream) checkBound() error {
	if len(b.ready) > b.maxReadSize {
		return p10error.Maximum(p10error.MaxReadSize,
			fmt.Sprintf("buffered %d bytes exceeds max_read_size %d", len(b.ready), b.maxReadSize))
	}
	return nil
}

// StartInflate switches the stream into raw-deflate mode (no zlib header,
// no trailing checksum, window bits -15): every byte currently buffered
// and every byte written from now on is treated as compressed input, and
// Read/Peek see the decompressed output instead.
func (b *ByteStream) StartInflate() error {
	if b.inflating {
		return nil
	}
	b.inflating = true
	// Every byte buffered so far — whether already pumped to ready or
	// still pending — is raw compressed input, not decoded output.
	raw := append(b.ready, b.pending...)
	b.ready = nil
	b.pending = nil
	b.inflateIn = bytes.NewBuffer(raw)
	b.inflater = flate.NewReader(b.inflateIn)
	return b.pump()
}

// Read consumes and returns exactly n bytes, advancing the stream.
//
// It fails with ReadOversized if n exceeds max_read_size, DataRequired if
// fewer than n bytes are currently available but the stream is not yet
// done, or DataEnd if the stream is done and fewer than n bytes remain.
func (b *ByteStream) Read(n int) ([]byte, error) {
	data, err := b.Peek(n)
	if err != nil {
		return nil, err
	}
	b.ready = b.ready[n:]
	b.readCount += int64(n)
	return data, nil
}

// Peek returns exactly n bytes without advancing the stream. Same error
// semantics as Read.
func (b *ByteStream) Peek(n int) ([]byte, error) {
	if n > b.maxReadSize {
		return nil, p10error.Maximum(p10error.MaxReadSize,
			fmt.Sprintf("requested read of %d bytes exceeds max_read_size %d", n, b.maxReadSize))
	}
	if err := b.fillAtLeast(n); err != nil {
		return nil, err
	}
	if len(b.ready) < n {
		if b.isSourceExhausted() {
			return nil, p10error.New(p10error.DataEnd,
				fmt.Sprintf("need %d bytes, stream ended with %d available", n, len(b.ready)))
		}
		return nil, p10error.New(p10error.DataRequired,
			fmt.Sprintf("need %d bytes, %d available", n, len(b.ready)))
	}
	out := make([]byte, n)
	copy(out, b.ready[:n])
	return out, nil
}

// fillAtLeast pumps more inflate output until at least n bytes are ready,
// the source is exhausted, or the bound would be exceeded.
func (b *ByteStream) fillAtLeast(n int) error {
	if !b.inflating {
		return nil
	}
	for len(b.ready) < n && !b.inflateEOF {
		before := len(b.ready)
		if err := b.pump(); err != nil {
			return err
		}
		if len(b.ready) == before {
			break
		}
	}
	return nil
}

func (b *ByteStream) isSourceExhausted() bool {
	if !b.done {
		return false
	}
	if b.inflating {
		return b.inflateEOF
	}
	return true
}

// BytesRead returns the total number of bytes consumed by Read calls so
// far (the byte offset since stream start).
func (b *ByteStream) BytesRead() int64 {
	return b.readCount
}

// IsFullyConsumed reports whether the buffer is empty, writes are
// finished, and (if inflating) the deflate stream has reported end.
func (b *ByteStream) IsFullyConsumed() bool {
	return len(b.ready) == 0 && b.isSourceExhausted()
}
