// Package p10 implements the streaming DICOM Part 10 codec: Reader
// (bytes → Part events) and Writer (Part events → bytes), grounded on
// the whole-buffer reader/writer control flow of the teacher this module
// started from, restructured into a pull-based state machine that
// suspends with DataRequired instead of blocking on io.Reader.
package p10

// ReaderConfig bounds the reader's memory and structural assumptions
// (spec.md §4.2). Zero-valued fields take their documented default via
// NewReader.
type ReaderConfig struct {
	// MaxReadSize bounds the ByteStream's internal buffer. Default 64MiB.
	MaxReadSize int
	// MaxPartSize caps a single DataElementValueBytes chunk. Default 64KiB.
	MaxPartSize uint32
	// MaxStringSize rejects text-VR values longer than this. Default max uint32.
	MaxStringSize uint32
	// MaxSequenceDepth rejects nesting beyond this. Default 10000.
	MaxSequenceDepth int
	// MaxFileMetaSize bounds eager File Meta Information materialization
	// (spec.md §9 Open Questions: this module's chosen FMI-size ceiling).
	// Default 4 MiB.
	MaxFileMetaSize uint32
	// AllowUnorderedTags disables the strictly-ascending tag order check
	// within any data set. Zero value (false) is the stricter default, so
	// it needs no special-casing in withDefaults: an explicit true is the
	// only way to reach the permissive behavior.
	AllowUnorderedTags bool
}

const (
	defaultMaxReadSize      = 64 * 1024 * 1024
	defaultMaxPartSize      = 64 * 1024
	defaultMaxStringSize    = 0xFFFFFFFF
	defaultMaxSequenceDepth = 10000
	defaultMaxFileMetaSize  = 4 * 1024 * 1024
)

func (c ReaderConfig) withDefaults() ReaderConfig {
	if c.MaxReadSize == 0 {
		c.MaxReadSize = defaultMaxReadSize
	}
	if c.MaxPartSize == 0 {
		c.MaxPartSize = defaultMaxPartSize
	}
	if c.MaxStringSize == 0 {
		c.MaxStringSize = defaultMaxStringSize
	}
	if c.MaxSequenceDepth == 0 {
		c.MaxSequenceDepth = defaultMaxSequenceDepth
	}
	if c.MaxFileMetaSize == 0 {
		c.MaxFileMetaSize = defaultMaxFileMetaSize
	}
	return c
}

// WriterConfig configures the P10 writer (spec.md §4.3).
type WriterConfig struct {
	// ZlibCompressionLevel is used when the output transfer syntax is
	// deflated. 1-9 select that level; 0 (the zero value) selects
	// flate.DefaultCompression, which is level 6, so level 0 (no
	// compression) cannot be requested.
	ZlibCompressionLevel int
}
