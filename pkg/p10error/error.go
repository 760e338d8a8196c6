// Package p10error defines the single error taxonomy shared by the
// ByteStream, P10 reader/writer, and transforms (spec.md §7).
package p10error

import (
	"fmt"

	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
)

// Kind classifies a P10Error. Modeled on the teacher's ValidationError
// Type classification in validate.go, generalized to the reader/writer/
// transform error space instead of IOD conformance types.
type Kind int

const (
	// DataInvalid means the bytes or parts do not form a legal DICOM
	// value or structure: bad VR, length parity, numeric range,
	// delimiter order, truncation inside an element, out-of-range
	// length for VR, or an invalid UID.
	DataInvalid Kind = iota
	// DataRequired means the reader needs more input bytes; not fatal.
	DataRequired
	// DataEnd means the stream finished mid-element; fatal for reads.
	DataEnd
	// MaximumExceeded means a configured limit was exceeded.
	MaximumExceeded
	// InvalidOrder means a data set's tags were not strictly ascending.
	InvalidOrder
	// UnsupportedTransferSyntax means the UID names a transfer syntax
	// this codec cannot decode.
	UnsupportedTransferSyntax
	// ZlibDataError means the deflate/inflate stream was malformed.
	ZlibDataError
	// PartStreamInvalid means the writer was given a malformed Part
	// sequence: unbalanced delimiters, or parts after End.
	PartStreamInvalid
	// FileError is passed through from a file-system collaborator.
	FileError
)

func (k Kind) String() string {
	switch k {
	case DataInvalid:
		return "DataInvalid"
	case DataRequired:
		return "DataRequired"
	case DataEnd:
		return "DataEnd"
	case MaximumExceeded:
		return "MaximumExceeded"
	case InvalidOrder:
		return "InvalidOrder"
	case UnsupportedTransferSyntax:
		return "UnsupportedTransferSyntax"
	case ZlibDataError:
		return "ZlibDataError"
	case PartStreamInvalid:
		return "PartStreamInvalid"
	case FileError:
		return "FileError"
	default:
		return "Unknown"
	}
}

// MaxKind names which configured maximum was exceeded.
type MaxKind int

const (
	MaxReadSize MaxKind = iota
	MaxPartSize
	MaxStringSize
	MaxSequenceDepth
	MaxFileMetaSize
)

func (m MaxKind) String() string {
	switch m {
	case MaxReadSize:
		return "max_read_size"
	case MaxPartSize:
		return "max_part_size"
	case MaxStringSize:
		return "max_string_size"
	case MaxSequenceDepth:
		return "max_sequence_depth"
	case MaxFileMetaSize:
		return "max_file_meta_size"
	default:
		return "unknown"
	}
}

// Error is the single error type propagated by the ByteStream, reader,
// writer and transforms. It implements the standard error interface and
// carries the structured context spec.md §7 requires: the data-set path
// to the offending element, the byte offset since stream start, and the
// most recently seen tag.
type Error struct {
	Kind    Kind
	Details string
	Max     MaxKind // meaningful only when Kind == MaximumExceeded

	Tag       tag.Tag
	HasTag    bool
	Offset    int64
	HasOffset bool
	Path      string // rendered DataSetPath, see dataset.Path.String

	Cause error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Kind == MaximumExceeded {
		msg = fmt.Sprintf("%s(%s)", msg, e.Max)
	}
	if e.Details != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Details)
	}
	if e.HasTag {
		msg = fmt.Sprintf("%s [tag %s]", msg, e.Tag)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s [path %s]", msg, e.Path)
	}
	if e.HasOffset {
		msg = fmt.Sprintf("%s [offset %d]", msg, e.Offset)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is supports errors.Is comparisons against sentinel Kind-only errors
// constructed with New(kind, "").
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New creates a bare *Error of the given kind with a details message.
func New(kind Kind, details string) *Error {
	return &Error{Kind: kind, Details: details}
}

// Wrap creates an *Error of the given kind wrapping cause.
func Wrap(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// Maximum creates a MaximumExceeded error for the given limit kind.
func Maximum(max MaxKind, details string) *Error {
	return &Error{Kind: MaximumExceeded, Max: max, Details: details}
}

// WithTag returns a copy of e annotated with the offending tag.
func (e *Error) WithTag(t tag.Tag) *Error {
	c := *e
	c.Tag = t
	c.HasTag = true
	return &c
}

// WithOffset returns a copy of e annotated with the byte offset since
// stream start.
func (e *Error) WithOffset(offset int64) *Error {
	c := *e
	c.Offset = offset
	c.HasOffset = true
	return &c
}

// WithPath returns a copy of e annotated with a rendered DataSetPath.
func (e *Error) WithPath(path string) *Error {
	c := *e
	c.Path = path
	return &c
}

// IsDataRequired reports whether err is a DataRequired condition: the
// caller should feed more bytes and retry, not treat this as fatal.
func IsDataRequired(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == DataRequired
}
