// Package part defines Part, the reader↔writer event alphabet (spec.md
// §3): the streaming codec's unit of communication between the P10
// reader and everything downstream (DataSetBuilder, transforms, the
// JSON bridge) and between upstream producers and the P10 writer.
package part

import (
	"github.com/sanyexieai/dcmp10/pkg/dicom/dataset"
	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
)

// Kind discriminates the Part union.
type Kind int

const (
	KindFilePreambleAndDICMPrefix Kind = iota
	KindFileMetaInformation
	KindDataElementHeader
	KindDataElementValueBytes
	KindSequenceStart
	KindSequenceDelimiter
	KindSequenceItemStart
	KindSequenceItemDelimiter
	KindPixelDataItem
	KindEnd
)

func (k Kind) String() string {
	switch k {
	case KindFilePreambleAndDICMPrefix:
		return "FilePreambleAndDICMPrefix"
	case KindFileMetaInformation:
		return "FileMetaInformation"
	case KindDataElementHeader:
		return "DataElementHeader"
	case KindDataElementValueBytes:
		return "DataElementValueBytes"
	case KindSequenceStart:
		return "SequenceStart"
	case KindSequenceDelimiter:
		return "SequenceDelimiter"
	case KindSequenceItemStart:
		return "SequenceItemStart"
	case KindSequenceItemDelimiter:
		return "SequenceItemDelimiter"
	case KindPixelDataItem:
		return "PixelDataItem"
	case KindEnd:
		return "End"
	default:
		return "Unknown"
	}
}

// Part is one event in the stream between the P10 reader and its
// consumers, or between a producer and the P10 writer. Only the fields
// relevant to Kind are meaningful; constructors below enforce that.
type Part struct {
	Kind Kind

	Preamble []byte        // KindFilePreambleAndDICMPrefix: 128 bytes
	FileMeta *dataset.DataSet // KindFileMetaInformation

	Tag    tag.Tag // KindDataElementHeader, KindSequenceStart
	VR     vr.VR   // KindDataElementHeader, KindSequenceStart, KindDataElementValueBytes
	Length uint32  // KindDataElementHeader: declared length; KindPixelDataItem: fragment length

	Bytes          []byte // KindDataElementValueBytes: this chunk
	BytesRemaining uint32 // KindDataElementValueBytes: bytes still to come after this chunk
}

// FilePreambleAndDICMPrefix constructs the part carrying the 128-byte
// preamble (the "DICM" magic itself is not repeated; it is implied).
func FilePreambleAndDICMPrefix(preamble []byte) Part {
	return Part{Kind: KindFilePreambleAndDICMPrefix, Preamble: preamble}
}

// FileMetaInformation constructs the part carrying the fully materialized
// group-0002 data set.
func FileMetaInformation(ds *dataset.DataSet) Part {
	return Part{Kind: KindFileMetaInformation, FileMeta: ds}
}

// DataElementHeader constructs the part announcing a primitive data
// element's tag, VR and declared length.
func DataElementHeader(t tag.Tag, r vr.VR, length uint32) Part {
	return Part{Kind: KindDataElementHeader, Tag: t, VR: r, Length: length}
}

// DataElementValueBytes constructs one chunk of a primitive element's
// value. remaining is 0 on the terminal chunk.
func DataElementValueBytes(r vr.VR, data []byte, remaining uint32) Part {
	return Part{Kind: KindDataElementValueBytes, VR: r, Bytes: data, BytesRemaining: remaining}
}

// SequenceStart constructs the part opening a sequence.
func SequenceStart(t tag.Tag, r vr.VR) Part {
	return Part{Kind: KindSequenceStart, Tag: t, VR: r}
}

// SequenceDelimiter constructs the part closing the innermost open
// sequence (or encapsulated pixel-data fragment list).
func SequenceDelimiter() Part {
	return Part{Kind: KindSequenceDelimiter}
}

// SequenceItemStart constructs the part opening one item of the
// innermost open sequence.
func SequenceItemStart() Part {
	return Part{Kind: KindSequenceItemStart}
}

// SequenceItemDelimiter constructs the part closing the innermost open
// sequence item.
func SequenceItemDelimiter() Part {
	return Part{Kind: KindSequenceItemDelimiter}
}

// PixelDataItem constructs the part announcing one encapsulated
// pixel-data fragment of the given length.
func PixelDataItem(length uint32) Part {
	return Part{Kind: KindPixelDataItem, Length: length}
}

// End constructs the terminal part.
func End() Part {
	return Part{Kind: KindEnd}
}
