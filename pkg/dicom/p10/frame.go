package p10

import "github.com/sanyexieai/dcmp10/pkg/dicom/tag"

// frameKind discriminates the nesting contexts the reader's frame stack
// tracks (spec.md §4.2): an open sequence, one item of that sequence, or
// an open encapsulated pixel-data fragment list.
type frameKind int

const (
	frameSequence frameKind = iota
	frameItem
	framePixelData
)

// frame is one level of the reader's nesting stack. A frame with a
// defined length tracks the absolute ByteStream.BytesRead() offset at
// which it closes, so a defined-length sequence or item is closed the
// same way an undefined-length one is: by synthesizing the matching
// delimiter Part rather than expecting literal delimiter bytes on the
// wire. Pixel-data frames never carry an end offset. Only item frames are data-set scopes: they carry their
// own tag-order tracker and private-creator registrations, since a
// sequence's items are independent data sets.
type frame struct {
	kind     frameKind
	ownerTag tag.Tag

	hasEndOffset bool
	endOffset    int64

	hasLastTag bool
	lastTag    tag.Tag

	privateCreators map[uint16]string
}
