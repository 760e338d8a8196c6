package value

import (
	"fmt"

	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
	"github.com/sanyexieai/dcmp10/pkg/p10error"
)

// NewSequence constructs a KindSequence value from its ordered items.
func NewSequence(items []Sequence) *DataElementValue {
	return &DataElementValue{kind: KindSequence, vr: vr.SQ, sequence: items}
}

// Items returns the nested data sets of a KindSequence value.
func (v *DataElementValue) Items() ([]Sequence, error) {
	if v.kind != KindSequence {
		return nil, p10error.New(p10error.DataInvalid, "Items called on non-sequence value")
	}
	return v.sequence, nil
}

// NewEncapsulatedPixelData constructs a KindEncapsulatedPixelData value
// from its fragment list. The first fragment is conventionally the Basic
// Offset Table (possibly empty); the rest are compressed frames. r is
// almost always OB, but the wire format permits OW for some syntaxes.
func NewEncapsulatedPixelData(r vr.VR, fragments []Fragment) (*DataElementValue, error) {
	if r != vr.OB && r != vr.OW {
		return nil, p10error.New(p10error.DataInvalid, fmt.Sprintf("NewEncapsulatedPixelData called with VR %s, want OB or OW", r))
	}
	return &DataElementValue{kind: KindEncapsulatedPixelData, vr: r, fragments: fragments}, nil
}

// Fragments returns the fragment list of a KindEncapsulatedPixelData
// value, the first of which is the Basic Offset Table.
func (v *DataElementValue) Fragments() ([]Fragment, error) {
	if v.kind != KindEncapsulatedPixelData {
		return nil, p10error.New(p10error.DataInvalid, "Fragments called on non-encapsulated-pixel-data value")
	}
	return v.fragments, nil
}
