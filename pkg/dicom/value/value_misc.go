package value

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
	"github.com/sanyexieai/dcmp10/pkg/p10error"
)

// PersonName is one value of a PN element: up to three component groups
// (alphabetic, ideographic, phonetic) separated by "=", each itself up to
// five subcomponents (family^given^middle^prefix^suffix) separated by "^".
type PersonName struct {
	Alphabetic  string
	Ideographic string
	Phonetic    string
}

// componentGroups returns the "=" groups in order, dropping trailing
// empty groups; an empty group before a non-empty one is kept.
func (p PersonName) componentGroups() []string {
	var groups []string
	for _, g := range []string{p.Alphabetic, p.Ideographic, p.Phonetic} {
		groups = append(groups, g)
	}
	for len(groups) > 0 && groups[len(groups)-1] == "" {
		groups = groups[:len(groups)-1]
	}
	return groups
}

func (p PersonName) encode() string {
	return strings.Join(p.componentGroups(), "=")
}

func decodePersonName(raw string) PersonName {
	groups := strings.SplitN(raw, "=", 3)
	var p PersonName
	if len(groups) > 0 {
		p.Alphabetic = groups[0]
	}
	if len(groups) > 1 {
		p.Ideographic = groups[1]
	}
	if len(groups) > 2 {
		p.Phonetic = groups[2]
	}
	return p
}

// NewPersonNames constructs a PN value from one or more person names,
// joining multiple values with backslash and multiple component groups
// within a name with "=", per spec.md §4.4.
func NewPersonNames(names []PersonName) (*DataElementValue, error) {
	encoded := make([]string, len(names))
	for i, n := range names {
		encoded[i] = n.encode()
	}
	return NewText(vr.PN, encoded)
}

// PersonNames decodes a PN value into its component names.
func (v *DataElementValue) PersonNames() ([]PersonName, error) {
	if v.vr != vr.PN {
		return nil, p10error.New(p10error.DataInvalid, fmt.Sprintf("PersonNames called on VR %s, want PN", v.vr))
	}
	raws, err := v.Strings()
	if err != nil {
		return nil, err
	}
	out := make([]PersonName, len(raws))
	for i, raw := range raws {
		out[i] = decodePersonName(raw)
	}
	return out, nil
}

// NewAttributeTags constructs an AT value: pairs of (group,element)
// 16-bit little-endian words.
func NewAttributeTags(tags []tag.Tag) (*DataElementValue, error) {
	data := make([]byte, len(tags)*4)
	for i, t := range tags {
		binary.LittleEndian.PutUint16(data[i*4:], t.Group)
		binary.LittleEndian.PutUint16(data[i*4+2:], t.Element)
	}
	return NewBinary(vr.AT, data)
}

// AttributeTags decodes an AT value.
func (v *DataElementValue) AttributeTags() ([]tag.Tag, error) {
	if v.vr != vr.AT {
		return nil, p10error.New(p10error.DataInvalid, fmt.Sprintf("AttributeTags called on VR %s, want AT", v.vr))
	}
	if len(v.bytes)%4 != 0 {
		return nil, p10error.New(p10error.DataInvalid, "AT value length not a multiple of 4")
	}
	out := make([]tag.Tag, len(v.bytes)/4)
	for i := range out {
		group := binary.LittleEndian.Uint16(v.bytes[i*4:])
		element := binary.LittleEndian.Uint16(v.bytes[i*4+2:])
		out[i] = tag.New(group, element)
	}
	return out, nil
}

// NewLookupTableDescriptor constructs the special three-word LUT
// descriptor value: entry count, first input value (signed, regardless
// of r), and bits per entry. r must be US or SS; the on-wire encoding
// always uses r's width, but the second word's sign is always
// interpreted per DICOM's LUT descriptor exception (spec.md §4.4).
func NewLookupTableDescriptor(r vr.VR, entryCount, firstInputValue, bitsPerEntry uint16) (*DataElementValue, error) {
	if r != vr.US && r != vr.SS {
		return nil, p10error.New(p10error.DataInvalid, fmt.Sprintf("NewLookupTableDescriptor called with VR %s, want US or SS", r))
	}
	return &DataElementValue{
		kind: KindLookupTableDescriptor,
		vr:   r,
		lut:  [3]uint16{entryCount, firstInputValue, bitsPerEntry},
	}, nil
}

// LookupTableDescriptor returns the three raw words of a LUT descriptor
// value: entry count, first input value, and bits per entry. The first
// input value's bit pattern should be read as signed regardless of VR.
func (v *DataElementValue) LookupTableDescriptor() (entryCount, firstInputValue, bitsPerEntry uint16, err error) {
	if v.kind != KindLookupTableDescriptor {
		return 0, 0, 0, p10error.New(p10error.DataInvalid, "LookupTableDescriptor called on non-descriptor value")
	}
	return v.lut[0], v.lut[1], v.lut[2], nil
}

// FirstInputValueSigned returns the LUT descriptor's second word
// reinterpreted as a signed 16-bit integer, per the LUT descriptor
// exception.
func (v *DataElementValue) FirstInputValueSigned() (int16, error) {
	_, second, _, err := v.LookupTableDescriptor()
	if err != nil {
		return 0, err
	}
	return int16(second), nil
}
