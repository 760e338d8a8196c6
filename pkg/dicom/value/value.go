// Package value implements DataElementValue (spec.md §3, §4.4): a
// validated, typed union over the bytes carried by a DICOM data element.
// Constructors enforce length parity, numeric range, permitted character
// classes and maximum length the way the wire format requires; once
// constructed a value's accessors parse on demand rather than eagerly.
package value

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
	"github.com/sanyexieai/dcmp10/pkg/p10error"
)

// Kind discriminates the union.
type Kind int

const (
	// KindBinary holds the on-wire bytes for any VR that is not a
	// sequence, encapsulated pixel data, or LUT descriptor.
	KindBinary Kind = iota
	// KindSequence holds nested data sets; see dataset.DataSet.
	KindSequence
	// KindEncapsulatedPixelData holds a list of opaque compressed
	// fragments under a non-native transfer syntax.
	KindEncapsulatedPixelData
	// KindLookupTableDescriptor holds the three-word LUT descriptor
	// whose second word is always signed.
	KindLookupTableDescriptor
)

// Sequence is implemented by *dataset.DataSet; value cannot import
// dataset directly (dataset imports value for DataElementValue), so the
// sequence item type is carried as an opaque interface and type-asserted
// by dataset.
type Sequence interface {
	// ItemTags exists only so the interface is not empty by accident;
	// dataset.DataSet satisfies it trivially.
	ItemTags() []uint32
}

// Fragment is one opaque piece of encapsulated pixel data: the Basic
// Offset Table (possibly empty) or a compressed frame.
type Fragment struct {
	Data []byte
}

// DataElementValue is the validated value held by a data element.
type DataElementValue struct {
	kind Kind
	vr   vr.VR

	bytes     []byte     // KindBinary
	sequence  []Sequence // KindSequence
	fragments []Fragment // KindEncapsulatedPixelData
	lut       [3]uint16  // KindLookupTableDescriptor, second word reinterpreted signed
}

// VR returns the value's Value Representation.
func (v *DataElementValue) VR() vr.VR { return v.vr }

// Kind returns which arm of the union v occupies.
func (v *DataElementValue) Kind() Kind { return v.kind }

// Bytes returns the on-wire bytes for a KindBinary value. Callers needing
// a parsed form should use Strings/Ints/Floats/AttributeTags below.
func (v *DataElementValue) Bytes() []byte {
	return v.bytes
}

// Len returns the on-wire encoded length in bytes (always even).
func (v *DataElementValue) Len() int {
	switch v.kind {
	case KindBinary:
		return len(v.bytes)
	case KindLookupTableDescriptor:
		return 6
	default:
		return 0
	}
}

// WireBytes returns the on-wire little-endian encoding of v for any kind
// that has one (KindBinary, KindLookupTableDescriptor); it is nil for
// KindSequence and KindEncapsulatedPixelData, which encode as nested
// Parts instead of a flat byte run.
func (v *DataElementValue) WireBytes() []byte {
	switch v.kind {
	case KindBinary:
		return v.bytes
	case KindLookupTableDescriptor:
		out := make([]byte, 6)
		binary.LittleEndian.PutUint16(out[0:2], v.lut[0])
		binary.LittleEndian.PutUint16(out[2:4], v.lut[1])
		binary.LittleEndian.PutUint16(out[4:6], v.lut[2])
		return out
	default:
		return nil
	}
}

// NewBinary constructs a validated binary value for vr from its on-wire
// little-endian bytes. The byte slice must already be the exact encoded
// value (even length); NewBinary does not pad.
func NewBinary(r vr.VR, data []byte) (*DataElementValue, error) {
	if r.IsSequence() {
		return nil, p10error.New(p10error.DataInvalid, fmt.Sprintf("NewBinary called with sequence VR %s", r))
	}
	if len(data)%2 != 0 {
		return nil, p10error.New(p10error.DataInvalid,
			fmt.Sprintf("odd-length value (%d bytes) for VR %s", len(data), r))
	}
	if max := r.MaxLength(); max >= 0 && len(data) > max {
		return nil, p10error.Maximum(p10error.MaxStringSize,
			fmt.Sprintf("value of %d bytes exceeds max length %d for VR %s", len(data), max, r))
	}
	if size := r.FixedValueSize(); size > 0 && len(data)%size != 0 {
		return nil, p10error.New(p10error.DataInvalid,
			fmt.Sprintf("value length %d is not a multiple of element size %d for VR %s", len(data), size, r))
	}
	if r.IsText() {
		if err := validateTextBytes(r, data); err != nil {
			return nil, err
		}
	}
	return &DataElementValue{kind: KindBinary, vr: r, bytes: data}, nil
}

// NewText constructs a text-VR value from a slice of logical string
// components, joining them with backslash, padding to even length with
// the VR's padding byte, and validating permitted characters.
func NewText(r vr.VR, components []string) (*DataElementValue, error) {
	if !r.IsText() {
		return nil, p10error.New(p10error.DataInvalid, fmt.Sprintf("NewText called with non-text VR %s", r))
	}
	joined := strings.Join(components, `\`)
	data := []byte(joined)
	if len(data)%2 != 0 {
		data = append(data, r.PaddingByte())
	}
	return NewBinary(r, data)
}

// Strings splits a text value on backslash into its logical components,
// trimming the padding byte DICOM uses for this VR (trailing NUL for UI,
// trailing space for the rest).
func (v *DataElementValue) Strings() ([]string, error) {
	if !v.vr.IsText() {
		return nil, p10error.New(p10error.DataInvalid, fmt.Sprintf("Strings called on non-text VR %s", v.vr))
	}
	s := trimPadding(v.vr, v.bytes)
	if s == "" {
		return []string{}, nil
	}
	return strings.Split(s, `\`), nil
}

// String returns the single logical string value, joining multiple
// components with backslash if present (equivalent to Strings()[0] for
// single-valued VRs).
func (v *DataElementValue) String() (string, error) {
	parts, err := v.Strings()
	if err != nil {
		return "", err
	}
	return strings.Join(parts, `\`), nil
}

func trimPadding(r vr.VR, data []byte) string {
	pad := r.PaddingByte()
	end := len(data)
	for end > 0 && data[end-1] == pad {
		end--
	}
	return string(data[:end])
}

// validateTextBytes enforces the permitted character repertoire for VR
// r (spec.md §3, §4.4): ISO 2022 escape sequences and UI's NUL padding
// byte are universal exceptions, every other control byte is rejected
// outright, and everything else must satisfy r's own character class.
func validateTextBytes(r vr.VR, data []byte) error {
	for _, b := range data {
		if b == 0x1B {
			continue
		}
		if r == vr.UI && b == 0x00 {
			continue
		}
		if b < 0x20 {
			return p10error.New(p10error.DataInvalid,
				fmt.Sprintf("control byte 0x%02X not permitted in VR %s", b, r))
		}
		if !r.AllowedChars(b) {
			return p10error.New(p10error.DataInvalid,
				fmt.Sprintf("character 0x%02X not permitted in VR %s", b, r))
		}
	}
	return nil
}

// NewIntegerString constructs an IS value from an int64, rendering it as
// the shortest ASCII decimal form (12 bytes max per the standard).
func NewIntegerString(n int64) (*DataElementValue, error) {
	return NewText(vr.IS, []string{strconv.FormatInt(n, 10)})
}

// Int parses an IS value. Per spec.md §9 Design Notes, surrounding ASCII
// whitespace is trimmed strictly before parsing even though some source
// data fails to do so consistently — this implementation always trims.
func (v *DataElementValue) Int() (int64, error) {
	if v.vr != vr.IS {
		return 0, p10error.New(p10error.DataInvalid, fmt.Sprintf("Int called on VR %s, want IS", v.vr))
	}
	s := strings.TrimSpace(trimPadding(v.vr, v.bytes))
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, p10error.New(p10error.DataInvalid, fmt.Sprintf("invalid IS value %q: %v", s, err))
	}
	return n, nil
}

// NewDecimalString constructs a DS value from a float64.
func NewDecimalString(f float64) (*DataElementValue, error) {
	return NewText(vr.DS, []string{strconv.FormatFloat(f, 'g', -1, 64)})
}

// Float parses a DS value, trimming ASCII whitespace strictly per
// spec.md §9.
func (v *DataElementValue) Float() (float64, error) {
	if v.vr != vr.DS {
		return 0, p10error.New(p10error.DataInvalid, fmt.Sprintf("Float called on VR %s, want DS", v.vr))
	}
	s := strings.TrimSpace(trimPadding(v.vr, v.bytes))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, p10error.New(p10error.DataInvalid, fmt.Sprintf("invalid DS value %q: %v", s, err))
	}
	return f, nil
}

// NewUint16s constructs a US/SS/OW-family fixed-width unsigned-short value.
func NewUint16s(r vr.VR, values []uint16) (*DataElementValue, error) {
	data := make([]byte, len(values)*2)
	for i, u := range values {
		binary.LittleEndian.PutUint16(data[i*2:], u)
	}
	return NewBinary(r, data)
}

// Uint16s decodes a fixed-width 16-bit value into its unsigned words.
func (v *DataElementValue) Uint16s() ([]uint16, error) {
	if len(v.bytes)%2 != 0 {
		return nil, p10error.New(p10error.DataInvalid, "value length not a multiple of 2")
	}
	out := make([]uint16, len(v.bytes)/2)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(v.bytes[i*2:])
	}
	return out, nil
}

// Int16s decodes a fixed-width 16-bit value into its signed words (SS).
func (v *DataElementValue) Int16s() ([]int16, error) {
	us, err := v.Uint16s()
	if err != nil {
		return nil, err
	}
	out := make([]int16, len(us))
	for i, u := range us {
		out[i] = int16(u)
	}
	return out, nil
}

// NewUint32s constructs a UL-family fixed-width unsigned-long value.
func NewUint32s(r vr.VR, values []uint32) (*DataElementValue, error) {
	data := make([]byte, len(values)*4)
	for i, u := range values {
		binary.LittleEndian.PutUint32(data[i*4:], u)
	}
	return NewBinary(r, data)
}

// Uint32s decodes a fixed-width 32-bit value into its unsigned longs.
func (v *DataElementValue) Uint32s() ([]uint32, error) {
	if len(v.bytes)%4 != 0 {
		return nil, p10error.New(p10error.DataInvalid, "value length not a multiple of 4")
	}
	out := make([]uint32, len(v.bytes)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(v.bytes[i*4:])
	}
	return out, nil
}

// Int32s decodes a fixed-width 32-bit value into its signed longs (SL).
func (v *DataElementValue) Int32s() ([]int32, error) {
	ul, err := v.Uint32s()
	if err != nil {
		return nil, err
	}
	out := make([]int32, len(ul))
	for i, u := range ul {
		out[i] = int32(u)
	}
	return out, nil
}

// NewFloat32s constructs an FL value.
func NewFloat32s(values []float32) (*DataElementValue, error) {
	data := make([]byte, len(values)*4)
	for i, f := range values {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(f))
	}
	return NewBinary(vr.FL, data)
}

// Float32s decodes an FL value.
func (v *DataElementValue) Float32s() ([]float32, error) {
	if v.vr != vr.FL {
		return nil, p10error.New(p10error.DataInvalid, fmt.Sprintf("Float32s called on VR %s, want FL", v.vr))
	}
	if len(v.bytes)%4 != 0 {
		return nil, p10error.New(p10error.DataInvalid, "FL value length not a multiple of 4")
	}
	out := make([]float32, len(v.bytes)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(v.bytes[i*4:]))
	}
	return out, nil
}

// NewFloat64s constructs an FD value.
func NewFloat64s(values []float64) (*DataElementValue, error) {
	data := make([]byte, len(values)*8)
	for i, f := range values {
		binary.LittleEndian.PutUint64(data[i*8:], math.Float64bits(f))
	}
	return NewBinary(vr.FD, data)
}

// Float64s decodes an FD value.
func (v *DataElementValue) Float64s() ([]float64, error) {
	if v.vr != vr.FD {
		return nil, p10error.New(p10error.DataInvalid, fmt.Sprintf("Float64s called on VR %s, want FD", v.vr))
	}
	if len(v.bytes)%8 != 0 {
		return nil, p10error.New(p10error.DataInvalid, "FD value length not a multiple of 8")
	}
	out := make([]float64, len(v.bytes)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(v.bytes[i*8:]))
	}
	return out, nil
}
