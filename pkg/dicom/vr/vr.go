// Package vr defines the DICOM Value Representations and the per-VR wire
// and validation metadata the P10 codec needs: header length-field width,
// padding byte, and permitted character class.
package vr

// VR represents a DICOM Value Representation.
type VR string

// The 33 standard Value Representations.
const (
	AE VR = "AE" // Application Entity
	AS VR = "AS" // Age String
	AT VR = "AT" // Attribute Tag
	CS VR = "CS" // Code String
	DA VR = "DA" // Date
	DS VR = "DS" // Decimal String
	DT VR = "DT" // DateTime
	FL VR = "FL" // Floating Point Single
	FD VR = "FD" // Floating Point Double
	IS VR = "IS" // Integer String
	LO VR = "LO" // Long String
	LT VR = "LT" // Long Text
	OB VR = "OB" // Other Byte
	OD VR = "OD" // Other Double
	OF VR = "OF" // Other Float
	OL VR = "OL" // Other Long
	OV VR = "OV" // Other Very Long
	OW VR = "OW" // Other Word
	PN VR = "PN" // Person Name
	SH VR = "SH" // Short String
	SL VR = "SL" // Signed Long
	SQ VR = "SQ" // Sequence of Items
	SS VR = "SS" // Signed Short
	ST VR = "ST" // Short Text
	SV VR = "SV" // Signed Very Long (64-bit)
	TM VR = "TM" // Time
	UC VR = "UC" // Unlimited Characters
	UI VR = "UI" // Unique Identifier
	UL VR = "UL" // Unsigned Long
	UN VR = "UN" // Unknown
	UR VR = "UR" // Universal Resource Identifier
	US VR = "US" // Unsigned Short
	UT VR = "UT" // Unlimited Text
	UV VR = "UV" // Unsigned Very Long (64-bit)
)

// longLengthVRs uses a 4-byte length field (plus 2 reserved bytes) under
// explicit VR encoding. Every other VR uses a 2-byte length field.
var longLengthVRs = map[VR]bool{
	OB: true, OD: true, OF: true, OL: true, OV: true, OW: true,
	SQ: true, UC: true, UN: true, UR: true, UT: true, SV: true, UV: true,
}

// HasLongLength reports whether v uses the 4-byte explicit-VR length field.
func (v VR) HasLongLength() bool {
	return longLengthVRs[v]
}

// MaxShortLength is the largest length encodable in a 2-byte length field.
const MaxShortLength = 0xFFFF

// textVRs contains every VR whose on-wire bytes are UTF-8 text, optionally
// backslash-separated for multiple values.
var textVRs = map[VR]bool{
	AE: true, AS: true, CS: true, DA: true, DS: true, DT: true, IS: true,
	LO: true, LT: true, PN: true, SH: true, ST: true, TM: true, UC: true,
	UI: true, UR: true, UT: true,
}

// IsText reports whether v holds UTF-8 text bytes.
func (v VR) IsText() bool {
	return textVRs[v]
}

// IsBinary reports whether v holds a packed numeric/byte array rather than
// text or a sequence.
func (v VR) IsBinary() bool {
	switch v {
	case AT, FL, FD, OB, OD, OF, OL, OV, OW, SL, SS, SV, UL, UN, US, UV:
		return true
	default:
		return false
	}
}

// IsSequence reports whether v is the sequence VR.
func (v VR) IsSequence() bool {
	return v == SQ
}

// Is64BitInteger reports whether v is one of the big-integer VRs whose
// magnitude can exceed 2^53 and therefore needs string encoding in JSON.
func (v VR) Is64BitInteger() bool {
	return v == SV || v == UV
}

// FixedValueSize returns the fixed per-value size in bytes for VRs with a
// constant element width, or 0 for variable-length VRs.
func (v VR) FixedValueSize() int {
	switch v {
	case AT:
		return 4
	case FL:
		return 4
	case FD, SV, UV:
		return 8
	case SL:
		return 4
	case SS:
		return 2
	case UL:
		return 4
	case US:
		return 2
	default:
		return 0
	}
}

// PaddingByte returns the byte used to pad an odd-length value to even
// length: a space for text VRs, NUL for UI, and 0x00 for everything else.
func (v VR) PaddingByte() byte {
	switch v {
	case UI:
		return 0x00
	default:
		if v.IsText() {
			return 0x20
		}
		return 0x00
	}
}

// MaxLength returns the maximum permitted encoded length for v when the
// dataset uses a 2-byte length field, or -1 when v is unbounded (4-byte
// length field VRs are bounded only by MaxUint32).
func (v VR) MaxLength() int {
	if v.HasLongLength() {
		return -1
	}
	return MaxShortLength
}

// AllowedChars reports whether b is a permitted character in v's text
// wire representation, per the per-VR character repertoires in PS3.5.
// Only meaningful when v.IsText() is true. Backslash is always allowed
// since NewText uses it as the multi-valued component separator; NUL and
// ESC are handled by the caller (NUL only pads UI, ESC only escapes into
// a different repertoire) rather than here.
func (v VR) AllowedChars(b byte) bool {
	if b == '\\' {
		return true
	}
	switch v {
	case CS:
		return isUpper(b) || isDigit(b) || b == ' ' || b == '_'
	case DS:
		return isDigit(b) || b == '+' || b == '-' || b == '.' || b == 'E' || b == 'e' || b == ' '
	case IS:
		return isDigit(b) || b == '+' || b == '-' || b == ' '
	case AS:
		return isDigit(b) || b == 'D' || b == 'W' || b == 'M' || b == 'Y'
	case DA:
		return isDigit(b) || b == '.'
	case TM:
		return isDigit(b) || b == '.'
	case DT:
		return isDigit(b) || b == '+' || b == '-' || b == '.' || b == ' '
	case UI:
		return isDigit(b) || b == '.'
	case AE, UR:
		return b >= 0x20 && b < 0x7F
	default:
		// LO, LT, PN, SH, ST, UC, UT: the default repertoire plus
		// whatever multi-byte extended repertoire a SpecificCharacterSet
		// decoder produced; only the ASCII control range and DEL are
		// excluded.
		return b >= 0x20 && b != 0x7F
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }

// Valid reports whether s names one of the 33 standard VRs.
func Valid(s string) bool {
	_, ok := all[VR(s)]
	return ok
}

var all = map[VR]bool{
	AE: true, AS: true, AT: true, CS: true, DA: true, DS: true, DT: true,
	FL: true, FD: true, IS: true, LO: true, LT: true, OB: true, OD: true,
	OF: true, OL: true, OV: true, OW: true, PN: true, SH: true, SL: true,
	SQ: true, SS: true, ST: true, SV: true, TM: true, UC: true, UI: true,
	UL: true, UN: true, UR: true, US: true, UT: true, UV: true,
}
