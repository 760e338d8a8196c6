package value

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
	"github.com/sanyexieai/dcmp10/pkg/p10error"
)

// NewSignedVeryLongs constructs an SV value. SV/UV magnitudes can exceed
// 2^53, so callers that need exact precision through JSON should prefer
// BigInts over any float conversion (spec.md §9).
func NewSignedVeryLongs(values []int64) (*DataElementValue, error) {
	data := make([]byte, len(values)*8)
	for i, n := range values {
		binary.LittleEndian.PutUint64(data[i*8:], uint64(n))
	}
	return NewBinary(vr.SV, data)
}

// NewUnsignedVeryLongs constructs a UV value.
func NewUnsignedVeryLongs(values []uint64) (*DataElementValue, error) {
	data := make([]byte, len(values)*8)
	for i, n := range values {
		binary.LittleEndian.PutUint64(data[i*8:], n)
	}
	return NewBinary(vr.UV, data)
}

// Int64s decodes an SV value into signed 64-bit integers.
func (v *DataElementValue) Int64s() ([]int64, error) {
	if v.vr != vr.SV {
		return nil, p10error.New(p10error.DataInvalid, fmt.Sprintf("Int64s called on VR %s, want SV", v.vr))
	}
	if len(v.bytes)%8 != 0 {
		return nil, p10error.New(p10error.DataInvalid, "SV value length not a multiple of 8")
	}
	out := make([]int64, len(v.bytes)/8)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(v.bytes[i*8:]))
	}
	return out, nil
}

// Uint64s decodes a UV value into unsigned 64-bit integers.
func (v *DataElementValue) Uint64s() ([]uint64, error) {
	if v.vr != vr.UV {
		return nil, p10error.New(p10error.DataInvalid, fmt.Sprintf("Uint64s called on VR %s, want UV", v.vr))
	}
	if len(v.bytes)%8 != 0 {
		return nil, p10error.New(p10error.DataInvalid, "UV value length not a multiple of 8")
	}
	out := make([]uint64, len(v.bytes)/8)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(v.bytes[i*8:])
	}
	return out, nil
}

// BigInts renders an SV or UV value as big.Int, the representation the
// JSON bridge uses once the magnitude exceeds 2^53 (spec.md §4.7).
func (v *DataElementValue) BigInts() ([]*big.Int, error) {
	switch v.vr {
	case vr.SV:
		ns, err := v.Int64s()
		if err != nil {
			return nil, err
		}
		out := make([]*big.Int, len(ns))
		for i, n := range ns {
			out[i] = big.NewInt(n)
		}
		return out, nil
	case vr.UV:
		ns, err := v.Uint64s()
		if err != nil {
			return nil, err
		}
		out := make([]*big.Int, len(ns))
		for i, n := range ns {
			out[i] = new(big.Int).SetUint64(n)
		}
		return out, nil
	default:
		return nil, p10error.New(p10error.DataInvalid, fmt.Sprintf("BigInts called on VR %s, want SV or UV", v.vr))
	}
}
