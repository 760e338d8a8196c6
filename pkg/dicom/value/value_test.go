package value

import (
	"math"
	"testing"

	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
	"github.com/stretchr/testify/require"
)

func TestNewTextPadsToEvenLength(t *testing.T) {
	v, err := NewText(vr.PN, []string{"Doe^John"})
	require.NoError(t, err)
	require.Equal(t, 8, v.Len())
	s, err := v.String()
	require.NoError(t, err)
	require.Equal(t, "Doe^John", s)
}

func TestNewTextOddLengthGetsPadded(t *testing.T) {
	v, err := NewText(vr.LO, []string{"odd"})
	require.NoError(t, err)
	require.Equal(t, 4, v.Len())
	require.Equal(t, byte(' '), v.Bytes()[3])
}

func TestUIPaddingIsNUL(t *testing.T) {
	v, err := NewText(vr.UI, []string{"1.2.3"})
	require.NoError(t, err)
	require.Equal(t, byte(0x00), v.Bytes()[len(v.Bytes())-1])
	s, err := v.String()
	require.NoError(t, err)
	require.Equal(t, "1.2.3", s)
}

func TestIntegerStringStrictTrim(t *testing.T) {
	v, err := NewBinary(vr.IS, []byte("  12  "))
	require.NoError(t, err)
	n, err := v.Int()
	require.NoError(t, err)
	require.Equal(t, int64(12), n)
}

func TestDecimalStringRoundTrip(t *testing.T) {
	v, err := NewDecimalString(3.5)
	require.NoError(t, err)
	f, err := v.Float()
	require.NoError(t, err)
	require.Equal(t, 3.5, f)
}

func TestOddLengthBinaryRejected(t *testing.T) {
	_, err := NewBinary(vr.UL, []byte{1, 2, 3})
	require.Error(t, err)
}

func TestFixedSizeMismatchRejected(t *testing.T) {
	_, err := NewBinary(vr.US, []byte{1, 2, 3, 4, 5, 6})
	require.NoError(t, err) // 6 is a multiple of 2, legal multi-valued US
	_, err = NewBinary(vr.FD, []byte{1, 2, 3, 4})
	require.Error(t, err) // 4 is not a multiple of 8
}

func TestFloat32RoundTrip(t *testing.T) {
	v, err := NewFloat32s([]float32{float32(math.Inf(1)), float32(math.Inf(-1)), float32(math.NaN())})
	require.NoError(t, err)
	got, err := v.Float32s()
	require.NoError(t, err)
	require.True(t, math.IsInf(float64(got[0]), 1))
	require.True(t, math.IsInf(float64(got[1]), -1))
	require.True(t, math.IsNaN(float64(got[2])))
}

func TestPersonNameComponentGroups(t *testing.T) {
	names := []PersonName{{Alphabetic: "Yamada^Tarou", Ideographic: "山田^太郎"}}
	v, err := NewPersonNames(names)
	require.NoError(t, err)
	got, err := v.PersonNames()
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Yamada^Tarou", got[0].Alphabetic)
	require.Equal(t, "山田^太郎", got[0].Ideographic)
}

func TestAttributeTagRoundTrip(t *testing.T) {
	tags := []tag.Tag{tag.PatientName, tag.PatientID}
	v, err := NewAttributeTags(tags)
	require.NoError(t, err)
	got, err := v.AttributeTags()
	require.NoError(t, err)
	require.Equal(t, tags, got)
}

func TestSignedVeryLongPrecision(t *testing.T) {
	big := int64(1) << 60
	v, err := NewSignedVeryLongs([]int64{big, -big})
	require.NoError(t, err)
	ns, err := v.Int64s()
	require.NoError(t, err)
	require.Equal(t, []int64{big, -big}, ns)

	bigInts, err := v.BigInts()
	require.NoError(t, err)
	require.Equal(t, big, bigInts[0].Int64())
}

func TestLookupTableDescriptorSecondWordSigned(t *testing.T) {
	v, err := NewLookupTableDescriptor(vr.US, 256, 0xFFFF, 16)
	require.NoError(t, err)
	signed, err := v.FirstInputValueSigned()
	require.NoError(t, err)
	require.Equal(t, int16(-1), signed)
}

func TestEncapsulatedPixelDataFragments(t *testing.T) {
	frags := []Fragment{{Data: []byte{}}, {Data: []byte{1, 2, 3, 4}}}
	v, err := NewEncapsulatedPixelData(vr.OB, frags)
	require.NoError(t, err)
	got, err := v.Fragments()
	require.NoError(t, err)
	require.Equal(t, frags, got)
}

func TestNewTextRejectsCharacterOutsideVRClass(t *testing.T) {
	_, err := NewText(vr.CS, []string{"not-upper-case!!"})
	require.Error(t, err)

	_, err = NewText(vr.IS, []string{"abc"})
	require.Error(t, err)

	_, err = NewText(vr.CS, []string{"CT"})
	require.NoError(t, err)
}

func TestMaxLengthEnforcedFor2ByteLengthVR(t *testing.T) {
	data := make([]byte, vr.MaxShortLength+1) // even, still one byte past the limit
	_, err := NewBinary(vr.SH, data)
	require.Error(t, err)
}
