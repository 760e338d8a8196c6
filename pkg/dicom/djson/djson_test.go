package djson

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/sanyexieai/dcmp10/pkg/dicom/dataset"
	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/value"
	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
	"github.com/stretchr/testify/require"
)

func mustVal(t *testing.T, v *value.DataElementValue, err error) *value.DataElementValue {
	t.Helper()
	require.NoError(t, err)
	return v
}

func TestMarshalDataSetTextAndNumericVRs(t *testing.T) {
	ds := dataset.New()
	ds.Insert(tag.PatientName, mustVal(t, value.NewPersonNames([]value.PersonName{{Alphabetic: "Doe^Jane"}})))
	ds.Insert(tag.PatientID, mustVal(t, value.NewText(vr.LO, []string{"PAT1"})))
	ds.Insert(tag.New(0x0028, 0x0010), mustVal(t, value.NewUint16s(vr.US, []uint16{512})))
	ds.Insert(tag.New(0x0018, 0x1151), mustVal(t, value.NewIntegerString(200)))
	ds.Insert(tag.New(0x0018, 0x0060), mustVal(t, value.NewDecimalString(120.5)))

	obj, err := MarshalDataSet(ds, Options{})
	require.NoError(t, err)

	pn := obj[tagKey(tag.PatientName)].(map[string]any)
	require.Equal(t, "PN", pn["vr"])
	names := pn["Value"].([]any)
	require.Len(t, names, 1)
	require.Equal(t, "Doe^Jane", names[0].(map[string]any)["Alphabetic"])

	rows := obj[tagKey(tag.New(0x0028, 0x0010))].(map[string]any)
	require.Equal(t, []any{float64(512)}, rows["Value"])

	is := obj[tagKey(tag.New(0x0018, 0x1151))].(map[string]any)
	require.Equal(t, []any{int64(200)}, is["Value"])

	ds2 := obj[tagKey(tag.New(0x0018, 0x0060))].(map[string]any)
	require.Equal(t, []any{120.5}, ds2["Value"])
}

func TestMarshalDataSetEmptyElement(t *testing.T) {
	ds := dataset.New()
	ds.Insert(tag.PatientID, mustVal(t, value.NewBinary(vr.LO, nil)))

	obj, err := MarshalDataSet(ds, Options{})
	require.NoError(t, err)

	el := obj[tagKey(tag.PatientID)].(map[string]any)
	require.Equal(t, "LO", el["vr"])
	_, hasValue := el["Value"]
	require.False(t, hasValue)
}

func TestMarshalDataSetMultiValuedEmptyStrings(t *testing.T) {
	ds := dataset.New()
	ds.Insert(tag.PatientID, mustVal(t, value.NewText(vr.LO, []string{"", ""})))

	obj, err := MarshalDataSet(ds, Options{})
	require.NoError(t, err)

	el := obj[tagKey(tag.PatientID)].(map[string]any)
	require.Equal(t, []any{nil, nil}, el["Value"])
}

func TestMarshalDataSetNonFiniteFloat(t *testing.T) {
	ds := dataset.New()
	ds.Insert(tag.New(0x0028, 0x1052), mustVal(t, value.NewFloat64s([]float64{1.5, math.Inf(1), math.NaN()})))

	obj, err := MarshalDataSet(ds, Options{})
	require.NoError(t, err)

	el := obj[tagKey(tag.New(0x0028, 0x1052))].(map[string]any)
	require.Equal(t, []any{1.5, "Infinity", "NaN"}, el["Value"])
}

func TestMarshalDataSetLargeSignedVeryLongIsString(t *testing.T) {
	ds := dataset.New()
	big := int64(1) << 60
	ds.Insert(tag.New(0x0041, 0x1001), mustVal(t, value.NewSignedVeryLongs([]int64{big, 7})))

	obj, err := MarshalDataSet(ds, Options{})
	require.NoError(t, err)

	el := obj[tagKey(tag.New(0x0041, 0x1001))].(map[string]any)
	arr := el["Value"].([]any)
	require.IsType(t, "", arr[0])
	require.Equal(t, float64(7), arr[1])
}

func TestMarshalDataSetSequence(t *testing.T) {
	seqTag := tag.New(0x0040, 0x0275)
	item := dataset.New()
	item.Insert(tag.PatientID, mustVal(t, value.NewText(vr.LO, []string{"X"})))
	ds := dataset.New()
	ds.Insert(seqTag, value.NewSequence([]value.Sequence{item}))

	obj, err := MarshalDataSet(ds, Options{})
	require.NoError(t, err)

	el := obj[tagKey(seqTag)].(map[string]any)
	require.Equal(t, "SQ", el["vr"])
	items := el["Value"].([]any)
	require.Len(t, items, 1)
	nested := items[0].(map[string]any)
	pid := nested[tagKey(tag.PatientID)].(map[string]any)
	require.Equal(t, []any{"X"}, pid["Value"])
}

func TestMarshalDataSetOmitsEncapsulatedPixelDataByDefault(t *testing.T) {
	ds := dataset.New()
	frags := []value.Fragment{{Data: nil}, {Data: []byte{1, 2, 3, 4}}}
	ds.Insert(tag.PixelData, mustVal(t, value.NewEncapsulatedPixelData(vr.OB, frags)))
	ds.Insert(tag.PatientID, mustVal(t, value.NewText(vr.LO, []string{"X"})))

	obj, err := MarshalDataSet(ds, Options{})
	require.NoError(t, err)
	_, has := obj[tagKey(tag.PixelData)]
	require.False(t, has)
}

func TestMarshalDataSetStoreEncapsulatedPixelData(t *testing.T) {
	ds := dataset.New()
	frags := []value.Fragment{{Data: nil}, {Data: []byte{1, 2, 3, 4}}}
	ds.Insert(tag.PixelData, mustVal(t, value.NewEncapsulatedPixelData(vr.OB, frags)))

	obj, err := MarshalDataSet(ds, Options{StoreEncapsulatedPixelData: true})
	require.NoError(t, err)

	el := obj[tagKey(tag.PixelData)].(map[string]any)
	_, has := el["InlineBinary"]
	require.True(t, has)
}

func TestRoundTripThroughJSONBytes(t *testing.T) {
	ds := dataset.New()
	ds.Insert(tag.PatientID, mustVal(t, value.NewText(vr.LO, []string{"PAT1"})))
	ds.Insert(tag.PatientName, mustVal(t, value.NewPersonNames([]value.PersonName{{Alphabetic: "Doe^Jane"}})))
	ds.Insert(tag.New(0x0028, 0x0010), mustVal(t, value.NewUint16s(vr.US, []uint16{512})))

	obj, err := MarshalDataSet(ds, Options{})
	require.NoError(t, err)
	raw, err := json.Marshal(obj)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	back, err := UnmarshalDataSet(decoded, Options{})
	require.NoError(t, err)

	v, ok := back.Get(tag.PatientID)
	require.True(t, ok)
	s, err := v.String()
	require.NoError(t, err)
	require.Equal(t, "PAT1", s)

	rows, ok := back.Get(tag.New(0x0028, 0x0010))
	require.True(t, ok)
	us, err := rows.Uint16s()
	require.NoError(t, err)
	require.Equal(t, []uint16{512}, us)
}

func TestUnmarshalDataSetRejectsBulkDataURI(t *testing.T) {
	obj := map[string]any{
		tagKey(tag.PatientID): map[string]any{"vr": "LO", "BulkDataURI": "http://example.test/1"},
	}
	_, err := UnmarshalDataSet(obj, Options{})
	require.Error(t, err)
}

func TestUnmarshalDataSetRejectsValueAndInlineBinaryTogether(t *testing.T) {
	obj := map[string]any{
		tagKey(tag.PatientID): map[string]any{"vr": "LO", "Value": []any{"X"}, "InlineBinary": "AAAA"},
	}
	_, err := UnmarshalDataSet(obj, Options{})
	require.Error(t, err)
}
