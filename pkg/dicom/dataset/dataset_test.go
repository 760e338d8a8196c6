package dataset

import (
	"testing"

	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/value"
	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
	"github.com/stretchr/testify/require"
)

func textValue(t *testing.T, r vr.VR, s string) *value.DataElementValue {
	t.Helper()
	v, err := value.NewText(r, []string{s})
	require.NoError(t, err)
	return v
}

func TestIterateAscendingOrder(t *testing.T) {
	ds := New()
	ds.Insert(tag.PatientAge, textValue(t, vr.AS, "030Y"))
	ds.Insert(tag.PatientName, textValue(t, vr.PN, "Doe^Jane"))
	ds.Insert(tag.PatientID, textValue(t, vr.LO, "123"))

	elems := ds.Iterate()
	require.Len(t, elems, 3)
	require.Equal(t, tag.PatientName, elems[0].Tag)
	require.Equal(t, tag.PatientID, elems[1].Tag)
	require.Equal(t, tag.PatientAge, elems[2].Tag)
}

func TestInsertOverwrites(t *testing.T) {
	ds := New()
	ds.Insert(tag.PatientID, textValue(t, vr.LO, "first"))
	ds.Insert(tag.PatientID, textValue(t, vr.LO, "second"))
	require.Equal(t, 1, ds.Len())
	v, ok := ds.Get(tag.PatientID)
	require.True(t, ok)
	s, err := v.String()
	require.NoError(t, err)
	require.Equal(t, "second", s)
}

func TestRemove(t *testing.T) {
	ds := New()
	ds.Insert(tag.PatientID, textValue(t, vr.LO, "123"))
	ds.Remove(tag.PatientID)
	_, ok := ds.Get(tag.PatientID)
	require.False(t, ok)
}

func TestPrivateCreatorResolution(t *testing.T) {
	ds := New()
	ds.Insert(tag.New(0x0009, 0x0010), textValue(t, vr.LO, "SGI-DICOS-2007"))
	private := tag.New(0x0009, 0x1001)
	creator, ok := ds.PrivateCreator(private)
	require.True(t, ok)
	require.Equal(t, "SGI-DICOS-2007", creator)
	require.Contains(t, ds.TagName(private), "ObjectOfInspectionType")
}

func TestTagNameFallsBackWithoutCreator(t *testing.T) {
	ds := New()
	private := tag.New(0x0009, 0x1001)
	name := ds.TagName(private)
	require.Contains(t, name, "Private")
}

func TestPathString(t *testing.T) {
	p := Path{}.Push(DataElementStep(tag.New(0x0040, 0x0275))).
		Push(SequenceItemStep(0)).
		Push(DataElementStep(tag.New(0x0008, 0x0100)))
	require.Equal(t, "(0040,0275)[0].(0008,0100)", p.String())
}
