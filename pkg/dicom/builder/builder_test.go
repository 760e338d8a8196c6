package builder

import (
	"testing"

	"github.com/sanyexieai/dcmp10/pkg/dicom/dataset"
	"github.com/sanyexieai/dcmp10/pkg/dicom/part"
	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
	"github.com/stretchr/testify/require"
)

func TestBuilderSimpleElement(t *testing.T) {
	b := New()
	require.NoError(t, b.Feed(part.DataElementHeader(tag.PatientName, vr.PN, 8)))
	require.NoError(t, b.Feed(part.DataElementValueBytes(vr.PN, []byte("Doe^Jane"), 0)))
	require.NoError(t, b.Feed(part.End()))
	require.True(t, b.IsComplete())

	ds := b.FinalDataSet()
	v, ok := ds.Get(tag.PatientName)
	require.True(t, ok)
	s, err := v.String()
	require.NoError(t, err)
	require.Equal(t, "Doe^Jane", s)
}

func TestBuilderChunkedValue(t *testing.T) {
	b := New()
	require.NoError(t, b.Feed(part.DataElementHeader(tag.PatientID, vr.LO, 4)))
	require.NoError(t, b.Feed(part.DataElementValueBytes(vr.LO, []byte("12"), 2)))
	require.NoError(t, b.Feed(part.DataElementValueBytes(vr.LO, []byte("3 "), 0)))
	require.NoError(t, b.Feed(part.End()))

	v, ok := b.FinalDataSet().Get(tag.PatientID)
	require.True(t, ok)
	s, err := v.String()
	require.NoError(t, err)
	require.Equal(t, "123", s)
}

func TestBuilderSequenceWithOneItem(t *testing.T) {
	seqTag := tag.New(0x0040, 0x0275)
	b := New()
	require.NoError(t, b.Feed(part.SequenceStart(seqTag, vr.SQ)))
	require.NoError(t, b.Feed(part.SequenceItemStart()))
	require.NoError(t, b.Feed(part.DataElementHeader(tag.PatientID, vr.LO, 4)))
	require.NoError(t, b.Feed(part.DataElementValueBytes(vr.LO, []byte("123 "), 0)))
	require.NoError(t, b.Feed(part.SequenceItemDelimiter()))
	require.NoError(t, b.Feed(part.SequenceDelimiter()))
	require.NoError(t, b.Feed(part.End()))

	v, ok := b.FinalDataSet().Get(seqTag)
	require.True(t, ok)
	items, err := v.Items()
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0].(*dataset.DataSet)
	idVal, ok := item.Get(tag.PatientID)
	require.True(t, ok)
	s, err := idVal.String()
	require.NoError(t, err)
	require.Equal(t, "123", s)
}

func TestBuilderEncapsulatedPixelData(t *testing.T) {
	b := New()
	require.NoError(t, b.Feed(part.DataElementHeader(tag.PixelData, vr.OB, 0xFFFFFFFF)))
	require.NoError(t, b.Feed(part.PixelDataItem(0))) // empty BOT
	require.NoError(t, b.Feed(part.PixelDataItem(4)))
	require.NoError(t, b.Feed(part.DataElementValueBytes(vr.OB, []byte{0xAA, 0xBB, 0xCC, 0xDD}, 0)))
	require.NoError(t, b.Feed(part.SequenceDelimiter()))
	require.NoError(t, b.Feed(part.End()))

	v, ok := b.FinalDataSet().Get(tag.PixelData)
	require.True(t, ok)
	frags, err := v.Fragments()
	require.NoError(t, err)
	require.Len(t, frags, 2)
	require.Empty(t, frags[0].Data)
	require.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, frags[1].Data)
}

func TestBuilderRejectsEndWithOpenFrame(t *testing.T) {
	b := New()
	require.NoError(t, b.Feed(part.SequenceStart(tag.New(0x0040, 0x0275), vr.SQ)))
	err := b.Feed(part.End())
	require.Error(t, err)
	require.Len(t, b.Errors(), 1)
}
