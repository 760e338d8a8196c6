package transform

import (
	"bytes"
	"testing"

	"github.com/sanyexieai/dcmp10/pkg/dicom/builder"
	"github.com/sanyexieai/dcmp10/pkg/dicom/dataset"
	"github.com/sanyexieai/dcmp10/pkg/dicom/p10"
	"github.com/sanyexieai/dcmp10/pkg/dicom/part"
	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/value"
	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
	"github.com/stretchr/testify/require"
)

func mustText(t *testing.T, r vr.VR, s string) *value.DataElementValue {
	t.Helper()
	v, err := value.NewText(r, []string{s})
	require.NoError(t, err)
	return v
}

func TestInsertTransformFlushesBeforeGreaterRootTag(t *testing.T) {
	ds := dataset.New()
	ds.Insert(tag.PatientID, mustText(t, vr.LO, "PAT1"))

	ins := NewInsertTransform(ds)

	in := []part.Part{
		part.DataElementHeader(tag.PatientName, vr.PN, 8),
		part.DataElementValueBytes(vr.PN, []byte("Doe^Jane"), 0),
		part.End(),
	}
	out := stepAll(t, ins.Step, in)

	// PatientID (0010,0020) is not less than PatientName (0010,0010), so
	// it is not flushed ahead of the incoming PatientName element; it is
	// flushed at End instead.
	require.Equal(t, part.KindDataElementHeader, out[0].Kind)
	require.Equal(t, tag.PatientName, out[0].Tag)
	require.Equal(t, part.KindDataElementValueBytes, out[1].Kind)

	var sawPatientID bool
	for _, p := range out {
		if p.Kind == part.KindDataElementHeader && p.Tag.Equals(tag.PatientID) {
			sawPatientID = true
		}
	}
	require.True(t, sawPatientID)
	require.Equal(t, part.KindEnd, out[len(out)-1].Kind)
}

func TestInsertTransformFlushesLowerTagBeforeHigherRootElement(t *testing.T) {
	ds := dataset.New()
	ds.Insert(tag.PatientName, mustText(t, vr.PN, "Inserted^Name"))

	ins := NewInsertTransform(ds)

	in := []part.Part{
		part.DataElementHeader(tag.PatientID, vr.LO, 4), // PatientID (0010,0020) > PatientName (0010,0010)
		part.DataElementValueBytes(vr.LO, []byte("123 "), 0),
		part.End(),
	}
	out := stepAll(t, ins.Step, in)

	require.Equal(t, part.KindDataElementHeader, out[0].Kind)
	require.Equal(t, tag.PatientName, out[0].Tag)
	require.Equal(t, tag.PatientID, out[2].Tag)
}

func TestInsertTransformZeroLengthValueOmitsValueBytesPart(t *testing.T) {
	ds := dataset.New()
	ds.Insert(tag.AccessionNumber, mustText(t, vr.SH, ""))

	ins := NewInsertTransform(ds)
	out := stepAll(t, ins.Step, []part.Part{part.End()})

	require.Len(t, out, 2)
	require.Equal(t, part.KindDataElementHeader, out[0].Kind)
	require.EqualValues(t, 0, out[0].Length)
	require.Equal(t, part.KindEnd, out[1].Kind)
}

func TestInsertTransformZeroLengthValueRoundTripsThroughWriterAndBuilder(t *testing.T) {
	ds := dataset.New()
	ds.Insert(tag.AccessionNumber, mustText(t, vr.SH, ""))
	ds.Insert(tag.PatientName, mustText(t, vr.PN, "Doe^Jane"))

	ins := NewInsertTransform(ds)
	parts := stepAll(t, ins.Step, []part.Part{part.End()})

	var buf bytes.Buffer
	writer := p10.NewWriter(&buf, p10.WriterConfig{})
	require.NoError(t, writer.WriteAll(parts))

	b := builder.New()
	for _, p := range parts {
		require.NoError(t, b.Feed(p))
	}
	final := b.FinalDataSet()
	v, ok := final.Get(tag.AccessionNumber)
	require.True(t, ok)
	s, err := v.String()
	require.NoError(t, err)
	require.Equal(t, "", s)
}

func TestInsertTransformFlushesSequenceValue(t *testing.T) {
	seqTag := tag.New(0x0040, 0x0275)
	item := dataset.New()
	item.Insert(tag.PatientID, mustText(t, vr.LO, "X"))
	ds := dataset.New()
	ds.Insert(seqTag, value.NewSequence([]value.Sequence{item}))

	ins := NewInsertTransform(ds)
	out := stepAll(t, ins.Step, []part.Part{part.End()})

	require.Equal(t, part.KindSequenceStart, out[0].Kind)
	require.Equal(t, part.KindSequenceItemStart, out[1].Kind)
	require.Equal(t, part.KindDataElementHeader, out[2].Kind)
	require.Equal(t, part.KindDataElementValueBytes, out[3].Kind)
	require.Equal(t, part.KindSequenceItemDelimiter, out[4].Kind)
	require.Equal(t, part.KindSequenceDelimiter, out[5].Kind)
	require.Equal(t, part.KindEnd, out[6].Kind)
}
