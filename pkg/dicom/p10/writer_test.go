package p10

import (
	"bytes"
	"testing"

	"github.com/sanyexieai/dcmp10/pkg/dicom/part"
	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/transfer"
	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
	"github.com/stretchr/testify/require"
)

func TestWriterRoundTripsPreambleFileMetaAndElement(t *testing.T) {
	original := fileMetaBytes(string(transfer.ExplicitVRLittleEndian))
	original = append(original, explicitElement(tag.PatientName, vr.PN, pad("Doe^Jane"))...)

	r := NewReader(ReaderConfig{})
	parts, err := r.Feed(original, true)
	require.NoError(t, err)

	var buf bytes.Buffer
	w := NewWriter(&buf, WriterConfig{})
	require.NoError(t, w.WriteAll(parts))

	require.Equal(t, original, buf.Bytes())
}

func TestWriterRoundTripsSequenceWithOneItem(t *testing.T) {
	seqTag := tag.New(0x0040, 0x0275)
	var buf bytes.Buffer
	w := NewWriter(&buf, WriterConfig{})
	w.ts = transfer.ExplicitVRLittleEndian // bypass File Meta Information for this test

	require.NoError(t, w.WritePart(part.SequenceStart(seqTag, vr.SQ)))
	require.NoError(t, w.WritePart(part.SequenceItemStart()))
	require.NoError(t, w.WritePart(part.DataElementHeader(tag.PatientID, vr.LO, 4)))
	require.NoError(t, w.WritePart(part.DataElementValueBytes(vr.LO, []byte("123 "), 0)))
	require.NoError(t, w.WritePart(part.SequenceItemDelimiter()))
	require.NoError(t, w.WritePart(part.SequenceDelimiter()))
	require.NoError(t, w.WritePart(part.End()))

	out := buf.Bytes()
	expected := explicitElementUndefinedLength(seqTag, vr.SQ)
	expected = append(expected, tagBytes(tag.Item)...)
	expected = append(expected, 0xFF, 0xFF, 0xFF, 0xFF) // items are always written with undefined length
	expected = append(expected, explicitElement(tag.PatientID, vr.LO, []byte("123 "))...)
	expected = append(expected, delimiterBytes(tag.ItemDelimitationItem)...)
	expected = append(expected, delimiterBytes(tag.SequenceDelimitationItem)...)
	require.Equal(t, expected, out)
}

func TestWriterRejectsUnbalancedFramesAtEnd(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WriterConfig{})
	require.NoError(t, w.WritePart(part.SequenceStart(tag.New(0x0040, 0x0275), vr.SQ)))
	err := w.WritePart(part.End())
	require.Error(t, err)
}

func TestWriterRejectsDelimiterWithNoOpenFrame(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WriterConfig{})
	err := w.WritePart(part.SequenceItemDelimiter())
	require.Error(t, err)
}

func TestWriterRejectsShortLengthVROverflow(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WriterConfig{})
	w.ts = transfer.ExplicitVRLittleEndian
	err := w.WritePart(part.DataElementHeader(tag.PatientID, vr.LO, 0x10000))
	require.Error(t, err)
}
