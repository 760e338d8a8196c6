package p10

import (
	"strings"
	"testing"

	"github.com/sanyexieai/dcmp10/pkg/dicom/part"
	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/transfer"
	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
	"github.com/stretchr/testify/require"
)

func TestReaderNoPreambleFallsBackToImplicitVRLittleEndian(t *testing.T) {
	data := implicitElement(tag.PatientName, pad("Doe^Jane"))

	r := NewReader(ReaderConfig{})
	parts, err := r.Feed(data, true)
	require.NoError(t, err)
	require.Len(t, parts, 3)

	require.Equal(t, part.KindDataElementHeader, parts[0].Kind)
	require.Equal(t, tag.PatientName, parts[0].Tag)
	require.Equal(t, vr.PN, parts[0].VR)
	require.EqualValues(t, 8, parts[0].Length)

	require.Equal(t, part.KindDataElementValueBytes, parts[1].Kind)
	require.Equal(t, []byte("Doe^Jane"), parts[1].Bytes)
	require.EqualValues(t, 0, parts[1].BytesRemaining)

	require.Equal(t, part.KindEnd, parts[2].Kind)
}

func TestReaderPreambleAndFileMetaSelectExplicitVR(t *testing.T) {
	data := fileMetaBytes(string(transfer.ExplicitVRLittleEndian))
	data = append(data, explicitElement(tag.PatientName, vr.PN, pad("Doe^Jane"))...)

	r := NewReader(ReaderConfig{})
	parts, err := r.Feed(data, true)
	require.NoError(t, err)
	require.Len(t, parts, 4)

	require.Equal(t, part.KindFilePreambleAndDICMPrefix, parts[0].Kind)
	require.Len(t, parts[0].Preamble, 128)

	require.Equal(t, part.KindFileMetaInformation, parts[1].Kind)
	tsVal, ok := parts[1].FileMeta.Get(tag.TransferSyntaxUID)
	require.True(t, ok)
	s, err := tsVal.String()
	require.NoError(t, err)
	require.Equal(t, string(transfer.ExplicitVRLittleEndian), s)

	require.Equal(t, part.KindDataElementHeader, parts[2].Kind)
	require.Equal(t, tag.PatientName, parts[2].Tag)

	require.Equal(t, part.KindDataElementValueBytes, parts[3].Kind)
	require.Equal(t, []byte("Doe^Jane"), parts[3].Bytes)
}

func TestReaderFeedInChunksSuspendsWithoutError(t *testing.T) {
	full := fileMetaBytes(string(transfer.ImplicitVRLittleEndian))
	full = append(full, implicitElement(tag.PatientName, pad("Doe^Jane"))...)

	r := NewReader(ReaderConfig{})
	var all []part.Part
	for i := 0; i < len(full); i++ {
		done := i == len(full)-1
		parts, err := r.Feed(full[i:i+1], done)
		require.NoError(t, err)
		all = append(all, parts...)
	}
	require.Equal(t, part.KindFilePreambleAndDICMPrefix, all[0].Kind)
	require.Equal(t, part.KindFileMetaInformation, all[1].Kind)
	require.Equal(t, part.KindDataElementHeader, all[2].Kind)
	require.Equal(t, part.KindDataElementValueBytes, all[3].Kind)
	require.Equal(t, part.KindEnd, all[4].Kind)
}

func TestReaderSequenceWithOneEmptyItem(t *testing.T) {
	seqTag := tag.New(0x0040, 0x0275)
	data := fileMetaBytes(string(transfer.ExplicitVRLittleEndian))
	data = append(data, explicitElementUndefinedLength(seqTag, vr.SQ)...)
	data = append(data, itemBytes(nil)...)                             // empty item, defined length 0
	data = append(data, delimiterBytes(tag.SequenceDelimitationItem)...) // closes the sequence

	r := NewReader(ReaderConfig{})
	parts, err := r.Feed(data, true)
	require.NoError(t, err)

	require.Equal(t, part.KindFilePreambleAndDICMPrefix, parts[0].Kind)
	require.Equal(t, part.KindFileMetaInformation, parts[1].Kind)
	require.Equal(t, part.KindSequenceStart, parts[2].Kind)
	require.Equal(t, seqTag, parts[2].Tag)
	require.Equal(t, part.KindSequenceItemStart, parts[3].Kind)
	require.Equal(t, part.KindSequenceItemDelimiter, parts[4].Kind)
	require.Equal(t, part.KindSequenceDelimiter, parts[5].Kind)
	require.Equal(t, part.KindEnd, parts[6].Kind)
}

func TestReaderEncapsulatedPixelData(t *testing.T) {
	data := fileMetaBytes(string(transfer.ExplicitVRLittleEndian))
	data = append(data, explicitElementUndefinedLength(tag.PixelData, vr.OB)...)
	data = append(data, itemBytes(nil)...)                                 // empty Basic Offset Table
	data = append(data, itemBytes([]byte{0xAA, 0xBB, 0xCC, 0xDD})...)      // one fragment
	data = append(data, delimiterBytes(tag.SequenceDelimitationItem)...)

	r := NewReader(ReaderConfig{})
	parts, err := r.Feed(data, true)
	require.NoError(t, err)

	require.Equal(t, part.KindFilePreambleAndDICMPrefix, parts[0].Kind)
	require.Equal(t, part.KindFileMetaInformation, parts[1].Kind)

	require.Equal(t, part.KindDataElementHeader, parts[2].Kind)
	require.Equal(t, tag.PixelData, parts[2].Tag)
	require.EqualValues(t, 0xFFFFFFFF, parts[2].Length)

	require.Equal(t, part.KindPixelDataItem, parts[3].Kind)
	require.EqualValues(t, 0, parts[3].Length)

	require.Equal(t, part.KindPixelDataItem, parts[4].Kind)
	require.EqualValues(t, 4, parts[4].Length)

	require.Equal(t, part.KindDataElementValueBytes, parts[5].Kind)
	require.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, parts[5].Bytes)

	require.Equal(t, part.KindSequenceDelimiter, parts[6].Kind)
	require.Equal(t, part.KindEnd, parts[7].Kind)
}

func TestReaderRejectsOutOfOrderTags(t *testing.T) {
	data := implicitElement(tag.PatientID, pad("123"))
	data = append(data, implicitElement(tag.PatientName, pad("Doe^Jane"))...) // PatientName (0010,0010) precedes PatientID (0010,0020)

	r := NewReader(ReaderConfig{})
	_, err := r.Feed(data, true)
	require.Error(t, err)
}

func TestReaderMaxFileMetaSizeExceeded(t *testing.T) {
	data := fileMetaBytes(string(transfer.ImplicitVRLittleEndian))

	r := NewReader(ReaderConfig{MaxFileMetaSize: 4})
	_, err := r.Feed(data, true)
	require.Error(t, err)
}

func TestReaderRejectsTextValueExceedingMaxStringSize(t *testing.T) {
	data := implicitElement(tag.PatientName, pad(strings.Repeat("A", 20)))

	r := NewReader(ReaderConfig{MaxStringSize: 8})
	_, err := r.Feed(data, true)
	require.Error(t, err)
}

func TestReaderAllowsTextValueWithinMaxStringSize(t *testing.T) {
	data := implicitElement(tag.PatientName, pad("Doe^Jane"))

	r := NewReader(ReaderConfig{MaxStringSize: 8})
	parts, err := r.Feed(data, true)
	require.NoError(t, err)
	require.Equal(t, part.KindDataElementValueBytes, parts[1].Kind)
}
