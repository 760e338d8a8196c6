package transform

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sanyexieai/dcmp10/pkg/dicom/part"
	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
	"github.com/stretchr/testify/require"
)

func TestPrintTransformRendersElementLine(t *testing.T) {
	var buf bytes.Buffer
	pt := NewPrintTransform(&buf, PrintOptions{})

	stepAll(t, pt.Step, []part.Part{
		part.DataElementHeader(tag.PatientName, vr.PN, 8),
		part.DataElementValueBytes(vr.PN, []byte("Doe^Jane"), 0),
		part.End(),
	})

	out := buf.String()
	require.True(t, strings.Contains(out, "PatientName"))
	require.True(t, strings.Contains(out, "Doe^Jane"))
}

func TestPrintTransformIndentsSequenceItems(t *testing.T) {
	seqTag := tag.New(0x0040, 0x0275)
	var buf bytes.Buffer
	pt := NewPrintTransform(&buf, PrintOptions{})

	stepAll(t, pt.Step, []part.Part{
		part.SequenceStart(seqTag, vr.SQ),
		part.SequenceItemStart(),
		part.DataElementHeader(tag.PatientID, vr.LO, 4),
		part.DataElementValueBytes(vr.LO, []byte("123 "), 0),
		part.SequenceItemDelimiter(),
		part.SequenceDelimiter(),
		part.End(),
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	require.False(t, strings.HasPrefix(lines[0], " "))
	require.True(t, strings.HasPrefix(lines[1], "  "))
}

func TestPrintTransformTruncatesLongValues(t *testing.T) {
	var buf bytes.Buffer
	pt := NewPrintTransform(&buf, PrintOptions{MaxWidth: 10})

	long := strings.Repeat("a", 40)
	stepAll(t, pt.Step, []part.Part{
		part.DataElementHeader(tag.PatientID, vr.LO, uint32(len(long))),
		part.DataElementValueBytes(vr.LO, []byte(long), 0),
		part.End(),
	})

	out := buf.String()
	require.True(t, strings.Contains(out, "…"))
}
