package dictionary

import (
	"testing"

	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
	"github.com/stretchr/testify/require"
)

func TestLookupStandardTag(t *testing.T) {
	e, ok := Lookup(tag.PatientName, "")
	require.True(t, ok)
	require.Equal(t, vr.PN, e.VR)
	require.Equal(t, "PatientName", e.Keyword)
}

func TestLookupUnknownTagFails(t *testing.T) {
	_, ok := Lookup(tag.New(0x0009, 0x9999), "")
	require.False(t, ok)
}

func TestLookupPrivateElementByCreator(t *testing.T) {
	// Block 0x10, offset 0x01 under creator "SGI-DICOS-2007": element is
	// the block number in the high byte, offset in the low byte.
	private := tag.New(0x0009, 0x1001)
	e, ok := Lookup(private, "SGI-DICOS-2007")
	require.True(t, ok)
	require.Equal(t, vr.CS, e.VR)
	require.Contains(t, e.Keyword, "ObjectOfInspectionType")
}

func TestLookupPrivateWithWrongCreatorFails(t *testing.T) {
	private := tag.New(0x0009, 0x1001)
	_, ok := Lookup(private, "SOME-OTHER-VENDOR")
	require.False(t, ok)
}

func TestTagNameFallsBackToBareTag(t *testing.T) {
	name := TagName(tag.New(0x0008, 0x9999), "")
	require.Equal(t, "(0008,9999)", name)
}

func TestTagNamePrivateCreatorReservation(t *testing.T) {
	name := TagName(tag.New(0x0009, 0x0010), "")
	require.Contains(t, name, "PrivateCreator")
}

func TestVMString(t *testing.T) {
	require.Equal(t, "1", VM{1, 1}.String())
	require.Equal(t, "1-3", VM{1, 3}.String())
	require.Equal(t, "1-n", VM{1, 0}.String())
	require.True(t, VM{1, 0}.Unbounded())
}

func TestAllOrderedByDictionaryDefinition(t *testing.T) {
	all := All()
	require.NotEmpty(t, all)
	require.Equal(t, buildEntries(), all)
	_, ok := Lookup(all[0].Tag, "")
	require.True(t, ok)
}
