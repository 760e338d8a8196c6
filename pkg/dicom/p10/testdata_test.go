package p10

import (
	"encoding/binary"

	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
)

// The helpers in this file hand-encode P10 byte sequences independently
// of the reader/writer under test, so the tests exercise the decoder
// against wire bytes built from first principles rather than bytes the
// encoder itself produced.

func tagBytes(t tag.Tag) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint16(b[0:2], t.Group)
	binary.LittleEndian.PutUint16(b[2:4], t.Element)
	return b
}

func explicitElement(t tag.Tag, r vr.VR, value []byte) []byte {
	out := tagBytes(t)
	out = append(out, []byte(r)...)
	if r.HasLongLength() {
		out = append(out, 0, 0) // reserved
		lenBuf := make([]byte, 4)
		binary.LittleEndian.PutUint32(lenBuf, uint32(len(value)))
		out = append(out, lenBuf...)
	} else {
		lenBuf := make([]byte, 2)
		binary.LittleEndian.PutUint16(lenBuf, uint16(len(value)))
		out = append(out, lenBuf...)
	}
	out = append(out, value...)
	return out
}

func explicitElementUndefinedLength(t tag.Tag, r vr.VR) []byte {
	out := tagBytes(t)
	out = append(out, []byte(r)...)
	out = append(out, 0, 0) // reserved
	lenBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBuf, 0xFFFFFFFF)
	return append(out, lenBuf...)
}

func implicitElement(t tag.Tag, value []byte) []byte {
	out := tagBytes(t)
	lenBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBuf, uint32(len(value)))
	out = append(out, lenBuf...)
	return append(out, value...)
}

func itemBytes(value []byte) []byte {
	out := tagBytes(tag.Item)
	lenBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBuf, uint32(len(value)))
	out = append(out, lenBuf...)
	return append(out, value...)
}

func delimiterBytes(t tag.Tag) []byte {
	out := tagBytes(t)
	return append(out, 0, 0, 0, 0)
}

func pad(s string) []byte {
	b := []byte(s)
	if len(b)%2 != 0 {
		b = append(b, ' ')
	}
	return b
}

func padNUL(s string) []byte {
	b := []byte(s)
	if len(b)%2 != 0 {
		b = append(b, 0)
	}
	return b
}

// fileMetaBytes builds a preamble + "DICM" + a group-0002 File Meta
// Information block carrying exactly a TransferSyntaxUID element.
func fileMetaBytes(transferSyntaxUID string) []byte {
	tsElem := explicitElement(tag.TransferSyntaxUID, vr.UI, padNUL(transferSyntaxUID))
	groupLengthValue := make([]byte, 4)
	binary.LittleEndian.PutUint32(groupLengthValue, uint32(len(tsElem)))
	glElem := explicitElement(tag.FileMetaInformationGroupLength, vr.UL, groupLengthValue)

	out := make([]byte, 128)
	out = append(out, []byte("DICM")...)
	out = append(out, glElem...)
	out = append(out, tsElem...)
	return out
}
