package p10

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/sanyexieai/dcmp10/pkg/dicom/part"
	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/transfer"
	"github.com/sanyexieai/dcmp10/pkg/dicom/value"
	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
	"github.com/sanyexieai/dcmp10/pkg/p10error"
)

// countingWriter wraps an io.Writer and counts bytes written, the way
// the teacher's CountingWriter does. The File Meta Information group
// length does not use this count; writeFileMetaInformation computes it
// from a temporary buffer.
type countingWriter struct {
	count  atomic.Int64
	writer io.Writer
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.writer.Write(p)
	if err == nil {
		c.count.Add(int64(n))
	}
	return n, err
}

// Writer is the streaming P10 encoder: the inverse of Reader. It
// consumes Part events in the order Reader (or a DataSetBuilder/
// transform pipeline) would produce them and writes P10 bytes.
// Sequences and items are always emitted with undefined length and an
// explicit delimiter, regardless of whether the Parts that produced
// them originated from a defined-length construct — this keeps the
// writer's output shape uniform no matter where the Parts came from.
type Writer struct {
	cfg WriterConfig
	cw  *countingWriter

	ts transfer.Syntax

	flateW *flate.Writer // non-nil once the transfer syntax is deflated

	frames []frameKind

	hasPending       bool
	pendingRemaining uint32
}

// NewWriter creates a Writer over w. The transfer syntax (and whether
// output is deflated) is taken from the FileMetaInformation Part; until
// that Part arrives, output is Explicit-VR-agnostic bytes written
// assuming transfer.Default.
func NewWriter(w io.Writer, cfg WriterConfig) *Writer {
	return &Writer{
		cfg: cfg,
		cw:  &countingWriter{writer: w},
		ts:  transfer.Default,
	}
}

func (wtr *Writer) out() io.Writer {
	if wtr.flateW != nil {
		return wtr.flateW
	}
	return wtr.cw
}

func (wtr *Writer) endianness() binary.ByteOrder {
	if wtr.ts.IsLittleEndian() {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// WriteAll writes every Part in order, returning the first error.
func (wtr *Writer) WriteAll(parts []part.Part) error {
	for _, p := range parts {
		if err := wtr.WritePart(p); err != nil {
			return err
		}
	}
	return nil
}

// WritePart writes the bytes for one Part.
func (wtr *Writer) WritePart(p part.Part) error {
	switch p.Kind {
	case part.KindFilePreambleAndDICMPrefix:
		return wtr.writePreamble(p)
	case part.KindFileMetaInformation:
		return wtr.writeFileMetaInformation(p)
	case part.KindDataElementHeader:
		return wtr.writeDataElementHeader(p)
	case part.KindDataElementValueBytes:
		return wtr.writeDataElementValueBytes(p)
	case part.KindSequenceStart:
		return wtr.writeSequenceStart(p)
	case part.KindSequenceDelimiter:
		return wtr.writeSequenceDelimiter()
	case part.KindSequenceItemStart:
		return wtr.writeSequenceItemStart()
	case part.KindSequenceItemDelimiter:
		return wtr.writeSequenceItemDelimiter()
	case part.KindPixelDataItem:
		return wtr.writePixelDataItem(p)
	case part.KindEnd:
		return wtr.writeEnd()
	default:
		return p10error.New(p10error.PartStreamInvalid, fmt.Sprintf("unknown part kind %d", p.Kind))
	}
}

func (wtr *Writer) writePreamble(p part.Part) error {
	if len(p.Preamble) != 128 {
		return p10error.New(p10error.PartStreamInvalid,
			fmt.Sprintf("preamble must be 128 bytes, got %d", len(p.Preamble)))
	}
	if _, err := wtr.cw.Write(p.Preamble); err != nil {
		return err
	}
	_, err := wtr.cw.Write([]byte("DICM"))
	return err
}

// writeFileMetaInformation encodes the group-0002 data set as Explicit
// VR Little Endian (always, regardless of the main data set's transfer
// syntax), computing and prepending the group-length element the way
// the teacher computes sequence-item length by encoding to a temporary
// buffer first.
func (wtr *Writer) writeFileMetaInformation(p part.Part) error {
	ds := p.FileMeta
	var body bytes.Buffer
	for _, e := range ds.Iterate() {
		if e.Tag.Equals(tag.FileMetaInformationGroupLength) {
			continue
		}
		if err := writeExplicitLEElement(&body, e.Tag, e.Value); err != nil {
			return err
		}
	}
	groupLength, err := value.NewUint32s(vr.UL, []uint32{uint32(body.Len())})
	if err != nil {
		return err
	}
	if err := writeExplicitLEElement(wtr.cw, tag.FileMetaInformationGroupLength, groupLength); err != nil {
		return err
	}
	if _, err := wtr.cw.Write(body.Bytes()); err != nil {
		return err
	}

	ts := transfer.Default
	if v, ok := ds.Get(tag.TransferSyntaxUID); ok {
		if s, err := v.String(); err == nil && s != "" {
			ts = transfer.FromUID(s)
		}
	}
	wtr.ts = ts
	if ts.IsDeflated() {
		wtr.flateW, err = flate.NewWriter(wtr.cw, flateLevel(wtr.cfg.ZlibCompressionLevel))
		if err != nil {
			return err
		}
	}
	return nil
}

func flateLevel(configured int) int {
	if configured == 0 {
		return flate.DefaultCompression
	}
	return configured
}

func writeExplicitLEElement(w io.Writer, t tag.Tag, v *value.DataElementValue) error {
	data := v.WireBytes()
	if err := writeHeader(w, binary.LittleEndian, true, t, v.VR(), uint32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// writeHeader writes one element header: tag, then (if explicit) VR
// and the length field of the width that VR dictates, or (if
// implicit) just the 4-byte length.
func writeHeader(w io.Writer, bo binary.ByteOrder, explicit bool, t tag.Tag, r vr.VR, length uint32) error {
	var buf [12]byte
	bo.PutUint16(buf[0:2], t.Group)
	bo.PutUint16(buf[2:4], t.Element)
	if !explicit {
		bo.PutUint32(buf[4:8], length)
		_, err := w.Write(buf[:8])
		return err
	}
	copy(buf[4:6], []byte(r))
	if r.HasLongLength() {
		bo.PutUint32(buf[8:12], length)
		_, err := w.Write(buf[:12])
		return err
	}
	if length != 0xFFFFFFFF && length > vr.MaxShortLength {
		return p10error.New(p10error.DataInvalid,
			fmt.Sprintf("length %d exceeds the 2-byte length field for VR %s", length, r)).WithTag(t)
	}
	bo.PutUint16(buf[6:8], uint16(length))
	_, err := w.Write(buf[:8])
	return err
}

func writeTagLength(w io.Writer, bo binary.ByteOrder, t tag.Tag, length uint32) error {
	var buf [8]byte
	bo.PutUint16(buf[0:2], t.Group)
	bo.PutUint16(buf[2:4], t.Element)
	bo.PutUint32(buf[4:8], length)
	_, err := w.Write(buf[:])
	return err
}

func (wtr *Writer) writeDataElementHeader(p part.Part) error {
	if err := writeHeader(wtr.out(), wtr.endianness(), wtr.ts.IsExplicitVR(), p.Tag, p.VR, p.Length); err != nil {
		return err
	}
	if p.Tag.Equals(tag.PixelData) && p.Length == 0xFFFFFFFF {
		wtr.frames = append(wtr.frames, framePixelData)
		return nil
	}
	if p.Length == 0xFFFFFFFF {
		return p10error.New(p10error.DataInvalid,
			"undefined length not permitted for a non-pixel-data element").WithTag(p.Tag)
	}
	wtr.hasPending = p.Length > 0
	wtr.pendingRemaining = p.Length
	return nil
}

// writeDataElementValueBytes writes value bytes verbatim: the writer
// does not re-validate a value it is handed, only encodes it. Bytes
// are re-swapped into the transfer syntax's word order when it is
// big-endian, the inverse of the reader's normalization to little
// endian.
func (wtr *Writer) writeDataElementValueBytes(p part.Part) error {
	if !wtr.hasPending && len(wtr.frames) == 0 {
		return p10error.New(p10error.PartStreamInvalid, "value bytes with no open element or pixel-data fragment")
	}
	out := append([]byte(nil), p.Bytes...)
	if !wtr.ts.IsLittleEndian() {
		swapWordsBigEndian(p.VR, out)
	}
	if _, err := wtr.out().Write(out); err != nil {
		return err
	}
	if wtr.hasPending {
		if uint32(len(p.Bytes)) > wtr.pendingRemaining {
			return p10error.New(p10error.PartStreamInvalid, "value bytes exceed the declared element length")
		}
		wtr.pendingRemaining -= uint32(len(p.Bytes))
		if wtr.pendingRemaining == 0 {
			wtr.hasPending = false
		}
	}
	return nil
}

func (wtr *Writer) writeSequenceStart(p part.Part) error {
	if err := writeHeader(wtr.out(), wtr.endianness(), wtr.ts.IsExplicitVR(), p.Tag, vr.SQ, 0xFFFFFFFF); err != nil {
		return err
	}
	wtr.frames = append(wtr.frames, frameSequence)
	return nil
}

func (wtr *Writer) writeSequenceItemStart() error {
	if err := writeTagLength(wtr.out(), wtr.endianness(), tag.Item, 0xFFFFFFFF); err != nil {
		return err
	}
	wtr.frames = append(wtr.frames, frameItem)
	return nil
}

func (wtr *Writer) writeSequenceItemDelimiter() error {
	if len(wtr.frames) == 0 || wtr.frames[len(wtr.frames)-1] != frameItem {
		return p10error.New(p10error.PartStreamInvalid, "item delimiter while innermost frame is not an item")
	}
	wtr.frames = wtr.frames[:len(wtr.frames)-1]
	return writeTagLength(wtr.out(), wtr.endianness(), tag.ItemDelimitationItem, 0)
}

func (wtr *Writer) writeSequenceDelimiter() error {
	if len(wtr.frames) == 0 {
		return p10error.New(p10error.PartStreamInvalid, "sequence delimiter with no open frame")
	}
	top := wtr.frames[len(wtr.frames)-1]
	if top != frameSequence && top != framePixelData {
		return p10error.New(p10error.PartStreamInvalid, "sequence delimiter while innermost frame is not a sequence or pixel data")
	}
	wtr.frames = wtr.frames[:len(wtr.frames)-1]
	return writeTagLength(wtr.out(), wtr.endianness(), tag.SequenceDelimitationItem, 0)
}

func (wtr *Writer) writePixelDataItem(p part.Part) error {
	if len(wtr.frames) == 0 || wtr.frames[len(wtr.frames)-1] != framePixelData {
		return p10error.New(p10error.PartStreamInvalid, "pixel data item outside an open encapsulated pixel-data element")
	}
	if err := writeTagLength(wtr.out(), wtr.endianness(), tag.Item, p.Length); err != nil {
		return err
	}
	wtr.hasPending = p.Length > 0
	wtr.pendingRemaining = p.Length
	return nil
}

func (wtr *Writer) writeEnd() error {
	if len(wtr.frames) != 0 {
		return p10error.New(p10error.PartStreamInvalid,
			fmt.Sprintf("%d sequence/item/pixel-data frame(s) still open at end of stream", len(wtr.frames)))
	}
	if wtr.flateW != nil {
		return wtr.flateW.Close()
	}
	return nil
}
