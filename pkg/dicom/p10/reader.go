package p10

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/sanyexieai/dcmp10/pkg/bytestream"
	"github.com/sanyexieai/dcmp10/pkg/dicom/charset"
	"github.com/sanyexieai/dcmp10/pkg/dicom/dataset"
	"github.com/sanyexieai/dcmp10/pkg/dicom/dictionary"
	"github.com/sanyexieai/dcmp10/pkg/dicom/part"
	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/transfer"
	"github.com/sanyexieai/dcmp10/pkg/dicom/value"
	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
	"github.com/sanyexieai/dcmp10/pkg/p10error"
)

type readerState int

const (
	stateFilePreamble readerState = iota
	stateFileMeta
	stateDataSet
	stateDone
)

// fmiState accumulates the File Meta Information group (0002) one
// element at a time, counting down from the declared group length.
type fmiState struct {
	ds               *dataset.DataSet
	groupLengthKnown bool
	remaining        uint32
}

func newFMIState() *fmiState {
	return &fmiState{ds: dataset.New()}
}

// pendingValueState tracks the in-flight chunked read of one primitive
// element's value or one pixel-data fragment's bytes.
type pendingValueState struct {
	tag       tag.Tag
	vr        vr.VR
	remaining uint32

	capture    []byte
	onComplete func([]byte)
}

// Reader is the streaming P10 decoder: Feed pushes bytes in, and it
// returns the Parts (spec.md §3) those bytes made decodable. It never
// blocks; when the next Part needs bytes that have not arrived yet,
// Feed returns cleanly with whatever Parts it could produce, and the
// caller resumes by feeding more. Every internal step Peeks the exact
// byte count it is about to consume before calling Read, so a step that
// suspends on DataRequired never leaves a partial read behind to make
// the next Feed call inconsistent.
type Reader struct {
	cfg     ReaderConfig
	bs      *bytestream.ByteStream
	decoder charset.Decoder

	state readerState
	ts    transfer.Syntax

	fmi *fmiState

	frames               []frame
	rootHasLastTag       bool
	rootLastTag          tag.Tag
	rootPrivateCreators  map[uint16]string
	specificCharacterSet string

	pendingValue *pendingValueState
}

// NewReader creates a Reader that assumes text values are already
// UTF-8 (charset.Identity); use NewReaderWithDecoder to plug in real
// character-set translation.
func NewReader(cfg ReaderConfig) *Reader {
	return NewReaderWithDecoder(cfg, charset.Identity{})
}

// NewReaderWithDecoder creates a Reader using decoder to normalize
// text-VR bytes to UTF-8 (spec.md §1, §4.2).
func NewReaderWithDecoder(cfg ReaderConfig, decoder charset.Decoder) *Reader {
	c := cfg.withDefaults()
	return &Reader{
		cfg:                 c,
		bs:                  bytestream.NewWithMaxReadSize(c.MaxReadSize),
		decoder:             decoder,
		state:               stateFilePreamble,
		ts:                  transfer.Default,
		rootPrivateCreators: map[uint16]string{},
	}
}

// Feed writes data to the reader's input and decodes as many Parts as
// the currently buffered bytes allow. done marks end of input: once
// set, a suspend that would otherwise be DataRequired becomes a fatal
// DataEnd instead, since no more bytes are ever coming.
func (r *Reader) Feed(data []byte, done bool) ([]part.Part, error) {
	if err := r.bs.Write(data, done); err != nil {
		return nil, err
	}
	var out []part.Part
	for r.state != stateDone {
		p, err := r.step()
		if err != nil {
			if p10error.IsDataRequired(err) {
				break
			}
			return out, err
		}
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *Reader) step() (*part.Part, error) {
	switch r.state {
	case stateFilePreamble:
		return r.stepPreamble()
	case stateFileMeta:
		return r.stepFileMeta()
	case stateDataSet:
		return r.stepDataSet()
	default:
		return nil, nil
	}
}

func (r *Reader) endianness() binary.ByteOrder {
	if r.ts.IsLittleEndian() {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// stepPreamble detects the 128-byte preamble plus "DICM" magic. When
// the next 132 bytes are not that magic — either because the stream
// ended first, or because the bytes simply don't match — nothing is
// consumed (only Peek was used) and the reader falls through straight
// into data-set decoding under the default transfer syntax, which is
// the correct behavior for a bare data set with no File Meta
// Information at all.
func (r *Reader) stepPreamble() (*part.Part, error) {
	peeked, err := r.bs.Peek(132)
	if err != nil {
		if e, ok := err.(*p10error.Error); ok && e.Kind == p10error.DataEnd {
			r.state = stateDataSet
			r.ts = transfer.Default
			return nil, nil
		}
		return nil, err
	}
	if string(peeked[128:132]) != "DICM" {
		r.state = stateDataSet
		r.ts = transfer.Default
		return nil, nil
	}
	if _, err := r.bs.Read(132); err != nil {
		return nil, err
	}
	preamble := append([]byte(nil), peeked[:128]...)
	r.state = stateFileMeta
	r.fmi = newFMIState()
	p := part.FilePreambleAndDICMPrefix(preamble)
	return &p, nil
}

// stepFileMeta decodes one File Meta Information element per call,
// always Explicit VR Little Endian regardless of the main data set's
// transfer syntax, and emits a single FileMetaInformation Part once the
// declared group length has been consumed.
func (r *Reader) stepFileMeta() (*part.Part, error) {
	t, val, consumed, err := r.decodeExplicitLEElement()
	if err != nil {
		return nil, err
	}
	if !r.fmi.groupLengthKnown {
		if !t.Equals(tag.FileMetaInformationGroupLength) {
			return nil, p10error.New(p10error.DataInvalid,
				"first file meta element must be FileMetaInformationGroupLength").WithTag(t)
		}
		ul, err := val.Uint32s()
		if err != nil || len(ul) != 1 {
			return nil, p10error.New(p10error.DataInvalid, "invalid group length value").WithTag(t)
		}
		if ul[0] > r.cfg.MaxFileMetaSize {
			return nil, p10error.Maximum(p10error.MaxFileMetaSize,
				fmt.Sprintf("file meta group length %d exceeds max_file_meta_size %d", ul[0], r.cfg.MaxFileMetaSize))
		}
		r.fmi.groupLengthKnown = true
		r.fmi.remaining = ul[0]
		if r.fmi.remaining == 0 {
			return r.finishFileMeta()
		}
		return nil, nil
	}
	if uint32(consumed) > r.fmi.remaining {
		return nil, p10error.New(p10error.DataInvalid,
			"file meta element overruns declared group length").WithTag(t)
	}
	r.fmi.ds.Insert(t, val)
	r.fmi.remaining -= uint32(consumed)
	if r.fmi.remaining == 0 {
		return r.finishFileMeta()
	}
	return nil, nil
}

func (r *Reader) finishFileMeta() (*part.Part, error) {
	ts := transfer.Default
	if v, ok := r.fmi.ds.Get(tag.TransferSyntaxUID); ok {
		if s, err := v.String(); err == nil && s != "" {
			ts = transfer.FromUID(s)
		}
	}
	r.ts = ts
	r.state = stateDataSet
	if ts.IsDeflated() {
		if err := r.bs.StartInflate(); err != nil {
			return nil, err
		}
	}
	p := part.FileMetaInformation(r.fmi.ds)
	r.fmi = nil
	return &p, nil
}

// decodeExplicitLEElement atomically decodes one fully-materialized
// Explicit VR Little Endian element: it Peeks the whole header+value
// span before consuming any of it, so a suspend here never partially
// drains the stream. Used only for File Meta Information, which this
// module always fully materializes rather than streaming in chunks.
func (r *Reader) decodeExplicitLEElement() (tag.Tag, *value.DataElementValue, int, error) {
	head, err := r.bs.Peek(8)
	if err != nil {
		return tag.Tag{}, nil, 0, err
	}
	t := tag.New(binary.LittleEndian.Uint16(head[0:2]), binary.LittleEndian.Uint16(head[2:4]))
	vrStr := vr.VR(head[4:6])
	if !vr.Valid(string(vrStr)) {
		return tag.Tag{}, nil, 0, p10error.New(p10error.DataInvalid,
			fmt.Sprintf("unknown VR %q in file meta information", vrStr)).WithTag(t)
	}
	var headerSize int
	var length uint32
	if vrStr.HasLongLength() {
		full, err := r.bs.Peek(12)
		if err != nil {
			return tag.Tag{}, nil, 0, err
		}
		length = binary.LittleEndian.Uint32(full[8:12])
		headerSize = 12
	} else {
		length = uint32(binary.LittleEndian.Uint16(head[6:8]))
		headerSize = 8
	}
	if length == 0xFFFFFFFF {
		return tag.Tag{}, nil, 0, p10error.New(p10error.DataInvalid,
			"undefined length not permitted in file meta information").WithTag(t)
	}
	total := headerSize + int(length)
	full, err := r.bs.Peek(total)
	if err != nil {
		return tag.Tag{}, nil, 0, err
	}
	if _, err := r.bs.Read(total); err != nil {
		return tag.Tag{}, nil, 0, err
	}
	val, err := value.NewBinary(vrStr, append([]byte(nil), full[headerSize:]...))
	if err != nil {
		return tag.Tag{}, nil, 0, err
	}
	return t, val, total, nil
}

// stepDataSet drives the main data set state machine: it closes any
// frame whose declared length has been reached, emits pending value
// bytes, signals end of input at the root level, and otherwise decodes
// the next tag and dispatches into a delimiter/item, a sequence, an
// encapsulated pixel-data element, or a plain primitive element.
func (r *Reader) stepDataSet() (*part.Part, error) {
	if r.pendingValue != nil {
		return r.emitValueChunk()
	}
	if f, ok := r.topFrame(); ok && f.hasEndOffset && r.bs.BytesRead() >= f.endOffset {
		return r.closeFrame()
	}
	if len(r.frames) == 0 {
		if r.bs.IsFullyConsumed() {
			r.state = stateDone
			p := part.End()
			return &p, nil
		}
	}
	head, err := r.bs.Peek(4)
	if err != nil {
		if e, ok := err.(*p10error.Error); ok && e.Kind == p10error.DataEnd && len(r.frames) == 0 {
			r.state = stateDone
			p := part.End()
			return &p, nil
		}
		return nil, err
	}
	t := r.decodeTag(head)

	if t.Group == 0xFFFE {
		return r.stepDelimiterOrItem(t)
	}

	if err := r.checkOrder(t); err != nil {
		return nil, err
	}

	resolvedVR, length, headerSize, err := r.peekElementHeader(t)
	if err != nil {
		return nil, err
	}

	switch {
	case t.Equals(tag.PixelData) && length == 0xFFFFFFFF:
		return r.openPixelData(t, headerSize)
	case resolvedVR.IsSequence() || (length == 0xFFFFFFFF && resolvedVR == vr.UN):
		return r.openSequence(t, length, headerSize)
	default:
		return r.emitElement(t, resolvedVR, length, headerSize)
	}
}

func (r *Reader) decodeTag(b []byte) tag.Tag {
	bo := r.endianness()
	return tag.New(bo.Uint16(b[0:2]), bo.Uint16(b[2:4]))
}

// peekElementHeader inspects, without consuming, the next element's VR
// (read off the wire under explicit VR, resolved from the dictionary
// under implicit VR), declared length, and total header width.
func (r *Reader) peekElementHeader(t tag.Tag) (vr.VR, uint32, int, error) {
	bo := r.endianness()
	if r.ts.IsExplicitVR() {
		head, err := r.bs.Peek(6)
		if err != nil {
			return "", 0, 0, err
		}
		vrStr := vr.VR(head[4:6])
		if !vr.Valid(string(vrStr)) {
			return "", 0, 0, p10error.New(p10error.DataInvalid,
				fmt.Sprintf("unknown VR %q", vrStr)).WithTag(t)
		}
		if vrStr.HasLongLength() {
			full, err := r.bs.Peek(12)
			if err != nil {
				return "", 0, 0, err
			}
			return vrStr, bo.Uint32(full[8:12]), 12, nil
		}
		return vrStr, uint32(bo.Uint16(head[6:8])), 8, nil
	}
	head, err := r.bs.Peek(8)
	if err != nil {
		return "", 0, 0, err
	}
	length := bo.Uint32(head[4:8])
	return r.resolveImplicitVR(t), length, 8, nil
}

func (r *Reader) resolveImplicitVR(t tag.Tag) vr.VR {
	creator := ""
	if block, ok := t.PrivateBlock(); ok {
		creator = r.currentScope()[block]
	}
	if e, ok := dictionary.Lookup(t, creator); ok {
		return e.VR
	}
	return vr.UN
}

// emitElement consumes one primitive element's header and emits its
// DataElementHeader Part, arranging for its value bytes to be streamed
// out by subsequent steps via pendingValue.
func (r *Reader) emitElement(t tag.Tag, resolvedVR vr.VR, length uint32, headerSize int) (*part.Part, error) {
	if _, err := r.bs.Read(headerSize); err != nil {
		return nil, err
	}
	r.setLastTag(t)
	if length == 0xFFFFFFFF {
		return nil, p10error.New(p10error.DataInvalid,
			"undefined length not permitted for a non-sequence, non-pixel-data element").WithTag(t)
	}
	if resolvedVR.IsText() && length > r.cfg.MaxStringSize {
		return nil, p10error.Maximum(p10error.MaxStringSize,
			fmt.Sprintf("text value length %d exceeds max_string_size %d", length, r.cfg.MaxStringSize)).WithTag(t)
	}
	if length > 0 {
		pv := &pendingValueState{tag: t, vr: resolvedVR, remaining: length}
		switch {
		case t.Equals(tag.SpecificCharacterSet):
			pv.onComplete = func(data []byte) {
				r.specificCharacterSet = strings.TrimRight(string(data), " \x00")
			}
		case t.IsPrivateCreator():
			block := t.Element
			scope := r.currentScope()
			pv.onComplete = func(data []byte) {
				scope[block] = strings.TrimRight(string(data), " \x00")
			}
		}
		r.pendingValue = pv
	}
	p := part.DataElementHeader(t, resolvedVR, length)
	return &p, nil
}

// emitValueChunk streams out up to MaxPartSize bytes of the current
// pending value, normalizing big-endian fixed-width words and running
// text VRs through the configured TextDecoder.
func (r *Reader) emitValueChunk() (*part.Part, error) {
	pv := r.pendingValue
	chunk := pv.remaining
	if chunk > r.cfg.MaxPartSize {
		chunk = r.cfg.MaxPartSize
	}
	data, err := r.bs.Read(int(chunk))
	if err != nil {
		return nil, err
	}
	out := append([]byte(nil), data...)
	if !r.ts.IsLittleEndian() {
		swapWordsBigEndian(pv.vr, out)
	}
	if pv.vr.IsText() {
		decoded, err := r.decoder.Decode(out, r.specificCharacterSet)
		if err != nil {
			return nil, p10error.Wrap(p10error.DataInvalid, err).WithTag(pv.tag)
		}
		out = decoded
	}
	if pv.onComplete != nil {
		pv.capture = append(pv.capture, out...)
	}
	pv.remaining -= chunk
	remaining := pv.remaining
	if remaining == 0 {
		if pv.onComplete != nil {
			pv.onComplete(pv.capture)
		}
		r.pendingValue = nil
	}
	p := part.DataElementValueBytes(pv.vr, out, remaining)
	return &p, nil
}

// swapWordsBigEndian reverses the byte order of each fixed-width word
// in data in place, for the VRs whose wire representation under a
// big-endian transfer syntax is word-swapped relative to this module's
// internal little-endian storage (value.DataElementValue's accessors
// all assume little-endian bytes).
func swapWordsBigEndian(v vr.VR, data []byte) {
	var wordSize int
	switch v {
	case vr.AT, vr.US, vr.SS, vr.OW:
		wordSize = 2
	case vr.UL, vr.SL, vr.FL:
		wordSize = 4
	case vr.FD, vr.SV, vr.UV:
		wordSize = 8
	default:
		return
	}
	for i := 0; i+wordSize <= len(data); i += wordSize {
		for a, b := i, i+wordSize-1; a < b; a, b = a+1, b-1 {
			data[a], data[b] = data[b], data[a]
		}
	}
}

// stepDelimiterOrItem decodes one FFFE-group tag: an item start, an
// item delimiter, or a sequence delimiter (the last also closes an
// encapsulated pixel-data fragment list, which shares the same
// delimiter tag).
func (r *Reader) stepDelimiterOrItem(t tag.Tag) (*part.Part, error) {
	head, err := r.bs.Peek(8)
	if err != nil {
		return nil, err
	}
	length := r.endianness().Uint32(head[4:8])
	switch t.Element {
	case tag.ItemDelimitationItem.Element:
		if _, err := r.bs.Read(8); err != nil {
			return nil, err
		}
		return r.closeFrameExplicit(frameItem)
	case tag.SequenceDelimitationItem.Element:
		if _, err := r.bs.Read(8); err != nil {
			return nil, err
		}
		return r.closeFrameExplicit(frameSequence)
	case tag.Item.Element:
		if _, err := r.bs.Read(8); err != nil {
			return nil, err
		}
		return r.openItemOrFragment(length)
	default:
		return nil, p10error.New(p10error.DataInvalid,
			fmt.Sprintf("unexpected tag %s in data set", t)).WithTag(t)
	}
}

func (r *Reader) openItemOrFragment(length uint32) (*part.Part, error) {
	top, ok := r.topFrame()
	if !ok {
		return nil, p10error.New(p10error.PartStreamInvalid, "item tag outside any open sequence or pixel data")
	}
	switch top.kind {
	case frameSequence:
		return r.openItem(length)
	case framePixelData:
		if length > 0 {
			r.pendingValue = &pendingValueState{tag: tag.Item, vr: vr.OB, remaining: length}
		}
		p := part.PixelDataItem(length)
		return &p, nil
	default:
		return nil, p10error.New(p10error.PartStreamInvalid, "item tag while innermost frame is not a sequence or pixel data")
	}
}

func (r *Reader) openItem(length uint32) (*part.Part, error) {
	if len(r.frames)+1 > r.cfg.MaxSequenceDepth {
		return nil, p10error.Maximum(p10error.MaxSequenceDepth,
			fmt.Sprintf("nesting depth exceeds max_sequence_depth %d", r.cfg.MaxSequenceDepth))
	}
	f := frame{kind: frameItem, privateCreators: map[uint16]string{}}
	if length != 0xFFFFFFFF {
		f.hasEndOffset = true
		f.endOffset = r.bs.BytesRead() + int64(length)
	}
	r.frames = append(r.frames, f)
	p := part.SequenceItemStart()
	return &p, nil
}

func (r *Reader) openSequence(t tag.Tag, length uint32, headerSize int) (*part.Part, error) {
	if _, err := r.bs.Read(headerSize); err != nil {
		return nil, err
	}
	r.setLastTag(t)
	if len(r.frames)+1 > r.cfg.MaxSequenceDepth {
		return nil, p10error.Maximum(p10error.MaxSequenceDepth,
			fmt.Sprintf("nesting depth exceeds max_sequence_depth %d", r.cfg.MaxSequenceDepth)).WithTag(t)
	}
	f := frame{kind: frameSequence, ownerTag: t}
	if length != 0xFFFFFFFF {
		f.hasEndOffset = true
		f.endOffset = r.bs.BytesRead() + int64(length)
	}
	r.frames = append(r.frames, f)
	p := part.SequenceStart(t, vr.SQ)
	return &p, nil
}

func (r *Reader) openPixelData(t tag.Tag, headerSize int) (*part.Part, error) {
	if _, err := r.bs.Read(headerSize); err != nil {
		return nil, err
	}
	r.setLastTag(t)
	f := frame{kind: framePixelData, ownerTag: t}
	r.frames = append(r.frames, f)
	p := part.DataElementHeader(t, vr.OB, 0xFFFFFFFF)
	return &p, nil
}

// closeFrame pops the innermost frame because its declared length has
// been reached, synthesizing the delimiter Part a wire-level
// undefined-length construct would have produced.
func (r *Reader) closeFrame() (*part.Part, error) {
	f := r.frames[len(r.frames)-1]
	r.frames = r.frames[:len(r.frames)-1]
	if f.kind == frameItem {
		p := part.SequenceItemDelimiter()
		return &p, nil
	}
	p := part.SequenceDelimiter()
	return &p, nil
}

// closeFrameExplicit pops the innermost frame because a literal
// delimiter tag was read off the wire, verifying it matches the kind
// of frame actually open.
func (r *Reader) closeFrameExplicit(expectedKind frameKind) (*part.Part, error) {
	top, ok := r.topFrame()
	if !ok {
		return nil, p10error.New(p10error.PartStreamInvalid, "delimiter with no open frame")
	}
	if expectedKind == frameSequence && top.kind != frameSequence && top.kind != framePixelData {
		return nil, p10error.New(p10error.PartStreamInvalid, "sequence delimiter while innermost frame is not a sequence or pixel data")
	}
	if expectedKind == frameItem && top.kind != frameItem {
		return nil, p10error.New(p10error.PartStreamInvalid, "item delimiter while innermost frame is not an item")
	}
	r.frames = r.frames[:len(r.frames)-1]
	if top.kind == frameItem {
		p := part.SequenceItemDelimiter()
		return &p, nil
	}
	p := part.SequenceDelimiter()
	return &p, nil
}

func (r *Reader) topFrame() (*frame, bool) {
	if len(r.frames) == 0 {
		return nil, false
	}
	return &r.frames[len(r.frames)-1], true
}

func (r *Reader) topItemFrame() *frame {
	for i := len(r.frames) - 1; i >= 0; i-- {
		if r.frames[i].kind == frameItem {
			return &r.frames[i]
		}
	}
	return nil
}

func (r *Reader) currentScope() map[uint16]string {
	if f := r.topItemFrame(); f != nil {
		return f.privateCreators
	}
	return r.rootPrivateCreators
}

// checkOrder enforces strictly ascending tag order within the
// innermost data-set scope (an item, or the root if no item is open).
func (r *Reader) checkOrder(t tag.Tag) error {
	if r.cfg.AllowUnorderedTags {
		return nil
	}
	if f := r.topItemFrame(); f != nil {
		if f.hasLastTag && !f.lastTag.Less(t) {
			return p10error.New(p10error.InvalidOrder,
				fmt.Sprintf("tag %s does not strictly follow %s", t, f.lastTag)).WithTag(t)
		}
		return nil
	}
	if r.rootHasLastTag && !r.rootLastTag.Less(t) {
		return p10error.New(p10error.InvalidOrder,
			fmt.Sprintf("tag %s does not strictly follow %s", t, r.rootLastTag)).WithTag(t)
	}
	return nil
}

func (r *Reader) setLastTag(t tag.Tag) {
	if f := r.topItemFrame(); f != nil {
		f.lastTag = t
		f.hasLastTag = true
		return
	}
	r.rootLastTag = t
	r.rootHasLastTag = true
}
