// Package builder implements DataSetBuilder (spec.md §4.5): consumes a
// Part stream and materializes it into a dataset.DataSet. Internal state
// is a stack of frames mirroring the one the P10 reader and writer each
// keep, generalized here from bytes-in/Parts-out to Parts-in/DataSet-out.
package builder

import (
	"fmt"

	"github.com/sanyexieai/dcmp10/pkg/dicom/dataset"
	"github.com/sanyexieai/dcmp10/pkg/dicom/part"
	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/value"
	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
	"github.com/sanyexieai/dcmp10/pkg/p10error"
)

type frameKind int

const (
	frameSequence frameKind = iota
	frameItem
	framePixelData
)

// frame is one entry of the builder's stack: a sequence accumulating
// items, an item accumulating elements, or an encapsulated pixel-data
// element accumulating fragments.
type frame struct {
	kind     frameKind
	ownerTag tag.Tag

	items []value.Sequence // frameSequence: items appended as they close
	ds    *dataset.DataSet // frameItem: the item's own data set

	fragments []value.Fragment // framePixelData

	pendingTag    tag.Tag // current element awaiting its value bytes
	pendingVR     vr.VR
	pendingBuffer []byte
	hasPending    bool
}

// DataSetBuilder accumulates a Part stream into a DataSet, the way the
// teacher's SequenceBuilder accumulates AddItem calls and reports
// accumulated errors from Build rather than failing eagerly mid-stream.
type DataSetBuilder struct {
	root    *dataset.DataSet
	frames  []frame
	done    bool
	fileMeta *dataset.DataSet

	errs []error
}

// New creates an empty DataSetBuilder.
func New() *DataSetBuilder {
	return &DataSetBuilder{root: dataset.New()}
}

// FileMeta returns the File Meta Information data set captured from a
// KindFileMetaInformation part, if one was seen.
func (b *DataSetBuilder) FileMeta() *dataset.DataSet {
	return b.fileMeta
}

// currentDataSet returns the data set that a just-completed value or
// sequence should be inserted into: the innermost open item's data set,
// or the root if no item is open.
func (b *DataSetBuilder) currentDataSet() *dataset.DataSet {
	for i := len(b.frames) - 1; i >= 0; i-- {
		if b.frames[i].kind == frameItem {
			return b.frames[i].ds
		}
	}
	return b.root
}

func (b *DataSetBuilder) top() *frame {
	if len(b.frames) == 0 {
		return nil
	}
	return &b.frames[len(b.frames)-1]
}

// Feed processes one Part, accumulating errors instead of stopping the
// stream, the way SequenceBuilder.AddItem accumulates per-item errors
// for Build to surface later. Feed itself still returns the first error
// encountered this call so a caller driving a pipeline can choose to
// stop early; Errors() returns the full accumulated list regardless.
func (b *DataSetBuilder) Feed(p part.Part) error {
	err := b.feed(p)
	if err != nil {
		b.errs = append(b.errs, err)
	}
	return err
}

func (b *DataSetBuilder) feed(p part.Part) error {
	if b.done {
		return p10error.New(p10error.PartStreamInvalid, "part received after End")
	}
	switch p.Kind {
	case part.KindFilePreambleAndDICMPrefix:
		return nil
	case part.KindFileMetaInformation:
		b.fileMeta = p.FileMeta
		return nil
	case part.KindDataElementHeader:
		return b.startElement(p)
	case part.KindDataElementValueBytes:
		return b.appendValueBytes(p)
	case part.KindSequenceStart:
		return b.startSequence(p)
	case part.KindSequenceItemStart:
		return b.startItem()
	case part.KindSequenceItemDelimiter:
		return b.endItem()
	case part.KindSequenceDelimiter:
		return b.endSequenceOrPixelData()
	case part.KindPixelDataItem:
		return b.startPixelDataItem(p)
	case part.KindEnd:
		return b.end()
	default:
		return p10error.New(p10error.PartStreamInvalid, fmt.Sprintf("unknown part kind %d", p.Kind))
	}
}

func (b *DataSetBuilder) startElement(p part.Part) error {
	f := b.top()
	if f != nil && f.kind == framePixelData {
		return p10error.New(p10error.PartStreamInvalid, "data element header inside encapsulated pixel data").WithTag(p.Tag)
	}
	if f != nil && f.kind == frameSequence {
		return p10error.New(p10error.PartStreamInvalid, "data element header directly under a sequence, expected an item").WithTag(p.Tag)
	}
	if f != nil && f.hasPending {
		return p10error.New(p10error.PartStreamInvalid, "new element header before prior value completed").WithTag(p.Tag)
	}
	if p.Length == 0xFFFFFFFF {
		if !p.Tag.Equals(tag.PixelData) {
			return p10error.New(p10error.DataInvalid, "undefined length not permitted for a non-pixel-data element").WithTag(p.Tag)
		}
		b.frames = append(b.frames, frame{kind: framePixelData, ownerTag: p.Tag, pendingVR: p.VR})
		return nil
	}
	if p.Length == 0 {
		v, err := value.NewBinary(p.VR, nil)
		if err != nil {
			return err
		}
		b.currentDataSet().Insert(p.Tag, v)
		return nil
	}
	if f == nil {
		b.frames = append(b.frames, frame{kind: frameItem, ds: b.root})
		f = b.top()
		// root sentinel frame is never popped by SequenceItemDelimiter;
		// it exists only to host pendingTag/pendingBuffer uniformly.
	}
	f.pendingTag = p.Tag
	f.pendingVR = p.VR
	f.pendingBuffer = f.pendingBuffer[:0]
	f.hasPending = true
	return nil
}

func (b *DataSetBuilder) appendValueBytes(p part.Part) error {
	f := b.top()
	if f == nil {
		return p10error.New(p10error.PartStreamInvalid, "value bytes with no open element")
	}
	if f.kind == framePixelData {
		f.pendingBuffer = append(f.pendingBuffer, p.Bytes...)
		if p.BytesRemaining == 0 {
			f.fragments = append(f.fragments, value.Fragment{Data: append([]byte(nil), f.pendingBuffer...)})
			f.pendingBuffer = f.pendingBuffer[:0]
		}
		return nil
	}
	if !f.hasPending {
		return p10error.New(p10error.PartStreamInvalid, "value bytes with no open element")
	}
	f.pendingBuffer = append(f.pendingBuffer, p.Bytes...)
	if p.BytesRemaining != 0 {
		return nil
	}
	v, err := value.NewBinary(f.pendingVR, append([]byte(nil), f.pendingBuffer...))
	if err != nil {
		return err
	}
	ds := b.currentDataSet()
	ds.Insert(f.pendingTag, v)
	f.hasPending = false
	f.pendingBuffer = f.pendingBuffer[:0]
	b.popRootSentinelIfIdle()
	return nil
}

// popRootSentinelIfIdle removes the synthetic root item frame pushed by
// startElement once its pending value has been consumed and no real
// sequence/item frame is underneath it.
func (b *DataSetBuilder) popRootSentinelIfIdle() {
	if len(b.frames) != 1 {
		return
	}
	f := b.frames[0]
	if f.kind == frameItem && f.ds == b.root && !f.hasPending {
		b.frames = b.frames[:0]
	}
}

func (b *DataSetBuilder) startSequence(p part.Part) error {
	b.frames = append(b.frames, frame{kind: frameSequence, ownerTag: p.Tag})
	return nil
}

func (b *DataSetBuilder) startItem() error {
	f := b.top()
	if f == nil || f.kind != frameSequence {
		return p10error.New(p10error.PartStreamInvalid, "item start outside an open sequence")
	}
	b.frames = append(b.frames, frame{kind: frameItem, ds: dataset.New()})
	return nil
}

func (b *DataSetBuilder) endItem() error {
	if len(b.frames) < 2 {
		return p10error.New(p10error.PartStreamInvalid, "item delimiter with no open item")
	}
	f := b.top()
	if f.kind != frameItem {
		return p10error.New(p10error.PartStreamInvalid, "item delimiter while innermost frame is not an item")
	}
	item := f.ds
	b.frames = b.frames[:len(b.frames)-1]
	parent := b.top()
	if parent == nil || parent.kind != frameSequence {
		return p10error.New(p10error.PartStreamInvalid, "item closed outside a sequence frame")
	}
	parent.items = append(parent.items, item)
	return nil
}

func (b *DataSetBuilder) endSequenceOrPixelData() error {
	if len(b.frames) == 0 {
		return p10error.New(p10error.PartStreamInvalid, "sequence delimiter with no open frame")
	}
	f := b.top()
	switch f.kind {
	case frameSequence:
		v := value.NewSequence(f.items)
		owner := f.ownerTag
		b.frames = b.frames[:len(b.frames)-1]
		b.popRootSentinelIfIdle()
		ds := b.currentDataSet()
		ds.Insert(owner, v)
		return nil
	case framePixelData:
		v, err := value.NewEncapsulatedPixelData(f.pendingVR, f.fragments)
		if err != nil {
			return err
		}
		owner := f.ownerTag
		b.frames = b.frames[:len(b.frames)-1]
		b.popRootSentinelIfIdle()
		ds := b.currentDataSet()
		ds.Insert(owner, v)
		return nil
	default:
		return p10error.New(p10error.PartStreamInvalid, "sequence delimiter while innermost frame is not a sequence or pixel data")
	}
}

// startPixelDataItem begins one fragment of an encapsulated pixel-data
// element. The pixel-data frame itself is opened by startElement when it
// sees the element's undefined-length PixelData header; an item that
// arrives without that frame on top of the stack is a PartStreamInvalid
// error.
func (b *DataSetBuilder) startPixelDataItem(p part.Part) error {
	f := b.top()
	if f == nil || f.kind != framePixelData {
		return p10error.New(p10error.PartStreamInvalid, "pixel data item outside an open encapsulated pixel-data element")
	}
	f.pendingBuffer = f.pendingBuffer[:0]
	if p.Length == 0 {
		f.fragments = append(f.fragments, value.Fragment{})
	}
	return nil
}

func (b *DataSetBuilder) end() error {
	if len(b.frames) != 0 {
		return p10error.New(p10error.PartStreamInvalid,
			fmt.Sprintf("%d frame(s) still open at End", len(b.frames)))
	}
	b.done = true
	return nil
}

// IsComplete reports whether End has been received.
func (b *DataSetBuilder) IsComplete() bool {
	return b.done
}

// FinalDataSet returns the root data set. It does not detach it from the
// builder: every call returns the same *dataset.DataSet, and Parts fed
// afterwards still modify it.
func (b *DataSetBuilder) FinalDataSet() *dataset.DataSet {
	return b.root
}

// Errors returns every error accumulated by Feed, in order.
func (b *DataSetBuilder) Errors() []error {
	return b.errs
}
