// Package transform implements the Part-stream transforms of spec.md
// §4.6: FilterTransform, InsertTransform and PrintTransform. Each is a
// stateful Step(Part) ([]Part, error) pipeline stage, composing the way
// the teacher's Write/writeDataSetBody pipeline stages compose (collect,
// sort, re-encode) but operating on the streaming Part alphabet instead
// of a materialized Dataset.
package transform

import (
	"github.com/sanyexieai/dcmp10/pkg/dicom/builder"
	"github.com/sanyexieai/dcmp10/pkg/dicom/part"
	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
	"github.com/sanyexieai/dcmp10/pkg/p10error"
)

// LocationFrame is one ancestor in the stack passed to a Predicate: the
// sequence or encapsulated-pixel-data element enclosing the element
// currently being decided, and whether that ancestor was itself kept.
type LocationFrame struct {
	Tag  tag.Tag
	Kept bool
}

// Predicate decides whether one data element or sequence/pixel-data
// container passes the filter. location holds only ancestors (container
// frames), outermost first; it never includes the tag being decided.
type Predicate func(t tag.Tag, r vr.VR, location []LocationFrame) bool

type filterFrame struct {
	tag         tag.Tag
	isContainer bool
	kept        bool
}

// FilterTransform keeps or drops data elements (and whole sequence/
// pixel-data subtrees) per a Predicate. Descendants of a rejected
// container are dropped without the predicate being invoked again,
// per spec.md §4.6.
type FilterTransform struct {
	predicate Predicate

	frames []filterFrame
	loc    []LocationFrame

	pendingKept bool

	collect *builder.DataSetBuilder
}

// NewFilterTransform creates a FilterTransform applying predicate to
// every data element and sequence/pixel-data container whose ancestors
// were all kept, at the root and inside kept sequence items.
func NewFilterTransform(predicate Predicate) *FilterTransform {
	return &FilterTransform{predicate: predicate}
}

// Collect makes the transform additionally materialize every Part it
// emits into an internal DataSetBuilder, retrievable via Result once the
// stream completes — "collects kept elements into an internal
// DataSetBuilder to materialize a what-passed data set" (spec.md §4.6).
func (f *FilterTransform) Collect() *FilterTransform {
	f.collect = builder.New()
	return f
}

// Result returns the internal DataSetBuilder holding the "what passed"
// data set; its FinalDataSet gives the data set itself. Only meaningful
// after Collect was called and End has been stepped (nil without Collect).
func (f *FilterTransform) Result() *builder.DataSetBuilder {
	return f.collect
}

func (f *FilterTransform) parentKept() bool {
	return len(f.frames) == 0 || f.frames[len(f.frames)-1].kept
}

func (f *FilterTransform) emit(p part.Part) ([]part.Part, error) {
	if f.collect != nil {
		if err := f.collect.Feed(p); err != nil {
			return nil, err
		}
	}
	return []part.Part{p}, nil
}

// Step processes one Part, returning the Parts (zero or one, almost
// always) that should continue downstream.
func (f *FilterTransform) Step(p part.Part) ([]part.Part, error) {
	switch p.Kind {
	case part.KindFilePreambleAndDICMPrefix, part.KindFileMetaInformation:
		return f.emit(p)

	case part.KindDataElementHeader:
		if p.Length == 0xFFFFFFFF && p.Tag.Equals(tag.PixelData) {
			kept := f.parentKept() && f.predicate(p.Tag, p.VR, f.locCopy())
			f.frames = append(f.frames, filterFrame{tag: p.Tag, isContainer: true, kept: kept})
			if kept {
				f.loc = append(f.loc, LocationFrame{Tag: p.Tag, Kept: true})
				return f.emit(p)
			}
			return nil, nil
		}
		kept := f.parentKept() && f.predicate(p.Tag, p.VR, f.locCopy())
		f.pendingKept = kept
		if kept {
			return f.emit(p)
		}
		return nil, nil

	case part.KindDataElementValueBytes:
		top := f.topFrame()
		kept := f.pendingKept
		if top != nil && top.isContainer {
			kept = top.kept // pixel-data fragment bytes
		}
		if kept {
			return f.emit(p)
		}
		return nil, nil

	case part.KindSequenceStart:
		kept := f.parentKept() && f.predicate(p.Tag, p.VR, f.locCopy())
		f.frames = append(f.frames, filterFrame{tag: p.Tag, isContainer: true, kept: kept})
		if kept {
			f.loc = append(f.loc, LocationFrame{Tag: p.Tag, Kept: true})
			return f.emit(p)
		}
		return nil, nil

	case part.KindSequenceItemStart:
		kept := f.parentKept()
		f.frames = append(f.frames, filterFrame{isContainer: false, kept: kept})
		if kept {
			return f.emit(p)
		}
		return nil, nil

	case part.KindSequenceItemDelimiter:
		fr, err := f.pop(false)
		if err != nil {
			return nil, err
		}
		if fr.kept {
			return f.emit(p)
		}
		return nil, nil

	case part.KindSequenceDelimiter:
		fr, err := f.pop(true)
		if err != nil {
			return nil, err
		}
		if fr.kept {
			return f.emit(p)
		}
		return nil, nil

	case part.KindPixelDataItem:
		top := f.topFrame()
		kept := top != nil && top.kept
		f.pendingKept = kept
		if kept {
			return f.emit(p)
		}
		return nil, nil

	case part.KindEnd:
		if len(f.frames) != 0 {
			return nil, p10error.New(p10error.PartStreamInvalid, "End received with open frames in FilterTransform")
		}
		return f.emit(p)

	default:
		return nil, p10error.New(p10error.PartStreamInvalid, "unknown part kind in FilterTransform")
	}
}

func (f *FilterTransform) topFrame() *filterFrame {
	if len(f.frames) == 0 {
		return nil
	}
	return &f.frames[len(f.frames)-1]
}

func (f *FilterTransform) pop(isContainer bool) (filterFrame, error) {
	if len(f.frames) == 0 {
		return filterFrame{}, p10error.New(p10error.PartStreamInvalid, "delimiter with no open frame in FilterTransform")
	}
	fr := f.frames[len(f.frames)-1]
	if fr.isContainer != isContainer {
		return filterFrame{}, p10error.New(p10error.PartStreamInvalid, "mismatched delimiter kind in FilterTransform")
	}
	f.frames = f.frames[:len(f.frames)-1]
	if fr.isContainer && fr.kept {
		f.loc = f.loc[:len(f.loc)-1]
	}
	return fr, nil
}

func (f *FilterTransform) locCopy() []LocationFrame {
	out := make([]LocationFrame, len(f.loc))
	copy(out, f.loc)
	return out
}
