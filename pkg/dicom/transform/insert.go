package transform

import (
	"github.com/sanyexieai/dcmp10/pkg/dicom/dataset"
	"github.com/sanyexieai/dcmp10/pkg/dicom/part"
	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/value"
	"github.com/sanyexieai/dcmp10/pkg/p10error"
)

// InsertTransform merges a DataSet into the root of a Part stream.
// Pending inserts are flushed in ascending tag order immediately before
// the first root-level element whose tag is greater, and any remaining
// inserts are flushed before End, per spec.md §4.6. Run a FilterTransform
// ahead of it dropping the tags being inserted so the merged stream has
// no duplicates.
type InsertTransform struct {
	pending []dataset.Element
	depth   int // nesting depth; only act on root-level boundaries
}

// NewInsertTransform creates an InsertTransform that merges every
// element of ds into the root of the stream it is stepped over.
func NewInsertTransform(ds *dataset.DataSet) *InsertTransform {
	return &InsertTransform{pending: ds.Iterate()}
}

func (ins *InsertTransform) flushBefore(t tag.Tag) []part.Part {
	var out []part.Part
	for len(ins.pending) > 0 && ins.pending[0].Tag.Less(t) {
		out = append(out, valueParts(ins.pending[0].Tag, ins.pending[0].Value)...)
		ins.pending = ins.pending[1:]
	}
	return out
}

func (ins *InsertTransform) flushAll() []part.Part {
	var out []part.Part
	for _, e := range ins.pending {
		out = append(out, valueParts(e.Tag, e.Value)...)
	}
	ins.pending = nil
	return out
}

// Step processes one Part, returning the Parts (the flushed inserts, if
// any, followed by p) that should continue downstream.
func (ins *InsertTransform) Step(p part.Part) ([]part.Part, error) {
	switch p.Kind {
	case part.KindDataElementHeader, part.KindSequenceStart:
		if ins.depth == 0 {
			out := ins.flushBefore(p.Tag)
			out = append(out, p)
			if p.Kind == part.KindSequenceStart ||
				(p.Kind == part.KindDataElementHeader && p.Length == 0xFFFFFFFF && p.Tag.Equals(tag.PixelData)) {
				ins.depth++
			}
			return out, nil
		}
		return []part.Part{p}, nil

	case part.KindSequenceItemStart:
		ins.depth++
		return []part.Part{p}, nil

	case part.KindSequenceItemDelimiter:
		ins.depth--
		return []part.Part{p}, nil

	case part.KindSequenceDelimiter:
		ins.depth--
		return []part.Part{p}, nil

	case part.KindEnd:
		if ins.depth != 0 {
			return nil, p10error.New(p10error.PartStreamInvalid, "End received with open frames in InsertTransform")
		}
		out := ins.flushAll()
		out = append(out, p)
		return out, nil

	default:
		return []part.Part{p}, nil
	}
}

// valueParts re-expands a materialized value back into the Part events
// that would have produced it: the inverse of builder.DataSetBuilder,
// needed because InsertTransform works from already-built DataSet
// elements rather than from a live Part stream.
func valueParts(t tag.Tag, v *value.DataElementValue) []part.Part {
	switch v.Kind() {
	case value.KindSequence:
		items, _ := v.Items()
		out := []part.Part{part.SequenceStart(t, v.VR())}
		for _, it := range items {
			ds, ok := it.(*dataset.DataSet)
			if !ok {
				continue
			}
			out = append(out, part.SequenceItemStart())
			for _, e := range ds.Iterate() {
				out = append(out, valueParts(e.Tag, e.Value)...)
			}
			out = append(out, part.SequenceItemDelimiter())
		}
		out = append(out, part.SequenceDelimiter())
		return out

	case value.KindEncapsulatedPixelData:
		frags, _ := v.Fragments()
		out := []part.Part{part.DataElementHeader(t, v.VR(), 0xFFFFFFFF)}
		for _, frag := range frags {
			out = append(out, part.PixelDataItem(uint32(len(frag.Data))))
			if len(frag.Data) > 0 {
				out = append(out, part.DataElementValueBytes(v.VR(), frag.Data, 0))
			}
		}
		out = append(out, part.SequenceDelimiter())
		return out

	default:
		data := v.WireBytes()
		out := []part.Part{part.DataElementHeader(t, v.VR(), uint32(len(data)))}
		if len(data) > 0 {
			out = append(out, part.DataElementValueBytes(v.VR(), data, 0))
		}
		return out
	}
}
