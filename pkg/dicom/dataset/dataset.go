// Package dataset implements DataSet (spec.md §3, §4.5): an ordered
// Tag → DataElementValue mapping with ascending iteration order and
// DataSetPath addressing into nested sequences.
package dataset

import (
	"sort"

	"github.com/sanyexieai/dcmp10/pkg/dicom/dictionary"
	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/value"
)

// DataSet is an ordered mapping Tag → *value.DataElementValue, keyed by
// the 32-bit concatenation group<<16|element with ascending iteration
// order. Duplicate insertions overwrite.
type DataSet struct {
	elements map[tag.Tag]*value.DataElementValue
}

// New creates an empty DataSet.
func New() *DataSet {
	return &DataSet{elements: make(map[tag.Tag]*value.DataElementValue)}
}

// Insert sets the value at t, overwriting any existing value.
func (d *DataSet) Insert(t tag.Tag, v *value.DataElementValue) {
	if d.elements == nil {
		d.elements = make(map[tag.Tag]*value.DataElementValue)
	}
	d.elements[t] = v
}

// Remove deletes the value at t, if present.
func (d *DataSet) Remove(t tag.Tag) {
	delete(d.elements, t)
}

// Get returns the value at t.
func (d *DataSet) Get(t tag.Tag) (*value.DataElementValue, bool) {
	v, ok := d.elements[t]
	return v, ok
}

// Len returns the number of elements present.
func (d *DataSet) Len() int {
	return len(d.elements)
}

// Tags returns every tag present, in ascending order.
func (d *DataSet) Tags() []tag.Tag {
	out := make([]tag.Tag, 0, len(d.elements))
	for t := range d.elements {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Element pairs a tag with its value, the unit Iterate yields.
type Element struct {
	Tag   tag.Tag
	Value *value.DataElementValue
}

// Iterate returns every element in ascending tag order.
func (d *DataSet) Iterate() []Element {
	tags := d.Tags()
	out := make([]Element, len(tags))
	for i, t := range tags {
		out[i] = Element{Tag: t, Value: d.elements[t]}
	}
	return out
}

// ItemTags satisfies value.Sequence so a *DataSet can be stored as a
// sequence item without value importing dataset.
func (d *DataSet) ItemTags() []uint32 {
	tags := d.Tags()
	out := make([]uint32, len(tags))
	for i, t := range tags {
		out[i] = t.Key()
	}
	return out
}

// PrivateCreator returns the creator string registered at the private
// block tag owning t (group<<16|block), if t is a private data
// element and its reservation tag is present in this data set.
func (d *DataSet) PrivateCreator(t tag.Tag) (string, bool) {
	block, ok := t.PrivateBlock()
	if !ok {
		return "", false
	}
	reservation := tag.New(t.Group, block)
	v, ok := d.Get(reservation)
	if !ok {
		return "", false
	}
	s, err := v.String()
	if err != nil {
		return "", false
	}
	return s, true
}

// TagName renders the dictionary keyword for t, resolving the private
// creator from this data set when t is a private element. Mirrors
// DataSet.tag_name(tag, private_creator) (spec.md §4.5).
func (d *DataSet) TagName(t tag.Tag) string {
	creator, _ := d.PrivateCreator(t)
	return dictionary.TagName(t, creator)
}
