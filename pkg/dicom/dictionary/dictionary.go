// Package dictionary is the static data-element dictionary: the VR, value
// multiplicity, keyword and name for every well-known tag, plus the
// private-creator indirection private data elements need to resolve a
// name. The generator that produces such tables is out of scope (see
// spec.md §1); this package is the lookup interface it feeds.
package dictionary

import (
	"fmt"

	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
)

// VM is a value-multiplicity range. Max of 0 means unbounded ("1-n").
type VM struct {
	Min int
	Max int // 0 means unbounded
}

// Unbounded reports whether this VM has no declared upper limit.
func (v VM) Unbounded() bool {
	return v.Max == 0
}

// String renders the VM the way DICOM references print it: "1", "1-3" or
// "1-n".
func (v VM) String() string {
	if v.Max == 0 {
		if v.Min <= 1 {
			return "1-n"
		}
		return fmt.Sprintf("%d-n", v.Min)
	}
	if v.Min == v.Max {
		return fmt.Sprintf("%d", v.Min)
	}
	return fmt.Sprintf("%d-%d", v.Min, v.Max)
}

// Entry is one dictionary record: the metadata attached to a well-known tag.
type Entry struct {
	Tag     tag.Tag
	VR      vr.VR
	VM      VM
	Keyword string // PascalCase identifier, e.g. "PatientName"
	Name    string // human-readable, e.g. "Patient's Name"
}

// entries is the standard (public, non-private) dictionary, generated here
// by hand at the scale this module needs rather than by the full PS3.6
// code generator the upstream tooling uses.
var entries = buildEntries()

// byTag indexes entries by tag for O(1) lookup.
var byTag = func() map[tag.Tag]Entry {
	m := make(map[tag.Tag]Entry, len(entries))
	for _, e := range entries {
		m[e.Tag] = e
	}
	return m
}()

// Lookup finds the dictionary entry for t. For a private data element
// (odd group, element >= 0x1000), privateCreator names the creator that
// reserved the element's block (normally read from the matching
// private-creator tag, group<<16|0x00xx, in the same data set); lookup
// then consults the private dictionary for that creator. For a public tag
// privateCreator is ignored.
func Lookup(t tag.Tag, privateCreator string) (Entry, bool) {
	if t.IsPrivate() {
		if block, ok := t.PrivateBlock(); ok {
			if e, ok := lookupPrivate(t, privateCreator, block, t.Element&0xFF); ok {
				return e, true
			}
		}
		return Entry{}, false
	}
	e, ok := byTag[t]
	return e, ok
}

// TagName renders the best available name for t: the dictionary keyword
// when known (for a recognized private element, the keyword carried by its
// creator's entry), "PrivateCreator(tag)" for an unrecognized private
// creator reservation, "Private(tag)" for any other unrecognized private
// tag, or the bare tag string for an unknown standard tag. Mirrors
// DataSet.tag_name(tag, private_creator) (spec.md §4.5).
func TagName(t tag.Tag, privateCreator string) string {
	if e, ok := Lookup(t, privateCreator); ok {
		return e.Keyword
	}
	if t.IsPrivateCreator() {
		return fmt.Sprintf("PrivateCreator(%s)", t)
	}
	if t.IsPrivate() {
		return fmt.Sprintf("Private(%s)", t)
	}
	return t.String()
}

// All returns every standard dictionary entry, in the order the table
// defines them (not sorted by tag).
func All() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
