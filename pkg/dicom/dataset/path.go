package dataset

import (
	"fmt"
	"strings"

	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
)

// PathStep is one hop in a DataSetPath: either addressing a data element
// by tag or an item within a sequence by index.
type PathStep struct {
	Tag      tag.Tag
	HasTag   bool
	Item     int
	HasIndex bool
}

// DataElementStep builds a step addressing a data element by tag.
func DataElementStep(t tag.Tag) PathStep {
	return PathStep{Tag: t, HasTag: true}
}

// SequenceItemStep builds a step addressing an item by index within the
// enclosing sequence.
func SequenceItemStep(index int) PathStep {
	return PathStep{Item: index, HasIndex: true}
}

func (s PathStep) String() string {
	if s.HasTag {
		return s.Tag.String()
	}
	return fmt.Sprintf("[%d]", s.Item)
}

// Path addresses a location inside a (possibly nested) DataSet: used to
// locate errors and to reconstruct context during recursive JSON
// decoding (spec.md §3).
type Path struct {
	Steps []PathStep
}

// Push returns a new Path with step appended, leaving p unmodified.
func (p Path) Push(step PathStep) Path {
	steps := make([]PathStep, len(p.Steps)+1)
	copy(steps, p.Steps)
	steps[len(p.Steps)] = step
	return Path{Steps: steps}
}

// String renders the path as dotted tag/index segments, e.g.
// "(0040,0275)[0].(0008,0100)".
func (p Path) String() string {
	var b strings.Builder
	for i, step := range p.Steps {
		if i > 0 && step.HasTag {
			b.WriteByte('.')
		}
		b.WriteString(step.String())
	}
	return b.String()
}
