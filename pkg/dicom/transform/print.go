package transform

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/sanyexieai/dcmp10/pkg/dicom/dictionary"
	"github.com/sanyexieai/dcmp10/pkg/dicom/part"
	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/value"
	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
)

// PrintOptions configures PrintTransform's rendering.
type PrintOptions struct {
	// MaxWidth truncates a rendered value with an ellipsis beyond this
	// many characters. Zero means unbounded.
	MaxWidth int
	// Styled colors the tag (cyan) and VR (yellow) with ANSI escapes.
	Styled bool
}

type printFrame struct {
	kind            frameKindPrint
	ownerTag        tag.Tag
	privateCreators map[uint16]string
	fragmentCount   int
}

type frameKindPrint int

const (
	printFrameSequence frameKindPrint = iota
	printFrameItem
	printFramePixelData
)

// PrintTransform formats a Part stream as aligned, human-readable lines,
// grounded on the teacher's Dataset.String()/Element.String() aligned
// "[tag] VR name: value" rendering, generalized from a materialized
// Dataset walk to a streaming Part walk with nesting indentation.
type PrintTransform struct {
	w    io.Writer
	opts PrintOptions

	frames              []printFrame
	rootPrivateCreators map[uint16]string

	pendingTag tag.Tag
	pendingVR  vr.VR
	pendingBuf []byte
	hasPending bool

	tagColor *color.Color
	vrColor  *color.Color
}

// NewPrintTransform creates a PrintTransform writing to w.
func NewPrintTransform(w io.Writer, opts PrintOptions) *PrintTransform {
	return &PrintTransform{
		w:                   w,
		opts:                opts,
		rootPrivateCreators: map[uint16]string{},
		tagColor:            color.New(color.FgCyan),
		vrColor:             color.New(color.FgYellow),
	}
}

func (pt *PrintTransform) depth() int {
	d := 0
	for _, f := range pt.frames {
		if f.kind == printFrameItem {
			d++
		}
	}
	return d
}

func (pt *PrintTransform) indent() string {
	return strings.Repeat("  ", pt.depth())
}

func (pt *PrintTransform) currentScope() map[uint16]string {
	for i := len(pt.frames) - 1; i >= 0; i-- {
		if pt.frames[i].kind == printFrameItem {
			return pt.frames[i].privateCreators
		}
	}
	return pt.rootPrivateCreators
}

func (pt *PrintTransform) topFrame() *printFrame {
	if len(pt.frames) == 0 {
		return nil
	}
	return &pt.frames[len(pt.frames)-1]
}

func (pt *PrintTransform) tagName(t tag.Tag) string {
	creator := ""
	if block, ok := t.PrivateBlock(); ok {
		creator = pt.currentScope()[block]
	}
	return dictionary.TagName(t, creator)
}

func (pt *PrintTransform) truncate(s string) string {
	if pt.opts.MaxWidth <= 0 || len(s) <= pt.opts.MaxWidth {
		return s
	}
	if pt.opts.MaxWidth <= 1 {
		return s[:pt.opts.MaxWidth]
	}
	return s[:pt.opts.MaxWidth-1] + "…"
}

func (pt *PrintTransform) styledTag(t tag.Tag) string {
	s := t.String()
	if pt.opts.Styled {
		return pt.tagColor.Sprint(s)
	}
	return s
}

func (pt *PrintTransform) styledVR(r vr.VR) string {
	s := string(r)
	if pt.opts.Styled {
		return pt.vrColor.Sprint(s)
	}
	return s
}

func (pt *PrintTransform) printLine(t tag.Tag, r vr.VR, valueStr string) {
	name := pt.tagName(t)
	if name != "" {
		name = " " + name
	}
	fmt.Fprintf(pt.w, "%s%s %s%s: %s\n", pt.indent(), pt.styledTag(t), pt.styledVR(r), name, pt.truncate(valueStr))
}

// Step renders p's effect as a line (where applicable) and passes p
// through unchanged, so PrintTransform can sit anywhere in a pipeline.
func (pt *PrintTransform) Step(p part.Part) ([]part.Part, error) {
	switch p.Kind {
	case part.KindDataElementHeader:
		if p.Length == 0xFFFFFFFF && p.Tag.Equals(tag.PixelData) {
			fmt.Fprintf(pt.w, "%s%s %s PixelData (encapsulated)\n", pt.indent(), pt.styledTag(p.Tag), pt.styledVR(p.VR))
			pt.frames = append(pt.frames, printFrame{kind: printFramePixelData, ownerTag: p.Tag})
			return []part.Part{p}, nil
		}
		pt.pendingTag = p.Tag
		pt.pendingVR = p.VR
		pt.pendingBuf = pt.pendingBuf[:0]
		pt.hasPending = p.Length > 0
		if p.Length == 0 {
			pt.printLine(p.Tag, p.VR, "")
		}
		return []part.Part{p}, nil

	case part.KindDataElementValueBytes:
		if top := pt.topFrame(); top != nil && top.kind == printFramePixelData {
			return []part.Part{p}, nil // fragment bytes are not printed; PixelDataItem prints the fragment length
		}
		pt.pendingBuf = append(pt.pendingBuf, p.Bytes...)
		if p.BytesRemaining == 0 {
			pt.printLine(pt.pendingTag, pt.pendingVR, renderValue(pt.pendingVR, pt.pendingBuf))
			if pt.pendingTag.IsPrivateCreator() {
				if block, ok := pt.pendingTag.PrivateBlock(); ok {
					if v, err := value.NewBinary(pt.pendingVR, append([]byte(nil), pt.pendingBuf...)); err == nil {
						if s, err := v.String(); err == nil {
							pt.currentScope()[block] = s
						}
					}
				}
			}
			pt.hasPending = false
			pt.pendingBuf = pt.pendingBuf[:0]
		}
		return []part.Part{p}, nil

	case part.KindSequenceStart:
		pt.printLine(p.Tag, p.VR, "")
		pt.frames = append(pt.frames, printFrame{kind: printFrameSequence, ownerTag: p.Tag})
		return []part.Part{p}, nil

	case part.KindSequenceItemStart:
		pt.frames = append(pt.frames, printFrame{kind: printFrameItem, privateCreators: map[uint16]string{}})
		return []part.Part{p}, nil

	case part.KindSequenceItemDelimiter:
		if len(pt.frames) > 0 {
			pt.frames = pt.frames[:len(pt.frames)-1]
		}
		return []part.Part{p}, nil

	case part.KindPixelDataItem:
		if top := pt.topFrame(); top != nil && top.kind == printFramePixelData {
			top.fragmentCount++
			fmt.Fprintf(pt.w, "%s  fragment %d: %d bytes\n", pt.indent(), top.fragmentCount, p.Length)
		}
		return []part.Part{p}, nil

	case part.KindSequenceDelimiter:
		if len(pt.frames) > 0 {
			pt.frames = pt.frames[:len(pt.frames)-1]
		}
		return []part.Part{p}, nil

	default:
		return []part.Part{p}, nil
	}
}

// renderValue renders a complete primitive value's bytes the way
// teacher Element.String() switches on Go value kind, generalized to
// switch on VR class instead: text VRs are shown decoded, binary VRs
// as a byte count once they exceed a readable length.
func renderValue(r vr.VR, data []byte) string {
	if r.IsText() {
		v, err := value.NewBinary(r, data)
		if err == nil {
			if s, err := v.String(); err == nil {
				return s
			}
		}
	}
	if len(data) > 16 {
		return fmt.Sprintf("Binary Data (%d bytes)", len(data))
	}
	return fmt.Sprintf("%v", data)
}
