package djson

import (
	"encoding/json"
	"fmt"

	"github.com/sanyexieai/dcmp10/pkg/dicom/builder"
	"github.com/sanyexieai/dcmp10/pkg/dicom/part"
	"github.com/sanyexieai/dcmp10/pkg/dicom/transform"
)

// EncodeTransform renders a Part stream to DICOM JSON. Like the other
// transforms it is stepped one Part at a time and passes every Part
// through unchanged; unlike them it also accumulates the stream into a
// DataSetBuilder so the JSON object can be produced once the stream ends.
type EncodeTransform struct {
	opts    Options
	builder *builder.DataSetBuilder
}

// NewEncodeTransform creates an EncodeTransform.
func NewEncodeTransform(opts Options) *EncodeTransform {
	return &EncodeTransform{opts: opts, builder: builder.New()}
}

// Step feeds p into the accumulator and passes it through unchanged.
func (e *EncodeTransform) Step(p part.Part) ([]part.Part, error) {
	if err := e.builder.Feed(p); err != nil {
		return nil, err
	}
	return []part.Part{p}, nil
}

// JSON renders the accumulated data set as DICOM JSON. Valid only after
// the stream's KindEnd part has been stepped.
func (e *EncodeTransform) JSON() ([]byte, error) {
	if !e.builder.IsComplete() {
		return nil, fmt.Errorf("djson: EncodeTransform.JSON called before the Part stream ended")
	}
	obj, err := MarshalDataSet(e.builder.FinalDataSet(), e.opts)
	if err != nil {
		return nil, err
	}
	return json.Marshal(obj)
}

// PartsFromJSON parses DICOM JSON and re-expands it into the Part stream
// that would have produced it, by building a DataSet and running it
// through an InsertTransform against an empty stream: the existing
// merge-at-root logic already knows how to turn an arbitrary DataSet back
// into Parts in ascending tag order.
func PartsFromJSON(data []byte, opts Options) ([]part.Part, error) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("djson: invalid JSON: %w", err)
	}
	ds, err := UnmarshalDataSet(obj, opts)
	if err != nil {
		return nil, err
	}
	ins := transform.NewInsertTransform(ds)
	return ins.Step(part.End())
}
