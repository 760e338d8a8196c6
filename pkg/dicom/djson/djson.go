// Package djson implements the DICOM JSON Model bridge (spec.md §4.7,
// PS3.18 Annex F): a tag-keyed JSON mapping between a DataSet and its
// JSON representation, with the per-VR value encoding rules the standard
// requires (numeric arrays, PN component groups, AT hex tag strings, SQ
// nesting, and Base64 InlineBinary for binary VRs).
package djson

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/sanyexieai/dcmp10/pkg/dicom/dataset"
	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/transfer"
	"github.com/sanyexieai/dcmp10/pkg/dicom/value"
	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
	"github.com/sanyexieai/dcmp10/pkg/p10error"
)

// Options controls DataSet<->JSON conversion beyond the Annex F baseline.
type Options struct {
	// StoreEncapsulatedPixelData flattens an encapsulated Pixel Data
	// element into a single raw (FFFE,E000)<len><bytes> run per fragment,
	// concatenated and emitted as InlineBinary, instead of the baseline
	// behavior of omitting the element entirely (Annex F has no native
	// encoding for a compressed fragment list). Callers relying on this
	// must also serialize TransferSyntaxUID so a decoder can tell the
	// bytes are still encapsulated.
	StoreEncapsulatedPixelData bool
}

// maxSafeInteger is 2^53, the largest integer a float64 (and therefore a
// JSON number under common decoders) represents exactly.
const maxSafeInteger = 1 << 53

// MarshalDataSet renders ds as a DICOM JSON object keyed by 8-hex-digit
// uppercase tag strings.
func MarshalDataSet(ds *dataset.DataSet, opts Options) (map[string]any, error) {
	out := make(map[string]any, ds.Len())
	for _, el := range ds.Iterate() {
		if el.Tag.Equals(tag.PixelData) && el.Value.Kind() == value.KindEncapsulatedPixelData && !opts.StoreEncapsulatedPixelData {
			continue
		}
		obj, err := marshalElement(el.Value, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", el.Tag, err)
		}
		out[tagKey(el.Tag)] = obj
	}
	return out, nil
}

func tagKey(t tag.Tag) string {
	return fmt.Sprintf("%04X%04X", t.Group, t.Element)
}

func parseTagKey(s string) (tag.Tag, error) {
	if len(s) != 8 {
		return tag.Tag{}, fmt.Errorf("tag key %q is not 8 hex digits", s)
	}
	group, err := strconv.ParseUint(s[0:4], 16, 16)
	if err != nil {
		return tag.Tag{}, fmt.Errorf("tag key %q: %v", s, err)
	}
	element, err := strconv.ParseUint(s[4:8], 16, 16)
	if err != nil {
		return tag.Tag{}, fmt.Errorf("tag key %q: %v", s, err)
	}
	return tag.New(uint16(group), uint16(element)), nil
}

func marshalElement(v *value.DataElementValue, opts Options) (map[string]any, error) {
	r := v.VR()
	obj := map[string]any{"vr": string(r)}

	switch v.Kind() {
	case value.KindSequence:
		items, err := v.Items()
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return obj, nil
		}
		arr := make([]any, len(items))
		for i, it := range items {
			nested, ok := it.(*dataset.DataSet)
			if !ok {
				return nil, p10error.New(p10error.DataInvalid, "sequence item is not a *dataset.DataSet")
			}
			m, err := MarshalDataSet(nested, opts)
			if err != nil {
				return nil, err
			}
			arr[i] = m
		}
		obj["Value"] = arr
		return obj, nil

	case value.KindEncapsulatedPixelData:
		frags, err := v.Fragments()
		if err != nil {
			return nil, err
		}
		obj["InlineBinary"] = base64.StdEncoding.EncodeToString(encapsulatedRawBytes(frags))
		return obj, nil

	case value.KindLookupTableDescriptor:
		entryCount, _, bitsPerEntry, err := v.LookupTableDescriptor()
		if err != nil {
			return nil, err
		}
		firstSigned, err := v.FirstInputValueSigned()
		if err != nil {
			return nil, err
		}
		obj["Value"] = []any{float64(entryCount), float64(firstSigned), float64(bitsPerEntry)}
		return obj, nil
	}

	if v.Len() == 0 {
		return obj, nil
	}

	switch {
	case r == vr.AT:
		tags, err := v.AttributeTags()
		if err != nil {
			return nil, err
		}
		arr := make([]any, len(tags))
		for i, t := range tags {
			arr[i] = tagKey(t)
		}
		obj["Value"] = arr

	case r == vr.PN:
		names, err := v.PersonNames()
		if err != nil {
			return nil, err
		}
		arr := make([]any, len(names))
		for i, n := range names {
			pn := map[string]any{}
			if n.Alphabetic != "" {
				pn["Alphabetic"] = n.Alphabetic
			}
			if n.Ideographic != "" {
				pn["Ideographic"] = n.Ideographic
			}
			if n.Phonetic != "" {
				pn["Phonetic"] = n.Phonetic
			}
			arr[i] = pn
		}
		obj["Value"] = arr

	case r == vr.IS:
		strs, err := v.Strings()
		if err != nil {
			return nil, err
		}
		arr := make([]any, len(strs))
		for i, s := range strs {
			if s == "" {
				arr[i] = nil
				continue
			}
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid IS component %q: %v", s, err)
			}
			arr[i] = n
		}
		obj["Value"] = arr

	case r == vr.DS:
		strs, err := v.Strings()
		if err != nil {
			return nil, err
		}
		arr := make([]any, len(strs))
		for i, s := range strs {
			if s == "" {
				arr[i] = nil
				continue
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid DS component %q: %v", s, err)
			}
			arr[i] = f
		}
		obj["Value"] = arr

	case r.IsText():
		strs, err := v.Strings()
		if err != nil {
			return nil, err
		}
		arr := make([]any, len(strs))
		for i, s := range strs {
			if s == "" {
				arr[i] = nil
			} else {
				arr[i] = s
			}
		}
		obj["Value"] = arr

	case r == vr.US:
		us, err := v.Uint16s()
		if err != nil {
			return nil, err
		}
		obj["Value"] = numberArray(len(us), func(i int) any { return float64(us[i]) })

	case r == vr.SS:
		ss, err := v.Int16s()
		if err != nil {
			return nil, err
		}
		obj["Value"] = numberArray(len(ss), func(i int) any { return float64(ss[i]) })

	case r == vr.UL:
		ul, err := v.Uint32s()
		if err != nil {
			return nil, err
		}
		obj["Value"] = numberArray(len(ul), func(i int) any { return float64(ul[i]) })

	case r == vr.SL:
		sl, err := v.Int32s()
		if err != nil {
			return nil, err
		}
		obj["Value"] = numberArray(len(sl), func(i int) any { return float64(sl[i]) })

	case r == vr.FL:
		fs, err := v.Float32s()
		if err != nil {
			return nil, err
		}
		obj["Value"] = numberArray(len(fs), func(i int) any { return floatJSON(float64(fs[i])) })

	case r == vr.FD:
		fs, err := v.Float64s()
		if err != nil {
			return nil, err
		}
		obj["Value"] = numberArray(len(fs), func(i int) any { return floatJSON(fs[i]) })

	case r == vr.SV:
		ns, err := v.Int64s()
		if err != nil {
			return nil, err
		}
		obj["Value"] = numberArray(len(ns), func(i int) any { return signedVeryLongJSON(ns[i]) })

	case r == vr.UV:
		ns, err := v.Uint64s()
		if err != nil {
			return nil, err
		}
		obj["Value"] = numberArray(len(ns), func(i int) any { return unsignedVeryLongJSON(ns[i]) })

	case r == vr.OB, r == vr.OD, r == vr.OF, r == vr.OL, r == vr.OV, r == vr.OW, r == vr.UN:
		obj["InlineBinary"] = base64.StdEncoding.EncodeToString(v.Bytes())

	default:
		return nil, fmt.Errorf("unhandled VR %s", r)
	}
	return obj, nil
}

func numberArray(n int, at func(int) any) []any {
	arr := make([]any, n)
	for i := range arr {
		arr[i] = at(i)
	}
	return arr
}

func floatJSON(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return f
	}
}

func signedVeryLongJSON(n int64) any {
	if n > maxSafeInteger || n < -maxSafeInteger {
		return strconv.FormatInt(n, 10)
	}
	return float64(n)
}

func unsignedVeryLongJSON(n uint64) any {
	if n > maxSafeInteger {
		return strconv.FormatUint(n, 10)
	}
	return float64(n)
}

func encapsulatedRawBytes(frags []value.Fragment) []byte {
	total := 0
	for _, f := range frags {
		total += 8 + len(f.Data)
	}
	out := make([]byte, 0, total)
	var hdr [8]byte
	for _, f := range frags {
		binary.LittleEndian.PutUint16(hdr[0:2], 0xFFFE)
		binary.LittleEndian.PutUint16(hdr[2:4], 0xE000)
		binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(f.Data)))
		out = append(out, hdr[:]...)
		out = append(out, f.Data...)
	}
	return out
}

// UnmarshalDataSet parses a DICOM JSON object back into a DataSet, the
// inverse of MarshalDataSet.
func UnmarshalDataSet(obj map[string]any, opts Options) (*dataset.DataSet, error) {
	ds := dataset.New()
	syntax := transferSyntaxOf(obj)

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		t, err := parseTagKey(k)
		if err != nil {
			return nil, err
		}
		raw, ok := obj[k].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: element is not a JSON object", k)
		}
		v, err := unmarshalElement(t, raw, syntax, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		ds.Insert(t, v)
	}
	return ds, nil
}

func transferSyntaxOf(obj map[string]any) transfer.Syntax {
	raw, ok := obj[tagKey(tag.TransferSyntaxUID)].(map[string]any)
	if !ok {
		return transfer.Default
	}
	vals, _ := raw["Value"].([]any)
	if len(vals) == 0 {
		return transfer.Default
	}
	s, _ := vals[0].(string)
	if s == "" {
		return transfer.Default
	}
	return transfer.Syntax(s)
}

func unmarshalElement(t tag.Tag, raw map[string]any, syntax transfer.Syntax, opts Options) (*value.DataElementValue, error) {
	vrStr, _ := raw["vr"].(string)
	if vrStr == "" || !vr.Valid(vrStr) {
		return nil, fmt.Errorf("missing or invalid vr %q", vrStr)
	}
	r := vr.VR(vrStr)

	if _, hasBulk := raw["BulkDataURI"]; hasBulk {
		return nil, p10error.New(p10error.DataInvalid, "BulkDataURI is not supported when decoding").WithTag(t)
	}

	valueRaw, hasValue := raw["Value"]
	inlineRaw, hasInline := raw["InlineBinary"]
	if hasValue && hasInline {
		return nil, p10error.New(p10error.DataInvalid, "element has both Value and InlineBinary").WithTag(t)
	}

	if r == vr.SQ {
		items, _ := valueRaw.([]any)
		seqs := make([]value.Sequence, len(items))
		for i, it := range items {
			m, ok := it.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("sequence item %d is not an object", i)
			}
			nested, err := UnmarshalDataSet(m, opts)
			if err != nil {
				return nil, err
			}
			seqs[i] = nested
		}
		return value.NewSequence(seqs), nil
	}

	if hasInline {
		data, err := decodeBase64(inlineRaw)
		if err != nil {
			return nil, err
		}
		if t.Equals(tag.PixelData) && syntax.IsEncapsulated() {
			frags, err := splitEncapsulatedFragments(data)
			if err != nil {
				return nil, err
			}
			return value.NewEncapsulatedPixelData(r, frags)
		}
		return value.NewBinary(r, data)
	}

	if !hasValue {
		return value.NewBinary(r, nil)
	}

	arr, ok := valueRaw.([]any)
	if !ok {
		return nil, fmt.Errorf("Value is not an array")
	}

	switch {
	case r == vr.AT:
		tags := make([]tag.Tag, len(arr))
		for i, e := range arr {
			s, _ := e.(string)
			parsed, err := parseTagKey(s)
			if err != nil {
				return nil, err
			}
			tags[i] = parsed
		}
		return value.NewAttributeTags(tags)

	case r == vr.PN:
		names := make([]value.PersonName, len(arr))
		for i, e := range arr {
			m, _ := e.(map[string]any)
			var pn value.PersonName
			if m != nil {
				pn.Alphabetic, _ = m["Alphabetic"].(string)
				pn.Ideographic, _ = m["Ideographic"].(string)
				pn.Phonetic, _ = m["Phonetic"].(string)
			}
			names[i] = pn
		}
		return value.NewPersonNames(names)

	case r == vr.IS:
		comps := make([]string, len(arr))
		for i, e := range arr {
			if e == nil {
				continue
			}
			n, err := numberAsInt64(e)
			if err != nil {
				return nil, err
			}
			comps[i] = strconv.FormatInt(n, 10)
		}
		return value.NewText(vr.IS, comps)

	case r == vr.DS:
		comps := make([]string, len(arr))
		for i, e := range arr {
			if e == nil {
				continue
			}
			f, err := numberAsFloat64(e)
			if err != nil {
				return nil, err
			}
			comps[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return value.NewText(vr.DS, comps)

	case r.IsText():
		comps := make([]string, len(arr))
		for i, e := range arr {
			if e == nil {
				continue
			}
			s, _ := e.(string)
			comps[i] = s
		}
		return value.NewText(r, comps)

	case r == vr.US:
		us := make([]uint16, len(arr))
		for i, e := range arr {
			n, err := numberAsInt64(e)
			if err != nil {
				return nil, err
			}
			us[i] = uint16(n)
		}
		return value.NewUint16s(r, us)

	case r == vr.SS:
		ss := make([]uint16, len(arr))
		for i, e := range arr {
			n, err := numberAsInt64(e)
			if err != nil {
				return nil, err
			}
			ss[i] = uint16(int16(n))
		}
		return value.NewUint16s(r, ss)

	case r == vr.UL:
		ul := make([]uint32, len(arr))
		for i, e := range arr {
			n, err := numberAsInt64(e)
			if err != nil {
				return nil, err
			}
			ul[i] = uint32(n)
		}
		return value.NewUint32s(r, ul)

	case r == vr.SL:
		sl := make([]uint32, len(arr))
		for i, e := range arr {
			n, err := numberAsInt64(e)
			if err != nil {
				return nil, err
			}
			sl[i] = uint32(int32(n))
		}
		return value.NewUint32s(r, sl)

	case r == vr.FL:
		fs := make([]float32, len(arr))
		for i, e := range arr {
			f, err := specialOrFloat64(e)
			if err != nil {
				return nil, err
			}
			fs[i] = float32(f)
		}
		return value.NewFloat32s(fs)

	case r == vr.FD:
		fs := make([]float64, len(arr))
		for i, e := range arr {
			f, err := specialOrFloat64(e)
			if err != nil {
				return nil, err
			}
			fs[i] = f
		}
		return value.NewFloat64s(fs)

	case r == vr.SV:
		ns := make([]int64, len(arr))
		for i, e := range arr {
			n, err := numberOrStringAsInt64(e)
			if err != nil {
				return nil, err
			}
			ns[i] = n
		}
		return value.NewSignedVeryLongs(ns)

	case r == vr.UV:
		ns := make([]uint64, len(arr))
		for i, e := range arr {
			n, err := numberOrStringAsUint64(e)
			if err != nil {
				return nil, err
			}
			ns[i] = n
		}
		return value.NewUnsignedVeryLongs(ns)

	default:
		return nil, fmt.Errorf("VR %s does not use Value arrays", r)
	}
}

func decodeBase64(raw any) ([]byte, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("InlineBinary is not a string")
	}
	return base64.StdEncoding.DecodeString(s)
}

func splitEncapsulatedFragments(data []byte) ([]value.Fragment, error) {
	var frags []value.Fragment
	i := 0
	for i < len(data) {
		if i+8 > len(data) {
			return nil, p10error.New(p10error.DataInvalid, "truncated pixel data item header")
		}
		group := binary.LittleEndian.Uint16(data[i:])
		elem := binary.LittleEndian.Uint16(data[i+2:])
		length := binary.LittleEndian.Uint32(data[i+4:])
		if group != 0xFFFE || elem != 0xE000 {
			return nil, p10error.New(p10error.DataInvalid, "expected pixel data item tag (FFFE,E000)")
		}
		i += 8
		if i+int(length) > len(data) {
			return nil, p10error.New(p10error.DataInvalid, "pixel data item length exceeds buffer")
		}
		frags = append(frags, value.Fragment{Data: data[i : i+int(length)]})
		i += int(length)
	}
	return frags, nil
}

func numberAsInt64(e any) (int64, error) {
	switch v := e.(type) {
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("expected a number, got %T", e)
	}
}

func numberAsFloat64(e any) (float64, error) {
	switch v := e.(type) {
	case float64:
		return v, nil
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("expected a number, got %T", e)
	}
}

func specialOrFloat64(e any) (float64, error) {
	switch v := e.(type) {
	case float64:
		return v, nil
	case string:
		switch v {
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		case "NaN":
			return math.NaN(), nil
		default:
			return strconv.ParseFloat(v, 64)
		}
	default:
		return 0, fmt.Errorf("expected a number, got %T", e)
	}
}

func numberOrStringAsInt64(e any) (int64, error) {
	switch v := e.(type) {
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("expected a number or string, got %T", e)
	}
}

func numberOrStringAsUint64(e any) (uint64, error) {
	switch v := e.(type) {
	case float64:
		return uint64(v), nil
	case string:
		return strconv.ParseUint(v, 10, 64)
	default:
		return 0, fmt.Errorf("expected a number or string, got %T", e)
	}
}
