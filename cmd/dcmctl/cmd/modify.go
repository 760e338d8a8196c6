package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sanyexieai/dcmp10/pkg/dicom/builder"
	"github.com/sanyexieai/dcmp10/pkg/dicom/dataset"
	"github.com/sanyexieai/dcmp10/pkg/dicom/p10"
	"github.com/sanyexieai/dcmp10/pkg/dicom/part"
	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/transform"
	"github.com/sanyexieai/dcmp10/pkg/dicom/value"
	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
	"github.com/sanyexieai/dcmp10/pkg/util"
	"github.com/spf13/cobra"
)

// NewModifyCmd applies in-place transforms to a P10 file: transfer
// syntax substitution, deflate level, anonymization, and tag deletion.
func NewModifyCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modify <in> <out>",
		Short: "modify a DICOM Part 10 file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStats(cmd, func() error {
				verbose, _ := cmd.Flags().GetBool("verbose")
				newSyntax, _ := cmd.Flags().GetString("transfer-syntax")
				zlibLevel, _ := cmd.Flags().GetInt("zlib-compression-level")
				anonymize, _ := cmd.Flags().GetBool("anonymize")
				deleteTagsRaw, _ := cmd.Flags().GetString("delete-tags")

				deleteTags, err := parseTagList(deleteTagsRaw)
				if err != nil {
					return err
				}

				src, err := openSource(ctx, args[0], verbose)
				if err != nil {
					return err
				}
				defer src.Close()

				data, err := io.ReadAll(src)
				if err != nil {
					return fmt.Errorf("failed to read input: %w", err)
				}

				reader := p10.NewReader(p10.ReaderConfig{})
				parts, err := reader.Feed(data, true)
				if err != nil {
					return fmt.Errorf("failed to decode: %w", err)
				}

				b := builder.New()
				for _, p := range parts {
					if err := b.Feed(p); err != nil {
						return fmt.Errorf("failed to build data set: %w", err)
					}
				}
				fileMeta := b.FileMeta()
				ds := b.FinalDataSet()

				if anonymize {
					anonymizeDataSet(ds)
				}
				for _, t := range deleteTags {
					ds.Remove(t)
				}
				if newSyntax != "" {
					v, err := value.NewText("UI", []string{newSyntax})
					if err != nil {
						return fmt.Errorf("invalid transfer syntax UID: %w", err)
					}
					fileMeta.Insert(tag.TransferSyntaxUID, v)
				}

				ins := transform.NewInsertTransform(ds)
				mainParts, err := ins.Step(part.End())
				if err != nil {
					return fmt.Errorf("failed to expand data set: %w", err)
				}

				out, err := os.Create(args[1])
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer out.Close()

				writer := p10.NewWriter(out, p10.WriterConfig{ZlibCompressionLevel: zlibLevel})
				all := append([]part.Part{
					part.FilePreambleAndDICMPrefix(make([]byte, 128)),
					part.FileMetaInformation(fileMeta),
				}, mainParts...)
				if err := writer.WriteAll(all); err != nil {
					return fmt.Errorf("failed to write P10 output: %w", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolP("verbose", "v", false, "dump the HTTP request/response when <in> is an http(s) URL")
	cmd.Flags().String("transfer-syntax", "", "replace the output transfer syntax UID")
	cmd.Flags().Int("zlib-compression-level", 0, "deflate level (1-9; 0 selects the default, 6) when the output transfer syntax is deflated")
	cmd.Flags().Bool("anonymize", false, "replace patient-identifying elements with stable derived values")
	cmd.Flags().String("delete-tags", "", "comma-separated GGGG,EEEE tags to remove, e.g. 0008,0050,0010,0010")
	return cmd
}

// anonymizeDataSet replaces every element tag.IdentifyingElements names,
// if present, with a value derived from its prior contents via
// util.HashUUID, keeping the element's original VR and tag.
func anonymizeDataSet(ds *dataset.DataSet) {
	for t := range tag.IdentifyingElements {
		v, ok := ds.Get(t)
		if !ok {
			continue
		}
		original, _ := v.String()
		nv, err := anonymizedText(v.VR(), original)
		if err != nil {
			continue
		}
		ds.Insert(t, nv)
	}
}

// anonymizedText derives a replacement value for VR r from a stable
// hash of original. CS, DA and AS carry a fixed character repertoire
// the raw hash string doesn't satisfy, so they get a repertoire-legal
// placeholder instead of the hash itself; every other text VR gets the
// hash string directly.
func anonymizedText(r vr.VR, original string) (*value.DataElementValue, error) {
	switch r {
	case vr.CS:
		hash := strings.ToUpper(strings.ReplaceAll(util.HashUUID(original), "-", ""))
		return value.NewText(r, []string{hash})
	case vr.DA:
		return value.NewText(r, []string{"19000101"})
	case vr.AS:
		return value.NewText(r, []string{"000Y"})
	default:
		return value.NewText(r, []string{util.HashUUID(original)})
	}
}

// parseTagList parses a comma-separated "GGGG,EEEE,GGGG,EEEE,..." string
// into tag.Tags.
func parseTagList(s string) ([]tag.Tag, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("--delete-tags must list pairs of GGGG,EEEE hex values")
	}
	tags := make([]tag.Tag, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		group, err := parseHexUint16(fields[i])
		if err != nil {
			return nil, err
		}
		element, err := parseHexUint16(fields[i+1])
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag.New(group, element))
	}
	return tags, nil
}

func parseHexUint16(s string) (uint16, error) {
	var n uint16
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%04x", &n)
	if err != nil {
		return 0, fmt.Errorf("invalid hex tag component %q: %w", s, err)
	}
	return n, nil
}
