package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sanyexieai/dcmp10/pkg/dicom/builder"
	"github.com/sanyexieai/dcmp10/pkg/dicom/p10"
	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/value"
	"github.com/spf13/cobra"
)

// NewExtractPixelDataCmd writes a file's Pixel Data element out as one or
// more frame files: one file per fragment for encapsulated pixel data
// (fragment 0, the Basic Offset Table, is skipped when empty), or a
// single raw file for native pixel data.
func NewExtractPixelDataCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract-pixel-data <file>",
		Short: "extract the Pixel Data element's frames to files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStats(cmd, func() error {
				verbose, _ := cmd.Flags().GetBool("verbose")
				prefix, _ := cmd.Flags().GetString("output-prefix")
				if prefix == "" {
					prefix = "frame"
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
				ds := b.FinalDataSet()

				v, ok := ds.Get(tag.PixelData)
				if !ok {
					return fmt.Errorf("no Pixel Data element present")
				}

				switch v.Kind() {
				case value.KindEncapsulatedPixelData:
					frags, err := v.Fragments()
					if err != nil {
						return err
					}
					n := 0
					for i, f := range frags {
						if i == 0 && len(f.Data) == 0 {
							continue // empty Basic Offset Table
						}
						name := fmt.Sprintf("%s-%d.bin", prefix, n)
						if err := os.WriteFile(name, f.Data, 0o644); err != nil {
							return fmt.Errorf("failed to write %s: %w", name, err)
						}
						n++
					}
				default:
					name := fmt.Sprintf("%s-0.raw", prefix)
					if err := os.WriteFile(name, v.Bytes(), 0o644); err != nil {
						return fmt.Errorf("failed to write %s: %w", name, err)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolP("verbose", "v", false, "dump the HTTP request/response when <file> is an http(s) URL")
	cmd.Flags().StringP("output-prefix", "o", "frame", "file name prefix for extracted frames")
	return cmd
}
