package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sanyexieai/dcmp10/pkg/dicom/djson"
	"github.com/sanyexieai/dcmp10/pkg/dicom/p10"
	"github.com/spf13/cobra"
)

// NewToJSONCmd converts a P10 file to DICOM JSON (spec.md §4.7).
func NewToJSONCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "to-json <in> <out>",
		Short: "convert a DICOM Part 10 file to DICOM JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStats(cmd, func() error {
				verbose, _ := cmd.Flags().GetBool("verbose")
				pretty, _ := cmd.Flags().GetBool("pretty")
				storeEncapsulated, _ := cmd.Flags().GetBool("store-encapsulated-pixel-data")

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

				enc := djson.NewEncodeTransform(djson.Options{StoreEncapsulatedPixelData: storeEncapsulated})
				for _, p := range parts {
					if _, err := enc.Step(p); err != nil {
						return fmt.Errorf("failed to encode: %w", err)
					}
				}
				raw, err := enc.JSON()
				if err != nil {
					return fmt.Errorf("failed to render JSON: %w", err)
				}
				if pretty {
					var buf []byte
					var obj map[string]any
					if err := json.Unmarshal(raw, &obj); err != nil {
						return err
					}
					buf, err = json.MarshalIndent(obj, "", "  ")
					if err != nil {
						return err
					}
					raw = buf
				}

				return os.WriteFile(args[1], raw, 0o644)
			})
		},
	}
	cmd.Flags().BoolP("verbose", "v", false, "dump the HTTP request/response when <in> is an http(s) URL")
	cmd.Flags().Bool("pretty", false, "indent the JSON output")
	cmd.Flags().Bool("store-encapsulated-pixel-data", false, "flatten encapsulated Pixel Data fragments into InlineBinary instead of omitting them")
	return cmd
}
