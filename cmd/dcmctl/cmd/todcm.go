package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sanyexieai/dcmp10/pkg/dicom/dataset"
	"github.com/sanyexieai/dcmp10/pkg/dicom/djson"
	"github.com/sanyexieai/dcmp10/pkg/dicom/p10"
	"github.com/sanyexieai/dcmp10/pkg/dicom/part"
	"github.com/sanyexieai/dcmp10/pkg/dicom/transform"
	"github.com/spf13/cobra"
)

// NewToDCMCmd converts a DICOM JSON file back to a P10 file.
func NewToDCMCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "to-dcm <in> <out>",
		Short: "convert a DICOM JSON file to DICOM Part 10",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStats(cmd, func() error {
				verbose, _ := cmd.Flags().GetBool("verbose")

				src, err := openSource(ctx, args[0], verbose)
				if err != nil {
					return err
				}
				defer src.Close()

				raw, err := io.ReadAll(src)
				if err != nil {
					return fmt.Errorf("failed to read input: %w", err)
				}

				var obj map[string]any
				if err := json.Unmarshal(raw, &obj); err != nil {
					return fmt.Errorf("invalid DICOM JSON: %w", err)
				}
				ds, err := djson.UnmarshalDataSet(obj, djson.Options{})
				if err != nil {
					return fmt.Errorf("failed to parse DICOM JSON: %w", err)
				}

				fileMeta, main := splitFileMeta(ds)

				ins := transform.NewInsertTransform(main)
				mainParts, err := ins.Step(part.End())
				if err != nil {
					return fmt.Errorf("failed to expand data set: %w", err)
				}

				out, err := os.Create(args[1])
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer out.Close()

				writer := p10.NewWriter(out, p10.WriterConfig{})
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
	return cmd
}

// splitFileMeta partitions ds into its group-0002 File Meta Information
// elements and the rest of the main data set.
func splitFileMeta(ds *dataset.DataSet) (fileMeta, main *dataset.DataSet) {
	fileMeta = dataset.New()
	main = dataset.New()
	for _, el := range ds.Iterate() {
		if el.Tag.IsGroup0002() {
			fileMeta.Insert(el.Tag, el.Value)
		} else {
			main.Insert(el.Tag, el.Value)
		}
	}
	return fileMeta, main
}
