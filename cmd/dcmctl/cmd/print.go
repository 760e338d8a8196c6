package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/sanyexieai/dcmp10/pkg/dicom/p10"
	"github.com/sanyexieai/dcmp10/pkg/dicom/transform"
	"github.com/spf13/cobra"
)

// NewPrintCmd renders a P10 file as aligned, human-readable text.
func NewPrintCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "print <file>",
		Short: "print a DICOM Part 10 file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStats(cmd, func() error {
				verbose, _ := cmd.Flags().GetBool("verbose")
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

				printer := transform.NewPrintTransform(cmd.OutOrStdout(), transform.PrintOptions{})
				for _, part := range parts {
					if _, err := printer.Step(part); err != nil {
						return fmt.Errorf("failed to render: %w", err)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolP("verbose", "v", false, "dump the HTTP request/response when uri is an http(s) URL")
	return cmd
}
