// Package cmd implements the dcmctl CLI (spec.md §6): print, to-json,
// to-dcm, extract-pixel-data and modify subcommands over the P10 codec,
// grounded on the teacher's cmd/ctl/cmd/root.go command-tree shape.
package cmd

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"os"
	"strings"
	"time"

	"github.com/sanyexieai/dcmp10/pkg/logging"
	"github.com/spf13/cobra"
)

// NewRoot builds the dcmctl command tree.
func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	root := &cobra.Command{
		Use:   "dcmctl",
		Short: "inspect and transform DICOM Part 10 streams",
		Long:  "dcmctl reads, writes and transforms DICOM Part 10 files.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel, _ := cmd.Flags().GetString("log-level")
			var level slog.Level
			if err := level.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
				level = slog.LevelInfo
			}
			slog.SetDefault(logging.Logger(os.Stdout, false, level))
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd, 0)
		},
	}
	root.AddCommand(
		NewVersionCmd(gitsha),
		NewPrintCmd(ctx),
		NewToJSONCmd(ctx),
		NewToDCMCmd(ctx),
		NewExtractPixelDataCmd(ctx),
		NewModifyCmd(ctx),
	)
	pf := root.PersistentFlags()
	pf.String("log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")
	pf.Bool("print-stats", false, "write timing and resident-memory stats to stderr on exit")
	return root
}

func printCommandTree(cmd *cobra.Command, indent int) {
	fmt.Println(strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, sub := range cmd.Commands() {
		printCommandTree(sub, indent+1)
	}
}

// NewVersionCmd reports the build's git SHA.
func NewVersionCmd(gitsha string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the build's git SHA",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(gitsha)
		},
	}
}

// withStats wraps run so that, when --print-stats is set, elapsed wall
// time and current runtime memory (MemStats.Sys) are written to stderr
// once run returns.
func withStats(cmd *cobra.Command, run func() error) error {
	printStats, _ := cmd.Flags().GetBool("print-stats")
	if !printStats {
		return run()
	}
	start := time.Now()
	err := run()
	reportStats(cmd.ErrOrStderr(), start)
	return err
}

// openSource resolves uri to a readable stream: "-" for stdin,
// "http(s)://" for a GET request, a bare or "file://"-prefixed path for
// the local filesystem. Mirrors the teacher's decode command's source
// handling.
func openSource(ctx context.Context, uri string, verbose bool) (io.ReadCloser, error) {
	uri = strings.TrimPrefix(uri, "file://")
	switch {
	case uri == "-":
		return io.NopCloser(os.Stdin), nil
	case strings.HasPrefix(uri, "http"):
		cl := &http.Client{Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		resp, err := cl.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to download: %w", err)
		}
		if verbose {
			reqDump, _ := httputil.DumpRequest(req, true)
			os.Stderr.Write(reqDump)
			resDump, _ := httputil.DumpResponse(resp, false)
			os.Stderr.Write(resDump)
		}
		return resp.Body, nil
	default:
		f, err := os.Open(uri)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		return f, nil
	}
}
