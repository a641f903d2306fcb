// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/ditto/internal/converter"
	"github.com/pdiddy/ditto/internal/journal"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input.docx>",
	Short: "Convert one DOCX document to PDF",
	Long: `Convert runs soffice in headless mode to turn a DOCX document into a PDF.
The PDF is written to --output, or next to the input with a .pdf extension.
The output path is only ever written by moving a finished PDF into place.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conv, cfg, err := newConverter()
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")

		store, err := openJournal(cfg.Journal.Path)
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}

		req := converter.Request{InputPath: args[0], OutputPath: defaultOutput(args[0], output)}
		return convertOne(cmd.Context(), conv, store, req, cmd.OutOrStdout())
	},
}

func init() {
	convertCmd.Flags().StringP("output", "o", "", "output PDF path (default: input with .pdf extension)")

	rootCmd.AddCommand(convertCmd)
}

// defaultOutput returns output, or input with its extension replaced by .pdf.
func defaultOutput(input, output string) string {
	if output != "" {
		return output
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".pdf"
}

// convertOne converts req, records the outcome when store is non-nil and
// prints a one-line summary to w.
func convertOne(ctx context.Context, conv *converter.Converter, store *journal.Store, req converter.Request, w io.Writer) error {
	started := time.Now()
	res, err := conv.Convert(ctx, req)
	record(store, req, res, err, started)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, describeResult(req, res))
	return nil
}

func describeResult(req converter.Request, res converter.Result) string {
	line := fmt.Sprintf("converted: %s -> %s (%s, %s", req.InputPath, res.OutputPath,
		humanize.Bytes(uint64(res.Size)), res.Duration.Round(time.Millisecond))
	if res.Pages > 0 {
		line += fmt.Sprintf(", %d pages", res.Pages)
	}
	return line + ")"
}

// openJournal opens the journal at path. An empty path disables recording.
func openJournal(path string) (*journal.Store, error) {
	if path == "" {
		return nil, nil
	}
	store, err := journal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	return store, nil
}

// record writes one outcome to the journal. A journal failure is logged and
// never changes the conversion result.
func record(store *journal.Store, req converter.Request, res converter.Result, convErr error, started time.Time) {
	if store == nil {
		return
	}
	if _, err := store.Record(context.Background(), req, res, convErr, started); err != nil {
		logger.Warn("recording conversion", zap.String("input", req.InputPath), zap.Error(err))
	}
}
