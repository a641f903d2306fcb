// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ditto/internal/converter"
)

var batchCmd = &cobra.Command{
	Use:   "batch <file-or-dir>...",
	Short: "Convert many DOCX documents to PDF",
	Long: `Batch converts every listed DOCX file and every .docx directly inside each
listed directory. Each PDF is written next to its input, or into --out-dir.
A failed document does not stop the rest; the command exits with status 2
when any document failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conv, cfg, err := newConverter()
		if err != nil {
			return err
		}

		paths, err := expandInputs(args)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "no .docx documents found")
			return nil
		}

		store, err := openJournal(cfg.Journal.Path)
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}

		started := time.Now()
		reqs := converter.RequestsFromPaths(paths, cfg.Batch.OutputDir)
		result := conv.ConvertBatch(cmd.Context(), reqs, cfg.Batch, cmd.OutOrStdout())
		for _, o := range result.Outcomes {
			if !o.Skipped {
				record(store, o.Request, o.Result, o.Err, started)
			}
		}

		if err := cmd.Context().Err(); err != nil {
			return &converter.Error{Kind: converter.KindCancelled, Err: err}
		}
		if result.HasFailures() {
			return &batchError{failed: result.Failed}
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().IntP("jobs", "j", 1, "number of conversions to run at once")
	batchCmd.Flags().Bool("skip-existing", false, "skip documents whose PDF already exists")
	batchCmd.Flags().String("out-dir", "", "write all PDFs into this directory")

	_ = viper.BindPFlag("batch.jobs", batchCmd.Flags().Lookup("jobs"))
	_ = viper.BindPFlag("batch.skip_existing", batchCmd.Flags().Lookup("skip-existing"))
	_ = viper.BindPFlag("batch.output_dir", batchCmd.Flags().Lookup("out-dir"))

	rootCmd.AddCommand(batchCmd)
}

// expandInputs replaces each directory argument with the documents it holds.
func expandInputs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			// Missing files are reported per document by the converter.
			paths = append(paths, arg)
			continue
		}
		docs, err := converter.FindDocuments(arg)
		if err != nil {
			return nil, err
		}
		paths = append(paths, docs...)
	}
	return paths, nil
}
