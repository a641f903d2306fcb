// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ditto/internal/converter"
	"github.com/pdiddy/ditto/internal/journal"
)

var errNoJournal = errors.New("no journal configured (set --journal or journal.path)")

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List, summarise or prune recorded conversions",
	Long: `History reads the conversion journal written by convert and batch when a
journal path is configured. By default it lists the newest conversions.
Use --stats for counts per failure kind and --prune to drop old entries.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", journal.DefaultLimit, "maximum entries to list")
	historyCmd.Flags().Bool("failed", false, "list failures only")
	historyCmd.Flags().String("kind", "", "list failures of one kind (e.g. timeout, external_tool)")
	historyCmd.Flags().Bool("stats", false, "print counts per outcome instead of entries")
	historyCmd.Flags().Duration("prune", 0, "delete entries older than this age (e.g. 720h)")
	historyCmd.Flags().String("format", "text", "output format: text, yaml, or json")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := viper.GetString("journal.path")
	if path == "" {
		return errNoJournal
	}
	store, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if age, _ := cmd.Flags().GetDuration("prune"); age > 0 {
		n, err := store.Prune(ctx, time.Now().Add(-age))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "pruned %d entries older than %s\n", n, age)
		return nil
	}

	if stats, _ := cmd.Flags().GetBool("stats"); stats {
		counts, err := store.Stats(ctx)
		if err != nil {
			return err
		}
		printStats(out, counts)
		return nil
	}

	kind, _ := cmd.Flags().GetString("kind")
	if kind != "" && !knownKind(converter.Kind(kind)) {
		return fmt.Errorf("unknown kind %q", kind)
	}
	limit, _ := cmd.Flags().GetInt("limit")
	failed, _ := cmd.Flags().GetBool("failed")
	entries, err := store.Recent(ctx, journal.QueryOptions{
		Limit:      limit,
		FailedOnly: failed,
		Kind:       converter.Kind(kind),
	})
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "yaml":
		return journal.WriteYAML(out, entries)
	case "json":
		return journal.WriteJSON(out, entries)
	case "text":
		printEntries(out, entries)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, yaml, or json)", format)
	}
}

func knownKind(k converter.Kind) bool {
	for _, known := range converter.Kinds {
		if k == known {
			return true
		}
	}
	return false
}

func printEntries(w io.Writer, entries []journal.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no conversions recorded")
		return
	}
	for _, e := range entries {
		status := "ok"
		detail := humanize.Bytes(uint64(e.Bytes))
		if !e.OK() {
			status = string(e.Kind)
			detail, _, _ = strings.Cut(e.Message, "\n")
		}
		fmt.Fprintf(w, "%s  %-20s %s -> %s (%s, %s)\n",
			humanize.Time(e.StartedAt), status, e.Input, e.Output, detail, e.Duration().Round(time.Millisecond))
	}
}

func printStats(w io.Writer, counts map[converter.Kind]int) {
	total := 0
	for _, n := range counts {
		total += n
	}
	fmt.Fprintf(w, "%-22s %d\n", "converted", counts[""])

	kinds := make([]string, 0, len(counts))
	for k := range counts {
		if k != "" {
			kinds = append(kinds, string(k))
		}
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "%-22s %d\n", k, counts[converter.Kind(k)])
	}
	fmt.Fprintf(w, "%-22s %d\n", "total", total)
}
