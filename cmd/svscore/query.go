package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/svscore/internal/duckdb"
	"github.com/inodb/svscore/internal/extract"
	"github.com/inodb/svscore/internal/sv"
	"github.com/inodb/svscore/internal/tsv"
)

func newQueryCmd() *cobra.Command {
	var (
		minScore float64
		counts   bool
		source   string
	)

	cmd := &cobra.Command{
		Use:   "query [database]",
		Short: "List stored variants scoring at or above a threshold",
		Long: `Query a DuckDB database written by "svscore extract --duckdb" for variants
whose MAX_PATH_SCORE or MAX_OVERLAP_SCORE is at or above --min-score.
Results are written as a tab-separated table ordered by descending
MAX_PATH_SCORE.`,
		Example: `  svscore query scores.duckdb --min-score 15
  svscore query scores.duckdb --source /data/P50-G6_fullCADDSV_results.tsv
  svscore query scores.duckdb --counts`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath := viper.GetString("duckdb")
			if len(args) == 1 {
				dbPath = args[0]
			}
			if dbPath == "" {
				return &usageError{err: fmt.Errorf("no database given")}
			}
			if !cmd.Flags().Changed("min-score") {
				minScore = viper.GetFloat64("report.threshold")
			}
			return runQuery(cmd, dbPath, queryOptions{minScore: minScore, counts: counts, source: source})
		},
	}

	cmd.Flags().Float64Var(&minScore, "min-score", 10, "Minimum score (default: report.threshold)")
	cmd.Flags().BoolVar(&counts, "counts", false, "Print stored row counts and input fingerprints per source instead")
	cmd.Flags().StringVar(&source, "source", "", "List every stored row of this input file instead")

	return cmd
}

type queryOptions struct {
	minScore float64
	counts   bool
	source   string
}

func runQuery(cmd *cobra.Command, dbPath string, opts queryOptions) error {
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	w := tsv.NewWriter(cmd.OutOrStdout(), '\t')

	if opts.counts {
		if err := writeSourceCounts(w, store); err != nil {
			return err
		}
		return w.Flush()
	}

	var rows []duckdb.ScoreRow
	if opts.source != "" {
		source := opts.source
		if abs, err := filepath.Abs(source); err == nil {
			source = abs
		}
		rows, err = store.SearchBySource(source)
	} else {
		rows, err = store.ScoresAbove(opts.minScore)
	}
	if err != nil {
		return err
	}

	header := append([]string{"source", "line", "CHROM", "START", "END"}, extract.DerivedColumns...)
	if err := w.WriteHeader(header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{
			r.Source,
			strconv.FormatInt(r.Line, 10),
			r.Chrom,
			formatInt(r.Start.Int64, r.Start.Valid),
			formatInt(r.End.Int64, r.End.Valid),
			sv.FormatScore(r.MaxPathScore),
			sv.FormatVar(r.MaxPathVar),
			sv.FormatScore(r.MaxOverlapScore),
			sv.FormatVar(r.MaxOverlapVar),
		}); err != nil {
			return err
		}
	}
	return w.Flush()
}

// writeSourceCounts writes the stored row count of every source together
// with the fingerprint recorded when it was loaded. Sources read from stdin
// have no fingerprint.
func writeSourceCounts(w *tsv.Writer, store *duckdb.Store) error {
	bySource, err := store.CountBySource()
	if err != nil {
		return err
	}
	sources := make([]string, 0, len(bySource))
	for s := range bySource {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	if err := w.WriteHeader([]string{"source", "rows", "size", "mod_time", "loaded_rows", "loaded_at"}); err != nil {
		return err
	}
	for _, s := range sources {
		row := []string{s, strconv.FormatInt(bySource[s], 10), "", "", "", ""}
		info, ok, err := store.Source(s)
		if err != nil {
			return err
		}
		if ok {
			row[2] = strconv.FormatInt(info.Size, 10)
			row[3] = info.ModTime.UTC().Format(time.RFC3339)
			row[4] = strconv.FormatInt(info.RowCount, 10)
			row[5] = info.LoadedAt.UTC().Format(time.RFC3339)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func formatInt(v int64, valid bool) string {
	if !valid {
		return ""
	}
	return strconv.FormatInt(v, 10)
}
