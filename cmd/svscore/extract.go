package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/svscore/internal/duckdb"
	"github.com/inodb/svscore/internal/extract"
	"github.com/inodb/svscore/internal/tsv"
)

func newExtractCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "extract <input>",
		Short: "Derive maximum pathogenic and overlap scores",
		Long: `Read a CADD-SV annotated table and write it back with the CADDSV_VARS and
CADDSV_SCORE columns replaced by MAX_PATH_SCORE, MAX_PATH_VAR,
MAX_OVERLAP_SCORE and MAX_OVERLAP_VAR. Use "-" to read from stdin.`,
		Example: `  svscore extract P50-G6_fullCADDSV_results.tsv -o P50-G6_CADDSV_CTCPandFT.tsv
  svscore extract results.tsv.gz --duckdb scores.duckdb > out.tsv
  svscore extract results.csv --delimiter comma --col-chrom '#CHROM'`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, map[string]string{
				"workers":        "workers",
				"delimiter":      "delimiter",
				"duckdb":         "duckdb",
				"columns.chrom":  "col-chrom",
				"columns.start":  "col-start",
				"columns.end":    "col-end",
				"columns.vars":   "col-vars",
				"columns.scores": "col-scores",
			}); err != nil {
				return err
			}
			return runExtract(cmd.Context(), args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output file (- for stdout)")
	cmd.Flags().Int("workers", 0, "Number of parallel workers (0 = all CPUs)")
	cmd.Flags().String("delimiter", "tab", "Input delimiter: tab, comma, auto, or a single character")
	cmd.Flags().String("duckdb", "", "Also store results in this DuckDB database")
	cmd.Flags().String("col-chrom", extract.DefaultColumns.Chrom, "Chromosome column")
	cmd.Flags().String("col-start", extract.DefaultColumns.Start, "Start position column")
	cmd.Flags().String("col-end", extract.DefaultColumns.End, "End position column")
	cmd.Flags().String("col-vars", extract.DefaultColumns.Vars, "Sub-variant list column")
	cmd.Flags().String("col-scores", extract.DefaultColumns.Scores, "Sub-variant score column")

	return cmd
}

func runExtract(ctx context.Context, input, output string) error {
	delim, err := tsv.ParseDelimiter(viper.GetString("delimiter"))
	if err != nil {
		return &usageError{err: err}
	}

	start := time.Now()
	logger.Info("reading input", zap.String("path", input))
	tbl, err := tsv.ReadFile(input, delim)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ex := extract.NewExtractor(columnsFromConfig())
	ex.SetWorkers(viper.GetInt("workers"))
	ex.SetLogger(logger)

	out, rows, err := ex.Process(ctx, tbl)
	if err != nil {
		return err
	}

	if err := tsv.WriteFile(output, out); err != nil {
		return err
	}

	if dbPath := viper.GetString("duckdb"); dbPath != "" {
		if err := storeScores(dbPath, input, rows); err != nil {
			return err
		}
	}

	logger.Info("processing complete",
		zap.String("output", output),
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// storeScores writes rows to the DuckDB database at dbPath, keyed by the
// absolute input path.
func storeScores(dbPath, input string, rows []extract.Row) error {
	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	source := "stdin"
	if input != "-" {
		if abs, err := filepath.Abs(input); err == nil {
			source = abs
		} else {
			source = input
		}
	}

	if err := store.WriteScores(source, rows); err != nil {
		return fmt.Errorf("store scores: %w", err)
	}

	if input != "-" {
		fp, err := duckdb.StatFile(input)
		if err != nil {
			return fmt.Errorf("stat input: %w", err)
		}
		fp.Path = source
		if err := store.RecordSource(fp, len(rows)); err != nil {
			return err
		}
	}

	logger.Debug("stored scores",
		zap.String("duckdb", store.Path()),
		zap.String("source", source),
		zap.Int("rows", len(rows)))
	return nil
}
