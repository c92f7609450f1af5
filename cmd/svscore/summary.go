package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/svscore/internal/extract"
	"github.com/inodb/svscore/internal/report"
	"github.com/inodb/svscore/internal/tsv"
)

type summaryOptions struct {
	scores      []string
	chromCol    string
	causalCol   string
	classCol    string
	chartPath   string
	chartTitle  string
	threshold   float64
	causalLabel []string
}

func newSummaryCmd() *cobra.Command {
	var opts summaryOptions

	cmd := &cobra.Command{
		Use:   "summary <file>...",
		Short: "Summarize scored and unscored variants in extracted tables",
		Long: `Combine one or more extracted tables and report, per score column, how many
variants were scored and how many unscored variants lie on chromosome Y.
If the tables carry a causal column, causal and non-causal variants are
also counted against the score threshold.`,
		Example: `  svscore summary P50-G6_CADDSV_CTCPandFT.tsv
  svscore summary *_CADDSV_CTCPandFT.tsv --chart scored.png --title "CADD-SV: Variants Scored"`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, map[string]string{
				"delimiter":        "delimiter",
				"report.threshold": "threshold",
			}); err != nil {
				return err
			}
			opts.threshold = viper.GetFloat64("report.threshold")
			opts.causalLabel = viper.GetStringSlice("report.causal_labels")
			return runSummary(cmd, args, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.scores, "score",
		[]string{extract.ColMaxPathScore, extract.ColMaxOverlapScore}, "Score columns to summarize")
	cmd.Flags().StringVar(&opts.chromCol, "chrom-column", extract.DefaultColumns.Chrom, "Chromosome column")
	cmd.Flags().StringVar(&opts.causalCol, "causal-column", "CAUSAL", "Causal label column (used when present)")
	cmd.Flags().StringVar(&opts.classCol, "class-column", "", "Also report score distributions per class in this column (e.g. CDB_CLASS)")
	cmd.Flags().StringVar(&opts.chartPath, "chart", "", "Write a stacked bar chart PNG to this path")
	cmd.Flags().StringVar(&opts.chartTitle, "title", "Variants Scored", "Chart title")
	cmd.Flags().Float64("threshold", 10, "Score threshold for causal counts")
	cmd.Flags().String("delimiter", "tab", "Input delimiter: tab, comma, auto, or a single character")

	return cmd
}

func runSummary(cmd *cobra.Command, files []string, opts summaryOptions) error {
	delim, err := tsv.ParseDelimiter(viper.GetString("delimiter"))
	if err != nil {
		return &usageError{err: err}
	}

	combined := &tsv.Table{}
	for _, f := range files {
		tbl, err := tsv.ReadFile(f, delim)
		if err != nil {
			return err
		}
		logger.Debug("loaded table", zap.String("path", f), zap.Int("rows", len(tbl.Rows)))
		combined.Append(tbl)
	}

	scores, err := report.Summarize(combined, opts.chromCol, opts.scores)
	if err != nil {
		return err
	}

	var causal []report.CausalSummary
	if combined.Index(opts.causalCol) >= 0 {
		for _, col := range opts.scores {
			c, err := report.SummarizeCausal(combined, opts.causalCol, col, opts.causalLabel, opts.threshold)
			if err != nil {
				return err
			}
			causal = append(causal, c)
		}
	} else {
		logger.Debug("no causal column, skipping causal counts", zap.String("column", opts.causalCol))
	}

	if err := report.WriteText(cmd.OutOrStdout(), scores, causal); err != nil {
		return err
	}

	if opts.classCol != "" {
		var classes []report.ClassStats
		for _, col := range opts.scores {
			cs, err := report.ScoresByClass(combined, opts.classCol, col)
			if err != nil {
				return err
			}
			classes = append(classes, cs...)
		}
		fmt.Fprintln(cmd.OutOrStdout())
		if err := report.WriteClassTable(cmd.OutOrStdout(), classes); err != nil {
			return err
		}
	}

	if opts.chartPath != "" {
		if err := writeChart(opts.chartPath, opts.chartTitle, scores); err != nil {
			return err
		}
		logger.Info("wrote chart", zap.String("path", opts.chartPath))
	}
	return nil
}

func writeChart(path, title string, scores []report.ScoreSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	if err := report.RenderScoredChart(f, title, scores); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("render chart: %w", err)
	}
	return f.Close()
}
