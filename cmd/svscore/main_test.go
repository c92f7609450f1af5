package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/svscore/internal/extract"
)

const inputTSV = "CHROM\tSTART\tEND\tCADDSV_VARS\tCADDSV_SCORE\tCAUSAL\n" +
	"1\t100\t300\ta:100-200,b:150-300\t5.0,12.3\tY\n" +
	"Y\t5000\t6000\tNot Present\tNot Present\tN\n"

const wantTSV = "CHROM\tSTART\tEND\tCAUSAL\tMAX_PATH_SCORE\tMAX_PATH_VAR\tMAX_OVERLAP_SCORE\tMAX_OVERLAP_VAR\n" +
	"1\t100\t300\tY\t12.3\tb:150-300\t12.3\tb:150-300\n" +
	"Y\t5000\t6000\tN\t\t\t\t\n"

// execute runs the root command with fresh configuration state.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeInput(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "P50-G6_fullCADDSV_results.tsv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestExtract(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	input := writeInput(t, dir, inputTSV)
	output := filepath.Join(dir, "P50-G6_CADDSV_CTCPandFT.tsv")

	_, err := execute(t, "extract", input, "-o", output, "--workers", "2")
	require.NoError(t, err)

	got, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, wantTSV, string(got))
}

func TestExtract_MissingColumns(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	input := writeInput(t, dir, "CHROM\tSTART\tEND\tCADDSV_VARS\n1\t100\t300\ta:100-200\n")
	output := filepath.Join(dir, "out.tsv")

	_, err := execute(t, "extract", input, "-o", output)
	require.Error(t, err)

	var mce *extract.MissingColumnsError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, []string{"CADDSV_SCORE"}, mce.Missing)

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "no output expected")
}

func TestExtract_CustomColumns(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	input := writeInput(t, dir, "#CHROM,START,END,CADDSV_VARS,CADDSV_SCORE\n"+
		"1,100,300,\"a:100-200,b:150-300\",\"5.0,12.3\"\n")
	output := filepath.Join(dir, "out.tsv")

	_, err := execute(t, "extract", input, "-o", output,
		"--delimiter", "comma", "--col-chrom", "#CHROM")
	require.NoError(t, err)

	got, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t,
		"#CHROM\tSTART\tEND\tMAX_PATH_SCORE\tMAX_PATH_VAR\tMAX_OVERLAP_SCORE\tMAX_OVERLAP_VAR\n"+
			"1\t100\t300\t12.3\tb:150-300\t12.3\tb:150-300\n",
		string(got))
}

func TestExtract_ColumnsFromConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, configName),
		[]byte("columns:\n  vars: SV_VARS\n  scores: SV_SCORES\n"), 0644))

	dir := t.TempDir()
	input := writeInput(t, dir, "CHROM\tSTART\tEND\tSV_VARS\tSV_SCORES\n1\t0\t100\ta:0-100\t3\n")
	output := filepath.Join(dir, "out.tsv")

	_, err := execute(t, "extract", input, "-o", output)
	require.NoError(t, err)

	got, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t,
		"CHROM\tSTART\tEND\tMAX_PATH_SCORE\tMAX_PATH_VAR\tMAX_OVERLAP_SCORE\tMAX_OVERLAP_VAR\n"+
			"1\t0\t100\t3.0\ta:0-100\t3.0\ta:0-100\n",
		string(got))
}

func TestExtractAndQuery(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	input := writeInput(t, dir, inputTSV)
	db := filepath.Join(dir, "scores.duckdb")

	_, err := execute(t, "extract", input, "-o", filepath.Join(dir, "out.tsv"), "--duckdb", db)
	require.NoError(t, err)

	out, err := execute(t, "query", db, "--min-score", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "source\tline\tCHROM\tSTART\tEND\tMAX_PATH_SCORE")
	assert.Contains(t, out, "\t1\t1\t100\t300\t12.3\tb:150-300\t12.3\tb:150-300\n")

	out, err = execute(t, "query", db, "--min-score", "20")
	require.NoError(t, err)
	assert.NotContains(t, out, "b:150-300")

	out, err = execute(t, "query", db, "--source", input)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[1], "\t1\t1\t100\t300\t12.3\tb:150-300\t12.3\tb:150-300"))
	assert.True(t, strings.HasSuffix(lines[2], "\t2\tY\t5000\t6000\t\t\t\t"))

	info, err := os.Stat(input)
	require.NoError(t, err)

	out, err = execute(t, "query", db, "--counts")
	require.NoError(t, err)
	assert.Contains(t, out, "source\trows\tsize\tmod_time\tloaded_rows\tloaded_at\n")
	assert.Contains(t, out, fmt.Sprintf("P50-G6_fullCADDSV_results.tsv\t2\t%d\t%s\t2\t",
		info.Size(), info.ModTime().UTC().Format(time.RFC3339)))
}

func TestQuery_MissingDatabase(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := execute(t, "query", filepath.Join(t.TempDir(), "missing.duckdb"))
	assert.Error(t, err)

	_, err = execute(t, "query")
	var ue *usageError
	assert.True(t, errors.As(err, &ue))
}

func TestSummary(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	a := filepath.Join(dir, "a.tsv")
	b := filepath.Join(dir, "b.tsv")
	require.NoError(t, os.WriteFile(a, []byte(wantTSV), 0644))
	require.NoError(t, os.WriteFile(b, []byte(wantTSV), 0644))
	chart := filepath.Join(dir, "scored.png")

	out, err := execute(t, "summary", a, b, "--chart", chart, "--threshold", "12")
	require.NoError(t, err)

	assert.Contains(t, out, "MAX_PATH_SCORE\n  total:               4\n  scored:              2\n  unscored (chrY):     2\n")
	assert.Contains(t, out, "MAX_PATH_SCORE causal (threshold 12)")
	assert.Contains(t, out, "causal above:        2")

	png, err := os.ReadFile(chart)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestSummary_ByClass(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "cdb.tsv")
	require.NoError(t, os.WriteFile(path, []byte(
		"CHROM\tCDB_CLASS\tMAX_PATH_SCORE\tMAX_OVERLAP_SCORE\n"+
			"1\tclass 5\t20.0\t\n"+
			"2\tclass 5\t30.0\t30.0\n"), 0644))

	out, err := execute(t, "summary", path, "--class-column", "CDB_CLASS")
	require.NoError(t, err)
	assert.Contains(t, out, "MAX_PATH_SCORE\tclass 5\t2\t0\t20.000\t25.000\t25.000\t5.000\t30.000\n")
	assert.Contains(t, out, "MAX_OVERLAP_SCORE\tclass 5\t2\t1\t30.000\t30.000\t30.000\t0.000\t30.000\n")
}

func TestSummary_MissingScoreColumn(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeInput(t, t.TempDir(), inputTSV)
	_, err := execute(t, "summary", path)
	assert.Error(t, err)
}

func TestConfigSetGet(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	out, err := execute(t, "config", "set", "report.threshold", "15")
	require.NoError(t, err)
	assert.Contains(t, out, "Set report.threshold = 15")
	assert.FileExists(t, filepath.Join(home, configName))

	out, err = execute(t, "config", "get", "report.threshold")
	require.NoError(t, err)
	assert.Equal(t, "15\n", out)

	out, err = execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "threshold: \"15\"")

	_, err = execute(t, "config", "get", "no.such.key")
	assert.Error(t, err)
}

func TestRunExitCodes(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	viper.Reset()
	assert.Equal(t, ExitUsage, run([]string{"bogus"}))

	viper.Reset()
	assert.Equal(t, ExitUsage, run([]string{"extract"}))

	viper.Reset()
	assert.Equal(t, ExitUsage, run([]string{"extract", "--no-such-flag", "x"}))

	viper.Reset()
	assert.Equal(t, ExitError, run([]string{"extract", filepath.Join(t.TempDir(), "missing.tsv")}))
}
