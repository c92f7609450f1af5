package duckdb

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/svscore/internal/extract"
	"github.com/inodb/svscore/internal/sv"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func makeRows() []extract.Row {
	records := []*sv.Record{
		sv.NewRecord("1", "100", "300", "a:100-200,b:150-300", "5.0,12.3"),
		sv.NewRecord("Y", "5000", "6000", sv.NotPresent, sv.NotPresent),
		sv.NewRecord("2", "NA", "1000", "a:0-300", "18.1"),
	}

	rows := make([]extract.Row, len(records))
	for i, r := range records {
		rows[i] = extract.Row{Line: i + 1, Record: r, Result: r.Evaluate()}
	}
	return rows
}

// --- Score store tests (DuckDB) ---

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.Equal(t, "", s.Path())
}

func TestWriteAndSearchScores(t *testing.T) {
	s := openInMemory(t)

	require.NoError(t, s.WriteScores("P50-G6.tsv", makeRows()))

	got, err := s.SearchBySource("P50-G6.tsv")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, int64(1), got[0].Line)
	assert.Equal(t, "1", got[0].Chrom)
	assert.Equal(t, int64(100), got[0].Start.Int64)
	assert.Equal(t, 12.3, got[0].MaxPathScore.Float64)
	assert.Equal(t, "b:150-300", got[0].MaxPathVar.String)
	assert.Equal(t, "b:150-300", got[0].MaxOverlapVar.String)

	// Absent values come back as NULL.
	assert.False(t, got[1].MaxPathScore.Valid)
	assert.False(t, got[1].MaxPathVar.Valid)
	assert.False(t, got[1].MaxOverlapScore.Valid)
	assert.False(t, got[1].MaxOverlapVar.Valid)

	// Unparseable coordinates are NULL, the pathogenic pair is kept.
	assert.False(t, got[2].Start.Valid)
	assert.True(t, got[2].End.Valid)
	assert.Equal(t, 18.1, got[2].MaxPathScore.Float64)
	assert.False(t, got[2].MaxOverlapVar.Valid)

	none, err := s.SearchBySource("other.tsv")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestWriteScores_ReplacesSource(t *testing.T) {
	s := openInMemory(t)

	rows := makeRows()
	require.NoError(t, s.WriteScores("a.tsv", rows))
	require.NoError(t, s.WriteScores("b.tsv", rows[:1]))
	require.NoError(t, s.WriteScores("a.tsv", rows[:2]))

	counts, err := s.CountBySource()
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"a.tsv": 2, "b.tsv": 1}, counts)

	require.NoError(t, s.WriteScores("a.tsv", nil))
	counts, err = s.CountBySource()
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"b.tsv": 1}, counts)
}

func TestWriteScores_FailureKeepsEarlierRows(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteScores("a.tsv", makeRows()))

	rows := makeRows()
	rows = append(rows[:1], extract.Row{Line: 2})
	err := s.WriteScores("a.tsv", rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	got, err := s.SearchBySource("a.tsv")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "b:150-300", got[0].MaxPathVar.String)
	assert.Equal(t, 18.1, got[2].MaxPathScore.Float64)

	// The store is still writable after the rollback.
	require.NoError(t, s.WriteScores("a.tsv", makeRows()[:1]))
	counts, err := s.CountBySource()
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts["a.tsv"])
}

func TestWriteScores_Empty(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteScores("empty.tsv", nil))

	counts, err := s.CountBySource()
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestScoresAbove(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteScores("a.tsv", makeRows()))

	got, err := s.ScoresAbove(10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 18.1, got[0].MaxPathScore.Float64)
	assert.Equal(t, 12.3, got[1].MaxPathScore.Float64)

	got, err = s.ScoresAbove(15)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].Chrom)

	got, err = s.ScoresAbove(100)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPersistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "scores.duckdb")

	s, err := Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.WriteScores("a.tsv", makeRows()))
	require.NoError(t, s.Close())

	s, err = Open(dbPath)
	require.NoError(t, err)
	defer s.Close()

	counts, err := s.CountBySource()
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts["a.tsv"])
}

// --- Source fingerprint tests ---

func TestStatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.tsv")
	require.NoError(t, os.WriteFile(path, []byte("CHROM\n1\n"), 0644))

	fp, err := StatFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, fp.Path)
	assert.Equal(t, int64(8), fp.Size)

	_, err = StatFile(filepath.Join(t.TempDir(), "missing.tsv"))
	assert.Error(t, err)
}

func TestRecordSource(t *testing.T) {
	s := openInMemory(t)

	_, ok, err := s.Source("in.tsv")
	require.NoError(t, err)
	assert.False(t, ok)

	mod := time.Date(2024, 11, 5, 10, 30, 0, 0, time.UTC)
	require.NoError(t, s.RecordSource(FileFingerprint{Path: "in.tsv", Size: 1000, ModTime: mod}, 42))
	require.NoError(t, s.RecordSource(FileFingerprint{Path: "in.tsv", Size: 2000, ModTime: mod}, 43))

	info, ok, err := s.Source("in.tsv")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2000), info.Size)
	assert.Equal(t, int64(43), info.RowCount)
	assert.True(t, mod.Equal(info.ModTime))
	assert.False(t, info.LoadedAt.IsZero())
}
