package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"
	"gopkg.in/guregu/null.v3"

	"github.com/inodb/svscore/internal/extract"
)

// ScoreRow is one stored extraction result.
type ScoreRow struct {
	Source          string      `db:"source"`
	Line            int64       `db:"line"`
	Chrom           string      `db:"chrom"`
	Start           null.Int    `db:"start_pos"`
	End             null.Int    `db:"end_pos"`
	MaxPathScore    null.Float  `db:"max_path_score"`
	MaxPathVar      null.String `db:"max_path_var"`
	MaxOverlapScore null.Float  `db:"max_overlap_score"`
	MaxOverlapVar   null.String `db:"max_overlap_var"`
}

// WriteScores replaces the stored results for source with rows, using the
// Appender API. Absent values are stored as NULL. The delete and the appends
// run in one transaction, so on error the earlier rows for source remain.
func (s *Store) WriteScores(source string, rows []extract.Row) (err error) {
	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN TRANSACTION"); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			conn.ExecContext(ctx, "ROLLBACK")
		}
	}()

	if _, err = conn.ExecContext(ctx, "DELETE FROM sv_scores WHERE source=?", source); err != nil {
		return fmt.Errorf("clear source: %w", err)
	}
	if len(rows) > 0 {
		if err = appendScores(conn, source, rows); err != nil {
			return err
		}
	}
	if _, err = conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("commit scores: %w", err)
	}
	return nil
}

// appendScores appends rows through an appender on conn. The appender is
// closed before returning so its buffered rows land in conn's transaction.
func appendScores(conn *sql.Conn, source string, rows []extract.Row) error {
	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "sv_scores")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}

	for _, r := range rows {
		if r.Record == nil {
			appender.Close()
			return fmt.Errorf("append score row: line %d has no record", r.Line)
		}
		rec, res := r.Record, r.Result

		var start, end driver.Value
		if rec.CoordsValid {
			start, end = rec.Start, rec.End
		}

		if err := appender.AppendRow(
			source, int64(r.Line), rec.Chrom, start, end,
			nullable(res.MaxPath.Score), nullable(res.MaxPath.Var),
			nullable(res.MaxOverlap.Score), nullable(res.MaxOverlap.Var),
		); err != nil {
			appender.Close()
			return fmt.Errorf("append score row: %w", err)
		}
	}

	if err := appender.Close(); err != nil {
		return fmt.Errorf("close appender: %w", err)
	}
	return nil
}

// nullable converts a null value into nil or its plain Go value for the
// appender.
func nullable(v driver.Valuer) driver.Value {
	val, err := v.Value()
	if err != nil {
		return nil
	}
	return val
}

const selectScores = `SELECT
	source, line, chrom, start_pos, end_pos,
	max_path_score, max_path_var, max_overlap_score, max_overlap_var
	FROM sv_scores`

// ScoresAbove returns rows whose pathogenic or overlap score is at least
// threshold, highest pathogenic score first.
func (s *Store) ScoresAbove(threshold float64) ([]ScoreRow, error) {
	var rows []ScoreRow
	if err := s.db.Select(&rows, selectScores+`
		WHERE max_path_score >= ? OR max_overlap_score >= ?
		ORDER BY max_path_score DESC NULLS LAST, source, line`,
		threshold, threshold); err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	return rows, nil
}

// SearchBySource returns all stored rows for source in input order.
func (s *Store) SearchBySource(source string) ([]ScoreRow, error) {
	var rows []ScoreRow
	if err := s.db.Select(&rows, selectScores+`
		WHERE source=?
		ORDER BY line`, source); err != nil {
		return nil, fmt.Errorf("query by source: %w", err)
	}
	return rows, nil
}

// CountBySource returns the number of stored rows per source.
func (s *Store) CountBySource() (map[string]int64, error) {
	var rows []struct {
		Source string `db:"source"`
		N      int64  `db:"n"`
	}
	if err := s.db.Select(&rows, "SELECT source, count(*) AS n FROM sv_scores GROUP BY source"); err != nil {
		return nil, fmt.Errorf("count by source: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Source] = r.N
	}
	return counts, nil
}
