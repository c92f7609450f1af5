package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// SourceInfo describes a loaded input file.
type SourceInfo struct {
	FileFingerprint
	RowCount int64
	LoadedAt time.Time
}

// RecordSource stores the fingerprint of a loaded input file, replacing any
// earlier entry for the same path.
func (s *Store) RecordSource(fp FileFingerprint, rowCount int) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO sources (source, size, mod_time, row_count, loaded_at)
		VALUES (?, ?, ?, ?, ?)`,
		fp.Path, fp.Size, fp.ModTime.UTC(), int64(rowCount), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record source: %w", err)
	}
	return nil
}

// Source returns the stored fingerprint for path. ok is false if the path
// has never been loaded.
func (s *Store) Source(path string) (info SourceInfo, ok bool, err error) {
	row := s.db.QueryRow(`SELECT source, size, mod_time, row_count, loaded_at
		FROM sources WHERE source=?`, path)
	err = row.Scan(&info.Path, &info.Size, &info.ModTime, &info.RowCount, &info.LoadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SourceInfo{}, false, nil
	}
	if err != nil {
		return SourceInfo{}, false, fmt.Errorf("query source: %w", err)
	}
	return info, true, nil
}
