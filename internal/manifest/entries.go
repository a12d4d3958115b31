package manifest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"assetpress/internal/compression"
)

// Entry is one produced artifact.
type Entry struct {
	OutputPath   string
	SourcePath   string
	Format       compression.Format
	SourceDigest string
	SourceSize   int64
	OutputSize   int64
	RunID        string
	CreatedAt    time.Time
}

// Ratio returns output size over source size, or 0 for empty sources.
func (e Entry) Ratio() float64 {
	if e.SourceSize <= 0 {
		return 0
	}
	return float64(e.OutputSize) / float64(e.SourceSize)
}

const entryColumns = "output_path, source_path, format, source_digest, source_size, output_size, run_id, created_at"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		outputPath string
		sourcePath string
		formatRaw  string
		digest     string
		sourceSize int64
		outputSize int64
		runID      sql.NullString
		createdRaw string
	)
	if err := scanner.Scan(&outputPath, &sourcePath, &formatRaw, &digest, &sourceSize, &outputSize, &runID, &createdRaw); err != nil {
		return nil, err
	}
	format, err := compression.ParseToken(formatRaw)
	if err != nil {
		return nil, fmt.Errorf("manifest row %s: %w", outputPath, err)
	}
	entry := &Entry{
		OutputPath:   outputPath,
		SourcePath:   sourcePath,
		Format:       format,
		SourceDigest: digest,
		SourceSize:   sourceSize,
		OutputSize:   outputSize,
		RunID:        runID.String,
	}
	if ts, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		entry.CreatedAt = ts
	}
	return entry, nil
}

// Record inserts or replaces the row for entry.OutputPath.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if strings.TrimSpace(entry.OutputPath) == "" {
		return errors.New("manifest entry requires an output path")
	}
	if strings.TrimSpace(entry.SourcePath) == "" {
		return errors.New("manifest entry requires a source path")
	}
	if !entry.Format.Valid() {
		return fmt.Errorf("manifest entry %s has invalid format", entry.OutputPath)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := s.execWithRetry(ctx, `INSERT INTO artifacts (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(output_path) DO UPDATE SET
			source_path = excluded.source_path,
			format = excluded.format,
			source_digest = excluded.source_digest,
			source_size = excluded.source_size,
			output_size = excluded.output_size,
			run_id = excluded.run_id,
			created_at = excluded.created_at`,
		entry.OutputPath,
		entry.SourcePath,
		entry.Format.Token(),
		entry.SourceDigest,
		entry.SourceSize,
		entry.OutputSize,
		nullString(entry.RunID),
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record artifact %s: %w", entry.OutputPath, err)
	}
	return nil
}

// Lookup returns the row for outputPath, or nil when none exists.
func (s *Store) Lookup(ctx context.Context, outputPath string) (*Entry, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+entryColumns+` FROM artifacts WHERE output_path = ?`, outputPath)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup artifact %s: %w", outputPath, err)
	}
	return entry, nil
}

// List returns every row ordered by source path and format.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	return s.query(ctx, `SELECT `+entryColumns+` FROM artifacts ORDER BY source_path, format, output_path`)
}

// ListBySource returns the rows produced from sourcePath.
func (s *Store) ListBySource(ctx context.Context, sourcePath string) ([]Entry, error) {
	return s.query(ctx, `SELECT `+entryColumns+` FROM artifacts WHERE source_path = ? ORDER BY format, output_path`, sourcePath)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// Count returns the number of recorded artifacts.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ensureContext(ctx), `SELECT COUNT(1) FROM artifacts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count artifacts: %w", err)
	}
	return count, nil
}

// Remove deletes the row for outputPath. Missing rows are not an error.
func (s *Store) Remove(ctx context.Context, outputPath string) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM artifacts WHERE output_path = ?`, outputPath); err != nil {
		return fmt.Errorf("remove artifact %s: %w", outputPath, err)
	}
	return nil
}

// Clear deletes every row.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM artifacts`)
	if err != nil {
		return 0, fmt.Errorf("clear manifest: %w", err)
	}
	return res.RowsAffected()
}

// Prune drops rows whose output file no longer exists and returns them.
func (s *Store) Prune(ctx context.Context) ([]Entry, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var removed []Entry
	for _, entry := range entries {
		if _, err := os.Stat(entry.OutputPath); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("stat %s: %w", entry.OutputPath, err)
		}
		if err := s.Remove(ctx, entry.OutputPath); err != nil {
			return removed, err
		}
		removed = append(removed, entry)
	}
	return removed, nil
}

func nullString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
