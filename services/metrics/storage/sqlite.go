package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/iulianpascalau/dashboard-metrics/services/metrics/common"
	_ "github.com/mattn/go-sqlite3"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("storage")

// sqliteStorage is the sqlite implementation for the raw cache-row store
type sqliteStorage struct {
	db               *sql.DB
	retentionSeconds int
	cancelFunc       context.CancelFunc
	wg               sync.WaitGroup
}

// NewSQLiteStorage creates the database, schema, and starts the retention cleaner
func NewSQLiteStorage(dbPath string, retentionSeconds int) (*sqliteStorage, error) {
	err := prepareDirectories(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create initial empty DB file: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = createSchema(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &sqliteStorage{
		db:               db,
		retentionSeconds: retentionSeconds,
		cancelFunc:       cancel,
	}

	s.startRetentionCleaner(ctx)

	return s, nil
}

func prepareDirectories(dbPath string) error {
	return os.MkdirAll(filepath.Dir(dbPath), os.ModePerm)
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS cache_rows (
		domain      TEXT    NOT NULL,
		subject_key TEXT    NOT NULL,
		dimension   TEXT    NOT NULL DEFAULT '',
		payload     TEXT    NOT NULL,
		fetched_at  INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cache_rows_subject ON cache_rows(domain, subject_key);
	CREATE INDEX IF NOT EXISTS idx_cache_rows_fetched_at ON cache_rows(fetched_at);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// SaveRow appends one raw cache row. Rows are never updated in place; the freshest
// row per (subject, dimension) wins at read time.
func (s *sqliteStorage) SaveRow(ctx context.Context, domain string, row common.CacheRow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_rows (domain, subject_key, dimension, payload, fetched_at)
		VALUES (?, ?, ?, ?, ?)
	`, domain, row.SubjectKey, row.Dimension, string(row.Payload), row.FetchedAt)
	if err != nil {
		return fmt.Errorf("failed to insert cache row: %w", err)
	}

	return nil
}

// FetchRows returns the rows matching the query. Ordering is always by fetched_at,
// descending unless the query asks for ascending.
func (s *sqliteStorage) FetchRows(ctx context.Context, domain string, query common.RowQuery) ([]common.CacheRow, error) {
	var sb strings.Builder
	sb.WriteString("SELECT subject_key, dimension, payload, fetched_at FROM cache_rows WHERE domain = ?")
	args := []interface{}{domain}

	if query.SubjectKey != "" {
		sb.WriteString(" AND subject_key = ?")
		args = append(args, query.SubjectKey)
	}
	if query.Dimension != "" {
		sb.WriteString(" AND dimension = ?")
		args = append(args, query.Dimension)
	}
	if query.MinFetchedAt > 0 {
		sb.WriteString(" AND fetched_at >= ?")
		args = append(args, query.MinFetchedAt)
	}

	if query.Ascending {
		sb.WriteString(" ORDER BY fetched_at ASC")
	} else {
		sb.WriteString(" ORDER BY fetched_at DESC")
	}

	if query.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, query.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var results []common.CacheRow
	for rows.Next() {
		var row common.CacheRow
		var payload string

		err = rows.Scan(&row.SubjectKey, &row.Dimension, &payload, &row.FetchedAt)
		if err != nil {
			return nil, err
		}

		row.Payload = []byte(payload)
		results = append(results, row)
	}

	return results, rows.Err()
}

// DeleteSubjectRows removes all cached rows of a subject within one domain
func (s *sqliteStorage) DeleteSubjectRows(ctx context.Context, domain string, subjectKey string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM cache_rows WHERE domain = ? AND subject_key = ?", domain, subjectKey)
	return err
}

// CountRows returns the number of cached rows per domain
func (s *sqliteStorage) CountRows(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT domain, COUNT(*) FROM cache_rows GROUP BY domain")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	res := make(map[string]int)
	for rows.Next() {
		var domain string
		var count int
		if err := rows.Scan(&domain, &count); err != nil {
			return nil, err
		}
		res[domain] = count
	}
	return res, rows.Err()
}

func (s *sqliteStorage) cleanRetainedRows(ctx context.Context) error {
	nowSec := time.Now().Unix()
	cutoff := nowSec - int64(s.retentionSeconds)
	_, err := s.db.ExecContext(ctx, "DELETE FROM cache_rows WHERE fetched_at < ?", cutoff)
	return err
}

func (s *sqliteStorage) startRetentionCleaner(ctx context.Context) {
	s.wg.Add(1)

	// max(RetentionSeconds/10, 60)
	intervalSec := s.retentionSeconds / 10
	if intervalSec < 60 {
		intervalSec = 60
	}

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)

	go func() {
		defer s.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				log.Debug("running retention cleanup")

				err := s.cleanRetainedRows(ctx)
				if err != nil {
					log.Warn("failed to cleanup retained cache rows", "error", err)
				}
			}
		}
	}()
}

// Close closes the database and stops background routines
func (s *sqliteStorage) Close() error {
	s.cancelFunc()
	s.wg.Wait()
	return s.db.Close()
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *sqliteStorage) IsInterfaceNil() bool {
	return s == nil
}
