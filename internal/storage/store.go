package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/runnerr0/greentab/internal/footprint"
)

var (
	// ErrNoRecords is returned when an operation needs a record and the
	// store is empty.
	ErrNoRecords = errors.New("no records")
	// ErrAlreadyEnriched is returned when the last record already carries
	// a page size.
	ErrAlreadyEnriched = errors.New("last record already has a page size")
)

// Store defines the record operations used by the tracker, the dashboard
// and the CLI.
type Store interface {
	AppendRecord(ctx context.Context, rec *Record) error
	MergePageSize(ctx context.Context, pageSize int64) (*Record, error)
	LastRecord(ctx context.Context) (*Record, error)
	ListRecords(ctx context.Context) ([]Record, error)
	ListRecentRecords(ctx context.Context, q RecordQuery) ([]Record, error)
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	insertRecord  *sql.Stmt
	truncate      *sql.Stmt
	lastRecord    *sql.Stmt
	enrichRecord  *sql.Stmt
	listAscending *sql.Stmt
}

const recordColumns = `id, session_id, url, domain, time_ms, ts, page_size, energy_kwh, carbon_kg`

// NewSQLiteStore creates a store from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.prepareStatements(); err != nil {
		s.Close()
		return nil, fmt.Errorf("prepare statements: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertRecord, err = s.db.Prepare(`
		INSERT INTO records (session_id, url, domain, time_ms, ts, page_size, energy_kwh, carbon_kg)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	// Everything at or below the (MaxRecords+1)-th newest id goes. With fewer
	// rows the subquery is NULL and nothing matches.
	s.truncate, err = s.db.Prepare(`
		DELETE FROM records WHERE id <= (
			SELECT id FROM records ORDER BY id DESC LIMIT 1 OFFSET ?
		)
	`)
	if err != nil {
		return err
	}

	s.lastRecord, err = s.db.Prepare(`SELECT ` + recordColumns + ` FROM records ORDER BY id DESC LIMIT 1`)
	if err != nil {
		return err
	}

	s.enrichRecord, err = s.db.Prepare(`
		UPDATE records SET page_size = ?, energy_kwh = ?, carbon_kg = ?
		WHERE id = ? AND page_size IS NULL
	`)
	if err != nil {
		return err
	}

	s.listAscending, err = s.db.Prepare(`SELECT ` + recordColumns + ` FROM records ORDER BY id ASC`)
	return err
}

// AppendRecord inserts rec as the newest record and drops the oldest ones
// beyond MaxRecords, atomically. ID and Domain are filled in; a zero
// Timestamp becomes now.
func (s *SQLiteStore) AppendRecord(ctx context.Context, rec *Record) error {
	if rec.TimeMs < 0 {
		return fmt.Errorf("append record: negative time %d", rec.TimeMs)
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().UnixMilli()
	}
	rec.Domain = footprint.SiteKey(rec.URL)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.StmtContext(ctx, s.insertRecord).ExecContext(ctx,
		rec.SessionID, rec.URL, rec.Domain, rec.TimeMs, rec.Timestamp,
		nullInt(rec.PageSize), nullFloat(rec.EnergyKWh), nullFloat(rec.CarbonKg),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	if _, err := tx.StmtContext(ctx, s.truncate).ExecContext(ctx, MaxRecords); err != nil {
		return fmt.Errorf("truncate records: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("record id: %w", err)
	}
	rec.ID = id
	return nil
}

// MergePageSize attaches pageSize and its estimate to the newest record.
// Only that record is eligible, and only once: ErrNoRecords and
// ErrAlreadyEnriched report the two cases where nothing is written.
func (s *SQLiteStore) MergePageSize(ctx context.Context, pageSize int64) (*Record, error) {
	if pageSize < 0 {
		return nil, fmt.Errorf("merge page size: negative size %d", pageSize)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rec, err := scanRecord(tx.StmtContext(ctx, s.lastRecord).QueryRowContext(ctx))
	if err != nil {
		return nil, err
	}
	if rec.Enriched() {
		return nil, ErrAlreadyEnriched
	}

	est := footprint.FromPageSize(pageSize)
	if _, err := tx.StmtContext(ctx, s.enrichRecord).ExecContext(ctx,
		pageSize, est.EnergyKWh, est.CarbonKg, rec.ID,
	); err != nil {
		return nil, fmt.Errorf("enrich record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit enrichment: %w", err)
	}

	rec.PageSize = &pageSize
	rec.EnergyKWh = &est.EnergyKWh
	rec.CarbonKg = &est.CarbonKg
	return rec, nil
}

// LastRecord returns the newest record, or ErrNoRecords.
func (s *SQLiteStore) LastRecord(ctx context.Context) (*Record, error) {
	return scanRecord(s.lastRecord.QueryRowContext(ctx))
}

// ListRecords returns every record, oldest first.
func (s *SQLiteStore) ListRecords(ctx context.Context) ([]Record, error) {
	rows, err := s.listAscending.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	return collectRecords(rows)
}

// ListRecentRecords returns records newest first, filtered by q.
func (s *SQLiteStore) ListRecentRecords(ctx context.Context, q RecordQuery) ([]Record, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}

	var clauses []string
	var args []interface{}

	if q.Domain != "" {
		clauses = append(clauses, "domain = ?")
		args = append(args, q.Domain)
	}
	if !q.Since.IsZero() {
		clauses = append(clauses, "ts >= ?")
		args = append(args, q.Since.UnixMilli())
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	query := `SELECT ` + recordColumns + ` FROM records` + where + ` ORDER BY id DESC LIMIT ?`
	args = append(args, q.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	return collectRecords(rows)
}

// GetStats returns aggregate statistics about the store.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	var oldest, newest sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(page_size), COALESCE(SUM(time_ms), 0),
		       COALESCE(SUM(page_size), 0), MIN(ts), MAX(ts)
		FROM records
	`).Scan(&stats.TotalRecords, &stats.EnrichedRecords, &stats.TotalTimeMs,
		&stats.TotalPageBytes, &oldest, &newest)
	if err != nil {
		return nil, fmt.Errorf("record totals: %w", err)
	}
	if oldest.Valid {
		stats.OldestRecord = time.UnixMilli(oldest.Int64)
	}
	if newest.Valid {
		stats.NewestRecord = time.UnixMilli(newest.Int64)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT domain, COUNT(*) AS cnt FROM records GROUP BY domain ORDER BY cnt DESC, MIN(id) ASC LIMIT 10",
	)
	if err != nil {
		return nil, fmt.Errorf("top domains: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dc DomainCount
		if err := rows.Scan(&dc.Domain, &dc.Count); err != nil {
			return nil, err
		}
		stats.TopDomains = append(stats.TopDomains, dc)
	}

	return stats, rows.Err()
}

// Close releases the prepared statements. The underlying *sql.DB is the
// caller's to close.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{
		s.insertRecord, s.truncate, s.lastRecord, s.enrichRecord, s.listAscending,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var r Record
	var pageSize sql.NullInt64
	var energy, carbon sql.NullFloat64

	err := row.Scan(&r.ID, &r.SessionID, &r.URL, &r.Domain, &r.TimeMs, &r.Timestamp,
		&pageSize, &energy, &carbon)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoRecords
		}
		return nil, fmt.Errorf("scan record: %w", err)
	}

	if pageSize.Valid {
		v := pageSize.Int64
		r.PageSize = &v
	}
	if energy.Valid {
		v := energy.Float64
		r.EnergyKWh = &v
	}
	if carbon.Valid {
		v := carbon.Float64
		r.CarbonKg = &v
	}
	return &r, nil
}

func collectRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
