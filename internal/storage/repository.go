package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dashwatch/internal/pipeline"
)

// ErrNotConfigured indicates the storage pool was not initialised.
var ErrNotConfigured = errors.New("storage: pool not configured")

const (
	createWatermarkTableSQL = `CREATE TABLE IF NOT EXISTS watermark (
        id  SMALLINT PRIMARY KEY,
        ts  TIMESTAMPTZ NOT NULL
    );`

	createRecordsTableSQL = `CREATE TABLE IF NOT EXISTS emitted_records (
        id         BIGSERIAL PRIMARY KEY,
        record_ts  TIMESTAMPTZ NOT NULL,
        module     TEXT NOT NULL,
        fields     JSONB NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );`

	selectWatermarkSQL = `SELECT ts FROM watermark WHERE id = 1;`

	upsertWatermarkSQL = `INSERT INTO watermark (id, ts) VALUES (1, $1)
    ON CONFLICT (id) DO UPDATE SET ts = EXCLUDED.ts;`

	insertRecordSQL = `INSERT INTO emitted_records (record_ts, module, fields)
    VALUES ($1, $2, $3);`

	listRecentRecordsSQL = `SELECT record_ts, module, fields, created_at
    FROM emitted_records
    ORDER BY record_ts DESC
    LIMIT $1;`
)

// EmittedRecord is one journaled pipeline emission.
type EmittedRecord struct {
	Timestamp time.Time
	Module    string
	Fields    map[string]float64
	CreatedAt time.Time
}

// Store is the PostgreSQL backend: it implements watermark.Store and keeps
// an audit journal of everything the pipeline emitted.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Init creates the schema when missing.
func (s *Store) Init(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	for _, stmt := range []string{createWatermarkTableSQL, createRecordsTableSQL} {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Load reads the emission watermark. No row means no watermark yet.
func (s *Store) Load(ctx context.Context) (time.Time, bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return time.Time{}, false, err
	}

	var ts time.Time
	err = pool.QueryRow(ctx, selectWatermarkSQL).Scan(&ts)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("load watermark: %w", err)
	}
	return ts.UTC(), true, nil
}

// Save overwrites the emission watermark.
func (s *Store) Save(ctx context.Context, ts time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, upsertWatermarkSQL, ts.UTC()); err != nil {
		return fmt.Errorf("save watermark: %w", err)
	}
	return nil
}

// InsertRecords journals one module's emitted records.
func (s *Store) InsertRecords(ctx context.Context, module string, records []pipeline.Record) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	for _, record := range records {
		fields, err := json.Marshal(record.Fields)
		if err != nil {
			return fmt.Errorf("marshal record fields: %w", err)
		}
		if _, err := pool.Exec(ctx, insertRecordSQL, record.Timestamp.UTC(), module, fields); err != nil {
			return fmt.Errorf("insert emitted record: %w", err)
		}
	}
	return nil
}

// ListRecentRecords returns the newest journaled records first.
func (s *Store) ListRecentRecords(ctx context.Context, limit int) ([]EmittedRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentRecordsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list emitted records: %w", queryErr)
	}
	defer rows.Close()

	records := make([]EmittedRecord, 0)
	for rows.Next() {
		var record EmittedRecord
		var fields []byte
		if err := rows.Scan(&record.Timestamp, &record.Module, &fields, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan emitted record: %w", err)
		}
		if err := json.Unmarshal(fields, &record.Fields); err != nil {
			return nil, fmt.Errorf("decode record fields: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate emitted records: %w", err)
	}
	return records, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}
