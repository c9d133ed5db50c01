package production

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository persists production records across the two disjoint sets.
type Repository interface {
	InsertUnverified(ctx context.Context, record Record) error
	InsertVerified(ctx context.Context, record Record) error
	// ListByPAN returns the producer's records from both sets, newest first.
	ListByPAN(ctx context.Context, pan string) ([]Record, error)
	// ListUnverified returns every pending record, newest first.
	ListUnverified(ctx context.Context) ([]Record, error)
	// TakeUnverified removes the record from the unverified set and returns
	// it, or ErrRecordNotFound if it is not there.
	TakeUnverified(ctx context.Context, id string) (Record, error)
}

// PostgresRepository stores production records in PostgreSQL, one table per
// set (`unverified`, `verified`).
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed production record repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) InsertUnverified(ctx context.Context, record Record) error {
	return r.insert(ctx, "unverified", record)
}

func (r *PostgresRepository) InsertVerified(ctx context.Context, record Record) error {
	return r.insert(ctx, "verified", record)
}

func (r *PostgresRepository) insert(ctx context.Context, table string, record Record) error {
	recordID, err := uuid.Parse(record.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (id, pan, gst, hydrogen_kg, electricity_kwh, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`, table),
		recordID, record.PAN, record.GST, record.HydrogenKg.String(), record.ElectricityKwh.String(), record.CreatedAt.UTC())
	return err
}

func (r *PostgresRepository) ListByPAN(ctx context.Context, pan string) ([]Record, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, pan, gst, hydrogen_kg::text, electricity_kwh::text, created_at, false AS verified
        FROM unverified WHERE pan = $1
        UNION ALL
        SELECT id, pan, gst, hydrogen_kg::text, electricity_kwh::text, created_at, true AS verified
        FROM verified WHERE pan = $1
        ORDER BY created_at DESC`, pan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *PostgresRepository) ListUnverified(ctx context.Context) ([]Record, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, pan, gst, hydrogen_kg::text, electricity_kwh::text, created_at, false AS verified
        FROM unverified ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *PostgresRepository) TakeUnverified(ctx context.Context, id string) (Record, error) {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return Record{}, ErrRecordNotFound
	}
	row := r.db.QueryRow(ctx, `DELETE FROM unverified WHERE id = $1
        RETURNING id, pan, gst, hydrogen_kg::text, electricity_kwh::text, created_at`, recordID)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrRecordNotFound
		}
		return Record{}, err
	}
	return record, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		record      Record
		recordID    uuid.UUID
		hydrogen    string
		electricity string
		createdAt   time.Time
	)
	if err := row.Scan(&recordID, &record.PAN, &record.GST, &hydrogen, &electricity, &createdAt); err != nil {
		return Record{}, err
	}
	record.ID = recordID.String()
	record.CreatedAt = createdAt.UTC()

	var err error
	if record.HydrogenKg, err = decimal.NewFromString(hydrogen); err != nil {
		return Record{}, fmt.Errorf("decode hydrogen_kg: %w", err)
	}
	if record.ElectricityKwh, err = decimal.NewFromString(electricity); err != nil {
		return Record{}, fmt.Errorf("decode electricity_kwh: %w", err)
	}
	return record, nil
}

func scanRecords(rows pgx.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var (
			record      Record
			recordID    uuid.UUID
			hydrogen    string
			electricity string
			createdAt   time.Time
		)
		if err := rows.Scan(&recordID, &record.PAN, &record.GST, &hydrogen, &electricity, &createdAt, &record.Verified); err != nil {
			return nil, err
		}
		record.ID = recordID.String()
		record.CreatedAt = createdAt.UTC()

		var err error
		if record.HydrogenKg, err = decimal.NewFromString(hydrogen); err != nil {
			return nil, fmt.Errorf("decode hydrogen_kg: %w", err)
		}
		if record.ElectricityKwh, err = decimal.NewFromString(electricity); err != nil {
			return nil, fmt.Errorf("decode electricity_kwh: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
