package identity

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates no company is registered under the given PAN.
var ErrNotFound = errors.New("company not found")

// Repository persists company profiles.
type Repository interface {
	FindByPAN(ctx context.Context, pan string) (Company, error)
	Upsert(ctx context.Context, company Company) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed company repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindByPAN fetches a company by its PAN.
func (r *PostgresRepository) FindByPAN(ctx context.Context, pan string) (Company, error) {
	row := r.db.QueryRow(ctx, `SELECT pan, gst, email, company_name, address, phone, sector, created_at
        FROM companies WHERE pan = $1`, pan)
	var (
		c         Company
		createdAt time.Time
	)
	if err := row.Scan(&c.PAN, &c.GST, &c.Email, &c.CompanyName, &c.Address, &c.Phone, &c.Sector, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, ErrNotFound
		}
		return Company{}, err
	}
	c.CreatedAt = createdAt.UTC()
	return c, nil
}

// Upsert inserts the company or merges profile fields into an existing row.
func (r *PostgresRepository) Upsert(ctx context.Context, company Company) error {
	_, err := r.db.Exec(ctx, `INSERT INTO companies (pan, gst, email, company_name, address, phone, sector, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (pan) DO UPDATE SET
            gst = EXCLUDED.gst,
            email = EXCLUDED.email,
            company_name = EXCLUDED.company_name,
            address = EXCLUDED.address,
            phone = EXCLUDED.phone,
            sector = EXCLUDED.sector`,
		company.PAN, company.GST, company.Email, company.CompanyName,
		company.Address, company.Phone, company.Sector, company.CreatedAt.UTC())
	return err
}
