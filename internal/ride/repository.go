package ride

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists ride settlement records.
type Repository interface {
	Create(ctx context.Context, ride Ride) error
	FindByRideID(ctx context.Context, companyID, rideID string) (Ride, error)
	MarkPaid(ctx context.Context, id string, paidAt time.Time) error
}

// PostgresRepository stores rides in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed ride repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a ride record.
func (r *PostgresRepository) Create(ctx context.Context, ride Ride) error {
	id, err := uuid.Parse(ride.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO rides
        (id, company_id, ride_id, rider_id, driver_id, fare, wallet_paid, cash_paid, commission, mode, state, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		id, ride.CompanyID, ride.RideID, ride.RiderID, ride.DriverID,
		ride.Fare, ride.WalletPaid, ride.CashPaid, ride.Commission, ride.Mode, ride.State, ride.CreatedAt.UTC())
	return err
}

// FindByRideID fetches a ride by its platform id within a company.
func (r *PostgresRepository) FindByRideID(ctx context.Context, companyID, rideID string) (Ride, error) {
	row := r.db.QueryRow(ctx, `SELECT id, company_id, ride_id, rider_id, driver_id, fare, wallet_paid, cash_paid, commission, mode, state, paid_at, created_at
        FROM rides WHERE company_id = $1 AND ride_id = $2`, companyID, rideID)

	var (
		ride      Ride
		id        uuid.UUID
		paidAt    *time.Time
		createdAt time.Time
	)
	err := row.Scan(&id, &ride.CompanyID, &ride.RideID, &ride.RiderID, &ride.DriverID,
		&ride.Fare, &ride.WalletPaid, &ride.CashPaid, &ride.Commission, &ride.Mode, &ride.State, &paidAt, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Ride{}, ErrNotFound
		}
		return Ride{}, err
	}
	ride.ID = id.String()
	if paidAt != nil {
		ride.PaidAt = paidAt.UTC()
	}
	ride.CreatedAt = createdAt.UTC()
	return ride, nil
}

// MarkPaid transitions the ride to its terminal paid state.
func (r *PostgresRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time) error {
	cmd, err := r.db.Exec(ctx, `UPDATE rides SET state = $1, paid_at = $2 WHERE id = $3`,
		StatePaid, paidAt.UTC(), id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
