package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BurakkYuce/rental-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type BookingRepository interface {
	NextReferenceSequence(ctx context.Context, serviceType domain.ServiceType) (int64, error)
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error)
	// Update writes booking if its stored version still equals
	// expectedVersion, and bumps the version.
	Update(ctx context.Context, booking *domain.Booking, expectedVersion int64) error
	Delete(ctx context.Context, id string, expectedVersion int64) error
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, service_type, car_id, transfer_id, drivers, pickup_location, dropoff_location,
	pickup_time, dropoff_time, total::text, currency, status, booking_reference, version, created_at, updated_at`

func referenceSequence(serviceType domain.ServiceType) (string, error) {
	switch serviceType {
	case domain.ServiceTypeCarRental:
		return "car_rental_reference_seq", nil
	case domain.ServiceTypeTransfer:
		return "transfer_reference_seq", nil
	default:
		return "", fmt.Errorf("no reference sequence for service type %q", serviceType)
	}
}

func (r *PGBookingRepository) NextReferenceSequence(ctx context.Context, serviceType domain.ServiceType) (int64, error) {
	seq, err := referenceSequence(serviceType)
	if err != nil {
		return 0, err
	}
	var next int64
	if err := r.db.QueryRow(ctx, `SELECT nextval($1::regclass)`, seq).Scan(&next); err != nil {
		return 0, fmt.Errorf("next reference sequence: %w", err)
	}
	return next, nil
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	carID, transferID := resourceColumns(booking.Resource)
	err := r.db.QueryRow(ctx, `INSERT INTO bookings (id, service_type, car_id, transfer_id, drivers, pickup_location,
			dropoff_location, pickup_time, dropoff_time, total, currency, status, booking_reference, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`,
		booking.ID, booking.ServiceType, carID, transferID, booking.Drivers, booking.PickupLocation,
		booking.DropoffLocation, booking.PickupTime, booking.DropoffTime, booking.Pricing.Amount.String(),
		booking.Pricing.Currency, booking.Status, booking.Reference, booking.Version).
		Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *PGBookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	query, args := listQuery(filter)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func listQuery(filter domain.BookingFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.ServiceType != "" {
		args = append(args, filter.ServiceType)
		where = append(where, fmt.Sprintf("service_type=$%d", len(args)))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return query, args
}

func (r *PGBookingRepository) Update(ctx context.Context, booking *domain.Booking, expectedVersion int64) error {
	err := r.db.QueryRow(ctx, `UPDATE bookings
		SET drivers=$1, pickup_location=$2, dropoff_location=$3, total=$4, currency=$5, status=$6,
			version=version+1, updated_at=now()
		WHERE id=$7 AND version=$8
		RETURNING version, updated_at`,
		booking.Drivers, booking.PickupLocation, booking.DropoffLocation, booking.Pricing.Amount.String(),
		booking.Pricing.Currency, booking.Status, booking.ID, expectedVersion).
		Scan(&booking.Version, &booking.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.missingOrConflict(ctx, booking.ID)
	}
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	return nil
}

func (r *PGBookingRepository) Delete(ctx context.Context, id string, expectedVersion int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id=$1 AND version=$2 AND status=$3`,
		id, expectedVersion, domain.StatusPending)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return r.missingOrConflict(ctx, id)
	}
	return nil
}

func (r *PGBookingRepository) missingOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrBookingNotFound
	}
	return domain.ErrVersionConflict
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b          domain.Booking
		carID      *string
		transferID *string
		total      string
	)
	if err := row.Scan(&b.ID, &b.ServiceType, &carID, &transferID, &b.Drivers, &b.PickupLocation,
		&b.DropoffLocation, &b.PickupTime, &b.DropoffTime, &total, &b.Pricing.Currency, &b.Status,
		&b.Reference, &b.Version, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("booking %s total %q: %w", b.ID, total, err)
	}
	b.Pricing.Amount = amount
	b.Resource = resourceFromColumns(b.ServiceType, carID, transferID)
	return &b, nil
}

func resourceColumns(resource domain.Resource) (carID, transferID *string) {
	switch r := resource.(type) {
	case domain.CarRef:
		return &r.CarID, nil
	case domain.TransferRef:
		return nil, &r.TransferID
	default:
		return nil, nil
	}
}

func resourceFromColumns(serviceType domain.ServiceType, carID, transferID *string) domain.Resource {
	switch {
	case serviceType == domain.ServiceTypeCarRental && carID != nil:
		return domain.CarRef{CarID: *carID}
	case serviceType == domain.ServiceTypeTransfer && transferID != nil:
		return domain.TransferRef{TransferID: *transferID}
	default:
		return nil
	}
}

var _ BookingRepository = (*PGBookingRepository)(nil)
