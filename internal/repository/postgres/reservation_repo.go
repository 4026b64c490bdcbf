package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"eventreserve/internal/domain"
)

// pqUniqueViolation is the Postgres error code for unique constraint violations.
const pqUniqueViolation = "23505"

type reservationRepository struct {
	DB *sql.DB
}

func NewReservationRepository(db *sql.DB) domain.ReservationRepository {
	return &reservationRepository{
		DB: db,
	}
}

// CreateConfirmed checks for an existing confirmed reservation and inserts the
// new one in a single transaction. The schema's partial unique index is a
// backstop for the window between the check and the insert; a violation from
// either path reports ErrAlreadyReserved.
func (r *reservationRepository) CreateConfirmed(ctx context.Context, res *domain.Reservation) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE event_id = $1 AND user_id = $2 AND status = $3
		)`,
		res.EventID, res.UserID, domain.ReservationConfirmed,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrAlreadyReserved
	}

	res.ID = uuid.New().String()
	res.Status = domain.ReservationConfirmed
	_, err = tx.ExecContext(ctx,
		`INSERT INTO reservations (id, event_id, user_id, status, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		res.ID, res.EventID, res.UserID, res.Status, res.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return domain.ErrAlreadyReserved
		}
		return err
	}
	return tx.Commit()
}

// CancelConfirmed is a single conditional update: only a currently confirmed
// reservation can transition, so retries and races report ErrNotFound instead
// of double-cancelling.
func (r *reservationRepository) CancelConfirmed(ctx context.Context, eventID, userID string, cancelledAt time.Time) (*domain.Reservation, error) {
	query := `
		UPDATE reservations
		SET status = $4, cancelled_at = $3
		WHERE event_id = $1 AND user_id = $2 AND status = $5
		RETURNING id, event_id, user_id, status, created_at, cancelled_at
	`
	return scanReservation(r.DB.QueryRowContext(ctx, query,
		eventID, userID, cancelledAt, domain.ReservationCancelled, domain.ReservationConfirmed))
}

func (r *reservationRepository) GetConfirmed(ctx context.Context, eventID, userID string) (*domain.Reservation, error) {
	query := `
		SELECT id, event_id, user_id, status, created_at, cancelled_at
		FROM reservations
		WHERE event_id = $1 AND user_id = $2 AND status = $3
	`
	return scanReservation(r.DB.QueryRowContext(ctx, query, eventID, userID, domain.ReservationConfirmed))
}

func (r *reservationRepository) GetCancelled(ctx context.Context, eventID, userID string) (*domain.Reservation, error) {
	query := `
		SELECT id, event_id, user_id, status, created_at, cancelled_at
		FROM reservations
		WHERE event_id = $1 AND user_id = $2 AND status = $3
		ORDER BY cancelled_at DESC
		LIMIT 1
	`
	return scanReservation(r.DB.QueryRowContext(ctx, query, eventID, userID, domain.ReservationCancelled))
}

func (r *reservationRepository) ListConfirmedByEvent(ctx context.Context, eventID string) ([]*domain.Reservation, error) {
	query := `
		SELECT id, event_id, user_id, status, created_at, cancelled_at
		FROM reservations
		WHERE event_id = $1 AND status = $2
		ORDER BY created_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID, domain.ReservationConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reservations := make([]*domain.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}

func (r *reservationRepository) CountConfirmedByEvent(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE event_id = $1 AND status = $2`,
		eventID, domain.ReservationConfirmed,
	).Scan(&count)
	return count, err
}

// DeleteByUser removes the user's reservation history and reports which
// events held a confirmed reservation, so their counters can be resynced.
func (r *reservationRepository) DeleteByUser(ctx context.Context, userID string) ([]string, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT DISTINCT event_id FROM reservations WHERE user_id = $1 AND status = $2`,
		userID, domain.ReservationConfirmed,
	)
	if err != nil {
		return nil, err
	}
	var eventIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		eventIDs = append(eventIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE user_id = $1`, userID); err != nil {
		return nil, err
	}
	return eventIDs, tx.Commit()
}

func scanReservation(row interface{ Scan(...any) error }) (*domain.Reservation, error) {
	res := &domain.Reservation{}
	var cancelledAt sql.NullTime
	err := row.Scan(&res.ID, &res.EventID, &res.UserID, &res.Status, &res.CreatedAt, &cancelledAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if cancelledAt.Valid {
		res.CancelledAt = &cancelledAt.Time
	}
	return res, nil
}
