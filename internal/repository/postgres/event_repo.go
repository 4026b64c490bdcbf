package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventreserve/internal/domain"
)

const eventColumns = `id, owner_id, title, description, capacity, current_attendees, scheduled_at, cancelled, status, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func scanEvent(row interface{ Scan(...any) error }) (*domain.Event, error) {
	e := &domain.Event{}
	err := row.Scan(
		&e.ID, &e.OwnerID, &e.Title, &e.Description, &e.Capacity, &e.CurrentAttendees,
		&e.ScheduledAt, &e.Cancelled, &e.Status, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	e.ID = uuid.New().String()
	e.Status = domain.DeriveStatus(e.ScheduledAt, e.Cancelled, e.CreatedAt)
	query := `
		INSERT INTO events (id, owner_id, title, description, capacity, current_attendees, scheduled_at, cancelled, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.DB.ExecContext(ctx, query,
		e.ID, e.OwnerID, e.Title, e.Description, e.Capacity, e.CurrentAttendees,
		e.ScheduledAt, e.Cancelled, e.Status, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return scanEvent(r.DB.QueryRowContext(ctx, query, id))
}

func (r *eventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY scheduled_at ASC`
	return r.queryEvents(ctx, query)
}

func (r *eventRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE owner_id = $1 ORDER BY created_at DESC`
	return r.queryEvents(ctx, query, ownerID)
}

func (r *eventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Update applies the given fields. When capacity changes, the statement itself
// requires current_attendees <= new capacity so the guard and the write are a
// single atomic operation.
func (r *eventRepository) Update(ctx context.Context, eventID string, upd domain.EventUpdate) (*domain.Event, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []any{}
	n := 1
	if upd.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", n))
		args = append(args, *upd.Title)
		n++
	}
	if upd.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", n))
		args = append(args, *upd.Description)
		n++
	}
	if upd.ScheduledAt != nil {
		setClauses = append(setClauses, fmt.Sprintf("scheduled_at = $%d", n))
		args = append(args, *upd.ScheduledAt)
		n++
	}
	where := fmt.Sprintf("id = $%d", n)
	args = append(args, eventID)
	n++
	if upd.Capacity != nil {
		setClauses = append(setClauses, fmt.Sprintf("capacity = $%d", n))
		where += fmt.Sprintf(" AND current_attendees <= $%d", n)
		args = append(args, *upd.Capacity)
		n++
	}

	query := fmt.Sprintf(`UPDATE events SET %s WHERE %s RETURNING `+eventColumns,
		strings.Join(setClauses, ", "), where)
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) && upd.Capacity != nil {
			// Distinguish a missing event from a rejected capacity reduction.
			if _, getErr := r.GetByID(ctx, eventID); getErr == nil {
				return nil, domain.ErrInvalidInput
			}
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Cancel(ctx context.Context, eventID string) (*domain.Event, error) {
	query := `
		UPDATE events
		SET cancelled = TRUE, status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + eventColumns
	return scanEvent(r.DB.QueryRowContext(ctx, query, eventID, domain.StatusCancelled))
}

// Delete removes the event and its reservations in one transaction so neither
// ledger can reference the other's leftovers.
func (r *eventRepository) Delete(ctx context.Context, eventID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE event_id = $1`, eventID); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, eventID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return tx.Commit()
}

// ReserveSlot is the capacity gate: one conditional update, so the check and
// the increment cannot be split by a concurrent reservation. The row matches
// only while the event is not cancelled, not past its active window, and
// below capacity. RETURNING sees the incremented row, so the result is the
// spots remaining after this reservation.
func (r *eventRepository) ReserveSlot(ctx context.Context, eventID string, now time.Time) (int, error) {
	activeAfter := now.Add(-domain.DefaultEventDuration)
	query := `
		UPDATE events
		SET current_attendees = current_attendees + 1, updated_at = NOW()
		WHERE id = $1
		  AND cancelled = FALSE
		  AND scheduled_at > $2
		  AND current_attendees < capacity
		RETURNING capacity - current_attendees
	`
	var spots int
	err := r.DB.QueryRowContext(ctx, query, eventID, activeAfter).Scan(&spots)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return spots, nil
}

// ReleaseSlot mirrors ReserveSlot; the floor guard keeps the counter from
// going negative if a release is retried.
func (r *eventRepository) ReleaseSlot(ctx context.Context, eventID string) (int, error) {
	query := `
		UPDATE events
		SET current_attendees = current_attendees - 1, updated_at = NOW()
		WHERE id = $1 AND current_attendees > 0
		RETURNING capacity - current_attendees
	`
	var spots int
	err := r.DB.QueryRowContext(ctx, query, eventID).Scan(&spots)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return spots, nil
}

// SyncAttendeeCount rewrites the counter from the reservation ledger. The
// subquery runs inside the UPDATE, so the result is consistent with the
// ledger at statement time no matter how stale the counter was.
func (r *eventRepository) SyncAttendeeCount(ctx context.Context, eventID string) error {
	query := `
		UPDATE events
		SET current_attendees = (
			SELECT COUNT(*) FROM reservations
			WHERE event_id = $1 AND status = $2
		), updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.DB.ExecContext(ctx, query, eventID, domain.ReservationConfirmed)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListOutOfSync only reports rows untouched since updatedBefore. Every slot
// mutation stamps updated_at, so an event in the middle of a reservation's
// increment-then-insert pair never matches; drift left by a failed decrement
// sits still and ages into the result.
func (r *eventRepository) ListOutOfSync(ctx context.Context, updatedBefore time.Time) ([]string, error) {
	query := `
		SELECT e.id
		FROM events e
		LEFT JOIN reservations r ON r.event_id = e.id AND r.status = $1
		WHERE e.updated_at < $2
		GROUP BY e.id
		HAVING e.current_attendees <> COUNT(r.id)
	`
	rows, err := r.DB.QueryContext(ctx, query, domain.ReservationConfirmed, updatedBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *eventRepository) UpdateStatus(ctx context.Context, eventID string, status domain.EventStatus) error {
	query := `UPDATE events SET status = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.DB.ExecContext(ctx, query, eventID, status)
	return err
}
