package domain

import (
	"context"
	"time"
)

// ReservationStatus is the state of a reservation. Cancelled reservations are
// kept for history; they never count against capacity.
type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Reservation is a slot-holding record for a (user, event) pair. At most one
// confirmed reservation may exist per pair at any time.
// swagger:model Reservation
type Reservation struct {
	ID          string            `json:"id"`
	EventID     string            `json:"event_id"`
	UserID      string            `json:"user_id"`
	Status      ReservationStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	CancelledAt *time.Time        `json:"cancelled_at,omitempty"`
}

// NewReservation returns a confirmed Reservation for the pair. ID is set by
// the repository on create.
func NewReservation(eventID, userID string, createdAt time.Time) *Reservation {
	return &Reservation{
		EventID:   eventID,
		UserID:    userID,
		Status:    ReservationConfirmed,
		CreatedAt: createdAt,
	}
}

// ReservationRepository defines storage operations for reservations.
type ReservationRepository interface {
	// CreateConfirmed inserts res after verifying, inside the same
	// transaction, that no confirmed reservation exists for the pair.
	// Returns ErrAlreadyReserved when the uniqueness check fails.
	CreateConfirmed(ctx context.Context, res *Reservation) error

	// CancelConfirmed transitions the pair's confirmed reservation to
	// cancelled, stamping cancelledAt. Returns ErrNotFound when no confirmed
	// reservation exists.
	CancelConfirmed(ctx context.Context, eventID, userID string, cancelledAt time.Time) (*Reservation, error)

	// GetConfirmed returns the pair's confirmed reservation or ErrNotFound.
	GetConfirmed(ctx context.Context, eventID, userID string) (*Reservation, error)

	// GetCancelled returns the pair's most recently cancelled reservation or
	// ErrNotFound. Used to tell a retried cancellation from a user who never
	// reserved.
	GetCancelled(ctx context.Context, eventID, userID string) (*Reservation, error)

	// ListConfirmedByEvent returns confirmed reservations for the event,
	// ordered by creation time ascending.
	ListConfirmedByEvent(ctx context.Context, eventID string) ([]*Reservation, error)

	// CountConfirmedByEvent returns the number of confirmed reservations for
	// the event. Used by invariant checks and reconciliation.
	CountConfirmedByEvent(ctx context.Context, eventID string) (int, error)

	// DeleteByUser removes every reservation held by userID and returns the
	// IDs of events that lost a confirmed reservation, so callers can resync
	// their counters.
	DeleteByUser(ctx context.Context, userID string) (affectedEventIDs []string, err error)
}

// ReservationService is the capacity-bounded reservation core.
type ReservationService interface {
	// Join reserves a slot on the event for the user. On success the event's
	// attendee count grows by exactly one; on any failure it is unchanged.
	Join(ctx context.Context, eventID, userID string) (*Reservation, int, error)

	// Leave cancels the user's confirmed reservation and frees its slot,
	// returning the spots available afterwards.
	Leave(ctx context.Context, eventID, userID string) (int, error)

	// Status reports whether the user holds a confirmed reservation.
	Status(ctx context.Context, eventID, userID string) (bool, error)

	// ListAttendees returns the event's confirmed reservations in reservation
	// order.
	ListAttendees(ctx context.Context, eventID string) ([]*Reservation, error)
}
