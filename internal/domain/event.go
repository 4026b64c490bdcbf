package domain

import (
	"context"
	"time"
)

// EventStatus is the lifecycle phase of an event.
type EventStatus string

const (
	StatusUpcoming  EventStatus = "upcoming"
	StatusOngoing   EventStatus = "ongoing"
	StatusCompleted EventStatus = "completed"
	StatusCancelled EventStatus = "cancelled"
)

// DefaultEventDuration is how long an event is considered ongoing after its
// scheduled start. Events carry no explicit end time.
const DefaultEventDuration = 4 * time.Hour

// DeriveStatus computes the lifecycle status of an event from its schedule and
// the current time. A cancelled event stays cancelled regardless of time.
func DeriveStatus(scheduledAt time.Time, cancelled bool, now time.Time) EventStatus {
	if cancelled {
		return StatusCancelled
	}
	if now.Before(scheduledAt) {
		return StatusUpcoming
	}
	if now.Before(scheduledAt.Add(DefaultEventDuration)) {
		return StatusOngoing
	}
	return StatusCompleted
}

// Event represents a capacity-limited event.
// swagger:model Event
type Event struct {
	ID               string      `json:"id"`
	OwnerID          string      `json:"owner_id"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Capacity         int         `json:"capacity"`
	CurrentAttendees int         `json:"current_attendees"`
	ScheduledAt      time.Time   `json:"scheduled_at"`
	Cancelled        bool        `json:"-"`
	Status           EventStatus `json:"status"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// NewEvent returns a new Event owned by ownerID. ID is set by the repository
// on create.
func NewEvent(ownerID, title, description string, capacity int, scheduledAt, createdAt time.Time) *Event {
	return &Event{
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Capacity:    capacity,
		ScheduledAt: scheduledAt,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

// AvailableSpots returns how many confirmed reservations the event can still
// accept. Computed, never stored.
func (e *Event) AvailableSpots() int {
	return e.Capacity - e.CurrentAttendees
}

// IsFull reports whether the event has no remaining capacity.
func (e *Event) IsFull() bool {
	return e.CurrentAttendees >= e.Capacity
}

// DeriveStatus refreshes e.Status from the schedule and the given time.
func (e *Event) DeriveStatus(now time.Time) EventStatus {
	e.Status = DeriveStatus(e.ScheduledAt, e.Cancelled, now)
	return e.Status
}

// EventUpdate carries the organizer-editable fields of an event. Nil fields
// are left unchanged.
type EventUpdate struct {
	Title       *string
	Description *string
	Capacity    *int
	ScheduledAt *time.Time
}

// EventRepository defines storage operations for events. ReserveSlot and
// ReleaseSlot are the only mutations of current_attendees besides
// SyncAttendeeCount; each is a single conditional statement so the capacity
// check and the write cannot be interleaved by a concurrent caller.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context) ([]*Event, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]*Event, error)

	// Update applies upd only if the resulting capacity stays at or above
	// current_attendees. Returns ErrInvalidInput when the capacity guard
	// rejects the write and ErrNotFound when the event does not exist.
	Update(ctx context.Context, eventID string, upd EventUpdate) (*Event, error)

	// Cancel marks the event cancelled. The flag is sticky.
	Cancel(ctx context.Context, eventID string) (*Event, error)

	// Delete removes the event and all of its reservations in one transaction.
	Delete(ctx context.Context, eventID string) error

	// ReserveSlot atomically increments current_attendees provided the event
	// is not cancelled, still inside its active window at now, and below
	// capacity. Returns the remaining spots after the increment, or
	// ErrNotFound when the conditional update matched no row.
	ReserveSlot(ctx context.Context, eventID string, now time.Time) (availableSpots int, err error)

	// ReleaseSlot atomically decrements current_attendees, never below zero.
	// Returns the remaining spots after the decrement.
	ReleaseSlot(ctx context.Context, eventID string) (availableSpots int, err error)

	// SyncAttendeeCount rewrites current_attendees from the count of confirmed
	// reservations. Idempotent; used by the reconciler.
	SyncAttendeeCount(ctx context.Context, eventID string) error

	// ListOutOfSync returns IDs of events whose counter disagrees with their
	// confirmed reservation count and whose row was last touched before
	// updatedBefore. The cutoff keeps an in-flight reservation, which is
	// legitimately out of sync between its two writes, from being reported.
	ListOutOfSync(ctx context.Context, updatedBefore time.Time) ([]string, error)

	// UpdateStatus persists a derived status snapshot. Best effort: callers
	// treat failures as non-fatal since status is recomputed on every read.
	UpdateStatus(ctx context.Context, eventID string, status EventStatus) error
}

// EventService defines organizer-facing event operations.
type EventService interface {
	CreateEvent(ctx context.Context, ownerID, title, description string, capacity int, scheduledAt time.Time) (*Event, error)
	GetEvent(ctx context.Context, eventID string) (*Event, error)
	ListEvents(ctx context.Context) ([]*Event, error)
	ListMyEvents(ctx context.Context, ownerID string) ([]*Event, error)
	UpdateEvent(ctx context.Context, eventID, ownerID string, upd EventUpdate) (*Event, error)
	CancelEvent(ctx context.Context, eventID, ownerID string) (*Event, error)
	DeleteEvent(ctx context.Context, eventID, ownerID string) error
}
