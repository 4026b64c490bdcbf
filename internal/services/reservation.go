package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventreserve/internal/domain"
)

type reservationService struct {
	eventRepo       domain.EventRepository
	reservationRepo domain.ReservationRepository
	logger          *slog.Logger
	contextTimeout  time.Duration
	now             func() time.Time
}

// NewReservationService creates the reservation core with the given ledgers.
func NewReservationService(
	eventRepo domain.EventRepository,
	reservationRepo domain.ReservationRepository,
	logger *slog.Logger,
	timeout time.Duration,
) domain.ReservationService {
	return &reservationService{
		eventRepo:       eventRepo,
		reservationRepo: reservationRepo,
		logger:          logger,
		contextTimeout:  timeout,
		now:             time.Now,
	}
}

// Join reserves a slot and records the reservation. The slot increment is one
// conditional update in the event ledger; the reservation insert follows, and
// a failed insert releases the slot again before the error is returned, so
// the two ledgers never disagree past the end of the call.
//
// The work runs detached from caller cancellation: once the gate fires, the
// operation completes or compensates even if the caller stops waiting.
func (s *reservationService) Join(ctx context.Context, eventID, userID string) (*domain.Reservation, int, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.contextTimeout)
	defer cancel()

	now := s.now()
	spots, err := s.eventRepo.ReserveSlot(ctx, eventID, now)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, s.classifyGateMiss(ctx, eventID, userID, now)
		}
		return nil, 0, fmt.Errorf("reserve slot: %w", err)
	}

	res := domain.NewReservation(eventID, userID, now)
	if err := s.reservationRepo.CreateConfirmed(ctx, res); err != nil {
		if _, relErr := s.eventRepo.ReleaseSlot(ctx, eventID); relErr != nil {
			// The background reconciler picks the event up from the ledger diff.
			s.logger.ErrorContext(ctx, "release slot after failed reservation create",
				"event_id", eventID, "user_id", userID, "err", relErr)
		}
		if errors.Is(err, domain.ErrAlreadyReserved) {
			return nil, 0, domain.ErrAlreadyReserved
		}
		return nil, 0, fmt.Errorf("create reservation: %w", err)
	}
	return res, spots, nil
}

// classifyGateMiss decides which terminal error a rejected capacity gate
// maps to. The gate itself only reports that no row matched; a second read
// tells us why. Any race between the gate and this read can only change the
// error we pick, never admit an attendee.
func (s *reservationService) classifyGateMiss(ctx context.Context, eventID, userID string, now time.Time) error {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	switch event.DeriveStatus(now) {
	case domain.StatusCancelled, domain.StatusCompleted:
		return domain.ErrNotFound
	}
	if _, err := s.reservationRepo.GetConfirmed(ctx, eventID, userID); err == nil {
		return domain.ErrAlreadyReserved
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("get reservation: %w", err)
	}
	return domain.ErrCapacityExceeded
}

// Leave cancels the confirmed reservation first, then frees the slot.
// Cancel-first means a crash between the two steps leaves the counter too
// high: the event looks fuller than it is, which can never over-book and is
// repaired by reconciliation.
func (s *reservationService) Leave(ctx context.Context, eventID, userID string) (int, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.contextTimeout)
	defer cancel()

	if _, err := s.reservationRepo.CancelConfirmed(ctx, eventID, userID, s.now()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.finishInterruptedLeave(ctx, eventID, userID)
		}
		return 0, fmt.Errorf("cancel reservation: %w", err)
	}

	spots, err := s.eventRepo.ReleaseSlot(ctx, eventID)
	if err != nil {
		s.logger.ErrorContext(ctx, "release slot after cancellation",
			"event_id", eventID, "user_id", userID, "err", err)
		if syncErr := s.eventRepo.SyncAttendeeCount(ctx, eventID); syncErr == nil {
			return s.availableSpots(ctx, eventID)
		}
		return 0, domain.ErrReconciliationRequired
	}
	return spots, nil
}

// finishInterruptedLeave handles a Leave retry whose first attempt cancelled
// the reservation but failed to decrement the counter. No confirmed
// reservation exists for the pair, so the retry is only recognized when a
// cancelled reservation proves the pair once held one; a caller who never
// reserved gets ErrNotFound even while the counter is drifting. With that
// evidence, a counter above the ledger means the sync is what's left of the
// interrupted call, and completing it finishes the leave.
func (s *reservationService) finishInterruptedLeave(ctx context.Context, eventID, userID string) (int, error) {
	if _, err := s.reservationRepo.GetCancelled(ctx, eventID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("get cancelled reservation: %w", err)
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return 0, err
	}
	count, err := s.reservationRepo.CountConfirmedByEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("count reservations: %w", err)
	}
	if event.CurrentAttendees <= count {
		return 0, domain.ErrNotFound
	}
	if err := s.eventRepo.SyncAttendeeCount(ctx, eventID); err != nil {
		return 0, domain.ErrReconciliationRequired
	}
	return event.Capacity - count, nil
}

func (s *reservationService) availableSpots(ctx context.Context, eventID string) (int, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return 0, err
	}
	return event.AvailableSpots(), nil
}

// Status is a lock-free read; it may trail an in-flight Join by a moment.
func (s *reservationService) Status(ctx context.Context, eventID, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	_, err := s.reservationRepo.GetConfirmed(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get reservation: %w", err)
	}
	return true, nil
}

// ListAttendees returns confirmed reservations in reservation order.
func (s *reservationService) ListAttendees(ctx context.Context, eventID string) ([]*domain.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	reservations, err := s.reservationRepo.ListConfirmedByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return reservations, nil
}
