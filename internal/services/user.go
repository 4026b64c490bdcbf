package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventreserve/internal/domain"
)

type userService struct {
	userRepo        domain.UserRepository
	reservationRepo domain.ReservationRepository
	eventRepo       domain.EventRepository
	logger          *slog.Logger
	contextTimeout  time.Duration
}

// NewUserService creates a UserService. Account deletion cascades over the
// user's reservations, so it needs both ledgers.
func NewUserService(
	userRepo domain.UserRepository,
	reservationRepo domain.ReservationRepository,
	eventRepo domain.EventRepository,
	logger *slog.Logger,
	timeout time.Duration,
) domain.UserService {
	return &userService{
		userRepo:        userRepo,
		reservationRepo: reservationRepo,
		eventRepo:       eventRepo,
		logger:          logger,
		contextTimeout:  timeout,
	}
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// DeleteAccount removes the user's reservations, resyncs every event that
// lost a confirmed reservation, and finally removes the user row. The
// operation runs detached from caller cancellation so it cannot stop between
// the cascade and the counter resync.
func (s *userService) DeleteAccount(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.contextTimeout)
	defer cancel()

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get user: %w", err)
	}

	affected, err := s.reservationRepo.DeleteByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete reservations: %w", err)
	}
	for _, eventID := range affected {
		if err := s.eventRepo.SyncAttendeeCount(ctx, eventID); err != nil {
			// The reconciler retries; the reservation rows are already gone.
			s.logger.ErrorContext(ctx, "resync after account deletion", "event_id", eventID, "err", err)
		}
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
