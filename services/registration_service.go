package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/models"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/repositories"
)

type RegisterInput struct {
	FormResponses []models.FormResponse `json:"form_responses"`
}

type RegistrationService struct {
	eventRepo repositories.EventRepository
	regRepo   repositories.RegistrationRepository
	userRepo  repositories.UserRepository
	tickets   TicketIssuer
	notifier  Notifier
	logger    *slog.Logger
}

func NewRegistrationService(
	eventRepo repositories.EventRepository,
	regRepo repositories.RegistrationRepository,
	userRepo repositories.UserRepository,
	tickets TicketIssuer,
	notifier Notifier,
	logger *slog.Logger,
) *RegistrationService {
	return &RegistrationService{
		eventRepo: eventRepo,
		regRepo:   regRepo,
		userRepo:  userRepo,
		tickets:   tickets,
		notifier:  notifier,
		logger:    logger,
	}
}

// Register signs a participant up for a normal event. A seat is claimed
// atomically before the registration row is inserted and released again if
// the insert turns out to be a duplicate.
func (s *RegistrationService) Register(ctx context.Context, eventID, userID int, input RegisterInput) (*models.Registration, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}

	if err := checkRegistrationOpen(event, time.Now()); err != nil {
		return nil, err
	}
	if event.IsTeamEvent {
		return nil, ErrTeamEventRequiresTeam
	}
	if event.EventType == models.EventTypeMerchandise {
		return nil, fmt.Errorf("%w: merchandise events take orders, not registrations", ErrValidationFailed)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.Role != models.RoleParticipant {
		return nil, ErrForbiddenOperation
	}
	if err := checkEligibility(event, user); err != nil {
		return nil, err
	}

	exists, err := s.regRepo.ExistsActiveByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing registration: %w", err)
	}
	if exists {
		return nil, ErrAlreadyRegistered
	}

	if err := ValidateFormResponses(event.FormSchema, input.FormResponses); err != nil {
		return nil, err
	}

	reserved, err := s.eventRepo.ReserveSeats(ctx, eventID, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve seat: %w", err)
	}
	if !reserved {
		return nil, ErrEventFull
	}

	ticketID, qrCodeURL := s.tickets.Issue()
	reg := &models.Registration{
		EventID:       eventID,
		UserID:        userID,
		Status:        models.RegistrationRegistered,
		FormResponses: input.FormResponses,
		TicketID:      ticketID,
		QRCodeURL:     qrCodeURL,
	}

	if err := s.regRepo.Create(ctx, reg); err != nil {
		if releaseErr := s.eventRepo.ReleaseSeats(ctx, eventID, 1); releaseErr != nil {
			s.logger.Error("failed to release seat after registration failure",
				slog.Int("event_id", eventID), slog.Any("error", releaseErr))
		}
		if errors.Is(err, repositories.ErrRegistrationConflict) {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	go func() {
		if err := s.notifier.SendTicketEmail(user.Email, event.Name, ticketID, qrCodeURL); err != nil {
			s.logger.Warn("failed to send ticket email",
				slog.String("email", user.Email), slog.Any("error", err))
		}
	}()

	return reg, nil
}

// Cancel releases the participant's seat. Cancelled registrations stay on
// record and never block a later re-registration.
func (s *RegistrationService) Cancel(ctx context.Context, eventID, userID int) error {
	reg, err := s.regRepo.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return ErrRegistrationNotFound
		}
		return fmt.Errorf("failed to load registration: %w", err)
	}
	if reg.Status == models.RegistrationCancelled {
		return ErrRegistrationNotFound
	}
	if reg.Status == models.RegistrationAttended {
		return fmt.Errorf("%w: registration already marked attended", ErrValidationFailed)
	}

	if err := s.regRepo.UpdateStatus(ctx, reg.ID, models.RegistrationCancelled); err != nil {
		return fmt.Errorf("failed to cancel registration: %w", err)
	}
	if err := s.eventRepo.ReleaseSeats(ctx, eventID, 1); err != nil {
		s.logger.Error("failed to release seat after cancellation",
			slog.Int("event_id", eventID), slog.Any("error", err))
	}
	return nil
}

// MarkAttended is the organizer's check-in action, keyed by ticket id.
func (s *RegistrationService) MarkAttended(ctx context.Context, eventID int, registrationID int) (*models.Registration, error) {
	reg, err := s.regRepo.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to load registration: %w", err)
	}
	if reg.EventID != eventID {
		return nil, ErrRegistrationNotFound
	}
	if reg.Status == models.RegistrationCancelled {
		return nil, fmt.Errorf("%w: registration was cancelled", ErrValidationFailed)
	}

	if err := s.regRepo.UpdateStatus(ctx, reg.ID, models.RegistrationAttended); err != nil {
		return nil, fmt.Errorf("failed to mark attendance: %w", err)
	}
	reg.Status = models.RegistrationAttended
	return reg, nil
}

func (s *RegistrationService) ListByEvent(ctx context.Context, eventID int) ([]*models.Registration, error) {
	return s.regRepo.ListByEvent(ctx, eventID)
}

func (s *RegistrationService) ListByUser(ctx context.Context, userID int) ([]*models.Registration, error) {
	return s.regRepo.ListByUser(ctx, userID)
}
