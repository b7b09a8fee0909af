package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/models"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/repositories"
	"golang.org/x/crypto/bcrypt"
)

type ProvisionOrganizerInput struct {
	Name              string `json:"name"`
	Category          string `json:"category"`
	ContactEmail      string `json:"contact_email"`
	ContactNumber     string `json:"contact_number"`
	Description       string `json:"description"`
	DiscordWebhookURL string `json:"discord_webhook_url"`
}

type OrganizerProfileInput struct {
	Category          string `json:"category"`
	ContactNumber     string `json:"contact_number"`
	Description       string `json:"description"`
	DiscordWebhookURL string `json:"discord_webhook_url"`
}

type OrganizerService struct {
	orgRepo   repositories.OrganizerRepository
	userRepo  repositories.UserRepository
	resetRepo repositories.ResetRequestRepository
	notifier  Notifier
	logger    *slog.Logger
}

func NewOrganizerService(
	orgRepo repositories.OrganizerRepository,
	userRepo repositories.UserRepository,
	resetRepo repositories.ResetRequestRepository,
	notifier Notifier,
	logger *slog.Logger,
) *OrganizerService {
	return &OrganizerService{
		orgRepo:   orgRepo,
		userRepo:  userRepo,
		resetRepo: resetRepo,
		notifier:  notifier,
		logger:    logger,
	}
}

// Provision creates an organizer: a login account with a generated temporary
// password plus the organizer profile, linked both ways. Credentials go out
// by email.
func (s *OrganizerService) Provision(ctx context.Context, adminID int, input ProvisionOrganizerInput) (*models.Organizer, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: organizer name is required", ErrValidationFailed)
	}
	email := normalizeEmail(input.ContactEmail)
	if !isValidEmail(email) {
		return nil, fmt.Errorf("%w: invalid contact email", ErrValidationFailed)
	}

	password, err := generateTempPassword()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.User{
		FirstName:    name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleOrganizer,
	}
	if err := s.userRepo.Create(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrUserEmailConflict
		}
		return nil, fmt.Errorf("failed to create organizer account: %w", err)
	}

	org := &models.Organizer{
		Name:              name,
		Category:          input.Category,
		ContactEmail:      email,
		ContactNumber:     input.ContactNumber,
		Description:       input.Description,
		DiscordWebhookURL: input.DiscordWebhookURL,
		Status:            models.OrganizerActive,
		AccountID:         account.ID,
		CreatedBy:         adminID,
	}
	if err := s.orgRepo.Create(ctx, org); err != nil {
		if delErr := s.userRepo.Delete(ctx, account.ID); delErr != nil {
			s.logger.Error("failed to remove orphan organizer account",
				slog.Int("user_id", account.ID), slog.Any("error", delErr))
		}
		if errors.Is(err, repositories.ErrOrganizerNameConflict) {
			return nil, ErrOrganizerNameConflict
		}
		return nil, fmt.Errorf("failed to create organizer profile: %w", err)
	}

	if err := s.userRepo.SetOrganizerProfileID(ctx, account.ID, &org.ID); err != nil {
		return nil, fmt.Errorf("failed to link organizer account: %w", err)
	}

	go func() {
		if err := s.notifier.SendOrganizerCredentialsEmail(email, name, password); err != nil {
			s.logger.Warn("failed to send organizer credentials email",
				slog.String("email", email), slog.Any("error", err))
		}
	}()

	org.Account = account
	return org, nil
}

func (s *OrganizerService) Get(ctx context.Context, id int) (*models.Organizer, error) {
	org, err := s.orgRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrOrganizerNotFound) {
			return nil, ErrOrganizerNotFound
		}
		return nil, fmt.Errorf("failed to load organizer: %w", err)
	}
	return org, nil
}

// GetByAccount resolves a signed-in organizer user to their profile.
func (s *OrganizerService) GetByAccount(ctx context.Context, accountID int) (*models.Organizer, error) {
	org, err := s.orgRepo.GetByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repositories.ErrOrganizerNotFound) {
			return nil, ErrOrganizerNotFound
		}
		return nil, fmt.Errorf("failed to load organizer: %w", err)
	}
	return org, nil
}

func (s *OrganizerService) List(ctx context.Context, includeArchived bool) ([]*models.Organizer, error) {
	return s.orgRepo.List(ctx, includeArchived)
}

func (s *OrganizerService) UpdateProfile(ctx context.Context, accountID int, input OrganizerProfileInput) (*models.Organizer, error) {
	org, err := s.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if org.Status != models.OrganizerActive {
		return nil, ErrOrganizerDisabled
	}

	org.Category = input.Category
	org.ContactNumber = input.ContactNumber
	org.Description = input.Description
	org.DiscordWebhookURL = input.DiscordWebhookURL

	if err := s.orgRepo.Update(ctx, org); err != nil {
		if errors.Is(err, repositories.ErrOrganizerNameConflict) {
			return nil, ErrOrganizerNameConflict
		}
		return nil, fmt.Errorf("failed to update organizer: %w", err)
	}
	return org, nil
}

// SetStatus is the admin lever for disabling or archiving an organizer.
func (s *OrganizerService) SetStatus(ctx context.Context, id int, status models.OrganizerStatus) error {
	switch status {
	case models.OrganizerActive, models.OrganizerDisabled, models.OrganizerArchived:
	default:
		return fmt.Errorf("%w: unknown organizer status", ErrValidationFailed)
	}
	if err := s.orgRepo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repositories.ErrOrganizerNotFound) {
			return ErrOrganizerNotFound
		}
		return fmt.Errorf("failed to update organizer status: %w", err)
	}
	return nil
}

// RequestPasswordReset files an admin-mediated reset for an organizer who
// lost their credentials.
func (s *OrganizerService) RequestPasswordReset(ctx context.Context, accountID int, reason string) (*models.PasswordResetRequest, error) {
	org, err := s.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	req := &models.PasswordResetRequest{
		OrganizerID: org.ID,
		Reason:      reason,
		Status:      models.ResetPending,
	}
	if err := s.resetRepo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to file reset request: %w", err)
	}
	return req, nil
}

func (s *OrganizerService) ListResetRequests(ctx context.Context) ([]*models.PasswordResetRequest, error) {
	return s.resetRepo.ListPending(ctx)
}

// ResolveResetRequest settles a pending request. Approval issues a fresh
// temporary password and emails it to the organizer.
func (s *OrganizerService) ResolveResetRequest(ctx context.Context, requestID, adminID int, approve bool) (*models.PasswordResetRequest, error) {
	req, err := s.resetRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrResetRequestNotFound) {
			return nil, ErrResetRequestNotFound
		}
		return nil, fmt.Errorf("failed to load reset request: %w", err)
	}
	if req.Status != models.ResetPending {
		return nil, fmt.Errorf("%w: request already resolved", ErrValidationFailed)
	}

	status := models.ResetRejected
	if approve {
		status = models.ResetApproved
	}
	if err := s.resetRepo.Resolve(ctx, requestID, status, adminID); err != nil {
		if errors.Is(err, repositories.ErrResetRequestNotFound) {
			return nil, fmt.Errorf("%w: request already resolved", ErrValidationFailed)
		}
		return nil, fmt.Errorf("failed to resolve reset request: %w", err)
	}
	req.Status = status
	req.ResolvedBy = &adminID

	if approve {
		org, err := s.orgRepo.GetByID(ctx, req.OrganizerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load organizer: %w", err)
		}
		password, err := generateTempPassword()
		if err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		if err := s.userRepo.UpdatePasswordHash(ctx, org.AccountID, string(hash)); err != nil {
			return nil, fmt.Errorf("failed to reset organizer password: %w", err)
		}

		go func() {
			if err := s.notifier.SendOrganizerCredentialsEmail(org.ContactEmail, org.Name, password); err != nil {
				s.logger.Warn("failed to send reset credentials email",
					slog.String("email", org.ContactEmail), slog.Any("error", err))
			}
		}()
	}
	return req, nil
}
