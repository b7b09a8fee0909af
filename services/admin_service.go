package services

import (
	"context"
	"fmt"

	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/models"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/repositories"
	"golang.org/x/sync/errgroup"
)

type AdminService struct {
	userRepo  repositories.UserRepository
	orgRepo   repositories.OrganizerRepository
	eventRepo repositories.EventRepository
	regRepo   repositories.RegistrationRepository
	resetRepo repositories.ResetRequestRepository
}

func NewAdminService(
	userRepo repositories.UserRepository,
	orgRepo repositories.OrganizerRepository,
	eventRepo repositories.EventRepository,
	regRepo repositories.RegistrationRepository,
	resetRepo repositories.ResetRequestRepository,
) *AdminService {
	return &AdminService{
		userRepo:  userRepo,
		orgRepo:   orgRepo,
		eventRepo: eventRepo,
		regRepo:   regRepo,
		resetRepo: resetRepo,
	}
}

// Dashboard gathers the platform-wide counters in parallel.
func (s *AdminService) Dashboard(ctx context.Context) (*models.AdminDashboard, error) {
	dashboard := &models.AdminDashboard{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := s.userRepo.CountByRole(gctx, models.RoleOrganizer)
		dashboard.TotalOrganizers = count
		return err
	})
	g.Go(func() error {
		count, err := s.orgRepo.CountByStatus(gctx, models.OrganizerActive)
		dashboard.ActiveOrganizers = count
		return err
	})
	g.Go(func() error {
		count, err := s.userRepo.CountByRole(gctx, models.RoleParticipant)
		dashboard.TotalParticipants = count
		return err
	})
	g.Go(func() error {
		count, err := s.eventRepo.Count(gctx)
		dashboard.TotalEvents = count
		return err
	})
	g.Go(func() error {
		count, err := s.eventRepo.CountByStatus(gctx, models.EventPublished)
		dashboard.PublishedEvents = count
		return err
	})
	g.Go(func() error {
		count, err := s.regRepo.Count(gctx)
		dashboard.TotalRegistrations = count
		return err
	})
	g.Go(func() error {
		count, err := s.resetRepo.CountPending(gctx)
		dashboard.PendingResets = count
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to gather admin dashboard: %w", err)
	}
	return dashboard, nil
}
