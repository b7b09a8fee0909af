package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/models"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/repositories"
)

type UpdateProfileInput struct {
	FirstName       string                  `json:"first_name"`
	LastName        string                  `json:"last_name"`
	ParticipantType *models.ParticipantType `json:"participant_type"`
	CollegeOrOrg    *string                 `json:"college_or_org"`
	ContactNumber   *string                 `json:"contact_number"`
	Interests       []string                `json:"interests"`
}

type ParticipantService struct {
	userRepo repositories.UserRepository
	orgRepo  repositories.OrganizerRepository
}

func NewParticipantService(userRepo repositories.UserRepository, orgRepo repositories.OrganizerRepository) *ParticipantService {
	return &ParticipantService{userRepo: userRepo, orgRepo: orgRepo}
}

func (s *ParticipantService) GetProfile(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *ParticipantService) UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.FirstName != "" {
		user.FirstName = input.FirstName
	}
	user.LastName = input.LastName
	if input.ParticipantType != nil {
		switch *input.ParticipantType {
		case models.ParticipantIIIT, models.ParticipantNonIIIT:
			user.ParticipantType = input.ParticipantType
		default:
			return nil, fmt.Errorf("%w: unknown participant type", ErrValidationFailed)
		}
	}
	if input.CollegeOrOrg != nil {
		user.CollegeOrOrg = input.CollegeOrOrg
	}
	if input.ContactNumber != nil {
		user.ContactNumber = input.ContactNumber
	}
	if input.Interests != nil {
		user.Interests = input.Interests
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// FollowOrganizer adds the organizer to the participant's followed list.
// Following is idempotent.
func (s *ParticipantService) FollowOrganizer(ctx context.Context, userID, organizerID int) (*models.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.orgRepo.GetByID(ctx, organizerID); err != nil {
		if errors.Is(err, repositories.ErrOrganizerNotFound) {
			return nil, ErrOrganizerNotFound
		}
		return nil, fmt.Errorf("failed to load organizer: %w", err)
	}

	for _, id := range user.Following {
		if id == organizerID {
			return user, nil
		}
	}
	user.Following = append(user.Following, organizerID)
	if err := s.userRepo.UpdateFollowing(ctx, userID, user.Following); err != nil {
		return nil, fmt.Errorf("failed to follow organizer: %w", err)
	}
	return user, nil
}

func (s *ParticipantService) UnfollowOrganizer(ctx context.Context, userID, organizerID int) (*models.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	following := make([]int, 0, len(user.Following))
	for _, id := range user.Following {
		if id != organizerID {
			following = append(following, id)
		}
	}
	if len(following) == len(user.Following) {
		return user, nil
	}
	user.Following = following
	if err := s.userRepo.UpdateFollowing(ctx, userID, following); err != nil {
		return nil, fmt.Errorf("failed to unfollow organizer: %w", err)
	}
	return user, nil
}

// FollowedOrganizers resolves the participant's followed ids into profiles,
// skipping any that have since been archived.
func (s *ParticipantService) FollowedOrganizers(ctx context.Context, userID int) ([]*models.Organizer, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	organizers := make([]*models.Organizer, 0, len(user.Following))
	for _, id := range user.Following {
		org, err := s.orgRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrOrganizerNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to load organizer: %w", err)
		}
		if org.Status != models.OrganizerArchived {
			organizers = append(organizers, org)
		}
	}
	return organizers, nil
}
