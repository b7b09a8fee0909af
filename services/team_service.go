package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/models"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/repositories"
)

const (
	defaultMinTeamSize = 2
	defaultMaxTeamSize = 5

	inviteCodeMaxAttempts = 5
	teamUpdateMaxAttempts = 5
)

type CreateTeamInput struct {
	TeamName      string                `json:"team_name"`
	TeamSize      int                   `json:"team_size"`
	InviteEmails  []string              `json:"invite_emails"`
	FormResponses []models.FormResponse `json:"form_responses"`
}

type TeamService struct {
	eventRepo repositories.EventRepository
	teamRepo  repositories.TeamRepository
	regRepo   repositories.RegistrationRepository
	userRepo  repositories.UserRepository
	tickets   TicketIssuer
	notifier  Notifier
	logger    *slog.Logger
}

func NewTeamService(
	eventRepo repositories.EventRepository,
	teamRepo repositories.TeamRepository,
	regRepo repositories.RegistrationRepository,
	userRepo repositories.UserRepository,
	tickets TicketIssuer,
	notifier Notifier,
	logger *slog.Logger,
) *TeamService {
	return &TeamService{
		eventRepo: eventRepo,
		teamRepo:  teamRepo,
		regRepo:   regRepo,
		userRepo:  userRepo,
		tickets:   tickets,
		notifier:  notifier,
		logger:    logger,
	}
}

// CreateTeam opens a pending team for a team event. The leader joins as an
// accepted member immediately; everyone else gets an email invite tied to the
// team's invite code. No seats are claimed until the team finalizes.
func (s *TeamService) CreateTeam(ctx context.Context, eventID, leaderID int, input CreateTeamInput) (*models.TeamRegistration, error) {
	event, err := s.loadTeamEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := checkRegistrationOpen(event, time.Now()); err != nil {
		return nil, err
	}

	leader, err := s.loadParticipant(ctx, leaderID)
	if err != nil {
		return nil, err
	}
	if err := checkEligibility(event, leader); err != nil {
		return nil, err
	}

	registered, err := s.regRepo.ExistsActiveByEventAndUser(ctx, eventID, leaderID)
	if err != nil {
		return nil, fmt.Errorf("failed to check leader registration: %w", err)
	}
	if registered {
		return nil, ErrAlreadyRegistered
	}

	pending, err := s.teamRepo.HasPendingTeamAsLeader(ctx, eventID, leaderID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending teams: %w", err)
	}
	if pending {
		return nil, ErrLeaderHasPendingTeam
	}
	inTeam, err := s.teamRepo.AnyActiveMembershipByEventAndUsers(ctx, eventID, []int{leaderID})
	if err != nil {
		return nil, fmt.Errorf("failed to check leader team membership: %w", err)
	}
	if inTeam {
		return nil, ErrLeaderHasPendingTeam
	}

	minSize, maxSize := teamSizeBounds(event)
	if input.TeamSize < minSize || input.TeamSize > maxSize {
		return nil, fmt.Errorf("%w: size must be between %d and %d", ErrTeamSizeOutOfRange, minSize, maxSize)
	}
	if strings.TrimSpace(input.TeamName) == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrValidationFailed)
	}

	if event.HasSeatLimit() {
		taken, err := s.regRepo.CountActiveByEvent(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("failed to count registrations: %w", err)
		}
		if taken+input.TeamSize > event.RegistrationLimit {
			return nil, ErrEventFull
		}
	}

	emails, err := normalizeInviteEmails(input.InviteEmails, leader.Email)
	if err != nil {
		return nil, err
	}
	if len(emails) > input.TeamSize-1 {
		return nil, ErrTooManyInvites
	}

	invitees, err := s.resolveInvitees(ctx, eventID, emails)
	if err != nil {
		return nil, err
	}

	if err := ValidateFormResponses(event.FormSchema, input.FormResponses); err != nil {
		return nil, err
	}

	team := &models.TeamRegistration{
		EventID:  eventID,
		LeaderID: leaderID,
		TeamName: strings.TrimSpace(input.TeamName),
		TeamSize: input.TeamSize,
		Members: []models.TeamMember{{
			UserID:   leaderID,
			Status:   models.MemberAccepted,
			JoinedAt: time.Now(),
		}},
		FormResponses: input.FormResponses,
		Status:        models.TeamPending,
	}
	for _, email := range emails {
		team.Invites = append(team.Invites, models.TeamInvite{
			Email:  email,
			Status: models.InvitePending,
		})
	}

	if err := s.createWithFreshCode(ctx, team); err != nil {
		return nil, err
	}

	go s.sendInviteEmails(invitees, team, event)

	return team, nil
}

// createWithFreshCode retries code generation on uniqueness collisions only.
func (s *TeamService) createWithFreshCode(ctx context.Context, team *models.TeamRegistration) error {
	for attempt := 0; attempt < inviteCodeMaxAttempts; attempt++ {
		code, err := generateInviteCode()
		if err != nil {
			return err
		}
		team.InviteCode = code

		err = s.teamRepo.Create(ctx, team)
		if err == nil {
			return nil
		}
		if errors.Is(err, repositories.ErrTeamInviteCodeConflict) {
			continue
		}
		if errors.Is(err, repositories.ErrTeamLeaderConflict) {
			return ErrLeaderHasPendingTeam
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	return ErrInviteCodeGeneration
}

// JoinByCode accepts an invite, or claims an open slot when the team was
// created without invites. If the acceptance settles the last open slot the
// team finalizes in the same call. Lost version races reload the team and
// retry, so concurrent joiners are never silently dropped.
func (s *TeamService) JoinByCode(ctx context.Context, eventID, userID int, code string) (*models.TeamRegistration, error) {
	event, err := s.loadTeamEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := checkRegistrationOpen(event, time.Now()); err != nil {
		return nil, err
	}

	user, err := s.loadParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := checkEligibility(event, user); err != nil {
		return nil, err
	}

	registered, err := s.regRepo.ExistsActiveByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check registration: %w", err)
	}
	if registered {
		return nil, ErrAlreadyRegistered
	}
	inTeam, err := s.teamRepo.AnyActiveMembershipByEventAndUsers(ctx, eventID, []int{userID})
	if err != nil {
		return nil, fmt.Errorf("failed to check team membership: %w", err)
	}
	if inTeam {
		return nil, ErrInviteeUnavailable
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	for attempt := 0; attempt < teamUpdateMaxAttempts; attempt++ {
		team, err := s.teamRepo.GetPendingByEventAndCode(ctx, eventID, code)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				if attempt > 0 {
					return nil, ErrTeamAlreadyCompleted
				}
				return nil, ErrTeamNotFound
			}
			return nil, fmt.Errorf("failed to load team: %w", err)
		}

		// A team created without invites is open to anyone with the code.
		idx := -1
		if len(team.Invites) > 0 {
			idx = team.InviteIndex(normalizeEmail(user.Email))
			if idx < 0 {
				return nil, ErrInviteNotFound
			}
			if team.Invites[idx].Status != models.InvitePending {
				return nil, ErrInviteAlreadySettled
			}
		} else if team.MemberIndex(userID) >= 0 {
			return nil, ErrInviteeUnavailable
		}

		if team.AcceptedCount() >= team.TeamSize {
			return nil, ErrTeamFull
		}

		now := time.Now()
		if idx >= 0 {
			team.Invites[idx].Status = models.InviteAccepted
			team.Invites[idx].RespondedAt = &now
		}
		team.Members = append(team.Members, models.TeamMember{
			UserID:   userID,
			Status:   models.MemberAccepted,
			JoinedAt: now,
		})

		if err := s.teamRepo.UpdateMembersAndInvites(ctx, team); err != nil {
			if errors.Is(err, repositories.ErrTeamConflict) {
				continue
			}
			return nil, fmt.Errorf("failed to record invite acceptance: %w", err)
		}

		if err := s.finalizeIfComplete(ctx, event, team); err != nil {
			return nil, err
		}

		if userID != team.LeaderID {
			team.InviteCode = ""
		}
		return team, nil
	}
	return nil, ErrTeamUpdateContention
}

// RejectByCode declines an invite. The code is optional: without one the
// caller's own pending invite is resolved by email. A rejection can settle
// the last open invite of an already full roster, so finalization is
// attempted here too.
func (s *TeamService) RejectByCode(ctx context.Context, eventID, userID int, code string) (*models.TeamRegistration, error) {
	event, err := s.loadTeamEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := checkRegistrationOpen(event, time.Now()); err != nil {
		return nil, err
	}

	user, err := s.loadParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	email := normalizeEmail(user.Email)
	for attempt := 0; attempt < teamUpdateMaxAttempts; attempt++ {
		var team *models.TeamRegistration
		if code != "" {
			team, err = s.teamRepo.GetPendingByEventAndCode(ctx, eventID, code)
		} else {
			team, err = s.teamRepo.GetPendingByEventAndInvitee(ctx, eventID, email)
		}
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				if attempt > 0 {
					return nil, ErrTeamAlreadyCompleted
				}
				return nil, ErrTeamNotFound
			}
			return nil, fmt.Errorf("failed to load team: %w", err)
		}

		idx := team.InviteIndex(email)
		if idx < 0 {
			return nil, ErrInviteNotFound
		}
		if team.Invites[idx].Status != models.InvitePending {
			return nil, ErrInviteAlreadySettled
		}

		now := time.Now()
		team.Invites[idx].Status = models.InviteRejected
		team.Invites[idx].RespondedAt = &now

		if err := s.teamRepo.UpdateMembersAndInvites(ctx, team); err != nil {
			if errors.Is(err, repositories.ErrTeamConflict) {
				continue
			}
			return nil, fmt.Errorf("failed to record invite rejection: %w", err)
		}

		if err := s.finalizeIfComplete(ctx, event, team); err != nil {
			return nil, err
		}

		team.InviteCode = ""
		return team, nil
	}
	return nil, ErrTeamUpdateContention
}

// GetMyTeam returns the caller's team for the event, found through accepted
// membership or an addressed invite. Only the leader sees the invite code.
func (s *TeamService) GetMyTeam(ctx context.Context, eventID, userID int) (*models.TeamRegistration, error) {
	user, err := s.loadParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	team, err := s.teamRepo.FindForUser(ctx, eventID, userID, normalizeEmail(user.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to load team: %w", err)
	}

	if leader, err := s.userRepo.GetByID(ctx, team.LeaderID); err == nil {
		team.Leader = leader
	}
	if userID != team.LeaderID {
		team.InviteCode = ""
	}
	return team, nil
}

func (s *TeamService) ListByEvent(ctx context.Context, eventID int) ([]*models.TeamRegistration, error) {
	return s.teamRepo.ListByEvent(ctx, eventID)
}

// finalizeIfComplete commits the team once every slot is accepted and no
// invite is still open. Seats for members without an existing registration
// are claimed atomically first; if the claim fails the team stays pending.
// The pending -> completed flip is a compare-and-set, so concurrent callers
// race safely and exactly one performs the member inserts.
func (s *TeamService) finalizeIfComplete(ctx context.Context, event *models.Event, team *models.TeamRegistration) error {
	if team.AcceptedCount() != team.TeamSize || !team.AllInvitesSettled() {
		return nil
	}

	memberIDs := team.AcceptedMemberIDs()
	alreadyRegistered, err := s.regRepo.CountActiveByEventAndUsers(ctx, team.EventID, memberIDs)
	if err != nil {
		return fmt.Errorf("failed to count member registrations: %w", err)
	}
	needed := len(memberIDs) - alreadyRegistered

	if needed > 0 {
		reserved, err := s.eventRepo.ReserveSeats(ctx, team.EventID, needed)
		if err != nil {
			return fmt.Errorf("failed to reserve team seats: %w", err)
		}
		if !reserved {
			return ErrEventFull
		}
	}

	won, err := s.teamRepo.CompleteIfPending(ctx, team.ID)
	if err != nil {
		return fmt.Errorf("failed to complete team: %w", err)
	}
	if !won {
		if needed > 0 {
			if err := s.eventRepo.ReleaseSeats(ctx, team.EventID, needed); err != nil {
				s.logger.Error("failed to release seats after lost finalize race",
					slog.Int("team_id", team.ID), slog.Any("error", err))
			}
		}
		now := time.Now()
		team.Status = models.TeamCompleted
		team.CompletedAt = &now
		return nil
	}

	inserted := 0
	for _, memberID := range memberIDs {
		ticketID, qrCodeURL := s.tickets.Issue()
		reg := &models.Registration{
			EventID:     team.EventID,
			UserID:      memberID,
			Status:      models.RegistrationRegistered,
			TeamName:    team.TeamName,
			TeamMembers: memberIDs,
			TicketID:    ticketID,
			QRCodeURL:   qrCodeURL,
		}
		created, err := s.regRepo.InsertIfAbsent(ctx, reg)
		if err != nil {
			return fmt.Errorf("failed to register team member %d: %w", memberID, err)
		}
		if created {
			inserted++
			go s.sendFinalizedEmail(ctx, memberID, team, event, ticketID)
		}
	}
	if inserted < needed {
		if err := s.eventRepo.ReleaseSeats(ctx, team.EventID, needed-inserted); err != nil {
			s.logger.Error("failed to release surplus team seats",
				slog.Int("team_id", team.ID), slog.Any("error", err))
		}
	}

	now := time.Now()
	team.Status = models.TeamCompleted
	team.CompletedAt = &now
	return nil
}

func (s *TeamService) loadTeamEvent(ctx context.Context, eventID int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if !event.IsTeamEvent {
		return nil, ErrNotTeamEvent
	}
	return event, nil
}

func (s *TeamService) loadParticipant(ctx context.Context, userID int) (*models.User, error) {
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
	return user, nil
}

// resolveInvitees maps invite emails to participant accounts and checks none
// of them is already committed to the event. Unknown addresses fail the whole
// creation and are named in the error.
func (s *TeamService) resolveInvitees(ctx context.Context, eventID int, emails []string) ([]*models.User, error) {
	if len(emails) == 0 {
		return []*models.User{}, nil
	}

	invitees, err := s.userRepo.ListParticipantsByEmails(ctx, emails)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve invitees: %w", err)
	}

	found := make(map[string]bool, len(invitees))
	ids := make([]int, 0, len(invitees))
	for _, u := range invitees {
		found[normalizeEmail(u.Email)] = true
		ids = append(ids, u.ID)
	}
	missing := make([]string, 0)
	for _, email := range emails {
		if !found[email] {
			missing = append(missing, email)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInviteeNotFound, strings.Join(missing, ", "))
	}

	registered, err := s.regRepo.CountActiveByEventAndUsers(ctx, eventID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to check invitee registrations: %w", err)
	}
	if registered > 0 {
		return nil, ErrInviteeUnavailable
	}
	inTeam, err := s.teamRepo.AnyActiveMembershipByEventAndUsers(ctx, eventID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to check invitee team memberships: %w", err)
	}
	if inTeam {
		return nil, ErrInviteeUnavailable
	}
	return invitees, nil
}

func (s *TeamService) sendInviteEmails(invitees []*models.User, team *models.TeamRegistration, event *models.Event) {
	for _, invitee := range invitees {
		if err := s.notifier.SendTeamInviteEmail(invitee.Email, team.TeamName, event.Name, team.InviteCode); err != nil {
			s.logger.Warn("failed to send team invite email",
				slog.String("email", invitee.Email), slog.Any("error", err))
		}
	}
}

func (s *TeamService) sendFinalizedEmail(ctx context.Context, memberID int, team *models.TeamRegistration, event *models.Event, ticketID string) {
	member, err := s.userRepo.GetByID(ctx, memberID)
	if err != nil {
		return
	}
	if err := s.notifier.SendTeamFinalizedEmail(member.Email, team.TeamName, event.Name, ticketID); err != nil {
		s.logger.Warn("failed to send team finalized email",
			slog.String("email", member.Email), slog.Any("error", err))
	}
}

func teamSizeBounds(event *models.Event) (int, int) {
	minSize := event.MinTeamSize
	if minSize <= 0 {
		minSize = defaultMinTeamSize
	}
	maxSize := event.MaxTeamSize
	if maxSize <= 0 {
		maxSize = defaultMaxTeamSize
	}
	return minSize, maxSize
}

// normalizeInviteEmails lowercases, trims, dedupes, and drops the leader's
// own address. Malformed addresses fail the call.
func normalizeInviteEmails(emails []string, leaderEmail string) ([]string, error) {
	leader := normalizeEmail(leaderEmail)
	seen := make(map[string]bool, len(emails))
	result := make([]string, 0, len(emails))
	for _, raw := range emails {
		email := normalizeEmail(raw)
		if email == "" || email == leader || seen[email] {
			continue
		}
		if !isValidEmail(email) {
			return nil, fmt.Errorf("%w: invalid email %q", ErrValidationFailed, raw)
		}
		seen[email] = true
		result = append(result, email)
	}
	return result, nil
}
