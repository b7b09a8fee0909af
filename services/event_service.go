package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/models"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/repositories"
	"github.com/SanjithGanapathi/Felicity-Hackathon-DASS/storage"
	"golang.org/x/sync/errgroup"
)

const (
	trendingWindow = 24 * time.Hour
	trendingLimit  = 5
)

type EventInput struct {
	Name                 string             `json:"name"`
	Description          string             `json:"description"`
	EventType            models.EventType   `json:"event_type"`
	RegistrationDeadline time.Time          `json:"registration_deadline"`
	StartDate            *time.Time         `json:"start_date"`
	EndDate              *time.Time         `json:"end_date"`
	RegistrationLimit    int                `json:"registration_limit"`
	RegistrationFee      float64            `json:"registration_fee"`
	Eligibility          models.Eligibility `json:"eligibility"`
	Tags                 []string           `json:"tags"`
	Venue                string             `json:"venue"`
	IsTeamEvent          bool               `json:"is_team_event"`
	MinTeamSize          int                `json:"min_team_size"`
	MaxTeamSize          int                `json:"max_team_size"`
	FormSchema           []models.FormField `json:"form_schema"`
	MerchItems           []models.MerchItem `json:"merch_items"`
}

type EventService struct {
	eventRepo  repositories.EventRepository
	orgRepo    repositories.OrganizerRepository
	regRepo    repositories.RegistrationRepository
	teamRepo   repositories.TeamRepository
	orderRepo  repositories.MerchOrderRepository
	uploader   storage.FileUploader
	httpClient *http.Client
	logger     *slog.Logger
}

func NewEventService(
	eventRepo repositories.EventRepository,
	orgRepo repositories.OrganizerRepository,
	regRepo repositories.RegistrationRepository,
	teamRepo repositories.TeamRepository,
	orderRepo repositories.MerchOrderRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) *EventService {
	return &EventService{
		eventRepo:  eventRepo,
		orgRepo:    orgRepo,
		regRepo:    regRepo,
		teamRepo:   teamRepo,
		orderRepo:  orderRepo,
		uploader:   uploader,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (s *EventService) Create(ctx context.Context, organizerID int, input EventInput) (*models.Event, error) {
	if err := validateEventInput(input); err != nil {
		return nil, err
	}

	org, err := s.orgRepo.GetByID(ctx, organizerID)
	if err != nil {
		if errors.Is(err, repositories.ErrOrganizerNotFound) {
			return nil, ErrOrganizerNotFound
		}
		return nil, fmt.Errorf("failed to load organizer: %w", err)
	}
	if org.Status != models.OrganizerActive {
		return nil, ErrOrganizerDisabled
	}

	eligibility := input.Eligibility
	if eligibility == "" {
		eligibility = models.EligibilityAll
	}
	eventType := input.EventType
	if eventType == "" {
		eventType = models.EventTypeNormal
	}

	event := &models.Event{
		Name:                 strings.TrimSpace(input.Name),
		Description:          input.Description,
		EventType:            eventType,
		OrganizerID:          organizerID,
		Status:               models.EventDraft,
		RegistrationDeadline: input.RegistrationDeadline,
		StartDate:            input.StartDate,
		EndDate:              input.EndDate,
		RegistrationLimit:    input.RegistrationLimit,
		RegistrationOpen:     true,
		RegistrationFee:      input.RegistrationFee,
		Eligibility:          eligibility,
		Tags:                 input.Tags,
		Venue:                input.Venue,
		IsTeamEvent:          input.IsTeamEvent,
		MinTeamSize:          input.MinTeamSize,
		MaxTeamSize:          input.MaxTeamSize,
		FormSchema:           input.FormSchema,
		MerchItems:           input.MerchItems,
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

// Update edits an event. Once registrations exist, the team flag, the event
// type, and a limit below the current count are off the table.
func (s *EventService) Update(ctx context.Context, eventID, organizerID int, input EventInput) (*models.Event, error) {
	event, err := s.requireOwner(ctx, eventID, organizerID)
	if err != nil {
		return nil, err
	}
	if event.Status == models.EventCancelled || event.Status == models.EventCompleted {
		return nil, ErrEventStatusTransition
	}
	if err := validateEventInput(input); err != nil {
		return nil, err
	}

	if event.RegistrationCount > 0 {
		if input.IsTeamEvent != event.IsTeamEvent {
			return nil, fmt.Errorf("%w: cannot change team setting", ErrEventHasRegistrations)
		}
		if input.EventType != "" && input.EventType != event.EventType {
			return nil, fmt.Errorf("%w: cannot change event type", ErrEventHasRegistrations)
		}
		if input.RegistrationLimit != 0 && input.RegistrationLimit < event.RegistrationCount {
			return nil, fmt.Errorf("%w: limit below current registrations", ErrEventHasRegistrations)
		}
	}

	event.Name = strings.TrimSpace(input.Name)
	event.Description = input.Description
	event.RegistrationDeadline = input.RegistrationDeadline
	event.StartDate = input.StartDate
	event.EndDate = input.EndDate
	event.RegistrationLimit = input.RegistrationLimit
	event.RegistrationFee = input.RegistrationFee
	if input.Eligibility != "" {
		event.Eligibility = input.Eligibility
	}
	event.Tags = input.Tags
	event.Venue = input.Venue
	event.IsTeamEvent = input.IsTeamEvent
	event.MinTeamSize = input.MinTeamSize
	event.MaxTeamSize = input.MaxTeamSize
	event.FormSchema = input.FormSchema
	event.MerchItems = input.MerchItems

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return event, nil
}

func (s *EventService) SetRegistrationOpen(ctx context.Context, eventID, organizerID int, open bool) (*models.Event, error) {
	event, err := s.requireOwner(ctx, eventID, organizerID)
	if err != nil {
		return nil, err
	}
	event.RegistrationOpen = open
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return event, nil
}

// Publish moves a draft live and announces it on the organizer's Discord
// webhook when one is configured.
func (s *EventService) Publish(ctx context.Context, eventID, organizerID int) (*models.Event, error) {
	event, err := s.requireOwner(ctx, eventID, organizerID)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventDraft {
		return nil, ErrEventStatusTransition
	}

	if err := s.eventRepo.UpdateStatus(ctx, eventID, models.EventPublished); err != nil {
		return nil, fmt.Errorf("failed to publish event: %w", err)
	}
	event.Status = models.EventPublished

	go s.announceOnDiscord(event)

	return event, nil
}

func (s *EventService) CancelEvent(ctx context.Context, eventID, organizerID int) (*models.Event, error) {
	event, err := s.requireOwner(ctx, eventID, organizerID)
	if err != nil {
		return nil, err
	}
	if event.Status == models.EventCompleted || event.Status == models.EventCancelled {
		return nil, ErrEventStatusTransition
	}

	if err := s.eventRepo.UpdateStatus(ctx, eventID, models.EventCancelled); err != nil {
		return nil, fmt.Errorf("failed to cancel event: %w", err)
	}
	event.Status = models.EventCancelled
	return event, nil
}

func (s *EventService) Delete(ctx context.Context, eventID, organizerID int) error {
	event, err := s.requireOwner(ctx, eventID, organizerID)
	if err != nil {
		return err
	}
	if event.Status != models.EventDraft {
		return ErrEventStatusTransition
	}
	if event.RegistrationCount > 0 {
		return ErrEventHasRegistrations
	}
	return s.eventRepo.Delete(ctx, eventID)
}

func (s *EventService) Get(ctx context.Context, eventID int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	s.decorate(ctx, event)
	return event, nil
}

// Browse is the public catalogue: published events only.
func (s *EventService) Browse(ctx context.Context, filter repositories.EventFilter) ([]*models.Event, error) {
	published := models.EventPublished
	filter.Status = &published

	events, err := s.eventRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to browse events: %w", err)
	}
	for _, event := range events {
		s.decorate(ctx, event)
	}
	return events, nil
}

func (s *EventService) ListByOrganizer(ctx context.Context, organizerID int) ([]*models.Event, error) {
	filter := repositories.EventFilter{OrganizerID: &organizerID}
	events, err := s.eventRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizer events: %w", err)
	}
	for _, event := range events {
		s.decorate(ctx, event)
	}
	return events, nil
}

// Trending ranks published events by registration volume over the last day.
func (s *EventService) Trending(ctx context.Context) ([]*models.Event, error) {
	ids, err := s.regRepo.TrendingEventIDs(ctx, time.Now().Add(-trendingWindow), trendingLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank trending events: %w", err)
	}
	events, err := s.eventRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load trending events: %w", err)
	}

	byID := make(map[int]*models.Event, len(events))
	for _, event := range events {
		byID[event.ID] = event
	}
	ordered := make([]*models.Event, 0, len(ids))
	for _, id := range ids {
		if event, ok := byID[id]; ok && event.Status == models.EventPublished {
			s.decorate(ctx, event)
			ordered = append(ordered, event)
		}
	}
	return ordered, nil
}

// UploadPoster replaces the event poster in object storage.
func (s *EventService) UploadPoster(ctx context.Context, eventID, organizerID int, contentType string, reader io.Reader) (*models.Event, error) {
	event, err := s.requireOwner(ctx, eventID, organizerID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("events/%d/poster-%d", eventID, time.Now().Unix())
	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload poster: %w", err)
	}

	oldKey := event.PosterKey
	if err := s.eventRepo.UpdatePosterKey(ctx, eventID, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to store poster key: %w", err)
	}
	if oldKey != nil {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.Warn("failed to delete previous poster",
				slog.String("key", *oldKey), slog.Any("error", err))
		}
	}

	event.PosterKey = &result.Key
	event.PosterURL = &result.Location
	return event, nil
}

// Analytics fans the per-event counters out in parallel.
func (s *EventService) Analytics(ctx context.Context, eventID, organizerID int) (*models.EventAnalytics, error) {
	event, err := s.requireOwner(ctx, eventID, organizerID)
	if err != nil {
		return nil, err
	}

	analytics := &models.EventAnalytics{
		EventID:   eventID,
		SeatLimit: event.RegistrationLimit,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := s.regRepo.CountActiveByEvent(gctx, eventID)
		analytics.RegistrationCount = count
		return err
	})
	g.Go(func() error {
		count, err := s.regRepo.CountAttendedByEvent(gctx, eventID)
		analytics.AttendedCount = count
		return err
	})
	g.Go(func() error {
		count, err := s.regRepo.CountCancelledByEvent(gctx, eventID)
		analytics.CancelledCount = count
		return err
	})
	if event.IsTeamEvent {
		g.Go(func() error {
			count, err := s.teamRepo.CountByEventAndStatus(gctx, eventID, models.TeamCompleted)
			analytics.TeamsCompleted = count
			return err
		})
		g.Go(func() error {
			count, err := s.teamRepo.CountByEventAndStatus(gctx, eventID, models.TeamPending)
			analytics.TeamsPending = count
			return err
		})
	}
	if event.EventType == models.EventTypeMerchandise {
		g.Go(func() error {
			count, err := s.orderRepo.CountByEventAndStatus(gctx, eventID, models.OrderApproved)
			analytics.OrdersApproved = count
			return err
		})
		g.Go(func() error {
			count, err := s.orderRepo.CountByEventAndStatus(gctx, eventID, models.OrderPendingProof)
			analytics.OrdersPendingProof = count
			return err
		})
		g.Go(func() error {
			revenue, err := s.orderRepo.ApprovedRevenueByEvent(gctx, eventID)
			analytics.Revenue = revenue
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to gather event analytics: %w", err)
	}

	if event.HasSeatLimit() {
		analytics.FillRate = float64(analytics.RegistrationCount) / float64(event.RegistrationLimit)
	}
	return analytics, nil
}

// ExportRegistrationsCSV streams the event's registration sheet.
func (s *EventService) ExportRegistrationsCSV(ctx context.Context, eventID, organizerID int, w io.Writer) error {
	if _, err := s.requireOwner(ctx, eventID, organizerID); err != nil {
		return err
	}

	registrations, err := s.regRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to list registrations: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"ticket_id", "name", "email", "status", "team_name", "registered_at"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, reg := range registrations {
		name, email := "", ""
		if reg.User != nil {
			name = reg.User.DisplayName()
			email = reg.User.Email
		}
		row := []string{
			reg.TicketID,
			name,
			email,
			string(reg.Status),
			reg.TeamName,
			reg.CreatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// AutoCompleteEnded flips published events past their end date to completed.
// Runs from the background scheduler.
func (s *EventService) AutoCompleteEnded(ctx context.Context) (int, error) {
	events, err := s.eventRepo.ListEnded(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to list ended events: %w", err)
	}
	completed := 0
	for _, event := range events {
		if err := s.eventRepo.UpdateStatus(ctx, event.ID, models.EventCompleted); err != nil {
			s.logger.Error("failed to auto-complete event",
				slog.Int("event_id", event.ID), slog.Any("error", err))
			continue
		}
		completed++
	}
	return completed, nil
}

func (s *EventService) requireOwner(ctx context.Context, eventID, organizerID int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event.OrganizerID != organizerID {
		return nil, ErrForbiddenOperation
	}
	return event, nil
}

func (s *EventService) decorate(ctx context.Context, event *models.Event) {
	if event.PosterKey != nil && s.uploader != nil {
		url := s.uploader.GetPublicURL(*event.PosterKey)
		event.PosterURL = &url
	}
	if org, err := s.orgRepo.GetByID(ctx, event.OrganizerID); err == nil {
		event.Organizer = org
	}
}

func (s *EventService) announceOnDiscord(event *models.Event) {
	org, err := s.orgRepo.GetByID(context.Background(), event.OrganizerID)
	if err != nil || org.DiscordWebhookURL == "" {
		return
	}

	content := fmt.Sprintf("**%s** is live! Registration closes %s.",
		event.Name, event.RegistrationDeadline.Format("Jan 2, 2006 15:04 MST"))
	payload, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return
	}

	resp, err := s.httpClient.Post(org.DiscordWebhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		s.logger.Warn("failed to post discord announcement",
			slog.Int("event_id", event.ID), slog.Any("error", err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		s.logger.Warn("discord webhook rejected announcement",
			slog.Int("event_id", event.ID), slog.String("status", strconv.Itoa(resp.StatusCode)))
	}
}

func validateEventInput(input EventInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: event name is required", ErrValidationFailed)
	}
	if input.RegistrationDeadline.IsZero() {
		return fmt.Errorf("%w: registration deadline is required", ErrValidationFailed)
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return ErrEventDateRangeInvalid
	}
	if input.StartDate != nil && input.RegistrationDeadline.After(*input.StartDate) {
		return ErrEventDeadlineInvalid
	}
	if input.RegistrationLimit < 0 {
		return fmt.Errorf("%w: registration limit cannot be negative", ErrValidationFailed)
	}
	if input.IsTeamEvent {
		minSize, maxSize := input.MinTeamSize, input.MaxTeamSize
		if minSize < 0 || maxSize < 0 {
			return ErrEventTeamSizeInvalid
		}
		if minSize > 0 && maxSize > 0 && minSize > maxSize {
			return ErrEventTeamSizeInvalid
		}
	}
	if input.EventType == models.EventTypeMerchandise {
		if len(input.MerchItems) == 0 {
			return fmt.Errorf("%w: merchandise event needs at least one item", ErrValidationFailed)
		}
		for _, item := range input.MerchItems {
			if strings.TrimSpace(item.Name) == "" {
				return fmt.Errorf("%w: merch item name is required", ErrValidationFailed)
			}
			if item.Price < 0 || item.Stock < 0 || item.LimitPerUser < 0 {
				return fmt.Errorf("%w: merch item %q has negative values", ErrValidationFailed, item.Name)
			}
		}
	}
	return nil
}
