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

type CreateOrderInput struct {
	ItemName     string `json:"item_name"`
	Variant      string `json:"variant"`
	Quantity     int    `json:"quantity"`
	PaymentProof string `json:"payment_proof"`
}

type ReviewOrderInput struct {
	Approve bool   `json:"approve"`
	Comment string `json:"comment"`
}

type MerchService struct {
	eventRepo repositories.EventRepository
	orderRepo repositories.MerchOrderRepository
	regRepo   repositories.RegistrationRepository
	userRepo  repositories.UserRepository
	tickets   TicketIssuer
	notifier  Notifier
	logger    *slog.Logger
}

func NewMerchService(
	eventRepo repositories.EventRepository,
	orderRepo repositories.MerchOrderRepository,
	regRepo repositories.RegistrationRepository,
	userRepo repositories.UserRepository,
	tickets TicketIssuer,
	notifier Notifier,
	logger *slog.Logger,
) *MerchService {
	return &MerchService{
		eventRepo: eventRepo,
		orderRepo: orderRepo,
		regRepo:   regRepo,
		userRepo:  userRepo,
		tickets:   tickets,
		notifier:  notifier,
		logger:    logger,
	}
}

// CreateOrder places an order. It starts in pending_proof, or straight in
// pending_approval when a payment proof accompanies it. Stock here is only a
// pre-check; the authoritative recheck and decrement happen at approval.
func (s *MerchService) CreateOrder(ctx context.Context, eventID, userID int, input CreateOrderInput) (*models.MerchOrder, error) {
	event, err := s.loadMerchEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := checkRegistrationOpen(event, time.Now()); err != nil {
		return nil, err
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

	if input.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrValidationFailed)
	}

	idx := event.FindMerchItem(input.ItemName)
	if idx < 0 {
		return nil, ErrItemNotFound
	}
	item := event.MerchItems[idx]

	variant := strings.TrimSpace(input.Variant)
	if len(item.Variants) > 0 {
		if !containsOption(item.Variants, variant) {
			return nil, ErrVariantInvalid
		}
	} else if variant != "" {
		return nil, ErrVariantInvalid
	}

	if item.Stock < input.Quantity {
		return nil, ErrItemOutOfStock
	}

	if item.LimitPerUser > 0 {
		held, err := s.orderRepo.SumActiveQuantity(ctx, eventID, userID, item.Name, variant)
		if err != nil {
			return nil, fmt.Errorf("failed to sum existing orders: %w", err)
		}
		if held+input.Quantity > item.LimitPerUser {
			return nil, ErrOrderLimitExceeded
		}
	}

	order := &models.MerchOrder{
		EventID:     eventID,
		UserID:      userID,
		ItemName:    item.Name,
		Variant:     variant,
		Quantity:    input.Quantity,
		UnitPrice:   item.Price,
		TotalAmount: item.Price * float64(input.Quantity),
		Status:      models.OrderPendingProof,
	}
	if proof := strings.TrimSpace(input.PaymentProof); proof != "" {
		order.PaymentProof = &proof
		order.Status = models.OrderPendingApproval
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

// SubmitProof attaches the payment proof and moves the order to
// pending_approval. Only the buyer can do this. Resubmission is allowed any
// number of times while the order is not approved; each one wipes the prior
// verdict, so a rejected order re-enters review with a clean slate.
func (s *MerchService) SubmitProof(ctx context.Context, orderID, userID int, proofKey string) (*models.MerchOrder, error) {
	if strings.TrimSpace(proofKey) == "" {
		return nil, ErrProofRequired
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrMerchOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order.UserID != userID {
		return nil, ErrForbiddenOperation
	}
	if order.Status == models.OrderApproved {
		return nil, ErrOrderAlreadyApproved
	}

	if err := s.orderRepo.UpdateProof(ctx, orderID, proofKey); err != nil {
		if errors.Is(err, repositories.ErrMerchOrderNotFound) {
			return nil, ErrOrderAlreadyApproved
		}
		return nil, fmt.Errorf("failed to attach proof: %w", err)
	}
	order.PaymentProof = &proofKey
	order.Status = models.OrderPendingApproval
	order.ReviewComment = ""
	order.ReviewedBy = nil
	order.ReviewedAt = nil
	return order, nil
}

// ReviewOrder settles a pending_approval order. Approval rechecks stock
// against the live item, decrements it, and registers the buyer for the
// event; rejection frees the buyer's per-item allowance.
func (s *MerchService) ReviewOrder(ctx context.Context, orderID, reviewerID, organizerID int, input ReviewOrderInput) (*models.MerchOrder, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrMerchOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order.Status != models.OrderPendingApproval {
		return nil, ErrOrderNotReviewable
	}

	event, err := s.loadMerchEvent(ctx, order.EventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != organizerID {
		return nil, ErrForbiddenOperation
	}

	seatReserved := false
	if input.Approve {
		idx := event.FindMerchItem(order.ItemName)
		if idx < 0 {
			return nil, ErrItemNotFound
		}
		if event.MerchItems[idx].Stock < order.Quantity {
			return nil, ErrItemOutOfStock
		}

		registered, err := s.regRepo.ExistsActiveByEventAndUser(ctx, event.ID, order.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to check buyer registration: %w", err)
		}
		if !registered {
			reserved, err := s.eventRepo.ReserveSeats(ctx, event.ID, 1)
			if err != nil {
				return nil, fmt.Errorf("failed to reserve buyer seat: %w", err)
			}
			if !reserved {
				return nil, ErrEventFull
			}
			seatReserved = true
		}
		order.Status = models.OrderApproved
	} else {
		order.Status = models.OrderRejected
	}
	order.ReviewComment = input.Comment
	order.ReviewedBy = &reviewerID

	if err := s.orderRepo.Review(ctx, order); err != nil {
		if seatReserved {
			s.releaseBuyerSeat(ctx, order)
		}
		if errors.Is(err, repositories.ErrMerchOrderNotFound) {
			return nil, ErrOrderNotReviewable
		}
		return nil, fmt.Errorf("failed to review order: %w", err)
	}

	if order.Status == models.OrderApproved {
		idx := event.FindMerchItem(order.ItemName)
		event.MerchItems[idx].Stock -= order.Quantity
		if err := s.eventRepo.UpdateMerchItems(ctx, event.ID, event.MerchItems); err != nil {
			s.logger.Error("failed to decrement merch stock",
				slog.Int("order_id", order.ID), slog.Any("error", err))
		}
		s.registerBuyer(ctx, order, seatReserved)
	}

	go s.sendReviewedEmail(ctx, order, event)

	return order, nil
}

// registerBuyer records the approved buyer as a registrant. The insert is
// first-writer-wins so a buyer who already registered through another path
// keeps their original ticket; the now surplus seat is released.
func (s *MerchService) registerBuyer(ctx context.Context, order *models.MerchOrder, seatReserved bool) {
	ticketID, qrCodeURL := s.tickets.Issue()
	reg := &models.Registration{
		EventID:   order.EventID,
		UserID:    order.UserID,
		Status:    models.RegistrationRegistered,
		TicketID:  ticketID,
		QRCodeURL: qrCodeURL,
	}
	created, err := s.regRepo.InsertIfAbsent(ctx, reg)
	if err != nil {
		s.logger.Error("failed to register merch buyer",
			slog.Int("order_id", order.ID), slog.Any("error", err))
	}
	if !created && seatReserved {
		s.releaseBuyerSeat(ctx, order)
	}
}

func (s *MerchService) releaseBuyerSeat(ctx context.Context, order *models.MerchOrder) {
	if err := s.eventRepo.ReleaseSeats(ctx, order.EventID, 1); err != nil {
		s.logger.Error("failed to release buyer seat",
			slog.Int("order_id", order.ID), slog.Any("error", err))
	}
}

func (s *MerchService) ListMyOrders(ctx context.Context, userID int) ([]*models.MerchOrder, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

func (s *MerchService) ListEventOrders(ctx context.Context, eventID, organizerID int, status *models.MerchOrderStatus) ([]*models.MerchOrder, error) {
	event, err := s.loadMerchEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != organizerID {
		return nil, ErrForbiddenOperation
	}
	return s.orderRepo.ListByEvent(ctx, eventID, status)
}

func (s *MerchService) loadMerchEvent(ctx context.Context, eventID int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event.EventType != models.EventTypeMerchandise {
		return nil, ErrNotMerchandiseEvent
	}
	return event, nil
}

func (s *MerchService) sendReviewedEmail(ctx context.Context, order *models.MerchOrder, event *models.Event) {
	buyer, err := s.userRepo.GetByID(ctx, order.UserID)
	if err != nil {
		return
	}
	if err := s.notifier.SendOrderReviewedEmail(buyer.Email, event.Name, order.ItemName, string(order.Status), order.ReviewComment); err != nil {
		s.logger.Warn("failed to send order review email",
			slog.String("email", buyer.Email), slog.Any("error", err))
	}
}
