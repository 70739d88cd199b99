package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"membify/internal/outbox"
	"membify/internal/stories/members"
	"membify/internal/stories/plans"
)

// ErrPlanUnavailable marks checkout requests for plans that do not exist
// or are archived, so callers can report them as client errors.
var ErrPlanUnavailable = errors.New("plan unavailable")

// Service provides the subscription status updater: it owns the payment
// lifecycle and turns completed payments into subscriber activations via
// the transition outbox.
type Service struct {
	storage      Storage
	planStorage  PlanStorage
	transitions  TransitionOutbox
	stripeClient StripeClient
	cryptoClient CryptoClient
	logger       *slog.Logger
	now          func() time.Time
}

func NewService(
	storage Storage,
	planStorage PlanStorage,
	transitions TransitionOutbox,
	stripeClient StripeClient,
	cryptoClient CryptoClient,
	logger *slog.Logger,
) *Service {
	return &Service{
		storage:      storage,
		planStorage:  planStorage,
		transitions:  transitions,
		stripeClient: stripeClient,
		cryptoClient: cryptoClient,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// CheckoutRequest starts a payment for a subscriber buying a plan.
type CheckoutRequest struct {
	CommunityID  int64
	SubscriberID int64
	PlanID       int64
	Provider     Provider
}

// CreateCheckout creates a pending payment row and the corresponding
// provider-side payment object.
func (s *Service) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Payment, error) {
	plan, err := s.planStorage.GetPlan(ctx, plans.GetCriteria{ID: &req.PlanID})
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: plan %d not found", ErrPlanUnavailable, req.PlanID)
	}
	if !plan.IsActive {
		return nil, fmt.Errorf("%w: plan %d is archived", ErrPlanUnavailable, req.PlanID)
	}

	created, err := s.storage.CreatePayment(ctx, Payment{
		CommunityID:  req.CommunityID,
		SubscriberID: req.SubscriberID,
		PlanID:       req.PlanID,
		Provider:     req.Provider,
		Amount:       plan.Price,
		Currency:     plan.Currency,
		Status:       StatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	description := fmt.Sprintf("Membify subscription: %s", plan.Name)

	var providerID, paymentURL string
	switch req.Provider {
	case ProviderStripe:
		metadata := map[string]string{
			"payment_id":    fmt.Sprintf("%d", created.ID),
			"community_id":  fmt.Sprintf("%d", created.CommunityID),
			"subscriber_id": fmt.Sprintf("%d", created.SubscriberID),
		}
		providerID, paymentURL, err = s.stripeClient.CreatePaymentIntent(ctx, plan.Price, plan.Currency, description, metadata)
	case ProviderCrypto:
		providerID, paymentURL, err = s.cryptoClient.CreateInvoice(ctx, plan.Price, plan.Currency, description)
	case ProviderTelegram:
		// Telegram Payments deliver the outcome inside bot updates; there is
		// no provider object to create up front.
		return created, nil
	default:
		return nil, fmt.Errorf("unknown payment provider: %q", req.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create provider payment: %w", err)
	}

	updated, err := s.storage.UpdatePayment(ctx,
		GetCriteria{ID: &created.ID},
		UpdateParams{
			ProviderPaymentID: &providerID,
			PaymentURL:        &paymentURL,
		})
	if err != nil {
		return nil, fmt.Errorf("update payment with provider data: %w", err)
	}

	s.logger.Info("Checkout created",
		"payment_id", updated.ID,
		"provider", string(req.Provider),
		"amount", updated.Amount)

	return updated, nil
}

// ApplyProviderStatus applies a mapped provider status to the payment
// identified by (provider, providerPaymentID). A callback for an
// already-terminal payment is a no-op, so duplicate webhook deliveries do
// not touch the subscriber twice. Returns nil when no such payment exists.
func (s *Service) ApplyProviderStatus(ctx context.Context, provider Provider, providerPaymentID string, newStatus Status) (*Payment, error) {
	existing, err := s.storage.GetPayment(ctx, GetCriteria{
		Provider:          &provider,
		ProviderPaymentID: &providerPaymentID,
	})
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if existing == nil {
		return nil, nil
	}

	if existing.Status.Terminal() {
		s.logger.Info("Ignoring callback for settled payment",
			"payment_id", existing.ID,
			"status", string(existing.Status),
			"callback_status", string(newStatus))
		return existing, nil
	}

	if newStatus == existing.Status {
		return existing, nil
	}

	// The activate transition is recorded before the payment turns
	// terminal. A failure here leaves the payment pending, so the provider
	// retry takes the whole path again instead of no-opping on a settled
	// payment with no recorded activation.
	var transition *outbox.Transition
	if newStatus == StatusCompleted {
		transition, err = s.recordActivation(ctx, existing)
		if err != nil {
			return nil, fmt.Errorf("record activation: %w", err)
		}
	}

	params := UpdateParams{Status: &newStatus}
	if newStatus.Terminal() {
		params.ProcessedAt = lo.ToPtr(s.now())
	}

	updated, err := s.storage.UpdatePayment(ctx, GetCriteria{ID: &existing.ID}, params)
	if err != nil {
		return nil, fmt.Errorf("update payment status: %w", err)
	}

	s.logger.Info("Payment status changed",
		"payment_id", updated.ID,
		"old_status", string(existing.Status),
		"new_status", string(newStatus))

	if transition != nil {
		if err := s.transitions.Apply(ctx, transition); err != nil {
			// The transition is persisted; the replay worker finishes the
			// activation, so the callback still settles successfully.
			s.logger.Warn("Activation deferred to outbox replay",
				"payment_id", updated.ID,
				"transition_id", transition.ID,
				"error", err)
		}
	}

	return updated, nil
}

// recordActivation persists the activate transition for a paid subscriber
// without touching the subscriber row.
func (s *Service) recordActivation(ctx context.Context, paid *Payment) (*outbox.Transition, error) {
	plan, err := s.planStorage.GetPlan(ctx, plans.GetCriteria{ID: &paid.PlanID})
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	if plan == nil {
		return nil, fmt.Errorf("plan not found: %d", paid.PlanID)
	}

	start := s.now()
	var end *time.Time
	if !plan.Unlimited() {
		end = lo.ToPtr(start.AddDate(0, 0, plan.IntervalDays))
	}

	transition, err := s.transitions.Record(ctx, outbox.Transition{
		SubscriberID:      paid.SubscriberID,
		PaymentID:         &paid.ID,
		Kind:              outbox.KindActivate,
		NewStatus:         members.SubStatusActive,
		SubscriptionStart: &start,
		SubscriptionEnd:   end,
		PlanID:            &paid.PlanID,
		Notify:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("record transition: %w", err)
	}

	return transition, nil
}

// PollPending queries providers for payments still pending locally, mapping
// and applying any terminal outcome. Recovers callbacks that never arrived.
func (s *Service) PollPending(ctx context.Context, limit int) error {
	pending, err := s.storage.ListPayments(ctx, ListCriteria{
		Status: []Status{StatusPending},
		Limit:  limit,
	})
	if err != nil {
		return fmt.Errorf("list pending payments: %w", err)
	}

	for _, p := range pending {
		if p.ProviderPaymentID == nil {
			continue
		}

		mapped, err := s.pollProvider(ctx, p)
		if err != nil {
			s.logger.Warn("Failed to poll payment provider",
				"payment_id", p.ID,
				"provider", string(p.Provider),
				"error", err)
			continue
		}

		if mapped == StatusPending {
			continue
		}

		if _, err := s.ApplyProviderStatus(ctx, p.Provider, *p.ProviderPaymentID, mapped); err != nil {
			s.logger.Error("Failed to apply polled payment status",
				"payment_id", p.ID,
				"status", string(mapped),
				"error", err)
		}
	}

	return nil
}

func (s *Service) pollProvider(ctx context.Context, p *Payment) (Status, error) {
	switch p.Provider {
	case ProviderStripe:
		intentStatus, err := s.stripeClient.GetPaymentIntentStatus(ctx, *p.ProviderPaymentID)
		if err != nil {
			return "", err
		}
		return MapStripeIntentStatus(intentStatus)
	case ProviderCrypto:
		invoiceStatus, err := s.cryptoClient.GetInvoiceStatus(ctx, *p.ProviderPaymentID)
		if err != nil {
			return "", err
		}
		return MapCryptoStatus(invoiceStatus)
	default:
		// Telegram Payments have no polling API; the bot update is the only
		// source of truth.
		return StatusPending, nil
	}
}

func (s *Service) Get(ctx context.Context, criteria GetCriteria) (*Payment, error) {
	return s.storage.GetPayment(ctx, criteria)
}

func (s *Service) List(ctx context.Context, criteria ListCriteria) ([]*Payment, error) {
	return s.storage.ListPayments(ctx, criteria)
}
