package webhook

import (
	"context"
	"time"

	"github.com/stripe/stripe-go/v78"

	"membify/internal/stories/botsettings"
	"membify/internal/stories/communities"
	"membify/internal/stories/members"
	"membify/internal/stories/payment"
	"membify/internal/stories/plans"
	"membify/internal/stories/stats"
)

type (
	CommunityResolver interface {
		Get(ctx context.Context, id int64) (*communities.Community, error)
		GetByChatID(ctx context.Context, chatID int64) (*communities.Community, error)
	}

	Reconciler interface {
		Reconcile(ctx context.Context, req members.ReconcileRequest) (*members.Outcome, error)
	}

	// MemberDirectory resolves the subscriber row for a buyer, creating an
	// inactive one when checkout happens before the user joins the chat.
	MemberDirectory interface {
		Ensure(ctx context.Context, communityID, telegramUserID int64, username string) (*members.Subscriber, error)
	}

	PaymentUpdater interface {
		ApplyProviderStatus(ctx context.Context, provider payment.Provider, providerPaymentID string, newStatus payment.Status) (*payment.Payment, error)
	}

	CheckoutStarter interface {
		CreateCheckout(ctx context.Context, req payment.CheckoutRequest) (*payment.Payment, error)
	}

	PlanManager interface {
		CreatePlan(ctx context.Context, plan plans.Plan) (*plans.Plan, error)
		GetActivePlans(ctx context.Context, communityID int64) ([]*plans.Plan, error)
		UpdatePlan(ctx context.Context, planID int64, params plans.UpdateParams) (*plans.Plan, error)
		ArchivePlan(ctx context.Context, planID int64) (*plans.Plan, error)
	}

	SettingsManager interface {
		Update(ctx context.Context, communityID int64, params botsettings.UpdateParams) (*botsettings.Settings, error)
	}

	StripeVerifier interface {
		VerifyWebhook(payload []byte, signatureHeader string) (stripe.Event, error)
	}

	StatsProvider interface {
		Summary(ctx context.Context, communityID int64) (*stats.Summary, error)
		MonthlyRevenue(ctx context.Context, communityID int64, months int) ([]stats.MonthPoint, error)
		GrowthCurve(ctx context.Context, communityID int64, months int) ([]stats.MonthPoint, error)
	}

	// Notifier sends the post-reconcile welcome; soft failures only.
	Notifier interface {
		SendWelcome(ctx context.Context, userID int64, community *communities.Community, username string, expires *time.Time) bool
	}
)
