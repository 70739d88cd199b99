package stripe

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

// Client wraps the Stripe SDK for payment intent creation and polling.
type Client struct {
	api           *client.API
	webhookSecret string
	logger        *slog.Logger
}

func NewClient(apiKey, webhookSecret string, logger *slog.Logger) *Client {
	sc := &client.API{}
	sc.Init(apiKey, nil)

	return &Client{
		api:           sc,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

func (c *Client) CreatePaymentIntent(ctx context.Context, amount int64, currency, description string, metadata map[string]string) (string, string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(amount),
		Currency:    stripe.String(currency),
		Description: stripe.String(description),
		Metadata:    metadata,
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	intent, err := c.api.PaymentIntents.New(params)
	if err != nil {
		c.logger.Error("create payment intent failed", slog.Any("error", err))
		return "", "", fmt.Errorf("stripe: create payment intent: %w", err)
	}

	c.logger.Info("stripe payment intent created",
		slog.String("intent_id", intent.ID),
		slog.Int64("amount", amount))

	return intent.ID, intent.ClientSecret, nil
}

func (c *Client) GetPaymentIntentStatus(ctx context.Context, intentID string) (string, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := c.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return "", fmt.Errorf("stripe: get payment intent: %w", err)
	}

	return string(intent.Status), nil
}

// VerifyWebhook checks the signature header against the endpoint secret and
// returns the parsed event.
func (c *Client) VerifyWebhook(payload []byte, signatureHeader string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, c.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("stripe: verify webhook signature: %w", err)
	}
	return event, nil
}
