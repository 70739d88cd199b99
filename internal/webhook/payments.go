package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v78"

	"membify/internal/stories/payment"
)

type checkoutRequest struct {
	CommunityID    int64  `json:"community_id"`
	TelegramUserID int64  `json:"telegram_user_id"`
	Username       string `json:"username"`
	PlanID         int64  `json:"plan_id"`
	Provider       string `json:"provider"`
}

type checkoutResponse struct {
	PaymentID  int64   `json:"payment_id"`
	Status     string  `json:"status"`
	Amount     int64   `json:"amount"`
	Currency   string  `json:"currency"`
	PaymentURL *string `json:"payment_url,omitempty"`
}

func (s *Server) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed checkout payload")
		return
	}
	if req.CommunityID <= 0 || req.TelegramUserID <= 0 || req.PlanID <= 0 {
		writeError(w, http.StatusBadRequest, "community_id, telegram_user_id and plan_id are required")
		return
	}

	provider := payment.Provider(req.Provider)
	switch provider {
	case payment.ProviderStripe, payment.ProviderCrypto, payment.ProviderTelegram:
	default:
		writeError(w, http.StatusBadRequest, "unknown payment provider")
		return
	}

	community, err := s.communities.Get(r.Context(), req.CommunityID)
	if err != nil {
		s.logger.Error("get community failed",
			slog.Int64("community_id", req.CommunityID),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if community == nil {
		writeError(w, http.StatusNotFound, "community not found")
		return
	}

	subscriber, err := s.directory.Ensure(r.Context(), community.ID, req.TelegramUserID, req.Username)
	if err != nil {
		s.logger.Error("ensure subscriber failed",
			slog.Int64("community_id", community.ID),
			slog.Int64("telegram_user_id", req.TelegramUserID),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	created, err := s.checkout.CreateCheckout(r.Context(), payment.CheckoutRequest{
		CommunityID:  community.ID,
		SubscriberID: subscriber.ID,
		PlanID:       req.PlanID,
		Provider:     provider,
	})
	if err != nil {
		if errors.Is(err, payment.ErrPlanUnavailable) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("create checkout failed",
			slog.Int64("community_id", community.ID),
			slog.Int64("plan_id", req.PlanID),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeData(w, checkoutResponse{
		PaymentID:  created.ID,
		Status:     string(created.Status),
		Amount:     created.Amount,
		Currency:   created.Currency,
		PaymentURL: created.PaymentURL,
	})
}

func (s *Server) handleStripeCallback(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body failed")
		return
	}

	event, err := s.stripe.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		s.logger.Warn("stripe signature verification failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	status, actionable := payment.MapStripeEventType(string(event.Type))
	if !actionable {
		writeOK(w)
		return
	}

	if event.Data == nil {
		writeError(w, http.StatusBadRequest, "event missing data")
		return
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil || intent.ID == "" {
		writeError(w, http.StatusBadRequest, "malformed payment intent payload")
		return
	}

	if _, err := s.payments.ApplyProviderStatus(r.Context(), payment.ProviderStripe, intent.ID, status); err != nil {
		s.logger.Error("apply stripe payment status failed",
			slog.String("intent_id", intent.ID),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeOK(w)
}

type cryptoCallback struct {
	PaymentID     json.Number `json:"payment_id"`
	PaymentStatus string      `json:"payment_status"`
}

func (s *Server) handleCryptoCallback(w http.ResponseWriter, r *http.Request) {
	var callback cryptoCallback
	if err := json.NewDecoder(r.Body).Decode(&callback); err != nil {
		writeError(w, http.StatusBadRequest, "malformed callback payload")
		return
	}
	if callback.PaymentID.String() == "" || callback.PaymentStatus == "" {
		writeError(w, http.StatusBadRequest, "callback missing payment_id or payment_status")
		return
	}

	status, err := payment.MapCryptoStatus(callback.PaymentStatus)
	if err != nil {
		s.logger.Warn("unmapped crypto payment status",
			slog.String("payment_id", callback.PaymentID.String()),
			slog.String("provider_status", callback.PaymentStatus))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.payments.ApplyProviderStatus(r.Context(), payment.ProviderCrypto, callback.PaymentID.String(), status); err != nil {
		s.logger.Error("apply crypto payment status failed",
			slog.String("payment_id", callback.PaymentID.String()),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeOK(w)
}
