package webhook

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"membify/internal/stories/botsettings"
	"membify/internal/stories/plans"
)

type planPayload struct {
	ID           int64    `json:"id"`
	CommunityID  int64    `json:"community_id"`
	Name         string   `json:"name"`
	Price        int64    `json:"price"`
	Currency     string   `json:"currency"`
	IntervalDays int      `json:"interval_days"`
	Features     []string `json:"features"`
	IsActive     bool     `json:"is_active"`
}

func planToPayload(p *plans.Plan) planPayload {
	return planPayload{
		ID:           p.ID,
		CommunityID:  p.CommunityID,
		Name:         p.Name,
		Price:        p.Price,
		Currency:     p.Currency,
		IntervalDays: p.IntervalDays,
		Features:     p.Features,
		IsActive:     p.IsActive,
	}
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	communityID, ok := s.resolveCommunity(w, r)
	if !ok {
		return
	}

	active, err := s.plans.GetActivePlans(r.Context(), communityID)
	if err != nil {
		s.logger.Error("list plans failed",
			slog.Int64("community_id", communityID),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	payloads := make([]planPayload, 0, len(active))
	for _, plan := range active {
		payloads = append(payloads, planToPayload(plan))
	}
	writeData(w, payloads)
}

type createPlanRequest struct {
	Name         string   `json:"name"`
	Price        int64    `json:"price"`
	Currency     string   `json:"currency"`
	IntervalDays int      `json:"interval_days"`
	Features     []string `json:"features"`
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	communityID, ok := s.resolveCommunity(w, r)
	if !ok {
		return
	}

	var req createPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed plan payload")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "plan name is required")
		return
	}

	created, err := s.plans.CreatePlan(r.Context(), plans.Plan{
		CommunityID:  communityID,
		Name:         req.Name,
		Price:        req.Price,
		Currency:     req.Currency,
		IntervalDays: req.IntervalDays,
		Features:     req.Features,
	})
	if err != nil {
		if errors.Is(err, plans.ErrInvalidPlan) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("create plan failed",
			slog.Int64("community_id", communityID),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeData(w, planToPayload(created))
}

type updatePlanRequest struct {
	Name         *string  `json:"name"`
	Price        *int64   `json:"price"`
	IntervalDays *int     `json:"interval_days"`
	Features     []string `json:"features"`
	IsActive     *bool    `json:"is_active"`
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	planID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed plan payload")
		return
	}

	updated, err := s.plans.UpdatePlan(r.Context(), planID, plans.UpdateParams{
		Name:         req.Name,
		Price:        req.Price,
		IntervalDays: req.IntervalDays,
		Features:     req.Features,
		IsActive:     req.IsActive,
	})
	if err != nil {
		if errors.Is(err, plans.ErrInvalidPlan) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("update plan failed",
			slog.Int64("plan_id", planID),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "plan not found")
		return
	}

	writeData(w, planToPayload(updated))
}

func (s *Server) handleArchivePlan(w http.ResponseWriter, r *http.Request) {
	planID, ok := pathID(w, r)
	if !ok {
		return
	}

	archived, err := s.plans.ArchivePlan(r.Context(), planID)
	if err != nil {
		s.logger.Error("archive plan failed",
			slog.Int64("plan_id", planID),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if archived == nil {
		writeError(w, http.StatusNotFound, "plan not found")
		return
	}

	writeData(w, planToPayload(archived))
}

type updateSettingsRequest struct {
	BotToken         *string `json:"bot_token"`
	WelcomeTemplate  *string `json:"welcome_template"`
	ReminderTemplate *string `json:"reminder_template"`
	ExpiryTemplate   *string `json:"expiry_template"`
	ReminderDays     *int    `json:"reminder_days"`
	QuietHoursStart  *int    `json:"quiet_hours_start"`
	QuietHoursEnd    *int    `json:"quiet_hours_end"`
}

type settingsPayload struct {
	CommunityID      int64   `json:"community_id"`
	WelcomeTemplate  *string `json:"welcome_template,omitempty"`
	ReminderTemplate *string `json:"reminder_template,omitempty"`
	ExpiryTemplate   *string `json:"expiry_template,omitempty"`
	ReminderDays     int     `json:"reminder_days"`
	QuietHoursStart  int     `json:"quiet_hours_start"`
	QuietHoursEnd    int     `json:"quiet_hours_end"`
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	communityID, ok := s.resolveCommunity(w, r)
	if !ok {
		return
	}

	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed settings payload")
		return
	}

	// BotToken is accepted but never echoed back in the response.
	updated, err := s.settings.Update(r.Context(), communityID, botsettings.UpdateParams{
		BotToken:         req.BotToken,
		WelcomeTemplate:  req.WelcomeTemplate,
		ReminderTemplate: req.ReminderTemplate,
		ExpiryTemplate:   req.ExpiryTemplate,
		ReminderDays:     req.ReminderDays,
		QuietHoursStart:  req.QuietHoursStart,
		QuietHoursEnd:    req.QuietHoursEnd,
	})
	if err != nil {
		if errors.Is(err, botsettings.ErrInvalidSettings) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("update settings failed",
			slog.Int64("community_id", communityID),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeData(w, settingsPayload{
		CommunityID:      updated.CommunityID,
		WelcomeTemplate:  updated.WelcomeTemplate,
		ReminderTemplate: updated.ReminderTemplate,
		ExpiryTemplate:   updated.ExpiryTemplate,
		ReminderDays:     updated.ReminderDays,
		QuietHoursStart:  updated.QuietHoursStart,
		QuietHoursEnd:    updated.QuietHoursEnd,
	})
}

// resolveCommunity parses the {id} path segment and confirms the community
// exists, writing the error response itself when it does not.
func (s *Server) resolveCommunity(w http.ResponseWriter, r *http.Request) (int64, bool) {
	communityID, ok := pathID(w, r)
	if !ok {
		return 0, false
	}

	community, err := s.communities.Get(r.Context(), communityID)
	if err != nil {
		s.logger.Error("get community failed",
			slog.Int64("community_id", communityID),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return 0, false
	}
	if community == nil {
		writeError(w, http.StatusNotFound, "community not found")
		return 0, false
	}

	return communityID, true
}
