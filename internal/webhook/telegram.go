package webhook

import (
	"encoding/json"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"membify/internal/stories/members"
)

func (s *Server) handleTelegramUpdate(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "malformed update payload")
		return
	}

	memberUpdate := update.ChatMember
	if memberUpdate == nil {
		memberUpdate = update.MyChatMember
	}
	if memberUpdate == nil {
		// other update kinds flow through the polling router, not here
		writeOK(w)
		return
	}

	if memberUpdate.Chat.ID == 0 || memberUpdate.NewChatMember.User == nil {
		writeError(w, http.StatusBadRequest, "chat_member update missing chat or user")
		return
	}

	ctx := r.Context()

	community, err := s.communities.GetByChatID(ctx, memberUpdate.Chat.ID)
	if err != nil {
		s.logger.Error("resolve community failed",
			slog.Int64("chat_id", memberUpdate.Chat.ID),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if community == nil {
		writeError(w, http.StatusNotFound, "unknown community chat")
		return
	}

	user := memberUpdate.NewChatMember.User

	outcome, err := s.reconciler.Reconcile(ctx, members.ReconcileRequest{
		CommunityID:    community.ID,
		TelegramUserID: user.ID,
		Username:       user.UserName,
		NewStatus:      memberUpdate.NewChatMember.Status,
	})
	if err != nil {
		s.logger.Error("reconcile failed",
			slog.Int64("community_id", community.ID),
			slog.Int64("telegram_user_id", user.ID),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if outcome.Event == members.EventJoined && outcome.Subscriber != nil {
		s.notifier.SendWelcome(ctx, user.ID, community, user.UserName, outcome.Subscriber.SubscriptionEnd)
	}

	writeOK(w)
}
