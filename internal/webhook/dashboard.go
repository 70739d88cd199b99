package webhook

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"membify/internal/stories/stats"
)

const defaultChartMonths = 6

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	communityID, ok := pathID(w, r)
	if !ok {
		return
	}

	summary, err := s.stats.Summary(r.Context(), communityID)
	if err != nil {
		s.logger.Error("dashboard summary failed",
			slog.Int64("community_id", communityID),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeData(w, summary)
}

func (s *Server) handleRevenue(w http.ResponseWriter, r *http.Request) {
	s.handleChart(w, r, s.stats.MonthlyRevenue)
}

func (s *Server) handleGrowth(w http.ResponseWriter, r *http.Request) {
	s.handleChart(w, r, s.stats.GrowthCurve)
}

type chartFunc func(ctx context.Context, communityID int64, months int) ([]stats.MonthPoint, error)

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request, series chartFunc) {
	communityID, ok := pathID(w, r)
	if !ok {
		return
	}

	months := defaultChartMonths
	if raw := r.URL.Query().Get("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 36 {
			writeError(w, http.StatusBadRequest, "invalid months parameter")
			return
		}
		months = parsed
	}

	points, err := series(r.Context(), communityID, months)
	if err != nil {
		s.logger.Error("dashboard chart failed",
			slog.Int64("community_id", communityID),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeData(w, points)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id in path")
		return 0, false
	}
	return id, true
}
