package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/wonny/etfrating/internal/contracts"
	"github.com/wonny/etfrating/internal/pipeline"
	"github.com/wonny/etfrating/internal/selection"
	"github.com/wonny/etfrating/pkg/logger"
)

const (
	defaultLimit = 50
	maxLimit     = 1000
)

// LatestSource exposes the last in-process run
type LatestSource interface {
	Latest() *pipeline.Outcome
}

// RankingReader reads stored rankings
type RankingReader interface {
	LatestRankDate(ctx context.Context) (time.Time, error)
	GetRankingResults(ctx context.Context, date time.Time, limit int) ([]selection.RankingRow, error)
}

// SuggestionReader reads stored order hints
type SuggestionReader interface {
	GetSuggestions(ctx context.Context, date time.Time) ([]contracts.OrderSuggestion, error)
}

// RatingHandler serves the latest ranking and order hints.
// The in-process run wins; stored results are the fallback after a restart.
// ⭐ SSOT: 레이팅 조회 API 핸들러는 여기서만
type RatingHandler struct {
	latest      LatestSource
	rankings    RankingReader
	suggestions SuggestionReader
	logger      *logger.Logger
}

// NewRatingHandler creates a new rating handler. rankings and suggestions may be nil.
func NewRatingHandler(latest LatestSource, rankings RankingReader, suggestions SuggestionReader, log *logger.Logger) *RatingHandler {
	return &RatingHandler{
		latest:      latest,
		rankings:    rankings,
		suggestions: suggestions,
		logger:      log,
	}
}

// RatingsResponse is the body of GET /api/ratings/latest
type RatingsResponse struct {
	Source     string                 `json:"source"` // memory, database
	RunID      string                 `json:"run_id,omitempty"`
	Date       string                 `json:"date"`
	ConfigHash string                 `json:"config_hash,omitempty"`
	Universe   int                    `json:"universe,omitempty"`
	Excluded   map[string]int         `json:"excluded,omitempty"`
	Count      int                    `json:"count"`
	Items      []selection.RankingRow `json:"items"`
}

// SuggestionsResponse is the body of GET /api/suggestions
type SuggestionsResponse struct {
	Source string                      `json:"source"`
	Date   string                      `json:"date"`
	Items  []contracts.OrderSuggestion `json:"items"`
}

// GetLatest returns the latest ranking
// GET /api/ratings/latest?limit=50
func (h *RatingHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if out := h.latestOutcome(); out != nil {
		run := out.Run
		top := run.Top(limit)
		items := make([]selection.RankingRow, 0, len(top))
		for _, rr := range top {
			items = append(items, selection.RowFromRanked(rr))
		}

		respondJSON(w, http.StatusOK, RatingsResponse{
			Source:     "memory",
			RunID:      run.RunID,
			Date:       run.Date.Format("2006-01-02"),
			ConfigHash: run.ConfigHash,
			Universe:   run.Universe,
			Excluded:   run.ExclusionsByReason(),
			Count:      len(items),
			Items:      items,
		})
		return
	}

	if h.rankings == nil {
		respondError(w, http.StatusNotFound, "no rating run available")
		return
	}

	ctx := r.Context()
	date, err := h.rankings.LatestRankDate(ctx)
	if err != nil {
		h.respondStoreError(w, err, "Failed to get latest rank date")
		return
	}

	items, err := h.rankings.GetRankingResults(ctx, date, limit)
	if err != nil {
		h.respondStoreError(w, err, "Failed to get ranking results")
		return
	}

	respondJSON(w, http.StatusOK, RatingsResponse{
		Source: "database",
		Date:   date.Format("2006-01-02"),
		Count:  len(items),
		Items:  items,
	})
}

// GetSuggestions returns the order hints of the latest run
// GET /api/suggestions
func (h *RatingHandler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	if out := h.latestOutcome(); out != nil {
		items := out.Run.Suggestions
		if items == nil {
			items = []contracts.OrderSuggestion{}
		}
		respondJSON(w, http.StatusOK, SuggestionsResponse{
			Source: "memory",
			Date:   out.Run.Date.Format("2006-01-02"),
			Items:  items,
		})
		return
	}

	if h.rankings == nil || h.suggestions == nil {
		respondError(w, http.StatusNotFound, "no rating run available")
		return
	}

	ctx := r.Context()
	date, err := h.rankings.LatestRankDate(ctx)
	if err != nil {
		h.respondStoreError(w, err, "Failed to get latest rank date")
		return
	}

	items, err := h.suggestions.GetSuggestions(ctx, date)
	if err != nil {
		h.respondStoreError(w, err, "Failed to get suggestions")
		return
	}

	respondJSON(w, http.StatusOK, SuggestionsResponse{
		Source: "database",
		Date:   date.Format("2006-01-02"),
		Items:  items,
	})
}

func (h *RatingHandler) latestOutcome() *pipeline.Outcome {
	if h.latest == nil {
		return nil
	}
	out := h.latest.Latest()
	if out == nil || out.Run == nil {
		return nil
	}
	return out
}

func (h *RatingHandler) respondStoreError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, contracts.ErrNoData) {
		respondError(w, http.StatusNotFound, "no rating run available")
		return
	}
	h.logger.WithError(err).Error(msg)
	respondError(w, http.StatusInternalServerError, msg)
}

// parseLimit reads ?limit=, defaulting to defaultLimit
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("limit must be a positive integer")
	}
	if n > maxLimit {
		n = maxLimit
	}
	return n, nil
}
