package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/opencredit-finance/kestrel/internal/domain"
	"github.com/opencredit-finance/kestrel/internal/lender"
	"github.com/opencredit-finance/kestrel/internal/repository"
)

// ListBorrowers handles GET /borrowers with optional filter query
// parameters. A filter that matches nothing returns an empty roster,
// not an error.
func (h *Handler) ListBorrowers(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}

	borrowers, err := h.repo.ListBorrowers(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list borrowers", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list borrowers",
		})
		return
	}

	if borrowers == nil {
		borrowers = []*domain.Borrower{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"borrowers": borrowers,
		"count":     len(borrowers),
	})
}

// BorrowerDetail is the response for GET /borrowers/{id}: the roster
// entry plus the lender analytics for it.
type BorrowerDetail struct {
	Borrower          *domain.Borrower      `json:"borrower"`
	Recommendation    lender.Recommendation `json:"recommendation"`
	SuggestedExposure int                   `json:"suggestedExposure"`
}

// GetBorrower handles GET /borrowers/{id}.
func (h *Handler) GetBorrower(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b, err := h.repo.GetBorrower(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "borrower not found",
			})
			return
		}
		slog.Error("failed to get borrower", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get borrower",
		})
		return
	}

	writeJSON(w, http.StatusOK, BorrowerDetail{
		Borrower:          b,
		Recommendation:    lender.Recommend(b.AIScore, b.Volatility),
		SuggestedExposure: lender.SuggestedExposure(b.RiskBand, b.Requested),
	})
}

// ListBorrowerTransactions handles GET /borrowers/{id}/transactions.
func (h *Handler) ListBorrowerTransactions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	txs, err := h.repo.ListBorrowerTransactions(r.Context(), id)
	if err != nil {
		slog.Error("failed to list borrower transactions", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list transactions",
		})
		return
	}

	if txs == nil {
		txs = []domain.BorrowerTransaction{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": txs,
		"count":        len(txs),
	})
}

// ScoreBorrower handles POST /borrowers/{id}/score: re-scores a roster
// entry from supplied parameters and writes the result back to it.
func (h *Handler) ScoreBorrower(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req ScoreParametersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	b, err := h.repo.GetBorrower(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "borrower not found",
			})
			return
		}
		slog.Error("failed to get borrower", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get borrower",
		})
		return
	}

	result, err := h.scoreParameters(req.Parameters, req.Explain)
	if err != nil {
		writeError(w, err)
		return
	}

	b.AIScore = result.Score
	b.Volatility = req.Parameters.IncomeVolatility
	b.RiskBand = result.RiskLevel
	b.Flags = result.Flags
	if err := h.repo.SaveBorrower(ctx, b); err != nil {
		slog.Error("failed to update borrower score", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to update borrower",
		})
		return
	}

	sc := &domain.Scorecard{
		ID:         uuid.New().String(),
		BorrowerID: id,
		Score:      result.Score,
		RiskLevel:  result.RiskLevel,
		Limit:      result.SuggestedLimit,
		Flags:      result.Flags,
		CreatedAt:  time.Now().Unix(),
	}
	h.publishScorecard(r, sc)

	writeJSON(w, http.StatusOK, map[string]any{
		"scorecardId": sc.ID,
		"borrower":    b,
		"result":      result,
	})
}

// DecisionRequest is the request body for POST /borrowers/{id}/decision.
type DecisionRequest struct {
	Action  string                     `json:"action"` // "approve" or "decline"
	Channel domain.DisbursementChannel `json:"channel,omitempty"`
	Amount  float64                    `json:"amount,omitempty"`
}

// DecideBorrower handles POST /borrowers/{id}/decision: the lender
// portal approve/decline action, with disbursement on approval.
func (h *Handler) DecideBorrower(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	var b *domain.Borrower
	var err error

	switch req.Action {
	case "approve":
		b, err = h.lender.Approve(ctx, id, req.Channel, req.Amount)
	case "decline":
		b, err = h.lender.Decline(ctx, id)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "action must be \"approve\" or \"decline\"",
		})
		return
	}

	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "borrower not found",
			})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, b)
}

// filterFromQuery builds a roster filter from the list query string.
// Repeatable params: country, riskBand. Numeric: minScore, maxScore,
// maxVolatility.
func filterFromQuery(r *http.Request) (domain.BorrowerFilter, error) {
	var filter domain.BorrowerFilter
	q := r.URL.Query()

	filter.Countries = q["country"]
	for _, band := range q["riskBand"] {
		switch domain.RiskLevel(band) {
		case domain.RiskLow, domain.RiskMedium, domain.RiskHigh:
			filter.RiskBands = append(filter.RiskBands, domain.RiskLevel(band))
		default:
			return filter, domain.Invalid("riskBand", "unknown value %q", band)
		}
	}

	var err error
	if v := q.Get("minScore"); v != "" {
		if filter.MinScore, err = strconv.Atoi(v); err != nil {
			return filter, domain.Invalid("minScore", "must be an integer, got %q", v)
		}
	}
	if v := q.Get("maxScore"); v != "" {
		if filter.MaxScore, err = strconv.Atoi(v); err != nil {
			return filter, domain.Invalid("maxScore", "must be an integer, got %q", v)
		}
	}
	if v := q.Get("maxVolatility"); v != "" {
		if filter.MaxVolatility, err = strconv.ParseFloat(v, 64); err != nil {
			return filter, domain.Invalid("maxVolatility", "must be a number, got %q", v)
		}
	}

	return filter, nil
}
