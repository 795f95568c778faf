package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/opencredit-finance/kestrel/internal/domain"
	"github.com/opencredit-finance/kestrel/internal/features"
	"github.com/opencredit-finance/kestrel/internal/ingestion"
	"github.com/opencredit-finance/kestrel/internal/lender"
	"github.com/opencredit-finance/kestrel/internal/loan"
	"github.com/opencredit-finance/kestrel/internal/normalize"
	"github.com/opencredit-finance/kestrel/internal/rules"
	"github.com/opencredit-finance/kestrel/internal/scoring"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	repo    domain.Repository
	cache   domain.Cache
	bus     domain.EventBus
	engine  *rules.Engine
	lender  *lender.Service
	version string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, engine *rules.Engine, lenderSvc *lender.Service, version string) *Handler {
	return &Handler{
		repo:    repo,
		cache:   cache,
		bus:     bus,
		engine:  engine,
		lender:  lenderSvc,
		version: version,
	}
}

// Normalize handles POST /normalize: raw tabular data in, canonical
// transactions out. Malformed cells degrade to sentinels, never errors.
func (h *Handler) Normalize(w http.ResponseWriter, r *http.Request) {
	var raw normalize.RawTable
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	txs := normalize.Table(raw)
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": txs,
		"count":        len(txs),
	})
}

// ExtractFeatures handles POST /features: raw tabular data through the
// normalizer and feature extractor.
func (h *Handler) ExtractFeatures(w http.ResponseWriter, r *http.Request) {
	var raw normalize.RawTable
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	fv := features.Extract(normalize.Table(raw))
	writeJSON(w, http.StatusOK, fv)
}

// ScoreFeatures handles POST /score/features: a feature vector scored
// on the 0-100 scale.
func (h *Handler) ScoreFeatures(w http.ResponseWriter, r *http.Request) {
	var fv domain.FeatureVector
	if err := json.NewDecoder(r.Body).Decode(&fv); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	result := scoring.Features(fv)

	sc := &domain.Scorecard{
		ID:        uuid.New().String(),
		Score:     result.Score,
		Band:      result.Band,
		CreatedAt: time.Now().Unix(),
	}
	h.publishScorecard(r, sc)

	writeJSON(w, http.StatusOK, map[string]any{
		"scorecardId": sc.ID,
		"score":       result.Score,
		"band":        result.Band,
	})
}

// ScoreParametersRequest is the request body for POST /score/parameters.
type ScoreParametersRequest struct {
	Parameters domain.RiskParameters `json:"parameters"`

	// Explain toggles the per-factor explanation table.
	Explain bool `json:"explain"`
}

// ScoreParameters handles POST /score/parameters: the manual dashboard
// scoring variant on the 300-900 scale, with built-in and custom flags.
func (h *Handler) ScoreParameters(w http.ResponseWriter, r *http.Request) {
	var req ScoreParametersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	result, err := h.scoreParameters(req.Parameters, req.Explain)
	if err != nil {
		writeError(w, err)
		return
	}

	sc := &domain.Scorecard{
		ID:        uuid.New().String(),
		Score:     result.Score,
		RiskLevel: result.RiskLevel,
		Limit:     result.SuggestedLimit,
		Flags:     result.Flags,
		CreatedAt: time.Now().Unix(),
	}
	h.publishScorecard(r, sc)

	writeJSON(w, http.StatusOK, map[string]any{
		"scorecardId": sc.ID,
		"result":      result,
	})
}

// scoreParameters runs the canonical parameter scorer, layers the
// custom CEL flags on top of the built-ins, then applies the empty-set
// marker.
func (h *Handler) scoreParameters(p domain.RiskParameters, explain bool) (*domain.ScoreResult, error) {
	result, err := scoring.Parameters(p, explain)
	if err != nil {
		return nil, err
	}

	if h.engine != nil {
		result.Flags = append(result.Flags, h.engine.Evaluate(p, result)...)
	}
	result.Flags = scoring.WithMarker(result.Flags)

	return result, nil
}

// LimitRequest is the request body for POST /limits.
type LimitRequest struct {
	Score         int     `json:"score"`
	MonthlyIncome float64 `json:"monthlyIncome"`
}

// RecommendLimit handles POST /limits.
func (h *Handler) RecommendLimit(w http.ResponseWriter, r *http.Request) {
	var req LimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if req.Score < 300 || req.Score > 900 {
		writeError(w, domain.Invalid("score", "must be in [300,900], got %d", req.Score))
		return
	}
	if req.MonthlyIncome < 0 {
		writeError(w, domain.Invalid("monthlyIncome", "must be a non-negative amount"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"suggestedLimit": scoring.RecommendLimit(req.Score, req.MonthlyIncome),
	})
}

// DecideLoan handles POST /loans/decide: the microloan underwriting
// pipeline from score to repayment schedule.
func (h *Handler) DecideLoan(w http.ResponseWriter, r *http.Request) {
	var req domain.LoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	offer, err := loan.Decide(req)
	if err != nil {
		writeError(w, err)
		return
	}

	if h.bus != nil {
		payload, _ := json.Marshal(offer)
		if err := h.bus.Publish(r.Context(), domain.TopicLoanDecided, payload); err != nil {
			slog.Warn("failed to publish loan decision", "offer_id", offer.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, offer)
}

// ScenarioRequest is the request body for POST /scenarios/compare.
type ScenarioRequest struct {
	Parameters domain.RiskParameters  `json:"parameters"`
	Targets    domain.ScenarioTargets `json:"targets"`
}

// CompareScenario handles POST /scenarios/compare: the approximate
// what-if comparator against the baseline score.
func (h *Handler) CompareScenario(w http.ResponseWriter, r *http.Request) {
	var req ScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	result, err := scoring.Scenario(req.Parameters, req.Targets)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// IngestStatement handles POST /statements/csv: a raw CSV statement
// through parse, normalize, feature extraction and feature scoring.
func (h *Handler) IngestStatement(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "failed to read request body",
		})
		return
	}

	table, err := ingestion.ParseStatementCSV(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid CSV statement: " + err.Error(),
		})
		return
	}

	summary := ingestion.Summarize(table)
	fv := features.Extract(normalize.Table(table))
	score := scoring.Features(fv)

	writeJSON(w, http.StatusOK, map[string]any{
		"summary":  summary,
		"features": fv,
		"score":    score,
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	// Check repository health
	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	// Check cache health
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// publishScorecard fans a scoring run out to the bus for write-behind
// persistence and warms the cache.
func (h *Handler) publishScorecard(r *http.Request, sc *domain.Scorecard) {
	ctx := r.Context()

	if h.cache != nil {
		if err := h.cache.SetScorecard(ctx, sc, 0); err != nil {
			slog.Warn("failed to cache scorecard", "scorecard_id", sc.ID, "error", err)
		}
	}

	if h.bus != nil {
		payload, _ := json.Marshal(sc)
		if err := h.bus.Publish(ctx, domain.TopicScoreComputed, payload); err != nil {
			slog.Warn("failed to publish scorecard", "scorecard_id", sc.ID, "error", err)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps validation failures to 400 and everything else
// to 500.
func writeError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) || errors.Is(err, domain.ErrValidation) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}
	slog.Error("request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}
