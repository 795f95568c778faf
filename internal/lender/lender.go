// Package lender implements the lender-portal review flow: roster
// access, underwriting recommendations, exposure ceilings and
// disbursement decisions.
package lender

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/opencredit-finance/kestrel/internal/domain"
)

// Recommendation is the reviewer-facing suggested action for an
// application, derived from score and volatility jointly.
type Recommendation struct {
	Action    string `json:"action"`
	Rationale string `json:"rationale"`
}

// Recommend maps a score/volatility pair to the review matrix used in
// the portal. Thresholds are joint, not independent: a high score with
// high volatility still lands in manual review.
func Recommend(score int, volatility float64) Recommendation {
	switch {
	case score >= 760 && volatility < 40:
		return Recommendation{
			Action:    "Strong approve",
			Rationale: "High score + low volatility = safe for micro-loan.",
		}
	case score >= 630 && volatility < 60:
		return Recommendation{
			Action:    "Approve with standard limit",
			Rationale: "Decent score but moderate volatility = manageable risk.",
		}
	case score >= 580:
		return Recommendation{
			Action:    "Review manually / consider lower limit",
			Rationale: "Middle score + high volatility = borderline case.",
		}
	default:
		return Recommendation{
			Action:    "Decline",
			Rationale: "Low score + high volatility = too risky for micro-loan.",
		}
	}
}

// ExposureFactor is the risk-band multiplier applied to the requested
// amount to derive a suggested lending ceiling.
func ExposureFactor(band domain.RiskLevel) float64 {
	switch band {
	case domain.RiskLow:
		return 1.0
	case domain.RiskMedium:
		return 0.7
	default:
		return 0.4
	}
}

// SuggestedExposure returns the requested amount scaled by the
// exposure factor, truncated to whole currency units.
func SuggestedExposure(band domain.RiskLevel, requested float64) int {
	return int(requested * ExposureFactor(band))
}

// Service coordinates reviewer decisions against the roster
// repository and announces applied disbursements on the bus.
type Service struct {
	repo domain.Repository
	bus  domain.EventBus
}

// NewService creates a lender service.
func NewService(repo domain.Repository, bus domain.EventBus) *Service {
	return &Service{repo: repo, bus: bus}
}

// DisbursementEvent is the bus payload for an applied disbursement.
type DisbursementEvent struct {
	BorrowerID string                     `json:"borrowerId"`
	Channel    domain.DisbursementChannel `json:"channel"`
	Amount     float64                    `json:"amount"`
	AppliedAt  time.Time                  `json:"appliedAt"`
}

// Approve applies a disbursement to a borrower through the repository
// and publishes the event. The amount may not exceed the requested
// amount and must be positive.
func (s *Service) Approve(ctx context.Context, borrowerID string, channel domain.DisbursementChannel, amount float64) (*domain.Borrower, error) {
	if amount <= 0 {
		return nil, domain.Invalid("amount", "must be positive, got %g", amount)
	}
	switch channel {
	case domain.ChannelWallet, domain.ChannelBank:
	default:
		return nil, domain.Invalid("channel", "unknown value %q", channel)
	}

	b, err := s.repo.GetBorrower(ctx, borrowerID)
	if err != nil {
		return nil, err
	}
	if amount > b.Requested {
		return nil, domain.Invalid("amount", "exceeds requested amount %g", b.Requested)
	}

	if err := s.repo.ApplyDisbursement(ctx, borrowerID, channel, amount); err != nil {
		return nil, err
	}

	if s.bus != nil {
		payload, _ := json.Marshal(DisbursementEvent{
			BorrowerID: borrowerID,
			Channel:    channel,
			Amount:     amount,
			AppliedAt:  time.Now().UTC(),
		})
		if err := s.bus.Publish(ctx, domain.TopicDisbursementApplied, payload); err != nil {
			slog.Warn("failed to publish disbursement event",
				"borrower_id", borrowerID,
				"error", err,
			)
		}
	}

	return s.repo.GetBorrower(ctx, borrowerID)
}

// Decline marks a borrower declined without touching balances.
func (s *Service) Decline(ctx context.Context, borrowerID string) (*domain.Borrower, error) {
	if err := s.repo.UpdateBorrowerStatus(ctx, borrowerID, domain.StatusDeclined); err != nil {
		return nil, err
	}
	return s.repo.GetBorrower(ctx, borrowerID)
}
