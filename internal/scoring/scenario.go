package scoring

import (
	"github.com/opencredit-finance/kestrel/internal/domain"
)

// Scenario re-runs the score/limit pipeline under hypothetical target
// behavior and reports the deltas.
//
// This is deliberately an approximation, not a full re-score: the
// volatility and missed-payment marginals are reversed off the
// unclamped baseline accumulator, and a fixed +25 utilization bonus is
// added only when utilization crosses from above 40% to at most 40%.
// When several nonlinear thresholds are touched at once this can
// diverge from a recomputation from scratch; that divergence is the
// documented product behavior.
func Scenario(p domain.RiskParameters, t domain.ScenarioTargets) (*domain.ScenarioResult, error) {
	baseline, err := Parameters(p, false)
	if err != nil {
		return nil, err
	}
	if err := validateTargets(t); err != nil {
		return nil, err
	}

	adjusted := baseline.RawScore
	adjusted += (p.IncomeVolatility - t.Volatility) * 0.6
	if t.Utilization <= 40 && p.Utilization > 40 {
		adjusted += 25
	}
	adjusted += float64(p.MissedPayments-t.MissedPayments) * 25

	adjScore := clampScore(adjusted)
	adjLimit := RecommendLimit(adjScore, p.MonthlyIncome)

	deltaScore := adjScore - baseline.Score
	deltaLimit := adjLimit - baseline.SuggestedLimit

	return &domain.ScenarioResult{
		BaselineScore:  baseline.Score,
		BaselineLimit:  baseline.SuggestedLimit,
		AdjustedScore:  adjScore,
		AdjustedLimit:  adjLimit,
		DeltaScore:     deltaScore,
		DeltaLimit:     deltaLimit,
		Classification: classify(deltaScore),
	}, nil
}

func validateTargets(t domain.ScenarioTargets) error {
	if t.Utilization < 0 || t.Utilization > 100 {
		return domain.Invalid("targets.utilization", "must be in [0,100], got %g", t.Utilization)
	}
	if t.Volatility < 0 || t.Volatility > 100 {
		return domain.Invalid("targets.volatility", "must be in [0,100], got %g", t.Volatility)
	}
	if t.MissedPayments < 0 || t.MissedPayments > 10 {
		return domain.Invalid("targets.missedPayments", "must be in [0,10], got %d", t.MissedPayments)
	}
	return nil
}

func classify(deltaScore int) domain.ScenarioOutcome {
	switch {
	case deltaScore > 0:
		return domain.OutcomeImprovement
	case deltaScore < 0:
		return domain.OutcomeDecline
	default:
		return domain.OutcomeNoChange
	}
}
