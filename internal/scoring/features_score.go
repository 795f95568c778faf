package scoring

import (
	"github.com/opencredit-finance/kestrel/internal/domain"
)

// Features maps a feature vector to the 0-100 score and its band.
// Every adjustment is additive and independent; the clamp is applied
// once at the end, so ordering does not matter.
func Features(fv domain.FeatureVector) domain.FeatureScoreResult {
	score := 50.0

	switch {
	case fv.AvgInflow >= 800:
		score += 15
	case fv.AvgInflow >= 400:
		score += 5
	}

	switch {
	case fv.IncomeVolatility > 0.6:
		score -= 10
	case fv.IncomeVolatility > 0.4:
		score -= 5
	}

	switch {
	case fv.ExpenseRatio > 0.95:
		score -= 12
	case fv.ExpenseRatio > 0.8:
		score -= 6
	case fv.ExpenseRatio < 0.6:
		score += 4
	}

	overdraftPenalty := 8 * float64(fv.OverdraftCount)
	if overdraftPenalty > 24 {
		overdraftPenalty = 24
	}
	score -= overdraftPenalty

	if fv.RemittanceCount >= 3 {
		score += 6
	}
	if fv.GigMonthsActive >= 3 {
		score += 8
	}
	if fv.MobileMoneySignal {
		score += 4
	}

	clamped := int(clamp(score, 0, 100))
	return domain.FeatureScoreResult{
		Score: clamped,
		Band:  FeatureBandFor(clamped),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
