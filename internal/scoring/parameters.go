package scoring

import (
	"fmt"
	"math"

	"github.com/opencredit-finance/kestrel/internal/domain"
)

const (
	baseScore = 650
	scoreMin  = 300
	scoreMax  = 900
)

// NoRiskFlagsMarker replaces an otherwise empty flag set.
const NoRiskFlagsMarker = "No major risk flags"

// Parameters scores the manually supplied risk parameters on the
// 300-900 scale. This is the one canonical implementation for both
// dashboard variants; withExplanation toggles the per-factor table.
func Parameters(p domain.RiskParameters, withExplanation bool) (*domain.ScoreResult, error) {
	if err := ValidateParameters(p); err != nil {
		return nil, err
	}

	var explanation []domain.FactorExplanation
	raw := float64(baseScore)

	addFactor := func(factor, value string, points float64, rationale string) {
		raw += points
		if !withExplanation {
			return
		}
		explanation = append(explanation, domain.FactorExplanation{
			Factor:    factor,
			Value:     value,
			Impact:    impactOf(points),
			Points:    points,
			Rationale: rationale,
		})
	}

	addFactor("Monthly income", fmt.Sprintf("$%.0f", p.MonthlyIncome),
		matchTier(incomeTiers, p.MonthlyIncome),
		"Stable income raises repayment capacity.")

	addFactor("Income volatility", fmt.Sprintf("%.0f/100", p.IncomeVolatility),
		-p.IncomeVolatility*0.6,
		"Volatile income lowers predictability of repayment.")

	addFactor("Utilization", fmt.Sprintf("%.0f%%", p.Utilization),
		matchTier(utilizationTiers, p.Utilization),
		"Moderate utilization signals healthy credit habits.")

	addFactor("Missed payments", fmt.Sprintf("%d", p.MissedPayments),
		-float64(p.MissedPayments)*25,
		"Missed payments are the strongest delinquency predictor.")

	addFactor("Jurisdiction risk", string(p.CountryRisk),
		countryRiskPoints(p.CountryRisk),
		"Jurisdiction risk adjusts for corridor stability.")

	addFactor("Data depth", fmt.Sprintf("%d months, %d accounts", p.MonthsHistory, p.AccountsLinked),
		math.Min(float64(p.MonthsHistory), 24)*0.8+math.Min(float64(p.AccountsLinked), 5)*4,
		"Longer history and more linked accounts deepen the file.")

	addFactor("KYC status", string(p.KYCStatus),
		kycPoints(p.KYCStatus),
		"Verified identity reduces fraud risk.")

	score := clampScore(raw)
	limit := RecommendLimit(score, p.MonthlyIncome)

	return &domain.ScoreResult{
		Score:          score,
		RiskLevel:      RiskLevelFor(score),
		RawScore:       raw,
		SuggestedLimit: limit,
		Explanation:    explanation,
		Flags:          deriveFlags(p),
	}, nil
}

// RecommendLimit converts a score and monthly income into a suggested
// credit limit: income * 1.5 scaled by score position in the 300-900
// range, truncated to whole currency units.
func RecommendLimit(score int, monthlyIncome float64) int {
	return int(monthlyIncome * 1.5 * float64(score-scoreMin) / float64(scoreMax-scoreMin))
}

// ValidateParameters rejects out-of-range inputs rather than clamping
// them; only the final score clamp is a documented scoring step.
func ValidateParameters(p domain.RiskParameters) error {
	if p.MonthlyIncome < 0 || math.IsNaN(p.MonthlyIncome) || math.IsInf(p.MonthlyIncome, 0) {
		return domain.Invalid("monthlyIncome", "must be a non-negative amount")
	}
	if p.IncomeVolatility < 0 || p.IncomeVolatility > 100 {
		return domain.Invalid("incomeVolatility", "must be in [0,100], got %g", p.IncomeVolatility)
	}
	if p.Utilization < 0 || p.Utilization > 100 {
		return domain.Invalid("utilization", "must be in [0,100], got %g", p.Utilization)
	}
	if p.MissedPayments < 0 || p.MissedPayments > 10 {
		return domain.Invalid("missedPayments", "must be in [0,10], got %d", p.MissedPayments)
	}
	if p.MonthsHistory < 0 {
		return domain.Invalid("monthsHistory", "must be non-negative, got %d", p.MonthsHistory)
	}
	if p.AccountsLinked < 0 || p.AccountsLinked > 10 {
		return domain.Invalid("accountsLinked", "must be in [0,10], got %d", p.AccountsLinked)
	}
	if p.CountriesSeen < 0 {
		return domain.Invalid("countriesSeen", "must be non-negative, got %d", p.CountriesSeen)
	}
	switch p.CountryRisk {
	case domain.CountryRiskLow, domain.CountryRiskMedium, domain.CountryRiskHigh:
	default:
		return domain.Invalid("countryRisk", "unknown value %q", p.CountryRisk)
	}
	switch p.KYCStatus {
	case domain.KYCNotStarted, domain.KYCInReview, domain.KYCVerified:
	default:
		return domain.Invalid("kycStatus", "unknown value %q", p.KYCStatus)
	}
	return nil
}

// deriveFlags runs the independent built-in flag checks; any subset
// may fire.
func deriveFlags(p domain.RiskParameters) []string {
	var flags []string
	if p.IncomeVolatility > 60 {
		flags = append(flags, "High volatility")
	}
	if p.MonthsHistory < 6 {
		flags = append(flags, "Thin file")
	}
	if p.Utilization > 80 {
		flags = append(flags, "High utilization")
	}
	if p.MissedPayments > 0 {
		flags = append(flags, "Delinquency risk")
	}
	if p.CountriesSeen > 1 {
		flags = append(flags, "Multi-country income advantage")
	}
	if p.MonthlyIncome < 800 {
		flags = append(flags, "Low income")
	}
	if p.AccountsLinked >= 3 {
		flags = append(flags, "Diversified accounts")
	}
	if p.KYCStatus != domain.KYCVerified {
		flags = append(flags, "KYC not fully verified")
	}
	return flags
}

// WithMarker substitutes the no-flags marker for an empty set.
func WithMarker(flags []string) []string {
	if len(flags) == 0 {
		return []string{NoRiskFlagsMarker}
	}
	return flags
}

func countryRiskPoints(r domain.CountryRisk) float64 {
	switch r {
	case domain.CountryRiskLow:
		return 20
	case domain.CountryRiskHigh:
		return -30
	default:
		return 0
	}
}

func kycPoints(s domain.KYCStatus) float64 {
	switch s {
	case domain.KYCVerified:
		return 20
	case domain.KYCInReview:
		return 5
	default:
		return 0
	}
}

func impactOf(points float64) domain.Impact {
	switch {
	case points > 0:
		return domain.ImpactPositive
	case points < 0:
		return domain.ImpactNegative
	default:
		return domain.ImpactNeutral
	}
}

// clampScore clamps to [300,900] and truncates, matching the
// dashboard's integer cast.
func clampScore(raw float64) int {
	return int(math.Trunc(clamp(raw, scoreMin, scoreMax)))
}
