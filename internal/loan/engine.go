// Package loan implements the micro-loan decision engine: cutoffs,
// risk-adjusted pricing and the flat-interest repayment schedule.
package loan

import (
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opencredit-finance/kestrel/internal/domain"
)

const (
	autoApproveCutoff = 720
	reviewCutoff      = 630

	baseAPR  = 9.5
	floorAPR = 5.9

	minOffer = 30
	maxOffer = 600
)

// NoRiskFlagsMarker replaces an otherwise empty loan flag set.
const NoRiskFlagsMarker = "No major risk flags detected"

var hundred = decimal.NewFromInt(100)

// Decide runs the underwriting cutoffs and, for non-declined requests,
// prices the loan and builds its repayment schedule. Pure: identical
// requests always yield identical offers apart from the generated ID.
func Decide(req domain.LoanRequest) (*domain.LoanOffer, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	// Volatility discounts the raw score before the cutoffs.
	finalScore := float64(req.AIScore) - req.Volatility*0.4

	var decision domain.LoanDecision
	switch {
	case finalScore >= autoApproveCutoff:
		decision = domain.DecisionApproved
	case finalScore >= reviewCutoff:
		decision = domain.DecisionNeedsReview
	default:
		decision = domain.DecisionDeclined
	}

	rawAPR := baseAPR + (700-float64(req.AIScore))/20 + req.Volatility/15
	if rawAPR < floorAPR {
		rawAPR = floorAPR
	}
	// Two decimals on the quoted rate only; interest accrues off the
	// unrounded rate.
	apr := math.Round(rawAPR*100) / 100

	ceiling := int(math.Round((finalScore - 300) / 600 * 600))
	if ceiling < minOffer {
		ceiling = minOffer
	}
	if ceiling > maxOffer {
		ceiling = maxOffer
	}

	approved := math.Min(req.RequestedAmount, float64(ceiling))
	if approved < 0 || decision == domain.DecisionDeclined {
		approved = 0
	}

	offer := &domain.LoanOffer{
		ID:             uuid.New().String(),
		Decision:       decision,
		FinalScore:     finalScore,
		APR:            apr,
		MaxOffer:       ceiling,
		ApprovedAmount: decimal.NewFromFloat(approved).Round(2),
		TotalInterest:  decimal.Zero,
		TotalRepay:     decimal.Zero,
		Flags:          deriveFlags(req, ceiling, decision),
	}

	if approved <= 0 {
		return offer, nil
	}

	// Simple interest over the term, not compounded:
	// principal * apr/100 * weeks/52.
	principal := offer.ApprovedAmount
	interest := principal.
		Mul(decimal.NewFromFloat(rawAPR)).
		Mul(decimal.NewFromInt(int64(req.DurationWeeks))).
		Div(hundred.Mul(decimal.NewFromInt(52))).
		Round(2)

	offer.TotalInterest = interest
	offer.TotalRepay = principal.Add(interest)
	offer.Installments = installmentCount(req.DurationWeeks, req.Frequency)
	offer.Schedule = buildSchedule(principal, interest, offer.Installments)

	return offer, nil
}

func validate(req domain.LoanRequest) error {
	if req.AIScore < 300 || req.AIScore > 900 {
		return domain.Invalid("aiScore", "must be in [300,900], got %d", req.AIScore)
	}
	if req.Volatility < 0 || req.Volatility > 100 {
		return domain.Invalid("volatility", "must be in [0,100], got %g", req.Volatility)
	}
	if req.RequestedAmount < 0 {
		return domain.Invalid("requestedAmount", "must be non-negative, got %g", req.RequestedAmount)
	}
	if req.DurationWeeks < 1 {
		return domain.Invalid("durationWeeks", "must be at least 1, got %d", req.DurationWeeks)
	}
	switch req.Frequency {
	case domain.FrequencyWeekly, domain.FrequencyBiWeekly, domain.FrequencyMonthly:
	default:
		return domain.Invalid("frequency", "unknown value %q", req.Frequency)
	}
	return nil
}

func installmentCount(weeks int, freq domain.RepaymentFrequency) int {
	var n int
	switch freq {
	case domain.FrequencyWeekly:
		n = weeks
	case domain.FrequencyBiWeekly:
		n = weeks / 2
	case domain.FrequencyMonthly:
		n = int(math.Round(float64(weeks) / 4))
	}
	if n < 1 {
		n = 1
	}
	return n
}

// buildSchedule splits principal and interest evenly across count
// rows. Interest is flat per installment; the last row absorbs the
// principal rounding remainder so the running balance lands exactly
// on zero.
func buildSchedule(principal, interest decimal.Decimal, count int) []domain.InstallmentRow {
	n := decimal.NewFromInt(int64(count))
	perPrincipal := principal.DivRound(n, 2)
	perInterest := interest.DivRound(n, 2)

	rows := make([]domain.InstallmentRow, 0, count)
	remaining := principal

	for i := 1; i <= count; i++ {
		p := perPrincipal
		if i == count || p.GreaterThan(remaining) {
			p = remaining
		}
		remaining = remaining.Sub(p)

		rows = append(rows, domain.InstallmentRow{
			Index:            i,
			Principal:        p,
			Interest:         perInterest,
			TotalPayment:     p.Add(perInterest),
			RemainingBalance: remaining,
		})
	}
	return rows
}

func deriveFlags(req domain.LoanRequest, ceiling int, decision domain.LoanDecision) []string {
	var flags []string
	if req.Volatility > 60 {
		flags = append(flags, "High volatility risk")
	}
	if req.AIScore < 600 {
		flags = append(flags, "Weak AI score")
	}
	if req.RequestedAmount > float64(ceiling) {
		flags = append(flags, "Requested amount above safe threshold")
	}
	if decision == domain.DecisionNeedsReview {
		flags = append(flags, "Requires human verification")
	}
	if decision == domain.DecisionApproved {
		flags = append(flags, "Profile stable enough for instant approval")
	}
	if len(flags) == 0 {
		return []string{NoRiskFlagsMarker}
	}
	return flags
}
