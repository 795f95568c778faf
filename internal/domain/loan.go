package domain

import (
	"github.com/shopspring/decimal"
)

// RepaymentFrequency determines how many installments a loan term is
// split into.
type RepaymentFrequency string

const (
	FrequencyWeekly   RepaymentFrequency = "Weekly"
	FrequencyBiWeekly RepaymentFrequency = "Bi-Weekly"
	FrequencyMonthly  RepaymentFrequency = "Monthly"
)

// LoanDecision is the outcome of the automated underwriting cutoffs.
type LoanDecision string

const (
	DecisionApproved    LoanDecision = "Approved"
	DecisionNeedsReview LoanDecision = "NeedsReview"
	DecisionDeclined    LoanDecision = "Declined"
)

// LoanRequest carries the applicant's ask plus the score inputs the
// decision engine works from.
type LoanRequest struct {
	AIScore         int                `json:"aiScore"`    // 300-900
	Volatility      float64            `json:"volatility"` // 0-100
	RequestedAmount float64            `json:"requestedAmount"`
	DurationWeeks   int                `json:"durationWeeks"`
	Frequency       RepaymentFrequency `json:"frequency"`
}

// InstallmentRow is one line of the repayment schedule. Interest is
// flat: the simple-interest total split evenly, not declining-balance.
type InstallmentRow struct {
	Index            int             `json:"index"`
	Principal        decimal.Decimal `json:"principal"`
	Interest         decimal.Decimal `json:"interest"`
	TotalPayment     decimal.Decimal `json:"totalPayment"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
}

// LoanOffer is the full underwriting result: decision, pricing and the
// amortization schedule. All monetary fields are zero when declined.
type LoanOffer struct {
	ID             string          `json:"id"`
	Decision       LoanDecision    `json:"decision"`
	FinalScore     float64         `json:"finalScore"` // ai_score minus volatility penalty
	APR            float64         `json:"apr"`        // percent, floor 5.9
	MaxOffer       int             `json:"maxOffer"`
	ApprovedAmount decimal.Decimal `json:"approvedAmount"`
	TotalInterest  decimal.Decimal `json:"totalInterest"`
	TotalRepay     decimal.Decimal `json:"totalRepay"`
	Installments   int             `json:"installments"`
	Schedule       []InstallmentRow `json:"schedule,omitempty"`
	Flags          []string        `json:"flags"`
}
