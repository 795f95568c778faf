package domain

import (
	"time"
)

// BorrowerStatus is the lender-portal application state.
type BorrowerStatus string

const (
	StatusInReview BorrowerStatus = "In review"
	StatusApproved BorrowerStatus = "Approved"
	StatusDeclined BorrowerStatus = "Declined"
)

// DisbursementChannel selects where approved funds land.
type DisbursementChannel string

const (
	ChannelWallet DisbursementChannel = "wallet"
	ChannelBank   DisbursementChannel = "bank"
)

// Borrower is one application in the lender-portal roster. The roster
// lives in the repository; handlers never mutate shared state directly.
type Borrower struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Country       string         `json:"country"`
	Requested     float64        `json:"requested"`
	AIScore       int            `json:"aiScore"`
	Volatility    float64        `json:"volatility"`
	Flags         []string       `json:"flags"`
	Status        BorrowerStatus `json:"status"`
	WalletBalance float64        `json:"walletBalance"`
	BankBalance   float64        `json:"bankBalance"`
	RiskBand      RiskLevel      `json:"riskBand"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// BorrowerFilter narrows a roster listing. Zero values mean "no
// constraint"; MaxVolatility<=0 disables the volatility cap.
type BorrowerFilter struct {
	Countries     []string    `json:"countries,omitempty"`
	RiskBands     []RiskLevel `json:"riskBands,omitempty"`
	MinScore      int         `json:"minScore,omitempty"`
	MaxScore      int         `json:"maxScore,omitempty"`
	MaxVolatility float64     `json:"maxVolatility,omitempty"`
}

// BorrowerTransaction is one row of a borrower's demo history shown
// alongside the application.
type BorrowerTransaction struct {
	BorrowerID  string    `json:"borrowerId"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"` // signed: negative = spend
	Channel     string    `json:"channel"`
}
