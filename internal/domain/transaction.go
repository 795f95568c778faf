// Package domain defines the core types and interfaces for Kestrel.
package domain

import (
	"time"
)

// TransactionType labels the direction of a ledger entry. The amount is
// always non-negative; direction is carried here, never by the sign.
type TransactionType string

const (
	Inflow  TransactionType = "inflow"
	Outflow TransactionType = "outflow"
)

// Transaction is one normalized ledger row. A zero Date or a zero Amount
// marks a cell that could not be parsed; the feature extractor treats
// those as missing rather than rejecting the row.
type Transaction struct {
	Date     time.Time       `json:"date"`
	Amount   float64         `json:"amount"`
	Type     TransactionType `json:"type"`
	Category string          `json:"category"`
}

// Month returns the calendar-month key ("2006-01") used for grouping.
// Callers skip rows with a zero date before bucketing.
func (t Transaction) Month() string {
	return t.Date.Format("2006-01")
}

// SampleBankTransactions returns six months of a salaried demo ledger:
// one salary inflow and rent/groceries/transport outflows per month.
func SampleBankTransactions() []Transaction {
	anchor := monthAnchor()
	var txs []Transaction
	for m := 0; m < 6; m++ {
		start := anchor.AddDate(0, -m, 0)
		txs = append(txs,
			Transaction{Date: start.AddDate(0, 0, 1), Amount: 900.00, Type: Inflow, Category: "salary"},
			Transaction{Date: start.AddDate(0, 0, 3), Amount: 450.00, Type: Outflow, Category: "rent"},
			Transaction{Date: start.AddDate(0, 0, 10), Amount: 120.00, Type: Outflow, Category: "groceries"},
			Transaction{Date: start.AddDate(0, 0, 18), Amount: 60.00, Type: Outflow, Category: "transport"},
		)
	}
	return txs
}

// SampleMobileMoneyTransactions returns six months of a gig/wallet demo
// ledger with mobile-money and remittance categories.
func SampleMobileMoneyTransactions() []Transaction {
	anchor := monthAnchor()
	var txs []Transaction
	for m := 0; m < 6; m++ {
		start := anchor.AddDate(0, -m, 0)
		txs = append(txs,
			Transaction{Date: start.AddDate(0, 0, 2), Amount: 300.00, Type: Inflow, Category: "ecocash_gig"},
			Transaction{Date: start.AddDate(0, 0, 4), Amount: 200.00, Type: Outflow, Category: "wallet_spend"},
			Transaction{Date: start.AddDate(0, 0, 14), Amount: 50.00, Type: Inflow, Category: "remittance_in"},
		)
	}
	return txs
}

// monthAnchor is the first day of the current month, UTC.
func monthAnchor() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}
