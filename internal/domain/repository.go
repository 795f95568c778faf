package domain

import (
	"context"
)

// Repository defines the interface for data persistence. The borrower
// roster is reachable only through these named operations; there is no
// process-wide mutable store.
type Repository interface {
	// Borrower roster
	SaveBorrower(ctx context.Context, b *Borrower) error
	GetBorrower(ctx context.Context, id string) (*Borrower, error)
	ListBorrowers(ctx context.Context, filter BorrowerFilter) ([]*Borrower, error)
	UpdateBorrowerStatus(ctx context.Context, id string, status BorrowerStatus) error

	// ApplyDisbursement credits amount to the chosen balance and marks
	// the borrower approved, as a single isolated mutation.
	ApplyDisbursement(ctx context.Context, id string, channel DisbursementChannel, amount float64) error

	// Borrower transaction history
	SaveBorrowerTransactions(ctx context.Context, borrowerID string, txs []BorrowerTransaction) error
	ListBorrowerTransactions(ctx context.Context, borrowerID string) ([]BorrowerTransaction, error)

	// Scoring runs
	SaveScorecard(ctx context.Context, sc *Scorecard) error
	GetScorecard(ctx context.Context, id string) (*Scorecard, error)

	// Loan offers
	SaveLoanOffer(ctx context.Context, offer *LoanOffer) error
	GetLoanOffer(ctx context.Context, id string) (*LoanOffer, error)

	// Custom flag rules
	SaveFlagRule(ctx context.Context, rule *FlagRule) error
	GetFlagRule(ctx context.Context, id string) (*FlagRule, error)
	ListFlagRules(ctx context.Context) ([]*FlagRule, error)
	DeleteFlagRule(ctx context.Context, id string) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}
