package lender

import (
	"context"
	"time"

	"github.com/opencredit-finance/kestrel/internal/domain"
	"github.com/opencredit-finance/kestrel/internal/scoring"
)

// DemoBorrowers returns the demo roster. Risk bands are derived from
// the score, never stored independently of it.
func DemoBorrowers() []*domain.Borrower {
	mk := func(id, name, country string, requested float64, score int, vol float64, flags []string, status domain.BorrowerStatus, wallet, bank float64) *domain.Borrower {
		return &domain.Borrower{
			ID:            id,
			Name:          name,
			Country:       country,
			Requested:     requested,
			AIScore:       score,
			Volatility:    vol,
			Flags:         flags,
			Status:        status,
			WalletBalance: wallet,
			BankBalance:   bank,
			RiskBand:      scoring.RiskLevelFor(score),
			UpdatedAt:     time.Now().UTC(),
		}
	}

	return []*domain.Borrower{
		mk("b-001", "John Rivera", "Philippines", 150, 712, 27,
			[]string{"Low volatility", "Clean history"}, domain.StatusInReview, 45, 320),
		mk("b-002", "Lina Chen", "Malaysia", 80, 640, 48,
			[]string{"Medium volatility"}, domain.StatusInReview, 120, 510),
		mk("b-003", "Samuel Okoro", "Kenya", 220, 560, 72,
			[]string{"High volatility", "Thin file"}, domain.StatusInReview, 30, 190),
		mk("b-004", "Maria Gomez", "Colombia", 300, 785, 18,
			[]string{"Strong stability"}, domain.StatusApproved, 260, 1100),
	}
}

// DemoTransactions returns the per-borrower history rows shown in the
// portal detail view.
func DemoTransactions() map[string][]domain.BorrowerTransaction {
	d := func(s string) time.Time {
		t, _ := time.Parse("2006-01-02", s)
		return t
	}
	return map[string][]domain.BorrowerTransaction{
		"b-001": {
			{BorrowerID: "b-001", Date: d("2025-10-01"), Description: "Gig payout", Amount: 85.0, Channel: "Wallet"},
			{BorrowerID: "b-001", Date: d("2025-10-05"), Description: "Transfer to bank", Amount: -60.0, Channel: "Wallet -> Bank"},
			{BorrowerID: "b-001", Date: d("2025-10-12"), Description: "Food & groceries", Amount: -30.5, Channel: "Card"},
			{BorrowerID: "b-001", Date: d("2025-10-20"), Description: "Micro-loan repayment", Amount: -12.0, Channel: "Wallet"},
		},
		"b-002": {
			{BorrowerID: "b-002", Date: d("2025-09-28"), Description: "Part-time salary", Amount: 220.0, Channel: "Bank"},
			{BorrowerID: "b-002", Date: d("2025-10-03"), Description: "Rent", Amount: -150.0, Channel: "Bank"},
			{BorrowerID: "b-002", Date: d("2025-10-10"), Description: "Online purchase", Amount: -20.0, Channel: "Card"},
			{BorrowerID: "b-002", Date: d("2025-10-19"), Description: "Study stipend", Amount: 120.0, Channel: "Bank"},
		},
		"b-003": {
			{BorrowerID: "b-003", Date: d("2025-09-30"), Description: "Ride-hailing income", Amount: 40.0, Channel: "Wallet"},
			{BorrowerID: "b-003", Date: d("2025-10-04"), Description: "Fuel", Amount: -18.0, Channel: "Wallet"},
			{BorrowerID: "b-003", Date: d("2025-10-11"), Description: "Top-up from bank", Amount: 25.0, Channel: "Bank -> Wallet"},
			{BorrowerID: "b-003", Date: d("2025-10-17"), Description: "Loan repayment", Amount: -10.0, Channel: "Wallet"},
		},
		"b-004": {
			{BorrowerID: "b-004", Date: d("2025-09-25"), Description: "Remote salary", Amount: 600.0, Channel: "Bank"},
			{BorrowerID: "b-004", Date: d("2025-09-30"), Description: "Savings transfer", Amount: -200.0, Channel: "Bank"},
			{BorrowerID: "b-004", Date: d("2025-10-07"), Description: "Flight ticket", Amount: -150.0, Channel: "Card"},
			{BorrowerID: "b-004", Date: d("2025-10-15"), Description: "Bonus payout", Amount: 150.0, Channel: "Bank"},
		},
	}
}

// Seed loads the demo roster and histories when the roster is empty.
func Seed(ctx context.Context, repo domain.Repository) error {
	existing, err := repo.ListBorrowers(ctx, domain.BorrowerFilter{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	for _, b := range DemoBorrowers() {
		if err := repo.SaveBorrower(ctx, b); err != nil {
			return err
		}
	}
	for id, txs := range DemoTransactions() {
		if err := repo.SaveBorrowerTransactions(ctx, id, txs); err != nil {
			return err
		}
	}
	return nil
}
