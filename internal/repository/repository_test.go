package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/opencredit-finance/kestrel/internal/domain"
)

func setupTestRepo(t *testing.T) domain.Repository {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "kestrel-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	repo, err := New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpFile.Name(),
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	return repo
}

func testBorrower(id string) *domain.Borrower {
	return &domain.Borrower{
		ID:            id,
		Name:          "Test Borrower",
		Country:       "Kenya",
		Requested:     150,
		AIScore:       680,
		Volatility:    35,
		Flags:         []string{"Low volatility"},
		Status:        domain.StatusInReview,
		WalletBalance: 40,
		BankBalance:   210,
		RiskBand:      domain.RiskMedium,
		UpdatedAt:     time.Now().UTC(),
	}
}

func TestRepositoryBorrowers(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	t.Run("Ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("ping failed: %v", err)
		}
	})

	t.Run("SaveAndGet", func(t *testing.T) {
		b := testBorrower("b-100")
		if err := repo.SaveBorrower(ctx, b); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		got, err := repo.GetBorrower(ctx, "b-100")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Name != b.Name || got.Country != b.Country {
			t.Errorf("round-trip mismatch: %+v", got)
		}
		if got.AIScore != 680 || got.Volatility != 35 {
			t.Errorf("score fields mismatch: %+v", got)
		}
		if len(got.Flags) != 1 || got.Flags[0] != "Low volatility" {
			t.Errorf("flags mismatch: %v", got.Flags)
		}
		if got.RiskBand != domain.RiskMedium {
			t.Errorf("risk band mismatch: %s", got.RiskBand)
		}
	})

	t.Run("Upsert", func(t *testing.T) {
		b := testBorrower("b-100")
		b.AIScore = 720
		b.RiskBand = domain.RiskMedium
		if err := repo.SaveBorrower(ctx, b); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
		got, err := repo.GetBorrower(ctx, "b-100")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.AIScore != 720 {
			t.Errorf("expected updated score 720, got %d", got.AIScore)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.GetBorrower(ctx, "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("MissingID", func(t *testing.T) {
		err := repo.SaveBorrower(ctx, &domain.Borrower{})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("UpdateStatus", func(t *testing.T) {
		if err := repo.UpdateBorrowerStatus(ctx, "b-100", domain.StatusDeclined); err != nil {
			t.Fatalf("update failed: %v", err)
		}
		got, _ := repo.GetBorrower(ctx, "b-100")
		if got.Status != domain.StatusDeclined {
			t.Errorf("expected Declined, got %s", got.Status)
		}

		err := repo.UpdateBorrowerStatus(ctx, "missing", domain.StatusApproved)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ApplyDisbursement", func(t *testing.T) {
		before, _ := repo.GetBorrower(ctx, "b-100")

		if err := repo.ApplyDisbursement(ctx, "b-100", domain.ChannelWallet, 55.5); err != nil {
			t.Fatalf("disbursement failed: %v", err)
		}

		after, _ := repo.GetBorrower(ctx, "b-100")
		if after.WalletBalance != before.WalletBalance+55.5 {
			t.Errorf("wallet not credited: %g -> %g", before.WalletBalance, after.WalletBalance)
		}
		if after.BankBalance != before.BankBalance {
			t.Errorf("bank balance changed: %g -> %g", before.BankBalance, after.BankBalance)
		}
		if after.Status != domain.StatusApproved {
			t.Errorf("expected Approved after disbursement, got %s", after.Status)
		}
	})

	t.Run("DisbursementValidation", func(t *testing.T) {
		if err := repo.ApplyDisbursement(ctx, "b-100", domain.ChannelWallet, 0); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for zero amount, got %v", err)
		}
		if err := repo.ApplyDisbursement(ctx, "b-100", "cash", 10); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for unknown channel, got %v", err)
		}
		if err := repo.ApplyDisbursement(ctx, "missing", domain.ChannelBank, 10); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRepositoryListFilters(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	seed := []*domain.Borrower{
		{ID: "b-1", Name: "A", Country: "Kenya", AIScore: 560, Volatility: 72, RiskBand: domain.RiskHigh, Status: domain.StatusInReview},
		{ID: "b-2", Name: "B", Country: "Malaysia", AIScore: 640, Volatility: 48, RiskBand: domain.RiskMedium, Status: domain.StatusInReview},
		{ID: "b-3", Name: "C", Country: "Philippines", AIScore: 712, Volatility: 27, RiskBand: domain.RiskMedium, Status: domain.StatusInReview},
		{ID: "b-4", Name: "D", Country: "Colombia", AIScore: 785, Volatility: 18, RiskBand: domain.RiskLow, Status: domain.StatusApproved},
	}
	for _, b := range seed {
		if err := repo.SaveBorrower(ctx, b); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	t.Run("EmptyFilterListsAll", func(t *testing.T) {
		got, err := repo.ListBorrowers(ctx, domain.BorrowerFilter{})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(got) != 4 {
			t.Errorf("expected 4 borrowers, got %d", len(got))
		}
		for i := 1; i < len(got); i++ {
			if got[i-1].ID > got[i].ID {
				t.Errorf("not ordered by id: %s before %s", got[i-1].ID, got[i].ID)
			}
		}
	})

	t.Run("ByCountry", func(t *testing.T) {
		got, err := repo.ListBorrowers(ctx, domain.BorrowerFilter{Countries: []string{"Kenya", "Colombia"}})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 borrowers, got %d", len(got))
		}
	})

	t.Run("ByRiskBand", func(t *testing.T) {
		got, err := repo.ListBorrowers(ctx, domain.BorrowerFilter{RiskBands: []domain.RiskLevel{domain.RiskMedium}})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 Medium borrowers, got %d", len(got))
		}
	})

	t.Run("ScoreAndVolatilityRange", func(t *testing.T) {
		got, err := repo.ListBorrowers(ctx, domain.BorrowerFilter{
			MinScore:      600,
			MaxScore:      750,
			MaxVolatility: 30,
		})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(got) != 1 || got[0].ID != "b-3" {
			t.Errorf("expected only b-3, got %v", got)
		}
	})

	t.Run("NoMatchReturnsEmpty", func(t *testing.T) {
		got, err := repo.ListBorrowers(ctx, domain.BorrowerFilter{Countries: []string{"Iceland"}})
		if err != nil {
			t.Fatalf("restrictive filter must not error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected empty result, got %d", len(got))
		}
	})
}

func TestRepositoryTransactions(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	if err := repo.SaveBorrower(ctx, testBorrower("b-200")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	d := func(s string) time.Time {
		parsed, _ := time.Parse("2006-01-02", s)
		return parsed
	}
	txs := []domain.BorrowerTransaction{
		{BorrowerID: "b-200", Date: d("2025-10-01"), Description: "Gig payout", Amount: 85, Channel: "Wallet"},
		{BorrowerID: "b-200", Date: d("2025-10-12"), Description: "Groceries", Amount: -30.5, Channel: "Card"},
		{BorrowerID: "b-200", Date: d("2025-10-05"), Description: "Transfer", Amount: -60, Channel: "Wallet -> Bank"},
	}
	if err := repo.SaveBorrowerTransactions(ctx, "b-200", txs); err != nil {
		t.Fatalf("save transactions failed: %v", err)
	}

	t.Run("MostRecentFirst", func(t *testing.T) {
		got, err := repo.ListBorrowerTransactions(ctx, "b-200")
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 transactions, got %d", len(got))
		}
		if got[0].Description != "Groceries" {
			t.Errorf("expected most recent first, got %q", got[0].Description)
		}
		if got[2].Description != "Gig payout" {
			t.Errorf("expected oldest last, got %q", got[2].Description)
		}
	})

	t.Run("EmptyHistory", func(t *testing.T) {
		got, err := repo.ListBorrowerTransactions(ctx, "nobody")
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no transactions, got %d", len(got))
		}
	})

	t.Run("MissingBorrowerID", func(t *testing.T) {
		err := repo.SaveBorrowerTransactions(ctx, "", txs)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestRepositoryScorecards(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	sc := &domain.Scorecard{
		ID:         "sc-1",
		BorrowerID: "b-1",
		Score:      670,
		RiskLevel:  domain.RiskMedium,
		Limit:      1665,
		Flags:      []string{"Diversified accounts"},
		CreatedAt:  time.Now().Unix(),
	}

	if err := repo.SaveScorecard(ctx, sc); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := repo.GetScorecard(ctx, "sc-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Score != 670 || got.Limit != 1665 {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if got.RiskLevel != domain.RiskMedium {
		t.Errorf("expected Medium, got %s", got.RiskLevel)
	}
	if len(got.Flags) != 1 {
		t.Errorf("flags mismatch: %v", got.Flags)
	}

	if _, err := repo.GetScorecard(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRepositoryLoanOffers(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	offer := &domain.LoanOffer{
		ID:             "offer-1",
		Decision:       domain.DecisionNeedsReview,
		FinalScore:     708,
		APR:            10.5,
		MaxOffer:       408,
		ApprovedAmount: decimal.RequireFromString("120"),
		TotalInterest:  decimal.RequireFromString("19.38"),
		TotalRepay:     decimal.RequireFromString("139.38"),
		Installments:   8,
		Schedule: []domain.InstallmentRow{
			{Index: 1, Principal: decimal.RequireFromString("15"), Interest: decimal.RequireFromString("2.42"), TotalPayment: decimal.RequireFromString("17.42"), RemainingBalance: decimal.RequireFromString("105")},
		},
		Flags: []string{"Requires human verification"},
	}

	if err := repo.SaveLoanOffer(ctx, offer); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := repo.GetLoanOffer(ctx, "offer-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Decision != domain.DecisionNeedsReview || got.MaxOffer != 408 {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if !got.ApprovedAmount.Equal(offer.ApprovedAmount) {
		t.Errorf("approved amount mismatch: %s", got.ApprovedAmount)
	}
	if !got.TotalInterest.Equal(offer.TotalInterest) {
		t.Errorf("interest mismatch: %s", got.TotalInterest)
	}
	if !got.TotalRepay.Equal(offer.TotalRepay) {
		t.Errorf("repay mismatch: %s", got.TotalRepay)
	}
	if len(got.Schedule) != 1 || !got.Schedule[0].Principal.Equal(offer.Schedule[0].Principal) {
		t.Errorf("schedule mismatch: %+v", got.Schedule)
	}

	if _, err := repo.GetLoanOffer(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRepositoryFlagRules(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	rule := &domain.FlagRule{
		ID:         "rule-1",
		Name:       "high utilization",
		Expression: `utilization > 50.0`,
		Label:      "Stretched credit",
		Enabled:    true,
	}

	t.Run("SaveAndGet", func(t *testing.T) {
		if err := repo.SaveFlagRule(ctx, rule); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		got, err := repo.GetFlagRule(ctx, "rule-1")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Expression != rule.Expression || got.Label != rule.Label || !got.Enabled {
			t.Errorf("round-trip mismatch: %+v", got)
		}
	})

	t.Run("ListEnabledOnly", func(t *testing.T) {
		disabled := &domain.FlagRule{
			ID:         "rule-2",
			Name:       "dormant",
			Expression: `score < 400`,
			Label:      "Floor",
			Enabled:    false,
		}
		if err := repo.SaveFlagRule(ctx, disabled); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		rules, err := repo.ListFlagRules(ctx)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(rules) != 1 || rules[0].ID != "rule-1" {
			t.Errorf("expected only enabled rule, got %v", rules)
		}
	})

	t.Run("SoftDelete", func(t *testing.T) {
		if err := repo.DeleteFlagRule(ctx, "rule-1"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}

		// Still retrievable, just disabled.
		got, err := repo.GetFlagRule(ctx, "rule-1")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Enabled {
			t.Error("expected rule disabled after delete")
		}

		rules, err := repo.ListFlagRules(ctx)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(rules) != 0 {
			t.Errorf("expected no enabled rules, got %d", len(rules))
		}

		if err := repo.DeleteFlagRule(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRebind(t *testing.T) {
	sqliteRepo := &SQLRepository{driver: "sqlite"}
	if got := sqliteRepo.rebind("SELECT * FROM t WHERE a = ? AND b = ?"); got != "SELECT * FROM t WHERE a = ? AND b = ?" {
		t.Errorf("sqlite query must pass through, got %q", got)
	}

	pgRepo := &SQLRepository{driver: "postgres"}
	if got := pgRepo.rebind("SELECT * FROM t WHERE a = ? AND b = ?"); got != "SELECT * FROM t WHERE a = $1 AND b = $2" {
		t.Errorf("postgres rebind wrong: %q", got)
	}
}
