package rules

import (
	"testing"

	"github.com/opencredit-finance/kestrel/internal/domain"
	"github.com/opencredit-finance/kestrel/internal/scoring"
)

func testRule(id, expr, label string) *domain.FlagRule {
	return &domain.FlagRule{
		ID:         id,
		Name:       "test " + id,
		Expression: expr,
		Label:      label,
		Enabled:    true,
	}
}

func scoredParams(t *testing.T, p domain.RiskParameters) *domain.ScoreResult {
	t.Helper()
	result, err := scoring.Parameters(p, false)
	if err != nil {
		t.Fatalf("scoring failed: %v", err)
	}
	return result
}

func TestEngine(t *testing.T) {
	engine, err := NewEngine()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	defer engine.Close()

	t.Run("ValidateRule", func(t *testing.T) {
		valid := testRule("r-valid", `utilization > 50.0 && missed_payments >= 2`, "Custom risk")
		if err := engine.ValidateRule(valid); err != nil {
			t.Errorf("valid rule rejected: %v", err)
		}

		nonBool := testRule("r-nonbool", `monthly_income`, "Income echo")
		if err := engine.ValidateRule(nonBool); err == nil {
			t.Error("expected non-bool expression rejected")
		}

		badSyntax := testRule("r-syntax", `utilization >>> 50`, "Broken")
		if err := engine.ValidateRule(badSyntax); err == nil {
			t.Error("expected syntax error rejected")
		}

		unknownVar := testRule("r-unknown", `shoe_size > 10`, "Unknown var")
		if err := engine.ValidateRule(unknownVar); err == nil {
			t.Error("expected unknown variable rejected")
		}

		noLabel := testRule("r-nolabel", `utilization > 50.0`, "")
		if err := engine.ValidateRule(noLabel); err == nil {
			t.Error("expected missing label rejected")
		}

		if err := engine.ValidateRule(nil); err == nil {
			t.Error("expected nil rule rejected")
		}

		if engine.RulesCount() != 0 {
			t.Errorf("validation must not load rules, count=%d", engine.RulesCount())
		}
	})

	t.Run("EvaluateFiresOnMatch", func(t *testing.T) {
		if err := engine.LoadRule(testRule("r-util", `utilization > 50.0 && missed_payments >= 2`, "Stressed borrower")); err != nil {
			t.Fatalf("load failed: %v", err)
		}

		p := domain.RiskParameters{
			MonthlyIncome:    2000,
			IncomeVolatility: 20,
			Utilization:      60,
			MissedPayments:   3,
			CountryRisk:      domain.CountryRiskMedium,
			MonthsHistory:    12,
			AccountsLinked:   2,
			KYCStatus:        domain.KYCVerified,
		}
		labels := engine.Evaluate(p, scoredParams(t, p))
		if len(labels) != 1 || labels[0] != "Stressed borrower" {
			t.Errorf("expected fired label, got %v", labels)
		}

		p.Utilization = 30
		labels = engine.Evaluate(p, scoredParams(t, p))
		if len(labels) != 0 {
			t.Errorf("expected no labels, got %v", labels)
		}
	})

	t.Run("ScoreAndRiskLevelVariables", func(t *testing.T) {
		if err := engine.LoadRule(testRule("r-score", `score < 650 || risk_level == "High"`, "Sub-prime")); err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if err := engine.LoadRule(testRule("r-kyc", `!kyc_verified`, "Identity gap")); err != nil {
			t.Fatalf("load failed: %v", err)
		}

		p := domain.RiskParameters{
			MonthlyIncome:    600,
			IncomeVolatility: 70,
			Utilization:      85,
			MissedPayments:   2,
			CountryRisk:      domain.CountryRiskHigh,
			MonthsHistory:    2,
			AccountsLinked:   1,
			KYCStatus:        domain.KYCInReview,
		}
		labels := engine.Evaluate(p, scoredParams(t, p))

		found := map[string]bool{}
		for _, l := range labels {
			found[l] = true
		}
		if !found["Sub-prime"] || !found["Identity gap"] {
			t.Errorf("expected Sub-prime and Identity gap fired, got %v", labels)
		}
	})

	t.Run("ReloadSwapsRuleSet", func(t *testing.T) {
		replacement := []*domain.FlagRule{
			testRule("r-new", `countries_seen > 1`, "Cross-border"),
			{ID: "r-off", Name: "disabled", Expression: `utilization > 0.0`, Label: "Never", Enabled: false},
		}
		if err := engine.ReloadRules(replacement); err != nil {
			t.Fatalf("reload failed: %v", err)
		}
		if engine.RulesCount() != 1 {
			t.Errorf("expected 1 rule after reload, got %d", engine.RulesCount())
		}

		p := domain.RiskParameters{
			MonthlyIncome:    2000,
			IncomeVolatility: 20,
			Utilization:      30,
			CountryRisk:      domain.CountryRiskLow,
			MonthsHistory:    12,
			AccountsLinked:   2,
			CountriesSeen:    3,
			KYCStatus:        domain.KYCVerified,
		}
		labels := engine.Evaluate(p, scoredParams(t, p))
		if len(labels) != 1 || labels[0] != "Cross-border" {
			t.Errorf("expected only reloaded rule to fire, got %v", labels)
		}
	})

	t.Run("LoadRulesSkipsDisabled", func(t *testing.T) {
		fresh, err := NewEngine()
		if err != nil {
			t.Fatalf("failed to create engine: %v", err)
		}
		defer fresh.Close()

		configs := []*domain.FlagRule{
			testRule("a", `utilization > 10.0`, "A"),
			{ID: "b", Name: "b", Expression: `utilization > 10.0`, Label: "B", Enabled: false},
		}
		if err := fresh.LoadRules(configs); err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if fresh.RulesCount() != 1 {
			t.Errorf("expected 1 loaded rule, got %d", fresh.RulesCount())
		}
		loaded := fresh.GetLoadedRules()
		if len(loaded) != 1 || loaded[0].ID != "a" {
			t.Errorf("unexpected loaded rules: %v", loaded)
		}
	})

	t.Run("ReloadRejectsBadRule", func(t *testing.T) {
		fresh, err := NewEngine()
		if err != nil {
			t.Fatalf("failed to create engine: %v", err)
		}
		defer fresh.Close()

		if err := fresh.ReloadRules([]*domain.FlagRule{testRule("bad", `nope >`, "Bad")}); err == nil {
			t.Error("expected reload to fail on a bad rule")
		}
	})
}
