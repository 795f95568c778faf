package features

import (
	"testing"
	"time"

	"github.com/opencredit-finance/kestrel/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExtract(t *testing.T) {
	t.Run("EmptySet", func(t *testing.T) {
		fv := Extract(nil)
		want := domain.EmptyFeatureVector()
		if fv != want {
			t.Errorf("expected defaults %+v, got %+v", want, fv)
		}
		if fv.IncomeVolatility != 1.0 || fv.ExpenseRatio != 1.0 {
			t.Errorf("sentinels wrong: %+v", fv)
		}
	})

	t.Run("SalariedLedger", func(t *testing.T) {
		fv := Extract(domain.SampleBankTransactions())
		if fv.AvgInflow != 900 {
			t.Errorf("expected avg inflow 900, got %g", fv.AvgInflow)
		}
		if fv.IncomeVolatility != 0 {
			t.Errorf("expected zero volatility for equal months, got %g", fv.IncomeVolatility)
		}
		if fv.ExpenseRatio != 0.7 {
			t.Errorf("expected expense ratio 0.70, got %g", fv.ExpenseRatio)
		}
		if fv.OverdraftCount != 0 {
			t.Errorf("expected no overdraft months, got %d", fv.OverdraftCount)
		}
		if fv.RemittanceCount != 0 || fv.GigMonthsActive != 0 || fv.MobileMoneySignal {
			t.Errorf("unexpected alternative-data signals: %+v", fv)
		}
	})

	t.Run("MobileMoneyLedger", func(t *testing.T) {
		fv := Extract(domain.SampleMobileMoneyTransactions())
		if fv.AvgInflow != 350 {
			t.Errorf("expected avg inflow 350, got %g", fv.AvgInflow)
		}
		if fv.RemittanceCount != 6 {
			t.Errorf("expected 6 remittances, got %d", fv.RemittanceCount)
		}
		if fv.GigMonthsActive != 6 {
			t.Errorf("expected 6 gig months, got %d", fv.GigMonthsActive)
		}
		if !fv.MobileMoneySignal {
			t.Error("expected mobile money signal")
		}
		// 1200 outflow over 2100 inflow.
		if fv.ExpenseRatio != 0.57 {
			t.Errorf("expected expense ratio 0.57, got %g", fv.ExpenseRatio)
		}
	})

	t.Run("OverdraftMonths", func(t *testing.T) {
		txs := []domain.Transaction{
			{Date: date(2024, time.January, 5), Amount: 400, Type: domain.Inflow, Category: "salary"},
			{Date: date(2024, time.January, 20), Amount: 500, Type: domain.Outflow, Category: "rent"},
			{Date: date(2024, time.February, 5), Amount: 400, Type: domain.Inflow, Category: "salary"},
			{Date: date(2024, time.February, 20), Amount: 430, Type: domain.Outflow, Category: "rent"},
			{Date: date(2024, time.March, 20), Amount: 100, Type: domain.Outflow, Category: "rent"},
		}
		fv := Extract(txs)
		// Jan: 500 > 440. Feb: 430 <= 440. Mar: outflow-only month.
		if fv.OverdraftCount != 2 {
			t.Errorf("expected 2 overdraft months, got %d", fv.OverdraftCount)
		}
	})

	t.Run("SingleMonthVolatility", func(t *testing.T) {
		txs := []domain.Transaction{
			{Date: date(2024, time.May, 3), Amount: 700, Type: domain.Inflow, Category: "salary"},
			{Date: date(2024, time.May, 17), Amount: 200, Type: domain.Inflow, Category: "salary"},
		}
		fv := Extract(txs)
		if fv.IncomeVolatility != 0 {
			t.Errorf("one inflow month has no sample deviation, got %g", fv.IncomeVolatility)
		}
		if fv.AvgInflow != 900 {
			t.Errorf("expected avg inflow 900, got %g", fv.AvgInflow)
		}
	})

	t.Run("UndatedRowsStayOutOfMonthlySeries", func(t *testing.T) {
		txs := []domain.Transaction{
			{Date: date(2024, time.January, 5), Amount: 1000, Type: domain.Inflow, Category: "salary"},
			{Amount: 500, Type: domain.Inflow, Category: "refund"},
			{Amount: 2000, Type: domain.Outflow, Category: "upwork payout"},
		}
		fv := Extract(txs)
		if fv.AvgInflow != 1000 {
			t.Errorf("expected avg inflow 1000 over the dated month, got %g", fv.AvgInflow)
		}
		if fv.IncomeVolatility != 0 {
			t.Errorf("single dated month has no deviation, got %g", fv.IncomeVolatility)
		}
		// Totals still include the undated rows: 2000 / 1500.
		if fv.ExpenseRatio != 1.33 {
			t.Errorf("expected expense ratio 1.33, got %g", fv.ExpenseRatio)
		}
		if fv.OverdraftCount != 0 {
			t.Errorf("undated outflow must not create an overdraft month, got %d", fv.OverdraftCount)
		}
		if fv.GigMonthsActive != 0 {
			t.Errorf("undated gig row must not count as an active month, got %d", fv.GigMonthsActive)
		}
	})

	t.Run("OutflowOnlySentinels", func(t *testing.T) {
		txs := []domain.Transaction{
			{Date: date(2024, time.June, 2), Amount: 150, Type: domain.Outflow, Category: "rent"},
		}
		fv := Extract(txs)
		if fv.AvgInflow != 0 {
			t.Errorf("expected zero avg inflow, got %g", fv.AvgInflow)
		}
		if fv.IncomeVolatility != 1.0 {
			t.Errorf("expected sentinel volatility 1.0, got %g", fv.IncomeVolatility)
		}
		if fv.ExpenseRatio != 1.0 {
			t.Errorf("expected sentinel expense ratio 1.0, got %g", fv.ExpenseRatio)
		}
		if fv.OverdraftCount != 1 {
			t.Errorf("outflow-only month should overdraft, got %d", fv.OverdraftCount)
		}
	})

	t.Run("KeywordMatching", func(t *testing.T) {
		txs := []domain.Transaction{
			{Date: date(2024, time.April, 1), Amount: 80, Type: domain.Inflow, Category: "Transfer_International_fee"},
			{Date: date(2024, time.April, 2), Amount: 120, Type: domain.Inflow, Category: "UPWORK payout"},
			{Date: date(2024, time.April, 3), Amount: 40, Type: domain.Outflow, Category: "M-Pesa topup"},
		}
		fv := Extract(txs)
		if fv.RemittanceCount != 1 {
			t.Errorf("expected 1 remittance match, got %d", fv.RemittanceCount)
		}
		if fv.GigMonthsActive != 1 {
			t.Errorf("expected 1 gig month, got %d", fv.GigMonthsActive)
		}
		if !fv.MobileMoneySignal {
			t.Error("expected mobile money signal from m-pesa")
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		txs := domain.SampleMobileMoneyTransactions()
		a := Extract(txs)
		b := Extract(txs)
		if a != b {
			t.Errorf("identical input produced different vectors: %+v vs %+v", a, b)
		}
	})
}
