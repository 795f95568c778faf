// Package features derives the fixed cash-flow feature vector from a
// normalized transaction set.
package features

import (
	"math"
	"sort"
	"strings"

	"github.com/opencredit-finance/kestrel/internal/domain"
)

// Category keyword sets for alternative-data signals. Matching is a
// case-insensitive substring check against the row's category.
var (
	remittanceKeywords  = []string{"remittance", "transfer_international"}
	gigKeywords         = []string{"gig", "upwork", "fiverr", "delivery", "rappi", "grab"}
	mobileMoneyKeywords = []string{"ecocash", "mpesa", "m-pesa", "momo", "zalopay", "wallet"}
)

// Extract computes the feature vector for a transaction set. It is
// deterministic, side-effect free and safe to call concurrently.
// An empty set yields the documented defaults.
func Extract(txs []domain.Transaction) domain.FeatureVector {
	if len(txs) == 0 {
		return domain.EmptyFeatureVector()
	}

	monthlyInflow := make(map[string]float64)
	monthlyOutflow := make(map[string]float64)
	gigMonths := make(map[string]struct{})

	var totalIn, totalOut float64
	var remittanceCount int
	var mobileMoney bool

	for _, tx := range txs {
		category := strings.ToLower(tx.Category)
		// Rows whose date failed to parse still count toward totals
		// and row-level signals but stay out of the monthly series.
		dated := !tx.Date.IsZero()
		month := tx.Month()

		switch tx.Type {
		case domain.Inflow:
			if dated {
				monthlyInflow[month] += tx.Amount
			}
			totalIn += tx.Amount
		case domain.Outflow:
			if dated {
				monthlyOutflow[month] += tx.Amount
			}
			totalOut += tx.Amount
		}

		if matchesAny(category, remittanceKeywords) {
			remittanceCount++
		}
		if dated && matchesAny(category, gigKeywords) {
			gigMonths[month] = struct{}{}
		}
		if matchesAny(category, mobileMoneyKeywords) {
			mobileMoney = true
		}
	}

	inflowSeries := sortedValues(monthlyInflow)

	avgInflow := 0.0
	if len(inflowSeries) > 0 {
		avgInflow = mean(inflowSeries)
	}

	// Coefficient of variation of the monthly inflow series. Sentinel
	// 1.0 when the series is empty or its mean is zero; a single-month
	// series has no sample deviation and contributes no volatility.
	volatility := 1.0
	if len(inflowSeries) > 0 && avgInflow != 0 {
		volatility = sampleStdDev(inflowSeries, avgInflow) / avgInflow
	}

	expenseRatio := 1.0
	if totalIn > 0 {
		expenseRatio = totalOut / totalIn
	}

	// Overdraft proxy: months where outflow exceeds inflow by more
	// than 10%, with a missing side treated as zero.
	overdrafts := 0
	for _, month := range allMonths(monthlyInflow, monthlyOutflow) {
		if monthlyOutflow[month] > monthlyInflow[month]*1.1 {
			overdrafts++
		}
	}

	return domain.FeatureVector{
		AvgInflow:         round2(avgInflow),
		IncomeVolatility:  round2(volatility),
		ExpenseRatio:      round2(expenseRatio),
		OverdraftCount:    overdrafts,
		RemittanceCount:   remittanceCount,
		GigMonthsActive:   len(gigMonths),
		MobileMoneySignal: mobileMoney,
	}
}

func matchesAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func allMonths(inflow, outflow map[string]float64) []string {
	seen := make(map[string]struct{}, len(inflow)+len(outflow))
	for m := range inflow {
		seen[m] = struct{}{}
	}
	for m := range outflow {
		seen[m] = struct{}{}
	}
	months := make([]string, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	sort.Strings(months)
	return months
}

func sortedValues(byMonth map[string]float64) []float64 {
	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)
	values := make([]float64, len(months))
	for i, m := range months {
		values[i] = byMonth[m]
	}
	return values
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev is the n-1 standard deviation; 0 for fewer than two
// observations.
func sampleStdDev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
