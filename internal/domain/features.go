package domain

// FeatureVector is the fixed set of cash-flow features derived from a
// normalized transaction set. Produced once per scoring request and
// never mutated afterwards.
type FeatureVector struct {
	// AvgInflow is the mean of the monthly inflow series.
	AvgInflow float64 `json:"avgInflow"`

	// IncomeVolatility is the coefficient of variation of monthly
	// inflows (std dev / mean). Higher = less stable income.
	// Sentinel 1.0 when the series is empty or its mean is zero.
	IncomeVolatility float64 `json:"incomeVolatility"`

	// ExpenseRatio is total outflow / total inflow, sentinel 1.0 when
	// there is no inflow at all.
	ExpenseRatio float64 `json:"expenseRatio"`

	// OverdraftCount is the number of months where outflow exceeded
	// inflow by more than 10%.
	OverdraftCount int `json:"overdraftCount"`

	// RemittanceCount is the number of rows matching remittance
	// category keywords.
	RemittanceCount int `json:"remittanceCount"`

	// GigMonthsActive is the number of distinct months with at least
	// one gig-economy row.
	GigMonthsActive int `json:"gigMonthsActive"`

	// MobileMoneySignal is true if any row matches a mobile-money
	// category keyword.
	MobileMoneySignal bool `json:"mobileMoneySignal"`
}

// EmptyFeatureVector is the documented default for an empty transaction
// table: no income signal, maximal volatility and expense sentinels.
func EmptyFeatureVector() FeatureVector {
	return FeatureVector{
		AvgInflow:         0,
		IncomeVolatility:  1.0,
		ExpenseRatio:      1.0,
		OverdraftCount:    0,
		RemittanceCount:   0,
		GigMonthsActive:   0,
		MobileMoneySignal: false,
	}
}
