package domain

// CountryRisk is the jurisdiction-risk bucket for the borrower's main
// income corridor.
type CountryRisk string

const (
	CountryRiskLow    CountryRisk = "Low"
	CountryRiskMedium CountryRisk = "Medium"
	CountryRiskHigh   CountryRisk = "High"
)

// KYCStatus is the identity-verification state of the applicant.
type KYCStatus string

const (
	KYCNotStarted KYCStatus = "NotStarted"
	KYCInReview   KYCStatus = "InReview"
	KYCVerified   KYCStatus = "Verified"
)

// RiskParameters are the manually supplied inputs for the dashboard
// scoring variant. Documented ranges are validated, not clamped.
type RiskParameters struct {
	MonthlyIncome    float64     `json:"monthlyIncome"`
	IncomeVolatility float64     `json:"incomeVolatility"` // 0-100
	Utilization      float64     `json:"utilization"`      // 0-100 percent
	MissedPayments   int         `json:"missedPayments"`   // 0-10
	CountryRisk      CountryRisk `json:"countryRisk"`
	MonthsHistory    int         `json:"monthsHistory"`
	AccountsLinked   int         `json:"accountsLinked"` // 0-10
	CountriesSeen    int         `json:"countriesSeen"`  // distinct income countries
	KYCStatus        KYCStatus   `json:"kycStatus"`
}

// RiskLevel buckets the parameter-based score (300-900 scale).
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// FeatureBand buckets the feature-based score (0-100 scale). The two
// scales are independent and never mixed.
type FeatureBand string

const (
	BandRed   FeatureBand = "Red"
	BandAmber FeatureBand = "Amber"
	BandGreen FeatureBand = "Green"
	BandPrime FeatureBand = "Prime"
)

// Impact is the qualitative label a factor contributes to the
// explanation table.
type Impact string

const (
	ImpactPositive Impact = "Positive"
	ImpactNegative Impact = "Negative"
	ImpactNeutral  Impact = "Neutral"
)

// FactorExplanation is one row of the per-factor explanation table.
type FactorExplanation struct {
	Factor    string  `json:"factor"`
	Value     string  `json:"value"`
	Impact    Impact  `json:"impact"`
	Points    float64 `json:"points"`
	Rationale string  `json:"rationale"`
}

// ScoreResult is the output of the parameter-based scorer.
type ScoreResult struct {
	Score     int       `json:"score"` // clamped to [300,900]
	RiskLevel RiskLevel `json:"riskLevel"`

	// RawScore is the unclamped accumulator. The scenario comparator
	// reverses marginal contributions off this value, matching the
	// dashboard's approximate what-if behavior.
	RawScore float64 `json:"-"`

	// SuggestedLimit is monthly_income * 1.5 scaled by score position
	// in the 300-900 range, truncated to whole currency units.
	SuggestedLimit int `json:"suggestedLimit"`

	Explanation []FactorExplanation `json:"explanation,omitempty"`
	Flags       []string            `json:"flags"`
}

// FeatureScoreResult is the output of the feature-based scorer.
type FeatureScoreResult struct {
	Score int         `json:"score"` // clamped to [0,100]
	Band  FeatureBand `json:"band"`
}

// ScenarioTargets is the hypothetical "improved pattern" for the
// what-if comparator.
type ScenarioTargets struct {
	Utilization    float64 `json:"utilization"`    // 0-100 percent
	Volatility     float64 `json:"volatility"`     // 0-100
	MissedPayments int     `json:"missedPayments"` // 0-10
}

// ScenarioOutcome classifies the score delta of a what-if run.
type ScenarioOutcome string

const (
	OutcomeImprovement ScenarioOutcome = "improvement"
	OutcomeDecline     ScenarioOutcome = "decline"
	OutcomeNoChange    ScenarioOutcome = "no-change"
)

// ScenarioResult reports a what-if comparison against the baseline.
type ScenarioResult struct {
	BaselineScore  int             `json:"baselineScore"`
	BaselineLimit  int             `json:"baselineLimit"`
	AdjustedScore  int             `json:"adjustedScore"`
	AdjustedLimit  int             `json:"adjustedLimit"`
	DeltaScore     int             `json:"deltaScore"`
	DeltaLimit     int             `json:"deltaLimit"`
	Classification ScenarioOutcome `json:"classification"`
}

// Scorecard is a persisted scoring run for a borrower.
type Scorecard struct {
	ID         string      `json:"id"`
	BorrowerID string      `json:"borrowerId,omitempty"`
	Score      int         `json:"score"`
	RiskLevel  RiskLevel   `json:"riskLevel,omitempty"`
	Band       FeatureBand `json:"band,omitempty"`
	Limit      int         `json:"limit"`
	Flags      []string    `json:"flags,omitempty"`
	CreatedAt  int64       `json:"createdAt"` // unix seconds
}
