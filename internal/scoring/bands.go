// Package scoring implements the rule-based credit scorers, the limit
// recommendation and the what-if scenario comparator.
package scoring

import (
	"github.com/opencredit-finance/kestrel/internal/domain"
)

// interval is an explicit range with per-bound inclusivity, so tier
// boundaries (income exactly 5000, utilization exactly 40) are
// unambiguous. A nil bound is unbounded. Tables built from intervals
// are disjoint and exhaustive; the first match wins.
type interval struct {
	Lower          *float64
	LowerInclusive bool
	Upper          *float64
	UpperInclusive bool
}

func (iv interval) contains(v float64) bool {
	if iv.Lower != nil {
		if iv.LowerInclusive {
			if v < *iv.Lower {
				return false
			}
		} else if v <= *iv.Lower {
			return false
		}
	}
	if iv.Upper != nil {
		if iv.UpperInclusive {
			if v > *iv.Upper {
				return false
			}
		} else if v >= *iv.Upper {
			return false
		}
	}
	return true
}

func f(v float64) *float64 { return &v }

// scoreTier maps an input interval to a point adjustment.
type scoreTier struct {
	Range  interval
	Points float64
}

// incomeTiers: <800 steep penalty, <1500 mild penalty, neutral through
// 3500 inclusive, bonus above, larger bonus strictly above 5000.
var incomeTiers = []scoreTier{
	{Range: interval{Upper: f(800)}, Points: -80},
	{Range: interval{Lower: f(800), LowerInclusive: true, Upper: f(1500)}, Points: -40},
	{Range: interval{Lower: f(1500), LowerInclusive: true, Upper: f(3500), UpperInclusive: true}, Points: 0},
	{Range: interval{Lower: f(3500), Upper: f(5000), UpperInclusive: true}, Points: 30},
	{Range: interval{Lower: f(5000)}, Points: 50},
}

// utilizationTiers: the 10-40% sweet spot is inclusive on both ends;
// above 80% is a strict penalty; 40-80 exclusive-inclusive is neutral.
var utilizationTiers = []scoreTier{
	{Range: interval{Upper: f(10)}, Points: -10},
	{Range: interval{Lower: f(10), LowerInclusive: true, Upper: f(40), UpperInclusive: true}, Points: 20},
	{Range: interval{Lower: f(40), Upper: f(80), UpperInclusive: true}, Points: 0},
	{Range: interval{Lower: f(80)}, Points: -40},
}

func matchTier(tiers []scoreTier, v float64) float64 {
	for _, t := range tiers {
		if t.Range.contains(v) {
			return t.Points
		}
	}
	return 0
}

// riskLevelBands buckets the clamped 300-900 score.
var riskLevelBands = []struct {
	Min   int
	Level domain.RiskLevel
}{
	{760, domain.RiskLow},
	{620, domain.RiskMedium},
	{0, domain.RiskHigh},
}

// RiskLevelFor returns the risk bucket for a parameter-based score.
func RiskLevelFor(score int) domain.RiskLevel {
	for _, b := range riskLevelBands {
		if score >= b.Min {
			return b.Level
		}
	}
	return domain.RiskHigh
}

// featureBands buckets the clamped 0-100 feature score.
var featureBands = []struct {
	Min  int
	Band domain.FeatureBand
}{
	{86, domain.BandPrime},
	{70, domain.BandGreen},
	{50, domain.BandAmber},
	{0, domain.BandRed},
}

// FeatureBandFor returns the band for a feature-based score.
func FeatureBandFor(score int) domain.FeatureBand {
	for _, b := range featureBands {
		if score >= b.Min {
			return b.Band
		}
	}
	return domain.BandRed
}
