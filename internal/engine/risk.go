package engine

import (
	"math"

	"github.com/restoklabs/restok/backend-go/internal/domain"
)

// DefaultOverstockDays is the days-of-cover threshold above which a pair is
// flagged as overstocked. The projection path reuses the same threshold.
const DefaultOverstockDays = 45.0

// Classifier labels (store, SKU) pairs by comparing days-of-cover to lead
// time and the overstock threshold.
type Classifier struct {
	OverstockDays float64
}

// NewClassifier returns a classifier with the given threshold, falling back
// to the default when non-positive.
func NewClassifier(overstockDays float64) Classifier {
	if overstockDays <= 0 {
		overstockDays = DefaultOverstockDays
	}
	return Classifier{OverstockDays: overstockDays}
}

// DaysOfCover is on-hand stock divided by average daily demand, +Inf when
// demand is zero.
func DaysOfCover(avgDailySales float64, onHand int64) float64 {
	if avgDailySales > 0 {
		return float64(onHand) / avgDailySales
	}
	return math.Inf(1)
}

// Classify assigns exactly one risk label. Rules are evaluated in priority
// order; the first match wins.
func (c Classifier) Classify(avgDailySales float64, onHand int64, ltMeanDays float64) domain.Risk {
	switch {
	case avgDailySales == 0:
		return domain.RiskLowDemand
	case DaysOfCover(avgDailySales, onHand) < ltMeanDays:
		return domain.RiskStockout
	case DaysOfCover(avgDailySales, onHand) > c.OverstockDays:
		return domain.RiskOverstock
	default:
		return domain.RiskNormal
	}
}

// RiskCounts tallies rows per label, with every label present in the result.
func RiskCounts(rows []domain.EnrichedRow) map[domain.Risk]int {
	counts := make(map[domain.Risk]int, len(domain.AllRisks))
	for _, r := range domain.AllRisks {
		counts[r] = 0
	}
	for _, row := range rows {
		counts[row.Risk]++
	}
	return counts
}

// Impact diffs risk-category counts between a current and a projected state.
func Impact(before, after map[domain.Risk]int) domain.ImpactSummary {
	delta := make(map[domain.Risk]int, len(domain.AllRisks))
	for _, r := range domain.AllRisks {
		delta[r] = after[r] - before[r]
	}
	return domain.ImpactSummary{Before: before, After: after, Delta: delta}
}
