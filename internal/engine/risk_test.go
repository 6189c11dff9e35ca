package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/restoklabs/restok/backend-go/internal/domain"
)

func TestDaysOfCover(t *testing.T) {
	assert.InDelta(t, 10.0, DaysOfCover(5, 50), 1e-9)
	assert.True(t, math.IsInf(DaysOfCover(0, 50), 1), "zero demand means infinite cover")
	assert.True(t, math.IsInf(DaysOfCover(0, 0), 1))
}

func TestClassifyPriorityOrder(t *testing.T) {
	c := NewClassifier(45)

	tests := []struct {
		name   string
		avg    float64
		onHand int64
		ltMean float64
		want   domain.Risk
	}{
		{"zero demand wins regardless of stock", 0, 100000, 5, domain.RiskLowDemand},
		{"zero demand with zero stock", 0, 0, 5, domain.RiskLowDemand},
		{"cover below lead time", 10, 20, 5, domain.RiskStockout},
		{"cover above overstock threshold", 1, 50, 5, domain.RiskOverstock},
		{"cover between lead time and threshold", 10, 100, 5, domain.RiskNormal},
		{"cover exactly at lead time is not stockout", 10, 50, 5, domain.RiskNormal},
		{"cover exactly at threshold is not overstock", 1, 45, 5, domain.RiskNormal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.avg, tt.onHand, tt.ltMean))
		})
	}
}

func TestClassifierThresholdConfigurable(t *testing.T) {
	loose := NewClassifier(90)
	assert.Equal(t, domain.RiskNormal, loose.Classify(1, 50, 5))

	tight := NewClassifier(30)
	assert.Equal(t, domain.RiskOverstock, tight.Classify(1, 50, 5))

	fallback := NewClassifier(0)
	assert.Equal(t, DefaultOverstockDays, fallback.OverstockDays)
}

func TestRiskCountsAndImpact(t *testing.T) {
	rows := []domain.EnrichedRow{
		{Risk: domain.RiskStockout},
		{Risk: domain.RiskStockout},
		{Risk: domain.RiskNormal},
	}
	before := RiskCounts(rows)
	assert.Equal(t, 2, before[domain.RiskStockout])
	assert.Equal(t, 1, before[domain.RiskNormal])
	assert.Equal(t, 0, before[domain.RiskOverstock])
	assert.Equal(t, 0, before[domain.RiskLowDemand])

	after := RiskCounts([]domain.EnrichedRow{
		{Risk: domain.RiskNormal},
		{Risk: domain.RiskNormal},
		{Risk: domain.RiskOverstock},
	})
	impact := Impact(before, after)
	assert.Equal(t, -2, impact.Delta[domain.RiskStockout])
	assert.Equal(t, 1, impact.Delta[domain.RiskNormal])
	assert.Equal(t, 1, impact.Delta[domain.RiskOverstock])
	assert.Equal(t, 0, impact.Delta[domain.RiskLowDemand])
}

func TestEnrichAssignsExactlyOneLabel(t *testing.T) {
	e := Enricher{
		Reorder:    ReorderParams{ServiceLevel: 0.95, OrderUpFactor: 1.0},
		Classifier: NewClassifier(45),
	}
	inv := []domain.InventoryLevel{
		{StoreID: "S1", SKUID: "K1", OnHand: 20},
		{StoreID: "S1", SKUID: "K2", OnHand: 500},
		{StoreID: "S2", SKUID: "K1", OnHand: 0},
	}
	stats := []domain.DemandStat{
		{StoreID: "S1", SKUID: "K1", AvgDailySales: 10},
		{StoreID: "S1", SKUID: "K2", AvgDailySales: 1},
	}
	lts := []domain.LeadTime{
		{StoreID: "S1", SKUID: "K1", MeanDays: 5, StdDays: 1},
		{StoreID: "S1", SKUID: "K2", MeanDays: 5, StdDays: 1},
	}

	rows := e.Enrich(inv, stats, lts)
	assert.Len(t, rows, 3)
	valid := map[domain.Risk]bool{
		domain.RiskLowDemand: true, domain.RiskStockout: true,
		domain.RiskOverstock: true, domain.RiskNormal: true,
	}
	for _, r := range rows {
		assert.True(t, valid[r.Risk], "row %s/%s got label %q", r.StoreID, r.SKUID, r.Risk)
	}

	// No sales and no lead time row: coerced, classified low demand.
	assert.Equal(t, domain.RiskLowDemand, rows[2].Risk)
	assert.Zero(t, rows[2].SuggestedQty)

	// Scenario row: enrichment matches the standalone model.
	assert.InDelta(t, 66.449, rows[0].ROP, 1e-9)
	assert.Equal(t, int64(97), rows[0].SuggestedQty)
	assert.Equal(t, domain.RiskStockout, rows[0].Risk)
	assert.Contains(t, rows[0].Explanation, "order up to S")
}
