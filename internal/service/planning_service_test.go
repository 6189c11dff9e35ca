package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restoklabs/restok/backend-go/internal/cache"
	"github.com/restoklabs/restok/backend-go/internal/config"
	"github.com/restoklabs/restok/backend-go/internal/domain"
	"github.com/restoklabs/restok/backend-go/internal/repository/memory"
)

func testParams() config.PlanningConfig {
	return config.PlanningConfig{
		ServiceLevel:    0.95,
		OrderUpFactor:   1.0,
		OverstockDays:   45,
		DonorCandidates: 5,
		MaxPerSKU:       20,
		CostPerUnitKm:   0.08,
		WindowDays:      28,
	}
}

func day(offset int) time.Time {
	base := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

type fixture struct {
	planning *memory.PlanningRepo
	ledger   *memory.LedgerRepo
	events   *memory.EventRepo
	plan     *PlanningService
	led      *LedgerService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	planning := memory.NewPlanningRepository()
	ledger := memory.NewLedgerRepository()
	events := memory.NewEventRepository()
	noop := cache.NewNoopPlanCache()
	return &fixture{
		planning: planning,
		ledger:   ledger,
		events:   events,
		plan:     NewPlanningService(planning, ledger, noop, testParams()),
		led:      NewLedgerService(ledger, planning, events, noop),
	}
}

func (f *fixture) seedScope(orgID string, stores, skus []string) {
	scope := domain.Scope{Stores: map[string]bool{}, SKUs: map[string]bool{}}
	for _, s := range stores {
		scope.Stores[s] = true
	}
	for _, k := range skus {
		scope.SKUs[k] = true
	}
	f.planning.SetScope(orgID, scope)
}

func (f *fixture) seedSteadyDemand(orgID, storeID, skuID string, daily float64, days int) {
	var rows []domain.SalesRow
	for i := 0; i < days; i++ {
		rows = append(rows, domain.SalesRow{
			Date:      day(i),
			StoreID:   storeID,
			SKUID:     skuID,
			UnitsSold: daily,
		})
	}
	f.planning.SetSales(orgID, rows)
}

func TestGetPlanSteadyDemand(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedScope("org-1", []string{"S1"}, []string{"K1"})
	f.seedSteadyDemand("org-1", "S1", "K1", 50, 14)
	f.planning.SetLeadTimes("org-1", []domain.LeadTime{
		{StoreID: "S1", SKUID: "K1", MeanDays: 1.2, StdDays: 0.5},
	})
	_, err := f.ledger.SeedInventory(ctx, "org-1", []domain.InventoryLevel{
		{StoreID: "S1", SKUID: "K1", OnHand: 20},
	})
	require.NoError(t, err)

	plan, err := f.plan.GetPlan(ctx, "org-1", domain.PlanFilter{})
	require.NoError(t, err)
	require.Len(t, plan.Rows, 1)

	row := plan.Rows[0]
	assert.Equal(t, "S1", row.StoreID)
	assert.InDelta(t, 50.0, row.AvgDailySales, 1e-9)
	// mu_LT = 60, sigma_LT = 25, z(0.95) = 1.6449
	assert.InDelta(t, 101.12, row.ROP, 0.01)
	assert.InDelta(t, 161.12, row.SLevel, 0.01)
	assert.Equal(t, int64(142), row.SuggestedQty)
	assert.Equal(t, domain.RiskStockout, row.Risk)
	require.NotNil(t, row.DaysOfCover)
	assert.InDelta(t, 0.4, *row.DaysOfCover, 1e-9)

	assert.Equal(t, int64(700), plan.Summary.TotalUnits)
	assert.Equal(t, 1, plan.Summary.PairCount)
	assert.Equal(t, 1, plan.Summary.RiskCounts[domain.RiskStockout])
}

func TestGetPlanZeroDemandCoverIsNull(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedScope("org-1", []string{"S1"}, []string{"K1"})
	_, err := f.ledger.SeedInventory(ctx, "org-1", []domain.InventoryLevel{
		{StoreID: "S1", SKUID: "K1", OnHand: 10},
	})
	require.NoError(t, err)

	plan, err := f.plan.GetPlan(ctx, "org-1", domain.PlanFilter{})
	require.NoError(t, err)
	require.Len(t, plan.Rows, 1)
	assert.Equal(t, domain.RiskLowDemand, plan.Rows[0].Risk)
	assert.Nil(t, plan.Rows[0].DaysOfCover)
	assert.Equal(t, int64(0), plan.Rows[0].SuggestedQty)
}

func TestGetPlanScopeFiltersInventory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedScope("org-1", []string{"S1"}, []string{"K1"})
	_, err := f.ledger.SeedInventory(ctx, "org-1", []domain.InventoryLevel{
		{StoreID: "S1", SKUID: "K1", OnHand: 10},
		{StoreID: "S2", SKUID: "K1", OnHand: 10},
		{StoreID: "S1", SKUID: "K2", OnHand: 10},
	})
	require.NoError(t, err)

	plan, err := f.plan.GetPlan(ctx, "org-1", domain.PlanFilter{})
	require.NoError(t, err)
	require.Len(t, plan.Rows, 1)
	assert.Equal(t, "S1", plan.Rows[0].StoreID)
	assert.Equal(t, "K1", plan.Rows[0].SKUID)
}

func TestGetPlanEmptyScopeBlocksEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ledger.SeedInventory(ctx, "org-1", []domain.InventoryLevel{
		{StoreID: "S1", SKUID: "K1", OnHand: 10},
	})
	require.NoError(t, err)

	plan, err := f.plan.GetPlan(ctx, "org-1", domain.PlanFilter{})
	require.NoError(t, err)
	assert.Empty(t, plan.Rows)
}

func TestSuggestTransfersPrefersNearestDonor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedScope("org-1", []string{"S1", "S2", "S3"}, []string{"K1"})
	// S1 short of cover, S2 and S3 holding surplus; S1 sells 10/day.
	f.seedSteadyDemand("org-1", "S1", "K1", 10, 14)
	f.planning.SetLeadTimes("org-1", []domain.LeadTime{
		{StoreID: "S1", SKUID: "K1", MeanDays: 3, StdDays: 0},
	})
	f.planning.SetDistances("org-1", []domain.DistanceEdge{
		{FromStore: "S2", ToStore: "S1", DistanceKm: 50},
		{FromStore: "S3", ToStore: "S1", DistanceKm: 5},
	})
	_, err := f.ledger.SeedInventory(ctx, "org-1", []domain.InventoryLevel{
		{StoreID: "S1", SKUID: "K1", OnHand: 0},
		{StoreID: "S2", SKUID: "K1", OnHand: 100},
		{StoreID: "S3", SKUID: "K1", OnHand: 100},
	})
	require.NoError(t, err)

	proposals, err := f.plan.SuggestTransfers(ctx, "org-1", domain.PlanFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, proposals)
	assert.Equal(t, "S3", proposals[0].FromStore)
	assert.Equal(t, "S1", proposals[0].ToStore)
	require.NotNil(t, proposals[0].DistanceKm)
	assert.InDelta(t, 5.0, *proposals[0].DistanceKm, 1e-9)
}

func TestProjectFutureReflectsConfirmedDecisions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedScope("org-1", []string{"S1", "S2"}, []string{"K1"})
	f.seedSteadyDemand("org-1", "S2", "K1", 10, 14)
	f.planning.SetLeadTimes("org-1", []domain.LeadTime{
		{StoreID: "S2", SKUID: "K1", MeanDays: 3, StdDays: 0},
	})
	_, err := f.ledger.SeedInventory(ctx, "org-1", []domain.InventoryLevel{
		{StoreID: "S1", SKUID: "K1", OnHand: 100},
		{StoreID: "S2", SKUID: "K1", OnHand: 0},
	})
	require.NoError(t, err)

	_, err = f.led.ApplyTransfers(ctx, "org-1", []domain.TransferRow{
		{FromStore: "S1", ToStore: "S2", SKUID: "K1", Qty: 60},
	}, "ops", "plan-1")
	require.NoError(t, err)

	proj, err := f.plan.ProjectFuture(ctx, "org-1", false, domain.PlanFilter{})
	require.NoError(t, err)
	require.Len(t, proj.Rows, 2)

	byStore := map[string]domain.ProjectedRow{}
	for _, r := range proj.Rows {
		byStore[r.StoreID] = r
	}
	// The ledger already moved the stock; the replay doubles the move on
	// purpose, it answers "what do the confirmed decisions do to a given
	// snapshot", not "what happens next".
	assert.Equal(t, int64(40), byStore["S1"].Before)
	assert.Equal(t, int64(0), byStore["S1"].AfterTransfers)
	assert.Equal(t, int64(60), byStore["S2"].Before)
	assert.Equal(t, int64(120), byStore["S2"].AfterTransfers)
	assert.Nil(t, byStore["S1"].AfterOrders)
}

func TestProjectFutureIncludeOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedScope("org-1", []string{"S1"}, []string{"K1"})
	_, err := f.ledger.SeedInventory(ctx, "org-1", []domain.InventoryLevel{
		{StoreID: "S1", SKUID: "K1", OnHand: 5},
	})
	require.NoError(t, err)

	_, err = f.led.ApplyOrders(ctx, "org-1", []domain.OrderRow{
		{StoreID: "S1", SKUID: "K1", Qty: 40},
	}, "ops", "plan-1")
	require.NoError(t, err)

	proj, err := f.plan.ProjectFuture(ctx, "org-1", true, domain.PlanFilter{})
	require.NoError(t, err)
	require.Len(t, proj.Rows, 1)
	require.NotNil(t, proj.Rows[0].AfterOrders)
	// Snapshot is already 45 after the apply; the replay adds the confirmed
	// order once more.
	assert.Equal(t, int64(45), proj.Rows[0].Before)
	assert.Equal(t, int64(85), *proj.Rows[0].AfterOrders)
	assert.Equal(t, int64(40), proj.Rows[0].Delta)
}
