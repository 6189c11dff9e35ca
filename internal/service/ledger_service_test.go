package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restoklabs/restok/backend-go/internal/domain"
)

func TestApplyOrdersBlocksOutOfScopeRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedScope("org-1", []string{"S1"}, []string{"K1"})
	_, err := f.ledger.SeedInventory(ctx, "org-1", []domain.InventoryLevel{
		{StoreID: "S1", SKUID: "K1", OnHand: 0},
	})
	require.NoError(t, err)

	res, err := f.led.ApplyOrders(ctx, "org-1", []domain.OrderRow{
		{StoreID: "S1", SKUID: "K1", Qty: 10},
		{StoreID: "S9", SKUID: "K1", Qty: 10},
		{StoreID: "S1", SKUID: "K9", Qty: 10},
	}, "ops@acme", "plan-1")
	require.NoError(t, err)

	assert.Equal(t, 1, res.New)
	require.Len(t, res.Blocked, 2)
	assert.Equal(t, "S9", res.Blocked[0].StoreID)
	assert.Equal(t, "K9", res.Blocked[1].SKUID)

	levels, err := f.ledger.FetchInventoryLevels(ctx, "org-1", nil, nil)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, int64(10), levels[0].OnHand)
}

func TestApplyOrdersEmptyScopeBlocksAll(t *testing.T) {
	f := newFixture(t)
	res, err := f.led.ApplyOrders(context.Background(), "org-1", []domain.OrderRow{
		{StoreID: "S1", SKUID: "K1", Qty: 10},
	}, "ops", "plan-1")
	require.NoError(t, err)
	assert.Equal(t, 0, res.New)
	assert.Len(t, res.Blocked, 1)
}

func TestApplyOrdersEmitsEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedScope("org-1", []string{"S1"}, []string{"K1"})

	_, err := f.led.ApplyOrders(ctx, "org-1", []domain.OrderRow{
		{StoreID: "S1", SKUID: "K1", Qty: 10},
		{StoreID: "S9", SKUID: "K1", Qty: 5},
	}, "ops@acme", "plan-1")
	require.NoError(t, err)

	events, _, err := f.led.Events(ctx, "org-1", 0, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventOrdersApplied, events[0].Type)

	var payload orderEventPayload
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.NotEmpty(t, payload.BatchID)
	assert.Equal(t, "ops@acme", payload.ApprovedBy)
	assert.Equal(t, "plan-1", payload.IdemPrefix)
	assert.Equal(t, 1, payload.New)
	assert.Equal(t, 1, payload.Blocked)
}

func TestApplyTransfersScopeChecksBothEndpoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedScope("org-1", []string{"S1", "S2"}, []string{"K1"})
	_, err := f.ledger.SeedInventory(ctx, "org-1", []domain.InventoryLevel{
		{StoreID: "S1", SKUID: "K1", OnHand: 50},
	})
	require.NoError(t, err)

	res, err := f.led.ApplyTransfers(ctx, "org-1", []domain.TransferRow{
		{FromStore: "S1", ToStore: "S2", SKUID: "K1", Qty: 10},
		{FromStore: "S1", ToStore: "S9", SKUID: "K1", Qty: 10},
	}, "ops", "plan-2")
	require.NoError(t, err)

	assert.Equal(t, 1, res.Applied)
	require.Len(t, res.Blocked, 1)
	assert.Equal(t, "S9", res.Blocked[0].ToStore)
}

func TestApplyTransfersEventCountsInsufficient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedScope("org-1", []string{"S1", "S2"}, []string{"K1"})
	_, err := f.ledger.SeedInventory(ctx, "org-1", []domain.InventoryLevel{
		{StoreID: "S1", SKUID: "K1", OnHand: 3},
	})
	require.NoError(t, err)

	res, err := f.led.ApplyTransfers(ctx, "org-1", []domain.TransferRow{
		{FromStore: "S1", ToStore: "S2", SKUID: "K1", Qty: 10},
	}, "ops", "plan-3")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Applied)
	assert.Equal(t, 1, res.Insufficient)

	events, cursor, err := f.led.Events(ctx, "org-1", 0, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventTransfersApplied, events[0].Type)
	assert.Equal(t, events[0].ID, cursor)

	var payload transferEventPayload
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, 1, payload.Insufficient)
	assert.Equal(t, 0, payload.Applied)
	assert.Empty(t, payload.AppliedRows)
}
