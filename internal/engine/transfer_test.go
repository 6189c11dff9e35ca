package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restoklabs/restok/backend-go/internal/domain"
)

func receiverRow(store, sku string, onHand int64, rop, sLevel float64) domain.EnrichedRow {
	return domain.EnrichedRow{StoreID: store, SKUID: sku, OnHand: onHand, ROP: rop, SLevel: sLevel, Risk: domain.RiskNormal}
}

func TestSuggestTransfersGreedyAllocation(t *testing.T) {
	// Receiver S1 needs 30; donors S2 (surplus 10) and S3 (surplus 50) in
	// table order, no distance matrix.
	enriched := []domain.EnrichedRow{
		receiverRow("S1", "K1", 0, 30, 40),
		receiverRow("S2", "K1", 30, 10, 20),
		receiverRow("S3", "K1", 70, 10, 20),
	}

	props := SuggestTransfers(enriched, nil, MatchParams{MaxPerSKU: 20})
	require.Len(t, props, 2)

	assert.Equal(t, "S2", props[0].FromStore)
	assert.Equal(t, int64(10), props[0].Qty)
	assert.Equal(t, "S3", props[1].FromStore)
	assert.Equal(t, int64(20), props[1].Qty)
	assert.Equal(t, "S1", props[0].ToStore)
	assert.Equal(t, "S1", props[1].ToStore)

	var total int64
	for _, p := range props {
		total += p.Qty
		assert.Nil(t, p.DistanceKm, "no distance matrix, no distance signal")
		assert.Nil(t, p.CostEst)
	}
	assert.Equal(t, int64(30), total)
}

func TestSuggestTransfersNearestDonorFirst(t *testing.T) {
	enriched := []domain.EnrichedRow{
		receiverRow("S1", "K1", 0, 20, 30),
		receiverRow("S2", "K1", 130, 10, 30), // surplus 100, far
		receiverRow("S3", "K1", 130, 10, 30), // surplus 100, near
	}
	distances := []domain.DistanceEdge{
		{FromStore: "S2", ToStore: "S1", DistanceKm: 80},
		{FromStore: "S3", ToStore: "S1", DistanceKm: 5},
	}

	props := SuggestTransfers(enriched, distances, MatchParams{MaxPerSKU: 20})
	require.Len(t, props, 1)
	assert.Equal(t, "S3", props[0].FromStore)
	assert.Equal(t, int64(20), props[0].Qty)
	require.NotNil(t, props[0].DistanceKm)
	assert.InDelta(t, 5.0, *props[0].DistanceKm, 1e-9)

	// cost = 5 km * 20 units * 0.08 = 8.00
	require.NotNil(t, props[0].CostEst)
	assert.Equal(t, "8", props[0].CostEst.String())
}

func TestSuggestTransfersSurplusNotRevisited(t *testing.T) {
	// Two receivers compete for one donor's surplus of 25; highest need is
	// served first and the allocation never backtracks.
	enriched := []domain.EnrichedRow{
		receiverRow("R1", "K1", 0, 10, 15),
		receiverRow("R2", "K1", 0, 20, 25),
		receiverRow("D1", "K1", 40, 5, 15),
	}

	props := SuggestTransfers(enriched, nil, MatchParams{MaxPerSKU: 20})
	require.Len(t, props, 2)
	assert.Equal(t, "R2", props[0].ToStore, "highest need served first")
	assert.Equal(t, int64(20), props[0].Qty)
	assert.Equal(t, "R1", props[1].ToStore)
	assert.Equal(t, int64(5), props[1].Qty, "only leftover surplus remains")
}

func TestSuggestTransfersSkipsSKUsWithoutBothSides(t *testing.T) {
	enriched := []domain.EnrichedRow{
		receiverRow("S1", "K1", 0, 30, 40),  // need, no donor for K1
		receiverRow("S2", "K2", 100, 5, 20), // surplus, no receiver for K2
	}
	assert.Empty(t, SuggestTransfers(enriched, nil, MatchParams{}))
}

func TestSuggestTransfersRespectsAllowLists(t *testing.T) {
	enriched := []domain.EnrichedRow{
		receiverRow("S1", "K1", 0, 30, 40),
		receiverRow("S2", "K1", 70, 10, 20),
		receiverRow("S3", "K1", 70, 10, 20),
	}
	props := SuggestTransfers(enriched, nil, MatchParams{
		AllowedStores: map[string]bool{"S1": true, "S3": true},
		AllowedSKUs:   map[string]bool{"K1": true},
	})
	require.Len(t, props, 1)
	assert.Equal(t, "S3", props[0].FromStore, "out-of-scope donor filtered before matching")
}

func TestSuggestTransfersEmptyInput(t *testing.T) {
	assert.Empty(t, SuggestTransfers(nil, nil, MatchParams{}))
	assert.Empty(t, SuggestTransfers([]domain.EnrichedRow{}, nil, MatchParams{}))
	// Everything filtered out by scope.
	enriched := []domain.EnrichedRow{receiverRow("S1", "K1", 0, 30, 40)}
	assert.Empty(t, SuggestTransfers(enriched, nil, MatchParams{AllowedStores: map[string]bool{"X": true}}))
}

func TestSuggestTransfersStockoutReceiverWithoutNeed(t *testing.T) {
	// Receiver flagged stockout even though on_hand >= ROP contributes zero
	// need and produces no rows; the flag only widens the receiver set.
	enriched := []domain.EnrichedRow{
		{StoreID: "S1", SKUID: "K1", OnHand: 50, ROP: 40, SLevel: 60, Risk: domain.RiskStockout},
		receiverRow("S2", "K1", 100, 10, 20),
	}
	assert.Empty(t, SuggestTransfers(enriched, nil, MatchParams{}))
}

func TestCapPerSKUKeepsNearestThenLargest(t *testing.T) {
	km := func(v float64) *float64 { return &v }
	rows := []domain.TransferProposal{
		{SKUID: "K1", FromStore: "A", ToStore: "R", Qty: 5, DistanceKm: km(50)},
		{SKUID: "K1", FromStore: "B", ToStore: "R", Qty: 9}, // missing distance sorts last
		{SKUID: "K1", FromStore: "C", ToStore: "R", Qty: 7, DistanceKm: km(10)},
	}

	kept := capPerSKU(rows, 2)
	require.Len(t, kept, 2)
	assert.Equal(t, "A", kept[0].FromStore)
	assert.Equal(t, "C", kept[1].FromStore)
}

func TestDonorCandidateBound(t *testing.T) {
	// Seven donors, one receiver needing more than all surplus combined:
	// only the first five donors in table order are consulted.
	enriched := []domain.EnrichedRow{receiverRow("R", "K1", 0, 100, 120)}
	for _, s := range []string{"D1", "D2", "D3", "D4", "D5", "D6", "D7"} {
		enriched = append(enriched, receiverRow(s, "K1", 15, 0, 5)) // surplus 10 each
	}

	props := SuggestTransfers(enriched, nil, MatchParams{MaxPerSKU: 20})
	require.Len(t, props, 5)
	var total int64
	for i, p := range props {
		assert.Equal(t, enriched[i+1].StoreID, p.FromStore)
		total += p.Qty
	}
	assert.Equal(t, int64(50), total)
}
