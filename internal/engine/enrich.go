package engine

import (
	"github.com/restoklabs/restok/backend-go/internal/domain"
)

// Enricher joins demand statistics, inventory and lead times into the
// planning view consumed by the matcher and the approval UI.
type Enricher struct {
	Reorder    ReorderParams
	Classifier Classifier
}

// Enrich produces one row per inventory level, in input order. Pairs with no
// demand stat or lead time are coerced to zero, never rejected: a bad row
// must not block a dashboard render.
func (e Enricher) Enrich(
	inventory []domain.InventoryLevel,
	stats []domain.DemandStat,
	leadTimes []domain.LeadTime,
) []domain.EnrichedRow {
	demand := DemandIndex(stats)
	lt := make(map[pairKey]domain.LeadTime, len(leadTimes))
	for _, l := range leadTimes {
		lt[pairKey{l.StoreID, l.SKUID}] = l
	}

	rows := make([]domain.EnrichedRow, 0, len(inventory))
	for _, inv := range inventory {
		k := pairKey{inv.StoreID, inv.SKUID}
		avg := demand[k]
		ltRow := lt[k]

		// Zero demand degenerates to ROP=S=0 and no suggestion.
		rp := ComputeROPS(avg, ltRow.MeanDays, ltRow.StdDays, e.Reorder)
		qty := SuggestedQty(rp.SLevel, inv.OnHand)

		rows = append(rows, domain.EnrichedRow{
			StoreID:          inv.StoreID,
			SKUID:            inv.SKUID,
			OnHand:           inv.OnHand,
			AvgDailySales:    avg,
			LeadTimeMeanDays: ltRow.MeanDays,
			LeadTimeStdDays:  ltRow.StdDays,
			DaysOfCover:      DaysOfCover(avg, inv.OnHand),
			Risk:             e.Classifier.Classify(avg, inv.OnHand, ltRow.MeanDays),
			ROP:              rp.ROP,
			SLevel:           rp.SLevel,
			SuggestedQty:     qty,
			Explanation:      ExplainOrder(inv.OnHand, rp.ROP, rp.SLevel, qty),
		})
	}
	return rows
}
