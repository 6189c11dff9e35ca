package engine

import (
	"github.com/restoklabs/restok/backend-go/internal/domain"
)

// Project replays confirmed transfers (always) and confirmed orders
// (optionally) against an inventory snapshot. It is a read-only what-if: the
// live ledger is never touched, and the replay is independent of whatever
// the ledger already reflects. Transfers subtract from the source clamped at
// zero and add to the destination; rows absent from the snapshot are left
// alone.
func Project(
	snapshot []domain.InventoryLevel,
	transfers []domain.TransferRecord,
	orders []domain.OrderRecord,
	includeOrders bool,
) []domain.ProjectedRow {
	index := make(map[pairKey]int, len(snapshot))
	rows := make([]domain.ProjectedRow, len(snapshot))
	for i, inv := range snapshot {
		rows[i] = domain.ProjectedRow{
			StoreID:        inv.StoreID,
			SKUID:          inv.SKUID,
			Before:         inv.OnHand,
			AfterTransfers: inv.OnHand,
		}
		index[pairKey{inv.StoreID, inv.SKUID}] = i
	}

	for _, t := range transfers {
		if t.Qty <= 0 {
			continue
		}
		if i, ok := index[pairKey{t.FromStore, t.SKUID}]; ok {
			rows[i].AfterTransfers -= t.Qty
			if rows[i].AfterTransfers < 0 {
				rows[i].AfterTransfers = 0
			}
		}
		if i, ok := index[pairKey{t.ToStore, t.SKUID}]; ok {
			rows[i].AfterTransfers += t.Qty
		}
	}

	if includeOrders {
		for i := range rows {
			after := rows[i].AfterTransfers
			rows[i].AfterOrders = &after
		}
		for _, o := range orders {
			if o.Qty <= 0 {
				continue
			}
			if i, ok := index[pairKey{o.StoreID, o.SKUID}]; ok {
				*rows[i].AfterOrders += o.Qty
			}
		}
	}

	for i := range rows {
		rows[i].Delta = rows[i].Final() - rows[i].Before
	}
	return rows
}

// ProjectedLevels converts projection output back into inventory levels so
// the projected state can be re-enriched and re-classified.
func ProjectedLevels(orgID string, rows []domain.ProjectedRow) []domain.InventoryLevel {
	levels := make([]domain.InventoryLevel, len(rows))
	for i, r := range rows {
		levels[i] = domain.InventoryLevel{
			OrgID:   orgID,
			StoreID: r.StoreID,
			SKUID:   r.SKUID,
			OnHand:  r.Final(),
		}
	}
	return levels
}
