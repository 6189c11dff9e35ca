package engine

import (
	"github.com/restoklabs/restok/backend-go/internal/domain"
)

// PartitionOrders splits order rows into in-scope and blocked sets. Blocked
// rows are returned for accounting, never silently dropped.
func PartitionOrders(rows []domain.OrderRow, sc domain.Scope) (valid, blocked []domain.OrderRow) {
	for _, r := range rows {
		if sc.AllowsStore(r.StoreID) && sc.AllowsSKU(r.SKUID) {
			valid = append(valid, r)
		} else {
			blocked = append(blocked, r)
		}
	}
	return valid, blocked
}

// PartitionTransfers splits transfer rows against the allow-lists; both
// endpoints must be in scope.
func PartitionTransfers(rows []domain.TransferRow, sc domain.Scope) (valid, blocked []domain.TransferRow) {
	for _, r := range rows {
		if sc.AllowsStore(r.FromStore) && sc.AllowsStore(r.ToStore) && sc.AllowsSKU(r.SKUID) {
			valid = append(valid, r)
		} else {
			blocked = append(blocked, r)
		}
	}
	return valid, blocked
}

// ScopeInventory keeps only levels whose store and SKU are inside scope.
func ScopeInventory(levels []domain.InventoryLevel, sc domain.Scope) []domain.InventoryLevel {
	out := make([]domain.InventoryLevel, 0, len(levels))
	for _, l := range levels {
		if sc.AllowsStore(l.StoreID) && sc.AllowsSKU(l.SKUID) {
			out = append(out, l)
		}
	}
	return out
}
