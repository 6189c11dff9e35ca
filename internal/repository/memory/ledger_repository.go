package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/restoklabs/restok/backend-go/internal/domain"
	"github.com/restoklabs/restok/backend-go/internal/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

type levelKey struct {
	OrgID   string
	StoreID string
	SKUID   string
}

// LedgerRepo is an in-memory inventory ledger with the same semantics as
// the PostgreSQL implementation. A single mutex plays the role of the row
// transaction: the idempotency check, the conditional decrement and the
// credit are one atomic step.
type LedgerRepo struct {
	mu        sync.Mutex
	levels    map[levelKey]int64
	orders    []domain.OrderRecord
	transfers []domain.TransferRecord
	orderKeys map[string]bool
	xferKeys  map[string]bool
	nextID    int64
}

func NewLedgerRepository() *LedgerRepo {
	return &LedgerRepo{
		levels:    make(map[levelKey]int64),
		orderKeys: make(map[string]bool),
		xferKeys:  make(map[string]bool),
		nextID:    1,
	}
}

func orderUniq(orgID, storeID, skuID, idemKey string) string {
	return orgID + "\x00" + storeID + "\x00" + skuID + "\x00" + idemKey
}

func transferUniq(orgID, from, to, skuID, idemKey string) string {
	return orgID + "\x00" + from + "\x00" + to + "\x00" + skuID + "\x00" + idemKey
}

func (r *LedgerRepo) ApplyOrders(ctx context.Context, orgID string, rows []domain.OrderRow, approvedBy, idemPrefix string) (domain.OrderApplyResult, error) {
	var res domain.OrderApplyResult

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range rows {
		if row.Qty <= 0 {
			continue
		}
		idemKey := repository.OrderIdemKey(idemPrefix, row.StoreID, row.SKUID)
		uniq := orderUniq(orgID, row.StoreID, row.SKUID, idemKey)
		if r.orderKeys[uniq] {
			res.Duplicate++
			continue
		}

		r.orderKeys[uniq] = true
		r.orders = append(r.orders, domain.OrderRecord{
			ID:         r.nextID,
			OrgID:      orgID,
			StoreID:    row.StoreID,
			SKUID:      row.SKUID,
			Qty:        row.Qty,
			ApprovedBy: approvedBy,
			ApprovedAt: time.Now().UTC(),
			IdemKey:    idemKey,
		})
		r.nextID++

		r.levels[levelKey{orgID, row.StoreID, row.SKUID}] += row.Qty
		res.New++
		res.Applied = append(res.Applied, row)
	}
	return res, nil
}

func (r *LedgerRepo) ApplyTransfers(ctx context.Context, orgID string, rows []domain.TransferRow, approvedBy, idemPrefix string) (domain.TransferApplyResult, error) {
	var res domain.TransferApplyResult

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range rows {
		if row.Qty <= 0 || row.FromStore == row.ToStore {
			continue
		}
		idemKey := repository.TransferIdemKey(idemPrefix, row.FromStore, row.ToStore, row.SKUID)
		uniq := transferUniq(orgID, row.FromStore, row.ToStore, row.SKUID, idemKey)
		if r.xferKeys[uniq] {
			res.Duplicate++
			continue
		}

		// The approval is durable regardless of whether stock moves.
		r.xferKeys[uniq] = true
		r.transfers = append(r.transfers, domain.TransferRecord{
			ID:         r.nextID,
			OrgID:      orgID,
			FromStore:  row.FromStore,
			ToStore:    row.ToStore,
			SKUID:      row.SKUID,
			Qty:        row.Qty,
			ApprovedBy: approvedBy,
			ApprovedAt: time.Now().UTC(),
			IdemKey:    idemKey,
		})
		r.nextID++

		fromKey := levelKey{orgID, row.FromStore, row.SKUID}
		toKey := levelKey{orgID, row.ToStore, row.SKUID}
		if _, ok := r.levels[fromKey]; !ok {
			r.levels[fromKey] = 0
		}
		if _, ok := r.levels[toKey]; !ok {
			r.levels[toKey] = 0
		}

		if r.levels[fromKey] < row.Qty {
			res.Insufficient++
			continue
		}
		r.levels[fromKey] -= row.Qty
		r.levels[toKey] += row.Qty
		res.Applied++
		res.AppliedRows = append(res.AppliedRows, row)
	}
	return res, nil
}

func (r *LedgerRepo) SeedInventory(ctx context.Context, orgID string, rows []domain.InventoryLevel) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, row := range rows {
		if row.OnHand < 0 {
			continue
		}
		r.levels[levelKey{orgID, row.StoreID, row.SKUID}] = row.OnHand
		count++
	}
	return count, nil
}

func (r *LedgerRepo) FetchInventoryLevels(ctx context.Context, orgID string, storeIDs, skuIDs []string) ([]domain.InventoryLevel, error) {
	storeSet := toSet(storeIDs)
	skuSet := toSet(skuIDs)

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.InventoryLevel
	for k, onHand := range r.levels {
		if k.OrgID != orgID {
			continue
		}
		if len(storeSet) > 0 && !storeSet[k.StoreID] {
			continue
		}
		if len(skuSet) > 0 && !skuSet[k.SKUID] {
			continue
		}
		out = append(out, domain.InventoryLevel{
			OrgID:   k.OrgID,
			StoreID: k.StoreID,
			SKUID:   k.SKUID,
			OnHand:  onHand,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StoreID != out[j].StoreID {
			return out[i].StoreID < out[j].StoreID
		}
		return out[i].SKUID < out[j].SKUID
	})
	return out, nil
}

func (r *LedgerRepo) ConfirmedOrders(ctx context.Context, orgID string) ([]domain.OrderRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.OrderRecord
	for _, rec := range r.orders {
		if rec.OrgID == orgID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *LedgerRepo) ConfirmedTransfers(ctx context.Context, orgID string) ([]domain.TransferRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.TransferRecord
	for _, rec := range r.transfers {
		if rec.OrgID == orgID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func toSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
