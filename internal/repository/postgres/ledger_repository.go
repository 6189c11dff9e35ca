package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/restoklabs/restok/backend-go/internal/domain"
	"github.com/restoklabs/restok/backend-go/internal/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// errDuplicateKey marks a unique-constraint hit inside a row transaction so
// the caller can roll back and count it instead of failing the batch.
var errDuplicateKey = errors.New("duplicate idempotency key")

// LedgerRepo implements the inventory ledger over PostgreSQL. Each batch row
// runs in its own transaction (record insert + ledger update), so one row's
// business outcome never rolls back its neighbors.
type LedgerRepo struct {
	db *DB
}

func NewLedgerRepository(db *DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

const (
	qInsertOrder = `
		INSERT INTO orders_confirmed (org_id, store_id, sku_id, qty, approved_by, idem_key)
		VALUES ($1, $2, $3, $4, $5, $6)`

	qInsertTransfer = `
		INSERT INTO transfers_confirmed (org_id, from_store, to_store, sku_id, qty, approved_by, idem_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	qEnsureLevel = `
		INSERT INTO inventory_levels (org_id, store_id, sku_id, on_hand)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (org_id, store_id, sku_id) DO NOTHING`

	qCreditLevel = `
		INSERT INTO inventory_levels (org_id, store_id, sku_id, on_hand)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (org_id, store_id, sku_id)
		DO UPDATE SET on_hand = inventory_levels.on_hand + EXCLUDED.on_hand, updated_at = now()`

	// The on_hand >= qty predicate is the only guard against negative
	// stock under concurrent transfers. It must stay a single atomic
	// compare-and-update; a read-then-write pair opens a race window.
	qConditionalDebit = `
		UPDATE inventory_levels
		SET on_hand = on_hand - $4, updated_at = now()
		WHERE org_id = $1 AND store_id = $2 AND sku_id = $3 AND on_hand >= $4`
)

func (r *LedgerRepo) ApplyOrders(ctx context.Context, orgID string, rows []domain.OrderRow, approvedBy, idemPrefix string) (domain.OrderApplyResult, error) {
	var res domain.OrderApplyResult
	for _, row := range rows {
		if row.Qty <= 0 {
			continue
		}
		idemKey := repository.OrderIdemKey(idemPrefix, row.StoreID, row.SKUID)

		err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, qInsertOrder,
				orgID, row.StoreID, row.SKUID, row.Qty, approvedBy, idemKey); err != nil {
				if isUniqueViolation(err) {
					return errDuplicateKey
				}
				return fmt.Errorf("insert order record: %w", err)
			}
			if _, err := tx.ExecContext(ctx, qCreditLevel,
				orgID, row.StoreID, row.SKUID, row.Qty); err != nil {
				return fmt.Errorf("credit inventory: %w", err)
			}
			return nil
		})

		switch {
		case err == nil:
			res.New++
			res.Applied = append(res.Applied, row)
		case errors.Is(err, errDuplicateKey):
			res.Duplicate++
		default:
			return res, err
		}
	}
	return res, nil
}

func (r *LedgerRepo) ApplyTransfers(ctx context.Context, orgID string, rows []domain.TransferRow, approvedBy, idemPrefix string) (domain.TransferApplyResult, error) {
	var res domain.TransferApplyResult
	for _, row := range rows {
		if row.Qty <= 0 || row.FromStore == row.ToStore {
			continue
		}
		idemKey := repository.TransferIdemKey(idemPrefix, row.FromStore, row.ToStore, row.SKUID)

		var insufficient bool
		err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, qInsertTransfer,
				orgID, row.FromStore, row.ToStore, row.SKUID, row.Qty, approvedBy, idemKey); err != nil {
				if isUniqueViolation(err) {
					return errDuplicateKey
				}
				return fmt.Errorf("insert transfer record: %w", err)
			}

			for _, store := range []string{row.FromStore, row.ToStore} {
				if _, err := tx.ExecContext(ctx, qEnsureLevel, orgID, store, row.SKUID); err != nil {
					return fmt.Errorf("ensure ledger row: %w", err)
				}
			}

			dres, err := tx.ExecContext(ctx, qConditionalDebit,
				orgID, row.FromStore, row.SKUID, row.Qty)
			if err != nil {
				return fmt.Errorf("debit source store: %w", err)
			}
			affected, err := dres.RowsAffected()
			if err != nil {
				return fmt.Errorf("debit source store: %w", err)
			}
			if affected == 0 {
				// Insufficient stock: commit anyway so the approval
				// stays on the audit log, but move nothing.
				insufficient = true
				return nil
			}

			if _, err := tx.ExecContext(ctx, qCreditLevel,
				orgID, row.ToStore, row.SKUID, row.Qty); err != nil {
				return fmt.Errorf("credit destination store: %w", err)
			}
			return nil
		})

		switch {
		case err == nil && insufficient:
			res.Insufficient++
		case err == nil:
			res.Applied++
			res.AppliedRows = append(res.AppliedRows, row)
		case errors.Is(err, errDuplicateKey):
			res.Duplicate++
		default:
			return res, err
		}
	}
	return res, nil
}

func (r *LedgerRepo) SeedInventory(ctx context.Context, orgID string, rows []domain.InventoryLevel) (int, error) {
	const q = `
		INSERT INTO inventory_levels (org_id, store_id, sku_id, on_hand)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (org_id, store_id, sku_id)
		DO UPDATE SET on_hand = EXCLUDED.on_hand, updated_at = now()`

	count := 0
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, row := range rows {
			if row.OnHand < 0 {
				continue
			}
			if _, err := tx.ExecContext(ctx, q, orgID, row.StoreID, row.SKUID, row.OnHand); err != nil {
				return fmt.Errorf("seed inventory row: %w", err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *LedgerRepo) FetchInventoryLevels(ctx context.Context, orgID string, storeIDs, skuIDs []string) ([]domain.InventoryLevel, error) {
	query := `
		SELECT org_id, store_id, sku_id, on_hand, updated_at
		FROM inventory_levels
		WHERE org_id = $1`

	args := []interface{}{orgID}
	argCounter := 2

	if len(storeIDs) > 0 {
		query += fmt.Sprintf(" AND store_id = ANY($%d::text[])", argCounter)
		args = append(args, pq.Array(storeIDs))
		argCounter++
	}
	if len(skuIDs) > 0 {
		query += fmt.Sprintf(" AND sku_id = ANY($%d::text[])", argCounter)
		args = append(args, pq.Array(skuIDs))
		argCounter++
	}
	query += " ORDER BY store_id, sku_id"

	var levels []domain.InventoryLevel
	if err := r.db.SelectContext(ctx, &levels, query, args...); err != nil {
		return nil, fmt.Errorf("fetch inventory levels: %w", err)
	}
	return levels, nil
}

func (r *LedgerRepo) ConfirmedOrders(ctx context.Context, orgID string) ([]domain.OrderRecord, error) {
	const q = `
		SELECT id, org_id, store_id, sku_id, qty, approved_by, approved_at, idem_key
		FROM orders_confirmed
		WHERE org_id = $1
		ORDER BY id`

	var records []domain.OrderRecord
	if err := r.db.SelectContext(ctx, &records, q, orgID); err != nil {
		return nil, fmt.Errorf("fetch confirmed orders: %w", err)
	}
	return records, nil
}

func (r *LedgerRepo) ConfirmedTransfers(ctx context.Context, orgID string) ([]domain.TransferRecord, error) {
	const q = `
		SELECT id, org_id, from_store, to_store, sku_id, qty, approved_by, approved_at, idem_key
		FROM transfers_confirmed
		WHERE org_id = $1
		ORDER BY id`

	var records []domain.TransferRecord
	if err := r.db.SelectContext(ctx, &records, q, orgID); err != nil {
		return nil, fmt.Errorf("fetch confirmed transfers: %w", err)
	}
	return records, nil
}
