// backend-go/internal/repository/repository.go
package repository

import (
	"context"
	"fmt"

	"github.com/restoklabs/restok/backend-go/internal/domain"
)

// LedgerRepository is the system of record for on-hand stock. Apply
// operations are idempotent: duplicates, insufficient stock and self
// transfers are business outcomes reported via counters, never errors.
// Only infrastructure failures return a non-nil error.
type LedgerRepository interface {
	// SeedInventory creates or replaces ledger rows from a snapshot. Used
	// once at load time; afterwards the ledger mutates only through applies.
	SeedInventory(ctx context.Context, orgID string, rows []domain.InventoryLevel) (int, error)

	// FetchInventoryLevels returns current levels, optionally narrowed to
	// store/SKU subsets.
	FetchInventoryLevels(ctx context.Context, orgID string, storeIDs, skuIDs []string) ([]domain.InventoryLevel, error)

	// ApplyOrders records approved orders and increments on-hand stock.
	// Re-submission under the same idempotency prefix is a counted no-op.
	ApplyOrders(ctx context.Context, orgID string, rows []domain.OrderRow, approvedBy, idemPrefix string) (domain.OrderApplyResult, error)

	// ApplyTransfers records approved moves and shifts stock between
	// stores. The decrement is conditional on sufficient stock; the record
	// is kept as an audit fact either way.
	ApplyTransfers(ctx context.Context, orgID string, rows []domain.TransferRow, approvedBy, idemPrefix string) (domain.TransferApplyResult, error)

	// ConfirmedOrders returns the append-only order log for projection.
	ConfirmedOrders(ctx context.Context, orgID string) ([]domain.OrderRecord, error)

	// ConfirmedTransfers returns the append-only transfer log.
	ConfirmedTransfers(ctx context.Context, orgID string) ([]domain.TransferRecord, error)
}

// PlanningRepository serves the read-only input tables the decision engine
// consumes.
type PlanningRepository interface {
	FetchRecentSales(ctx context.Context, orgID string, windowDays int) ([]domain.SalesRow, error)
	FetchLeadTimes(ctx context.Context, orgID string) ([]domain.LeadTime, error)
	FetchDistances(ctx context.Context, orgID string) ([]domain.DistanceEdge, error)
	FetchScope(ctx context.Context, orgID string) (domain.Scope, error)
}

// EventRepository is the per-org append-only event log consumed by the
// notification collaborator.
type EventRepository interface {
	Insert(ctx context.Context, orgID, eventType string, payload []byte) (domain.Event, error)
	Poll(ctx context.Context, orgID string, after int64, limit int) ([]domain.Event, int64, error)
}

// OrderIdemKey builds the order idempotency key. The format is part of the
// audit-log contract and must not change.
func OrderIdemKey(prefix, storeID, skuID string) string {
	return fmt.Sprintf("%s:order:%s:%s", prefix, storeID, skuID)
}

// TransferIdemKey builds the transfer idempotency key. Same contract as
// OrderIdemKey.
func TransferIdemKey(prefix, fromStore, toStore, skuID string) string {
	return fmt.Sprintf("%s:transfer:%s:%s:%s", prefix, fromStore, toStore, skuID)
}
