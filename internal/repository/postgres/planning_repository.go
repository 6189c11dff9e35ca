package postgres

import (
	"context"
	"fmt"

	"github.com/restoklabs/restok/backend-go/internal/domain"
	"github.com/restoklabs/restok/backend-go/internal/repository"
)

var _ repository.PlanningRepository = (*PlanningRepo)(nil)

// PlanningRepo serves the decision engine's read-only input tables.
type PlanningRepo struct {
	db *DB
}

func NewPlanningRepository(db *DB) *PlanningRepo {
	return &PlanningRepo{db: db}
}

// FetchRecentSales returns sales inside the trailing window, anchored at the
// org's most recent sale date rather than the wall clock so stale test data
// still produces a meaningful window.
func (r *PlanningRepo) FetchRecentSales(ctx context.Context, orgID string, windowDays int) ([]domain.SalesRow, error) {
	if windowDays <= 0 {
		windowDays = 28
	}

	const q = `
		SELECT sale_date, store_id, sku_id, units_sold
		FROM sales_daily
		WHERE org_id = $1
		  AND sale_date >= (
			SELECT COALESCE(max(sale_date), CURRENT_DATE) - $2::int
			FROM sales_daily WHERE org_id = $1
		  )
		ORDER BY sale_date, store_id, sku_id`

	var rows []domain.SalesRow
	if err := r.db.SelectContext(ctx, &rows, q, orgID, windowDays); err != nil {
		return nil, fmt.Errorf("fetch recent sales: %w", err)
	}
	return rows, nil
}

func (r *PlanningRepo) FetchLeadTimes(ctx context.Context, orgID string) ([]domain.LeadTime, error) {
	const q = `
		SELECT store_id, sku_id, mean_days, std_days
		FROM lead_times
		WHERE org_id = $1
		ORDER BY store_id, sku_id`

	var rows []domain.LeadTime
	if err := r.db.SelectContext(ctx, &rows, q, orgID); err != nil {
		return nil, fmt.Errorf("fetch lead times: %w", err)
	}
	return rows, nil
}

func (r *PlanningRepo) FetchDistances(ctx context.Context, orgID string) ([]domain.DistanceEdge, error) {
	const q = `
		SELECT from_store, to_store, distance_km
		FROM store_distances
		WHERE org_id = $1
		ORDER BY from_store, to_store`

	var rows []domain.DistanceEdge
	if err := r.db.SelectContext(ctx, &rows, q, orgID); err != nil {
		return nil, fmt.Errorf("fetch store distances: %w", err)
	}
	return rows, nil
}

func (r *PlanningRepo) FetchScope(ctx context.Context, orgID string) (domain.Scope, error) {
	scope := domain.Scope{
		Stores: make(map[string]bool),
		SKUs:   make(map[string]bool),
	}

	var stores []string
	if err := r.db.SelectContext(ctx, &stores,
		`SELECT store_id FROM org_store_map WHERE org_id = $1`, orgID); err != nil {
		return scope, fmt.Errorf("fetch org store map: %w", err)
	}
	for _, s := range stores {
		scope.Stores[s] = true
	}

	var skus []string
	if err := r.db.SelectContext(ctx, &skus,
		`SELECT sku_id FROM org_sku_map WHERE org_id = $1`, orgID); err != nil {
		return scope, fmt.Errorf("fetch org sku map: %w", err)
	}
	for _, s := range skus {
		scope.SKUs[s] = true
	}

	return scope, nil
}
