package memory

import (
	"context"
	"sync"

	"github.com/restoklabs/restok/backend-go/internal/domain"
	"github.com/restoklabs/restok/backend-go/internal/repository"
)

var _ repository.PlanningRepository = (*PlanningRepo)(nil)

// PlanningRepo holds the planning input tables in memory. Loaded once via
// the Set methods, then read-only from the engine's point of view.
type PlanningRepo struct {
	mu        sync.RWMutex
	sales     map[string][]domain.SalesRow
	leadTimes map[string][]domain.LeadTime
	distances map[string][]domain.DistanceEdge
	scopes    map[string]domain.Scope
}

func NewPlanningRepository() *PlanningRepo {
	return &PlanningRepo{
		sales:     make(map[string][]domain.SalesRow),
		leadTimes: make(map[string][]domain.LeadTime),
		distances: make(map[string][]domain.DistanceEdge),
		scopes:    make(map[string]domain.Scope),
	}
}

func (r *PlanningRepo) SetSales(orgID string, rows []domain.SalesRow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sales[orgID] = append([]domain.SalesRow(nil), rows...)
}

func (r *PlanningRepo) SetLeadTimes(orgID string, rows []domain.LeadTime) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leadTimes[orgID] = append([]domain.LeadTime(nil), rows...)
}

func (r *PlanningRepo) SetDistances(orgID string, rows []domain.DistanceEdge) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.distances[orgID] = append([]domain.DistanceEdge(nil), rows...)
}

func (r *PlanningRepo) SetScope(orgID string, scope domain.Scope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scopes[orgID] = scope
}

// FetchRecentSales trims the org's sales to the trailing window anchored at
// the newest sale date, mirroring the SQL implementation.
func (r *PlanningRepo) FetchRecentSales(ctx context.Context, orgID string, windowDays int) ([]domain.SalesRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := r.sales[orgID]
	if len(rows) == 0 || windowDays <= 0 {
		return append([]domain.SalesRow(nil), rows...), nil
	}

	maxDate := rows[0].Date
	for _, row := range rows[1:] {
		if row.Date.After(maxDate) {
			maxDate = row.Date
		}
	}
	cutoff := maxDate.AddDate(0, 0, -windowDays)

	var out []domain.SalesRow
	for _, row := range rows {
		if row.Date.After(cutoff) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *PlanningRepo) FetchLeadTimes(ctx context.Context, orgID string) ([]domain.LeadTime, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.LeadTime(nil), r.leadTimes[orgID]...), nil
}

func (r *PlanningRepo) FetchDistances(ctx context.Context, orgID string) ([]domain.DistanceEdge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.DistanceEdge(nil), r.distances[orgID]...), nil
}

func (r *PlanningRepo) FetchScope(ctx context.Context, orgID string) (domain.Scope, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scopes[orgID], nil
}
