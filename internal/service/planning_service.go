package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/restoklabs/restok/backend-go/internal/cache"
	"github.com/restoklabs/restok/backend-go/internal/config"
	"github.com/restoklabs/restok/backend-go/internal/domain"
	"github.com/restoklabs/restok/backend-go/internal/engine"
	"github.com/restoklabs/restok/backend-go/internal/repository"
)

// PlanningService assembles the read-side views: the enriched replenishment
// plan, transfer suggestions and the what-if projection. It never mutates
// the ledger.
type PlanningService struct {
	planning repository.PlanningRepository
	ledger   repository.LedgerRepository
	cache    cache.PlanCache
	params   config.PlanningConfig
}

func NewPlanningService(
	planning repository.PlanningRepository,
	ledger repository.LedgerRepository,
	cacheImpl cache.PlanCache,
	params config.PlanningConfig,
) *PlanningService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopPlanCache()
	}
	return &PlanningService{
		planning: planning,
		ledger:   ledger,
		cache:    cacheImpl,
		params:   params,
	}
}

func (s *PlanningService) enricher() engine.Enricher {
	return engine.Enricher{
		Reorder: engine.ReorderParams{
			ServiceLevel:  s.params.ServiceLevel,
			OrderUpFactor: s.params.OrderUpFactor,
		},
		Classifier: engine.NewClassifier(s.params.OverstockDays),
	}
}

// planInputs loads everything a plan needs and enriches the in-scope
// inventory. Shared by the plan, transfer and projection views.
type planInputs struct {
	scope    domain.Scope
	sales    []domain.SalesRow
	stats    []domain.DemandStat
	levels   []domain.InventoryLevel
	lead     []domain.LeadTime
	enriched []domain.EnrichedRow
}

func (s *PlanningService) loadInputs(ctx context.Context, orgID string, filter domain.PlanFilter) (*planInputs, error) {
	scope, err := s.planning.FetchScope(ctx, orgID)
	if err != nil {
		return nil, err
	}

	sales, err := s.planning.FetchRecentSales(ctx, orgID, s.params.WindowDays)
	if err != nil {
		return nil, err
	}

	lead, err := s.planning.FetchLeadTimes(ctx, orgID)
	if err != nil {
		return nil, err
	}

	levels, err := s.ledger.FetchInventoryLevels(ctx, orgID, filter.Stores, filter.SKUs)
	if err != nil {
		return nil, err
	}
	levels = engine.ScopeInventory(levels, scope)

	stats := engine.DemandStats(sales, s.params.WindowDays)
	enriched := s.enricher().Enrich(levels, stats, lead)

	return &planInputs{
		scope:    scope,
		sales:    sales,
		stats:    stats,
		levels:   levels,
		lead:     lead,
		enriched: enriched,
	}, nil
}

// GetPlan serves the enriched replenishment table with its window KPIs,
// memoized per org and filter.
func (s *PlanningService) GetPlan(ctx context.Context, orgID string, filter domain.PlanFilter) (*domain.Plan, error) {
	if plan, ok, err := s.cache.GetPlan(ctx, orgID, filter); err == nil && ok {
		return plan, nil
	} else if err != nil {
		log.Warn().Err(err).Str("org_id", orgID).Msg("plan: cache get failed")
	}

	in, err := s.loadInputs(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}

	summary := engine.Baseline(in.sales, s.params.WindowDays)
	summary.RiskCounts = engine.RiskCounts(in.enriched)

	rows := make([]domain.PlanRow, 0, len(in.enriched))
	for _, r := range in.enriched {
		rows = append(rows, r.AsPlanRow())
	}

	plan := &domain.Plan{Rows: rows, Summary: summary}

	if err := s.cache.SetPlan(ctx, orgID, filter, plan); err != nil {
		log.Warn().Err(err).Str("org_id", orgID).Msg("plan: cache set failed")
	}

	return plan, nil
}

// SuggestTransfers runs the greedy matcher over the current plan state.
func (s *PlanningService) SuggestTransfers(ctx context.Context, orgID string, filter domain.PlanFilter) ([]domain.TransferProposal, error) {
	in, err := s.loadInputs(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}

	distances, err := s.planning.FetchDistances(ctx, orgID)
	if err != nil {
		return nil, err
	}

	proposals := engine.SuggestTransfers(in.enriched, distances, engine.MatchParams{
		MaxPerSKU:       s.params.MaxPerSKU,
		DonorCandidates: s.params.DonorCandidates,
		CostPerUnitKm:   s.params.CostPerUnitKm,
		AllowedStores:   in.scope.Stores,
		AllowedSKUs:     in.scope.SKUs,
	})
	return proposals, nil
}

// ProjectFuture replays the confirmed decision log over the current ledger
// snapshot and reports how the risk profile would shift.
func (s *PlanningService) ProjectFuture(ctx context.Context, orgID string, includeOrders bool, filter domain.PlanFilter) (*domain.Projection, error) {
	in, err := s.loadInputs(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}

	transfers, err := s.ledger.ConfirmedTransfers(ctx, orgID)
	if err != nil {
		return nil, err
	}

	var orders []domain.OrderRecord
	if includeOrders {
		orders, err = s.ledger.ConfirmedOrders(ctx, orgID)
		if err != nil {
			return nil, err
		}
	}

	rows := engine.Project(in.levels, transfers, orders, includeOrders)

	after := s.enricher().Enrich(engine.ProjectedLevels(orgID, rows), in.stats, in.lead)
	impact := engine.Impact(engine.RiskCounts(in.enriched), engine.RiskCounts(after))

	return &domain.Projection{
		IncludeOrders: includeOrders,
		Rows:          rows,
		Impact:        impact,
	}, nil
}

// InventoryLevels exposes the raw in-scope ledger state.
func (s *PlanningService) InventoryLevels(ctx context.Context, orgID string, filter domain.PlanFilter) ([]domain.InventoryLevel, error) {
	scope, err := s.planning.FetchScope(ctx, orgID)
	if err != nil {
		return nil, err
	}
	levels, err := s.ledger.FetchInventoryLevels(ctx, orgID, filter.Stores, filter.SKUs)
	if err != nil {
		return nil, err
	}
	return engine.ScopeInventory(levels, scope), nil
}
