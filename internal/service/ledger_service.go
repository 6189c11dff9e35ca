package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/restoklabs/restok/backend-go/internal/cache"
	"github.com/restoklabs/restok/backend-go/internal/domain"
	"github.com/restoklabs/restok/backend-go/internal/engine"
	"github.com/restoklabs/restok/backend-go/internal/repository"
)

const (
	EventOrdersApplied    = "orders_applied"
	EventTransfersApplied = "transfers_applied"
)

// LedgerService is the write side: it gates submissions through the org
// scope, applies them to the ledger and appends a notification event.
type LedgerService struct {
	ledger   repository.LedgerRepository
	planning repository.PlanningRepository
	events   repository.EventRepository
	cache    cache.PlanCache
}

func NewLedgerService(
	ledger repository.LedgerRepository,
	planning repository.PlanningRepository,
	events repository.EventRepository,
	cacheImpl cache.PlanCache,
) *LedgerService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopPlanCache()
	}
	return &LedgerService{
		ledger:   ledger,
		planning: planning,
		events:   events,
		cache:    cacheImpl,
	}
}

type orderEventPayload struct {
	BatchID    string            `json:"batch_id"`
	ApprovedBy string            `json:"approved_by"`
	IdemPrefix string            `json:"idem_prefix"`
	New        int               `json:"new"`
	Duplicate  int               `json:"duplicate"`
	Blocked    int               `json:"blocked"`
	Applied    []domain.OrderRow `json:"applied,omitempty"`
}

type transferEventPayload struct {
	BatchID      string               `json:"batch_id"`
	ApprovedBy   string               `json:"approved_by"`
	IdemPrefix   string               `json:"idem_prefix"`
	Applied      int                  `json:"applied"`
	Duplicate    int                  `json:"duplicate"`
	Insufficient int                  `json:"insufficient"`
	Blocked      int                  `json:"blocked"`
	AppliedRows  []domain.TransferRow `json:"applied_rows,omitempty"`
}

// ApplyOrders filters the submission against the org scope, applies the
// in-scope rows idempotently and reports blocked rows back to the caller.
func (s *LedgerService) ApplyOrders(ctx context.Context, orgID string, rows []domain.OrderRow, approvedBy, idemPrefix string) (domain.OrderApplyResult, error) {
	scope, err := s.planning.FetchScope(ctx, orgID)
	if err != nil {
		return domain.OrderApplyResult{}, err
	}
	valid, blocked := engine.PartitionOrders(rows, scope)

	res, err := s.ledger.ApplyOrders(ctx, orgID, valid, approvedBy, idemPrefix)
	if err != nil {
		return domain.OrderApplyResult{}, err
	}
	res.Blocked = blocked

	s.appendEvent(ctx, orgID, EventOrdersApplied, orderEventPayload{
		BatchID:    uuid.NewString(),
		ApprovedBy: approvedBy,
		IdemPrefix: idemPrefix,
		New:        res.New,
		Duplicate:  res.Duplicate,
		Blocked:    len(blocked),
		Applied:    res.Applied,
	})
	s.invalidate(ctx, orgID)

	return res, nil
}

// ApplyTransfers is the transfer counterpart of ApplyOrders. Insufficient
// stock never fails the batch; it is a counted outcome.
func (s *LedgerService) ApplyTransfers(ctx context.Context, orgID string, rows []domain.TransferRow, approvedBy, idemPrefix string) (domain.TransferApplyResult, error) {
	scope, err := s.planning.FetchScope(ctx, orgID)
	if err != nil {
		return domain.TransferApplyResult{}, err
	}
	valid, blocked := engine.PartitionTransfers(rows, scope)

	res, err := s.ledger.ApplyTransfers(ctx, orgID, valid, approvedBy, idemPrefix)
	if err != nil {
		return domain.TransferApplyResult{}, err
	}
	res.Blocked = blocked

	s.appendEvent(ctx, orgID, EventTransfersApplied, transferEventPayload{
		BatchID:      uuid.NewString(),
		ApprovedBy:   approvedBy,
		IdemPrefix:   idemPrefix,
		Applied:      res.Applied,
		Duplicate:    res.Duplicate,
		Insufficient: res.Insufficient,
		Blocked:      len(blocked),
		AppliedRows:  res.AppliedRows,
	})
	s.invalidate(ctx, orgID)

	return res, nil
}

// Events serves the polling endpoint of the notification feed.
func (s *LedgerService) Events(ctx context.Context, orgID string, after int64, limit int) ([]domain.Event, int64, error) {
	return s.events.Poll(ctx, orgID, after, limit)
}

// The apply already committed; a failed event append or cache invalidation
// degrades notifications and freshness, not correctness.
func (s *LedgerService) appendEvent(ctx context.Context, orgID, eventType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("org_id", orgID).Str("type", eventType).Msg("ledger: encode event payload failed")
		return
	}
	if _, err := s.events.Insert(ctx, orgID, eventType, raw); err != nil {
		log.Error().Err(err).Str("org_id", orgID).Str("type", eventType).Msg("ledger: append event failed")
	}
}

func (s *LedgerService) invalidate(ctx context.Context, orgID string) {
	if err := s.cache.InvalidateOrg(ctx, orgID); err != nil {
		log.Warn().Err(err).Str("org_id", orgID).Msg("ledger: cache invalidation failed")
	}
}
