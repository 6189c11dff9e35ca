package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/restoklabs/restok/backend-go/internal/config"
	"github.com/restoklabs/restok/backend-go/internal/domain"
)

const (
	planKeyPrefix     = "plan:summary"
	planScanBatchSize = 100
)

// PlanCache memoizes replenishment plans per org and filter until a ledger
// mutation invalidates the org's entries.
type PlanCache interface {
	GetPlan(ctx context.Context, orgID string, filter domain.PlanFilter) (*domain.Plan, bool, error)
	SetPlan(ctx context.Context, orgID string, filter domain.PlanFilter, plan *domain.Plan) error
	InvalidateOrg(ctx context.Context, orgID string) error
	InvalidateAll(ctx context.Context) error
}

type redisPlanCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopPlanCache struct{}

func NewPlanCache(cfg config.CacheConfig) (PlanCache, error) {
	if !cfg.Enabled {
		return &noopPlanCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisPlanCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopPlanCache() PlanCache {
	return &noopPlanCache{}
}

func (c *redisPlanCache) GetPlan(ctx context.Context, orgID string, filter domain.PlanFilter) (*domain.Plan, bool, error) {
	key := buildPlanKey(orgID, filter)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var plan domain.Plan
	if err := json.Unmarshal(payload, &plan); err != nil {
		return nil, false, fmt.Errorf("decode plan cache: %w", err)
	}

	return &plan, true, nil
}

func (c *redisPlanCache) SetPlan(ctx context.Context, orgID string, filter domain.PlanFilter, plan *domain.Plan) error {
	key := buildPlanKey(orgID, filter)
	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode plan cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisPlanCache) InvalidateOrg(ctx context.Context, orgID string) error {
	prefix := fmt.Sprintf("%s:%s:", planKeyPrefix, orgID)
	return deleteKeysWithPrefix(ctx, c.client, prefix, planScanBatchSize)
}

func (c *redisPlanCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, planKeyPrefix, planScanBatchSize)
}

func (n *noopPlanCache) GetPlan(ctx context.Context, orgID string, filter domain.PlanFilter) (*domain.Plan, bool, error) {
	return nil, false, nil
}

func (n *noopPlanCache) SetPlan(ctx context.Context, orgID string, filter domain.PlanFilter, plan *domain.Plan) error {
	return nil
}

func (n *noopPlanCache) InvalidateOrg(ctx context.Context, orgID string) error {
	return nil
}

func (n *noopPlanCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildPlanKey(orgID string, filter domain.PlanFilter) string {
	return fmt.Sprintf("%s:%s:%s", planKeyPrefix, orgID, planFilterHash(filter))
}

func planFilterHash(filter domain.PlanFilter) string {
	parts := []string{}

	if len(filter.Stores) > 0 {
		parts = append(parts, "stores="+joinStrings(filter.Stores))
	}
	if len(filter.SKUs) > 0 {
		parts = append(parts, "skus="+joinStrings(filter.SKUs))
	}

	if len(parts) == 0 {
		return "default"
	}

	sort.Strings(parts)
	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func joinStrings(values []string) string {
	c := append([]string(nil), values...)
	for i := range c {
		c[i] = strings.TrimSpace(c[i])
	}
	sort.Strings(c)
	return strings.Join(c, ",")
}
