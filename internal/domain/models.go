package domain

import (
	"encoding/json"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// SalesRow is a single day of observed sales for a (store, SKU) pair.
type SalesRow struct {
	Date      time.Time `json:"date" db:"sale_date"`
	StoreID   string    `json:"store_id" db:"store_id"`
	SKUID     string    `json:"sku_id" db:"sku_id"`
	UnitsSold float64   `json:"units_sold" db:"units_sold"`
}

// DemandStat is the trailing-window average daily demand for a (store, SKU)
// pair. Recomputed on every planning request, never persisted.
type DemandStat struct {
	StoreID       string  `json:"store_id"`
	SKUID         string  `json:"sku_id"`
	AvgDailySales float64 `json:"avg_daily_sales"`
}

// LeadTime holds supplier replenishment statistics. Externally supplied and
// read-only to the engine.
type LeadTime struct {
	StoreID  string  `json:"store_id" db:"store_id"`
	SKUID    string  `json:"sku_id" db:"sku_id"`
	MeanDays float64 `json:"mean_days" db:"mean_days"`
	StdDays  float64 `json:"std_days" db:"std_days"`
}

// InventoryLevel is the authoritative on-hand quantity for one ledger key.
// Mutated exclusively through order/transfer application.
type InventoryLevel struct {
	OrgID     string    `json:"org_id" db:"org_id"`
	StoreID   string    `json:"store_id" db:"store_id"`
	SKUID     string    `json:"sku_id" db:"sku_id"`
	OnHand    int64     `json:"on_hand" db:"on_hand"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Risk is the categorical stock-risk label for a (store, SKU) pair.
type Risk string

const (
	RiskLowDemand Risk = "low_demand"
	RiskStockout  Risk = "stockout_risk"
	RiskOverstock Risk = "overstock"
	RiskNormal    Risk = "normal"
)

// AllRisks lists every label in reporting order.
var AllRisks = []Risk{RiskStockout, RiskOverstock, RiskLowDemand, RiskNormal}

// EnrichedRow is the per-request planning view joining demand statistics,
// inventory and lead times with the reorder-model outputs.
type EnrichedRow struct {
	StoreID          string  `json:"store_id"`
	SKUID            string  `json:"sku_id"`
	OnHand           int64   `json:"on_hand"`
	AvgDailySales    float64 `json:"avg_daily_sales"`
	LeadTimeMeanDays float64 `json:"lead_time_mean_days"`
	LeadTimeStdDays  float64 `json:"lead_time_std_days"`
	DaysOfCover      float64 `json:"-"`
	Risk             Risk    `json:"risk"`
	ROP              float64 `json:"rop"`
	SLevel           float64 `json:"s_level"`
	SuggestedQty     int64   `json:"suggested_order_qty"`
	Explanation      string  `json:"order_explanation"`
}

// DistanceEdge is one directed entry of the store-distance matrix.
type DistanceEdge struct {
	FromStore  string  `json:"from_store" db:"from_store"`
	ToStore    string  `json:"to_store" db:"to_store"`
	DistanceKm float64 `json:"distance_km" db:"distance_km"`
}

// TransferProposal is a suggested donor-to-receiver stock move. DistanceKm
// and CostEst are nil when no distance signal was available for the pair.
type TransferProposal struct {
	SKUID      string           `json:"sku_id"`
	FromStore  string           `json:"from_store"`
	ToStore    string           `json:"to_store"`
	Qty        int64            `json:"qty"`
	DistanceKm *float64         `json:"distance_km"`
	CostEst    *decimal.Decimal `json:"cost_est"`
}

// OrderRow is one replenishment line submitted for approval.
type OrderRow struct {
	StoreID string `json:"store_id"`
	SKUID   string `json:"sku_id"`
	Qty     int64  `json:"qty"`
}

// TransferRow is one stock-move line submitted for approval.
type TransferRow struct {
	FromStore string `json:"from_store"`
	ToStore   string `json:"to_store"`
	SKUID     string `json:"sku_id"`
	Qty       int64  `json:"qty"`
}

// OrderRecord is the immutable audit fact persisted for an approved order.
type OrderRecord struct {
	ID         int64     `json:"id" db:"id"`
	OrgID      string    `json:"org_id" db:"org_id"`
	StoreID    string    `json:"store_id" db:"store_id"`
	SKUID      string    `json:"sku_id" db:"sku_id"`
	Qty        int64     `json:"qty" db:"qty"`
	ApprovedBy string    `json:"approved_by" db:"approved_by"`
	ApprovedAt time.Time `json:"approved_at" db:"approved_at"`
	IdemKey    string    `json:"idem_key" db:"idem_key"`
}

// TransferRecord is the immutable audit fact persisted for an approved
// transfer. It is written even when the conditional decrement finds
// insufficient stock: the approval is durable, the physical effect is not.
type TransferRecord struct {
	ID         int64     `json:"id" db:"id"`
	OrgID      string    `json:"org_id" db:"org_id"`
	FromStore  string    `json:"from_store" db:"from_store"`
	ToStore    string    `json:"to_store" db:"to_store"`
	SKUID      string    `json:"sku_id" db:"sku_id"`
	Qty        int64     `json:"qty" db:"qty"`
	ApprovedBy string    `json:"approved_by" db:"approved_by"`
	ApprovedAt time.Time `json:"approved_at" db:"approved_at"`
	IdemKey    string    `json:"idem_key" db:"idem_key"`
}

// OrderApplyResult reports per-row outcomes of an order batch. Applied holds
// the exact rows that changed ledger state, for downstream notification
// construction.
type OrderApplyResult struct {
	New       int        `json:"new"`
	Duplicate int        `json:"duplicate"`
	Applied   []OrderRow `json:"applied"`
	Blocked   []OrderRow `json:"blocked,omitempty"`
}

// TransferApplyResult reports per-row outcomes of a transfer batch.
type TransferApplyResult struct {
	Applied      int           `json:"applied"`
	Duplicate    int           `json:"duplicate"`
	Insufficient int           `json:"insufficient"`
	AppliedRows  []TransferRow `json:"applied_rows"`
	Blocked      []TransferRow `json:"blocked,omitempty"`
}

// Scope is the opaque per-org allow-list supplied by the scoping
// collaborator. Rows outside it are partitioned into a blocked set, never
// silently dropped.
type Scope struct {
	Stores map[string]bool `json:"stores"`
	SKUs   map[string]bool `json:"skus"`
}

// AllowsStore reports whether the store is inside scope.
func (s Scope) AllowsStore(storeID string) bool { return s.Stores[storeID] }

// AllowsSKU reports whether the SKU is inside scope.
func (s Scope) AllowsSKU(skuID string) bool { return s.SKUs[skuID] }

// PlanFilter narrows a planning request to a subset of the org's scope.
type PlanFilter struct {
	Stores []string `json:"stores"`
	SKUs   []string `json:"skus"`
}

// PlanRow is the serializable form of EnrichedRow. DaysOfCover is a pointer
// because zero-demand rows have unbounded cover, which JSON cannot carry as
// +Inf; those rows serialize it as null.
type PlanRow struct {
	StoreID          string   `json:"store_id"`
	SKUID            string   `json:"sku_id"`
	OnHand           int64    `json:"on_hand"`
	AvgDailySales    float64  `json:"avg_daily_sales"`
	LeadTimeMeanDays float64  `json:"lead_time_mean_days"`
	LeadTimeStdDays  float64  `json:"lead_time_std_days"`
	DaysOfCover      *float64 `json:"days_of_cover"`
	Risk             Risk     `json:"risk"`
	ROP              float64  `json:"rop"`
	SLevel           float64  `json:"s_level"`
	SuggestedQty     int64    `json:"suggested_order_qty"`
	Explanation      string   `json:"order_explanation"`
}

// AsPlanRow converts the in-memory row to its serializable form.
func (r EnrichedRow) AsPlanRow() PlanRow {
	out := PlanRow{
		StoreID:          r.StoreID,
		SKUID:            r.SKUID,
		OnHand:           r.OnHand,
		AvgDailySales:    r.AvgDailySales,
		LeadTimeMeanDays: r.LeadTimeMeanDays,
		LeadTimeStdDays:  r.LeadTimeStdDays,
		Risk:             r.Risk,
		ROP:              r.ROP,
		SLevel:           r.SLevel,
		SuggestedQty:     r.SuggestedQty,
		Explanation:      r.Explanation,
	}
	if !math.IsInf(r.DaysOfCover, 1) {
		cover := r.DaysOfCover
		out.DaysOfCover = &cover
	}
	return out
}

// Plan is the full replenishment view served to clients and cached between
// ledger mutations.
type Plan struct {
	Rows    []PlanRow   `json:"rows"`
	Summary PlanSummary `json:"summary"`
}

// PlanSummary carries the window KPIs served alongside the enriched table.
type PlanSummary struct {
	WindowDays    int          `json:"window_days"`
	LastDate      string       `json:"last_date"`
	TotalUnits    int64        `json:"total_units"`
	AvgDailyUnits float64      `json:"avg_daily_units"`
	PairCount     int          `json:"sku_store_pairs"`
	RiskCounts    map[Risk]int `json:"risk_counts"`
}

// ProjectedRow is one line of the what-if inventory projection. AfterOrders
// is nil when confirmed orders were excluded from the replay.
type ProjectedRow struct {
	StoreID        string `json:"store_id"`
	SKUID          string `json:"sku_id"`
	Before         int64  `json:"on_hand_before"`
	AfterTransfers int64  `json:"on_hand_after_transfers"`
	AfterOrders    *int64 `json:"on_hand_after_orders,omitempty"`
	Delta          int64  `json:"delta_on_hand"`
}

// Final returns the projected on-hand after every replayed fact.
func (p ProjectedRow) Final() int64 {
	if p.AfterOrders != nil {
		return *p.AfterOrders
	}
	return p.AfterTransfers
}

// ImpactSummary diffs risk-category counts between the current and the
// projected state.
type ImpactSummary struct {
	Before map[Risk]int `json:"before"`
	After  map[Risk]int `json:"after"`
	Delta  map[Risk]int `json:"delta"`
}

// Projection bundles the what-if replay rows with the before/after risk
// impact of the confirmed decisions.
type Projection struct {
	IncludeOrders bool           `json:"include_orders"`
	Rows          []ProjectedRow `json:"rows"`
	Impact        ImpactSummary  `json:"impact"`
}

// Event is one append-only entry of the per-org event log consumed by the
// notification collaborator.
type Event struct {
	ID      int64           `json:"id" db:"id"`
	OrgID   string          `json:"org_id" db:"org_id"`
	TS      time.Time       `json:"ts" db:"ts"`
	Type    string          `json:"type" db:"type"`
	Payload json.RawMessage `json:"payload" db:"payload"`
}
