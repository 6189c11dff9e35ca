package engine

import (
	"fmt"
	"math"
)

// zTable maps service-level percentiles to normal z-scores. Lookups
// interpolate linearly between anchors; inputs are clamped to the table
// bounds.
var zTable = []struct {
	p float64
	z float64
}{
	{0.80, 0.8416},
	{0.85, 1.036},
	{0.90, 1.2816},
	{0.95, 1.6449},
	{0.975, 1.96},
	{0.98, 2.054},
	{0.99, 2.3263},
}

// ZFromServiceLevel converts a service-level target into a z-score via
// piecewise-linear interpolation over the fixed anchor table.
func ZFromServiceLevel(p float64) float64 {
	if p < zTable[0].p {
		p = zTable[0].p
	}
	if p > zTable[len(zTable)-1].p {
		p = zTable[len(zTable)-1].p
	}
	if p <= zTable[0].p {
		return zTable[0].z
	}
	if p >= zTable[len(zTable)-1].p {
		return zTable[len(zTable)-1].z
	}
	for i := 0; i < len(zTable)-1; i++ {
		p0, z0 := zTable[i].p, zTable[i].z
		p1, z1 := zTable[i+1].p, zTable[i+1].z
		if p0 <= p && p <= p1 {
			t := (p - p0) / (p1 - p0)
			return z0 + t*(z1-z0)
		}
	}
	return 1.6449
}

// ReorderParams are the global reorder-model knobs.
type ReorderParams struct {
	ServiceLevel  float64
	OrderUpFactor float64
}

// ReorderPoint holds the outputs of the ROP/S model for one row.
type ReorderPoint struct {
	ROP     float64
	SLevel  float64
	MuLT    float64
	SigmaLT float64
	Z       float64
}

// ComputeROPS evaluates the reorder-point / order-up-to model. Negative
// inputs are coerced to zero; the function never fails on bad data.
func ComputeROPS(avgDailySales, ltMean, ltStd float64, p ReorderParams) ReorderPoint {
	avgDailySales = math.Max(0, coerce(avgDailySales))
	ltMean = math.Max(0, coerce(ltMean))
	ltStd = math.Max(0, coerce(ltStd))

	z := ZFromServiceLevel(p.ServiceLevel)
	muLT := avgDailySales * ltMean
	sigmaLT := avgDailySales * ltStd
	rop := muLT + z*sigmaLT
	s := rop + p.OrderUpFactor*muLT

	return ReorderPoint{
		ROP:     math.Max(0, rop),
		SLevel:  math.Max(0, s),
		MuLT:    muLT,
		SigmaLT: sigmaLT,
		Z:       z,
	}
}

// SuggestedQty is the order quantity lifting on-hand up to S, floored at zero.
func SuggestedQty(sLevel float64, onHand int64) int64 {
	qty := math.Ceil(sLevel - float64(onHand))
	if qty < 0 {
		return 0
	}
	return int64(qty)
}

// ExplainOrder renders the human-readable rationale attached to each row.
func ExplainOrder(onHand int64, rop, sLevel float64, qty int64) string {
	if qty > 0 {
		return fmt.Sprintf("on hand %d < ROP %.1f, order up to S %.1f (qty %d)", onHand, rop, sLevel, qty)
	}
	return fmt.Sprintf("stock sufficient (on hand %d >= ROP %.1f)", onHand, rop)
}

// coerce maps NaN and infinities to zero so a bad upstream row degrades
// instead of poisoning the whole table.
func coerce(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
