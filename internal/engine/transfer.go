package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/restoklabs/restok/backend-go/internal/domain"
)

const (
	// DefaultDonorCandidates bounds how many donors are considered per
	// receiver.
	DefaultDonorCandidates = 5
	// DefaultMaxPerSKU caps proposals kept per SKU after generation.
	DefaultMaxPerSKU = 20
	// DefaultCostPerUnitKm is the advisory cost coefficient per unit-km.
	DefaultCostPerUnitKm = 0.08
	// DefaultMinBatch is the smallest transferable lot.
	DefaultMinBatch = 1
)

// MatchParams configures the greedy transfer matcher.
type MatchParams struct {
	MaxPerSKU       int
	DonorCandidates int
	MinBatch        int64
	CostPerUnitKm   float64
	AllowedStores   map[string]bool
	AllowedSKUs     map[string]bool
}

func (p MatchParams) withDefaults() MatchParams {
	if p.DonorCandidates <= 0 {
		p.DonorCandidates = DefaultDonorCandidates
	}
	if p.MinBatch <= 0 {
		p.MinBatch = DefaultMinBatch
	}
	if p.CostPerUnitKm <= 0 {
		p.CostPerUnitKm = DefaultCostPerUnitKm
	}
	return p
}

type matchSide struct {
	StoreID string
	SKUID   string
	Qty     int64 // need for receivers, surplus for donors
}

// SuggestTransfers partitions the enriched table into receivers and donors
// and greedily assigns donor surplus to receiver need, nearest donor first
// when a distance matrix is available. The allocation is single-pass and
// non-backtracking: surplus spent on one receiver is not revisited for
// later, unserved need. Advisory output, reviewed by a human.
func SuggestTransfers(enriched []domain.EnrichedRow, distances []domain.DistanceEdge, p MatchParams) []domain.TransferProposal {
	if len(enriched) == 0 {
		return nil
	}
	p = p.withDefaults()

	rows := filterScope(enriched, p)
	if len(rows) == 0 {
		return nil
	}

	var receivers, donors []matchSide
	for _, r := range rows {
		need := truncNonNeg(r.ROP - float64(r.OnHand))
		surplus := truncNonNeg(float64(r.OnHand) - r.SLevel)
		if need > 0 || r.Risk == domain.RiskStockout {
			receivers = append(receivers, matchSide{r.StoreID, r.SKUID, need})
		}
		if surplus > 0 || r.Risk == domain.RiskOverstock {
			donors = append(donors, matchSide{r.StoreID, r.SKUID, surplus})
		}
	}
	if len(receivers) == 0 || len(donors) == 0 {
		return nil
	}

	// Only SKUs present on both sides can produce a match.
	commonSKUs := intersectSKUs(receivers, donors)
	if len(commonSKUs) == 0 {
		return nil
	}

	if len(p.AllowedStores) > 0 {
		distances = scopedDistances(distances, p.AllowedStores)
	}
	distIndex := indexDistances(distances)

	var out []domain.TransferProposal
	for _, sku := range commonSKUs {
		recs := sideForSKU(receivers, sku)
		dons := sideForSKU(donors, sku)

		// Highest-need receiver first; ties keep input order.
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Qty > recs[j].Qty })

		surplusLeft := make(map[string]int64, len(dons))
		for _, d := range dons {
			surplusLeft[d.StoreID] = d.Qty
		}

		var skuRows []domain.TransferProposal
		for _, rec := range recs {
			need := rec.Qty
			if need <= 0 {
				continue
			}
			for _, cand := range nearestDonors(dons, rec.StoreID, distIndex, p.DonorCandidates) {
				if need <= 0 {
					break
				}
				surplus := surplusLeft[cand.StoreID]
				if surplus <= 0 {
					continue
				}
				qty := min64(need, surplus)
				if qty < p.MinBatch {
					continue
				}

				prop := domain.TransferProposal{
					SKUID:     sku,
					FromStore: cand.StoreID,
					ToStore:   rec.StoreID,
					Qty:       qty,
				}
				if cand.HasDistance {
					km := cand.DistanceKm
					prop.DistanceKm = &km
					cost := decimal.NewFromFloat(km * float64(qty) * p.CostPerUnitKm).Round(2)
					prop.CostEst = &cost
				}
				skuRows = append(skuRows, prop)

				need -= qty
				surplusLeft[cand.StoreID] = surplus - qty
			}
		}

		out = append(out, capPerSKU(skuRows, p.MaxPerSKU)...)
	}

	return postFilter(out, p)
}

type donorCandidate struct {
	StoreID     string
	HasDistance bool
	DistanceKm  float64
}

// nearestDonors selects up to k candidate donors for a receiver. With
// distance data the k nearest donors (ascending km, stable ties) are
// chosen, and only donors with a known edge participate; without any edge
// for this receiver the first k donors in table order are used, carrying no
// distance signal.
func nearestDonors(dons []matchSide, receiverStore string, dist map[edgeKey]float64, k int) []donorCandidate {
	if len(dist) > 0 {
		var withEdge []donorCandidate
		for _, d := range dons {
			if km, ok := dist[edgeKey{d.StoreID, receiverStore}]; ok {
				withEdge = append(withEdge, donorCandidate{StoreID: d.StoreID, HasDistance: true, DistanceKm: km})
			}
		}
		if len(withEdge) > 0 {
			sort.SliceStable(withEdge, func(i, j int) bool { return withEdge[i].DistanceKm < withEdge[j].DistanceKm })
			if len(withEdge) > k {
				withEdge = withEdge[:k]
			}
			return withEdge
		}
	}

	n := min(k, len(dons))
	cands := make([]donorCandidate, 0, n)
	for _, d := range dons[:n] {
		cands = append(cands, donorCandidate{StoreID: d.StoreID})
	}
	return cands
}

// capPerSKU keeps at most maxPerSKU rows, preferring smaller distance
// (missing distance sorts last) and larger quantity on ties, while
// preserving generation order among the kept rows.
func capPerSKU(rows []domain.TransferProposal, maxPerSKU int) []domain.TransferProposal {
	if maxPerSKU <= 0 || len(rows) <= maxPerSKU {
		return rows
	}

	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		da, db := sortDistance(rows[order[a]]), sortDistance(rows[order[b]])
		if da != db {
			return da < db
		}
		return rows[order[a]].Qty > rows[order[b]].Qty
	})

	keep := make(map[int]bool, maxPerSKU)
	for _, idx := range order[:maxPerSKU] {
		keep[idx] = true
	}
	kept := make([]domain.TransferProposal, 0, maxPerSKU)
	for i, r := range rows {
		if keep[i] {
			kept = append(kept, r)
		}
	}
	return kept
}

const missingDistance = 1e9

func sortDistance(p domain.TransferProposal) float64 {
	if p.DistanceKm == nil {
		return missingDistance
	}
	return *p.DistanceKm
}

// postFilter re-checks the allow-lists and the from!=to invariant on the
// final rows.
func postFilter(rows []domain.TransferProposal, p MatchParams) []domain.TransferProposal {
	out := rows[:0]
	for _, r := range rows {
		if r.FromStore == r.ToStore {
			continue
		}
		if len(p.AllowedStores) > 0 && (!p.AllowedStores[r.FromStore] || !p.AllowedStores[r.ToStore]) {
			continue
		}
		if len(p.AllowedSKUs) > 0 && !p.AllowedSKUs[r.SKUID] {
			continue
		}
		out = append(out, r)
	}
	return out
}

func filterScope(rows []domain.EnrichedRow, p MatchParams) []domain.EnrichedRow {
	if len(p.AllowedStores) == 0 && len(p.AllowedSKUs) == 0 {
		return rows
	}
	out := make([]domain.EnrichedRow, 0, len(rows))
	for _, r := range rows {
		if len(p.AllowedStores) > 0 && !p.AllowedStores[r.StoreID] {
			continue
		}
		if len(p.AllowedSKUs) > 0 && !p.AllowedSKUs[r.SKUID] {
			continue
		}
		out = append(out, r)
	}
	return out
}

type edgeKey struct {
	From string
	To   string
}

func indexDistances(edges []domain.DistanceEdge) map[edgeKey]float64 {
	idx := make(map[edgeKey]float64, len(edges))
	for _, e := range edges {
		idx[edgeKey{e.FromStore, e.ToStore}] = e.DistanceKm
	}
	return idx
}

func scopedDistances(edges []domain.DistanceEdge, allowed map[string]bool) []domain.DistanceEdge {
	out := make([]domain.DistanceEdge, 0, len(edges))
	for _, e := range edges {
		if allowed[e.FromStore] && allowed[e.ToStore] {
			out = append(out, e)
		}
	}
	return out
}

func intersectSKUs(receivers, donors []matchSide) []string {
	recSKUs := make(map[string]bool, len(receivers))
	for _, r := range receivers {
		recSKUs[r.SKUID] = true
	}
	seen := make(map[string]bool)
	var common []string
	for _, d := range donors {
		if recSKUs[d.SKUID] && !seen[d.SKUID] {
			seen[d.SKUID] = true
			common = append(common, d.SKUID)
		}
	}
	sort.Strings(common)
	return common
}

func sideForSKU(sides []matchSide, sku string) []matchSide {
	var out []matchSide
	for _, s := range sides {
		if s.SKUID == sku {
			out = append(out, s)
		}
	}
	return out
}

func truncNonNeg(v float64) int64 {
	if v <= 0 {
		return 0
	}
	return int64(v)
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
