package engine

import (
	"sort"
	"time"

	"github.com/restoklabs/restok/backend-go/internal/domain"
)

// DefaultWindowDays is the trailing sales window used for demand averaging.
const DefaultWindowDays = 28

type pairKey struct {
	StoreID string
	SKUID   string
}

// DemandStats derives the average daily demand per (store, SKU) pair from a
// trailing window anchored at the most recent sale date. The average is over
// observed sale rows inside the window; pairs with no sales simply do not
// appear and are treated as zero-demand downstream.
func DemandStats(sales []domain.SalesRow, windowDays int) []domain.DemandStat {
	if len(sales) == 0 {
		return nil
	}
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	var lastDate time.Time
	for _, s := range sales {
		if s.Date.After(lastDate) {
			lastDate = s.Date
		}
	}
	cutoff := lastDate.AddDate(0, 0, -windowDays)

	type acc struct {
		sum   float64
		count int
	}
	sums := make(map[pairKey]*acc)
	for _, s := range sales {
		if s.Date.Before(cutoff) {
			continue
		}
		k := pairKey{s.StoreID, s.SKUID}
		a := sums[k]
		if a == nil {
			a = &acc{}
			sums[k] = a
		}
		a.sum += s.UnitsSold
		a.count++
	}

	stats := make([]domain.DemandStat, 0, len(sums))
	for k, a := range sums {
		avg := 0.0
		if a.count > 0 {
			avg = a.sum / float64(a.count)
		}
		if avg < 0 {
			avg = 0
		}
		stats = append(stats, domain.DemandStat{
			StoreID:       k.StoreID,
			SKUID:         k.SKUID,
			AvgDailySales: avg,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].StoreID != stats[j].StoreID {
			return stats[i].StoreID < stats[j].StoreID
		}
		return stats[i].SKUID < stats[j].SKUID
	})
	return stats
}

// DemandIndex builds a lookup map from a stat slice.
func DemandIndex(stats []domain.DemandStat) map[pairKey]float64 {
	idx := make(map[pairKey]float64, len(stats))
	for _, s := range stats {
		idx[pairKey{s.StoreID, s.SKUID}] = s.AvgDailySales
	}
	return idx
}

// Baseline computes the window KPIs reported next to the enriched table:
// total units sold, mean of per-date unit totals, and the number of distinct
// (store, SKU) pairs seen in the window.
func Baseline(sales []domain.SalesRow, windowDays int) domain.PlanSummary {
	summary := domain.PlanSummary{WindowDays: windowDays}
	if len(sales) == 0 {
		return summary
	}
	if windowDays <= 0 {
		summary.WindowDays = DefaultWindowDays
		windowDays = DefaultWindowDays
	}

	var lastDate time.Time
	for _, s := range sales {
		if s.Date.After(lastDate) {
			lastDate = s.Date
		}
	}
	cutoff := lastDate.AddDate(0, 0, -windowDays)

	perDate := make(map[string]float64)
	pairs := make(map[pairKey]bool)
	var total float64
	for _, s := range sales {
		if s.Date.Before(cutoff) {
			continue
		}
		total += s.UnitsSold
		perDate[s.Date.Format("2006-01-02")] += s.UnitsSold
		pairs[pairKey{s.StoreID, s.SKUID}] = true
	}

	var dailySum float64
	for _, v := range perDate {
		dailySum += v
	}
	if len(perDate) > 0 {
		summary.AvgDailyUnits = dailySum / float64(len(perDate))
	}
	summary.LastDate = lastDate.Format("2006-01-02")
	summary.TotalUnits = int64(total)
	summary.PairCount = len(pairs)
	return summary
}
