// Package loader parses the CSV planning tables into domain rows. It is
// deliberately database-free; cmd/seed owns the inserts.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/restoklabs/restok/backend-go/internal/domain"
)

const dateLayout = "2006-01-02"

type header map[string]int

func readHeader(reader *csv.Reader, required ...string) (header, error) {
	row, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	h := make(header, len(row))
	for i, col := range row {
		h[strings.TrimSpace(strings.ToLower(col))] = i
	}
	for _, col := range required {
		if _, ok := h[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}
	return h, nil
}

func (h header) get(record []string, col string) string {
	idx, ok := h[col]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func eachRecord(reader *csv.Reader, fn func(record []string) error) error {
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read CSV record: %w", err)
		}
		line++
		if err := fn(record); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
}

// LoadSales parses the daily sales table. Expected columns: sale_date,
// store_id, sku_id, units_sold.
func LoadSales(r io.Reader) ([]domain.SalesRow, error) {
	reader := csv.NewReader(r)
	h, err := readHeader(reader, "sale_date", "store_id", "sku_id", "units_sold")
	if err != nil {
		return nil, err
	}

	var rows []domain.SalesRow
	err = eachRecord(reader, func(record []string) error {
		date, err := time.Parse(dateLayout, h.get(record, "sale_date"))
		if err != nil {
			return fmt.Errorf("invalid sale_date: %w", err)
		}
		units, err := strconv.ParseFloat(h.get(record, "units_sold"), 64)
		if err != nil {
			return fmt.Errorf("invalid units_sold: %w", err)
		}
		rows = append(rows, domain.SalesRow{
			Date:      date,
			StoreID:   h.get(record, "store_id"),
			SKUID:     h.get(record, "sku_id"),
			UnitsSold: units,
		})
		return nil
	})
	return rows, err
}

// LoadInventory parses the inventory snapshot. Expected columns: store_id,
// sku_id, on_hand.
func LoadInventory(r io.Reader) ([]domain.InventoryLevel, error) {
	reader := csv.NewReader(r)
	h, err := readHeader(reader, "store_id", "sku_id", "on_hand")
	if err != nil {
		return nil, err
	}

	var rows []domain.InventoryLevel
	err = eachRecord(reader, func(record []string) error {
		onHand, err := strconv.ParseInt(h.get(record, "on_hand"), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid on_hand: %w", err)
		}
		rows = append(rows, domain.InventoryLevel{
			StoreID: h.get(record, "store_id"),
			SKUID:   h.get(record, "sku_id"),
			OnHand:  onHand,
		})
		return nil
	})
	return rows, err
}

// LoadLeadTimes parses supplier lead-time statistics. Expected columns:
// store_id, sku_id, mean_days, std_days.
func LoadLeadTimes(r io.Reader) ([]domain.LeadTime, error) {
	reader := csv.NewReader(r)
	h, err := readHeader(reader, "store_id", "sku_id", "mean_days", "std_days")
	if err != nil {
		return nil, err
	}

	var rows []domain.LeadTime
	err = eachRecord(reader, func(record []string) error {
		mean, err := strconv.ParseFloat(h.get(record, "mean_days"), 64)
		if err != nil {
			return fmt.Errorf("invalid mean_days: %w", err)
		}
		std, err := strconv.ParseFloat(h.get(record, "std_days"), 64)
		if err != nil {
			return fmt.Errorf("invalid std_days: %w", err)
		}
		rows = append(rows, domain.LeadTime{
			StoreID:  h.get(record, "store_id"),
			SKUID:    h.get(record, "sku_id"),
			MeanDays: mean,
			StdDays:  std,
		})
		return nil
	})
	return rows, err
}

// LoadDistances parses the store-distance matrix. Expected columns:
// from_store, to_store, distance_km.
func LoadDistances(r io.Reader) ([]domain.DistanceEdge, error) {
	reader := csv.NewReader(r)
	h, err := readHeader(reader, "from_store", "to_store", "distance_km")
	if err != nil {
		return nil, err
	}

	var rows []domain.DistanceEdge
	err = eachRecord(reader, func(record []string) error {
		km, err := strconv.ParseFloat(h.get(record, "distance_km"), 64)
		if err != nil {
			return fmt.Errorf("invalid distance_km: %w", err)
		}
		rows = append(rows, domain.DistanceEdge{
			FromStore:  h.get(record, "from_store"),
			ToStore:    h.get(record, "to_store"),
			DistanceKm: km,
		})
		return nil
	})
	return rows, err
}

// LoadIDList parses a one-column allow-list table, e.g. the org store or
// SKU maps. The column name is caller-supplied (store_id or sku_id).
func LoadIDList(r io.Reader, column string) ([]string, error) {
	reader := csv.NewReader(r)
	h, err := readHeader(reader, column)
	if err != nil {
		return nil, err
	}

	var ids []string
	seen := make(map[string]bool)
	err = eachRecord(reader, func(record []string) error {
		id := h.get(record, column)
		if id == "" || seen[id] {
			return nil
		}
		seen[id] = true
		ids = append(ids, id)
		return nil
	})
	return ids, err
}
