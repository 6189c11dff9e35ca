package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/restoklabs/restok/backend-go/internal/domain"
	"github.com/restoklabs/restok/backend-go/internal/loader"
	"github.com/restoklabs/restok/backend-go/internal/repository/postgres"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Initialize the schema and import planning tables",
		Commands: []*cli.Command{
			{
				Name:  "schema",
				Usage: "Create the database schema",
				Flags: []cli.Flag{
					newDBURLFlag(),
				},
				Action: runSchema,
			},
			{
				Name:  "import",
				Usage: "Import an org's planning tables from CSV files",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:     "org",
						Usage:    "Org whose tables are being imported",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "data-dir",
						Usage:   "Directory containing the CSV files",
						Value:   "./data",
						EnvVars: []string{"SEED_DATA_DIR"},
					},
				},
				Action: runImport,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openDB(c *cli.Context) (*sql.DB, error) {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func runSchema(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Println("Applying schema...")
	if err := postgres.MigrateConn(c.Context, db); err != nil {
		return err
	}
	log.Println("Schema applied successfully!")
	return nil
}

func runImport(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	orgID := c.String("org")
	dataDir := c.String("data-dir")

	// The tables are independent of each other, so import them in parallel.
	g, ctx := errgroup.WithContext(c.Context)
	g.Go(func() error { return importSales(ctx, db, orgID, filepath.Join(dataDir, "sales.csv")) })
	g.Go(func() error { return importInventory(ctx, db, orgID, filepath.Join(dataDir, "inventory.csv")) })
	g.Go(func() error { return importLeadTimes(ctx, db, orgID, filepath.Join(dataDir, "lead_times.csv")) })
	g.Go(func() error { return importDistances(ctx, db, orgID, filepath.Join(dataDir, "distances.csv")) })
	g.Go(func() error { return importScope(ctx, db, orgID, dataDir) })
	if err := g.Wait(); err != nil {
		return err
	}

	log.Printf("Import for org %s completed successfully!", orgID)
	return nil
}

func importSales(ctx context.Context, db *sql.DB, orgID, path string) error {
	rows, err := loadFile(path, loader.LoadSales)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO sales_daily (org_id, sale_date, store_id, sku_id, units_sold)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (org_id, sale_date, store_id, sku_id)
		DO UPDATE SET units_sold = EXCLUDED.units_sold`

	return insertAll(ctx, db, "sales_daily", path, rows, func(tx *sql.Tx, r domain.SalesRow) error {
		_, err := tx.ExecContext(ctx, query, orgID, r.Date, r.StoreID, r.SKUID, r.UnitsSold)
		return err
	})
}

func importInventory(ctx context.Context, db *sql.DB, orgID, path string) error {
	rows, err := loadFile(path, loader.LoadInventory)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO inventory_levels (org_id, store_id, sku_id, on_hand, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (org_id, store_id, sku_id)
		DO UPDATE SET on_hand = EXCLUDED.on_hand, updated_at = now()`

	return insertAll(ctx, db, "inventory_levels", path, rows, func(tx *sql.Tx, r domain.InventoryLevel) error {
		_, err := tx.ExecContext(ctx, query, orgID, r.StoreID, r.SKUID, r.OnHand)
		return err
	})
}

func importLeadTimes(ctx context.Context, db *sql.DB, orgID, path string) error {
	rows, err := loadFile(path, loader.LoadLeadTimes)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO lead_times (org_id, store_id, sku_id, mean_days, std_days)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (org_id, store_id, sku_id)
		DO UPDATE SET mean_days = EXCLUDED.mean_days, std_days = EXCLUDED.std_days`

	return insertAll(ctx, db, "lead_times", path, rows, func(tx *sql.Tx, r domain.LeadTime) error {
		_, err := tx.ExecContext(ctx, query, orgID, r.StoreID, r.SKUID, r.MeanDays, r.StdDays)
		return err
	})
}

func importDistances(ctx context.Context, db *sql.DB, orgID, path string) error {
	rows, err := loadFile(path, loader.LoadDistances)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO store_distances (org_id, from_store, to_store, distance_km)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (org_id, from_store, to_store)
		DO UPDATE SET distance_km = EXCLUDED.distance_km`

	return insertAll(ctx, db, "store_distances", path, rows, func(tx *sql.Tx, r domain.DistanceEdge) error {
		_, err := tx.ExecContext(ctx, query, orgID, r.FromStore, r.ToStore, r.DistanceKm)
		return err
	})
}

func importScope(ctx context.Context, db *sql.DB, orgID, dataDir string) error {
	storePath := filepath.Join(dataDir, "stores.csv")
	stores, err := loadFile(storePath, func(r io.Reader) ([]string, error) {
		return loader.LoadIDList(r, "store_id")
	})
	if err != nil {
		return err
	}

	skuPath := filepath.Join(dataDir, "skus.csv")
	skus, err := loadFile(skuPath, func(r io.Reader) ([]string, error) {
		return loader.LoadIDList(r, "sku_id")
	})
	if err != nil {
		return err
	}

	if err := insertAll(ctx, db, "org_store_map", storePath, stores, func(tx *sql.Tx, id string) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO org_store_map (org_id, store_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			orgID, id)
		return err
	}); err != nil {
		return err
	}

	return insertAll(ctx, db, "org_sku_map", skuPath, skus, func(tx *sql.Tx, id string) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO org_sku_map (org_id, sku_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			orgID, id)
		return err
	})
}

func loadFile[T any](path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	rows, err := parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return rows, nil
}

// insertAll writes one table's rows inside a single transaction.
func insertAll[T any](ctx context.Context, db *sql.DB, table, path string, rows []T, insert func(*sql.Tx, T) error) error {
	log.Printf("Seeding %s from %s (%d rows)", table, path, len(rows))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, row := range rows {
		if err := insert(tx, row); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", table, err)
	}

	log.Printf("Successfully seeded %s", table)
	return nil
}
