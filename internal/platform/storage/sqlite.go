// Package storage persists refresh runs and per product price history.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/milotrack/milo-price-tracker/internal/platform"
	"github.com/milotrack/milo-price-tracker/internal/platform/models"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	query TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	finished_at DATETIME,
	success INTEGER,
	status_message TEXT,
	offers INTEGER,
	rejections INTEGER,
	products INTEGER
);
CREATE TABLE IF NOT EXISTS price_history (
	product_id TEXT NOT NULL,
	product_name TEXT NOT NULL,
	platform TEXT NOT NULL,
	price REAL NOT NULL,
	original_price REAL,
	sale_type TEXT NOT NULL,
	recorded_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_price_history_product
	ON price_history (product_id, recorded_at);
`

// SQLite is the runs and price history store.
type SQLite struct {
	db *sql.DB
}

// Open opens (and if needed bootstraps) the database at path.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("can't create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// StartRun creates a new unfinished run and returns it.
// It returns platform.ErrAlreadyRunning if the previous run for the query
// is not finished yet.
func (s *SQLite) StartRun(ctx context.Context, query string) (*models.Run, error) {
	run := &models.Run{Query: query}

	err := runInTransaction(ctx, s.db, func(tx *sql.Tx) error {
		var unfinished int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM runs WHERE query = ? AND finished_at IS NULL`,
			query,
		).Scan(&unfinished)
		if err != nil {
			return fmt.Errorf("can't get last run: %w", err)
		}
		if unfinished > 0 {
			return platform.ErrAlreadyRunning
		}

		result, err := tx.ExecContext(ctx, `INSERT INTO runs (query) VALUES (?)`, query)
		if err != nil {
			return fmt.Errorf("can't insert run: %w", err)
		}

		run.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("can't read run id: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("can't add run: %w", err)
	}

	return run, nil
}

// FinishRun sets the run as finished and stores its statistics.
func (s *SQLite) FinishRun(ctx context.Context, run *models.Run) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE runs
		 SET finished_at = ?, success = ?, status_message = ?, offers = ?, rejections = ?, products = ?
		 WHERE id = ?`,
		run.FinishedAt, run.IsSuccess, run.StatusMessage, run.Offers, run.Rejections, run.Products, run.ID,
	)
	if err != nil {
		return fmt.Errorf("can't update run: %w", err)
	}

	if rowsAffected, err := result.RowsAffected(); rowsAffected == 0 || err != nil {
		return fmt.Errorf("can't update run: no run with id %d", run.ID)
	}

	return nil
}

// SaveSnapshot records every offer of the snapshot as a price history row.
func (s *SQLite) SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	return runInTransaction(ctx, s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO price_history
			 (product_id, product_name, platform, price, original_price, sale_type, recorded_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		)
		if err != nil {
			return fmt.Errorf("can't prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, product := range snapshot.Products {
			for _, offer := range product.Offers {
				_, err := stmt.ExecContext(ctx,
					product.ID, product.DisplayName, offer.Platform,
					offer.Price, offer.OriginalPrice, string(offer.SaleType), snapshot.CreatedAt,
				)
				if err != nil {
					return fmt.Errorf("can't insert price history: %w", err)
				}
			}
		}

		return nil
	})
}

// PriceHistory returns the most recent price observations for a product,
// newest first.
func (s *SQLite) PriceHistory(ctx context.Context, productID string, limit int) ([]models.PricePoint, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id, platform, price, original_price, sale_type, recorded_at
		 FROM price_history
		 WHERE product_id = ?
		 ORDER BY recorded_at DESC
		 LIMIT ?`,
		productID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("can't query price history: %w", err)
	}
	defer rows.Close()

	var points []models.PricePoint
	for rows.Next() {
		var point models.PricePoint
		var saleType string
		err := rows.Scan(
			&point.ProductID, &point.Platform, &point.Price,
			&point.OriginalPrice, &saleType, &point.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("can't scan price history row: %w", err)
		}
		point.SaleType = models.SaleType(saleType)
		points = append(points, point)
	}

	return points, rows.Err()
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func runInTransaction(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("can't begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
