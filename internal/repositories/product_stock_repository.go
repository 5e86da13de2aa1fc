package repositories

import (
	"context"
	"errors"
	"fmt"

	"trade-backend/internal/models"
	"trade-backend/internal/stock"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductStockRepository struct {
	DB *pgxpool.Pool
}

func NewProductStockRepository(db *pgxpool.Pool) *ProductStockRepository {
	return &ProductStockRepository{DB: db}
}

// GetByProduct retrieves the stock record for a product by name.
func (r *ProductStockRepository) GetByProduct(ctx context.Context, productName string) (*models.ProductStock, error) {
	query := `
		SELECT id, product_name, available_cartons, available_pieces,
		       broken_carton_pieces, units_per_carton, created_at, updated_at
		FROM product_stocks
		WHERE product_name = $1
	`

	s := &models.ProductStock{}
	err := r.DB.QueryRow(ctx, query, productName).Scan(
		&s.ID, &s.ProductName, &s.AvailableCartons, &s.AvailablePieces,
		&s.BrokenCartonPieces, &s.UnitsPerCarton, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// List retrieves all stock records ordered by product name.
func (r *ProductStockRepository) List(ctx context.Context) ([]models.ProductStock, error) {
	query := `
		SELECT id, product_name, available_cartons, available_pieces,
		       broken_carton_pieces, units_per_carton, created_at, updated_at
		FROM product_stocks
		ORDER BY product_name
	`

	rows, err := r.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stocks []models.ProductStock
	for rows.Next() {
		var s models.ProductStock
		if err := rows.Scan(
			&s.ID, &s.ProductName, &s.AvailableCartons, &s.AvailablePieces,
			&s.BrokenCartonPieces, &s.UnitsPerCarton, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		stocks = append(stocks, s)
	}
	return stocks, rows.Err()
}

// Receive adds inward stock and appends the movement row in one transaction.
// The row is created on first receipt. For existing rows the update is
// guarded by the previously read counters so a concurrent writer cannot be
// silently overwritten.
func (r *ProductStockRepository) Receive(ctx context.Context, st *models.ProductStock, prev stock.Counters, mv *models.StockMovement) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO product_stocks
			(product_name, available_cartons, available_pieces, broken_carton_pieces, units_per_carton)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (product_name) DO UPDATE SET
			available_cartons = EXCLUDED.available_cartons,
			available_pieces = EXCLUDED.available_pieces,
			broken_carton_pieces = EXCLUDED.broken_carton_pieces,
			units_per_carton = EXCLUDED.units_per_carton,
			updated_at = NOW()
		WHERE product_stocks.available_cartons = $6
		  AND product_stocks.available_pieces = $7
		  AND product_stocks.broken_carton_pieces = $8`,
		st.ProductName, st.AvailableCartons, st.AvailablePieces,
		st.BrokenCartonPieces, st.UnitsPerCarton,
		prev.AvailableCartons, prev.AvailablePieces, prev.BrokenCartonPieces,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert product stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStockConflict
	}

	if err := insertMovement(ctx, tx, mv); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
