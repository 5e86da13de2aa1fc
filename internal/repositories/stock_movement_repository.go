package repositories

import (
	"context"
	"fmt"

	"trade-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StockMovementRepository struct {
	DB *pgxpool.Pool
}

func NewStockMovementRepository(db *pgxpool.Pool) *StockMovementRepository {
	return &StockMovementRepository{DB: db}
}

// insertMovement appends one ledger row inside an existing transaction. Both
// the challan and the stock repository call this so every mutation lands in
// the same commit as its movement record.
func insertMovement(ctx context.Context, tx pgx.Tx, mv *models.StockMovement) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO stock_movements
			(product_name, movement_type, carton_change, piece_change, cartons_broken,
			 resulting_cartons, resulting_pieces, resulting_broken,
			 reference_type, reference_no, created_by_user_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`,
		mv.ProductName, mv.MovementType, mv.CartonChange, mv.PieceChange, mv.CartonsBroken,
		mv.ResultingCartons, mv.ResultingPieces, mv.ResultingBroken,
		mv.ReferenceType, mv.ReferenceNo, mv.CreatedByUserID, mv.Notes,
	).Scan(&mv.ID, &mv.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append stock movement: %w", err)
	}
	return nil
}

// ListByProduct returns the movement history for a product, newest first.
func (r *StockMovementRepository) ListByProduct(ctx context.Context, productName string, limit int) ([]models.StockMovement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, product_name, movement_type, carton_change, piece_change, cartons_broken,
		       resulting_cartons, resulting_pieces, resulting_broken,
		       reference_type, reference_no, created_by_user_id, created_at, notes
		FROM stock_movements
		WHERE product_name = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.DB.Query(ctx, query, productName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []models.StockMovement
	for rows.Next() {
		var mv models.StockMovement
		if err := rows.Scan(
			&mv.ID, &mv.ProductName, &mv.MovementType, &mv.CartonChange, &mv.PieceChange,
			&mv.CartonsBroken, &mv.ResultingCartons, &mv.ResultingPieces, &mv.ResultingBroken,
			&mv.ReferenceType, &mv.ReferenceNo, &mv.CreatedByUserID, &mv.CreatedAt, &mv.Notes,
		); err != nil {
			return nil, err
		}
		movements = append(movements, mv)
	}
	return movements, rows.Err()
}
