package repositories

import (
	"context"
	"errors"
	"fmt"

	"trade-backend/internal/models"
	"trade-backend/internal/stock"
	"trade-backend/internal/timeutil"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DeliveryChallanRepository struct {
	DB *pgxpool.Pool
}

func NewDeliveryChallanRepository(db *pgxpool.Pool) *DeliveryChallanRepository {
	return &DeliveryChallanRepository{DB: db}
}

// nextDCNumber computes the next sequential challan number for the calendar
// year, format FGDC-<year>-<NNNN>. Runs inside the caller's transaction; the
// unique index on dc_no turns a concurrent numbering race into ErrDuplicate
// instead of a silent double-issue.
func nextDCNumber(ctx context.Context, tx pgx.Tx, year int) (string, error) {
	var next int
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(SPLIT_PART(dc_no, '-', 3)::int), 0) + 1
		FROM fg_delivery_challans
		WHERE dc_no LIKE $1`,
		fmt.Sprintf("FGDC-%d-%%", year),
	).Scan(&next)
	if err != nil {
		return "", fmt.Errorf("failed to compute next dc number: %w", err)
	}
	return fmt.Sprintf("FGDC-%d-%04d", year, next), nil
}

// updateStockGuarded writes the post-deduction counters, matching only if the
// row still holds the counters we read. Zero rows means a concurrent writer
// got there first.
func updateStockGuarded(ctx context.Context, tx pgx.Tx, productName string, prev stock.Counters, next stock.Counters, unitsPerCarton int) error {
	tag, err := tx.Exec(ctx, `
		UPDATE product_stocks
		SET available_cartons = $1, available_pieces = $2, broken_carton_pieces = $3,
		    units_per_carton = $4, updated_at = NOW()
		WHERE product_name = $5
		  AND available_cartons = $6 AND available_pieces = $7 AND broken_carton_pieces = $8`,
		next.AvailableCartons, next.AvailablePieces, next.BrokenCartonPieces,
		unitsPerCarton, productName,
		prev.AvailableCartons, prev.AvailablePieces, prev.BrokenCartonPieces,
	)
	if err != nil {
		return fmt.Errorf("failed to update product stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStockConflict
	}
	return nil
}

// CreateDispatched persists a new challan as Dispatched together with the
// stock deduction and its movement row in a single transaction. dc.DCNo is
// generated here; dc carries the pre-deduction snapshot, mv the resulting
// counters.
func (r *DeliveryChallanRepository) CreateDispatched(ctx context.Context, dc *models.FinishedGoodsChallan, prev stock.Counters, mv *models.StockMovement, unitsPerCarton int) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	dcNo, err := nextDCNumber(ctx, tx, timeutil.ToIST(dc.DCDate).Year())
	if err != nil {
		return err
	}
	dc.DCNo = dcNo
	dc.Status = models.ChallanStatusDispatched

	err = tx.QueryRow(ctx, `
		INSERT INTO fg_delivery_challans
			(dc_no, dispatch_type, receiver_type, receiver_name, receiver_details,
			 product_name, issue_type, carton_quantity, piece_quantity, status,
			 available_cartons, available_pieces, dc_date, remarks, created_by_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at`,
		dc.DCNo, dc.DispatchType, dc.ReceiverType, dc.ReceiverName, dc.ReceiverDetails,
		dc.ProductName, dc.IssueType, dc.CartonQuantity, dc.PieceQuantity, dc.Status,
		dc.AvailableCartons, dc.AvailablePieces, dc.DCDate, dc.Remarks, dc.CreatedByUserID,
	).Scan(&dc.ID, &dc.CreatedAt, &dc.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert delivery challan: %w", err)
	}

	next := stock.Counters{
		AvailableCartons:   mv.ResultingCartons,
		AvailablePieces:    mv.ResultingPieces,
		BrokenCartonPieces: mv.ResultingBroken,
	}
	if err := updateStockGuarded(ctx, tx, dc.ProductName, prev, next, unitsPerCarton); err != nil {
		return err
	}

	mv.ReferenceNo = dc.DCNo
	if err := insertMovement(ctx, tx, mv); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// MarkDispatched moves a pending challan to Dispatched, applying the same
// guarded stock write and movement append as the create path. The status
// predicate keeps an already-dispatched challan immutable even under races.
func (r *DeliveryChallanRepository) MarkDispatched(ctx context.Context, dc *models.FinishedGoodsChallan, prev stock.Counters, mv *models.StockMovement, unitsPerCarton int) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE fg_delivery_challans
		SET status = $1, available_cartons = $2, available_pieces = $3, updated_at = NOW()
		WHERE id = $4 AND status <> $1`,
		models.ChallanStatusDispatched, dc.AvailableCartons, dc.AvailablePieces, dc.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update challan status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	next := stock.Counters{
		AvailableCartons:   mv.ResultingCartons,
		AvailablePieces:    mv.ResultingPieces,
		BrokenCartonPieces: mv.ResultingBroken,
	}
	if err := updateStockGuarded(ctx, tx, dc.ProductName, prev, next, unitsPerCarton); err != nil {
		return err
	}

	mv.ReferenceNo = dc.DCNo
	if err := insertMovement(ctx, tx, mv); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Cancel aborts a challan that has not been dispatched. No stock is touched:
// cancellation before dispatch is the only safe path, issued stock is never
// restored through this flow.
func (r *DeliveryChallanRepository) Cancel(ctx context.Context, id int, remarks string) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE fg_delivery_challans
		SET status = $1, remarks = COALESCE(NULLIF($2, ''), remarks), updated_at = NOW()
		WHERE id = $3 AND status NOT IN ($1, $4)`,
		models.ChallanStatusCancelled, remarks, id, models.ChallanStatusDispatched,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get retrieves a challan by ID.
func (r *DeliveryChallanRepository) Get(ctx context.Context, id int) (*models.FinishedGoodsChallan, error) {
	dc := &models.FinishedGoodsChallan{}
	err := r.DB.QueryRow(ctx, `
		SELECT id, dc_no, dispatch_type, receiver_type, receiver_name, receiver_details,
		       product_name, issue_type, carton_quantity, piece_quantity, status,
		       available_cartons, available_pieces, dc_date, remarks, created_by_user_id,
		       created_at, updated_at
		FROM fg_delivery_challans
		WHERE id = $1`, id,
	).Scan(
		&dc.ID, &dc.DCNo, &dc.DispatchType, &dc.ReceiverType, &dc.ReceiverName, &dc.ReceiverDetails,
		&dc.ProductName, &dc.IssueType, &dc.CartonQuantity, &dc.PieceQuantity, &dc.Status,
		&dc.AvailableCartons, &dc.AvailablePieces, &dc.DCDate, &dc.Remarks, &dc.CreatedByUserID,
		&dc.CreatedAt, &dc.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return dc, nil
}

// List retrieves challans matching the filter, newest first.
func (r *DeliveryChallanRepository) List(ctx context.Context, f *models.ChallanFilter) ([]models.FinishedGoodsChallan, error) {
	query := `
		SELECT id, dc_no, dispatch_type, receiver_type, receiver_name, receiver_details,
		       product_name, issue_type, carton_quantity, piece_quantity, status,
		       available_cartons, available_pieces, dc_date, remarks, created_by_user_id,
		       created_at, updated_at
		FROM fg_delivery_challans
		WHERE 1=1`

	args := []interface{}{}
	argNum := 1

	if f.DispatchType != "" {
		query += fmt.Sprintf(" AND dispatch_type = $%d", argNum)
		args = append(args, f.DispatchType)
		argNum++
	}
	if f.ProductName != "" {
		query += fmt.Sprintf(" AND product_name = $%d", argNum)
		args = append(args, f.ProductName)
		argNum++
	}
	if f.ReceiverName != "" {
		query += fmt.Sprintf(" AND receiver_name ILIKE $%d", argNum)
		args = append(args, "%"+f.ReceiverName+"%")
		argNum++
	}
	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, f.Status)
		argNum++
	}
	if f.FromDate != nil {
		query += fmt.Sprintf(" AND dc_date >= $%d", argNum)
		args = append(args, *f.FromDate)
		argNum++
	}
	if f.ToDate != nil {
		query += fmt.Sprintf(" AND dc_date <= $%d", argNum)
		args = append(args, *f.ToDate)
		argNum++
	}

	query += " ORDER BY id DESC"

	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, f.Limit)
		argNum++
	}
	if f.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, f.Offset)
	}

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var challans []models.FinishedGoodsChallan
	for rows.Next() {
		var dc models.FinishedGoodsChallan
		if err := rows.Scan(
			&dc.ID, &dc.DCNo, &dc.DispatchType, &dc.ReceiverType, &dc.ReceiverName, &dc.ReceiverDetails,
			&dc.ProductName, &dc.IssueType, &dc.CartonQuantity, &dc.PieceQuantity, &dc.Status,
			&dc.AvailableCartons, &dc.AvailablePieces, &dc.DCDate, &dc.Remarks, &dc.CreatedByUserID,
			&dc.CreatedAt, &dc.UpdatedAt,
		); err != nil {
			return nil, err
		}
		challans = append(challans, dc)
	}
	return challans, rows.Err()
}
