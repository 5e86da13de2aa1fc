package services

import (
	"context"
	"errors"
	"fmt"

	"trade-backend/internal/cache"
	"trade-backend/internal/models"
	"trade-backend/internal/repositories"
	"trade-backend/internal/stock"
	"trade-backend/internal/timeutil"
)

// MovementStore reads the append-only stock movement ledger.
type MovementStore interface {
	ListByProduct(ctx context.Context, productName string, limit int) ([]models.StockMovement, error)
}

type StockService struct {
	StockRepo    StockStore
	MappingRepo  MappingStore
	MovementRepo MovementStore

	locks    *ProductLocks
	notifier StockNotifier
}

func NewStockService(stockRepo StockStore, mappingRepo MappingStore, movementRepo MovementStore, locks *ProductLocks) *StockService {
	return &StockService{
		StockRepo:    stockRepo,
		MappingRepo:  mappingRepo,
		MovementRepo: movementRepo,
		locks:        locks,
	}
}

func (s *StockService) SetNotifier(n StockNotifier) {
	s.notifier = n
}

func (s *StockService) GetStock(ctx context.Context, productName string) (*models.ProductStock, error) {
	st, err := s.StockRepo.GetByProduct(ctx, productName)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, &NotFoundError{Message: fmt.Sprintf("No stock record found for product %q", productName)}
	}
	return st, err
}

// ListStock returns all product stocks, served from the Redis snapshot when
// one is present.
func (s *StockService) ListStock(ctx context.Context) ([]models.ProductStock, error) {
	if stocks, ok := cache.GetStockList(ctx); ok {
		return stocks, nil
	}

	stocks, err := s.StockRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	cache.SetStockList(ctx, stocks)
	return stocks, nil
}

func (s *StockService) Movements(ctx context.Context, productName string, limit int) ([]models.StockMovement, error) {
	return s.MovementRepo.ListByProduct(ctx, productName, limit)
}

// Receive books inward stock against a GRN. Counters only ever grow here;
// received pieces land in the loose pool, never in the broken pool.
func (s *StockService) Receive(ctx context.Context, req *models.ReceiveStockRequest, userID *int) (*models.ProductStock, error) {
	if req.ProductName == "" {
		return nil, validationErrorf("product_name is required")
	}
	if req.Cartons < 0 || req.Pieces < 0 {
		return nil, validationErrorf("cartons and pieces must not be negative")
	}
	if req.Cartons == 0 && req.Pieces == 0 {
		return nil, validationErrorf("at least one of cartons or pieces must be greater than zero")
	}

	unlock := s.locks.Lock(req.ProductName)
	defer unlock()

	mapping, err := s.MappingRepo.GetByProduct(ctx, req.ProductName)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, &ConfigurationError{Message: fmt.Sprintf("No carton mapping configured for product %q", req.ProductName)}
	}
	if err != nil {
		return nil, err
	}
	if mapping.UnitsPerCarton <= 0 {
		return nil, &ConfigurationError{Message: fmt.Sprintf("Units per carton is not set for product %q", req.ProductName)}
	}

	prev := stock.Counters{}
	cur, err := s.StockRepo.GetByProduct(ctx, req.ProductName)
	switch {
	case err == nil:
		prev = countersOf(cur)
	case errors.Is(err, repositories.ErrNotFound):
		// First receipt for this product creates the stock row.
	default:
		return nil, err
	}

	next := prev
	next.AvailableCartons += req.Cartons
	next.AvailablePieces += req.Pieces

	st := &models.ProductStock{
		ProductName:        req.ProductName,
		AvailableCartons:   next.AvailableCartons,
		AvailablePieces:    next.AvailablePieces,
		BrokenCartonPieces: next.BrokenCartonPieces,
		UnitsPerCarton:     mapping.UnitsPerCarton,
	}

	mv := &models.StockMovement{
		ProductName:      req.ProductName,
		MovementType:     models.StockMovementReceipt,
		CartonChange:     req.Cartons,
		PieceChange:      req.Pieces,
		ResultingCartons: next.AvailableCartons,
		ResultingPieces:  next.AvailablePieces,
		ResultingBroken:  next.BrokenCartonPieces,
		ReferenceType:    "grn",
		ReferenceNo:      req.GRNNo,
		CreatedByUserID:  userID,
		Notes:            req.Remarks,
	}

	if err := s.StockRepo.Receive(ctx, st, prev, mv); err != nil {
		return nil, err
	}

	cache.InvalidateStockList(ctx)
	if s.notifier != nil {
		s.notifier.BroadcastStockUpdate(models.StockUpdateEvent{
			ProductName:        st.ProductName,
			AvailableCartons:   st.AvailableCartons,
			AvailablePieces:    st.AvailablePieces,
			BrokenCartonPieces: st.BrokenCartonPieces,
			UnitsPerCarton:     st.UnitsPerCarton,
			TotalAvailable:     next.TotalPieces(st.UnitsPerCarton),
			LastUpdated:        timeutil.Now(),
		})
	}
	return st, nil
}
