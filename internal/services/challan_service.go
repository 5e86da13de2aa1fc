package services

import (
	"context"
	"errors"
	"fmt"

	"trade-backend/internal/cache"
	"trade-backend/internal/metrics"
	"trade-backend/internal/models"
	"trade-backend/internal/repositories"
	"trade-backend/internal/stock"
	"trade-backend/internal/timeutil"
)

// ChallanStore persists challans together with their stock deduction. The
// implementations run the challan write, the guarded stock write and the
// movement append in one transaction.
type ChallanStore interface {
	CreateDispatched(ctx context.Context, dc *models.FinishedGoodsChallan, prev stock.Counters, mv *models.StockMovement, unitsPerCarton int) error
	MarkDispatched(ctx context.Context, dc *models.FinishedGoodsChallan, prev stock.Counters, mv *models.StockMovement, unitsPerCarton int) error
	Cancel(ctx context.Context, id int, remarks string) error
	Get(ctx context.Context, id int) (*models.FinishedGoodsChallan, error)
	List(ctx context.Context, f *models.ChallanFilter) ([]models.FinishedGoodsChallan, error)
}

// StockStore reads and mutates product stock records.
type StockStore interface {
	GetByProduct(ctx context.Context, productName string) (*models.ProductStock, error)
	List(ctx context.Context) ([]models.ProductStock, error)
	Receive(ctx context.Context, st *models.ProductStock, prev stock.Counters, mv *models.StockMovement) error
}

// MappingStore reads the carton-size master data.
type MappingStore interface {
	GetByProduct(ctx context.Context, productName string) (*models.ProductMaterialMapping, error)
}

// StockNotifier pushes post-mutation snapshots to connected dashboards.
// Best effort only: a notifier failure never affects the mutation.
type StockNotifier interface {
	BroadcastStockUpdate(ev models.StockUpdateEvent)
}

type ChallanService struct {
	ChallanRepo ChallanStore
	StockRepo   StockStore
	MappingRepo MappingStore

	locks    *ProductLocks
	notifier StockNotifier
}

func NewChallanService(challanRepo ChallanStore, stockRepo StockStore, mappingRepo MappingStore, locks *ProductLocks) *ChallanService {
	return &ChallanService{
		ChallanRepo: challanRepo,
		StockRepo:   stockRepo,
		MappingRepo: mappingRepo,
		locks:       locks,
	}
}

// SetNotifier wires the real-time hub. Optional; nil means no broadcasts.
func (s *ChallanService) SetNotifier(n StockNotifier) {
	s.notifier = n
}

// CreateChallan validates the request, runs the stock deduction and persists
// challan + stock + movement atomically. Nothing is written on any failure.
func (s *ChallanService) CreateChallan(ctx context.Context, req *models.CreateChallanRequest, userID *int) (*models.FinishedGoodsChallan, *models.ChallanSummary, error) {
	cartonQty, pieceQty, err := validateCreateRequest(req)
	if err != nil {
		return nil, nil, err
	}

	dcDate := timeutil.Now()
	if req.Date != "" {
		parsed, err := timeutil.ParseInIST(timeutil.DateLayout, req.Date)
		if err != nil {
			return nil, nil, validationErrorf("Invalid date, expected YYYY-MM-DD")
		}
		dcDate = parsed
	}

	// Serialize the read-modify-write per product.
	unlock := s.locks.Lock(req.ProductName)
	defer unlock()

	unitsPerCarton, err := s.lookupUnitsPerCarton(ctx, req.ProductName)
	if err != nil {
		return nil, nil, err
	}

	cur, err := s.StockRepo.GetByProduct(ctx, req.ProductName)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil, &NotFoundError{Message: fmt.Sprintf("No stock record found for product %q", req.ProductName)}
	}
	if err != nil {
		return nil, nil, err
	}

	prev := countersOf(cur)
	res, err := stock.Deduct(prev, unitsPerCarton, stock.Request{Cartons: cartonQty, Pieces: pieceQty})
	if err != nil {
		if stock.IsInsufficient(err) {
			metrics.InsufficientStockTotal.WithLabelValues(req.ProductName).Inc()
		}
		return nil, nil, translateStockError(err)
	}

	dc := &models.FinishedGoodsChallan{
		DispatchType:   req.DispatchType,
		ReceiverType:   req.ReceiverType,
		ProductName:    req.ProductName,
		IssueType:      req.IssueType,
		CartonQuantity: cartonQty,
		PieceQuantity:  pieceQty,
		// Pre-deduction snapshot, audit trail only.
		AvailableCartons: prev.AvailableCartons,
		AvailablePieces:  prev.AvailablePieces,
		DCDate:           dcDate,
		CreatedByUserID:  userID,
	}
	if req.ReceiverName != "" {
		dc.ReceiverName = &req.ReceiverName
	}
	if req.ReceiverDetails != "" {
		dc.ReceiverDetails = &req.ReceiverDetails
	}
	if req.Remarks != "" {
		dc.Remarks = &req.Remarks
	}

	mv := issueMovement(req.ProductName, res, prev, userID)
	if err := s.ChallanRepo.CreateDispatched(ctx, dc, prev, mv, unitsPerCarton); err != nil {
		return nil, nil, err
	}

	s.afterStockMutation(ctx, req.ProductName, res.Counters, unitsPerCarton)
	metrics.ChallansCreatedTotal.WithLabelValues(req.IssueType).Inc()
	metrics.StockIssuedUnits.WithLabelValues(req.ProductName).Add(float64(cartonQty*unitsPerCarton + pieceQty))
	if res.CartonsBroken > 0 {
		metrics.CartonsBrokenTotal.WithLabelValues(req.ProductName).Add(float64(res.CartonsBroken))
	}

	summary := &models.ChallanSummary{
		DCNo:           dc.DCNo,
		Status:         dc.Status,
		IssueType:      dc.IssueType,
		CartonQuantity: dc.CartonQuantity,
		PieceQuantity:  dc.PieceQuantity,
		TotalQuantity:  dc.TotalQuantity(unitsPerCarton),
	}
	return dc, summary, nil
}

// UpdateStatus transitions a challan that is not yet dispatched. Moving to
// Dispatched runs the same deduction as the create path against the current
// stock; moving to Cancelled touches no stock.
func (s *ChallanService) UpdateStatus(ctx context.Context, id int, req *models.UpdateChallanStatusRequest) (*models.FinishedGoodsChallan, error) {
	dc, err := s.ChallanRepo.Get(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, &NotFoundError{Message: "Delivery challan not found"}
	}
	if err != nil {
		return nil, err
	}

	if dc.Status == models.ChallanStatusDispatched {
		return nil, validationErrorf("Challan is already dispatched and cannot be modified")
	}

	switch req.Status {
	case models.ChallanStatusDispatched:
		return s.dispatchExisting(ctx, dc)

	case models.ChallanStatusCancelled:
		if dc.Status == models.ChallanStatusCancelled {
			return nil, validationErrorf("Challan is already cancelled")
		}
		if err := s.ChallanRepo.Cancel(ctx, id, req.Remarks); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, validationErrorf("Challan status changed concurrently, please reload")
			}
			return nil, err
		}
		dc.Status = models.ChallanStatusCancelled
		return dc, nil

	default:
		return nil, validationErrorf("Status must be Dispatched or Cancelled")
	}
}

func (s *ChallanService) dispatchExisting(ctx context.Context, dc *models.FinishedGoodsChallan) (*models.FinishedGoodsChallan, error) {
	unlock := s.locks.Lock(dc.ProductName)
	defer unlock()

	unitsPerCarton, err := s.lookupUnitsPerCarton(ctx, dc.ProductName)
	if err != nil {
		return nil, err
	}

	cur, err := s.StockRepo.GetByProduct(ctx, dc.ProductName)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, &NotFoundError{Message: fmt.Sprintf("No stock record found for product %q", dc.ProductName)}
	}
	if err != nil {
		return nil, err
	}

	prev := countersOf(cur)
	res, err := stock.Deduct(prev, unitsPerCarton, stock.Request{Cartons: dc.CartonQuantity, Pieces: dc.PieceQuantity})
	if err != nil {
		if stock.IsInsufficient(err) {
			metrics.InsufficientStockTotal.WithLabelValues(dc.ProductName).Inc()
		}
		return nil, translateStockError(err)
	}

	// Refresh the audit snapshot: the counters at dispatch time, not the
	// ones captured when the pending challan was first recorded.
	dc.AvailableCartons = prev.AvailableCartons
	dc.AvailablePieces = prev.AvailablePieces

	mv := issueMovement(dc.ProductName, res, prev, dc.CreatedByUserID)
	if err := s.ChallanRepo.MarkDispatched(ctx, dc, prev, mv, unitsPerCarton); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, validationErrorf("Challan status changed concurrently, please reload")
		}
		return nil, err
	}
	dc.Status = models.ChallanStatusDispatched

	s.afterStockMutation(ctx, dc.ProductName, res.Counters, unitsPerCarton)
	metrics.StockIssuedUnits.WithLabelValues(dc.ProductName).Add(float64(dc.CartonQuantity*unitsPerCarton + dc.PieceQuantity))
	if res.CartonsBroken > 0 {
		metrics.CartonsBrokenTotal.WithLabelValues(dc.ProductName).Add(float64(res.CartonsBroken))
	}
	return dc, nil
}

func (s *ChallanService) GetChallan(ctx context.Context, id int) (*models.FinishedGoodsChallan, error) {
	dc, err := s.ChallanRepo.Get(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, &NotFoundError{Message: "Delivery challan not found"}
	}
	return dc, err
}

func (s *ChallanService) ListChallans(ctx context.Context, f *models.ChallanFilter) ([]models.FinishedGoodsChallan, error) {
	return s.ChallanRepo.List(ctx, f)
}

// lookupUnitsPerCarton resolves the carton size from master data. A missing
// or zero mapping is a configuration problem, not a stock problem.
func (s *ChallanService) lookupUnitsPerCarton(ctx context.Context, productName string) (int, error) {
	mapping, err := s.MappingRepo.GetByProduct(ctx, productName)
	if errors.Is(err, repositories.ErrNotFound) {
		return 0, &ConfigurationError{Message: fmt.Sprintf("No carton mapping configured for product %q", productName)}
	}
	if err != nil {
		return 0, err
	}
	if mapping.UnitsPerCarton <= 0 {
		return 0, &ConfigurationError{Message: fmt.Sprintf("Units per carton is not set for product %q", productName)}
	}
	return mapping.UnitsPerCarton, nil
}

// afterStockMutation invalidates the cached snapshot and broadcasts the new
// counters. Both are fire-and-forget.
func (s *ChallanService) afterStockMutation(ctx context.Context, productName string, c stock.Counters, unitsPerCarton int) {
	cache.InvalidateStockList(ctx)

	if s.notifier != nil {
		s.notifier.BroadcastStockUpdate(models.StockUpdateEvent{
			ProductName:        productName,
			AvailableCartons:   c.AvailableCartons,
			AvailablePieces:    c.AvailablePieces,
			BrokenCartonPieces: c.BrokenCartonPieces,
			UnitsPerCarton:     unitsPerCarton,
			TotalAvailable:     c.TotalPieces(unitsPerCarton),
			LastUpdated:        timeutil.Now(),
		})
	}
}

func countersOf(s *models.ProductStock) stock.Counters {
	return stock.Counters{
		AvailableCartons:   s.AvailableCartons,
		AvailablePieces:    s.AvailablePieces,
		BrokenCartonPieces: s.BrokenCartonPieces,
	}
}

func issueMovement(productName string, res stock.Result, prev stock.Counters, userID *int) *models.StockMovement {
	return &models.StockMovement{
		ProductName:      productName,
		MovementType:     models.StockMovementIssue,
		CartonChange:     res.Counters.AvailableCartons - prev.AvailableCartons,
		PieceChange:      (res.Counters.AvailablePieces + res.Counters.BrokenCartonPieces) - (prev.AvailablePieces + prev.BrokenCartonPieces),
		CartonsBroken:    res.CartonsBroken,
		ResultingCartons: res.Counters.AvailableCartons,
		ResultingPieces:  res.Counters.AvailablePieces,
		ResultingBroken:  res.Counters.BrokenCartonPieces,
		ReferenceType:    "delivery_challan",
		CreatedByUserID:  userID,
	}
}

// validateCreateRequest checks the field rules and normalizes the quantity
// pair for the issue type.
func validateCreateRequest(req *models.CreateChallanRequest) (cartonQty, pieceQty int, err error) {
	if req.DispatchType == "" {
		return 0, 0, validationErrorf("dispatch_type is required")
	}
	if req.ReceiverType == "" {
		return 0, 0, validationErrorf("receiver_type is required")
	}
	if req.ProductName == "" {
		return 0, 0, validationErrorf("product_name is required")
	}
	if req.DispatchType == "Sales" || req.DispatchType == "Courier" {
		if req.ReceiverName == "" {
			return 0, 0, validationErrorf("receiver_name is required for Sales and Courier dispatches")
		}
	}

	switch req.IssueType {
	case models.IssueTypeCarton:
		if req.Quantity <= 0 {
			return 0, 0, validationErrorf("quantity must be greater than zero for Carton issue")
		}
		return req.Quantity, 0, nil

	case models.IssueTypePieces:
		if req.Quantity <= 0 {
			return 0, 0, validationErrorf("quantity must be greater than zero for Pieces issue")
		}
		return 0, req.Quantity, nil

	case models.IssueTypeBoth:
		if req.CartonQuantity <= 0 {
			return 0, 0, validationErrorf("carton_quantity must be greater than zero for Both issue")
		}
		if req.PieceQuantity <= 0 {
			return 0, 0, validationErrorf("piece_quantity must be greater than zero for Both issue")
		}
		return req.CartonQuantity, req.PieceQuantity, nil

	case "":
		return 0, 0, validationErrorf("issue_type is required")

	default:
		return 0, 0, validationErrorf("issue_type must be Carton, Pieces or Both")
	}
}

// translateStockError maps the pure-algorithm errors into the service error
// taxonomy. The underflow sentinel is a bug signal and stays an internal
// error for the handler to log and 500.
func translateStockError(err error) error {
	if errors.Is(err, stock.ErrMissingUnitsPerCarton) {
		return &ConfigurationError{Message: "Units per carton is not configured for this product"}
	}
	if errors.Is(err, stock.ErrCounterUnderflow) {
		return fmt.Errorf("stock deduction invariant violated: %w", err)
	}
	return err
}
