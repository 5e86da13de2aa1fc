package services

import (
	"context"
	"fmt"
	"testing"

	"trade-backend/internal/models"
	"trade-backend/internal/repositories"
	"trade-backend/internal/stock"
	"trade-backend/internal/timeutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory stand-in for the Postgres repositories. It
// mirrors their semantics: guarded counter writes, sequential challan
// numbering per year and status-predicated updates.
type fakeStore struct {
	mappings  map[string]*models.ProductMaterialMapping
	stocks    map[string]*models.ProductStock
	challans  map[int]*models.FinishedGoodsChallan
	movements []models.StockMovement
	nextID    int
	yearSeq   map[int]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		mappings: make(map[string]*models.ProductMaterialMapping),
		stocks:   make(map[string]*models.ProductStock),
		challans: make(map[int]*models.FinishedGoodsChallan),
		yearSeq:  make(map[int]int),
	}
}

func (f *fakeStore) seed(product string, unitsPerCarton, cartons, pieces, broken int) {
	f.mappings[product] = &models.ProductMaterialMapping{
		ID: len(f.mappings) + 1, ProductName: product,
		MaterialName: product + " raw", UnitsPerCarton: unitsPerCarton,
	}
	f.stocks[product] = &models.ProductStock{
		ID: len(f.stocks) + 1, ProductName: product,
		AvailableCartons: cartons, AvailablePieces: pieces,
		BrokenCartonPieces: broken, UnitsPerCarton: unitsPerCarton,
	}
}

func (f *fakeStore) GetByProduct(ctx context.Context, productName string) (*models.ProductStock, error) {
	st, ok := f.stocks[productName]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (f *fakeStore) List(ctx context.Context) ([]models.ProductStock, error) {
	var out []models.ProductStock
	for _, st := range f.stocks {
		out = append(out, *st)
	}
	return out, nil
}

func (f *fakeStore) Receive(ctx context.Context, st *models.ProductStock, prev stock.Counters, mv *models.StockMovement) error {
	cur, ok := f.stocks[st.ProductName]
	if ok {
		if cur.AvailableCartons != prev.AvailableCartons ||
			cur.AvailablePieces != prev.AvailablePieces ||
			cur.BrokenCartonPieces != prev.BrokenCartonPieces {
			return repositories.ErrStockConflict
		}
	}
	cp := *st
	f.stocks[st.ProductName] = &cp
	f.movements = append(f.movements, *mv)
	return nil
}

type fakeMappingStore struct{ f *fakeStore }

func (f *fakeStore) mappingStore() MappingStore { return &fakeMappingStore{f} }

func (m *fakeMappingStore) GetByProduct(ctx context.Context, productName string) (*models.ProductMaterialMapping, error) {
	mp, ok := m.f.mappings[productName]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *mp
	return &cp, nil
}

func (f *fakeStore) applyGuarded(productName string, prev stock.Counters, mv *models.StockMovement, unitsPerCarton int) error {
	cur, ok := f.stocks[productName]
	if !ok {
		return repositories.ErrStockConflict
	}
	if cur.AvailableCartons != prev.AvailableCartons ||
		cur.AvailablePieces != prev.AvailablePieces ||
		cur.BrokenCartonPieces != prev.BrokenCartonPieces {
		return repositories.ErrStockConflict
	}
	cur.AvailableCartons = mv.ResultingCartons
	cur.AvailablePieces = mv.ResultingPieces
	cur.BrokenCartonPieces = mv.ResultingBroken
	cur.UnitsPerCarton = unitsPerCarton
	return nil
}

func (f *fakeStore) CreateDispatched(ctx context.Context, dc *models.FinishedGoodsChallan, prev stock.Counters, mv *models.StockMovement, unitsPerCarton int) error {
	year := timeutil.ToIST(dc.DCDate).Year()
	f.yearSeq[year]++
	dc.DCNo = fmt.Sprintf("FGDC-%d-%04d", year, f.yearSeq[year])
	dc.Status = models.ChallanStatusDispatched

	if err := f.applyGuarded(dc.ProductName, prev, mv, unitsPerCarton); err != nil {
		return err
	}

	f.nextID++
	dc.ID = f.nextID
	cp := *dc
	f.challans[dc.ID] = &cp

	mv.ReferenceNo = dc.DCNo
	f.movements = append(f.movements, *mv)
	return nil
}

func (f *fakeStore) MarkDispatched(ctx context.Context, dc *models.FinishedGoodsChallan, prev stock.Counters, mv *models.StockMovement, unitsPerCarton int) error {
	cur, ok := f.challans[dc.ID]
	if !ok || cur.Status == models.ChallanStatusDispatched {
		return repositories.ErrNotFound
	}
	if err := f.applyGuarded(dc.ProductName, prev, mv, unitsPerCarton); err != nil {
		return err
	}
	cur.Status = models.ChallanStatusDispatched
	cur.AvailableCartons = dc.AvailableCartons
	cur.AvailablePieces = dc.AvailablePieces

	mv.ReferenceNo = dc.DCNo
	f.movements = append(f.movements, *mv)
	return nil
}

func (f *fakeStore) Cancel(ctx context.Context, id int, remarks string) error {
	cur, ok := f.challans[id]
	if !ok || cur.Status == models.ChallanStatusCancelled || cur.Status == models.ChallanStatusDispatched {
		return repositories.ErrNotFound
	}
	cur.Status = models.ChallanStatusCancelled
	if remarks != "" {
		cur.Remarks = &remarks
	}
	return nil
}

func (f *fakeStore) Get(ctx context.Context, id int) (*models.FinishedGoodsChallan, error) {
	dc, ok := f.challans[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *dc
	return &cp, nil
}

func (f *fakeStore) ListChallans(ctx context.Context, filter *models.ChallanFilter) ([]models.FinishedGoodsChallan, error) {
	var out []models.FinishedGoodsChallan
	for _, dc := range f.challans {
		out = append(out, *dc)
	}
	return out, nil
}

// The interface method name is List; it collides with the stock List above,
// so the challan store side is exposed through a thin wrapper.
type fakeChallanStore struct{ f *fakeStore }

func (f *fakeStore) challanStore() ChallanStore { return &fakeChallanStore{f} }

func (c *fakeChallanStore) CreateDispatched(ctx context.Context, dc *models.FinishedGoodsChallan, prev stock.Counters, mv *models.StockMovement, upc int) error {
	return c.f.CreateDispatched(ctx, dc, prev, mv, upc)
}
func (c *fakeChallanStore) MarkDispatched(ctx context.Context, dc *models.FinishedGoodsChallan, prev stock.Counters, mv *models.StockMovement, upc int) error {
	return c.f.MarkDispatched(ctx, dc, prev, mv, upc)
}
func (c *fakeChallanStore) Cancel(ctx context.Context, id int, remarks string) error {
	return c.f.Cancel(ctx, id, remarks)
}
func (c *fakeChallanStore) Get(ctx context.Context, id int) (*models.FinishedGoodsChallan, error) {
	return c.f.Get(ctx, id)
}
func (c *fakeChallanStore) List(ctx context.Context, filter *models.ChallanFilter) ([]models.FinishedGoodsChallan, error) {
	return c.f.ListChallans(ctx, filter)
}

type recordingNotifier struct {
	events []models.StockUpdateEvent
}

func (n *recordingNotifier) BroadcastStockUpdate(ev models.StockUpdateEvent) {
	n.events = append(n.events, ev)
}

func newTestService(f *fakeStore) (*ChallanService, *recordingNotifier) {
	svc := NewChallanService(f.challanStore(), f, f.mappingStore(), NewProductLocks())
	n := &recordingNotifier{}
	svc.SetNotifier(n)
	return svc, n
}

func TestCreateChallanCartonIssue(t *testing.T) {
	f := newFakeStore()
	f.seed("Amber Jar 500ml", 12, 10, 5, 0)
	svc, notifier := newTestService(f)

	dc, summary, err := svc.CreateChallan(context.Background(), &models.CreateChallanRequest{
		DispatchType: "Sales",
		ReceiverType: "Customer",
		ReceiverName: "Mehta Traders",
		ProductName:  "Amber Jar 500ml",
		IssueType:    models.IssueTypeCarton,
		Quantity:     4,
	}, nil)
	require.NoError(t, err)

	year := timeutil.Now().Year()
	assert.Equal(t, fmt.Sprintf("FGDC-%d-0001", year), dc.DCNo)
	assert.Equal(t, models.ChallanStatusDispatched, dc.Status)
	assert.Equal(t, 4, summary.CartonQuantity)
	assert.Equal(t, 0, summary.PieceQuantity)
	assert.Equal(t, 48, summary.TotalQuantity)

	// Pre-deduction snapshot on the challan
	assert.Equal(t, 10, dc.AvailableCartons)
	assert.Equal(t, 5, dc.AvailablePieces)

	st := f.stocks["Amber Jar 500ml"]
	assert.Equal(t, 6, st.AvailableCartons)
	assert.Equal(t, 5, st.AvailablePieces)
	assert.Equal(t, 0, st.BrokenCartonPieces)

	require.Len(t, f.movements, 1)
	mv := f.movements[0]
	assert.Equal(t, models.StockMovementIssue, mv.MovementType)
	assert.Equal(t, -4, mv.CartonChange)
	assert.Equal(t, dc.DCNo, mv.ReferenceNo)
	assert.Equal(t, 6, mv.ResultingCartons)

	require.Len(t, notifier.events, 1)
	ev := notifier.events[0]
	assert.Equal(t, "Amber Jar 500ml", ev.ProductName)
	assert.Equal(t, 6, ev.AvailableCartons)
	assert.Equal(t, 6*12+5, ev.TotalAvailable)
}

func TestCreateChallanInsufficientStockWritesNothing(t *testing.T) {
	f := newFakeStore()
	f.seed("Amber Jar 500ml", 12, 2, 0, 0)
	svc, notifier := newTestService(f)

	_, _, err := svc.CreateChallan(context.Background(), &models.CreateChallanRequest{
		DispatchType: "Sales",
		ReceiverType: "Customer",
		ReceiverName: "Mehta Traders",
		ProductName:  "Amber Jar 500ml",
		IssueType:    models.IssueTypeCarton,
		Quantity:     5,
	}, nil)
	require.Error(t, err)
	assert.True(t, stock.IsInsufficient(err))

	var insufficient *stock.InsufficientCartonStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 3, insufficient.Deficit())

	st := f.stocks["Amber Jar 500ml"]
	assert.Equal(t, 2, st.AvailableCartons)
	assert.Empty(t, f.challans)
	assert.Empty(t, f.movements)
	assert.Empty(t, notifier.events)
}

func TestCreateChallanValidation(t *testing.T) {
	f := newFakeStore()
	f.seed("Amber Jar 500ml", 12, 10, 0, 0)
	svc, _ := newTestService(f)

	cases := []struct {
		name string
		req  models.CreateChallanRequest
	}{
		{"missing dispatch type", models.CreateChallanRequest{
			ReceiverType: "Customer", ProductName: "Amber Jar 500ml",
			IssueType: models.IssueTypeCarton, Quantity: 1,
		}},
		{"missing product", models.CreateChallanRequest{
			DispatchType: "Transfer", ReceiverType: "Branch",
			IssueType: models.IssueTypeCarton, Quantity: 1,
		}},
		{"zero quantity", models.CreateChallanRequest{
			DispatchType: "Transfer", ReceiverType: "Branch",
			ProductName: "Amber Jar 500ml", IssueType: models.IssueTypeCarton,
		}},
		{"unknown issue type", models.CreateChallanRequest{
			DispatchType: "Transfer", ReceiverType: "Branch",
			ProductName: "Amber Jar 500ml", IssueType: "Pallets", Quantity: 1,
		}},
		{"sales without receiver", models.CreateChallanRequest{
			DispatchType: "Sales", ReceiverType: "Customer",
			ProductName: "Amber Jar 500ml", IssueType: models.IssueTypeCarton, Quantity: 1,
		}},
		{"both with zero pieces", models.CreateChallanRequest{
			DispatchType: "Transfer", ReceiverType: "Branch",
			ProductName: "Amber Jar 500ml", IssueType: models.IssueTypeBoth,
			CartonQuantity: 1,
		}},
		{"bad date", models.CreateChallanRequest{
			DispatchType: "Transfer", ReceiverType: "Branch",
			ProductName: "Amber Jar 500ml", IssueType: models.IssueTypeCarton,
			Quantity: 1, Date: "31-12-2025",
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.CreateChallan(context.Background(), &tc.req, nil)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
		})
	}

	assert.Empty(t, f.challans)
	assert.Empty(t, f.movements)
}

func TestCreateChallanMissingMapping(t *testing.T) {
	f := newFakeStore()
	// Stock exists, mapping does not.
	f.stocks["Orphan"] = &models.ProductStock{ProductName: "Orphan", AvailableCartons: 5, UnitsPerCarton: 10}
	svc, _ := newTestService(f)

	_, _, err := svc.CreateChallan(context.Background(), &models.CreateChallanRequest{
		DispatchType: "Transfer", ReceiverType: "Branch",
		ProductName: "Orphan", IssueType: models.IssueTypeCarton, Quantity: 1,
	}, nil)

	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
}

func TestCreateChallanMissingStock(t *testing.T) {
	f := newFakeStore()
	f.mappings["Unstocked"] = &models.ProductMaterialMapping{ProductName: "Unstocked", UnitsPerCarton: 10}
	svc, _ := newTestService(f)

	_, _, err := svc.CreateChallan(context.Background(), &models.CreateChallanRequest{
		DispatchType: "Transfer", ReceiverType: "Branch",
		ProductName: "Unstocked", IssueType: models.IssueTypeCarton, Quantity: 1,
	}, nil)

	var nfe *NotFoundError
	require.ErrorAs(t, err, &nfe)
}

func TestCreateChallanBothRejectedWhenPiecesNeedReservedCartons(t *testing.T) {
	f := newFakeStore()
	f.seed("Amber Jar 500ml", 10, 2, 3, 5)
	svc, _ := newTestService(f)

	// The 2 requested cartons are spoken for, so only 5 broken + 3 loose
	// pieces remain obtainable; 9 pieces cannot be satisfied.
	_, _, err := svc.CreateChallan(context.Background(), &models.CreateChallanRequest{
		DispatchType: "Transfer", ReceiverType: "Branch",
		ProductName: "Amber Jar 500ml", IssueType: models.IssueTypeBoth,
		CartonQuantity: 2, PieceQuantity: 9,
	}, nil)
	require.Error(t, err)

	var insufficient *stock.InsufficientPieceStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 1, insufficient.Deficit())

	st := f.stocks["Amber Jar 500ml"]
	assert.Equal(t, 2, st.AvailableCartons)
	assert.Equal(t, 3, st.AvailablePieces)
	assert.Equal(t, 5, st.BrokenCartonPieces)
}

func TestCreateChallanSequentialNumbers(t *testing.T) {
	f := newFakeStore()
	f.seed("Amber Jar 500ml", 12, 10, 0, 0)
	svc, _ := newTestService(f)

	year := timeutil.Now().Year()
	for i := 1; i <= 3; i++ {
		dc, _, err := svc.CreateChallan(context.Background(), &models.CreateChallanRequest{
			DispatchType: "Transfer", ReceiverType: "Branch",
			ProductName: "Amber Jar 500ml", IssueType: models.IssueTypeCarton, Quantity: 1,
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("FGDC-%d-%04d", year, i), dc.DCNo)
	}
}

func TestCreateChallanEmptiedStockRejectsPieceIssue(t *testing.T) {
	f := newFakeStore()
	f.seed("Amber Jar 500ml", 20, 5, 0, 0)
	svc, _ := newTestService(f)

	_, _, err := svc.CreateChallan(context.Background(), &models.CreateChallanRequest{
		DispatchType: "Transfer", ReceiverType: "Branch",
		ProductName: "Amber Jar 500ml", IssueType: models.IssueTypeCarton, Quantity: 5,
	}, nil)
	require.NoError(t, err)

	st := f.stocks["Amber Jar 500ml"]
	assert.Equal(t, 0, st.AvailableCartons)
	assert.Equal(t, 0, st.AvailablePieces)
	assert.Equal(t, 0, st.BrokenCartonPieces)

	_, _, err = svc.CreateChallan(context.Background(), &models.CreateChallanRequest{
		DispatchType: "Transfer", ReceiverType: "Branch",
		ProductName: "Amber Jar 500ml", IssueType: models.IssueTypePieces, Quantity: 1,
	}, nil)
	require.Error(t, err)

	var insufficient *stock.InsufficientPieceStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 1, insufficient.Deficit())
}

func seedPendingChallan(f *fakeStore, product string, cartons, pieces int) *models.FinishedGoodsChallan {
	f.nextID++
	year := timeutil.Now().Year()
	f.yearSeq[year]++
	dc := &models.FinishedGoodsChallan{
		ID:             f.nextID,
		DCNo:           fmt.Sprintf("FGDC-%d-%04d", year, f.yearSeq[year]),
		DispatchType:   "Transfer",
		ReceiverType:   "Branch",
		ProductName:    product,
		IssueType:      models.IssueTypeCarton,
		CartonQuantity: cartons,
		PieceQuantity:  pieces,
		Status:         models.ChallanStatusPending,
		DCDate:         timeutil.Now(),
	}
	f.challans[dc.ID] = dc
	return dc
}

func TestUpdateStatusDispatchesPendingChallan(t *testing.T) {
	f := newFakeStore()
	f.seed("Amber Jar 500ml", 12, 10, 0, 0)
	pending := seedPendingChallan(f, "Amber Jar 500ml", 3, 0)
	svc, notifier := newTestService(f)

	dc, err := svc.UpdateStatus(context.Background(), pending.ID, &models.UpdateChallanStatusRequest{
		Status: models.ChallanStatusDispatched,
	})
	require.NoError(t, err)
	// Both the returned challan and the stored one must report the new status.
	assert.Equal(t, models.ChallanStatusDispatched, dc.Status)
	assert.Equal(t, models.ChallanStatusDispatched, f.challans[pending.ID].Status)

	st := f.stocks["Amber Jar 500ml"]
	assert.Equal(t, 7, st.AvailableCartons)
	require.Len(t, f.movements, 1)
	assert.Equal(t, pending.DCNo, f.movements[0].ReferenceNo)
	require.Len(t, notifier.events, 1)
}

func TestUpdateStatusRejectsAlreadyDispatched(t *testing.T) {
	f := newFakeStore()
	f.seed("Amber Jar 500ml", 12, 10, 0, 0)
	pending := seedPendingChallan(f, "Amber Jar 500ml", 3, 0)
	pending.Status = models.ChallanStatusDispatched
	svc, _ := newTestService(f)

	for _, target := range []string{models.ChallanStatusDispatched, models.ChallanStatusCancelled} {
		_, err := svc.UpdateStatus(context.Background(), pending.ID, &models.UpdateChallanStatusRequest{Status: target})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
	}
}

func TestUpdateStatusCancelTouchesNoStock(t *testing.T) {
	f := newFakeStore()
	f.seed("Amber Jar 500ml", 12, 10, 4, 2)
	pending := seedPendingChallan(f, "Amber Jar 500ml", 3, 0)
	svc, notifier := newTestService(f)

	dc, err := svc.UpdateStatus(context.Background(), pending.ID, &models.UpdateChallanStatusRequest{
		Status:  models.ChallanStatusCancelled,
		Remarks: "customer withdrew order",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ChallanStatusCancelled, dc.Status)

	st := f.stocks["Amber Jar 500ml"]
	assert.Equal(t, 10, st.AvailableCartons)
	assert.Equal(t, 4, st.AvailablePieces)
	assert.Equal(t, 2, st.BrokenCartonPieces)
	assert.Empty(t, f.movements)
	assert.Empty(t, notifier.events)
}

func TestUpdateStatusUnknownChallan(t *testing.T) {
	f := newFakeStore()
	svc, _ := newTestService(f)

	_, err := svc.UpdateStatus(context.Background(), 99, &models.UpdateChallanStatusRequest{
		Status: models.ChallanStatusCancelled,
	})
	var nfe *NotFoundError
	require.ErrorAs(t, err, &nfe)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	f := newFakeStore()
	f.seed("Amber Jar 500ml", 12, 10, 0, 0)
	pending := seedPendingChallan(f, "Amber Jar 500ml", 1, 0)
	svc, _ := newTestService(f)

	_, err := svc.UpdateStatus(context.Background(), pending.ID, &models.UpdateChallanStatusRequest{Status: "Shipped"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}
