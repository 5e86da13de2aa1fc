package services

import (
	"context"
	"testing"

	"trade-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMovementStore struct {
	f *fakeStore
}

func (m *fakeMovementStore) ListByProduct(ctx context.Context, productName string, limit int) ([]models.StockMovement, error) {
	var out []models.StockMovement
	for i := len(m.f.movements) - 1; i >= 0; i-- {
		if m.f.movements[i].ProductName == productName {
			out = append(out, m.f.movements[i])
		}
	}
	return out, nil
}

func newTestStockService(f *fakeStore) (*StockService, *recordingNotifier) {
	svc := NewStockService(f, f.mappingStore(), &fakeMovementStore{f}, NewProductLocks())
	n := &recordingNotifier{}
	svc.SetNotifier(n)
	return svc, n
}

func TestReceiveIntoExistingStock(t *testing.T) {
	f := newFakeStore()
	f.seed("Amber Jar 500ml", 12, 3, 4, 2)
	svc, notifier := newTestStockService(f)

	st, err := svc.Receive(context.Background(), &models.ReceiveStockRequest{
		ProductName: "Amber Jar 500ml",
		Cartons:     5,
		Pieces:      6,
		GRNNo:       "GRN-2026-0042",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 8, st.AvailableCartons)
	assert.Equal(t, 10, st.AvailablePieces)
	// Received pieces never land in the broken pool.
	assert.Equal(t, 2, st.BrokenCartonPieces)

	require.Len(t, f.movements, 1)
	mv := f.movements[0]
	assert.Equal(t, models.StockMovementReceipt, mv.MovementType)
	assert.Equal(t, 5, mv.CartonChange)
	assert.Equal(t, 6, mv.PieceChange)
	assert.Equal(t, "GRN-2026-0042", mv.ReferenceNo)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, 8*12+10+2, notifier.events[0].TotalAvailable)
}

func TestReceiveCreatesStockOnFirstReceipt(t *testing.T) {
	f := newFakeStore()
	f.mappings["New Product"] = &models.ProductMaterialMapping{ProductName: "New Product", UnitsPerCarton: 24}
	svc, _ := newTestStockService(f)

	st, err := svc.Receive(context.Background(), &models.ReceiveStockRequest{
		ProductName: "New Product",
		Cartons:     2,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, st.AvailableCartons)
	assert.Equal(t, 24, st.UnitsPerCarton)
	require.Contains(t, f.stocks, "New Product")
}

func TestReceiveValidation(t *testing.T) {
	f := newFakeStore()
	f.seed("Amber Jar 500ml", 12, 3, 0, 0)
	svc, _ := newTestStockService(f)

	cases := []models.ReceiveStockRequest{
		{Cartons: 1},
		{ProductName: "Amber Jar 500ml"},
		{ProductName: "Amber Jar 500ml", Cartons: -1},
		{ProductName: "Amber Jar 500ml", Pieces: -3},
	}
	for _, req := range cases {
		_, err := svc.Receive(context.Background(), &req, nil)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
	}
}

func TestReceiveWithoutMapping(t *testing.T) {
	f := newFakeStore()
	svc, _ := newTestStockService(f)

	_, err := svc.Receive(context.Background(), &models.ReceiveStockRequest{
		ProductName: "Unmapped",
		Cartons:     1,
	}, nil)

	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
}

func TestMovementsNewestFirst(t *testing.T) {
	f := newFakeStore()
	f.seed("Amber Jar 500ml", 12, 3, 0, 0)
	svc, _ := newTestStockService(f)

	for i := 0; i < 3; i++ {
		_, err := svc.Receive(context.Background(), &models.ReceiveStockRequest{
			ProductName: "Amber Jar 500ml",
			Cartons:     1,
		}, nil)
		require.NoError(t, err)
	}

	movements, err := svc.Movements(context.Background(), "Amber Jar 500ml", 10)
	require.NoError(t, err)
	require.Len(t, movements, 3)
	assert.Equal(t, 6, movements[0].ResultingCartons)
	assert.Equal(t, 4, movements[2].ResultingCartons)
}
