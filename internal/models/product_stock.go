package models

import "time"

// ProductStock tracks finished-goods stock for a single product.
// Loose pieces that came out of an opened carton are tracked separately
// from pieces that were never part of a carton, so issuance can prefer
// already-broken stock before opening another carton.
type ProductStock struct {
	ID                 int       `json:"id"`
	ProductName        string    `json:"product_name"`
	AvailableCartons   int       `json:"available_cartons"`
	AvailablePieces    int       `json:"available_pieces"`
	BrokenCartonPieces int       `json:"broken_carton_pieces"`
	UnitsPerCarton     int       `json:"units_per_carton"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TotalAvailable returns the total sellable units across all counters.
func (s *ProductStock) TotalAvailable() int {
	return s.AvailableCartons*s.UnitsPerCarton + s.AvailablePieces + s.BrokenCartonPieces
}

// StockUpdateEventName discriminates stock snapshots from any other
// payload the socket may carry in the future.
const StockUpdateEventName = "stockUpdate"

// StockUpdateEvent is the payload broadcast to connected dashboards
// after every successful stock mutation.
type StockUpdateEvent struct {
	Event              string    `json:"event"`
	ProductName        string    `json:"product_name"`
	AvailableCartons   int       `json:"available_cartons"`
	AvailablePieces    int       `json:"available_pieces"`
	BrokenCartonPieces int       `json:"broken_carton_pieces"`
	UnitsPerCarton     int       `json:"units_per_carton"`
	TotalAvailable     int       `json:"totalAvailable"`
	LastUpdated        time.Time `json:"lastUpdated"`
}

// ReceiveStockRequest records inward stock from a goods-receipt note.
type ReceiveStockRequest struct {
	ProductName string `json:"product_name"`
	Cartons     int    `json:"cartons"`
	Pieces      int    `json:"pieces"`
	GRNNo       string `json:"grn_no"`
	Remarks     string `json:"remarks"`
}
