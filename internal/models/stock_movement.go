package models

import "time"

// StockMovementType classifies a ledger row.
type StockMovementType string

const (
	StockMovementIssue   StockMovementType = "ISSUE"   // Stock deducted by a delivery challan
	StockMovementReceipt StockMovementType = "RECEIPT" // Stock received via GRN
)

// StockMovement is an append-only ledger row recording one stock mutation
// together with the counters that resulted from it. The movement history for
// a product replays to its current ProductStock balance.
type StockMovement struct {
	ID               int               `json:"id"`
	ProductName      string            `json:"product_name"`
	MovementType     StockMovementType `json:"movement_type"`
	CartonChange     int               `json:"carton_change"` // signed, negative on issue
	PieceChange      int               `json:"piece_change"`  // signed total loose-piece delta
	CartonsBroken    int               `json:"cartons_broken"`
	ResultingCartons int               `json:"resulting_cartons"`
	ResultingPieces  int               `json:"resulting_pieces"`
	ResultingBroken  int               `json:"resulting_broken"`
	ReferenceType    string            `json:"reference_type"` // 'delivery_challan', 'grn'
	ReferenceNo      string            `json:"reference_no"`
	CreatedByUserID  *int              `json:"created_by_user_id,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	Notes            string            `json:"notes"`
}
