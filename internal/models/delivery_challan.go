package models

import "time"

// Issue types for a finished-goods delivery challan.
const (
	IssueTypeCarton = "Carton"
	IssueTypePieces = "Pieces"
	IssueTypeBoth   = "Both"
)

// Challan statuses. Finished-goods challans are created directly in
// Dispatched; Pending rows only arrive via the raw-material flow and can be
// pushed to Dispatched or Cancelled through the update path.
const (
	ChallanStatusPending    = "Pending"
	ChallanStatusDispatched = "Dispatched"
	ChallanStatusCancelled  = "Cancelled"
)

// FinishedGoodsChallan is a dispatch document for finished goods.
// AvailableCartons/AvailablePieces are a snapshot of stock taken before the
// deduction ran, kept as an audit trail only.
type FinishedGoodsChallan struct {
	ID               int       `json:"id"`
	DCNo             string    `json:"dc_no"`
	DispatchType     string    `json:"dispatch_type"`
	ReceiverType     string    `json:"receiver_type"`
	ReceiverName     *string   `json:"receiver_name,omitempty"`
	ReceiverDetails  *string   `json:"receiver_details,omitempty"`
	ProductName      string    `json:"product_name"`
	IssueType        string    `json:"issue_type"`
	CartonQuantity   int       `json:"carton_quantity"`
	PieceQuantity    int       `json:"piece_quantity"`
	Status           string    `json:"status"`
	AvailableCartons int       `json:"available_cartons"`
	AvailablePieces  int       `json:"available_pieces"`
	DCDate           time.Time `json:"date"`
	Remarks          *string   `json:"remarks,omitempty"`
	CreatedByUserID  *int      `json:"created_by_user_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TotalQuantity returns total units covered by the challan in pieces.
func (c *FinishedGoodsChallan) TotalQuantity(unitsPerCarton int) int {
	return c.CartonQuantity*unitsPerCarton + c.PieceQuantity
}

// CreateChallanRequest is the create payload. Quantity carries the amount for
// single-unit issue types; CartonQuantity/PieceQuantity are used for "Both".
type CreateChallanRequest struct {
	DispatchType    string `json:"dispatch_type"`
	ReceiverType    string `json:"receiver_type"`
	ReceiverName    string `json:"receiver_name"`
	ReceiverDetails string `json:"receiver_details"`
	ProductName     string `json:"product_name"`
	IssueType       string `json:"issue_type"`
	Quantity        int    `json:"quantity"`
	CartonQuantity  int    `json:"carton_quantity"`
	PieceQuantity   int    `json:"piece_quantity"`
	Date            string `json:"date"`
	Remarks         string `json:"remarks"`
}

// UpdateChallanStatusRequest transitions a non-dispatched challan.
type UpdateChallanStatusRequest struct {
	Status  string `json:"status"`
	Remarks string `json:"remarks"`
}

// ChallanFilter narrows challan listings.
type ChallanFilter struct {
	DispatchType string
	ProductName  string
	ReceiverName string
	FromDate     *time.Time
	ToDate       *time.Time
	Status       string
	Limit        int
	Offset       int
}

// ChallanSummary is the data section of the create response.
type ChallanSummary struct {
	DCNo           string `json:"dc_no"`
	Status         string `json:"status"`
	IssueType      string `json:"issue_type"`
	CartonQuantity int    `json:"carton_quantity"`
	PieceQuantity  int    `json:"piece_quantity"`
	TotalQuantity  int    `json:"total_quantity"`
}
